package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ApplyError indicates a specific migration's transaction failed. Migrations
// applied before the failure remain applied; there is no global rollback.
type ApplyError struct {
	Migration string
	Err       error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("migration %q failed: %v", e.Migration, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Migration is a discovered migration file, identified by its version token.
type Migration struct {
	Version string `json:"version"`
	Name    string `json:"name"`
	Path    string `json:"-"`
}

// AppliedMigration is a bookkeeping row for a migration that has run.
type AppliedMigration struct {
	Version   string    `json:"version"`
	Name      string    `json:"name"`
	AppliedAt time.Time `json:"applied_at"`
}

// Status is the apply-state of the migrations directory.
type Status struct {
	Applied []AppliedMigration `json:"applied"`
	Pending []Migration        `json:"pending"`
}

// Runner discovers and applies migrations. Applied versions are recorded in
// the schema_migrations bookkeeping table.
type Runner struct {
	pool   *pgxpool.Pool
	dir    string
	logger *slog.Logger
}

// NewRunner creates a runner over an established pool and a migrations
// directory.
func NewRunner(pool *pgxpool.Pool, dir string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{pool: pool, dir: dir, logger: logger}
}

func (r *Runner) ensureTable(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    text PRIMARY KEY,
			name       text NOT NULL,
			applied_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}
	return nil
}

// files lists migration up-files in version order.
func (r *Runner) files() ([]Migration, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory %s: %w", r.dir, err)
	}

	var migrations []Migration
	for _, entry := range entries {
		m := upFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		migrations = append(migrations, Migration{
			Version: m[1],
			Name:    m[2],
			Path:    filepath.Join(r.dir, entry.Name()),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// appliedVersions reads the bookkeeping table.
func (r *Runner) appliedVersions(ctx context.Context) (map[string]AppliedMigration, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT version, name, applied_at FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]AppliedMigration)
	for rows.Next() {
		var a AppliedMigration
		if err := rows.Scan(&a.Version, &a.Name, &a.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan schema_migrations row: %w", err)
		}
		applied[a.Version] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read schema_migrations rows: %w", err)
	}
	return applied, nil
}

// Pending lists migrations whose version is not yet recorded as applied, in
// filename order.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	all, err := r.files()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, m := range all {
		if _, ok := applied[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// Apply runs every pending migration in version order, each inside its own
// transaction. The first failure halts the run with an ApplyError; migrations
// already applied stay applied. The returned slice holds what this call
// applied, including the successes before a failure.
func (r *Runner) Apply(ctx context.Context) ([]Migration, error) {
	pending, err := r.Pending(ctx)
	if err != nil {
		return nil, err
	}

	var applied []Migration
	for _, m := range pending {
		if err := r.applyOne(ctx, m); err != nil {
			return applied, err
		}
		applied = append(applied, m)
		r.logger.Info("applied migration", "version", m.Version, "name", m.Name)
	}
	return applied, nil
}

func (r *Runner) applyOne(ctx context.Context, m Migration) error {
	sql, err := os.ReadFile(m.Path)
	if err != nil {
		return &ApplyError{Migration: m.Version + "_" + m.Name, Err: err}
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &ApplyError{Migration: m.Version + "_" + m.Name, Err: err}
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, string(sql)); err != nil {
		return &ApplyError{Migration: m.Version + "_" + m.Name, Err: err}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
		m.Version, m.Name); err != nil {
		return &ApplyError{Migration: m.Version + "_" + m.Name, Err: err}
	}
	if err := tx.Commit(ctx); err != nil {
		return &ApplyError{Migration: m.Version + "_" + m.Name, Err: err}
	}
	return nil
}

// Status reports applied and pending migrations for operator inspection.
func (r *Runner) Status(ctx context.Context) (*Status, error) {
	applied, err := r.appliedVersions(ctx)
	if err != nil {
		return nil, err
	}

	all, err := r.files()
	if err != nil {
		return nil, err
	}

	status := &Status{}
	for _, m := range all {
		if a, ok := applied[m.Version]; ok {
			status.Applied = append(status.Applied, a)
		} else {
			status.Pending = append(status.Pending, m)
		}
	}
	sort.Slice(status.Applied, func(i, j int) bool {
		return status.Applied[i].Version < status.Applied[j].Version
	})
	return status, nil
}
