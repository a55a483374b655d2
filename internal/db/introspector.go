package db

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wayfarerhq/schemadrift/internal/schema"
)

// Catalog query labels, reported in QueryError so a failure identifies the
// sub-query that broke.
const (
	queryTables      = "tables"
	queryColumns     = "columns"
	queryIndexes     = "indexes"
	queryConstraints = "constraints"
	queryEnums       = "enums"
)

// IntrospectorOptions configures snapshot extraction.
type IntrospectorOptions struct {
	// SchemaName is the working schema; defaults to "public".
	SchemaName string

	// ExcludeTables lists exact table names to omit from the snapshot,
	// e.g. the migration bookkeeping table.
	ExcludeTables []string

	// ExcludePrefixes lists additional table-name prefixes to treat as
	// internal, on top of the engine-reserved ones.
	ExcludePrefixes []string

	// StatementTimeout bounds each catalog query. Zero means no timeout.
	// An exceeded timeout surfaces as a QueryError.
	StatementTimeout time.Duration

	Logger *slog.Logger
}

// Introspector reads the live database catalog and produces a normalized
// schema snapshot. It is strictly read-only.
type Introspector struct {
	client *Client
	opts   IntrospectorOptions
	logger *slog.Logger
}

// NewIntrospector creates an introspector over an established client.
func NewIntrospector(client *Client, opts IntrospectorOptions) *Introspector {
	if opts.SchemaName == "" {
		opts.SchemaName = "public"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Introspector{client: client, opts: opts, logger: logger}
}

// Snapshot extracts the current persisted structure of the working schema.
// The catalog sub-queries (columns, indexes, constraints, enums) are
// independent and run concurrently on separate pooled connections; the first
// failure cancels the rest and aborts the whole introspection, so a partial
// snapshot is never returned.
func (in *Introspector) Snapshot(ctx context.Context) (*schema.Snapshot, error) {
	start := time.Now()

	tables, err := in.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	var (
		columns     map[string]map[string]schema.Column
		indexes     map[string][]schema.Index
		constraints map[string][]schema.Constraint
		enums       map[string][]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		columns, err = in.extractColumns(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		indexes, err = in.extractIndexes(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		constraints, err = in.extractConstraints(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		enums, err = in.extractEnums(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := schema.NewSnapshot()
	for _, name := range tables {
		table := schema.Table{
			Name:        name,
			Columns:     columns[name],
			Indexes:     indexes[name],
			Constraints: constraints[name],
		}
		if table.Columns == nil {
			table.Columns = make(map[string]schema.Column)
		}
		snap.Tables[name] = table
	}
	snap.Enums = enums

	in.logger.Debug("introspected live schema",
		"schema", in.opts.SchemaName,
		"tables", len(snap.Tables),
		"enums", len(snap.Enums),
		"elapsed", time.Since(start))

	return snap, nil
}

func (in *Introspector) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if in.opts.StatementTimeout > 0 {
		return context.WithTimeout(ctx, in.opts.StatementTimeout)
	}
	return context.WithCancel(ctx)
}

func (in *Introspector) excluded(name string) bool {
	if schema.IsReservedName(name, in.opts.ExcludePrefixes) {
		return true
	}
	for _, t := range in.opts.ExcludeTables {
		if t == name {
			return true
		}
	}
	return false
}

// tableNames enumerates base tables in the working schema, excluding
// engine-internal names and configured exclusions.
func (in *Introspector) tableNames(ctx context.Context) ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	qctx, cancel := in.queryCtx(ctx)
	defer cancel()

	rows, err := in.client.Pool().Query(qctx, query, in.opts.SchemaName)
	if err != nil {
		return nil, &QueryError{Query: queryTables, Err: err}
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryError{Query: queryTables, Err: err}
		}
		if in.excluded(name) {
			continue
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: queryTables, Err: err}
	}

	return tables, nil
}

// extractColumns reads every column in the working schema in one pass,
// grouped by table. Only the presence of a default matters, never its value.
func (in *Introspector) extractColumns(ctx context.Context) (map[string]map[string]schema.Column, error) {
	query := `
		SELECT
			c.table_name,
			c.column_name,
			c.data_type,
			c.udt_name,
			c.is_nullable,
			c.column_default IS NOT NULL,
			d.description
		FROM information_schema.columns c
		JOIN pg_catalog.pg_class rel ON rel.relname = c.table_name
		JOIN pg_catalog.pg_namespace n ON n.oid = rel.relnamespace AND n.nspname = c.table_schema
		LEFT JOIN pg_catalog.pg_description d
			ON d.objoid = rel.oid AND d.objsubid = c.ordinal_position
		WHERE c.table_schema = $1 AND rel.relkind = 'r'
		ORDER BY c.table_name, c.ordinal_position
	`

	qctx, cancel := in.queryCtx(ctx)
	defer cancel()

	rows, err := in.client.Pool().Query(qctx, query, in.opts.SchemaName)
	if err != nil {
		return nil, &QueryError{Query: queryColumns, Err: err}
	}
	defer rows.Close()

	columns := make(map[string]map[string]schema.Column)
	for rows.Next() {
		var (
			tableName  string
			col        schema.Column
			dataType   string
			udtName    string
			nullable   string
			hasDefault bool
			comment    *string
		)
		if err := rows.Scan(&tableName, &col.Name, &dataType, &udtName, &nullable, &hasDefault, &comment); err != nil {
			return nil, &QueryError{Query: queryColumns, Err: err}
		}

		col.Type = schema.NormalizeType(dataType, udtName)
		col.Nullable = nullable == "YES"
		col.HasDefault = hasDefault
		if comment != nil {
			col.Comment = *comment
		}

		if columns[tableName] == nil {
			columns[tableName] = make(map[string]schema.Column)
		}
		columns[tableName][col.Name] = col
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: queryColumns, Err: err}
	}

	return columns, nil
}

// extractIndexes reads secondary indexes grouped by table. Indexes backing a
// constraint (primary key, unique constraint) are skipped; those structural
// facts are reported through constraints instead, so the same divergence is
// never counted under two categories.
func (in *Introspector) extractIndexes(ctx context.Context) (map[string][]schema.Index, error) {
	query := `
		SELECT
			t.relname AS table_name,
			i.relname AS index_name,
			pg_get_indexdef(i.oid) AS definition,
			ix.indisunique AS is_unique
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_namespace n ON n.oid = t.relnamespace
		WHERE t.relkind = 'r'
			AND n.nspname = $1
			AND NOT ix.indisprimary
			AND NOT EXISTS (
				SELECT 1 FROM pg_constraint con WHERE con.conindid = ix.indexrelid
			)
		ORDER BY t.relname, i.relname
	`

	qctx, cancel := in.queryCtx(ctx)
	defer cancel()

	rows, err := in.client.Pool().Query(qctx, query, in.opts.SchemaName)
	if err != nil {
		return nil, &QueryError{Query: queryIndexes, Err: err}
	}
	defer rows.Close()

	indexes := make(map[string][]schema.Index)
	for rows.Next() {
		var tableName string
		var idx schema.Index
		if err := rows.Scan(&tableName, &idx.Name, &idx.Definition, &idx.IsUnique); err != nil {
			return nil, &QueryError{Query: queryIndexes, Err: err}
		}
		indexes[tableName] = append(indexes[tableName], idx)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: queryIndexes, Err: err}
	}

	return indexes, nil
}

// extractConstraints reads primary key, foreign key, unique, and check
// constraints grouped by table. Foreign keys carry the referenced
// table/column.
func (in *Introspector) extractConstraints(ctx context.Context) (map[string][]schema.Constraint, error) {
	query := `
		SELECT
			rel.relname AS table_name,
			con.conname AS constraint_name,
			con.contype::text AS kind,
			COALESCE(att.attname, '') AS column_name,
			COALESCE(frel.relname, '') AS references_table,
			COALESCE(fatt.attname, '') AS references_column,
			pg_get_constraintdef(con.oid) AS definition
		FROM pg_constraint con
		JOIN pg_class rel ON rel.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = rel.relnamespace
		LEFT JOIN pg_attribute att
			ON att.attrelid = con.conrelid AND att.attnum = con.conkey[1]
		LEFT JOIN pg_class frel ON frel.oid = con.confrelid
		LEFT JOIN pg_attribute fatt
			ON fatt.attrelid = con.confrelid AND fatt.attnum = con.confkey[1]
		WHERE n.nspname = $1 AND con.contype IN ('p', 'f', 'u', 'c')
		ORDER BY rel.relname, con.conname
	`

	qctx, cancel := in.queryCtx(ctx)
	defer cancel()

	rows, err := in.client.Pool().Query(qctx, query, in.opts.SchemaName)
	if err != nil {
		return nil, &QueryError{Query: queryConstraints, Err: err}
	}
	defer rows.Close()

	kinds := map[string]schema.ConstraintKind{
		"p": schema.ConstraintPrimaryKey,
		"f": schema.ConstraintForeignKey,
		"u": schema.ConstraintUnique,
		"c": schema.ConstraintCheck,
	}

	constraints := make(map[string][]schema.Constraint)
	for rows.Next() {
		var tableName, kind string
		var con schema.Constraint
		if err := rows.Scan(&tableName, &con.Name, &kind, &con.Column,
			&con.ReferencesTable, &con.ReferencesColumn, &con.Definition); err != nil {
			return nil, &QueryError{Query: queryConstraints, Err: err}
		}
		con.Kind = kinds[kind]
		constraints[tableName] = append(constraints[tableName], con)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: queryConstraints, Err: err}
	}

	return constraints, nil
}

// extractEnums reads every enumerated type in the working schema with its
// labels in declared order; the order encodes ordinal meaning and is
// significant for comparison.
func (in *Introspector) extractEnums(ctx context.Context) (map[string][]string, error) {
	query := `
		SELECT t.typname, e.enumlabel
		FROM pg_type t
		JOIN pg_enum e ON t.oid = e.enumtypid
		JOIN pg_namespace n ON t.typnamespace = n.oid
		WHERE n.nspname = $1
		ORDER BY t.typname, e.enumsortorder
	`

	qctx, cancel := in.queryCtx(ctx)
	defer cancel()

	rows, err := in.client.Pool().Query(qctx, query, in.opts.SchemaName)
	if err != nil {
		return nil, &QueryError{Query: queryEnums, Err: err}
	}
	defer rows.Close()

	enums := make(map[string][]string)
	for rows.Next() {
		var typeName, label string
		if err := rows.Scan(&typeName, &label); err != nil {
			return nil, &QueryError{Query: queryEnums, Err: err}
		}
		enums[typeName] = append(enums[typeName], label)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Query: queryEnums, Err: err}
	}

	return enums, nil
}
