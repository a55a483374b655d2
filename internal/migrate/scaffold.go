// Package migrate drives the migration pipeline: scaffold generation,
// ordered application of pending migrations, status reporting, and the
// post-apply drift validation gate.
package migrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Migration filenames follow <timestamp>_<name>.up.sql / .down.sql; the
// fixed-width timestamp token makes filename order the apply order.
const versionLayout = "20060102150405"

var (
	upFilePattern = regexp.MustCompile(`^(\d{14})_(.+)\.up\.sql$`)

	ErrEmptyScaffoldName = errors.New("scaffold name must not be empty")
)

// Scaffold is a freshly generated up/down migration pair. The files are
// created empty apart from a placeholder comment and are expected to be
// hand-edited before being committed.
type Scaffold struct {
	Version  string
	UpPath   string
	DownPath string
}

// GenerateScaffold creates a new, empty, timestamp-named migration pair in
// dir. It never inspects drift; its only job is a unique, correctly-ordered
// filename. The version token is monotonically increasing: if the current
// timestamp would not sort after every existing migration (or collides with
// one), it is bumped until it does.
func GenerateScaffold(dir, name string, now func() time.Time) (*Scaffold, error) {
	if now == nil {
		now = time.Now
	}
	slug := slugify(name)
	if slug == "" {
		return nil, ErrEmptyScaffoldName
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create migrations directory %s: %w", dir, err)
	}

	version, err := nextVersion(dir, now().UTC())
	if err != nil {
		return nil, err
	}

	s := &Scaffold{
		Version:  version,
		UpPath:   filepath.Join(dir, fmt.Sprintf("%s_%s.up.sql", version, slug)),
		DownPath: filepath.Join(dir, fmt.Sprintf("%s_%s.down.sql", version, slug)),
	}

	up := fmt.Sprintf("-- %s: forward migration\n", slug)
	down := fmt.Sprintf("-- %s: rollback migration\n", slug)
	if err := os.WriteFile(s.UpPath, []byte(up), 0o644); err != nil {
		return nil, fmt.Errorf("write scaffold %s: %w", s.UpPath, err)
	}
	if err := os.WriteFile(s.DownPath, []byte(down), 0o644); err != nil {
		return nil, fmt.Errorf("write scaffold %s: %w", s.DownPath, err)
	}

	return s, nil
}

// nextVersion returns a version token strictly greater than every token
// already present in dir, starting from the wall clock.
func nextVersion(dir string, now time.Time) (string, error) {
	candidate, err := strconv.ParseInt(now.Format(versionLayout), 10, 64)
	if err != nil {
		return "", fmt.Errorf("format version token: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read migrations directory %s: %w", dir, err)
	}

	var max int64
	for _, entry := range entries {
		m := upFilePattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if v > max {
			max = v
		}
	}

	if candidate <= max {
		candidate = max + 1
	}
	return fmt.Sprintf("%014d", candidate), nil
}

func slugify(name string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
