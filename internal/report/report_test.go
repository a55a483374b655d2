package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarerhq/schemadrift/internal/drift"
)

func sampleIssues() []drift.Issue {
	return []drift.Issue{
		{
			Severity: drift.SeverityError,
			Category: drift.CategoryMissingTable,
			Message:  `table "orders" is declared by the model but does not exist in the database`,
			Details:  map[string]string{"table": "orders"},
		},
		{
			Severity: drift.SeverityWarning,
			Category: drift.CategoryOrphanedTable,
			Message:  `table "legacy_cache" exists in the database but no model references it`,
			Details:  map[string]string{"table": "legacy_cache"},
		},
		{
			Severity: drift.SeverityInfo,
			Category: drift.CategoryExtraColumn,
			Message:  `column "users"."legacy_flag" exists in the database but is not declared by the model`,
			Details:  map[string]string{"table": "users", "column": "legacy_flag"},
		},
	}
}

func TestNewDerivesSummary(t *testing.T) {
	issues := sampleIssues()
	rep := New(issues, Environment{Name: "staging", Database: "wayfarer", Host: "db.internal"})

	assert.Equal(t, len(issues), rep.Summary.TotalIssues)
	assert.Equal(t, 1, rep.Summary.BySeverity[drift.SeverityError])
	assert.NotEmpty(t, rep.Environment.RunID)
	assert.False(t, rep.Timestamp.IsZero())
	assert.False(t, rep.Passed())
}

func TestNewEmptyIssuesPasses(t *testing.T) {
	rep := New(nil, Environment{Name: "ci"})

	assert.Equal(t, 0, rep.Summary.TotalIssues)
	assert.True(t, rep.Passed())
	// nil issue lists still serialize as an empty array, not null.
	assert.NotNil(t, rep.Issues)
}

func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultArtifactName)

	rep := New(sampleIssues(), Environment{Name: "staging", Database: "wayfarer", Host: "db.internal"})
	require.NoError(t, rep.WriteArtifact(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, rep.Summary.TotalIssues, decoded.Summary.TotalIssues)
	assert.Len(t, decoded.Issues, 3)
	assert.Equal(t, "staging", decoded.Environment.Name)

	// A second run overwrites the same artifact rather than accumulating.
	second := New(nil, Environment{Name: "staging"})
	require.NoError(t, second.WriteArtifact(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 0, decoded.Summary.TotalIssues)
}

func TestRenderPrintsErrorDetailsInFull(t *testing.T) {
	var buf bytes.Buffer
	rep := New(sampleIssues(), Environment{Name: "staging", Database: "wayfarer", Host: "db.internal"})

	require.NoError(t, NewRenderer(&buf).Render(rep))
	out := buf.String()

	assert.Contains(t, out, "Schema drift report - ")
	assert.Contains(t, out, "3 issue(s): 1 error, 1 warning, 1 info")
	assert.Contains(t, out, "[error] missing_table:")
	// Error-severity details are rendered key by key, never truncated.
	assert.Contains(t, out, "    table: orders")
	// Non-error issues are listed but their details stay out of the way.
	assert.Contains(t, out, "[warning] orphaned_table:")
	assert.NotContains(t, out, "    table: legacy_cache")
}

func TestRenderNoDrift(t *testing.T) {
	var buf bytes.Buffer
	rep := New(nil, Environment{Name: "ci", Database: "wayfarer", Host: "localhost"})

	require.NoError(t, NewRenderer(&buf).Render(rep))

	assert.True(t, strings.Contains(buf.String(), "No drift detected."))
}
