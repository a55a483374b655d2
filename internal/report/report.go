// Package report turns drift findings into a durable artifact and a console
// summary for the operator.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/wayfarerhq/schemadrift/internal/drift"
)

// DefaultArtifactName is the fixed artifact filename. The name is
// deterministic and the file is overwritten on every run, so repeated runs in
// the same working directory never accumulate; diff against version control
// or a copy if history is needed.
const DefaultArtifactName = "drift-report.json"

// Environment records where a run happened, for operators reading the
// artifact after the fact.
type Environment struct {
	Name     string `json:"name"`
	Database string `json:"database"`
	Host     string `json:"host"`
	RunID    string `json:"run_id"`
}

// Report is the complete result of one drift-detection run. Every run
// produces a fresh report; nothing is ever partially updated.
type Report struct {
	Timestamp   time.Time     `json:"timestamp"`
	Environment Environment   `json:"environment"`
	Issues      []drift.Issue `json:"issues"`
	Summary     drift.Summary `json:"summary"`
}

// New builds a report from an issue list. The summary is always derived from
// the issues by drift.Aggregate; there is no other way to construct one, so
// summary and issue list cannot disagree.
func New(issues []drift.Issue, env Environment) *Report {
	if issues == nil {
		issues = []drift.Issue{}
	}
	if env.RunID == "" {
		env.RunID = uuid.NewString()
	}
	return &Report{
		Timestamp:   time.Now().UTC(),
		Environment: env,
		Issues:      issues,
		Summary:     drift.Aggregate(issues),
	}
}

// WriteArtifact serializes the report as indented JSON to path, replacing any
// previous artifact.
func (r *Report) WriteArtifact(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal drift report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write drift report %s: %w", path, err)
	}
	return nil
}

// Passed reports whether the run clears the gate: warnings and info-level
// findings never fail it, only errors do.
func (r *Report) Passed() bool {
	return r.Summary.Errors() == 0
}
