package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/wayfarerhq/schemadrift/internal/drift"
)

// Renderer writes a human-readable run summary.
type Renderer struct {
	writer io.Writer
}

// NewRenderer creates a renderer over w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{writer: w}
}

// Render prints the report summary. Every error-severity finding is printed
// with its full details payload; this is what an operator reads during a
// failed deploy, so it is never truncated.
func (r *Renderer) Render(rep *Report) error {
	w := r.writer

	_, _ = fmt.Fprintf(w, "Schema drift report - %s\n", rep.Timestamp.Format("2006-01-02 15:04:05 MST"))
	_, _ = fmt.Fprintf(w, "Environment: %s  Database: %s@%s  Run: %s\n",
		rep.Environment.Name, rep.Environment.Database, rep.Environment.Host, rep.Environment.RunID)
	_, _ = fmt.Fprintln(w)

	if rep.Summary.TotalIssues == 0 {
		_, _ = fmt.Fprintln(w, "No drift detected.")
		return nil
	}

	_, _ = fmt.Fprintf(w, "%d issue(s): %d error, %d warning, %d info\n",
		rep.Summary.TotalIssues,
		rep.Summary.BySeverity[drift.SeverityError],
		rep.Summary.BySeverity[drift.SeverityWarning],
		rep.Summary.BySeverity[drift.SeverityInfo])

	for _, cat := range drift.Categories {
		if n := rep.Summary.ByCategory[cat]; n > 0 {
			_, _ = fmt.Fprintf(w, "  %-22s %d\n", cat, n)
		}
	}
	_, _ = fmt.Fprintln(w)

	for _, issue := range rep.Issues {
		_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", issue.Severity, issue.Category, issue.Message)
		if issue.Severity == drift.SeverityError {
			for _, key := range sortedKeys(issue.Details) {
				_, _ = fmt.Fprintf(w, "    %s: %s\n", key, issue.Details[key])
			}
		}
	}

	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
