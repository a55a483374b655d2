package drift

// DefaultSeverity maps each taxonomy category to its default severity.
// Missing tables and columns block deploys; shape mismatches and declared
// objects missing from the database warn; objects the model merely does not
// know about are informational, except orphaned tables which warn.
func DefaultSeverity(c Category) Severity {
	switch c {
	case CategoryMissingTable, CategoryMissingColumn:
		return SeverityError
	case CategoryTypeMismatch, CategoryNullabilityMismatch,
		CategoryMissingIndex, CategoryOrphanedTable:
		return SeverityWarning
	case CategoryExtraColumn, CategoryExtraIndex:
		return SeverityInfo
	default:
		return SeverityInfo
	}
}

// Classifier assigns severities to categories. A nil Classifier uses the
// default table; overrides let a deployment promote or demote categories.
type Classifier struct {
	overrides map[Category]Severity
}

// NewClassifier builds a classifier with per-category overrides. Passing nil
// or an empty map yields the default mapping.
func NewClassifier(overrides map[Category]Severity) *Classifier {
	return &Classifier{overrides: overrides}
}

// Severity resolves the severity for a category.
func (c *Classifier) Severity(cat Category) Severity {
	if c != nil {
		if s, ok := c.overrides[cat]; ok {
			return s
		}
	}
	return DefaultSeverity(cat)
}

// Summary is the pure fold of an issue list: total count plus per-severity
// and per-category tallies. It is always derived from the issues, never set
// independently.
type Summary struct {
	TotalIssues int              `json:"total_issues"`
	BySeverity  map[Severity]int `json:"by_severity"`
	ByCategory  map[Category]int `json:"by_category"`
}

// Errors returns the error-severity count, the quantity the gate decides on.
func (s Summary) Errors() int {
	return s.BySeverity[SeverityError]
}

// Aggregate folds an issue list into a Summary. It is a pure reduction with
// no side effects: TotalIssues always equals len(issues) and the severity
// tallies always sum to it.
func Aggregate(issues []Issue) Summary {
	summary := Summary{
		TotalIssues: len(issues),
		BySeverity:  make(map[Severity]int),
		ByCategory:  make(map[Category]int),
	}
	for _, issue := range issues {
		summary.BySeverity[issue.Severity]++
		summary.ByCategory[issue.Category]++
	}
	return summary
}
