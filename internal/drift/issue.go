// Package drift structurally compares a live schema snapshot against the
// declared model snapshot, classifies the differences, and folds them into a
// report summary.
package drift

// Severity ranks how actionable a drift finding is. Only error-severity
// findings fail the validation gate.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Category is the closed taxonomy of drift findings. The comparator never
// invents categories outside this set.
type Category string

const (
	// Model declares it, the live database does not have it.
	CategoryMissingTable  Category = "missing_table"
	CategoryMissingColumn Category = "missing_column"
	CategoryMissingIndex  Category = "missing_index"

	// Both sides have it, the shape differs.
	CategoryTypeMismatch        Category = "type_mismatch"
	CategoryNullabilityMismatch Category = "nullability_mismatch"

	// The live database has it, no model accounts for it.
	CategoryExtraColumn   Category = "extra_column"
	CategoryExtraIndex    Category = "extra_index"
	CategoryOrphanedTable Category = "orphaned_table"
)

// Categories lists every taxonomy member, in reporting order.
var Categories = []Category{
	CategoryMissingTable,
	CategoryMissingColumn,
	CategoryTypeMismatch,
	CategoryNullabilityMismatch,
	CategoryMissingIndex,
	CategoryExtraColumn,
	CategoryExtraIndex,
	CategoryOrphanedTable,
}

// Issue is a single drift finding. Issues are value objects: created once by
// the comparator and never mutated afterward.
type Issue struct {
	Severity Severity          `json:"severity"`
	Category Category          `json:"category"`
	Message  string            `json:"message"`
	Details  map[string]string `json:"details,omitempty"`
}
