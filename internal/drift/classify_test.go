package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultSeverityIsTotal(t *testing.T) {
	want := map[Category]Severity{
		CategoryMissingTable:        SeverityError,
		CategoryMissingColumn:       SeverityError,
		CategoryTypeMismatch:        SeverityWarning,
		CategoryNullabilityMismatch: SeverityWarning,
		CategoryMissingIndex:        SeverityWarning,
		CategoryExtraColumn:         SeverityInfo,
		CategoryExtraIndex:          SeverityInfo,
		CategoryOrphanedTable:       SeverityWarning,
	}

	assert.Len(t, Categories, len(want))
	for _, cat := range Categories {
		assert.Equal(t, want[cat], DefaultSeverity(cat), "category %s", cat)
	}
}

func TestClassifierOverrides(t *testing.T) {
	c := NewClassifier(map[Category]Severity{
		CategoryExtraIndex: SeverityWarning,
	})

	assert.Equal(t, SeverityWarning, c.Severity(CategoryExtraIndex))
	// Untouched categories keep their defaults.
	assert.Equal(t, SeverityError, c.Severity(CategoryMissingTable))

	var nilClassifier *Classifier
	assert.Equal(t, SeverityInfo, nilClassifier.Severity(CategoryExtraColumn))
}

func TestAggregate(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityError, Category: CategoryMissingTable},
		{Severity: SeverityError, Category: CategoryMissingColumn},
		{Severity: SeverityWarning, Category: CategoryNullabilityMismatch},
		{Severity: SeverityInfo, Category: CategoryExtraColumn},
		{Severity: SeverityInfo, Category: CategoryExtraColumn},
	}

	summary := Aggregate(issues)

	assert.Equal(t, len(issues), summary.TotalIssues)
	assert.Equal(t, 2, summary.BySeverity[SeverityError])
	assert.Equal(t, 1, summary.BySeverity[SeverityWarning])
	assert.Equal(t, 2, summary.BySeverity[SeverityInfo])
	assert.Equal(t, 2, summary.ByCategory[CategoryExtraColumn])
	assert.Equal(t, 2, summary.Errors())

	// The severity tallies always sum back to the total.
	sum := 0
	for _, n := range summary.BySeverity {
		sum += n
	}
	assert.Equal(t, summary.TotalIssues, sum)

	sum = 0
	for _, n := range summary.ByCategory {
		sum += n
	}
	assert.Equal(t, summary.TotalIssues, sum)
}

func TestAggregateEmpty(t *testing.T) {
	summary := Aggregate(nil)

	assert.Equal(t, 0, summary.TotalIssues)
	assert.Equal(t, 0, summary.Errors())
	assert.Empty(t, summary.BySeverity)
	assert.Empty(t, summary.ByCategory)
}

// Aggregation is a pure reduction: running it twice over the same issues
// yields equal summaries.
func TestAggregateIdempotent(t *testing.T) {
	issues := []Issue{
		{Severity: SeverityError, Category: CategoryMissingTable},
		{Severity: SeverityWarning, Category: CategoryOrphanedTable},
	}

	assert.Equal(t, Aggregate(issues), Aggregate(issues))
}
