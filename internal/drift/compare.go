package drift

import (
	"fmt"
	"strings"

	"github.com/wayfarerhq/schemadrift/internal/schema"
)

// Options configures a comparison run.
type Options struct {
	// ExcludePrefixes lists table-name prefixes that never count as
	// orphans, on top of the engine-reserved ones.
	ExcludePrefixes []string

	// Classifier assigns severities; nil means the default table.
	Classifier *Classifier
}

// Compare structurally diffs the live snapshot against the model snapshot and
// returns the findings in deterministic order: model tables first (sorted by
// name, forward column/index pass then reverse pass per table), enum drift
// next, orphaned live tables last. Given the same two snapshots the issue
// ordering is byte-identical across runs.
//
// The comparison is asymmetric and exhaustive: every declared element is
// checked against the live schema (catching a model drifted ahead of its
// migration), and every live element is checked against the model (catching
// hand-run DDL no model accounts for).
func Compare(live, model *schema.Snapshot, opts Options) []Issue {
	c := &comparator{classifier: opts.Classifier, excludePrefixes: opts.ExcludePrefixes}

	for _, name := range model.TableNames() {
		modelTable := model.Tables[name]
		liveTable, ok := live.Tables[name]
		if !ok {
			// The whole table is absent; reporting its columns too
			// would just cascade the same finding.
			c.add(CategoryMissingTable,
				fmt.Sprintf("table %q is declared by the model but does not exist in the database", name),
				map[string]string{"table": name})
			continue
		}
		c.compareColumns(name, liveTable, modelTable)
		c.compareIndexes(name, liveTable, modelTable)
	}

	c.compareEnums(live, model)

	for _, name := range live.TableNames() {
		if _, ok := model.Tables[name]; ok {
			continue
		}
		if schema.IsReservedName(name, c.excludePrefixes) {
			continue
		}
		c.add(CategoryOrphanedTable,
			fmt.Sprintf("table %q exists in the database but no model references it", name),
			map[string]string{"table": name})
	}

	return c.issues
}

type comparator struct {
	classifier      *Classifier
	excludePrefixes []string
	issues          []Issue
}

func (c *comparator) add(cat Category, message string, details map[string]string) {
	c.issues = append(c.issues, Issue{
		Severity: c.classifier.Severity(cat),
		Category: cat,
		Message:  message,
		Details:  details,
	})
}

func (c *comparator) compareColumns(table string, live, model schema.Table) {
	// Forward pass: every declared column must exist and match.
	for _, name := range model.ColumnNames() {
		modelCol := model.Columns[name]
		liveCol, ok := live.Columns[name]
		if !ok {
			c.add(CategoryMissingColumn,
				fmt.Sprintf("column %q.%q is declared by the model but does not exist in the database", table, name),
				map[string]string{
					"table":  table,
					"column": name,
					"type":   modelCol.Type.String(),
				})
			continue
		}

		if !liveCol.Type.Equal(modelCol.Type) {
			c.add(CategoryTypeMismatch,
				fmt.Sprintf("column %q.%q has type %s in the database but the model declares %s",
					table, name, liveCol.Type, modelCol.Type),
				map[string]string{
					"table":      table,
					"column":     name,
					"live_type":  liveCol.Type.String(),
					"model_type": modelCol.Type.String(),
				})
		}

		if liveCol.Nullable != modelCol.Nullable {
			c.add(CategoryNullabilityMismatch,
				fmt.Sprintf("column %q.%q nullability differs: database %t, model %t",
					table, name, liveCol.Nullable, modelCol.Nullable),
				map[string]string{
					"table":          table,
					"column":         name,
					"live_nullable":  fmt.Sprintf("%t", liveCol.Nullable),
					"model_nullable": fmt.Sprintf("%t", modelCol.Nullable),
				})
		}
	}

	// Reverse pass: live columns no model accounts for.
	for _, name := range live.ColumnNames() {
		if _, ok := model.Columns[name]; ok {
			continue
		}
		liveCol := live.Columns[name]
		c.add(CategoryExtraColumn,
			fmt.Sprintf("column %q.%q exists in the database but is not declared by the model", table, name),
			map[string]string{
				"table":  table,
				"column": name,
				"type":   liveCol.Type.String(),
			})
	}
}

func (c *comparator) compareIndexes(table string, live, model schema.Table) {
	liveByName := make(map[string]schema.Index, len(live.Indexes))
	for _, idx := range live.Indexes {
		liveByName[idx.Name] = idx
	}
	modelByName := make(map[string]schema.Index, len(model.Indexes))
	for _, idx := range model.Indexes {
		modelByName[idx.Name] = idx
	}

	for _, idx := range model.Indexes {
		if _, ok := liveByName[idx.Name]; ok {
			continue
		}
		c.add(CategoryMissingIndex,
			fmt.Sprintf("index %q on table %q is declared by the model but does not exist in the database", idx.Name, table),
			map[string]string{
				"table":      table,
				"index":      idx.Name,
				"definition": idx.Definition,
			})
	}

	// Indexes match by name. A live index that shares a declared name but
	// differs in definition is not reported; promoting that case would
	// need a new taxonomy category (see DESIGN.md, shadowed index
	// decision).
	for _, idx := range live.Indexes {
		if _, ok := modelByName[idx.Name]; ok {
			continue
		}
		c.add(CategoryExtraIndex,
			fmt.Sprintf("index %q on table %q exists in the database but is not declared by the model", idx.Name, table),
			map[string]string{
				"table":      table,
				"index":      idx.Name,
				"definition": idx.Definition,
			})
	}
}

// compareEnums reports label-set drift between declared and live enumerated
// types. Label order is significant: it encodes ordinal meaning. Enum drift
// stays within the closed taxonomy as a type mismatch on the enum itself.
func (c *comparator) compareEnums(live, model *schema.Snapshot) {
	for _, name := range model.EnumNames() {
		modelLabels := model.Enums[name]
		liveLabels, ok := live.Enums[name]
		if !ok {
			c.add(CategoryTypeMismatch,
				fmt.Sprintf("enum %q is declared by the model but does not exist in the database", name),
				map[string]string{
					"enum":         name,
					"model_labels": strings.Join(modelLabels, ","),
				})
			continue
		}
		if !equalLabels(liveLabels, modelLabels) {
			c.add(CategoryTypeMismatch,
				fmt.Sprintf("enum %q labels differ between the database and the model", name),
				map[string]string{
					"enum":         name,
					"live_labels":  strings.Join(liveLabels, ","),
					"model_labels": strings.Join(modelLabels, ","),
				})
		}
	}
}

func equalLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
