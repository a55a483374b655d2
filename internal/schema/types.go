// Package schema defines the normalized snapshot model shared by the live
// database introspector and the declarative model registry. Both sides produce
// the same Snapshot shape so they can be structurally diffed.
package schema

import "sort"

// LogicalType is an engine-independent type classification. Raw catalog type
// names never leave this package; comparison logic only ever sees these.
type LogicalType string

const (
	TypeString    LogicalType = "string"
	TypeInteger   LogicalType = "integer"
	TypeNumber    LogicalType = "number"
	TypeBoolean   LogicalType = "boolean"
	TypeDate      LogicalType = "date"
	TypeTimestamp LogicalType = "timestamp"
	TypeJSON      LogicalType = "json"
	TypeUUID      LogicalType = "uuid"
	TypeBytes     LogicalType = "bytes"
	TypeUnknown   LogicalType = "unknown"
)

// ColumnType is the fully resolved type of a column. Array-ness wraps the
// element's logical type, and enum-typed columns carry the enum's name so two
// columns typed by the same enum compare equal regardless of catalog spelling.
type ColumnType struct {
	Logical  LogicalType `json:"logical"`
	IsArray  bool        `json:"is_array,omitempty"`
	EnumName string      `json:"enum_name,omitempty"`
}

// Equal reports whether two column types are the same logical type.
func (t ColumnType) Equal(other ColumnType) bool {
	return t == other
}

// String renders the type for messages and report payloads.
func (t ColumnType) String() string {
	s := string(t.Logical)
	if t.EnumName != "" {
		s = "enum(" + t.EnumName + ")"
	}
	if t.IsArray {
		s += "[]"
	}
	return s
}

// Column describes a single table column.
type Column struct {
	Name       string     `json:"name"`
	Type       ColumnType `json:"type"`
	Nullable   bool       `json:"nullable"`
	HasDefault bool       `json:"has_default"`
	Comment    string     `json:"comment,omitempty"`
}

// Index describes a secondary index. Primary-key and foreign-key backed
// indexes are represented as constraints instead, never here.
type Index struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
	IsUnique   bool   `json:"is_unique"`
}

// ConstraintKind identifies the constraint variety.
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintCheck      ConstraintKind = "check"
)

// Constraint describes a table constraint. Foreign keys carry the referenced
// table/column for referential-integrity-aware comparison.
type Constraint struct {
	Name             string         `json:"name"`
	Kind             ConstraintKind `json:"kind"`
	Column           string         `json:"column,omitempty"`
	ReferencesTable  string         `json:"references_table,omitempty"`
	ReferencesColumn string         `json:"references_column,omitempty"`
	Definition       string         `json:"definition,omitempty"`
}

// Table describes a single base table.
type Table struct {
	Name        string            `json:"name"`
	Columns     map[string]Column `json:"columns"`
	Indexes     []Index           `json:"indexes,omitempty"`
	Constraints []Constraint      `json:"constraints,omitempty"`
}

// ColumnNames returns the table's column names in sorted order, so callers
// iterate deterministically.
func (t Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot is a complete normalized schema, either introspected from a live
// database or loaded from the declarative model registry.
type Snapshot struct {
	Tables map[string]Table    `json:"tables"`
	Enums  map[string][]string `json:"enums,omitempty"`
}

// NewSnapshot returns an empty snapshot with initialized maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Tables: make(map[string]Table),
		Enums:  make(map[string][]string),
	}
}

// TableNames returns the snapshot's table names in sorted order.
func (s *Snapshot) TableNames() []string {
	names := make([]string, 0, len(s.Tables))
	for name := range s.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnumNames returns the snapshot's enum type names in sorted order.
func (s *Snapshot) EnumNames() []string {
	names := make([]string, 0, len(s.Enums))
	for name := range s.Enums {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
