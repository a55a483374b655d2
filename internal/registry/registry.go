// Package registry loads the application's declarative model definitions and
// normalizes them into the same snapshot shape the live-database introspector
// produces, so the two sides are directly diffable.
package registry

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wayfarerhq/schemadrift/internal/schema"
)

// Model file validation errors.
var (
	ErrNoTables       = errors.New("model file declares no tables")
	ErrDuplicateTable = errors.New("duplicate table declaration")
	ErrUnnamedColumn  = errors.New("column declaration missing a name")
	ErrUntypedColumn  = errors.New("column declaration missing a type")
)

// modelFile is the on-disk shape of the declarative model definitions.
// Decoded with yaml.v3 rather than a config loader: enum names are
// case-sensitive identifiers, and the decoder must not fold map keys.
type modelFile struct {
	Enums  map[string][]string `yaml:"enums"`
	Tables []modelTable        `yaml:"tables"`
}

type modelTable struct {
	Name        string            `yaml:"name"`
	Columns     []modelColumn     `yaml:"columns"`
	Indexes     []modelIndex      `yaml:"indexes"`
	Constraints []modelConstraint `yaml:"constraints"`
}

type modelColumn struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Nullable bool   `yaml:"nullable"`
	Default  bool   `yaml:"default"`
	Comment  string `yaml:"comment"`
}

type modelIndex struct {
	Name       string `yaml:"name"`
	Definition string `yaml:"definition"`
	Unique     bool   `yaml:"unique"`
}

type modelConstraint struct {
	Name             string `yaml:"name"`
	Kind             string `yaml:"kind"`
	Column           string `yaml:"column"`
	ReferencesTable  string `yaml:"references_table"`
	ReferencesColumn string `yaml:"references_column"`
	Definition       string `yaml:"definition"`
}

// Load reads the model definitions file at path and returns the snapshot the
// application declares it needs. Declared column types pass through the same
// normalization table as introspected catalog types, so a declared "string"
// and a live "varchar" compare as equals.
func Load(path string) (*schema.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file %s: %w", path, err)
	}

	var file modelFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse model file %s: %w", path, err)
	}

	return buildSnapshot(file)
}

func buildSnapshot(file modelFile) (*schema.Snapshot, error) {
	if len(file.Tables) == 0 {
		return nil, ErrNoTables
	}

	snap := schema.NewSnapshot()
	for name, labels := range file.Enums {
		snap.Enums[name] = labels
	}

	for _, mt := range file.Tables {
		if _, ok := snap.Tables[mt.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTable, mt.Name)
		}

		table := schema.Table{
			Name:    mt.Name,
			Columns: make(map[string]schema.Column, len(mt.Columns)),
		}

		for _, mc := range mt.Columns {
			if mc.Name == "" {
				return nil, fmt.Errorf("%w: table %s", ErrUnnamedColumn, mt.Name)
			}
			if mc.Type == "" {
				return nil, fmt.Errorf("%w: %s.%s", ErrUntypedColumn, mt.Name, mc.Name)
			}
			table.Columns[mc.Name] = schema.Column{
				Name:       mc.Name,
				Type:       schema.ResolveDeclared(mc.Type, file.Enums),
				Nullable:   mc.Nullable,
				HasDefault: mc.Default,
				Comment:    mc.Comment,
			}
		}

		for _, mi := range mt.Indexes {
			table.Indexes = append(table.Indexes, schema.Index{
				Name:       mi.Name,
				Definition: mi.Definition,
				IsUnique:   mi.Unique,
			})
		}

		for _, mc := range mt.Constraints {
			table.Constraints = append(table.Constraints, schema.Constraint{
				Name:             mc.Name,
				Kind:             schema.ConstraintKind(mc.Kind),
				Column:           mc.Column,
				ReferencesTable:  mc.ReferencesTable,
				ReferencesColumn: mc.ReferencesColumn,
				Definition:       mc.Definition,
			})
		}

		snap.Tables[mt.Name] = table
	}

	return snap, nil
}
