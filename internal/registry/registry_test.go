package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarerhq/schemadrift/internal/schema"
)

const modelYAML = `
enums:
  trip_status: [draft, confirmed, cancelled]

tables:
  - name: trips
    columns:
      - name: id
        type: uuid
        default: true
      - name: title
        type: varchar
      - name: status
        type: trip_status
        default: true
      - name: tags
        type: text[]
        nullable: true
      - name: notes
        type: string
        nullable: true
    indexes:
      - name: trips_status_idx
        definition: CREATE INDEX trips_status_idx ON trips (status)
    constraints:
      - name: trips_pkey
        kind: primary_key
        column: id
  - name: trip_activities
    columns:
      - name: id
        type: uuid
      - name: trip_id
        type: uuid
    constraints:
      - name: trip_activities_trip_id_fkey
        kind: foreign_key
        column: trip_id
        references_table: trips
        references_column: id
`

func writeModelFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	snap, err := Load(writeModelFile(t, modelYAML))
	require.NoError(t, err)

	require.Len(t, snap.Tables, 2)
	assert.Equal(t, []string{"draft", "confirmed", "cancelled"}, snap.Enums["trip_status"])

	trips, ok := snap.Tables["trips"]
	require.True(t, ok)
	assert.Len(t, trips.Columns, 5)

	// Declared types pass through the same normalization as introspection:
	// "varchar" and "string" land on the same logical type.
	assert.Equal(t, schema.ColumnType{Logical: schema.TypeString}, trips.Columns["title"].Type)
	assert.Equal(t, schema.ColumnType{Logical: schema.TypeString}, trips.Columns["notes"].Type)
	assert.Equal(t, schema.ColumnType{Logical: schema.TypeUUID}, trips.Columns["id"].Type)
	assert.True(t, trips.Columns["id"].HasDefault)
	assert.False(t, trips.Columns["id"].Nullable)

	// Enum references resolve by name, arrays keep their element type.
	assert.Equal(t, schema.ColumnType{EnumName: "trip_status"}, trips.Columns["status"].Type)
	assert.Equal(t, schema.ColumnType{Logical: schema.TypeString, IsArray: true}, trips.Columns["tags"].Type)

	require.Len(t, trips.Indexes, 1)
	assert.Equal(t, "trips_status_idx", trips.Indexes[0].Name)

	activities := snap.Tables["trip_activities"]
	require.Len(t, activities.Constraints, 1)
	fk := activities.Constraints[0]
	assert.Equal(t, schema.ConstraintForeignKey, fk.Kind)
	assert.Equal(t, "trips", fk.ReferencesTable)
	assert.Equal(t, "id", fk.ReferencesColumn)
}

func TestLoadPreservesEnumNameCase(t *testing.T) {
	// Enum names are case-sensitive identifiers. The decoder must keep
	// map keys verbatim so a column typed OrderStatus resolves to the
	// declared enum instead of falling through to an unknown type.
	snap, err := Load(writeModelFile(t, `
enums:
  OrderStatus: [pending, paid]

tables:
  - name: orders
    columns:
      - name: id
        type: uuid
      - name: status
        type: OrderStatus
`))
	require.NoError(t, err)

	require.Contains(t, snap.Enums, "OrderStatus")
	assert.Equal(t, []string{"pending", "paid"}, snap.Enums["OrderStatus"])

	orders := snap.Tables["orders"]
	assert.Equal(t, schema.ColumnType{EnumName: "OrderStatus"}, orders.Columns["status"].Type)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "no tables",
			yaml:    "enums:\n  trip_status: [draft]\n",
			wantErr: ErrNoTables,
		},
		{
			name: "duplicate table",
			yaml: `
tables:
  - name: trips
    columns:
      - name: id
        type: uuid
  - name: trips
    columns:
      - name: id
        type: uuid
`,
			wantErr: ErrDuplicateTable,
		},
		{
			name: "column without a type",
			yaml: `
tables:
  - name: trips
    columns:
      - name: id
`,
			wantErr: ErrUntypedColumn,
		},
		{
			name: "column without a name",
			yaml: `
tables:
  - name: trips
    columns:
      - type: uuid
`,
			wantErr: ErrUnnamedColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeModelFile(t, tt.yaml))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
