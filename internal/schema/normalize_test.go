package schema

import "testing"

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		name     string
		dataType string
		udtName  string
		want     ColumnType
	}{
		{
			name:     "varchar collapses to string",
			dataType: "character varying",
			want:     ColumnType{Logical: TypeString},
		},
		{
			name:     "text collapses to string",
			dataType: "text",
			want:     ColumnType{Logical: TypeString},
		},
		{
			name:     "varchar with length",
			dataType: "varchar(255)",
			want:     ColumnType{Logical: TypeString},
		},
		{
			name:     "smallint collapses to integer",
			dataType: "smallint",
			want:     ColumnType{Logical: TypeInteger},
		},
		{
			name:     "bigint collapses to integer",
			dataType: "bigint",
			want:     ColumnType{Logical: TypeInteger},
		},
		{
			name:     "numeric collapses to number",
			dataType: "numeric",
			want:     ColumnType{Logical: TypeNumber},
		},
		{
			name:     "double precision collapses to number",
			dataType: "double precision",
			want:     ColumnType{Logical: TypeNumber},
		},
		{
			name:     "timestamptz collapses to timestamp",
			dataType: "timestamp with time zone",
			want:     ColumnType{Logical: TypeTimestamp},
		},
		{
			name:     "timestamp without time zone collapses to timestamp",
			dataType: "timestamp without time zone",
			want:     ColumnType{Logical: TypeTimestamp},
		},
		{
			name:     "jsonb collapses to json",
			dataType: "jsonb",
			want:     ColumnType{Logical: TypeJSON},
		},
		{
			name:     "json collapses to json",
			dataType: "json",
			want:     ColumnType{Logical: TypeJSON},
		},
		{
			name:     "uuid",
			dataType: "uuid",
			want:     ColumnType{Logical: TypeUUID},
		},
		{
			name:     "bool collapses to boolean",
			dataType: "bool",
			want:     ColumnType{Logical: TypeBoolean},
		},
		{
			name:     "catalog array via udt name",
			dataType: "ARRAY",
			udtName:  "_int4",
			want:     ColumnType{Logical: TypeInteger, IsArray: true},
		},
		{
			name:     "declared array suffix",
			dataType: "text[]",
			want:     ColumnType{Logical: TypeString, IsArray: true},
		},
		{
			name:     "user-defined type carries enum name",
			dataType: "USER-DEFINED",
			udtName:  "trip_status",
			want:     ColumnType{EnumName: "trip_status"},
		},
		{
			name:     "unrecognized type maps to unknown",
			dataType: "tsvector",
			want:     ColumnType{Logical: TypeUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeType(tt.dataType, tt.udtName)
			if !got.Equal(tt.want) {
				t.Errorf("NormalizeType(%q, %q) = %v, want %v", tt.dataType, tt.udtName, got, tt.want)
			}
		})
	}
}

// Every logical type must be reachable from at least two distinct catalog
// spellings, so both sides of the comparison resolve synonyms identically.
func TestNormalizeTypeSynonyms(t *testing.T) {
	synonyms := map[LogicalType][]string{
		TypeString:    {"varchar", "text", "character varying", "char"},
		TypeInteger:   {"int4", "int8", "smallint", "bigint"},
		TypeNumber:    {"numeric", "float8", "real"},
		TypeBoolean:   {"bool", "boolean"},
		TypeTimestamp: {"timestamptz", "timestamp without time zone"},
		TypeJSON:      {"json", "jsonb"},
		TypeBytes:     {"bytea", "bytes"},
	}

	for logical, spellings := range synonyms {
		for _, spelling := range spellings {
			got := NormalizeType(spelling, "")
			if got.Logical != logical {
				t.Errorf("NormalizeType(%q) = %v, want %v", spelling, got.Logical, logical)
			}
		}
	}
}

func TestResolveDeclared(t *testing.T) {
	enums := map[string][]string{
		"trip_status": {"draft", "confirmed", "cancelled"},
	}

	tests := []struct {
		name     string
		declared string
		want     ColumnType
	}{
		{
			name:     "logical name resolves directly",
			declared: "string",
			want:     ColumnType{Logical: TypeString},
		},
		{
			name:     "catalog synonym resolves the same as introspection",
			declared: "varchar",
			want:     ColumnType{Logical: TypeString},
		},
		{
			name:     "declared enum reference",
			declared: "trip_status",
			want:     ColumnType{EnumName: "trip_status"},
		},
		{
			name:     "declared enum array",
			declared: "trip_status[]",
			want:     ColumnType{EnumName: "trip_status", IsArray: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveDeclared(tt.declared, enums)
			if !got.Equal(tt.want) {
				t.Errorf("ResolveDeclared(%q) = %v, want %v", tt.declared, got, tt.want)
			}
		})
	}
}

func TestColumnTypeString(t *testing.T) {
	tests := []struct {
		typ  ColumnType
		want string
	}{
		{ColumnType{Logical: TypeString}, "string"},
		{ColumnType{Logical: TypeInteger, IsArray: true}, "integer[]"},
		{ColumnType{EnumName: "trip_status"}, "enum(trip_status)"},
		{ColumnType{EnumName: "trip_status", IsArray: true}, "enum(trip_status)[]"},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("ColumnType.String() = %q, want %q", got, tt.want)
		}
	}
}
