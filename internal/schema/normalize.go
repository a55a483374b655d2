package schema

import "strings"

// logicalTypes maps catalog type spellings to logical types. It covers
// information_schema data_type values, pg_catalog udt names, and the logical
// names themselves, so model-declared types and introspected types resolve
// through the same table. This is the single source of truth for type
// normalization; having two copies (one per comparison side) is how
// false-positive drift happens.
var logicalTypes = map[string]LogicalType{
	// string family
	"string":            TypeString,
	"text":              TypeString,
	"varchar":           TypeString,
	"character varying": TypeString,
	"character":         TypeString,
	"char":              TypeString,
	"bpchar":            TypeString,
	"citext":            TypeString,
	"name":              TypeString,

	// integer widths all collapse to one logical integer
	"integer":     TypeInteger,
	"int":         TypeInteger,
	"int2":        TypeInteger,
	"int4":        TypeInteger,
	"int8":        TypeInteger,
	"smallint":    TypeInteger,
	"bigint":      TypeInteger,
	"serial":      TypeInteger,
	"smallserial": TypeInteger,
	"bigserial":   TypeInteger,

	// arbitrary-precision and floating point
	"number":           TypeNumber,
	"numeric":          TypeNumber,
	"decimal":          TypeNumber,
	"real":             TypeNumber,
	"float4":           TypeNumber,
	"float8":           TypeNumber,
	"double precision": TypeNumber,

	"boolean": TypeBoolean,
	"bool":    TypeBoolean,

	"date": TypeDate,

	"timestamp":                   TypeTimestamp,
	"timestamptz":                 TypeTimestamp,
	"timestamp with time zone":    TypeTimestamp,
	"timestamp without time zone": TypeTimestamp,
	"time":                        TypeTimestamp,
	"timetz":                      TypeTimestamp,
	"time with time zone":         TypeTimestamp,
	"time without time zone":      TypeTimestamp,

	"json":  TypeJSON,
	"jsonb": TypeJSON,

	"uuid": TypeUUID,

	"bytes": TypeBytes,
	"bytea": TypeBytes,
}

// NormalizeType resolves a catalog type to its ColumnType. dataType is the
// information_schema spelling (or a model-declared type name); udtName is the
// pg_catalog udt name, empty when not available.
//
// Arrays arrive either as dataType "ARRAY" with an underscore-prefixed udt
// name (e.g. "_int4" for integer[]), or as a model-declared "text[]" suffix.
// Enum columns arrive as dataType "USER-DEFINED" with the enum's type name in
// udtName.
func NormalizeType(dataType, udtName string) ColumnType {
	dt := strings.ToLower(strings.TrimSpace(dataType))

	// varchar(255) and friends: the length is irrelevant to drift detection.
	if i := strings.IndexByte(dt, '('); i > 0 && strings.HasSuffix(dt, ")") {
		dt = strings.TrimSpace(dt[:i])
	}

	if strings.HasSuffix(dt, "[]") {
		elem := NormalizeType(strings.TrimSuffix(dt, "[]"), "")
		elem.IsArray = true
		return elem
	}
	if dt == "array" && strings.HasPrefix(udtName, "_") {
		elem := NormalizeType(strings.TrimPrefix(udtName, "_"), "")
		elem.IsArray = true
		return elem
	}

	if dt == "user-defined" && udtName != "" {
		return ColumnType{EnumName: udtName}
	}

	if logical, ok := logicalTypes[dt]; ok {
		return ColumnType{Logical: logical}
	}
	return ColumnType{Logical: TypeUnknown}
}

// ResolveDeclared resolves a model-declared type through the same mapping as
// NormalizeType, additionally treating names that match a declared enum as
// enum references. Enum names are case-sensitive identifiers.
func ResolveDeclared(declared string, enums map[string][]string) ColumnType {
	d := strings.TrimSpace(declared)
	base := strings.TrimSuffix(d, "[]")
	if _, ok := enums[base]; ok {
		return ColumnType{EnumName: base, IsArray: base != d}
	}
	return NormalizeType(d, "")
}
