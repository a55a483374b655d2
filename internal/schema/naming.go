package schema

import "strings"

// reservedPrefixes are table-name prefixes reserved by the database engine.
// Tables carrying these never participate in drift comparison.
var reservedPrefixes = []string{"pg_", "sql_"}

// IsReservedName reports whether a table name is engine-internal or matches
// one of the additional configured exclusion prefixes. The introspector and
// the comparator share this so a table excluded from the snapshot can never
// resurface as an orphan.
func IsReservedName(name string, extraPrefixes []string) bool {
	for _, p := range reservedPrefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	for _, p := range extraPrefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}
