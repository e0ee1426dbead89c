// Package normalize holds the canonicalization rules shared by the parser
// and the introspector (spec.md §4.1, §9 "Normalization in two places"):
// both must converge on the exact same canonical form for equivalent
// inputs, or idempotence (spec.md §8 property 1) breaks.
package normalize

import "strings"

// Dialect selects which alias table applies. PostgreSQL is primary;
// SQLite normalization is intentionally much smaller since SQLite has
// dynamic typing and no real alias zoo.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// commonAliases collapse spellings that mean the same type regardless of
// dialect (spec.md §4.1 "Integer/Floating/Decimal/Character" bullets).
var commonAliases = map[string]string{
	"int2":             "smallint",
	"int":              "integer",
	"int4":             "integer",
	"integer":          "integer",
	"int8":             "bigint",
	"bigint":           "bigint",
	"smallint":         "smallint",
	"real":             "real",
	"float4":           "real",
	"float8":           "double precision",
	"double precision": "double precision",
	"decimal":          "numeric",
	"numeric":          "numeric",
	"varchar":          "character varying",
	"character varying": "character varying",
	"char":             "character",
	"character":        "character",
	"bool":             "boolean",
	"boolean":          "boolean",
	"timestamptz":      "timestamp with time zone",
	"timestamp with time zone":    "timestamp with time zone",
	"timestamp without time zone": "timestamp",
	"timestamp":                   "timestamp",
	"timetz":                      "time with time zone",
	"time with time zone":         "time with time zone",
	"time without time zone":      "time",
	"time":                        "time",
}

// postgresSerialAliases map a serial spelling to its expanded integer type
// (spec.md §4.1 "Serial" bullet).
var postgresSerialAliases = map[string]string{
	"smallserial": "smallint",
	"serial":      "integer",
	"serial4":     "integer",
	"bigserial":   "bigint",
	"serial8":     "bigint",
}

// TypeName returns the canonical form of a type name. length/scale are
// passed through from the parser's syntax (e.g. `numeric(10)`,
// `float(24)`) so the float/decimal precision rules in spec.md §4.1 can be
// applied; the returned length/scale are the canonical ones to store on
// catalog.Column (nil means "not applicable").
func TypeName(raw string, length, scale *int, dialect Dialect) (name string, outLength, outScale *int) {
	lower := strings.ToLower(strings.TrimSpace(raw))

	if base, ok := postgresSerialAliases[lower]; ok && dialect == DialectPostgres {
		return base, nil, nil
	}

	if canon, ok := commonAliases[lower]; ok {
		lower = canon
	}

	switch lower {
	case "real", "float4":
		return "real", nil, nil
	case "float":
		// float(n) with n<=24 -> real, else double precision (spec.md §4.1).
		if length != nil && *length <= 24 {
			return "real", nil, nil
		}
		return "double precision", nil, nil
	case "numeric", "decimal":
		if length == nil {
			return "numeric", nil, nil // unbounded
		}
		if scale == nil {
			zero := 0
			return "numeric", length, &zero // numeric(p) ≡ numeric(p,0)
		}
		return "numeric", length, scale
	case "character varying", "varchar":
		return "character varying", length, nil
	case "character", "char":
		return "character", length, nil
	default:
		return lower, length, scale
	}
}

// IsSerial reports whether raw is one of the PostgreSQL serial spellings.
func IsSerial(raw string) (underlying string, ok bool) {
	lower := strings.ToLower(strings.TrimSpace(raw))
	u, ok := postgresSerialAliases[lower]
	return u, ok
}

// DetectSerialPattern re-recognizes the expanded serial pattern the
// introspector observes (integer/bigint/smallint NOT NULL with a default
// of nextval(<seq>) owned by this column) and collapses it back to the
// same canonical form the parser produces when it expands `serial` itself
// (spec.md §4.1: "the introspector re-recognizes the pattern so
// round-trips are idempotent"). It returns the sequence name referenced
// by the default, or "" if the default is not a nextval() call.
func DetectSerialPattern(defaultExpr string) string {
	expr := strings.TrimSpace(defaultExpr)
	lower := strings.ToLower(expr)
	const prefix = "nextval("
	if !strings.HasPrefix(lower, prefix) {
		return ""
	}
	inner := expr[len(prefix):]
	end := strings.LastIndex(inner, ")")
	if end < 0 {
		return ""
	}
	inner = inner[:end]
	// Strip a trailing ::regclass cast, which PostgreSQL always adds.
	inner = strings.TrimSuffix(inner, "::regclass")
	inner = strings.Trim(inner, "'")
	return unquoteIdent(inner)
}

func unquoteIdent(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
