package normalize

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// collapseWhitespace replaces any run of whitespace with a single space
// and trims the ends, per spec.md §4.1's "collapse internal whitespace"
// rule (shared by default expressions, index expressions, view/function
// bodies).
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// trailingCastPattern matches a trailing `::typename` or
// `::typename(args)` cast appended by the server, optionally repeated
// (PostgreSQL sometimes emits `'x'::character varying::text`).
var trailingCastPattern = regexp.MustCompile(`(?i)::\s*"?[a-z_][a-z0-9_ ]*"?(\([0-9, ]*\))?(\[\])?\s*$`)

// DefaultExpr canonicalizes a column/sequence default expression per
// spec.md §4.1: strip trailing `::type` casts the server adds, collapse
// internal whitespace, case-fold reserved words, and preserve quoted
// string content byte-for-byte.
//
// This is the single most load-bearing normalization rule in the system
// (spec.md §4.3: "if only the type changed and the canonical default is
// unchanged, emit ONLY the type change"), so it is deliberately
// conservative: it strips *trailing* casts only, never touches the
// interior of a quoted string literal, and never attempts to parse or
// evaluate the expression.
func DefaultExpr(raw string) string {
	expr := collapseWhitespace(raw)

	for {
		stripped := stripOneTrailingCast(expr)
		if stripped == expr {
			break
		}
		expr = stripped
	}

	if canon, ok := foldReservedWord(expr); ok {
		return canon
	}
	return expr
}

// stripOneTrailingCast removes a single trailing `::type` cast, being
// careful not to touch one that lives inside a trailing quoted string
// (e.g. the literal default "'::text'" must not have its quotes eaten).
func stripOneTrailingCast(expr string) string {
	if insideQuotedSuffix(expr) {
		return expr
	}
	loc := trailingCastPattern.FindStringIndex(expr)
	if loc == nil {
		return expr
	}
	return strings.TrimSpace(expr[:loc[0]])
}

// insideQuotedSuffix reports whether expr, read right to left, ends with
// a closing quote that is not immediately followed by a cast — i.e. the
// whole expression IS the quoted literal with nothing trailing, so
// stripping would be a no-op anyway and the fast path can skip the regex
// entirely. This keeps byte-for-byte quoted content untouched.
func insideQuotedSuffix(expr string) bool {
	return strings.HasSuffix(expr, "'") && strings.Count(expr, "'")%2 == 0 && !strings.Contains(expr, "::")
}

// IndexExpression canonicalizes an index column expression: strips a
// single outer layer of parentheses when they enclose the whole
// expression (a bare column or any other balanced expression, e.g.
// "(lower(name))" -> "lower(name)") and collapses whitespace (spec.md
// §4.1 "Index expressions").
func IndexExpression(raw string) string {
	expr := collapseWhitespace(raw)
	for strings.HasPrefix(expr, "(") && strings.HasSuffix(expr, ")") && balancedParens(expr) {
		inner := collapseWhitespace(expr[1 : len(expr)-1])
		if inner == expr[1:len(expr)-1] || inner != "" {
			expr = inner
		} else {
			break
		}
		break // only strip one layer; spec.md says "parentheses around a bare column are stripped", not nested rewriting
	}
	return expr
}

func balancedParens(s string) bool {
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// Body canonicalizes a view/function definition body: whitespace and
// trailing-newline normalization only (spec.md §4.1, §9: "semantic
// equivalence is NOT attempted; a body that differs non-trivially is
// treated as changed" — this is a documented limitation, not a bug).
func Body(raw string) string {
	lines := strings.Split(raw, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " \t\r")
	}
	joined := strings.Join(lines, "\n")
	return strings.TrimRight(joined, "\n \t\r")
}
