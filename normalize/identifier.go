package normalize

import "strings"

// Identifier folds an unquoted identifier to lower case and leaves a
// quoted one untouched, matching spec.md §4.1's "Identifiers" rule.
// Quoted identifiers must always be re-emitted quoted by the renderer;
// that is the renderer's responsibility, not this function's.
func Identifier(name string, quoted bool) string {
	if quoted {
		return name
	}
	return strings.ToLower(name)
}

// OpClass case-folds an operator class name (spec.md §4.1 "Index
// expressions" rule: "operator class names case-folded").
func OpClass(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ReservedWord case-folds a small set of reserved words/keywords whose
// case must not matter for comparison (spec.md §4.1: "normalize case of
// reserved words (CURRENT_TIMESTAMP case-folded)").
var reservedWords = map[string]string{
	"current_timestamp": "CURRENT_TIMESTAMP",
	"current_date":      "CURRENT_DATE",
	"current_time":      "CURRENT_TIME",
	"localtimestamp":    "LOCALTIMESTAMP",
	"localtime":         "LOCALTIME",
	"null":              "NULL",
	"true":              "true",
	"false":             "false",
}

func foldReservedWord(token string) (string, bool) {
	canon, ok := reservedWords[strings.ToLower(token)]
	return canon, ok
}
