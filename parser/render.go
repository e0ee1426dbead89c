package parser

import "strings"

// noSpaceBefore is the set of punctuation that should not be preceded by
// a space when reconstituting an expression from tokens.
var noSpaceBefore = map[string]bool{
	")": true, ",": true, ".": true, "::": true, ";": true,
}

// noSpaceAfter is the set of punctuation that should not be followed by
// a space.
var noSpaceAfter = map[string]bool{
	"(": true, ".": true, "::": true,
}

// renderTokens reconstitutes a canonical (single-space-separated) textual
// form of a captured token run — used for DEFAULT/CHECK/WHERE/USING
// expressions and view SELECT bodies, where normalize.DefaultExpr /
// normalize.IndexExpression / normalize.Body are then applied on top.
func renderTokens(toks []Token) string {
	var b strings.Builder
	prevText := ""
	for i, t := range toks {
		text := tokenText(t)
		if i > 0 {
			if !noSpaceBefore[text] && !noSpaceAfter[prevText] {
				b.WriteByte(' ')
			}
		}
		b.WriteString(text)
		prevText = text
	}
	return b.String()
}

func tokenText(t Token) string {
	switch t.Kind {
	case TokQuotedIdent:
		return `"` + strings.ReplaceAll(t.Text, `"`, `""`) + `"`
	case TokString:
		return t.Text
	case TokDollarString:
		return "$$" + t.Text + "$$"
	case TokIdent:
		// Unquoted identifiers fold to lower case (spec.md §4.1).
		return strings.ToLower(t.Raw)
	default:
		return t.Text
	}
}
