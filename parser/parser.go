package parser

import (
	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/dbcore"
)

// Dialect selects which DDL dialect variant the parser accepts.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// Parse parses sql (a semicolon-separated sequence of CREATE/COMMENT ON
// statements) into a catalog.Catalog (spec.md §4.1). Foreign key
// references are resolved at assembly time, so a table may reference one
// defined later in the text. CREATE INDEX and CREATE POLICY are attached
// to their table while parsing and fail with a ParseError when that
// table's CREATE TABLE has not appeared earlier in the text.
//
// Grounded on the teacher's schema.ParseDDLs entrypoint shape
// (schema/parser.go) and the aggregation pass in schema/generator.go's
// aggregateDDLsToSchema: statements are parsed one by one and then
// assembled into one Catalog.
func Parse(sql string, dialect Dialect) (*catalog.Catalog, error) {
	statements, err := splitStatements(sql)
	if err != nil {
		return nil, err
	}

	builder := newBuilder(dialect)
	for _, stmtToks := range statements {
		if len(stmtToks) == 0 {
			continue
		}
		if err := builder.parseStatement(stmtToks); err != nil {
			return nil, err
		}
	}

	cat := builder.build()
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return cat, nil
}

// tokenizeAll lexes the entire input into a flat token slice (comments
// and whitespace already stripped by the lexer).
func tokenizeAll(sql string) ([]Token, error) {
	lex := NewLexer(sql)
	var toks []Token
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil, &dbcore.ParseError{Message: err.Error()}
		}
		if tok.Kind == TokEOF {
			break
		}
		toks = append(toks, tok)
	}
	return toks, nil
}

// splitStatements tokenizes sql and splits it into one token slice per
// top-level (paren-depth 0) semicolon-terminated statement. Because
// dollar-quoted bodies are lexed as single tokens, semicolons inside a
// function/trigger body never cause a false split — unlike the teacher's
// text-level splitDDLs (schema/parser.go), which has to retry parses at
// increasing statement-joins to work around exactly that problem.
func splitStatements(sql string) ([][]Token, error) {
	toks, err := tokenizeAll(sql)
	if err != nil {
		return nil, err
	}

	var statements [][]Token
	var current []Token
	depth := 0
	for _, t := range toks {
		if t.Kind == TokPunct && t.Text == "(" {
			depth++
		}
		if t.Kind == TokPunct && t.Text == ")" {
			depth--
		}
		if t.Kind == TokPunct && t.Text == ";" && depth == 0 {
			if len(current) > 0 {
				statements = append(statements, current)
			}
			current = nil
			continue
		}
		current = append(current, t)
	}
	if len(current) > 0 {
		statements = append(statements, current)
	}
	return statements, nil
}
