package parser

import (
	"fmt"
	"strings"

	"github.com/elitan/terra/dbcore"
)

// cursor walks a fixed slice of tokens belonging to one statement.
type cursor struct {
	toks []Token
	pos  int
}

func newCursor(toks []Token) *cursor {
	return &cursor{toks: toks}
}

func (c *cursor) peek() Token {
	if c.pos >= len(c.toks) {
		return Token{Kind: TokEOF}
	}
	return c.toks[c.pos]
}

func (c *cursor) peekAt(offset int) Token {
	idx := c.pos + offset
	if idx >= len(c.toks) {
		return Token{Kind: TokEOF}
	}
	return c.toks[idx]
}

func (c *cursor) next() Token {
	t := c.peek()
	if c.pos < len(c.toks) {
		c.pos++
	}
	return t
}

func (c *cursor) atEOF() bool {
	return c.pos >= len(c.toks)
}

// isKeyword reports whether the current token is the keyword kw
// (case-insensitive; the lexer already upper-cases keyword text).
func (c *cursor) isKeyword(kw string) bool {
	t := c.peek()
	return (t.Kind == TokKeyword || t.Kind == TokIdent) && t.Text == strings.ToUpper(kw)
}

func (c *cursor) isKeywordAt(offset int, kw string) bool {
	t := c.peekAt(offset)
	return (t.Kind == TokKeyword || t.Kind == TokIdent) && t.Text == strings.ToUpper(kw)
}

func (c *cursor) isPunct(p string) bool {
	t := c.peek()
	return t.Kind == TokPunct && t.Text == p
}

// eatKeyword consumes the current token if it is the given keyword.
func (c *cursor) eatKeyword(kw string) bool {
	if c.isKeyword(kw) {
		c.next()
		return true
	}
	return false
}

func (c *cursor) eatPunct(p string) bool {
	if c.isPunct(p) {
		c.next()
		return true
	}
	return false
}

func (c *cursor) expectKeyword(kw string) error {
	if !c.eatKeyword(kw) {
		return c.errorf("expected keyword %s, got %q", kw, c.peek().Raw+c.peek().Text)
	}
	return nil
}

func (c *cursor) expectPunct(p string) error {
	if !c.eatPunct(p) {
		return c.errorf("expected %q, got %q", p, c.peek().Text)
	}
	return nil
}

// expectIdent consumes an identifier (quoted or not) and returns its
// normalized name plus whether it was quoted (spec.md §4.1 "Identifiers").
func (c *cursor) expectIdent() (name string, quoted bool, err error) {
	t := c.peek()
	switch t.Kind {
	case TokIdent, TokKeyword:
		c.next()
		return strings.ToLower(t.Raw), false, nil
	case TokQuotedIdent:
		c.next()
		return t.Text, true, nil
	default:
		return "", false, c.errorf("expected identifier, got %q", t.Text)
	}
}

// expectQualifiedName parses `[schema.]name` and returns the canonical
// (possibly empty) schema and the canonical name.
func (c *cursor) expectQualifiedName() (schema, name string, err error) {
	first, _, err := c.expectIdent()
	if err != nil {
		return "", "", err
	}
	if c.eatPunct(".") {
		second, _, err := c.expectIdent()
		if err != nil {
			return "", "", err
		}
		return first, second, nil
	}
	return "", first, nil
}

func (c *cursor) errorf(format string, args ...any) error {
	t := c.peek()
	return &dbcore.ParseError{Line: t.Line, Column: t.Column, Message: fmt.Sprintf(format, args...)}
}
