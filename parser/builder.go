package parser

import "github.com/elitan/terra/catalog"

// builder accumulates the objects parsed from every statement and
// assembles them into a single Catalog once all statements are seen,
// matching the teacher's aggregateDDLsToSchema pass (schema/generator.go):
// foreign key references (e.g. a FK to a table defined later in the file)
// are resolved at assembly time via catalog.Catalog.ResolveForeignKeys,
// not during parsing. Indexes and policies are the exception: they are
// attached to an already-parsed table, so their CREATE TABLE has to come
// first.
type builder struct {
	dialect Dialect

	schemas    []catalog.Schema
	extensions []catalog.Extension
	enums      []catalog.EnumType
	sequences  []catalog.Sequence
	tables     []catalog.Table
	views      []catalog.View
	functions  []catalog.Function
	procedures []catalog.Function
	triggers   []catalog.Trigger
	comments   []catalog.Comment
}

func newBuilder(dialect Dialect) *builder {
	return &builder{dialect: dialect}
}

func (b *builder) build() *catalog.Catalog {
	cat := &catalog.Catalog{
		Schemas:    b.schemas,
		Extensions: b.extensions,
		Enums:      b.enums,
		Sequences:  b.sequences,
		Tables:     b.tables,
		Views:      b.views,
		Functions:  b.functions,
		Procedures: b.procedures,
		Triggers:   b.triggers,
		Comments:   b.comments,
	}
	cat.ResolveForeignKeys()
	return cat
}

// parseStatement dispatches one top-level statement (a single
// semicolon-terminated token run) to the right statement parser based on
// its leading keyword(s).
func (b *builder) parseStatement(toks []Token) error {
	c := newCursor(toks)

	switch {
	case c.eatKeyword("CREATE"):
		return b.parseCreate(c)
	case c.isKeyword("COMMENT"):
		return b.parseComment(c)
	default:
		return c.errorf("unsupported statement (only CREATE and COMMENT ON are supported)")
	}
}

func (b *builder) parseCreate(c *cursor) error {
	orReplace := false
	if c.eatKeyword("OR") {
		if err := c.expectKeyword("REPLACE"); err != nil {
			return err
		}
		orReplace = true
	}

	unique := c.eatKeyword("UNIQUE")

	switch {
	case c.eatKeyword("SCHEMA"):
		return b.parseCreateSchema(c)
	case c.eatKeyword("EXTENSION"):
		return b.parseCreateExtension(c)
	case c.eatKeyword("SEQUENCE"):
		return b.parseCreateSequence(c)
	case c.eatKeyword("TYPE"):
		return b.parseCreateType(c)
	case c.eatKeyword("TABLE"):
		return b.parseCreateTable(c)
	case c.eatKeyword("INDEX"):
		return b.parseCreateIndex(c, unique)
	case c.eatKeyword("MATERIALIZED"):
		if err := c.expectKeyword("VIEW"); err != nil {
			return err
		}
		return b.parseCreateView(c, true, orReplace)
	case c.eatKeyword("VIEW"):
		return b.parseCreateView(c, false, orReplace)
	case c.eatKeyword("FUNCTION"):
		return b.parseCreateFunction(c, false)
	case c.eatKeyword("PROCEDURE"):
		return b.parseCreateFunction(c, true)
	case c.eatKeyword("TRIGGER"):
		return b.parseCreateTrigger(c)
	case c.eatKeyword("POLICY"):
		return b.parseCreatePolicy(c)
	default:
		return c.errorf("unsupported CREATE statement")
	}
}
