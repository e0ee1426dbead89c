package parser

import (
	"strings"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/normalize"
)

// parseCreateIndex handles CREATE [UNIQUE] INDEX [CONCURRENTLY] [name]
// ON table [USING method] (col-or-expr, ...) [WHERE predicate].
func (b *builder) parseCreateIndex(c *cursor, unique bool) error {
	concurrent := c.eatKeyword("CONCURRENTLY")

	if c.isKeyword("IF") {
		c.next()
		if err := c.expectKeyword("NOT"); err != nil {
			return err
		}
		if err := c.expectKeyword("EXISTS"); err != nil {
			return err
		}
	}

	name := ""
	if !c.isKeyword("ON") {
		n, _, err := c.expectIdent()
		if err != nil {
			return err
		}
		name = n
	}

	if err := c.expectKeyword("ON"); err != nil {
		return err
	}
	tableSchema, tableName, err := c.expectQualifiedName()
	if err != nil {
		return err
	}

	method := "btree"
	if c.eatKeyword("USING") {
		m, _, err := c.expectIdent()
		if err != nil {
			return err
		}
		method = strings.ToLower(m)
	}

	group, err := captureParenGroup(c)
	if err != nil {
		return err
	}

	var cols []catalog.IndexColumn
	for _, item := range splitOnTopLevelComma(group) {
		ic := catalog.IndexColumn{Direction: "asc"}
		toks, opclass, direction := extractIndexColumnSuffix(item)
		ic.Direction = direction
		ic.OpClass = opclass

		if len(toks) == 1 && (toks[0].Kind == TokIdent || toks[0].Kind == TokQuotedIdent) {
			n, _, _ := newCursor(toks).expectIdent()
			ic.Column = n
		} else {
			ic.Expression = normalize.IndexExpression(renderTokens(toks))
		}
		cols = append(cols, ic)
	}

	where := ""
	if c.eatKeyword("WHERE") {
		rest := captureUntil(c, func(c *cursor) bool { return false })
		where = normalize.DefaultExpr(renderTokens(rest))
	}

	idx := catalog.Index{
		Name:       name,
		Unique:     unique,
		Method:     method,
		Columns:    cols,
		Where:      where,
		Concurrent: concurrent,
	}

	qname := qualify(tableSchema, tableName)
	for i := range b.tables {
		if b.tables[i].QualifiedName() == qname {
			b.tables[i].Indexes = append(b.tables[i].Indexes, idx)
			return nil
		}
	}
	return c.errorf("CREATE INDEX references unknown table %s (must appear after its CREATE TABLE)", qname)
}

// extractIndexColumnSuffix splits off a trailing opclass identifier and/or
// ASC|DESC [NULLS FIRST|LAST] direction from one index column's token run.
func extractIndexColumnSuffix(toks []Token) (rest []Token, opclass, direction string) {
	direction = "asc"
	end := len(toks)

	// NULLS FIRST|LAST (dropped: spec.md §4.1 treats it as dialect default noise)
	if end >= 2 && isKw(toks[end-2], "NULLS") && (isKw(toks[end-1], "FIRST") || isKw(toks[end-1], "LAST")) {
		end -= 2
	}
	if end >= 1 && (isKw(toks[end-1], "ASC") || isKw(toks[end-1], "DESC")) {
		if isKw(toks[end-1], "DESC") {
			direction = "desc"
		}
		end--
	}
	if end >= 1 && (toks[end-1].Kind == TokIdent || toks[end-1].Kind == TokQuotedIdent) && end > 1 {
		// A trailing bare identifier after the column/expression is an opclass,
		// e.g. `name text_pattern_ops`.
		opclass = normalize.OpClass(strings.ToLower(toks[end-1].Raw))
		end--
	}
	return toks[:end], opclass, direction
}

func isKw(t Token, kw string) bool {
	return (t.Kind == TokKeyword || t.Kind == TokIdent) && t.Text == strings.ToUpper(kw)
}

// parseCreateView handles CREATE [OR REPLACE] [MATERIALIZED] VIEW name
// [(columns)] [WITH (options)] AS SELECT ... [WITH [LOCAL|CASCADED] CHECK OPTION].
func (b *builder) parseCreateView(c *cursor, materialized, orReplace bool) error {
	_ = orReplace
	schema, name, err := c.expectQualifiedName()
	if err != nil {
		return err
	}

	if c.isPunct("(") {
		if _, err := captureParenGroup(c); err != nil {
			return err
		}
	}

	securityBarrier := false
	if c.eatKeyword("WITH") {
		group, err := captureParenGroup(c)
		if err != nil {
			return err
		}
		if strings.Contains(strings.ToLower(renderTokens(group)), "security_barrier") {
			securityBarrier = true
		}
	}

	if err := c.expectKeyword("AS"); err != nil {
		return err
	}

	checkOption := ""
	body := captureUntil(c, func(c *cursor) bool {
		return c.isKeyword("WITH") && (c.isKeywordAt(1, "CHECK") ||
			(c.isKeywordAt(1, "LOCAL") || c.isKeywordAt(1, "CASCADED")) && c.isKeywordAt(2, "CHECK"))
	})
	if c.eatKeyword("WITH") {
		scope := "LOCAL"
		if c.eatKeyword("LOCAL") {
			scope = "LOCAL"
		} else if c.eatKeyword("CASCADED") {
			scope = "CASCADED"
		}
		if err := c.expectKeyword("CHECK"); err != nil {
			return err
		}
		if err := c.expectKeyword("OPTION"); err != nil {
			return err
		}
		checkOption = scope
	}

	b.views = append(b.views, catalog.View{
		Name:            name,
		Schema:          schema,
		Definition:      normalize.Body(renderTokens(body)),
		Materialized:    materialized,
		CheckOption:     checkOption,
		SecurityBarrier: securityBarrier,
	})
	return nil
}

// parseCreateFunction handles both CREATE FUNCTION and CREATE PROCEDURE,
// since their parameter/body grammar is identical apart from RETURNS.
func (b *builder) parseCreateFunction(c *cursor, isProcedure bool) error {
	schema, name, err := c.expectQualifiedName()
	if err != nil {
		return err
	}

	group, err := captureParenGroup(c)
	if err != nil {
		return err
	}
	var params []catalog.Parameter
	for _, item := range splitOnTopLevelComma(group) {
		if len(item) == 0 {
			continue
		}
		p, err := parseParameter(item)
		if err != nil {
			return err
		}
		params = append(params, p)
	}

	returnType := ""
	if !isProcedure {
		if err := c.expectKeyword("RETURNS"); err != nil {
			return err
		}
		rawType, length, scale, isArray, err := parseTypeSpec(c)
		if err != nil {
			return err
		}
		canon, _, _ := normalize.TypeName(rawType, length, scale, b.dialectNorm())
		if isArray {
			canon += "[]"
		}
		returnType = canon
	}

	fn := catalog.Function{
		Name:        name,
		Schema:      schema,
		Parameters:  params,
		ReturnType:  returnType,
		Volatility:  "VOLATILE",
		IsProcedure: isProcedure,
	}

	for !c.atEOF() {
		switch {
		case c.eatKeyword("LANGUAGE"):
			lang, _, err := c.expectIdent()
			if err != nil {
				return err
			}
			fn.Language = strings.ToLower(lang)
		case c.eatKeyword("VOLATILE"):
			fn.Volatility = "VOLATILE"
		case c.eatKeyword("STABLE"):
			fn.Volatility = "STABLE"
		case c.eatKeyword("IMMUTABLE"):
			fn.Volatility = "IMMUTABLE"
		case c.eatKeyword("STRICT"):
			fn.Strict = true
		case c.isKeyword("CALLED") && c.isKeywordAt(1, "ON"):
			c.next()
			c.next()
			c.expectKeyword("NULL")
			c.expectKeyword("INPUT")
		case c.isKeyword("RETURNS") && c.isKeywordAt(1, "NULL"):
			c.next()
			c.next()
			c.expectKeyword("ON")
			c.expectKeyword("NULL")
			c.expectKeyword("INPUT")
			fn.Strict = true
		case c.eatKeyword("AS"):
			t := c.peek()
			if t.Kind != TokDollarString && t.Kind != TokString {
				return c.errorf("expected dollar-quoted or string function body")
			}
			c.next()
			fn.Body = normalize.Body(t.Raw)
		default:
			return c.errorf("unexpected token in CREATE FUNCTION: %q", c.peek().Text)
		}
	}

	if isProcedure {
		b.procedures = append(b.procedures, fn)
	} else {
		b.functions = append(b.functions, fn)
	}
	return nil
}

func parseParameter(toks []Token) (catalog.Parameter, error) {
	ic := newCursor(toks)
	mode := "IN"
	switch {
	case ic.eatKeyword("IN"):
		mode = "IN"
	case ic.eatKeyword("OUT"):
		mode = "OUT"
	case ic.eatKeyword("INOUT"):
		mode = "INOUT"
	}
	// If more than one token remains, the first is the parameter name;
	// otherwise the whole remainder is just a bare type.
	name := ""
	if len(tokensRemaining(ic)) > 1 {
		n, _, err := ic.expectIdent()
		if err != nil {
			return catalog.Parameter{}, err
		}
		name = n
	}
	rawType, length, scale, isArray, err := parseTypeSpec(ic)
	if err != nil {
		return catalog.Parameter{}, err
	}
	canon, _, _ := normalize.TypeName(rawType, length, scale, normalize.DialectPostgres)
	if isArray {
		canon += "[]"
	}
	return catalog.Parameter{Name: name, Type: canon, Mode: mode}, nil
}

func tokensRemaining(c *cursor) []Token {
	return c.toks[c.pos:]
}

// parseCreateTrigger handles CREATE TRIGGER name {BEFORE|AFTER|INSTEAD OF}
// event [OR event ...] ON table [FOR EACH ROW|STATEMENT] [WHEN (cond)]
// EXECUTE {FUNCTION|PROCEDURE} name(args).
func (b *builder) parseCreateTrigger(c *cursor) error {
	name, _, err := c.expectIdent()
	if err != nil {
		return err
	}

	timing := ""
	switch {
	case c.eatKeyword("BEFORE"):
		timing = "BEFORE"
	case c.eatKeyword("AFTER"):
		timing = "AFTER"
	case c.isKeyword("INSTEAD") && c.isKeywordAt(1, "OF"):
		c.next()
		c.next()
		timing = "INSTEAD OF"
	default:
		return c.errorf("expected BEFORE, AFTER or INSTEAD OF")
	}

	var events []string
	var updateColumns []string
	for {
		switch {
		case c.eatKeyword("INSERT"):
			events = append(events, "INSERT")
		case c.eatKeyword("DELETE"):
			events = append(events, "DELETE")
		case c.eatKeyword("TRUNCATE"):
			events = append(events, "TRUNCATE")
		case c.eatKeyword("UPDATE"):
			events = append(events, "UPDATE")
			if c.eatKeyword("OF") {
				cols, err := expectIdentListNoParen(c)
				if err != nil {
					return err
				}
				updateColumns = cols
			}
		default:
			return c.errorf("expected a trigger event (INSERT, UPDATE, DELETE, TRUNCATE)")
		}
		if !c.eatKeyword("OR") {
			break
		}
	}

	if err := c.expectKeyword("ON"); err != nil {
		return err
	}
	tableSchema, tableName, err := c.expectQualifiedName()
	if err != nil {
		return err
	}

	level := "STATEMENT"
	if c.eatKeyword("FOR") {
		c.eatKeyword("EACH")
		if c.eatKeyword("ROW") {
			level = "ROW"
		} else if err := c.expectKeyword("STATEMENT"); err != nil {
			return err
		}
	}

	when := ""
	if c.eatKeyword("WHEN") {
		group, err := captureParenGroup(c)
		if err != nil {
			return err
		}
		when = normalize.DefaultExpr(renderTokens(group))
	}

	if err := c.expectKeyword("EXECUTE"); err != nil {
		return err
	}
	if !c.eatKeyword("FUNCTION") {
		if err := c.expectKeyword("PROCEDURE"); err != nil {
			return err
		}
	}
	_, fnName, err := c.expectQualifiedName()
	if err != nil {
		return err
	}
	group, err := captureParenGroup(c)
	if err != nil {
		return err
	}
	var args []string
	for _, item := range splitOnTopLevelComma(group) {
		if len(item) == 0 {
			continue
		}
		args = append(args, renderTokens(item))
	}

	b.triggers = append(b.triggers, catalog.Trigger{
		Name:          name,
		Table:         tableName,
		TableSchema:   tableSchema,
		Timing:        timing,
		Events:        events,
		UpdateColumns: updateColumns,
		Level:         level,
		When:          when,
		Function:      fnName,
		Arguments:     args,
	})
	return nil
}

func expectIdentListNoParen(c *cursor) ([]string, error) {
	var names []string
	for {
		n, _, err := c.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, n)
		if !c.eatPunct(",") {
			break
		}
	}
	return names, nil
}
