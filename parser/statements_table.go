package parser

import (
	"strconv"
	"strings"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/normalize"
)

func (b *builder) dialectNorm() normalize.Dialect {
	if b.dialect == DialectSQLite {
		return normalize.DialectSQLite
	}
	return normalize.DialectPostgres
}

// parseCreateTable handles CREATE TABLE [IF NOT EXISTS] name (column-or-constraint, ...)
// per spec.md §4.1 "Tables and columns".
func (b *builder) parseCreateTable(c *cursor) error {
	if c.isKeyword("IF") {
		c.next()
		if err := c.expectKeyword("NOT"); err != nil {
			return err
		}
		if err := c.expectKeyword("EXISTS"); err != nil {
			return err
		}
	}
	schema, name, err := c.expectQualifiedName()
	if err != nil {
		return err
	}

	group, err := captureParenGroup(c)
	if err != nil {
		return err
	}

	table := catalog.Table{Name: name, Schema: schema}

	for _, item := range splitOnTopLevelComma(group) {
		if len(item) == 0 {
			continue
		}
		if err := b.parseTableItem(&table, item); err != nil {
			return err
		}
	}

	assignDefaultConstraintNames(&table)
	b.tables = append(b.tables, table)
	return nil
}

// parseTableItem parses one comma-separated member of a CREATE TABLE
// column list: either a table-level constraint or a column definition.
func (b *builder) parseTableItem(table *catalog.Table, toks []Token) error {
	ic := newCursor(toks)

	if ic.isKeyword("CONSTRAINT") || ic.isKeyword("PRIMARY") || ic.isKeyword("UNIQUE") ||
		ic.isKeyword("FOREIGN") || ic.isKeyword("CHECK") {
		return b.parseTableConstraint(table, ic)
	}
	return b.parseColumnDef(table, ic)
}

func (b *builder) parseTableConstraint(table *catalog.Table, c *cursor) error {
	constraintName := ""
	if c.eatKeyword("CONSTRAINT") {
		n, _, err := c.expectIdent()
		if err != nil {
			return err
		}
		constraintName = n
	}

	switch {
	case c.eatKeyword("PRIMARY"):
		if err := c.expectKeyword("KEY"); err != nil {
			return err
		}
		cols, err := expectIdentList(c)
		if err != nil {
			return err
		}
		table.PrimaryKey = &catalog.PrimaryKey{ConstraintName: constraintName, Columns: cols}
		return nil

	case c.eatKeyword("UNIQUE"):
		cols, err := expectIdentList(c)
		if err != nil {
			return err
		}
		table.UniqueConstraints = append(table.UniqueConstraints, catalog.UniqueConstraint{
			ConstraintName: constraintName, Columns: cols,
		})
		return nil

	case c.eatKeyword("CHECK"):
		group, err := captureParenGroup(c)
		if err != nil {
			return err
		}
		table.CheckConstraints = append(table.CheckConstraints, catalog.CheckConstraint{
			ConstraintName: constraintName,
			Expression:     normalize.DefaultExpr(renderTokens(group)),
		})
		return nil

	case c.eatKeyword("FOREIGN"):
		if err := c.expectKeyword("KEY"); err != nil {
			return err
		}
		cols, err := expectIdentList(c)
		if err != nil {
			return err
		}
		fk, err := b.parseReferencesClause(c, constraintName, cols)
		if err != nil {
			return err
		}
		table.ForeignKeys = append(table.ForeignKeys, fk)
		return nil

	default:
		return c.errorf("unsupported table constraint")
	}
}

func expectIdentList(c *cursor) ([]string, error) {
	group, err := captureParenGroup(c)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, item := range splitOnTopLevelComma(group) {
		ic := newCursor(item)
		n, _, err := ic.expectIdent()
		if err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, nil
}

func (b *builder) parseReferencesClause(c *cursor, constraintName string, cols []string) (catalog.ForeignKey, error) {
	if err := c.expectKeyword("REFERENCES"); err != nil {
		return catalog.ForeignKey{}, err
	}
	refSchema, refTable, err := c.expectQualifiedName()
	if err != nil {
		return catalog.ForeignKey{}, err
	}
	var refCols []string
	if c.isPunct("(") {
		refCols, err = expectIdentList(c)
		if err != nil {
			return catalog.ForeignKey{}, err
		}
	}

	fk := catalog.ForeignKey{
		ConstraintName:    constraintName,
		Columns:           cols,
		ReferencedSchema:  refSchema,
		ReferencedTable:   refTable,
		ReferencedColumns: refCols,
		OnDelete:          catalog.ActionNoAction,
		OnUpdate:          catalog.ActionNoAction,
	}

	for {
		switch {
		case c.eatKeyword("ON"):
			switch {
			case c.eatKeyword("DELETE"):
				action, err := parseFKAction(c)
				if err != nil {
					return catalog.ForeignKey{}, err
				}
				fk.OnDelete = action
			case c.eatKeyword("UPDATE"):
				action, err := parseFKAction(c)
				if err != nil {
					return catalog.ForeignKey{}, err
				}
				fk.OnUpdate = action
			default:
				return catalog.ForeignKey{}, c.errorf("expected DELETE or UPDATE after ON")
			}
		case c.eatKeyword("DEFERRABLE"):
			fk.Deferrable = true
		case c.isKeyword("NOT") && c.isKeywordAt(1, "DEFERRABLE"):
			c.next()
			c.next()
			fk.Deferrable = false
		case c.eatKeyword("INITIALLY"):
			if c.eatKeyword("DEFERRED") {
				fk.InitiallyDeferred = true
			} else if err := c.expectKeyword("IMMEDIATE"); err != nil {
				return catalog.ForeignKey{}, err
			}
		default:
			return fk, nil
		}
	}
}

func parseFKAction(c *cursor) (catalog.ForeignKeyAction, error) {
	switch {
	case c.eatKeyword("CASCADE"):
		return catalog.ActionCascade, nil
	case c.eatKeyword("RESTRICT"):
		return catalog.ActionRestrict, nil
	case c.isKeyword("SET") && c.isKeywordAt(1, "NULL"):
		c.next()
		c.next()
		return catalog.ActionSetNull, nil
	case c.isKeyword("SET") && c.isKeywordAt(1, "DEFAULT"):
		c.next()
		c.next()
		return catalog.ActionSetDefault, nil
	case c.isKeyword("NO") && c.isKeywordAt(1, "ACTION"):
		c.next()
		c.next()
		return catalog.ActionNoAction, nil
	default:
		return catalog.ActionNoAction, c.errorf("expected a foreign key action")
	}
}

// parseColumnDef handles `name type [column-constraint ...]` per
// spec.md §4.1's "Columns" and "Serial" bullets.
func (b *builder) parseColumnDef(table *catalog.Table, c *cursor) error {
	name, _, err := c.expectIdent()
	if err != nil {
		return err
	}

	rawType, length, scale, isArray, err := parseTypeSpec(c)
	if err != nil {
		return err
	}

	col := catalog.Column{Name: name, Nullable: true, Array: isArray}

	if seqUnderlying, ok := normalize.IsSerial(rawType); ok {
		col.Type = seqUnderlying
		col.Nullable = false
		col.Identity = &catalog.Identity{
			// PostgreSQL names the implicit sequence <table>_<column>_seq.
			Generation:   "BY DEFAULT",
			SequenceName: table.Name + "_" + name + "_seq",
		}
	} else {
		canon, outLen, outScale := normalize.TypeName(rawType, length, scale, b.dialectNorm())
		col.Type = canon
		col.Length = outLen
		col.Scale = outScale
	}

	for !c.atEOF() && !c.isPunct(",") {
		if err := b.parseColumnConstraint(table, &col, c); err != nil {
			return err
		}
	}

	table.Columns = append(table.Columns, col)
	return nil
}

// parseTypeSpec parses a type name optionally followed by (length[,scale])
// and/or a trailing [] array marker, and the Postgres
// "character varying"/"double precision"/"timestamp with time zone"
// multi-word spellings.
func parseTypeSpec(c *cursor) (rawType string, length, scale *int, isArray bool, err error) {
	var parts []string
	first, _, ferr := c.expectIdent()
	if ferr != nil {
		return "", nil, nil, false, ferr
	}
	parts = append(parts, first)

	for {
		switch strings.ToUpper(parts[len(parts)-1]) {
		case "DOUBLE":
			if c.eatKeyword("PRECISION") {
				parts = append(parts, "precision")
				continue
			}
		case "CHARACTER":
			if c.eatKeyword("VARYING") {
				parts = append(parts, "varying")
				continue
			}
		case "TIMESTAMP", "TIME":
			if c.eatKeyword("WITHOUT") {
				c.expectKeyword("TIME")
				c.expectKeyword("ZONE")
				parts = append(parts, "without", "time", "zone")
				continue
			}
			if c.eatKeyword("WITH") {
				c.expectKeyword("TIME")
				c.expectKeyword("ZONE")
				parts = append(parts, "with", "time", "zone")
				continue
			}
		}
		break
	}
	rawType = strings.Join(parts, " ")

	if c.isPunct("(") {
		group, gerr := captureParenGroup(c)
		if gerr != nil {
			return "", nil, nil, false, gerr
		}
		nums := splitOnTopLevelComma(group)
		if len(nums) >= 1 && len(nums[0]) > 0 {
			n, perr := strconv.Atoi(nums[0][0].Raw)
			if perr != nil {
				return "", nil, nil, false, c.errorf("invalid type length %q", nums[0][0].Raw)
			}
			length = &n
		}
		if len(nums) >= 2 && len(nums[1]) > 0 {
			n, perr := strconv.Atoi(nums[1][0].Raw)
			if perr != nil {
				return "", nil, nil, false, c.errorf("invalid type scale %q", nums[1][0].Raw)
			}
			scale = &n
		}
	}

	if c.eatPunct("[") {
		c.eatPunct("]")
		isArray = true
	} else if c.isKeyword("ARRAY") {
		c.next()
		if c.isPunct("[") {
			c.next()
			c.eatPunct("]")
		}
		isArray = true
	}

	return rawType, length, scale, isArray, nil
}

func (b *builder) parseColumnConstraint(table *catalog.Table, col *catalog.Column, c *cursor) error {
	if c.eatKeyword("CONSTRAINT") {
		if _, _, err := c.expectIdent(); err != nil {
			return err
		}
	}

	switch {
	case c.isKeyword("NOT") && c.isKeywordAt(1, "NULL"):
		c.next()
		c.next()
		col.Nullable = false
		return nil

	case c.eatKeyword("NULL"):
		col.Nullable = true
		return nil

	case c.eatKeyword("DEFAULT"):
		toks := captureUntil(c, func(c *cursor) bool {
			return c.isPunct(",") || c.isKeyword("NOT") || c.isKeyword("NULL") ||
				c.isKeyword("PRIMARY") || c.isKeyword("UNIQUE") || c.isKeyword("REFERENCES") ||
				c.isKeyword("CHECK") || c.isKeyword("GENERATED") || c.isKeyword("CONSTRAINT")
		})
		defaultExpr := normalize.DefaultExpr(renderTokens(toks))
		col.Default = &defaultExpr
		return nil

	case c.eatKeyword("PRIMARY"):
		if err := c.expectKeyword("KEY"); err != nil {
			return err
		}
		col.Nullable = false
		table.PrimaryKey = &catalog.PrimaryKey{Columns: []string{col.Name}}
		return nil

	case c.eatKeyword("UNIQUE"):
		table.UniqueConstraints = append(table.UniqueConstraints, catalog.UniqueConstraint{
			Columns: []string{col.Name},
		})
		return nil

	case c.eatKeyword("CHECK"):
		group, err := captureParenGroup(c)
		if err != nil {
			return err
		}
		table.CheckConstraints = append(table.CheckConstraints, catalog.CheckConstraint{
			Expression: normalize.DefaultExpr(renderTokens(group)),
		})
		return nil

	case c.eatKeyword("REFERENCES"):
		refSchema, refTable, err := c.expectQualifiedName()
		if err != nil {
			return err
		}
		var refCols []string
		if c.isPunct("(") {
			refCols, err = expectIdentList(c)
			if err != nil {
				return err
			}
		}
		fk := catalog.ForeignKey{
			Columns:           []string{col.Name},
			ReferencedSchema:  refSchema,
			ReferencedTable:   refTable,
			ReferencedColumns: refCols,
			OnDelete:          catalog.ActionNoAction,
			OnUpdate:          catalog.ActionNoAction,
		}
		for {
			switch {
			case c.eatKeyword("ON"):
				switch {
				case c.eatKeyword("DELETE"):
					action, aerr := parseFKAction(c)
					if aerr != nil {
						return aerr
					}
					fk.OnDelete = action
				case c.eatKeyword("UPDATE"):
					action, aerr := parseFKAction(c)
					if aerr != nil {
						return aerr
					}
					fk.OnUpdate = action
				default:
					return c.errorf("expected DELETE or UPDATE after ON")
				}
			default:
				table.ForeignKeys = append(table.ForeignKeys, fk)
				return nil
			}
		}

	case c.eatKeyword("GENERATED"):
		generation := "ALWAYS"
		if c.eatKeyword("BY") {
			if err := c.expectKeyword("DEFAULT"); err != nil {
				return err
			}
			generation = "BY DEFAULT"
		} else if err := c.expectKeyword("ALWAYS"); err != nil {
			return err
		}
		if err := c.expectKeyword("AS"); err != nil {
			return err
		}
		if err := c.expectKeyword("IDENTITY"); err != nil {
			return err
		}
		ident := &catalog.Identity{
			Generation:   generation,
			SequenceName: table.Name + "_" + col.Name + "_seq",
		}
		if c.isPunct("(") {
			group, err := captureParenGroup(c)
			if err != nil {
				return err
			}
			ic := newCursor(group)
			for !ic.atEOF() {
				switch {
				case ic.eatKeyword("START"):
					ic.eatKeyword("WITH")
					n, err := ic.expectSignedInt()
					if err != nil {
						return err
					}
					ident.StartValue = &n
				case ic.eatKeyword("INCREMENT"):
					ic.eatKeyword("BY")
					n, err := ic.expectSignedInt()
					if err != nil {
						return err
					}
					ident.IncrementBy = &n
				case ic.eatKeyword("MINVALUE"):
					n, err := ic.expectSignedInt()
					if err != nil {
						return err
					}
					ident.MinValue = &n
				case ic.eatKeyword("MAXVALUE"):
					n, err := ic.expectSignedInt()
					if err != nil {
						return err
					}
					ident.MaxValue = &n
				case ic.eatKeyword("CYCLE"):
					ident.Cycle = true
				default:
					ic.next()
				}
			}
		}
		col.Identity = ident
		col.Nullable = false
		return nil

	default:
		return c.errorf("unexpected token in column definition: %q", c.peek().Text)
	}
}
