package parser

import (
	"strconv"
	"strings"

	"github.com/elitan/terra/catalog"
)

func (b *builder) parseCreateSchema(c *cursor) error {
	if c.isKeyword("IF") {
		c.next()
		if err := c.expectKeyword("NOT"); err != nil {
			return err
		}
		if err := c.expectKeyword("EXISTS"); err != nil {
			return err
		}
	}
	name, _, err := c.expectIdent()
	if err != nil {
		return err
	}
	b.schemas = append(b.schemas, catalog.Schema{Name: name})
	return nil
}

func (b *builder) parseCreateExtension(c *cursor) error {
	ifNotExists := false
	if c.isKeyword("IF") {
		c.next()
		if err := c.expectKeyword("NOT"); err != nil {
			return err
		}
		if err := c.expectKeyword("EXISTS"); err != nil {
			return err
		}
		ifNotExists = true
	}
	name, _, err := c.expectIdent()
	if err != nil {
		return err
	}
	target := ""
	c.eatKeyword("WITH") // WITH SCHEMA is equivalent to SCHEMA alone
	if c.eatKeyword("SCHEMA") {
		target, _, err = c.expectIdent()
		if err != nil {
			return err
		}
	}
	b.extensions = append(b.extensions, catalog.Extension{Name: name, TargetSchema: target, IfNotExists: ifNotExists})
	return nil
}

func (b *builder) parseCreateType(c *cursor) error {
	schema, name, err := c.expectQualifiedName()
	if err != nil {
		return err
	}
	if err := c.expectKeyword("AS"); err != nil {
		return err
	}
	if err := c.expectKeyword("ENUM"); err != nil {
		return err
	}
	group, err := captureParenGroup(c)
	if err != nil {
		return err
	}
	var values []string
	for _, item := range splitOnTopLevelComma(group) {
		if len(item) == 0 {
			continue
		}
		if item[0].Kind != TokString {
			return c.errorf("expected string literal in ENUM value list")
		}
		values = append(values, item[0].Raw)
	}
	b.enums = append(b.enums, catalog.EnumType{Name: name, Schema: schema, Values: values})
	return nil
}

func (b *builder) parseCreateSequence(c *cursor) error {
	if c.isKeyword("IF") {
		c.next()
		c.expectKeyword("NOT")
		c.expectKeyword("EXISTS")
	}
	schema, name, err := c.expectQualifiedName()
	if err != nil {
		return err
	}
	seq := catalog.Sequence{Name: name, Schema: schema, Type: "bigint"}

	for !c.atEOF() {
		switch {
		case c.eatKeyword("AS"):
			typeName, _, err := c.expectIdent()
			if err != nil {
				return err
			}
			seq.Type = strings.ToLower(typeName)
		case c.eatKeyword("INCREMENT"):
			c.eatKeyword("BY")
			n, err := c.expectSignedInt()
			if err != nil {
				return err
			}
			seq.IncrementBy = &n
		case c.eatKeyword("START"):
			c.eatKeyword("WITH")
			n, err := c.expectSignedInt()
			if err != nil {
				return err
			}
			seq.StartValue = &n
		case c.eatKeyword("MINVALUE"):
			n, err := c.expectSignedInt()
			if err != nil {
				return err
			}
			seq.MinValue = &n
		case c.isKeyword("NO") && c.isKeywordAt(1, "MINVALUE"):
			c.next()
			c.next()
		case c.eatKeyword("MAXVALUE"):
			n, err := c.expectSignedInt()
			if err != nil {
				return err
			}
			seq.MaxValue = &n
		case c.isKeyword("NO") && c.isKeywordAt(1, "MAXVALUE"):
			c.next()
			c.next()
		case c.eatKeyword("CACHE"):
			n, err := c.expectSignedInt()
			if err != nil {
				return err
			}
			seq.Cache = &n
		case c.eatKeyword("CYCLE"):
			seq.Cycle = true
		case c.isKeyword("NO") && c.isKeywordAt(1, "CYCLE"):
			c.next()
			c.next()
			seq.Cycle = false
		case c.eatKeyword("OWNED"):
			c.eatKeyword("BY")
			schema2, name2, err := c.expectQualifiedName()
			if err != nil {
				return err
			}
			if c.eatPunct(".") {
				col, _, err := c.expectIdent()
				if err != nil {
					return err
				}
				seq.OwnedBy = schema2 + "." + name2 + "." + col
			} else {
				seq.OwnedBy = schema2 + "." + name2
			}
		default:
			return c.errorf("unexpected token in CREATE SEQUENCE: %q", c.peek().Text)
		}
	}
	b.sequences = append(b.sequences, seq)
	return nil
}

func (c *cursor) expectSignedInt() (int64, error) {
	neg := false
	if c.eatPunct("-") {
		neg = true
	}
	t := c.peek()
	if t.Kind != TokNumber {
		return 0, c.errorf("expected integer, got %q", t.Text)
	}
	c.next()
	n, err := strconv.ParseInt(t.Raw, 10, 64)
	if err != nil {
		return 0, c.errorf("invalid integer %q", t.Raw)
	}
	if neg {
		n = -n
	}
	return n, nil
}

func (b *builder) parseComment(c *cursor) error {
	if err := c.expectKeyword("COMMENT"); err != nil {
		return err
	}
	if err := c.expectKeyword("ON"); err != nil {
		return err
	}

	kindWord, _, err := c.expectIdent()
	if err != nil {
		return err
	}
	kind := objectKindFromWord(kindWord)

	var objName string
	if kind == catalog.KindColumn {
		tableSchema, table, err := c.expectQualifiedName()
		if err != nil {
			return err
		}
		if err := c.expectPunct("."); err != nil {
			return err
		}
		col, _, err := c.expectIdent()
		if err != nil {
			return err
		}
		objName = qualify(tableSchema, table) + "." + col
	} else {
		schema, name, err := c.expectQualifiedName()
		if err != nil {
			return err
		}
		objName = qualify(schema, name)
	}

	if err := c.expectKeyword("IS"); err != nil {
		return err
	}
	t := c.peek()
	if t.Kind != TokString {
		return c.errorf("expected string literal after IS")
	}
	c.next()

	b.comments = append(b.comments, catalog.Comment{
		Object: catalog.ObjectID{Kind: kind, Name: objName},
		Text:   t.Raw,
	})
	return nil
}

func objectKindFromWord(w string) catalog.Kind {
	switch strings.ToUpper(w) {
	case "TABLE":
		return catalog.KindTable
	case "COLUMN":
		return catalog.KindColumn
	case "INDEX":
		return catalog.KindIndex
	case "VIEW":
		return catalog.KindView
	case "FUNCTION":
		return catalog.KindFunction
	case "PROCEDURE":
		return catalog.KindProcedure
	case "TRIGGER":
		return catalog.KindTrigger
	case "TYPE":
		return catalog.KindEnum
	case "SEQUENCE":
		return catalog.KindSequence
	case "SCHEMA":
		return catalog.KindSchema
	case "EXTENSION":
		return catalog.KindExtension
	case "CONSTRAINT":
		return catalog.KindCheck
	default:
		return catalog.KindTable
	}
}

func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

func (b *builder) parseCreatePolicy(c *cursor) error {
	name, _, err := c.expectIdent()
	if err != nil {
		return err
	}
	if err := c.expectKeyword("ON"); err != nil {
		return err
	}
	schema, table, err := c.expectQualifiedName()
	if err != nil {
		return err
	}

	policy := catalog.Policy{Name: name, Permissive: true, Scope: "ALL"}

	for !c.atEOF() {
		switch {
		case c.eatKeyword("AS"):
			if c.eatKeyword("PERMISSIVE") {
				policy.Permissive = true
			} else if c.eatKeyword("RESTRICTIVE") {
				policy.Permissive = false
			} else {
				return c.errorf("expected PERMISSIVE or RESTRICTIVE")
			}
		case c.eatKeyword("FOR"):
			scopeWord, _, err := c.expectIdent()
			if err != nil {
				return err
			}
			policy.Scope = strings.ToUpper(scopeWord)
		case c.eatKeyword("TO"):
			for {
				role, _, err := c.expectIdent()
				if err != nil {
					return err
				}
				policy.Roles = append(policy.Roles, role)
				if !c.eatPunct(",") {
					break
				}
			}
		case c.eatKeyword("USING"):
			group, err := captureParenGroup(c)
			if err != nil {
				return err
			}
			policy.Using = renderTokens(group)
		case c.eatKeyword("WITH"):
			if err := c.expectKeyword("CHECK"); err != nil {
				return err
			}
			group, err := captureParenGroup(c)
			if err != nil {
				return err
			}
			policy.WithCheck = renderTokens(group)
		default:
			return c.errorf("unexpected token in CREATE POLICY: %q", c.peek().Text)
		}
	}

	for i := range b.tables {
		if b.tables[i].QualifiedName() == qualify(schema, table) {
			b.tables[i].Policies = append(b.tables[i].Policies, policy)
			return nil
		}
	}
	return c.errorf("CREATE POLICY references unknown table %s (must appear after its CREATE TABLE)", qualify(schema, table))
}
