package catalog

import "fmt"

// DuplicateObjectError is returned by Validate (and by the Parser, which
// calls it once on the assembled Catalog) when two definitions of the
// same object exist
// (spec.md §4.1).
type DuplicateObjectError struct {
	ID ObjectID
}

func (e *DuplicateObjectError) Error() string {
	return fmt.Sprintf("duplicate object definition: %s", e.ID)
}

// Validate checks invariants (1) and (2) of spec.md §3: unique object
// identifiers and unique, ordered column names within a table. Invariant
// (3) (foreign key resolution) is handled by ResolveForeignKeys, which
// looks each referenced table up in the Catalog.
func (c *Catalog) Validate() error {
	seen := map[ObjectID]bool{}
	mark := func(id ObjectID) error {
		if seen[id] {
			return &DuplicateObjectError{ID: id}
		}
		seen[id] = true
		return nil
	}

	for _, s := range c.Schemas {
		if err := mark(ObjectID{Kind: KindSchema, Name: s.Name}); err != nil {
			return err
		}
	}
	for _, e := range c.Extensions {
		if err := mark(ObjectID{Kind: KindExtension, Name: e.Name}); err != nil {
			return err
		}
	}
	for _, e := range c.Enums {
		if err := mark(ObjectID{Kind: KindEnum, Schema: e.Schema, Name: e.Name}); err != nil {
			return err
		}
	}
	for _, s := range c.Sequences {
		if err := mark(ObjectID{Kind: KindSequence, Schema: s.Schema, Name: s.Name}); err != nil {
			return err
		}
	}
	for _, t := range c.Tables {
		if err := mark(ObjectID{Kind: KindTable, Schema: t.Schema, Name: t.Name}); err != nil {
			return err
		}
		if err := validateColumns(t); err != nil {
			return err
		}
	}
	for _, v := range c.Views {
		if err := mark(ObjectID{Kind: KindView, Schema: v.Schema, Name: v.Name}); err != nil {
			return err
		}
	}
	for _, f := range c.Functions {
		if err := mark(ObjectID{Kind: KindFunction, Schema: f.Schema, Name: f.Name}); err != nil {
			return err
		}
	}
	for _, p := range c.Procedures {
		if err := mark(ObjectID{Kind: KindProcedure, Schema: p.Schema, Name: p.Name}); err != nil {
			return err
		}
	}
	for _, t := range c.Triggers {
		if err := mark(ObjectID{Kind: KindTrigger, Schema: t.TableSchema, Name: t.Table + "." + t.Name}); err != nil {
			return err
		}
	}
	return nil
}

func validateColumns(t Table) error {
	seen := map[string]bool{}
	for _, col := range t.Columns {
		if seen[col.Name] {
			return &DuplicateObjectError{ID: ObjectID{Kind: KindColumn, Schema: t.Schema, Name: t.Name + "." + col.Name}}
		}
		seen[col.Name] = true
	}
	return nil
}

// SchemaNotManagedError is returned when an object references a schema
// that is not in the caller-supplied managed set (spec.md §4.1).
type SchemaNotManagedError struct {
	Schema string
	Object ObjectID
}

func (e *SchemaNotManagedError) Error() string {
	return fmt.Sprintf("object %s references schema %q which is not managed", e.Object, e.Schema)
}

// ValidateManagedSchemas checks that every object in the Catalog lives in
// one of the managed schemas.
func (c *Catalog) ValidateManagedSchemas(managed []string) error {
	allowed := map[string]bool{}
	for _, s := range managed {
		allowed[s] = true
	}
	check := func(schema string, id ObjectID) error {
		if schema == "" {
			return nil
		}
		if !allowed[schema] {
			return &SchemaNotManagedError{Schema: schema, Object: id}
		}
		return nil
	}
	for _, t := range c.Tables {
		if err := check(t.Schema, ObjectID{Kind: KindTable, Schema: t.Schema, Name: t.Name}); err != nil {
			return err
		}
	}
	for _, v := range c.Views {
		if err := check(v.Schema, ObjectID{Kind: KindView, Schema: v.Schema, Name: v.Name}); err != nil {
			return err
		}
	}
	for _, e := range c.Enums {
		if err := check(e.Schema, ObjectID{Kind: KindEnum, Schema: e.Schema, Name: e.Name}); err != nil {
			return err
		}
	}
	for _, s := range c.Sequences {
		if err := check(s.Schema, ObjectID{Kind: KindSequence, Schema: s.Schema, Name: s.Name}); err != nil {
			return err
		}
	}
	for _, f := range c.Functions {
		if err := check(f.Schema, ObjectID{Kind: KindFunction, Schema: f.Schema, Name: f.Name}); err != nil {
			return err
		}
	}
	return nil
}

// ResolveForeignKeys marks every ForeignKey whose referenced table cannot
// be found within the Catalog as External, implementing invariant (3):
// "every ForeignKey.referencedTable either resolves to another Table in
// the same Catalog or is explicitly marked external".
func (c *Catalog) ResolveForeignKeys() {
	for ti := range c.Tables {
		for fi := range c.Tables[ti].ForeignKeys {
			fk := &c.Tables[ti].ForeignKeys[fi]
			name := qualifiedNameOf(fk.ReferencedSchema, fk.ReferencedTable)
			fk.External = c.TableByName(name) == nil
		}
	}
}
