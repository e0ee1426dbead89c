package catalog

// TableByName returns the table with the given qualified name, or nil.
// Grounded on schema/generator.go's findTableByName lookup idiom.
func (c *Catalog) TableByName(qualifiedName string) *Table {
	for i := range c.Tables {
		if c.Tables[i].QualifiedName() == qualifiedName {
			return &c.Tables[i]
		}
	}
	return nil
}

func (c *Catalog) ViewByName(qualifiedName string) *View {
	for i := range c.Views {
		if c.Views[i].QualifiedName() == qualifiedName {
			return &c.Views[i]
		}
	}
	return nil
}

func (c *Catalog) EnumByName(qualifiedName string) *EnumType {
	for i := range c.Enums {
		if qualifiedNameOf(c.Enums[i].Schema, c.Enums[i].Name) == qualifiedName {
			return &c.Enums[i]
		}
	}
	return nil
}

func (c *Catalog) SequenceByName(qualifiedName string) *Sequence {
	for i := range c.Sequences {
		if qualifiedNameOf(c.Sequences[i].Schema, c.Sequences[i].Name) == qualifiedName {
			return &c.Sequences[i]
		}
	}
	return nil
}

func (c *Catalog) FunctionByName(qualifiedName string, isProcedure bool) *Function {
	list := c.Functions
	if isProcedure {
		list = c.Procedures
	}
	for i := range list {
		if list[i].QualifiedName() == qualifiedName {
			return &list[i]
		}
	}
	return nil
}

func (c *Catalog) TriggerByName(tableName, triggerName string) *Trigger {
	for i := range c.Triggers {
		if c.Triggers[i].Table == tableName && c.Triggers[i].Name == triggerName {
			return &c.Triggers[i]
		}
	}
	return nil
}

func qualifiedNameOf(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

// ContainsString reports whether str is present in strs. Shared helper
// used across the differ and resolver, grounded on generator.go's
// containsString.
func ContainsString(strs []string, str string) bool {
	for _, s := range strs {
		if s == str {
			return true
		}
	}
	return false
}

// StringSliceEqual reports order-sensitive equality (spec.md §9: "column
// order is significant" for multi-column UNIQUE/index comparisons).
func StringSliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
