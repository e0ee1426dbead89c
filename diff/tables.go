package diff

import (
	"sort"

	"github.com/elitan/terra/catalog"
)

// diffTables implements spec.md §4.3's table/column/constraint/index
// rules. New tables -> CREATE TABLE with every inline constraint,
// foreign keys included (all FKs ride along on the Table value here;
// depgraph decides which ones are cyclic and plan.Build splits those into
// a deferred ADD CONSTRAINT). Removed tables -> DROP TABLE. Existing
// tables -> one TableAlteration batching every column/constraint/index
// sub-edit.
func diffTables(desired, current []catalog.Table) ([]Edit, error) {
	var edits []Edit
	curByName := map[string]catalog.Table{}
	for _, t := range current {
		curByName[t.QualifiedName()] = t
	}
	desByName := map[string]bool{}

	for _, t := range desired {
		qname := t.QualifiedName()
		desByName[qname] = true
		cur, ok := curByName[qname]
		if !ok {
			t := t
			edits = append(edits, Edit{
				Kind:   KindCreateTable,
				Object: catalog.ObjectID{Kind: catalog.KindTable, Schema: t.Schema, Name: t.Name},
				Table:  &t,
			})
			continue
		}
		alt := diffTable(cur, t)
		if !alt.Empty() {
			edits = append(edits, Edit{
				Kind:       KindAlterTable,
				Object:     catalog.ObjectID{Kind: catalog.KindTable, Schema: t.Schema, Name: t.Name},
				Alteration: alt,
			})
		}
	}
	for _, t := range current {
		if !desByName[t.QualifiedName()] {
			t := t
			edits = append(edits, Edit{
				Kind:   KindDropTable,
				Object: catalog.ObjectID{Kind: catalog.KindTable, Schema: t.Schema, Name: t.Name},
				Table:  &t,
			})
		}
	}
	return sortEdits(edits), nil
}

func diffTable(current, desired catalog.Table) *TableAlteration {
	desiredCopy := desired
	alt := &TableAlteration{Table: desired.QualifiedName(), DesiredTable: &desiredCopy}

	diffColumns(current, desired, alt)
	diffPrimaryKey(current.PrimaryKey, desired.PrimaryKey, alt)
	diffUniqueConstraints(current.UniqueConstraints, desired.UniqueConstraints, alt)
	diffCheckConstraints(current.CheckConstraints, desired.CheckConstraints, alt)
	diffForeignKeys(current.ForeignKeys, desired.ForeignKeys, alt)
	diffIndexes(current.Indexes, desired.Indexes, alt)
	diffPolicies(current.Policies, desired.Policies, alt)

	return alt
}

func diffColumns(current, desired catalog.Table, alt *TableAlteration) {
	curByName := map[string]catalog.Column{}
	for _, c := range current.Columns {
		curByName[c.Name] = c
	}
	desByName := map[string]bool{}

	for _, c := range desired.Columns {
		desByName[c.Name] = true
		cur, ok := curByName[c.Name]
		if !ok {
			alt.AddColumns = append(alt.AddColumns, c)
			continue
		}

		typeChanged := !columnTypeEqual(cur, c)
		defaultChanged := !stringPtrEqual(cur.Default, c.Default)

		// Critical invariant (spec.md §4.3): if only the type changed and
		// the canonical default is unchanged, emit ONLY the type change —
		// never a DROP/SET DEFAULT pair alongside it.
		if typeChanged {
			alt.AlterColTypes = append(alt.AlterColTypes, ColumnTypeChange{
				Column:     c.Name,
				NewType:    c.Type,
				NewLength:  c.Length,
				NewScale:   c.Scale,
				NewArray:   c.Array,
				SameFamily: sameTypeFamily(cur.Type, c.Type),
			})
		}
		if defaultChanged && !typeChanged {
			if c.Default == nil {
				alt.DropDefault = append(alt.DropDefault, c.Name)
			} else {
				alt.SetDefault = append(alt.SetDefault, ColumnDefaultChange{Column: c.Name, NewDefault: *c.Default})
			}
		}
		if cur.Nullable != c.Nullable {
			if c.Nullable {
				alt.DropNotNull = append(alt.DropNotNull, c.Name)
			} else {
				alt.SetNotNull = append(alt.SetNotNull, c.Name)
			}
		}
	}
	for _, c := range current.Columns {
		if !desByName[c.Name] {
			alt.DropColumns = append(alt.DropColumns, c.Name)
		}
	}

	sort.Slice(alt.AddColumns, func(i, j int) bool { return alt.AddColumns[i].Name < alt.AddColumns[j].Name })
	sort.Strings(alt.DropColumns)
	sort.Slice(alt.AlterColTypes, func(i, j int) bool { return alt.AlterColTypes[i].Column < alt.AlterColTypes[j].Column })
	sort.Strings(alt.SetNotNull)
	sort.Strings(alt.DropNotNull)
	sort.Slice(alt.SetDefault, func(i, j int) bool { return alt.SetDefault[i].Column < alt.SetDefault[j].Column })
	sort.Strings(alt.DropDefault)
}

func columnTypeEqual(a, b catalog.Column) bool {
	return a.Type == b.Type && intPtrEqual(a.Length, b.Length) && intPtrEqual(a.Scale, b.Scale) && a.Array == b.Array
}

// sameTypeFamily reports whether a type change can be rendered without an
// explicit USING cast (spec.md §4.3: "same-family casts without USING,
// cross-family forces explicit cast + warning"). Integer widenings and
// character-family changes are same-family; everything else is treated
// as cross-family to be conservative.
func sameTypeFamily(from, to string) bool {
	integerFamily := map[string]bool{"smallint": true, "integer": true, "bigint": true}
	charFamily := map[string]bool{"character varying": true, "character": true, "text": true}
	if integerFamily[from] && integerFamily[to] {
		return true
	}
	if charFamily[from] && charFamily[to] {
		return true
	}
	return from == to
}

func diffPrimaryKey(current, desired *catalog.PrimaryKey, alt *TableAlteration) {
	if current == nil && desired == nil {
		return
	}
	if current == nil {
		alt.AddPrimaryKey = desired
		return
	}
	if desired == nil {
		alt.DropPrimaryKey = current
		return
	}
	if current.ConstraintName != desired.ConstraintName || !catalog.StringSliceEqual(current.Columns, desired.Columns) {
		alt.DropPrimaryKey = current
		alt.AddPrimaryKey = desired
	}
}

func diffUniqueConstraints(current, desired []catalog.UniqueConstraint, alt *TableAlteration) {
	curByName := map[string]catalog.UniqueConstraint{}
	for _, u := range current {
		curByName[u.ConstraintName] = u
	}
	desByName := map[string]bool{}
	for _, u := range desired {
		desByName[u.ConstraintName] = true
		cur, ok := curByName[u.ConstraintName]
		if !ok {
			alt.AddUnique = append(alt.AddUnique, u)
			continue
		}
		if !catalog.StringSliceEqual(cur.Columns, u.Columns) {
			alt.DropUnique = append(alt.DropUnique, cur)
			alt.AddUnique = append(alt.AddUnique, u)
		}
	}
	for _, u := range current {
		if !desByName[u.ConstraintName] {
			alt.DropUnique = append(alt.DropUnique, u)
		}
	}
	sortByConstraintName(alt.AddUnique, func(i int) string { return alt.AddUnique[i].ConstraintName })
	sortByConstraintName(alt.DropUnique, func(i int) string { return alt.DropUnique[i].ConstraintName })
}

func diffCheckConstraints(current, desired []catalog.CheckConstraint, alt *TableAlteration) {
	curByName := map[string]catalog.CheckConstraint{}
	for _, c := range current {
		curByName[c.ConstraintName] = c
	}
	desByName := map[string]bool{}
	for _, c := range desired {
		desByName[c.ConstraintName] = true
		cur, ok := curByName[c.ConstraintName]
		if !ok {
			alt.AddCheck = append(alt.AddCheck, c)
			continue
		}
		if cur.Expression != c.Expression || cur.NoInherit != c.NoInherit {
			alt.DropCheck = append(alt.DropCheck, cur)
			alt.AddCheck = append(alt.AddCheck, c)
		}
	}
	for _, c := range current {
		if !desByName[c.ConstraintName] {
			alt.DropCheck = append(alt.DropCheck, c)
		}
	}
	sortByConstraintName(alt.AddCheck, func(i int) string { return alt.AddCheck[i].ConstraintName })
	sortByConstraintName(alt.DropCheck, func(i int) string { return alt.DropCheck[i].ConstraintName })
}

// diffForeignKeys compares by (child columns, referenced table, referenced
// columns, onDelete, onUpdate, deferrability) per spec.md §4.3; any
// mismatch is a DROP+ADD. Cyclic-FK deferral happens later, in depgraph.
func diffForeignKeys(current, desired []catalog.ForeignKey, alt *TableAlteration) {
	curByName := map[string]catalog.ForeignKey{}
	for _, f := range current {
		curByName[f.ConstraintName] = f
	}
	desByName := map[string]bool{}
	for _, f := range desired {
		desByName[f.ConstraintName] = true
		cur, ok := curByName[f.ConstraintName]
		if !ok {
			alt.AddForeignKeys = append(alt.AddForeignKeys, f)
			continue
		}
		if !foreignKeyEqual(cur, f) {
			alt.DropForeignKeys = append(alt.DropForeignKeys, cur)
			alt.AddForeignKeys = append(alt.AddForeignKeys, f)
		}
	}
	for _, f := range current {
		if !desByName[f.ConstraintName] {
			alt.DropForeignKeys = append(alt.DropForeignKeys, f)
		}
	}
	sortByConstraintName(alt.AddForeignKeys, func(i int) string { return alt.AddForeignKeys[i].ConstraintName })
	sortByConstraintName(alt.DropForeignKeys, func(i int) string { return alt.DropForeignKeys[i].ConstraintName })
}

func foreignKeyEqual(a, b catalog.ForeignKey) bool {
	return catalog.StringSliceEqual(a.Columns, b.Columns) &&
		a.ReferencedSchema == b.ReferencedSchema &&
		a.ReferencedTable == b.ReferencedTable &&
		catalog.StringSliceEqual(a.ReferencedColumns, b.ReferencedColumns) &&
		a.OnDelete == b.OnDelete &&
		a.OnUpdate == b.OnUpdate &&
		a.Deferrable == b.Deferrable &&
		a.InitiallyDeferred == b.InitiallyDeferred
}

// diffIndexes compares by (columns-or-expressions in order with
// directions/opclasses, unique flag, method, WHERE predicate, storage
// params) per spec.md §4.3; any mismatch is DROP+CREATE.
func diffIndexes(current, desired []catalog.Index, alt *TableAlteration) {
	curByName := map[string]catalog.Index{}
	for _, ix := range current {
		curByName[ix.Name] = ix
	}
	desByName := map[string]bool{}
	for _, ix := range desired {
		desByName[ix.Name] = true
		cur, ok := curByName[ix.Name]
		if !ok {
			alt.AddIndexes = append(alt.AddIndexes, ix)
			continue
		}
		if !indexEqual(cur, ix) {
			alt.DropIndexes = append(alt.DropIndexes, cur)
			alt.AddIndexes = append(alt.AddIndexes, ix)
		}
	}
	for _, ix := range current {
		if !desByName[ix.Name] {
			alt.DropIndexes = append(alt.DropIndexes, ix)
		}
	}
	sort.Slice(alt.AddIndexes, func(i, j int) bool { return alt.AddIndexes[i].Name < alt.AddIndexes[j].Name })
	sort.Slice(alt.DropIndexes, func(i, j int) bool { return alt.DropIndexes[i].Name < alt.DropIndexes[j].Name })
}

func indexEqual(a, b catalog.Index) bool {
	if a.Unique != b.Unique || a.Primary != b.Primary || a.Method != b.Method || a.Where != b.Where {
		return false
	}
	if len(a.Columns) != len(b.Columns) {
		return false
	}
	for i := range a.Columns {
		ac, bc := a.Columns[i], b.Columns[i]
		if ac.Column != bc.Column || ac.Expression != bc.Expression || ac.Direction != bc.Direction || ac.OpClass != bc.OpClass {
			return false
		}
	}
	if len(a.Storage) != len(b.Storage) {
		return false
	}
	for k, v := range a.Storage {
		if b.Storage[k] != v {
			return false
		}
	}
	return true
}

// diffPolicies compares row-level-security policies by (permissive, scope,
// roles, using, withCheck), in the same spirit as diffTriggers: any
// mismatch is a DROP+CREATE rather than an attempt to ALTER POLICY in
// place.
func diffPolicies(current, desired []catalog.Policy, alt *TableAlteration) {
	curByName := map[string]catalog.Policy{}
	for _, p := range current {
		curByName[p.Name] = p
	}
	desByName := map[string]bool{}
	for _, p := range desired {
		desByName[p.Name] = true
		cur, ok := curByName[p.Name]
		if !ok {
			alt.AddPolicies = append(alt.AddPolicies, p)
			continue
		}
		if !policyEqual(cur, p) {
			alt.DropPolicies = append(alt.DropPolicies, cur)
			alt.AddPolicies = append(alt.AddPolicies, p)
		}
	}
	for _, p := range current {
		if !desByName[p.Name] {
			alt.DropPolicies = append(alt.DropPolicies, p)
		}
	}
	sortByConstraintName(alt.AddPolicies, func(i int) string { return alt.AddPolicies[i].Name })
	sortByConstraintName(alt.DropPolicies, func(i int) string { return alt.DropPolicies[i].Name })
}

func policyEqual(a, b catalog.Policy) bool {
	return a.Permissive == b.Permissive &&
		a.Scope == b.Scope &&
		catalog.StringSliceEqual(a.Roles, b.Roles) &&
		a.Using == b.Using &&
		a.WithCheck == b.WithCheck
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sortByConstraintName[T any](s []T, key func(i int) string) {
	sort.Slice(s, func(i, j int) bool { return key(i) < key(j) })
}
