package diff

import (
	"sort"

	"github.com/elitan/terra/catalog"
)

// diffEnums implements spec.md §4.3's enum rules: exact match -> no edit;
// strict ordered append-only extension -> one ADD VALUE edit per
// appended value (concurrent bucket, PostgreSQL ADD VALUE cannot run in a
// transaction); any other divergence -> UnsafeChangeError. Enum removal
// is deferred until no table column still references the type.
func diffEnums(desired, current []catalog.EnumType, desiredTables []catalog.Table) ([]Edit, error) {
	var edits []Edit
	curByName := map[string]catalog.EnumType{}
	for _, e := range current {
		curByName[qualifiedNameOf(e.Schema, e.Name)] = e
	}
	desByName := map[string]bool{}

	for _, e := range desired {
		qname := qualifiedNameOf(e.Schema, e.Name)
		desByName[qname] = true
		cur, ok := curByName[qname]
		if !ok {
			e := e
			edits = append(edits, Edit{
				Kind:   KindCreateEnum,
				Object: catalog.ObjectID{Kind: catalog.KindEnum, Schema: e.Schema, Name: e.Name},
				Enum:   &e,
			})
			continue
		}
		switch classifyEnumChange(cur.Values, e.Values) {
		case enumUnchanged:
			// no edit
		case enumAppended:
			for _, v := range e.Values[len(cur.Values):] {
				e := e
				edits = append(edits, Edit{
					Kind:      KindAddEnumValue,
					Object:    catalog.ObjectID{Kind: catalog.KindEnum, Schema: e.Schema, Name: e.Name},
					Enum:      &e,
					EnumValue: v,
					Bucket:    BucketConcurrent,
				})
			}
		case enumUnsafe:
			return nil, errUnsafeEnumChange(qname, "values removed, reordered, or renamed", e.Values)
		}
	}

	for _, e := range current {
		qname := qualifiedNameOf(e.Schema, e.Name)
		if desByName[qname] {
			continue
		}
		if enumStillReferenced(qname, desiredTables) {
			continue
		}
		e := e
		edits = append(edits, Edit{
			Kind:   KindDropEnum,
			Object: catalog.ObjectID{Kind: catalog.KindEnum, Schema: e.Schema, Name: e.Name},
			Enum:   &e,
		})
	}
	return sortEdits(edits), nil
}

type enumChangeClass int

const (
	enumUnchanged enumChangeClass = iota
	enumAppended
	enumUnsafe
)

func classifyEnumChange(current, desired []string) enumChangeClass {
	if len(desired) < len(current) {
		return enumUnsafe
	}
	for i, v := range current {
		if desired[i] != v {
			return enumUnsafe
		}
	}
	if len(desired) == len(current) {
		return enumUnchanged
	}
	return enumAppended
}

func enumStillReferenced(qname string, tables []catalog.Table) bool {
	for _, t := range tables {
		for _, c := range t.Columns {
			if c.Type == qname {
				return true
			}
		}
	}
	return false
}

func diffSequences(desired, current []catalog.Sequence) []Edit {
	var edits []Edit
	curByName := map[string]catalog.Sequence{}
	for _, s := range current {
		curByName[qualifiedNameOf(s.Schema, s.Name)] = s
	}
	desByName := map[string]bool{}

	for _, s := range desired {
		qname := qualifiedNameOf(s.Schema, s.Name)
		desByName[qname] = true
		cur, ok := curByName[qname]
		if !ok {
			s := s
			edits = append(edits, Edit{
				Kind:     KindCreateSequence,
				Object:   catalog.ObjectID{Kind: catalog.KindSequence, Schema: s.Schema, Name: s.Name},
				Sequence: &s,
			})
			continue
		}
		if !sequenceEqual(cur, s) {
			s := s
			edits = append(edits, Edit{
				Kind:     KindAlterSequence,
				Object:   catalog.ObjectID{Kind: catalog.KindSequence, Schema: s.Schema, Name: s.Name},
				Sequence: &s,
			})
		}
	}
	for _, s := range current {
		qname := qualifiedNameOf(s.Schema, s.Name)
		if !desByName[qname] {
			s := s
			edits = append(edits, Edit{
				Kind:     KindDropSequence,
				Object:   catalog.ObjectID{Kind: catalog.KindSequence, Schema: s.Schema, Name: s.Name},
				Sequence: &s,
			})
		}
	}
	return sortEdits(edits)
}

func sequenceEqual(a, b catalog.Sequence) bool {
	return a.Type == b.Type &&
		int64Eq(a.StartValue, b.StartValue) &&
		int64Eq(a.MinValue, b.MinValue) &&
		int64Eq(a.MaxValue, b.MaxValue) &&
		int64Eq(a.IncrementBy, b.IncrementBy) &&
		int64Eq(a.Cache, b.Cache) &&
		a.Cycle == b.Cycle &&
		a.OwnedBy == b.OwnedBy
}

func int64Eq(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// diffViews implements spec.md §4.3: non-materialized differing views use
// CREATE OR REPLACE when signatures permit (this system always uses
// REPLACE for ordinary views, since a column-list/type change that would
// break REPLACE is caught by the provider at apply time); materialized
// views always DROP + CREATE when their definition changes.
func diffViews(desired, current []catalog.View) []Edit {
	var edits []Edit
	curByName := map[string]catalog.View{}
	for _, v := range current {
		curByName[qualifiedNameOf(v.Schema, v.Name)] = v
	}
	desByName := map[string]bool{}

	for _, v := range desired {
		qname := qualifiedNameOf(v.Schema, v.Name)
		desByName[qname] = true
		cur, ok := curByName[qname]
		if !ok {
			v := v
			edits = append(edits, Edit{
				Kind:   KindCreateView,
				Object: catalog.ObjectID{Kind: catalog.KindView, Schema: v.Schema, Name: v.Name},
				View:   &v,
			})
			continue
		}
		if viewEqual(cur, v) {
			continue
		}
		v := v
		if v.Materialized {
			edits = append(edits,
				Edit{Kind: KindDropView, Object: catalog.ObjectID{Kind: catalog.KindView, Schema: v.Schema, Name: v.Name}, View: &cur},
				Edit{Kind: KindCreateView, Object: catalog.ObjectID{Kind: catalog.KindView, Schema: v.Schema, Name: v.Name}, View: &v},
			)
		} else {
			edits = append(edits, Edit{
				Kind:   KindReplaceView,
				Object: catalog.ObjectID{Kind: catalog.KindView, Schema: v.Schema, Name: v.Name},
				View:   &v,
			})
		}
	}
	for _, v := range current {
		qname := qualifiedNameOf(v.Schema, v.Name)
		if !desByName[qname] {
			v := v
			edits = append(edits, Edit{
				Kind:   KindDropView,
				Object: catalog.ObjectID{Kind: catalog.KindView, Schema: v.Schema, Name: v.Name},
				View:   &v,
			})
		}
	}
	return sortEdits(edits)
}

func viewEqual(a, b catalog.View) bool {
	return a.Materialized == b.Materialized &&
		a.Definition == b.Definition &&
		a.CheckOption == b.CheckOption &&
		a.SecurityBarrier == b.SecurityBarrier
}

// diffFunctions is shared by Functions and Procedures (spec.md §4.3:
// "Mismatch ⇒ CREATE OR REPLACE").
func diffFunctions(desired, current []catalog.Function) []Edit {
	var edits []Edit
	curByName := map[string]catalog.Function{}
	for _, f := range current {
		curByName[qualifiedNameOf(f.Schema, f.Name)] = f
	}
	desByName := map[string]bool{}

	for _, f := range desired {
		qname := qualifiedNameOf(f.Schema, f.Name)
		desByName[qname] = true
		kind := catalog.KindFunction
		if f.IsProcedure {
			kind = catalog.KindProcedure
		}
		cur, ok := curByName[qname]
		if !ok {
			f := f
			edits = append(edits, Edit{
				Kind:     KindCreateFunction,
				Object:   catalog.ObjectID{Kind: kind, Schema: f.Schema, Name: f.Name},
				Function: &f,
			})
			continue
		}
		if !functionEqual(cur, f) {
			f := f
			edits = append(edits, Edit{
				Kind:     KindReplaceFunction,
				Object:   catalog.ObjectID{Kind: kind, Schema: f.Schema, Name: f.Name},
				Function: &f,
			})
		}
	}
	for _, f := range current {
		qname := qualifiedNameOf(f.Schema, f.Name)
		if !desByName[qname] {
			kind := catalog.KindFunction
			if f.IsProcedure {
				kind = catalog.KindProcedure
			}
			f := f
			edits = append(edits, Edit{
				Kind:     KindDropFunction,
				Object:   catalog.ObjectID{Kind: kind, Schema: f.Schema, Name: f.Name},
				Function: &f,
			})
		}
	}
	return sortEdits(edits)
}

func functionEqual(a, b catalog.Function) bool {
	if len(a.Parameters) != len(b.Parameters) {
		return false
	}
	for i := range a.Parameters {
		if a.Parameters[i] != b.Parameters[i] {
			return false
		}
	}
	return a.ReturnType == b.ReturnType && a.Language == b.Language && a.Body == b.Body &&
		a.Volatility == b.Volatility && a.Strict == b.Strict
}

// diffTriggers implements spec.md §4.3: "Mismatch ⇒ DROP + CREATE."
func diffTriggers(desired, current []catalog.Trigger) []Edit {
	var edits []Edit
	key := func(t catalog.Trigger) string {
		return qualifiedNameOf(t.TableSchema, t.Table) + "." + t.Name
	}
	curByName := map[string]catalog.Trigger{}
	for _, t := range current {
		curByName[key(t)] = t
	}
	desByName := map[string]bool{}

	for _, t := range desired {
		k := key(t)
		desByName[k] = true
		id := catalog.ObjectID{Kind: catalog.KindTrigger, Schema: t.TableSchema, Name: t.Table + "." + t.Name}
		cur, ok := curByName[k]
		if !ok {
			t := t
			edits = append(edits, Edit{Kind: KindCreateTrigger, Object: id, Trigger: &t})
			continue
		}
		if !triggerEqual(cur, t) {
			t := t
			edits = append(edits,
				Edit{Kind: KindDropTrigger, Object: id, Trigger: &cur},
				Edit{Kind: KindCreateTrigger, Object: id, Trigger: &t},
			)
		}
	}
	for _, t := range current {
		k := key(t)
		if !desByName[k] {
			t := t
			id := catalog.ObjectID{Kind: catalog.KindTrigger, Schema: t.TableSchema, Name: t.Table + "." + t.Name}
			edits = append(edits, Edit{Kind: KindDropTrigger, Object: id, Trigger: &t})
		}
	}
	return sortEdits(edits)
}

func triggerEqual(a, b catalog.Trigger) bool {
	if a.Timing != b.Timing || a.Level != b.Level || a.When != b.When || a.Function != b.Function {
		return false
	}
	if !stringSliceEqualUnordered(a.Events, b.Events) {
		return false
	}
	if len(a.Arguments) != len(b.Arguments) {
		return false
	}
	for i := range a.Arguments {
		if a.Arguments[i] != b.Arguments[i] {
			return false
		}
	}
	return catalog.StringSliceEqual(a.UpdateColumns, b.UpdateColumns)
}

func stringSliceEqualUnordered(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := append([]string{}, a...), append([]string{}, b...)
	sort.Strings(as)
	sort.Strings(bs)
	for i := range as {
		if as[i] != bs[i] {
			return false
		}
	}
	return true
}

// diffComments implements spec.md §4.3: "any difference ⇒ one COMMENT ON
// edit. Comment-only changes MUST NOT trigger any ALTER TABLE."
func diffComments(desired, current []catalog.Comment) []Edit {
	var edits []Edit
	curByID := map[catalog.ObjectID]string{}
	for _, c := range current {
		curByID[c.Object] = c.Text
	}
	desByID := map[catalog.ObjectID]bool{}

	for _, c := range desired {
		desByID[c.Object] = true
		if curByID[c.Object] == c.Text {
			continue
		}
		c := c
		edits = append(edits, Edit{Kind: KindSetComment, Object: c.Object, Comment: &c})
	}
	for _, c := range current {
		if !desByID[c.Object] {
			cleared := catalog.Comment{Object: c.Object, Text: ""}
			edits = append(edits, Edit{Kind: KindSetComment, Object: c.Object, Comment: &cleared})
		}
	}
	return sortEdits(edits)
}
