package diff

import (
	"sort"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/dbcore"
)

// Diff computes every Edit needed to reconcile current into desired
// (spec.md §4.3). The result is unordered across object kinds; package
// plan sequences it into a MigrationPlan, using package depgraph for the
// table order.
func Diff(desired, current *catalog.Catalog) ([]Edit, error) {
	var edits []Edit

	edits = append(edits, diffSchemas(desired.Schemas, current.Schemas)...)
	edits = append(edits, diffExtensions(desired.Extensions, current.Extensions)...)

	enumEdits, err := diffEnums(desired.Enums, current.Enums, desired.Tables)
	if err != nil {
		return nil, err
	}
	edits = append(edits, enumEdits...)

	edits = append(edits, diffSequences(desired.Sequences, current.Sequences)...)

	tableEdits, err := diffTables(desired.Tables, current.Tables)
	if err != nil {
		return nil, err
	}
	edits = append(edits, tableEdits...)

	edits = append(edits, diffViews(desired.Views, current.Views)...)
	edits = append(edits, diffFunctions(desired.Functions, current.Functions)...)
	edits = append(edits, diffFunctions(desired.Procedures, current.Procedures)...)
	edits = append(edits, diffTriggers(desired.Triggers, current.Triggers)...)
	edits = append(edits, diffComments(desired.Comments, current.Comments)...)

	return edits, nil
}

func diffSchemas(desired, current []catalog.Schema) []Edit {
	var edits []Edit
	curByName := map[string]bool{}
	for _, s := range current {
		curByName[s.Name] = true
	}
	desByName := map[string]bool{}
	for _, s := range desired {
		desByName[s.Name] = true
		if !curByName[s.Name] {
			s := s
			edits = append(edits, Edit{
				Kind:   KindCreateSchema,
				Object: catalog.ObjectID{Kind: catalog.KindSchema, Name: s.Name},
				Schema: &s,
			})
		}
	}
	for _, s := range current {
		if !desByName[s.Name] {
			s := s
			edits = append(edits, Edit{
				Kind:   KindDropSchema,
				Object: catalog.ObjectID{Kind: catalog.KindSchema, Name: s.Name},
				Schema: &s,
			})
		}
	}
	return sortEdits(edits)
}

func diffExtensions(desired, current []catalog.Extension) []Edit {
	var edits []Edit
	curByName := map[string]catalog.Extension{}
	for _, e := range current {
		curByName[e.Name] = e
	}
	desByName := map[string]bool{}
	for _, e := range desired {
		desByName[e.Name] = true
		if _, ok := curByName[e.Name]; !ok {
			e := e
			edits = append(edits, Edit{
				Kind:      KindCreateExtension,
				Object:    catalog.ObjectID{Kind: catalog.KindExtension, Name: e.Name},
				Extension: &e,
			})
		}
	}
	for _, e := range current {
		if !desByName[e.Name] {
			e := e
			edits = append(edits, Edit{
				Kind:      KindDropExtension,
				Object:    catalog.ObjectID{Kind: catalog.KindExtension, Name: e.Name},
				Extension: &e,
				Warning:   "dropping extension " + e.Name + " with CASCADE; any dependent objects not managed by this tool will also be dropped",
			})
		}
	}
	return sortEdits(edits)
}

func qualifiedNameOf(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}

// sortEdits imposes a deterministic order by Object (schema, then name)
// so Diff's output is reproducible (spec.md §4.3 "Deterministic"). The
// sort is stable: edits for the same object keep their emission order, so
// a DROP stays ahead of its matching CREATE and appended enum values stay
// in declared order. Final cross-kind scheduling is done by plan.Build.
func sortEdits(edits []Edit) []Edit {
	sort.SliceStable(edits, func(i, j int) bool {
		oi, oj := edits[i].Object, edits[j].Object
		if oi.Schema != oj.Schema {
			return oi.Schema < oj.Schema
		}
		return oi.Name < oj.Name
	})
	return edits
}

// errUnsafeEnumChange wraps dbcore.UnsafeChangeError so callers can use
// errors.As against the package-neutral type.
func errUnsafeEnumChange(name, reason string, values []string) error {
	return &dbcore.UnsafeChangeError{ObjectName: name, Reason: reason, Values: values}
}
