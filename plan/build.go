package plan

import (
	"sort"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/depgraph"
	"github.com/elitan/terra/diff"
	"github.com/elitan/terra/provider"
)

// Build implements spec.md §5's total statement ordering: schemas ->
// extensions -> enum creates -> sequences -> tables (topological order) ->
// deferred FK adds -> enum removals (safe-to-drop only) -> functions ->
// procedures -> views -> triggers -> comments -> extension drops, all in
// one transaction; then concurrent edits in emission order. Ties within a
// kind are broken by canonical name ascending, already guaranteed by
// diff.Diff's own sortEdits.
func Build(desired, current *catalog.Catalog, prov provider.Provider) (*MigrationPlan, error) {
	edits, err := diff.Diff(desired, current)
	if err != nil {
		return nil, err
	}

	resolution, err := depgraph.Resolve(desired.Tables)
	if err != nil {
		return nil, err
	}
	// Tables being dropped entirely (present in current, absent from
	// desired) never appear in resolution's desired-only graph, so their
	// drop order is resolved separately over current.Tables, which is the
	// only catalog that actually contains them.
	dropResolution, err := depgraph.Resolve(current.Tables)
	if err != nil {
		return nil, err
	}

	byKind := map[diff.Kind][]diff.Edit{}
	for _, e := range edits {
		byKind[e.Kind] = append(byKind[e.Kind], e)
	}

	mp := &MigrationPlan{}
	render := renderer(prov, mp)

	phases := [][]diff.Edit{
		byKind[diff.KindCreateSchema],
		byKind[diff.KindDropSchema],
		byKind[diff.KindCreateExtension],
		byKind[diff.KindCreateEnum],
		byKind[diff.KindAddEnumValue],
		byKind[diff.KindCreateSequence],
		byKind[diff.KindAlterSequence],
		byKind[diff.KindDropSequence],
	}
	for _, group := range phases {
		for _, e := range group {
			if err := render(e); err != nil {
				return nil, err
			}
		}
	}

	if err := renderTablePhase(byKind, resolution, dropResolution, render); err != nil {
		return nil, err
	}

	// Enum removals are only ever emitted by diffEnums once no column
	// still references the type, so every edit here is already safe.
	for _, e := range byKind[diff.KindDropEnum] {
		if err := render(e); err != nil {
			return nil, err
		}
	}

	for _, procedures := range []bool{false, true} {
		for _, e := range filterFunctionEdits(byKind[diff.KindCreateFunction], procedures) {
			if err := render(e); err != nil {
				return nil, err
			}
		}
		for _, e := range filterFunctionEdits(byKind[diff.KindReplaceFunction], procedures) {
			if err := render(e); err != nil {
				return nil, err
			}
		}
		for _, e := range filterFunctionEdits(byKind[diff.KindDropFunction], procedures) {
			if err := render(e); err != nil {
				return nil, err
			}
		}
	}

	viewPhases := [][]diff.Edit{
		byKind[diff.KindDropView],
		byKind[diff.KindCreateView],
		byKind[diff.KindReplaceView],
		byKind[diff.KindDropTrigger],
		byKind[diff.KindCreateTrigger],
		byKind[diff.KindSetComment],
		byKind[diff.KindDropExtension],
	}
	for _, group := range viewPhases {
		for _, e := range group {
			if err := render(e); err != nil {
				return nil, err
			}
		}
	}

	return mp, nil
}

func renderer(prov provider.Provider, mp *MigrationPlan) func(diff.Edit) error {
	return func(e diff.Edit) error {
		stmts, err := prov.RenderEdit(e)
		if err != nil {
			return err
		}
		for _, s := range stmts {
			switch s.Bucket {
			case diff.BucketDeferred:
				mp.Deferred = append(mp.Deferred, s.SQL)
			case diff.BucketConcurrent:
				mp.Concurrent = append(mp.Concurrent, s.SQL)
			default:
				mp.Transactional = append(mp.Transactional, s.SQL)
			}
		}
		if e.Warning != "" {
			mp.Warnings = append(mp.Warnings, e.Warning)
		}
		return nil
	}
}

func filterFunctionEdits(edits []diff.Edit, procedures bool) []diff.Edit {
	var out []diff.Edit
	for _, e := range edits {
		if e.Function != nil && e.Function.IsProcedure == procedures {
			out = append(out, e)
		}
	}
	return out
}

// renderTablePhase orders table-level edits by the Resolver's
// topological sort: drops in reverse-dependency order, then alterations,
// then creates in dependency order with any cyclic foreign keys stripped
// out to the deferred bucket (spec.md §4.4).
func renderTablePhase(byKind map[diff.Kind][]diff.Edit, resolution, dropResolution *depgraph.Resolution, render func(diff.Edit) error) error {
	deferredByTable := map[string][]catalog.ForeignKey{}
	for _, d := range resolution.Deferred {
		deferredByTable[d.Table] = append(deferredByTable[d.Table], d.ForeignKey)
	}

	dropsByName := map[string]diff.Edit{}
	for _, e := range byKind[diff.KindDropTable] {
		dropsByName[e.Table.QualifiedName()] = e
	}
	for _, name := range dropResolution.DropOrder {
		if e, ok := dropsByName[name]; ok {
			if err := render(e); err != nil {
				return err
			}
		}
	}

	alters := append([]diff.Edit{}, byKind[diff.KindAlterTable]...)
	sort.Slice(alters, func(i, j int) bool { return alters[i].Alteration.Table < alters[j].Alteration.Table })
	for _, e := range alters {
		if deferred := deferredByTable[e.Alteration.Table]; len(deferred) > 0 {
			e.Alteration.AddForeignKeys = withoutForeignKeys(e.Alteration.AddForeignKeys, deferred)
		}
		if err := render(e); err != nil {
			return err
		}
	}

	creates := map[string]diff.Edit{}
	for _, e := range byKind[diff.KindCreateTable] {
		creates[e.Table.QualifiedName()] = e
	}
	for _, name := range resolution.CreateOrder {
		e, ok := creates[name]
		if !ok {
			continue
		}
		if deferred := deferredByTable[name]; len(deferred) > 0 {
			t := *e.Table
			t.ForeignKeys = withoutForeignKeys(t.ForeignKeys, deferred)
			e.Table = &t
		}
		if err := render(e); err != nil {
			return err
		}
	}

	for _, d := range resolution.Deferred {
		e := diff.Edit{
			Kind:       diff.KindAddForeignKey,
			Object:     catalog.ObjectID{Kind: catalog.KindForeign, Name: d.Table + "." + d.ForeignKey.ConstraintName},
			Bucket:     diff.BucketDeferred,
			ForeignKey: &diff.ForeignKeyEdit{Table: d.Table, ForeignKey: d.ForeignKey},
		}
		if err := render(e); err != nil {
			return err
		}
	}
	return nil
}

func withoutForeignKeys(all []catalog.ForeignKey, remove []catalog.ForeignKey) []catalog.ForeignKey {
	if len(remove) == 0 {
		return all
	}
	removeNames := map[string]bool{}
	for _, fk := range remove {
		removeNames[fk.ConstraintName] = true
	}
	out := make([]catalog.ForeignKey, 0, len(all))
	for _, fk := range all {
		if !removeNames[fk.ConstraintName] {
			out = append(out, fk)
		}
	}
	return out
}
