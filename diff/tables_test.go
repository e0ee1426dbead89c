package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitan/terra/catalog"
)

func strp(s string) *string { return &s }
func intp(i int) *int       { return &i }

// TestTypeOnlyChangeNeverTouchesDefault is spec.md §4.3's single
// most-tested invariant: a type change with an unchanged canonical
// default must emit only the type change, never a DROP/SET DEFAULT pair.
func TestTypeOnlyChangeNeverTouchesDefault(t *testing.T) {
	current := catalog.Table{
		Name: "widgets", Schema: "public",
		Columns: []catalog.Column{
			{Name: "price", Type: "integer", Default: strp("0")},
		},
	}
	desired := catalog.Table{
		Name: "widgets", Schema: "public",
		Columns: []catalog.Column{
			{Name: "price", Type: "bigint", Default: strp("0")},
		},
	}

	alt := diffTable(current, desired)
	require.Len(t, alt.AlterColTypes, 1)
	assert.Equal(t, "price", alt.AlterColTypes[0].Column)
	assert.Equal(t, "bigint", alt.AlterColTypes[0].NewType)
	assert.Empty(t, alt.SetDefault)
	assert.Empty(t, alt.DropDefault)
}

func TestDefaultOnlyChangeEmitsSetDefault(t *testing.T) {
	current := catalog.Table{
		Name: "widgets", Schema: "public",
		Columns: []catalog.Column{{Name: "price", Type: "integer", Default: strp("0")}},
	}
	desired := catalog.Table{
		Name: "widgets", Schema: "public",
		Columns: []catalog.Column{{Name: "price", Type: "integer", Default: strp("1")}},
	}

	alt := diffTable(current, desired)
	assert.Empty(t, alt.AlterColTypes)
	require.Len(t, alt.SetDefault, 1)
	assert.Equal(t, "1", alt.SetDefault[0].NewDefault)
}

func TestDefaultRemovedEmitsDropDefault(t *testing.T) {
	current := catalog.Table{
		Name: "widgets", Schema: "public",
		Columns: []catalog.Column{{Name: "price", Type: "integer", Default: strp("0")}},
	}
	desired := catalog.Table{
		Name: "widgets", Schema: "public",
		Columns: []catalog.Column{{Name: "price", Type: "integer"}},
	}

	alt := diffTable(current, desired)
	assert.Equal(t, []string{"price"}, alt.DropDefault)
	assert.Empty(t, alt.SetDefault)
}

func TestNoopTableProducesEmptyAlteration(t *testing.T) {
	table := catalog.Table{
		Name: "widgets", Schema: "public",
		Columns: []catalog.Column{{Name: "id", Type: "integer", Length: intp(4)}},
	}
	alt := diffTable(table, table)
	assert.True(t, alt.Empty())
}

func TestNamedConstraintRenameIsDropAndAdd(t *testing.T) {
	current := catalog.Table{
		Name: "widgets", Schema: "public",
		UniqueConstraints: []catalog.UniqueConstraint{{ConstraintName: "widgets_sku_key", Columns: []string{"sku"}}},
	}
	desired := catalog.Table{
		Name: "widgets", Schema: "public",
		UniqueConstraints: []catalog.UniqueConstraint{{ConstraintName: "widgets_sku_unique", Columns: []string{"sku"}}},
	}

	alt := diffTable(current, desired)
	require.Len(t, alt.DropUnique, 1)
	require.Len(t, alt.AddUnique, 1)
	assert.Equal(t, "widgets_sku_key", alt.DropUnique[0].ConstraintName)
	assert.Equal(t, "widgets_sku_unique", alt.AddUnique[0].ConstraintName)
}

func TestForeignKeyComparedByShapeNotJustColumns(t *testing.T) {
	current := catalog.Table{
		Name: "orders", Schema: "public",
		ForeignKeys: []catalog.ForeignKey{{
			ConstraintName: "orders_user_fk", Columns: []string{"user_id"},
			ReferencedTable: "users", ReferencedColumns: []string{"id"},
			OnDelete: catalog.ActionNoAction,
		}},
	}
	desired := catalog.Table{
		Name: "orders", Schema: "public",
		ForeignKeys: []catalog.ForeignKey{{
			ConstraintName: "orders_user_fk", Columns: []string{"user_id"},
			ReferencedTable: "users", ReferencedColumns: []string{"id"},
			OnDelete: catalog.ActionCascade,
		}},
	}

	alt := diffTable(current, desired)
	require.Len(t, alt.DropForeignKeys, 1)
	require.Len(t, alt.AddForeignKeys, 1)
	assert.Equal(t, catalog.ActionCascade, alt.AddForeignKeys[0].OnDelete)
}

func TestIndexColumnOrderMattersForEquality(t *testing.T) {
	current := catalog.Table{
		Name: "people", Schema: "public",
		Indexes: []catalog.Index{{
			Name: "people_name_idx",
			Columns: []catalog.IndexColumn{
				{Column: "last_name"}, {Column: "first_name"},
			},
		}},
	}
	desired := catalog.Table{
		Name: "people", Schema: "public",
		Indexes: []catalog.Index{{
			Name: "people_name_idx",
			Columns: []catalog.IndexColumn{
				{Column: "first_name"}, {Column: "last_name"},
			},
		}},
	}

	alt := diffTable(current, desired)
	require.Len(t, alt.DropIndexes, 1)
	require.Len(t, alt.AddIndexes, 1)
}

func TestNewTableEmitsCreateTableWithAllObjects(t *testing.T) {
	desired := []catalog.Table{
		{Name: "widgets", Schema: "public", Columns: []catalog.Column{{Name: "id", Type: "integer"}}},
	}
	edits, err := diffTables(desired, nil)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, KindCreateTable, edits[0].Kind)
	assert.Equal(t, "widgets", edits[0].Table.Name)
}

func TestRemovedTableEmitsDropTable(t *testing.T) {
	current := []catalog.Table{
		{Name: "widgets", Schema: "public"},
	}
	edits, err := diffTables(nil, current)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, KindDropTable, edits[0].Kind)
}

func TestDiffTableAlterationCarriesDesiredTable(t *testing.T) {
	current := catalog.Table{Name: "widgets", Schema: "public", Columns: []catalog.Column{{Name: "id", Type: "integer"}}}
	desired := catalog.Table{Name: "widgets", Schema: "public", Columns: []catalog.Column{{Name: "id", Type: "bigint"}}}

	alt := diffTable(current, desired)
	require.NotNil(t, alt.DesiredTable)
	assert.Equal(t, "bigint", alt.DesiredTable.Columns[0].Type)
}

func TestNewPolicyEmitsAddPolicy(t *testing.T) {
	current := catalog.Table{Name: "widgets", Schema: "public"}
	desired := catalog.Table{Name: "widgets", Schema: "public", Policies: []catalog.Policy{
		{Name: "owner_only", Permissive: true, Scope: "SELECT", Roles: []string{"app_user"}, Using: "owner_id = current_user_id()"},
	}}

	alt := diffTable(current, desired)
	require.Len(t, alt.AddPolicies, 1)
	assert.Empty(t, alt.DropPolicies)
	assert.Equal(t, "owner_only", alt.AddPolicies[0].Name)
}

func TestRemovedPolicyEmitsDropPolicy(t *testing.T) {
	current := catalog.Table{Name: "widgets", Schema: "public", Policies: []catalog.Policy{
		{Name: "owner_only", Permissive: true, Scope: "SELECT", Using: "owner_id = current_user_id()"},
	}}
	desired := catalog.Table{Name: "widgets", Schema: "public"}

	alt := diffTable(current, desired)
	require.Len(t, alt.DropPolicies, 1)
	assert.Empty(t, alt.AddPolicies)
	assert.Equal(t, "owner_only", alt.DropPolicies[0].Name)
}

func TestChangedPolicyEmitsDropAndAddPolicy(t *testing.T) {
	current := catalog.Table{Name: "widgets", Schema: "public", Policies: []catalog.Policy{
		{Name: "owner_only", Permissive: true, Scope: "SELECT", Using: "owner_id = current_user_id()"},
	}}
	desired := catalog.Table{Name: "widgets", Schema: "public", Policies: []catalog.Policy{
		{Name: "owner_only", Permissive: true, Scope: "ALL", Using: "owner_id = current_user_id()"},
	}}

	alt := diffTable(current, desired)
	require.Len(t, alt.DropPolicies, 1)
	require.Len(t, alt.AddPolicies, 1)
	assert.Equal(t, "SELECT", alt.DropPolicies[0].Scope)
	assert.Equal(t, "ALL", alt.AddPolicies[0].Scope)
}

func TestUnchangedPolicyEmitsNoEdits(t *testing.T) {
	pol := catalog.Policy{Name: "owner_only", Permissive: true, Scope: "SELECT", Roles: []string{"app_user"}, Using: "owner_id = current_user_id()"}
	current := catalog.Table{Name: "widgets", Schema: "public", Policies: []catalog.Policy{pol}}
	desired := catalog.Table{Name: "widgets", Schema: "public", Policies: []catalog.Policy{pol}}

	alt := diffTable(current, desired)
	assert.Empty(t, alt.AddPolicies)
	assert.Empty(t, alt.DropPolicies)
}
