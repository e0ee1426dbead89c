package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitan/terra/catalog"
)

func fkTable(name string, refs ...string) catalog.Table {
	t := catalog.Table{Name: name, Schema: "public"}
	for i, ref := range refs {
		t.ForeignKeys = append(t.ForeignKeys, catalog.ForeignKey{
			ConstraintName:    name + "_fk" + string(rune('a'+i)),
			Columns:           []string{ref + "_id"},
			ReferencedTable:   ref,
			ReferencedColumns: []string{"id"},
		})
	}
	return t
}

func TestResolveOrdersParentsBeforeChildren(t *testing.T) {
	tables := []catalog.Table{
		fkTable("orders", "users"),
		fkTable("users"),
		fkTable("order_items", "orders", "products"),
		fkTable("products"),
	}

	res, err := Resolve(tables)
	require.NoError(t, err)
	assert.Empty(t, res.Deferred)

	pos := map[string]int{}
	for i, n := range res.CreateOrder {
		pos[n] = i
	}
	assert.Less(t, pos["public.users"], pos["public.orders"])
	assert.Less(t, pos["public.orders"], pos["public.order_items"])
	assert.Less(t, pos["public.products"], pos["public.order_items"])
}

func TestResolveDropOrderIsReverseOfCreateOrder(t *testing.T) {
	tables := []catalog.Table{
		fkTable("orders", "users"),
		fkTable("users"),
	}
	res, err := Resolve(tables)
	require.NoError(t, err)
	require.Len(t, res.DropOrder, len(res.CreateOrder))
	for i, n := range res.CreateOrder {
		assert.Equal(t, n, res.DropOrder[len(res.DropOrder)-1-i])
	}
}

func TestResolveTieBreaksByNameAscending(t *testing.T) {
	tables := []catalog.Table{
		fkTable("zebra"),
		fkTable("apple"),
		fkTable("mango"),
	}
	res, err := Resolve(tables)
	require.NoError(t, err)
	assert.Equal(t, []string{"public.apple", "public.mango", "public.zebra"}, res.CreateOrder)
}

func TestResolveDefersCyclicForeignKeys(t *testing.T) {
	tables := []catalog.Table{
		fkTable("a", "b"),
		fkTable("b", "a"),
	}
	res, err := Resolve(tables)
	require.NoError(t, err)
	require.Len(t, res.Deferred, 2)
	assert.ElementsMatch(t, []string{"public.a", "public.b"}, res.CreateOrder)
	assert.Equal(t, "public.a", res.Deferred[0].Table)
	assert.Equal(t, "b", res.Deferred[0].ForeignKey.ReferencedTable)
}

func TestResolveSelfReferenceDoesNotDefer(t *testing.T) {
	self := fkTable("employees")
	self.ForeignKeys = append(self.ForeignKeys, catalog.ForeignKey{
		ConstraintName:    "employees_manager_fk",
		Columns:           []string{"manager_id"},
		ReferencedTable:   "employees",
		ReferencedColumns: []string{"id"},
	})
	res, err := Resolve([]catalog.Table{self})
	require.NoError(t, err)
	assert.Empty(t, res.Deferred)
	assert.Equal(t, []string{"public.employees"}, res.CreateOrder)
}

func TestResolveExternalForeignKeyIgnoredForOrdering(t *testing.T) {
	t1 := fkTable("logs")
	t1.ForeignKeys = append(t1.ForeignKeys, catalog.ForeignKey{
		ConstraintName:    "logs_missing_fk",
		Columns:           []string{"missing_id"},
		ReferencedTable:   "does_not_exist_here",
		ReferencedColumns: []string{"id"},
		External:          true,
	})
	res, err := Resolve([]catalog.Table{t1})
	require.NoError(t, err)
	assert.Empty(t, res.Deferred)
	assert.Equal(t, []string{"public.logs"}, res.CreateOrder)
}

func TestResolveThreeWayCycleDefersEveryCyclicEdge(t *testing.T) {
	tables := []catalog.Table{
		fkTable("a", "b"),
		fkTable("b", "c"),
		fkTable("c", "a"),
	}
	res, err := Resolve(tables)
	require.NoError(t, err)
	assert.Len(t, res.Deferred, 3)
	assert.Len(t, res.CreateOrder, 3)
}
