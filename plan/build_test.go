package plan

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/diff"
	"github.com/elitan/terra/provider"
)

// fakeProvider renders each Edit to a single statement naming its Kind and
// qualified object, enough to assert ordering without a real dialect.
type fakeProvider struct{}

func (fakeProvider) Dialect() string { return "fake" }
func (fakeProvider) Introspect(ctx context.Context) (*catalog.Catalog, error) {
	return catalog.NewCatalog(), nil
}
func (fakeProvider) SupportsFeature(provider.Feature) bool { return true }
func (fakeProvider) Conn() *sql.DB                         { return nil }
func (fakeProvider) AcquireLock(context.Context, string, time.Duration) (func(context.Context) error, error) {
	return func(context.Context) error { return nil }, nil
}
func (fakeProvider) Close() error { return nil }

func (fakeProvider) RenderEdit(e diff.Edit) ([]provider.Statement, error) {
	switch e.Kind {
	case diff.KindCreateTable:
		return []provider.Statement{{SQL: fmt.Sprintf("CREATE %s", e.Table.QualifiedName())}}, nil
	case diff.KindDropTable:
		return []provider.Statement{{SQL: fmt.Sprintf("DROP %s", e.Table.QualifiedName())}}, nil
	case diff.KindAlterTable:
		return []provider.Statement{{SQL: fmt.Sprintf("ALTER %s", e.Alteration.Table)}}, nil
	case diff.KindAddForeignKey:
		bucket := e.Bucket
		return []provider.Statement{{SQL: fmt.Sprintf("ADDFK %s.%s", e.ForeignKey.Table, e.ForeignKey.ForeignKey.ConstraintName), Bucket: bucket}}, nil
	case diff.KindCreateEnum:
		return []provider.Statement{{SQL: fmt.Sprintf("CREATEENUM %s", e.Enum.Name)}}, nil
	case diff.KindAddEnumValue:
		return []provider.Statement{{SQL: fmt.Sprintf("ADDENUMVALUE %s", e.EnumValue), Bucket: diff.BucketConcurrent}}, nil
	default:
		return []provider.Statement{{SQL: string(e.Kind)}}, nil
	}
}

func table(name string, refs ...string) catalog.Table {
	t := catalog.Table{Name: name, Schema: "public", Columns: []catalog.Column{{Name: "id", Type: "integer"}}}
	for i, ref := range refs {
		t.ForeignKeys = append(t.ForeignKeys, catalog.ForeignKey{
			ConstraintName:  fmt.Sprintf("%s_fk%d", name, i),
			Columns:         []string{ref + "_id"},
			ReferencedTable: ref,
		})
	}
	return t
}

func TestBuildOrdersTableCreatesByDependency(t *testing.T) {
	desired := &catalog.Catalog{Tables: []catalog.Table{
		table("orders", "users"),
		table("users"),
	}}
	current := catalog.NewCatalog()

	mp, err := Build(desired, current, fakeProvider{})
	require.NoError(t, err)

	usersIdx := indexOf(mp.Transactional, "CREATE public.users")
	ordersIdx := indexOf(mp.Transactional, "CREATE public.orders")
	require.GreaterOrEqual(t, usersIdx, 0)
	require.GreaterOrEqual(t, ordersIdx, 0)
	assert.Less(t, usersIdx, ordersIdx)
}

func TestBuildDropsTablesBeforeCreatingNewOnes(t *testing.T) {
	desired := &catalog.Catalog{Tables: []catalog.Table{table("widgets")}}
	current := &catalog.Catalog{Tables: []catalog.Table{table("legacy")}}

	mp, err := Build(desired, current, fakeProvider{})
	require.NoError(t, err)

	dropIdx := indexOf(mp.Transactional, "DROP public.legacy")
	createIdx := indexOf(mp.Transactional, "CREATE public.widgets")
	require.GreaterOrEqual(t, dropIdx, 0)
	require.GreaterOrEqual(t, createIdx, 0)
	assert.Less(t, dropIdx, createIdx)
}

func TestBuildRoutesCyclicForeignKeysToDeferredBucket(t *testing.T) {
	desired := &catalog.Catalog{Tables: []catalog.Table{
		table("a", "b"),
		table("b", "a"),
	}}
	mp, err := Build(desired, catalog.NewCatalog(), fakeProvider{})
	require.NoError(t, err)
	require.Len(t, mp.Deferred, 2)
	assert.Contains(t, mp.Deferred[0], "ADDFK")
}

func TestBuildRoutesEnumValueAdditionsToConcurrentBucket(t *testing.T) {
	desired := &catalog.Catalog{Enums: []catalog.EnumType{{Name: "mood", Schema: "public", Values: []string{"sad", "ok", "happy"}}}}
	current := &catalog.Catalog{Enums: []catalog.EnumType{{Name: "mood", Schema: "public", Values: []string{"sad", "ok"}}}}
	mp, err := Build(desired, current, fakeProvider{})
	require.NoError(t, err)
	require.Len(t, mp.Concurrent, 1)
	assert.Equal(t, "ADDENUMVALUE happy", mp.Concurrent[0])
	assert.Empty(t, mp.Transactional)
}

func TestBuildEmptyWhenCatalogsMatch(t *testing.T) {
	c := &catalog.Catalog{Tables: []catalog.Table{table("widgets")}}
	mp, err := Build(c, c, fakeProvider{})
	require.NoError(t, err)
	assert.True(t, mp.Empty())
}

func TestMigrationPlanStatementsOrdersTransactionalThenDeferredThenConcurrent(t *testing.T) {
	mp := &MigrationPlan{
		Transactional: []string{"t1"},
		Deferred:      []string{"d1"},
		Concurrent:    []string{"c1"},
	}
	assert.Equal(t, []string{"t1", "d1", "c1"}, mp.Statements())
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
