package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/diff"
	"github.com/elitan/terra/provider"
)

func TestRenderCreateTableIncludesInlineConstraintsAndIndexes(t *testing.T) {
	p := &Provider{}
	table := &catalog.Table{
		Name: "widgets", Schema: "public",
		Columns: []catalog.Column{
			{Name: "id", Type: "integer", Nullable: false},
			{Name: "sku", Type: "text", Nullable: false},
		},
		PrimaryKey:        &catalog.PrimaryKey{ConstraintName: "widgets_pkey", Columns: []string{"id"}},
		UniqueConstraints: []catalog.UniqueConstraint{{ConstraintName: "widgets_sku_key", Columns: []string{"sku"}}},
		Indexes: []catalog.Index{
			{Name: "widgets_pkey", Primary: true, Columns: []catalog.IndexColumn{{Column: "id"}}},
			{Name: "widgets_sku_key", Columns: []catalog.IndexColumn{{Column: "sku"}}},
			{Name: "widgets_sku_idx", Columns: []catalog.IndexColumn{{Column: "sku"}}},
		},
	}

	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindCreateTable, Table: table})
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0].SQL, `CONSTRAINT "widgets_pkey" PRIMARY KEY ("id")`)
	assert.Contains(t, stmts[0].SQL, `CONSTRAINT "widgets_sku_key" UNIQUE ("sku")`)
	assert.Contains(t, stmts[1].SQL, `CREATE INDEX "widgets_sku_idx"`)
}

func TestRenderAlterTableTypeOnlyChangeOmitsDefaultClauses(t *testing.T) {
	p := &Provider{}
	alt := &diff.TableAlteration{
		Table:         "public.widgets",
		AlterColTypes: []diff.ColumnTypeChange{{Column: "price", NewType: "bigint", SameFamily: true}},
	}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindAlterTable, Alteration: alt})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].SQL, `ALTER COLUMN "price" TYPE bigint`)
	assert.NotContains(t, stmts[0].SQL, "DEFAULT")
	assert.NotContains(t, stmts[0].SQL, "USING")
}

func TestRenderAlterTableCrossFamilyTypeChangeAddsUsingCast(t *testing.T) {
	p := &Provider{}
	alt := &diff.TableAlteration{
		Table:         "public.widgets",
		AlterColTypes: []diff.ColumnTypeChange{{Column: "price", NewType: "text", SameFamily: false}},
	}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindAlterTable, Alteration: alt})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].SQL, `USING "price"::text`)
}

func TestRenderAlterTableAddPolicyEmitsCreatePolicyStatement(t *testing.T) {
	p := &Provider{}
	alt := &diff.TableAlteration{
		Table: "public.widgets",
		AddPolicies: []catalog.Policy{
			{Name: "owner_only", Permissive: true, Scope: "SELECT", Roles: []string{"app_user"}, Using: "owner_id = current_user_id()"},
		},
	}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindAlterTable, Alteration: alt})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, `CREATE POLICY "owner_only" ON "public"."widgets" FOR SELECT TO app_user USING (owner_id = current_user_id())`, stmts[0].SQL)
}

func TestRenderAlterTableDropPolicyEmitsDropPolicyStatement(t *testing.T) {
	p := &Provider{}
	alt := &diff.TableAlteration{
		Table:        "public.widgets",
		DropPolicies: []catalog.Policy{{Name: "owner_only"}},
	}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindAlterTable, Alteration: alt})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, `DROP POLICY "owner_only" ON "public"."widgets"`, stmts[0].SQL)
}

func TestRenderAddEnumValueIsConcurrentBucket(t *testing.T) {
	p := &Provider{}
	enum := &catalog.EnumType{Name: "mood", Schema: "public", Values: []string{"sad", "ok"}}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindAddEnumValue, Enum: enum, EnumValue: "happy"})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, diff.BucketConcurrent, stmts[0].Bucket)
	assert.Contains(t, stmts[0].SQL, "ADD VALUE 'happy'")
}

func TestRenderCreateIndexConcurrentlyUsesConcurrentBucket(t *testing.T) {
	ix := catalog.Index{Name: "widgets_sku_idx", Concurrent: true, Columns: []catalog.IndexColumn{{Column: "sku"}}}
	stmt := renderCreateIndex("public", "widgets", ix)
	assert.Contains(t, stmt.SQL, "CREATE INDEX CONCURRENTLY")
	assert.Equal(t, diff.BucketConcurrent, stmt.Bucket)
}

func TestRenderCreateViewNonMaterializedUsesOrReplace(t *testing.T) {
	v := &catalog.View{Name: "active_users", Schema: "public", Definition: "SELECT 1"}
	sql := renderCreateView(v, true)
	assert.Contains(t, sql, "CREATE OR REPLACE VIEW")
}

func TestRenderCreateViewMaterializedNeverUsesOrReplace(t *testing.T) {
	v := &catalog.View{Name: "rollup", Schema: "public", Definition: "SELECT 1", Materialized: true}
	sql := renderCreateView(v, true)
	assert.NotContains(t, sql, "OR REPLACE")
	assert.Contains(t, sql, "CREATE MATERIALIZED VIEW")
}

func TestRenderCommentOnColumnSplitsQualifiedName(t *testing.T) {
	c := &catalog.Comment{
		Object: catalog.ObjectID{Kind: catalog.KindColumn, Name: "public.widgets.sku"},
		Text:   "stock keeping unit",
	}
	sql := renderComment(c)
	assert.Equal(t, `COMMENT ON COLUMN "public"."widgets"."sku" IS 'stock keeping unit'`, sql)
}

func TestRenderCommentRemovedUsesNull(t *testing.T) {
	c := &catalog.Comment{Object: catalog.ObjectID{Kind: catalog.KindTable, Name: "public.widgets"}, Text: ""}
	sql := renderComment(c)
	assert.Contains(t, sql, "IS NULL")
}

func TestRenderForeignKeyClauseIncludesOnDeleteAndDeferrable(t *testing.T) {
	fk := catalog.ForeignKey{
		ConstraintName: "orders_user_fk", Columns: []string{"user_id"},
		ReferencedTable: "users", ReferencedColumns: []string{"id"},
		OnDelete: catalog.ActionCascade, Deferrable: true, InitiallyDeferred: true,
	}
	sql := foreignKeyClause(fk)
	assert.Contains(t, sql, "ON DELETE CASCADE")
	assert.Contains(t, sql, "DEFERRABLE INITIALLY DEFERRED")
}

func TestRenderDropForeignKeyUsesConstraintName(t *testing.T) {
	p := &Provider{}
	e := diff.Edit{
		Kind: diff.KindDropForeignKey,
		ForeignKey: &diff.ForeignKeyEdit{
			Table:      "public.orders",
			ForeignKey: catalog.ForeignKey{ConstraintName: "orders_user_fk"},
		},
	}
	stmts, err := p.RenderEdit(e)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Equal(t, `ALTER TABLE "public"."orders" DROP CONSTRAINT "orders_user_fk"`, stmts[0].SQL)
}

func TestRenderUnsupportedKindReturnsError(t *testing.T) {
	p := &Provider{}
	_, err := p.RenderEdit(diff.Edit{Kind: diff.Kind("nonsense")})
	assert.Error(t, err)
}

func TestSupportsFeatureCoversAdvertisedSet(t *testing.T) {
	p := &Provider{}
	assert.True(t, p.SupportsFeature(provider.FeatureSchemas))
	assert.True(t, p.SupportsFeature(provider.FeatureConcurrentIndex))
	assert.False(t, p.SupportsFeature(provider.Feature("not_a_real_feature")))
}
