package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitan/terra/catalog"
	"github.com/elitan/terra/diff"
)

func TestRenderCreateTableInlinesAutoincrementPrimaryKey(t *testing.T) {
	p := &Provider{}
	table := &catalog.Table{
		Name: "widgets",
		Columns: []catalog.Column{
			{Name: "id", Type: "integer", Identity: &catalog.Identity{}},
			{Name: "sku", Type: "text", Nullable: false},
		},
		PrimaryKey: &catalog.PrimaryKey{ConstraintName: "widgets_pkey", Columns: []string{"id"}},
	}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindCreateTable, Table: table})
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	assert.Contains(t, stmts[0].SQL, `"id" integer PRIMARY KEY AUTOINCREMENT`)
	assert.NotContains(t, stmts[0].SQL, "CONSTRAINT \"widgets_pkey\" PRIMARY KEY")
}

func TestRenderCreateTableNonIdentityPrimaryKeyUsesTableConstraint(t *testing.T) {
	p := &Provider{}
	table := &catalog.Table{
		Name: "widgets",
		Columns: []catalog.Column{
			{Name: "a", Type: "integer"},
			{Name: "b", Type: "integer"},
		},
		PrimaryKey: &catalog.PrimaryKey{ConstraintName: "widgets_pkey", Columns: []string{"a", "b"}},
	}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindCreateTable, Table: table})
	require.NoError(t, err)
	assert.Contains(t, stmts[0].SQL, `CONSTRAINT "widgets_pkey" PRIMARY KEY ("a", "b")`)
}

func TestRenderAlterTableAddDropColumnUsesNativeSyntax(t *testing.T) {
	p := &Provider{}
	alt := &diff.TableAlteration{
		Table:       "widgets",
		AddColumns:  []catalog.Column{{Name: "note", Type: "text", Nullable: true}},
		DropColumns: []string{"old_col"},
	}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindAlterTable, Alteration: alt})
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0].SQL, `DROP COLUMN "old_col"`)
	assert.Contains(t, stmts[1].SQL, `ADD COLUMN "note" text`)
}

func TestRenderAlterTableTypeChangeTriggersRebuild(t *testing.T) {
	p := &Provider{}
	desired := &catalog.Table{
		Name: "widgets",
		Columns: []catalog.Column{
			{Name: "id", Type: "integer"},
			{Name: "price", Type: "text"},
		},
	}
	alt := &diff.TableAlteration{
		Table:         "widgets",
		DesiredTable:  desired,
		AlterColTypes: []diff.ColumnTypeChange{{Column: "price", NewType: "text"}},
	}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindAlterTable, Alteration: alt})
	require.NoError(t, err)
	require.True(t, len(stmts) >= 5)
	assert.Equal(t, "PRAGMA foreign_keys=OFF", stmts[0].SQL)
	assert.Contains(t, stmts[1].SQL, `CREATE TABLE "widgets__terra_new"`)
	assert.Contains(t, stmts[2].SQL, `INSERT INTO "widgets__terra_new" ("id", "price") SELECT "id", "price" FROM "widgets"`)
	assert.Contains(t, stmts[3].SQL, `DROP TABLE "widgets"`)
	assert.Contains(t, stmts[4].SQL, `ALTER TABLE "widgets__terra_new" RENAME TO "widgets"`)
	assert.Equal(t, "PRAGMA foreign_keys=ON", stmts[len(stmts)-1].SQL)
}

func TestRenderTableRebuildOmitsNewlyAddedColumnsFromInsert(t *testing.T) {
	desired := &catalog.Table{
		Name: "widgets",
		Columns: []catalog.Column{
			{Name: "id", Type: "integer"},
			{Name: "extra", Type: "text"},
		},
	}
	alt := &diff.TableAlteration{
		Table:        "widgets",
		DesiredTable: desired,
		AddColumns:   []catalog.Column{{Name: "extra", Type: "text", Nullable: true}},
	}
	stmts := renderTableRebuild(alt)
	var insertStmt string
	for _, s := range stmts {
		if len(s.SQL) > 6 && s.SQL[:6] == "INSERT" {
			insertStmt = s.SQL
		}
	}
	require.NotEmpty(t, insertStmt)
	assert.Contains(t, insertStmt, `("id") SELECT "id"`)
	assert.NotContains(t, insertStmt, "extra")
}

func TestRenderReplaceViewIsDropThenCreate(t *testing.T) {
	p := &Provider{}
	v := &catalog.View{Name: "active_users", Definition: "SELECT 1"}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindReplaceView, View: v})
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.Equal(t, `DROP VIEW "active_users"`, stmts[0].SQL)
	assert.Contains(t, stmts[1].SQL, "CREATE VIEW")
}

func TestRenderStandaloneForeignKeyEditIsUnsupported(t *testing.T) {
	p := &Provider{}
	_, err := p.RenderEdit(diff.Edit{Kind: diff.KindAddForeignKey, ForeignKey: &diff.ForeignKeyEdit{}})
	assert.Error(t, err)
}

func TestRenderPostgresOnlyKindsReturnError(t *testing.T) {
	p := &Provider{}
	for _, k := range []diff.Kind{diff.KindCreateSchema, diff.KindCreateEnum, diff.KindCreateSequence, diff.KindCreateFunction} {
		_, err := p.RenderEdit(diff.Edit{Kind: k})
		assert.Errorf(t, err, "expected error for kind %q", k)
	}
}

func TestRenderSetCommentIsSilentlyIgnored(t *testing.T) {
	p := &Provider{}
	stmts, err := p.RenderEdit(diff.Edit{Kind: diff.KindSetComment, Comment: &catalog.Comment{}})
	require.NoError(t, err)
	assert.Nil(t, stmts)
}
