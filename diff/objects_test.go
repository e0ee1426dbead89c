package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitan/terra/catalog"
)

func TestDiffEnumsExactMatchIsNoop(t *testing.T) {
	e := catalog.EnumType{Name: "mood", Schema: "public", Values: []string{"sad", "ok", "happy"}}
	edits, err := diffEnums([]catalog.EnumType{e}, []catalog.EnumType{e}, nil)
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestDiffEnumsAppendOnlyExtensionAddsValue(t *testing.T) {
	current := catalog.EnumType{Name: "mood", Schema: "public", Values: []string{"sad", "ok"}}
	desired := catalog.EnumType{Name: "mood", Schema: "public", Values: []string{"sad", "ok", "happy"}}
	edits, err := diffEnums([]catalog.EnumType{desired}, []catalog.EnumType{current}, nil)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, KindAddEnumValue, edits[0].Kind)
	assert.Equal(t, "happy", edits[0].EnumValue)
	assert.Equal(t, BucketConcurrent, edits[0].Bucket)
}

func TestDiffEnumsReorderIsUnsafe(t *testing.T) {
	current := catalog.EnumType{Name: "mood", Schema: "public", Values: []string{"sad", "ok"}}
	desired := catalog.EnumType{Name: "mood", Schema: "public", Values: []string{"ok", "sad"}}
	_, err := diffEnums([]catalog.EnumType{desired}, []catalog.EnumType{current}, nil)
	assert.Error(t, err)
}

func TestDiffEnumsValueRemovalIsUnsafe(t *testing.T) {
	current := catalog.EnumType{Name: "mood", Schema: "public", Values: []string{"sad", "ok", "happy"}}
	desired := catalog.EnumType{Name: "mood", Schema: "public", Values: []string{"sad", "ok"}}
	_, err := diffEnums([]catalog.EnumType{desired}, []catalog.EnumType{current}, nil)
	assert.Error(t, err)
}

func TestDiffEnumsDropOnlyWhenUnreferenced(t *testing.T) {
	current := catalog.EnumType{Name: "mood", Schema: "public", Values: []string{"sad", "ok"}}
	stillUsed := []catalog.Table{{Columns: []catalog.Column{{Type: "public.mood"}}}}

	edits, err := diffEnums(nil, []catalog.EnumType{current}, stillUsed)
	require.NoError(t, err)
	assert.Empty(t, edits)

	edits, err = diffEnums(nil, []catalog.EnumType{current}, nil)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, KindDropEnum, edits[0].Kind)
}

func TestDiffViewsNonMaterializedUsesReplace(t *testing.T) {
	current := catalog.View{Name: "active_users", Schema: "public", Definition: "SELECT 1"}
	desired := catalog.View{Name: "active_users", Schema: "public", Definition: "SELECT 2"}
	edits := diffViews([]catalog.View{desired}, []catalog.View{current})
	require.Len(t, edits, 1)
	assert.Equal(t, KindReplaceView, edits[0].Kind)
}

func TestDiffViewsMaterializedUsesDropAndCreate(t *testing.T) {
	current := catalog.View{Name: "rollup", Schema: "public", Definition: "SELECT 1", Materialized: true}
	desired := catalog.View{Name: "rollup", Schema: "public", Definition: "SELECT 2", Materialized: true}
	edits := diffViews([]catalog.View{desired}, []catalog.View{current})
	require.Len(t, edits, 2)
	assert.Equal(t, KindDropView, edits[0].Kind)
	assert.Equal(t, KindCreateView, edits[1].Kind)
}

func TestDiffFunctionsMismatchReplaces(t *testing.T) {
	current := catalog.Function{Name: "add_one", Schema: "public", Body: "return a+1", ReturnType: "integer"}
	desired := catalog.Function{Name: "add_one", Schema: "public", Body: "return a+2", ReturnType: "integer"}
	edits := diffFunctions([]catalog.Function{desired}, []catalog.Function{current})
	require.Len(t, edits, 1)
	assert.Equal(t, KindReplaceFunction, edits[0].Kind)
}

func TestDiffFunctionsProcedureUsesProcedureKind(t *testing.T) {
	desired := catalog.Function{Name: "do_thing", Schema: "public", IsProcedure: true}
	edits := diffFunctions([]catalog.Function{desired}, nil)
	require.Len(t, edits, 1)
	assert.Equal(t, catalog.KindProcedure, edits[0].Object.Kind)
}

func TestDiffTriggersMismatchIsDropThenCreate(t *testing.T) {
	current := catalog.Trigger{Name: "trg", Table: "widgets", TableSchema: "public", Timing: "BEFORE", Events: []string{"INSERT"}, Level: "ROW", Function: "f"}
	desired := catalog.Trigger{Name: "trg", Table: "widgets", TableSchema: "public", Timing: "AFTER", Events: []string{"INSERT"}, Level: "ROW", Function: "f"}
	edits := diffTriggers([]catalog.Trigger{desired}, []catalog.Trigger{current})
	require.Len(t, edits, 2)
	assert.Equal(t, KindDropTrigger, edits[0].Kind)
	assert.Equal(t, KindCreateTrigger, edits[1].Kind)
}

func TestDiffTriggersEventOrderIgnored(t *testing.T) {
	current := catalog.Trigger{Name: "trg", Table: "widgets", TableSchema: "public", Timing: "BEFORE", Events: []string{"INSERT", "UPDATE"}, Level: "ROW", Function: "f"}
	desired := catalog.Trigger{Name: "trg", Table: "widgets", TableSchema: "public", Timing: "BEFORE", Events: []string{"UPDATE", "INSERT"}, Level: "ROW", Function: "f"}
	edits := diffTriggers([]catalog.Trigger{desired}, []catalog.Trigger{current})
	assert.Empty(t, edits)
}

func TestDiffCommentsOnlyChangeDoesNotTouchTable(t *testing.T) {
	id := catalog.ObjectID{Kind: catalog.KindTable, Name: "public.widgets"}
	current := catalog.Comment{Object: id, Text: "old"}
	desired := catalog.Comment{Object: id, Text: "new"}
	edits := diffComments([]catalog.Comment{desired}, []catalog.Comment{current})
	require.Len(t, edits, 1)
	assert.Equal(t, KindSetComment, edits[0].Kind)
	assert.Equal(t, "new", edits[0].Comment.Text)
}

func TestDiffCommentsRemovedClearsText(t *testing.T) {
	id := catalog.ObjectID{Kind: catalog.KindTable, Name: "public.widgets"}
	current := catalog.Comment{Object: id, Text: "old"}
	edits := diffComments(nil, []catalog.Comment{current})
	require.Len(t, edits, 1)
	assert.Equal(t, "", edits[0].Comment.Text)
}
