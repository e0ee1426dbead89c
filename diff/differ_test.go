package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elitan/terra/catalog"
)

func TestDiffIdenticalCatalogsProducesNoEdits(t *testing.T) {
	c := &catalog.Catalog{
		Tables: []catalog.Table{{Name: "widgets", Schema: "public", Columns: []catalog.Column{{Name: "id", Type: "integer"}}}},
	}
	edits, err := Diff(c, c)
	require.NoError(t, err)
	assert.Empty(t, edits)
}

func TestDiffOutputIsDeterministicAcrossRuns(t *testing.T) {
	desired := &catalog.Catalog{
		Tables: []catalog.Table{
			{Name: "b_table", Schema: "public"},
			{Name: "a_table", Schema: "public"},
		},
	}
	current := catalog.NewCatalog()

	first, err := Diff(desired, current)
	require.NoError(t, err)
	second, err := Diff(desired, current)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Kind, second[i].Kind)
		assert.Equal(t, first[i].Object, second[i].Object)
	}
	assert.Equal(t, "a_table", first[0].Table.Name)
	assert.Equal(t, "b_table", first[1].Table.Name)
}

func TestDiffPropagatesUnsafeEnumError(t *testing.T) {
	desired := &catalog.Catalog{
		Enums: []catalog.EnumType{{Name: "mood", Schema: "public", Values: []string{"ok"}}},
	}
	current := &catalog.Catalog{
		Enums: []catalog.EnumType{{Name: "mood", Schema: "public", Values: []string{"sad", "ok"}}},
	}
	_, err := Diff(desired, current)
	assert.Error(t, err)
}
