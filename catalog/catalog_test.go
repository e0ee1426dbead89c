package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDetectsDuplicateTableNames(t *testing.T) {
	c := &Catalog{
		Tables: []Table{
			{Name: "widgets", Schema: "public"},
			{Name: "widgets", Schema: "public"},
		},
	}
	err := c.Validate()
	require.Error(t, err)
	var dupErr *DuplicateObjectError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, KindTable, dupErr.ID.Kind)
}

func TestValidateDetectsDuplicateColumnNames(t *testing.T) {
	c := &Catalog{
		Tables: []Table{{
			Name: "widgets", Schema: "public",
			Columns: []Column{{Name: "id"}, {Name: "id"}},
		}},
	}
	err := c.Validate()
	assert.Error(t, err)
}

func TestValidateAllowsDistinctSchemasWithSameTableName(t *testing.T) {
	c := &Catalog{
		Tables: []Table{
			{Name: "widgets", Schema: "public"},
			{Name: "widgets", Schema: "tenant_a"},
		},
	}
	assert.NoError(t, c.Validate())
}

func TestValidateManagedSchemasRejectsUnlistedSchema(t *testing.T) {
	c := &Catalog{
		Tables: []Table{{Name: "widgets", Schema: "other"}},
	}
	err := c.ValidateManagedSchemas([]string{"public"})
	require.Error(t, err)
	var schemaErr *SchemaNotManagedError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "other", schemaErr.Schema)
}

func TestValidateManagedSchemasIgnoresUnschemedObjects(t *testing.T) {
	c := &Catalog{Tables: []Table{{Name: "widgets"}}}
	assert.NoError(t, c.ValidateManagedSchemas([]string{"public"}))
}

func TestResolveForeignKeysMarksUnresolvedReferenceExternal(t *testing.T) {
	c := &Catalog{
		Tables: []Table{{
			Name: "orders", Schema: "public",
			ForeignKeys: []ForeignKey{{ReferencedTable: "users", ReferencedSchema: "public"}},
		}},
	}
	c.ResolveForeignKeys()
	assert.True(t, c.Tables[0].ForeignKeys[0].External)
}

func TestResolveForeignKeysLeavesResolvedReferenceInternal(t *testing.T) {
	c := &Catalog{
		Tables: []Table{
			{Name: "users", Schema: "public"},
			{
				Name: "orders", Schema: "public",
				ForeignKeys: []ForeignKey{{ReferencedTable: "users", ReferencedSchema: "public"}},
			},
		},
	}
	c.ResolveForeignKeys()
	assert.False(t, c.Tables[1].ForeignKeys[0].External)
}

func TestTableByNameMatchesQualifiedName(t *testing.T) {
	c := &Catalog{Tables: []Table{{Name: "widgets", Schema: "public"}}}
	require.NotNil(t, c.TableByName("public.widgets"))
	assert.Nil(t, c.TableByName("public.gadgets"))
}

func TestColumnByNameReturnsNilWhenAbsent(t *testing.T) {
	tbl := Table{Columns: []Column{{Name: "id"}}}
	assert.NotNil(t, tbl.ColumnByName("id"))
	assert.Nil(t, tbl.ColumnByName("missing"))
}

func TestStringSliceEqualIsOrderSensitive(t *testing.T) {
	assert.True(t, StringSliceEqual([]string{"a", "b"}, []string{"a", "b"}))
	assert.False(t, StringSliceEqual([]string{"a", "b"}, []string{"b", "a"}))
	assert.False(t, StringSliceEqual([]string{"a"}, []string{"a", "b"}))
}

func TestContainsString(t *testing.T) {
	assert.True(t, ContainsString([]string{"a", "b"}, "b"))
	assert.False(t, ContainsString([]string{"a", "b"}, "c"))
}

func TestQualifiedNameOmitsSchemaWhenEmpty(t *testing.T) {
	tbl := Table{Name: "widgets"}
	assert.Equal(t, "widgets", tbl.QualifiedName())
	tbl.Schema = "public"
	assert.Equal(t, "public.widgets", tbl.QualifiedName())
}
