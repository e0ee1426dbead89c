package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnnamedPrimaryKeyGetsDefaultName(t *testing.T) {
	cat, err := Parse(`CREATE TABLE widgets (id integer PRIMARY KEY)`, DialectPostgres)
	require.NoError(t, err)
	require.Len(t, cat.Tables, 1)
	require.NotNil(t, cat.Tables[0].PrimaryKey)
	assert.Equal(t, "widgets_pkey", cat.Tables[0].PrimaryKey.ConstraintName)
}

func TestUnnamedUniqueConstraintGetsDefaultName(t *testing.T) {
	cat, err := Parse(`CREATE TABLE widgets (id integer, sku text, UNIQUE (sku))`, DialectPostgres)
	require.NoError(t, err)
	require.Len(t, cat.Tables[0].UniqueConstraints, 1)
	assert.Equal(t, "widgets_sku_key", cat.Tables[0].UniqueConstraints[0].ConstraintName)
}

func TestUnnamedForeignKeyGetsDefaultName(t *testing.T) {
	cat, err := Parse(`CREATE TABLE orders (id integer, user_id integer REFERENCES users (id))`, DialectPostgres)
	require.NoError(t, err)
	require.Len(t, cat.Tables[0].ForeignKeys, 1)
	assert.Equal(t, "orders_user_id_fkey", cat.Tables[0].ForeignKeys[0].ConstraintName)
}

func TestUnnamedCheckConstraintsGetSequentialDefaultNames(t *testing.T) {
	cat, err := Parse(`CREATE TABLE widgets (
		price integer CHECK (price > 0),
		quantity integer CHECK (quantity >= 0)
	)`, DialectPostgres)
	require.NoError(t, err)
	require.Len(t, cat.Tables[0].CheckConstraints, 2)
	assert.Equal(t, "widgets_check", cat.Tables[0].CheckConstraints[0].ConstraintName)
	assert.Equal(t, "widgets_check1", cat.Tables[0].CheckConstraints[1].ConstraintName)
}

func TestExplicitConstraintNameIsPreserved(t *testing.T) {
	cat, err := Parse(`CREATE TABLE widgets (id integer, sku text, CONSTRAINT widgets_sku_unique UNIQUE (sku))`, DialectPostgres)
	require.NoError(t, err)
	require.Len(t, cat.Tables[0].UniqueConstraints, 1)
	assert.Equal(t, "widgets_sku_unique", cat.Tables[0].UniqueConstraints[0].ConstraintName)
}
