package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTypeAliasEquivalence covers spec.md §8 property 2: every pair in the
// normalization equivalence classes must canonicalize identically.
func TestTypeAliasEquivalence(t *testing.T) {
	pairs := []struct {
		a, b string
	}{
		{"int2", "smallint"},
		{"int", "integer"},
		{"int4", "integer"},
		{"int8", "bigint"},
		{"bigint", "int8"},
		{"real", "float4"},
		{"double precision", "float8"},
		{"decimal", "numeric"},
		{"varchar", "character varying"},
		{"char", "character"},
		{"timestamptz", "timestamp with time zone"},
	}
	for _, p := range pairs {
		nameA, _, _ := TypeName(p.a, nil, nil, DialectPostgres)
		nameB, _, _ := TypeName(p.b, nil, nil, DialectPostgres)
		assert.Equalf(t, nameA, nameB, "%s vs %s", p.a, p.b)
	}
}

func TestNumericWithoutScaleDefaultsToZero(t *testing.T) {
	p := 10
	name, length, scale := TypeName("numeric", &p, nil, DialectPostgres)
	assert.Equal(t, "numeric", name)
	assert.Equal(t, 10, *length)
	assert.Equal(t, 0, *scale)
}

func TestFloatPrecisionSplitsOnTwentyFour(t *testing.T) {
	small := 24
	name, _, _ := TypeName("float", &small, nil, DialectPostgres)
	assert.Equal(t, "real", name)

	large := 25
	name, _, _ = TypeName("float", &large, nil, DialectPostgres)
	assert.Equal(t, "double precision", name)
}

func TestSerialExpandsToIntegerUnderlyingType(t *testing.T) {
	underlying, ok := IsSerial("SERIAL")
	assert.True(t, ok)
	assert.Equal(t, "integer", underlying)

	underlying, ok = IsSerial("bigserial")
	assert.True(t, ok)
	assert.Equal(t, "bigint", underlying)

	_, ok = IsSerial("integer")
	assert.False(t, ok)
}

func TestDetectSerialPatternRecognizesNextval(t *testing.T) {
	seq := DetectSerialPattern("nextval('u_id_seq'::regclass)")
	assert.Equal(t, "u_id_seq", seq)

	assert.Equal(t, "", DetectSerialPattern("25"))
}

func TestIdentifierFolding(t *testing.T) {
	assert.Equal(t, "users", Identifier("Users", false))
	assert.Equal(t, "Users", Identifier("Users", true))
}
