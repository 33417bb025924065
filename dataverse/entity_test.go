package dataverse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValueAccessors(t *testing.T) {
	i, ok := IntValue(7).Int()
	assert.True(t, ok)
	assert.Equal(t, int64(7), i)

	_, ok = IntValue(7).Float()
	assert.False(t, ok, "kind mismatch yields false")

	f, ok := FloatValue(2.5).Float()
	assert.True(t, ok)
	assert.Equal(t, 2.5, f)

	b, ok := BoolValue(true).Bool()
	assert.True(t, ok)
	assert.True(t, b)

	assert.True(t, NullValue().IsNull())
	assert.False(t, StringValue("").IsNull(), "empty string is not null")
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "7", IntValue(7).String())
	assert.Equal(t, "2.5", FloatValue(2.5).String())
	assert.Equal(t, "hello", StringValue("hello").String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "", NullValue().String())
}

func TestValueAny(t *testing.T) {
	assert.Equal(t, int64(7), IntValue(7).Any())
	assert.Equal(t, 2.5, FloatValue(2.5).Any())
	assert.Equal(t, "x", StringValue("x").Any())
	assert.Equal(t, true, BoolValue(true).Any())
	assert.Nil(t, NullValue().Any())
}

func TestEntityRowNumber(t *testing.T) {
	e := Entity{RowNumberAttribute: IntValue(3)}
	n, ok := e.RowNumber()
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)

	_, ok = Entity{}.RowNumber()
	assert.False(t, ok)
}
