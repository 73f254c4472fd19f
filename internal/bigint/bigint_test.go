package bigint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromInt64SmallPath(t *testing.T) {
	v := FromInt64(42)
	assert.True(t, v.IsSmall())
	assert.EqualValues(t, 42, v.Int64())
}

func TestFromInt64OutsideSmallRange(t *testing.T) {
	v := FromInt64(1 << 40)
	assert.False(t, v.IsSmall())
	assert.EqualValues(t, 1<<40, v.Int64())
}

func TestAddStaysSmallWhenResultFits(t *testing.T) {
	a := FromInt64(10)
	b := FromInt64(20)
	sum := Add(a, b)
	assert.True(t, sum.IsSmall())
	assert.EqualValues(t, 30, sum.Int64())
}

func TestAddOverflowsToBig(t *testing.T) {
	a := FromInt64(smallMax)
	b := FromInt64(smallMax)
	sum := Add(a, b)
	assert.False(t, sum.IsSmall())
	assert.Equal(t, int64(smallMax)*2, sum.Int64())
}

func TestSubUnderflowsToBig(t *testing.T) {
	a := FromInt64(smallMin)
	b := FromInt64(1)
	diff := Sub(a, b)
	assert.False(t, diff.IsSmall())
}

func TestMulDetectsOverflow(t *testing.T) {
	a := FromInt64(1 << 20)
	b := FromInt64(1 << 20)
	prod := Mul(a, b)
	assert.False(t, prod.IsSmall())
	assert.EqualValues(t, int64(1<<40), prod.Int64())
}

func TestMulSmallStaysSmall(t *testing.T) {
	a := FromInt64(3)
	b := FromInt64(4)
	prod := Mul(a, b)
	assert.True(t, prod.IsSmall())
	assert.EqualValues(t, 12, prod.Int64())
}

func TestDivFlooredSemantics(t *testing.T) {
	q, ok := Div(FromInt64(-7), FromInt64(2))
	assert.True(t, ok)
	assert.EqualValues(t, -4, q.Int64())
}

func TestDivByZeroFails(t *testing.T) {
	_, ok := Div(FromInt64(5), FromInt64(0))
	assert.False(t, ok)
}

func TestCmpOrdersSmallAndBig(t *testing.T) {
	assert.Equal(t, -1, Cmp(FromInt64(1), FromInt64(2)))
	assert.Equal(t, 1, Cmp(FromInt64(2), FromInt64(1)))
	assert.Equal(t, 0, Cmp(FromInt64(2), FromInt64(2)))

	big1 := FromInt64(1 << 40)
	big2 := FromInt64(1 << 41)
	assert.Equal(t, -1, Cmp(big1, big2))
}

func TestStringRendersBothPaths(t *testing.T) {
	assert.Equal(t, "7", FromInt64(7).String())
	assert.Equal(t, "1099511627776", FromInt64(1<<40).String())
}
