package strengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcat(t *testing.T) {
	assert.Equal(t, "foobar", Concat("foo", "bar"))
}

func TestLengthCountsCodepointsNotBytes(t *testing.T) {
	assert.EqualValues(t, 1, Length("é"))
	assert.EqualValues(t, 3, Length("abc"))
}

func TestSubstringBasic(t *testing.T) {
	assert.Equal(t, "ell", Substring("hello", 1, 3))
}

func TestSubstringClampsNegativeCount(t *testing.T) {
	assert.Equal(t, "ello", Substring("hello", 1, -1))
}

func TestSubstringClampsOutOfRangeStart(t *testing.T) {
	assert.Equal(t, "", Substring("hello", 10, 2))
}

func TestSubstringClampsNegativeStart(t *testing.T) {
	assert.Equal(t, "he", Substring("hello", -3, 2))
}

func TestIndexOfFindsMatch(t *testing.T) {
	assert.EqualValues(t, 2, IndexOf("hello", "ll", 0))
}

func TestIndexOfNoMatch(t *testing.T) {
	assert.EqualValues(t, -1, IndexOf("hello", "zz", 0))
}

func TestIndexOfRespectsFromOffset(t *testing.T) {
	assert.EqualValues(t, -1, IndexOf("hello", "he", 1))
}

func TestToUpperToLower(t *testing.T) {
	assert.Equal(t, "HELLO", ToUpper("hello"))
	assert.Equal(t, "hello", ToLower("HELLO"))
}

func TestCompareOrdering(t *testing.T) {
	assert.Equal(t, -1, Compare("a", "b"))
	assert.Equal(t, 0, Compare("a", "a"))
	assert.Equal(t, 1, Compare("b", "a"))
}

func TestIsSpaceIsAlphaIsDigit(t *testing.T) {
	assert.True(t, IsSpace(" "))
	assert.False(t, IsSpace("a"))
	assert.True(t, IsAlpha("a"))
	assert.False(t, IsAlpha("1"))
	assert.True(t, IsDigit("5"))
	assert.False(t, IsDigit("x"))
}
