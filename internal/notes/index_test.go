package notes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppend_NewTitleGoesLast(t *testing.T) {
	idx := NewIndex("a", "b")
	got := idx.Append("c")
	assert.Equal(t, []string{"a", "b", "c"}, got.Titles())
	assert.Equal(t, []string{"a", "b"}, idx.Titles(), "receiver must not change")
}

func TestAppend_Idempotent(t *testing.T) {
	idx := NewIndex("a", "b")
	once := idx.Append("c")
	twice := once.Append("c")
	assert.True(t, once.Equal(twice))

	assert.True(t, idx.Append("a").Equal(idx), "existing title leaves index unchanged")
}

func TestAppend_CaseSensitive(t *testing.T) {
	idx := NewIndex("Groceries").Append("groceries")
	assert.Equal(t, []string{"Groceries", "groceries"}, idx.Titles())
}

func TestAppend_NoAliasing(t *testing.T) {
	base := NewIndex("a")
	x := base.Append("x")
	y := base.Append("y")
	assert.Equal(t, []string{"a", "x"}, x.Titles())
	assert.Equal(t, []string{"a", "y"}, y.Titles())
}

func TestNewIndex_Dedups(t *testing.T) {
	idx := NewIndex("a", "b", "a", "c", "b")
	assert.Equal(t, []string{"a", "b", "c"}, idx.Titles())
}

func TestZeroIndex(t *testing.T) {
	var idx Index
	assert.True(t, idx.Empty())
	assert.NotNil(t, idx.Titles())
	assert.Equal(t, 0, idx.Len())
	assert.Equal(t, []string{""}, idx.Append("").Titles(), "empty titles are not rejected")
}

func TestTitlesReturnsCopy(t *testing.T) {
	idx := NewIndex("a")
	titles := idx.Titles()
	titles[0] = "mutated"
	assert.Equal(t, []string{"a"}, idx.Titles())
}
