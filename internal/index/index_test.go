package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndex(t *testing.T) {
	idx := New[int](32)

	assert.False(t, idx.Put("foo", 1))
	assert.False(t, idx.Put("bar", 2))
	assert.True(t, idx.Put("foo", 3))

	value, ok := idx.Find("foo")
	assert.True(t, ok)
	assert.Equal(t, 3, value)
	_, ok = idx.Find("baz")
	assert.False(t, ok)
	assert.True(t, idx.Has("bar"))

	assert.Equal(t, []string{"foo", "bar"}, idx.Names())
	assert.Equal(t, 2, idx.Len())

	assert.True(t, idx.Delete("foo"))
	assert.False(t, idx.Delete("foo"))
	assert.False(t, idx.Put("foo", 4))
	assert.Equal(t, []string{"bar", "foo"}, idx.Names())
}

func TestClone(t *testing.T) {
	idx := New[string](0)
	idx.Put("a", "1")
	idx.Put("b", "2")

	clone := idx.Clone()
	clone.Put("a", "10")
	clone.Delete("b")
	clone.Put("c", "3")

	value, _ := idx.Find("a")
	assert.Equal(t, "1", value)
	assert.Equal(t, []string{"a", "b"}, idx.Names())
	assert.Equal(t, []string{"a", "c"}, clone.Names())

	idx.Put("d", "4")
	assert.False(t, clone.Has("d"))
}

func TestIteration(t *testing.T) {
	idx := New[int](2)
	names := []string{"e", "d", "c", "b", "a"}
	for i, name := range names {
		idx.Put(name, i)
	}

	t.Run("each stops early", func(t *testing.T) {
		seen := []string{}
		idx.Each(func(entry Entry[int]) bool {
			seen = append(seen, entry.Name)
			return entry.Value < 2
		})
		assert.Equal(t, []string{"e", "d", "c"}, seen)
	})

	t.Run("iterator seeks the live tree", func(t *testing.T) {
		iter := idx.Iterator()
		assert.True(t, iter.Next())
		assert.Equal(t, "e", iter.Value().Name)
		idx.Delete("d")
		idx.Put("f", 5)
		rest := []string{}
		for iter.Next() {
			rest = append(rest, iter.Value().Name)
		}
		assert.Equal(t, []string{"c", "b", "a", "f"}, rest)
		assert.Equal(t, []string{"e", "c", "b", "a", "f"}, idx.Names())
	})
}
