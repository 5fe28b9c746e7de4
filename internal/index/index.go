// Package index provides an insertion-ordered, copy-on-write index of named
// values implemented on a btree.
package index

import (
	"github.com/dball/lazyattrs/internal/iterator"
	"golang.org/x/exp/maps"

	"github.com/google/btree"
)

// DefaultDegree is the btree degree used when none is given.
const DefaultDegree = 16

// Entry is a named value. Entries are ordered by their position, which is
// assigned when the name is first put into the index and kept when the value
// is replaced.
type Entry[V any] struct {
	Pos   int64
	Name  string
	Value V
}

func lessByPos[V any](e1 Entry[V], e2 Entry[V]) bool {
	return e1.Pos < e2.Pos
}

// Index is an ordered set of entries with unique names.
//
// Index instances are safe for concurrent reads, not for concurrent writes,
// including cloning.
type Index[V any] struct {
	tree  *btree.BTreeG[Entry[V]]
	names map[string]int64
	next  int64
}

// New returns an empty index with a btree of the given degree.
func New[V any](degree int) (idx *Index[V]) {
	if degree < 2 {
		degree = DefaultDegree
	}
	idx = &Index[V]{
		tree:  btree.NewG(degree, btree.LessFunc[Entry[V]](lessByPos[V])),
		names: map[string]int64{},
	}
	return
}

// Find returns the value stored under the name.
func (idx *Index[V]) Find(name string) (value V, extant bool) {
	pos, extant := idx.names[name]
	if !extant {
		return
	}
	entry, extant := idx.tree.Get(Entry[V]{Pos: pos})
	value = entry.Value
	return
}

// Has returns true if the name is in the index.
func (idx *Index[V]) Has(name string) (extant bool) {
	_, extant = idx.names[name]
	return
}

// Put stores the value under the name, at the end of the index unless the
// name is already present, in which case the value is replaced in place.
func (idx *Index[V]) Put(name string, value V) (extant bool) {
	pos, extant := idx.names[name]
	if !extant {
		pos = idx.next
		idx.next++
		idx.names[name] = pos
	}
	idx.tree.ReplaceOrInsert(Entry[V]{Pos: pos, Name: name, Value: value})
	return
}

// Delete removes the name from the index, returning true if it was present.
func (idx *Index[V]) Delete(name string) (extant bool) {
	pos, extant := idx.names[name]
	if !extant {
		return
	}
	delete(idx.names, name)
	idx.tree.Delete(Entry[V]{Pos: pos})
	return
}

func (idx *Index[V]) Len() int {
	return idx.tree.Len()
}

// Clone returns a copy of the index. Both instances are hereafter safe to
// change without affecting the other. Values are shared, not copied.
func (idx *Index[V]) Clone() (clone *Index[V]) {
	clone = &Index[V]{tree: idx.tree.Clone(), names: maps.Clone(idx.names), next: idx.next}
	return
}

// Each visits the entries in order until accept returns false.
func (idx *Index[V]) Each(accept iterator.Accept[Entry[V]]) {
	idx.tree.Ascend(btree.ItemIteratorG[Entry[V]](accept))
}

// Names returns the names in order.
func (idx *Index[V]) Names() (names []string) {
	names = iterator.Map(idx.Iterator(), func(entry Entry[V]) string {
		return entry.Name
	}).Drain()
	return
}

// Iterator returns a lazy iterator over the entries. The iterator seeks the
// live tree on each step, so entries put after its position are observed and
// entries deleted before they are reached are skipped.
func (idx *Index[V]) Iterator() (iter *iterator.Iterator[Entry[V]]) {
	var pos int64
	iter = iterator.New(func() (entry Entry[V], ok bool) {
		idx.tree.AscendGreaterOrEqual(Entry[V]{Pos: pos}, func(found Entry[V]) bool {
			entry, ok = found, true
			return false
		})
		if ok {
			pos = entry.Pos + 1
		}
		return
	})
	return
}
