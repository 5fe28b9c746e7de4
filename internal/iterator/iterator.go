// Package iterator provides forwards-only iterators over ordered collections,
// allowing for early termination. Iterators pull their values synchronously
// from a next function; nothing runs in the background.
package iterator

// Accept is a predicate that receives a value from an iterator
// and returns true if more values are desired.
type Accept[T any] func(T) bool

// Next yields the next value of a sequence, or false when it is exhausted.
type Next[T any] func() (value T, ok bool)

// Iterator is a lazy, forwards-only iterator with early termination.
type Iterator[T any] struct {
	next    Next[T]
	current T
	done    bool
}

// New returns an iterator that pulls its values from the given function.
func New[T any](next Next[T]) *Iterator[T] {
	return &Iterator[T]{next: next}
}

// Next advances the iterator, returning true if successful.
func (iter *Iterator[T]) Next() (ok bool) {
	if iter.done {
		return
	}
	iter.current, ok = iter.next()
	if !ok {
		iter.Stop()
	}
	return
}

// Value returns the value of the iterable collection at the current position of the iterator.
func (iter *Iterator[T]) Value() T {
	return iter.current
}

// Stop invalidates the iterator and releases its source.
func (iter *Iterator[T]) Stop() {
	var zero T
	iter.done = true
	iter.next = nil
	iter.current = zero
}

// Drain returns a slice of the values remaining in the iterator.
func (iter *Iterator[T]) Drain() []T {
	values := []T{}
	for iter.Next() {
		values = append(values, iter.Value())
	}
	return values
}

// Each makes iterators collections, consuming the remaining values.
func (iter *Iterator[T]) Each(accept Accept[T]) {
	for iter.Next() {
		if !accept(iter.Value()) {
			iter.Stop()
			return
		}
	}
}

// Reduce fully reduces the iterated collection by adding the values sequentially to the given init value.
func Reduce[T any, U any](iter *Iterator[T], add func(U, T) U, init U) U {
	result := init
	for iter.Next() {
		result = add(result, iter.Value())
	}
	return result
}

// Map returns an iterator of the transformed values. Each value is
// transformed only when it is pulled.
func Map[T any, U any](iter *Iterator[T], transform func(T) U) *Iterator[U] {
	return New(func() (value U, ok bool) {
		if !iter.Next() {
			return
		}
		value, ok = transform(iter.Value()), true
		return
	})
}
