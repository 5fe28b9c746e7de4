// Package attrset provides the ordered set of named attributes a record reads
// and writes through.
//
// Reads return views bound to the set, so a write to the set is visible
// through every view of that name obtained before it. Writes replace entries
// rather than mutating attributes, which is what makes duplicates cheap: a
// duplicate shares its entries until either set replaces one.
//
// A set is safe for concurrent reads, including the memoization of cast values
// and the access tracking they trigger. Writes must be serialized by the caller.
package attrset

import (
	"fmt"
	"sync"

	"github.com/dball/lazyattrs/internal/attribute"
	"github.com/dball/lazyattrs/internal/bufferpool"
	"github.com/dball/lazyattrs/internal/index"
	"github.com/dball/lazyattrs/internal/iterator"
	. "github.com/dball/lazyattrs/internal/types"
	"golang.org/x/exp/slices"
)

type Attribute = attribute.Attribute

// Set is an ordered mapping of names to attributes.
type Set struct {
	entries *index.Index[*Attribute]
	degree  int

	lock     sync.Mutex
	accessed []string
	seen     map[string]Void

	frozen bool
}

var _ attribute.Owner = (*Set)(nil)

// New returns an empty set whose index has the given btree degree.
func New(degree int) (set *Set) {
	set = &Set{entries: index.New[*Attribute](degree), degree: degree, seen: map[string]Void{}}
	return
}

// Of returns a set of the given attributes, keyed by their names, in order.
// A later attribute replaces an earlier one of the same name in place.
func Of(degree int, attrs ...*Attribute) (set *Set) {
	set = New(degree)
	for _, attr := range attrs {
		set.entries.Put(attr.Name(), attr.Unbind())
	}
	return
}

func (set *Set) Resolve(name string) (attr *Attribute, ok bool) {
	return set.entries.Find(name)
}

func (set *Set) Access(name string) {
	set.lock.Lock()
	defer set.lock.Unlock()
	if _, ok := set.seen[name]; ok {
		return
	}
	set.seen[name] = Void{}
	set.accessed = append(set.accessed, name)
}

// Get returns a view of the attribute stored under the name, or a null
// attribute if the name is unknown.
func (set *Set) Get(name string) (attr *Attribute) {
	stored, ok := set.entries.Find(name)
	if !ok {
		attr = attribute.Null(name)
		return
	}
	attr = stored.Bind(set, name)
	return
}

// Fetch is Get with a fallback for unknown names. A nil fallback yields the
// null attribute.
func (set *Set) Fetch(name string, onMissing func(name string) *Attribute) (attr *Attribute) {
	if onMissing == nil || set.entries.Has(name) {
		attr = set.Get(name)
		return
	}
	attr = onMissing(name)
	return
}

// FetchValue returns the cast value of the named attribute. Unknown names
// yield nil without calling onUninitialized; uninitialized attributes yield
// the result of onUninitialized, if given.
func (set *Set) FetchValue(name string, onUninitialized func(name string) any) (value any, err error) {
	stored, ok := set.entries.Find(name)
	switch {
	case !ok:
	case !stored.Initialized():
		if onUninitialized != nil {
			value = onUninitialized(name)
		}
	default:
		value, err = stored.Bind(set, name).Value()
	}
	return
}

func missing(name string, op string) Error {
	return NewError(MissingAttribute, "name", name, "op", op).
		WithMessage("can't write unknown attribute `%s`", name)
}

func frozen(name string, op string) Error {
	return NewError(Frozen, "name", name, "op", op).
		WithMessage("can't modify frozen attributes")
}

// replace is the write path. The name must be known and the set unfrozen, in
// that order.
func (set *Set) replace(op string, name string, next func(current *Attribute) *Attribute) (err error) {
	current, ok := set.entries.Find(name)
	if !ok {
		err = missing(name, op)
		return
	}
	if set.frozen {
		err = frozen(name, op)
		return
	}
	set.entries.Put(name, next(current))
	return
}

func (set *Set) WriteFromUser(name string, raw any) error {
	return set.replace("writeFromUser", name, func(current *Attribute) *Attribute {
		return current.WithValueFromUser(raw)
	})
}

func (set *Set) WriteFromDatabase(name string, raw any) error {
	return set.replace("writeFromDatabase", name, func(current *Attribute) *Attribute {
		return current.WithValueFromDatabase(raw)
	})
}

func (set *Set) WriteCastValue(name string, value any) error {
	return set.replace("writeCastValue", name, func(current *Attribute) *Attribute {
		return current.WithCastValue(value)
	})
}

// Reset makes the named attribute uninitialized, keeping its type.
func (set *Set) Reset(name string) error {
	return set.replace("reset", name, func(current *Attribute) *Attribute {
		return attribute.NewUninitialized(current.Name(), current.Type())
	})
}

// IndexedAssign stores the attribute under the name, known or not. Views are
// stored as the attribute they resolve to.
func (set *Set) IndexedAssign(name string, attr *Attribute) (err error) {
	if set.frozen {
		err = frozen(name, "indexedAssign")
		return
	}
	if attr == nil {
		attr = attribute.Null(name)
	}
	set.entries.Put(name, attr.Unbind())
	return
}

// Keys returns the names of the initialized attributes in order.
func (set *Set) Keys() (keys []string) {
	keys = iterator.Reduce(set.entries.Iterator(), func(keys []string, entry index.Entry[*Attribute]) []string {
		if entry.Value.Initialized() {
			keys = append(keys, entry.Name)
		}
		return keys
	}, []string{})
	return
}

// HasKey is true if the name is known and initialized.
func (set *Set) HasKey(name string) bool {
	stored, ok := set.entries.Find(name)
	return ok && stored.Initialized()
}

// Pair is a name and its cast value.
type Pair struct {
	Name  string
	Value any
}

// ToPairs returns the cast values of the initialized attributes in order,
// marking each accessed. The first cast error is returned unchanged.
func (set *Set) ToPairs() (pairs []Pair, err error) {
	pairs = []Pair{}
	set.entries.Each(func(entry index.Entry[*Attribute]) bool {
		if !entry.Value.Initialized() {
			return true
		}
		var value any
		value, err = entry.Value.Bind(set, entry.Name).Value()
		if err != nil {
			return false
		}
		pairs = append(pairs, Pair{Name: entry.Name, Value: value})
		return true
	})
	if err != nil {
		pairs = nil
	}
	return
}

// ToMap is ToPairs as a map; use Keys for the order.
func (set *Set) ToMap() (values map[string]any, err error) {
	pairs, err := set.ToPairs()
	if err != nil {
		return
	}
	values = make(map[string]any, len(pairs))
	for _, pair := range pairs {
		values[pair.Name] = pair.Value
	}
	return
}

// ValuesBeforeTypeCast returns the raw values of all known attributes,
// initialized or not.
func (set *Set) ValuesBeforeTypeCast() (values map[string]any) {
	values = make(map[string]any, set.entries.Len())
	set.entries.Each(func(entry index.Entry[*Attribute]) bool {
		values[entry.Name] = entry.Value.ValueBeforeTypeCast()
		return true
	})
	return
}

// Accessed returns the names whose values have been read, in the order they
// were first read.
func (set *Set) Accessed() (names []string) {
	set.lock.Lock()
	names = slices.Clone(set.accessed)
	set.lock.Unlock()
	if names == nil {
		names = []string{}
	}
	return
}

// Map returns a new set with each attribute replaced by its transform. The
// transform receives standalone attributes. A nil result leaves the name
// uninitialized.
func (set *Set) Map(transform func(attr *Attribute) (*Attribute, error)) (mapped *Set, err error) {
	mapped = New(set.degree)
	iter := set.entries.Iterator()
	for iter.Next() {
		entry := iter.Value()
		var next *Attribute
		next, err = transform(entry.Value)
		if err != nil {
			iter.Stop()
			mapped = nil
			return
		}
		if next == nil {
			next = attribute.NewUninitialized(entry.Value.Name(), entry.Value.Type())
		}
		mapped.entries.Put(entry.Name, next.Unbind())
	}
	return
}

// Except returns a new set without the given names.
func (set *Set) Except(names ...string) (rest *Set) {
	rest = set.Dup()
	for _, name := range names {
		rest.entries.Delete(name)
	}
	rest.forget(names)
	return
}

func (set *Set) forget(names []string) {
	set.lock.Lock()
	defer set.lock.Unlock()
	for _, name := range names {
		delete(set.seen, name)
	}
	kept := set.accessed[:0]
	for _, name := range set.accessed {
		if _, ok := set.seen[name]; ok {
			kept = append(kept, name)
		}
	}
	set.accessed = kept
}

// Dup returns an unfrozen copy sharing the attributes. Replacing an entry in
// either set does not affect the other, but mutating a shared cached value
// in place is visible through both.
func (set *Set) Dup() (dup *Set) {
	set.lock.Lock()
	defer set.lock.Unlock()
	dup = &Set{
		entries:  set.entries.Clone(),
		degree:   set.degree,
		accessed: slices.Clone(set.accessed),
		seen:     make(map[string]Void, len(set.seen)),
	}
	for name := range set.seen {
		dup.seen[name] = Void{}
	}
	return
}

// DeepDup is Dup with every attribute deep copied, including cached values.
func (set *Set) DeepDup() (dup *Set) {
	dup = set.Dup()
	set.entries.Each(func(entry index.Entry[*Attribute]) bool {
		dup.entries.Put(entry.Name, entry.Value.DeepCopy())
		return true
	})
	return
}

// Freeze blocks all further writes to this set. Values may still be cast.
func (set *Set) Freeze() {
	set.frozen = true
}

func (set *Set) Frozen() bool {
	return set.frozen
}

// Equal is true if both sets hold equal attributes under the same names in
// the same order. Access tracking and frozenness are ignored.
func (set *Set) Equal(other *Set) bool {
	if set == nil || other == nil {
		return set == other
	}
	if set.entries.Len() != other.entries.Len() {
		return false
	}
	mine, theirs := set.entries.Iterator(), other.entries.Iterator()
	for mine.Next() && theirs.Next() {
		a, b := mine.Value(), theirs.Value()
		if a.Name != b.Name || !a.Value.Equal(b.Value) {
			return false
		}
	}
	return true
}

// Each visits views of the attributes in order until accept returns false.
// Accept may write to the set; names it adds are visited.
func (set *Set) Each(accept iterator.Accept[*Attribute]) {
	set.Iterator().Each(accept)
}

// Iterator returns a lazy iterator of views in order. Names added while
// iterating are visited.
func (set *Set) Iterator() *iterator.Iterator[*Attribute] {
	return iterator.Map(set.entries.Iterator(), func(entry index.Entry[*Attribute]) *Attribute {
		return entry.Value.Bind(set, entry.Name)
	})
}

// Names returns every known name in order, initialized or not.
func (set *Set) Names() []string {
	return set.entries.Names()
}

// Degree is the btree degree of the set's index.
func (set *Set) Degree() int {
	return set.degree
}

// Len is the number of known names.
func (set *Set) Len() int {
	return set.entries.Len()
}

// String renders the raw values, with - for uninitialized attributes.
func (set *Set) String() string {
	buf := bufferpool.Get()
	defer bufferpool.Put(buf)
	buf.WriteByte('{')
	set.entries.Each(func(entry index.Entry[*Attribute]) bool {
		if buf.Len() > 1 {
			buf.WriteString(", ")
		}
		buf.WriteString(entry.Name)
		buf.WriteByte('=')
		if entry.Value.Initialized() {
			fmt.Fprintf(buf, "%v", entry.Value.ValueBeforeTypeCast())
		} else {
			buf.WriteByte('-')
		}
		return true
	})
	buf.WriteByte('}')
	return buf.String()
}
