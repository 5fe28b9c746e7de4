package attrset

import (
	"github.com/dball/lazyattrs/internal/attribute"
	"github.com/dball/lazyattrs/internal/index"
)

// Entry is the snapshot of an attribute stored under a name. Key is empty
// when the name is the attribute's own.
type Entry struct {
	Key string `json:"key,omitempty" codec:"key,omitempty"`
	attribute.Snapshot
}

// Snapshot is the serializable, ordered state of a set. It shares nothing
// with the set it was taken from except immutable raw values.
type Snapshot struct {
	Entries []Entry `json:"entries" codec:"entries"`
}

// Snapshot captures the attributes in order. Access tracking and frozenness
// are not captured.
func (set *Set) Snapshot() (snapshot Snapshot) {
	snapshot.Entries = make([]Entry, 0, set.entries.Len())
	set.entries.Each(func(entry index.Entry[*Attribute]) bool {
		snap := Entry{Snapshot: entry.Value.Snapshot()}
		if snap.Name != entry.Name {
			snap.Key = entry.Name
		}
		snapshot.Entries = append(snapshot.Entries, snap)
		return true
	})
	return
}

// Portable returns a snapshot whose entries are all portable.
func (snapshot Snapshot) Portable() (portable Snapshot, err error) {
	portable.Entries = make([]Entry, len(snapshot.Entries))
	for i, entry := range snapshot.Entries {
		portable.Entries[i].Key = entry.Key
		portable.Entries[i].Snapshot, err = entry.Snapshot.Portable()
		if err != nil {
			portable = Snapshot{}
			return
		}
	}
	return
}

// Restore reconstructs a set of the given btree degree from a snapshot,
// resolving type idents with the resolver. Degrees below 2 use
// index.DefaultDegree.
func Restore(snapshot Snapshot, resolver attribute.Resolver, degree int) (set *Set, err error) {
	if degree < 2 {
		degree = index.DefaultDegree
	}
	set = New(degree)
	for _, entry := range snapshot.Entries {
		var attr *Attribute
		attr, err = attribute.Restore(entry.Snapshot, resolver)
		if err != nil {
			set = nil
			return
		}
		key := entry.Key
		if key == "" {
			key = entry.Name
		}
		set.entries.Put(key, attr)
	}
	return
}

// Idents returns the type idents the snapshot refers to, in order of first
// appearance. Entries with unnamed types are skipped.
func (snapshot Snapshot) Idents() (idents []string) {
	seen := map[string]bool{}
	for _, entry := range snapshot.Entries {
		if entry.Type != "" && !seen[entry.Type] {
			seen[entry.Type] = true
			idents = append(idents, entry.Type)
		}
	}
	return
}
