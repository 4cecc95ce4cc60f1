package tree

import (
	"bytes"
	"sort"
)

// entryKV is one name/entry pair of an entryMap
type entryKV struct {
	name  []byte
	entry *nodeEntry
}

// entryMap is the ordered child map of a node: a slice of entries sorted
// by name with binary-search lookup. Nodes are small enough in practice
// (one working copy directory) that a sorted slice beats a real map for
// both memory and ordered scans
type entryMap struct {
	kv []entryKV
}

func newEntryMap(capacity int) *entryMap {
	return &entryMap{kv: make([]entryKV, 0, capacity)}
}

func (m *entryMap) len() int {
	return len(m.kv)
}

func (m *entryMap) at(i int) ([]byte, *nodeEntry) {
	return m.kv[i].name, m.kv[i].entry
}

// search returns the index of the first entry with name >= the argument
func (m *entryMap) search(name []byte) int {
	return sort.Search(len(m.kv), func(i int) bool {
		return bytes.Compare(m.kv[i].name, name) >= 0
	})
}

// get returns the entry stored under name, or nil
func (m *entryMap) get(name []byte) *nodeEntry {
	i := m.search(name)
	if i < len(m.kv) && bytes.Equal(m.kv[i].name, name) {
		return m.kv[i].entry
	}
	return nil
}

// insert adds an entry keeping the map sorted, replacing an existing
// entry with the same name
func (m *entryMap) insert(name []byte, e *nodeEntry) {
	i := m.search(name)
	if i < len(m.kv) && bytes.Equal(m.kv[i].name, name) {
		m.kv[i].entry = e
		return
	}
	m.kv = append(m.kv, entryKV{})
	copy(m.kv[i+1:], m.kv[i:])
	m.kv[i] = entryKV{name: name, entry: e}
}

// insertHintEnd appends an entry, assuming its name sorts after every
// entry present. Used while loading nodes, whose on-disk entries are
// already in ascending order
func (m *entryMap) insertHintEnd(name []byte, e *nodeEntry) {
	m.kv = append(m.kv, entryKV{name: name, entry: e})
}

// remove deletes the entry stored under name, if present
func (m *entryMap) remove(name []byte) {
	i := m.search(name)
	if i < len(m.kv) && bytes.Equal(m.kv[i].name, name) {
		m.kv = append(m.kv[:i], m.kv[i+1:]...)
	}
}

// sorted reports whether entry names are in strictly ascending order.
// Load validates this because insertHintEnd trusts the on-disk order
func (m *entryMap) sorted() bool {
	for i := 1; i < len(m.kv); i++ {
		if bytes.Compare(m.kv[i-1].name, m.kv[i].name) >= 0 {
			return false
		}
	}
	return true
}
