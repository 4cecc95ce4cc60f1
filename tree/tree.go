package tree

import (
	dirstate_go "github.com/mzr/dirstate.go"
	"github.com/mzr/dirstate.go/store"
)

// Keys are byte strings, not necessarily UTF-8. '/' separates path
// components; a trailing '/' marks a directory. Directory components
// within a key include their trailing '/'.

// VisitFunc receives each file during Visit: the path as a stack of name
// components from the root down, and the file state. Neither may be
// retained after the call returns
type VisitFunc func(path [][]byte, state Storable) error

// Tree is the root of the directory-state tree. The count of files in
// the tree is maintained for fast size determination.
//
// A Tree is a single-owner structure: no operation may run concurrently
// with another on the same Tree. Read operations take a StoreView, write
// operations a Store; the tree never retains either between calls.
//
// The tree does not persist its own root pointer. Callers checkpoint the
// (RootID, FileCount) pair after a write and pass both back to Open
type Tree struct {
	root      *node
	fileCount uint32
	newState  StateFactory
}

// New creates a new empty tree
func New(newState StateFactory) *Tree {
	return &Tree{
		root:     newNode(),
		newState: newState,
	}
}

// Open creates a tree that references an existing root node in the
// store. Nothing is read until an operation touches the tree
func Open(newState StateFactory, rootID store.BlockID, fileCount uint32) *Tree {
	return &Tree{
		root:      openNode(rootID),
		fileCount: fileCount,
		newState:  newState,
	}
}

// Clear drops all entries in the tree
func (t *Tree) Clear() {
	t.root = newNode()
	t.fileCount = 0
}

// RootID returns the block id of the root node. ok is false while the
// tree has unpersisted changes
func (t *Tree) RootID() (id store.BlockID, ok bool) {
	return t.root.id, t.root.hasID
}

// FileCount returns the number of files tracked by the tree
func (t *Tree) FileCount() uint32 {
	return t.fileCount
}

// WriteFull writes every reachable node to st, loading unloaded subtrees
// from oldView. Used for compaction and store migration
func (t *Tree) WriteFull(st store.Store, oldView store.StoreView) error {
	return t.root.writeFull(st, oldView, t.newState)
}

// WriteDelta writes only the nodes mutated since the last write. st must
// be the same store the clean subtrees were loaded from
func (t *Tree) WriteDelta(st store.Store) error {
	return t.root.writeDelta(st)
}

// Get returns the state of the file under key, nil if the key does not
// name a file. The returned state is the tree's copy: callers must Clone
// it before mutating
func (t *Tree) Get(view store.StoreView, key []byte) (Storable, error) {
	return t.root.get(view, t.newState, key)
}

// Visit calls visitor for every file in the tree in lexicographic key order
func (t *Tree) Visit(view store.StoreView, visitor VisitFunc) error {
	return t.root.visit(view, t.newState, nil, visitor)
}

// GetFirst returns the lexicographically smallest key in the tree and
// its state, or a nil state if the tree is empty
func (t *Tree) GetFirst(view store.StoreView) ([]byte, Storable, error) {
	path, file, err := t.root.getFirst(view, t.newState)
	if err != nil || file == nil {
		return nil, nil, err
	}
	return joinReversed(path), file, nil
}

// GetNext returns the first key strictly after key and its state, or a
// nil state when key was the last one. Repeatedly feeding the returned
// key back in visits every file exactly once in lexicographic order,
// provided the tree is not mutated between calls
func (t *Tree) GetNext(view store.StoreView, key []byte) ([]byte, Storable, error) {
	path, file, err := t.root.getNext(view, t.newState, key)
	if err != nil || file == nil {
		return nil, nil, err
	}
	return joinReversed(path), file, nil
}

// HasDir reports whether key names a directory. Keys of directories end
// with '/': a key without the trailing '/' never matches a directory,
// nor does a key with it ever match a file
func (t *Tree) HasDir(view store.StoreView, key []byte) (bool, error) {
	return t.root.hasDir(view, t.newState, key)
}

// Add inserts or updates the file under key, creating intermediate
// directories as needed. Adding a key that collides with an existing
// directory, or whose path prefix collides with an existing file, is a
// programmer error and panics: the caller's path normalization must
// reject such keys before they reach the tree
func (t *Tree) Add(view store.StoreView, key []byte, state Storable) error {
	added, err := t.root.add(view, t.newState, key, state)
	if err != nil {
		return err
	}
	if added {
		t.fileCount++
	}
	return nil
}

// Remove deletes the file under key, pruning directories that become
// empty. Keys naming nothing, or colliding with directories, remove
// nothing. Returns whether a file was removed
func (t *Tree) Remove(view store.StoreView, key []byte) (bool, error) {
	removed, _, err := t.root.remove(view, t.newState, key)
	if err != nil {
		return false, err
	}
	if removed {
		dirstate_go.Assert(t.fileCount > 0, "removed a file from a tree with file count 0")
		t.fileCount--
	}
	return removed, nil
}

// joinReversed concatenates a reversed stack of name components into a key
func joinReversed(path [][]byte) []byte {
	size := 0
	for _, p := range path {
		size += len(p)
	}
	ret := make([]byte, 0, size)
	for i := len(path) - 1; i >= 0; i-- {
		ret = append(ret, path[i]...)
	}
	return ret
}
