package tree

import (
	"github.com/mzr/dirstate.go/store"
)

// copyName detaches an entry name from the caller's key buffer
func copyName(name []byte) []byte {
	return append([]byte(nil), name...)
}

// splitKey splits a key into its first path component and the remaining
// path (nil if there is none). Directory components keep their trailing
// '/'. The last byte never splits, so directory keys like "dirA/" do not
// degenerate into a component with an empty remainder
func splitKey(key []byte) (elem, path []byte) {
	for i := 0; i < len(key)-1; i++ {
		if key[i] == '/' {
			return key[:i+1], key[i+1:]
		}
	}
	return key, nil
}

// recurseKind classifies one step of path traversal
type recurseKind int

const (
	// the component names an existing subdirectory and the path continues
	recurseDirectory recurseKind = iota
	// the full key names an existing subdirectory
	recurseExactDirectory
	// the path continues but no subdirectory with this name exists
	recurseMissingDirectory
	// the full key names an existing file
	recurseFile
	// the full key names nothing in this directory
	recurseMissingFile
	// the path continues but a file occupies the component name
	recurseConflictingFile
)

// pathRecurse is the result of classifying a key against one node. All
// four lookup and mutation operations dispatch on it, which keeps the
// trailing-'/' handling in exactly one place
type pathRecurse struct {
	kind  recurseKind
	elem  []byte
	path  []byte
	entry *nodeEntry
}

// pathRecurse classifies the key for the current node, loading the node
// entries if necessary
func (n *node) pathRecurse(view store.StoreView, newState StateFactory, name []byte) (pathRecurse, error) {
	elem, path := splitKey(name)
	entries, err := n.loadEntries(view, newState)
	if err != nil {
		return pathRecurse{}, err
	}
	e := entries.get(elem)
	if path != nil {
		// The name is for a subdirectory.
		switch {
		case e == nil:
			return pathRecurse{kind: recurseMissingDirectory, elem: elem, path: path}, nil
		case e.dir != nil:
			return pathRecurse{kind: recurseDirectory, elem: elem, path: path, entry: e}, nil
		default:
			return pathRecurse{kind: recurseConflictingFile, elem: elem, path: path, entry: e}, nil
		}
	}
	// The name is for a file or directory in this directory.
	switch {
	case e == nil:
		return pathRecurse{kind: recurseMissingFile, elem: elem}, nil
	case e.dir != nil:
		return pathRecurse{kind: recurseExactDirectory, elem: elem, entry: e}, nil
	default:
		return pathRecurse{kind: recurseFile, elem: elem, entry: e}, nil
	}
}

// get returns the state of a file, nil if the key does not name a file
func (n *node) get(view store.StoreView, newState StateFactory, name []byte) (Storable, error) {
	pr, err := n.pathRecurse(view, newState, name)
	if err != nil {
		return nil, err
	}
	switch pr.kind {
	case recurseDirectory:
		return pr.entry.dir.get(view, newState, pr.path)
	case recurseFile:
		return pr.entry.file, nil
	default:
		return nil, nil
	}
}

// hasDir reports whether the key names a directory
func (n *node) hasDir(view store.StoreView, newState StateFactory, name []byte) (bool, error) {
	pr, err := n.pathRecurse(view, newState, name)
	if err != nil {
		return false, err
	}
	switch pr.kind {
	case recurseDirectory:
		return pr.entry.dir.hasDir(view, newState, pr.path)
	case recurseExactDirectory:
		return true, nil
	default:
		return false, nil
	}
}

// add inserts or updates a file. The name may contain a path, in which
// case the necessary subdirectories are created. Returns whether a new
// file came into existence (as opposed to an update of an existing one)
func (n *node) add(view store.StoreView, newState StateFactory, name []byte, state Storable) (bool, error) {
	var newName []byte
	var newEntry *nodeEntry
	var fileAdded bool
	pr, err := n.pathRecurse(view, newState, name)
	if err != nil {
		return false, err
	}
	switch pr.kind {
	case recurseDirectory:
		// The file is in a subdirectory. Add it there.
		fileAdded, err = pr.entry.dir.add(view, newState, pr.path, state)
		if err != nil {
			return false, err
		}
	case recurseExactDirectory:
		panic("adding file which matches the name of a directory")
	case recurseMissingDirectory:
		// The file is in a new subdirectory. Create it and add the file.
		sub := newNode()
		fileAdded, err = sub.add(view, newState, pr.path, state)
		if err != nil {
			return false, err
		}
		newName, newEntry = copyName(pr.elem), &nodeEntry{dir: sub}
	case recurseFile:
		// The file is in this directory. Update it.
		pr.entry.file = state.Clone()
	case recurseMissingFile:
		// The file belongs in this directory. Add it.
		newName, newEntry = copyName(pr.elem), &nodeEntry{file: state.Clone()}
		fileAdded = true
	case recurseConflictingFile:
		panic("adding file with path prefix that matches the name of a file")
	}
	if newEntry != nil {
		// Entries were loaded by pathRecurse above.
		n.entries.insert(newName, newEntry)
	}
	n.clearID()
	return fileAdded, nil
}

// remove deletes a file. The name may contain a path, in which case
// subdirectories that become empty are removed from their parents.
// Returns whether a file was removed and whether this directory is now
// empty
func (n *node) remove(view store.StoreView, newState StateFactory, name []byte) (fileRemoved, nowEmpty bool, err error) {
	pr, err := n.pathRecurse(view, newState, name)
	if err != nil {
		return false, false, err
	}
	var removeName []byte
	switch pr.kind {
	case recurseDirectory:
		var empty bool
		fileRemoved, empty, err = pr.entry.dir.remove(view, newState, pr.path)
		if err != nil {
			return false, false, err
		}
		if empty {
			removeName = pr.elem
		}
	case recurseFile:
		fileRemoved = true
		removeName = pr.elem
	default:
		// Observing a collision or a missing path is not an error here.
	}
	if removeName != nil {
		n.entries.remove(removeName)
		n.clearID()
	}
	if fileRemoved {
		n.clearID()
	}
	return fileRemoved, n.entries.len() == 0, nil
}
