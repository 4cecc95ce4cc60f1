package tree

import (
	"bytes"

	dirstate_go "github.com/mzr/dirstate.go"
	"github.com/mzr/dirstate.go/store"
	"golang.org/x/xerrors"
)

// entry tag bytes of the on-disk node format
const (
	entryTagFile = byte('f')
	entryTagDir  = byte('d')
)

// nodeEntry is an entry in a directory, either a file or another
// directory. Exactly one of file, dir is non-nil
type nodeEntry struct {
	file Storable
	dir  *node
}

// node is the contents of one directory.
//
// id is the block id of the persisted form. It is valid only while hasID
// is set, which means the node and all its descendants are byte-identical
// to the persisted block. Any mutation on the path to a file clears it.
//
// entries is nil until loaded from the store. A node always has at least
// one of the two: a dirty node keeps its entries in memory, a clean node
// can always be reloaded from its id
type node struct {
	id      store.BlockID
	hasID   bool
	entries *entryMap
}

// newNode creates a new empty node. It has no id as it is not yet
// written to the store
func newNode() *node {
	return &node{entries: newEntryMap(0)}
}

// openNode creates a node for an existing block in the store. The
// entries are not loaded until the load method is called
func openNode(id store.BlockID) *node {
	return &node{id: id, hasID: true}
}

func (n *node) clearID() {
	n.id = 0
	n.hasID = false
}

// load materializes the node entries from the store if they are not
// loaded yet
func (n *node) load(view store.StoreView, newState StateFactory) error {
	if n.entries != nil {
		// Already loaded.
		return nil
	}
	dirstate_go.Assert(n.hasID, "node must have a valid id to be loaded")
	data, err := view.Read(n.id)
	if err != nil {
		return err
	}
	r := bytes.NewReader(data)
	var count uint32
	if err := dirstate_go.ReadUint32(r, &count); err != nil {
		return xerrors.Errorf("block %d: truncated child count: %w", n.id, ErrCorruptTree)
	}
	entries := newEntryMap(int(count))
	for i := uint32(0); i < count; i++ {
		name, e, err := readEntry(r, newState)
		if err != nil {
			return err
		}
		entries.insertHintEnd(name, e)
	}
	if r.Len() != 0 {
		return xerrors.Errorf("block %d: %d trailing bytes: %w", n.id, r.Len(), ErrCorruptTree)
	}
	if !entries.sorted() {
		return xerrors.Errorf("block %d: entries out of order: %w", n.id, ErrCorruptTree)
	}
	n.entries = entries
	return nil
}

// loadEntries gives access to the node entries, ensuring they are loaded first
func (n *node) loadEntries(view store.StoreView, newState StateFactory) (*entryMap, error) {
	if err := n.load(view, newState); err != nil {
		return nil, err
	}
	return n.entries, nil
}

// readEntry reads one entry from the stream. Returns the name and the entry
func readEntry(r *bytes.Reader, newState StateFactory) ([]byte, *nodeEntry, error) {
	tag, err := dirstate_go.ReadByte(r)
	if err != nil {
		return nil, nil, xerrors.Errorf("truncated entry: %w", ErrCorruptTree)
	}
	switch tag {
	case entryTagFile:
		state := newState()
		if err := state.Read(r); err != nil {
			// decode failures of the caller-supplied payload bubble unchanged
			return nil, nil, err
		}
		name, err := dirstate_go.ReadBytes32(r)
		if err != nil {
			return nil, nil, xerrors.Errorf("truncated file name: %w", ErrCorruptTree)
		}
		return name, &nodeEntry{file: state}, nil
	case entryTagDir:
		var id uint64
		if err := dirstate_go.ReadUint64(r, &id); err != nil {
			return nil, nil, xerrors.Errorf("truncated directory id: %w", ErrCorruptTree)
		}
		name, err := dirstate_go.ReadBytes32(r)
		if err != nil {
			return nil, nil, xerrors.Errorf("truncated directory name: %w", ErrCorruptTree)
		}
		return name, &nodeEntry{dir: openNode(store.BlockID(id))}, nil
	default:
		return nil, nil, xerrors.Errorf("unknown entry tag 0x%02x: %w", tag, ErrCorruptTree)
	}
}

// writeEntries serializes the child map, appends it to the store and
// records the returned id on the node. Child directories must already
// have ids assigned
func (n *node) writeEntries(st store.Store) error {
	dirstate_go.Assert(n.entries != nil, "node must have entries loaded before writing")
	var buf bytes.Buffer
	if err := dirstate_go.WriteUint32(&buf, uint32(n.entries.len())); err != nil {
		return err
	}
	for i := 0; i < n.entries.len(); i++ {
		name, e := n.entries.at(i)
		if e.dir != nil {
			dirstate_go.Assert(e.dir.hasID, "child directory must have an id before its parent is written")
			if err := dirstate_go.WriteByte(&buf, entryTagDir); err != nil {
				return err
			}
			if err := dirstate_go.WriteUint64(&buf, uint64(e.dir.id)); err != nil {
				return err
			}
		} else {
			if err := dirstate_go.WriteByte(&buf, entryTagFile); err != nil {
				return err
			}
			if err := e.file.Write(&buf); err != nil {
				return err
			}
		}
		if err := dirstate_go.WriteBytes32(&buf, name); err != nil {
			return err
		}
	}
	id, err := st.Append(buf.Bytes())
	if err != nil {
		return err
	}
	n.id = id
	n.hasID = true
	return nil
}

// writeFull writes the node and all its descendants to the store,
// depth-first post-order. Unloaded subtrees are loaded from oldView
// before being written to the new store
func (n *node) writeFull(st store.Store, oldView store.StoreView, newState StateFactory) error {
	entries, err := n.loadEntries(oldView, newState)
	if err != nil {
		return err
	}
	for i := 0; i < entries.len(); i++ {
		if _, e := entries.at(i); e.dir != nil {
			if err := e.dir.writeFull(st, oldView, newState); err != nil {
				return err
			}
		}
	}
	return n.writeEntries(st)
}

// writeDelta writes only the dirty nodes of the subtree to the store.
// Clean subtrees keep referring to their existing blocks
func (n *node) writeDelta(st store.Store) error {
	if n.hasID {
		// This node and its descendants have not been modified.
		return nil
	}
	// The entries were populated when the node was modified, no load needed.
	dirstate_go.Assert(n.entries != nil, "dirty node must have entries loaded")
	for i := 0; i < n.entries.len(); i++ {
		if _, e := n.entries.at(i); e.dir != nil {
			if err := e.dir.writeDelta(st); err != nil {
				return err
			}
		}
	}
	return n.writeEntries(st)
}

// visit calls the visitor for every file under this node in order. path
// holds the name components from the root down to this node
func (n *node) visit(view store.StoreView, newState StateFactory, path [][]byte, visitor VisitFunc) error {
	entries, err := n.loadEntries(view, newState)
	if err != nil {
		return err
	}
	for i := 0; i < entries.len(); i++ {
		name, e := entries.at(i)
		if e.dir != nil {
			if err := e.dir.visit(view, newState, append(path, name), visitor); err != nil {
				return err
			}
		} else {
			if err := visitor(append(path, name), e.file); err != nil {
				return err
			}
		}
	}
	return nil
}

// getFirst returns the lexicographically smallest file in the subtree
// under this node, with the path to it as a reversed stack of name
// components. A nil state means the subtree contains no files
func (n *node) getFirst(view store.StoreView, newState StateFactory) ([][]byte, Storable, error) {
	entries, err := n.loadEntries(view, newState)
	if err != nil {
		return nil, nil, err
	}
	for i := 0; i < entries.len(); i++ {
		name, e := entries.at(i)
		if e.dir != nil {
			sub, file, err := e.dir.getFirst(view, newState)
			if err != nil {
				return nil, nil, err
			}
			if file != nil {
				return append(sub, name), file, nil
			}
		} else {
			return [][]byte{name}, e.file, nil
		}
	}
	return nil, nil, nil
}

// getNext returns the first file strictly after name in this subtree,
// where name is the remaining path suffix that was valid at the last
// call within this subtree. A nil state means no further file here and
// the caller continues with its own entries
func (n *node) getNext(view store.StoreView, newState StateFactory, name []byte) ([][]byte, Storable, error) {
	// Find the entry within this list, and what the remainder of the path is.
	elem, path := splitKey(name)
	entries, err := n.loadEntries(view, newState)
	if err != nil {
		return nil, nil, err
	}
	// Scan entries from the resumption anchor on. The subpath obtained
	// from splitKey is only relevant while we are looking inside the
	// directory the anchor referred to.
	for i := entries.search(elem); i < entries.len(); i++ {
		entryName, e := entries.at(i)
		if e.dir != nil {
			if !bytes.Equal(elem, entryName) {
				// We have moved past the anchor directory, the rest of
				// the path is no longer relevant.
				path = nil
			}
			var sub [][]byte
			var file Storable
			if path != nil {
				sub, file, err = e.dir.getNext(view, newState, path)
			} else {
				sub, file, err = e.dir.getFirst(view, newState)
			}
			if err != nil {
				return nil, nil, err
			}
			if file != nil {
				return append(sub, entryName), file, nil
			}
		} else if !bytes.Equal(elem, entryName) {
			// Skip the anchor file itself, it has already been reported.
			return [][]byte{entryName}, e.file, nil
		}
	}
	return nil, nil, nil
}
