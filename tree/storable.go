// Package tree implements the directory-state tree: a persistent,
// hierarchical map from byte-string file paths to per-file states, backed
// by an append-only block store.
//
// Directories are nodes, lazily materialized from the store on first
// access. Mutations mark the touched nodes dirty; WriteDelta appends only
// the dirty nodes while WriteFull rewrites every reachable node into a
// fresh store. File states are opaque to the tree: any type implementing
// Storable can be tracked.
package tree

import "io"

// Storable must be implemented by types stored as the file state in the tree.
// The encoding must be deterministic and self-delimiting: Read consumes
// exactly the bytes Write produced
type Storable interface {
	// Read deserializes the state from the stream, replacing the receiver's value
	Read(r io.Reader) error
	// Write serializes the state to the stream
	Write(w io.Writer) error
	// Clone returns an independent copy of the state
	Clone() Storable
}

// StateFactory allocates an empty file state to deserialize into.
// The tree calls it once per file entry while loading a node
type StateFactory func() Storable
