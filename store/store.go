// Package store defines the append-only block store consumed by the
// dirstate tree, together with several backends: an in-memory map store
// for tests, a single-file append-only store and a bbolt-backed store.
//
// A block is an opaque byte sequence. The store assigns a BlockID on
// append; blocks are immutable once written and a later Read must return
// the appended bytes byte-identically.
package store

import (
	"golang.org/x/xerrors"
)

// BlockID identifies one appended block for the life of the store
type BlockID uint64

// sentinel errors of all store backends
var (
	ErrBlockNotFound = xerrors.New("block store: block not found")
	ErrCorruptBlock  = xerrors.New("block store: corrupt block")
)

// StoreView is the read-only capability of a block store
type StoreView interface {
	// Read retrieves the block appended under id
	Read(id BlockID) ([]byte, error)
}

// Store is the read/write capability: StoreView plus append
type Store interface {
	StoreView
	// Append adds an immutable block and returns its assigned id
	Append(data []byte) (BlockID, error)
}

// NullStore fails all reads. It serves as the source view when writing
// out a tree that has never been persisted
type NullStore struct{}

var _ StoreView = NullStore{}

func (NullStore) Read(id BlockID) ([]byte, error) {
	return nil, xerrors.Errorf("null store: read of block %d: %w", id, ErrBlockNotFound)
}
