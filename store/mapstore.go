package store

import (
	"golang.org/x/xerrors"
)

// MapStore is an in-memory append-only block store. Mostly used for testing
type MapStore struct {
	blocks [][]byte
}

var _ Store = &MapStore{}

func NewMapStore() *MapStore {
	return &MapStore{}
}

func (ms *MapStore) Read(id BlockID) ([]byte, error) {
	if uint64(id) >= uint64(len(ms.blocks)) {
		return nil, xerrors.Errorf("map store: read of block %d: %w", id, ErrBlockNotFound)
	}
	return ms.blocks[id], nil
}

func (ms *MapStore) Append(data []byte) (BlockID, error) {
	cp := make([]byte, len(data))
	copy(cp, data)
	ms.blocks = append(ms.blocks, cp)
	return BlockID(len(ms.blocks) - 1), nil
}

// Len returns the number of blocks appended so far
func (ms *MapStore) Len() int {
	return len(ms.blocks)
}
