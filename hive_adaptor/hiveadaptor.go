// Package hive_adaptor exposes a key/value store implemented in the
// `hive.go` repository (badger, mapdb, rocksdb) as an append-only block
// store for the dirstate tree
package hive_adaptor

import (
	"encoding/binary"
	"errors"

	"github.com/iotaledger/hive.go/core/kvstore"
	dirstate_go "github.com/mzr/dirstate.go"
	"github.com/mzr/dirstate.go/store"
	"golang.org/x/xerrors"
)

// key layout inside the backing KVStore
var (
	keyNextID   = []byte{'n'}
	prefixBlock = byte('b')
)

// HiveBlockStore adapts a partition of a hive.go KVStore to store.Store.
// Blocks live under a 'b' byte followed by the 8-byte big-endian id; the next id to assign
// is kept in the store so reopening continues the sequence
type HiveBlockStore struct {
	kvs    kvstore.KVStore
	nextID uint64
}

var _ store.Store = &HiveBlockStore{}

// NewHiveBlockStore wraps kvs, reading the persisted id sequence if present
func NewHiveBlockStore(kvs kvstore.KVStore) (*HiveBlockStore, error) {
	ret := &HiveBlockStore{kvs: kvs}
	v, err := kvs.Get(keyNextID)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return ret, nil
	}
	if err != nil {
		return nil, xerrors.Errorf("hive block store: read id sequence: %w", err)
	}
	ret.nextID, err = dirstate_go.Uint64From8Bytes(v)
	if err != nil {
		return nil, xerrors.Errorf("hive block store: bad id sequence: %w", store.ErrCorruptBlock)
	}
	return ret, nil
}

func (bs *HiveBlockStore) Read(id store.BlockID) ([]byte, error) {
	v, err := bs.kvs.Get(blockKey(id))
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return nil, xerrors.Errorf("hive block store: read of block %d: %w", id, store.ErrBlockNotFound)
	}
	if err != nil {
		return nil, xerrors.Errorf("hive block store: read of block %d: %w", id, err)
	}
	return v, nil
}

func (bs *HiveBlockStore) Append(data []byte) (store.BlockID, error) {
	id := store.BlockID(bs.nextID)
	if err := bs.kvs.Set(blockKey(id), data); err != nil {
		return 0, xerrors.Errorf("hive block store: append: %w", err)
	}
	bs.nextID++
	if err := bs.kvs.Set(keyNextID, dirstate_go.Uint64To8Bytes(bs.nextID)); err != nil {
		return 0, xerrors.Errorf("hive block store: persist id sequence: %w", err)
	}
	return id, nil
}

// Flush forces buffered writes of the backing store to disk
func (bs *HiveBlockStore) Flush() error {
	return bs.kvs.Flush()
}

func blockKey(id store.BlockID) []byte {
	key := make([]byte, 9)
	key[0] = prefixBlock
	binary.BigEndian.PutUint64(key[1:], uint64(id))
	return key
}
