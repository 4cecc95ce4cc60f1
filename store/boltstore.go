package store

import (
	"encoding/binary"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"
)

// BoltStore keeps blocks in a bbolt database, one bucket, keys are the
// 8-byte big-endian block ids drawn from the bucket sequence. Useful when
// the checkpoint and the blocks should live in one transactional file
type BoltStore struct {
	db *bolt.DB
}

var _ Store = &BoltStore{}

var bucketBlocks = []byte("blocks")

// OpenBoltStore opens (or creates) a bbolt-backed block store
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, xerrors.Errorf("bolt store: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketBlocks)
		return err
	})
	if err != nil {
		db.Close()
		return nil, xerrors.Errorf("bolt store: create bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

func (bs *BoltStore) Read(id BlockID) ([]byte, error) {
	var ret []byte
	err := bs.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketBlocks).Get(blockKey(id))
		if v == nil {
			return xerrors.Errorf("bolt store: read of block %d: %w", id, ErrBlockNotFound)
		}
		ret = make([]byte, len(v))
		copy(ret, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (bs *BoltStore) Append(data []byte) (BlockID, error) {
	var id BlockID
	err := bs.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketBlocks)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = BlockID(seq)
		return b.Put(blockKey(id), data)
	})
	if err != nil {
		return 0, xerrors.Errorf("bolt store: append: %w", err)
	}
	return id, nil
}

func (bs *BoltStore) Close() error {
	return bs.db.Close()
}

func blockKey(id BlockID) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], uint64(id))
	return key[:]
}
