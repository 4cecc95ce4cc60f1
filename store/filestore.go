package store

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/xerrors"
)

// FileStore is an append-only block store backed by a single file.
//
// The file starts with an 8-byte magic. Each block record is
//
//	length:u32-be  checksum:20 bytes (blake2b-160 of the data)  data
//
// and the BlockID of a block is the file offset of its record. Records
// are never rewritten; compaction is done by writing a tree into a fresh
// store and switching the checkpoint to it.
type FileStore struct {
	f    *os.File
	size int64
	log  zerolog.Logger
}

var _ Store = &FileStore{}

var fileStoreMagic = []byte("dirstblk")

const blockHeaderLen = 4 + checksumLen
const checksumLen = 20

// FileStoreOption configures a FileStore
type FileStoreOption func(*FileStore)

// WithLogger attaches a logger. By default the store is silent
func WithLogger(log zerolog.Logger) FileStoreOption {
	return func(fs *FileStore) {
		fs.log = log
	}
}

// OpenFileStore opens an existing store file or creates an empty one
func OpenFileStore(fname string, opts ...FileStoreOption) (*FileStore, error) {
	f, err := os.OpenFile(fname, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, xerrors.Errorf("file store: open %s: %w", fname, err)
	}
	ret := &FileStore{f: f, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(ret)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, xerrors.Errorf("file store: stat %s: %w", fname, err)
	}
	if fi.Size() == 0 {
		if _, err = f.Write(fileStoreMagic); err != nil {
			f.Close()
			return nil, xerrors.Errorf("file store: write magic: %w", err)
		}
		ret.size = int64(len(fileStoreMagic))
	} else {
		var magic [8]byte
		if _, err = f.ReadAt(magic[:], 0); err != nil || string(magic[:]) != string(fileStoreMagic) {
			f.Close()
			return nil, xerrors.Errorf("file store: bad magic in %s: %w", fname, ErrCorruptBlock)
		}
		ret.size = fi.Size()
	}
	ret.log.Debug().Str("file", fname).Int64("size", ret.size).Msg("file store opened")
	return ret, nil
}

func (fs *FileStore) Read(id BlockID) ([]byte, error) {
	off := int64(id)
	if off < int64(len(fileStoreMagic)) || off+blockHeaderLen > fs.size {
		return nil, xerrors.Errorf("file store: read of block %d: %w", id, ErrBlockNotFound)
	}
	var hdr [blockHeaderLen]byte
	if _, err := fs.f.ReadAt(hdr[:], off); err != nil {
		return nil, xerrors.Errorf("file store: read header of block %d: %w", id, err)
	}
	length := binary.BigEndian.Uint32(hdr[:4])
	if off+blockHeaderLen+int64(length) > fs.size {
		return nil, xerrors.Errorf("file store: truncated block %d: %w", id, ErrCorruptBlock)
	}
	data := make([]byte, length)
	if _, err := fs.f.ReadAt(data, off+blockHeaderLen); err != nil && err != io.EOF {
		return nil, xerrors.Errorf("file store: read block %d: %w", id, err)
	}
	sum := checksum(data)
	if !bytes.Equal(sum[:], hdr[4:]) {
		return nil, xerrors.Errorf("file store: checksum mismatch in block %d: %w", id, ErrCorruptBlock)
	}
	return data, nil
}

func (fs *FileStore) Append(data []byte) (BlockID, error) {
	id := BlockID(fs.size)
	buf := make([]byte, blockHeaderLen+len(data))
	binary.BigEndian.PutUint32(buf[:4], uint32(len(data)))
	sum := checksum(data)
	copy(buf[4:blockHeaderLen], sum[:])
	copy(buf[blockHeaderLen:], data)
	if _, err := fs.f.WriteAt(buf, fs.size); err != nil {
		return 0, xerrors.Errorf("file store: append: %w", err)
	}
	fs.size += int64(len(buf))
	return id, nil
}

// Sync flushes appended blocks to stable storage
func (fs *FileStore) Sync() error {
	if err := fs.f.Sync(); err != nil {
		return xerrors.Errorf("file store: sync: %w", err)
	}
	return nil
}

func (fs *FileStore) Close() error {
	fs.log.Debug().Int64("size", fs.size).Msg("file store closed")
	return fs.f.Close()
}

// Size returns the current file size in bytes
func (fs *FileStore) Size() int64 {
	return fs.size
}

func checksum(data []byte) (ret [checksumLen]byte) {
	hash, _ := blake2b.New(checksumLen, nil)
	if _, err := hash.Write(data); err != nil {
		panic(err)
	}
	copy(ret[:], hash.Sum(nil))
	return
}
