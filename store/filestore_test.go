package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "blocks")
	fs, err := OpenFileStore(fname)
	require.NoError(t, err)
	defer fs.Close()

	id1, err := fs.Append([]byte("first block"))
	require.NoError(t, err)
	id2, err := fs.Append([]byte("second block"))
	require.NoError(t, err)
	require.NotEqualValues(t, id1, id2)

	data, err := fs.Read(id1)
	require.NoError(t, err)
	require.EqualValues(t, "first block", string(data))
	data, err = fs.Read(id2)
	require.NoError(t, err)
	require.EqualValues(t, "second block", string(data))
	require.NoError(t, fs.Sync())
}

func TestFileStoreReopen(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "blocks")
	fs, err := OpenFileStore(fname)
	require.NoError(t, err)
	id, err := fs.Append([]byte("durable"))
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	fs2, err := OpenFileStore(fname)
	require.NoError(t, err)
	defer fs2.Close()
	data, err := fs2.Read(id)
	require.NoError(t, err)
	require.EqualValues(t, "durable", string(data))

	// ids keep growing after reopen
	id2, err := fs2.Append([]byte("more"))
	require.NoError(t, err)
	require.Greater(t, uint64(id2), uint64(id))
}

func TestFileStoreUnknownBlock(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "blocks")
	fs, err := OpenFileStore(fname)
	require.NoError(t, err)
	defer fs.Close()

	_, err = fs.Read(BlockID(0)) // inside the magic
	require.ErrorIs(t, err, ErrBlockNotFound)
	_, err = fs.Read(BlockID(1 << 30))
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestFileStoreDetectsCorruption(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "blocks")
	fs, err := OpenFileStore(fname)
	require.NoError(t, err)
	id, err := fs.Append([]byte("precious bytes"))
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	// flip one data byte behind the store's back
	raw, err := os.ReadFile(fname)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	require.NoError(t, os.WriteFile(fname, raw, 0o644))

	fs2, err := OpenFileStore(fname)
	require.NoError(t, err)
	defer fs2.Close()
	_, err = fs2.Read(id)
	require.ErrorIs(t, err, ErrCorruptBlock)
}

func TestFileStoreBadMagic(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "blocks")
	require.NoError(t, os.WriteFile(fname, []byte("not a store"), 0o644))
	_, err := OpenFileStore(fname)
	require.ErrorIs(t, err, ErrCorruptBlock)
}
