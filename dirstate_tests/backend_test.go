package dirstate_tests

import (
	"path/filepath"
	"testing"

	"github.com/mzr/dirstate.go/filestate"
	"github.com/mzr/dirstate.go/store"
	"github.com/mzr/dirstate.go/tree"
	"github.com/stretchr/testify/require"
)

// the durable backends run the same lifecycle: populate, delta-write,
// close, reopen, read back

func TestTreeOverFileStore(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "blocks")
	fs, err := store.OpenFileStore(fname)
	require.NoError(t, err)

	tr := tree.New(filestate.Factory)
	populate(t, tr, fs)
	require.NoError(t, tr.WriteDelta(fs))
	require.NoError(t, fs.Sync())
	rootID, ok := tr.RootID()
	require.True(t, ok)
	count := tr.FileCount()
	require.NoError(t, fs.Close())

	fs2, err := store.OpenFileStore(fname)
	require.NoError(t, err)
	defer fs2.Close()
	tr2 := tree.Open(filestate.Factory, rootID, count)
	require.True(t, state(6).Equal(mustGet(t, tr2, fs2, "dirB/subdira/subsubdirz/file7")))
	countConservation(t, tr2, fs2)
}

func TestTreeOverBoltStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")
	bs, err := store.OpenBoltStore(path)
	require.NoError(t, err)

	tr := tree.New(filestate.Factory)
	populate(t, tr, bs)
	require.NoError(t, tr.WriteDelta(bs))
	rootID, ok := tr.RootID()
	require.True(t, ok)
	count := tr.FileCount()
	require.NoError(t, bs.Close())

	bs2, err := store.OpenBoltStore(path)
	require.NoError(t, err)
	defer bs2.Close()
	tr2 := tree.Open(filestate.Factory, rootID, count)
	require.True(t, state(0).Equal(mustGet(t, tr2, bs2, "dirA/subdira/file1")))
	countConservation(t, tr2, bs2)
}

// migrating between backend kinds only moves blocks, the tree is
// oblivious to what it is stored on
func TestWriteFullAcrossBackends(t *testing.T) {
	ms := store.NewMapStore()
	tr := tree.New(filestate.Factory)
	populate(t, tr, ms)
	require.NoError(t, tr.WriteDelta(ms))

	fname := filepath.Join(t.TempDir(), "blocks")
	fs, err := store.OpenFileStore(fname)
	require.NoError(t, err)
	defer fs.Close()
	require.NoError(t, tr.WriteFull(fs, ms))
	rootID, ok := tr.RootID()
	require.True(t, ok)

	tr2 := tree.Open(filestate.Factory, rootID, tr.FileCount())
	require.True(t, state(15).Equal(mustGet(t, tr2, fs, "file16")))
}
