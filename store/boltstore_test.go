package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoltStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blocks.db")
	bs, err := OpenBoltStore(path)
	require.NoError(t, err)

	id1, err := bs.Append([]byte("first"))
	require.NoError(t, err)
	id2, err := bs.Append([]byte("second"))
	require.NoError(t, err)
	require.NotEqualValues(t, id1, id2)

	data, err := bs.Read(id1)
	require.NoError(t, err)
	require.EqualValues(t, "first", string(data))

	_, err = bs.Read(BlockID(999999))
	require.ErrorIs(t, err, ErrBlockNotFound)
	require.NoError(t, bs.Close())

	// ids survive reopen
	bs2, err := OpenBoltStore(path)
	require.NoError(t, err)
	defer bs2.Close()
	data, err = bs2.Read(id2)
	require.NoError(t, err)
	require.EqualValues(t, "second", string(data))
	id3, err := bs2.Append([]byte("third"))
	require.NoError(t, err)
	require.Greater(t, uint64(id3), uint64(id2))
}
