package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMapStore(t *testing.T) {
	ms := NewMapStore()
	id1, err := ms.Append([]byte("first"))
	require.NoError(t, err)
	id2, err := ms.Append([]byte("second"))
	require.NoError(t, err)
	require.NotEqualValues(t, id1, id2)

	data, err := ms.Read(id1)
	require.NoError(t, err)
	require.EqualValues(t, "first", string(data))
	data, err = ms.Read(id2)
	require.NoError(t, err)
	require.EqualValues(t, "second", string(data))

	_, err = ms.Read(BlockID(12345))
	require.ErrorIs(t, err, ErrBlockNotFound)
}

func TestMapStoreCopiesData(t *testing.T) {
	ms := NewMapStore()
	buf := []byte("mutable")
	id, err := ms.Append(buf)
	require.NoError(t, err)
	buf[0] = 'X'
	data, err := ms.Read(id)
	require.NoError(t, err)
	require.EqualValues(t, "mutable", string(data))
}

func TestNullStore(t *testing.T) {
	_, err := NullStore{}.Read(BlockID(0))
	require.ErrorIs(t, err, ErrBlockNotFound)
}
