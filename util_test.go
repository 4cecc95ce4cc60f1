package dirstate_go

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUintRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteUint16(&buf, 0xBEEF))
	require.NoError(t, WriteUint32(&buf, 0xDEADBEEF))
	require.NoError(t, WriteUint64(&buf, 0xCAFEBABEDEADBEEF))
	require.NoError(t, WriteByte(&buf, 0x7f))

	var v16 uint16
	var v32 uint32
	var v64 uint64
	require.NoError(t, ReadUint16(&buf, &v16))
	require.EqualValues(t, 0xBEEF, v16)
	require.NoError(t, ReadUint32(&buf, &v32))
	require.EqualValues(t, 0xDEADBEEF, v32)
	require.NoError(t, ReadUint64(&buf, &v64))
	require.EqualValues(t, uint64(0xCAFEBABEDEADBEEF), v64)
	b, err := ReadByte(&buf)
	require.NoError(t, err)
	require.EqualValues(t, 0x7f, b)
	require.EqualValues(t, 0, buf.Len())
}

func TestBigEndianLayout(t *testing.T) {
	require.EqualValues(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, Uint32To4Bytes(0xDEADBEEF))
	require.EqualValues(t, []byte{0, 0, 0, 0, 0, 0, 1, 2}, Uint64To8Bytes(258))
	v, err := Uint32From4Bytes([]byte{0, 0, 1, 0})
	require.NoError(t, err)
	require.EqualValues(t, 256, v)
	_, err = Uint32From4Bytes([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestBytesRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBytes16(&buf, []byte("short")))
	require.NoError(t, WriteBytes32(&buf, []byte("longer payload")))
	require.NoError(t, WriteBytes16(&buf, nil))

	data, err := ReadBytes16(&buf)
	require.NoError(t, err)
	require.EqualValues(t, "short", string(data))
	data, err = ReadBytes32(&buf)
	require.NoError(t, err)
	require.EqualValues(t, "longer payload", string(data))
	data, err = ReadBytes16(&buf)
	require.NoError(t, err)
	require.Empty(t, data)
}

func TestConcat(t *testing.T) {
	require.EqualValues(t, []byte("abc"), Concat("a", byte('b'), []byte("c")))
	require.Panics(t, func() {
		Concat(42)
	})
}
