// Package dirstate_go contains byte-level helpers shared by the dirstate
// packages (otherwise of general nature)
package dirstate_go

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// Size calculates byte size of the serializable object
func Size(o interface{ Write(w io.Writer) error }) (int, error) {
	var ret byteCounter
	if err := o.Write(&ret); err != nil {
		return 0, err
	}
	return int(ret), nil
}

// MustSize calculates byte size of the serializable object
func MustSize(o interface{ Write(w io.Writer) error }) int {
	ret, err := Size(o)
	if err != nil {
		panic(err)
	}
	return ret
}

// byteCounter simple byte counter as io.Writer
type byteCounter int

func (b *byteCounter) Write(p []byte) (n int, err error) {
	*b = byteCounter(int(*b) + len(p))
	return len(p), nil
}

// Assert simple assertion with message formatting
func Assert(cond bool, format string, p ...interface{}) {
	if !cond {
		panic(fmt.Sprintf(format, p...))
	}
}

// Concat concatenates bytes of byte-able objects
func Concat(par ...interface{}) []byte {
	var buf bytes.Buffer
	for _, p := range par {
		switch p := p.(type) {
		case []byte:
			buf.Write(p)
		case byte:
			buf.WriteByte(p)
		case string:
			buf.Write([]byte(p))
		case interface{ Bytes() []byte }:
			buf.Write(p.Bytes())
		default:
			Assert(false, "Concat: unsupported type %T", p)
		}
	}
	return buf.Bytes()
}

// All multi-byte integers on the wire are big-endian.

func ReadByte(r io.Reader) (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func WriteByte(w io.Writer, val byte) error {
	_, err := w.Write([]byte{val})
	return err
}

func ReadUint16(r io.Reader, pval *uint16) error {
	var tmp2 [2]byte
	if _, err := io.ReadFull(r, tmp2[:]); err != nil {
		return err
	}
	*pval = binary.BigEndian.Uint16(tmp2[:])
	return nil
}

func WriteUint16(w io.Writer, val uint16) error {
	var tmp2 [2]byte
	binary.BigEndian.PutUint16(tmp2[:], val)
	_, err := w.Write(tmp2[:])
	return err
}

func ReadUint32(r io.Reader, pval *uint32) error {
	var tmp4 [4]byte
	if _, err := io.ReadFull(r, tmp4[:]); err != nil {
		return err
	}
	*pval = MustUint32From4Bytes(tmp4[:])
	return nil
}

func WriteUint32(w io.Writer, val uint32) error {
	_, err := w.Write(Uint32To4Bytes(val))
	return err
}

func Uint32To4Bytes(val uint32) []byte {
	var tmp4 [4]byte
	binary.BigEndian.PutUint32(tmp4[:], val)
	return tmp4[:]
}

func Uint32From4Bytes(b []byte) (uint32, error) {
	if len(b) != 4 {
		return 0, errors.New("len(b) != 4")
	}
	return binary.BigEndian.Uint32(b), nil
}

func MustUint32From4Bytes(b []byte) uint32 {
	ret, err := Uint32From4Bytes(b)
	if err != nil {
		panic(err)
	}
	return ret
}

func ReadUint64(r io.Reader, pval *uint64) error {
	var tmp8 [8]byte
	if _, err := io.ReadFull(r, tmp8[:]); err != nil {
		return err
	}
	*pval = binary.BigEndian.Uint64(tmp8[:])
	return nil
}

func WriteUint64(w io.Writer, val uint64) error {
	_, err := w.Write(Uint64To8Bytes(val))
	return err
}

func Uint64To8Bytes(val uint64) []byte {
	var tmp8 [8]byte
	binary.BigEndian.PutUint64(tmp8[:], val)
	return tmp8[:]
}

func Uint64From8Bytes(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, errors.New("len(b) != 8")
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadBytes16 reads a byte slice prefixed with its uint16 big-endian length
func ReadBytes16(r io.Reader) ([]byte, error) {
	var length uint16
	if err := ReadUint16(r, &length); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}
	ret := make([]byte, length)
	if _, err := io.ReadFull(r, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// WriteBytes16 writes a byte slice prefixed with its uint16 big-endian length
func WriteBytes16(w io.Writer, data []byte) error {
	if len(data) > math.MaxUint16 {
		panic(fmt.Sprintf("WriteBytes16: too long data (%v)", len(data)))
	}
	if err := WriteUint16(w, uint16(len(data))); err != nil {
		return err
	}
	if len(data) != 0 {
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}

// ReadBytes32 reads a byte slice prefixed with its uint32 big-endian length
func ReadBytes32(r io.Reader) ([]byte, error) {
	var length uint32
	if err := ReadUint32(r, &length); err != nil {
		return nil, err
	}
	if length == 0 {
		return []byte{}, nil
	}
	ret := make([]byte, length)
	if _, err := io.ReadFull(r, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// WriteBytes32 writes a byte slice prefixed with its uint32 big-endian length
func WriteBytes32(w io.Writer, data []byte) error {
	if uint64(len(data)) > math.MaxUint32 {
		panic(fmt.Sprintf("WriteBytes32: too long data (%v)", len(data)))
	}
	if err := WriteUint32(w, uint32(len(data))); err != nil {
		return err
	}
	if len(data) != 0 {
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return nil
}
