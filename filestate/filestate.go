// Package filestate provides the per-file record a version control
// system tracks for each path in its working copy. It is the canonical
// payload of the dirstate tree, though the tree accepts any
// tree.Storable implementation
package filestate

import (
	"fmt"
	"io"

	dirstate_go "github.com/mzr/dirstate.go"
	"github.com/mzr/dirstate.go/tree"
)

// Well-known state bytes
const (
	StateNormal  = byte('n')
	StateAdded   = byte('a')
	StateRemoved = byte('r')
	StateMerged  = byte('m')
	StateUnknown = byte('?')
)

// FileState holds the tracked metadata of one file: the tracking state,
// the file mode, the size in bytes and the modification time in seconds.
// Size and Mtime are signed: negative values mark unknown or
// need-to-check entries
type FileState struct {
	State byte
	Mode  uint32
	Size  int32
	Mtime int32
}

var _ tree.Storable = &FileState{}

// New creates a FileState with the given fields
func New(state byte, mode uint32, size, mtime int32) *FileState {
	return &FileState{State: state, Mode: mode, Size: size, Mtime: mtime}
}

// Write serializes the state as 13 bytes: state byte, then mode, size
// and mtime big-endian
func (fs *FileState) Write(w io.Writer) error {
	if err := dirstate_go.WriteByte(w, fs.State); err != nil {
		return err
	}
	if err := dirstate_go.WriteUint32(w, fs.Mode); err != nil {
		return err
	}
	if err := dirstate_go.WriteUint32(w, uint32(fs.Size)); err != nil {
		return err
	}
	return dirstate_go.WriteUint32(w, uint32(fs.Mtime))
}

// Read replaces the receiver's value with the next 13 bytes of the stream
func (fs *FileState) Read(r io.Reader) error {
	state, err := dirstate_go.ReadByte(r)
	if err != nil {
		return err
	}
	var mode, size, mtime uint32
	if err := dirstate_go.ReadUint32(r, &mode); err != nil {
		return err
	}
	if err := dirstate_go.ReadUint32(r, &size); err != nil {
		return err
	}
	if err := dirstate_go.ReadUint32(r, &mtime); err != nil {
		return err
	}
	fs.State = state
	fs.Mode = mode
	fs.Size = int32(size)
	fs.Mtime = int32(mtime)
	return nil
}

// Clone returns an independent copy
func (fs *FileState) Clone() tree.Storable {
	cp := *fs
	return &cp
}

// Factory allocates an empty FileState. Pass it to tree.New / tree.Open
func Factory() tree.Storable {
	return &FileState{}
}

func (fs *FileState) String() string {
	return fmt.Sprintf("%c mode=%o size=%d mtime=%d", fs.State, fs.Mode, fs.Size, fs.Mtime)
}

// Equal reports whether both states hold the same fields
func (fs *FileState) Equal(other *FileState) bool {
	return other != nil && *fs == *other
}
