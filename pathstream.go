package dirstate_go

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"
)

// Interfaces and implementations for writing/reading persistent streams of
// path/state pairs. The bench tool dumps generated working copies to files
// in this format and replays them when building trees.

// StreamWriter represents an interface to write a sequence of path/state pairs
type StreamWriter interface {
	// Write writes one path/state pair
	Write(path, state []byte) error
	// Stats return num pairs and num bytes so far
	Stats() (int, int)
}

// StreamIterator is an interface to iterate a stream of path/state pairs
type StreamIterator interface {
	Iterate(func(path, state []byte) bool) error
}

// BinaryStreamWriter writes a stream of path/state pairs in binary format.
// Each path is prefixed with 2 bytes of size, each state with 4 bytes of size
var _ StreamWriter = &BinaryStreamWriter{}

type BinaryStreamWriter struct {
	w         io.Writer
	pairCount int
	byteCount int
}

func NewBinaryStreamWriter(w io.Writer) *BinaryStreamWriter {
	return &BinaryStreamWriter{w: w}
}

func (b *BinaryStreamWriter) Write(path, state []byte) error {
	if err := WriteBytes16(b.w, path); err != nil {
		return err
	}
	b.byteCount += len(path) + 2
	if err := WriteBytes32(b.w, state); err != nil {
		return err
	}
	b.byteCount += len(state) + 4
	b.pairCount++
	return nil
}

func (b *BinaryStreamWriter) Stats() (int, int) {
	return b.pairCount, b.byteCount
}

// BinaryStreamIterator deserializes a stream of path/state pairs from io.Reader
var _ StreamIterator = &BinaryStreamIterator{}

type BinaryStreamIterator struct {
	r io.Reader
}

func NewBinaryStreamIterator(r io.Reader) *BinaryStreamIterator {
	return &BinaryStreamIterator{r: r}
}

func (b BinaryStreamIterator) Iterate(fun func(path []byte, state []byte) bool) error {
	for {
		k, err := ReadBytes16(b.r)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		v, err := ReadBytes32(b.r)
		if err != nil {
			return err
		}
		if !fun(k, v) {
			return nil
		}
	}
}

// BinaryStreamFileWriter is a BinaryStreamWriter with a file as the backend
var _ StreamWriter = &BinaryStreamFileWriter{}

type BinaryStreamFileWriter struct {
	*BinaryStreamWriter
	File *os.File
}

// CreatePathStreamFile creates a new BinaryStreamFileWriter
func CreatePathStreamFile(fname string) (*BinaryStreamFileWriter, error) {
	file, err := os.Create(fname)
	if err != nil {
		return nil, err
	}
	return &BinaryStreamFileWriter{
		BinaryStreamWriter: NewBinaryStreamWriter(file),
		File:               file,
	}, nil
}

func (fw *BinaryStreamFileWriter) Close() error {
	return fw.File.Close()
}

// BinaryStreamFileIterator is a BinaryStreamIterator with a file as the backend
var _ StreamIterator = &BinaryStreamFileIterator{}

type BinaryStreamFileIterator struct {
	*BinaryStreamIterator
	File *os.File
}

// OpenPathStreamFile opens an existing file with a path/state stream for reading
func OpenPathStreamFile(fname string) (*BinaryStreamFileIterator, error) {
	file, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	return &BinaryStreamFileIterator{
		BinaryStreamIterator: NewBinaryStreamIterator(file),
		File:                 file,
	}, nil
}

func (fi *BinaryStreamFileIterator) Close() error {
	return fi.File.Close()
}

// RandStreamParams tune the random working copy generator
type RandStreamParams struct {
	Seed     int64
	NumFiles int // 0 means infinite
	MaxDepth int // max number of directory components per path
	MaxState int // max length of the opaque state payload
}

// randStreamIterator generates a pseudo-random working copy: plausible
// file paths with random opaque states. Paths are not deduplicated
type randStreamIterator struct {
	rnd   *rand.Rand
	par   RandStreamParams
	count int
}

func NewRandStreamIterator(p ...RandStreamParams) *randStreamIterator {
	ret := &randStreamIterator{
		par: RandStreamParams{
			Seed:     time.Now().UnixNano(),
			NumFiles: 0, // infinite
			MaxDepth: 5,
			MaxState: 16,
		},
	}
	if len(p) > 0 {
		ret.par = p[0]
	}
	ret.rnd = rand.New(rand.NewSource(ret.par.Seed))
	return ret
}

func (r *randStreamIterator) Iterate(fun func(path []byte, state []byte) bool) error {
	max := r.par.NumFiles
	if max <= 0 {
		max = math.MaxInt
	}
	for r.count < max {
		path := r.randPath()
		state := make([]byte, r.rnd.Intn(r.par.MaxState)+1)
		r.rnd.Read(state)
		if !fun(path, state) {
			return nil
		}
		r.count++
	}
	return nil
}

func (r *randStreamIterator) randPath() []byte {
	depth := r.rnd.Intn(r.par.MaxDepth + 1)
	var ret []byte
	for i := 0; i < depth; i++ {
		ret = append(ret, []byte(fmt.Sprintf("dir%d/", r.rnd.Intn(100)))...)
	}
	return append(ret, []byte(fmt.Sprintf("file%d", r.rnd.Intn(1000000)))...)
}
