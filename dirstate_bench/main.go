// dirstate_bench generates synthetic working copies, builds dirstate
// trees out of them on the different store backends and scans them back,
// reporting throughput
package main

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/iotaledger/hive.go/core/kvstore/badger"
	dirstate_go "github.com/mzr/dirstate.go"
	"github.com/mzr/dirstate.go/filestate"
	"github.com/mzr/dirstate.go/hive_adaptor"
	"github.com/mzr/dirstate.go/store"
	"github.com/mzr/dirstate.go/tree"
	"github.com/rs/zerolog"
)

const usage = "generate a random working copy. USAGE: dirstate_bench -gen <size> <name>\n" +
	"build a tree in a file store from the working copy. USAGE: dirstate_bench -mkdbfile <name>\n" +
	"build a tree in a badger DB from the working copy. USAGE: dirstate_bench -mkdbbadger <name>\n" +
	"build a tree in a bolt DB from the working copy. USAGE: dirstate_bench -mkdbbolt <name>\n" +
	"scan the tree in a file store. USAGE: dirstate_bench -scanfile <name>\n" +
	"scan the tree in a badger DB. USAGE: dirstate_bench -scanbadger <name>\n" +
	"scan the tree in a bolt DB. USAGE: dirstate_bench -scanbolt <name>\n"

const flushEach = 100_000

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	if len(os.Args) < 3 {
		fmt.Printf(usage)
		os.Exit(1)
	}
	switch os.Args[1] {
	case "-gen":
		if len(os.Args) != 4 {
			fmt.Printf(usage)
			os.Exit(1)
		}
		size, err := strconv.Atoi(os.Args[2])
		must(err)
		genrnd(size, os.Args[3])

	case "-mkdbfile":
		st, err := store.OpenFileStore(os.Args[2] + ".blocks")
		must(err)
		defer st.Close()
		file2tree(os.Args[2], st)
		must(st.Sync())

	case "-mkdbbadger":
		st := openBadger(os.Args[2], true)
		file2tree(os.Args[2], st)
		must(st.Flush())

	case "-mkdbbolt":
		st, err := store.OpenBoltStore(os.Args[2] + ".db")
		must(err)
		defer st.Close()
		file2tree(os.Args[2], st)

	case "-scanfile":
		st, err := store.OpenFileStore(os.Args[2] + ".blocks")
		must(err)
		defer st.Close()
		scan(os.Args[2], st)

	case "-scanbadger":
		scan(os.Args[2], openBadger(os.Args[2], false))

	case "-scanbolt":
		st, err := store.OpenBoltStore(os.Args[2] + ".db")
		must(err)
		defer st.Close()
		scan(os.Args[2], st)

	default:
		fmt.Printf(usage)
		os.Exit(1)
	}
}

func must(err error) {
	if err != nil {
		log.Fatal().Err(err).Msg("abort")
	}
}

func openBadger(name string, create bool) *hive_adaptor.HiveBlockStore {
	dbDir := name + ".dbdir"
	if _, err := os.Stat(dbDir); create && !os.IsNotExist(err) {
		log.Fatal().Str("dir", dbDir).Msg("directory already exists, can't create new database")
	}
	db, err := badger.CreateDB(dbDir)
	must(err)
	st, err := hive_adaptor.NewHiveBlockStore(badger.New(db))
	must(err)
	return st
}

// genrnd writes a stream of random path / file state pairs to name.bin
func genrnd(size int, name string) {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	rndIterator := dirstate_go.NewRandStreamIterator(dirstate_go.RandStreamParams{
		Seed:     time.Now().UnixNano(),
		NumFiles: size,
		MaxDepth: 5,
		MaxState: 16,
	})
	fname := name + ".bin"
	fileWriter, err := dirstate_go.CreatePathStreamFile(fname)
	must(err)
	defer fileWriter.Close()

	count := 0
	err = rndIterator.Iterate(func(path []byte, _ []byte) bool {
		fs := filestate.New(filestate.StateNormal, 0o644, rnd.Int31n(1<<20), rnd.Int31())
		var buf bytes.Buffer
		must(fs.Write(&buf))
		must(fileWriter.Write(path, buf.Bytes()))
		count++
		if count%flushEach == 0 {
			log.Info().Int("files", count).Msg("generating")
		}
		return true
	})
	must(err)
	pairs, bytesWritten := fileWriter.Stats()
	log.Info().Int("files", pairs).Int("bytes", bytesWritten).Str("file", fname).Msg("generated working copy")
}

// file2tree builds a dirstate tree in st from the name.bin stream,
// flushing a delta write every flushEach files
func file2tree(name string, st store.Store) {
	streamIn, err := dirstate_go.OpenPathStreamFile(name + ".bin")
	must(err)
	defer streamIn.Close()

	tm := newTimer()
	t := tree.New(filestate.Factory)
	count := 0
	err = streamIn.Iterate(func(path []byte, state []byte) bool {
		fs := &filestate.FileState{}
		must(fs.Read(bytes.NewReader(state)))
		must(t.Add(st, path, fs))
		count++
		if count%flushEach == 0 {
			must(t.WriteDelta(st))
			log.Info().Int("files", count).Dur("elapsed", tm.Duration()).Msg("delta written")
		}
		return true
	})
	must(err)
	must(t.WriteDelta(st))
	rootID, ok := t.RootID()
	dirstate_go.Assert(ok, "tree must be clean after delta write")
	must(saveCheckpoint(name, rootID, t.FileCount()))
	log.Info().
		Int("files", count).
		Uint32("tracked", t.FileCount()).
		Uint64("root", uint64(rootID)).
		Dur("elapsed", tm.Duration()).
		Float64("files_per_sec", float64(count)/tm.Duration().Seconds()).
		Msg("tree built")
}

// scan reopens the tree from the checkpoint and iterates it in order
func scan(name string, view store.StoreView) {
	rootID, count, err := loadCheckpoint(name)
	must(err)
	t := tree.Open(filestate.Factory, rootID, count)

	tm := newTimer()
	visited := uint32(0)
	key, state, err := t.GetFirst(view)
	must(err)
	var prev []byte
	for state != nil {
		if prev != nil && bytes.Compare(prev, key) >= 0 {
			log.Fatal().Bytes("prev", prev).Bytes("key", key).Msg("iteration order violated")
		}
		visited++
		prev = key
		key, state, err = t.GetNext(view, key)
		must(err)
	}
	if visited != count {
		log.Fatal().Uint32("expected", count).Uint32("visited", visited).Msg("file count mismatch")
	}
	log.Info().
		Uint32("files", visited).
		Dur("elapsed", tm.Duration()).
		Float64("files_per_sec", float64(visited)/tm.Duration().Seconds()).
		Msg("scan complete")
}

// The tree does not store its own root pointer: the (root id, file
// count) checkpoint pair lives in a sidecar file next to the store

func saveCheckpoint(name string, rootID store.BlockID, count uint32) error {
	var buf bytes.Buffer
	if err := dirstate_go.WriteUint64(&buf, uint64(rootID)); err != nil {
		return err
	}
	if err := dirstate_go.WriteUint32(&buf, count); err != nil {
		return err
	}
	return os.WriteFile(name+".root", buf.Bytes(), 0o644)
}

func loadCheckpoint(name string) (store.BlockID, uint32, error) {
	data, err := os.ReadFile(name + ".root")
	if err != nil {
		return 0, 0, err
	}
	r := bytes.NewReader(data)
	var rootID uint64
	var count uint32
	if err := dirstate_go.ReadUint64(r, &rootID); err != nil {
		return 0, 0, err
	}
	if err := dirstate_go.ReadUint32(r, &count); err != nil {
		return 0, 0, err
	}
	return store.BlockID(rootID), count, nil
}

type timer time.Time

func newTimer() timer {
	return timer(time.Now())
}

func (t timer) Duration() time.Duration {
	return time.Since(time.Time(t))
}
