package sffs

import (
	"bytes"
	"math/rand"
	"testing"
)

// TestRandomizedWriteReadRoundtrip exercises the copy-on-write chain
// writer and the write-behind cache against a plain in-memory
// reference buffer: a sequence of appends of random length to a
// growing file must always read back exactly what a reference []byte
// would hold after the same sequence of operations.
func TestRandomizedWriteReadRoundtrip(t *testing.T) {
	e := newFormattedEngine(t)
	if err := e.CreateFile(0, 0, "/rand", 0, Modes{ModeRW, ModeRead, ModeRead}); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	fd, err := e.OpenFile(0, 0, "/rand", ModeRW)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer e.Close(fd)

	rng := rand.New(rand.NewSource(1))
	var reference []byte

	for i := 0; i < 40; i++ {
		chunkLen := rng.Intn(ClusterDataSize) + 1
		chunk := make([]byte, chunkLen)
		rng.Read(chunk)

		n, err := e.Write(fd, chunk)
		if err != nil {
			t.Fatalf("iteration %d: Write: %v", i, err)
		}
		if n != chunkLen {
			t.Fatalf("iteration %d: Write returned %d, want %d", i, n, chunkLen)
		}
		reference = append(reference, chunk...)

		if _, err := e.Seek(fd, 0, SeekSet); err != nil {
			t.Fatalf("iteration %d: Seek: %v", i, err)
		}
		readBack := make([]byte, len(reference))
		if _, err := e.Read(fd, readBack); err != nil {
			t.Fatalf("iteration %d: Read: %v", i, err)
		}
		if !bytes.Equal(readBack, reference) {
			t.Fatalf("iteration %d: content mismatch after %d bytes written", i, len(reference))
		}

		if _, err := e.Seek(fd, int64(len(reference)), SeekSet); err != nil {
			t.Fatalf("iteration %d: Seek to end: %v", i, err)
		}
	}
}

// TestRandomizedCreateDeleteLeavesFstConsistent creates and deletes
// files under root in a random sequence, and after every
// operation confirms that ReadDirectory's view of root matches an
// independently tracked reference set exactly.
func TestRandomizedCreateDeleteLeavesFstConsistent(t *testing.T) {
	e := newFormattedEngine(t)
	rng := rand.New(rand.NewSource(2))
	alive := map[string]bool{}

	names := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	for i := 0; i < 60; i++ {
		name := names[rng.Intn(len(names))]
		path := "/" + name

		if alive[name] {
			if err := e.Delete(0, 0, path); err != nil {
				t.Fatalf("iteration %d: Delete(%s): %v", i, path, err)
			}
			delete(alive, name)
		} else {
			if err := e.CreateFile(0, 0, path, 0, Modes{ModeRW, ModeRead, ModeRead}); err != nil {
				t.Fatalf("iteration %d: CreateFile(%s): %v", i, path, err)
			}
			alive[name] = true
		}

		children, err := e.ReadDirectory(0, 0, "/")
		if err != nil {
			t.Fatalf("iteration %d: ReadDirectory: %v", i, err)
		}
		if len(children) != len(alive) {
			t.Fatalf("iteration %d: root has %d children, want %d", i, len(children), len(alive))
		}
		for _, c := range children {
			if !alive[c] {
				t.Fatalf("iteration %d: root lists %q, which is not in the reference set", i, c)
			}
		}
	}
}
