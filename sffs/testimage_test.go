package sffs

import (
	"errors"
	"testing"
)

// memImage is an in-memory Image, the same role BytesBlocks plays for
// the teacher's BlockDevice tests: a plain byte slice standing in for
// a real backing file.
type memImage struct {
	buf []byte
}

func newMemImage() *memImage {
	return &memImage{buf: make([]byte, ImageSize)}
}

func (m *memImage) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.buf)) {
		return 0, errors.New("read past end of image")
	}
	copy(p, m.buf[off:off+int64(len(p))])
	return len(p), nil
}

func (m *memImage) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(m.buf)) {
		return 0, errors.New("write past end of image")
	}
	copy(m.buf[off:off+int64(len(p))], p)
	return len(p), nil
}

func testKeyStore(t *testing.T) *StaticKeyStore {
	t.Helper()
	var aesKey [16]byte
	for i := range aesKey {
		aesKey[i] = byte(i)
	}
	macKey := []byte("test-hmac-key")
	ks, err := NewStaticKeyStore(aesKey, macKey)
	if err != nil {
		t.Fatalf("building key store: %v", err)
	}
	return ks
}

// newFormattedEngine builds an Engine over a fresh in-memory image and
// formats it as uid 0, the common starting point for most tests.
func newFormattedEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(newMemImage(), testKeyStore(t), nil)
	if err := e.Format(0); err != nil {
		t.Fatalf("Format: %v", err)
	}
	return e
}
