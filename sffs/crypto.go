package sffs

import (
	"crypto/hmac"
	"crypto/sha1"
	"hash"

	"github.com/leoetlino/dolphin/sffs/internal/bnry"
)

// KeyHandle names one of the two key-store slots the engine ever
// touches. The engine never sees the raw key material behind a handle.
type KeyHandle int

const (
	HandleFSKey KeyHandle = iota // AES-128 content key
	HandleFSMac                  // HMAC-SHA1 key
)

// superblockSalt is prepended to a superblock's bytes before hashing.
// Only the first cluster of the copy being signed is populated, per
// spec.md §4.3.
type superblockSalt struct {
	startingCluster uint16
}

func (s superblockSalt) bytes() []byte {
	return bnry.AppendU16(nil, s.startingCluster)
}

// dataSalt is prepended to a data cluster's plaintext bytes before
// hashing. It binds the HMAC to the specific file, chain position and
// opaque x3 field so that cluster contents cannot be silently spliced
// between files or shuffled within a chain.
type dataSalt struct {
	uid        uint32
	name       [maxNameLen]byte
	chainIndex uint16
	fstIndex   uint16
	x3         uint32
}

func (s dataSalt) bytes() []byte {
	b := bnry.AppendU32(make([]byte, 0, 4+maxNameLen+2+2+4), s.uid)
	b = append(b, s.name[:]...)
	b = bnry.AppendU16(b, s.chainIndex)
	b = bnry.AppendU16(b, s.fstIndex)
	b = bnry.AppendU32(b, s.x3)
	return b
}

func newDataSalt(entry FSTEntry, fstIndex, chainIndex uint16) dataSalt {
	var name [maxNameLen]byte
	n := entry.Name()
	copy(name[:], n)
	return dataSalt{
		uid:        entry.UID(),
		name:       name,
		chainIndex: chainIndex,
		fstIndex:   fstIndex,
		x3:         entry.X3(),
	}
}

// Hash is a 20-byte HMAC-SHA1 tag.
type Hash [hmacSize]byte

// BlockMacGenerator is the key-store collaborator's two-phase HMAC
// interface (spec.md §6): accumulate bytes with Update, then take the
// tag once with Finalise. It mirrors IOSC::BlockMacGenerator from the
// original firmware's key store rather than exposing a one-shot HMAC
// call, since some callers need to feed a salt ahead of the payload.
type BlockMacGenerator interface {
	Update(data []byte)
	Finalise() Hash
}

// hmacMacGenerator is the one concrete BlockMacGenerator implementation
// the CORE ships: crypto/hmac + crypto/sha1 over a fixed key, the
// stdlib equivalent of the hardware HMAC engine the real key store
// fronts.
type hmacMacGenerator struct {
	h hash.Hash
}

func newHMACMacGenerator(key []byte) *hmacMacGenerator {
	return &hmacMacGenerator{h: hmac.New(sha1.New, key)}
}

func (g *hmacMacGenerator) Update(data []byte) { g.h.Write(data) }

func (g *hmacMacGenerator) Finalise() Hash {
	var out Hash
	copy(out[:], g.h.Sum(nil))
	g.h.Reset()
	return out
}
