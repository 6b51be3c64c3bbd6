package sffs

import (
	"encoding/binary"
)

// Superblock layout, big-endian, byte-exact with the original firmware.
// The struct is a thin view over a flat byte buffer -- the same pattern
// the FAT32 boot sector and FSInfo sector views use upstream -- rather
// than a Go struct with field tags, so that reads and writes touch the
// buffer that is actually hashed and persisted with no copy or layout
// drift between the two.
//
//	offset  size              field
//	0       4                 magic ("SFFS" when valid)
//	4       4                 version
//	8       24                unknown / reserved
//	32      0x10000 (65536)   FAT: 32768 big-endian u16 entries
//	65568   6143*32           FST: 6143 32-byte entries
//
// sizeof(Superblock) == ClustersPerSuperblock*ClusterDataSize == 262144.
const (
	sbMagicOff   = 0
	sbVersionOff = 4
	sbUnknownOff = 8
	sbHeaderSize = 32

	sbFATOff     = sbHeaderSize
	sbFATEntries = TotalClusters
	sbFATSize    = sbFATEntries * 2

	sbFSTOff     = sbFATOff + sbFATSize
	NumFSTEntries = 6143
	sbFSTSize    = NumFSTEntries * fstEntrySize

	SuperblockSize = sbFSTOff + sbFSTSize
)

func init() {
	if SuperblockSize != ClustersPerSuperblock*ClusterDataSize {
		panic("sffs: superblock layout constants do not add up to 16 clusters")
	}
}

// Superblock is a byte-exact view of one on-media superblock copy.
type Superblock struct {
	data []byte
}

// NewSuperblock allocates a zeroed superblock buffer.
func NewSuperblock() *Superblock {
	return &Superblock{data: make([]byte, SuperblockSize)}
}

// superblockFromBytes wraps an existing SuperblockSize-length buffer.
// The buffer is retained, not copied.
func superblockFromBytes(data []byte) *Superblock {
	if len(data) != SuperblockSize {
		panic("sffs: superblock buffer has wrong size")
	}
	return &Superblock{data: data}
}

// Bytes returns the underlying buffer.
func (s *Superblock) Bytes() []byte { return s.data }

// Clone returns a deep copy of the superblock.
func (s *Superblock) Clone() *Superblock {
	cp := make([]byte, len(s.data))
	copy(cp, s.data)
	return &Superblock{data: cp}
}

func (s *Superblock) Magic() [4]byte {
	var m [4]byte
	copy(m[:], s.data[sbMagicOff:sbMagicOff+4])
	return m
}

func (s *Superblock) SetMagic(m [4]byte) { copy(s.data[sbMagicOff:sbMagicOff+4], m[:]) }

func (s *Superblock) IsMagicValid() bool { return s.Magic() == superblockMagic }

func (s *Superblock) Version() uint32 {
	return binary.BigEndian.Uint32(s.data[sbVersionOff:])
}

func (s *Superblock) SetVersion(v uint32) {
	binary.BigEndian.PutUint32(s.data[sbVersionOff:], v)
}

// FAT returns the FAT entry for cluster c.
func (s *Superblock) FAT(c uint16) uint16 {
	return binary.BigEndian.Uint16(s.data[sbFATOff+int(c)*2:])
}

// SetFAT sets the FAT entry for cluster c.
func (s *Superblock) SetFAT(c uint16, v uint16) {
	binary.BigEndian.PutUint16(s.data[sbFATOff+int(c)*2:], v)
}

// FST returns a view of FST entry i. Mutations through the view are
// reflected in the superblock buffer.
func (s *Superblock) FST(i uint16) FSTEntry {
	off := sbFSTOff + int(i)*fstEntrySize
	return FSTEntry{data: s.data[off : off+fstEntrySize : off+fstEntrySize]}
}

// normalizeLegacyFAT rewrites every legacy 0xFFFF sentinel to the
// current ClusterUnused value. Per spec.md's open question, the
// normalised value is never re-emitted on write.
func (s *Superblock) normalizeLegacyFAT() {
	for c := 0; c < sbFATEntries; c++ {
		if s.FAT(uint16(c)) == ClusterUnusedLegacy {
			s.SetFAT(uint16(c), ClusterUnused)
		}
	}
}

// FSTEntry is a byte-exact view of one 32-byte FST record.
//
//	offset  size  field
//	0       12    name, zero padded
//	12      1     mode (bits 0-1 kind, 2-3 other, 4-5 group, 6-7 owner)
//	13      1     attribute
//	14      2     sub (first child / first cluster)
//	16      2     sib (next sibling)
//	18      4     size
//	22      4     uid
//	26      2     gid
//	28      4     x3 (opaque)
type FSTEntry struct {
	data []byte
}

const (
	fstNameOff = 0
	fstModeOff = 12
	fstAttrOff = 13
	fstSubOff  = 14
	fstSibOff  = 16
	fstSizeOff = 18
	fstUidOff  = 22
	fstGidOff  = 26
	fstX3Off   = 28
)

func (e FSTEntry) Name() string {
	n := 0
	for n < maxNameLen && e.data[fstNameOff+n] != 0 {
		n++
	}
	return string(e.data[fstNameOff : fstNameOff+n])
}

func (e FSTEntry) SetName(name string) {
	var buf [maxNameLen]byte
	copy(buf[:], name)
	copy(e.data[fstNameOff:fstNameOff+maxNameLen], buf[:])
}

func (e FSTEntry) Mode() uint8        { return e.data[fstModeOff] }
func (e FSTEntry) SetMode(m uint8)    { e.data[fstModeOff] = m }
func (e FSTEntry) IsUnused() bool     { return e.Mode()&3 == 0 }
func (e FSTEntry) IsFile() bool       { return e.Mode()&3 == 1 }
func (e FSTEntry) IsDirectory() bool  { return e.Mode()&3 == 2 }

func (e FSTEntry) OwnerMode() AccessMode { return AccessMode((e.Mode() >> 6) & 3) }
func (e FSTEntry) GroupMode() AccessMode { return AccessMode((e.Mode() >> 4) & 3) }
func (e FSTEntry) OtherMode() AccessMode { return AccessMode((e.Mode() >> 2) & 3) }

// SetAccessMode rewrites the owner/group/other bits, keeping the kind
// bits (file/directory/unused) untouched.
func (e FSTEntry) SetAccessMode(owner, group, other AccessMode) {
	kind := e.Mode() & 3
	e.SetMode(kind | uint8(owner)<<6 | uint8(group)<<4 | uint8(other)<<2)
}

func (e FSTEntry) Attribute() uint8     { return e.data[fstAttrOff] }
func (e FSTEntry) SetAttribute(a uint8) { e.data[fstAttrOff] = a }

func (e FSTEntry) Sub() uint16     { return binary.BigEndian.Uint16(e.data[fstSubOff:]) }
func (e FSTEntry) SetSub(v uint16) { binary.BigEndian.PutUint16(e.data[fstSubOff:], v) }

func (e FSTEntry) Sib() uint16     { return binary.BigEndian.Uint16(e.data[fstSibOff:]) }
func (e FSTEntry) SetSib(v uint16) { binary.BigEndian.PutUint16(e.data[fstSibOff:], v) }

func (e FSTEntry) Size() uint32     { return binary.BigEndian.Uint32(e.data[fstSizeOff:]) }
func (e FSTEntry) SetSize(v uint32) { binary.BigEndian.PutUint32(e.data[fstSizeOff:], v) }

func (e FSTEntry) UID() uint32     { return binary.BigEndian.Uint32(e.data[fstUidOff:]) }
func (e FSTEntry) SetUID(v uint32) { binary.BigEndian.PutUint32(e.data[fstUidOff:], v) }

func (e FSTEntry) GID() uint16     { return binary.BigEndian.Uint16(e.data[fstGidOff:]) }
func (e FSTEntry) SetGID(v uint16) { binary.BigEndian.PutUint16(e.data[fstGidOff:], v) }

func (e FSTEntry) X3() uint32     { return binary.BigEndian.Uint32(e.data[fstX3Off:]) }
func (e FSTEntry) SetX3(v uint32) { binary.BigEndian.PutUint32(e.data[fstX3Off:], v) }

// Clear zeroes the entry, marking it unused.
func (e FSTEntry) Clear() {
	for i := range e.data {
		e.data[i] = 0
	}
}

// AccessMode is one of None/Read/Write/ReadWrite.
type AccessMode uint8

const (
	ModeNone  AccessMode = 0
	ModeRead  AccessMode = 1
	ModeWrite AccessMode = 2
	ModeRW    AccessMode = 3
)
