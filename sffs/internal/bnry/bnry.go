// Package bnry provides tiny big-endian encode/decode helpers for the
// fixed-width on-media records the sffs package works with, the same
// role fat.FS's window_u16/window_u32 helpers play for little-endian
// FAT32 boot-sector fields.
package bnry

import "encoding/binary"

func U16(b []byte) uint16      { return binary.BigEndian.Uint16(b) }
func PutU16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }

func U32(b []byte) uint32      { return binary.BigEndian.Uint32(b) }
func PutU32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }

// AppendU16 appends v's big-endian encoding to dst.
func AppendU16(dst []byte, v uint16) []byte {
	var b [2]byte
	PutU16(b[:], v)
	return append(dst, b[:]...)
}

// AppendU32 appends v's big-endian encoding to dst.
func AppendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	PutU32(b[:], v)
	return append(dst, b[:]...)
}
