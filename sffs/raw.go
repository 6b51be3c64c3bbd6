package sffs

import (
	"fmt"
	"io"
)

// Image is the backing store the engine reads and writes pages
// through. A plain *os.File satisfies it; tests use an in-memory
// implementation (see testimage_test.go), mirroring how the teacher's
// BlockDevice is satisfied by both real storage and a byte-slice stub.
type Image interface {
	io.ReaderAt
	io.WriterAt
}

// readCluster reads all 8 pages of cluster c into result (which must
// be ClusterDataSize bytes long), decrypting it if it falls below
// SuperblockStartCluster, and returns both HMAC copies found in the
// spare area (spec.md §4.1: "a reader accepts the cluster if either
// HMAC verifies").
func (e *Engine) readCluster(c uint16, result []byte) ([2]Hash, error) {
	var hmacs [2]Hash
	if c >= TotalClusters {
		return hmacs, Err(Invalid)
	}

	var page [DataBytesPerPage]byte
	var spare [SpareBytesPerPage]byte
	for p := 0; p < PagesPerCluster; p++ {
		if _, err := e.image.ReadAt(page[:], offset(c, p)); err != nil {
			return hmacs, badBlock(err)
		}
		copy(result[p*DataBytesPerPage:], page[:])

		if _, err := e.image.ReadAt(spare[:], offset(c, p)+DataBytesPerPage); err != nil {
			return hmacs, badBlock(err)
		}
		switch p {
		case HmacPage1:
			copy(hmacs[0][:], spare[Hmac1OffsetInPage1:Hmac1OffsetInPage1+hmacSize])
			copy(hmacs[1][:Hmac2SizeInPage1], spare[Hmac2OffsetInPage1:Hmac2OffsetInPage1+Hmac2SizeInPage1])
		case HmacPage2:
			copy(hmacs[1][Hmac2SizeInPage1:], spare[Hmac2OffsetInPage2:Hmac2OffsetInPage2+Hmac2SizeInPage2])
		}
	}

	if c < SuperblockStartCluster {
		if err := decryptCluster(e.keys, result, result); err != nil {
			return hmacs, fmt.Errorf("sffs: decrypting cluster %d: %w", c, err)
		}
	}
	return hmacs, nil
}

// writeCluster writes all 8 pages of cluster c from data (exactly
// ClusterDataSize bytes), computing ECC per page and placing hmac into
// the two HMAC slots of the spare area, per spec.md §4.1.
func (e *Engine) writeCluster(c uint16, data []byte, hmac Hash) error {
	if c >= TotalClusters {
		return Err(Invalid)
	}
	if len(data) != ClusterDataSize {
		panic("sffs: writeCluster needs exactly one cluster of data")
	}

	toWrite := data
	if c < SuperblockStartCluster {
		var enc [ClusterDataSize]byte
		if err := encryptCluster(e.keys, data, enc[:]); err != nil {
			return fmt.Errorf("sffs: encrypting cluster %d: %w", c, err)
		}
		toWrite = enc[:]
	}

	for p := 0; p < PagesPerCluster; p++ {
		pageData := toWrite[p*DataBytesPerPage : (p+1)*DataBytesPerPage]
		if _, err := e.image.WriteAt(pageData, offset(c, p)); err != nil {
			return badBlock(err)
		}

		var spare [SpareBytesPerPage]byte
		spare[0] = 0xff
		ecc := CalculateECC(pageData)
		copy(spare[eccOffsetInSpare:eccOffsetInSpare+eccSizeInSpare], ecc[:])
		switch p {
		case HmacPage1:
			copy(spare[Hmac1OffsetInPage1:], hmac[:])
			copy(spare[Hmac2OffsetInPage1:Hmac2OffsetInPage1+Hmac2SizeInPage1], hmac[:Hmac2SizeInPage1])
		case HmacPage2:
			copy(spare[Hmac2OffsetInPage2:Hmac2OffsetInPage2+Hmac2SizeInPage2], hmac[Hmac2SizeInPage1:])
		}
		if _, err := e.image.WriteAt(spare[:], offset(c, p)+DataBytesPerPage); err != nil {
			return badBlock(err)
		}
	}
	return nil
}

func badBlock(err error) error {
	return &Error{Code: BadBlock, Cause: err}
}
