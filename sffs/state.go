package sffs

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

// stateVersion guards SaveState/LoadState against loading a snapshot
// produced by an incompatible build.
const stateVersion = 1

// SaveState writes a snapshot of everything that is not already
// durable on the backing image: open handles, the write cache, the
// in-memory superblock, and -- to avoid dragging the full image
// through the snapshot -- only the data clusters the FST actually
// references, the way the original driver's DoState does.
func (e *Engine) SaveState(w io.Writer) error {
	bw := bufio.NewWriter(w)

	if err := binary.Write(bw, binary.BigEndian, uint32(stateVersion)); err != nil {
		return err
	}
	for i := range e.handles {
		if err := writeHandle(bw, &e.handles[i]); err != nil {
			return err
		}
	}
	if err := writeFileCache(bw, &e.cache); err != nil {
		return err
	}

	haveSuperblock := e.superblock != nil
	if err := binary.Write(bw, binary.BigEndian, haveSuperblock); err != nil {
		return err
	}
	if !haveSuperblock {
		return bw.Flush()
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(e.superblockIndex)); err != nil {
		return err
	}
	if _, err := bw.Write(e.superblock.Bytes()); err != nil {
		return err
	}

	used := usedClusters(e.superblock)
	if err := binary.Write(bw, binary.BigEndian, uint32(len(used))); err != nil {
		return err
	}
	var buf [ClusterFullSize]byte
	for _, c := range used {
		if err := binary.Write(bw, binary.BigEndian, c); err != nil {
			return err
		}
		for p := 0; p < PagesPerCluster; p++ {
			pageSize := DataBytesPerPage + SpareBytesPerPage
			if _, err := e.image.ReadAt(buf[p*pageSize:(p+1)*pageSize], offset(c, p)); err != nil {
				return fmt.Errorf("sffs: saving state: reading cluster %d: %w", c, err)
			}
		}
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// LoadState restores a snapshot written by SaveState, rewriting only
// the clusters the snapshot carries.
func (e *Engine) LoadState(r io.Reader) error {
	br := bufio.NewReader(r)

	var version uint32
	if err := binary.Read(br, binary.BigEndian, &version); err != nil {
		return err
	}
	if version != stateVersion {
		return fmt.Errorf("sffs: state snapshot has version %d, want %d", version, stateVersion)
	}

	for i := range e.handles {
		h, err := readHandle(br)
		if err != nil {
			return err
		}
		e.handles[i] = h
	}
	cache, err := readFileCache(br)
	if err != nil {
		return err
	}
	e.cache = cache

	var haveSuperblock bool
	if err := binary.Read(br, binary.BigEndian, &haveSuperblock); err != nil {
		return err
	}
	if !haveSuperblock {
		e.superblock = nil
		e.state = stateNone
		return nil
	}

	var index uint32
	if err := binary.Read(br, binary.BigEndian, &index); err != nil {
		return err
	}
	data := make([]byte, SuperblockSize)
	if _, err := io.ReadFull(br, data); err != nil {
		return err
	}
	e.superblock = superblockFromBytes(data)
	e.superblockIndex = int(index)
	e.state = stateLoaded

	var count uint32
	if err := binary.Read(br, binary.BigEndian, &count); err != nil {
		return err
	}
	var buf [ClusterFullSize]byte
	for i := uint32(0); i < count; i++ {
		var c uint16
		if err := binary.Read(br, binary.BigEndian, &c); err != nil {
			return err
		}
		if _, err := io.ReadFull(br, buf[:]); err != nil {
			return err
		}
		for p := 0; p < PagesPerCluster; p++ {
			pageSize := DataBytesPerPage + SpareBytesPerPage
			if _, err := e.image.WriteAt(buf[p*pageSize:(p+1)*pageSize], offset(c, p)); err != nil {
				return fmt.Errorf("sffs: loading state: writing cluster %d: %w", c, err)
			}
		}
	}

	return nil
}

func writeHandle(w io.Writer, h *handle) error {
	fields := []interface{}{
		h.opened, h.fstIndex, h.uid, h.gid, h.mode,
		h.offset, h.size, h.superblockDirty,
	}
	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func readHandle(r io.Reader) (handle, error) {
	var h handle
	fields := []interface{}{
		&h.opened, &h.fstIndex, &h.uid, &h.gid, &h.mode,
		&h.offset, &h.size, &h.superblockDirty,
	}
	for _, f := range fields {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return handle{}, err
		}
	}
	return h, nil
}

func writeFileCache(w io.Writer, c *fileCache) error {
	if err := binary.Write(w, binary.BigEndian, int32(c.fd)); err != nil {
		return err
	}
	fields := []interface{}{c.chainIndex, c.data, c.dirty, c.forWrite, c.valid}
	for _, f := range fields {
		if err := binary.Write(w, binary.BigEndian, f); err != nil {
			return err
		}
	}
	return nil
}

func readFileCache(r io.Reader) (fileCache, error) {
	var c fileCache
	var fd int32
	if err := binary.Read(r, binary.BigEndian, &fd); err != nil {
		return fileCache{}, err
	}
	c.fd = Fd(fd)
	fields := []interface{}{&c.chainIndex, &c.data, &c.dirty, &c.forWrite, &c.valid}
	for _, f := range fields {
		if err := binary.Read(r, binary.BigEndian, f); err != nil {
			return fileCache{}, err
		}
	}
	return c, nil
}

// usedClusters walks the FST (starting at the root) and collects every
// cluster currently referenced by a file's chain, sorted in ascending
// order, mirroring FS.cpp's GetUsedClusters. Duplicates are not
// removed.
func usedClusters(sb *Superblock) []uint16 {
	var clusters []uint16
	var walk func(directory uint16)
	walk = func(directory uint16) {
		for child := sb.FST(directory).Sub(); int(child) < NumFSTEntries; child = sb.FST(child).Sib() {
			entry := sb.FST(child)
			if entry.IsDirectory() {
				walk(child)
				continue
			}
			for c := entry.Sub(); int(c) < TotalClusters; c = sb.FAT(c) {
				clusters = append(clusters, c)
			}
		}
	}
	walk(0)
	sort.Slice(clusters, func(i, j int) bool { return clusters[i] < clusters[j] })
	return clusters
}
