package sffs

// fileCache is the engine's single write-behind cluster cache
// (spec.md §4.7): at most one (fd, chainIndex) pair is held at a time.
type fileCache struct {
	fd         Fd
	chainIndex uint16
	data       [ClusterDataSize]byte
	dirty      bool
	forWrite   bool
	valid      bool
}

func newFileCache() fileCache {
	return fileCache{fd: invalidFd}
}

// populateFileCache implements spec.md §4.7's read/write cache
// population rule. write selects whether the cache is being primed for
// a write (in which case a free cluster must exist, and a full-cluster
// overwrite can skip the read-back) or a read (always populated).
func (e *Engine) populateFileCache(h *handle, fd Fd, offset uint32, write bool) error {
	chainIndex := uint16(offset / ClusterDataSize)
	if e.cache.valid && e.cache.fd == fd && e.cache.chainIndex == chainIndex {
		return nil
	}

	if err := e.flushFileCache(); err != nil {
		return err
	}

	if write {
		if _, err := e.findUnusedCluster(e.superblock); err != nil {
			return err
		}
	}

	// A write landing exactly on a fresh cluster boundary at EOF can skip
	// the read-back: every byte of the cluster will be replaced before
	// any byte of its old contents (if any) is observed. Every other
	// case, including all reads, needs the real cluster contents first.
	if offset%ClusterDataSize != 0 || offset != h.size {
		if err := e.readFileData(h.fstIndex, chainIndex, e.cache.data[:]); err != nil {
			return err
		}
	}

	e.cache.fd = fd
	e.cache.chainIndex = chainIndex
	e.cache.forWrite = write
	e.cache.valid = true
	return nil
}

// flushFileCache implements spec.md §4.7: a dirty write cache is
// committed through the normal write sequence (fat.go's writeFileData)
// before being invalidated or replaced.
func (e *Engine) flushFileCache() error {
	if !e.cache.valid || !e.cache.forWrite || !e.cache.dirty {
		e.cache = newFileCache()
		return nil
	}

	h := e.handleFromFd(e.cache.fd)
	if h == nil {
		return Err(Invalid)
	}
	if err := e.writeFileData(h.fstIndex, e.cache.data[:], e.cache.chainIndex, h.size); err != nil {
		e.logger.Error("failed to flush file cache", "fd", e.cache.fd, "err", err)
		return err
	}
	h.superblockDirty = true
	e.cache = newFileCache()
	return nil
}
