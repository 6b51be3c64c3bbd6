package sffs

// SeekMode selects the reference point for Seek, per spec.md §4.6.
type SeekMode int

const (
	SeekSet SeekMode = iota
	SeekCurrent
	SeekEnd
)

// FileStatus is the result of Stat: the handle's captured size and its
// current read/write offset.
type FileStatus struct {
	Size   uint32
	Offset uint32
}

// OpenFile resolves path to a file, checks permission for mode, and
// assigns it a handle. The handle's size is captured at open time and
// never refreshed from the FST afterwards (spec.md §3: a concurrent
// writer via another handle can outrun a reader opened earlier).
func (e *Engine) OpenFile(uid uint32, gid uint16, path string, mode AccessMode) (Fd, error) {
	if !IsValidNonRootPath(path) {
		return invalidFd, Err(Invalid)
	}
	sb, err := e.requireSuperblock()
	if err != nil {
		return invalidFd, err
	}

	index, ferr := GetFstIndex(sb, path)
	if ferr != nil {
		return invalidFd, Err(NotFound)
	}
	entry := sb.FST(index)
	if !entry.IsFile() {
		return invalidFd, Err(Invalid)
	}
	if !HasPermission(entry, uid, gid, mode) {
		return invalidFd, Err(AccessDenied)
	}

	fd, h := e.assignFreeHandle(uid, gid)
	if h == nil {
		return invalidFd, Err(NoFreeHandle)
	}
	h.fstIndex = index
	h.mode = mode
	h.offset = 0
	h.size = entry.Size()
	return fd, nil
}

// Close flushes a dirty cache entry belonging to fd, flushes the
// superblock if this handle dirtied it, and releases the slot.
func (e *Engine) Close(fd Fd) error {
	h := e.handleFromFd(fd)
	if h == nil {
		return Err(Invalid)
	}

	if e.cache.valid && e.cache.fd == fd {
		if err := e.flushFileCache(); err != nil {
			return err
		}
	}

	if h.superblockDirty {
		if err := e.FlushSuperblock(); err != nil {
			return err
		}
	}

	*h = handle{}
	return nil
}

// Read copies up to len(p) bytes starting at the handle's current
// offset, clamped to the handle's captured size, advancing the offset
// by the number of bytes actually copied.
func (e *Engine) Read(fd Fd, p []byte) (int, error) {
	h := e.handleFromFd(fd)
	if h == nil || int(h.fstIndex) >= NumFSTEntries {
		return 0, Err(Invalid)
	}
	if h.mode&ModeRead == 0 {
		return 0, Err(AccessDenied)
	}

	count := uint32(len(p))
	if count+h.offset > h.size {
		count = h.size - h.offset
	}

	var processed uint32
	for processed != count {
		if err := e.populateFileCache(h, fd, h.offset, false); err != nil {
			return int(processed), err
		}
		start := h.offset - uint32(e.cache.chainIndex)*ClusterDataSize
		chunk := count - processed
		if avail := ClusterDataSize - start; avail < chunk {
			chunk = avail
		}
		copy(p[processed:processed+chunk], e.cache.data[start:start+chunk])
		h.offset += chunk
		processed += chunk
	}
	return int(processed), nil
}

// Write copies len(p) bytes into the file starting at the handle's
// current offset, growing the file (and the handle's captured size)
// as needed, and advancing the offset.
func (e *Engine) Write(fd Fd, p []byte) (int, error) {
	h := e.handleFromFd(fd)
	if h == nil || int(h.fstIndex) >= NumFSTEntries {
		return 0, Err(Invalid)
	}
	if h.mode&ModeWrite == 0 {
		return 0, Err(AccessDenied)
	}

	count := uint32(len(p))
	var processed uint32
	for processed != count {
		if err := e.populateFileCache(h, fd, h.offset, true); err != nil {
			return int(processed), err
		}
		start := h.offset - uint32(e.cache.chainIndex)*ClusterDataSize
		chunk := count - processed
		if avail := ClusterDataSize - start; avail < chunk {
			chunk = avail
		}
		copy(e.cache.data[start:start+chunk], p[processed:processed+chunk])
		e.cache.dirty = true
		e.cache.forWrite = true
		h.offset += chunk
		processed += chunk
		if h.offset > h.size {
			h.size = h.offset
		}
	}
	return int(processed), nil
}

// Seek repositions the handle's offset relative to mode. Unlike POSIX,
// seeking past the end of the file is rejected rather than allowed.
func (e *Engine) Seek(fd Fd, offset int64, mode SeekMode) (uint32, error) {
	h := e.handleFromFd(fd)
	if h == nil || int(h.fstIndex) >= NumFSTEntries {
		return 0, Err(Invalid)
	}

	var newPosition int64
	switch mode {
	case SeekSet:
		newPosition = offset
	case SeekCurrent:
		newPosition = int64(h.offset) + offset
	case SeekEnd:
		newPosition = int64(h.size) + offset
	default:
		return 0, Err(Invalid)
	}

	if newPosition < 0 || newPosition > int64(h.size) {
		return 0, Err(Invalid)
	}

	h.offset = uint32(newPosition)
	return h.offset, nil
}

// Stat returns the handle's captured size and current offset.
func (e *Engine) Stat(fd Fd) (FileStatus, error) {
	h := e.handleFromFd(fd)
	if h == nil || int(h.fstIndex) >= NumFSTEntries {
		return FileStatus{}, Err(Invalid)
	}
	return FileStatus{Size: h.size, Offset: h.offset}, nil
}
