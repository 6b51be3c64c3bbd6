package sffs

import "strings"

// IsValidNonRootPath reports whether path is a non-root absolute path
// of at most maxPathLen bytes with no trailing slash, per spec.md §4.4.
func IsValidNonRootPath(path string) bool {
	return len(path) > 1 && len(path) <= maxPathLen && path[0] == '/' && path[len(path)-1] != '/'
}

// SplitPath splits a valid non-root path into its parent directory
// path and final component, e.g. "/shared2/sys/SYSCONF" becomes
// ("/shared2/sys", "SYSCONF"). Root's own path ("/") is never passed
// here; GetFstIndex handles it directly.
func SplitPath(path string) (parent, name string) {
	i := strings.LastIndexByte(path, '/')
	if i == 0 {
		return "/", path[1:]
	}
	return path[:i], path[i+1:]
}

// GetFstIndex resolves an absolute path to an FST index, walking one
// path component at a time from the root.
func GetFstIndex(sb *Superblock, path string) (uint16, error) {
	if path == "/" || path == "" {
		return 0, nil
	}
	index := uint16(0)
	for _, component := range strings.Split(path[1:], "/") {
		next, err := getFstIndexIn(sb, index, component)
		if err != nil || int(next) >= NumFSTEntries {
			return 0, Err(Invalid)
		}
		index = next
	}
	return index, nil
}

// getFstIndexIn looks up name among parent's direct children.
func getFstIndexIn(sb *Superblock, parent uint16, name string) (uint16, error) {
	if int(parent) >= NumFSTEntries || len(name) > maxNameLen {
		return 0, Err(Invalid)
	}
	index := sb.FST(parent).Sub()
	if int(index) >= NumFSTEntries {
		return 0, Err(Invalid)
	}
	for int(index) < NumFSTEntries {
		if sb.FST(index).Name() == name {
			return index, nil
		}
		index = sb.FST(index).Sib()
	}
	return 0, Err(Invalid)
}

// GetUnusedFstIndex returns the index of the first unused (mode&3==0)
// FST entry.
func GetUnusedFstIndex(sb *Superblock) (uint16, error) {
	for i := 0; i < NumFSTEntries; i++ {
		if sb.FST(uint16(i)).IsUnused() {
			return uint16(i), nil
		}
	}
	return 0, Err(FstFull)
}

// HasPermission reports whether uid/gid may access entry with the
// requested access mode, per spec.md §4.4: uid 0 bypasses every check.
func HasPermission(entry FSTEntry, uid uint32, gid uint16, requested AccessMode) bool {
	if uid == 0 {
		return true
	}
	var fileMode AccessMode
	switch {
	case entry.UID() == uid:
		fileMode = entry.OwnerMode()
	case entry.GID() == gid:
		fileMode = entry.GroupMode()
	default:
		fileMode = entry.OtherMode()
	}
	return uint8(requested)&uint8(fileMode) == uint8(requested)
}

// deleteFile frees every cluster in a file's chain and clears its FST
// entry's mode, marking the slot unused. entry must be a valid file.
func deleteFile(sb *Superblock, fstIndex uint16) {
	entry := sb.FST(fstIndex)
	freeChain(sb, entry.Sub())
	entry.SetMode(0)
}

// deleteDirectoryContents recursively frees every file and
// sub-directory transitively contained in directory (clusters and FST
// slots), without touching directory's own FST slot or flushing the
// superblock. Every contained file must be closed.
func deleteDirectoryContents(sb *Superblock, directory uint16) {
	for child := sb.FST(directory).Sub(); int(child) < NumFSTEntries; child = sb.FST(child).Sib() {
		entry := sb.FST(child)
		if entry.IsDirectory() {
			deleteDirectoryContents(sb, child)
			entry.SetMode(0)
		} else {
			deleteFile(sb, child)
		}
	}
}

// removeFstEntryFromChain unlinks child from parent's sub/sib list,
// clearing its mode in the process.
func removeFstEntryFromChain(sb *Superblock, parent, child uint16) error {
	p := sb.FST(parent)
	if p.Sub() == child {
		p.SetSub(sb.FST(child).Sib())
		sb.FST(child).SetMode(0)
		return nil
	}

	previous := p.Sub()
	index := sb.FST(previous).Sib()
	for int(index) < NumFSTEntries {
		if index == child {
			sb.FST(previous).SetSib(sb.FST(child).Sib())
			sb.FST(child).SetMode(0)
			return nil
		}
		previous = index
		index = sb.FST(index).Sib()
	}
	return Err(NotFound)
}
