package sffs

import "strings"

// Modes bundles the owner/group/other access bits new entries are
// created with.
type Modes struct {
	Owner, Group, Other AccessMode
}

// FileAttribute is an opaque per-entry byte the original firmware
// never interprets itself; callers use it for their own bookkeeping.
type FileAttribute uint8

func isValidSFFSChar(c byte) bool {
	return int(c)-' ' <= 0x5e
}

func createFileOrDirectory(e *Engine, callerUID uint32, callerGID uint16, path string, attribute FileAttribute, modes Modes, isFile bool) error {
	if !IsValidNonRootPath(path) {
		return Err(Invalid)
	}
	for i := 0; i < len(path); i++ {
		if !isValidSFFSChar(path[i]) {
			return Err(Invalid)
		}
	}
	if !isFile && strings.Count(path, "/") > maxDirDepth {
		return Err(TooManyPathComponents)
	}

	sb, err := e.requireSuperblock()
	if err != nil {
		return err
	}

	parentPath, name := SplitPath(path)
	parentIdx, ferr := GetFstIndex(sb, parentPath)
	if ferr != nil {
		return Err(NotFound)
	}
	parent := sb.FST(parentIdx)
	if !HasPermission(parent, callerUID, callerGID, ModeWrite) {
		return Err(AccessDenied)
	}

	if _, ferr := getFstIndexIn(sb, parentIdx, name); ferr == nil {
		return Err(AlreadyExists)
	}

	childIdx, ferr := GetUnusedFstIndex(sb)
	if ferr != nil {
		return ferr
	}

	child := sb.FST(childIdx)
	child.Clear()
	child.SetName(name)
	kind := uint8(1)
	if !isFile {
		kind = 2
	}
	child.SetMode(kind)
	child.SetAccessMode(modes.Owner, modes.Group, modes.Other)
	child.SetUID(callerUID)
	child.SetGID(callerGID)
	child.SetSize(0)
	child.SetX3(0)
	child.SetAttribute(uint8(attribute))
	if isFile {
		child.SetSub(ClusterLastInChain)
	} else {
		child.SetSub(invalidFSTIndex)
	}
	child.SetSib(parent.Sub())
	parent.SetSub(childIdx)

	return e.FlushSuperblock()
}

// CreateFile creates an empty file at path.
func (e *Engine) CreateFile(callerUID uint32, callerGID uint16, path string, attribute FileAttribute, modes Modes) error {
	return createFileOrDirectory(e, callerUID, callerGID, path, attribute, modes, true)
}

// CreateDirectory creates an empty directory at path.
func (e *Engine) CreateDirectory(callerUID uint32, callerGID uint16, path string, attribute FileAttribute, modes Modes) error {
	return createFileOrDirectory(e, callerUID, callerGID, path, attribute, modes, false)
}

// Delete removes a file, or a directory and everything transitively
// inside it, provided nothing targeted is currently open.
func (e *Engine) Delete(callerUID uint32, callerGID uint16, path string) error {
	if !IsValidNonRootPath(path) {
		return Err(Invalid)
	}
	sb, err := e.requireSuperblock()
	if err != nil {
		return err
	}

	parentPath, name := SplitPath(path)
	parentIdx, ferr := GetFstIndex(sb, parentPath)
	if ferr != nil {
		return Err(NotFound)
	}
	if !HasPermission(sb.FST(parentIdx), callerUID, callerGID, ModeWrite) {
		return Err(AccessDenied)
	}

	index, ferr := getFstIndexIn(sb, parentIdx, name)
	if ferr != nil {
		return Err(NotFound)
	}

	entry := sb.FST(index)
	switch {
	case entry.IsDirectory() && !e.isDirectoryInUse(sb, index):
		deleteDirectoryContents(sb, index)
	case entry.IsFile() && !e.isFileOpened(index):
		deleteFile(sb, index)
	default:
		return Err(InUse)
	}

	if err := removeFstEntryFromChain(sb, parentIdx, index); err != nil {
		return err
	}
	return e.FlushSuperblock()
}

// Rename moves (and optionally replaces) the entry at oldPath to
// newPath. A file may not change its first 12 name bytes across the
// move; if something of the same kind already exists at newPath, it
// is deleted first.
func (e *Engine) Rename(callerUID uint32, callerGID uint16, oldPath, newPath string) error {
	if !IsValidNonRootPath(oldPath) || !IsValidNonRootPath(newPath) {
		return Err(Invalid)
	}
	sb, err := e.requireSuperblock()
	if err != nil {
		return err
	}

	oldParentPath, oldName := SplitPath(oldPath)
	newParentPath, newName := SplitPath(newPath)

	oldParentIdx, ferr := GetFstIndex(sb, oldParentPath)
	if ferr != nil {
		return Err(NotFound)
	}
	newParentIdx, ferr := GetFstIndex(sb, newParentPath)
	if ferr != nil {
		return Err(NotFound)
	}

	if !HasPermission(sb.FST(oldParentIdx), callerUID, callerGID, ModeWrite) ||
		!HasPermission(sb.FST(newParentIdx), callerUID, callerGID, ModeWrite) {
		return Err(AccessDenied)
	}

	index, ferr := getFstIndexIn(sb, oldParentIdx, oldName)
	if ferr != nil {
		return Err(NotFound)
	}
	entry := sb.FST(index)

	if entry.IsFile() && truncatedName(oldName) != truncatedName(newName) {
		return Err(Invalid)
	}

	if (entry.IsDirectory() && e.isDirectoryInUse(sb, index)) ||
		(entry.IsFile() && e.isFileOpened(index)) {
		return Err(InUse)
	}

	if newIndex, ferr := getFstIndexIn(sb, newParentIdx, newName); ferr == nil {
		newEntry := sb.FST(newIndex)
		if (newEntry.Mode()&3) != (entry.Mode()&3) || newIndex == index {
			return Err(Invalid)
		}
		switch {
		case newEntry.IsDirectory() && !e.isDirectoryInUse(sb, newIndex):
			deleteDirectoryContents(sb, newIndex)
		case newEntry.IsFile() && !e.isFileOpened(newIndex):
			deleteFile(sb, newIndex)
		default:
			return Err(InUse)
		}
		if err := removeFstEntryFromChain(sb, newParentIdx, newIndex); err != nil {
			return err
		}
	}

	savedMode := entry.Mode()
	if err := removeFstEntryFromChain(sb, oldParentIdx, index); err != nil {
		return err
	}

	entry.SetMode(savedMode)
	entry.SetName(newName)
	entry.SetSib(sb.FST(newParentIdx).Sub())
	sb.FST(newParentIdx).SetSub(index)

	return e.FlushSuperblock()
}

func truncatedName(name string) string {
	if len(name) > maxNameLen {
		return name[:maxNameLen]
	}
	return name
}

// ReadDirectory returns the names of every direct child of path.
func (e *Engine) ReadDirectory(callerUID uint32, callerGID uint16, path string) ([]string, error) {
	if path == "" || len(path) > maxPathLen || path[0] != '/' {
		return nil, Err(Invalid)
	}
	sb, err := e.requireSuperblock()
	if err != nil {
		return nil, err
	}

	index, ferr := GetFstIndex(sb, path)
	if ferr != nil {
		return nil, Err(NotFound)
	}
	entry := sb.FST(index)
	if !HasPermission(entry, callerUID, callerGID, ModeRead) {
		return nil, Err(AccessDenied)
	}
	if !entry.IsDirectory() {
		return nil, Err(Invalid)
	}

	var children []string
	for i := entry.Sub(); i != invalidFSTIndex; i = sb.FST(i).Sib() {
		children = append(children, sb.FST(i).Name())
	}
	return children, nil
}
