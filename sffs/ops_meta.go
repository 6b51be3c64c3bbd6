package sffs

// Metadata is the result of GetMetadata: everything about an entry
// except its cluster chain.
type Metadata struct {
	UID       uint32
	GID       uint16
	Attribute FileAttribute
	Modes     Modes
	IsFile    bool
	Size      uint32
	FstIndex  uint16
}

// GetMetadata resolves path and returns its entry's metadata. The
// root's own metadata can be read by anyone; any other path requires
// Read permission on its parent.
func (e *Engine) GetMetadata(callerUID uint32, callerGID uint16, path string) (Metadata, error) {
	if path == "" {
		return Metadata{}, Err(Invalid)
	}
	sb, err := e.requireSuperblock()
	if err != nil {
		return Metadata{}, err
	}

	var index uint16
	switch {
	case path == "/":
		index = 0
	case IsValidNonRootPath(path):
		parentPath, name := SplitPath(path)
		parentIdx, ferr := GetFstIndex(sb, parentPath)
		if ferr != nil {
			return Metadata{}, Err(NotFound)
		}
		if !HasPermission(sb.FST(parentIdx), callerUID, callerGID, ModeRead) {
			return Metadata{}, Err(AccessDenied)
		}
		childIdx, ferr := getFstIndexIn(sb, parentIdx, name)
		if ferr != nil {
			return Metadata{}, Err(NotFound)
		}
		index = childIdx
	default:
		return Metadata{}, Err(Invalid)
	}

	entry := sb.FST(index)
	return Metadata{
		UID:       entry.UID(),
		GID:       entry.GID(),
		Attribute: FileAttribute(entry.Attribute()),
		Modes:     Modes{Owner: entry.OwnerMode(), Group: entry.GroupMode(), Other: entry.OtherMode()},
		IsFile:    entry.IsFile(),
		Size:      entry.Size(),
		FstIndex:  index,
	}, nil
}

// SetMetadata updates uid/gid/attribute/modes on the entry at path.
// Only the superuser or the entry's current owner may call this, the
// uid may not actually change unless the caller is the superuser, and
// a non-empty file may never change owner.
func (e *Engine) SetMetadata(callerUID uint32, path string, uid uint32, gid uint16, attribute FileAttribute, modes Modes) error {
	if path == "" || len(path) > maxPathLen || path[0] != '/' {
		return Err(Invalid)
	}
	sb, err := e.requireSuperblock()
	if err != nil {
		return err
	}

	index, ferr := GetFstIndex(sb, path)
	if ferr != nil {
		return Err(NotFound)
	}
	entry := sb.FST(index)

	if callerUID != 0 && callerUID != entry.UID() {
		return Err(AccessDenied)
	}
	if callerUID != 0 && entry.UID() != uid {
		return Err(AccessDenied)
	}
	if entry.UID() != uid && entry.IsFile() && entry.Size() != 0 {
		return Err(FileNotEmpty)
	}

	entry.SetGID(gid)
	entry.SetUID(uid)
	entry.SetAttribute(uint8(attribute))
	entry.SetAccessMode(modes.Owner, modes.Group, modes.Other)

	return e.FlushSuperblock()
}
