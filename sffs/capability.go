package sffs

// FileSystem is the public operation surface this package's Engine
// implements. It exists so that an alternate backend -- e.g. one that
// passes operations straight through to a host directory instead of
// an image file -- can be swapped in behind the same interface, the
// way the surrounding emulator's FS dispatcher is agnostic to which
// concrete backend services a given operation.
type FileSystem interface {
	Format(uid uint32) error

	OpenFile(uid uint32, gid uint16, path string, mode AccessMode) (Fd, error)
	Close(fd Fd) error
	Read(fd Fd, p []byte) (int, error)
	Write(fd Fd, p []byte) (int, error)
	Seek(fd Fd, offset int64, mode SeekMode) (uint32, error)
	Stat(fd Fd) (FileStatus, error)

	CreateFile(callerUID uint32, callerGID uint16, path string, attribute FileAttribute, modes Modes) error
	CreateDirectory(callerUID uint32, callerGID uint16, path string, attribute FileAttribute, modes Modes) error
	Delete(callerUID uint32, callerGID uint16, path string) error
	Rename(callerUID uint32, callerGID uint16, oldPath, newPath string) error
	ReadDirectory(callerUID uint32, callerGID uint16, path string) ([]string, error)

	GetMetadata(callerUID uint32, callerGID uint16, path string) (Metadata, error)
	SetMetadata(callerUID uint32, path string, uid uint32, gid uint16, attribute FileAttribute, modes Modes) error

	GetNandStats() (NandStats, error)
	GetDirectoryStats(path string) (DirectoryStats, error)
}

var _ FileSystem = (*Engine)(nil)
