package sffs

// NandStats summarises cluster and inode usage across the whole
// image, per spec.md §4.6.
type NandStats struct {
	ClusterSize      uint32
	FreeClusters     uint32
	ReservedClusters uint32
	BadClusters      uint32
	UsedClusters     uint32
	FreeInodes       uint32
	UsedInodes       uint32
}

// GetNandStats walks the entire FAT and FST to produce usage counts.
// A dirty write-cache entry is counted as one additional used cluster
// since its cluster has not actually been allocated in the FAT yet.
func (e *Engine) GetNandStats() (NandStats, error) {
	sb, err := e.requireSuperblock()
	if err != nil {
		return NandStats{}, err
	}

	var stats NandStats
	stats.ClusterSize = ClusterDataSize

	for c := 0; c < TotalClusters; c++ {
		switch sb.FAT(uint16(c)) {
		case ClusterUnused, ClusterUnusedLegacy:
			stats.FreeClusters++
		case ClusterReserved:
			stats.ReservedClusters++
		case ClusterBad:
			stats.BadClusters++
		default:
			stats.UsedClusters++
		}
	}

	for i := 0; i < NumFSTEntries; i++ {
		if !sb.FST(uint16(i)).IsUnused() {
			stats.UsedInodes++
		} else {
			stats.FreeInodes++
		}
	}

	if e.cache.valid && e.cache.forWrite {
		stats.FreeClusters--
		stats.UsedClusters++
	}

	return stats, nil
}

// DirectoryStats is the recursive cluster/inode count under a
// directory, returned by GetDirectoryStats.
type DirectoryStats struct {
	UsedClusters uint32
	UsedInodes   uint32
}

func countDirectoryRecursively(sb *Superblock, directory uint16) DirectoryStats {
	stats := DirectoryStats{UsedInodes: 1}
	for child := sb.FST(directory).Sub(); int(child) < NumFSTEntries; child = sb.FST(child).Sib() {
		entry := sb.FST(child)
		if entry.IsFile() {
			stats.UsedClusters += (entry.Size() + ClusterDataSize - 1) / ClusterDataSize
			stats.UsedInodes++
		} else {
			sub := countDirectoryRecursively(sb, child)
			stats.UsedClusters += sub.UsedClusters
			stats.UsedInodes += sub.UsedInodes
		}
	}
	return stats
}

// GetDirectoryStats recursively counts clusters (file sizes rounded up
// to cluster granularity) and inodes underneath a directory, including
// the directory entry itself.
func (e *Engine) GetDirectoryStats(path string) (DirectoryStats, error) {
	sb, err := e.requireSuperblock()
	if err != nil {
		return DirectoryStats{}, err
	}
	if path == "" || path[0] != '/' || len(path) > maxPathLen {
		return DirectoryStats{}, Err(Invalid)
	}

	index, ferr := GetFstIndex(sb, path)
	if ferr != nil {
		return DirectoryStats{}, Err(NotFound)
	}
	if !sb.FST(index).IsDirectory() {
		return DirectoryStats{}, Err(Invalid)
	}

	return countDirectoryRecursively(sb, index), nil
}
