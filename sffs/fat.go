package sffs

// findUnusedCluster does a linear scan of the FAT for the first
// ClusterUnused entry. Clusters are handed out in this order
// regardless of wear, matching the original driver: there is no real
// flash device underneath to wear-level for.
func (e *Engine) findUnusedCluster(sb *Superblock) (uint16, error) {
	for c := 0; c < SuperblockStartCluster; c++ {
		if sb.FAT(uint16(c)) == ClusterUnused {
			return uint16(c), nil
		}
	}
	return 0, Err(NoFreeSpace)
}

// clusterForFile walks the chain starting at firstCluster forward
// index links and returns the cluster at that position.
func clusterForFile(sb *Superblock, firstCluster uint16, index int) (uint16, bool) {
	cluster := firstCluster
	for i := 0; i < index; i++ {
		if int(cluster) >= TotalClusters {
			return 0, false
		}
		cluster = sb.FAT(cluster)
	}
	if int(cluster) >= TotalClusters {
		return 0, false
	}
	return cluster, true
}

// writeFileData implements the copy-on-write cluster write sequence
// from spec.md §4.2: allocate a fresh cluster, write data and HMAC to
// it, then retarget the predecessor (FST.sub for chain index 0, or the
// previous cluster's FAT entry otherwise) to point at it, inheriting
// whatever the old cluster at that position pointed to next. Only once
// the new cluster is fully linked in is the old one freed.
func (e *Engine) writeFileData(fstIndex uint16, source []byte, chainIndex uint16, newSize uint32) error {
	if int(fstIndex) >= NumFSTEntries {
		return Err(Invalid)
	}
	sb, err := e.requireSuperblock()
	if err != nil {
		return err
	}

	entry := sb.FST(fstIndex)
	if !entry.IsFile() || newSize < entry.Size() {
		return Err(Invalid)
	}

	cluster, err := e.findUnusedCluster(sb)
	if err != nil {
		return err
	}

	hash := e.hmacForData(sb, source, fstIndex, chainIndex)
	if err := e.writeCluster(cluster, source, hash); err != nil {
		return err
	}

	oldCluster, hadOld := clusterForFile(sb, entry.Sub(), int(chainIndex))

	if chainIndex == 0 {
		entry.SetSub(cluster)
	} else {
		prev, ok := clusterForFile(sb, entry.Sub(), int(chainIndex)-1)
		if !ok {
			return Err(Invalid)
		}
		sb.SetFAT(prev, cluster)
	}

	if hadOld {
		sb.SetFAT(cluster, sb.FAT(oldCluster))
		sb.SetFAT(oldCluster, ClusterUnused)
	} else {
		sb.SetFAT(cluster, ClusterLastInChain)
	}

	entry.SetSize(newSize)
	return nil
}

// readFileData implements spec.md §4.2's read path: locate the cluster
// at chainIndex, read it, and accept it only if the freshly computed
// HMAC matches either of the two stored copies.
func (e *Engine) readFileData(fstIndex, chainIndex uint16, data []byte) error {
	if int(fstIndex) >= NumFSTEntries {
		return Err(Invalid)
	}
	sb, err := e.requireSuperblock()
	if err != nil {
		return err
	}

	entry := sb.FST(fstIndex)
	if !entry.IsFile() || entry.Size() <= uint32(chainIndex)*ClusterDataSize {
		return Err(Invalid)
	}

	cluster, ok := clusterForFile(sb, entry.Sub(), int(chainIndex))
	if !ok {
		return Err(Invalid)
	}

	hmacs, err := e.readCluster(cluster, data)
	if err != nil {
		return err
	}

	want := e.hmacForData(sb, data, fstIndex, chainIndex)
	if want != hmacs[0] && want != hmacs[1] {
		e.logger.Error("failed to verify cluster data", "fst_index", fstIndex, "chain_index", chainIndex)
		return Err(CheckFailed)
	}
	return nil
}

// freeChain walks the cluster chain starting at firstCluster and marks
// every cluster ClusterUnused, per spec.md §4.5's Delete contract.
func freeChain(sb *Superblock, firstCluster uint16) {
	cluster := firstCluster
	for int(cluster) < TotalClusters {
		next := sb.FAT(cluster)
		sb.SetFAT(cluster, ClusterUnused)
		cluster = next
	}
}
