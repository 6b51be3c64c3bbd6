package sffs

import "testing"

func TestFindUnusedClusterSkipsReserved(t *testing.T) {
	e := newFormattedEngine(t)
	sb := e.GetSuperblock()

	c, err := e.findUnusedCluster(sb)
	if err != nil {
		t.Fatalf("findUnusedCluster: %v", err)
	}
	if c < 64 || c >= SuperblockStartCluster {
		t.Fatalf("findUnusedCluster returned reserved cluster %d", c)
	}
}

func TestFindUnusedClusterExhaustion(t *testing.T) {
	e := newFormattedEngine(t)
	sb := e.GetSuperblock()
	for c := uint16(0); c < SuperblockStartCluster; c++ {
		if sb.FAT(c) == ClusterUnused {
			sb.SetFAT(c, ClusterReserved)
		}
	}
	if _, err := e.findUnusedCluster(sb); Code(err) != NoFreeSpace {
		t.Fatalf("findUnusedCluster on exhausted FAT returned %v, want NoFreeSpace", err)
	}
}

func TestClusterForFileWalksChain(t *testing.T) {
	sb := NewSuperblock()
	sb.SetFAT(10, 20)
	sb.SetFAT(20, ClusterLastInChain)

	c, ok := clusterForFile(sb, 10, 0)
	if !ok || c != 10 {
		t.Fatalf("clusterForFile(index 0) = (%d, %v), want (10, true)", c, ok)
	}
	c, ok = clusterForFile(sb, 10, 1)
	if !ok || c != 20 {
		t.Fatalf("clusterForFile(index 1) = (%d, %v), want (20, true)", c, ok)
	}
	if _, ok := clusterForFile(sb, 10, 2); ok {
		t.Fatalf("clusterForFile past end of chain should fail")
	}
}

func TestFreeChainMarksEveryClusterUnused(t *testing.T) {
	sb := NewSuperblock()
	sb.SetFAT(1, 2)
	sb.SetFAT(2, 3)
	sb.SetFAT(3, ClusterLastInChain)

	freeChain(sb, 1)

	for _, c := range []uint16{1, 2, 3} {
		if got := sb.FAT(c); got != ClusterUnused {
			t.Errorf("FAT(%d) = %#x after freeChain, want ClusterUnused", c, got)
		}
	}
}

func TestWriteReadFileDataAcrossMultipleClusters(t *testing.T) {
	e := newFormattedEngine(t)
	if err := e.CreateFile(0, 0, "/big", 0, Modes{ModeRW, ModeRead, ModeRead}); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	fd, err := e.OpenFile(0, 0, "/big", ModeRW)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer e.Close(fd)

	payload := make([]byte, ClusterDataSize*2+128)
	for i := range payload {
		payload[i] = byte(i)
	}
	n, err := e.Write(fd, payload)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("Write returned %d, want %d", n, len(payload))
	}

	if _, err := e.Seek(fd, 0, SeekSet); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	readBack := make([]byte, len(payload))
	n, err = e.Read(fd, readBack)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != len(payload) {
		t.Fatalf("Read returned %d, want %d", n, len(payload))
	}
	for i := range payload {
		if readBack[i] != payload[i] {
			t.Fatalf("readBack[%d] = %d, want %d", i, readBack[i], payload[i])
		}
	}
}

func TestReadFileDataRejectsTamperedCluster(t *testing.T) {
	e := newFormattedEngine(t)
	if err := e.CreateFile(0, 0, "/f", 0, Modes{ModeRW, ModeRead, ModeRead}); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	fd, err := e.OpenFile(0, 0, "/f", ModeRW)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	if _, err := e.Write(fd, []byte("hello world")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := e.Close(fd); err != nil {
		t.Fatalf("Close: %v", err)
	}

	sb := e.GetSuperblock()
	index, err := GetFstIndex(sb, "/f")
	if err != nil {
		t.Fatalf("GetFstIndex: %v", err)
	}
	cluster := sb.FST(index).Sub()

	// Flip a byte of the ciphertext directly on the image, bypassing the
	// engine, to simulate a corrupted or bit-rotted cluster.
	img := e.image.(*memImage)
	off := offset(cluster, 0)
	img.buf[off] ^= 0xFF

	var data [ClusterDataSize]byte
	if err := e.readFileData(index, 0, data[:]); Code(err) != CheckFailed {
		t.Fatalf("readFileData on tampered cluster returned %v, want CheckFailed", err)
	}
}
