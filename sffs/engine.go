package sffs

import (
	"log/slog"
)

// superblockState mirrors spec.md §4.8's NONE/LOADED state machine.
type superblockState int

const (
	stateNone superblockState = iota
	stateLoaded
)

// Engine is the image-backed SFFS filesystem engine: the CORE this
// module implements. One Engine owns exactly one backing image and one
// in-memory superblock, per spec.md §5 and §9 ("Instantiate exactly
// one per image file").
type Engine struct {
	image Image
	keys  KeyStore
	mac   BlockMacGenerator
	logger *slog.Logger

	superblock      *Superblock
	superblockIndex int
	state           superblockState

	handles [numHandles]handle
	cache   fileCache
}

// New constructs an Engine over an already-sized backing image (see
// spec.md §6: exactly ImageSize bytes). It attempts to load the active
// superblock immediately, the way the original driver's constructor
// does; if none verifies, the Engine starts in the NONE state and
// every metadata operation returns SuperblockInitFailed until Format
// is called.
func New(image Image, keys KeyStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		image:  image,
		keys:   keys,
		mac:    keys.MacGenerator(),
		logger: logger,
		cache:  newFileCache(),
	}
	for i := range e.handles {
		e.handles[i] = handle{}
	}
	e.loadSuperblock()
	return e
}

// reset discards any cached superblock and open handles. It is used by
// Format, which rewrites the entire image and must not let stale state
// leak across the rewrite.
func (e *Engine) reset() {
	e.superblock = nil
	e.state = stateNone
	e.cache = newFileCache()
	for i := range e.handles {
		e.handles[i] = handle{}
	}
}

// loadSuperblock scans all NumberOfSuperblocks copies and keeps the one
// with the greatest version number whose magic and HMAC both verify,
// per spec.md §4.8. It is called once at construction time; after
// that, GetSuperblock simply returns the cached pointer or attempts a
// single fresh load if the Engine is still in the NONE state.
func (e *Engine) loadSuperblock() {
	var highestVersion uint32
	var best *Superblock
	bestIndex := -1

	// Every magic-valid copy that could beat the current best is
	// HMAC-checked; a copy that fails is skipped, so an older copy that
	// verifies can still be selected.
	for i := 0; i < NumberOfSuperblocks; i++ {
		sb, err := e.readSuperblockCopy(i)
		if err != nil || !sb.IsMagicValid() {
			continue
		}
		if best != nil && sb.Version() < highestVersion {
			continue
		}
		if !e.verifySuperblockHMAC(sb, i) {
			e.logger.Error("failed to verify superblock", "index", i)
			continue
		}
		highestVersion = sb.Version()
		best = sb
		bestIndex = i
	}

	if best == nil {
		e.state = stateNone
		return
	}

	best.normalizeLegacyFAT()
	e.superblock = best
	e.superblockIndex = bestIndex
	e.state = stateLoaded
	e.logger.Info("loaded superblock", "index", bestIndex, "version", best.Version())
}

// readSuperblockCopy reads superblock copy i's 16 clusters into one
// contiguous buffer without verifying anything.
func (e *Engine) readSuperblockCopy(i int) (*Superblock, error) {
	sb := NewSuperblock()
	base := superblockCluster(i)
	for c := 0; c < ClustersPerSuperblock; c++ {
		dst := sb.data[c*ClusterDataSize : (c+1)*ClusterDataSize]
		if _, err := e.readCluster(base+uint16(c), dst); err != nil {
			return nil, err
		}
	}
	return sb, nil
}

// verifySuperblockHMAC re-reads the last cluster of copy i (the one
// carrying the HMAC in its spare area) and checks it against either of
// the two copies, per spec.md §4.1.
func (e *Engine) verifySuperblockHMAC(sb *Superblock, index int) bool {
	want := e.hmacForSuperblock(sb, index)
	var buf [ClusterDataSize]byte
	hmacs, err := e.readCluster(superblockCluster(index)+ClustersPerSuperblock-1, buf[:])
	if err != nil {
		return false
	}
	return want == hmacs[0] || want == hmacs[1]
}

// GetSuperblock returns the active superblock, retrying the scan if the
// Engine is still in the NONE state, mirroring the original driver's
// GetSuperblock (which keeps re-scanning on every call until one
// verifies -- there is no permanent failure short of a fresh Format).
func (e *Engine) GetSuperblock() *Superblock {
	if e.state != stateLoaded {
		e.loadSuperblock()
	}
	if e.state != stateLoaded {
		return nil
	}
	return e.superblock
}

func (e *Engine) requireSuperblock() (*Superblock, error) {
	sb := e.GetSuperblock()
	if sb == nil {
		return nil, Err(SuperblockInitFailed)
	}
	return sb, nil
}

// hmacForSuperblock computes HMAC-SHA1(macKey, SuperblockSalt || superblock-bytes).
func (e *Engine) hmacForSuperblock(sb *Superblock, index int) Hash {
	salt := superblockSalt{startingCluster: superblockCluster(index)}
	e.mac.Update(salt.bytes())
	e.mac.Update(sb.Bytes())
	return e.mac.Finalise()
}

// hmacForData computes HMAC-SHA1(macKey, DataSalt || plaintext-cluster-bytes).
func (e *Engine) hmacForData(sb *Superblock, data []byte, fstIndex, chainIndex uint16) Hash {
	salt := newDataSalt(sb.FST(fstIndex), fstIndex, chainIndex)
	e.mac.Update(salt.bytes())
	e.mac.Update(data)
	return e.mac.Finalise()
}

// FlushSuperblock persists the in-memory superblock to the next slot
// in rotation, bumping its version, per spec.md §3/§4.8. On a write
// failure it retries with the following slot, up to NumberOfSuperblocks
// times. On version wrap it performs 15 additional dummy flushes so
// that no driver instance can ever pick an older superblock.
func (e *Engine) FlushSuperblock() error {
	if e.superblock == nil {
		return Err(NotFound)
	}
	e.superblock.SetVersion(e.superblock.Version() + 1)

	for attempt := 0; attempt < NumberOfSuperblocks; attempt++ {
		err := e.writeSuperblockRotated()
		if err == nil {
			return nil
		}
		e.logger.Error("failed to write superblock", "attempt", attempt, "err", err)
	}
	e.logger.Error("failed to flush superblock after exhausting all slots")
	return Err(SuperblockWriteFailed)
}

func (e *Engine) writeSuperblockRotated() error {
	e.superblockIndex = (e.superblockIndex + 1) % NumberOfSuperblocks
	hmac := e.hmacForSuperblock(e.superblock, e.superblockIndex)
	var zero Hash

	base := superblockCluster(e.superblockIndex)
	for c := 0; c < ClustersPerSuperblock; c++ {
		tag := zero
		if c == ClustersPerSuperblock-1 {
			tag = hmac
		}
		src := e.superblock.data[c*ClusterDataSize : (c+1)*ClusterDataSize]
		if err := e.writeCluster(base+uint16(c), src, tag); err != nil {
			return err
		}
	}

	if e.superblock.Version() == 0 {
		e.logger.Warn("superblock version overflowed, writing 15 extra versions")
		for i := 0; i < 15; i++ {
			e.superblock.SetVersion(e.superblock.Version() + 1)
			if err := e.writeSuperblockRotated(); err != nil {
				return err
			}
		}
	}
	return nil
}
