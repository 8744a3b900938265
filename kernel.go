package gust

// Core-resident gather/scatter kernel. All operation variants share one
// element loop and one scratch-tile-caching discipline; they differ only in
// how an element index is resolved to a (source, destination) pair.

// opKind tags the closed set of operation variants
type opKind int

const (
	opGather opKind = iota
	opScatter
	opGatherScatter
	opMultiGather
	opMultiScatter
)

func (k opKind) String() string {
	switch k {
	case opGather:
		return "gather"
	case opScatter:
		return "scatter"
	case opGatherScatter:
		return "gather-scatter"
	case opMultiGather:
		return "multi-gather"
	case opMultiScatter:
		return "multi-scatter"
	default:
		return "unknown"
	}
}

// kernelConfig is the launch-wide parameter set shared by every core
type kernelConfig struct {
	op            opKind
	numElements   uint32
	patternLength uint32
	delta         uint32
	deltaScatter  uint32 // gather-scatter only
	count         uint32 // multi variants: elements per pattern iteration
	wrap          uint32 // multi variants: dense reuse period
	sparseElems   uint32 // multi variants: wrap-around modulus

	pattern       *Buffer // primary pattern
	patternSecond *Buffer // first-indirection pattern (multi), scatter pattern (gather-scatter)
	source        *Buffer // element source (bfloat16)
	destination   *Buffer // element destination (bfloat16)
	usesSecondPat bool
}

// coreKernel is the per-core state machine: scratch slots, cached tile ids
// and the core's assigned element range.
type coreKernel struct {
	cfg   *kernelConfig
	start uint32
	end   uint32

	noc nocEngine

	pat  *scratchSlot // primary pattern, uint32 elements
	pat2 *scratchSlot // secondary pattern, uint32 elements
	src  *scratchSlot // source data, bfloat16 elements
	dst  *scratchSlot // destination data, bfloat16 elements
}

// scratchBytes returns the per-core L1 footprint for a launch of cfg
func scratchBytes(cfg *kernelConfig) int {
	n := IndexTileBytes + 2*DataTileBytes
	if cfg.usesSecondPat {
		n += IndexTileBytes
	}
	return n
}

// newCoreKernel carves one core's scratch slots out of its L1 buffer and
// binds the launch arguments.
func newCoreKernel(cfg *kernelConfig, r workRange, l1 *Buffer) *coreKernel {
	k := &coreKernel{
		cfg:   cfg,
		start: r.Start,
		end:   r.Start + r.Count,
	}

	off := 0
	carve := func(n int) []byte {
		s := l1.data[off : off+n]
		off += n
		return s
	}

	k.pat = newScratchSlot(cfg.pattern, carve(IndexTileBytes), IndexElemSize, false)
	if cfg.usesSecondPat {
		k.pat2 = newScratchSlot(cfg.patternSecond, carve(IndexTileBytes), IndexElemSize, false)
	}
	k.src = newScratchSlot(cfg.source, carve(DataTileBytes), DataElemSize, false)
	k.dst = newScratchSlot(cfg.destination, carve(DataTileBytes), DataElemSize, true)
	return k
}

// bindTile makes tile the resident tile of slot s, flushing a stale dirty
// tile first. Reads go through the async NoC path and are complete once the
// barrier returns.
func (k *coreKernel) bindTile(s *scratchSlot, tile uint32) error {
	if s.tileID == tile {
		return nil
	}
	if err := k.flushSlot(s); err != nil {
		return err
	}
	k.noc.nocAsyncReadTile(tile, s)
	if err := k.noc.nocReadBarrier(); err != nil {
		s.tileID = invalidTile
		return err
	}
	s.tileID = tile
	return nil
}

// flushSlot writes a dirty resident tile back to bulk memory
func (k *coreKernel) flushSlot(s *scratchSlot) error {
	if s.tileID == invalidTile || !s.anyDirty() {
		return nil
	}
	k.noc.nocAsyncWriteTile(s.tileID, s)
	return k.noc.nocWriteBarrier()
}

// patternAt reads pattern element idx through slot s's tile cache
func (k *coreKernel) patternAt(s *scratchSlot, idx uint32) (uint32, error) {
	if err := k.bindTile(s, tileIndex(idx)); err != nil {
		return 0, err
	}
	return s.u32At(tileOffset(idx)), nil
}

// preload loads the pattern tiles that are reused across the whole range.
// The single-indirection variants index the pattern only through j % L with
// L capped at one tile, so the first tile serves every iteration; loading it
// inside the element loop would let the per-element source loads evict it.
func (k *coreKernel) preload() error {
	switch k.cfg.op {
	case opGather, opScatter:
		return k.bindTile(k.pat, 0)
	case opGatherScatter:
		if err := k.bindTile(k.pat, 0); err != nil {
			return err
		}
		return k.bindTile(k.pat2, 0)
	}
	// Multi variants chase indices across pattern tiles and cache on demand.
	return nil
}

// resolve maps one element index to its source and destination element
// indices. This is the only point where the operation variants differ.
func (k *coreKernel) resolve(e uint32) (srcIdx, dstIdx uint32, err error) {
	cfg := k.cfg
	switch cfg.op {
	case opGather:
		pi := e % cfg.patternLength
		it := e / cfg.patternLength
		base, err := k.patternAt(k.pat, pi)
		if err != nil {
			return 0, 0, err
		}
		return base + cfg.delta*it, e, nil

	case opScatter:
		pi := e % cfg.patternLength
		it := e / cfg.patternLength
		base, err := k.patternAt(k.pat, pi)
		if err != nil {
			return 0, 0, err
		}
		return e, base + cfg.delta*it, nil

	case opGatherScatter:
		pi := e % cfg.patternLength
		it := e / cfg.patternLength
		gatherBase, err := k.patternAt(k.pat, pi)
		if err != nil {
			return 0, 0, err
		}
		scatterBase, err := k.patternAt(k.pat2, pi)
		if err != nil {
			return 0, 0, err
		}
		return gatherBase + cfg.delta*it, scatterBase + cfg.deltaScatter*it, nil

	case opMultiGather:
		i := e / cfg.count
		j := e % cfg.count
		pi := j % cfg.patternLength
		first, err := k.patternAt(k.pat2, pi)
		if err != nil {
			return 0, 0, err
		}
		base, err := k.patternAt(k.pat, first)
		if err != nil {
			return 0, 0, err
		}
		srcIdx = (base + cfg.delta*i) % cfg.sparseElems
		dstIdx = j + cfg.patternLength*(i%cfg.wrap)
		return srcIdx, dstIdx, nil

	case opMultiScatter:
		i := e / cfg.count
		j := e % cfg.count
		pi := j % cfg.patternLength
		first, err := k.patternAt(k.pat2, pi)
		if err != nil {
			return 0, 0, err
		}
		base, err := k.patternAt(k.pat, first)
		if err != nil {
			return 0, 0, err
		}
		srcIdx = j + cfg.patternLength*(i%cfg.wrap)
		dstIdx = (base + cfg.delta*i) % cfg.sparseElems
		return srcIdx, dstIdx, nil
	}
	return 0, 0, NewInvalidArgError("resolve", "unknown operation variant")
}

// run executes the core's element range: LOAD_PATTERN, then the element
// loop, then the final dirty-tile flush. Source tiles are loaded when the
// resolved index leaves the resident tile; the destination tile is
// read-modify-write and written back only when its tile id changes or the
// range ends, so the kernel never issues more bulk writes than distinct
// destination tiles touched.
func (k *coreKernel) run() error {
	if k.start >= k.end {
		return nil
	}
	if err := k.preload(); err != nil {
		return err
	}

	for e := k.start; e < k.end; e++ {
		srcIdx, dstIdx, err := k.resolve(e)
		if err != nil {
			return err
		}

		if err := k.bindTile(k.src, tileIndex(srcIdx)); err != nil {
			return err
		}
		v := k.src.rawAt(tileOffset(srcIdx))

		if err := k.bindTile(k.dst, tileIndex(dstIdx)); err != nil {
			return err
		}
		k.dst.setRaw(tileOffset(dstIdx), v)
	}

	if err := k.flushSlot(k.dst); err != nil {
		return err
	}
	return k.noc.nocWritesFlushed()
}
