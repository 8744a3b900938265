package gust

import (
	"encoding/binary"
	"fmt"
)

// invalidTile marks a scratch slot with no resident tile
const invalidTile = ^uint32(0)

// scratchSlot is one tile-sized region of a core's private scratch memory,
// bound to a bulk buffer for the duration of a launch. TileID tracks the last
// tile loaded; before any element access the containing tile must be the
// resident one, and a stale dirty slot must be flushed before being
// overwritten.
type scratchSlot struct {
	buf       *Buffer
	data      []byte
	elemSize  int
	tileBytes int
	tileID    uint32
	dirty     []bool // per-element modified marks, nil for read-only roles
}

func newScratchSlot(buf *Buffer, data []byte, elemSize int, writable bool) *scratchSlot {
	s := &scratchSlot{
		buf:       buf,
		data:      data,
		elemSize:  elemSize,
		tileBytes: ElemsPerTile * elemSize,
		tileID:    invalidTile,
	}
	if writable {
		s.dirty = make([]bool, ElemsPerTile)
	}
	return s
}

// u32At returns the uint32 pattern element at tile offset off
func (s *scratchSlot) u32At(off uint32) uint32 {
	return binary.LittleEndian.Uint32(s.data[off*4:])
}

// rawAt returns the raw bfloat16 bits at tile offset off
func (s *scratchSlot) rawAt(off uint32) uint16 {
	return binary.LittleEndian.Uint16(s.data[off*2:])
}

// setRaw stores raw bfloat16 bits at tile offset off and marks it dirty
func (s *scratchSlot) setRaw(off uint32, v uint16) {
	binary.LittleEndian.PutUint16(s.data[off*2:], v)
	s.dirty[off] = true
}

// markAllDirty flags the whole resident tile for write-back
func (s *scratchSlot) markAllDirty() {
	for i := range s.dirty {
		s.dirty[i] = true
	}
}

func (s *scratchSlot) anyDirty() bool {
	if s.dirty == nil {
		return false
	}
	for _, d := range s.dirty {
		if d {
			return true
		}
	}
	return false
}

// nocEngine models one core's view of the on-chip network. Reads and writes
// are asynchronous: they are queued by the nocAsync* calls and only complete
// at the matching barrier. A kernel must not consume or repurpose a scratch
// slot before its barrier returns.
type nocEngine struct {
	pendingReads  []nocRequest
	pendingWrites []nocRequest
}

type nocRequest struct {
	slot *scratchSlot
	tile uint32
}

// nocAsyncReadTile queues a bulk-to-scratch transfer of one tile
func (n *nocEngine) nocAsyncReadTile(tile uint32, s *scratchSlot) {
	n.pendingReads = append(n.pendingReads, nocRequest{slot: s, tile: tile})
}

// nocAsyncWriteTile queues a scratch-to-bulk write-back of the slot's dirty
// elements
func (n *nocEngine) nocAsyncWriteTile(tile uint32, s *scratchSlot) {
	n.pendingWrites = append(n.pendingWrites, nocRequest{slot: s, tile: tile})
}

// nocReadBarrier completes all queued reads
func (n *nocEngine) nocReadBarrier() error {
	for _, req := range n.pendingReads {
		if err := completeRead(req); err != nil {
			n.pendingReads = n.pendingReads[:0]
			return err
		}
	}
	n.pendingReads = n.pendingReads[:0]
	return nil
}

// nocWriteBarrier completes all queued writes
func (n *nocEngine) nocWriteBarrier() error {
	for _, req := range n.pendingWrites {
		if err := completeWrite(req); err != nil {
			n.pendingWrites = n.pendingWrites[:0]
			return err
		}
	}
	n.pendingWrites = n.pendingWrites[:0]
	return nil
}

// nocWritesFlushed verifies no write is still in flight at kernel exit
func (n *nocEngine) nocWritesFlushed() error {
	if len(n.pendingWrites) != 0 {
		return NewTransferError("nocWritesFlushed",
			fmt.Sprintf("%d writes still pending at kernel exit", len(n.pendingWrites)), nil)
	}
	return nil
}

func completeRead(req nocRequest) error {
	s := req.slot
	off := int(req.tile) * s.tileBytes
	if req.tile == invalidTile || off+s.tileBytes > len(s.buf.data) {
		return NewTransferError("nocAsyncReadTile",
			fmt.Sprintf("tile %d out of range for buffer of %d bytes", req.tile, len(s.buf.data)), nil)
	}
	s.buf.mu.Lock()
	copy(s.data, s.buf.data[off:off+s.tileBytes])
	s.buf.mu.Unlock()
	return nil
}

// completeWrite merges only the slot's dirty elements into the bulk tile.
// Cores share destination tiles only at range boundaries, and their element
// offsets are disjoint there, so merging under the buffer lock keeps
// neighboring cores' elements intact.
func completeWrite(req nocRequest) error {
	s := req.slot
	off := int(req.tile) * s.tileBytes
	if req.tile == invalidTile || off+s.tileBytes > len(s.buf.data) {
		return NewTransferError("nocAsyncWriteTile",
			fmt.Sprintf("tile %d out of range for buffer of %d bytes", req.tile, len(s.buf.data)), nil)
	}
	s.buf.mu.Lock()
	dst := s.buf.data[off : off+s.tileBytes]
	for i, d := range s.dirty {
		if !d {
			continue
		}
		b := i * s.elemSize
		copy(dst[b:b+s.elemSize], s.data[b:b+s.elemSize])
		s.dirty[i] = false
	}
	s.buf.mu.Unlock()
	return nil
}
