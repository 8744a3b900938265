package gust

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// BufferType is the class of a bulk allocation
type BufferType int

const (
	// BufferDRAM is the general-purpose bulk memory pool
	BufferDRAM BufferType = iota
	// BufferL1 is per-core private scratch memory
	BufferL1
)

// Buffer is an opaque handle to a device-resident allocation. Its physical
// size is always a whole number of tiles; the logical element count written
// through the device is tracked separately so tile padding stays invisible to
// the caller.
type Buffer struct {
	mu    sync.Mutex
	class BufferType
	data  []byte
}

// SizeBytes returns the tile-padded physical size of the buffer
func (b *Buffer) SizeBytes() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Class returns the buffer's allocation class
func (b *Buffer) Class() BufferType {
	return b.class
}

// AllocateBuffer allocates a device buffer of at least size bytes. The size
// is rounded up to a whole tile, and DRAM-class buffers are then additionally
// rounded to the DRAM alignment boundary. Fails with an Allocation error when
// the device rejects the padded size.
func (d *Device) AllocateBuffer(size int, class BufferType) (*Buffer, error) {
	const op = "AllocateBuffer"

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		return nil, NewNotInitializedError(op)
	}
	if size <= 0 {
		return nil, NewInvalidArgError(op, "size must be positive")
	}

	// Tile rounding first, then the DRAM alignment boundary.
	padded := alignToDataTiles(size)
	if class == BufferDRAM {
		padded = alignUp(padded, DRAMAlignment)
	}

	switch class {
	case BufferDRAM:
		if d.dramUsed+uint64(padded) > d.dramCapacity {
			return nil, NewAllocationError(op,
				fmt.Sprintf("requested %d bytes (padded %d), %d of %d in use",
					size, padded, d.dramUsed, d.dramCapacity), nil)
		}
		d.dramUsed += uint64(padded)
	case BufferL1:
		if padded > L1ScratchBytes {
			return nil, NewAllocationError(op,
				fmt.Sprintf("scratch request %d bytes exceeds L1 size %d", padded, L1ScratchBytes), nil)
		}
		d.l1Used += uint64(padded)
	default:
		return nil, NewInvalidArgError(op, fmt.Sprintf("unknown buffer class %d", class))
	}

	b := &Buffer{
		class: class,
		data:  make([]byte, padded),
	}
	d.buffers[b] = struct{}{}
	return b, nil
}

// releaseBuffer returns an allocation to the device. Used internally for
// per-launch scratch; caller-visible buffers live until Close.
func (d *Device) releaseBuffer(b *Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.buffers[b]; !ok {
		return
	}
	switch b.class {
	case BufferDRAM:
		d.dramUsed -= uint64(len(b.data))
	case BufferL1:
		d.l1Used -= uint64(len(b.data))
	}
	delete(d.buffers, b)
	delete(d.logicalElems, b)
	b.data = nil
}

// WriteBuffer converts values to the compact on-device format, zero-pads to
// the tile boundary and issues the transfer. The logical element count is
// recorded (overwriting any prior record) so a later read can strip the
// padding. Writing an empty slice is a no-op. The blocking flag is accepted
// for API parity; transfers in the simulated device always complete before
// return.
func (d *Device) WriteBuffer(buf *Buffer, values []float64, blocking bool) error {
	const op = "WriteBuffer"

	if err := d.checkBuffer(op, buf); err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}

	paddedElems := tilesForElements(len(values)) * ElemsPerTile
	need := paddedElems * DataElemSize
	if need > len(buf.data) {
		return NewTransferError(op,
			fmt.Sprintf("%d elements (%d bytes tile-padded) exceed buffer size %d",
				len(values), need, len(buf.data)), nil)
	}

	d.mu.Lock()
	d.logicalElems[buf] = len(values)
	d.mu.Unlock()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	s := NewBFloat16Slice(buf.data[:need])
	for i, v := range values {
		s.SetFloat64(i, v)
	}
	for i := len(values); i < paddedElems; i++ {
		s.Set(i, 0)
	}
	return nil
}

// WriteIndexBuffer writes pattern indices as raw uint32 values, zero-padded
// to a whole pattern tile. The same logical-count bookkeeping as WriteBuffer
// applies.
func (d *Device) WriteIndexBuffer(buf *Buffer, indices []uint32, blocking bool) error {
	const op = "WriteIndexBuffer"

	if err := d.checkBuffer(op, buf); err != nil {
		return err
	}
	if len(indices) == 0 {
		return nil
	}

	paddedElems := tilesForElements(len(indices)) * ElemsPerTile
	need := paddedElems * IndexElemSize
	if need > len(buf.data) {
		return NewTransferError(op,
			fmt.Sprintf("%d indices (%d bytes tile-padded) exceed buffer size %d",
				len(indices), need, len(buf.data)), nil)
	}

	d.mu.Lock()
	d.logicalElems[buf] = len(indices)
	d.mu.Unlock()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	for i, v := range indices {
		binary.LittleEndian.PutUint32(buf.data[i*IndexElemSize:], v)
	}
	for i := len(indices); i < paddedElems; i++ {
		binary.LittleEndian.PutUint32(buf.data[i*IndexElemSize:], 0)
	}
	return nil
}

// ReadBuffer issues the inverse transfer and widens the on-device values
// back to float64. The result is truncated to the logical count recorded by
// the last write; a buffer never written through this device returns its full
// tile-padded length unmodified.
func (d *Device) ReadBuffer(buf *Buffer, blocking bool) ([]float64, error) {
	const op = "ReadBuffer"

	if err := d.checkBuffer(op, buf); err != nil {
		return nil, err
	}

	n := len(buf.data) / DataElemSize
	d.mu.Lock()
	if recorded, ok := d.logicalElems[buf]; ok && recorded < n {
		n = recorded
	}
	d.mu.Unlock()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	s := NewBFloat16Slice(buf.data)
	out := make([]float64, n)
	for i := range out {
		out[i] = s.GetFloat64(i)
	}
	return out, nil
}

// bufferElems returns the element capacity used for wrap-around addressing:
// the recorded logical count when one exists, otherwise the physical
// tile-padded capacity.
func (d *Device) bufferElems(buf *Buffer) uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n, ok := d.logicalElems[buf]; ok {
		return uint32(n)
	}
	return uint32(len(buf.data) / DataElemSize)
}

// checkBuffer validates the session and handle before any transfer
func (d *Device) checkBuffer(op string, buf *Buffer) error {
	d.mu.Lock()
	initialized := d.initialized
	var known bool
	if buf != nil {
		_, known = d.buffers[buf]
	}
	d.mu.Unlock()

	if !initialized {
		return NewNotInitializedError(op)
	}
	if buf == nil {
		return NewInvalidBufferError(op, "nil buffer handle")
	}
	if !known {
		return NewInvalidBufferError(op, "buffer does not belong to this device")
	}
	return nil
}
