package gust

import (
	"math/rand"
	"testing"
)

// makeDataBuffer allocates a DRAM buffer sized for vals and writes them
func makeDataBuffer(t *testing.T, dev *Device, vals []float64) *Buffer {
	t.Helper()
	buf, err := dev.AllocateBuffer(DataBufferSize(len(vals)), BufferDRAM)
	if err != nil {
		t.Fatalf("AllocateBuffer failed: %v", err)
	}
	if err := dev.WriteBuffer(buf, vals, true); err != nil {
		t.Fatalf("WriteBuffer failed: %v", err)
	}
	return buf
}

// makePatternBuffer allocates and writes a pattern buffer
func makePatternBuffer(t *testing.T, dev *Device, indices []uint32) *Buffer {
	t.Helper()
	buf, err := dev.AllocateBuffer(IndexBufferSize(len(indices)), BufferDRAM)
	if err != nil {
		t.Fatalf("AllocateBuffer failed: %v", err)
	}
	if err := dev.WriteIndexBuffer(buf, indices, true); err != nil {
		t.Fatalf("WriteIndexBuffer failed: %v", err)
	}
	return buf
}

func TestAllocateRounding(t *testing.T) {
	dev := newTestDevice(t, 0)

	tests := []struct {
		size  int
		class BufferType
		want  int
	}{
		{100, BufferDRAM, DataTileBytes},
		{DataTileBytes, BufferDRAM, DataTileBytes},
		{DataTileBytes + 1, BufferDRAM, 2 * DataTileBytes},
		{100, BufferL1, DataTileBytes},
	}

	for _, tt := range tests {
		buf, err := dev.AllocateBuffer(tt.size, tt.class)
		if err != nil {
			t.Fatalf("AllocateBuffer(%d, %d) failed: %v", tt.size, tt.class, err)
		}
		if buf.SizeBytes() != tt.want {
			t.Errorf("AllocateBuffer(%d, %d): padded to %d, want %d", tt.size, tt.class, buf.SizeBytes(), tt.want)
		}
		if buf.SizeBytes()%DRAMAlignment != 0 && tt.class == BufferDRAM {
			t.Errorf("DRAM buffer size %d not %d-byte aligned", buf.SizeBytes(), DRAMAlignment)
		}
	}
}

func TestAllocateErrors(t *testing.T) {
	dev := newTestDevice(t, 0)

	if _, err := dev.AllocateBuffer(0, BufferDRAM); !IsInvalidArgError(err) {
		t.Errorf("size 0: want InvalidArgument, got %v", err)
	}
	if _, err := dev.AllocateBuffer(int(dev.MaxMemory())+DataTileBytes, BufferDRAM); !IsAllocationError(err) {
		t.Errorf("oversized request: want Allocation error, got %v", err)
	}
	if _, err := dev.AllocateBuffer(L1ScratchBytes+DataTileBytes, BufferL1); !IsAllocationError(err) {
		t.Errorf("oversized L1 request: want Allocation error, got %v", err)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dev := newTestDevice(t, 0)

	const n = 300
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = rand.Float64()*200 - 100
	}
	buf := makeDataBuffer(t, dev, vals)

	back, err := dev.ReadBuffer(buf, true)
	if err != nil {
		t.Fatalf("ReadBuffer failed: %v", err)
	}
	if len(back) != n {
		t.Fatalf("read %d elements, want %d", len(back), n)
	}

	tol := BFloat16Tolerance()
	for i := range back {
		if !NearEqual(back[i], vals[i], tol) {
			t.Errorf("round-trip mismatch at %d: wrote %v, read %v", i, vals[i], back[i])
		}
	}
}

func TestReadUnwrittenBufferReturnsPadded(t *testing.T) {
	dev := newTestDevice(t, 0)

	buf, err := dev.AllocateBuffer(DataBufferSize(10), BufferDRAM)
	if err != nil {
		t.Fatalf("AllocateBuffer failed: %v", err)
	}
	back, err := dev.ReadBuffer(buf, true)
	if err != nil {
		t.Fatalf("ReadBuffer failed: %v", err)
	}
	// No logical count recorded, so the full tile-padded length comes back.
	if len(back) != ElemsPerTile {
		t.Errorf("read %d elements from unwritten buffer, want %d", len(back), ElemsPerTile)
	}
}

func TestWriteEmptyIsNoOp(t *testing.T) {
	dev := newTestDevice(t, 0)

	buf, err := dev.AllocateBuffer(DataTileBytes, BufferDRAM)
	if err != nil {
		t.Fatalf("AllocateBuffer failed: %v", err)
	}
	if err := dev.WriteBuffer(buf, nil, true); err != nil {
		t.Fatalf("empty write failed: %v", err)
	}
	back, err := dev.ReadBuffer(buf, true)
	if err != nil {
		t.Fatalf("ReadBuffer failed: %v", err)
	}
	// The no-op write must not record a logical count.
	if len(back) != ElemsPerTile {
		t.Errorf("read %d elements after empty write, want %d", len(back), ElemsPerTile)
	}
}

func TestLogicalCountOverwritten(t *testing.T) {
	dev := newTestDevice(t, 0)

	buf, err := dev.AllocateBuffer(DataBufferSize(100), BufferDRAM)
	if err != nil {
		t.Fatalf("AllocateBuffer failed: %v", err)
	}
	if err := dev.WriteBuffer(buf, make([]float64, 100), true); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := dev.WriteBuffer(buf, make([]float64, 40), true); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	back, err := dev.ReadBuffer(buf, true)
	if err != nil {
		t.Fatalf("ReadBuffer failed: %v", err)
	}
	if len(back) != 40 {
		t.Errorf("read %d elements, want 40 after overwrite", len(back))
	}
}

func TestBufferHandleValidation(t *testing.T) {
	dev := newTestDevice(t, 0)

	if err := dev.WriteBuffer(nil, []float64{1}, true); !IsInvalidBufferError(err) {
		t.Errorf("nil write: want InvalidBuffer, got %v", err)
	}
	if _, err := dev.ReadBuffer(nil, true); !IsInvalidBufferError(err) {
		t.Errorf("nil read: want InvalidBuffer, got %v", err)
	}

	other := newTestDevice(t, 0)
	foreign, err := other.AllocateBuffer(DataTileBytes, BufferDRAM)
	if err != nil {
		t.Fatalf("AllocateBuffer failed: %v", err)
	}
	if err := dev.WriteBuffer(foreign, []float64{1}, true); !IsInvalidBufferError(err) {
		t.Errorf("foreign handle: want InvalidBuffer, got %v", err)
	}

	uninit := NewDevice(1, 0)
	if err := uninit.WriteBuffer(nil, []float64{1}, true); !IsNotInitializedError(err) {
		t.Errorf("uninitialized write: want NotInitialized, got %v", err)
	}
}

func TestWriteBeyondCapacity(t *testing.T) {
	dev := newTestDevice(t, 0)

	buf, err := dev.AllocateBuffer(DataTileBytes, BufferDRAM) // one tile, 1024 elements
	if err != nil {
		t.Fatalf("AllocateBuffer failed: %v", err)
	}
	if err := dev.WriteBuffer(buf, make([]float64, ElemsPerTile+1), true); !IsTransferError(err) {
		t.Errorf("oversized write: want Transfer error, got %v", err)
	}

	// A pattern tile is wider than a data tile, so index writes need the
	// index-sized allocation.
	if err := dev.WriteIndexBuffer(buf, make([]uint32, 8), true); !IsTransferError(err) {
		t.Errorf("index write into data-sized buffer: want Transfer error, got %v", err)
	}
}
