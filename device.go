package gust

import (
	"fmt"
	"sync"
)

// CoreCoord identifies one compute core by its column and row in the grid
type CoreCoord struct {
	X, Y int
}

// String returns the coordinate in (x, y) form
func (c CoreCoord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Device represents one simulated accelerator instance: a grid of compute
// cores attached to a shared bulk memory. A Device must be initialized before
// any buffer or kernel operation and closed when no longer needed.
//
// The host side of a Device is single-threaded relative to a launch: buffer
// metadata (the logical-length side table) is mutated only by host calls,
// never by core-resident kernels.
type Device struct {
	mu sync.Mutex

	id             int
	requestedCores int
	initialized    bool

	gridWidth   int
	gridHeight  int
	activeCores []CoreCoord

	dramCapacity uint64
	dramUsed     uint64
	l1Used       uint64

	buffers      map[*Buffer]struct{}
	logicalElems map[*Buffer]int

	logger *RunLogger
}

// NewDevice creates a device handle for the given device index. numCores is
// the caller's core budget; values <= 0 mean "use all available cores". The
// device is unusable until Initialize succeeds.
func NewDevice(deviceID, numCores int) *Device {
	return &Device{
		id:             deviceID,
		requestedCores: numCores,
	}
}

// Initialize brings the device up: sizes the bulk memory against the host and
// reduces the physical grid to the effective sub-grid for this session.
func (d *Device) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.initialized {
		return nil
	}

	d.dramCapacity = SimulatedDRAMBytes
	// The simulated bulk memory is backed by host allocations; cap it so a
	// full device cannot exhaust the host.
	if host := hostTotalMemory(); host > 0 && host/2 < d.dramCapacity {
		d.dramCapacity = host / 2
	}

	d.discoverCores()

	d.buffers = make(map[*Buffer]struct{})
	d.logicalElems = make(map[*Buffer]int)
	d.dramUsed = 0
	d.l1Used = 0
	d.initialized = true
	return nil
}

// discoverCores derives the effective grid from the requested core budget and
// enumerates its cores in row-major order.
func (d *Device) discoverCores() {
	requested := d.requestedCores
	if requested <= 0 || requested > NativeCoreCount {
		requested = NativeCoreCount
	}

	w := requested
	if w > NativeGridWidth {
		w = NativeGridWidth
	}
	h := (requested + w - 1) / w
	if h > NativeGridHeight {
		h = NativeGridHeight
	}

	d.gridWidth = w
	d.gridHeight = h
	d.activeCores = d.activeCores[:0]
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d.activeCores = append(d.activeCores, CoreCoord{X: x, Y: y})
		}
	}
}

// Close tears down the device context. All buffers allocated through the
// device become invalid.
func (d *Device) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for b := range d.buffers {
		b.data = nil
	}
	d.buffers = nil
	d.logicalElems = nil
	d.activeCores = nil
	d.dramUsed = 0
	d.l1Used = 0
	d.initialized = false
}

// IsInitialized reports whether Initialize has completed
func (d *Device) IsInitialized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.initialized
}

// ActiveCores returns the cores of the effective grid in their fixed
// deterministic (row-major) order.
func (d *Device) ActiveCores() []CoreCoord {
	d.mu.Lock()
	defer d.mu.Unlock()
	cores := make([]CoreCoord, len(d.activeCores))
	copy(cores, d.activeCores)
	return cores
}

// DeviceInfo returns a human-readable identity string
func (d *Device) DeviceInfo() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.initialized {
		return "gust device not initialized"
	}
	return fmt.Sprintf("Gust Simulated Grid Device %d (%dx%d cores)", d.id, d.gridWidth, d.gridHeight)
}

// MaxMemory returns the maximum addressable bulk memory in bytes
func (d *Device) MaxMemory() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dramCapacity
}

// SetRunLogger attaches an optional run logger. The execution coordinator
// reports one record per launch into it; nil detaches.
func (d *Device) SetRunLogger(l *RunLogger) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.logger = l
}

// inGrid reports whether c names a physical core of the native grid
func inGrid(c CoreCoord) bool {
	return c.X >= 0 && c.X < NativeGridWidth && c.Y >= 0 && c.Y < NativeGridHeight
}
