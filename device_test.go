package gust

import (
	"strings"
	"testing"
)

// newTestDevice initializes a device with the given core budget and tears it
// down with the test.
func newTestDevice(t *testing.T, cores int) *Device {
	t.Helper()
	dev := NewDevice(0, cores)
	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(dev.Close)
	return dev
}

func TestDeviceInitialize(t *testing.T) {
	dev := NewDevice(0, 0)
	if dev.IsInitialized() {
		t.Fatal("device reports initialized before Initialize")
	}
	if got := dev.DeviceInfo(); got != "gust device not initialized" {
		t.Errorf("uninitialized DeviceInfo = %q", got)
	}

	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer dev.Close()

	if !dev.IsInitialized() {
		t.Error("device not initialized after Initialize")
	}
	if dev.MaxMemory() == 0 {
		t.Error("MaxMemory returned 0")
	}
	if info := dev.DeviceInfo(); !strings.Contains(info, "Device 0") {
		t.Errorf("unexpected device info: %q", info)
	}
}

func TestDeviceClose(t *testing.T) {
	dev := NewDevice(0, 0)
	if err := dev.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	dev.Close()

	if dev.IsInitialized() {
		t.Error("device still initialized after Close")
	}
	if _, err := dev.AllocateBuffer(DataTileBytes, BufferDRAM); !IsNotInitializedError(err) {
		t.Errorf("AllocateBuffer after Close: want NotInitialized, got %v", err)
	}
}

func TestEffectiveGridShapes(t *testing.T) {
	tests := []struct {
		requested    int
		wantW, wantH int
	}{
		{0, NativeGridWidth, NativeGridHeight},
		{-3, NativeGridWidth, NativeGridHeight},
		{1, 1, 1},
		{5, 5, 1},
		{8, 8, 1},
		{10, 8, 2},
		{64, 8, 8},
		{100, 8, 8},
	}

	for _, tt := range tests {
		dev := newTestDevice(t, tt.requested)
		cores := dev.ActiveCores()
		if len(cores) != tt.wantW*tt.wantH {
			t.Errorf("requested %d: got %d cores, want %d", tt.requested, len(cores), tt.wantW*tt.wantH)
		}

		maxX, maxY := 0, 0
		for _, c := range cores {
			if c.X > maxX {
				maxX = c.X
			}
			if c.Y > maxY {
				maxY = c.Y
			}
		}
		if maxX+1 != tt.wantW || maxY+1 != tt.wantH {
			t.Errorf("requested %d: grid %dx%d, want %dx%d", tt.requested, maxX+1, maxY+1, tt.wantW, tt.wantH)
		}

		// Fixed deterministic order: row-major from (0,0).
		if cores[0] != (CoreCoord{0, 0}) {
			t.Errorf("requested %d: first core %v, want (0, 0)", tt.requested, cores[0])
		}
	}
}

func TestActiveCoresIsCopy(t *testing.T) {
	dev := newTestDevice(t, 4)
	cores := dev.ActiveCores()
	cores[0] = CoreCoord{X: 99, Y: 99}
	if dev.ActiveCores()[0] != (CoreCoord{0, 0}) {
		t.Error("ActiveCores exposes internal state")
	}
}
