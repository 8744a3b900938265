// gust-smoke brings up a simulated device and runs the basic bring-up
// sequence: device info, buffer round-trip, and a small gather.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/gustlab/gust"
)

func main() {
	deviceID := flag.Int("device", 0, "device index")
	cores := flag.Int("cores", 0, "core budget (<=0 means all cores)")
	flag.Parse()

	if err := run(*deviceID, *cores); err != nil {
		fmt.Fprintln(os.Stderr, "smoke test failed:", err)
		os.Exit(1)
	}
	fmt.Println("All smoke tests passed")
}

func run(deviceID, cores int) error {
	dev := gust.NewDevice(deviceID, cores)
	if err := dev.Initialize(); err != nil {
		return err
	}
	defer dev.Close()

	fmt.Println("Device info:", dev.DeviceInfo())
	fmt.Printf("Max memory: %d MB\n", dev.MaxMemory()/(1024*1024))
	fmt.Printf("Active cores: %d\n", len(dev.ActiveCores()))

	// Buffer round-trip.
	const n = 256
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i)
	}
	buf, err := dev.AllocateBuffer(gust.DataBufferSize(n), gust.BufferDRAM)
	if err != nil {
		return err
	}
	if err := dev.WriteBuffer(buf, values, true); err != nil {
		return err
	}
	back, err := dev.ReadBuffer(buf, true)
	if err != nil {
		return err
	}
	if len(back) != n {
		return fmt.Errorf("round-trip length mismatch: wrote %d, read %d", n, len(back))
	}
	tol := gust.BFloat16Tolerance()
	for i := range back {
		if !gust.NearEqual(back[i], values[i], tol) {
			return fmt.Errorf("round-trip mismatch at %d: wrote %v, read %v", i, values[i], back[i])
		}
	}
	fmt.Println("Buffer round-trip passed")

	// Small gather: identity pattern, stride 0.
	pattern := []uint32{0, 1, 2, 3, 4, 5, 6, 7}
	sparseVals := make([]float64, 64)
	for i := range sparseVals {
		sparseVals[i] = float64(10 + i)
	}

	sparse, err := dev.AllocateBuffer(gust.DataBufferSize(len(sparseVals)), gust.BufferDRAM)
	if err != nil {
		return err
	}
	dense, err := dev.AllocateBuffer(gust.DataBufferSize(len(pattern)), gust.BufferDRAM)
	if err != nil {
		return err
	}
	patBuf, err := dev.AllocateBuffer(gust.IndexBufferSize(len(pattern)), gust.BufferDRAM)
	if err != nil {
		return err
	}
	if err := dev.WriteBuffer(sparse, sparseVals, true); err != nil {
		return err
	}
	if err := dev.WriteIndexBuffer(patBuf, pattern, true); err != nil {
		return err
	}
	if err := dev.WriteBuffer(dense, make([]float64, len(pattern)), true); err != nil {
		return err
	}

	if err := dev.ExecuteGatherKernel(sparse, dense, patBuf, uint32(len(pattern)), 0, uint32(len(pattern))); err != nil {
		return err
	}
	out, err := dev.ReadBuffer(dense, true)
	if err != nil {
		return err
	}
	for j := range pattern {
		want := sparseVals[pattern[j]]
		if math.Abs(out[j]-want) > 0.01*math.Abs(want) {
			return fmt.Errorf("gather mismatch at %d: want %v, got %v", j, want, out[j])
		}
	}
	fmt.Println("Gather kernel passed")
	return nil
}
