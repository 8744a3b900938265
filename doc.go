// Package gust provides a tiled gather/scatter offload engine for a
// many-core accelerator, simulated on the host CPU.
//
// The device model is a grid of independent compute cores, each owning a
// small private scratch memory, attached to a large shared bulk (DRAM-analog)
// memory through an asynchronous on-chip network. Data moves between bulk and
// scratch memory only in fixed 32x32 tiles; the engine partitions a logical
// element range across the active cores and each core resolves one- or
// two-level indirect addressing through tile-granular scratch caches.
//
// Example usage:
//
//	dev := gust.NewDevice(0, 0) // all cores
//	if err := dev.Initialize(); err != nil {
//		log.Fatal(err)
//	}
//	defer dev.Close()
//
//	sparse, _ := dev.AllocateBuffer(gust.DataBufferSize(n), gust.BufferDRAM)
//	dense, _ := dev.AllocateBuffer(gust.DataBufferSize(n), gust.BufferDRAM)
//	pattern, _ := dev.AllocateBuffer(gust.IndexBufferSize(len(pat)), gust.BufferDRAM)
//
//	dev.WriteBuffer(sparse, values, true)
//	dev.WriteIndexBuffer(pattern, pat, true)
//
//	err := dev.ExecuteGatherKernel(sparse, dense, pattern, n, delta, uint32(len(pat)))
package gust
