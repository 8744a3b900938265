package gust

import (
	"fmt"
	"sync"
	"time"
)

// Execution coordinator: binds per-core runtime arguments, issues one
// collective launch over the effective grid and blocks until every core has
// completed. A launch either completes whole or fails whole; after a failed
// launch the contents of the output buffer are undefined.

// ExecuteGatherKernel runs dense[j] = sparse[pattern[j%L] + delta*(j/L)] for
// j in [0, numElements), tiled across the active cores.
func (d *Device) ExecuteGatherKernel(sparse, dense, pattern *Buffer, numElements, delta, patternLength uint32) error {
	const op = "ExecuteGatherKernel"
	if err := d.checkLaunch(op, patternLength, sparse, dense, pattern); err != nil {
		return err
	}
	return d.launch(op, &kernelConfig{
		op:            opGather,
		numElements:   numElements,
		patternLength: patternLength,
		delta:         delta,
		pattern:       pattern,
		source:        sparse,
		destination:   dense,
	})
}

// ExecuteScatterKernel runs sparse[pattern[j%L] + delta*(j/L)] = dense[j].
// Destination tiles are read-modify-write: sparse positions the pattern does
// not touch keep their prior values.
func (d *Device) ExecuteScatterKernel(dense, sparse, pattern *Buffer, numElements, delta, patternLength uint32) error {
	const op = "ExecuteScatterKernel"
	if err := d.checkLaunch(op, patternLength, dense, sparse, pattern); err != nil {
		return err
	}
	return d.launch(op, &kernelConfig{
		op:            opScatter,
		numElements:   numElements,
		patternLength: patternLength,
		delta:         delta,
		pattern:       pattern,
		source:        dense,
		destination:   sparse,
	})
}

// ExecuteGatherScatterKernel runs
// sparseScatter[patternScatter[j%L] + deltaScatter*(j/L)] =
// sparseGather[patternGather[j%L] + deltaGather*(j/L)].
func (d *Device) ExecuteGatherScatterKernel(sparseGather, sparseScatter, patternGather, patternScatter *Buffer,
	numElements, deltaGather, deltaScatter, patternLength uint32) error {
	const op = "ExecuteGatherScatterKernel"
	if err := d.checkLaunch(op, patternLength, sparseGather, sparseScatter, patternGather, patternScatter); err != nil {
		return err
	}
	return d.launch(op, &kernelConfig{
		op:            opGatherScatter,
		numElements:   numElements,
		patternLength: patternLength,
		delta:         deltaGather,
		deltaScatter:  deltaScatter,
		pattern:       patternGather,
		patternSecond: patternScatter,
		usesSecondPat: true,
		source:        sparseGather,
		destination:   sparseScatter,
	})
}

// ExecuteMultiGatherKernel runs the doubly-indirected gather
// dense[j + L*(i%wrap)] = sparse[(pattern[patternGather[j%L]] + delta*i) mod S]
// with i = e/count, j = e%count and S the sparse buffer's element count. The
// wrap-around on the sparse index is mandatory; without it the chained
// lookups walk off the end of the buffer.
func (d *Device) ExecuteMultiGatherKernel(sparse, dense, pattern, patternGather *Buffer,
	numElements, count, patternLength, delta, wrap uint32) error {
	const op = "ExecuteMultiGatherKernel"
	if err := d.checkLaunch(op, patternLength, sparse, dense, pattern, patternGather); err != nil {
		return err
	}
	if err := checkMultiArgs(op, count, wrap); err != nil {
		return err
	}
	return d.launch(op, &kernelConfig{
		op:            opMultiGather,
		numElements:   numElements,
		patternLength: patternLength,
		delta:         delta,
		count:         count,
		wrap:          wrap,
		sparseElems:   d.bufferElems(sparse),
		pattern:       pattern,
		patternSecond: patternGather,
		usesSecondPat: true,
		source:        sparse,
		destination:   dense,
	})
}

// ExecuteMultiScatterKernel runs the doubly-indirected scatter
// sparse[(pattern[patternScatter[j%L]] + delta*i) mod S] = dense[j + L*(i%wrap)].
func (d *Device) ExecuteMultiScatterKernel(dense, sparse, pattern, patternScatter *Buffer,
	numElements, count, patternLength, delta, wrap uint32) error {
	const op = "ExecuteMultiScatterKernel"
	if err := d.checkLaunch(op, patternLength, dense, sparse, pattern, patternScatter); err != nil {
		return err
	}
	if err := checkMultiArgs(op, count, wrap); err != nil {
		return err
	}
	return d.launch(op, &kernelConfig{
		op:            opMultiScatter,
		numElements:   numElements,
		patternLength: patternLength,
		delta:         delta,
		count:         count,
		wrap:          wrap,
		sparseElems:   d.bufferElems(sparse),
		pattern:       pattern,
		patternSecond: patternScatter,
		usesSecondPat: true,
		source:        dense,
		destination:   sparse,
	})
}

// ExecuteNoCBandwidthKernel copies numTiles tiles from src to dst through a
// single core's scratch, addressing the transfer at the given neighbor core.
// It exists to measure raw tile movement, not indirection.
func (d *Device) ExecuteNoCBandwidthKernel(src, dst *Buffer, numTiles uint32, neighbor CoreCoord) error {
	const op = "ExecuteNoCBandwidthKernel"
	if err := d.checkLaunch(op, 1, src, dst); err != nil {
		return err
	}
	if !inGrid(neighbor) {
		return NewInvalidArgError(op, fmt.Sprintf("neighbor %v outside the native grid", neighbor))
	}
	if numTiles == 0 {
		return nil
	}

	l1, err := d.AllocateBuffer(DataTileBytes, BufferL1)
	if err != nil {
		return err
	}
	defer d.releaseBuffer(l1)

	start := time.Now()
	var noc nocEngine
	slot := newScratchSlot(src, l1.data, DataElemSize, true)
	runErr := func() error {
		for tile := uint32(0); tile < numTiles; tile++ {
			slot.buf = src
			noc.nocAsyncReadTile(tile, slot)
			if err := noc.nocReadBarrier(); err != nil {
				return err
			}
			slot.markAllDirty()
			slot.buf = dst
			noc.nocAsyncWriteTile(tile, slot)
			if err := noc.nocWriteBarrier(); err != nil {
				return err
			}
		}
		return noc.nocWritesFlushed()
	}()

	d.logLaunch(op, uint64(numTiles)*ElemsPerTile, 1, time.Since(start), runErr)
	return runErr
}

// ExecutePipelinedGatherKernel is the historical three-kernel
// reader/compute/writer gather revision. It was never completed and fails
// loudly rather than falling back to a no-op.
func (d *Device) ExecutePipelinedGatherKernel(sparse, dense, pattern *Buffer, numElements, delta, patternLength uint32) error {
	const op = "ExecutePipelinedGatherKernel"
	if err := d.checkLaunch(op, patternLength, sparse, dense, pattern); err != nil {
		return err
	}
	return NewNotImplementedError(op, "circular-buffer pipelined gather is not built; use ExecuteGatherKernel")
}

// checkLaunch short-circuits before any device work: the session must be
// initialized, every handle non-nil and owned by this device, and the
// pattern length usable.
func (d *Device) checkLaunch(op string, patternLength uint32, bufs ...*Buffer) error {
	d.mu.Lock()
	initialized := d.initialized
	d.mu.Unlock()
	if !initialized {
		return NewNotInitializedError(op)
	}
	for _, b := range bufs {
		if err := d.checkBuffer(op, b); err != nil {
			return err
		}
	}
	if patternLength == 0 {
		return NewInvalidArgError(op, "pattern length must be positive")
	}
	if patternLength > ElemsPerTile {
		return NewInvalidArgError(op,
			fmt.Sprintf("pattern length %d exceeds one tile (%d elements)", patternLength, ElemsPerTile))
	}
	return nil
}

func checkMultiArgs(op string, count, wrap uint32) error {
	if count == 0 {
		return NewInvalidArgError(op, "count must be positive")
	}
	if wrap == 0 {
		return NewInvalidArgError(op, "wrap must be positive")
	}
	return nil
}

// launch partitions the element range over the active cores, binds each
// core's runtime arguments, starts all cores as one collective program and
// waits for the full set. Cores with no work are skipped at binding time.
func (d *Device) launch(op string, cfg *kernelConfig) error {
	if cfg.numElements == 0 {
		return nil
	}
	if cfg.sparseElems == 0 && (cfg.op == opMultiGather || cfg.op == opMultiScatter) {
		return NewInvalidArgError(op, "sparse buffer has no elements to wrap over")
	}

	d.mu.Lock()
	cores := d.activeCores
	d.mu.Unlock()

	split := splitWorkToCores(cores, cfg.numElements)
	ranges := split.ranges()

	start := time.Now()

	type boundCore struct {
		kernel *coreKernel
		l1     *Buffer
	}
	bound := make([]boundCore, 0, len(ranges))
	cleanup := func() {
		for _, bc := range bound {
			d.releaseBuffer(bc.l1)
		}
	}

	coresUsed := 0
	for _, r := range ranges {
		if r.Count == 0 {
			continue
		}
		l1, err := d.AllocateBuffer(scratchBytes(cfg), BufferL1)
		if err != nil {
			cleanup()
			allocErr := NewAllocationError(op,
				fmt.Sprintf("scratch allocation for core %v failed", r.Core), err)
			d.logLaunch(op, uint64(cfg.numElements), coresUsed, time.Since(start), allocErr)
			return allocErr
		}
		bound = append(bound, boundCore{kernel: newCoreKernel(cfg, r, l1), l1: l1})
		coresUsed++
	}

	// One collective launch: every core runs its range concurrently, each
	// owning its scratch exclusively.
	errs := make([]error, len(bound))
	var wg sync.WaitGroup
	for i := range bound {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = bound[i].kernel.run()
		}(i)
	}
	wg.Wait()
	cleanup()

	var runErr error
	for _, err := range errs {
		if err != nil {
			runErr = NewTransferError(op,
				fmt.Sprintf("%s launch failed; output buffer contents are undefined", cfg.op), err)
			break
		}
	}

	d.logLaunch(op, uint64(cfg.numElements), coresUsed, time.Since(start), runErr)
	return runErr
}

// logLaunch reports one launch record into the attached run logger, if any
func (d *Device) logLaunch(op string, elements uint64, cores int, dur time.Duration, err error) {
	d.mu.Lock()
	logger := d.logger
	d.mu.Unlock()
	if logger == nil {
		return
	}
	rec := RunRecord{
		Op:        op,
		Elements:  elements,
		Cores:     cores,
		Duration:  dur,
		Status:    "pass",
		Timestamp: time.Now(),
	}
	if err != nil {
		rec.Status = "fail"
		rec.Error = err.Error()
	}
	logger.Record(rec)
}
