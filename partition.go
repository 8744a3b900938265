package gust

// Work partitioner: splits a linear element range across the effective grid
// into contiguous, roughly equal chunks. The split is two-group: when
// numElements does not divide evenly, the first remainder cores carry one
// extra element each.

// workRange is one core's assignment, [Start, Start+Count)
type workRange struct {
	Core  CoreCoord
	Start uint32
	Count uint32
}

// workSplit is the result of splitWorkToCores
type workSplit struct {
	Cores         []CoreCoord
	Group1        []CoreCoord
	Group2        []CoreCoord
	PerCoreGroup1 uint32
	PerCoreGroup2 uint32
}

// splitWorkToCores computes the two-group split of numElements over cores.
// With C cores, base = numElements/C and remainder = numElements%C: the first
// remainder cores (group 1) receive base+1 elements, the rest (group 2)
// receive base. Cores keep their given order, so the split is deterministic.
func splitWorkToCores(cores []CoreCoord, numElements uint32) workSplit {
	split := workSplit{Cores: cores}
	if len(cores) == 0 {
		return split
	}

	c := uint32(len(cores))
	base := numElements / c
	remainder := numElements % c

	split.Group1 = cores[:remainder]
	split.Group2 = cores[remainder:]
	split.PerCoreGroup1 = base + 1
	split.PerCoreGroup2 = base
	if remainder == 0 {
		// No uneven group; keep the counts unambiguous.
		split.Group1 = nil
		split.PerCoreGroup1 = 0
	}
	return split
}

// ranges lays the split out as per-core element ranges, group 1 first, with a
// running offset so each range starts exactly where the previous ends. Cores
// with zero elements are included with Count 0; the coordinator skips them
// when binding.
func (ws workSplit) ranges() []workRange {
	out := make([]workRange, 0, len(ws.Group1)+len(ws.Group2))
	var offset uint32
	for _, core := range ws.Group1 {
		out = append(out, workRange{Core: core, Start: offset, Count: ws.PerCoreGroup1})
		offset += ws.PerCoreGroup1
	}
	for _, core := range ws.Group2 {
		out = append(out, workRange{Core: core, Start: offset, Count: ws.PerCoreGroup2})
		offset += ws.PerCoreGroup2
	}
	return out
}
