// Package gust configuration constants
package gust

// Tile geometry. The tile is the minimum unit of every bulk-memory transfer.
const (
	// TileWidth is the number of element columns in one tile
	TileWidth = 32

	// TileHeight is the number of element rows in one tile
	TileHeight = 32

	// ElemsPerTile is the number of elements in one tile
	ElemsPerTile = TileWidth * TileHeight

	// DataElemSize is the byte width of one bfloat16 data element
	DataElemSize = 2

	// IndexElemSize is the byte width of one uint32 pattern element
	IndexElemSize = 4

	// DataTileBytes is the byte size of one bfloat16 data tile
	DataTileBytes = ElemsPerTile * DataElemSize // 2048

	// IndexTileBytes is the byte size of one uint32 pattern tile
	IndexTileBytes = ElemsPerTile * IndexElemSize // 4096
)

// Bulk memory parameters
const (
	// DRAMAlignment is the hardware alignment boundary for bulk-class buffers
	DRAMAlignment = 64

	// SimulatedDRAMBytes is the default bulk memory capacity of the
	// simulated device
	SimulatedDRAMBytes = 4 * 1024 * 1024 * 1024 // 4GB

	// L1ScratchBytes is the per-core private scratch capacity
	L1ScratchBytes = 1024 * 1024 // 1MB
)

// Core grid geometry of the simulated device
const (
	// NativeGridWidth is the number of core columns in the physical grid
	NativeGridWidth = 8

	// NativeGridHeight is the number of core rows in the physical grid
	NativeGridHeight = 8

	// NativeCoreCount is the total number of physical cores
	NativeCoreCount = NativeGridWidth * NativeGridHeight
)
