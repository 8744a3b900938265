package gust

// Tile address arithmetic. Element indices are logical positions inside a
// bulk buffer; every transfer moves the whole tile containing the element.

// tileIndex returns the id of the tile containing element elem
func tileIndex(elem uint32) uint32 {
	return elem / ElemsPerTile
}

// tileOffset returns elem's position inside its tile
func tileOffset(elem uint32) uint32 {
	return elem % ElemsPerTile
}

// tilesForElements returns the number of tiles needed to hold n elements
func tilesForElements(n int) int {
	return (n + ElemsPerTile - 1) / ElemsPerTile
}

// alignToDataTiles rounds a byte size up to a whole bfloat16 tile
func alignToDataTiles(size int) int {
	return ((size + DataTileBytes - 1) / DataTileBytes) * DataTileBytes
}

// alignUp rounds size up to the next multiple of boundary
func alignUp(size, boundary int) int {
	return ((size + boundary - 1) / boundary) * boundary
}

// DataBufferSize returns the allocation size in bytes for a bulk buffer
// holding n bfloat16 data elements, rounded up to a whole tile.
func DataBufferSize(n int) int {
	return alignToDataTiles(n * DataElemSize)
}

// IndexBufferSize returns the allocation size in bytes for a bulk buffer
// holding n uint32 pattern elements, rounded up to a whole pattern tile.
func IndexBufferSize(n int) int {
	return alignUp(n*IndexElemSize, IndexTileBytes)
}
