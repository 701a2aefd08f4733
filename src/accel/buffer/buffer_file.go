package buffer

import "fmt"

// TileWidth is the number of int8 elements in one tile, the atomic transfer
// unit between memory, the execution units and the buffer file.
const TileWidth = 32

// NumBuffers is the number of buffers per kind. Buffer ids are dense small
// integers in [0, NumBuffers).
const NumBuffers = 32

// Kind selects the vector or matrix buffer space.
type Kind int

const (
	KindVector Kind = iota
	KindMatrix
)

func (k Kind) String() string {
	if k == KindMatrix {
		return "matrix"
	}
	return "vector"
}

// Tile is one fixed-width block of signed 8-bit elements.
type Tile [TileWidth]int8

// PortRequest is one tile access issued through the shared port. Write
// requests carry the tile data in; completed read requests carry it out.
type PortRequest struct {
	Kind      Kind
	ID        int
	TileIndex int
	Write     bool
	Data      Tile
}

type store struct {
	tiles []Tile
}

func (s *store) read(index int) Tile {
	if index < 0 || index >= len(s.tiles) {
		return Tile{}
	}
	return s.tiles[index]
}

func (s *store) write(index int, tile Tile) {
	for len(s.tiles) <= index {
		s.tiles = append(s.tiles, Tile{})
	}
	s.tiles[index] = tile
}

// File holds the 32 vector and 32 matrix buffers behind a single shared
// access port. The port accepts one request at a time and completes it a
// fixed number of cycles later, modelling the pipeline register between the
// execution units and the SRAM macros. Reads of tiles that were never
// written return an all-zero tile; writes beyond the current tile count grow
// the buffer with zero tiles in between. Old tiles past a shorter rewrite
// are left in place.
type File struct {
	vectors  [NumBuffers]store
	matrices [NumBuffers]store

	portLatency int
	pending     *PortRequest
	remaining   int
	ready       *PortRequest
}

// NewFile constructs a buffer file. A non-positive port latency defaults to
// 1 cycle so that a request never completes in the cycle it was issued.
func NewFile(portLatency int) *File {
	if portLatency <= 0 {
		portLatency = 1
	}

	return &File{
		portLatency: portLatency,
	}
}

// CanRequest reports whether the port can accept a request this cycle. The
// port holds at most one request in flight and one uncollected completion.
func (f *File) CanRequest() bool {
	return f.pending == nil && f.ready == nil
}

// Request issues a tile access. Callers must check CanRequest first; issuing
// into a busy port is a wiring bug, not an engine-visible condition.
func (f *File) Request(req *PortRequest) {
	if req == nil {
		panic(fmt.Errorf("buffer port request is nil"))
	}
	if !f.CanRequest() {
		panic(fmt.Errorf("buffer port is busy"))
	}
	if req.ID < 0 || req.ID >= NumBuffers {
		panic(fmt.Errorf("buffer id %d out of range", req.ID))
	}
	if req.TileIndex < 0 {
		panic(fmt.Errorf("tile index %d out of range", req.TileIndex))
	}

	f.pending = req
	f.remaining = f.portLatency
}

// Cycle advances the port pipeline by one step.
func (f *File) Cycle() {
	if f.pending == nil {
		return
	}

	f.remaining--
	if f.remaining > 0 {
		return
	}

	req := f.pending
	if req.Write {
		f.space(req.Kind, req.ID).write(req.TileIndex, req.Data)
	} else {
		req.Data = f.space(req.Kind, req.ID).read(req.TileIndex)
	}

	f.ready = req
	f.pending = nil
}

// HasReady reports whether a completed request is waiting to be collected.
func (f *File) HasReady() bool {
	return f.ready != nil
}

// Collect returns the completed request and frees the port.
func (f *File) Collect() *PortRequest {
	if f.ready == nil {
		panic(fmt.Errorf("buffer port has no completed request"))
	}

	req := f.ready
	f.ready = nil
	return req
}

// TileCount returns the number of tiles currently held by a buffer.
func (f *File) TileCount(kind Kind, id int) int {
	return len(f.space(kind, id).tiles)
}

// PeekTile reads a tile directly, bypassing the port. Host and test side.
func (f *File) PeekTile(kind Kind, id int, index int) Tile {
	return f.space(kind, id).read(index)
}

// PokeTile writes a tile directly, bypassing the port. Host and test side.
func (f *File) PokeTile(kind Kind, id int, index int, tile Tile) {
	f.space(kind, id).write(index, tile)
}

func (f *File) space(kind Kind, id int) *store {
	if id < 0 || id >= NumBuffers {
		panic(fmt.Errorf("buffer id %d out of range", id))
	}
	if kind == KindMatrix {
		return &f.matrices[id]
	}
	return &f.vectors[id]
}

// TilesFor returns the number of whole tiles needed to hold length elements.
func TilesFor(length int) int {
	if length <= 0 {
		return 0
	}
	return (length + TileWidth - 1) / TileWidth
}
