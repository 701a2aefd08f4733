package exec

import (
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/buffer"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/dram"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/isa"
	"github.com/SayatAbdikul/tinyML-accelerator/src/misc"
)

type storeState int

const (
	storeStateIdle storeState = iota
	storeStateIssueRead
	storeStateWaitRead
	storeStateIssueWrite
	storeStateWaitWrite
)

// StoreUnit streams a vector buffer back out to external memory, one byte
// per memory request. Bytes in the final tile past the requested length are
// discarded, never written.
type StoreUnit struct {
	memory  *dram.Memory
	buffers *buffer.File

	state storeState
	busy  bool

	src       int
	address   uint32
	remaining int

	tile       buffer.Tile
	tile_pos   int
	tile_index int

	stat_factory *misc.StatFactory
}

func (this *StoreUnit) Init(memory *dram.Memory, buffers *buffer.File) {
	this.memory = memory
	this.buffers = buffers
	this.state = storeStateIdle

	this.stat_factory = new(misc.StatFactory)
	this.stat_factory.Init("StoreUnit")
}

func (this *StoreUnit) StatFactory() *misc.StatFactory {
	return this.stat_factory
}

func (this *StoreUnit) Busy() bool {
	return this.busy
}

// Start arms the unit for one STORE instruction. Zero length completes
// immediately with no memory writes.
func (this *StoreUnit) Start(inst isa.Instruction) {
	this.src = inst.Dest
	this.address = inst.Addr
	this.remaining = inst.Length
	this.tile_pos = 0
	this.tile_index = 0

	if this.remaining == 0 {
		this.busy = false
		this.state = storeStateIdle
		return
	}

	this.busy = true
	this.state = storeStateIssueRead
}

func (this *StoreUnit) Cycle() {
	switch this.state {
	case storeStateIssueRead:
		if !this.buffers.CanRequest() {
			return
		}

		this.buffers.Request(&buffer.PortRequest{
			Kind:      buffer.KindVector,
			ID:        this.src,
			TileIndex: this.tile_index,
		})
		this.state = storeStateWaitRead

	case storeStateWaitRead:
		if !this.buffers.HasReady() {
			return
		}

		this.tile = this.buffers.Collect().Data
		this.tile_pos = 0
		this.stat_factory.Increment("tiles_read", 1)
		this.state = storeStateIssueWrite

	case storeStateIssueWrite:
		this.memory.Push(dram.NewWriteRequest(this.address, this.tile[this.tile_pos]))
		this.state = storeStateWaitWrite

	case storeStateWaitWrite:
		if !this.memory.CanPop() {
			return
		}

		this.memory.Pop()
		this.address++
		this.remaining--
		this.tile_pos++
		this.stat_factory.Increment("bytes_written", 1)

		switch {
		case this.remaining == 0:
			this.busy = false
			this.state = storeStateIdle
			this.stat_factory.Increment("stores_completed", 1)
		case this.tile_pos == buffer.TileWidth:
			this.tile_index++
			this.state = storeStateIssueRead
		default:
			this.state = storeStateIssueWrite
		}
	}
}
