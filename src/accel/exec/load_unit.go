package exec

import (
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/buffer"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/dram"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/isa"
	"github.com/SayatAbdikul/tinyML-accelerator/src/misc"
)

type loadState int

const (
	loadStateIdle loadState = iota
	loadStateIssueRead
	loadStateWaitRead
	loadStateIssueWrite
	loadStateWaitWrite
)

// LoadUnit streams bytes from external memory into buffer tiles. LOAD_V is
// the one-row case of the general row loop; LOAD_M tiles and zero-pads every
// row independently, reading row r at base_address + r*row_length (dense
// row-major stride).
type LoadUnit struct {
	memory  *dram.Memory
	buffers *buffer.File

	state loadState
	busy  bool

	kind         buffer.Kind
	dest         int
	base_address uint32
	num_rows     int
	row_length   int

	row        int
	column     int
	tile       buffer.Tile
	tile_fill  int
	tile_index int

	stat_factory *misc.StatFactory
}

func (this *LoadUnit) Init(memory *dram.Memory, buffers *buffer.File) {
	this.memory = memory
	this.buffers = buffers
	this.state = loadStateIdle

	this.stat_factory = new(misc.StatFactory)
	this.stat_factory.Init("LoadUnit")
}

func (this *LoadUnit) StatFactory() *misc.StatFactory {
	return this.stat_factory
}

func (this *LoadUnit) Busy() bool {
	return this.busy
}

// Start arms the unit for one LOAD_V or LOAD_M instruction. A zero-length or
// zero-row operation completes immediately with no writes.
func (this *LoadUnit) Start(inst isa.Instruction) {
	if inst.Opcode == isa.OpcodeLoadM {
		this.kind = buffer.KindMatrix
		this.num_rows = inst.Rows
	} else {
		this.kind = buffer.KindVector
		this.num_rows = 1
	}

	this.dest = inst.Dest
	this.base_address = inst.Addr
	this.row_length = inst.Length

	this.row = 0
	this.column = 0
	this.tile = buffer.Tile{}
	this.tile_fill = 0
	this.tile_index = 0

	if this.num_rows == 0 || this.row_length == 0 {
		this.busy = false
		this.state = loadStateIdle
		return
	}

	this.busy = true
	this.state = loadStateIssueRead
}

func (this *LoadUnit) Cycle() {
	switch this.state {
	case loadStateIssueRead:
		address := this.base_address + uint32(this.row*this.row_length+this.column)
		this.memory.Push(dram.NewReadRequest(address))
		this.state = loadStateWaitRead

	case loadStateWaitRead:
		if !this.memory.CanPop() {
			return
		}

		request := this.memory.Pop()
		this.tile[this.tile_fill] = request.Value()
		this.tile_fill++
		this.column++

		if this.column == this.row_length || this.tile_fill == buffer.TileWidth {
			this.state = loadStateIssueWrite
		} else {
			this.state = loadStateIssueRead
		}

	case loadStateIssueWrite:
		if !this.buffers.CanRequest() {
			return
		}

		this.buffers.Request(&buffer.PortRequest{
			Kind:      this.kind,
			ID:        this.dest,
			TileIndex: this.tile_index,
			Write:     true,
			Data:      this.tile,
		})
		this.state = loadStateWaitWrite

	case loadStateWaitWrite:
		if !this.buffers.HasReady() {
			return
		}

		this.buffers.Collect()
		this.stat_factory.Increment("tiles_written", 1)
		this.tile_index++
		this.tile = buffer.Tile{}
		this.tile_fill = 0

		if this.column == this.row_length {
			this.row++
			this.column = 0
		}

		if this.row == this.num_rows {
			this.busy = false
			this.state = loadStateIdle
			this.stat_factory.Increment("loads_completed", 1)
		} else {
			this.state = loadStateIssueRead
		}
	}
}
