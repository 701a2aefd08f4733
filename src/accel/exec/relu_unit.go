package exec

import (
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/buffer"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/isa"
	"github.com/SayatAbdikul/tinyML-accelerator/src/misc"
)

type reluState int

const (
	reluStateIdle reluState = iota
	reluStateIssueRead
	reluStateWaitRead
	reluStateIssueWrite
	reluStateWaitWrite
)

// ReluUnit applies max(element, 0) tile by tile from one vector buffer to
// another. Positions at or past the requested length in the final tile are
// written as zero rather than copied, so undefined tail content never
// propagates.
type ReluUnit struct {
	buffers *buffer.File

	state reluState
	busy  bool

	dest   int
	src    int
	length int

	tile        buffer.Tile
	tile_index  int
	tiles_total int

	stat_factory *misc.StatFactory
}

func (this *ReluUnit) Init(buffers *buffer.File) {
	this.buffers = buffers
	this.state = reluStateIdle

	this.stat_factory = new(misc.StatFactory)
	this.stat_factory.Init("ReluUnit")
}

func (this *ReluUnit) StatFactory() *misc.StatFactory {
	return this.stat_factory
}

func (this *ReluUnit) Busy() bool {
	return this.busy
}

// Start arms the unit for one RELU instruction. Zero length completes
// immediately with no writes.
func (this *ReluUnit) Start(inst isa.Instruction) {
	this.dest = inst.Dest
	this.src = inst.XID
	this.length = inst.Length
	this.tile_index = 0
	this.tiles_total = buffer.TilesFor(this.length)

	if this.tiles_total == 0 {
		this.busy = false
		this.state = reluStateIdle
		return
	}

	this.busy = true
	this.state = reluStateIssueRead
}

func (this *ReluUnit) Cycle() {
	switch this.state {
	case reluStateIssueRead:
		if !this.buffers.CanRequest() {
			return
		}

		this.buffers.Request(&buffer.PortRequest{
			Kind:      buffer.KindVector,
			ID:        this.src,
			TileIndex: this.tile_index,
		})
		this.state = reluStateWaitRead

	case reluStateWaitRead:
		if !this.buffers.HasReady() {
			return
		}

		source := this.buffers.Collect().Data
		base := this.tile_index * buffer.TileWidth
		this.tile = buffer.Tile{}
		for i := 0; i < buffer.TileWidth; i++ {
			if base+i >= this.length {
				break
			}
			if source[i] > 0 {
				this.tile[i] = source[i]
			}
		}

		this.state = reluStateIssueWrite

	case reluStateIssueWrite:
		if !this.buffers.CanRequest() {
			return
		}

		this.buffers.Request(&buffer.PortRequest{
			Kind:      buffer.KindVector,
			ID:        this.dest,
			TileIndex: this.tile_index,
			Write:     true,
			Data:      this.tile,
		})
		this.state = reluStateWaitWrite

	case reluStateWaitWrite:
		if !this.buffers.HasReady() {
			return
		}

		this.buffers.Collect()
		this.stat_factory.Increment("tiles_written", 1)
		this.tile_index++
		if this.tile_index == this.tiles_total {
			this.busy = false
			this.state = reluStateIdle
			this.stat_factory.Increment("relus_completed", 1)
		} else {
			this.state = reluStateIssueRead
		}
	}
}
