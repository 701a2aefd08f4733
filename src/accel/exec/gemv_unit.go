package exec

import (
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/buffer"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/isa"
	"github.com/SayatAbdikul/tinyML-accelerator/src/misc"
)

type gemvState int

const (
	gemvStateIdle gemvState = iota
	gemvStateIssueX
	gemvStateWaitX
	gemvStateIssueBias
	gemvStateWaitBias
	gemvStateIssueRow
	gemvStateWaitRow
	gemvStateScale
	gemvStateIssueOut
	gemvStateWaitOut
)

// GemvUnit performs the quantized matrix-vector multiply. It stages the
// input vector and bias in unit-local registers, accumulates one output row
// at a time from matrix buffer tiles, then rescales the 32-bit accumulators
// into int8 through the scale calculator and quantizer.
//
// The accumulators, their maximum magnitude and the reciprocal scale are
// scoped to a single instruction: Start resets all of them.
type GemvUnit struct {
	buffers *buffer.File

	state gemvState
	busy  bool

	dest int
	w_id int
	x_id int
	b_id int
	rows int
	cols int

	x    []int8
	bias []int8
	acc  []int32

	tiles_per_row int
	tile_cursor   int
	row           int

	scale_calc ScaleCalculator
	reciprocal uint32

	stat_factory *misc.StatFactory
}

func (this *GemvUnit) Init(buffers *buffer.File, scale_calc_cycles int) {
	this.buffers = buffers
	this.state = gemvStateIdle
	this.scale_calc.Init(scale_calc_cycles)

	this.stat_factory = new(misc.StatFactory)
	this.stat_factory.Init("GemvUnit")
}

func (this *GemvUnit) StatFactory() *misc.StatFactory {
	return this.stat_factory
}

func (this *GemvUnit) Busy() bool {
	return this.busy
}

// Start arms the unit for one GEMV instruction. rows == 0 completes
// immediately with no writes.
func (this *GemvUnit) Start(inst isa.Instruction) {
	this.dest = inst.Dest
	this.w_id = inst.WID
	this.x_id = inst.XID
	this.b_id = inst.BID
	this.rows = inst.Rows
	this.cols = inst.Length

	this.x = nil
	this.bias = nil
	this.acc = nil
	this.reciprocal = 0
	this.tiles_per_row = buffer.TilesFor(this.cols)
	this.tile_cursor = 0
	this.row = 0

	if this.rows == 0 {
		this.busy = false
		this.state = gemvStateIdle
		return
	}

	this.x = make([]int8, this.cols)
	this.bias = make([]int8, this.rows)
	this.acc = make([]int32, this.rows)

	this.busy = true
	if this.cols > 0 {
		this.state = gemvStateIssueX
	} else {
		this.state = gemvStateIssueBias
	}
}

func (this *GemvUnit) Cycle() {
	switch this.state {
	case gemvStateIssueX:
		if !this.requestTile(buffer.KindVector, this.x_id, this.tile_cursor) {
			return
		}
		this.state = gemvStateWaitX

	case gemvStateWaitX:
		if !this.buffers.HasReady() {
			return
		}

		tile := this.buffers.Collect().Data
		base := this.tile_cursor * buffer.TileWidth
		for i := 0; i < buffer.TileWidth; i++ {
			if base+i < this.cols {
				this.x[base+i] = tile[i]
			}
		}

		this.tile_cursor++
		if this.tile_cursor == this.tiles_per_row {
			this.tile_cursor = 0
			this.state = gemvStateIssueBias
		} else {
			this.state = gemvStateIssueX
		}

	case gemvStateIssueBias:
		if !this.requestTile(buffer.KindVector, this.b_id, this.tile_cursor) {
			return
		}
		this.state = gemvStateWaitBias

	case gemvStateWaitBias:
		if !this.buffers.HasReady() {
			return
		}

		tile := this.buffers.Collect().Data
		base := this.tile_cursor * buffer.TileWidth
		for i := 0; i < buffer.TileWidth; i++ {
			if base+i < this.rows {
				this.bias[base+i] = tile[i]
			}
		}

		this.tile_cursor++
		if this.tile_cursor == buffer.TilesFor(this.rows) {
			this.beginAccumulation()
		} else {
			this.state = gemvStateIssueBias
		}

	case gemvStateIssueRow:
		if !this.requestTile(buffer.KindMatrix, this.w_id, this.row*this.tiles_per_row+this.tile_cursor) {
			return
		}
		this.state = gemvStateWaitRow

	case gemvStateWaitRow:
		if !this.buffers.HasReady() {
			return
		}

		tile := this.buffers.Collect().Data
		base := this.tile_cursor * buffer.TileWidth
		sum := this.acc[this.row]
		for i := 0; i < buffer.TileWidth; i++ {
			column := base + i
			if column < this.cols {
				sum += int32(tile[i]) * int32(this.x[column])
			}
		}
		this.acc[this.row] = sum

		this.tile_cursor++
		if this.tile_cursor == this.tiles_per_row {
			this.tile_cursor = 0
			this.row++
			this.stat_factory.Increment("rows_accumulated", 1)
			if this.row == this.rows {
				this.beginScale()
			} else {
				this.state = gemvStateIssueRow
			}
		} else {
			this.state = gemvStateIssueRow
		}

	case gemvStateScale:
		this.scale_calc.Cycle()
		if this.scale_calc.Busy() {
			return
		}

		this.reciprocal = this.scale_calc.Result()
		this.tile_cursor = 0
		this.state = gemvStateIssueOut

	case gemvStateIssueOut:
		if !this.buffers.CanRequest() {
			return
		}

		tile := buffer.Tile{}
		base := this.tile_cursor * buffer.TileWidth
		for i := 0; i < buffer.TileWidth; i++ {
			if base+i < this.rows {
				tile[i] = Quantize(this.acc[base+i], this.reciprocal)
			}
		}

		this.buffers.Request(&buffer.PortRequest{
			Kind:      buffer.KindVector,
			ID:        this.dest,
			TileIndex: this.tile_cursor,
			Write:     true,
			Data:      tile,
		})
		this.state = gemvStateWaitOut

	case gemvStateWaitOut:
		if !this.buffers.HasReady() {
			return
		}

		this.buffers.Collect()
		this.stat_factory.Increment("tiles_written", 1)
		this.tile_cursor++
		if this.tile_cursor == buffer.TilesFor(this.rows) {
			this.busy = false
			this.state = gemvStateIdle
			this.stat_factory.Increment("gemvs_completed", 1)
		} else {
			this.state = gemvStateIssueOut
		}
	}
}

func (this *GemvUnit) beginAccumulation() {
	for r := 0; r < this.rows; r++ {
		this.acc[r] = int32(this.bias[r])
	}

	this.row = 0
	this.tile_cursor = 0
	if this.cols == 0 {
		this.beginScale()
		return
	}

	this.state = gemvStateIssueRow
}

func (this *GemvUnit) beginScale() {
	// Same magnitude computation as the RTL: int32 negation, so the
	// wraparound behavior at the type boundary matches bit for bit.
	max_abs := int32(0)
	for _, value := range this.acc {
		magnitude := value
		if magnitude < 0 {
			magnitude = -magnitude
		}
		if magnitude > max_abs {
			max_abs = magnitude
		}
	}

	this.scale_calc.Start(max_abs)
	this.state = gemvStateScale
}

func (this *GemvUnit) requestTile(kind buffer.Kind, id int, tile_index int) bool {
	if !this.buffers.CanRequest() {
		return false
	}

	this.buffers.Request(&buffer.PortRequest{
		Kind:      kind,
		ID:        id,
		TileIndex: tile_index,
	})
	return true
}
