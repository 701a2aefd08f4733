package exec

import (
	"testing"

	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/buffer"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/dram"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/isa"
	"github.com/SayatAbdikul/tinyML-accelerator/src/misc"
)

type testRig struct {
	memory     *dram.Memory
	buffers    *buffer.File
	controller *Controller
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()

	config_loader := new(misc.ConfigLoader)
	config_loader.Init()

	rig := new(testRig)
	rig.memory = new(dram.Memory)
	rig.memory.Init(config_loader)
	rig.buffers = buffer.NewFile(config_loader.BufferPortLatency())
	rig.controller = new(Controller)
	rig.controller.Init(config_loader, rig.memory, rig.buffers)
	return rig
}

func (rig *testRig) cycle() {
	rig.controller.Cycle()
	rig.memory.Cycle()
	rig.buffers.Cycle()
}

// runInstruction pushes one instruction and cycles until the done pulse,
// returning the number of cycles it took.
func runInstruction(t *testing.T, rig *testRig, inst isa.Instruction, limit int) int {
	t.Helper()

	rig.controller.Push(inst)
	for i := 0; i < limit; i++ {
		rig.cycle()
		if rig.controller.Done() {
			// One extra cycle drains DONE back to IDLE.
			rig.cycle()
			return i + 1
		}
	}
	t.Fatalf("%s did not complete within %d cycles", inst.Opcode, limit)
	return 0
}

func (rig *testRig) pokeBytes(base uint32, values []int8) {
	for i, value := range values {
		rig.memory.Poke(base+uint32(i), value)
	}
}

func (rig *testRig) peekVector(id int, length int) []int8 {
	out := make([]int8, length)
	for i := 0; i < length; i++ {
		tile := rig.buffers.PeekTile(buffer.KindVector, id, i/buffer.TileWidth)
		out[i] = tile[i%buffer.TileWidth]
	}
	return out
}
