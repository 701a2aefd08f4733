package exec

import (
	"testing"

	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/buffer"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/isa"
)

// goldenGemv recomputes the quantized GEMV with independent int64 arithmetic.
func goldenGemv(w [][]int8, x []int8, bias []int8) []int8 {
	rows := len(w)
	acc := make([]int32, rows)
	for r := 0; r < rows; r++ {
		sum := int32(bias[r])
		for c := 0; c < len(x); c++ {
			sum += int32(w[r][c]) * int32(x[c])
		}
		acc[r] = sum
	}

	max_abs := int64(1)
	for _, value := range acc {
		magnitude := int64(value)
		if magnitude < 0 {
			magnitude = -magnitude
		}
		if magnitude > max_abs {
			max_abs = magnitude
		}
	}
	scale := (int64(127) << 24) / max_abs

	out := make([]int8, rows)
	for r := 0; r < rows; r++ {
		shifted := (int64(acc[r])*scale + (1 << 23)) >> 24
		if shifted > 127 {
			shifted = 127
		}
		if shifted < -128 {
			shifted = -128
		}
		out[r] = int8(shifted)
	}
	return out
}

func stageVector(rig *testRig, id int, values []int8) {
	for tile_index := 0; tile_index < buffer.TilesFor(len(values)); tile_index++ {
		tile := buffer.Tile{}
		for i := 0; i < buffer.TileWidth; i++ {
			if index := tile_index*buffer.TileWidth + i; index < len(values) {
				tile[i] = values[index]
			}
		}
		rig.buffers.PokeTile(buffer.KindVector, id, tile_index, tile)
	}
}

func stageMatrix(rig *testRig, id int, w [][]int8) {
	tiles_per_row := buffer.TilesFor(len(w[0]))
	for r := range w {
		for tile_in_row := 0; tile_in_row < tiles_per_row; tile_in_row++ {
			tile := buffer.Tile{}
			for i := 0; i < buffer.TileWidth; i++ {
				if c := tile_in_row*buffer.TileWidth + i; c < len(w[r]) {
					tile[i] = w[r][c]
				}
			}
			rig.buffers.PokeTile(buffer.KindMatrix, id, r*tiles_per_row+tile_in_row, tile)
		}
	}
}

// nextValue is a tiny LCG so tests stay deterministic without a seed flag.
func nextValue(state *uint32) int8 {
	*state = *state*1664525 + 1013904223
	return int8(*state >> 24)
}

func TestGemvMatchesGoldenModel(t *testing.T) {
	for _, shape := range []struct{ rows, cols int }{
		{1, 1},
		{4, 32},
		{12, 784},
		{33, 40},
	} {
		rig := newTestRig(t)
		state := uint32(0xA5A5A5A5)

		w := make([][]int8, shape.rows)
		for r := range w {
			w[r] = make([]int8, shape.cols)
			for c := range w[r] {
				w[r][c] = nextValue(&state)
			}
		}
		x := make([]int8, shape.cols)
		for i := range x {
			x[i] = nextValue(&state)
		}
		bias := make([]int8, shape.rows)
		for i := range bias {
			bias[i] = nextValue(&state)
		}

		stageMatrix(rig, 1, w)
		stageVector(rig, 9, x)
		stageVector(rig, 3, bias)

		runInstruction(t, rig, isa.NewGemv(5, 1, 9, 3, shape.rows, shape.cols), 1_000_000)

		expected := goldenGemv(w, x, bias)
		got := rig.peekVector(5, shape.rows)
		for r := range expected {
			if got[r] != expected[r] {
				t.Fatalf("shape %dx%d row %d: expected %d, got %d",
					shape.rows, shape.cols, r, expected[r], got[r])
			}
		}
	}
}

func TestGemvIsDeterministicAcrossInvocations(t *testing.T) {
	rig := newTestRig(t)
	state := uint32(7)

	w := [][]int8{make([]int8, 50), make([]int8, 50), make([]int8, 50)}
	for r := range w {
		for c := range w[r] {
			w[r][c] = nextValue(&state)
		}
	}
	x := make([]int8, 50)
	bias := make([]int8, 3)
	for i := range x {
		x[i] = nextValue(&state)
	}
	for i := range bias {
		bias[i] = nextValue(&state)
	}

	stageMatrix(rig, 1, w)
	stageVector(rig, 9, x)
	stageVector(rig, 3, bias)

	runInstruction(t, rig, isa.NewGemv(5, 1, 9, 3, 3, 50), 100_000)
	first := rig.peekVector(5, 3)

	runInstruction(t, rig, isa.NewGemv(5, 1, 9, 3, 3, 50), 100_000)
	second := rig.peekVector(5, 3)

	for r := range first {
		if first[r] != second[r] {
			t.Fatalf("row %d differs across invocations: %d vs %d", r, first[r], second[r])
		}
	}
}

func TestGemvAllZeroAccumulation(t *testing.T) {
	rig := newTestRig(t)

	stageMatrix(rig, 1, [][]int8{make([]int8, 8), make([]int8, 8)})
	stageVector(rig, 9, make([]int8, 8))
	stageVector(rig, 3, make([]int8, 2))

	runInstruction(t, rig, isa.NewGemv(5, 1, 9, 3, 2, 8), 100_000)

	for r, value := range rig.peekVector(5, 2) {
		if value != 0 {
			t.Fatalf("row %d: expected 0, got %d", r, value)
		}
	}
}

func TestGemvIgnoresStaleTileTails(t *testing.T) {
	rig := newTestRig(t)

	// Garbage beyond cols in the x and W tiles must not leak into the sums.
	// Two rows, one column: if the tails leaked, both accumulations would be
	// inflated by the same large amount and both outputs would saturate.
	garbage := buffer.Tile{}
	for i := range garbage {
		garbage[i] = 99
	}

	x_tile := garbage
	x_tile[0] = 2
	w_tile_0 := garbage
	w_tile_0[0] = 3
	w_tile_1 := garbage
	w_tile_1[0] = 6

	rig.buffers.PokeTile(buffer.KindVector, 9, 0, x_tile)
	rig.buffers.PokeTile(buffer.KindMatrix, 1, 0, w_tile_0)
	rig.buffers.PokeTile(buffer.KindMatrix, 1, 1, w_tile_1)
	rig.buffers.PokeTile(buffer.KindVector, 3, 0, buffer.Tile{0: 1, 1: 1})

	runInstruction(t, rig, isa.NewGemv(5, 1, 9, 3, 2, 1), 100_000)

	expected := goldenGemv([][]int8{{3}, {6}}, []int8{2}, []int8{1, 1})
	got := rig.peekVector(5, 2)
	for r := range expected {
		if got[r] != expected[r] {
			t.Fatalf("row %d: expected %d, got %d", r, expected[r], got[r])
		}
	}
}

func TestGemvZeroRowsCompletesImmediately(t *testing.T) {
	rig := newTestRig(t)

	cycles := runInstruction(t, rig, isa.NewGemv(5, 1, 9, 3, 0, 16), 16)
	if cycles > 4 {
		t.Fatalf("zero-row GEMV took %d cycles", cycles)
	}
	if rig.buffers.TileCount(buffer.KindVector, 5) != 0 {
		t.Fatalf("zero-row GEMV must not write tiles")
	}
}

func TestGemvZeroColsReducesToBias(t *testing.T) {
	rig := newTestRig(t)

	stageVector(rig, 3, []int8{-128, 0, 127})
	runInstruction(t, rig, isa.NewGemv(5, 1, 9, 3, 3, 0), 100_000)

	expected := goldenGemv([][]int8{{}, {}, {}}, nil, []int8{-128, 0, 127})
	got := rig.peekVector(5, 3)
	for r := range expected {
		if got[r] != expected[r] {
			t.Fatalf("row %d: expected %d, got %d", r, expected[r], got[r])
		}
	}
}
