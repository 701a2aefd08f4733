package isa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeExtractsAllFields(t *testing.T) {
	inst := Instruction{
		Opcode: OpcodeGemv,
		Dest:   5,
		Length: 784,
		Rows:   12,
		Addr:   0xDEADBEEF,
		WID:    1,
		XID:    9,
		BID:    3,
	}

	decoded := Decode(Encode(inst))
	assert.Equal(t, inst, decoded)
}

func TestEncodeDecodeIdentityOnCanonicalWords(t *testing.T) {
	cases := []Instruction{
		NewLoadV(9, 0xc0, 784),
		NewLoadM(1, 0x940, 12, 800),
		NewStore(6, 0x100000, 10),
		NewGemv(5, 1, 9, 3, 12, 784),
		NewRelu(7, 5, 12),
		{},
		{Opcode: 0x1F, Dest: 31, Length: 0xFFFF, Rows: 0xFFFF, Addr: 0xFFFFFFFF, WID: 31, XID: 31, BID: 31},
	}

	for _, inst := range cases {
		word := Encode(inst)
		require.Equal(t, word, Encode(Decode(word)), "%s", inst.Opcode)
	}
}

func TestDecodeIsTotal(t *testing.T) {
	// Arbitrary garbage must still decode into a well-formed instruction.
	words := []Word{
		{Lo: 0xFFFFFFFFFFFFFFFF, Hi: 0xFFFFFFFFFFFFFFFF},
		{Lo: 0x123456789ABCDEF0, Hi: 0x0FEDCBA987654321},
		{},
	}

	for _, word := range words {
		inst := Decode(word)
		assert.GreaterOrEqual(t, inst.Dest, 0)
		assert.Less(t, inst.Dest, 32)
		assert.GreaterOrEqual(t, inst.WID, 0)
		assert.Less(t, inst.WID, 32)
		assert.LessOrEqual(t, inst.Length, 0xFFFF)
		assert.LessOrEqual(t, inst.Rows, 0xFFFF)
	}
}

func TestAddressStraddlesLimbBoundary(t *testing.T) {
	inst := Instruction{Opcode: OpcodeLoadV, Addr: 0xFFC00001}
	word := Encode(inst)

	require.NotZero(t, word.Hi&0x3FF, "high address bits must land in the second limb")
	assert.Equal(t, inst.Addr, Decode(word).Addr)
}

func TestUnknownOpcodeStringsAsNop(t *testing.T) {
	assert.Equal(t, "NOP", Opcode(0x1F).String())
	assert.False(t, Opcode(6).Known())
	assert.True(t, OpcodeRelu.Known())
}
