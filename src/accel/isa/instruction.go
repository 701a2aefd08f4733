package isa

// Opcode selects the operation an instruction performs. Values outside the
// enumerated range are legal input and execute as NOP.
type Opcode uint8

const (
	OpcodeNop Opcode = iota
	OpcodeLoadV
	OpcodeLoadM
	OpcodeStore
	OpcodeGemv
	OpcodeRelu
)

func (op Opcode) String() string {
	switch op {
	case OpcodeNop:
		return "NOP"
	case OpcodeLoadV:
		return "LOAD_V"
	case OpcodeLoadM:
		return "LOAD_M"
	case OpcodeStore:
		return "STORE"
	case OpcodeGemv:
		return "GEMV"
	case OpcodeRelu:
		return "RELU"
	default:
		return "NOP"
	}
}

// Known reports whether the opcode maps to a real operation. Unknown opcodes
// are routed like NOP, so this only matters for logging.
func (op Opcode) Known() bool {
	return op <= OpcodeRelu
}

// Word is the raw 128-bit instruction as two little-endian limbs. Field
// layout, low bit to high bit:
//
//	opcode[0:5) dest[5:10) length_or_cols[10:26) rows[26:42)
//	addr[42:74) w_id[74:79) x_id[79:84) b_id[84:89)
//
// The address field straddles the limb boundary: its low 22 bits live in Lo,
// the remaining 10 bits in Hi.
type Word struct {
	Lo uint64
	Hi uint64
}

// Instruction is the decoded form of a Word. Buffer ids are dense indices
// into the 32-entry vector or matrix buffer space; which space applies
// depends on the opcode.
type Instruction struct {
	Opcode Opcode
	Dest   int
	Length int
	Rows   int
	Addr   uint32
	WID    int
	XID    int
	BID    int
}

// Decode unpacks a raw instruction word. It is total: every bit pattern
// yields a valid Instruction, including out-of-enum opcodes.
func Decode(word Word) Instruction {
	addr := uint32(word.Lo>>42) | uint32(word.Hi&0x3FF)<<22

	return Instruction{
		Opcode: Opcode(word.Lo & 0x1F),
		Dest:   int(word.Lo >> 5 & 0x1F),
		Length: int(word.Lo >> 10 & 0xFFFF),
		Rows:   int(word.Lo >> 26 & 0xFFFF),
		Addr:   addr,
		WID:    int(word.Hi >> 10 & 0x1F),
		XID:    int(word.Hi >> 15 & 0x1F),
		BID:    int(word.Hi >> 20 & 0x1F),
	}
}

// Encode packs an Instruction back into a Word. Fields are masked to their
// declared widths, so Encode(Decode(w)) reproduces w for canonical words.
func Encode(inst Instruction) Word {
	lo := uint64(inst.Opcode) & 0x1F
	lo |= uint64(inst.Dest) & 0x1F << 5
	lo |= uint64(inst.Length) & 0xFFFF << 10
	lo |= uint64(inst.Rows) & 0xFFFF << 26
	lo |= uint64(inst.Addr) & 0x3FFFFF << 42

	hi := uint64(inst.Addr) >> 22 & 0x3FF
	hi |= uint64(inst.WID) & 0x1F << 10
	hi |= uint64(inst.XID) & 0x1F << 15
	hi |= uint64(inst.BID) & 0x1F << 20

	return Word{Lo: lo, Hi: hi}
}

// NewLoadV builds a LOAD_V instruction reading length bytes at addr into
// vector buffer dest.
func NewLoadV(dest int, addr uint32, length int) Instruction {
	return Instruction{Opcode: OpcodeLoadV, Dest: dest, Addr: addr, Length: length}
}

// NewLoadM builds a LOAD_M instruction reading a dense row-major rows×cols
// matrix at addr into matrix buffer dest.
func NewLoadM(dest int, addr uint32, rows int, cols int) Instruction {
	return Instruction{Opcode: OpcodeLoadM, Dest: dest, Addr: addr, Rows: rows, Length: cols}
}

// NewStore builds a STORE instruction writing length bytes of vector buffer
// src out to addr.
func NewStore(src int, addr uint32, length int) Instruction {
	return Instruction{Opcode: OpcodeStore, Dest: src, Addr: addr, Length: length}
}

// NewGemv builds a GEMV instruction: dest = quantize(W[w]·x[x] + bias[b]).
func NewGemv(dest int, w int, x int, b int, rows int, cols int) Instruction {
	return Instruction{Opcode: OpcodeGemv, Dest: dest, WID: w, XID: x, BID: b, Rows: rows, Length: cols}
}

// NewRelu builds a RELU instruction applying max(0, ·) to the first length
// elements of vector buffer src.
func NewRelu(dest int, src int, length int) Instruction {
	return Instruction{Opcode: OpcodeRelu, Dest: dest, XID: src, Length: length}
}
