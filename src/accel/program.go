package accel

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/isa"
)

// Program is the ordered instruction stream a host feeds the engine, one
// instruction fully completing before the next is issued.
type Program struct {
	words []isa.Word
}

func NewProgram() *Program {
	program := new(Program)
	program.words = make([]isa.Word, 0)
	return program
}

func (this *Program) Push(word isa.Word) {
	this.words = append(this.words, word)
}

func (this *Program) PushInstruction(inst isa.Instruction) {
	this.Push(isa.Encode(inst))
}

func (this *Program) Words() []isa.Word {
	return this.words
}

func (this *Program) Size() int {
	return len(this.words)
}

// DumpHex writes the program back out in the hex format LoadProgramHex
// reads.
func (this *Program) DumpHex(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create program")
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, word := range this.words {
		if _, err := fmt.Fprintf(writer, "%016x\n%016x\n", word.Lo, word.Hi); err != nil {
			return errors.Wrap(err, "write program")
		}
	}

	return errors.Wrap(writer.Flush(), "flush program")
}

// LoadProgramHex parses a program hex file: 16 hex digits per line, two
// lines per instruction (low limb first), blank and "#"/"//" comment lines
// skipped.
func LoadProgramHex(path string) (*Program, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open program")
	}
	defer file.Close()

	program := NewProgram()
	limbs := make([]uint64, 0, 2)

	scanner := bufio.NewScanner(file)
	line_number := 0
	for scanner.Scan() {
		line_number++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}

		limb, err := strconv.ParseUint(line, 16, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "program %s line %d", path, line_number)
		}

		limbs = append(limbs, limb)
		if len(limbs) == 2 {
			program.Push(isa.Word{Lo: limbs[0], Hi: limbs[1]})
			limbs = limbs[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan program")
	}
	if len(limbs) != 0 {
		return nil, errors.Errorf("program %s has a trailing half instruction", path)
	}

	return program, nil
}
