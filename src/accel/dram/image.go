package dram

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// LoadImage fills memory from a hex image file: one two-digit hex byte per
// line, ascending from address base. Blank lines and lines starting with
// "//" or "#" are skipped.
func (this *Memory) LoadImage(path string, base uint32) error {
	file, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open memory image")
	}
	defer file.Close()

	address := base
	scanner := bufio.NewScanner(file)
	line_number := 0
	for scanner.Scan() {
		line_number++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") || strings.HasPrefix(line, "#") {
			continue
		}

		value, err := strconv.ParseUint(line, 16, 8)
		if err != nil {
			return errors.Wrapf(err, "memory image %s line %d", path, line_number)
		}

		this.Poke(address, int8(value))
		address++
	}

	return errors.Wrap(scanner.Err(), "scan memory image")
}

// DumpImage writes length bytes starting at base back out as a hex image.
func (this *Memory) DumpImage(path string, base uint32, length int) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create memory image")
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for i := 0; i < length; i++ {
		value := this.Peek(base + uint32(i))
		if _, err := fmt.Fprintf(writer, "%02x\n", uint8(value)); err != nil {
			return errors.Wrap(err, "write memory image")
		}
	}

	return errors.Wrap(writer.Flush(), "flush memory image")
}
