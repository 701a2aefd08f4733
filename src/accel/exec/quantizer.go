package exec

// Quantize rescales a signed 32-bit accumulation into int8 range using the
// Q8.24 reciprocal scale: multiply into a signed 64-bit intermediate, round
// half up by adding 2^23 before the arithmetic shift, then clip.
func Quantize(acc int32, reciprocal_scale uint32) int8 {
	product := int64(acc) * int64(reciprocal_scale)
	shifted := (product + 1<<23) >> 24

	if shifted > 127 {
		shifted = 127
	}
	if shifted < -128 {
		shifted = -128
	}

	return int8(shifted)
}
