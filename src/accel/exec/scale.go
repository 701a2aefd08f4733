package exec

// ReciprocalScale returns floor((127 << 24) / max(1, max_abs)) as an
// unsigned Q8.24 fixed-point value. The hardware realizes this quotient with
// a 32-cycle bit-serial restoring division; only the quotient is modelled
// here, as exact integer division.
func ReciprocalScale(max_abs int32) uint32 {
	if max_abs < 1 {
		max_abs = 1
	}

	// 不得用浮点近似, 商必须逐位精确
	return uint32((int64(127) << 24) / int64(max_abs))
}

// ScaleCalculator wraps ReciprocalScale in the busy window the divider
// occupies, so the GEMV pipeline observes a non-instant scale stage.
type ScaleCalculator struct {
	cycles int

	busy      bool
	remaining int
	max_abs   int32
	result    uint32
}

func (this *ScaleCalculator) Init(cycles int) {
	if cycles <= 0 {
		cycles = 1
	}
	this.cycles = cycles
}

func (this *ScaleCalculator) Busy() bool {
	return this.busy
}

func (this *ScaleCalculator) Start(max_abs int32) {
	this.busy = true
	this.remaining = this.cycles
	this.max_abs = max_abs
}

func (this *ScaleCalculator) Cycle() {
	if !this.busy {
		return
	}

	this.remaining--
	if this.remaining > 0 {
		return
	}

	this.result = ReciprocalScale(this.max_abs)
	this.busy = false
}

// Result is valid once the calculator has gone idle after a Start.
func (this *ScaleCalculator) Result() uint32 {
	return this.result
}
