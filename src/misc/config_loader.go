package misc

// ConfigLoader exposes the engine parameters through accessor methods so that
// components do not reach into a shared struct directly. The values live in a
// package-level runtime config that the command line layer mutates once at
// startup, before any component calls Init.
type ConfigLoader struct{}

type runtimeConfig struct {
	memoryReadLatency  int
	memoryWriteLatency int
	bufferPortLatency  int
	scaleCalcCycles    int
	stepLimit          int64
	memoryImageBytes   int64
}

var globalConfig = runtimeConfig{
	memoryReadLatency:  2,
	memoryWriteLatency: 2,
	bufferPortLatency:  1,
	scaleCalcCycles:    32,
	stepLimit:          10_000_000,
	memoryImageBytes:   16 * 1024 * 1024,
}

// ConfigureRuntime overrides the global runtime config. Non-positive values
// leave the corresponding default untouched.
func ConfigureRuntime(
	memory_read_latency int,
	memory_write_latency int,
	buffer_port_latency int,
	step_limit int64,
) {
	if memory_read_latency > 0 {
		globalConfig.memoryReadLatency = memory_read_latency
	}
	if memory_write_latency > 0 {
		globalConfig.memoryWriteLatency = memory_write_latency
	}
	if buffer_port_latency > 0 {
		globalConfig.bufferPortLatency = buffer_port_latency
	}
	if step_limit > 0 {
		globalConfig.stepLimit = step_limit
	}
}

func (this *ConfigLoader) Init() {}

func (this *ConfigLoader) DataWidth() int {
	return 8
}

func (this *ConfigLoader) AccumulatorWidth() int {
	return 32
}

func (this *ConfigLoader) AddressWidth() int {
	return 32
}

func (this *ConfigLoader) TileWidth() int {
	return 32
}

func (this *ConfigLoader) NumVectorBuffers() int {
	return 32
}

func (this *ConfigLoader) NumMatrixBuffers() int {
	return 32
}

func (this *ConfigLoader) MemoryReadLatency() int {
	return globalConfig.memoryReadLatency
}

func (this *ConfigLoader) MemoryWriteLatency() int {
	return globalConfig.memoryWriteLatency
}

func (this *ConfigLoader) BufferPortLatency() int {
	return globalConfig.bufferPortLatency
}

// ScaleCalcCycles 对应硬件 32 位逐位恢复除法的周期数，只决定时序窗口，不影响商。
func (this *ConfigLoader) ScaleCalcCycles() int {
	return globalConfig.scaleCalcCycles
}

func (this *ConfigLoader) StepLimit() int64 {
	return globalConfig.stepLimit
}

func (this *ConfigLoader) MemoryImageBytes() int64 {
	return globalConfig.memoryImageBytes
}
