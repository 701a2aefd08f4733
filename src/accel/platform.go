package accel

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/buffer"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/dram"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/exec"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/isa"
	"github.com/SayatAbdikul/tinyML-accelerator/src/misc"
)

// Platform owns the external memory, the buffer file and the execution
// controller, and advances them together one scheduling step at a time. It
// is the host-facing surface: instructions go in through Execute or Run, the
// done pulse and a step bound come back out.
type Platform struct {
	config_loader *misc.ConfigLoader

	memory     *dram.Memory
	buffers    *buffer.File
	controller *exec.Controller

	logger *logrus.Logger
	cycle  int64
}

func (this *Platform) Init(logger *logrus.Logger) {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.WarnLevel)
	}
	this.logger = logger

	this.config_loader = new(misc.ConfigLoader)
	this.config_loader.Init()

	this.memory = new(dram.Memory)
	this.memory.Init(this.config_loader)

	this.buffers = buffer.NewFile(this.config_loader.BufferPortLatency())

	this.controller = new(exec.Controller)
	this.controller.Init(this.config_loader, this.memory, this.buffers)
}

func (this *Platform) Fini() {
	this.controller.Fini()
	this.memory.Fini()
}

func (this *Platform) Memory() *dram.Memory {
	return this.memory
}

func (this *Platform) Buffers() *buffer.File {
	return this.buffers
}

func (this *Platform) Controller() *exec.Controller {
	return this.controller
}

func (this *Platform) CycleCount() int64 {
	return this.cycle
}

// Cycle advances every component by one scheduling step. The controller
// runs first so that requests it issues are picked up by the memory and
// buffer pipelines in the same step.
func (this *Platform) Cycle() {
	this.controller.Cycle()
	this.memory.Cycle()
	this.buffers.Cycle()
	this.cycle++
}

// Execute runs a single instruction to completion. The engine itself never
// times out; the step bound here is the host-side liveness policy, and
// exceeding it is a fatal condition rather than an engine error value.
func (this *Platform) Execute(inst isa.Instruction) error {
	this.controller.Push(inst)

	limit := this.config_loader.StepLimit()
	for step := int64(0); step <= limit; step++ {
		this.Cycle()
		if this.controller.Done() {
			// The done pulse lasts one step; take it so the controller is
			// back in IDLE before the next instruction is pushed.
			this.Cycle()
			this.logger.WithFields(logrus.Fields{
				"opcode": inst.Opcode.String(),
				"dest":   inst.Dest,
				"cycle":  this.cycle,
			}).Debug("instruction retired")
			return nil
		}
	}

	return errors.Errorf("instruction %s did not complete within %d steps",
		inst.Opcode, limit)
}

// Run executes a whole program in order, stopping at the first liveness
// failure.
func (this *Platform) Run(program *Program) error {
	for index, word := range program.Words() {
		inst := isa.Decode(word)
		if err := this.Execute(inst); err != nil {
			return errors.Wrapf(err, "program instruction %d", index)
		}
	}

	this.logger.WithFields(logrus.Fields{
		"instructions": program.Size(),
		"cycles":       this.cycle,
	}).Info("program complete")
	return nil
}

// DumpStats logs every component's counters.
func (this *Platform) DumpStats() {
	factories := []*misc.StatFactory{
		this.controller.StatFactory(),
		this.memory.StatFactory(),
	}
	factories = append(factories, this.controller.UnitStatFactories()...)

	for _, factory := range factories {
		for _, key := range factory.Keys() {
			this.logger.WithFields(logrus.Fields{
				"component": factory.Name(),
				"counter":   key,
				"value":     factory.Value(key),
			}).Info("stat")
		}
	}
}
