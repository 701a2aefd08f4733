package exec

import (
	"fmt"
	"strings"

	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/buffer"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/dram"
	"github.com/SayatAbdikul/tinyML-accelerator/src/accel/isa"
	"github.com/SayatAbdikul/tinyML-accelerator/src/misc"
)

// State enumerates the controller's dispatch machine.
type State int

const (
	StateIdle State = iota
	StateDispatch
	StateExecLoad
	StateExecGemv
	StateExecRelu
	StateExecStore
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateDispatch:
		return "DISPATCH"
	case StateExecLoad:
		return "EXEC_LOAD"
	case StateExecGemv:
		return "EXEC_GEMV"
	case StateExecRelu:
		return "EXEC_RELU"
	case StateExecStore:
		return "EXEC_STORE"
	case StateDone:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Controller decodes one instruction at a time and dispatches it to the unit
// implementing its opcode. NOP and unrecognized opcodes route straight to
// DONE with no side effects. The done signal is asserted for exactly one
// cycle, after which the controller is idle and the next instruction may be
// pushed. There is no instruction-level pipelining and no cancellation.
type Controller struct {
	state State
	inst  isa.Instruction
	done  bool

	load_unit  *LoadUnit
	store_unit *StoreUnit
	gemv_unit  *GemvUnit
	relu_unit  *ReluUnit

	stat_factory *misc.StatFactory
}

func (this *Controller) Init(
	config_loader *misc.ConfigLoader,
	memory *dram.Memory,
	buffers *buffer.File,
) {
	this.state = StateIdle
	this.done = false

	this.load_unit = new(LoadUnit)
	this.load_unit.Init(memory, buffers)

	this.store_unit = new(StoreUnit)
	this.store_unit.Init(memory, buffers)

	this.gemv_unit = new(GemvUnit)
	this.gemv_unit.Init(buffers, config_loader.ScaleCalcCycles())

	this.relu_unit = new(ReluUnit)
	this.relu_unit.Init(buffers)

	this.stat_factory = new(misc.StatFactory)
	this.stat_factory.Init("Controller")
}

func (this *Controller) Fini() {
	this.load_unit = nil
	this.store_unit = nil
	this.gemv_unit = nil
	this.relu_unit = nil
}

func (this *Controller) State() State {
	return this.state
}

func (this *Controller) Idle() bool {
	return this.state == StateIdle
}

// Done reports the completion pulse for the instruction that just retired.
func (this *Controller) Done() bool {
	return this.done
}

func (this *Controller) StatFactory() *misc.StatFactory {
	return this.stat_factory
}

func (this *Controller) UnitStatFactories() []*misc.StatFactory {
	return []*misc.StatFactory{
		this.load_unit.StatFactory(),
		this.store_unit.StatFactory(),
		this.gemv_unit.StatFactory(),
		this.relu_unit.StatFactory(),
	}
}

// Push accepts the next instruction. The host must wait for the done pulse
// of the previous instruction first; pushing into a busy controller is a
// host bug.
func (this *Controller) Push(inst isa.Instruction) {
	if !this.Idle() {
		err := fmt.Errorf("controller is busy in state %s", this.state)
		panic(err)
	}

	this.inst = inst
	this.state = StateDispatch
}

func (this *Controller) Cycle() {
	switch this.state {
	case StateIdle:
		// nothing in flight

	case StateDispatch:
		this.dispatch()

	case StateExecLoad:
		this.load_unit.Cycle()
		if !this.load_unit.Busy() {
			this.finish()
		}

	case StateExecGemv:
		this.gemv_unit.Cycle()
		if !this.gemv_unit.Busy() {
			this.finish()
		}

	case StateExecRelu:
		this.relu_unit.Cycle()
		if !this.relu_unit.Busy() {
			this.finish()
		}

	case StateExecStore:
		this.store_unit.Cycle()
		if !this.store_unit.Busy() {
			this.finish()
		}

	case StateDone:
		this.done = false
		this.state = StateIdle
	}
}

func (this *Controller) dispatch() {
	opcode := this.inst.Opcode
	this.stat_factory.Increment("dispatch_"+strings.ToLower(opcode.String()), 1)

	switch opcode {
	case isa.OpcodeLoadV, isa.OpcodeLoadM:
		this.load_unit.Start(this.inst)
		this.state = StateExecLoad

	case isa.OpcodeStore:
		this.store_unit.Start(this.inst)
		this.state = StateExecStore

	case isa.OpcodeGemv:
		this.gemv_unit.Start(this.inst)
		this.state = StateExecGemv

	case isa.OpcodeRelu:
		this.relu_unit.Start(this.inst)
		this.state = StateExecRelu

	default:
		// NOP and unknown opcodes retire immediately. Silent ignore is the
		// contract, not an error path.
		this.finish()
	}
}

func (this *Controller) finish() {
	this.done = true
	this.state = StateDone
	this.stat_factory.Increment("instructions_retired", 1)
}
