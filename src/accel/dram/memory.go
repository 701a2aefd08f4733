package dram

import (
	"fmt"

	"github.com/SayatAbdikul/tinyML-accelerator/src/misc"
)

type MemoryOperation int

const (
	READ MemoryOperation = iota
	WRITE
)

// Request is one byte-granular memory transaction. The engine issues
// addresses; the memory performs no bounds management beyond growing its
// backing store to cover them.
type Request struct {
	operation MemoryOperation
	address   uint32
	value     int8
	ack       bool
}

func NewReadRequest(address uint32) *Request {
	request := new(Request)
	request.operation = READ
	request.address = address
	return request
}

func NewWriteRequest(address uint32, value int8) *Request {
	request := new(Request)
	request.operation = WRITE
	request.address = address
	request.value = value
	return request
}

func (this *Request) Operation() MemoryOperation {
	return this.operation
}

func (this *Request) Address() uint32 {
	return this.address
}

func (this *Request) Value() int8 {
	if !this.ack {
		err := fmt.Errorf("memory request has not been acknowledged")
		panic(err)
	}
	return this.value
}

// Memory models the external DRAM: flat, byte addressable, one byte per
// request, with separately configurable read and write latency. Requests are
// accepted into an input queue and serviced one at a time; a request
// completes a fixed number of cycles after it becomes active.
type Memory struct {
	data []int8

	input_q []*Request
	ready_q []*Request

	active_request  *Request
	remaining_cycle int

	read_latency  int
	write_latency int

	stat_factory *misc.StatFactory
}

func (this *Memory) Init(config_loader *misc.ConfigLoader) {
	this.data = make([]int8, config_loader.MemoryImageBytes())

	this.input_q = make([]*Request, 0)
	this.ready_q = make([]*Request, 0)

	this.active_request = nil
	this.remaining_cycle = 0

	this.read_latency = config_loader.MemoryReadLatency()
	this.write_latency = config_loader.MemoryWriteLatency()

	this.stat_factory = new(misc.StatFactory)
	this.stat_factory.Init("Memory")
}

func (this *Memory) Fini() {
	this.input_q = nil
	this.ready_q = nil
	this.active_request = nil
}

func (this *Memory) StatFactory() *misc.StatFactory {
	return this.stat_factory
}

func (this *Memory) IsEmpty() bool {
	return this.active_request == nil && len(this.input_q) == 0 && len(this.ready_q) == 0
}

func (this *Memory) Push(request *Request) {
	if request == nil {
		err := fmt.Errorf("memory request is nil")
		panic(err)
	}

	this.input_q = append(this.input_q, request)
}

func (this *Memory) CanPop() bool {
	return len(this.ready_q) > 0
}

func (this *Memory) Pop() *Request {
	if !this.CanPop() {
		err := fmt.Errorf("memory ready queue is empty")
		panic(err)
	}

	request := this.ready_q[0]
	this.ready_q[0] = nil
	this.ready_q = this.ready_q[1:]
	return request
}

func (this *Memory) Cycle() {
	this.serviceInput()
	this.serviceActive()
	this.stat_factory.Increment("memory_cycle", 1)
}

func (this *Memory) serviceInput() {
	if this.active_request != nil {
		return
	}

	if len(this.input_q) == 0 {
		return
	}

	this.active_request = this.input_q[0]
	this.input_q[0] = nil
	this.input_q = this.input_q[1:]
	this.remaining_cycle = this.latencyFor(this.active_request)
}

func (this *Memory) serviceActive() {
	if this.active_request == nil {
		return
	}

	this.remaining_cycle--
	if this.remaining_cycle > 0 {
		return
	}

	this.completeActiveRequest()
}

func (this *Memory) completeActiveRequest() {
	request := this.active_request

	switch request.operation {
	case READ:
		request.value = this.Peek(request.address)
		this.stat_factory.Increment("memory_read_ops", 1)
	case WRITE:
		this.Poke(request.address, request.value)
		this.stat_factory.Increment("memory_write_ops", 1)
	default:
		panic(fmt.Errorf("memory operation not supported"))
	}

	request.ack = true
	this.ready_q = append(this.ready_q, request)
	this.active_request = nil
	this.remaining_cycle = 0
}

func (this *Memory) latencyFor(request *Request) int {
	if request.operation == READ {
		return this.read_latency
	}

	return this.write_latency
}

// Peek reads a byte directly, bypassing the latency model. Host-side only.
func (this *Memory) Peek(address uint32) int8 {
	if int64(address) >= int64(len(this.data)) {
		return 0
	}
	return this.data[address]
}

// Poke writes a byte directly, bypassing the latency model. Host-side only.
func (this *Memory) Poke(address uint32, value int8) {
	this.ensure(address)
	this.data[address] = value
}

func (this *Memory) ensure(address uint32) {
	if int64(address) < int64(len(this.data)) {
		return
	}

	grown := make([]int8, int64(address)+1)
	copy(grown, this.data)
	this.data = grown
}
