package main

import "github.com/tanagra/coleco/z80"

// placeholderCPU is a stand-in for the z80.CPU this module deliberately
// does not implement: a real Z80 interpreter is an external collaborator
// (see package z80's doc comment). It never decodes an opcode; Step always
// reports a fixed cost, enough to drive the scheduler, bus, VDP, and both
// PSGs end to end for wiring demonstrations and headless snapshot runs.
// A real embedding application links in an actual interpreter instead.
type placeholderCPU struct {
	regs     z80.Registers
	leftover uint32
}

const placeholderStepCycles = 4

func (c *placeholderCPU) Init()            {}
func (c *placeholderCPU) Reset(hard bool)  { c.regs = z80.Registers{} }
func (c *placeholderCPU) Step() uint32     { return placeholderStepCycles }
func (c *placeholderCPU) PulseIRQ(uint8)   {}
func (c *placeholderCPU) PulseNMI()        {}
func (c *placeholderCPU) ClearIRQ()        {}

func (c *placeholderCPU) Run(cycles uint32) uint32 {
	var total uint32
	for total < cycles {
		total += c.Step()
	}
	return total
}

func (c *placeholderCPU) Delay(cycles uint32) {}

func (c *placeholderCPU) CycleStore(cycles uint32) { c.leftover = cycles }
func (c *placeholderCPU) CycleRestore() uint32 {
	v := c.leftover
	c.leftover = 0
	return v
}

func (c *placeholderCPU) StateSave() z80.Registers  { return c.regs }
func (c *placeholderCPU) StateLoad(r z80.Registers) { c.regs = r }

var _ z80.CPU = (*placeholderCPU)(nil)
