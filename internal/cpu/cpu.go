// Package cpu implements the R3000A scalar interpreter: the
// load-delay and branch-delay pipeline, COP0 system control, and COP2
// (GTE) dispatch, execution one MIPS-I instruction per Step.
package cpu

import (
	"fmt"

	"psx-core/internal/debug"
)

// Bus is the subset of the memory interconnect the CPU needs. It is
// satisfied by *memory.Bus; kept as a narrow interface here to avoid
// an import cycle between cpu and memory.
type Bus interface {
	Read32(addr uint32) uint32
	Write32(addr uint32, value uint32)
	Read16(addr uint32) uint16
	Write16(addr uint32, value uint16)
	Read8(addr uint32) uint8
	Write8(addr uint32, value uint8)
}

// GTE is the COP2 geometry engine interface the CPU dispatches
// MFC2/MTC2/CFC2/CTC2/COP2 instructions to.
type GTE interface {
	ReadData(index uint32) uint32
	WriteData(index uint32, value uint32)
	ReadControl(index uint32) uint32
	WriteControl(index uint32, value uint32)
	Command(word uint32)
}

// loadSlot is the one-instruction-deep pending load-delay entry.
type loadSlot struct {
	reg   uint32
	value uint32
}

// CPU is the R3000A interpreter state.
type CPU struct {
	regs [32]uint32

	pc        uint32
	nextPC    uint32
	currentPC uint32

	hi, lo uint32

	pendingLoad loadSlot

	branchTaken bool
	branchDelay bool

	cop0 Cop0
	gte  GTE

	bus Bus

	logger *debug.Logger
}

// New returns a CPU wired to bus and (optionally) a GTE coprocessor.
func New(bus Bus, gte GTE, logger *debug.Logger) *CPU {
	c := &CPU{bus: bus, gte: gte, logger: logger}
	c.Reset()
	return c
}

// Reset performs a hard reset: PC=0xBFC00000, COP0 BEV=1/TS=1, all
// registers zeroed.
func (c *CPU) Reset() {
	c.regs = [32]uint32{}
	c.hi, c.lo = 0, 0
	c.pendingLoad = loadSlot{}
	c.branchTaken, c.branchDelay = false, false
	c.cop0.Reset()

	c.pc = 0xbfc00000
	c.nextPC = c.pc + 4
	c.currentPC = c.pc
}

// Reg reads general register index (r0 always reads 0).
func (c *CPU) Reg(index uint32) uint32 {
	if index == 0 {
		return 0
	}
	return c.regs[index]
}

// SetReg writes general register index; writes to r0 are dropped.
func (c *CPU) SetReg(index uint32, value uint32) {
	if index == 0 {
		return
	}
	c.regs[index] = value
	c.regs[0] = 0
}

func (c *CPU) PC() uint32 { return c.pc }

// SetHardwareInterrupt forwards the INTC's Pending() edge into
// Cause.IP bit 2.
func (c *CPU) SetHardwareInterrupt(asserted bool) {
	c.cop0.SetHardwareInterrupt(asserted)
}

// Step executes exactly one instruction, including load-delay commit,
// branch-delay rotation, and interrupt/exception entry. It returns a
// non-nil error only for conditions the spec's error taxonomy marks
// fatal (unknown opcode); guest exceptions are handled internally and
// never surface here.
func (c *CPU) Step() error {
	if c.pc&0x3 != 0 {
		c.cop0.SetBadVAddr(c.pc)
		c.enterException(ExcAddrLoad, false, 0)
		return nil
	}

	instruction := c.bus.Read32(c.pc)

	c.currentPC = c.pc
	c.pc = c.nextPC
	c.nextPC = c.pc + 4

	c.branchDelay = c.branchTaken
	c.branchTaken = false

	if c.cop0.IEc() && c.cop0.InterruptsPending() {
		c.enterException(ExcInterrupt, c.branchDelay, 0)
		return nil
	}

	if c.logger != nil {
		c.logger.Logf(debug.ComponentCPU, debug.LogLevelTrace, "pc=%#08x instr=%#08x", c.currentPC, instruction)
	}

	return c.execute(instruction)
}

// commitLoad applies the pending load-delay slot to the register
// file. Every instruction body calls this exactly once: after it has
// read its source operands from the pre-commit register file, and
// before it writes a result or schedules its own load-delay value.
func (c *CPU) commitLoad() {
	if c.pendingLoad.reg != 0 {
		c.regs[c.pendingLoad.reg] = c.pendingLoad.value
	}
	c.regs[0] = 0
	c.pendingLoad = loadSlot{}
}

// setLoadDelay schedules reg to receive value after the next
// commitLoad. Back-to-back loads to the same register: the later
// load (this call) supersedes an already-pending one, which is
// achieved naturally since commitLoad always runs before the next
// setLoadDelay call within the same instruction's execution, except
// for the load instructions themselves, which call commitLoad (for
// the *previous* instruction's pending load) before scheduling their
// own.
func (c *CPU) setLoadDelay(reg uint32, value uint32) {
	c.pendingLoad = loadSlot{reg: reg, value: value}
}

func (c *CPU) branch(offset uint32) {
	c.branchTaken = true
	c.nextPC = c.pc + (offset << 2)
}

// enterException redirects execution to the exception vector and
// pushes the COP0 IE/KU stack. EPC is currentPC, or currentPC-4 when
// bd reports that the faulting instruction sat in a branch-delay slot.
func (c *CPU) enterException(exc Exception, bd bool, coprocessor uint32) {
	epc := c.currentPC
	if bd {
		epc -= 4
	}

	c.cop0.EnterException(epc, exc, bd, c.branchTaken, coprocessor)

	vector := uint32(0x80000080)
	if c.cop0.BEV() {
		vector = 0xbfc00180
	}

	c.pc = vector
	c.nextPC = vector + 4
}

func (c *CPU) raise(exc Exception) {
	c.enterException(exc, c.branchDelay, 0)
}

func (c *CPU) raiseCop(exc Exception, cop uint32) {
	c.enterException(exc, c.branchDelay, cop)
}

func (c *CPU) checkAddr(addr uint32, alignment uint32, store bool) bool {
	if addr&(alignment-1) != 0 {
		c.cop0.SetBadVAddr(addr)
		if store {
			c.raise(ExcAddrStore)
		} else {
			c.raise(ExcAddrLoad)
		}
		return false
	}
	return true
}

func (c *CPU) load32(addr uint32) (uint32, bool) {
	if !c.checkAddr(addr, 4, false) {
		return 0, false
	}
	return c.bus.Read32(addr), true
}

func (c *CPU) load16(addr uint32) (uint16, bool) {
	if !c.checkAddr(addr, 2, false) {
		return 0, false
	}
	return c.bus.Read16(addr), true
}

func (c *CPU) load8(addr uint32) uint8 {
	return c.bus.Read8(addr)
}

func (c *CPU) store32(addr uint32, value uint32) bool {
	if !c.checkAddr(addr, 4, true) {
		return false
	}
	if c.cop0.IsolateCache() {
		return true
	}
	c.bus.Write32(addr, value)
	return true
}

func (c *CPU) store16(addr uint32, value uint16) bool {
	if !c.checkAddr(addr, 2, true) {
		return false
	}
	if c.cop0.IsolateCache() {
		return true
	}
	c.bus.Write16(addr, value)
	return true
}

func (c *CPU) store8(addr uint32, value uint8) {
	if c.cop0.IsolateCache() {
		return
	}
	c.bus.Write8(addr, value)
}

// Error is returned for the small set of conditions the spec treats
// as host-fatal within the CPU (unrecognized opcode/coprocessor
// command), rather than as a guest-recoverable exception.
type Error struct {
	PC  uint32
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cpu: fatal fault at pc=%#08x: %s", e.PC, e.Msg)
}
