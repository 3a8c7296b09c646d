package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resetVector = 0xbfc00000

// testBus is a sparse byte-addressed memory standing in for the full
// interconnect; the interpreter only sees the cpu.Bus interface.
type testBus struct {
	mem map[uint32]uint8
}

func newTestBus() *testBus { return &testBus{mem: map[uint32]uint8{}} }

func (b *testBus) Read8(addr uint32) uint8         { return b.mem[addr] }
func (b *testBus) Write8(addr uint32, value uint8) { b.mem[addr] = value }

func (b *testBus) Read16(addr uint32) uint16 {
	return uint16(b.mem[addr]) | uint16(b.mem[addr+1])<<8
}

func (b *testBus) Write16(addr uint32, value uint16) {
	b.mem[addr] = uint8(value)
	b.mem[addr+1] = uint8(value >> 8)
}

func (b *testBus) Read32(addr uint32) uint32 {
	return uint32(b.Read16(addr)) | uint32(b.Read16(addr+2))<<16
}

func (b *testBus) Write32(addr uint32, value uint32) {
	b.Write16(addr, uint16(value))
	b.Write16(addr+2, uint16(value>>16))
}

// loadProgram places instruction words at the reset vector.
func (b *testBus) loadProgram(words ...uint32) {
	for i, w := range words {
		b.Write32(resetVector+uint32(i)*4, w)
	}
}

func newTestCPU(t *testing.T, program ...uint32) (*CPU, *testBus) {
	t.Helper()
	bus := newTestBus()
	bus.loadProgram(program...)
	return New(bus, nil, nil), bus
}

func step(t *testing.T, c *CPU, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, c.Step())
	}
}

// Encoding helpers, MIPS-I instruction formats.

func encodeI(op, rs, rt uint32, imm uint16) uint32 {
	return op<<26 | rs<<21 | rt<<16 | uint32(imm)
}

func encodeR(rs, rt, rd, shift, funct uint32) uint32 {
	return rs<<21 | rt<<16 | rd<<11 | shift<<6 | funct
}

const opNOP = 0

func TestR0ReadsZeroAfterWrite(t *testing.T) {
	// ORI $0, $0, 0x1234 must leave r0 at zero.
	c, _ := newTestCPU(t, encodeI(0x0d, 0, 0, 0x1234))
	step(t, c, 1)
	assert.Equal(t, uint32(0), c.Reg(0))
}

func TestR0ReadsZeroAfterLoadDelayCommit(t *testing.T) {
	// LW $0, 0($2) followed by a NOP: the delayed load commits into
	// r0 and must be discarded.
	c, bus := newTestCPU(t,
		encodeI(0x23, 2, 0, 0), // lw $0, 0($2)
		opNOP,
	)
	bus.Write32(0x1000, 0xcafebabe)
	c.SetReg(2, 0x1000)

	step(t, c, 2)
	assert.Equal(t, uint32(0), c.Reg(0))
}

func TestLoadDelaySlot(t *testing.T) {
	c, bus := newTestCPU(t,
		encodeI(0x23, 2, 3, 0), // lw $3, 0($2)
		opNOP,
	)
	bus.Write32(0x1000, 0x12345678)
	c.SetReg(2, 0x1000)

	step(t, c, 1)
	assert.Equal(t, uint32(0), c.Reg(3), "value must not be visible in the load's own step")

	step(t, c, 1)
	assert.Equal(t, uint32(0x12345678), c.Reg(3), "value becomes visible one instruction later")
}

func TestBackToBackLoadsSameRegister(t *testing.T) {
	c, bus := newTestCPU(t,
		encodeI(0x23, 2, 3, 0), // lw $3, 0($2)
		encodeI(0x23, 2, 3, 4), // lw $3, 4($2)
		opNOP,
	)
	bus.Write32(0x1000, 0x11111111)
	bus.Write32(0x1004, 0x22222222)
	c.SetReg(2, 0x1000)

	step(t, c, 3)
	assert.Equal(t, uint32(0x22222222), c.Reg(3), "the later load supersedes the earlier")
}

func TestDelaySlotSeesPreLoadValue(t *testing.T) {
	// The instruction in the load-delay slot still reads the old $3.
	c, bus := newTestCPU(t,
		encodeI(0x23, 2, 3, 0),          // lw $3, 0($2)
		encodeR(3, 0, 4, 0, 0x25),       // or $4, $3, $0  (delay slot: old $3)
		encodeR(3, 0, 5, 0, 0x25),       // or $5, $3, $0  (new $3)
	)
	bus.Write32(0x1000, 0xdeadbeef)
	c.SetReg(2, 0x1000)
	c.SetReg(3, 0x55)

	step(t, c, 3)
	assert.Equal(t, uint32(0x55), c.Reg(4))
	assert.Equal(t, uint32(0xdeadbeef), c.Reg(5))
}

func TestBranchDelaySlotExecutes(t *testing.T) {
	c, _ := newTestCPU(t,
		encodeI(0x04, 0, 0, 2),      // beq $0, $0, +2
		encodeI(0x0d, 0, 1, 0x1111), // ori $1, $0, 0x1111  (delay slot, executes)
		encodeI(0x0d, 0, 2, 0x2222), // ori $2, $0, 0x2222  (branched over)
		encodeI(0x0d, 0, 3, 0x3333), // ori $3, $0, 0x3333  (branch target)
	)

	step(t, c, 3)
	assert.Equal(t, uint32(0x1111), c.Reg(1))
	assert.Equal(t, uint32(0), c.Reg(2), "instruction after the delay slot is skipped")
	assert.Equal(t, uint32(0x3333), c.Reg(3))
}

func TestJALLinksPastDelaySlot(t *testing.T) {
	target := uint32(resetVector + 0x100)
	c, _ := newTestCPU(t,
		3<<26|(target>>2)&0x03ffffff, // jal target
		opNOP,
	)

	step(t, c, 1)
	assert.Equal(t, uint32(resetVector+8), c.Reg(31), "ra holds the address after the delay slot")

	step(t, c, 1)
	assert.Equal(t, target, c.PC())
}

func TestAddOverflowRaisesBeforeWrite(t *testing.T) {
	c, _ := newTestCPU(t,
		encodeR(1, 2, 3, 0, 0x20), // add $3, $1, $2
	)
	c.SetReg(1, 0x7fffffff)
	c.SetReg(2, 1)
	c.SetReg(3, 0x99)

	step(t, c, 1)

	assert.Equal(t, uint32(0x99), c.Reg(3), "destination untouched on overflow")
	assert.Equal(t, uint32(ExcOverflow), c.State().Cop0.Cause>>2&0x1f)
	assert.Equal(t, uint32(0xbfc00180), c.PC(), "BEV=1 routes to the ROM vector")
}

func TestMFC0CauseExposesExceptionCode(t *testing.T) {
	c, bus := newTestCPU(t,
		encodeR(1, 2, 3, 0, 0x20), // add $3, $1, $2 (overflows)
	)
	// Handler at the exception vector reads Cause back the way guest
	// code does.
	bus.Write32(0xbfc00180, encodeI(0x10, 0, 4, 13<<11)) // mfc0 $4, $13
	bus.Write32(0xbfc00184, opNOP)
	c.SetReg(1, 0x7fffffff)
	c.SetReg(2, 1)

	step(t, c, 3)

	assert.Equal(t, uint32(ExcOverflow), c.Reg(4)>>2&0x1f, "guest-visible Excode field")
}

func TestMisalignedLoadRaisesAddressError(t *testing.T) {
	c, _ := newTestCPU(t,
		encodeI(0x23, 2, 3, 0), // lw $3, 0($2)
	)
	c.SetReg(2, 0x1002)

	step(t, c, 1)

	s := c.State()
	assert.Equal(t, uint32(ExcAddrLoad), s.Cop0.Cause>>2&0x1f)
	assert.Equal(t, uint32(0x1002), s.Cop0.BadVAddr)
	assert.Equal(t, uint32(0), c.Reg(3))
}

func TestSyscallAndRFERestoreInterruptStack(t *testing.T) {
	c, bus := newTestCPU(t,
		encodeI(0x10, 4, 1, 12<<11), // mtc0 $1, $12
		0x0000000c,                  // syscall
	)
	// RFE at the exception vector (the mtc0 clears BEV, so the RAM vector).
	bus.Write32(0x80000080, 0x10<<26|1<<25|0x10)
	c.SetReg(1, 0x00000001) // IEc=1

	step(t, c, 2)
	s := c.State()
	require.Equal(t, uint32(ExcSyscall), s.Cop0.Cause>>2&0x1f)
	assert.Equal(t, uint32(0x04), s.Cop0.Status&0x3f, "IE/KU stack pushed one level")
	assert.Equal(t, uint32(resetVector+4), s.Cop0.EPC)

	step(t, c, 1) // rfe
	assert.Equal(t, uint32(0x01), c.State().Cop0.Status&0x3f, "RFE pops the stack")
}

func TestExceptionInBranchDelaySlot(t *testing.T) {
	c, _ := newTestCPU(t,
		encodeI(0x04, 0, 0, 2), // beq $0, $0, +2
		0x0000000c,             // syscall in the delay slot
	)

	step(t, c, 2)

	s := c.State()
	assert.NotZero(t, s.Cop0.Cause&(1<<31), "Cause.BD set")
	assert.Equal(t, uint32(resetVector), s.Cop0.EPC, "EPC points at the branch, not the slot")
}

func TestHardwareInterruptTakenAtInstructionBoundary(t *testing.T) {
	c, _ := newTestCPU(t,
		encodeI(0x10, 4, 1, 12<<11), // mtc0 $1, $12 (IEc=1, IM2=1)
		encodeI(0x0d, 0, 4, 0x4444), // ori $4 — pre-empted by the interrupt
	)
	c.SetReg(1, 0x00000401)
	c.SetHardwareInterrupt(true)

	step(t, c, 2)

	assert.Equal(t, uint32(0), c.Reg(4), "interrupted instruction did not execute")
	assert.Equal(t, uint32(ExcInterrupt), c.State().Cop0.Cause>>2&0x1f)
	assert.Equal(t, uint32(resetVector+4), c.State().Cop0.EPC)
}

func TestIsolateCacheSuppressesStores(t *testing.T) {
	c, bus := newTestCPU(t,
		encodeI(0x10, 4, 1, 12<<11), // mtc0 $1, $12 (isolate cache)
		encodeI(0x2b, 2, 3, 0),      // sw $3, 0($2)
	)
	c.SetReg(1, 1<<16)
	c.SetReg(2, 0x1000)
	c.SetReg(3, 0xdeadbeef)

	step(t, c, 2)
	assert.Equal(t, uint32(0), bus.Read32(0x1000), "store hit the isolated cache only")
}

func TestLWRMergesUnaligned(t *testing.T) {
	c, bus := newTestCPU(t,
		encodeI(0x26, 2, 3, 1), // lwr $3, 1($2)
		opNOP,
	)
	bus.Write32(0x1000, 0xaabbccdd)
	c.SetReg(2, 0x1000)
	c.SetReg(3, 0x11223344)

	step(t, c, 2)
	assert.Equal(t, uint32(0x11aabbcc), c.Reg(3))
}

func TestSWLMergesUnaligned(t *testing.T) {
	c, bus := newTestCPU(t,
		encodeI(0x2a, 2, 3, 2), // swl $3, 2($2)
	)
	bus.Write32(0x1000, 0xaabbccdd)
	c.SetReg(2, 0x1000)
	c.SetReg(3, 0x11223344)

	step(t, c, 1)
	assert.Equal(t, uint32(0xaa112233), bus.Read32(0x1000))
}

func TestCop1RaisesCoprocessorUnusable(t *testing.T) {
	c, _ := newTestCPU(t, 0x11<<26)

	step(t, c, 1)

	s := c.State()
	assert.Equal(t, uint32(ExcCopUnusable), s.Cop0.Cause>>2&0x1f)
	assert.Equal(t, uint32(1), s.Cop0.Cause>>28&0x3)
}

func TestMisalignedPCRaisesAddressLoad(t *testing.T) {
	c, _ := newTestCPU(t)
	s := c.State()
	s.PC = 0xbfc00002
	s.NextPC = 0xbfc00006
	c.SetState(s)

	require.NoError(t, c.Step())
	s = c.State()
	assert.Equal(t, uint32(ExcAddrLoad), s.Cop0.Cause>>2&0x1f)
	assert.Equal(t, uint32(0xbfc00002), s.Cop0.BadVAddr)
}
