package cpu

// Cop0State is an exported snapshot of the COP0 system-control
// registers, used by internal/system's save-state support.
type Cop0State struct {
	Status   uint32
	Cause    uint32
	EPC      uint32
	BadVAddr uint32
	BPC      uint32
	BDA      uint32
	Jumpdest uint32
	DCIC     uint32
	BDAM     uint32
	BPCM     uint32
}

// State returns a snapshot of the COP0 registers.
func (c *Cop0) State() Cop0State {
	return Cop0State{
		Status:   c.status,
		Cause:    c.cause,
		EPC:      c.epc,
		BadVAddr: c.badVAddr,
		BPC:      c.bpc,
		BDA:      c.bda,
		Jumpdest: c.jumpdest,
		DCIC:     c.dcic,
		BDAM:     c.bdam,
		BPCM:     c.bpcm,
	}
}

// SetState restores a previously captured COP0 snapshot.
func (c *Cop0) SetState(s Cop0State) {
	c.status = s.Status
	c.cause = s.Cause
	c.epc = s.EPC
	c.badVAddr = s.BadVAddr
	c.bpc = s.BPC
	c.bda = s.BDA
	c.jumpdest = s.Jumpdest
	c.dcic = s.DCIC
	c.bdam = s.BDAM
	c.bpcm = s.BPCM
}

// State is an exported snapshot of the interpreter's architectural and
// pipeline state (registers, HI/LO, the load-delay slot, and the
// branch-delay flags), used by internal/system's save-state support.
type State struct {
	Regs [32]uint32

	PC        uint32
	NextPC    uint32
	CurrentPC uint32

	HI, LO uint32

	PendingLoadReg   uint32
	PendingLoadValue uint32

	BranchTaken bool
	BranchDelay bool

	Cop0 Cop0State
}

// State returns a snapshot of the CPU's own state (not the bus/GTE/
// logger it's wired to, which the owning System reattaches on restore).
func (c *CPU) State() State {
	return State{
		Regs:             c.regs,
		PC:               c.pc,
		NextPC:           c.nextPC,
		CurrentPC:        c.currentPC,
		HI:               c.hi,
		LO:               c.lo,
		PendingLoadReg:   c.pendingLoad.reg,
		PendingLoadValue: c.pendingLoad.value,
		BranchTaken:      c.branchTaken,
		BranchDelay:      c.branchDelay,
		Cop0:             c.cop0.State(),
	}
}

// SetState restores a previously captured CPU snapshot.
func (c *CPU) SetState(s State) {
	c.regs = s.Regs
	c.pc = s.PC
	c.nextPC = s.NextPC
	c.currentPC = s.CurrentPC
	c.hi = s.HI
	c.lo = s.LO
	c.pendingLoad = loadSlot{reg: s.PendingLoadReg, value: s.PendingLoadValue}
	c.branchTaken = s.BranchTaken
	c.branchDelay = s.BranchDelay
	c.cop0.SetState(s.Cop0)
}
