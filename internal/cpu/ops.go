package cpu

// execute decodes and runs one MIPS-I instruction word. Each op_*
// helper below follows the reference ordering: read source operands
// first (seeing the pre-commit register file, which is what makes
// load-delay work), commit the previous instruction's pending load,
// then either write the result immediately or schedule it as this
// instruction's own load-delay slot.
func (c *CPU) execute(instr uint32) error {
	opcode := instr >> 26
	rs := (instr >> 21) & 0x1f
	rt := (instr >> 16) & 0x1f
	rd := (instr >> 11) & 0x1f
	shift := (instr >> 6) & 0x1f
	funct := instr & 0x3f
	imm16 := instr & 0xffff
	simm := signExtend16(uint16(imm16))
	target := instr & 0x03ffffff

	switch opcode {
	case 0x00:
		switch funct {
		case 0x00:
			c.opSLL(rd, rt, shift)
		case 0x02:
			c.opSRL(rd, rt, shift)
		case 0x03:
			c.opSRA(rd, rt, shift)
		case 0x04:
			c.opSLLV(rd, rt, rs)
		case 0x06:
			c.opSRLV(rd, rt, rs)
		case 0x07:
			c.opSRAV(rd, rt, rs)
		case 0x08:
			c.opJR(rs)
		case 0x09:
			c.opJALR(rd, rs)
		case 0x0c:
			c.opSyscall()
		case 0x0d:
			c.opBreak()
		case 0x10:
			c.opMFHI(rd)
		case 0x11:
			c.opMTHI(rs)
		case 0x12:
			c.opMFLO(rd)
		case 0x13:
			c.opMTLO(rs)
		case 0x18:
			c.opMULT(rs, rt)
		case 0x19:
			c.opMULTU(rs, rt)
		case 0x1a:
			c.opDIV(rs, rt)
		case 0x1b:
			c.opDIVU(rs, rt)
		case 0x20:
			c.opADD(rd, rs, rt)
		case 0x21:
			c.opADDU(rd, rs, rt)
		case 0x22:
			c.opSUB(rd, rs, rt)
		case 0x23:
			c.opSUBU(rd, rs, rt)
		case 0x24:
			c.opAND(rd, rs, rt)
		case 0x25:
			c.opOR(rd, rs, rt)
		case 0x26:
			c.opXOR(rd, rs, rt)
		case 0x27:
			c.opNOR(rd, rs, rt)
		case 0x2a:
			c.opSLT(rd, rs, rt)
		case 0x2b:
			c.opSLTU(rd, rs, rt)
		default:
			return c.unknown(instr)
		}
	case 0x01:
		switch rt {
		case 0x00:
			c.opBLTZ(rs, simm)
		case 0x01:
			c.opBGEZ(rs, simm)
		case 0x10:
			c.opBLTZAL(rs, simm)
		case 0x11:
			c.opBGEZAL(rs, simm)
		default:
			c.opBLTZ(rs, simm) // unlisted bcondz encodings alias bltz on real hardware
		}
	case 0x02:
		c.opJ(target)
	case 0x03:
		c.opJAL(target)
	case 0x04:
		c.opBEQ(rs, rt, simm)
	case 0x05:
		c.opBNE(rs, rt, simm)
	case 0x06:
		c.opBLEZ(rs, simm)
	case 0x07:
		c.opBGTZ(rs, simm)
	case 0x08:
		c.opADDI(rt, rs, simm)
	case 0x09:
		c.opADDIU(rt, rs, simm)
	case 0x0a:
		c.opSLTI(rt, rs, simm)
	case 0x0b:
		c.opSLTIU(rt, rs, simm)
	case 0x0c:
		c.opANDI(rt, rs, imm16)
	case 0x0d:
		c.opORI(rt, rs, imm16)
	case 0x0e:
		c.opXORI(rt, rs, imm16)
	case 0x0f:
		c.opLUI(rt, imm16)
	case 0x10:
		return c.execCop0(instr, rs, rt, rd)
	case 0x12:
		return c.execCop2(instr, rs, rt, rd, funct)
	case 0x11, 0x13:
		c.commitLoad()
		c.raiseCop(ExcCopUnusable, opcode&0x3)
	case 0x20:
		c.opLB(rt, rs, simm)
	case 0x21:
		c.opLH(rt, rs, simm)
	case 0x22:
		c.opLWL(rt, rs, simm)
	case 0x23:
		c.opLW(rt, rs, simm)
	case 0x24:
		c.opLBU(rt, rs, simm)
	case 0x25:
		c.opLHU(rt, rs, simm)
	case 0x26:
		c.opLWR(rt, rs, simm)
	case 0x28:
		c.opSB(rt, rs, simm)
	case 0x29:
		c.opSH(rt, rs, simm)
	case 0x2a:
		c.opSWL(rt, rs, simm)
	case 0x2b:
		c.opSW(rt, rs, simm)
	case 0x2e:
		c.opSWR(rt, rs, simm)
	case 0x32: // LWC2
		addr := c.Reg(rs) + simm
		c.commitLoad()
		if v, ok := c.load32(addr); ok && c.gte != nil {
			c.gte.WriteData(rt, v)
		}
	case 0x3a: // SWC2
		addr := c.Reg(rs) + simm
		c.commitLoad()
		if c.gte != nil {
			c.store32(addr, c.gte.ReadData(rt))
		}
	case 0x30, 0x31, 0x33, 0x38, 0x39, 0x3b:
		// LWC0-3/SWC0-3 other than COP2: unimplemented, treated as NOP.
		c.commitLoad()
	default:
		return c.unknown(instr)
	}

	return nil
}

func (c *CPU) unknown(instr uint32) error {
	return &Error{PC: c.currentPC, Msg: "unknown instruction " + hex32(instr)}
}

func signExtend16(v uint16) uint32 {
	return uint32(int32(int16(v)))
}

// --- shifts ---

func (c *CPU) opSLL(rd, rt, shift uint32) {
	v := c.Reg(rt) << shift
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opSRL(rd, rt, shift uint32) {
	v := c.Reg(rt) >> shift
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opSRA(rd, rt, shift uint32) {
	v := uint32(int32(c.Reg(rt)) >> shift)
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opSLLV(rd, rt, rs uint32) {
	v := c.Reg(rt) << (c.Reg(rs) & 0x1f)
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opSRLV(rd, rt, rs uint32) {
	v := c.Reg(rt) >> (c.Reg(rs) & 0x1f)
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opSRAV(rd, rt, rs uint32) {
	v := uint32(int32(c.Reg(rt)) >> (c.Reg(rs) & 0x1f))
	c.commitLoad()
	c.SetReg(rd, v)
}

// --- jumps / links ---

func (c *CPU) opJR(rs uint32) {
	c.branchTaken = true
	c.nextPC = c.Reg(rs)
	c.commitLoad()
}

func (c *CPU) opJALR(rd, rs uint32) {
	link := c.pc + 4
	c.branchTaken = true
	c.nextPC = c.Reg(rs)
	c.commitLoad()
	c.SetReg(rd, link)
}

func (c *CPU) opJ(target uint32) {
	c.branchTaken = true
	c.nextPC = (c.pc & 0xf0000000) | (target << 2)
	c.commitLoad()
}

func (c *CPU) opJAL(target uint32) {
	link := c.pc + 4
	c.branchTaken = true
	c.nextPC = (c.pc & 0xf0000000) | (target << 2)
	c.commitLoad()
	c.SetReg(31, link)
}

// --- conditional branches ---

func (c *CPU) opBEQ(rs, rt, offset uint32) {
	take := c.Reg(rs) == c.Reg(rt)
	c.commitLoad()
	if take {
		c.branch(offset)
	}
}

func (c *CPU) opBNE(rs, rt, offset uint32) {
	take := c.Reg(rs) != c.Reg(rt)
	c.commitLoad()
	if take {
		c.branch(offset)
	}
}

func (c *CPU) opBLEZ(rs, offset uint32) {
	take := int32(c.Reg(rs)) <= 0
	c.commitLoad()
	if take {
		c.branch(offset)
	}
}

func (c *CPU) opBGTZ(rs, offset uint32) {
	take := int32(c.Reg(rs)) > 0
	c.commitLoad()
	if take {
		c.branch(offset)
	}
}

func (c *CPU) opBLTZ(rs, offset uint32) {
	take := int32(c.Reg(rs)) < 0
	c.commitLoad()
	if take {
		c.branch(offset)
	}
}

func (c *CPU) opBGEZ(rs, offset uint32) {
	take := int32(c.Reg(rs)) >= 0
	c.commitLoad()
	if take {
		c.branch(offset)
	}
}

func (c *CPU) opBLTZAL(rs, offset uint32) {
	link := c.pc + 4
	take := int32(c.Reg(rs)) < 0
	c.commitLoad()
	c.SetReg(31, link)
	if take {
		c.branch(offset)
	}
}

func (c *CPU) opBGEZAL(rs, offset uint32) {
	link := c.pc + 4
	take := int32(c.Reg(rs)) >= 0
	c.commitLoad()
	c.SetReg(31, link)
	if take {
		c.branch(offset)
	}
}

// --- syscall / break ---

func (c *CPU) opSyscall() {
	c.commitLoad()
	c.raise(ExcSyscall)
}

func (c *CPU) opBreak() {
	c.commitLoad()
	c.raise(ExcBreakpoint)
}

// --- hi/lo ---

func (c *CPU) opMFHI(rd uint32) {
	v := c.hi
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opMTHI(rs uint32) {
	c.hi = c.Reg(rs)
	c.commitLoad()
}

func (c *CPU) opMFLO(rd uint32) {
	v := c.lo
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opMTLO(rs uint32) {
	c.lo = c.Reg(rs)
	c.commitLoad()
}

func (c *CPU) opMULT(rs, rt uint32) {
	a := int64(int32(c.Reg(rs)))
	b := int64(int32(c.Reg(rt)))
	r := uint64(a * b)
	c.hi = uint32(r >> 32)
	c.lo = uint32(r)
	c.commitLoad()
}

func (c *CPU) opMULTU(rs, rt uint32) {
	r := uint64(c.Reg(rs)) * uint64(c.Reg(rt))
	c.hi = uint32(r >> 32)
	c.lo = uint32(r)
	c.commitLoad()
}

func (c *CPU) opDIV(rs, rt uint32) {
	n := int32(c.Reg(rs))
	d := int32(c.Reg(rt))

	switch {
	case d == 0:
		c.hi = uint32(n)
		if n >= 0 {
			c.lo = 0xffffffff
		} else {
			c.lo = 1
		}
	case uint32(n) == 0x80000000 && uint32(d) == 0xffffffff:
		c.hi = 0
		c.lo = 0x80000000
	default:
		c.hi = uint32(n % d)
		c.lo = uint32(n / d)
	}
	c.commitLoad()
}

func (c *CPU) opDIVU(rs, rt uint32) {
	n := c.Reg(rs)
	d := c.Reg(rt)

	if d == 0 {
		c.hi = n
		c.lo = 0xffffffff
	} else {
		c.hi = n % d
		c.lo = n / d
	}
	c.commitLoad()
}

// --- ALU register-register ---

func (c *CPU) opADD(rd, rs, rt uint32) {
	a := c.Reg(rs)
	b := c.Reg(rt)
	c.commitLoad()

	r := a + b
	if overflowAdd(a, b, r) {
		c.raise(ExcOverflow)
		return
	}
	c.SetReg(rd, r)
}

func (c *CPU) opADDU(rd, rs, rt uint32) {
	v := c.Reg(rs) + c.Reg(rt)
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opSUB(rd, rs, rt uint32) {
	a := c.Reg(rs)
	b := c.Reg(rt)
	c.commitLoad()

	r := a - b
	if overflowSub(a, b, r) {
		c.raise(ExcOverflow)
		return
	}
	c.SetReg(rd, r)
}

func (c *CPU) opSUBU(rd, rs, rt uint32) {
	v := c.Reg(rs) - c.Reg(rt)
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opAND(rd, rs, rt uint32) {
	v := c.Reg(rs) & c.Reg(rt)
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opOR(rd, rs, rt uint32) {
	v := c.Reg(rs) | c.Reg(rt)
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opXOR(rd, rs, rt uint32) {
	v := c.Reg(rs) ^ c.Reg(rt)
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opNOR(rd, rs, rt uint32) {
	v := ^(c.Reg(rs) | c.Reg(rt))
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opSLT(rd, rs, rt uint32) {
	v := boolToU32(int32(c.Reg(rs)) < int32(c.Reg(rt)))
	c.commitLoad()
	c.SetReg(rd, v)
}

func (c *CPU) opSLTU(rd, rs, rt uint32) {
	v := boolToU32(c.Reg(rs) < c.Reg(rt))
	c.commitLoad()
	c.SetReg(rd, v)
}

// --- ALU immediate ---

func (c *CPU) opADDI(rt, rs, imm uint32) {
	a := c.Reg(rs)
	c.commitLoad()

	r := a + imm
	if overflowAdd(a, imm, r) {
		c.raise(ExcOverflow)
		return
	}
	c.SetReg(rt, r)
}

func (c *CPU) opADDIU(rt, rs, imm uint32) {
	v := c.Reg(rs) + imm
	c.commitLoad()
	c.SetReg(rt, v)
}

func (c *CPU) opSLTI(rt, rs, imm uint32) {
	v := boolToU32(int32(c.Reg(rs)) < int32(imm))
	c.commitLoad()
	c.SetReg(rt, v)
}

func (c *CPU) opSLTIU(rt, rs, imm uint32) {
	v := boolToU32(c.Reg(rs) < imm)
	c.commitLoad()
	c.SetReg(rt, v)
}

func (c *CPU) opANDI(rt, rs, imm uint32) {
	v := c.Reg(rs) & imm
	c.commitLoad()
	c.SetReg(rt, v)
}

func (c *CPU) opORI(rt, rs, imm uint32) {
	v := c.Reg(rs) | imm
	c.commitLoad()
	c.SetReg(rt, v)
}

func (c *CPU) opXORI(rt, rs, imm uint32) {
	v := c.Reg(rs) ^ imm
	c.commitLoad()
	c.SetReg(rt, v)
}

func (c *CPU) opLUI(rt, imm uint32) {
	c.commitLoad()
	c.SetReg(rt, imm<<16)
}

// --- loads ---

func (c *CPU) opLB(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	c.commitLoad()
	v := uint32(int32(int8(c.load8(addr))))
	c.setLoadDelay(rt, v)
}

func (c *CPU) opLBU(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	c.commitLoad()
	v := uint32(c.load8(addr))
	c.setLoadDelay(rt, v)
}

func (c *CPU) opLH(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	c.commitLoad()
	v, ok := c.load16(addr)
	if !ok {
		return
	}
	c.setLoadDelay(rt, uint32(int32(int16(v))))
}

func (c *CPU) opLHU(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	c.commitLoad()
	v, ok := c.load16(addr)
	if !ok {
		return
	}
	c.setLoadDelay(rt, uint32(v))
}

func (c *CPU) opLW(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	c.commitLoad()
	v, ok := c.load32(addr)
	if !ok {
		return
	}
	c.setLoadDelay(rt, v)
}

func (c *CPU) opLWL(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	c.commitLoad()

	current := c.Reg(rt)
	aligned, _ := c.load32(addr &^ 3)

	var v uint32
	switch addr & 3 {
	case 0:
		v = (current & 0x00ffffff) | (aligned << 24)
	case 1:
		v = (current & 0x0000ffff) | (aligned << 16)
	case 2:
		v = (current & 0x000000ff) | (aligned << 8)
	case 3:
		v = aligned
	}
	c.setLoadDelay(rt, v)
}

func (c *CPU) opLWR(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	c.commitLoad()

	current := c.Reg(rt)
	aligned, _ := c.load32(addr &^ 3)

	var v uint32
	switch addr & 3 {
	case 0:
		v = aligned
	case 1:
		v = (current & 0xff000000) | (aligned >> 8)
	case 2:
		v = (current & 0xffff0000) | (aligned >> 16)
	case 3:
		v = (current & 0xffffff00) | (aligned >> 24)
	}
	c.setLoadDelay(rt, v)
}

// --- stores ---

func (c *CPU) opSB(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	v := c.Reg(rt)
	c.commitLoad()
	c.store8(addr, uint8(v))
}

func (c *CPU) opSH(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	v := c.Reg(rt)
	c.commitLoad()
	c.store16(addr, uint16(v))
}

func (c *CPU) opSW(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	v := c.Reg(rt)
	c.commitLoad()
	c.store32(addr, v)
}

func (c *CPU) opSWL(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	value := c.Reg(rt)
	c.commitLoad()

	aligned, ok := c.load32(addr &^ 3)
	if !ok {
		return
	}

	var v uint32
	switch addr & 3 {
	case 0:
		v = (aligned & 0xffffff00) | (value >> 24)
	case 1:
		v = (aligned & 0xffff0000) | (value >> 16)
	case 2:
		v = (aligned & 0xff000000) | (value >> 8)
	case 3:
		v = value
	}
	c.store32(addr&^3, v)
}

func (c *CPU) opSWR(rt, rs, offset uint32) {
	addr := c.Reg(rs) + offset
	value := c.Reg(rt)
	c.commitLoad()

	aligned, ok := c.load32(addr &^ 3)
	if !ok {
		return
	}

	var v uint32
	switch addr & 3 {
	case 0:
		v = value
	case 1:
		v = (aligned & 0x000000ff) | (value << 8)
	case 2:
		v = (aligned & 0x0000ffff) | (value << 16)
	case 3:
		v = (aligned & 0x00ffffff) | (value << 24)
	}
	c.store32(addr&^3, v)
}

func overflowAdd(a, b, r uint32) bool {
	return (a^r)&(b^r)&0x80000000 != 0
}

func overflowSub(a, b, r uint32) bool {
	return (a^b)&(a^r)&0x80000000 != 0
}

func boolToU32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func hex32(v uint32) string {
	const digits = "0123456789abcdef"
	b := make([]byte, 10)
	b[0], b[1] = '0', 'x'
	for i := 0; i < 8; i++ {
		b[9-i] = digits[v&0xf]
		v >>= 4
	}
	return string(b)
}
