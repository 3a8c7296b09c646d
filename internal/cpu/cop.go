package cpu

// execCop0 dispatches MFC0/MTC0/RFE (the only COP0 instructions the
// R3000A recognizes on the data path; the rest of register access
// happens through Cop0.Read/Write directly).
func (c *CPU) execCop0(instr, rs, rt, rd uint32) error {
	switch rs {
	case 0x00: // MFC0
		v := c.cop0.Read(rd)
		c.commitLoad()
		c.setLoadDelay(rt, v)
	case 0x04: // MTC0
		v := c.Reg(rt)
		c.commitLoad()
		c.cop0.Write(rd, v)
	case 0x10: // RFE (and other CO-format ops; only RFE is implemented)
		if instr&0x3f == 0x10 {
			c.commitLoad()
			c.cop0.LeaveException()
		} else {
			c.commitLoad()
		}
	default:
		c.commitLoad()
		c.raiseCop(ExcCopUnusable, 0)
	}
	return nil
}

// execCop2 dispatches GTE register moves and commands. If no GTE is
// wired, COP2 instructions raise CopUnusable per the spec's "COP1/
// COP3 raise Coprocessor-Unusable" rule generalized to "no COP2
// present".
func (c *CPU) execCop2(instr, rs, rt, rd, funct uint32) error {
	if c.gte == nil {
		c.commitLoad()
		c.raiseCop(ExcCopUnusable, 2)
		return nil
	}

	if instr&(1<<25) != 0 {
		// COP2 command (bit 25 set): the 20-bit field below selects
		// the GTE opcode; the GTE interprets the whole word.
		c.commitLoad()
		c.gte.Command(instr)
		return nil
	}

	switch rs {
	case 0x00: // MFC2
		v := c.gte.ReadData(rd)
		c.commitLoad()
		c.setLoadDelay(rt, v)
	case 0x02: // CFC2
		v := c.gte.ReadControl(rd)
		c.commitLoad()
		c.setLoadDelay(rt, v)
	case 0x04: // MTC2
		v := c.Reg(rt)
		c.commitLoad()
		c.gte.WriteData(rd, v)
	case 0x06: // CTC2
		v := c.Reg(rt)
		c.commitLoad()
		c.gte.WriteControl(rd, v)
	case 0x08: // BC2F/BC2T: GTE has no condition-line output on this
		// hardware revision; treated as never-taken per original source.
		c.commitLoad()
	default:
		c.commitLoad()
	}
	return nil
}
