// cpu_8088_string.go - String operations and the REP state machine
//
// One call to the execute engine runs one iteration of a REP-prefixed
// string op; the OkayRep result tells the outer loop to come back
// without decoding. CX is tested at the prefix (a REP with CX=0 skips
// the body entirely), the Z condition is tested after the body for
// CMPS/SCAS, and a pending interrupt exits through RPTI with IP still
// at the prefix so the whole thing resumes after IRET.
//
// The destination operand of MOVS/STOS/SCAS is always ES:DI; only the
// DS:SI source honors a segment override.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

// stringDelta returns the per-iteration pointer adjustment for the
// direction flag: +n with DF clear, -n with DF set.
func (c *CPU8088) stringDelta(width uint16) uint16 {
	if c.getFlag(cpuFlagDF) {
		return -width
	}
	return width
}

// stringOp executes one string-op body: the loads/stores and the
// SI/DI adjustments, without any loop control.
func (c *CPU8088) stringOp(mnemonic Mnemonic, override SegmentOverride) {
	srcSeg := segmentOverrideDefault(override, SegDS)

	switch mnemonic {
	case MnMOVSB:
		v := c.biuReadU8(srcSeg, c.calcLinearAddressSeg(srcSeg, c.SI))
		c.cycles(2)
		c.biuWriteU8(SegES, calcLinearAddress(c.ES, c.DI), v, rwNormal)
		d := c.stringDelta(1)
		c.SI += d
		c.DI += d
	case MnMOVSW:
		v := c.biuReadU16(srcSeg, c.calcLinearAddressSeg(srcSeg, c.SI), rwNormal)
		c.cycles(2)
		c.biuWriteU16(SegES, calcLinearAddress(c.ES, c.DI), v, rwNormal)
		d := c.stringDelta(2)
		c.SI += d
		c.DI += d
	case MnCMPSB:
		src := c.biuReadU8(srcSeg, c.calcLinearAddressSeg(srcSeg, c.SI))
		dst := c.biuReadU8(SegES, calcLinearAddress(c.ES, c.DI))
		c.cycles(3)
		c.mathOp8(MnCMP, src, dst)
		d := c.stringDelta(1)
		c.SI += d
		c.DI += d
	case MnCMPSW:
		src := c.biuReadU16(srcSeg, c.calcLinearAddressSeg(srcSeg, c.SI), rwNormal)
		dst := c.biuReadU16(SegES, calcLinearAddress(c.ES, c.DI), rwNormal)
		c.cycles(3)
		c.mathOp16(MnCMP, src, dst)
		d := c.stringDelta(2)
		c.SI += d
		c.DI += d
	case MnSTOSB:
		c.cycle()
		c.biuWriteU8(SegES, calcLinearAddress(c.ES, c.DI), c.AL(), rwNormal)
		c.DI += c.stringDelta(1)
	case MnSTOSW:
		c.cycle()
		c.biuWriteU16(SegES, calcLinearAddress(c.ES, c.DI), c.AX, rwNormal)
		c.DI += c.stringDelta(2)
	case MnLODSB:
		v := c.biuReadU8(srcSeg, c.calcLinearAddressSeg(srcSeg, c.SI))
		c.SetAL(v)
		c.SI += c.stringDelta(1)
	case MnLODSW:
		v := c.biuReadU16(srcSeg, c.calcLinearAddressSeg(srcSeg, c.SI), rwNormal)
		c.AX = v
		c.SI += c.stringDelta(2)
	case MnSCASB:
		dst := c.biuReadU8(SegES, calcLinearAddress(c.ES, c.DI))
		c.cycles(2)
		c.mathOp8(MnCMP, c.AL(), dst)
		c.DI += c.stringDelta(1)
	case MnSCASW:
		dst := c.biuReadU16(SegES, calcLinearAddress(c.ES, c.DI), rwNormal)
		c.cycles(2)
		c.mathOp16(MnCMP, c.AX, dst)
		c.DI += c.stringDelta(2)
	}
}

// repStart gates entry into a string-op body. On the first iteration
// of a REP (RPTS) it spends the setup cycles and, when CX is already
// zero, skips the body entirely. Returns false when the body must not
// run.
func (c *CPU8088) repStart() bool {
	if c.inRep && !c.repInit {
		// RPTS: repeat setup, first iteration only.
		c.cyclesI(2, []uint16{mcJump, 0x112})
		if c.CX == 0 {
			c.cycle()
			c.repEnd()
			return false
		}
	}
	return true
}

// repEnd terminates a REP normally: the next instruction decodes
// fresh and IP advances past prefix and opcode.
func (c *CPU8088) repEnd() {
	c.inRep = false
	c.repInit = false
	c.repType = RepNone
}

// repInterrupt exits a REP through RPTI: the string op ends without
// advancing IP, so the return address pushed by the interrupt points
// back at the REP prefix and the loop resumes after IRET with CX, SI
// and DI wherever the interrupted iteration left them.
func (c *CPU8088) repInterrupt() {
	c.cycles(2)
	c.inRep = false
	c.repInit = false
	c.repType = RepNone
	// Suppress the epilogue's IP advance: the interrupt must return
	// to the prefix, not past the instruction.
	c.repInterrupted = true
}
