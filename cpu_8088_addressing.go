// cpu_8088_addressing.go - Effective address computation and operand access
//
// The eight r/m forms with their mod=00/01/10 variants, the default-
// segment rule (SS for anything containing BP, DS otherwise) and the
// per-form EA cycle costs. Operand reads and writes route memory forms
// through the BIU and register forms through the register file.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

// eaBaseCycles is the EA-compute cost of each r/m form with mod=00.
// Forms with a displacement (mod=01/10, and the mod=00 disp16 form
// which is already priced here) cost four more T-states.
var eaBaseCycles = [8]int{
	7, // [BX+SI]
	8, // [BX+DI]
	8, // [BP+SI]
	7, // [BP+DI]
	5, // [SI]
	5, // [DI]
	6, // [BP] / disp16
	5, // [BX]
}

// calcEffectiveAddress resolves an addressing mode against the current
// register file, spends the form's EA cycles, applies the default-
// segment rule and any override, and caches the offset in lastEA.
// Returns the selected segment's value, the segment, and the offset.
//
// The address adder runs once per instruction: a read-modify-write op
// reuses the EA computed for its read, so the cycles are charged only
// on the first call.
func (c *CPU8088) calcEffectiveAddress(mode AddressingMode, override SegmentOverride) (uint16, Segment, uint16) {
	if c.eaDone {
		return c.eaSegVal, c.eaSeg, c.eaOffset
	}
	var offset uint16
	seg := SegDS

	switch mode.RM {
	case 0:
		offset = c.BX + c.SI
	case 1:
		offset = c.BX + c.DI
	case 2:
		offset = c.BP + c.SI
		seg = SegSS
	case 3:
		offset = c.BP + c.DI
		seg = SegSS
	case 4:
		offset = c.SI
	case 5:
		offset = c.DI
	case 6:
		if mode.Mod == 0 {
			offset = mode.Disp
		} else {
			offset = c.BP
			seg = SegSS
		}
	case 7:
		offset = c.BX
	}

	cost := eaBaseCycles[mode.RM]
	if mode.Mod == 1 || mode.Mod == 2 {
		offset += mode.Disp
		cost += 4
	}
	c.cycles(cost)

	seg = segmentOverrideDefault(override, seg)
	c.lastEA = offset
	c.eaDone = true
	c.eaSegVal = c.getSegmentValue(seg)
	c.eaSeg = seg
	c.eaOffset = offset
	return c.eaSegVal, seg, offset
}

// loadEffectiveAddress returns the EA offset for a memory operand and
// false for a register operand. LEA with a register operand is
// undefined on the 8088; the caller substitutes the cached lastEA.
func (c *CPU8088) loadEffectiveAddress(op Operand) (uint16, bool) {
	if op.Kind != OperandMode {
		return 0, false
	}
	_, _, offset := c.calcEffectiveAddress(op.Mode, c.i.SegmentOverride)
	return offset, true
}

// -----------------------------------------------------------------------------
// Operand read/write
// -----------------------------------------------------------------------------

// readOperand8 returns the 8-bit value of a decoded operand. Memory
// forms compute their EA (spending its cycles) and read through the
// BIU; direct-offset forms read at DS:offset with override honored.
func (c *CPU8088) readOperand8(op Operand, override SegmentOverride) byte {
	switch op.Kind {
	case OperandReg8:
		return c.getRegister8(op.Reg8)
	case OperandImm8, OperandRel8:
		return byte(op.Imm)
	case OperandOffset8:
		seg := segmentOverrideDefault(override, SegDS)
		addr := c.calcLinearAddressSeg(seg, op.Offset)
		c.lastEA = op.Offset
		return c.biuReadU8(seg, addr)
	case OperandMode:
		segVal, seg, offset := c.calcEffectiveAddress(op.Mode, override)
		return c.biuReadU8(seg, calcLinearAddress(segVal, offset))
	}
	panic("readOperand8: bad operand kind")
}

// readOperand16 returns the 16-bit value of a decoded operand.
func (c *CPU8088) readOperand16(op Operand, override SegmentOverride) uint16 {
	switch op.Kind {
	case OperandReg16:
		return c.getRegister16(op.Reg16)
	case OperandSegReg:
		return c.getRegister16(op.SegReg)
	case OperandImm16, OperandRel16:
		return op.Imm
	case OperandImm8, OperandRel8:
		return op.Imm
	case OperandOffset16:
		seg := segmentOverrideDefault(override, SegDS)
		addr := c.calcLinearAddressSeg(seg, op.Offset)
		c.lastEA = op.Offset
		return c.biuReadU16(seg, addr, rwNormal)
	case OperandMode:
		segVal, seg, offset := c.calcEffectiveAddress(op.Mode, override)
		return c.biuReadU16(seg, calcLinearAddress(segVal, offset), rwNormal)
	}
	panic("readOperand16: bad operand kind")
}

// writeOperand8 stores an 8-bit value to a decoded operand.
func (c *CPU8088) writeOperand8(op Operand, override SegmentOverride, v byte, rw ReadWriteFlag) {
	switch op.Kind {
	case OperandReg8:
		c.setRegister8(op.Reg8, v)
	case OperandOffset8:
		seg := segmentOverrideDefault(override, SegDS)
		addr := c.calcLinearAddressSeg(seg, op.Offset)
		c.lastEA = op.Offset
		c.biuWriteU8(seg, addr, v, rw)
	case OperandMode:
		segVal, seg, offset := c.calcEffectiveAddress(op.Mode, override)
		c.biuWriteU8(seg, calcLinearAddress(segVal, offset), v, rw)
	default:
		panic("writeOperand8: bad operand kind")
	}
}

// writeOperand16 stores a 16-bit value to a decoded operand.
func (c *CPU8088) writeOperand16(op Operand, override SegmentOverride, v uint16, rw ReadWriteFlag) {
	switch op.Kind {
	case OperandReg16:
		c.setRegister16(op.Reg16, v)
	case OperandSegReg:
		c.setRegister16(op.SegReg, v)
		// Loading SS inhibits traps and interrupts for one
		// instruction so SS:SP can be set atomically.
		if op.SegReg == RegSegSS {
			c.trapSuppressed = true
			c.interruptInhibit = true
		}
	case OperandOffset16:
		seg := segmentOverrideDefault(override, SegDS)
		addr := c.calcLinearAddressSeg(seg, op.Offset)
		c.lastEA = op.Offset
		c.biuWriteU16(seg, addr, v, rw)
	case OperandMode:
		segVal, seg, offset := c.calcEffectiveAddress(op.Mode, override)
		c.biuWriteU16(seg, calcLinearAddress(segVal, offset), v, rw)
	default:
		panic("writeOperand16: bad operand kind")
	}
}

// readOperandFarPtr reads a 32-bit far pointer (offset, then segment)
// for LES/LDS and the Group 5 far forms. For the undocumented register
// forms the pointer is read at the last computed EA.
func (c *CPU8088) readOperandFarPtr(op Operand, override SegmentOverride, rw ReadWriteFlag) (uint16, uint16) {
	var segVal uint16
	var seg Segment
	var offset uint16
	if op.Kind == OperandMode {
		segVal, seg, offset = c.calcEffectiveAddress(op.Mode, override)
	} else {
		// Register operand: undefined form. The pointer is fetched
		// from wherever the address adder last pointed.
		seg = segmentOverrideDefault(override, SegDS)
		segVal = c.getSegmentValue(seg)
		offset = c.lastEA
	}
	ptrOffset := c.biuReadU16(seg, calcLinearAddress(segVal, offset), rwNormal)
	ptrSegment := c.biuReadU16(seg, calcLinearAddress(segVal, offset+2), rw)
	return ptrSegment, ptrOffset
}

// readOperandFarAddr consumes a direct 16:16 far address from the
// prefetch queue (CALLF 0x9A and JMPF 0xEA). Offset word first.
func (c *CPU8088) readOperandFarAddr() (uint16, uint16) {
	oLo := c.biuQueueRead()
	oHi := c.biuQueueRead()
	sLo := c.biuQueueRead()
	sHi := c.biuQueueRead()
	offset := uint16(oLo) | uint16(oHi)<<8
	segment := uint16(sLo) | uint16(sHi)<<8
	return segment, offset
}
