// cpu_8088_grp.go - Group opcode extensions
//
// Group 1 (0x80-0x83): ALU r/m,imm. Group 2 (0xD0-0xD3): rotate/shift
// by 1 or CL. Group 3 (0xF6/F7): TEST/NOT/NEG/MUL/IMUL/DIV/IDIV.
// Groups 4/5 (0xFE/FF): INC/DEC and the indirect CALL/JMP/PUSH forms.
//
// The 8-bit Group 4 control-transfer forms are undocumented and
// broken on real silicon: partial-byte pushes, FF00-masked targets and
// a pointless read from DS:0004 for register operands. The breakage is
// reproduced here because the bus traffic and cycle counts are
// observable.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

// execGrp1 handles 0x80-0x83: ALU r/m, imm. 0x82 aliases 0x80; 0x83
// sign-extends its imm8 against a 16-bit destination.
func (c *CPU8088) execGrp1() {
	op := c.i.Opcode
	switch op {
	case 0x80, 0x82:
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)

		c.cycleNx()
		result := c.mathOp8(c.i.Mnemonic, op1Value, op2Value)

		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x00e, 0x00f})
		}
		if c.i.Mnemonic != MnCMP {
			c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)
		}

	case 0x81:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)

		c.cycleNx()
		result := c.mathOp16(c.i.Mnemonic, op1Value, op2Value)

		if c.i.Operand1.Kind == OperandMode {
			if c.i.Mnemonic != MnCMP {
				c.cyclesI(2, []uint16{0x00e, 0x00f})
			} else {
				c.cyclesNxI(2, []uint16{0x00e, 0x00f})
			}
		}
		if c.i.Mnemonic != MnCMP {
			c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)
		}

	case 0x83:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)
		signExtended := uint16(int16(int8(op2Value)))

		result := c.mathOp16(c.i.Mnemonic, op1Value, signExtended)

		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x00e, 0x00f})
		}
		if c.i.Mnemonic != MnCMP {
			c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)
		}
	}
}

// execGrp2 handles 0xD0-0xD3: rotates and shifts. The by-CL forms do
// not mask the count; each iteration burns four T-states, so CL=255
// takes over a thousand cycles on real hardware and here.
func (c *CPU8088) execGrp2() {
	op := c.i.Opcode
	switch op {
	case 0xD0:
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		result := c.bitshiftOp8(c.i.Mnemonic, op1Value, 1)
		if c.i.Operand1.Kind == OperandMode {
			c.cycleI(0x088)
		}
		c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case 0xD1:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		result := c.bitshiftOp16(c.i.Mnemonic, op1Value, 1)
		if c.i.Operand1.Kind == OperandMode {
			c.cycleI(0x088)
		}
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case 0xD2:
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)

		c.cyclesI(6, []uint16{0x08c, 0x08d, 0x08e, mcJump, 0x090, 0x091})
		for n := byte(0); n < op2Value; n++ {
			c.cyclesI(4, []uint16{mcJump, 0x08f, 0x090, 0x091})
		}
		// A terminal write to memory takes the RNI off line 0x92.
		if c.i.Operand1.Kind == OperandMode {
			c.cycleI(0x092)
		}

		result := c.bitshiftOp8(c.i.Mnemonic, op1Value, op2Value)
		c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case 0xD3:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)

		c.cyclesI(6, []uint16{0x08c, 0x08d, 0x08e, mcJump, 0x090, 0x091})
		for n := byte(0); n < op2Value; n++ {
			c.cyclesI(4, []uint16{mcJump, 0x08f, 0x090, 0x091})
		}
		if c.i.Operand1.Kind == OperandMode {
			c.cycleI(0x092)
		}

		result := c.bitshiftOp16(c.i.Mnemonic, op1Value, op2Value)
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)
	}
}

// execGrp3_8 handles 0xF6. Returns true on divide error.
func (c *CPU8088) execGrp3_8() bool {
	// A REP prefix negates the product/quotient of MUL/DIV.
	negate := c.i.Prefixes&(prefixRep1|prefixRep2) != 0

	switch c.i.Mnemonic {
	case MnTEST:
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)
		// 8-bit TEST takes a microcode jump
		c.cyclesI(2, []uint16{mcJump, 0x09a})
		c.mathOp8(MnTEST, op1Value, op2Value)

	case MnNOT:
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		result := c.mathOp8(MnNOT, op1Value, 0)
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x04c, 0x04d})
		}
		c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case MnNEG:
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		result := c.mathOp8(MnNEG, op1Value, 0)
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x050, 0x051})
		}
		c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case MnMUL:
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		product := c.mul8(c.AL(), op1Value, false, negate)
		c.AX = product
		c.setSZPFlagsFromResultU8(c.AH())

	case MnIMUL:
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		product := c.mul8(c.AL(), op1Value, true, negate)
		c.AX = product
		c.setSZPFlagsFromResultU8(c.AH())

	case MnDIV:
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		al, ah, ok := c.div8(c.AX, op1Value, false, negate)
		if !ok {
			return true
		}
		c.SetAL(al) // quotient
		c.SetAH(ah) // remainder

	case MnIDIV:
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		al, ah, ok := c.div8(c.AX, op1Value, true, negate)
		if !ok {
			return true
		}
		c.SetAL(al)
		c.SetAH(ah)
	}
	return false
}

// execGrp3_16 handles 0xF7. Returns true on divide error.
func (c *CPU8088) execGrp3_16() bool {
	negate := c.i.Prefixes&(prefixRep1|prefixRep2) != 0

	switch c.i.Mnemonic {
	case MnTEST:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)
		c.cycleI(0x09a)
		c.mathOp16(MnTEST, op1Value, op2Value)

	case MnNOT:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		result := c.mathOp16(MnNOT, op1Value, 0)
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x04c, 0x04d})
		}
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case MnNEG:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		result := c.mathOp16(MnNEG, op1Value, 0)
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x050, 0x051})
		}
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case MnMUL:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		dx, ax := c.mul16(c.AX, op1Value, false, negate)
		c.DX = dx
		c.AX = ax
		c.setSZPFlagsFromResultU16(c.DX)

	case MnIMUL:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		dx, ax := c.mul16(c.AX, op1Value, true, negate)
		c.DX = dx
		c.AX = ax
		c.setSZPFlagsFromResultU16(c.DX)

	case MnDIV:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		quotient, remainder, ok := c.div16(uint32(c.DX)<<16|uint32(c.AX), op1Value, false, negate)
		if !ok {
			return true
		}
		c.AX = quotient
		c.DX = remainder

	case MnIDIV:
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		quotient, remainder, ok := c.div16(uint32(c.DX)<<16|uint32(c.AX), op1Value, true, negate)
		if !ok {
			return true
		}
		c.AX = quotient
		c.DX = remainder
	}
	return false
}

// execGrp4 handles 0xFE: INC/DEC r/m8 plus the undocumented 8-bit
// CALL/CALLF/JMP/JMPF/PUSH forms. Returns true when control
// transferred.
func (c *CPU8088) execGrp4() bool {
	jump := false
	switch c.i.Mnemonic {
	case MnINC, MnDEC:
		opValue := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		result := c.mathOp8(c.i.Mnemonic, opValue, 0)
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x020, 0x021})
		}
		c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case MnCALL:
		if c.i.Operand1.Kind == OperandMode {
			// Only 8 bits of the pointer are read, and only 8 bits of
			// the return address reach the stack.
			ptr8 := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)

			nextI := c.IP + uint16(c.i.Size)
			// No step-over target: this form rarely lands anywhere a
			// return could come back from.
			c.pushU8(byte(nextI), rwNormal)

			c.biuSuspendFetch()
			c.cycles(4)
			c.biuQueueFlush()

			c.IP = 0xFF00 | uint16(ptr8)
		} else {
			nextI := c.IP + uint16(c.i.Size)
			c.pushU8(byte(nextI), rwNormal)

			c.biuSuspendFetch()
			c.cycles(4)
			c.biuQueueFlush()

			// The register form copies the full 16-bit register to IP.
			c.IP = c.getRegister16(reg8to16(c.i.Operand1.Reg8))
		}
		jump = true

	case MnCALLF:
		if c.i.Operand1.Kind == OperandMode {
			segVal, seg, eaOffset := c.calcEffectiveAddress(c.i.Operand1.Mode, OverrideNone)

			// One byte of offset, one byte of segment.
			offsetAddr := calcLinearAddress(segVal, eaOffset)
			segmentAddr := calcLinearAddress(segVal, eaOffset+2)

			offset := c.biuReadU8(seg, offsetAddr)
			c.cyclesI(3, []uint16{0x1e2, mcRtn, 0x068})
			segment := c.biuReadU8(seg, segmentAddr)

			c.cycleI(0x06a)
			c.biuSuspendFetch()
			c.cyclesI(3, []uint16{0x06b, 0x06c, mcNone})

			// Push only the low byte of CS.
			c.pushU8(byte(c.CS), rwNormal)
			nextI := c.IP + uint16(c.i.Size)

			c.CS = 0xFF00 | uint16(segment)
			c.IP = 0xFF00 | uint16(offset)

			c.cyclesI(3, []uint16{0x06e, 0x06f, mcJump}) // UNC NEARCALL
			c.biuQueueFlush()
			c.cyclesI(3, []uint16{0x077, 0x078, 0x079})

			c.pushU8(byte(nextI), rwRNI)
			jump = true
		} else {
			// Register form: read a byte from DS:0004 and throw it
			// away. The read is kept for the bus trace.
			c.biuReadU8(SegDS, c.calcLinearAddressSeg(SegDS, 0x0004))

			c.pushU8(byte(c.CS), rwNormal)
			nextI := c.IP + uint16(c.i.Size)
			c.pushU8(byte(nextI), rwNormal)

			c.biuSuspendFetch()
			c.cycles(4)
			c.biuQueueFlush()

			c.IP = c.getRegister16(reg8to16(c.i.Operand1.Reg8))
			jump = true
		}

	case MnJMP:
		if c.i.Operand1.Kind == OperandMode {
			ptr8 := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
			c.IP = 0xFF00 | uint16(ptr8)

			c.biuSuspendFetch()
			c.cycles(4)
			c.biuQueueFlush()
		} else {
			c.biuSuspendFetch()
			c.cycles(4)
			c.biuQueueFlush()
			c.IP = c.getRegister16(reg8to16(c.i.Operand1.Reg8))
		}
		jump = true

	case MnJMPF:
		if c.i.Operand1.Kind == OperandMode {
			segVal, seg, eaOffset := c.calcEffectiveAddress(c.i.Operand1.Mode, OverrideNone)
			offsetAddr := calcLinearAddress(segVal, eaOffset)
			segmentAddr := calcLinearAddress(segVal, eaOffset+2)
			offset := c.biuReadU8(seg, offsetAddr)
			segment := c.biuReadU8(seg, segmentAddr)

			c.biuSuspendFetch()
			c.cycles(4)
			c.biuQueueFlush()

			c.CS = 0xFF00 | uint16(segment)
			c.IP = 0xFF00 | uint16(offset)
		} else {
			c.biuReadU8(SegDS, c.calcLinearAddressSeg(SegDS, 0x0004))

			c.biuSuspendFetch()
			c.cycles(4)
			c.biuQueueFlush()

			c.IP = c.getRegister16(reg8to16(c.i.Operand1.Reg8))
		}
		jump = true

	case MnPUSH:
		// Push a single byte onto the stack; SP still moves by two.
		opValue := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		c.cyclesI(3, []uint16{0x024, 0x025, 0x026})
		c.pushU8(opValue, rwRNI)
	}
	return jump
}

// execGrp5 handles 0xFF: INC/DEC r/m16, CALL/CALLF/JMP/JMPF indirect,
// PUSH r/m16. Returns true when control transferred.
func (c *CPU8088) execGrp5() bool {
	jump := false
	switch c.i.Mnemonic {
	case MnINC, MnDEC:
		opValue := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		result := c.mathOp16(c.i.Mnemonic, opValue, 0)
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x020, 0x021})
		}
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case MnCALL:
		if c.i.Operand1.Kind == OperandMode {
			ptr16 := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)

			c.biuSuspendFetch()
			c.cyclesI(4, []uint16{0x074, 0x075, mcCorr, 0x076})

			nextI := c.IP + uint16(c.i.Size)
			c.stepOverTarget = &CPUAddress{CS: c.CS, IP: nextI}
			c.pushCallStack(CallStackEntry{
				Kind:   CallNear,
				RetCS:  c.CS,
				RetIP:  nextI,
				CallIP: ptr16,
			}, c.CS, nextI)

			c.IP = ptr16
			c.biuQueueFlush()
			c.cyclesI(3, []uint16{0x077, 0x078, 0x079})
			c.pushU16(nextI, rwRNI)
		} else {
			// Register form is invalid (a register is not a pointer);
			// the odd behavior is modeled anyway.
			c.biuSuspendFetch()
			c.cyclesI(4, []uint16{0x074, 0x075, mcCorr, 0x076})

			nextI := c.IP + uint16(c.i.Size)
			c.IP = c.getRegister16(c.i.Operand1.Reg16)
			c.biuQueueFlush()
			c.cyclesI(3, []uint16{0x077, 0x078, 0x079})
			c.pushU16(nextI, rwRNI)
		}
		jump = true

	case MnCALLF:
		if c.i.Operand1.Kind == OperandMode {
			c.cycleI(0x068)
			segment, offset := c.readOperandFarPtr(c.i.Operand1, c.i.SegmentOverride, rwNormal)

			c.cycleI(0x06a)
			// Fall through to FARCALL
			c.biuSuspendFetch()
			c.cyclesI(3, []uint16{0x06b, 0x06c, mcNone})

			c.pushRegister16(RegSegCS, rwNormal)
			nextI := c.IP + uint16(c.i.Size)

			c.stepOverTarget = &CPUAddress{CS: c.CS, IP: nextI}
			c.pushCallStack(CallStackEntry{
				Kind:   CallFar,
				RetCS:  c.CS,
				RetIP:  nextI,
				CallCS: segment,
				CallIP: offset,
			}, c.CS, nextI)

			c.CS = segment
			c.IP = offset
			c.cyclesI(3, []uint16{0x06e, 0x06f, mcJump}) // UNC NEARCALL
			c.biuQueueFlush()
			c.cyclesI(3, []uint16{0x077, 0x078, 0x079})
			c.pushU16(nextI, rwRNI)
		} else {
			// Register form: the new CS is read from Seg:0004, the
			// override selecting Seg. IP keeps its incremented value.
			seg := segmentOverrideDefault(c.i.SegmentOverride, SegDS)
			flatAddr := c.calcLinearAddressSeg(seg, 0x0004)
			segment := c.biuReadU16(seg, flatAddr, rwNormal)

			c.cycleI(0x06a)
			c.biuSuspendFetch()
			c.cyclesI(3, []uint16{0x06b, 0x06c, mcCorr})

			c.pushRegister16(RegSegCS, rwNormal)
			nextI := c.IP + uint16(c.i.Size)

			c.CS = segment

			c.cyclesI(3, []uint16{0x06e, 0x06f, mcJump})
			c.biuQueueFlush()
			c.cyclesI(3, []uint16{0x077, 0x078, 0x079})
			c.pushU16(nextI, rwRNI)
		}
		jump = true

	case MnJMP:
		ptr16 := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		c.biuSuspendFetch()
		c.cycleI(0x0d8)
		c.IP = ptr16
		c.biuQueueFlush()
		jump = true

	case MnJMPF:
		if c.i.Operand1.Kind == OperandMode {
			c.cycleI(0x0dc)
			c.biuSuspendFetch()
			c.cycleI(0x0dd)

			segment, offset := c.readOperandFarPtr(c.i.Operand1, c.i.SegmentOverride, rwNormal)
			c.CS = segment
			c.IP = offset
			c.biuQueueFlush()
		} else {
			seg := segmentOverrideDefault(c.i.SegmentOverride, SegDS)

			c.cycle()
			c.biuSuspendFetch()
			c.cycle()

			flatAddr := c.calcLinearAddressSeg(seg, 0x0004)
			segment := c.biuReadU16(seg, flatAddr, rwNormal)
			c.CS = segment
			c.biuQueueFlush()
		}
		jump = true

	case MnPUSH:
		opValue := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		c.cyclesI(3, []uint16{0x024, 0x025, 0x026})
		// PUSH SP through Group 5 pushes the new value of SP as well.
		if c.i.Operand1.Kind == OperandReg16 && c.i.Operand1.Reg16 == RegSP {
			opValue -= 2
		}
		c.pushU16(opValue, rwRNI)
	}
	return jump
}
