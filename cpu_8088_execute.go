// cpu_8088_execute.go - Instruction execute engine
//
// One arm per opcode. Each arm spends T-states equivalent to the
// microcode routine for that opcode, with microcode line numbers
// attached where the die dump provides them so an external validator
// can line the trace up against real hardware.
//
// The microcode line holding the terminating RNI is not executed by
// the current instruction: the NX mechanism hands it to the next
// instruction, which retires it as its leading cycle. That overlap is
// how the real microengine fuses instruction tails into heads.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

// ExecuteInstruction decodes (unless resuming a REP) and executes one
// instruction, servicing any pending interrupt at the boundary first.
func (c *CPU8088) ExecuteInstruction() ExecutionResult {
	c.instrCycles = 0

	if !c.inRep {
		if c.Halted {
			if c.pendingInterrupt() || c.nmiPending {
				// Interrupt delivery resumes a halted CPU.
				c.serviceInterrupts()
			} else {
				return ResultHalt
			}
		} else {
			c.serviceInterrupts()
		}
		c.decodeInstruction()
	}

	return c.executeCurrent()
}

// InstructionCycles returns the T-states consumed by the last
// ExecuteInstruction call.
func (c *CPU8088) InstructionCycles() int {
	return c.instrCycles
}

// executeCurrent runs the current decoded instruction (c.i).
func (c *CPU8088) executeCurrent() ExecutionResult {
	jump := false
	divideError := false

	c.stepOverTarget = nil
	c.repInterrupted = false

	// A stray override on an instruction that ignores segments is
	// harmless; real software emits them, so no diagnostics.
	c.traceComment("EXECUTE")

	c.trapSuppressed = false
	if c.trapEnableDelay > 0 {
		c.trapEnableDelay--
	}
	if c.trapDisableDelay > 0 {
		c.trapDisableDelay--
	}

	// Retire a deferred RNI from the previous instruction, or idle one
	// cycle when the queue just delivered the first byte of a new
	// instruction with nothing to overlap it.
	if c.nx {
		c.traceComment("RNI")
		c.mcPC = c.nxMC
		c.nextMC()
		c.cycle()
		c.nx = false
	} else if c.lastQueueOp == QueueOpFirst {
		c.mcPC = mcNone
		c.cycle()
	}

	if c.i.Flags&instGroupDelay != 0 {
		c.traceComment("GROUP_DELAY")
		c.cycle()
	}

	c.mcPC = microcodeAddress8088[c.i.Opcode]

	// Return-address detection: keep the shadow stack aligned when IP
	// lands on an address a CALL or INT tagged earlier.
	flatAddr := c.getLinearIP()
	if c.bus.GetFlags(flatAddr)&MemRetBit != 0 {
		c.rewindCallStack(flatAddr)
	}

	// REP prefix classification.
	if c.i.Prefixes&(prefixRep1|prefixRep2) != 0 && !c.inRep {
		invalidRep := false
		switch c.i.Mnemonic {
		case MnSTOSB, MnSTOSW, MnLODSB, MnLODSW, MnMOVSB, MnMOVSW:
			c.repType = Rep
		case MnSCASB, MnSCASW, MnCMPSB, MnCMPSW:
			if c.i.Prefixes&prefixRep1 != 0 {
				c.repType = Repne
			} else {
				c.repType = Repe
			}
		case MnMUL, MnIMUL, MnDIV, MnIDIV:
			// REP on MUL/DIV negates the product/quotient.
			c.repType = Rep
		default:
			invalidRep = true
			cpuLog("REP prefix on invalid opcode: %v at [%04X:%04X]", c.i.Mnemonic, c.CS, c.IP)
		}
		if !invalidRep {
			switch c.i.Mnemonic {
			case MnMUL, MnIMUL, MnDIV, MnIDIV:
				// Not a string loop; no REP state.
			default:
				c.inRep = true
				c.repMnemonic = c.i.Mnemonic
			}
		}
	}

	// The STI one-instruction window ends as the next instruction
	// begins executing.
	c.interruptInhibit = false

	// Too many opcode 0x00s in a row means we've run off the rails
	// into zeroed memory.
	if c.i.Opcode == 0x00 {
		c.opcode0Counter++
		if c.OffRailsDetection && c.opcode0Counter > cpuOffRailsLimit {
			cpuLog("off the rails at [%04X:%04X], halting", c.CS, c.IP)
			c.clearFlag(cpuFlagIF)
			c.Halted = true
		}
	} else {
		c.opcode0Counter = 0
	}

	switch op := c.i.Opcode; {

	case op == 0x00 || op == 0x02 || op == 0x04 || // ADD r/m8,r8 | r8,r/m8 | al,imm8
		op == 0x08 || op == 0x0A || op == 0x0C || // OR
		op == 0x10 || op == 0x12 || op == 0x14 || // ADC
		op == 0x18 || op == 0x1A || op == 0x1C || // SBB
		op == 0x20 || op == 0x22 || op == 0x24 || // AND
		op == 0x28 || op == 0x2A || op == 0x2C || // SUB
		op == 0x30 || op == 0x32 || op == 0x34: // XOR
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)

		c.cyclesNxI(2, []uint16{0x008, 0x009})
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x009, 0x00a})
		}

		result := c.mathOp8(c.i.Mnemonic, op1Value, op2Value)
		c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case op == 0x01 || op == 0x03 || op == 0x05 || // ADD r/m16,r16 | r16,r/m16 | ax,imm16
		op == 0x09 || op == 0x0B || op == 0x0D || // OR
		op == 0x11 || op == 0x13 || op == 0x15 || // ADC
		op == 0x19 || op == 0x1B || op == 0x1D || // SBB
		op == 0x21 || op == 0x23 || op == 0x25 || // AND
		op == 0x29 || op == 0x2B || op == 0x2D || // SUB
		op == 0x31 || op == 0x33 || op == 0x35: // XOR
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)

		c.cyclesNxI(2, []uint16{0x008, 0x009})
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x009, 0x00a})
		}

		result := c.mathOp16(c.i.Mnemonic, op1Value, op2Value)
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)

	case op == 0x06 || op == 0x0E || op == 0x16 || op == 0x1E:
		// PUSH sreg
		c.cyclesI(3, []uint16{0x02c, 0x02d, 0x023})
		c.pushRegister16(c.i.Operand1.SegReg, rwRNI)

	case op == 0x07 || op == 0x0F || op == 0x17 || op == 0x1F:
		// POP sreg. 0x0F is POP CS, undocumented but real. Loading SS
		// inhibits traps and interrupts for one instruction.
		c.popRegister16(c.i.Operand1.SegReg, rwRNI)
		if c.i.Operand1.SegReg == RegSegSS {
			c.trapSuppressed = true
			c.interruptInhibit = true
		}

	case op == 0x27:
		// DAA
		c.cyclesNxI(3, []uint16{0x144, 0x145, 0x146})
		c.daa()

	case op == 0x2F:
		// DAS
		c.cyclesNxI(3, []uint16{0x144, 0x145, 0x146})
		c.das()

	case op == 0x37:
		// AAA
		c.aaa()

	case op == 0x38 || op == 0x3A || op == 0x3C:
		// CMP r/m8,r8 | r8,r/m8 | al,imm8
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)

		if op == 0x3C {
			c.cyclesNxI(2, []uint16{mcJump, 0x01a})
		} else {
			c.cyclesNxI(2, []uint16{0x008, 0x009})
		}
		c.mathOp8(MnCMP, op1Value, op2Value)

	case op == 0x39 || op == 0x3B || op == 0x3D:
		// CMP r/m16,r16 | r16,r/m16 | ax,imm16
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)

		if op == 0x3D {
			c.cycleNxI(0x01a)
		} else {
			c.cyclesNxI(2, []uint16{0x008, 0x009})
		}
		c.mathOp16(MnCMP, op1Value, op2Value)

	case op == 0x3F:
		// AAS
		c.aas()

	case op >= 0x40 && op <= 0x47:
		// INC r16
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		result := c.mathOp16(MnINC, op1Value, 0)
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)
		c.cyclesNx(1)

	case op >= 0x48 && op <= 0x4F:
		// DEC r16
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		result := c.mathOp16(MnDEC, op1Value, 0)
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, result, rwRNI)
		c.cyclesNx(1)

	case op >= 0x50 && op <= 0x57:
		// PUSH r16. PUSH SP pushes the post-decrement value.
		reg := register16LUT[op&0x07]
		c.cyclesI(3, []uint16{0x028, 0x029, 0x02a})
		c.pushRegister16(reg, rwRNI)

	case op >= 0x58 && op <= 0x5F:
		// POP r16
		reg := register16LUT[op&0x07]
		c.popRegister16(reg, rwRNI)
		c.cycleNxI(0x035)

	case op >= 0x60 && op <= 0x7F:
		// Jcc rel8. 0x60-0x6F alias 0x70-0x7F on the 8088.
		switch op & 0x0F {
		case 0x00:
			jump = c.getFlag(cpuFlagOF) // JO
		case 0x01:
			jump = !c.getFlag(cpuFlagOF) // JNO
		case 0x02:
			jump = c.getFlag(cpuFlagCF) // JB
		case 0x03:
			jump = !c.getFlag(cpuFlagCF) // JNB
		case 0x04:
			jump = c.getFlag(cpuFlagZF) // JZ
		case 0x05:
			jump = !c.getFlag(cpuFlagZF) // JNZ
		case 0x06:
			jump = c.getFlag(cpuFlagCF) || c.getFlag(cpuFlagZF) // JBE
		case 0x07:
			jump = !c.getFlag(cpuFlagCF) && !c.getFlag(cpuFlagZF) // JNBE
		case 0x08:
			jump = c.getFlag(cpuFlagSF) // JS
		case 0x09:
			jump = !c.getFlag(cpuFlagSF) // JNS
		case 0x0A:
			jump = c.getFlag(cpuFlagPF) // JP
		case 0x0B:
			jump = !c.getFlag(cpuFlagPF) // JNP
		case 0x0C:
			jump = c.getFlag(cpuFlagSF) != c.getFlag(cpuFlagOF) // JL
		case 0x0D:
			jump = c.getFlag(cpuFlagSF) == c.getFlag(cpuFlagOF) // JNL
		case 0x0E:
			jump = c.getFlag(cpuFlagZF) || c.getFlag(cpuFlagSF) != c.getFlag(cpuFlagOF) // JLE
		case 0x0F:
			jump = !c.getFlag(cpuFlagZF) && c.getFlag(cpuFlagSF) == c.getFlag(cpuFlagOF) // JNLE
		}

		rel8 := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		c.cycleI(0x0e9)

		if jump {
			newIP := relativeOffsetU16(c.IP, int16(int8(rel8))+int16(c.i.Size))
			c.reljmp(newIP, true)
		}

	case op >= 0x80 && op <= 0x83:
		// Group 1: ALU r/m,imm (0x82 aliases 0x80; 0x83 sign-extends)
		c.execGrp1()

	case op == 0x84:
		// TEST r/m8, r8
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)
		c.mathOp8(MnTEST, op1Value, op2Value)
		c.cyclesNxI(2, []uint16{0x094})

	case op == 0x85:
		// TEST r/m16, r16
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)
		c.mathOp16(MnTEST, op1Value, op2Value)
		c.cyclesNxI(2, []uint16{0x094})

	case op == 0x86:
		// XCHG r8, r/m8
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)
		c.cyclesNx(3)
		if c.i.Operand2.Kind == OperandMode {
			c.cycles(2)
		}
		// Write operand2 first so operand1's EA is not disturbed if
		// it depends on the register being exchanged.
		c.writeOperand8(c.i.Operand2, c.i.SegmentOverride, op1Value, rwRNI)
		c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, op2Value, rwNormal)

	case op == 0x87:
		// XCHG r16, r/m16
		op1Value := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)
		c.cyclesNx(3)
		if c.i.Operand2.Kind == OperandMode {
			c.cycles(2)
		}
		c.writeOperand16(c.i.Operand2, c.i.SegmentOverride, op1Value, rwRNI)
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, op2Value, rwNormal)

	case op == 0x88 || op == 0x8A:
		// MOV r/m8, r8 | r8, r/m8
		c.cycleNx()
		opValue := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x000, 0x001})
		}
		c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, opValue, rwRNI)

	case op == 0x89 || op == 0x8B:
		// MOV r/m16, r16 | r16, r/m16
		c.cycleNx()
		opValue := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x000, 0x001})
		}
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, opValue, rwRNI)

	case op == 0x8C || op == 0x8E:
		// MOV r/m16, sreg | sreg, r/m16
		if c.i.Operand1.Kind == OperandMode {
			c.cycleI(0x0ec)
		}
		opValue := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, opValue, rwRNI)

	case op == 0x8D:
		// LEA. A register operand2 is undefined: the last computed EA
		// leaks out of the address adder.
		if ea, ok := c.loadEffectiveAddress(c.i.Operand2); ok {
			c.writeOperand16(c.i.Operand1, OverrideNone, ea, rwRNI)
		} else {
			c.writeOperand16(c.i.Operand1, OverrideNone, c.lastEA, rwRNI)
		}

	case op == 0x8F:
		// POP r/m16
		c.cycleI(0x040)
		value := c.popU16()
		c.cycleI(0x042)
		if c.i.Operand1.Kind == OperandMode {
			c.cyclesI(2, []uint16{0x043, 0x044})
		}
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, value, rwRNI)

	case op >= 0x90 && op <= 0x97:
		// XCHG AX, r (0x90 is NOP via XCHG AX,AX)
		opReg := register16LUT[op&0x07]
		axValue := c.AX
		opRegValue := c.getRegister16(opReg)
		c.cyclesNxI(2, []uint16{0x084, 0x085})
		c.AX = opRegValue
		c.setRegister16(opReg, axValue)

	case op == 0x98:
		// CBW
		c.signExtendAL()

	case op == 0x99:
		// CWD
		c.signExtendAX()

	case op == 0x9A:
		// CALLF addr16:16 - direct far address from the queue
		segment, offset := c.readOperandFarAddr()

		c.cycleI(mcJump)
		c.biuSuspendFetch()
		c.cyclesI(3, []uint16{0x06b, 0x06c, mcCorr})

		c.pushRegister16(RegSegCS, rwNormal)
		c.cyclesI(3, []uint16{0x06e, 0x06f, mcJump})
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

		c.biuQueueFlush()
		c.cyclesI(3, []uint16{0x077, 0x078, 0x079})
		c.pushU16(nextI, rwRNI)
		jump = true

	case op == 0x9B:
		// WAIT (no FPU emulated)
		c.cycles(3)

	case op == 0x9C:
		// PUSHF
		c.cycles(3)
		c.pushFlags(rwRNI)

	case op == 0x9D:
		// POPF
		c.popFlags()

	case op == 0x9E:
		// SAHF
		c.storeFlags(c.Flags&0xFF00 | uint16(c.AH()))

	case op == 0x9F:
		// LAHF
		c.SetAH(byte(c.loadFlags()))

	case op == 0xA0:
		// MOV al, moffs8
		c.SetAL(c.readOperand8(c.i.Operand2, c.i.SegmentOverride))

	case op == 0xA1:
		// MOV ax, moffs16
		c.AX = c.readOperand16(c.i.Operand2, c.i.SegmentOverride)

	case op == 0xA2:
		// MOV moffs8, al
		c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, c.AL(), rwRNI)

	case op == 0xA3:
		// MOV moffs16, ax
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, c.AX, rwRNI)

	case op == 0xA4 || op == 0xA5:
		// MOVSB / MOVSW
		if c.repStart() {
			c.stringOp(c.i.Mnemonic, c.i.SegmentOverride)
			c.cycleI(0x130)

			if c.inRep {
				c.decrementRegister16(RegCX) // 131
				if c.pendingInterrupt() {
					c.cyclesI(2, []uint16{0x131, mcJump}) // to RPTI
					c.repInterrupt()
				} else {
					c.cyclesI(2, []uint16{0x131, 0x132})
					if c.CX == 0 {
						c.repEnd()
					} else {
						c.cycleI(mcJump) // back to line 1
					}
				}
			} else {
				c.cycleI(mcJump) // to 133, RNI
			}
		}

	case op == 0xA6 || op == 0xA7 || op == 0xAE || op == 0xAF:
		// CMPSB / CMPSW / SCASB / SCASW
		if c.repStart() {
			c.stringOp(c.i.Mnemonic, c.i.SegmentOverride)

			if c.inRep {
				end := false
				c.cycleI(0x129)
				c.decrementRegister16(RegCX) // 129

				switch c.repType {
				case Repne:
					if c.getFlag(cpuFlagZF) {
						c.repEnd()
						c.cycleI(mcJump) // to 1f4, RNI
						end = true
					}
				case Repe:
					if !c.getFlag(cpuFlagZF) {
						c.repEnd()
						c.cycleI(mcJump) // to 1f4, RNI
						end = true
					}
				}

				if !end {
					c.cycleI(0x12a)
					if c.pendingInterrupt() {
						c.cycleI(mcJump) // to RPTI
						c.repInterrupt()
					} else {
						c.cycleI(0x12b)
						if c.CX == 0 {
							c.repEnd()
						} else {
							c.cycleI(mcJump) // back to line 1: 121
						}
					}
				}
			} else {
				c.cycleI(mcJump) // to 1f4, RNI
			}
		}

	case op == 0xA8:
		// TEST al, imm8
		op2Value := c.readOperand8(c.i.Operand2, OverrideNone)
		c.mathOp8(MnTEST, c.AL(), op2Value)

	case op == 0xA9:
		// TEST ax, imm16
		op2Value := c.readOperand16(c.i.Operand2, OverrideNone)
		c.mathOp16(MnTEST, c.AX, op2Value)

	case op == 0xAA || op == 0xAB:
		// STOSB / STOSW
		if c.repStart() {
			c.stringOp(c.i.Mnemonic, OverrideNone)
			c.cycleI(0x11e)

			if c.inRep {
				c.cycleI(0x11f)
				if c.pendingInterrupt() {
					c.cycleI(mcJump) // to RPTI
					c.repInterrupt()
				}
				if c.inRep || c.repInterrupted {
					c.cycleI(0x1f0)
					c.decrementRegister16(RegCX) // 1f0
					if c.repInterrupted {
						// Interrupted: loop state already torn down.
					} else if c.CX == 0 {
						c.repEnd()
					} else {
						c.cycleI(mcJump) // back to line 1
					}
				}
			} else {
				c.cycleI(mcJump) // to 1f1
			}
		}

	case op == 0xAC || op == 0xAD:
		// LODSB / LODSW - rarely REP-prefixed but it works
		if c.repStart() {
			c.stringOp(c.i.Mnemonic, c.i.SegmentOverride)
			c.cyclesI(3, []uint16{0x12e, mcJump, 0x1f8})

			if c.inRep {
				c.cycleI(mcJump) // to 131
				c.decrementRegister16(RegCX)
				if c.pendingInterrupt() {
					c.cyclesI(2, []uint16{0x131, mcJump}) // to RPTI
					c.repInterrupt()
				} else {
					c.cyclesI(2, []uint16{0x131, 0x132})
					if c.CX == 0 {
						c.repEnd()
					} else {
						c.cycleI(mcJump) // back to line 1
					}
				}
			}
		}

	case op >= 0xB0 && op <= 0xB7:
		// MOV r8, imm8
		op2Value := c.readOperand8(c.i.Operand2, OverrideNone)
		c.setRegister8(c.i.Operand1.Reg8, op2Value)
		c.cycleI(mcJump)
		c.setMCPC(0x016)

	case op >= 0xB8 && op <= 0xBF:
		// MOV r16, imm16
		op2Value := c.readOperand16(c.i.Operand2, OverrideNone)
		c.setRegister16(c.i.Operand1.Reg16, op2Value)

	case op == 0xC0 || op == 0xC2:
		// RETN imm16 (0xC0 undocumented alias)
		stackDisp := c.readOperand16(c.i.Operand1, OverrideNone)
		c.cycleI(mcJump) // to FARRET
		c.IP = c.popU16()
		c.biuSuspendFetch()
		c.cyclesI(2, []uint16{0x0c3, 0x0c4})
		c.biuQueueFlush()
		c.cyclesI(3, []uint16{0x0c5, mcJump, 0x0ce})
		c.release(stackDisp)
		jump = true

	case op == 0xC1 || op == 0xC3:
		// RETN (0xC1 undocumented alias): pop ip
		c.IP = c.popU16()
		c.biuSuspendFetch()
		c.cycleI(0x0bd)
		c.biuQueueFlush()
		c.cyclesI(2, []uint16{0x0be, 0x0bf})
		jump = true

	case op == 0xC4:
		// LES
		segment, offset := c.readOperandFarPtr(c.i.Operand2, c.i.SegmentOverride, rwNormal)
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, offset, rwNormal)
		c.ES = segment

	case op == 0xC5:
		// LDS
		segment, offset := c.readOperandFarPtr(c.i.Operand2, c.i.SegmentOverride, rwRNI)
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, offset, rwNormal)
		c.DS = segment

	case op == 0xC6:
		// MOV r/m8, imm8
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)
		c.cycles(2)
		c.writeOperand8(c.i.Operand1, c.i.SegmentOverride, op2Value, rwRNI)

	case op == 0xC7:
		// MOV r/m16, imm16
		op2Value := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)
		c.cycleI(0x01e)
		c.writeOperand16(c.i.Operand1, c.i.SegmentOverride, op2Value, rwRNI)

	case op == 0xC8 || op == 0xCA:
		// RETF imm16 (0xC8 undocumented alias)
		stackDisp := c.readOperand16(c.i.Operand1, OverrideNone)
		c.farret(true)
		c.release(stackDisp)
		c.cycleI(0x0ce)
		jump = true

	case op == 0xC9 || op == 0xCB:
		// RETF (0xC9 undocumented alias)
		c.cycleI(0x0c0)
		c.farret(true)
		jump = true

	case op == 0xCC:
		// INT 3
		c.IP += uint16(c.i.Size)
		c.stepOverTarget = &CPUAddress{CS: c.CS, IP: c.IP}
		c.cyclesI(4, []uint16{0x1b0, mcJump, 0x1b2, mcJump}) // to INTR
		c.int3()
		jump = true

	case op == 0xCD:
		// INT imm8. IF gates neither NMI nor the INT instruction.
		c.IP += uint16(c.i.Size)
		c.stepOverTarget = &CPUAddress{CS: c.CS, IP: c.IP}
		irq := c.readOperand8(c.i.Operand1, OverrideNone)
		c.cycleI(mcJump) // to INTR
		c.swInterrupt(irq)
		jump = true

	case op == 0xCE:
		// INTO
		if c.getFlag(cpuFlagOF) {
			c.IP += uint16(c.i.Size)
			c.stepOverTarget = &CPUAddress{CS: c.CS, IP: c.IP}
			c.swInterrupt(4)
			jump = true
		}

	case op == 0xCF:
		// IRET
		c.iretRoutine()
		jump = true

	case op >= 0xD0 && op <= 0xD3:
		// Group 2: rotates and shifts by 1 or by CL
		c.execGrp2()

	case op == 0xD4:
		// AAM, with its base byte from the instruction stream
		op1Value := c.readOperand8(c.i.Operand1, OverrideNone)
		if !c.aam(byte(op1Value)) {
			divideError = true
		}

	case op == 0xD5:
		// AAD
		op1Value := c.readOperand8(c.i.Operand1, OverrideNone)
		c.aad(byte(op1Value))

	case op == 0xD6:
		// SALC (undocumented): AL = CF ? FF : 00
		if c.getFlag(cpuFlagCF) {
			c.SetAL(0xFF)
		} else {
			c.SetAL(0x00)
		}

	case op == 0xD7:
		// XLAT: AL = [seg:BX+AL], default DS, override honored
		segment := segmentOverrideDefault(c.i.SegmentOverride, SegDS)
		disp16 := c.BX + uint16(c.AL())
		addr := c.calcLinearAddressSeg(segment, disp16)
		c.cyclesI(3, []uint16{0x10c, 0x10d, 0x10e})
		c.SetAL(c.biuReadU8(segment, addr))

	case op >= 0xD8 && op <= 0xDF:
		// ESC: dummy memory read only, no FPU state
		if c.i.Operand1.Kind == OperandMode {
			c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		}

	case op == 0xE0 || op == 0xE1:
		// LOOPNE / LOOPE
		c.decrementRegister16(RegCX)
		c.cyclesI(2, []uint16{0x138, 0x139})

		zeroCondition := !c.getFlag(cpuFlagZF)
		if op == 0xE1 {
			zeroCondition = !zeroCondition
		}
		rel8 := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)

		if c.CX != 0 && zeroCondition {
			newIP := relativeOffsetU16(c.IP, int16(int8(rel8))+int16(c.i.Size))
			c.reljmp(newIP, true)
			jump = true
		} else {
			c.cycleI(0x13c)
		}

	case op == 0xE2:
		// LOOP
		c.decrementRegister16(RegCX)
		c.cyclesI(2, []uint16{0x140, 0x141})

		rel8 := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		if c.CX != 0 {
			newIP := relativeOffsetU16(c.IP, int16(int8(rel8))+int16(c.i.Size))
			c.reljmp(newIP, true)
			jump = true
		}
		if !jump {
			c.cycle()
		}

	case op == 0xE3:
		// JCXZ
		c.cyclesI(2, []uint16{0x138, 0x139})
		rel8 := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		c.cycleI(0x13b)

		if c.CX == 0 {
			newIP := relativeOffsetU16(c.IP, int16(int8(rel8))+int16(c.i.Size))
			c.reljmp(newIP, true)
			jump = true
		} else {
			c.cycleI(0x13c)
		}

	case op == 0xE4:
		// IN al, imm8
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)
		c.cyclesI(2, []uint16{0x0ad, 0x0ae})
		c.SetAL(c.biuIoReadU8(uint16(op2Value)))

	case op == 0xE5:
		// IN ax, imm8: two 8-bit cycles on ports P and P+1
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)
		c.cyclesI(2, []uint16{0x0ad, 0x0ae})
		c.AX = c.biuIoReadU16(uint16(op2Value))

	case op == 0xE6:
		// OUT imm8, al
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)
		c.cyclesI(2, []uint16{0x0b1, 0x0b2})
		c.biuIoWriteU8(uint16(op1Value), op2Value, rwRNI)

	case op == 0xE7:
		// OUT imm8, ax
		op1Value := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		op2Value := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)
		c.cyclesI(2, []uint16{0x0b1, 0x0b2})
		c.biuIoWriteU16(uint16(op1Value), op2Value, rwRNI)

	case op == 0xE8:
		// CALL rel16 - its own microcode routine, no NEARCALL
		rel16 := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)

		c.biuSuspendFetch()
		c.cyclesI(4, []uint16{0x07e, 0x07f, mcCorr, 0x080})

		nextI := c.IP + uint16(c.i.Size)
		c.stepOverTarget = &CPUAddress{CS: c.CS, IP: nextI}

		newIP := relativeOffsetU16(c.IP, int16(rel16)+int16(c.i.Size))
		c.pushCallStack(CallStackEntry{
			Kind:   CallNear,
			RetCS:  c.CS,
			RetIP:  nextI,
			CallIP: newIP,
		}, c.CS, nextI)

		c.IP = newIP
		c.biuQueueFlush()
		c.cyclesI(3, []uint16{0x081, 0x082, mcJump})
		c.pushU16(nextI, rwRNI)
		jump = true

	case op == 0xE9:
		// JMP rel16
		rel16 := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		newIP := relativeOffsetU16(c.IP, int16(rel16)+int16(c.i.Size))
		c.reljmp(newIP, false)
		jump = true

	case op == 0xEA:
		// JMPF addr16:16
		segment, offset := c.readOperandFarAddr()
		c.CS = segment
		c.IP = offset
		c.biuSuspendFetch()
		c.cyclesI(2, []uint16{0x0e4, 0x0e5})
		c.biuQueueFlush()
		c.cycleI(0x0e6)
		jump = true

	case op == 0xEB:
		// JMP rel8
		rel8 := c.readOperand8(c.i.Operand1, c.i.SegmentOverride)
		newIP := relativeOffsetU16(c.IP, int16(int8(rel8))+int16(c.i.Size))
		c.reljmp(newIP, true)
		jump = true

	case op == 0xEC:
		// IN al, dx
		port := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)
		c.SetAL(c.biuIoReadU8(port))

	case op == 0xED:
		// IN ax, dx
		port := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)
		c.AX = c.biuIoReadU16(port)

	case op == 0xEE:
		// OUT dx, al
		port := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		value := c.readOperand8(c.i.Operand2, c.i.SegmentOverride)
		c.cycleI(0x0b8)
		c.biuIoWriteU8(port, value, rwRNI)

	case op == 0xEF:
		// OUT dx, ax: two writes to successive ports
		port := c.readOperand16(c.i.Operand1, c.i.SegmentOverride)
		value := c.readOperand16(c.i.Operand2, c.i.SegmentOverride)
		c.cycleI(0x0b8)
		c.biuIoWriteU16(port, value, rwRNI)

	case op == 0xF1:
		// Undocumented: does nothing in one cycle
		c.cycle()

	case op == 0xF4:
		// HLT. Non-microcoded; these cycles have no mc line.
		c.Halted = true
		c.biuSuspendFetch()
		c.cycles(2)
		c.biuHalt()

	case op == 0xF5:
		// CMC
		c.setFlagState(cpuFlagCF, !c.getFlag(cpuFlagCF))

	case op == 0xF6:
		// Group 3, r/m8
		divideError = c.execGrp3_8()

	case op == 0xF7:
		// Group 3, r/m16
		divideError = c.execGrp3_16()

	case op == 0xF8:
		// CLC
		c.clearFlag(cpuFlagCF)

	case op == 0xF9:
		// STC
		c.setFlag(cpuFlagCF)

	case op == 0xFA:
		// CLI takes effect one instruction late for recognition.
		c.clearFlag(cpuFlagIF)
		c.trapDisableDelay = 1

	case op == 0xFB:
		// STI: the new IF is not recognized until after the next
		// instruction, so INT cannot sneak in between STI and HLT.
		if !c.getFlag(cpuFlagIF) {
			c.interruptInhibit = true
			c.trapEnableDelay = 1
		}
		c.setFlag(cpuFlagIF)

	case op == 0xFC:
		// CLD
		c.clearFlag(cpuFlagDF)

	case op == 0xFD:
		// STD
		c.setFlag(cpuFlagDF)

	case op == 0xFE:
		// Group 4, r/m8: INC/DEC plus the sorta-broken 8-bit CALL,
		// JMP and PUSH forms, behavior derived from a real part.
		jump = c.execGrp4()

	case op == 0xFF:
		// Group 5, r/m16
		jump = c.execGrp5()

	default:
		// Remaining opcodes: segment override prefixes and LOCK/REP
		// arrive here only if software jumps into the middle of an
		// instruction; decode has already folded real prefixes away.
		// The 8088 has no invalid-opcode trap, so nothing to do.
	}

	if c.repInterrupted {
		jump = true
	}

	if !c.inRep {
		c.repInit = false
		if !jump {
			c.IP += uint16(c.i.Size)
		}
	}

	// Arm the single-step trap for the next boundary.
	if c.getFlag(cpuFlagTF) && !c.trapSuppressed {
		c.pendingTrap = true
	}

	if c.Halted && !c.getFlag(cpuFlagIF) {
		// Halted with interrupts off: nothing will ever wake us.
		return ResultHalt
	} else if jump {
		return ResultOkayJump
	} else if c.inRep {
		c.repInit = true
		return ResultOkayRep
	} else if divideError {
		return ResultDivideError
	}
	return ResultOkay
}
