// cpu_8088_decode.go - Instruction decode stage
//
// Decode pulls bytes through the prefetch queue one at a time (each
// consumed byte costs the EU a T-state, so decode timing falls out of
// the queue naturally), folds prefixes into the instruction record and
// resolves ModR/M into operand descriptors. Group opcodes take their
// mnemonic from the reg field of ModR/M.
//
// Immediates and displacements are read here; far direct addresses
// (0x9A/0xEA) are read by the execute engine from the queue, matching
// the microcode.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

// Mnemonic identifies the operation of a decoded instruction.
type Mnemonic int

const (
	MnInvalid Mnemonic = iota
	MnADD
	MnADC
	MnSUB
	MnSBB
	MnAND
	MnOR
	MnXOR
	MnCMP
	MnTEST
	MnINC
	MnDEC
	MnNEG
	MnNOT
	MnMOV
	MnPUSH
	MnPOP
	MnXCHG
	MnLEA
	MnLES
	MnLDS
	MnDAA
	MnDAS
	MnAAA
	MnAAS
	MnAAM
	MnAAD
	MnSALC
	MnXLAT
	MnCBW
	MnCWD
	MnJcc
	MnCALL
	MnCALLF
	MnJMP
	MnJMPF
	MnRETN
	MnRETF
	MnINT
	MnINT3
	MnINTO
	MnIRET
	MnROL
	MnROR
	MnRCL
	MnRCR
	MnSHL
	MnSHR
	MnSETMO
	MnSAR
	MnMUL
	MnIMUL
	MnDIV
	MnIDIV
	MnMOVSB
	MnMOVSW
	MnCMPSB
	MnCMPSW
	MnSTOSB
	MnSTOSW
	MnLODSB
	MnLODSW
	MnSCASB
	MnSCASW
	MnIN
	MnOUT
	MnLOOP
	MnLOOPE
	MnLOOPNE
	MnJCXZ
	MnHLT
	MnWAIT
	MnESC
	MnPUSHF
	MnPOPF
	MnSAHF
	MnLAHF
	MnCLC
	MnSTC
	MnCMC
	MnCLI
	MnSTI
	MnCLD
	MnSTD
	MnNOP
)

var mnemonicNames = map[Mnemonic]string{
	MnInvalid: "???", MnADD: "ADD", MnADC: "ADC", MnSUB: "SUB", MnSBB: "SBB",
	MnAND: "AND", MnOR: "OR", MnXOR: "XOR", MnCMP: "CMP", MnTEST: "TEST",
	MnINC: "INC", MnDEC: "DEC", MnNEG: "NEG", MnNOT: "NOT", MnMOV: "MOV",
	MnPUSH: "PUSH", MnPOP: "POP", MnXCHG: "XCHG", MnLEA: "LEA", MnLES: "LES",
	MnLDS: "LDS", MnDAA: "DAA", MnDAS: "DAS", MnAAA: "AAA", MnAAS: "AAS",
	MnAAM: "AAM", MnAAD: "AAD", MnSALC: "SALC", MnXLAT: "XLAT", MnCBW: "CBW",
	MnCWD: "CWD", MnJcc: "Jcc", MnCALL: "CALL", MnCALLF: "CALLF", MnJMP: "JMP",
	MnJMPF: "JMPF", MnRETN: "RETN", MnRETF: "RETF", MnINT: "INT", MnINT3: "INT3",
	MnINTO: "INTO", MnIRET: "IRET", MnROL: "ROL", MnROR: "ROR", MnRCL: "RCL",
	MnRCR: "RCR", MnSHL: "SHL", MnSHR: "SHR", MnSETMO: "SETMO", MnSAR: "SAR",
	MnMUL: "MUL", MnIMUL: "IMUL", MnDIV: "DIV", MnIDIV: "IDIV",
	MnMOVSB: "MOVSB", MnMOVSW: "MOVSW", MnCMPSB: "CMPSB", MnCMPSW: "CMPSW",
	MnSTOSB: "STOSB", MnSTOSW: "STOSW", MnLODSB: "LODSB", MnLODSW: "LODSW",
	MnSCASB: "SCASB", MnSCASW: "SCASW", MnIN: "IN", MnOUT: "OUT",
	MnLOOP: "LOOP", MnLOOPE: "LOOPE", MnLOOPNE: "LOOPNE", MnJCXZ: "JCXZ",
	MnHLT: "HLT", MnWAIT: "WAIT", MnESC: "ESC", MnPUSHF: "PUSHF",
	MnPOPF: "POPF", MnSAHF: "SAHF", MnLAHF: "LAHF", MnCLC: "CLC",
	MnSTC: "STC", MnCMC: "CMC", MnCLI: "CLI", MnSTI: "STI", MnCLD: "CLD",
	MnSTD: "STD", MnNOP: "NOP",
}

func (m Mnemonic) String() string {
	if s, ok := mnemonicNames[m]; ok {
		return s
	}
	return "???"
}

// Prefix bits recorded during decode.
const (
	prefixLock uint8 = 1 << 0
	prefixRep1 uint8 = 1 << 1 // 0xF2 REPNE
	prefixRep2 uint8 = 1 << 2 // 0xF3 REP/REPE
	prefixSeg  uint8 = 1 << 3 // a segment override byte was present
)

// Instruction flag bits.
const (
	// instGroupDelay: the microengine spends one extra cycle entering
	// a group-extension routine.
	instGroupDelay uint8 = 1 << 0
)

// OperandKind describes where an operand's value lives.
type OperandKind int

const (
	OperandNone OperandKind = iota
	OperandReg8
	OperandReg16
	OperandSegReg
	OperandImm8
	OperandImm16
	OperandRel8
	OperandRel16
	OperandOffset8  // direct moffs, 8-bit data
	OperandOffset16 // direct moffs, 16-bit data
	OperandFarAddr  // 4-byte seg:off read from the queue at execute
	OperandMode     // memory via ModR/M
)

// AddressingMode is a decoded memory-form ModR/M with its displacement.
type AddressingMode struct {
	Mod  byte
	RM   byte
	Disp uint16
}

// Operand is one decoded operand.
type Operand struct {
	Kind   OperandKind
	Reg8   Reg8
	Reg16  Reg16
	SegReg Reg16
	Imm    uint16
	Offset uint16
	Mode   AddressingMode
}

// Instruction is the decode stage's output record.
type Instruction struct {
	Opcode          byte
	Mnemonic        Mnemonic
	Prefixes        uint8
	SegmentOverride SegmentOverride
	Operand1        Operand
	Operand2        Operand
	Size            int
	Flags           uint8
}

// -----------------------------------------------------------------------------
// Opcode table
// -----------------------------------------------------------------------------

// operand templates for the opcode table.
type opTemplate int

const (
	tNone opTemplate = iota
	tE8              // ModR/M r/m, byte
	tE16             // ModR/M r/m, word
	tG8              // ModR/M reg field, byte
	tG16             // ModR/M reg field, word
	tSreg            // ModR/M reg field, segment register
	tImm8
	tImm16
	tRel8
	tRel16
	tFarAddr
	tMoffs8
	tMoffs16
	tRegAL
	tRegAX
	tRegCL
	tRegDX
	tReg8Enc  // register encoded in low 3 opcode bits, byte
	tReg16Enc // register encoded in low 3 opcode bits, word
	tSregEnc  // segment register encoded in opcode bits 3-4
)

type opcodeDef struct {
	mnemonic Mnemonic
	op1, op2 opTemplate
	group    int // 1..5; 0 = not a group opcode
	flags    uint8
}

var opcodeTable [256]opcodeDef

func init() {
	// ALU block 0x00-0x3F: eight operations, six encodings each.
	aluMn := [8]Mnemonic{MnADD, MnOR, MnADC, MnSBB, MnAND, MnSUB, MnXOR, MnCMP}
	for i, mn := range aluMn {
		base := i * 8
		opcodeTable[base+0] = opcodeDef{mn, tE8, tG8, 0, 0}
		opcodeTable[base+1] = opcodeDef{mn, tE16, tG16, 0, 0}
		opcodeTable[base+2] = opcodeDef{mn, tG8, tE8, 0, 0}
		opcodeTable[base+3] = opcodeDef{mn, tG16, tE16, 0, 0}
		opcodeTable[base+4] = opcodeDef{mn, tRegAL, tImm8, 0, 0}
		opcodeTable[base+5] = opcodeDef{mn, tRegAX, tImm16, 0, 0}
	}
	// PUSH/POP sreg occupy the x6/x7 and xE/xF slots of rows 0-1.
	opcodeTable[0x06] = opcodeDef{MnPUSH, tSregEnc, tNone, 0, 0}
	opcodeTable[0x07] = opcodeDef{MnPOP, tSregEnc, tNone, 0, 0}
	opcodeTable[0x0E] = opcodeDef{MnPUSH, tSregEnc, tNone, 0, 0}
	opcodeTable[0x0F] = opcodeDef{MnPOP, tSregEnc, tNone, 0, 0} // POP CS, undocumented
	opcodeTable[0x16] = opcodeDef{MnPUSH, tSregEnc, tNone, 0, 0}
	opcodeTable[0x17] = opcodeDef{MnPOP, tSregEnc, tNone, 0, 0}
	opcodeTable[0x1E] = opcodeDef{MnPUSH, tSregEnc, tNone, 0, 0}
	opcodeTable[0x1F] = opcodeDef{MnPOP, tSregEnc, tNone, 0, 0}

	opcodeTable[0x27] = opcodeDef{MnDAA, tNone, tNone, 0, 0}
	opcodeTable[0x2F] = opcodeDef{MnDAS, tNone, tNone, 0, 0}
	opcodeTable[0x37] = opcodeDef{MnAAA, tNone, tNone, 0, 0}
	opcodeTable[0x3F] = opcodeDef{MnAAS, tNone, tNone, 0, 0}

	for op := 0x40; op <= 0x47; op++ {
		opcodeTable[op] = opcodeDef{MnINC, tReg16Enc, tNone, 0, 0}
	}
	for op := 0x48; op <= 0x4F; op++ {
		opcodeTable[op] = opcodeDef{MnDEC, tReg16Enc, tNone, 0, 0}
	}
	for op := 0x50; op <= 0x57; op++ {
		opcodeTable[op] = opcodeDef{MnPUSH, tReg16Enc, tNone, 0, 0}
	}
	for op := 0x58; op <= 0x5F; op++ {
		opcodeTable[op] = opcodeDef{MnPOP, tReg16Enc, tNone, 0, 0}
	}
	// 0x60-0x6F alias 0x70-0x7F on the 8088.
	for op := 0x60; op <= 0x7F; op++ {
		opcodeTable[op] = opcodeDef{MnJcc, tRel8, tNone, 0, 0}
	}

	opcodeTable[0x80] = opcodeDef{MnInvalid, tE8, tImm8, 1, 0}
	opcodeTable[0x81] = opcodeDef{MnInvalid, tE16, tImm16, 1, 0}
	opcodeTable[0x82] = opcodeDef{MnInvalid, tE8, tImm8, 1, 0} // alias of 0x80
	opcodeTable[0x83] = opcodeDef{MnInvalid, tE16, tImm8, 1, 0}

	opcodeTable[0x84] = opcodeDef{MnTEST, tE8, tG8, 0, 0}
	opcodeTable[0x85] = opcodeDef{MnTEST, tE16, tG16, 0, 0}
	opcodeTable[0x86] = opcodeDef{MnXCHG, tG8, tE8, 0, 0}
	opcodeTable[0x87] = opcodeDef{MnXCHG, tG16, tE16, 0, 0}
	opcodeTable[0x88] = opcodeDef{MnMOV, tE8, tG8, 0, 0}
	opcodeTable[0x89] = opcodeDef{MnMOV, tE16, tG16, 0, 0}
	opcodeTable[0x8A] = opcodeDef{MnMOV, tG8, tE8, 0, 0}
	opcodeTable[0x8B] = opcodeDef{MnMOV, tG16, tE16, 0, 0}
	opcodeTable[0x8C] = opcodeDef{MnMOV, tE16, tSreg, 0, 0}
	opcodeTable[0x8D] = opcodeDef{MnLEA, tG16, tE16, 0, 0}
	opcodeTable[0x8E] = opcodeDef{MnMOV, tSreg, tE16, 0, 0}
	opcodeTable[0x8F] = opcodeDef{MnPOP, tE16, tNone, 0, 0}

	for op := 0x90; op <= 0x97; op++ {
		opcodeTable[op] = opcodeDef{MnXCHG, tRegAX, tReg16Enc, 0, 0}
	}
	opcodeTable[0x98] = opcodeDef{MnCBW, tNone, tNone, 0, 0}
	opcodeTable[0x99] = opcodeDef{MnCWD, tNone, tNone, 0, 0}
	opcodeTable[0x9A] = opcodeDef{MnCALLF, tFarAddr, tNone, 0, 0}
	opcodeTable[0x9B] = opcodeDef{MnWAIT, tNone, tNone, 0, 0}
	opcodeTable[0x9C] = opcodeDef{MnPUSHF, tNone, tNone, 0, 0}
	opcodeTable[0x9D] = opcodeDef{MnPOPF, tNone, tNone, 0, 0}
	opcodeTable[0x9E] = opcodeDef{MnSAHF, tNone, tNone, 0, 0}
	opcodeTable[0x9F] = opcodeDef{MnLAHF, tNone, tNone, 0, 0}

	opcodeTable[0xA0] = opcodeDef{MnMOV, tRegAL, tMoffs8, 0, 0}
	opcodeTable[0xA1] = opcodeDef{MnMOV, tRegAX, tMoffs16, 0, 0}
	opcodeTable[0xA2] = opcodeDef{MnMOV, tMoffs8, tRegAL, 0, 0}
	opcodeTable[0xA3] = opcodeDef{MnMOV, tMoffs16, tRegAX, 0, 0}
	opcodeTable[0xA4] = opcodeDef{MnMOVSB, tNone, tNone, 0, 0}
	opcodeTable[0xA5] = opcodeDef{MnMOVSW, tNone, tNone, 0, 0}
	opcodeTable[0xA6] = opcodeDef{MnCMPSB, tNone, tNone, 0, 0}
	opcodeTable[0xA7] = opcodeDef{MnCMPSW, tNone, tNone, 0, 0}
	opcodeTable[0xA8] = opcodeDef{MnTEST, tRegAL, tImm8, 0, 0}
	opcodeTable[0xA9] = opcodeDef{MnTEST, tRegAX, tImm16, 0, 0}
	opcodeTable[0xAA] = opcodeDef{MnSTOSB, tNone, tNone, 0, 0}
	opcodeTable[0xAB] = opcodeDef{MnSTOSW, tNone, tNone, 0, 0}
	opcodeTable[0xAC] = opcodeDef{MnLODSB, tNone, tNone, 0, 0}
	opcodeTable[0xAD] = opcodeDef{MnLODSW, tNone, tNone, 0, 0}
	opcodeTable[0xAE] = opcodeDef{MnSCASB, tNone, tNone, 0, 0}
	opcodeTable[0xAF] = opcodeDef{MnSCASW, tNone, tNone, 0, 0}

	for op := 0xB0; op <= 0xB7; op++ {
		opcodeTable[op] = opcodeDef{MnMOV, tReg8Enc, tImm8, 0, 0}
	}
	for op := 0xB8; op <= 0xBF; op++ {
		opcodeTable[op] = opcodeDef{MnMOV, tReg16Enc, tImm16, 0, 0}
	}

	opcodeTable[0xC0] = opcodeDef{MnRETN, tImm16, tNone, 0, 0} // undocumented alias
	opcodeTable[0xC1] = opcodeDef{MnRETN, tNone, tNone, 0, 0}  // undocumented alias
	opcodeTable[0xC2] = opcodeDef{MnRETN, tImm16, tNone, 0, 0}
	opcodeTable[0xC3] = opcodeDef{MnRETN, tNone, tNone, 0, 0}
	opcodeTable[0xC4] = opcodeDef{MnLES, tG16, tE16, 0, 0}
	opcodeTable[0xC5] = opcodeDef{MnLDS, tG16, tE16, 0, 0}
	opcodeTable[0xC6] = opcodeDef{MnMOV, tE8, tImm8, 0, 0}
	opcodeTable[0xC7] = opcodeDef{MnMOV, tE16, tImm16, 0, 0}
	opcodeTable[0xC8] = opcodeDef{MnRETF, tImm16, tNone, 0, 0} // undocumented alias
	opcodeTable[0xC9] = opcodeDef{MnRETF, tNone, tNone, 0, 0}  // undocumented alias
	opcodeTable[0xCA] = opcodeDef{MnRETF, tImm16, tNone, 0, 0}
	opcodeTable[0xCB] = opcodeDef{MnRETF, tNone, tNone, 0, 0}
	opcodeTable[0xCC] = opcodeDef{MnINT3, tNone, tNone, 0, 0}
	opcodeTable[0xCD] = opcodeDef{MnINT, tImm8, tNone, 0, 0}
	opcodeTable[0xCE] = opcodeDef{MnINTO, tNone, tNone, 0, 0}
	opcodeTable[0xCF] = opcodeDef{MnIRET, tNone, tNone, 0, 0}

	opcodeTable[0xD0] = opcodeDef{MnInvalid, tE8, tNone, 2, instGroupDelay}
	opcodeTable[0xD1] = opcodeDef{MnInvalid, tE16, tNone, 2, instGroupDelay}
	opcodeTable[0xD2] = opcodeDef{MnInvalid, tE8, tRegCL, 2, instGroupDelay}
	opcodeTable[0xD3] = opcodeDef{MnInvalid, tE16, tRegCL, 2, instGroupDelay}
	opcodeTable[0xD4] = opcodeDef{MnAAM, tImm8, tNone, 0, 0}
	opcodeTable[0xD5] = opcodeDef{MnAAD, tImm8, tNone, 0, 0}
	opcodeTable[0xD6] = opcodeDef{MnSALC, tNone, tNone, 0, 0}
	opcodeTable[0xD7] = opcodeDef{MnXLAT, tNone, tNone, 0, 0}
	for op := 0xD8; op <= 0xDF; op++ {
		opcodeTable[op] = opcodeDef{MnESC, tE16, tNone, 0, 0}
	}

	opcodeTable[0xE0] = opcodeDef{MnLOOPNE, tRel8, tNone, 0, 0}
	opcodeTable[0xE1] = opcodeDef{MnLOOPE, tRel8, tNone, 0, 0}
	opcodeTable[0xE2] = opcodeDef{MnLOOP, tRel8, tNone, 0, 0}
	opcodeTable[0xE3] = opcodeDef{MnJCXZ, tRel8, tNone, 0, 0}
	opcodeTable[0xE4] = opcodeDef{MnIN, tRegAL, tImm8, 0, 0}
	opcodeTable[0xE5] = opcodeDef{MnIN, tRegAX, tImm8, 0, 0}
	opcodeTable[0xE6] = opcodeDef{MnOUT, tImm8, tRegAL, 0, 0}
	opcodeTable[0xE7] = opcodeDef{MnOUT, tImm8, tRegAX, 0, 0}
	opcodeTable[0xE8] = opcodeDef{MnCALL, tRel16, tNone, 0, 0}
	opcodeTable[0xE9] = opcodeDef{MnJMP, tRel16, tNone, 0, 0}
	opcodeTable[0xEA] = opcodeDef{MnJMPF, tFarAddr, tNone, 0, 0}
	opcodeTable[0xEB] = opcodeDef{MnJMP, tRel8, tNone, 0, 0}
	opcodeTable[0xEC] = opcodeDef{MnIN, tRegAL, tRegDX, 0, 0}
	opcodeTable[0xED] = opcodeDef{MnIN, tRegAX, tRegDX, 0, 0}
	opcodeTable[0xEE] = opcodeDef{MnOUT, tRegDX, tRegAL, 0, 0}
	opcodeTable[0xEF] = opcodeDef{MnOUT, tRegDX, tRegAX, 0, 0}

	// 0xF0/F2/F3 are prefixes, consumed before dispatch. 0xF1 is a
	// one-cycle no-op on the 8088.
	opcodeTable[0xF1] = opcodeDef{MnNOP, tNone, tNone, 0, 0}
	opcodeTable[0xF4] = opcodeDef{MnHLT, tNone, tNone, 0, 0}
	opcodeTable[0xF5] = opcodeDef{MnCMC, tNone, tNone, 0, 0}
	opcodeTable[0xF6] = opcodeDef{MnInvalid, tE8, tNone, 3, instGroupDelay}
	opcodeTable[0xF7] = opcodeDef{MnInvalid, tE16, tNone, 3, instGroupDelay}
	opcodeTable[0xF8] = opcodeDef{MnCLC, tNone, tNone, 0, 0}
	opcodeTable[0xF9] = opcodeDef{MnSTC, tNone, tNone, 0, 0}
	opcodeTable[0xFA] = opcodeDef{MnCLI, tNone, tNone, 0, 0}
	opcodeTable[0xFB] = opcodeDef{MnSTI, tNone, tNone, 0, 0}
	opcodeTable[0xFC] = opcodeDef{MnCLD, tNone, tNone, 0, 0}
	opcodeTable[0xFD] = opcodeDef{MnSTD, tNone, tNone, 0, 0}
	opcodeTable[0xFE] = opcodeDef{MnInvalid, tE8, tNone, 4, instGroupDelay}
	opcodeTable[0xFF] = opcodeDef{MnInvalid, tE16, tNone, 5, instGroupDelay}
}

// Group extension mnemonics, indexed by the ModR/M reg field.
var (
	grp1Mnemonics  = [8]Mnemonic{MnADD, MnOR, MnADC, MnSBB, MnAND, MnSUB, MnXOR, MnCMP}
	grp2Mnemonics  = [8]Mnemonic{MnROL, MnROR, MnRCL, MnRCR, MnSHL, MnSHR, MnSETMO, MnSAR}
	grp3Mnemonics  = [8]Mnemonic{MnTEST, MnTEST, MnNOT, MnNEG, MnMUL, MnIMUL, MnDIV, MnIDIV}
	grp45Mnemonics = [8]Mnemonic{MnINC, MnDEC, MnCALL, MnCALLF, MnJMP, MnJMPF, MnPUSH, MnPUSH}
)

// 0x83 sign-extends its imm8; Group 1 through 0x80-0x82 does not.
// Group 3 TEST forms carry an immediate after ModR/M.

// -----------------------------------------------------------------------------
// Decode
// -----------------------------------------------------------------------------

// templateUsesModRM reports whether a template requires the ModR/M byte.
func templateUsesModRM(t opTemplate) bool {
	switch t {
	case tE8, tE16, tG8, tG16, tSreg:
		return true
	}
	return false
}

// decodeInstruction fetches and decodes one instruction at CS:IP into
// c.i. Prefix bytes are folded into the record; REP/LOCK and segment
// overrides may appear in any order and repeat.
func (c *CPU8088) decodeInstruction() {
	i := Instruction{SegmentOverride: OverrideNone}
	size := 0
	c.firstFetch = true
	c.eaDone = false

	var opcode byte
prefixScan:
	for {
		b := c.biuQueueRead()
		size++
		switch b {
		case 0x26:
			i.SegmentOverride = OverrideES
			i.Prefixes |= prefixSeg
		case 0x2E:
			i.SegmentOverride = OverrideCS
			i.Prefixes |= prefixSeg
		case 0x36:
			i.SegmentOverride = OverrideSS
			i.Prefixes |= prefixSeg
		case 0x3E:
			i.SegmentOverride = OverrideDS
			i.Prefixes |= prefixSeg
		case 0xF0:
			i.Prefixes |= prefixLock
		case 0xF2:
			i.Prefixes |= prefixRep1
		case 0xF3:
			i.Prefixes |= prefixRep2
		default:
			opcode = b
			break prefixScan
		}
	}

	i.Opcode = opcode
	def := opcodeTable[opcode]
	i.Mnemonic = def.mnemonic
	i.Flags = def.flags

	needModRM := def.group != 0 || templateUsesModRM(def.op1) || templateUsesModRM(def.op2)
	var modrm byte
	var mode AddressingMode
	modRegIsMemory := false
	if needModRM {
		modrm = c.biuQueueRead()
		size++
		mode.Mod = modrm >> 6 & 3
		mode.RM = modrm & 7
		modRegIsMemory = mode.Mod != 3

		// Displacement bytes
		switch {
		case mode.Mod == 1:
			d := c.biuQueueRead()
			size++
			mode.Disp = uint16(int16(int8(d)))
		case mode.Mod == 2 || (mode.Mod == 0 && mode.RM == 6):
			lo := c.biuQueueRead()
			hi := c.biuQueueRead()
			size += 2
			mode.Disp = uint16(lo) | uint16(hi)<<8
		}
	}

	if def.group != 0 {
		reg := modrm >> 3 & 7
		switch def.group {
		case 1:
			i.Mnemonic = grp1Mnemonics[reg]
		case 2:
			i.Mnemonic = grp2Mnemonics[reg]
		case 3:
			i.Mnemonic = grp3Mnemonics[reg]
		case 4, 5:
			i.Mnemonic = grp45Mnemonics[reg]
		}
	}

	fill := func(t opTemplate) Operand {
		switch t {
		case tNone:
			return Operand{Kind: OperandNone}
		case tE8:
			if modRegIsMemory {
				return Operand{Kind: OperandMode, Mode: mode}
			}
			return Operand{Kind: OperandReg8, Reg8: Reg8(mode.RM)}
		case tE16:
			if modRegIsMemory {
				return Operand{Kind: OperandMode, Mode: mode}
			}
			return Operand{Kind: OperandReg16, Reg16: register16LUT[mode.RM]}
		case tG8:
			return Operand{Kind: OperandReg8, Reg8: Reg8(modrm >> 3 & 7)}
		case tG16:
			return Operand{Kind: OperandReg16, Reg16: register16LUT[modrm>>3&7]}
		case tSreg:
			return Operand{Kind: OperandSegReg, SegReg: RegSegES + Reg16(modrm>>3&3)}
		case tImm8:
			v := c.biuQueueRead()
			size++
			return Operand{Kind: OperandImm8, Imm: uint16(v)}
		case tImm16:
			lo := c.biuQueueRead()
			hi := c.biuQueueRead()
			size += 2
			return Operand{Kind: OperandImm16, Imm: uint16(lo) | uint16(hi)<<8}
		case tRel8:
			v := c.biuQueueRead()
			size++
			return Operand{Kind: OperandRel8, Imm: uint16(v)}
		case tRel16:
			lo := c.biuQueueRead()
			hi := c.biuQueueRead()
			size += 2
			return Operand{Kind: OperandRel16, Imm: uint16(lo) | uint16(hi)<<8}
		case tFarAddr:
			// The four address bytes stay in the queue; the execute
			// engine consumes them (readOperandFarAddr).
			size += 4
			return Operand{Kind: OperandFarAddr}
		case tMoffs8, tMoffs16:
			lo := c.biuQueueRead()
			hi := c.biuQueueRead()
			size += 2
			k := OperandOffset8
			if t == tMoffs16 {
				k = OperandOffset16
			}
			return Operand{Kind: k, Offset: uint16(lo) | uint16(hi)<<8}
		case tRegAL:
			return Operand{Kind: OperandReg8, Reg8: RegAL}
		case tRegAX:
			return Operand{Kind: OperandReg16, Reg16: RegAX}
		case tRegCL:
			return Operand{Kind: OperandReg8, Reg8: RegCL}
		case tRegDX:
			return Operand{Kind: OperandReg16, Reg16: RegDX}
		case tReg8Enc:
			return Operand{Kind: OperandReg8, Reg8: Reg8(opcode & 7)}
		case tReg16Enc:
			return Operand{Kind: OperandReg16, Reg16: register16LUT[opcode&7]}
		case tSregEnc:
			return Operand{Kind: OperandSegReg, SegReg: RegSegES + Reg16(opcode>>3&3)}
		}
		return Operand{Kind: OperandNone}
	}

	i.Operand1 = fill(def.op1)
	i.Operand2 = fill(def.op2)

	// Group 3 TEST has an immediate operand after ModR/M.
	if def.group == 3 && i.Mnemonic == MnTEST {
		if opcode == 0xF6 {
			i.Operand2 = fill(tImm8)
		} else {
			i.Operand2 = fill(tImm16)
		}
	}

	i.Size = size
	c.i = i
}
