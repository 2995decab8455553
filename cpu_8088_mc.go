// cpu_8088_mc.go - Microcode cycle driver
//
// The microcode line numbers traced per cycle are data, not control
// flow: they let an external validator line the emulator's T-states up
// against a dump of the real die. Values come from the annotated cycle
// calls in the execute engine; slots with no die-derived value trace
// as mcNone rather than an invented address.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

// Marker values for cycles whose microcode line is not a plain address.
const (
	mcNone uint16 = 0xFFFF // no microcode line for this cycle
	mcJump uint16 = 0xFFFE // microcode jump in progress
	mcCorr uint16 = 0xFFFD // PC correction cycle
	mcRtn  uint16 = 0xFFFC // microcode subroutine return
)

// microcodeAddress8088 maps each opcode to the microcode address its
// routine starts at, where the die dump provides one. The execute
// engine loads mcPC from this table on dispatch; cycle primitives then
// annotate individual T-states. Unfilled slots trace as mcNone.
var microcodeAddress8088 = [256]uint16{}

func init() {
	for i := range microcodeAddress8088 {
		microcodeAddress8088[i] = mcNone
	}
	// ALU r/m,r and r,r/m forms share the 0x008 routine; the
	// accumulator-immediate forms enter at 0x018.
	for _, op := range []int{
		0x00, 0x01, 0x02, 0x03, 0x08, 0x09, 0x0A, 0x0B,
		0x10, 0x11, 0x12, 0x13, 0x18, 0x19, 0x1A, 0x1B,
		0x20, 0x21, 0x22, 0x23, 0x28, 0x29, 0x2A, 0x2B,
		0x30, 0x31, 0x32, 0x33, 0x38, 0x39, 0x3A, 0x3B,
	} {
		microcodeAddress8088[op] = 0x008
	}
	for _, op := range []int{
		0x04, 0x05, 0x0C, 0x0D, 0x14, 0x15, 0x1C, 0x1D,
		0x24, 0x25, 0x2C, 0x2D, 0x34, 0x35, 0x3C, 0x3D,
	} {
		microcodeAddress8088[op] = 0x018
	}
	for _, op := range []int{0x06, 0x0E, 0x16, 0x1E} {
		microcodeAddress8088[op] = 0x02c // PUSH sreg
	}
	microcodeAddress8088[0x27] = 0x144 // DAA
	microcodeAddress8088[0x2F] = 0x144 // DAS
	for op := 0x50; op <= 0x57; op++ {
		microcodeAddress8088[op] = 0x028 // PUSH r16
	}
	for op := 0x58; op <= 0x5F; op++ {
		microcodeAddress8088[op] = 0x034 // POP r16
	}
	for op := 0x60; op <= 0x7F; op++ {
		microcodeAddress8088[op] = 0x0e9 // Jcc rel8 (0x60-6F alias)
	}
	microcodeAddress8088[0x84] = 0x094 // TEST r/m,r
	microcodeAddress8088[0x85] = 0x094
	microcodeAddress8088[0x86] = 0x084 // XCHG
	microcodeAddress8088[0x87] = 0x084
	microcodeAddress8088[0x88] = 0x000 // MOV r/m,r
	microcodeAddress8088[0x89] = 0x000
	microcodeAddress8088[0x8A] = 0x000
	microcodeAddress8088[0x8B] = 0x000
	microcodeAddress8088[0x8C] = 0x0ec // MOV r/m,sreg
	microcodeAddress8088[0x8E] = 0x0ec
	microcodeAddress8088[0x8F] = 0x040 // POP r/m
	for op := 0x90; op <= 0x97; op++ {
		microcodeAddress8088[op] = 0x084 // XCHG AX,r
	}
	microcodeAddress8088[0x9A] = 0x06b // CALLF
	microcodeAddress8088[0xA4] = 0x12c // MOVS
	microcodeAddress8088[0xA5] = 0x12c
	microcodeAddress8088[0xA6] = 0x121 // CMPS
	microcodeAddress8088[0xA7] = 0x121
	microcodeAddress8088[0xAA] = 0x11c // STOS
	microcodeAddress8088[0xAB] = 0x11c
	microcodeAddress8088[0xAC] = 0x12c // LODS
	microcodeAddress8088[0xAD] = 0x12c
	microcodeAddress8088[0xAE] = 0x121 // SCAS
	microcodeAddress8088[0xAF] = 0x121
	microcodeAddress8088[0xB0] = 0x014 // MOV r8,imm8
	for op := 0xB1; op <= 0xB7; op++ {
		microcodeAddress8088[op] = 0x014
	}
	for op := 0xB8; op <= 0xBF; op++ {
		microcodeAddress8088[op] = 0x01c // MOV r16,imm16
	}
	microcodeAddress8088[0xC0] = 0x0cc // RETN imm16 (+undoc alias)
	microcodeAddress8088[0xC2] = 0x0cc
	microcodeAddress8088[0xC1] = 0x0bd // RETN (+undoc alias)
	microcodeAddress8088[0xC3] = 0x0bd
	microcodeAddress8088[0xC7] = 0x01e // MOV r/m16,imm16
	microcodeAddress8088[0xC8] = 0x0cc // RETF imm16 (+undoc alias)
	microcodeAddress8088[0xCA] = 0x0cc
	microcodeAddress8088[0xC9] = 0x0c0 // RETF (+undoc alias)
	microcodeAddress8088[0xCB] = 0x0c0
	microcodeAddress8088[0xCC] = 0x1b0 // INT3
	microcodeAddress8088[0xD0] = 0x088 // rot/shift r/m,1
	microcodeAddress8088[0xD1] = 0x088
	microcodeAddress8088[0xD2] = 0x08c // rot/shift r/m,CL
	microcodeAddress8088[0xD3] = 0x08c
	microcodeAddress8088[0xD7] = 0x10c // XLAT
	microcodeAddress8088[0xE0] = 0x138 // LOOPNE/LOOPE
	microcodeAddress8088[0xE1] = 0x138
	microcodeAddress8088[0xE2] = 0x140 // LOOP
	microcodeAddress8088[0xE3] = 0x138 // JCXZ
	microcodeAddress8088[0xE4] = 0x0ad // IN imm8
	microcodeAddress8088[0xE5] = 0x0ad
	microcodeAddress8088[0xE6] = 0x0b1 // OUT imm8
	microcodeAddress8088[0xE7] = 0x0b1
	microcodeAddress8088[0xE8] = 0x07e // CALL rel16
	microcodeAddress8088[0xEA] = 0x0e4 // JMPF
	microcodeAddress8088[0xEE] = 0x0b8 // OUT dx
	microcodeAddress8088[0xEF] = 0x0b8
	microcodeAddress8088[0xFF] = 0x074 // Group 5
}

// setMCPC loads a microcode line without consuming a cycle.
func (c *CPU8088) setMCPC(pc uint16) {
	c.mcPC = pc
}

// nextMC advances the microcode line counter to the following line.
// Used when retiring a deferred RNI: the line after the NX-marked one.
func (c *CPU8088) nextMC() {
	if c.mcPC < mcRtn {
		c.mcPC++
	}
}

// traceComment emits a comment attached to the current T-state.
func (c *CPU8088) traceComment(s string) {
	if c.traceSink != nil {
		c.traceSink.Cycle(c.CycleTotal, c.mcPC, c.lastQueueOp, s)
	}
}
