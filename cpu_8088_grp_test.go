package main

import "testing"

// Scenario: SHL AX,CL with CL=255. The 8088 has no count mask; every
// iteration costs four T-states on top of the CL=0 baseline.
func TestShiftByCL255CyclesAndResult(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0xD3, 0xE0}) // SHL AX,CL
	r.cpu.AX = 0x0001
	r.cpu.SetCL(0)
	r.step()
	base := r.cpu.InstructionCycles()
	require8088EqualU16(t, "AX", r.cpu.AX, 0x0001)

	r.resetAndLoad(0x0000, 0x0100, []byte{0xD3, 0xE0})
	r.cpu.AX = 0x0001
	r.cpu.SetCL(0xFF)
	r.step()
	withCount := r.cpu.InstructionCycles()

	require8088EqualU16(t, "AX", r.cpu.AX, 0x0000)
	require8088Flag(t, r.cpu, cpuFlagCF, "CF", false)
	if got := withCount - base; got != 4*255 {
		t.Fatalf("per-iteration cycles = %d total, want %d", got, 4*255)
	}
}

// Scenario: MUL BL with a REP prefix negates the product.
func TestMulWithRepNegates(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0xF3, 0xF6, 0xE3}) // REP MUL BL
	r.cpu.SetAL(0x03)
	r.cpu.SetBL(0x04)

	res := r.step()

	require8088Result(t, res, ResultOkay)
	require8088EqualU16(t, "AX", r.cpu.AX, 0xFFF4)
	require8088Flag(t, r.cpu, cpuFlagSF, "SF", true)
	require8088Flag(t, r.cpu, cpuFlagZF, "ZF", false)
	require8088Flag(t, r.cpu, cpuFlagCF, "CF", true)
	require8088Flag(t, r.cpu, cpuFlagOF, "OF", true)
	require8088EqualU16(t, "IP", r.cpu.IP, 0x0103)
}

// DIV by zero surfaces as a DivideError result; the runner turns it
// into INT 0.
func TestDivideErrorDelivery(t *testing.T) {
	runner := NewCPU8088Runner(CPU8088Config{EntryCS: 0x0000, EntryIP: 0x0100})
	runner.LoadProgram([]byte{0xF6, 0xF3}) // DIV BL
	cpu := runner.CPU()
	cpu.SS = 0x0300
	cpu.SP = 0x0100
	cpu.SetBL(0)
	runner.Bus().SetVector(0, 0x0500, 0x0000)

	res := runner.Step()

	require8088Result(t, res, ResultDivideError)
	require8088EqualU16(t, "CS", cpu.CS, 0x0500)
	require8088EqualU16(t, "IP", cpu.IP, 0x0000)
	// The pushed return address points past the divide.
	addr := calcLinearAddress(0x0300, 0x00FA)
	got := uint16(runner.Bus().ReadU8(addr)) | uint16(runner.Bus().ReadU8(addr+1))<<8
	require8088EqualU16(t, "pushed IP", got, 0x0102)
}

func TestIDiv16(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0xF7, 0xFB}) // IDIV BX
	r.cpu.DX = 0xFFFF
	r.cpu.AX = 0xFFF9 // DX:AX = -7
	r.cpu.BX = 0x0002

	require8088Result(t, r.step(), ResultOkay)
	require8088EqualU16(t, "AX", r.cpu.AX, 0xFFFD) // -3
	require8088EqualU16(t, "DX", r.cpu.DX, 0xFFFF) // -1
}

func TestGrp1SignExtendedImmediate(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0x83, 0xC3, 0xFF}) // ADD BX,-1
	r.cpu.BX = 0x0005

	r.step()
	require8088EqualU16(t, "BX", r.cpu.BX, 0x0004)
}

func TestGrp1MemoryDestination(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0x81, 0x0E, 0x00, 0x02, 0x0F, 0xF0}) // OR word [0200],F00F
	r.bus.WriteU8(0x0200, 0xF0)
	r.bus.WriteU8(0x0201, 0x0F)

	r.step()
	got := uint16(r.bus.ReadU8(0x0200)) | uint16(r.bus.ReadU8(0x0201))<<8
	require8088EqualU16(t, "[0200]", got, 0xFFFF)
}

func TestGrp3NotAndNeg(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0xF7, 0xD0, 0xF7, 0xD8}) // NOT AX / NEG AX
	r.cpu.AX = 0x00FF

	r.step()
	require8088EqualU16(t, "AX", r.cpu.AX, 0xFF00)
	r.step()
	require8088EqualU16(t, "AX", r.cpu.AX, 0x0100)
	require8088Flag(t, r.cpu, cpuFlagCF, "CF", true)
}

func TestGrp3TestImmediate(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0xF6, 0xC0, 0x80}) // TEST AL,80h
	r.cpu.SetAL(0x81)

	r.step()
	require8088Flag(t, r.cpu, cpuFlagZF, "ZF", false)
	require8088Flag(t, r.cpu, cpuFlagSF, "SF", true)
	require8088EqualU8(t, "AL", r.cpu.AL(), 0x81) // unchanged
	require8088EqualU16(t, "IP", r.cpu.IP, 0x0103)
}

func TestGrp5IndirectCallThroughMemory(t *testing.T) {
	r := newCPU8088TestRig()
	prog := make([]byte, 0x40)
	copy(prog, []byte{0xFF, 0x16, 0x20, 0x01}) // CALL word [0120]
	prog[0x20] = 0x30                          // target 0130
	prog[0x21] = 0x01
	prog[0x30] = 0xC3 // RET
	r.resetAndLoad(0x0000, 0x0100, prog)
	r.cpu.SS = 0x0300
	r.cpu.SP = 0x0100

	require8088Result(t, r.step(), ResultOkayJump)
	require8088EqualU16(t, "IP", r.cpu.IP, 0x0130)
	require8088EqualU16(t, "pushed ret", r.stackU16(0x00FE), 0x0104)

	require8088Result(t, r.step(), ResultOkayJump)
	require8088EqualU16(t, "IP", r.cpu.IP, 0x0104)
}

// Group 5 PUSH r/m16 shares the PUSH SP quirk.
func TestGrp5PushSPQuirk(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0xFF, 0xF4}) // PUSH SP (FF /6)
	r.cpu.SS = 0x0300
	r.cpu.SP = 0x0100

	r.step()
	require8088EqualU16(t, "SP", r.cpu.SP, 0x00FE)
	require8088EqualU16(t, "stack word", r.stackU16(0x00FE), 0x00FE)
}

// The undocumented FE /2 register form: one byte of the return
// address is pushed, and IP takes the full 16-bit register.
func TestGrp4UndocumentedCallRegister(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0xFE, 0xD3}) // FE /2 reg=BL
	r.cpu.SS = 0x0300
	r.cpu.SP = 0x0100
	r.cpu.BX = 0x0180

	res := r.step()

	require8088Result(t, res, ResultOkayJump)
	require8088EqualU16(t, "IP", r.cpu.IP, 0x0180)
	require8088EqualU16(t, "SP", r.cpu.SP, 0x00FE)
	// Only the low byte of the return address hit the stack.
	require8088EqualU8(t, "stack lo", r.bus.ReadU8(calcLinearAddress(0x0300, 0x00FE)), 0x02)
	require8088EqualU8(t, "stack hi", r.bus.ReadU8(calcLinearAddress(0x0300, 0x00FF)), 0x00)
}

// The undocumented FE /5 register form reads DS:0004 and discards the
// value; the bus traffic is the observable effect.
func TestGrp4JmpfRegisterReadsDS0004(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0xFE, 0xEB}) // FE /5 reg=BL
	r.cpu.DS = 0x0400
	r.cpu.BX = 0x0150
	r.bus.WriteU8(calcLinearAddress(0x0400, 0x0004), 0x99)

	res := r.step()

	require8088Result(t, res, ResultOkayJump)
	require8088EqualU16(t, "IP", r.cpu.IP, 0x0150)
	// CS untouched, value discarded.
	require8088EqualU16(t, "CS", r.cpu.CS, 0x0000)
}

// The FE /4 memory form masks the jump target into FF00|ptr8.
func TestGrp4JmpMemoryMasksTarget(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{0xFE, 0x26, 0x00, 0x02}) // FE /4 [0200]
	r.bus.WriteU8(0x0200, 0x34)

	res := r.step()

	require8088Result(t, res, ResultOkayJump)
	require8088EqualU16(t, "IP", r.cpu.IP, 0xFF34)
}

func TestGrp45IncDec(t *testing.T) {
	r := newCPU8088TestRig()
	r.resetAndLoad(0x0000, 0x0100, []byte{
		0xFE, 0xC4, // INC AH
		0xFF, 0x0E, 0x00, 0x02, // DEC word [0200]
	})
	r.cpu.SetAH(0x7F)
	r.bus.WriteU8(0x0200, 0x00)
	r.bus.WriteU8(0x0201, 0x01)

	r.step()
	require8088EqualU8(t, "AH", r.cpu.AH(), 0x80)
	require8088Flag(t, r.cpu, cpuFlagOF, "OF", true)

	r.step()
	got := uint16(r.bus.ReadU8(0x0200)) | uint16(r.bus.ReadU8(0x0201))<<8
	require8088EqualU16(t, "[0200]", got, 0x00FF)
}
