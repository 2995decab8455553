package main

import "testing"

func newALUTestCPU() *CPU8088 {
	return NewCPU8088(NewMachineBus())
}

func TestMathOp8AddSubFlags(t *testing.T) {
	tests := []struct {
		name   string
		mn     Mnemonic
		a, b   byte
		want   byte
		cf, zf bool
		sf, of bool
		af     bool
	}{
		{"add simple", MnADD, 0x01, 0x02, 0x03, false, false, false, false, false},
		{"add carry", MnADD, 0xFF, 0x01, 0x00, true, true, false, false, true},
		{"add overflow", MnADD, 0x7F, 0x01, 0x80, false, false, true, true, true},
		{"sub borrow", MnSUB, 0x00, 0x01, 0xFF, true, false, true, false, true},
		{"sub zero", MnSUB, 0x42, 0x42, 0x00, false, true, false, false, false},
		{"sub overflow", MnSUB, 0x80, 0x01, 0x7F, false, false, false, true, true},
		{"neg", MnNEG, 0x01, 0, 0xFF, true, false, true, false, true},
		{"neg zero", MnNEG, 0x00, 0, 0x00, false, true, false, false, false},
		{"neg min", MnNEG, 0x80, 0, 0x80, true, false, true, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := newALUTestCPU()
			got := c.mathOp8(tc.mn, tc.a, tc.b)
			require8088EqualU8(t, "result", got, tc.want)
			require8088Flag(t, c, cpuFlagCF, "CF", tc.cf)
			require8088Flag(t, c, cpuFlagZF, "ZF", tc.zf)
			require8088Flag(t, c, cpuFlagSF, "SF", tc.sf)
			require8088Flag(t, c, cpuFlagOF, "OF", tc.of)
			require8088Flag(t, c, cpuFlagAF, "AF", tc.af)
		})
	}
}

func TestMathOp8AdcSbbUseCarry(t *testing.T) {
	c := newALUTestCPU()
	c.setFlag(cpuFlagCF)
	got := c.mathOp8(MnADC, 0xFF, 0x00)
	require8088EqualU8(t, "adc", got, 0x00)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
	require8088Flag(t, c, cpuFlagZF, "ZF", true)

	c = newALUTestCPU()
	c.setFlag(cpuFlagCF)
	got = c.mathOp8(MnSBB, 0x00, 0x00)
	require8088EqualU8(t, "sbb", got, 0xFF)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
}

// Logical operations clear CF, OF and AF on the 8088.
func TestMathOpLogicalsClearAF(t *testing.T) {
	c := newALUTestCPU()
	c.setFlag(cpuFlagAF)
	c.setFlag(cpuFlagCF)
	c.setFlag(cpuFlagOF)
	got := c.mathOp8(MnAND, 0xF0, 0x3C)
	require8088EqualU8(t, "and", got, 0x30)
	require8088Flag(t, c, cpuFlagAF, "AF", false)
	require8088Flag(t, c, cpuFlagCF, "CF", false)
	require8088Flag(t, c, cpuFlagOF, "OF", false)
}

// INC and DEC preserve CF.
func TestIncDecPreserveCarry(t *testing.T) {
	c := newALUTestCPU()
	c.setFlag(cpuFlagCF)
	c.mathOp16(MnINC, 0x7FFF, 0)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
	require8088Flag(t, c, cpuFlagOF, "OF", true)

	c.mathOp16(MnDEC, 0x8000, 0)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
	require8088Flag(t, c, cpuFlagOF, "OF", true)
}

func TestMul8FlagsAndNegate(t *testing.T) {
	c := newALUTestCPU()
	p := c.mul8(0x10, 0x10, false, false)
	require8088EqualU16(t, "product", p, 0x0100)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
	require8088Flag(t, c, cpuFlagOF, "OF", true)

	p = c.mul8(0x02, 0x03, false, false)
	require8088EqualU16(t, "product", p, 0x0006)
	require8088Flag(t, c, cpuFlagCF, "CF", false)

	// The REP quirk: product is two's-complemented.
	p = c.mul8(0x03, 0x04, false, true)
	require8088EqualU16(t, "negated product", p, 0xFFF4)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
	require8088Flag(t, c, cpuFlagOF, "OF", true)
}

func TestMul16SignedFlags(t *testing.T) {
	c := newALUTestCPU()
	hi, lo := c.mul16(0xFFFF, 0x0002, true, false) // -1 * 2
	require8088EqualU16(t, "hi", hi, 0xFFFF)
	require8088EqualU16(t, "lo", lo, 0xFFFE)
	// Product fits in 16 signed bits: CF/OF clear.
	require8088Flag(t, c, cpuFlagCF, "CF", false)

	hi, lo = c.mul16(0x4000, 0x0004, true, false)
	require8088EqualU16(t, "hi", hi, 0x0001)
	require8088EqualU16(t, "lo", lo, 0x0000)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
}

func TestDiv8(t *testing.T) {
	c := newALUTestCPU()
	al, ah, ok := c.div8(0x000D, 0x03, false, false)
	if !ok {
		t.Fatal("unexpected divide error")
	}
	require8088EqualU8(t, "quotient", al, 4)
	require8088EqualU8(t, "remainder", ah, 1)

	// Divisor zero traps.
	if _, _, ok := c.div8(0x0001, 0x00, false, false); ok {
		t.Fatal("divide by zero did not trap")
	}
	// Quotient overflow traps.
	if _, _, ok := c.div8(0x1000, 0x02, false, false); ok {
		t.Fatal("quotient overflow did not trap")
	}
	// Signed range.
	if _, _, ok := c.div8(0x8000, 0xFF, true, false); ok {
		t.Fatal("signed overflow did not trap")
	}
}

func TestDiv16Negate(t *testing.T) {
	c := newALUTestCPU()
	q, rem, ok := c.div16(0x0000000D, 0x0003, false, true)
	if !ok {
		t.Fatal("unexpected divide error")
	}
	require8088EqualU16(t, "quotient", q, 0xFFFC) // -(13/3)
	require8088EqualU16(t, "remainder", rem, 1)
}

func TestShiftByZeroSetsNoFlags(t *testing.T) {
	c := newALUTestCPU()
	c.storeFlags(cpuFlagCF | cpuFlagOF | cpuFlagSF)
	before := c.Flags
	got := c.bitshiftOp8(MnSHL, 0x81, 0)
	require8088EqualU8(t, "value", got, 0x81)
	require8088EqualU16(t, "flags", c.Flags, before)
}

func TestShiftAndRotate8(t *testing.T) {
	c := newALUTestCPU()

	got := c.bitshiftOp8(MnSHL, 0x81, 1)
	require8088EqualU8(t, "shl", got, 0x02)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
	require8088Flag(t, c, cpuFlagOF, "OF", true) // sign changed

	got = c.bitshiftOp8(MnSHR, 0x81, 1)
	require8088EqualU8(t, "shr", got, 0x40)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
	require8088Flag(t, c, cpuFlagOF, "OF", true)

	got = c.bitshiftOp8(MnSAR, 0x81, 1)
	require8088EqualU8(t, "sar", got, 0xC0)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
	require8088Flag(t, c, cpuFlagOF, "OF", false)

	got = c.bitshiftOp8(MnROL, 0x81, 1)
	require8088EqualU8(t, "rol", got, 0x03)
	require8088Flag(t, c, cpuFlagCF, "CF", true)

	got = c.bitshiftOp8(MnROR, 0x01, 1)
	require8088EqualU8(t, "ror", got, 0x80)
	require8088Flag(t, c, cpuFlagCF, "CF", true)

	c.clearFlag(cpuFlagCF)
	got = c.bitshiftOp8(MnRCL, 0x80, 1)
	require8088EqualU8(t, "rcl", got, 0x00)
	require8088Flag(t, c, cpuFlagCF, "CF", true)

	c.setFlag(cpuFlagCF)
	got = c.bitshiftOp8(MnRCR, 0x00, 1)
	require8088EqualU8(t, "rcr", got, 0x80)
	require8088Flag(t, c, cpuFlagCF, "CF", false)
}

// The undocumented /6 form forces all ones.
func TestSETMO(t *testing.T) {
	c := newALUTestCPU()
	got := c.bitshiftOp8(MnSETMO, 0x12, 1)
	require8088EqualU8(t, "setmo", got, 0xFF)
	require8088Flag(t, c, cpuFlagCF, "CF", false)
	require8088Flag(t, c, cpuFlagSF, "SF", true)

	got16 := c.bitshiftOp16(MnSETMO, 0x1234, 1)
	require8088EqualU16(t, "setmo16", got16, 0xFFFF)
}

func TestRotateFullCircle(t *testing.T) {
	c := newALUTestCPU()
	got := c.bitshiftOp8(MnROL, 0x5A, 8)
	require8088EqualU8(t, "rol by 8", got, 0x5A)
	got16 := c.bitshiftOp16(MnROR, 0xBEEF, 16)
	require8088EqualU16(t, "ror by 16", got16, 0xBEEF)
}

func TestDAA(t *testing.T) {
	tests := []struct {
		al     byte
		cf, af bool
		want   byte
		wantCF bool
	}{
		{0x0F, false, false, 0x15, false},
		{0x9A, false, false, 0x00, true},
		{0x42, false, false, 0x42, false},
		{0x42, true, false, 0xA2, true},
	}
	for _, tc := range tests {
		c := newALUTestCPU()
		c.SetAL(tc.al)
		c.setFlagState(cpuFlagCF, tc.cf)
		c.setFlagState(cpuFlagAF, tc.af)
		c.daa()
		require8088EqualU8(t, "AL", c.AL(), tc.want)
		require8088Flag(t, c, cpuFlagCF, "CF", tc.wantCF)
	}
}

func TestAAAAndAAS(t *testing.T) {
	c := newALUTestCPU()
	c.AX = 0x000B // AL=0x0B: needs adjust
	c.aaa()
	require8088EqualU16(t, "AX", c.AX, 0x0101)
	require8088Flag(t, c, cpuFlagCF, "CF", true)
	require8088Flag(t, c, cpuFlagAF, "AF", true)

	c = newALUTestCPU()
	c.AX = 0x0203
	c.aas()
	require8088EqualU16(t, "AX", c.AX, 0x0203)
	require8088Flag(t, c, cpuFlagCF, "CF", false)
}

// AAM takes its base from the instruction byte and traps on zero.
func TestAAMArbitraryBase(t *testing.T) {
	c := newALUTestCPU()
	c.SetAL(0x3F)
	if !c.aam(16) {
		t.Fatal("unexpected divide error")
	}
	require8088EqualU8(t, "AH", c.AH(), 0x03)
	require8088EqualU8(t, "AL", c.AL(), 0x0F)

	if c.aam(0) {
		t.Fatal("aam base 0 did not trap")
	}
}

func TestAADArbitraryBase(t *testing.T) {
	c := newALUTestCPU()
	c.SetAH(0x03)
	c.SetAL(0x05)
	c.aad(16)
	require8088EqualU16(t, "AX", c.AX, 0x0035)
	require8088Flag(t, c, cpuFlagZF, "ZF", false)
}
