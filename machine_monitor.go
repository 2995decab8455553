// machine_monitor.go - Interactive machine monitor
//
// A small terminal-mode monitor over the 8088 core: single-key
// stepping with raw stdin, plus colon commands for breakpoints,
// memory dumps and run-to. Breakpoint conditions use the parser in
// debug_conditions.go, including lua: expressions.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// MachineMonitor drives a runner interactively.
type MachineMonitor struct {
	runner      *CPU8088Runner
	dbg         *Debug8088
	breakpoints []*ConditionalBreakpoint

	fd           int
	oldTermState *term.State
	out          *bufio.Writer
}

// NewMachineMonitor wraps a runner for interactive use.
func NewMachineMonitor(runner *CPU8088Runner) *MachineMonitor {
	return &MachineMonitor{
		runner: runner,
		dbg:    NewDebug8088(runner.CPU(), runner.Bus()),
		out:    bufio.NewWriter(os.Stdout),
	}
}

// Run enters the monitor loop. Keys: s = step, r = registers,
// c = continue to breakpoint/halt, : = command line, q = quit.
func (m *MachineMonitor) Run() error {
	m.fd = int(os.Stdin.Fd())
	if !term.IsTerminal(m.fd) {
		return fmt.Errorf("monitor requires a terminal")
	}

	// Raw mode disables OS echo and line buffering for single-key
	// stepping; restored on exit.
	oldState, err := term.MakeRaw(m.fd)
	if err != nil {
		return fmt.Errorf("raw mode: %w", err)
	}
	m.oldTermState = oldState
	defer term.Restore(m.fd, m.oldTermState)

	m.printLine("8088 monitor - s step, r regs, c continue, : command, q quit")
	m.printLine(m.dbg.StateLine())

	buf := make([]byte, 1)
	for {
		m.out.Flush()
		if _, err := os.Stdin.Read(buf); err != nil {
			return err
		}
		switch buf[0] {
		case 'q', 0x03: // q or ctrl-c
			m.printLine("bye")
			m.out.Flush()
			return nil
		case 's', ' ':
			res := m.runner.Step()
			m.printLine(fmt.Sprintf("%s  (%d cycles, %v)",
				m.dbg.StateLine(), m.runner.CPU().InstructionCycles(), res))
		case 'r':
			m.printRegisters()
		case 'c':
			m.continueRun()
		case ':':
			m.commandLine()
		}
	}
}

// continueRun executes until a breakpoint fires or the CPU halts.
func (m *MachineMonitor) continueRun() {
	for {
		res := m.runner.Step()
		if res == ResultHalt {
			m.printLine("halted (IF=0)")
			return
		}
		for _, bp := range m.breakpoints {
			if bp.ShouldBreak(m.dbg) {
				m.printLine(fmt.Sprintf("breakpoint at %04X:%04X (hit %d)",
					bp.Address.CS, bp.Address.IP, bp.HitCount))
				m.printLine(m.dbg.StateLine())
				return
			}
		}
	}
}

// commandLine reads one colon command in cooked mode.
func (m *MachineMonitor) commandLine() {
	term.Restore(m.fd, m.oldTermState)
	defer func() {
		// Back to raw for single-key stepping; old state already saved.
		_, _ = term.MakeRaw(m.fd)
	}()

	fmt.Print(":")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return
	}
	fields := strings.Fields(strings.TrimSpace(line))
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "b", "break":
		m.cmdBreak(fields[1:])
	case "m", "mem":
		m.cmdMem(fields[1:])
	case "so", "stepover":
		m.cmdStepOver()
	default:
		m.printLine("commands: b <seg:off> [cond], m <linear> [len], so")
	}
}

// cmdBreak sets a breakpoint: b CS:IP [condition...]
func (m *MachineMonitor) cmdBreak(args []string) {
	if len(args) == 0 {
		for _, bp := range m.breakpoints {
			m.printLine(fmt.Sprintf("  %04X:%04X hits=%d cond=%q",
				bp.Address.CS, bp.Address.IP, bp.HitCount, condSource(bp.Condition)))
		}
		return
	}
	segOff := strings.SplitN(args[0], ":", 2)
	if len(segOff) != 2 {
		m.printLine("usage: b CS:IP [condition]")
		return
	}
	seg, ok1 := ParseAddress("$" + segOff[0])
	off, ok2 := ParseAddress("$" + segOff[1])
	if !ok1 || !ok2 {
		m.printLine("bad address")
		return
	}
	bp := &ConditionalBreakpoint{
		Address: CPUAddress{CS: uint16(seg), IP: uint16(off)},
		Enabled: true,
	}
	if len(args) > 1 {
		cond, err := ParseCondition(strings.Join(args[1:], " "))
		if err != nil {
			m.printLine(err.Error())
			return
		}
		bp.Condition = cond
	}
	m.breakpoints = append(m.breakpoints, bp)
	m.printLine(fmt.Sprintf("breakpoint %d set", len(m.breakpoints)))
}

// cmdMem dumps memory: m <linear> [len]
func (m *MachineMonitor) cmdMem(args []string) {
	if len(args) == 0 {
		m.printLine("usage: m <linear> [len]")
		return
	}
	addr, ok := ParseAddress(args[0])
	if !ok {
		m.printLine("bad address")
		return
	}
	length := 64
	if len(args) > 1 {
		if n, ok := ParseAddress(args[1]); ok {
			length = int(n)
		}
	}
	data := m.dbg.ReadMemory(uint32(addr), length)
	for i := 0; i < len(data); i += 16 {
		end := i + 16
		if end > len(data) {
			end = len(data)
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "%05X  ", uint32(addr)+uint32(i))
		for _, b := range data[i:end] {
			fmt.Fprintf(&sb, "%02X ", b)
		}
		m.printLine(sb.String())
	}
}

// cmdStepOver runs to the shadow return address of the last CALL/INT.
func (m *MachineMonitor) cmdStepOver() {
	cpu := m.runner.CPU()
	m.runner.Step()
	target, ok := cpu.StepOverTarget()
	if !ok {
		m.printLine(m.dbg.StateLine())
		return
	}
	for cpu.CS != target.CS || cpu.IP != target.IP {
		if m.runner.Step() == ResultHalt {
			m.printLine("halted (IF=0)")
			return
		}
	}
	m.printLine(m.dbg.StateLine())
}

func (m *MachineMonitor) printRegisters() {
	for _, r := range m.dbg.GetRegisters() {
		m.printLine(fmt.Sprintf("  %-2s %0*X  (%s)", r.Name, r.BitWidth/4, r.Value, r.Group))
	}
	m.printLine("  flags " + m.dbg.FlagString())
	m.printLine("  queue " + m.dbg.QueueString())
}

// printLine writes with explicit CRLF; raw mode does not translate.
func (m *MachineMonitor) printLine(s string) {
	m.out.WriteString(s)
	m.out.WriteString("\r\n")
}

func condSource(c *BreakpointCondition) string {
	if c == nil {
		return ""
	}
	return c.Source
}
