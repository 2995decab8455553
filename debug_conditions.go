// debug_conditions.go - Breakpoint condition parser and evaluator for
// the machine monitor
//
// Two condition styles: simple comparisons and Lua expressions.
// Comparisons cover the common cases without ceremony:
//
//	ax==$FF        - register AX, op ==, value 0xFF
//	[$1000]==$42   - memory at linear 0x1000, op ==, value 0x42
//	hitcount>10    - hit count, op >, value 10
//
// Anything prefixed with "lua:" is compiled as a Lua expression with
// the register file exposed as globals, e.g.
//
//	lua: ax == 0x1234 and cx > 0
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"fmt"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// ConditionOp is a comparison operator in a breakpoint condition.
type ConditionOp int

const (
	CondOpEqual ConditionOp = iota
	CondOpNotEqual
	CondOpLess
	CondOpGreater
	CondOpLessEqual
	CondOpGreaterEqual
)

// ConditionKind selects the left-hand side of a comparison.
type ConditionKind int

const (
	CondRegister ConditionKind = iota
	CondMemory
	CondHitCount
	CondLua
)

// BreakpointCondition is one parsed condition.
type BreakpointCondition struct {
	Kind     ConditionKind
	Register string
	Address  uint32
	Op       ConditionOp
	Value    uint64
	Source   string

	luaState *lua.LState
	luaFn    *lua.LFunction
}

// ParseAddress parses a $- or 0x-prefixed hex number, or plain decimal.
func ParseAddress(text string) (uint64, bool) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "$") {
		v, err := strconv.ParseUint(text[1:], 16, 64)
		return v, err == nil
	}
	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		v, err := strconv.ParseUint(text[2:], 16, 64)
		return v, err == nil
	}
	v, err := strconv.ParseUint(text, 10, 64)
	return v, err == nil
}

// ParseCondition parses a condition string into a BreakpointCondition.
func ParseCondition(text string) (*BreakpointCondition, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("empty condition")
	}

	if rest, ok := strings.CutPrefix(text, "lua:"); ok {
		return compileLuaCondition(strings.TrimSpace(rest))
	}

	// Find operator
	var op ConditionOp
	var opStr string
	var opIdx int

	for _, candidate := range []string{"==", "!=", "<=", ">=", "<", ">"} {
		idx := strings.Index(text, candidate)
		if idx >= 0 {
			opStr = candidate
			opIdx = idx
			break
		}
	}

	if opStr == "" {
		return nil, fmt.Errorf("no operator found (use ==, !=, <, >, <=, >=)")
	}

	switch opStr {
	case "==":
		op = CondOpEqual
	case "!=":
		op = CondOpNotEqual
	case "<":
		op = CondOpLess
	case ">":
		op = CondOpGreater
	case "<=":
		op = CondOpLessEqual
	case ">=":
		op = CondOpGreaterEqual
	}

	lhs := strings.TrimSpace(text[:opIdx])
	rhs := strings.TrimSpace(text[opIdx+len(opStr):])

	value, ok := ParseAddress(rhs)
	if !ok {
		return nil, fmt.Errorf("invalid value: %s", rhs)
	}

	cond := &BreakpointCondition{Op: op, Value: value, Source: text}

	// Memory dereference: [$1000]
	if strings.HasPrefix(lhs, "[") && strings.HasSuffix(lhs, "]") {
		addr, ok := ParseAddress(lhs[1 : len(lhs)-1])
		if !ok {
			return nil, fmt.Errorf("invalid memory address: %s", lhs)
		}
		cond.Kind = CondMemory
		cond.Address = uint32(addr)
		return cond, nil
	}

	// Hit count
	if strings.EqualFold(lhs, "hitcount") {
		cond.Kind = CondHitCount
		return cond, nil
	}

	// Register name
	cond.Kind = CondRegister
	cond.Register = strings.ToUpper(lhs)
	return cond, nil
}

// compileLuaCondition compiles "return (<expr>)" once; evaluation just
// rebinds the register globals and calls the chunk.
func compileLuaCondition(expr string) (*BreakpointCondition, error) {
	ls := lua.NewState(lua.Options{SkipOpenLibs: true})
	fn, err := ls.LoadString("return (" + expr + ")")
	if err != nil {
		ls.Close()
		return nil, fmt.Errorf("lua condition: %w", err)
	}
	return &BreakpointCondition{
		Kind:     CondLua,
		Source:   expr,
		luaState: ls,
		luaFn:    fn,
	}, nil
}

// Close releases the Lua state of a lua condition.
func (bc *BreakpointCondition) Close() {
	if bc.luaState != nil {
		bc.luaState.Close()
		bc.luaState = nil
	}
}

// compare applies the condition's operator.
func (bc *BreakpointCondition) compare(lhs uint64) bool {
	switch bc.Op {
	case CondOpEqual:
		return lhs == bc.Value
	case CondOpNotEqual:
		return lhs != bc.Value
	case CondOpLess:
		return lhs < bc.Value
	case CondOpGreater:
		return lhs > bc.Value
	case CondOpLessEqual:
		return lhs <= bc.Value
	case CondOpGreaterEqual:
		return lhs >= bc.Value
	}
	return false
}

// Evaluate tests the condition against current CPU state. A nil
// condition is unconditional.
func (bc *BreakpointCondition) Evaluate(dbg *Debug8088, hitCount uint64) bool {
	if bc == nil {
		return true
	}
	switch bc.Kind {
	case CondRegister:
		v, ok := dbg.GetRegisterValue(bc.Register)
		if !ok {
			return false // unknown register - don't fire
		}
		return bc.compare(v)
	case CondMemory:
		return bc.compare(uint64(dbg.bus.ReadU8(bc.Address)))
	case CondHitCount:
		return bc.compare(hitCount)
	case CondLua:
		return bc.evaluateLua(dbg)
	}
	return false
}

// evaluateLua binds the register file as Lua globals and runs the
// compiled expression. A runtime error counts as "no match".
func (bc *BreakpointCondition) evaluateLua(dbg *Debug8088) bool {
	ls := bc.luaState
	for _, r := range dbg.GetRegisters() {
		ls.SetGlobal(strings.ToLower(r.Name), lua.LNumber(r.Value))
	}
	for _, name := range []string{"al", "ah", "bl", "bh", "cl", "ch", "dl", "dh"} {
		if v, ok := dbg.GetRegisterValue(name); ok {
			ls.SetGlobal(name, lua.LNumber(v))
		}
	}
	ls.Push(bc.luaFn)
	if err := ls.PCall(0, 1, nil); err != nil {
		return false
	}
	ret := ls.Get(-1)
	ls.Pop(1)
	return lua.LVAsBool(ret)
}

// ConditionalBreakpoint pairs a code address with an optional condition.
type ConditionalBreakpoint struct {
	Address   CPUAddress
	Condition *BreakpointCondition
	HitCount  uint64
	Enabled   bool
}

// ShouldBreak tests the breakpoint against the current CPU state,
// bumping the hit counter on an address match.
func (cb *ConditionalBreakpoint) ShouldBreak(dbg *Debug8088) bool {
	if !cb.Enabled {
		return false
	}
	if dbg.cpu.CS != cb.Address.CS || dbg.cpu.IP != cb.Address.IP {
		return false
	}
	cb.HitCount++
	return cb.Condition.Evaluate(dbg, cb.HitCount)
}
