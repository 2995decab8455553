// trace.go - Per-cycle trace sink for the 8088 core
//
// The core annotates every T-state with the microcode line it retired
// and an optional comment. An external validator compares these against
// a real-die microcode dump, so the sink receives raw values untouched.
//
// (c) 2024-2026 Zayn Otley - GPLv3 or later

package main

import (
	"fmt"
	"strings"
)

// TraceSink receives one record per T-state. Implementations must not
// retain the comment string across calls if they care about allocs;
// the core may reuse it.
type TraceSink interface {
	Cycle(tstate uint64, mcPC uint16, queueOp QueueOp, comment string)
}

// TraceLog is a bounded in-memory TraceSink used by tests and the
// "run --trace" command.
type TraceLog struct {
	Lines []string
	Limit int
}

// NewTraceLog creates a trace log retaining at most limit lines
// (0 = unlimited).
func NewTraceLog(limit int) *TraceLog {
	return &TraceLog{Limit: limit}
}

// Cycle implements TraceSink.
func (t *TraceLog) Cycle(tstate uint64, mcPC uint16, queueOp QueueOp, comment string) {
	if t.Limit > 0 && len(t.Lines) >= t.Limit {
		return
	}
	var mc string
	switch mcPC {
	case mcNone:
		mc = "...."
	case mcJump:
		mc = "JMP "
	case mcCorr:
		mc = "CORR"
	case mcRtn:
		mc = "RTN "
	default:
		mc = fmt.Sprintf("%03x ", mcPC)
	}
	var q string
	switch queueOp {
	case QueueOpFirst:
		q = "F"
	case QueueOpSubs:
		q = "S"
	case QueueOpFlush:
		q = "E"
	default:
		q = "-"
	}
	line := fmt.Sprintf("%08d %s %s", tstate, mc, q)
	if comment != "" {
		line += " ; " + comment
	}
	t.Lines = append(t.Lines, line)
}

// String renders the captured trace.
func (t *TraceLog) String() string {
	return strings.Join(t.Lines, "\n")
}
