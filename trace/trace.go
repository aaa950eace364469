// Package trace provides observability glue for the cpu package: a
// line-oriented Logger compatible with cpu.CPU.Trace, and an interactive
// bubbletea Inspector for manual single-stepping.
package trace

import (
	"fmt"
	"io"

	"cp1610/cpu"
)

// Logger returns a func(pc uint16) suitable for assignment to cpu.CPU.Trace.
// It writes one line per INSTRUCTION_FETCH naming the fetch address and the
// register/flag snapshot at that moment. c is read, never mutated.
func Logger(w io.Writer, c *cpu.CPU) func(pc uint16) {
	return func(pc uint16) {
		fmt.Fprintf(w, "fetch pc=%04x r=%04x flags=%s\n", pc, c.R, flagString(c.F))
	}
}

// UnknownOpcodeLogger returns a func(pc, opcode uint16) suitable for
// assignment to cpu.CPU.TraceUnknownOpcode, recording the fetch address and
// the opcode that failed to decode.
func UnknownOpcodeLogger(w io.Writer) func(pc, opcode uint16) {
	return func(pc, opcode uint16) {
		fmt.Fprintf(w, "unknown opcode pc=%04x opcode=%03x\n", pc, opcode&0x3FF)
	}
}

func flagString(f cpu.Flags) string {
	bit := func(set bool, ch byte) byte {
		if set {
			return ch
		}
		return '-'
	}
	return string([]byte{
		bit(f.S, 'S'),
		bit(f.C, 'C'),
		bit(f.Z, 'Z'),
		bit(f.O, 'O'),
		bit(f.I, 'I'),
		bit(f.D, 'D'),
	})
}
