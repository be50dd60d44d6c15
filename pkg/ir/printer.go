package ir

import (
	"fmt"
	"io"
)

// Printer writes the IR dump: one instruction per line, in program order.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new IR printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints every instruction of code.
func (p *Printer) PrintProgram(code []Instruction) {
	for _, instr := range code {
		p.PrintInstruction(instr)
	}
}

// PrintInstruction prints a single instruction line.
func (p *Printer) PrintInstruction(instr Instruction) {
	if instr == nil {
		fmt.Fprintln(p.w, "???")
		return
	}
	fmt.Fprintln(p.w, instr.String())
}

// PrintNumbered prints code with 1-based line numbers, the unit the
// backend measures liveness in.
func (p *Printer) PrintNumbered(code []Instruction) {
	for i, instr := range code {
		fmt.Fprintf(p.w, "%3d: ", i+1)
		p.PrintInstruction(instr)
	}
}
