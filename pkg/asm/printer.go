package asm

import (
	"fmt"
	"io"
)

// Printer outputs assembly text: a section header, then one tab-indented
// instruction per line.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new assembly printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram outputs an entire program
func (p *Printer) PrintProgram(prog *Program) {
	fmt.Fprintf(p.w, "%s\n", prog.Section)

	for _, l := range prog.Code {
		p.printLine(l)
	}
}

func (p *Printer) printLine(l Line) {
	fmt.Fprintf(p.w, "\t%s", Format(l.Instr))

	if l.Comment != "" {
		fmt.Fprintf(p.w, "\t\t# %s", l.Comment)
	}

	fmt.Fprintln(p.w)
}

// Format renders an instruction without indentation or comment.
func Format(i Instruction) string {
	switch i := i.(type) {
	case LI:
		return fmt.Sprintf("li %s, %d", i.Rd, i.Imm)
	case MV:
		return fmt.Sprintf("mv %s, %s", i.Rd, i.Rs)
	case ADD:
		return rrr(i.Mnemonic(), i.Rd, i.Rn, i.Rm)
	case SUB:
		return rrr(i.Mnemonic(), i.Rd, i.Rn, i.Rm)
	case MUL:
		return rrr(i.Mnemonic(), i.Rd, i.Rn, i.Rm)
	case ADDi:
		return rri(i.Mnemonic(), i.Rd, i.Rn, i.Imm)
	case SUBi:
		return rri(i.Mnemonic(), i.Rd, i.Rn, i.Imm)
	case MULi:
		return rri(i.Mnemonic(), i.Rd, i.Rn, i.Imm)
	case nil:
		return "# <nil>"
	default:
		return fmt.Sprintf("# unknown instruction %T", i)
	}
}

func rrr(op string, rd, rn, rm Reg) string {
	return fmt.Sprintf("%s %s, %s, %s", op, rd, rn, rm)
}

func rri(op string, rd, rn Reg, imm int32) string {
	return fmt.Sprintf("%s %s, %s, %d", op, rd, rn, imm)
}
