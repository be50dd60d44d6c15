// Package asm defines the RISC-style assembly representation.
// This is the final output of the compiler.
//
// The immediate forms addi, subi and muli are this target's own encoding;
// subi and muli are not base RISC-V mnemonics.
package asm

// Reg is a physical register name, such as "t0" or "a0".
type Reg string

// --- Instruction Interface ---

// Instruction is the interface for target instructions
type Instruction interface {
	implInstruction()
	Mnemonic() string
}

// LI - Load immediate
type LI struct {
	Rd  Reg
	Imm int32
}

// MV - Register move
type MV struct {
	Rd, Rs Reg
}

// --- Arithmetic ---

// ADD - Add
type ADD struct {
	Rd, Rn, Rm Reg
}

// ADDi - Add immediate
type ADDi struct {
	Rd, Rn Reg
	Imm    int32
}

// SUB - Subtract
type SUB struct {
	Rd, Rn, Rm Reg
}

// SUBi - Subtract immediate
type SUBi struct {
	Rd, Rn Reg
	Imm    int32
}

// MUL - Multiply
type MUL struct {
	Rd, Rn, Rm Reg
}

// MULi - Multiply immediate
type MULi struct {
	Rd, Rn Reg
	Imm    int32
}

func (LI) implInstruction()   {}
func (MV) implInstruction()   {}
func (ADD) implInstruction()  {}
func (ADDi) implInstruction() {}
func (SUB) implInstruction()  {}
func (SUBi) implInstruction() {}
func (MUL) implInstruction()  {}
func (MULi) implInstruction() {}

func (LI) Mnemonic() string   { return "li" }
func (MV) Mnemonic() string   { return "mv" }
func (ADD) Mnemonic() string  { return "add" }
func (ADDi) Mnemonic() string { return "addi" }
func (SUB) Mnemonic() string  { return "sub" }
func (SUBi) Mnemonic() string { return "subi" }
func (MUL) Mnemonic() string  { return "mul" }
func (MULi) Mnemonic() string { return "muli" }

// --- Program Structure ---

// Line is an instruction with its trailing comment. The comment echoes the
// IR instruction the line came from.
type Line struct {
	Instr   Instruction
	Comment string
}

// Program is a single section of straight-line code.
type Program struct {
	Section string
	Code    []Line
}
