// Package asmgen turns legalized IR into assembly. Register allocation and
// emission run interleaved in one forward pass: each instruction's operands
// are allocated at that instruction's line, then the instruction is emitted.
package asmgen

import (
	"context"

	"github.com/raymyers/ralph-tc/pkg/asm"
	"github.com/raymyers/ralph-tc/pkg/ir"
	"github.com/raymyers/ralph-tc/pkg/regalloc"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

var (
	// ErrNoReturn is returned for code without a RET: nothing would write
	// the return register.
	ErrNoReturn = errors.New("program has no return")

	ErrNoRegisters = errors.New("empty register pool")
)

// Options describes the target.
type Options struct {
	Registers      []string
	ReturnRegister string
	Section        string
	Policy         regalloc.Policy
}

// DefaultOptions returns the reference target: t0-t6, result in a0.
func DefaultOptions() Options {
	return Options{
		Registers:      []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6"},
		ReturnRegister: "a0",
		Section:        ".text",
		Policy:         regalloc.EvictSoonest,
	}
}

// Step is the register state right after an instruction was emitted.
type Step struct {
	Line  int
	Instr ir.Instruction
	Regs  map[string]ir.Variable
}

// Result is the output of Generate.
type Result struct {
	Program   *asm.Program
	Evictions []regalloc.Eviction
	Trace     []Step

	// Pressure is the largest number of simultaneously live variables.
	Pressure int
}

// genContext holds state during code generation
type genContext struct {
	opts  Options
	alloc *regalloc.Allocator
	prog  *asm.Program
	res   *Result

	tr tlog.Span
}

// Generate allocates registers for code and emits it.
func Generate(ctx context.Context, code []ir.Instruction, opts Options) (res *Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "asmgen", "instructions", len(code), "registers", len(opts.Registers), "policy", opts.Policy.String())
	defer tr.Finish("err", &err)

	if len(opts.Registers) == 0 {
		return nil, ErrNoRegisters
	}

	live, err := regalloc.AnalyzeLiveness(code)
	if err != nil {
		return nil, errors.Wrap(err, "liveness")
	}

	res = &Result{}

	pressure, line := regalloc.BuildInterferenceGraph(live, len(code)).MaxPressure()
	res.Pressure = pressure

	if pressure > len(opts.Registers) {
		tr.Printw("register pressure exceeds pool, evictions will lose values", "pressure", pressure, "line", line, "registers", len(opts.Registers))
	}

	g := &genContext{
		opts:  opts,
		alloc: regalloc.NewAllocator(ctx, opts.Registers, live, opts.Policy),
		prog:  &asm.Program{Section: opts.Section},
		res:   res,
		tr:    tr,
	}

	for i, instr := range code {
		line := i + 1

		done, err := g.translateInstruction(instr, line)
		if err != nil {
			return nil, errors.Wrap(err, "line %d: %v", line, ir.Describe(instr))
		}

		res.Trace = append(res.Trace, Step{Line: line, Instr: instr, Regs: g.alloc.Snapshot()})

		if done {
			res.Program = g.prog
			res.Evictions = g.alloc.Evictions()

			return res, nil
		}
	}

	return nil, ErrNoReturn
}

// translateInstruction allocates and emits one instruction.
// done is true after the return.
func (g *genContext) translateInstruction(instr ir.Instruction, line int) (done bool, err error) {
	switch i := instr.(type) {
	case ir.Mov:
		if err := g.allocate(line, i.Result, i.Source); err != nil {
			return false, err
		}

		rd := g.reg(i.Result)

		switch src := i.Source.(type) {
		case ir.Immediate:
			g.emit(asm.LI{Rd: rd, Imm: src.Value}, instr)
		case ir.Variable:
			g.emit(asm.MV{Rd: rd, Rs: g.reg(src)}, instr)
		default:
			return false, ir.Unsupported("emit", instr)
		}

	case ir.Ret:
		if err := g.allocate(line, i.Value); err != nil {
			return false, err
		}

		rd := asm.Reg(g.opts.ReturnRegister)

		switch v := i.Value.(type) {
		case ir.Immediate:
			g.emit(asm.LI{Rd: rd, Imm: v.Value}, instr)
		case ir.Variable:
			g.emit(asm.MV{Rd: rd, Rs: g.reg(v)}, instr)
		default:
			return false, ir.Unsupported("emit", instr)
		}

		return true, nil

	default:
		k, res, lhs, rhs, ok := ir.Binary(instr)
		if !ok || lhs == nil || rhs == nil {
			return false, ir.Unsupported("emit", instr)
		}

		l, isVar := lhs.(ir.Variable)
		if !isVar {
			// the legalizer never leaves an immediate on the left
			return false, ir.Unsupported("emit", instr)
		}

		if err := g.allocate(line, res, lhs, rhs); err != nil {
			return false, err
		}

		rd, rn := g.reg(res), g.reg(l)

		var out asm.Instruction

		switch r := rhs.(type) {
		case ir.Immediate:
			out = immForm(k, rd, rn, r.Value)
		case ir.Variable:
			out = regForm(k, rd, rn, g.reg(r))
		}

		if out == nil {
			return false, ir.Unsupported("emit", instr)
		}

		g.emit(out, instr)
	}

	return false, nil
}

// allocate pins every operand of the line, then allocates them in order:
// the result first, then what is read.
func (g *genContext) allocate(line int, vals ...ir.Value) error {
	g.alloc.Pin(line, vals...)

	for _, v := range vals {
		if err := g.alloc.Allocate(v, line); err != nil {
			return err
		}
	}

	return nil
}

func (g *genContext) reg(v ir.Variable) asm.Reg {
	r, _ := g.alloc.Reg(v)
	return asm.Reg(r)
}

func (g *genContext) emit(out asm.Instruction, src ir.Instruction) {
	g.prog.Code = append(g.prog.Code, asm.Line{Instr: out, Comment: src.String()})

	if g.tr.If("emit") {
		g.tr.Printw("emit", "asm", asm.Format(out), "ir", src.String())
	}
}

func regForm(k ir.Kind, rd, rn, rm asm.Reg) asm.Instruction {
	switch k {
	case ir.KindAdd:
		return asm.ADD{Rd: rd, Rn: rn, Rm: rm}
	case ir.KindSub:
		return asm.SUB{Rd: rd, Rn: rn, Rm: rm}
	case ir.KindMul:
		return asm.MUL{Rd: rd, Rn: rn, Rm: rm}
	}
	return nil
}

func immForm(k ir.Kind, rd, rn asm.Reg, imm int32) asm.Instruction {
	switch k {
	case ir.KindAdd:
		return asm.ADDi{Rd: rd, Rn: rn, Imm: imm}
	case ir.KindSub:
		return asm.SUBi{Rd: rd, Rn: rn, Imm: imm}
	case ir.KindMul:
		return asm.MULi{Rd: rd, Rn: rn, Imm: imm}
	}
	return nil
}
