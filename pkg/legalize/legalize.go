// Package legalize rewrites raw IR into shapes the target can encode.
//
// Rules for arithmetic, first match wins:
//
//	imm op imm   -> MOV res, folded
//	var op imm   -> as is for ADD and SUB; MUL gets the immediate in a temporary
//	imm + var    -> operands swapped
//	imm op var   -> SUB and MUL get the immediate in a temporary
//	var op var   -> as is
//
// MOV and RET pass through. Nothing after the first RET is kept.
package legalize

import (
	"context"

	"github.com/raymyers/ralph-tc/pkg/ir"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// Legalizer accepts raw instructions one at a time.
type Legalizer struct {
	temps *ir.Temps

	code     []ir.Instruction
	returned bool
	dropped  int

	tr tlog.Span
}

// New creates a Legalizer drawing temporaries from temps, which must be the
// generator the raw IR was built with.
func New(ctx context.Context, temps *ir.Temps) *Legalizer {
	return &Legalizer{temps: temps, tr: tlog.SpanFromContext(ctx)}
}

// Legalize runs a Legalizer over code.
func Legalize(ctx context.Context, temps *ir.Temps, code []ir.Instruction) (_ []ir.Instruction, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "legalize", "instructions", len(code))
	defer tr.Finish("err", &err)

	l := New(ctx, temps)

	for _, instr := range code {
		if err = l.Ingest(instr); err != nil {
			return nil, errors.Wrap(err, "legalize")
		}
	}

	if l.Dropped() != 0 {
		tr.Printw("unreachable instructions after return discarded", "count", l.Dropped())
	}

	return l.Code(), nil
}

// Ingest legalizes instr and appends the result.
func (l *Legalizer) Ingest(instr ir.Instruction) error {
	if l.returned {
		l.dropped++
		return nil
	}

	switch i := instr.(type) {
	case ir.Mov:
		l.emit(i)
		return nil
	case ir.Ret:
		l.emit(i)
		l.returned = true
		return nil
	}

	k, res, lhs, rhs, ok := ir.Binary(instr)
	if !ok {
		return ir.Unsupported("legalize", instr)
	}
	if lhs == nil || rhs == nil {
		return ir.Unsupported("legalize", instr)
	}

	switch {
	case lhs.IsImmediate() && rhs.IsImmediate():
		v, err := Fold(k, lhs.(ir.Immediate).Value, rhs.(ir.Immediate).Value)
		if err != nil {
			return err
		}

		l.log("fold", instr)
		l.emit(ir.Mov{Result: res, Source: ir.Imm(v)})

	case rhs.IsImmediate():
		if k == ir.KindMul {
			l.log("materialize rhs", instr)
			rhs = l.materialize(rhs)
		}

		return l.binary(k, res, lhs, rhs)

	case lhs.IsImmediate():
		if k == ir.KindAdd {
			l.log("swap", instr)
			return l.binary(k, res, rhs, lhs)
		}

		l.log("materialize lhs", instr)
		tmp := l.materialize(lhs)

		return l.binary(k, res, tmp, rhs)

	default:
		l.emit(instr)
	}

	return nil
}

// Code returns the legalized sequence.
func (l *Legalizer) Code() []ir.Instruction { return l.code }

// Dropped returns how many instructions followed the first RET.
func (l *Legalizer) Dropped() int { return l.dropped }

// Fold evaluates k on two immediates with 32-bit wrap-around.
func Fold(k ir.Kind, a, b int32) (int32, error) {
	switch k {
	case ir.KindAdd:
		return a + b, nil
	case ir.KindSub:
		return a - b, nil
	case ir.KindMul:
		return a * b, nil
	}

	return 0, errors.Wrap(ir.ErrUnsupportedInstruction, "fold %v", k)
}

func (l *Legalizer) materialize(v ir.Value) ir.Variable {
	tmp := l.temps.Fresh()
	l.emit(ir.Mov{Result: tmp, Source: v})
	return tmp
}

func (l *Legalizer) binary(k ir.Kind, res ir.Variable, lhs, rhs ir.Value) error {
	instr, err := ir.NewBinary(k, res, lhs, rhs)
	if err != nil {
		return err
	}

	l.emit(instr)

	return nil
}

func (l *Legalizer) emit(instr ir.Instruction) {
	l.code = append(l.code, instr)
}

func (l *Legalizer) log(rule string, instr ir.Instruction) {
	if l.tr.If("legalize") {
		l.tr.Printw(rule, "instr", instr.String(), "line", len(l.code)+1)
	}
}
