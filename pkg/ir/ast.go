// Package ir defines the three-operand intermediate representation that sits
// between the parser-driven IR builder and the RISC-V style backend.
// A program is a flat instruction sequence; program order is the only control flow.
package ir

import (
	"fmt"
	"strconv"
	"strings"

	"tlog.app/go/tlog/tlwire"
)

// --- Values ---

// Value is an instruction operand: an Immediate or a Variable.
type Value interface {
	implValue()
	IsImmediate() bool
	IsVariable() bool
	String() string
}

// Immediate is a signed 32-bit integer constant.
// Immediates are compared by value.
type Immediate struct {
	Value int32
}

// Variable is either a named variable (a source identifier) or a temporary.
// Variables are comparable and are used as map keys by the backend.
type Variable struct {
	Name string // source identifier, empty for temporaries
	ID   int    // temporary number
	Temp bool
}

// Imm returns the immediate for v.
func Imm(v int32) Immediate { return Immediate{Value: v} }

// Named returns the variable denoting source identifier name.
func Named(name string) Variable { return Variable{Name: name} }

func (Immediate) implValue() {}
func (Variable) implValue()  {}

func (Immediate) IsImmediate() bool { return true }
func (Immediate) IsVariable() bool  { return false }
func (Variable) IsImmediate() bool  { return false }
func (Variable) IsVariable() bool   { return true }

func (i Immediate) String() string { return strconv.FormatInt(int64(i.Value), 10) }

func (v Variable) String() string {
	if v.Temp {
		return "$" + strconv.Itoa(v.ID)
	}
	return v.Name
}

func (i Immediate) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder
	return e.AppendFormat(b, "%d", i.Value)
}

func (v Variable) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder
	return e.AppendFormat(b, "%s", v.String())
}

// Temps hands out temporaries for one compilation unit.
// Numbers start at 0 and are never reused.
type Temps struct {
	next int
}

// Fresh returns a new temporary.
func (t *Temps) Fresh() Variable {
	v := Variable{ID: t.next, Temp: true}
	t.next++
	return v
}

// Count returns how many temporaries have been handed out.
func (t *Temps) Count() int { return t.next }

// --- Instructions ---

// Kind identifies the instruction variant.
type Kind int

const (
	KindMov Kind = iota
	KindAdd
	KindSub
	KindMul
	KindRet
)

func (k Kind) String() string {
	names := []string{"MOV", "ADD", "SUB", "MUL", "RET"}
	if int(k) < len(names) {
		return names[k]
	}
	return "?"
}

// Commutative reports whether operands of k may be swapped.
func (k Kind) Commutative() bool {
	return k == KindAdd || k == KindMul
}

// Instruction is the interface for IR instructions.
// Instructions are values; passes replace them rather than mutate them.
type Instruction interface {
	implInstruction()
	Kind() Kind
	String() string
}

// Mov copies Source into Result.
type Mov struct {
	Result Variable
	Source Value
}

// Add computes Result = LHS + RHS.
type Add struct {
	Result   Variable
	LHS, RHS Value
}

// Sub computes Result = LHS - RHS.
type Sub struct {
	Result   Variable
	LHS, RHS Value
}

// Mul computes Result = LHS * RHS.
type Mul struct {
	Result   Variable
	LHS, RHS Value
}

// Ret returns Value from the program.
type Ret struct {
	Value Value
}

func (Mov) implInstruction() {}
func (Add) implInstruction() {}
func (Sub) implInstruction() {}
func (Mul) implInstruction() {}
func (Ret) implInstruction() {}

func (Mov) Kind() Kind { return KindMov }
func (Add) Kind() Kind { return KindAdd }
func (Sub) Kind() Kind { return KindSub }
func (Mul) Kind() Kind { return KindMul }
func (Ret) Kind() Kind { return KindRet }

func (i Mov) String() string { return render(KindMov, i.Result, i.Source) }
func (i Add) String() string { return render(KindAdd, i.Result, i.LHS, i.RHS) }
func (i Sub) String() string { return render(KindSub, i.Result, i.LHS, i.RHS) }
func (i Mul) String() string { return render(KindMul, i.Result, i.LHS, i.RHS) }
func (i Ret) String() string { return render(KindRet, i.Value) }

// render formats an instruction as "(KIND, op1, op2, ...)".
func render(k Kind, ops ...Value) string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(k.String())
	for _, op := range ops {
		sb.WriteString(", ")
		if op == nil {
			sb.WriteString("<nil>")
			continue
		}
		sb.WriteString(op.String())
	}
	sb.WriteByte(')')
	return sb.String()
}

// NewBinary builds the arithmetic instruction of kind k.
func NewBinary(k Kind, result Variable, lhs, rhs Value) (Instruction, error) {
	switch k {
	case KindAdd:
		return Add{Result: result, LHS: lhs, RHS: rhs}, nil
	case KindSub:
		return Sub{Result: result, LHS: lhs, RHS: rhs}, nil
	case KindMul:
		return Mul{Result: result, LHS: lhs, RHS: rhs}, nil
	}
	return nil, unsupportedKind(k)
}

// Binary splits an arithmetic instruction into its parts.
// ok is false for Mov, Ret and unknown instructions.
func Binary(instr Instruction) (k Kind, result Variable, lhs, rhs Value, ok bool) {
	switch i := instr.(type) {
	case Add:
		return KindAdd, i.Result, i.LHS, i.RHS, true
	case Sub:
		return KindSub, i.Result, i.LHS, i.RHS, true
	case Mul:
		return KindMul, i.Result, i.LHS, i.RHS, true
	}
	return 0, Variable{}, nil, nil, false
}

// Reads returns the operands instr reads, in operand order.
func Reads(instr Instruction) ([]Value, error) {
	switch i := instr.(type) {
	case Mov:
		return []Value{i.Source}, nil
	case Add:
		return []Value{i.LHS, i.RHS}, nil
	case Sub:
		return []Value{i.LHS, i.RHS}, nil
	case Mul:
		return []Value{i.LHS, i.RHS}, nil
	case Ret:
		return []Value{i.Value}, nil
	}
	return nil, Unsupported("reads", instr)
}

// Result returns the variable instr writes, if any.
func Result(instr Instruction) (Variable, bool) {
	switch i := instr.(type) {
	case Mov:
		return i.Result, true
	case Add:
		return i.Result, true
	case Sub:
		return i.Result, true
	case Mul:
		return i.Result, true
	}
	return Variable{}, false
}

// Describe renders instr for diagnostics, including nil and foreign instructions.
func Describe(instr Instruction) string {
	if instr == nil {
		return "<nil instruction>"
	}
	return fmt.Sprintf("%T %v", instr, instr)
}
