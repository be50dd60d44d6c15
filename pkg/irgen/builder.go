// Package irgen builds IR from parser events.
//
// The builder keeps one stack of (grammar symbol, IR value) pairs. A shift
// pushes the token with no value; a reduction pops the production body,
// runs the semantic action registered for the production and pushes the
// head with the action's value.
package irgen

import (
	"context"
	"strconv"

	"github.com/raymyers/ralph-tc/pkg/grammar"
	"github.com/raymyers/ralph-tc/pkg/ir"
	"github.com/raymyers/ralph-tc/pkg/lexer"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

var (
	ErrUndefinedSymbol  = errors.New("undefined symbol")
	ErrMalformedLiteral = errors.New("malformed literal")
	ErrStackUnderflow   = errors.New("stack underflow")
	ErrMissingOperand   = errors.New("missing operand")
	ErrFinalized        = errors.New("builder already accepted")
)

// Symbols is the read-only view of the symbol table the builder needs.
type Symbols interface {
	Has(name string) bool
}

type entry struct {
	sym grammar.Symbol
	val ir.Value // nil for tokens and scaffolding nonterminals
}

// action computes the value of a reduction from its popped body.
type action func(b *Builder, body []entry) (ir.Value, error)

var actions = map[grammar.ID]action{
	grammar.Assignment:  (*Builder).assign,
	grammar.Return:      (*Builder).ret,
	grammar.Add:         binary(ir.KindAdd),
	grammar.Sub:         binary(ir.KindSub),
	grammar.ExprTerm:    passThrough(0),
	grammar.Mul:         binary(ir.KindMul),
	grammar.TermFactor:  passThrough(0),
	grammar.Paren:       passThrough(1),
	grammar.FactorID:    (*Builder).identifier,
	grammar.FactorConst: (*Builder).literal,
}

// Builder is a parser observer producing the raw instruction sequence.
type Builder struct {
	symbols Symbols
	temps   *ir.Temps

	stack    []entry
	code     []ir.Instruction
	accepted bool

	tr tlog.Span
}

// New creates a Builder. Temporaries are drawn from temps so later passes
// can keep numbering them. Events are logged to the span in ctx, if any.
func New(ctx context.Context, symbols Symbols, temps *ir.Temps) *Builder {
	return &Builder{
		symbols: symbols,
		temps:   temps,
		tr:      tlog.SpanFromContext(ctx),
	}
}

func (b *Builder) WhenShift(tok lexer.Token) error {
	if b.accepted {
		return errors.Wrap(ErrFinalized, "shift %v", tok)
	}

	b.stack = append(b.stack, entry{sym: grammar.Symbol{Token: tok}})

	return nil
}

func (b *Builder) WhenReduce(p grammar.Production) error {
	if b.accepted {
		return errors.Wrap(ErrFinalized, "reduce %v", p)
	}

	n := len(p.Body)
	if len(b.stack) < n {
		return errors.Wrap(ErrStackUnderflow, "reduce %v: have %d entries", p, len(b.stack))
	}

	body := b.stack[len(b.stack)-n:]

	var val ir.Value
	if act, ok := actions[p.ID]; ok {
		var err error
		val, err = act(b, body)
		if err != nil {
			return errors.Wrap(err, "reduce %v", p)
		}
	}

	b.stack = append(b.stack[:len(b.stack)-n], entry{
		sym: grammar.Symbol{NonTerminal: p.Head},
		val: val,
	})

	if b.tr.If("irgen") {
		b.tr.Printw("reduce", "prod", p.ID, "rule", p.String(), "val", val, "depth", len(b.stack))
	}

	return nil
}

func (b *Builder) WhenAccept() error {
	if b.accepted {
		return ErrFinalized
	}

	b.accepted = true

	if b.tr.If("irgen") {
		b.tr.Printw("accept", "instructions", len(b.code), "temps", b.temps.Count())
	}

	return nil
}

// Code returns the instructions emitted so far.
func (b *Builder) Code() []ir.Instruction {
	return b.code
}

// Accepted reports whether the accept event was seen.
func (b *Builder) Accepted() bool { return b.accepted }

func (b *Builder) emit(instr ir.Instruction) {
	b.code = append(b.code, instr)
}

func operand(e entry) (ir.Value, error) {
	if e.val == nil {
		return nil, errors.Wrap(ErrMissingOperand, "%v carries no value", e.sym)
	}
	return e.val, nil
}

func (b *Builder) variable(tok lexer.Token) (ir.Variable, error) {
	if !b.symbols.Has(tok.Text) {
		return ir.Variable{}, errors.Wrap(ErrUndefinedSymbol, "%s at %d:%d", tok.Text, tok.Line, tok.Column)
	}
	return ir.Named(tok.Text), nil
}

// S -> id = E
func (b *Builder) assign(body []entry) (ir.Value, error) {
	dst, err := b.variable(body[0].sym.Token)
	if err != nil {
		return nil, err
	}

	src, err := operand(body[2])
	if err != nil {
		return nil, err
	}

	b.emit(ir.Mov{Result: dst, Source: src})

	return nil, nil
}

// S -> return E
func (b *Builder) ret(body []entry) (ir.Value, error) {
	v, err := operand(body[1])
	if err != nil {
		return nil, err
	}

	b.emit(ir.Ret{Value: v})

	return nil, nil
}

// E -> E op A, A -> A * B
func binary(k ir.Kind) action {
	return func(b *Builder, body []entry) (ir.Value, error) {
		lhs, err := operand(body[0])
		if err != nil {
			return nil, err
		}

		rhs, err := operand(body[2])
		if err != nil {
			return nil, err
		}

		res := b.temps.Fresh()

		instr, err := ir.NewBinary(k, res, lhs, rhs)
		if err != nil {
			return nil, err
		}

		b.emit(instr)

		return res, nil
	}
}

// passThrough propagates the value of body[i].
func passThrough(i int) action {
	return func(b *Builder, body []entry) (ir.Value, error) {
		return operand(body[i])
	}
}

// B -> id
func (b *Builder) identifier(body []entry) (ir.Value, error) {
	return b.variable(body[0].sym.Token)
}

// B -> IntConst
func (b *Builder) literal(body []entry) (ir.Value, error) {
	tok := body[0].sym.Token

	v, err := strconv.ParseInt(tok.Text, 10, 32)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedLiteral, "%q at %d:%d", tok.Text, tok.Line, tok.Column)
	}

	return ir.Imm(int32(v)), nil
}
