// Package compiler runs the whole pipeline: tokens, parser events, raw IR,
// legalized IR, then allocation and emission.
package compiler

import (
	"context"
	"os"

	"github.com/raymyers/ralph-tc/pkg/asm"
	"github.com/raymyers/ralph-tc/pkg/asmgen"
	"github.com/raymyers/ralph-tc/pkg/config"
	"github.com/raymyers/ralph-tc/pkg/grammar"
	"github.com/raymyers/ralph-tc/pkg/ir"
	"github.com/raymyers/ralph-tc/pkg/irgen"
	"github.com/raymyers/ralph-tc/pkg/legalize"
	"github.com/raymyers/ralph-tc/pkg/lexer"
	"github.com/raymyers/ralph-tc/pkg/parser"
	"github.com/raymyers/ralph-tc/pkg/regalloc"
	"github.com/raymyers/ralph-tc/pkg/semantic"
	"github.com/raymyers/ralph-tc/pkg/symtab"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// Result holds every intermediate product of one compilation.
type Result struct {
	Name string

	Tokens     []lexer.Token
	Symbols    *symtab.Table
	Reductions []grammar.Production

	RawIR []ir.Instruction
	IR    []ir.Instruction

	// Liveness is the table as analyzed, before allocation consumed it.
	Liveness *regalloc.Liveness

	Asm       *asm.Program
	Evictions []regalloc.Eviction
	Trace     []asmgen.Step
	Pressure  int

	Options asmgen.Options
}

func CompileFile(ctx context.Context, name string, cfg *config.Config) (*Result, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, cfg)
}

// Compile compiles text. A nil cfg means config.Default.
func Compile(ctx context.Context, name string, text []byte, cfg *config.Config) (res *Result, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "compile", "name", name)
	defer tr.Finish("err", &err)

	if cfg == nil {
		cfg = config.Default()
	}

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	res = &Result{
		Name:    name,
		Symbols: symtab.New(),
		Options: cfg.Options(),
	}

	res.Tokens, err = lexer.Tokenize(string(text))
	if err != nil {
		return nil, errors.Wrap(err, "lex")
	}

	tr.Printw("tokenized", "tokens", len(res.Tokens))

	temps := &ir.Temps{}
	trace := &parser.Trace{}
	builder := irgen.New(ctx, res.Symbols, temps)

	// declarations must be recorded before the builder sees later statements
	p := parser.New(res.Tokens, semantic.New(res.Symbols), builder, trace)

	if err = p.Run(); err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	res.Reductions = trace.Reductions
	res.RawIR = builder.Code()

	tr.Printw("ir built", "instructions", len(res.RawIR), "symbols", res.Symbols.Len(), "temps", temps.Count())

	res.IR, err = legalize.Legalize(ctx, temps, res.RawIR)
	if err != nil {
		return nil, err
	}

	res.Liveness, err = regalloc.AnalyzeLiveness(res.IR)
	if err != nil {
		return nil, errors.Wrap(err, "liveness")
	}

	gen, err := asmgen.Generate(ctx, res.IR, res.Options)
	if err != nil {
		return nil, errors.Wrap(err, "codegen")
	}

	res.Asm = gen.Program
	res.Evictions = gen.Evictions
	res.Trace = gen.Trace
	res.Pressure = gen.Pressure

	tr.Printw("compiled", "asm_lines", len(res.Asm.Code), "evictions", len(res.Evictions))

	return res, nil
}
