package asmgen

import (
	"bytes"
	"context"
	"testing"

	"github.com/raymyers/ralph-tc/pkg/asm"
	"github.com/raymyers/ralph-tc/pkg/ir"
	"github.com/raymyers/ralph-tc/pkg/regalloc"
	"github.com/stretchr/testify/require"
	"tlog.app/go/errors"
)

func temp(id int) ir.Variable { return ir.Variable{ID: id, Temp: true} }

func generate(t *testing.T, code []ir.Instruction, opts Options) string {
	t.Helper()

	res, err := Generate(context.Background(), code, opts)
	require.NoError(t, err)

	var buf bytes.Buffer
	asm.NewPrinter(&buf).PrintProgram(res.Program)

	return buf.String()
}

func TestScenarioA(t *testing.T) {
	a := ir.Named("a")

	code := []ir.Instruction{
		ir.Mov{Result: temp(0), Source: ir.Imm(6)},
		ir.Add{Result: temp(1), LHS: temp(0), RHS: ir.Imm(1)},
		ir.Mov{Result: a, Source: temp(1)},
		ir.Ret{Value: a},
	}

	expected := ".text\n" +
		"\tli t0, 6\t\t# (MOV, $0, 6)\n" +
		"\taddi t1, t0, 1\t\t# (ADD, $1, $0, 1)\n" +
		"\tmv t2, t1\t\t# (MOV, a, $1)\n" +
		"\tmv a0, t2\t\t# (RET, a)\n"

	require.Equal(t, expected, generate(t, code, DefaultOptions()))
}

func TestScenarioB(t *testing.T) {
	x := ir.Named("x")

	// int x; x = 5 - x; return 0; after legalization
	code := []ir.Instruction{
		ir.Mov{Result: temp(1), Source: ir.Imm(5)},
		ir.Sub{Result: temp(0), LHS: temp(1), RHS: x},
		ir.Mov{Result: x, Source: temp(0)},
		ir.Ret{Value: ir.Imm(0)},
	}

	expected := ".text\n" +
		"\tli t0, 5\t\t# (MOV, $1, 5)\n" +
		"\tsub t1, t0, t2\t\t# (SUB, $0, $1, x)\n" +
		"\tmv t2, t1\t\t# (MOV, x, $0)\n" +
		"\tli a0, 0\t\t# (RET, 0)\n"

	require.Equal(t, expected, generate(t, code, DefaultOptions()))
}

func TestInstructionForms(t *testing.T) {
	x, y := ir.Named("x"), ir.Named("y")

	tests := []struct {
		name  string
		instr ir.Instruction
		want  asm.Instruction
	}{
		{"li", ir.Mov{Result: y, Source: ir.Imm(-3)}, asm.LI{Rd: "t1", Imm: -3}},
		{"mv", ir.Mov{Result: y, Source: x}, asm.MV{Rd: "t1", Rs: "t0"}},
		{"add", ir.Add{Result: y, LHS: x, RHS: x}, asm.ADD{Rd: "t1", Rn: "t0", Rm: "t0"}},
		{"addi", ir.Add{Result: y, LHS: x, RHS: ir.Imm(2)}, asm.ADDi{Rd: "t1", Rn: "t0", Imm: 2}},
		{"sub", ir.Sub{Result: y, LHS: x, RHS: x}, asm.SUB{Rd: "t1", Rn: "t0", Rm: "t0"}},
		{"subi", ir.Sub{Result: y, LHS: x, RHS: ir.Imm(2)}, asm.SUBi{Rd: "t1", Rn: "t0", Imm: 2}},
		{"mul", ir.Mul{Result: y, LHS: x, RHS: x}, asm.MUL{Rd: "t1", Rn: "t0", Rm: "t0"}},
		{"muli", ir.Mul{Result: y, LHS: x, RHS: ir.Imm(2)}, asm.MULi{Rd: "t1", Rn: "t0", Imm: 2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code := []ir.Instruction{
				ir.Mov{Result: x, Source: ir.Imm(1)},
				tc.instr,
				ir.Ret{Value: y},
			}

			res, err := Generate(context.Background(), code, DefaultOptions())
			require.NoError(t, err)
			require.Len(t, res.Program.Code, 3)
			require.Equal(t, tc.want, res.Program.Code[1].Instr)
			require.Equal(t, tc.instr.String(), res.Program.Code[1].Comment)
		})
	}
}

func TestReturnContract(t *testing.T) {
	a := ir.Named("a")

	code := []ir.Instruction{
		ir.Mov{Result: a, Source: ir.Imm(1)},
		ir.Ret{Value: a},
		ir.Mov{Result: a, Source: ir.Imm(2)},
	}

	opts := DefaultOptions()
	opts.ReturnRegister = "v0"

	res, err := Generate(context.Background(), code, opts)
	require.NoError(t, err)

	// emission stops at the return, which writes the return register
	require.Len(t, res.Program.Code, 2)
	require.Equal(t, asm.MV{Rd: "v0", Rs: "t0"}, res.Program.Code[1].Instr)
	require.Len(t, res.Trace, 2)
}

func TestErrors(t *testing.T) {
	a := ir.Named("a")

	tests := []struct {
		name string
		code []ir.Instruction
		opts func(*Options)
		want error
	}{
		{
			name: "no return",
			code: []ir.Instruction{ir.Mov{Result: a, Source: ir.Imm(1)}},
			want: ErrNoReturn,
		},
		{
			name: "empty program",
			want: ErrNoReturn,
		},
		{
			name: "no registers",
			code: []ir.Instruction{ir.Ret{Value: ir.Imm(0)}},
			opts: func(o *Options) { o.Registers = nil },
			want: ErrNoRegisters,
		},
		{
			name: "immediate left operand",
			code: []ir.Instruction{
				ir.Add{Result: a, LHS: ir.Imm(1), RHS: a},
				ir.Ret{Value: a},
			},
			want: ir.ErrUnsupportedInstruction,
		},
		{
			name: "nil instruction",
			code: []ir.Instruction{nil},
			want: ir.ErrUnsupportedInstruction,
		},
		{
			name: "nil return value",
			code: []ir.Instruction{ir.Ret{}},
			want: ir.ErrUnsupportedInstruction,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tc.opts != nil {
				tc.opts(&opts)
			}

			_, err := Generate(context.Background(), tc.code, opts)
			require.True(t, errors.Is(err, tc.want), "expected %v, got %v", tc.want, err)
		})
	}
}

// spill keeps five variables live at once.
func spill() []ir.Instruction {
	a, b, c, d, e := ir.Named("a"), ir.Named("b"), ir.Named("c"), ir.Named("d"), ir.Named("e")

	return []ir.Instruction{
		ir.Mov{Result: a, Source: ir.Imm(1)},
		ir.Mov{Result: b, Source: ir.Imm(2)},
		ir.Mov{Result: c, Source: ir.Imm(3)},
		ir.Mov{Result: d, Source: ir.Imm(4)},
		ir.Add{Result: e, LHS: a, RHS: b},
		ir.Add{Result: e, LHS: e, RHS: c},
		ir.Add{Result: e, LHS: e, RHS: d},
		ir.Ret{Value: e},
	}
}

func TestScenarioC(t *testing.T) {
	for _, policy := range []regalloc.Policy{regalloc.EvictSoonest, regalloc.EvictFurthest} {
		t.Run(policy.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Registers = []string{"t0", "t1", "t2"}
			opts.Policy = policy

			res, err := Generate(context.Background(), spill(), opts)
			require.NoError(t, err)

			require.Greater(t, res.Pressure, len(opts.Registers))
			require.NotEmpty(t, res.Evictions)

			for _, e := range res.Evictions {
				require.NotEqual(t, e.Evicted, e.Incoming, "line %d", e.Line)
			}

			for _, step := range res.Trace {
				seen := map[ir.Variable]string{}
				for reg, v := range step.Regs {
					prev, dup := seen[v]
					require.False(t, dup, "line %d: %v in %s and %s", step.Line, v, prev, reg)
					seen[v] = reg
				}
			}
		})
	}
}

func TestDeterministic(t *testing.T) {
	opts := DefaultOptions()
	opts.Registers = []string{"t0", "t1", "t2"}

	first := generate(t, spill(), opts)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, generate(t, spill(), opts))
	}
}
