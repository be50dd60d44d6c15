package legalize

import (
	"context"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/raymyers/ralph-tc/pkg/ir"
	"tlog.app/go/errors"
)

func temp(id int) ir.Variable { return ir.Variable{ID: id, Temp: true} }

// temps returns a generator that has already handed out n temporaries.
func temps(n int) *ir.Temps {
	t := &ir.Temps{}
	for i := 0; i < n; i++ {
		t.Fresh()
	}
	return t
}

func TestRules(t *testing.T) {
	a := ir.Named("a")
	x := ir.Named("x")

	tests := []struct {
		name  string
		used  int // temporaries already taken by the builder
		input ir.Instruction
		want  []ir.Instruction
	}{
		{
			name:  "fold add",
			input: ir.Add{Result: a, LHS: ir.Imm(2), RHS: ir.Imm(3)},
			want:  []ir.Instruction{ir.Mov{Result: a, Source: ir.Imm(5)}},
		},
		{
			name:  "fold sub",
			input: ir.Sub{Result: a, LHS: ir.Imm(2), RHS: ir.Imm(3)},
			want:  []ir.Instruction{ir.Mov{Result: a, Source: ir.Imm(-1)}},
		},
		{
			name:  "fold mul",
			input: ir.Mul{Result: a, LHS: ir.Imm(2), RHS: ir.Imm(3)},
			want:  []ir.Instruction{ir.Mov{Result: a, Source: ir.Imm(6)}},
		},
		{
			name:  "add var imm kept",
			input: ir.Add{Result: a, LHS: x, RHS: ir.Imm(1)},
			want:  []ir.Instruction{ir.Add{Result: a, LHS: x, RHS: ir.Imm(1)}},
		},
		{
			name:  "sub var imm kept",
			input: ir.Sub{Result: a, LHS: x, RHS: ir.Imm(1)},
			want:  []ir.Instruction{ir.Sub{Result: a, LHS: x, RHS: ir.Imm(1)}},
		},
		{
			name:  "mul var imm materialized",
			used:  4,
			input: ir.Mul{Result: a, LHS: x, RHS: ir.Imm(3)},
			want: []ir.Instruction{
				ir.Mov{Result: temp(4), Source: ir.Imm(3)},
				ir.Mul{Result: a, LHS: x, RHS: temp(4)},
			},
		},
		{
			name:  "add imm var swapped",
			input: ir.Add{Result: a, LHS: ir.Imm(1), RHS: x},
			want:  []ir.Instruction{ir.Add{Result: a, LHS: x, RHS: ir.Imm(1)}},
		},
		{
			name:  "sub imm var materialized",
			used:  1,
			input: ir.Sub{Result: x, LHS: ir.Imm(5), RHS: x},
			want: []ir.Instruction{
				ir.Mov{Result: temp(1), Source: ir.Imm(5)},
				ir.Sub{Result: x, LHS: temp(1), RHS: x},
			},
		},
		{
			name:  "mul imm var materialized",
			input: ir.Mul{Result: a, LHS: ir.Imm(5), RHS: x},
			want: []ir.Instruction{
				ir.Mov{Result: temp(0), Source: ir.Imm(5)},
				ir.Mul{Result: a, LHS: temp(0), RHS: x},
			},
		},
		{
			name:  "var var kept",
			input: ir.Mul{Result: a, LHS: x, RHS: a},
			want:  []ir.Instruction{ir.Mul{Result: a, LHS: x, RHS: a}},
		},
		{
			name:  "mov kept",
			input: ir.Mov{Result: a, Source: ir.Imm(9)},
			want:  []ir.Instruction{ir.Mov{Result: a, Source: ir.Imm(9)}},
		},
		{
			name:  "ret immediate kept",
			input: ir.Ret{Value: ir.Imm(9)},
			want:  []ir.Instruction{ir.Ret{Value: ir.Imm(9)}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := New(context.Background(), temps(tc.used))

			if err := l.Ingest(tc.input); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tc.want, l.Code()); diff != "" {
				t.Errorf("legalized mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScenarioA(t *testing.T) {
	a := ir.Named("a")

	raw := []ir.Instruction{
		ir.Mul{Result: temp(0), LHS: ir.Imm(2), RHS: ir.Imm(3)},
		ir.Add{Result: temp(1), LHS: ir.Imm(1), RHS: temp(0)},
		ir.Mov{Result: a, Source: temp(1)},
		ir.Ret{Value: a},
	}

	got, err := Legalize(context.Background(), temps(2), raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []ir.Instruction{
		ir.Mov{Result: temp(0), Source: ir.Imm(6)},
		ir.Add{Result: temp(1), LHS: temp(0), RHS: ir.Imm(1)},
		ir.Mov{Result: a, Source: temp(1)},
		ir.Ret{Value: a},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("legalized mismatch (-want +got):\n%s", diff)
	}
}

func TestFoldSoundness(t *testing.T) {
	values := []int32{0, 1, -1, 2, 7, -13, 1000, math.MaxInt32, math.MinInt32}

	for _, k := range []ir.Kind{ir.KindAdd, ir.KindSub, ir.KindMul} {
		for _, x := range values {
			for _, y := range values {
				var want int32
				switch k {
				case ir.KindAdd:
					want = x + y
				case ir.KindSub:
					want = x - y
				case ir.KindMul:
					want = x * y
				}

				instr, err := ir.NewBinary(k, ir.Named("r"), ir.Imm(x), ir.Imm(y))
				if err != nil {
					t.Fatalf("NewBinary: %v", err)
				}

				l := New(context.Background(), &ir.Temps{})
				if err := l.Ingest(instr); err != nil {
					t.Fatalf("%v: unexpected error: %v", instr, err)
				}

				got := l.Code()
				exp := ir.Mov{Result: ir.Named("r"), Source: ir.Imm(want)}
				if len(got) != 1 || got[0] != exp {
					t.Errorf("%v: expected %v, got %v", instr, exp, got)
				}
			}
		}
	}
}

func TestNoDoubleImmediates(t *testing.T) {
	x := ir.Named("x")
	operands := []ir.Value{ir.Imm(3), ir.Imm(-4), x, temp(0)}

	l := New(context.Background(), temps(1))

	for _, k := range []ir.Kind{ir.KindAdd, ir.KindSub, ir.KindMul} {
		for _, lhs := range operands {
			for _, rhs := range operands {
				instr, err := ir.NewBinary(k, ir.Named("r"), lhs, rhs)
				if err != nil {
					t.Fatalf("NewBinary: %v", err)
				}
				if err := l.Ingest(instr); err != nil {
					t.Fatalf("%v: unexpected error: %v", instr, err)
				}
			}
		}
	}

	for _, instr := range l.Code() {
		k, _, lhs, rhs, ok := ir.Binary(instr)
		if !ok {
			continue
		}
		if lhs.IsImmediate() && rhs.IsImmediate() {
			t.Errorf("double immediate survived: %v", instr)
		}
		if lhs.IsImmediate() {
			t.Errorf("immediate left operand survived: %v", instr)
		}
		if k == ir.KindMul && rhs.IsImmediate() {
			t.Errorf("immediate multiplier survived: %v", instr)
		}
	}
}

func TestStopsAtReturn(t *testing.T) {
	a := ir.Named("a")

	raw := []ir.Instruction{
		ir.Mov{Result: a, Source: ir.Imm(1)},
		ir.Ret{Value: a},
		ir.Mov{Result: a, Source: ir.Imm(2)},
		ir.Ret{Value: ir.Imm(0)},
	}

	l := New(context.Background(), &ir.Temps{})
	for _, instr := range raw {
		if err := l.Ingest(instr); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(l.Code()) != 2 {
		t.Errorf("expected 2 instructions, got %v", l.Code())
	}
	if l.Dropped() != 2 {
		t.Errorf("expected 2 dropped, got %d", l.Dropped())
	}
}

func TestUnsupported(t *testing.T) {
	l := New(context.Background(), &ir.Temps{})

	tests := []struct {
		name  string
		instr ir.Instruction
	}{
		{"nil", nil},
		{"nil operand", ir.Add{Result: ir.Named("a"), LHS: ir.Imm(1)}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := l.Ingest(tc.instr); !errors.Is(err, ir.ErrUnsupportedInstruction) {
				t.Errorf("expected ErrUnsupportedInstruction, got %v", err)
			}
		})
	}

	if _, err := Fold(ir.KindMov, 1, 2); !errors.Is(err, ir.ErrUnsupportedInstruction) {
		t.Errorf("Fold(MOV): expected ErrUnsupportedInstruction, got %v", err)
	}
}
