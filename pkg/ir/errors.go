package ir

import (
	"tlog.app/go/errors"
	"tlog.app/go/loc"
)

// ErrUnsupportedInstruction is returned when a stage receives an instruction
// it has no rule for. It signals a broken invariant between stages.
var ErrUnsupportedInstruction = errors.New("unsupported instruction")

// Unsupported wraps ErrUnsupportedInstruction with the rejecting stage,
// the instruction and the caller's source location.
func Unsupported(stage string, instr Instruction) error {
	return errors.Wrap(ErrUnsupportedInstruction, "%v: %v (at %v)", stage, Describe(instr), loc.Caller(1))
}

func unsupportedKind(k Kind) error {
	return errors.Wrap(ErrUnsupportedInstruction, "not an arithmetic kind: %v (at %v)", k, loc.Caller(1))
}
