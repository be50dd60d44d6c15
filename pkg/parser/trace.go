package parser

import (
	"fmt"
	"io"

	"github.com/raymyers/ralph-tc/pkg/grammar"
	"github.com/raymyers/ralph-tc/pkg/lexer"
)

// Trace is an Observer that records every event.
type Trace struct {
	Shifts     []lexer.Token
	Reductions []grammar.Production
	Accepted   bool
}

func (t *Trace) WhenShift(tok lexer.Token) error {
	t.Shifts = append(t.Shifts, tok)
	return nil
}

func (t *Trace) WhenReduce(p grammar.Production) error {
	t.Reductions = append(t.Reductions, p)
	return nil
}

func (t *Trace) WhenAccept() error {
	t.Accepted = true
	return nil
}

// IDs returns the reduced production ids in order.
func (t *Trace) IDs() []grammar.ID {
	ids := make([]grammar.ID, len(t.Reductions))
	for i, p := range t.Reductions {
		ids[i] = p.ID
	}
	return ids
}

// PrintReductions writes one numbered line per reduction.
func PrintReductions(w io.Writer, reds []grammar.Production) {
	for _, p := range reds {
		fmt.Fprintf(w, "%d\t%s\n", p.ID, p)
	}
}
