package regalloc

import (
	"fmt"
	"io"

	"github.com/raymyers/ralph-tc/pkg/ir"
)

// Liveness records, for every variable, the lines at which it is read.
// Lines are 1-based positions in the instruction sequence.
//
// The last-use table is mutable: the allocator removes a variable when it
// evicts it and tracks it again when it rebinds it. Read positions never change.
type Liveness struct {
	reads   map[ir.Variable][]int // ascending
	defs    map[ir.Variable]int   // first write
	lastUse map[ir.Variable]int
	order   []ir.Variable // first appearance
}

// AnalyzeLiveness scans code once and records every read operand.
// Results are never recorded as reads.
func AnalyzeLiveness(code []ir.Instruction) (*Liveness, error) {
	l := &Liveness{
		reads:   make(map[ir.Variable][]int),
		defs:    make(map[ir.Variable]int),
		lastUse: make(map[ir.Variable]int),
	}

	for i, instr := range code {
		line := i + 1

		ops, err := ir.Reads(instr)
		if err != nil {
			return nil, err
		}

		for _, op := range ops {
			v, ok := op.(ir.Variable)
			if !ok {
				continue
			}

			l.see(v)

			rs := l.reads[v]
			if len(rs) == 0 || rs[len(rs)-1] != line {
				l.reads[v] = append(rs, line)
			}
			l.lastUse[v] = line
		}

		if res, ok := ir.Result(instr); ok {
			l.see(res)
			if _, ok := l.defs[res]; !ok {
				l.defs[res] = line
			}
		}
	}

	return l, nil
}

func (l *Liveness) see(v ir.Variable) {
	if _, ok := l.reads[v]; ok {
		return
	}
	if _, ok := l.defs[v]; ok {
		return
	}
	l.order = append(l.order, v)
}

// LastUse returns the last line v is read at, if v is still tracked.
func (l *Liveness) LastUse(v ir.Variable) (int, bool) {
	line, ok := l.lastUse[v]
	return line, ok
}

// NextUse returns the first line at or after line where v is read.
func (l *Liveness) NextUse(v ir.Variable, line int) (int, bool) {
	for _, r := range l.reads[v] {
		if r >= line {
			return r, true
		}
	}
	return 0, false
}

// Def returns the line v is first written at.
func (l *Liveness) Def(v ir.Variable) (int, bool) {
	line, ok := l.defs[v]
	return line, ok
}

// Remove drops v from the last-use table.
func (l *Liveness) Remove(v ir.Variable) {
	delete(l.lastUse, v)
}

// Track puts v back into the last-use table if it has reads.
func (l *Liveness) Track(v ir.Variable) {
	if _, ok := l.lastUse[v]; ok {
		return
	}
	if rs := l.reads[v]; len(rs) != 0 {
		l.lastUse[v] = rs[len(rs)-1]
	}
}

// Len returns the number of tracked variables.
func (l *Liveness) Len() int { return len(l.lastUse) }

// Variables returns every variable seen, in first-appearance order.
func (l *Liveness) Variables() []ir.Variable {
	return append([]ir.Variable(nil), l.order...)
}

// Print writes one line per variable: name, definition line, read lines.
func (l *Liveness) Print(w io.Writer) {
	for _, v := range l.order {
		def := "-"
		if d, ok := l.defs[v]; ok {
			def = fmt.Sprint(d)
		}

		last := "dead"
		if u, ok := l.lastUse[v]; ok {
			last = fmt.Sprint(u)
		}

		fmt.Fprintf(w, "%s\tdef=%s\tlast=%s\treads=%v\n", v, def, last, l.reads[v])
	}
}
