// Package regalloc assigns a fixed pool of registers to IR variables in one
// forward pass, evicting on demand by consulting the liveness table.
// There are no spill slots: an evicted value is gone.
package regalloc

import (
	"context"
	"math"

	"github.com/raymyers/ralph-tc/pkg/ir"
	"nikand.dev/go/heap"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// ErrNoCandidate is returned when every register holds a variable the
// current instruction needs.
var ErrNoCandidate = errors.New("no register can be evicted")

// Policy selects the victim of a forced eviction.
type Policy int

const (
	// EvictSoonest evicts the variable with the smallest last use.
	EvictSoonest Policy = iota
	// EvictFurthest evicts the variable whose next read is furthest away.
	EvictFurthest
)

func (p Policy) String() string {
	switch p {
	case EvictSoonest:
		return "soonest"
	case EvictFurthest:
		return "furthest"
	default:
		return "unknown"
	}
}

// ParsePolicy parses a policy name.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "soonest", "":
		return EvictSoonest, nil
	case "furthest":
		return EvictFurthest, nil
	}
	return 0, errors.New("unknown eviction policy: %q", s)
}

// Reason tells why a register was taken away from its variable.
type Reason string

const (
	ReasonDead   Reason = "dead"
	ReasonForced Reason = "forced"
)

// Eviction is one register reassignment.
type Eviction struct {
	Line     int
	Reg      string
	Evicted  ir.Variable
	Incoming ir.Variable
	Reason   Reason
	// Lost is set when the evicted variable is still read at or after Line.
	Lost bool
}

// Allocator owns the bindings and the last-use table for one program.
type Allocator struct {
	bind   *Bindings
	live   *Liveness
	policy Policy

	line   int
	pinned map[ir.Variable]bool

	evictions []Eviction

	tr tlog.Span
}

// NewAllocator creates an Allocator over regs. live is consumed: evicted
// variables are removed from it.
func NewAllocator(ctx context.Context, regs []string, live *Liveness, policy Policy) *Allocator {
	return &Allocator{
		bind:   NewBindings(regs),
		live:   live,
		policy: policy,
		pinned: make(map[ir.Variable]bool),
		tr:     tlog.SpanFromContext(ctx),
	}
}

// Pin protects vars from eviction until the line changes.
func (a *Allocator) Pin(line int, vars ...ir.Value) {
	a.setLine(line)

	for _, v := range vars {
		if v, ok := v.(ir.Variable); ok {
			a.pinned[v] = true
		}
	}
}

func (a *Allocator) setLine(line int) {
	if line == a.line {
		return
	}

	a.line = line
	clear(a.pinned)
}

// Allocate makes sure v has a register at line. Immediates need none.
func (a *Allocator) Allocate(v ir.Value, line int) error {
	vr, ok := v.(ir.Variable)
	if !ok {
		return nil
	}

	a.setLine(line)
	a.pinned[vr] = true

	if _, ok := a.bind.Lookup(vr); ok {
		return nil
	}

	if i, ok := a.bind.Free(); ok {
		a.bindTo(i, vr, line)
		return nil
	}

	if i, ok := a.dead(line); ok {
		a.evict(i, vr, line, ReasonDead)
		return nil
	}

	i, ok := a.victim(line)
	if !ok {
		return errors.Wrap(ErrNoCandidate, "line %d: allocate %v with %d registers", line, vr, a.bind.Len())
	}

	a.evict(i, vr, line, ReasonForced)

	return nil
}

// Reg returns the register holding v.
func (a *Allocator) Reg(v ir.Value) (string, bool) {
	vr, ok := v.(ir.Variable)
	if !ok {
		return "", false
	}

	i, ok := a.bind.Lookup(vr)
	if !ok {
		return "", false
	}

	return a.bind.Reg(i), true
}

// Snapshot returns the current register to variable mapping.
func (a *Allocator) Snapshot() map[string]ir.Variable { return a.bind.Snapshot() }

// Evictions returns every eviction so far in order.
func (a *Allocator) Evictions() []Eviction { return a.evictions }

// dead finds the first register, in pool order, whose variable is never
// read again.
func (a *Allocator) dead(line int) (int, bool) {
	for i := 0; i < a.bind.Len(); i++ {
		v, used := a.bind.At(i)
		if !used || a.pinned[v] {
			continue
		}

		if last, ok := a.live.LastUse(v); ok {
			if last < line {
				return i, true
			}
			continue
		}

		// never read: only needed on the line it was bound at
		if a.bind.BoundAt(i) < line {
			return i, true
		}
	}

	return 0, false
}

type candidate struct {
	slot int
	key  int
}

// victim picks the forced eviction target by policy.
// Ties go to the earlier register in the pool.
func (a *Allocator) victim(line int) (int, bool) {
	less := func(d []candidate, i, j int) bool {
		if d[i].key != d[j].key {
			return d[i].key < d[j].key
		}
		return d[i].slot < d[j].slot
	}

	q := heap.Heap[candidate]{Less: less}

	for i := 0; i < a.bind.Len(); i++ {
		v, used := a.bind.At(i)
		if !used || a.pinned[v] {
			continue
		}

		q.Push(candidate{slot: i, key: a.key(v, line)})
	}

	if q.Len() == 0 {
		return 0, false
	}

	return q.Pop().slot, true
}

// key orders candidates: the smallest key is evicted.
func (a *Allocator) key(v ir.Variable, line int) int {
	switch a.policy {
	case EvictFurthest:
		next, ok := a.live.NextUse(v, line)
		if !ok {
			return math.MinInt
		}
		return -next
	default:
		last, ok := a.live.LastUse(v)
		if !ok {
			return math.MinInt
		}
		return last
	}
}

func (a *Allocator) bindTo(i int, v ir.Variable, line int) {
	a.bind.Bind(i, v, line)
	a.live.Track(v)

	if a.tr.If("regalloc") {
		a.tr.Printw("bind", "line", line, "reg", a.bind.Reg(i), "var", v)
	}
}

func (a *Allocator) evict(i int, incoming ir.Variable, line int, reason Reason) {
	old := a.bind.Unbind(i)
	a.live.Remove(old)

	_, lost := a.live.NextUse(old, line)

	e := Eviction{
		Line:     line,
		Reg:      a.bind.Reg(i),
		Evicted:  old,
		Incoming: incoming,
		Reason:   reason,
		Lost:     lost,
	}
	a.evictions = append(a.evictions, e)

	if lost {
		a.tr.Printw("evicted variable is read later, its value is lost", "line", line, "reg", e.Reg, "evicted", old, "incoming", incoming)
	} else if a.tr.If("regalloc") {
		a.tr.Printw("evict", "line", line, "reg", e.Reg, "evicted", old, "incoming", incoming, "reason", reason)
	}

	a.bindTo(i, incoming, line)
}
