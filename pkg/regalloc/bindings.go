package regalloc

import "github.com/raymyers/ralph-tc/pkg/ir"

// Bindings is the register to variable bijection. Slots are indexes into
// the register pool.
type Bindings struct {
	regs  []string
	slots []slot
	index map[ir.Variable]int
}

type slot struct {
	v    ir.Variable
	used bool
	line int // line v was bound at
}

// NewBindings creates an empty table over regs.
func NewBindings(regs []string) *Bindings {
	return &Bindings{
		regs:  regs,
		slots: make([]slot, len(regs)),
		index: make(map[ir.Variable]int),
	}
}

// Lookup returns the slot holding v.
func (b *Bindings) Lookup(v ir.Variable) (int, bool) {
	i, ok := b.index[v]
	return i, ok
}

// At returns the variable in slot i.
func (b *Bindings) At(i int) (ir.Variable, bool) {
	s := b.slots[i]
	return s.v, s.used
}

// Free returns the first empty slot.
func (b *Bindings) Free() (int, bool) {
	for i, s := range b.slots {
		if !s.used {
			return i, true
		}
	}
	return 0, false
}

// Bind puts v into empty slot i.
func (b *Bindings) Bind(i int, v ir.Variable, line int) {
	if b.slots[i].used {
		panic("regalloc: bind to occupied slot " + b.regs[i])
	}
	if _, ok := b.index[v]; ok {
		panic("regalloc: variable already bound: " + v.String())
	}

	b.slots[i] = slot{v: v, used: true, line: line}
	b.index[v] = i
}

// Unbind empties slot i and returns its previous occupant.
func (b *Bindings) Unbind(i int) ir.Variable {
	s := b.slots[i]
	if s.used {
		delete(b.index, s.v)
	}
	b.slots[i] = slot{}
	return s.v
}

// BoundAt returns the line the occupant of slot i was bound at.
func (b *Bindings) BoundAt(i int) int { return b.slots[i].line }

// Reg returns the register name of slot i.
func (b *Bindings) Reg(i int) string { return b.regs[i] }

// Len returns the pool size.
func (b *Bindings) Len() int { return len(b.slots) }

// Snapshot returns the register to variable mapping, empty registers omitted.
func (b *Bindings) Snapshot() map[string]ir.Variable {
	m := make(map[string]ir.Variable, len(b.index))
	for i, s := range b.slots {
		if s.used {
			m[b.regs[i]] = s.v
		}
	}
	return m
}
