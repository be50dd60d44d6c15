// Package symtab holds the identifiers declared in a compilation unit.
package symtab

import (
	"fmt"
	"io"
)

// Type is the declared type of an identifier.
type Type int

const (
	Unknown Type = iota
	Int
)

func (t Type) String() string {
	switch t {
	case Int:
		return "int"
	default:
		return "unknown"
	}
}

// Entry is the record kept for one identifier.
type Entry struct {
	Name string
	Type Type
}

// Table maps identifier text to its entry, remembering declaration order.
type Table struct {
	entries map[string]*Entry
	order   []string
}

// New creates an empty table.
func New() *Table {
	return &Table{entries: make(map[string]*Entry)}
}

// Has reports whether name is declared.
func (t *Table) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Get returns the entry for name.
func (t *Table) Get(name string) (*Entry, bool) {
	e, ok := t.entries[name]
	return e, ok
}

// Declare records name with type typ. If name already exists the existing
// entry is returned unchanged and added is false.
func (t *Table) Declare(name string, typ Type) (e *Entry, added bool) {
	if e, ok := t.entries[name]; ok {
		return e, false
	}

	e = &Entry{Name: name, Type: typ}
	t.entries[name] = e
	t.order = append(t.order, name)

	return e, true
}

// Names returns declared names in declaration order.
func (t *Table) Names() []string {
	return append([]string(nil), t.order...)
}

// Len returns the number of declared names.
func (t *Table) Len() int { return len(t.order) }

// Print writes one "(name, type)" line per entry in declaration order.
func (t *Table) Print(w io.Writer) {
	for _, name := range t.order {
		e := t.entries[name]
		fmt.Fprintf(w, "(%s, %s)\n", e.Name, e.Type)
	}
}
