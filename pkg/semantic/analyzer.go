// Package semantic records declarations in the symbol table as the parser
// reduces them.
package semantic

import (
	"github.com/raymyers/ralph-tc/pkg/grammar"
	"github.com/raymyers/ralph-tc/pkg/lexer"
	"github.com/raymyers/ralph-tc/pkg/symtab"
	"tlog.app/go/errors"
)

// ErrRedeclaredSymbol is returned when a name is declared twice.
var ErrRedeclaredSymbol = errors.New("redeclared symbol")

// Analyzer is a parser observer. It must be registered before the IR builder
// so a declaration is visible by the time later statements reduce.
type Analyzer struct {
	table *symtab.Table

	types  []symtab.Type
	lastID lexer.Token
}

// New creates an Analyzer writing into table.
func New(table *symtab.Table) *Analyzer {
	return &Analyzer{table: table}
}

func (a *Analyzer) WhenShift(tok lexer.Token) error {
	if tok.Kind == lexer.ID {
		a.lastID = tok
	}
	return nil
}

func (a *Analyzer) WhenReduce(p grammar.Production) error {
	switch p.ID {
	case grammar.TypeInt:
		a.types = append(a.types, symtab.Int)
	case grammar.Declaration:
		typ := symtab.Unknown
		if n := len(a.types); n != 0 {
			typ = a.types[n-1]
			a.types = a.types[:n-1]
		}

		if _, added := a.table.Declare(a.lastID.Text, typ); !added {
			return errors.Wrap(ErrRedeclaredSymbol, "%s at %d:%d", a.lastID.Text, a.lastID.Line, a.lastID.Column)
		}
	}

	return nil
}

func (a *Analyzer) WhenAccept() error { return nil }
