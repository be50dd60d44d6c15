// Package grammar enumerates the productions of the toy language.
// Production identities are fixed; the IR builder dispatches on them.
package grammar

import (
	"strings"

	"github.com/raymyers/ralph-tc/pkg/lexer"
)

// NonTerminal is a grammar nonterminal.
type NonTerminal int

const (
	None NonTerminal = iota // marks a terminal Item or Symbol
	P
	SList
	S
	D
	E
	A
	B
)

func (n NonTerminal) String() string {
	names := []string{"", "P", "S_list", "S", "D", "E", "A", "B"}
	if int(n) < len(names) {
		return names[n]
	}
	return "?"
}

// Item is one symbol of a production body: a terminal or a nonterminal.
type Item struct {
	Terminal    lexer.Kind
	NonTerminal NonTerminal
}

func (i Item) String() string {
	if i.NonTerminal != None {
		return i.NonTerminal.String()
	}
	return i.Terminal.String()
}

func t(k lexer.Kind) Item       { return Item{Terminal: k} }
func n(nt NonTerminal) Item     { return Item{NonTerminal: nt} }
func body(items ...Item) []Item { return items }

// ID identifies a production.
type ID int

const (
	ProgramList ID = iota + 1 // P -> S_list
	ListMore                  // S_list -> S Semicolon S_list
	ListLast                  // S_list -> S Semicolon
	Declaration               // S -> D id
	TypeInt                   // D -> int
	Assignment                // S -> id = E
	Return                    // S -> return E
	Add                       // E -> E + A
	Sub                       // E -> E - A
	ExprTerm                  // E -> A
	Mul                       // A -> A * B
	TermFactor                // A -> B
	Paren                     // B -> ( E )
	FactorID                  // B -> id
	FactorConst               // B -> IntConst
)

// Production is a grammar rule Head -> Body.
type Production struct {
	ID   ID
	Head NonTerminal
	Body []Item
}

func (p Production) String() string {
	var sb strings.Builder
	sb.WriteString(p.Head.String())
	sb.WriteString(" ->")
	for _, it := range p.Body {
		sb.WriteByte(' ')
		sb.WriteString(it.String())
	}
	return sb.String()
}

var productions = []Production{
	{ProgramList, P, body(n(SList))},
	{ListMore, SList, body(n(S), t(lexer.Semicolon), n(SList))},
	{ListLast, SList, body(n(S), t(lexer.Semicolon))},
	{Declaration, S, body(n(D), t(lexer.ID))},
	{TypeInt, D, body(t(lexer.Int))},
	{Assignment, S, body(t(lexer.ID), t(lexer.Assign), n(E))},
	{Return, S, body(t(lexer.Return), n(E))},
	{Add, E, body(n(E), t(lexer.Plus), n(A))},
	{Sub, E, body(n(E), t(lexer.Minus), n(A))},
	{ExprTerm, E, body(n(A))},
	{Mul, A, body(n(A), t(lexer.Star), n(B))},
	{TermFactor, A, body(n(B))},
	{Paren, B, body(t(lexer.LParen), n(E), t(lexer.RParen))},
	{FactorID, B, body(t(lexer.ID))},
	{FactorConst, B, body(t(lexer.IntConst))},
}

// Get returns the production with the given id.
func Get(id ID) (Production, bool) {
	if id < ProgramList || int(id) > len(productions) {
		return Production{}, false
	}
	return productions[id-1], true
}

// MustGet is like Get but panics on an unknown id.
func MustGet(id ID) Production {
	p, ok := Get(id)
	if !ok {
		panic("grammar: unknown production")
	}
	return p
}

// All returns every production in id order.
func All() []Production {
	return append([]Production(nil), productions...)
}

// Symbol is a parse-stack entry: a shifted token or a reduced nonterminal.
type Symbol struct {
	Token       lexer.Token
	NonTerminal NonTerminal
}

// IsTerminal reports whether s came from a shift.
func (s Symbol) IsTerminal() bool { return s.NonTerminal == None }

func (s Symbol) String() string {
	if s.IsTerminal() {
		return s.Token.String()
	}
	return s.NonTerminal.String()
}
