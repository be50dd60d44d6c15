// Package parser drives the toy grammar and reports the shift, reduce and
// accept events an LR(1) automaton for it would perform.
// The driver is recursive descent; observers see events in the same order a
// table-driven shift-reduce parser would produce them.
package parser

import (
	"github.com/raymyers/ralph-tc/pkg/grammar"
	"github.com/raymyers/ralph-tc/pkg/lexer"
	"tlog.app/go/errors"
)

// ErrSyntax is returned when the token stream does not match the grammar.
var ErrSyntax = errors.New("syntax error")

// Observer receives parser events. An error from any callback aborts the parse.
type Observer interface {
	WhenShift(tok lexer.Token) error
	WhenReduce(p grammar.Production) error
	WhenAccept() error
}

// Parser emits events for one token stream.
type Parser struct {
	toks      []lexer.Token
	pos       int
	curToken  lexer.Token
	observers []Observer
}

// New creates a Parser over toks. Observers are called in the given order.
// A missing trailing EOF token is implied.
func New(toks []lexer.Token, observers ...Observer) *Parser {
	p := &Parser{toks: toks, observers: observers}
	p.curToken = p.tokenAt(0)
	return p
}

func (p *Parser) tokenAt(i int) lexer.Token {
	if i < len(p.toks) {
		return p.toks[i]
	}
	if len(p.toks) != 0 {
		last := p.toks[len(p.toks)-1]
		return lexer.Token{Kind: lexer.EOF, Line: last.Line, Column: last.Column}
	}
	return lexer.Token{Kind: lexer.EOF, Line: 1, Column: 1}
}

func (p *Parser) curTokenIs(k lexer.Kind) bool {
	return p.curToken.Kind == k
}

func (p *Parser) errorf(msg string, args ...any) error {
	return errors.Wrap(ErrSyntax, "line %d, col %d: "+msg, append([]any{p.curToken.Line, p.curToken.Column}, args...)...)
}

// shift reports the current token and advances.
func (p *Parser) shift() error {
	for _, o := range p.observers {
		if err := o.WhenShift(p.curToken); err != nil {
			return err
		}
	}

	p.pos++
	p.curToken = p.tokenAt(p.pos)

	return nil
}

func (p *Parser) expect(k lexer.Kind) error {
	if !p.curTokenIs(k) {
		return p.errorf("expected %s, got %s", k, p.describe())
	}
	return p.shift()
}

func (p *Parser) describe() string {
	if p.curTokenIs(lexer.EOF) {
		return "end of input"
	}
	return p.curToken.String()
}

func (p *Parser) reduce(id grammar.ID) error {
	prod := grammar.MustGet(id)

	for _, o := range p.observers {
		if err := o.WhenReduce(prod); err != nil {
			return err
		}
	}

	return nil
}

// Run parses the whole program and emits the accept event on success.
func (p *Parser) Run() error {
	if err := p.parseList(); err != nil {
		return err
	}
	if !p.curTokenIs(lexer.EOF) {
		return p.errorf("unexpected %s after program", p.describe())
	}
	if err := p.reduce(grammar.ProgramList); err != nil {
		return err
	}

	for _, o := range p.observers {
		if err := o.WhenAccept(); err != nil {
			return err
		}
	}

	return nil
}

// parseList parses S_list. S_list -> S ; S_list is right recursive, so the
// inner list is reduced before the outer one.
func (p *Parser) parseList() error {
	if err := p.parseStatement(); err != nil {
		return err
	}
	if err := p.expect(lexer.Semicolon); err != nil {
		return err
	}

	if p.curTokenIs(lexer.EOF) {
		return p.reduce(grammar.ListLast)
	}

	if err := p.parseList(); err != nil {
		return err
	}

	return p.reduce(grammar.ListMore)
}

func (p *Parser) parseStatement() error {
	switch p.curToken.Kind {
	case lexer.Int:
		if err := p.shift(); err != nil {
			return err
		}
		if err := p.reduce(grammar.TypeInt); err != nil {
			return err
		}
		if err := p.expect(lexer.ID); err != nil {
			return err
		}
		return p.reduce(grammar.Declaration)

	case lexer.ID:
		if err := p.shift(); err != nil {
			return err
		}
		if err := p.expect(lexer.Assign); err != nil {
			return err
		}
		if err := p.parseExpr(); err != nil {
			return err
		}
		return p.reduce(grammar.Assignment)

	case lexer.Return:
		if err := p.shift(); err != nil {
			return err
		}
		if err := p.parseExpr(); err != nil {
			return err
		}
		return p.reduce(grammar.Return)
	}

	return p.errorf("expected statement, got %s", p.describe())
}

// parseExpr parses E. Left recursion becomes a loop that reduces after
// every operand, which keeps the operators left associative.
func (p *Parser) parseExpr() error {
	if err := p.parseTerm(); err != nil {
		return err
	}
	if err := p.reduce(grammar.ExprTerm); err != nil {
		return err
	}

	for p.curTokenIs(lexer.Plus) || p.curTokenIs(lexer.Minus) {
		id := grammar.Add
		if p.curTokenIs(lexer.Minus) {
			id = grammar.Sub
		}

		if err := p.shift(); err != nil {
			return err
		}
		if err := p.parseTerm(); err != nil {
			return err
		}
		if err := p.reduce(id); err != nil {
			return err
		}
	}

	return nil
}

func (p *Parser) parseTerm() error {
	if err := p.parseFactor(); err != nil {
		return err
	}
	if err := p.reduce(grammar.TermFactor); err != nil {
		return err
	}

	for p.curTokenIs(lexer.Star) {
		if err := p.shift(); err != nil {
			return err
		}
		if err := p.parseFactor(); err != nil {
			return err
		}
		if err := p.reduce(grammar.Mul); err != nil {
			return err
		}
	}

	return nil
}

func (p *Parser) parseFactor() error {
	switch p.curToken.Kind {
	case lexer.ID:
		if err := p.shift(); err != nil {
			return err
		}
		return p.reduce(grammar.FactorID)

	case lexer.IntConst:
		if err := p.shift(); err != nil {
			return err
		}
		return p.reduce(grammar.FactorConst)

	case lexer.LParen:
		if err := p.shift(); err != nil {
			return err
		}
		if err := p.parseExpr(); err != nil {
			return err
		}
		if err := p.expect(lexer.RParen); err != nil {
			return err
		}
		return p.reduce(grammar.Paren)
	}

	return p.errorf("expected expression, got %s", p.describe())
}
