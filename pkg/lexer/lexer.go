// Package lexer tokenizes source text of the toy language.
// Scanning is driven by an explicit transition table over character classes,
// so every (state, class) pair has exactly one defined outcome.
package lexer

import (
	"tlog.app/go/errors"
)

// ErrIllegalCharacter is returned for input no transition accepts.
var ErrIllegalCharacter = errors.New("illegal character")

type state int

const (
	stStart  state = iota // between tokens
	stIdent               // inside an identifier or keyword
	stNumber              // inside an integer literal
	numStates
)

type class int

const (
	clSpace  class = iota // blank, tab, newline
	clLetter              // a-z A-Z _
	clDigit               // 0-9
	clPunct               // single-character operators and separators
	clOther               // anything else
	clEnd                 // end of input
	numClasses
)

type action int

const (
	acSkip   action = iota // drop the character
	acBegin                // start a lexeme with the character
	acExtend               // append the character to the lexeme
	acEmit                 // finish the lexeme, then rescan the character from stStart
	acPunct                // emit a one-character token
	acFail                 // reject the character
	acStop                 // end of input reached between tokens
)

type transition struct {
	next state
	act  action
}

var table = [numStates][numClasses]transition{
	stStart: {
		clSpace:  {stStart, acSkip},
		clLetter: {stIdent, acBegin},
		clDigit:  {stNumber, acBegin},
		clPunct:  {stStart, acPunct},
		clOther:  {stStart, acFail},
		clEnd:    {stStart, acStop},
	},
	stIdent: {
		clSpace:  {stStart, acEmit},
		clLetter: {stIdent, acExtend},
		clDigit:  {stIdent, acExtend},
		clPunct:  {stStart, acEmit},
		clOther:  {stStart, acEmit},
		clEnd:    {stStart, acEmit},
	},
	stNumber: {
		clSpace:  {stStart, acEmit},
		clLetter: {stNumber, acFail},
		clDigit:  {stNumber, acExtend},
		clPunct:  {stStart, acEmit},
		clOther:  {stStart, acEmit},
		clEnd:    {stStart, acEmit},
	},
}

func classify(c byte) class {
	switch {
	case c == ' ' || c == '\t' || c == '\n' || c == '\r':
		return clSpace
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return clLetter
	case c >= '0' && c <= '9':
		return clDigit
	}
	if _, ok := punctuation[c]; ok {
		return clPunct
	}
	return clOther
}

// Lexer tokenizes the toy language
type Lexer struct {
	input string
	pos   int
	line  int
	col   int
}

// New creates a new Lexer for the given input
func New(input string) *Lexer {
	return &Lexer{input: input, line: 1, col: 1}
}

// Next returns the next token. After the input is exhausted it keeps
// returning an EOF token.
func (l *Lexer) Next() (Token, error) {
	st := stStart
	start, line, col := l.pos, l.line, l.col

	for {
		cl := clEnd
		var c byte
		if l.pos < len(l.input) {
			c = l.input[l.pos]
			cl = classify(c)
		}

		tr := table[st][cl]

		switch tr.act {
		case acSkip:
			l.advance(c)
		case acBegin:
			start, line, col = l.pos, l.line, l.col
			l.advance(c)
		case acExtend:
			l.advance(c)
		case acEmit:
			return l.lexeme(st, l.input[start:l.pos], line, col), nil
		case acPunct:
			tok := Token{Kind: punctuation[c], Text: string(c), Line: l.line, Column: l.col}
			l.advance(c)
			return tok, nil
		case acFail:
			return Token{}, errors.Wrap(ErrIllegalCharacter, "%q at %d:%d", c, l.line, l.col)
		case acStop:
			return Token{Kind: EOF, Line: l.line, Column: l.col}, nil
		}

		st = tr.next
	}
}

func (l *Lexer) advance(c byte) {
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

func (l *Lexer) lexeme(st state, text string, line, col int) Token {
	tok := Token{Text: text, Line: line, Column: col}

	switch st {
	case stNumber:
		tok.Kind = IntConst
	default:
		tok.Kind = ID
		if kw, ok := keywords[text]; ok {
			tok.Kind = kw
		}
	}

	return tok
}

// Tokenize scans the whole input. The result always ends with an EOF token.
func Tokenize(input string) ([]Token, error) {
	l := New(input)

	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, tok)
		if tok.Kind == EOF {
			return toks, nil
		}
	}
}
