package lexer

import "fmt"

// Kind represents the kind of a token. Kind names double as the terminal
// names of the grammar.
type Kind int

const (
	EOF Kind = iota // end of input, "$" in the grammar

	// Keywords
	Int    // int
	Return // return

	// Literals
	ID       // a, count
	IntConst // 42

	// Punctuation
	Assign    // =
	Plus      // +
	Minus     // -
	Star      // *
	LParen    // (
	RParen    // )
	Semicolon // ;
)

var kindNames = [...]string{
	EOF:       "$",
	Int:       "int",
	Return:    "return",
	ID:        "id",
	IntConst:  "IntConst",
	Assign:    "=",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	LParen:    "(",
	RParen:    ")",
	Semicolon: "Semicolon",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

var keywords = map[string]Kind{
	"int":    Int,
	"return": Return,
}

var punctuation = map[byte]Kind{
	'=': Assign,
	'+': Plus,
	'-': Minus,
	'*': Star,
	'(': LParen,
	')': RParen,
	';': Semicolon,
}

// Token is a lexical token with its source position.
type Token struct {
	Kind   Kind
	Text   string
	Line   int
	Column int
}

// String renders the token the way the token dump lists it: "(kind,text)".
func (t Token) String() string {
	return fmt.Sprintf("(%s,%s)", t.Kind, t.Text)
}
