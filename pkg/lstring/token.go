// Package lstring turns a raw L-string into command tokens: it strips
// whitespace, excises cut branches and splits the remainder into
// "<symbol>" or "<symbol>(<args>)" tokens.
package lstring

import (
	"github.com/lemonberrylabs/lindenmaker/pkg/ast"
)

// Token is one lexical command token.
type Token struct {
	Text   string // raw text, e.g. "F(230,24)"
	Symbol rune   // leading symbol
	Group  string // contents between the parentheses, without them
	Parens bool   // true if the token carries a parenthesized group
	Pos    int    // byte offset in the lexed string
}

// Args parses the token's argument list.
func (t Token) Args() ([]float64, error) {
	if !t.Parens {
		return []float64{}, nil
	}
	return parseGroup(t.Text, t.Group)
}

// Command converts the token into an ast.Command, parsing its arguments.
func (t Token) Command() (ast.Command, error) {
	args, err := t.Args()
	if err != nil {
		return ast.Command{}, err
	}
	return ast.Command{
		Kind:   ast.KindOf(t.Symbol),
		Symbol: t.Symbol,
		Args:   args,
		Pos:    t.Pos,
		Raw:    t.Text,
	}, nil
}
