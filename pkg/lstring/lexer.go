package lstring

import (
	"io"
	"strings"
	"unicode/utf8"

	"github.com/lemonberrylabs/lindenmaker/pkg/types"
)

// Lexer splits a cut-free, whitespace-free L-string into command tokens.
// Tokens are produced lazily by Next; a Lexer is consumed once.
type Lexer struct {
	input string
	pos   int
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Next returns the next token, or io.EOF once the input is exhausted.
// Parentheses outside the token grammar yield a MalformedTokenError.
func (l *Lexer) Next() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{}, io.EOF
	}

	start := l.pos
	r, size := utf8.DecodeRuneInString(l.input[start:])

	switch r {
	case '(':
		return Token{}, types.NewMalformedTokenError(
			"argument list without command symbol", start, l.fragment(start))
	case ')':
		return Token{}, types.NewMalformedTokenError("unmatched ')'", start, ")")
	}

	l.pos += size
	if l.pos >= len(l.input) || l.input[l.pos] != '(' {
		return Token{Text: l.input[start:l.pos], Symbol: r, Pos: start}, nil
	}

	open := l.pos
	for i := open + 1; i < len(l.input); i++ {
		switch l.input[i] {
		case '(':
			return Token{}, types.NewMalformedTokenError(
				"nested '(' in argument list", i, l.input[start:i+1])
		case ')':
			l.pos = i + 1
			return Token{
				Text:   l.input[start:l.pos],
				Symbol: r,
				Group:  l.input[open+1 : i],
				Parens: true,
				Pos:    start,
			}, nil
		}
	}

	l.pos = len(l.input)
	return Token{}, types.NewMalformedTokenError(
		"unterminated argument list", start, l.input[start:])
}

// Tokenize scans the remaining input and returns all tokens.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.Next()
		if err == io.EOF {
			return tokens, nil
		}
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
}

// fragment returns the text from start through the next ')' (or the end).
func (l *Lexer) fragment(start int) string {
	rest := l.input[start:]
	if i := strings.IndexByte(rest, ')'); i >= 0 {
		return rest[:i+1]
	}
	return rest
}

// Tokenize strips whitespace, applies cuts and tokenizes s in one call.
func Tokenize(s string) ([]Token, error) {
	return NewLexer(ApplyCuts(StripSpace(s))).Tokenize()
}
