package calc

import (
	"strconv"
	"unicode"

	"github.com/tapelabs/deskcalc/pkg/types"
)

// Lexer tokenizes a calculator expression string.
type Lexer struct {
	input  string
	pos    int
	tokens []Token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize scans the entire input and returns all tokens in source order.
// Empty or all-whitespace input yields an empty token slice.
func (l *Lexer) Tokenize() ([]Token, error) {
	for {
		tok, ok, err := l.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		l.tokens = append(l.tokens, tok)
	}
	return l.tokens, nil
}

// next returns the next token from the input. The second result is false
// once the input is exhausted.
func (l *Lexer) next() (Token, bool, error) {
	l.skipWhitespace()

	if l.pos >= len(l.input) {
		return Token{}, false, nil
	}

	ch := l.input[l.pos]

	// Number literals
	if (ch >= '0' && ch <= '9') || ch == '.' {
		tok, err := l.readNumber()
		if err != nil {
			return Token{}, false, err
		}
		return tok, true, nil
	}

	// A '-' starts a negative literal when it cannot be a binary operator:
	// at the start of the input, after an operator, or after '('.
	if ch == '-' && l.minusStartsNumber() {
		tok, err := l.readNumber()
		if err != nil {
			return Token{}, false, err
		}
		return tok, true, nil
	}

	switch ch {
	case '+', '-', '*', '/', '%':
		l.pos++
		return Token{Type: TokenOperator, Text: string(ch), Op: ch, Pos: l.pos - 1}, true, nil
	case '(':
		l.pos++
		return Token{Type: TokenLParen, Text: "(", Pos: l.pos - 1}, true, nil
	case ')':
		l.pos++
		return Token{Type: TokenRParen, Text: ")", Pos: l.pos - 1}, true, nil
	}

	return Token{}, false, types.NewUnexpectedCharacterError(ch, l.pos)
}

// minusStartsNumber reports whether a '-' at the current position opens a
// negative literal rather than acting as subtraction. That is the case when
// no token precedes it, or the preceding token is an operator or '('.
func (l *Lexer) minusStartsNumber() bool {
	if len(l.tokens) == 0 {
		return true
	}
	prev := l.tokens[len(l.tokens)-1]
	return prev.Type == TokenOperator || prev.Type == TokenLParen
}

// readNumber reads a decimal literal, including an optional leading minus.
// The scan is maximal: it consumes every following digit and dot, then
// validates, so "1.2.3" is rejected as one invalid literal rather than
// splitting into "1.2" and ".3".
func (l *Lexer) readNumber() (Token, error) {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}

	dots := 0
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch >= '0' && ch <= '9' {
			l.pos++
		} else if ch == '.' {
			dots++
			l.pos++
		} else {
			break
		}
	}

	raw := l.input[start:l.pos]
	if dots > 1 {
		return Token{}, types.NewInvalidNumberError(raw, start)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Token{}, types.NewInvalidNumberError(raw, start)
	}
	return Token{Type: TokenNumber, Text: raw, Value: f, Pos: start}, nil
}

func (l *Lexer) skipWhitespace() {
	for l.pos < len(l.input) && unicode.IsSpace(rune(l.input[l.pos])) {
		l.pos++
	}
}
