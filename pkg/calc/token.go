package calc

import "github.com/tapelabs/deskcalc/pkg/types"

// TokenType represents the type of a lexical token.
type TokenType int

// Token types recognized by the lexer.
const (
	TokenNumber TokenType = iota
	TokenOperator
	TokenLParen
	TokenRParen
)

// Token represents a single lexical token.
type Token struct {
	Type  TokenType
	Text  string  // raw source text
	Value float64 // parsed value for TokenNumber
	Op    byte    // operator symbol for TokenOperator
	Pos   int     // byte offset in the source
}

// String returns a human-readable name for the token type.
func (tt TokenType) String() string {
	switch tt {
	case TokenNumber:
		return "NUMBER"
	case TokenOperator:
		return "OPERATOR"
	case TokenLParen:
		return "LPAREN"
	case TokenRParen:
		return "RPAREN"
	default:
		return "UNKNOWN"
	}
}

// String renders the token as it would appear in an expression.
func (t Token) String() string {
	switch t.Type {
	case TokenNumber:
		return types.FormatNumber(t.Value)
	case TokenOperator:
		return string(t.Op)
	case TokenLParen:
		return "("
	case TokenRParen:
		return ")"
	default:
		return t.Text
	}
}
