package calc

import "github.com/tapelabs/deskcalc/pkg/types"

// precedence returns the binding strength of an operator. Multiplicative
// operators bind tighter than additive ones.
func precedence(op byte) int {
	switch op {
	case '*', '/', '%':
		return 2
	case '+', '-':
		return 1
	default:
		return 0
	}
}

// ToPostfix reorders an infix token sequence into postfix (reverse Polish)
// order using the shunting-yard algorithm. All five operators are
// left-associative, so an incoming operator first pops every stacked
// operator of equal or higher precedence.
//
// Only parenthesis balance is checked here; operand arity errors surface
// later, in EvalPostfix.
func ToPostfix(tokens []Token) ([]Token, error) {
	output := make([]Token, 0, len(tokens))
	var stack []Token

	for _, tok := range tokens {
		switch tok.Type {
		case TokenNumber:
			output = append(output, tok)

		case TokenOperator:
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Type != TokenOperator || precedence(top.Op) < precedence(tok.Op) {
					break
				}
				output = append(output, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)

		case TokenLParen:
			stack = append(stack, tok)

		case TokenRParen:
			matched := false
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.Type == TokenLParen {
					matched = true
					break
				}
				output = append(output, top)
			}
			if !matched {
				return nil, types.NewMismatchedParenthesesError()
			}
		}
	}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.Type == TokenLParen || top.Type == TokenRParen {
			return nil, types.NewMismatchedParenthesesError()
		}
		output = append(output, top)
	}

	return output, nil
}
