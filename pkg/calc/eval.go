// Package calc implements the deskcalc expression evaluator: a tokenizer,
// an infix-to-postfix converter, and a postfix evaluator for float64
// arithmetic with + - * / %, parentheses, decimal literals, and negative
// literals.
package calc

import (
	"fmt"
	"math"

	"github.com/tapelabs/deskcalc/pkg/types"
)

// MaxExpressionLength is the maximum accepted expression length in bytes.
const MaxExpressionLength = 1000

// roundDigits is the number of fractional digits kept on non-integer
// results to hide binary floating-point noise (0.1+0.2 displays as 0.3).
const roundDigits = 12

// EvalPostfix reduces a postfix token sequence to a single value. Numbers
// push onto a stack; each operator pops two operands, with the first pop
// becoming the right-hand side. Non-integer results are rounded to
// roundDigits fractional digits.
func EvalPostfix(tokens []Token) (float64, error) {
	var stack []float64

	for _, tok := range tokens {
		switch tok.Type {
		case TokenNumber:
			stack = append(stack, tok.Value)

		case TokenOperator:
			if len(stack) < 2 {
				return 0, types.NewInvalidExpressionError(
					fmt.Sprintf("operator %q is missing an operand", string(tok.Op)))
			}
			b := stack[len(stack)-1]
			a := stack[len(stack)-2]
			stack = stack[:len(stack)-2]

			v, err := apply(tok.Op, a, b)
			if err != nil {
				return 0, err
			}
			stack = append(stack, v)

		default:
			return 0, types.NewInvalidExpressionError(
				fmt.Sprintf("unexpected %s token in postfix sequence", tok.Type))
		}
	}

	if len(stack) != 1 {
		return 0, types.NewInvalidExpressionError(
			fmt.Sprintf("expected a single result, found %d values", len(stack)))
	}
	return roundResult(stack[0]), nil
}

// apply computes a single binary operation. The zero-divisor check runs
// before the operation, so / and % never produce Inf or NaN from a zero
// divisor.
func apply(op byte, a, b float64) (float64, error) {
	switch op {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return 0, types.NewDivisionByZeroError()
		}
		return a / b, nil
	case '%':
		if b == 0 {
			return 0, types.NewDivisionByZeroError()
		}
		return math.Mod(a, b), nil
	default:
		return 0, types.NewInvalidExpressionError(fmt.Sprintf("unknown operator %q", string(op)))
	}
}

// roundResult rounds non-integer values to roundDigits fractional digits.
// Integer values pass through exactly.
func roundResult(v float64) float64 {
	if v == math.Trunc(v) {
		return v
	}
	shift := math.Pow10(roundDigits)
	return math.Round(v*shift) / shift
}

// Evaluate runs the full pipeline on a raw expression string: tokenize,
// convert to postfix, evaluate. Every failure is reported as a *CalcError;
// unexpected panics are recovered and mapped to an EvaluationError, so the
// function returns for arbitrary input. Each call is independent and safe
// for concurrent use.
func Evaluate(input string) (result float64, err error) {
	if len(input) > MaxExpressionLength {
		return 0, types.NewInvalidExpressionError(
			fmt.Sprintf("expression exceeds maximum length of %d characters", MaxExpressionLength))
	}

	defer func() {
		if r := recover(); r != nil {
			result = 0
			err = types.NewEvaluationError(fmt.Sprintf("internal evaluation fault: %v", r))
		}
	}()

	tokens, err := NewLexer(input).Tokenize()
	if err != nil {
		return 0, err
	}

	postfix, err := ToPostfix(tokens)
	if err != nil {
		return 0, err
	}

	return EvalPostfix(postfix)
}
