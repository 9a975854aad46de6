package types

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one of the calculator's failure classes.
type ErrorKind string

// Error kind constants covering every way an evaluation can fail.
const (
	KindInvalidNumber         ErrorKind = "InvalidNumber"
	KindUnexpectedCharacter   ErrorKind = "UnexpectedCharacter"
	KindMismatchedParentheses ErrorKind = "MismatchedParentheses"
	KindInvalidExpression     ErrorKind = "InvalidExpression"
	KindDivisionByZero        ErrorKind = "DivisionByZero"
	KindEvaluationError       ErrorKind = "EvaluationError"
)

// CalcError represents an evaluation failure with a message and a kind.
type CalcError struct {
	Kind    ErrorKind
	Message string
	Pos     int // byte offset in the expression, -1 when not tied to a position
}

// Error implements the error interface.
func (e *CalcError) Error() string {
	return fmt.Sprintf("%s (kind=%s)", e.Message, e.Kind)
}

// HasKind returns true if err is (or wraps) a CalcError of the given kind.
func HasKind(err error, kind ErrorKind) bool {
	var ce *CalcError
	return errors.As(err, &ce) && ce.Kind == kind
}

// KindOf returns the kind of err, classifying unknown errors as EvaluationError.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	return AsCalcError(err).Kind
}

// AsCalcError converts any error to a *CalcError. Errors that do not wrap a
// CalcError are folded into an EvaluationError carrying the original message.
func AsCalcError(err error) *CalcError {
	if err == nil {
		return nil
	}
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce
	}
	return NewEvaluationError(err.Error())
}

// ValidKind reports whether s names one of the defined error kinds.
func ValidKind(s ErrorKind) bool {
	switch s {
	case KindInvalidNumber, KindUnexpectedCharacter, KindMismatchedParentheses,
		KindInvalidExpression, KindDivisionByZero, KindEvaluationError:
		return true
	}
	return false
}

// Error constructors, one per kind.

// NewInvalidNumberError creates an InvalidNumber error for a malformed literal.
func NewInvalidNumberError(literal string, pos int) *CalcError {
	return &CalcError{
		Kind:    KindInvalidNumber,
		Message: fmt.Sprintf("invalid number %q at position %d", literal, pos),
		Pos:     pos,
	}
}

// NewUnexpectedCharacterError creates an UnexpectedCharacter error for a byte
// outside the calculator's alphabet.
func NewUnexpectedCharacterError(ch byte, pos int) *CalcError {
	return &CalcError{
		Kind:    KindUnexpectedCharacter,
		Message: fmt.Sprintf("unexpected character %q at position %d", string(ch), pos),
		Pos:     pos,
	}
}

// NewMismatchedParenthesesError creates a MismatchedParentheses error.
func NewMismatchedParenthesesError() *CalcError {
	return &CalcError{Kind: KindMismatchedParentheses, Message: "mismatched parentheses", Pos: -1}
}

// NewInvalidExpressionError creates an InvalidExpression error.
func NewInvalidExpressionError(msg string) *CalcError {
	return &CalcError{Kind: KindInvalidExpression, Message: msg, Pos: -1}
}

// NewDivisionByZeroError creates a DivisionByZero error.
func NewDivisionByZeroError() *CalcError {
	return &CalcError{Kind: KindDivisionByZero, Message: "division by zero", Pos: -1}
}

// NewEvaluationError creates an EvaluationError, the catch-all kind for
// faults that escape the other classes.
func NewEvaluationError(msg string) *CalcError {
	return &CalcError{Kind: KindEvaluationError, Message: msg, Pos: -1}
}
