package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies Flare errors.
type ErrorKind string

// Error kinds raised by the parser, the evaluator and the built-ins.
const (
	KindSyntax             ErrorKind = "SyntaxError"
	KindUnboundSymbol      ErrorKind = "UnboundSymbol"
	KindUndefinedVariable  ErrorKind = "UndefinedVariable"
	KindEmptyForm          ErrorKind = "EmptyForm"
	KindNotCallable        ErrorKind = "NotCallable"
	KindUnexpectedCallable ErrorKind = "UnexpectedCallable"
	KindTypeMismatch       ErrorKind = "TypeMismatch"
	KindDivisionByZero     ErrorKind = "DivisionByZero"
	KindUnknownOperator    ErrorKind = "UnknownOperator"
	KindArityMismatch      ErrorKind = "ArityMismatch"
)

// Error is a Flare error with a kind and a human-readable reason.
type Error struct {
	Kind    ErrorKind
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return "", false
}

// HasKind returns true if err is a Flare error of the given kind.
func HasKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Common error constructors.

// NewSyntaxError creates a SyntaxError.
func NewSyntaxError(msg string) *Error {
	return &Error{Kind: KindSyntax, Message: msg}
}

// NewUnboundSymbolError creates an UnboundSymbol error for name.
func NewUnboundSymbolError(name string) *Error {
	return &Error{Kind: KindUnboundSymbol, Message: fmt.Sprintf("unexpected symbol k='%s'", name)}
}

// NewUndefinedVariableError creates an UndefinedVariable error for an
// assignment to a name that was never declared.
func NewUndefinedVariableError(name string) *Error {
	return &Error{Kind: KindUndefinedVariable, Message: fmt.Sprintf("undefined variable for assignment: %s", name)}
}

// NewEmptyFormError creates an EmptyForm error.
func NewEmptyFormError() *Error {
	return &Error{Kind: KindEmptyForm, Message: "expected a non-empty list"}
}

// NewNotCallableError creates a NotCallable error for the evaluated head of a list.
func NewNotCallableError(head Value) *Error {
	return &Error{Kind: KindNotCallable, Message: fmt.Sprintf("first form must be a function, got %s", head.Type())}
}

// NewUnexpectedCallableError creates an UnexpectedCallable error.
func NewUnexpectedCallableError() *Error {
	return &Error{Kind: KindUnexpectedCallable, Message: "unexpected form"}
}

// NewTypeMismatchError creates a TypeMismatch error.
func NewTypeMismatchError(msg string) *Error {
	return &Error{Kind: KindTypeMismatch, Message: msg}
}

// NewDivisionByZeroError creates a DivisionByZero error.
func NewDivisionByZeroError() *Error {
	return &Error{Kind: KindDivisionByZero, Message: "division by zero"}
}

// NewUnknownOperatorError creates an UnknownOperator error.
func NewUnknownOperatorError(op string) *Error {
	return &Error{Kind: KindUnknownOperator, Message: fmt.Sprintf("unknown operator %q", op)}
}

// NewArityMismatchError creates an ArityMismatch error.
func NewArityMismatchError(msg string) *Error {
	return &Error{Kind: KindArityMismatch, Message: msg}
}
