// Package core holds the error vocabulary shared by every engine
// package (store, trading, resolution, scheduler, fetch).
package core

import "fmt"

// Kind identifies the category of an engine error, independent of the
// human-readable message. HTTP handlers map Kind to a status code.
type Kind string

const (
	KindValidation        Kind = "ValidationError"
	KindNotFound          Kind = "NotFound"
	KindMarketNotOpen     Kind = "MarketNotOpen"
	KindAlreadyResolved   Kind = "AlreadyResolved"
	KindInsufficientFunds Kind = "InsufficientFunds"
	KindInsufficientShare Kind = "InsufficientShares"
	KindDegenerateTrade   Kind = "DegenerateTrade"
	KindFetchFailed       Kind = "FetchFailed"
	KindPathMissing       Kind = "PathMissing"
	KindUnknownOperator   Kind = "UnknownOperator"
	KindInternal          Kind = "InternalError"
)

// Error is the concrete error type raised by the engine. Callers use
// errors.As to recover the Kind.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds an *Error with the given kind and formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
