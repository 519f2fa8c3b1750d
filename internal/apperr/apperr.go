// Package apperr defines the error taxonomy shared by the store, the query
// parser, the search engine and the ingestion pipeline. Every error carries a
// Kind for callers to branch on and a human-readable reason for display.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	Unknown Kind = iota
	Validation
	NotFound
	Conflict
	EmptyQuery
	Syntax
	Ingestion
	Storage
	Unavailable
)

var kindNames = map[Kind]string{
	Unknown:     "unknown",
	Validation:  "validation",
	NotFound:    "not_found",
	Conflict:    "conflict",
	EmptyQuery:  "empty_query",
	Syntax:      "syntax",
	Ingestion:   "ingestion",
	Storage:     "storage",
	Unavailable: "unavailable",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the structured error returned by core operations.
type Error struct {
	Kind   Kind
	Op     string
	Reason string
	Err    error
}

// New returns an error of the given kind without an underlying cause.
func New(kind Kind, op, reason string) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason}
}

// Wrap returns an error of the given kind wrapping err.
func Wrap(kind Kind, op, reason string, err error) *Error {
	return &Error{Kind: kind, Op: op, Reason: reason, Err: err}
}

// Newf is New with a formatted reason.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return New(kind, op, fmt.Sprintf(format, args...))
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches sentinel values such as ErrNotFound by kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Reason == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrValidation  = &Error{Kind: Validation}
	ErrNotFound    = &Error{Kind: NotFound}
	ErrConflict    = &Error{Kind: Conflict}
	ErrEmptyQuery  = &Error{Kind: EmptyQuery}
	ErrSyntax      = &Error{Kind: Syntax}
	ErrIngestion   = &Error{Kind: Ingestion}
	ErrStorage     = &Error{Kind: Storage}
	ErrUnavailable = &Error{Kind: Unavailable}
)

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ReasonOf returns the reason of the outermost *Error, or err's text.
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Reason != "" {
		return e.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
