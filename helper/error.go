package helper

import (
	"errors"
	"fmt"
	"strings"
)

// Error wraps an original error with the trace of operations it passed through.
type Error struct {
	Original error
	Trace    []string
}

// Error returns the original message followed by the trace, innermost first.
func (e Error) Error() string {
	if e.Original == nil {
		return fmt.Sprintf("unknown error | trace: %s", strings.Join(e.Trace, ", "))
	}
	return fmt.Sprintf("%s | trace: %s", e.Original.Error(), strings.Join(e.Trace, ", "))
}

// Unwrap exposes the original error to errors.Is and errors.As.
func (e Error) Unwrap() error {
	return e.Original
}

// NewError wraps err with a trace entry. If err already is an Error
// the trace entry is appended instead of nesting a new Error.
func NewError(trace string, err error) error {
	var e Error
	if errors.As(err, &e) {
		t := make([]string, len(e.Trace), len(e.Trace)+1)
		copy(t, e.Trace)
		return Error{Original: e.Original, Trace: append(t, trace)}
	}
	return Error{Original: err, Trace: []string{trace}}
}
