// Package errors classifies failures so background jobs know whether another
// attempt can help.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Category decides how the executor treats a failed job.
type Category int

const (
	// Recoverable failures may succeed on a later attempt.
	Recoverable Category = iota
	// Irrecoverable failures are reported once and never retried.
	Irrecoverable
)

func (c Category) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ClassifiedError attaches a Category and, for HTTP failures, the status.
type ClassifiedError struct {
	Category   Category
	StatusCode int
	Underlying error
}

func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Category, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %v", e.Category, e.Underlying)
}

func (e *ClassifiedError) Unwrap() error { return e.Underlying }

// MarkIrrecoverable marks err as not worth retrying. A nil err stays nil.
func MarkIrrecoverable(err error) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{Category: Irrecoverable, Underlying: err}
}

// IsIrrecoverable reports whether any error in the chain is classified
// Irrecoverable.
func IsIrrecoverable(err error) bool {
	var ce *ClassifiedError
	return stderrors.As(err, &ce) && ce.Category == Irrecoverable
}
