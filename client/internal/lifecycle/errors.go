package lifecycle

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bitelog/bitelog/client/internal/gateway"
)

// User-facing messages.
const (
	MsgCompressFailed = "სურათის დამუშავება ვერ მოხერხდა. გთხოვთ სცადოთ სხვა ფოტო."
	MsgAnalysisFailed = "სურათის დამუშავება ვერ მოხერხდა."
	MsgPersistFailed  = "შედეგის შენახვა ვერ მოხერხდა."
	MsgInvalidWeight  = "გთხოვთ შეიყვანოთ სწორი წონა"
	MsgCreateFailed   = "ჩანაწერის შექმნა ვერ მოხერხდა."
	MsgEditFailed     = "ცვლილებების შენახვა ვერ მოხერხდა."
	MsgDeleteFailed   = "ჩანაწერის წაშლა ვერ მოხერხდა."
	MsgGoalFailed     = "მიზნის განახლება ვერ მოხერხდა."
)

var (
	ErrCaptureCancelled = errors.New("lifecycle: capture cancelled")
	ErrInvalidWeight    = errors.New("lifecycle: declared weight must be greater than zero")
	ErrInvalidEdit      = errors.New("lifecycle: invalid edit")
	ErrInvalidGoal      = errors.New("lifecycle: calorie goal must be greater than zero")
	// ErrNotFound matches a missing local entry and a 404 from the service.
	ErrNotFound    = errors.New("lifecycle: entry not found")
	ErrNotEditable = errors.New("lifecycle: entry has no analysis to edit")
)

// PersistenceError is a failed gateway call.
type PersistenceError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *PersistenceError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Is lets a 404 match ErrNotFound.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

func persistenceError[T any](op string, r gateway.Result[T]) *PersistenceError {
	return &PersistenceError{Op: op, StatusCode: r.StatusCode, Message: r.Error}
}
