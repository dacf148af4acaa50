// Package errors defines the error kinds shared by services and handlers.
// Services wrap a kind with %w; handlers map the kind to an HTTP status and a
// numeric code with Status and Code.
package errors

import (
	"errors"
	"net/http"
)

// Error kinds.
var (
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidCode     = errors.New("invalid course code")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrDuplicate       = errors.New("duplicate")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
)

// Kind is a sentinel plus a message to show to callers.
type Kind struct {
	kind error
	msg  string
}

// New returns an error of the given kind carrying a caller-facing message.
func New(kind error, msg string) error {
	return &Kind{kind: kind, msg: msg}
}

func (e *Kind) Error() string { return e.msg }

func (e *Kind) Unwrap() error { return e.kind }

var statuses = []struct {
	kind   error
	status int
	code   int
}{
	{ErrValidation, http.StatusBadRequest, 10001},
	{ErrInvalidID, http.StatusBadRequest, 10006},
	{ErrInvalidCode, http.StatusBadRequest, 10007},
	{ErrUnsupportedType, http.StatusBadRequest, 10008},
	{ErrDuplicate, http.StatusBadRequest, 10009},
	{ErrUnauthenticated, http.StatusUnauthorized, 10002},
	{ErrForbidden, http.StatusForbidden, 10003},
	{ErrNotFound, http.StatusNotFound, 10004},
}

// Status maps an error to its HTTP status. Unclassified errors are 500.
func Status(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.kind) {
			return s.status
		}
	}
	return http.StatusInternalServerError
}

// Code maps an error to its numeric response code. Unclassified errors are 50000.
func Code(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.kind) {
			return s.code
		}
	}
	return 50000
}

// Message returns the caller-facing message of the innermost Kind in the
// chain, or err.Error() when there is none.
func Message(err error) string {
	var k *Kind
	if errors.As(err, &k) {
		return k.msg
	}
	return err.Error()
}

// IsClassified reports whether err belongs to one of the known kinds.
func IsClassified(err error) bool {
	return Status(err) != http.StatusInternalServerError
}

// Is, As and Unwrap re-export the standard helpers so callers need one import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }

func Unwrap(err error) error { return errors.Unwrap(err) }
