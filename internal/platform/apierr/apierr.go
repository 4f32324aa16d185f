package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/yungbote/deelicious-bakes-backend/internal/pkg/errors"
)

// Error carries the HTTP status, a stable machine code and, optionally, the
// message shown to clients. Err keeps the sentinel chain for errors.Is.
type Error struct {
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Newf(status int, code, format string, args ...any) *Error {
	return &Error{Status: status, Code: code, Err: fmt.Errorf(format, args...)}
}

func BadRequest(code, msg string) *Error {
	e := New(http.StatusBadRequest, code, fmt.Errorf("%s: %w", msg, pkgerrors.ErrInvalidArgument))
	e.Message = msg
	return e
}

func NotFound(what string) *Error {
	e := New(http.StatusNotFound, "not_found", fmt.Errorf("%s: %w", what, pkgerrors.ErrNotFound))
	if what != "" {
		e.Message = strings.ToUpper(what[:1]) + what[1:] + " not found"
	}
	return e
}

func Conflict(code, msg string) *Error {
	e := New(http.StatusConflict, code, fmt.Errorf("%s: %w", msg, pkgerrors.ErrConflict))
	e.Message = msg
	return e
}

func Forbidden(code, msg string) *Error {
	e := New(http.StatusForbidden, code, fmt.Errorf("%s: %w", msg, pkgerrors.ErrForbidden))
	e.Message = msg
	return e
}

func Unauthorized(code, msg string) *Error {
	e := New(http.StatusUnauthorized, code, fmt.Errorf("%s: %w", msg, pkgerrors.ErrUnauthorized))
	e.Message = msg
	return e
}

// From resolves any error to a status and code, falling back on the sentinels.
func From(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		status, code := ae.Status, ae.Code
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if code == "" {
			code = codeForStatus(status)
		}
		return status, code
	}
	switch {
	case errors.Is(err, pkgerrors.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, pkgerrors.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, pkgerrors.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, pkgerrors.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, pkgerrors.ErrConflict):
		return http.StatusConflict, "conflict"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// Message returns the client-facing text for err. Internal errors never
// leak their cause.
func Message(err error) string {
	status, _ := From(err)
	if status >= http.StatusInternalServerError {
		return "Internal server error"
	}
	var ae *Error
	if errors.As(err, &ae) && ae != nil && ae.Message != "" {
		return ae.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_argument"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	default:
		return "internal_error"
	}
}
