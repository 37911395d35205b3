package cerr

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
)

// Error is a coded error with user-facing detail lines. Msg and Details are
// safe to render directly to the end user; Err is the underlying cause kept
// for logs.
type Error struct {
	Code    Code
	Msg     string
	Err     error
	Stack   string
	Details []string
}

func NewError(code Code, msg string, underlying error) *Error {
	err := &Error{
		Code: code,
		Msg:  msg,
		Err:  underlying,
	}
	if code.SlogLevel() == slog.LevelError {
		stackTrace := make([]byte, 2048)
		n := runtime.Stack(stackTrace, false)
		err.Stack = string(stackTrace[0:n])
	}
	return err
}

func NewErrorWithDetails(code Code, msg string, underlying error, details []string) *Error {
	err := NewError(code, msg, underlying)
	err.Details = details
	return err
}

func (e *Error) AddDetail(format string, args ...any) *Error {
	e.Details = append(e.Details, fmt.Sprintf(format, args...))
	return e
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Code.String(), e.Msg)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code.String(), e.Msg, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage renders the message and all detail lines as a single block
// suitable for terminal output.
func (e *Error) UserMessage() string {
	if len(e.Details) == 0 {
		return e.Msg
	}
	var b strings.Builder
	b.WriteString(e.Msg)
	for _, d := range e.Details {
		b.WriteString("\n  ")
		b.WriteString(d)
	}
	return b.String()
}

func IsCode(err error, code Code) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code == code
	}
	return false
}

// CodeOf returns the code of err, or Unknown for uncoded errors.
func CodeOf(err error) Code {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Code
	}
	return Unknown
}

// DetailsOf returns the user-facing detail lines of err, if any.
func DetailsOf(err error) []string {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Details
	}
	return nil
}
