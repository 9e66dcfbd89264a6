package user

import "errors"

// Error kinds. Match them with errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrInternal   = errors.New("internal error")
)

const (
	MsgEmailInUse         = "email in use"
	MsgUsernameInUse      = "username in use"
	MsgEmailOtherProvider = "email in use with another provider"
	MsgUserNotFound       = "user not found"
)

type Error struct {
	Kind    error
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func Validation(field, msg string) error {
	return &Error{Kind: ErrValidation, Field: field, Message: msg}
}

func Conflict(msg string) error { return &Error{Kind: ErrConflict, Message: msg} }

func NotFound(msg string) error { return &Error{Kind: ErrNotFound, Message: msg} }

func Internal(msg string, err error) error {
	return &Error{Kind: ErrInternal, Message: msg, Err: err}
}

// AsInternal keeps errors that already carry a kind and wraps the rest as ErrInternal.
func AsInternal(msg string, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Internal(msg, err)
}

// Message returns the human-readable part without the wrapped cause.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// Field returns the offending input field of a validation error, if any.
func Field(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Field
	}
	return ""
}
