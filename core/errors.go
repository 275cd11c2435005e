package core

import "github.com/pkg/errors"

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("permission denied")
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError wraps ErrNotFound with the kind of object that was missing, eg. "class not found".
type NotFoundError struct {
	Object string
}

func NewNotFoundError(object string) error {
	return &NotFoundError{Object: object}
}

func (err NotFoundError) Error() string {
	return err.Object + " not found"
}

func (err NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
