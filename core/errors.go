package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError reports an invalid argument: a missing required field, an unknown
// assignment type or an unmapped difficulty.
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

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
	return ok
}

// NotFoundError reports that an owner, student, assignment or template is absent.
type NotFoundError struct {
	Resource string
}

func NewNotFoundError(resource string) error {
	return &NotFoundError{Resource: resource}
}

func (err NotFoundError) Error() string {
	return err.Resource + " not found"
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

// PartialError reports a multi-document operation that was applied to fewer documents
// than expected. Nothing is rolled back.
type PartialError struct {
	Op       string
	Expected int
	Applied  int
	Err      error
}

func NewPartialError(op string, expected, applied int, err error) error {
	return &PartialError{Op: op, Expected: expected, Applied: applied, Err: err}
}

func (err PartialError) Error() string {
	msg := fmt.Sprintf("%s partially applied: %d of %d documents", err.Op, err.Applied, err.Expected)
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func IsPartial(err error) bool {
	_, ok := errors.Cause(err).(*PartialError)
	return ok
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

// RequireFields fails with a ValidationError listing every empty value of the given
// name/value pairs, in order.
func RequireFields(pairs ...string) error {
	var missing []FieldError
	for i := 0; i+1 < len(pairs); i += 2 {
		if CleanString(pairs[i+1]) == "" {
			missing = append(missing, FieldError{Field: pairs[i], Error: "this field is required"})
		}
	}
	if len(missing) > 0 {
		return NewValidationError(nil, missing...)
	}
	return nil
}
