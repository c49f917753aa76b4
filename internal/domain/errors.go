package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a repository failure. The transport layer maps each
// kind to an HTTP status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
)

// Error is the failure type returned by repositories. Fields is only
// populated for validation failures and lists every offending field name.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds a Kind=NotFound error.
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict builds a Kind=Conflict error.
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Invalid builds a validation error naming every violating field.
func Invalid(fields []string) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "invalid or missing fields: " + strings.Join(fields, ", "),
		Fields:  fields,
	}
}

// InvalidMsg builds a validation error with a free-form message.
func InvalidMsg(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// Internal wraps an unexpected fault, typically a storage I/O failure.
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf extracts the classification from err; anything that is not a
// *Error counts as internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}
