package apperr

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type Kind string

const (
	KindNotFound             Kind = "NOT_FOUND"
	KindUnauthorized         Kind = "UNAUTHORIZED"
	KindDuplicateApplication Kind = "DUPLICATE_APPLICATION"
	KindRetrievalFailure     Kind = "RETRIEVAL_FAILURE"
	KindValidationFailure    Kind = "VALIDATION_FAILURE"
)

// Error is the typed failure returned by every workflow operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
	Stack   []byte
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) StackTrace() []byte {
	return e.Stack
}

func New(kind Kind, message string, err error) *Error {
	var stack []byte
	if err != nil {
		var stackErr *goerrors.Error
		if errors.As(err, &stackErr) {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.Wrap(message, 2).Stack()
	}

	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func NotFound(message string, err error) *Error {
	return New(KindNotFound, message, err)
}

func Unauthorized(message string, err error) *Error {
	return New(KindUnauthorized, message, err)
}

func DuplicateApplication(message string, err error) *Error {
	return New(KindDuplicateApplication, message, err)
}

func RetrievalFailure(message string, err error) *Error {
	return New(KindRetrievalFailure, message, err)
}

func ValidationFailure(message string, err error) *Error {
	return New(KindValidationFailure, message, err)
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
