package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Standard error types
var (
	ErrAuthentication = errors.New("authentication error")
	ErrConfiguration  = errors.New("configuration error")
	ErrBuild          = errors.New("request build error")
	ErrHTTPRequest    = errors.New("HTTP request error")
	ErrHTTPResponse   = errors.New("HTTP response error")
	ErrRemote         = errors.New("remote GraphQL error")
	ErrExtraction     = errors.New("data extraction error")
	ErrValidation     = errors.New("validation error")
	ErrCleanup        = errors.New("cleanup error")
)

// WrapError wraps an error with a standard error type.
// The result matches both errType and err under errors.Is.
func WrapError(err error, errType error, message string) error {
	return fmt.Errorf("%w: %s: %w", errType, message, err)
}

// GraphQLError is a single entry of a response's "errors" list.
type GraphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// RemoteError reports a response that carried a non-empty errors list,
// even if the HTTP status was a success.
type RemoteError struct {
	Status int
	Errors []GraphQLError
}

func (e *RemoteError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ge := range e.Errors {
		msgs = append(msgs, ge.Message)
	}
	return fmt.Sprintf("GraphQL response contains %d error(s) (HTTP %d): %s",
		len(e.Errors), e.Status, strings.Join(msgs, "; "))
}

// Is lets errors.Is(err, ErrRemote) match a *RemoteError.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// Is provides a convenience wrapper around errors.Is
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As provides a convenience wrapper around errors.As
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Unwrap provides a convenience wrapper around errors.Unwrap
func Unwrap(err error) error {
	return errors.Unwrap(err)
}

// Join provides a convenience wrapper around errors.Join
func Join(errs ...error) error {
	return errors.Join(errs...)
}
