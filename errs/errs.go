// Package errs defines the error taxonomy shared by the production engine.
//
// Each kind has a sentinel (ErrValidation, ErrConflict, ...) and a struct type
// carrying details plus an optional Cause. Unwrap returns the sentinel, so
// callers classify with errors.Is and read details with errors.As.
package errs

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrDependency = errors.New("dependency unavailable")
)

// ValidationError reports malformed input to a mutating call.
type ValidationError struct {
	Field  string
	Reason string
	Cause  error
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func NewValidationErrorWithCause(field, reason string, cause error) *ValidationError {
	return &ValidationError{Field: field, Reason: reason, Cause: cause}
}

func (e *ValidationError) Error() string {
	return withCause(fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, sanitize(e.Reason)), e.Cause)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConflictError reports a transition attempted from a state that no longer holds.
type ConflictError struct {
	Entity  string
	ID      any
	Current string
	Action  string
	Cause   error
}

func NewConflictError(entity string, id any, current, action string) *ConflictError {
	return &ConflictError{Entity: entity, ID: id, Current: current, Action: action}
}

func (e *ConflictError) Error() string {
	msg := fmt.Sprintf("%s: cannot %s %s %v", ErrConflict, e.Action, e.Entity, e.ID)
	if e.Current != "" {
		msg += " in status " + e.Current
	}
	return withCause(msg, e.Cause)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports a missing operation, order, room or work center.
type NotFoundError struct {
	Entity string
	ID     any
	Cause  error
}

func NewNotFoundError(entity string, id any) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

func NewNotFoundErrorWithCause(entity string, id any, cause error) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id, Cause: cause}
}

func (e *NotFoundError) Error() string {
	return withCause(fmt.Sprintf("%s %v %s", e.Entity, e.ID, ErrNotFound), e.Cause)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AuthorizationError reports an actor below the access level an action needs.
type AuthorizationError struct {
	UserID   string
	Required string
	Actual   string
	Reason   string
}

func NewAuthorizationError(userID, required, actual string) *AuthorizationError {
	return &AuthorizationError{UserID: userID, Required: required, Actual: actual}
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", ErrForbidden, e.Reason)
	}
	return fmt.Sprintf("%s: user %q has %s access, needs %s", ErrForbidden, e.UserID, e.Actual, e.Required)
}

func (e *AuthorizationError) Unwrap() error { return ErrForbidden }

// DependencyError reports an unreachable store, cache or broker.
type DependencyError struct {
	Dependency string
	Cause      error
}

func NewDependencyError(dependency string, cause error) *DependencyError {
	return &DependencyError{Dependency: dependency, Cause: cause}
}

func (e *DependencyError) Error() string {
	return withCause(fmt.Sprintf("%s: %s", ErrDependency, e.Dependency), e.Cause)
}

func (e *DependencyError) Unwrap() error { return ErrDependency }

// HTTPStatus maps an error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDependency):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromStore classifies an error returned by a store lookup: a missing row
// becomes NotFoundError, anything else a DependencyError.
func FromStore(entity string, id any, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFoundErrorWithCause(entity, id, err)
	}
	return NewDependencyError("store", err)
}

func withCause(msg string, cause error) string {
	if cause == nil {
		return msg
	}
	return fmt.Sprintf("%s (cause: %v)", msg, cause)
}

func sanitize(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}
