package errors

import (
	"errors"
	"fmt"
)

// Common error types for the local-sites backend
var (
	// Session errors
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrAuthentication   = errors.New("authentication failed")
	ErrRegionResolution = errors.New("data region could not be resolved")

	// Remote call errors
	ErrNetwork    = errors.New("network error")
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation rejected upstream")
	ErrUpstream   = errors.New("upstream error")
)

// UpstreamError carries the HTTP status and verbatim message of a failed
// remote call alongside the sentinel that classifies it. The message is the
// upstream response body, passed through for user visibility; credentials
// and tokens must never end up in it.
type UpstreamError struct {
	Kind    error
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Kind, e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Kind
}

// Upstream builds an UpstreamError classified by kind.
func Upstream(kind error, status int, message string) *UpstreamError {
	return &UpstreamError{Kind: kind, Status: status, Message: message}
}

// StatusOf returns the upstream HTTP status carried by err, or 0 when none is.
func StatusOf(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
