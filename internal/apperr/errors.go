// Package apperr holds the error taxonomy shared by the dashboard API components.
// Handlers map each kind to a status code; messages stay server-side.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is bad input shape or value.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field was rejected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// Invalid builds a single-field ValidationError.
func Invalid(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// AuthError is a missing, invalid or expired credential.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string { return wrapMsg("unauthorized", e.Op, e.Err) }
func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError is an absent resource.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// UpstreamError is a provider failure other than auth and rate limiting.
type UpstreamError struct {
	Op     string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return wrapMsg(fmt.Sprintf("upstream status %d", e.Status), e.Op, e.Err)
	}
	return wrapMsg("upstream failure", e.Op, e.Err)
}
func (e *UpstreamError) Unwrap() error { return e.Err }

// RateLimitError is an upstream throttle. Callers retry with backoff; the gateway does not.
type RateLimitError struct {
	Op  string
	Err error
}

func (e *RateLimitError) Error() string { return wrapMsg("rate limited", e.Op, e.Err) }
func (e *RateLimitError) Unwrap() error { return e.Err }

// ConfigurationError is a missing required process-wide setting.
type ConfigurationError struct {
	Key string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration %q", e.Key)
}

// FetchError is returned by the mailbox directory when its backing store is unreachable.
type FetchError struct {
	UserID string
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch connected accounts for user %s: %v", e.UserID, e.Err)
}
func (e *FetchError) Unwrap() error { return e.Err }

func wrapMsg(kind, op string, err error) string {
	msg := kind
	if op != "" {
		msg = op + ": " + msg
	}
	if err != nil {
		msg += ": " + err.Error()
	}
	return msg
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

func IsRateLimit(err error) bool {
	var target *RateLimitError
	return errors.As(err, &target)
}

func IsUpstream(err error) bool {
	var target *UpstreamError
	return errors.As(err, &target)
}

func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}
