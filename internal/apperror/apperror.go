// Package apperror defines the domain errors shared by every layer.
//
// Each constructor returns an *AppError that wraps one of the sentinel
// errors below, so callers branch with errors.Is and the HTTP layer maps
// the sentinel to a status code (see handler/response.go).
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("Validation Error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpstream     = errors.New("upstream failure")

	// Social publishing outcomes.
	ErrCredentialExchange = errors.New("credential exchange failed")
	ErrNotConnected       = errors.New("not connected")
	ErrCredentialExpired  = errors.New("credential expired")
	ErrPlatformNotLinked  = errors.New("platform not linked")
	ErrPublishFailed      = errors.New("platform publish failed")
)

type AppError struct {
	Err     error  // actual error
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Detail  string // Optional: raw upstream response body
}

func (e *AppError) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, key string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, key),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned for bad sign-in credentials.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Upstream wraps a failure of an external collaborator (the generation
// API, for instance) whose details should not leak to the client.
func Upstream(message string, err error) *AppError {
	return &AppError{
		Err:     fmt.Errorf("%w: %w", ErrUpstream, err),
		Message: message,
	}
}

// CredentialExchange reports that the OAuth exchange produced no usable
// token. body is the raw provider response, kept for diagnostics.
func CredentialExchange(body string) *AppError {
	return &AppError{
		Err:     ErrCredentialExchange,
		Message: "token exchange failed",
		Detail:  body,
	}
}

func NotConnected(platform string) *AppError {
	return &AppError{
		Err:     ErrNotConnected,
		Message: fmt.Sprintf("you must connect %s before posting", platform),
	}
}

func CredentialExpired(platform string) *AppError {
	return &AppError{
		Err:     ErrCredentialExpired,
		Message: fmt.Sprintf("your %s token has expired, please reconnect", platform),
	}
}

func PlatformNotLinked(message string) *AppError {
	return &AppError{
		Err:     ErrPlatformNotLinked,
		Message: message,
	}
}

// PublishFailed carries the upstream rejection verbatim in Detail.
func PublishFailed(platform, body string) *AppError {
	return &AppError{
		Err:     ErrPublishFailed,
		Message: fmt.Sprintf("%s error", platform),
		Detail:  body,
	}
}
