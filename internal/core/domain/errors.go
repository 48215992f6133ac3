// Package domain provides canonical entity and error types for the API.
package domain

import (
	"fmt"
	"net/http"
)

// ErrorType represents the category of an API error.
type ErrorType string

const (
	// ErrorTypeInvalidRequest indicates a malformed or invalid request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"

	// ErrorTypeAuthentication indicates an authentication failure.
	ErrorTypeAuthentication ErrorType = "authentication"

	// ErrorTypePermission indicates a permission/authorization failure.
	ErrorTypePermission ErrorType = "permission"

	// ErrorTypeNotFound indicates a resource was not found.
	ErrorTypeNotFound ErrorType = "not_found"

	// ErrorTypeServer indicates an internal server error.
	ErrorTypeServer ErrorType = "server"
)

// ErrorCode provides additional specificity beyond the error type.
// It is surfaced to GraphQL clients as extensions.code.
type ErrorCode string

const (
	ErrorCodeMissingChannelArgument ErrorCode = "MISSING_CHANNEL_ARGUMENT"
	ErrorCodeReadOnlyMode           ErrorCode = "READ_ONLY_MODE"
	ErrorCodeInvalidCredentials     ErrorCode = "INVALID_CREDENTIALS"
	ErrorCodeChannelNotFound        ErrorCode = "CHANNEL_NOT_FOUND"
	ErrorCodePermissionDenied       ErrorCode = "PERMISSION_DENIED"
)

// APIError is a client-facing error. The GraphQL error presenter turns it
// into a query error carrying Code in its extensions.
type APIError struct {
	// Type is the category of error
	Type ErrorType `json:"type"`

	// Code is an optional specific error code
	Code ErrorCode `json:"code,omitempty"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Param is the argument that caused the error (if applicable)
	Param string `json:"param,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%s): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Is reports whether target is an APIError with the same type and code.
// This lets errors.Is match the package sentinels against fresh instances.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code && t.Code != ""
}

// HTTPStatusCode returns the appropriate HTTP status code for this error.
func (e *APIError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeAuthentication:
		return http.StatusUnauthorized
	case ErrorTypePermission:
		return http.StatusForbidden
	case ErrorTypeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewAPIError creates a new API error.
func NewAPIError(errType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errType,
		Message: message,
	}
}

// WithCode adds an error code to the error.
func (e *APIError) WithCode(code ErrorCode) *APIError {
	e.Code = code
	return e
}

// WithParam adds a parameter name to the error.
func (e *APIError) WithParam(param string) *APIError {
	e.Param = param
	return e
}

var (
	// ErrMissingChannelArgument is returned when a field needs a channel but
	// the caller passed none and no default channel can be chosen.
	ErrMissingChannelArgument = NewAPIError(ErrorTypeInvalidRequest, "Argument 'channel' not passed.").
					WithCode(ErrorCodeMissingChannelArgument).
					WithParam("channel")

	// ErrReadOnlyMode is returned when a mutation outside the allow-list is
	// attempted while the API runs in read-only mode.
	ErrReadOnlyMode = NewAPIError(ErrorTypePermission, "Be aware admin pirate! API runs in read-only mode!").
			WithCode(ErrorCodeReadOnlyMode)

	// ErrInvalidCredentials is returned by tokenCreate on a bad email/password pair.
	ErrInvalidCredentials = NewAPIError(ErrorTypeAuthentication, "Please, enter valid credentials").
				WithCode(ErrorCodeInvalidCredentials)

	ErrPermissionDenied = NewAPIError(ErrorTypePermission, "You do not have permission to perform this action").
				WithCode(ErrorCodePermissionDenied)
)

// ErrChannelNotFound creates a not found error for the given channel slug.
func ErrChannelNotFound(slug string) *APIError {
	return NewAPIError(ErrorTypeNotFound, fmt.Sprintf("Channel with '%s' slug does not exist.", slug)).
		WithCode(ErrorCodeChannelNotFound).
		WithParam("channel")
}
