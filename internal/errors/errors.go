package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// DomainError represents a domain-specific error with a code and message
type DomainError struct {
	Code    string
	Message string
	Err     error // underlying error for wrapping
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is and errors.As
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with domain error context
func WrapError(domainErr *DomainError, err error) *DomainError {
	return &DomainError{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Err:     err,
	}
}

// Predefined domain errors
var (
	// User errors
	ErrUserNotFound       = NewDomainError("USER_NOT_FOUND", "user not found")
	ErrEmailExists        = NewDomainError("EMAIL_EXISTS", "email already exists")
	ErrUsernameExists     = NewDomainError("USERNAME_EXISTS", "username already exists")
	ErrInvalidCredentials = NewDomainError("INVALID_CREDENTIALS", "incorrect email or password")
	ErrSelfDeletion       = NewDomainError("SELF_DELETION", "users cannot delete themselves")

	// Role errors
	ErrRoleNotFound   = NewDomainError("ROLE_NOT_FOUND", "role not found")
	ErrRoleNameExists = NewDomainError("ROLE_NAME_EXISTS", "role name already exists")

	// Authentication errors
	ErrUnauthorized = NewDomainError("UNAUTHORIZED", "unauthorized")
	ErrForbidden    = NewDomainError("FORBIDDEN", "forbidden")
	ErrInvalidToken = NewDomainError("INVALID_TOKEN", "invalid or revoked token")
	ErrTokenExpired = NewDomainError("TOKEN_EXPIRED", "token has expired")

	// Validation errors
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "invalid input")
	ErrPasswordMismatch  = NewDomainError("PASSWORD_MISMATCH", "new password and confirmation do not match")
	ErrIncorrectPassword = NewDomainError("INCORRECT_PASSWORD", "current password is incorrect")

	// System errors
	ErrInternal           = NewDomainError("INTERNAL_ERROR", "internal server error")
	ErrServiceUnavailable = NewDomainError("SERVICE_UNAVAILABLE", "service unavailable")
)

// IsDomainError checks if an error is a domain error
func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// GetDomainError extracts the domain error from an error
func GetDomainError(err error) *DomainError {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// ToHTTPStatus maps domain errors to HTTP status codes
// This should only be used in the handler/presentation layer
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErrorToHTTPStatus(domainErr)
	}

	// Default to internal server error for unknown errors
	return http.StatusInternalServerError
}

func domainErrorToHTTPStatus(err *DomainError) int {
	switch err.Code {
	// 401 Unauthorized
	case "UNAUTHORIZED", "INVALID_CREDENTIALS", "INVALID_TOKEN",
		"TOKEN_EXPIRED", "INCORRECT_PASSWORD":
		return http.StatusUnauthorized

	// 403 Forbidden
	case "FORBIDDEN", "SELF_DELETION":
		return http.StatusForbidden

	// 404 Not Found
	case "USER_NOT_FOUND", "ROLE_NOT_FOUND":
		return http.StatusNotFound

	// 422 Unprocessable Entity
	case "INVALID_INPUT", "PASSWORD_MISMATCH", "EMAIL_EXISTS",
		"USERNAME_EXISTS", "ROLE_NAME_EXISTS":
		return http.StatusUnprocessableEntity

	// 503 Service Unavailable
	case "SERVICE_UNAVAILABLE":
		return http.StatusServiceUnavailable

	// 500 Internal Server Error (default)
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorMessage safely extracts error message
func GetErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}

	return err.Error()
}
