package api

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation         = "validation"
	CodeExpiredAccessToken = "expired_access_token"
	CodeInvalidAccessToken = "invalid_access_token"
)

// APIError is a non-2xx response without field-level detail.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, msg)
	}

	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

// ValidationError is a non-2xx response carrying a "detail" field.
// Its message is the serialized detail, shown verbatim near the offending form.
type ValidationError struct {
	Status int
	Detail string
}

func (e *ValidationError) Error() string {
	return e.Detail
}

func (e *ValidationError) Code() string {
	return CodeValidation
}

// NetworkError means the request never produced a response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status from API and validation errors.
func StatusCode(err error) (int, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Status, true
	}

	return 0, false
}

func IsStatus(err error, status int) bool {
	got, ok := StatusCode(err)
	return ok && got == status
}

func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

func IsNetwork(err error) bool {
	var networkErr *NetworkError
	return errors.As(err, &networkErr)
}

// IsAuthExpired reports whether the backend rejected the bearer token itself.
func IsAuthExpired(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		return false
	}

	return apiErr.Code == CodeExpiredAccessToken || apiErr.Code == CodeInvalidAccessToken
}
