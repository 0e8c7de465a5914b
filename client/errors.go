package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// APIError represents a structured error response from the accesspanel API.
type APIError struct {
	StatusCode int             `json:"-"`
	Code       string          `json:"code"`
	Message    string          `json:"message"`
	Details    json.RawMessage `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("accesspanel: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthorized returns true if the error is a 401.
func IsUnauthorized(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == http.StatusUnauthorized
}

// IsForbidden returns true if the error is a 403.
func IsForbidden(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == http.StatusForbidden
}

// IsNotFound returns true if the error is a 404.
func IsNotFound(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}

// IsConflict returns true if the error is a 409 conflict.
func IsConflict(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.StatusCode == http.StatusConflict
}

// IsValidation returns true if the server rejected the request body.
func IsValidation(err error) bool {
	var e *APIError
	return errors.As(err, &e) && e.Code == "VALIDATION_ERROR"
}

// errorEnvelope matches the server's error body: {"error":{code,message,details}}.
type errorEnvelope struct {
	Error APIError `json:"error"`
}

// parseAPIError decodes the JSON error envelope; non-JSON or incomplete
// bodies fall back to a generic HTTP-status-derived message.
func parseAPIError(statusCode int, body []byte) *APIError {
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Code == "" {
		return &APIError{
			StatusCode: statusCode,
			Code:       "HTTP_ERROR",
			Message:    fmt.Sprintf("HTTP %d", statusCode),
		}
	}
	apiErr := env.Error
	apiErr.StatusCode = statusCode
	return &apiErr
}
