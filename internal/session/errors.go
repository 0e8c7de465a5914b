package session

import (
	"errors"
	"fmt"
)

// ErrUnknownTenant is returned by SelectTenant for an id that is not in
// the current membership list.
var ErrUnknownTenant = errors.New("tenant is not in the current membership list")

// AuthenticationError means the server rejected the login credentials.
// The message is the server's, verbatim, and is safe to show the user.
type AuthenticationError struct {
	Message string
}

func (e *AuthenticationError) Error() string {
	return e.Message
}

// SessionInvalidError means a session validation failed: an expired or
// revoked token, or a transport failure while validating. The controller
// has already performed a full logout by the time this is returned.
type SessionInvalidError struct {
	cause error
}

func (e *SessionInvalidError) Error() string {
	return fmt.Sprintf("session is no longer valid: %v", e.cause)
}

func (e *SessionInvalidError) Unwrap() error {
	return e.cause
}
