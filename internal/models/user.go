package models

import "time"

// User is an account that can sign in and hold tenant memberships.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	IsActive  bool      `json:"-"`
	CreatedAt time.Time `json:"-"`
}

// UserCredentials carries the fields needed to verify a login attempt.
// The password hash never leaves the auth path.
type UserCredentials struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     bool
}
