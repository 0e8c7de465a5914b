package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/accesspanel/accesspanel/internal/models"
)

// UserStore handles user account lookups.
type UserStore struct {
	Base
}

// NewUserStore creates a UserStore.
func NewUserStore(base Base) *UserStore {
	return &UserStore{Base: base}
}

// GetForLogin fetches the credentials for an email address. The lookup
// runs through a SECURITY DEFINER helper because the users table is
// not otherwise visible before authentication.
func (s *UserStore) GetForLogin(ctx context.Context, email string) (*models.UserCredentials, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var creds models.UserCredentials

	err := s.Pool.QueryRow(ctx,
		"SELECT id, email, password_hash, is_active FROM app_get_user_for_login($1::citext)",
		email,
	).Scan(&creds.ID, &creds.Email, &creds.PasswordHash, &creds.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user for login: %w", err)
	}

	return &creds, nil
}

// GetByID fetches a user visible to themselves under RLS. Returns
// models.ErrUserNotFound when the user does not exist.
func (s *UserStore) GetByID(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx, "", userID)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	var u models.User

	err = tx.QueryRow(ctx,
		"SELECT id, email::text, is_active, created_at FROM users WHERE id = $1",
		userID,
	).Scan(&u.ID, &u.Email, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("looking up user: %w", err)
	}

	return &u, nil
}

// CountUsers returns the total number of accounts. Used to decide
// whether unauthenticated bootstrap is still allowed.
func (s *UserStore) CountUsers(ctx context.Context) (int, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var n int
	if err := s.Pool.QueryRow(ctx, "SELECT app_users_count()").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}

	return n, nil
}
