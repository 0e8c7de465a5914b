package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// user represents a user account read from the legacy SQLite export.
// Password hashes are bcrypt in the legacy system and carry over as-is.
type user struct {
	ID           string
	Email        string
	PasswordHash string
	IsActive     int
	Created      string
	Updated      string
}

// readUsers reads all users from SQLite.
func readUsers(ctx context.Context, db *sql.DB) ([]user, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, email, password_hash, is_active, created, updated FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []user
	for rows.Next() {
		var u user
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash,
			&u.IsActive, &u.Created, &u.Updated); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// insertUsers batch-inserts users into PostgreSQL in groups of 100.
func insertUsers(ctx context.Context, tx pgx.Tx, users []user) error {
	const batchSize = 100
	for i := 0; i < len(users); i += batchSize {
		end := min(i+batchSize, len(users))
		if err := insertUserBatch(ctx, tx, users[i:end]); err != nil {
			return fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// insertUserBatch inserts a single batch of users.
func insertUserBatch(ctx context.Context, tx pgx.Tx, batch []user) error {
	for i := range batch {
		u := &batch[i]
		_, err := tx.Exec(ctx,
			`INSERT INTO users (id, email, password_hash, is_active, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6)
			 ON CONFLICT (email) DO NOTHING`,
			u.ID, u.Email, u.PasswordHash, u.IsActive != 0,
			parseTime(u.Created), parseTime(u.Updated),
		)
		if err != nil {
			return fmt.Errorf("insert user %s: %w", u.Email, err)
		}
	}
	return nil
}

// buildUserSet creates an ID to email lookup for imported users.
func buildUserSet(users []user) map[string]string {
	m := make(map[string]string, len(users))
	for i := range users {
		m[users[i].ID] = users[i].Email
	}
	return m
}
