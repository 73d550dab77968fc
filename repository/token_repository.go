package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"CrayonFM/core/token"
	"CrayonFM/model"
)

// mysqlTokenRepository is the durable tier of the session layer. It is
// the source of truth: the Redis tier may be lost at any time.
type mysqlTokenRepository struct {
	db *sql.DB
}

// NewMySQLTokenRepository creates a token.SessionStore backed by MySQL.
func NewMySQLTokenRepository(db *sql.DB) token.SessionStore {
	return &mysqlTokenRepository{db: db}
}

// Insert adds a new session row.
func (r *mysqlTokenRepository) Insert(ctx context.Context, st *model.SessionToken) error {
	var extra sql.NullString
	if st.Extra != "" {
		extra = sql.NullString{String: st.Extra, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_token (token, user_id, created_at, expires_at, extra) VALUES (?, ?, ?, ?, ?)",
		st.Token, st.UserID, st.CreatedAt, st.ExpiresAt, extra)
	if err != nil {
		return fmt.Errorf("failed to insert token: %w", err)
	}
	return nil
}

// DeleteByUser removes every token owned by the user (single active
// session policy) and returns the removed token strings.
func (r *mysqlTokenRepository) DeleteByUser(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT token FROM user_token WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens for user %d: %w", userID, err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate token rows: %w", err)
	}

	if len(tokens) == 0 {
		return nil, nil
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_token WHERE user_id = ?", userID); err != nil {
		return nil, fmt.Errorf("failed to delete tokens for user %d: %w", userID, err)
	}
	return tokens, nil
}

// Find returns the session only while it is still live; expiry is
// checked against the caller-supplied clock, not the stored TTL.
func (r *mysqlTokenRepository) Find(ctx context.Context, tok string, now time.Time) (*model.SessionToken, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT token, user_id, created_at, expires_at, COALESCE(extra, '') FROM user_token WHERE token = ? AND expires_at > ?",
		tok, now)

	st := &model.SessionToken{}
	err := row.Scan(&st.Token, &st.UserID, &st.CreatedAt, &st.ExpiresAt, &st.Extra)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, token.ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to scan token row: %w", err)
	}
	return st, nil
}

// Touch pushes the expiry forward (sliding expiration).
func (r *mysqlTokenRepository) Touch(ctx context.Context, tok string, expiresAt time.Time) error {
	if _, err := r.db.ExecContext(ctx, "UPDATE user_token SET expires_at = ? WHERE token = ?", expiresAt, tok); err != nil {
		return fmt.Errorf("failed to touch token: %w", err)
	}
	return nil
}

// Delete removes the session row; deleting an absent token is fine.
func (r *mysqlTokenRepository) Delete(ctx context.Context, tok string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM user_token WHERE token = ?", tok); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// DeleteExpired removes all rows past their expiry.
func (r *mysqlTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM user_token WHERE expires_at < ?", now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired tokens: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n, nil
}
