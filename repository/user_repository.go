package repository

import (
	"database/sql"
	"fmt"

	"CrayonFM/model"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	GetUserByID(id int64) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	UpdateProfile(userID int64, nickname, avatar string) error
	UpdatePassword(userID int64, passwordHash string) error
}

// mysqlUserRepository implements UserRepository for MySQL.
type mysqlUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new mysqlUserRepository.
func NewMySQLUserRepository(db *sql.DB) UserRepository {
	return &mysqlUserRepository{db: db}
}

const userColumns = "id, username, password, nickname, avatar, status, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Nickname,
		&user.Avatar, &user.Status, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // User not found
		}
		return nil, fmt.Errorf("failed to scan user row: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (r *mysqlUserRepository) GetUserByID(id int64) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM user WHERE id = ?", id)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by their username.
func (r *mysqlUserRepository) GetUserByUsername(username string) (*model.User, error) {
	row := r.db.QueryRow("SELECT "+userColumns+" FROM user WHERE username = ?", username)
	return scanUser(row)
}

// UpdateProfile updates nickname and/or avatar. Empty values keep the
// current column content.
func (r *mysqlUserRepository) UpdateProfile(userID int64, nickname, avatar string) error {
	query := `UPDATE user SET
		nickname = IF(? = '', nickname, ?),
		avatar = IF(? = '', avatar, ?),
		updated_at = NOW()
		WHERE id = ?`
	if _, err := r.db.Exec(query, nickname, nickname, avatar, avatar, userID); err != nil {
		return fmt.Errorf("failed to update user profile: %w", err)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *mysqlUserRepository) UpdatePassword(userID int64, passwordHash string) error {
	if _, err := r.db.Exec("UPDATE user SET password = ?, updated_at = NOW() WHERE id = ?", passwordHash, userID); err != nil {
		return fmt.Errorf("failed to update user password: %w", err)
	}
	return nil
}
