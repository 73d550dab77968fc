package repository

import (
	"database/sql"
	"fmt"
	"strings"

	"CrayonFM/model"
)

// FavoriteRepository defines the interface for favorite data operations.
type FavoriteRepository interface {
	// ListByUser returns favorited music newest-first with the total count.
	ListByUser(userID int64, page, limit int) ([]*model.Music, int64, error)
	Add(userID, musicID int64) error
	Remove(userID, musicID int64) (bool, error)
	Exists(userID, musicID int64) (bool, error)
	CountByUser(userID int64) (int64, error)
}

type mysqlFavoriteRepository struct {
	db *sql.DB
}

// NewMySQLFavoriteRepository creates a new mysqlFavoriteRepository.
func NewMySQLFavoriteRepository(db *sql.DB) FavoriteRepository {
	return &mysqlFavoriteRepository{db: db}
}

func (r *mysqlFavoriteRepository) ListByUser(userID int64, page, limit int) ([]*model.Music, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := `SELECT m.id, m.name, m.artist, m.album, m.cover, COALESCE(m.lyric, ''), m.duration,
		m.file_path, m.file_size, m.format, m.status, m.created_at, m.updated_at
		FROM favorite f
		JOIN music m ON f.music_id = m.id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	var list []*model.Music
	for rows.Next() {
		m, err := scanMusic(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan favorite row: %w", err)
		}
		m.IsFavorite = true
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate favorite rows: %w", err)
	}

	total, err := r.CountByUser(userID)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *mysqlFavoriteRepository) Add(userID, musicID int64) error {
	_, err := r.db.Exec("INSERT INTO favorite (user_id, music_id) VALUES (?, ?)", userID, musicID)
	if err != nil {
		// uq_user_music 唯一索引冲突
		if strings.Contains(err.Error(), "Duplicate entry") {
			return ErrDuplicateFavorite
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

func (r *mysqlFavoriteRepository) Remove(userID, musicID int64) (bool, error) {
	res, err := r.db.Exec("DELETE FROM favorite WHERE user_id = ? AND music_id = ?", userID, musicID)
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *mysqlFavoriteRepository) Exists(userID, musicID int64) (bool, error) {
	var one int
	err := r.db.QueryRow("SELECT 1 FROM favorite WHERE user_id = ? AND music_id = ?", userID, musicID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return true, nil
}

func (r *mysqlFavoriteRepository) CountByUser(userID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM favorite WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return n, nil
}
