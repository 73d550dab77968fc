package repository

import (
	"database/sql"
	"fmt"

	"CrayonFM/model"
)

// HistoryRepository defines the interface for play-history operations.
type HistoryRepository interface {
	// ListByUser returns recently played music grouped per track, with
	// last play time ordering and per-track play counts.
	ListByUser(userID int64, page, limit int) ([]*model.Music, int64, error)
	Add(userID, musicID int64, playDuration int) error
	Delete(userID, musicID int64) error
	Clear(userID int64) error
	CountByUser(userID int64) (int64, error)
	CountDistinctByUser(userID int64) (int64, error)
	SumPlayDuration(userID int64) (int64, error)
}

type mysqlHistoryRepository struct {
	db *sql.DB
}

// NewMySQLHistoryRepository creates a new mysqlHistoryRepository.
func NewMySQLHistoryRepository(db *sql.DB) HistoryRepository {
	return &mysqlHistoryRepository{db: db}
}

func (r *mysqlHistoryRepository) ListByUser(userID int64, page, limit int) ([]*model.Music, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := `SELECT m.id, m.name, m.artist, m.album, m.cover, COALESCE(m.lyric, ''), m.duration,
		m.file_path, m.file_size, m.format, m.status, m.created_at, m.updated_at,
		COUNT(h.id) AS play_count
		FROM play_history h
		JOIN music m ON h.music_id = m.id
		WHERE h.user_id = ?
		GROUP BY h.music_id
		ORDER BY MAX(h.created_at) DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.Query(query, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query play history: %w", err)
	}
	defer rows.Close()

	var list []*model.Music
	for rows.Next() {
		m := &model.Music{}
		err := rows.Scan(&m.ID, &m.Name, &m.Artist, &m.Album, &m.Cover, &m.Lyric,
			&m.Duration, &m.FilePath, &m.FileSize, &m.Format, &m.Status,
			&m.CreatedAt, &m.UpdatedAt, &m.PlayCount)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan history row: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	total, err := r.CountDistinctByUser(userID)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *mysqlHistoryRepository) Add(userID, musicID int64, playDuration int) error {
	_, err := r.db.Exec("INSERT INTO play_history (user_id, music_id, play_duration) VALUES (?, ?, ?)",
		userID, musicID, playDuration)
	if err != nil {
		return fmt.Errorf("failed to add play history: %w", err)
	}
	return nil
}

// Delete removes every record of one track from the user's history.
func (r *mysqlHistoryRepository) Delete(userID, musicID int64) error {
	if _, err := r.db.Exec("DELETE FROM play_history WHERE user_id = ? AND music_id = ?", userID, musicID); err != nil {
		return fmt.Errorf("failed to delete play history: %w", err)
	}
	return nil
}

func (r *mysqlHistoryRepository) Clear(userID int64) error {
	if _, err := r.db.Exec("DELETE FROM play_history WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("failed to clear play history: %w", err)
	}
	return nil
}

func (r *mysqlHistoryRepository) CountByUser(userID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM play_history WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count play history: %w", err)
	}
	return n, nil
}

func (r *mysqlHistoryRepository) CountDistinctByUser(userID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow("SELECT COUNT(DISTINCT music_id) FROM play_history WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count distinct play history: %w", err)
	}
	return n, nil
}

func (r *mysqlHistoryRepository) SumPlayDuration(userID int64) (int64, error) {
	var n sql.NullInt64
	if err := r.db.QueryRow("SELECT SUM(play_duration) FROM play_history WHERE user_id = ?", userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to sum play duration: %w", err)
	}
	return n.Int64, nil
}
