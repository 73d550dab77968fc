package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CrayonFM/model"
)

// MusicRepository defines the interface for catalog data operations.
type MusicRepository interface {
	GetMusicByID(id int64) (*model.Music, error)
	// ListMusic returns enabled entries newest-first, optionally
	// filtered by a keyword over name/artist/album, plus the total count.
	ListMusic(page, limit int, keyword string) ([]*model.Music, int64, error)
	SearchMusic(keyword string, limit int) ([]*model.Music, error)
	RandomMusic(limit int) ([]*model.Music, error)
	// HotMusic orders enabled entries by play_history count.
	HotMusic(limit int) ([]*model.Music, error)
	// UpsertByPath inserts a scanned file or refreshes its size; keyed
	// by the relative file path. Returns true when a new row was created.
	UpsertByPath(m *model.Music) (bool, error)
	CountEnabled() (int64, error)
	SumDuration() (int64, error)
}

// mysqlMusicRepository implements MusicRepository for MySQL.
type mysqlMusicRepository struct {
	db *sql.DB
}

// NewMySQLMusicRepository creates a new mysqlMusicRepository.
func NewMySQLMusicRepository(db *sql.DB) MusicRepository {
	return &mysqlMusicRepository{db: db}
}

const musicColumns = "id, name, artist, album, cover, COALESCE(lyric, ''), duration, file_path, file_size, format, status, created_at, updated_at"

func scanMusic(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Music, error) {
	m := &model.Music{}
	err := scanner.Scan(&m.ID, &m.Name, &m.Artist, &m.Album, &m.Cover, &m.Lyric,
		&m.Duration, &m.FilePath, &m.FileSize, &m.Format, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *mysqlMusicRepository) queryMusic(query string, args ...interface{}) ([]*model.Music, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query music: %w", err)
	}
	defer rows.Close()

	var list []*model.Music
	for rows.Next() {
		m, err := scanMusic(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan music row: %w", err)
		}
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate music rows: %w", err)
	}
	return list, nil
}

// GetMusicByID retrieves a catalog entry regardless of status; callers
// decide whether disabled entries are visible.
func (r *mysqlMusicRepository) GetMusicByID(id int64) (*model.Music, error) {
	row := r.db.QueryRow("SELECT "+musicColumns+" FROM music WHERE id = ?", id)
	m, err := scanMusic(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan music row for ID %d: %w", id, err)
	}
	return m, nil
}

func (r *mysqlMusicRepository) ListMusic(page, limit int, keyword string) ([]*model.Music, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	where := "WHERE status = 1"
	args := []interface{}{}
	if keyword != "" {
		where += " AND (name LIKE ? OR artist LIKE ? OR album LIKE ?)"
		like := "%" + keyword + "%"
		args = append(args, like, like, like)
	}

	var total int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM music "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count music: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM music %s ORDER BY id DESC LIMIT ? OFFSET ?", musicColumns, where)
	args = append(args, limit, (page-1)*limit)
	list, err := r.queryMusic(query, args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *mysqlMusicRepository) SearchMusic(keyword string, limit int) ([]*model.Music, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	like := "%" + keyword + "%"
	query := fmt.Sprintf(`SELECT %s FROM music
		WHERE status = 1 AND (name LIKE ? OR artist LIKE ? OR album LIKE ?)
		ORDER BY id DESC LIMIT ?`, musicColumns)
	return r.queryMusic(query, like, like, like, limit)
}

func (r *mysqlMusicRepository) RandomMusic(limit int) ([]*model.Music, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	query := fmt.Sprintf("SELECT %s FROM music WHERE status = 1 ORDER BY RAND() LIMIT ?", musicColumns)
	return r.queryMusic(query, limit)
}

func (r *mysqlMusicRepository) HotMusic(limit int) ([]*model.Music, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	cols := "m.id, m.name, m.artist, m.album, m.cover, COALESCE(m.lyric, ''), m.duration, m.file_path, m.file_size, m.format, m.status, m.created_at, m.updated_at"
	query := fmt.Sprintf(`SELECT %s, COUNT(h.id) AS play_count FROM music m
		LEFT JOIN play_history h ON m.id = h.music_id
		WHERE m.status = 1
		GROUP BY m.id
		ORDER BY play_count DESC
		LIMIT ?`, cols)

	rows, err := r.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query hot music: %w", err)
	}
	defer rows.Close()

	var list []*model.Music
	for rows.Next() {
		m := &model.Music{}
		err := rows.Scan(&m.ID, &m.Name, &m.Artist, &m.Album, &m.Cover, &m.Lyric,
			&m.Duration, &m.FilePath, &m.FileSize, &m.Format, &m.Status,
			&m.CreatedAt, &m.UpdatedAt, &m.PlayCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hot music row: %w", err)
		}
		list = append(list, m)
	}
	return list, rows.Err()
}

// UpsertByPath is used by the media scanner. The path is the natural
// key; re-scanning an existing file only refreshes its size.
func (r *mysqlMusicRepository) UpsertByPath(m *model.Music) (bool, error) {
	var existingID int64
	err := r.db.QueryRow("SELECT id FROM music WHERE file_path = ?", m.FilePath).Scan(&existingID)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("failed to check existing music for path %s: %w", m.FilePath, err)
	}

	if err == nil {
		_, err = r.db.Exec("UPDATE music SET file_size = ?, format = ?, updated_at = NOW() WHERE id = ?",
			m.FileSize, m.Format, existingID)
		if err != nil {
			return false, fmt.Errorf("failed to refresh music row for path %s: %w", m.FilePath, err)
		}
		m.ID = existingID
		return false, nil
	}

	name := m.Name
	if strings.TrimSpace(name) == "" {
		name = m.FilePath
	}
	res, err := r.db.Exec(`INSERT INTO music (name, artist, album, file_path, file_size, format, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		name, m.Artist, m.Album, m.FilePath, m.FileSize, m.Format, time.Now(), time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to insert scanned music %s: %w", m.FilePath, err)
	}
	m.ID, _ = res.LastInsertId()
	return true, nil
}

func (r *mysqlMusicRepository) CountEnabled() (int64, error) {
	var n int64
	if err := r.db.QueryRow("SELECT COUNT(*) FROM music WHERE status = 1").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count enabled music: %w", err)
	}
	return n, nil
}

func (r *mysqlMusicRepository) SumDuration() (int64, error) {
	var n sql.NullInt64
	if err := r.db.QueryRow("SELECT SUM(duration) FROM music WHERE status = 1").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to sum music duration: %w", err)
	}
	return n.Int64, nil
}
