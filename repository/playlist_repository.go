package repository

import (
	"errors"
	"fmt"

	"CrayonFM/model"

	"gorm.io/gorm"
)

// PlaylistRepository defines the interface for playlist operations.
// 歌单模块使用 GORM，与其余基于 database/sql 的仓库并存。
type PlaylistRepository interface {
	ListByUser(userID int64) ([]*model.Playlist, error)
	Create(p *model.Playlist) error
	Update(userID int64, p *model.Playlist) error
	Delete(userID, playlistID int64) error
	GetByID(userID, playlistID int64) (*model.Playlist, error)
	GetWithMusic(userID, playlistID int64) (*model.PlaylistWithMusic, error)
	AddMusic(userID, playlistID, musicID int64) error
	RemoveMusic(userID, playlistID, musicID int64) error
	CountByUser(userID int64) (int64, error)
}

type gormPlaylistRepository struct {
	db *gorm.DB
}

// NewGormPlaylistRepository creates a new gormPlaylistRepository.
func NewGormPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &gormPlaylistRepository{db: db}
}

func (r *gormPlaylistRepository) ListByUser(userID int64) ([]*model.Playlist, error) {
	var list []*model.Playlist
	err := r.db.Where("user_id = ?", userID).Order("id DESC").Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	return list, nil
}

func (r *gormPlaylistRepository) Create(p *model.Playlist) error {
	if err := r.db.Create(p).Error; err != nil {
		return fmt.Errorf("failed to create playlist: %w", err)
	}
	return nil
}

func (r *gormPlaylistRepository) Update(userID int64, p *model.Playlist) error {
	res := r.db.Model(&model.Playlist{}).
		Where("id = ? AND user_id = ?", p.ID, userID).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"cover":       p.Cover,
			"description": p.Description,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update playlist: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the playlist and its member rows in one transaction.
func (r *gormPlaylistRepository) Delete(userID, playlistID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", playlistID, userID).Delete(&model.Playlist{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete playlist: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&model.PlaylistMusic{}).Error; err != nil {
			return fmt.Errorf("failed to delete playlist members: %w", err)
		}
		return nil
	})
}

func (r *gormPlaylistRepository) GetByID(userID, playlistID int64) (*model.Playlist, error) {
	var p model.Playlist
	err := r.db.Where("id = ? AND user_id = ?", playlistID, userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get playlist: %w", err)
	}
	return &p, nil
}

func (r *gormPlaylistRepository) GetWithMusic(userID, playlistID int64) (*model.PlaylistWithMusic, error) {
	p, err := r.GetByID(userID, playlistID)
	if err != nil {
		return nil, err
	}

	var list []*model.Music
	err = r.db.Table("playlist_music pm").
		Select("m.*").
		Joins("JOIN music m ON pm.music_id = m.id").
		Where("pm.playlist_id = ? AND m.status = 1", playlistID).
		Order("pm.sort ASC, pm.id ASC").
		Scan(&list).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist music: %w", err)
	}

	return &model.PlaylistWithMusic{Playlist: *p, List: list}, nil
}

func (r *gormPlaylistRepository) AddMusic(userID, playlistID, musicID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		// 只操作属于该用户的歌单
		var p model.Playlist
		if err := tx.Where("id = ? AND user_id = ?", playlistID, userID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get playlist: %w", err)
		}

		var maxSort int
		tx.Model(&model.PlaylistMusic{}).
			Where("playlist_id = ?", playlistID).
			Select("COALESCE(MAX(sort), 0)").Scan(&maxSort)

		pm := &model.PlaylistMusic{PlaylistID: playlistID, MusicID: musicID, Sort: maxSort + 1}
		if err := tx.Create(pm).Error; err != nil {
			return fmt.Errorf("failed to add music to playlist: %w", err)
		}

		return tx.Model(&model.Playlist{}).Where("id = ?", playlistID).
			UpdateColumn("music_count", gorm.Expr("music_count + 1")).Error
	})
}

func (r *gormPlaylistRepository) RemoveMusic(userID, playlistID, musicID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var p model.Playlist
		if err := tx.Where("id = ? AND user_id = ?", playlistID, userID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get playlist: %w", err)
		}

		res := tx.Where("playlist_id = ? AND music_id = ?", playlistID, musicID).Delete(&model.PlaylistMusic{})
		if res.Error != nil {
			return fmt.Errorf("failed to remove music from playlist: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		return tx.Model(&model.Playlist{}).Where("id = ? AND music_count > 0", playlistID).
			UpdateColumn("music_count", gorm.Expr("music_count - 1")).Error
	})
}

func (r *gormPlaylistRepository) CountByUser(userID int64) (int64, error) {
	var n int64
	if err := r.db.Model(&model.Playlist{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count playlists: %w", err)
	}
	return n, nil
}
