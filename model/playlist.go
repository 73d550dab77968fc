package model

import "time"

// Playlist 表示用户创建的歌单（GORM 管理）
type Playlist struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID      int64     `gorm:"index;not null" json:"userId"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Cover       string    `gorm:"size:255" json:"cover"`
	Description string    `gorm:"size:500" json:"description"`
	MusicCount  int       `gorm:"default:0" json:"musicCount"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName 指定表名
func (Playlist) TableName() string { return "playlist" }

// PlaylistMusic 歌单与音乐的关联
type PlaylistMusic struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PlaylistID int64     `gorm:"uniqueIndex:uq_playlist_music;index;not null" json:"playlistId"`
	MusicID    int64     `gorm:"uniqueIndex:uq_playlist_music;not null" json:"musicId"`
	Sort       int       `gorm:"default:0" json:"sort"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName 指定表名
func (PlaylistMusic) TableName() string { return "playlist_music" }

// PlaylistWithMusic 包含歌单信息及其音乐列表
type PlaylistWithMusic struct {
	Playlist Playlist `json:"playlist"`
	List     []*Music `json:"list"`
}
