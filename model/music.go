package model

import "time"

// Music status values.
const (
	MusicStatusDisabled int8 = 0
	MusicStatusEnabled  int8 = 1
)

// Music represents one entry of the audio catalog. FilePath is relative
// to the configured media root and never leaves the server.
type Music struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	Cover     string    `json:"cover"`
	Lyric     string    `json:"lyric,omitempty"`
	Duration  int       `json:"duration"` // seconds
	FilePath  string    `json:"-"`
	FileSize  int64     `json:"file_size"`
	Format    string    `json:"format"` // mp3/flac/wav/ogg/m4a/aac
	Status    int8      `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Computed per request, not stored.
	URL        string `json:"url,omitempty"`
	IsFavorite bool   `json:"is_favorite"`
	PlayCount  int64  `json:"play_count,omitempty"`
}
