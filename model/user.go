package model

import "time"

// User represents a user account.
// Status: 0=禁用, 1=正常.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // Not exposed in API responses
	Nickname     string    `json:"nickname"`
	Avatar       string    `json:"avatar"`
	Status       int8      `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserStats carries the per-user counters returned by /api/user/info.
type UserStats struct {
	PlayCount     int64 `json:"play_count"`
	FavoriteCount int64 `json:"favorite_count"`
	PlaylistCount int64 `json:"playlist_count"`
}
