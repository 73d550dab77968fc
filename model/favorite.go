package model

import "time"

// Favorite links a user to a music entry. (user_id, music_id) is unique.
type Favorite struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	MusicID   int64     `json:"musicId"`
	CreatedAt time.Time `json:"createdAt"`
}
