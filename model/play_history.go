package model

import "time"

// PlayHistory is one playback event. PlayDuration is how long the user
// actually listened, in seconds.
type PlayHistory struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"userId"`
	MusicID      int64     `json:"musicId"`
	PlayDuration int       `json:"playDuration"`
	CreatedAt    time.Time `json:"createdAt"`
}
