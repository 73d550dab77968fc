package model

import "time"

// SessionToken is one live session record. The durable store keeps at
// most one row per user (single active session), keyed by token.
type SessionToken struct {
	Token     string    `json:"token"`
	UserID    int64     `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	// Extra is an opaque JSON payload attached at login (username,
	// login timestamp). The session layer never interprets it.
	Extra string `json:"extra,omitempty"`
}
