package repository

import "errors"

var (
	// ErrDuplicateFavorite means the (user, music) pair is already favorited.
	ErrDuplicateFavorite = errors.New("music already favorited")
	// ErrNotFound is the generic row-absent error for repository lookups.
	ErrNotFound = errors.New("record not found")
)
