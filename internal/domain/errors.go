package domain

import "errors"

var (
	// ErrInvalidPool is returned when a word pool cannot support the requested difficulty.
	ErrInvalidPool = errors.New("invalid word pool")
	// ErrNotStarted is returned when a round operation is used before the session started.
	ErrNotStarted = errors.New("quiz session not started")
	// ErrSessionNotFound is returned when a player has no active session.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrWordListNotFound indicates the word list could not be loaded.
	ErrWordListNotFound = errors.New("word list not found")
	// ErrInvalidWordList indicates a word list failed validation.
	ErrInvalidWordList = errors.New("invalid word list")
	// ErrForbidden is returned when a user modifies a list they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidPeriod indicates a malformed period key.
	ErrInvalidPeriod = errors.New("invalid period key")
	// ErrPersistence wraps any failure of a storage collaborator.
	ErrPersistence = errors.New("persistence failure")
)
