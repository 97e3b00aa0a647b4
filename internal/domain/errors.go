package domain

import "errors"

// Request/navigation failure taxonomy. Callers match with errors.Is; the
// transport layer maps these to status codes.
var (
	// ErrInputFormat means the player identity string was malformed. No
	// upstream fetch is attempted.
	ErrInputFormat = errors.New("malformed player identity")

	// ErrUpstreamUnavailable means an identity, rank, or match-list fetch
	// failed. The whole request aborts and nothing is cached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrNoQualifyingData means the upstream calls succeeded but zero
	// matches survived mode/cutoff filtering.
	ErrNoQualifyingData = errors.New("no qualifying matches")

	// ErrSessionNotFound means the session key resolves to nothing.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired means the session exists but its TTL elapsed.
	ErrSessionExpired = errors.New("session expired")

	// ErrOutOfRange means a navigation would move the cursor outside the
	// match list. The cursor is left unchanged.
	ErrOutOfRange = errors.New("no more matches")

	// ErrInvalidToken means a navigation token could not be decoded.
	ErrInvalidToken = errors.New("invalid navigation token")
)
