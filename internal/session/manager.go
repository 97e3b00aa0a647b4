// Package session maps opaque keys to navigation cursors over a fixed
// match list, backed by a TTL cache tier.
package session

import (
	"fmt"

	"lp-tracker/internal/cache"
	"lp-tracker/internal/domain"
	"lp-tracker/internal/metrics"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// Session keys must not contain the token separator, so the key alphabet
// excludes underscore (and dash, for readability in logs).
const keyAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const keyLength = 21

// Manager owns the session tier. Sessions expire by TTL only; there is no
// user-triggered close.
type Manager struct {
	tier   *cache.Tier[domain.Session]
	logger zerolog.Logger
}

func NewManager(tier *cache.Tier[domain.Session], logger zerolog.Logger) *Manager {
	return &Manager{tier: tier, logger: logger}
}

// Create stores a new session with the cursor at 0 and returns its key.
// Details must already be complete; navigation never refetches.
func (m *Manager) Create(puuid string, matchIDs []string, details map[string]domain.MatchDetail) (string, error) {
	key, err := gonanoid.Generate(keyAlphabet, keyLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate session key: %w", err)
	}

	m.tier.Put(key, domain.Session{
		Key:      key,
		PUUID:    puuid,
		MatchIDs: matchIDs,
		Details:  details,
		Cursor:   0,
	})

	metrics.SessionsCreated.Inc()
	m.logger.Debug().Str("session_key", key).Int("matches", len(matchIDs)).Msg("session created")
	return key, nil
}

// Get resolves a session key. An entry past its TTL but not yet swept
// reports ErrSessionExpired; anything else absent is ErrSessionNotFound.
func (m *Manager) Get(key string) (domain.Session, error) {
	sess, status := m.tier.Lookup(key)
	switch status {
	case cache.Hit:
		return sess, nil
	case cache.Expired:
		return domain.Session{}, domain.ErrSessionExpired
	default:
		return domain.Session{}, domain.ErrSessionNotFound
	}
}

// Navigate moves the cursor one step and returns the updated session. A
// step that would leave [0, N-1] is refused with ErrOutOfRange and the
// session is left untouched (no wrap, no clamp, no TTL refresh). A
// successful step touch-extends the session's lifetime.
func (m *Manager) Navigate(key string, dir Direction) (domain.Session, error) {
	sess, err := m.Get(key)
	if err != nil {
		return domain.Session{}, err
	}

	cursor := sess.Cursor
	if dir == Previous {
		cursor--
	} else {
		cursor++
	}

	if cursor < 0 || cursor >= len(sess.MatchIDs) {
		return domain.Session{}, domain.ErrOutOfRange
	}

	sess.Cursor = cursor
	m.tier.Put(key, sess)

	m.logger.Debug().
		Str("session_key", key).
		Str("direction", dir.String()).
		Int("cursor", cursor).
		Msg("session navigated")
	return sess, nil
}
