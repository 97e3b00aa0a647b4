package session

import (
	"strings"

	"lp-tracker/internal/domain"
)

// Direction is a navigation action. It is carried as a structured value
// internally and only serialized at the transport boundary.
type Direction int

const (
	Previous Direction = iota
	Next
)

func (d Direction) String() string {
	if d == Previous {
		return "prev"
	}
	return "next"
}

// Token is the decoded form of a navigation action: which session, which
// way.
type Token struct {
	SessionKey string
	Direction  Direction
}

// Encode serializes the token as "<sessionKey>_<direction>" for the
// transport layer.
func (t Token) Encode() string {
	return t.SessionKey + "_" + t.Direction.String()
}

// DecodeToken parses a wire token. Malformed input (missing separator,
// empty key, unknown direction) is ErrInvalidToken, distinct from the
// session-lookup failures.
func DecodeToken(raw string) (Token, error) {
	idx := strings.LastIndex(raw, "_")
	if idx <= 0 {
		return Token{}, domain.ErrInvalidToken
	}

	key := raw[:idx]
	switch raw[idx+1:] {
	case "prev":
		return Token{SessionKey: key, Direction: Previous}, nil
	case "next":
		return Token{SessionKey: key, Direction: Next}, nil
	default:
		return Token{}, domain.ErrInvalidToken
	}
}
