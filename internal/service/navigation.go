package service

import (
	"context"

	"lp-tracker/internal/domain"
	"lp-tracker/internal/session"

	"github.com/rs/zerolog"
)

// MatchView is the per-match render produced for a navigation action.
type MatchView struct {
	SessionKey string
	Cursor     int
	Total      int
	Detail     domain.MatchDetail
	PrevToken  string
	NextToken  string
}

// NavigationService resolves action tokens against live sessions and
// re-renders from already-realized details; it never calls upstream.
type NavigationService struct {
	sessions *session.Manager
	logger   zerolog.Logger
}

func NewNavigationService(sessions *session.Manager, logger zerolog.Logger) *NavigationService {
	return &NavigationService{sessions: sessions, logger: logger}
}

// Navigate decodes a wire token, moves the session cursor, and returns
// the view at the new position. Failures keep their taxonomy: invalid
// token, missing/expired session, and out-of-range are all distinct.
func (s *NavigationService) Navigate(_ context.Context, rawToken string) (*MatchView, error) {
	tok, err := session.DecodeToken(rawToken)
	if err != nil {
		s.logger.Debug().Str("token", rawToken).Msg("rejected malformed navigation token")
		return nil, err
	}

	sess, err := s.sessions.Navigate(tok.SessionKey, tok.Direction)
	if err != nil {
		return nil, err
	}

	matchID := sess.MatchIDs[sess.Cursor]
	return &MatchView{
		SessionKey: sess.Key,
		Cursor:     sess.Cursor,
		Total:      len(sess.MatchIDs),
		Detail:     sess.Details[matchID],
		PrevToken:  session.Token{SessionKey: sess.Key, Direction: session.Previous}.Encode(),
		NextToken:  session.Token{SessionKey: sess.Key, Direction: session.Next}.Encode(),
	}, nil
}
