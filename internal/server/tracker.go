package server

import (
	"errors"
	"net/http"
	"strconv"

	"lp-tracker/internal/domain"
	"lp-tracker/internal/render"
	"lp-tracker/internal/service"
	"lp-tracker/internal/session"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type TrackerServer struct {
	progressionSvc *service.ProgressionService
	navigationSvc  *service.NavigationService
	logger         zerolog.Logger
}

func NewTrackerServer(progressionSvc *service.ProgressionService, navigationSvc *service.NavigationService, logger zerolog.Logger) *TrackerServer {
	return &TrackerServer{progressionSvc: progressionSvc, navigationSvc: navigationSvc, logger: logger}
}

// Routes registers the public API surface on mux.
func (s *TrackerServer) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/progression", s.handleProgression)
	mux.HandleFunc("POST /v1/navigate", s.handleNavigate)
	mux.HandleFunc("GET /v1/history", s.handleHistory)
}

type progressionRequest struct {
	RiotID string `json:"riot_id"`
	Count  int    `json:"count"`
	Mode   string `json:"mode"`
}

type progressionResponse struct {
	Player     playerDTO                 `json:"player"`
	Rank       string                    `json:"rank"`
	TotalLP    int                       `json:"total_lp"`
	SessionKey string                    `json:"session_key"`
	Timeline   []domain.TimelinePoint    `json:"timeline"`
	Partners   []domain.PartnerAggregate `json:"partners"`
	Summary    render.Summary            `json:"summary"`
	Artifact   []byte                    `json:"artifact"` // base64 on the wire
	PrevToken  string                    `json:"prev_token"`
	NextToken  string                    `json:"next_token"`
}

type playerDTO struct {
	PUUID   string `json:"puuid"`
	Name    string `json:"name"`
	Tag     string `json:"tag"`
	IconRef string `json:"icon_ref,omitempty"`
	Level   int    `json:"level,omitempty"`
}

func (s *TrackerServer) handleProgression(w http.ResponseWriter, r *http.Request) {
	var req progressionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInputFormat)
		return
	}

	view, err := s.progressionSvc.GetProgression(r.Context(), req.RiotID, req.Count, req.Mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	last := view.Timeline[len(view.Timeline)-1]
	s.writeJSON(w, http.StatusOK, progressionResponse{
		Player: playerDTO{
			PUUID:   view.Player.PUUID,
			Name:    view.Player.Name,
			Tag:     view.Player.Tag,
			IconRef: view.Player.IconRef,
			Level:   view.Player.Level,
		},
		Rank:       view.Rank.String(),
		TotalLP:    last.TotalLP,
		SessionKey: view.SessionKey,
		Timeline:   view.Timeline,
		Partners:   view.Partners,
		Summary:    view.Summary,
		Artifact:   view.Artifact,
		PrevToken:  session.Token{SessionKey: view.SessionKey, Direction: session.Previous}.Encode(),
		NextToken:  session.Token{SessionKey: view.SessionKey, Direction: session.Next}.Encode(),
	})
}

type navigateRequest struct {
	Token string `json:"token"`
}

type navigateResponse struct {
	SessionKey string             `json:"session_key"`
	Cursor     int                `json:"cursor"`
	Total      int                `json:"total"`
	Detail     domain.MatchDetail `json:"detail"`
	PrevToken  string             `json:"prev_token"`
	NextToken  string             `json:"next_token"`
}

func (s *TrackerServer) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, domain.ErrInvalidToken)
		return
	}

	view, err := s.navigationSvc.Navigate(r.Context(), req.Token)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, navigateResponse{
		SessionKey: view.SessionKey,
		Cursor:     view.Cursor,
		Total:      view.Total,
		Detail:     view.Detail,
		PrevToken:  view.PrevToken,
		NextToken:  view.NextToken,
	})
}

func (s *TrackerServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	puuid := r.URL.Query().Get("puuid")
	if puuid == "" {
		s.writeError(w, r, domain.ErrInputFormat)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, r, domain.ErrInputFormat)
			return
		}
		limit = n
	}

	entries, err := s.progressionSvc.GetHistory(r.Context(), puuid, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError maps domain sentinels onto HTTP statuses and
// machine-readable codes. Unrecognized errors become opaque 500s.
func (s *TrackerServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, domain.ErrInputFormat):
		status, code = http.StatusBadRequest, "input_format"
	case errors.Is(err, domain.ErrInvalidToken):
		status, code = http.StatusBadRequest, "invalid_token"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status, code = http.StatusBadGateway, "upstream_unavailable"
	case errors.Is(err, domain.ErrNoQualifyingData):
		status, code = http.StatusNotFound, "no_qualifying_data"
	case errors.Is(err, domain.ErrSessionNotFound):
		status, code = http.StatusNotFound, "session_not_found"
	case errors.Is(err, domain.ErrSessionExpired):
		status, code = http.StatusGone, "session_expired"
	case errors.Is(err, domain.ErrOutOfRange):
		status, code = http.StatusConflict, "out_of_range"
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		msg = "internal error"
	} else {
		s.logger.Debug().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	}

	s.writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func (s *TrackerServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
