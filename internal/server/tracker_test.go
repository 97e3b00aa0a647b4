package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lp-tracker/internal/cache"
	"lp-tracker/internal/config"
	"lp-tracker/internal/database"
	"lp-tracker/internal/domain"
	"lp-tracker/internal/partner"
	"lp-tracker/internal/render"
	"lp-tracker/internal/repository"
	"lp-tracker/internal/riot"
	"lp-tracker/internal/service"
	"lp-tracker/internal/session"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

type stubUpstream struct{}

func (stubUpstream) ResolveAccount(_ context.Context, name, tag string) (*riot.Account, error) {
	return &riot.Account{PUUID: "p-" + name, GameName: name, TagLine: tag}, nil
}

func (stubUpstream) AccountByPUUID(_ context.Context, puuid string) (*riot.Account, error) {
	return &riot.Account{PUUID: puuid, GameName: "name-" + puuid, TagLine: "TAG"}, nil
}

func (stubUpstream) Summoner(_ context.Context, _ string) (*riot.Summoner, error) {
	return &riot.Summoner{ProfileIconID: 1, SummonerLevel: 10}, nil
}

func (stubUpstream) ListMatchIDs(_ context.Context, _ string, _ int) ([]string, error) {
	return []string{"m2", "m1"}, nil
}

func (stubUpstream) LeagueEntries(_ context.Context, _ string) ([]riot.LeagueEntry, error) {
	return []riot.LeagueEntry{
		{QueueType: "RANKED_TFT_DOUBLE_UP", Tier: "GOLD", Rank: "II", LeaguePoints: 40},
	}, nil
}

func (stubUpstream) GetMatch(_ context.Context, matchID string) (*riot.Match, error) {
	fixtures := map[string]struct {
		ts        int64
		placement int
		partnerPl int
	}{
		"m1": {1000, 1, 2},
		"m2": {2000, 4, 3},
	}
	fx := fixtures[matchID]
	return &riot.Match{
		Metadata: riot.MatchMetadata{MatchID: matchID},
		Info: riot.MatchInfo{
			GameDatetime: fx.ts,
			GameType:     "pairs",
			Participants: []riot.MatchParticipant{
				{PUUID: "p-Alice", Placement: fx.placement},
				{PUUID: "p-partner", Placement: fx.partnerPl},
			},
		},
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	cfg := &config.Config{
		RiotAPIKey:  "test",
		DBPath:      filepath.Join(t.TempDir(), "archive.db"),
		RankedMode:  "pairs",
		RankedQueue: "RANKED_TFT_DOUBLE_UP",
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	upstream := stubUpstream{}
	identity := cache.NewTier[domain.Player]("identity", time.Minute)
	sessions := session.NewManager(cache.NewTier[domain.Session]("session", time.Minute), logger)

	progressionSvc := service.NewProgressionService(
		upstream,
		identity,
		cache.NewTier[[]string]("matchlist", time.Minute),
		cache.NewTier[riot.Match]("matchdetail", time.Minute),
		cache.NewTier[[]byte]("frame", time.Minute),
		sessions,
		partner.NewResolver(upstream, identity, logger),
		render.NewJSONRenderer(),
		repository.NewProgressionRepository(db, logger),
		cfg, logger,
	)
	navigationSvc := service.NewNavigationService(sessions, logger)

	mux := http.NewServeMux()
	NewTrackerServer(progressionSvc, navigationSvc, logger).Routes(mux)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		t.Fatalf("response is not a JSON object: %v", err)
	}
	return resp, fields
}

func stringField(t *testing.T, fields map[string]json.RawMessage, name string) string {
	t.Helper()

	var s string
	if err := json.Unmarshal(fields[name], &s); err != nil {
		t.Fatalf("field %q is not a string: %v", name, err)
	}
	return s
}

func TestProgressionTokensRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp, fields := postJSON(t, srv.URL+"/v1/progression", `{"riot_id":"Alice#NA1","count":20}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("progression status = %d, want 200", resp.StatusCode)
	}

	sessionKey := stringField(t, fields, "session_key")
	prevToken := stringField(t, fields, "prev_token")
	nextToken := stringField(t, fields, "next_token")

	// Both tokens must decode through the session wire format and point
	// at the session this response opened.
	for tokenName, raw := range map[string]string{"prev_token": prevToken, "next_token": nextToken} {
		tok, err := session.DecodeToken(raw)
		if err != nil {
			t.Fatalf("%s %q does not decode: %v", tokenName, raw, err)
		}
		if tok.SessionKey != sessionKey {
			t.Errorf("%s carries key %q, want %q", tokenName, tok.SessionKey, sessionKey)
		}
	}

	resp, fields = postJSON(t, srv.URL+"/v1/navigate", `{"token":"`+nextToken+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("navigate status = %d, want 200", resp.StatusCode)
	}
	var cursor int
	if err := json.Unmarshal(fields["cursor"], &cursor); err != nil || cursor != 1 {
		t.Errorf("cursor = %d (err %v), want 1", cursor, err)
	}
}

func TestErrorStatusMapping(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"malformed riot id", "/v1/progression", `{"riot_id":"notag"}`, http.StatusBadRequest, "input_format"},
		{"garbage token", "/v1/navigate", `{"token":"garbage"}`, http.StatusBadRequest, "invalid_token"},
		{"unknown session", "/v1/navigate", `{"token":"nosuchsession_next"}`, http.StatusNotFound, "session_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, fields := postJSON(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if code := stringField(t, fields, "code"); code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestNavigateOutOfRange(t *testing.T) {
	srv := newTestServer(t)

	_, fields := postJSON(t, srv.URL+"/v1/progression", `{"riot_id":"Alice#NA1","count":20}`)
	prevToken := stringField(t, fields, "prev_token")

	resp, fields := postJSON(t, srv.URL+"/v1/navigate", `{"token":"`+prevToken+`"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("previous at cursor 0: status = %d, want 409", resp.StatusCode)
	}
	if code := stringField(t, fields, "code"); code != "out_of_range" {
		t.Errorf("code = %q, want out_of_range", code)
	}
}
