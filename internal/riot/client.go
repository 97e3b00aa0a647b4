// Package riot is the upstream data-source client. Responses are decoded
// into explicit record types and validated at the boundary; a missing
// required field is a malformed-response failure, never a silent zero.
package riot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"lp-tracker/internal/config"
	"lp-tracker/internal/metrics"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
)

// ErrMalformedResponse marks an upstream body that decoded but is missing
// required fields.
var ErrMalformedResponse = errors.New("malformed upstream response")

// ErrNotFound marks an upstream 404 (unknown riot id, unknown match).
var ErrNotFound = errors.New("not found upstream")

type Client struct {
	apiKey       string
	platformHost string // e.g. na1.api.riotgames.com
	regionalHost string // e.g. americas.api.riotgames.com
	client       *fasthttp.Client

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

// RateLimitInfo mirrors the app rate-limit headers of the last response.
type RateLimitInfo struct {
	Limit     int       `json:"limit"`
	Count     int       `json:"count"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKey:       cfg.RiotAPIKey,
		platformHost: fmt.Sprintf("https://%s.api.riotgames.com", cfg.RiotPlatform),
		regionalHost: fmt.Sprintf("https://%s.api.riotgames.com", cfg.RiotRegion),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

func (c *Client) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

// updateRateLimit reads the first window of "X-App-Rate-Limit" style
// headers ("20:1,100:120").
func (c *Client) updateRateLimit(resp *fasthttp.Response) {
	limit := firstWindow(string(resp.Header.Peek("X-App-Rate-Limit")))
	count := firstWindow(string(resp.Header.Peek("X-App-Rate-Limit-Count")))
	if limit == 0 && count == 0 {
		return
	}

	c.rateLimitMu.Lock()
	if limit > 0 {
		c.rateLimit.Limit = limit
	}
	if count > 0 {
		c.rateLimit.Count = count
	}
	c.rateLimit.UpdatedAt = time.Now()
	c.rateLimitMu.Unlock()
}

func firstWindow(header string) int {
	if header == "" {
		return 0
	}
	if idx := strings.IndexByte(header, ','); idx >= 0 {
		header = header[:idx]
	}
	if idx := strings.IndexByte(header, ':'); idx >= 0 {
		header = header[:idx]
	}
	val, err := strconv.Atoi(header)
	if err != nil {
		return 0
	}
	return val
}

// ResolveAccount resolves a riot id (name, tag) to an account.
func (c *Client) ResolveAccount(ctx context.Context, name, tag string) (*Account, error) {
	url := fmt.Sprintf("%s/riot/account/v1/accounts/by-riot-id/%s/%s", c.regionalHost, name, tag)
	acc, err := doRequest[Account](ctx, c, "resolve_account", url)
	if err != nil {
		return nil, err
	}
	if acc.PUUID == "" {
		return nil, fmt.Errorf("account for %s#%s: %w", name, tag, ErrMalformedResponse)
	}
	return acc, nil
}

// AccountByPUUID resolves the display identity of an already-known puuid.
func (c *Client) AccountByPUUID(ctx context.Context, puuid string) (*Account, error) {
	url := fmt.Sprintf("%s/riot/account/v1/accounts/by-puuid/%s", c.regionalHost, puuid)
	acc, err := doRequest[Account](ctx, c, "account_by_puuid", url)
	if err != nil {
		return nil, err
	}
	if acc.PUUID == "" || acc.GameName == "" {
		return nil, fmt.Errorf("account for %s: %w", puuid, ErrMalformedResponse)
	}
	return acc, nil
}

// Summoner fetches the profile icon and level for a puuid.
func (c *Client) Summoner(ctx context.Context, puuid string) (*Summoner, error) {
	url := fmt.Sprintf("%s/tft/summoner/v1/summoners/by-puuid/%s", c.platformHost, puuid)
	return doRequest[Summoner](ctx, c, "summoner", url)
}

// ListMatchIDs returns the most recent match ids for a puuid, newest
// first, as the upstream orders them.
func (c *Client) ListMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	url := fmt.Sprintf("%s/tft/match/v1/matches/by-puuid/%s/ids?count=%d", c.regionalHost, puuid, count)
	ids, err := doRequest[[]string](ctx, c, "list_matches", url)
	if err != nil {
		return nil, err
	}
	return *ids, nil
}

// GetMatch fetches one match record.
func (c *Client) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	url := fmt.Sprintf("%s/tft/match/v1/matches/%s", c.regionalHost, matchID)
	match, err := doRequest[Match](ctx, c, "get_match", url)
	if err != nil {
		return nil, err
	}
	if match.Metadata.MatchID == "" || len(match.Info.Participants) == 0 {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrMalformedResponse)
	}
	return match, nil
}

// LeagueEntries returns the ranked ladder entries for a puuid, one per
// queue.
func (c *Client) LeagueEntries(ctx context.Context, puuid string) ([]LeagueEntry, error) {
	url := fmt.Sprintf("%s/tft/league/v1/by-puuid/%s", c.platformHost, puuid)
	entries, err := doRequest[[]LeagueEntry](ctx, c, "league_entries", url)
	if err != nil {
		return nil, err
	}
	return *entries, nil
}

func doRequest[T any](ctx context.Context, client *Client, operation, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("X-Riot-Token", client.apiKey)

	var err error
	if deadline, ok := ctx.Deadline(); ok {
		err = client.client.DoDeadline(req, resp, deadline)
	} else {
		err = client.client.Do(req, resp)
	}
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(operation, "network_error").Inc()
		return nil, err
	}

	client.updateRateLimit(resp)
	metrics.UpstreamRequests.WithLabelValues(operation, strconv.Itoa(resp.StatusCode())).Inc()

	if resp.StatusCode() == fasthttp.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return &result, nil
}
