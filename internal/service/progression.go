package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"lp-tracker/internal/cache"
	"lp-tracker/internal/config"
	"lp-tracker/internal/constants"
	"lp-tracker/internal/domain"
	"lp-tracker/internal/metrics"
	"lp-tracker/internal/partner"
	"lp-tracker/internal/rank"
	"lp-tracker/internal/render"
	"lp-tracker/internal/repository"
	"lp-tracker/internal/riot"
	"lp-tracker/internal/session"
	"lp-tracker/internal/timeline"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Upstream is the slice of the Riot client the progression path uses.
type Upstream interface {
	ResolveAccount(ctx context.Context, name, tag string) (*riot.Account, error)
	Summoner(ctx context.Context, puuid string) (*riot.Summoner, error)
	ListMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*riot.Match, error)
	LeagueEntries(ctx context.Context, puuid string) ([]riot.LeagueEntry, error)
}

// ProgressionView is the full analytic result of one initiating request.
type ProgressionView struct {
	Player     domain.Player
	Rank       domain.RankPoint
	SessionKey string
	Timeline   []domain.TimelinePoint
	Partners   []domain.PartnerAggregate
	Summary    render.Summary
	Artifact   []byte
}

type ProgressionService struct {
	upstream   Upstream
	identity   *cache.Tier[domain.Player]
	matchLists *cache.Tier[[]string]
	details    *cache.Tier[riot.Match]
	frames     *cache.Tier[[]byte]
	sessions   *session.Manager
	resolver   *partner.Resolver
	renderer   render.Renderer
	repo       *repository.ProgressionRepository
	cfg        *config.Config
	deltas     timeline.DeltaTable
	partition  partner.Partition
	logger     zerolog.Logger
}

func NewProgressionService(
	upstream Upstream,
	identity *cache.Tier[domain.Player],
	matchLists *cache.Tier[[]string],
	details *cache.Tier[riot.Match],
	frames *cache.Tier[[]byte],
	sessions *session.Manager,
	resolver *partner.Resolver,
	renderer render.Renderer,
	repo *repository.ProgressionRepository,
	cfg *config.Config,
	logger zerolog.Logger,
) *ProgressionService {
	return &ProgressionService{
		upstream:   upstream,
		identity:   identity,
		matchLists: matchLists,
		details:    details,
		frames:     frames,
		sessions:   sessions,
		resolver:   resolver,
		renderer:   renderer,
		repo:       repo,
		cfg:        cfg,
		deltas:     timeline.DefaultDoubleUp,
		partition:  partner.PairedPlacements,
		logger:     logger,
	}
}

// ParseRiotID splits a "name#tag" identity string.
func ParseRiotID(raw string) (name, tag string, err error) {
	name, tag, found := strings.Cut(raw, "#")
	if !found || name == "" || tag == "" || strings.Contains(tag, "#") {
		return "", "", fmt.Errorf("%w: %q", domain.ErrInputFormat, raw)
	}
	return name, tag, nil
}

// GetProgression runs the full pipeline: resolve identity, fetch the
// match sample, reconstruct the timeline, aggregate partners, render,
// and open a navigation session over the qualifying matches.
func (s *ProgressionService) GetProgression(ctx context.Context, riotID string, sampleSize int, modeOverride string) (*ProgressionView, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	name, tag, err := ParseRiotID(riotID)
	if err != nil {
		return nil, err
	}

	if sampleSize <= 0 {
		sampleSize = constants.DefaultSampleSize
	}
	if sampleSize > constants.MaxSampleSize {
		sampleSize = constants.MaxSampleSize
	}

	mode := s.cfg.RankedMode
	if modeOverride != "" {
		mode = modeOverride
	}

	s.logger.Info().Str("riot_id", riotID).Int("sample_size", sampleSize).Str("mode", mode).Msg("building progression")

	player, err := s.resolvePlayer(ctx, name, tag)
	if err != nil {
		return nil, err
	}

	anchor, err := s.fetchAnchor(ctx, player.PUUID)
	if err != nil {
		return nil, err
	}

	matchIDs, err := s.fetchMatchList(ctx, player.PUUID, sampleSize)
	if err != nil {
		return nil, err
	}

	outcomes := s.buildOutcomes(ctx, player.PUUID, matchIDs)

	points, err := timeline.Reconstruct(anchor, outcomes, mode, s.cfg.SeasonCutoffMillis)
	if err != nil {
		metrics.Reconstructions.WithLabelValues("no_data").Inc()
		return nil, err
	}
	metrics.Reconstructions.WithLabelValues("ok").Inc()

	partners := s.resolver.Aggregate(ctx, points)

	frame := render.Frame{
		Player:   player,
		Timeline: points,
		Partners: partners,
		Summary:  render.BuildSummary(points),
	}
	artifact, err := s.renderFrame(player.PUUID, sampleSize, mode, rank.ToTotal(anchor), frame)
	if err != nil {
		return nil, fmt.Errorf("failed to render frame: %w", err)
	}

	sessionKey, err := s.openSession(player.PUUID, points, outcomes, partners)
	if err != nil {
		return nil, err
	}

	s.archive(ctx, player, anchor, points)

	s.logger.Info().
		Str("puuid", player.PUUID).
		Int("qualifying", len(points)-1).
		Str("session_key", sessionKey).
		Msg("progression built")

	return &ProgressionView{
		Player:     player,
		Rank:       anchor,
		SessionKey: sessionKey,
		Timeline:   points,
		Partners:   partners,
		Summary:    frame.Summary,
		Artifact:   artifact,
	}, nil
}

// resolvePlayer returns the requesting player's identity, from the
// identity tier when live. A fetch failure here fails the whole request.
func (s *ProgressionService) resolvePlayer(ctx context.Context, name, tag string) (domain.Player, error) {
	key := "riotid/" + strings.ToLower(name) + "#" + strings.ToLower(tag)
	if player, ok := s.identity.Get(key); ok {
		return player, nil
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	acc, err := s.upstream.ResolveAccount(apiCtx, name, tag)
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Str("tag", tag).Msg("account resolution failed")
		return domain.Player{}, fmt.Errorf("%w: account resolution: %v", domain.ErrUpstreamUnavailable, err)
	}

	player := domain.Player{PUUID: acc.PUUID, Name: acc.GameName, Tag: acc.TagLine}
	if summ, err := s.upstream.Summoner(apiCtx, acc.PUUID); err == nil {
		player.IconRef = fmt.Sprintf("profile-icon/%d", summ.ProfileIconID)
		player.Level = summ.SummonerLevel
	} else {
		s.logger.Warn().Err(err).Str("puuid", acc.PUUID).Msg("summoner fetch failed, continuing without icon")
	}

	s.identity.Put(key, player)
	s.identity.Put(player.PUUID, player)
	return player, nil
}

// fetchAnchor reads the current ladder snapshot. This is the "now" point
// the timeline walks back from, so it is never served stale.
func (s *ProgressionService) fetchAnchor(ctx context.Context, puuid string) (domain.RankPoint, error) {
	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	entries, err := s.upstream.LeagueEntries(apiCtx, puuid)
	if err != nil {
		s.logger.Error().Err(err).Str("puuid", puuid).Msg("league entries fetch failed")
		return domain.RankPoint{}, fmt.Errorf("%w: league entries: %v", domain.ErrUpstreamUnavailable, err)
	}

	for _, e := range entries {
		if e.QueueType != s.cfg.RankedQueue {
			continue
		}
		tier, ok := domain.ParseTier(e.Tier)
		if !ok {
			return domain.RankPoint{}, fmt.Errorf("%w: unknown tier %q", domain.ErrUpstreamUnavailable, e.Tier)
		}
		division := domain.DivisionI
		if !tier.IsApex() {
			division, ok = domain.ParseDivision(e.Rank)
			if !ok {
				return domain.RankPoint{}, fmt.Errorf("%w: unknown division %q", domain.ErrUpstreamUnavailable, e.Rank)
			}
		}
		return domain.RankPoint{Tier: tier, Division: division, Points: e.LeaguePoints}, nil
	}

	s.logger.Info().Str("puuid", puuid).Str("queue", s.cfg.RankedQueue).Msg("no ladder entry for ranked queue")
	return domain.RankPoint{}, fmt.Errorf("%w: no ladder entry", domain.ErrNoQualifyingData)
}

func (s *ProgressionService) fetchMatchList(ctx context.Context, puuid string, count int) ([]string, error) {
	key := fmt.Sprintf("%s/%d", puuid, count)
	if ids, ok := s.matchLists.Get(key); ok {
		return ids, nil
	}

	apiCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	ids, err := s.upstream.ListMatchIDs(apiCtx, puuid, count)
	if err != nil {
		s.logger.Error().Err(err).Str("puuid", puuid).Msg("match list fetch failed")
		return nil, fmt.Errorf("%w: match list: %v", domain.ErrUpstreamUnavailable, err)
	}

	s.matchLists.Put(key, ids)
	return ids, nil
}

// buildOutcomes realizes match details (cache or bounded-concurrency
// fetch) and derives one outcome per match the player appears in. A
// failed detail fetch drops that match and continues.
func (s *ProgressionService) buildOutcomes(ctx context.Context, puuid string, matchIDs []string) []domain.MatchOutcome {
	var mu sync.Mutex
	matches := make(map[string]riot.Match, len(matchIDs))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.DetailFetchConcurrency)

	for _, id := range matchIDs {
		if m, ok := s.details.Get(id); ok {
			mu.Lock()
			matches[id] = m
			mu.Unlock()
			continue
		}

		id := id
		g.Go(func() error {
			m, err := s.upstream.GetMatch(gCtx, id)
			if err != nil {
				metrics.MatchSkips.Inc()
				s.logger.Warn().Err(err).Str("match_id", id).Msg("match detail fetch failed, skipping")
				return nil
			}

			s.details.Put(id, *m)
			mu.Lock()
			matches[id] = *m
			mu.Unlock()
			return nil
		})
	}
	// Fetch closures never return errors; failures are per-match skips.
	_ = g.Wait()

	outcomes := make([]domain.MatchOutcome, 0, len(matches))
	for _, id := range matchIDs {
		m, ok := matches[id]
		if !ok {
			continue
		}

		participants := make([]partner.Participant, len(m.Info.Participants))
		for i, p := range m.Info.Participants {
			participants[i] = partner.Participant{ID: p.PUUID, RawPlacement: p.Placement}
		}

		partnerID, teamUnit, rawPlacement, found := partner.Find(participants, puuid, s.partition)
		if !found && teamUnit == 0 {
			s.logger.Warn().Str("match_id", id).Str("puuid", puuid).Msg("player absent from match record, skipping")
			continue
		}

		outcomes = append(outcomes, domain.MatchOutcome{
			MatchID:       id,
			Timestamp:     m.Info.GameDatetime,
			Mode:          m.Info.GameType,
			RawPlacement:  rawPlacement,
			TeamPlacement: teamUnit,
			LPDelta:       s.deltas.Delta(teamUnit),
			PartnerID:     partnerID,
		})
	}
	return outcomes
}

// renderFrame serves the artifact from the frame tier when live. The key
// carries the anchor total, so an artifact rendered before the anchor
// moved can never be paired with a fresher timeline.
func (s *ProgressionService) renderFrame(puuid string, sampleSize int, mode string, anchorTotal int, frame render.Frame) ([]byte, error) {
	key := fmt.Sprintf("%s/%d/%s/%d", puuid, sampleSize, mode, anchorTotal)
	if artifact, ok := s.frames.Get(key); ok {
		return artifact, nil
	}

	artifact, err := s.renderer.Render(frame)
	if err != nil {
		return nil, err
	}

	s.frames.Put(key, artifact)
	return artifact, nil
}

// openSession freezes the qualifying match list with fully realized
// details so navigation never refetches.
func (s *ProgressionService) openSession(puuid string, points []domain.TimelinePoint, outcomes []domain.MatchOutcome, partners []domain.PartnerAggregate) (string, error) {
	byMatch := make(map[string]domain.MatchOutcome, len(outcomes))
	for _, o := range outcomes {
		byMatch[o.MatchID] = o
	}
	names := make(map[string]string, len(partners))
	for _, p := range partners {
		names[p.PartnerID] = p.DisplayName
	}

	matchIDs := make([]string, 0, len(points)-1)
	details := make(map[string]domain.MatchDetail, len(points)-1)
	for _, p := range points[1:] {
		o := byMatch[p.MatchID]
		matchIDs = append(matchIDs, p.MatchID)
		details[p.MatchID] = domain.MatchDetail{
			MatchID:       p.MatchID,
			Timestamp:     p.Timestamp,
			Mode:          o.Mode,
			RawPlacement:  o.RawPlacement,
			TeamPlacement: p.Placement,
			LPDelta:       o.LPDelta,
			PartnerID:     p.PartnerID,
			PartnerName:   names[p.PartnerID],
		}
	}

	return s.sessions.Create(puuid, matchIDs, details)
}

// archive is best-effort: a failed write never fails the request.
func (s *ProgressionService) archive(ctx context.Context, player domain.Player, anchor domain.RankPoint, points []domain.TimelinePoint) {
	dbCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.repo.UpsertPlayer(dbCtx, player, anchor, rank.ToTotal(anchor)); err != nil {
		s.logger.Warn().Err(err).Str("puuid", player.PUUID).Msg("failed to archive player")
		return
	}
	if err := s.repo.UpsertTimeline(dbCtx, player.PUUID, points); err != nil {
		s.logger.Warn().Err(err).Str("puuid", player.PUUID).Msg("failed to archive timeline")
	}
}

// GetHistory reads back archived timeline points for a player.
func (s *ProgressionService) GetHistory(ctx context.Context, puuid string, limit int) ([]repository.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if limit <= 0 || limit > constants.MaxSampleSize {
		limit = constants.MaxSampleSize
	}
	return s.repo.GetHistory(ctx, puuid, limit)
}
