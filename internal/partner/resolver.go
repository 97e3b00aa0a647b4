package partner

import (
	"context"
	"fmt"
	"sort"

	"lp-tracker/internal/cache"
	"lp-tracker/internal/domain"
	"lp-tracker/internal/riot"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// AccountAPI is the slice of the upstream client the resolver needs.
type AccountAPI interface {
	AccountByPUUID(ctx context.Context, puuid string) (*riot.Account, error)
	Summoner(ctx context.Context, puuid string) (*riot.Summoner, error)
}

// Resolver memoizes partner identity lookups through the identity cache
// tier. Concurrent requests for the same not-yet-cached partner are
// coalesced into a single upstream call.
type Resolver struct {
	api    AccountAPI
	tier   *cache.Tier[domain.Player]
	group  singleflight.Group
	logger zerolog.Logger
}

func NewResolver(api AccountAPI, tier *cache.Tier[domain.Player], logger zerolog.Logger) *Resolver {
	return &Resolver{api: api, tier: tier, logger: logger}
}

// Resolve returns the display identity for a puuid, fetching at most once
// across concurrent callers. The summoner icon is best-effort.
func (r *Resolver) Resolve(ctx context.Context, puuid string) (domain.Player, error) {
	if player, ok := r.tier.Get(puuid); ok {
		return player, nil
	}

	v, err, _ := r.group.Do(puuid, func() (any, error) {
		// Re-check under the flight: a sibling may have stored it
		// between our miss and the flight starting.
		if player, ok := r.tier.Get(puuid); ok {
			return player, nil
		}

		acc, err := r.api.AccountByPUUID(ctx, puuid)
		if err != nil {
			return domain.Player{}, err
		}

		player := domain.Player{
			PUUID: acc.PUUID,
			Name:  acc.GameName,
			Tag:   acc.TagLine,
		}
		if summ, err := r.api.Summoner(ctx, puuid); err == nil {
			player.IconRef = iconRef(summ.ProfileIconID)
			player.Level = summ.SummonerLevel
		} else {
			r.logger.Warn().Err(err).Str("puuid", puuid).Msg("summoner fetch failed, identity kept without icon")
		}

		r.tier.Put(puuid, player)
		return player, nil
	})
	if err != nil {
		return domain.Player{}, err
	}
	return v.(domain.Player), nil
}

func iconRef(profileIconID int) string {
	return fmt.Sprintf("profile-icon/%d", profileIconID)
}

// Aggregate tallies gameCount per partner over the timeline, one
// increment per point carrying that partner. A failed identity fetch
// degrades to an id-only aggregate instead of failing the request.
// Results are ordered by gameCount descending, ties by first appearance.
func (r *Resolver) Aggregate(ctx context.Context, points []domain.TimelinePoint) []domain.PartnerAggregate {
	counts := make(map[string]int)
	var order []string
	for _, p := range points {
		if p.PartnerID == "" {
			continue
		}
		if counts[p.PartnerID] == 0 {
			order = append(order, p.PartnerID)
		}
		counts[p.PartnerID]++
	}

	aggregates := make([]domain.PartnerAggregate, 0, len(order))
	for _, id := range order {
		agg := domain.PartnerAggregate{PartnerID: id, GameCount: counts[id]}

		player, err := r.Resolve(ctx, id)
		if err != nil {
			r.logger.Warn().Err(err).Str("partner_id", id).Msg("partner identity fetch failed, aggregating by id only")
		} else {
			agg.DisplayName = player.Name + "#" + player.Tag
			agg.IconRef = player.IconRef
		}
		aggregates = append(aggregates, agg)
	}

	sort.SliceStable(aggregates, func(i, j int) bool {
		return aggregates[i].GameCount > aggregates[j].GameCount
	})
	return aggregates
}
