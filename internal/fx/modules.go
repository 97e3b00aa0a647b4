package fx

import (
	"lp-tracker/internal/cache"
	"lp-tracker/internal/config"
	"lp-tracker/internal/constants"
	"lp-tracker/internal/database"
	"lp-tracker/internal/domain"
	"lp-tracker/internal/logger"
	"lp-tracker/internal/partner"
	"lp-tracker/internal/render"
	"lp-tracker/internal/repository"
	"lp-tracker/internal/riot"
	"lp-tracker/internal/server"
	"lp-tracker/internal/service"
	"lp-tracker/internal/session"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Each cache tier holds a distinct value type, so plain constructors are
// enough for fx to tell them apart.

func ProvideIdentityTier() *cache.Tier[domain.Player] {
	return cache.NewTier[domain.Player]("identity", constants.IdentityCacheTTL)
}

func ProvideMatchListTier() *cache.Tier[[]string] {
	return cache.NewTier[[]string]("matchlist", constants.MatchListCacheTTL)
}

func ProvideMatchDetailTier() *cache.Tier[riot.Match] {
	return cache.NewTier[riot.Match]("matchdetail", constants.MatchDetailCacheTTL)
}

func ProvideFrameTier() *cache.Tier[[]byte] {
	return cache.NewTier[[]byte]("frame", constants.FrameCacheTTL)
}

func ProvideSessionTier() *cache.Tier[domain.Session] {
	return cache.NewTier[domain.Session]("session", constants.SessionTTL)
}

func ProvideSweeper(
	identity *cache.Tier[domain.Player],
	matchLists *cache.Tier[[]string],
	details *cache.Tier[riot.Match],
	frames *cache.Tier[[]byte],
	sessions *cache.Tier[domain.Session],
	log zerolog.Logger,
) *cache.Sweeper {
	return cache.NewSweeper(constants.SweepInterval, log,
		identity, matchLists, details, frames, sessions)
}

func ProvideUpstream(c *riot.Client) service.Upstream {
	return c
}

func ProvideAccountAPI(c *riot.Client) partner.AccountAPI {
	return c
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// cache tiers
	fx.Provide(ProvideIdentityTier),
	fx.Provide(ProvideMatchListTier),
	fx.Provide(ProvideMatchDetailTier),
	fx.Provide(ProvideFrameTier),
	fx.Provide(ProvideSessionTier),
	fx.Provide(ProvideSweeper),
	// api client
	fx.Provide(riot.NewClient),
	fx.Provide(ProvideUpstream),
	fx.Provide(ProvideAccountAPI),
	// repos
	fx.Provide(repository.NewProgressionRepository),
	// collaborators
	fx.Provide(session.NewManager),
	fx.Provide(partner.NewResolver),
	fx.Provide(render.NewJSONRenderer),
	// svc
	fx.Provide(service.NewProgressionService),
	fx.Provide(service.NewNavigationService),
	// server
	fx.Provide(server.NewTrackerServer),
)
