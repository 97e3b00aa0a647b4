package constants

import "time"

// Cache tier TTLs. Tiers are independent namespaces; each carries its own
// clock.
const (
	IdentityCacheTTL    = 5 * time.Minute
	MatchListCacheTTL   = 30 * time.Minute
	MatchDetailCacheTTL = 15 * time.Minute
	FrameCacheTTL       = 30 * time.Minute
	SessionTTL          = 10 * time.Minute
	SweepInterval       = 1 * time.Minute
)

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
	ShutdownTimeout    = 5 * time.Second
)

// Upstream fetch shaping: detail fetches for one reconstruction run under
// a bounded number of workers to stay inside the app rate limit.
const (
	DetailFetchConcurrency = 4
	DefaultSampleSize      = 20
	MaxSampleSize          = 100
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
	DBBatchSize       = 100
)
