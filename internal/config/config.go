package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	RiotAPIKey   string
	RiotPlatform string // platform routing, e.g. na1
	RiotRegion   string // regional routing, e.g. americas
	DBPath       string
	ServerPort   string
	LogLevel     string

	// RankedMode is the opaque mode discriminator matched against each
	// fetched match; only equality is checked.
	RankedMode string

	// RankedQueue selects the ladder entry used as the current-rank
	// anchor.
	RankedQueue string

	// SeasonCutoffMillis excludes matches before a rank reset or event
	// boundary. Zero disables the cutoff.
	SeasonCutoffMillis int64
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		RiotAPIKey:   getEnv("RIOT_API_KEY", ""),
		RiotPlatform: getEnv("RIOT_PLATFORM", "na1"),
		RiotRegion:   getEnv("RIOT_REGION", "americas"),
		DBPath:       getEnv("DB_PATH", "lptracker.db"),
		ServerPort:   getEnv("SERVER_PORT", "8080"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		RankedMode:   getEnv("RANKED_MODE", "pairs"),
		RankedQueue:  getEnv("RANKED_QUEUE", "RANKED_TFT_DOUBLE_UP"),
	}

	if cfg.RiotAPIKey == "" {
		return nil, fmt.Errorf("RIOT_API_KEY is required")
	}

	if raw := os.Getenv("SEASON_CUTOFF_MS"); raw != "" {
		cutoff, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SEASON_CUTOFF_MS %q: %w", raw, err)
		}
		cfg.SeasonCutoffMillis = cutoff
	}

	logger.Info().
		Str("riot_platform", cfg.RiotPlatform).
		Str("riot_region", cfg.RiotRegion).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("ranked_mode", cfg.RankedMode).
		Int64("season_cutoff_ms", cfg.SeasonCutoffMillis).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
