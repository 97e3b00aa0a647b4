// Package repository archives reconstructed progressions in SQLite.
// Writes are best-effort from the request path; reads back the archive
// for the history endpoint.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lp-tracker/internal/constants"
	"lp-tracker/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

// HistoryEntry is one archived timeline point.
type HistoryEntry struct {
	ID            string
	PUUID         string
	MatchID       string
	TotalLP       int
	Tier          string
	Division      string
	Points        int
	TeamPlacement int
	LPDelta       int
	PartnerID     string
	PlayedAt      int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type ProgressionRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewProgressionRepository(db *sql.DB, logger zerolog.Logger) *ProgressionRepository {
	return &ProgressionRepository{db: db, logger: logger}
}

// UpsertPlayer stores the player's latest resolved identity and rank
// snapshot.
func (r *ProgressionRepository) UpsertPlayer(ctx context.Context, player domain.Player, rank domain.RankPoint, totalLP int) error {
	now := time.Now()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO players (puuid, name, tag, icon_ref, level, tier, division, points, total_lp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (puuid) DO UPDATE SET
			name = excluded.name,
			tag = excluded.tag,
			icon_ref = excluded.icon_ref,
			level = excluded.level,
			tier = excluded.tier,
			division = excluded.division,
			points = excluded.points,
			total_lp = excluded.total_lp,
			updated_at = excluded.updated_at`,
		player.PUUID, player.Name, player.Tag, player.IconRef, player.Level,
		rank.Tier.String(), rank.Division.String(), rank.Points, totalLP, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert player %s: %w", player.PUUID, err)
	}
	return nil
}

// UpsertTimeline archives the non-synthetic points of a reconstruction.
// Rows are keyed (puuid, match_id) so re-reconstruction overwrites rather
// than duplicates.
func (r *ProgressionRepository) UpsertTimeline(ctx context.Context, puuid string, points []domain.TimelinePoint) error {
	if len(points) < 2 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lp_history (id, puuid, match_id, total_lp, tier, division, points, team_placement, lp_delta, partner_id, played_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (puuid, match_id) DO UPDATE SET
			total_lp = excluded.total_lp,
			tier = excluded.tier,
			division = excluded.division,
			points = excluded.points,
			team_placement = excluded.team_placement,
			lp_delta = excluded.lp_delta,
			partner_id = excluded.partner_id,
			played_at = excluded.played_at,
			updated_at = excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i := 1; i < len(points); i++ {
		p := points[i]

		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}

		_, err = stmt.ExecContext(ctx,
			id, puuid, p.MatchID, p.TotalLP,
			p.Rank.Tier.String(), p.Rank.Division.String(), p.Rank.Points,
			p.Placement, p.TotalLP-points[i-1].TotalLP, p.PartnerID, p.Timestamp, now, now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert history for %s/%s: %w", puuid, p.MatchID, err)
		}

		if i%constants.DBBatchSize == 0 {
			r.logger.Debug().Str("puuid", puuid).Int("rows", i).Msg("archiving timeline batch")
		}
	}

	return tx.Commit()
}

// GetHistory returns archived points for a player, most recent first.
func (r *ProgressionRepository) GetHistory(ctx context.Context, puuid string, limit int) ([]HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, puuid, match_id, total_lp, tier, division, points, team_placement, lp_delta, partner_id, played_at, created_at, updated_at
		FROM lp_history
		WHERE puuid = ?
		ORDER BY played_at DESC
		LIMIT ?`, puuid, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		err := rows.Scan(&e.ID, &e.PUUID, &e.MatchID, &e.TotalLP, &e.Tier, &e.Division,
			&e.Points, &e.TeamPlacement, &e.LPDelta, &e.PartnerID, &e.PlayedAt, &e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
