// Package timeline reconstructs a per-match LP progression from a set of
// match outcomes and one authoritative current-rank anchor.
package timeline

import (
	"sort"

	"lp-tracker/internal/domain"
	"lp-tracker/internal/rank"
)

// DeltaTable maps a team placement to its LP delta. A better placement
// yields a larger delta, and magnitudes are symmetric about the placement
// midpoint.
type DeltaTable map[int]int

// DefaultDoubleUp is the delta table for the four-team paired mode.
var DefaultDoubleUp = DeltaTable{
	1: 40,
	2: 15,
	3: -15,
	4: -40,
}

// Delta returns the LP delta for a team placement. Unknown placements map
// to zero rather than skewing the running total.
func (t DeltaTable) Delta(placement int) int {
	return t[placement]
}

// Reconstruct filters outcomes by mode and cutoff, orders them by
// timestamp (stable, original fetch order kept on ties), derives the
// historical start as anchorTotal minus the sum of all deltas, and walks
// forward emitting one point per outcome. The synthetic point at game
// index 0 carries no placement.
//
// The input slice is never mutated; calling twice with the same inputs
// yields an identical timeline.
func Reconstruct(anchor domain.RankPoint, outcomes []domain.MatchOutcome, mode string, cutoff int64) ([]domain.TimelinePoint, error) {
	qualifying := make([]domain.MatchOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Timestamp < cutoff {
			continue
		}
		if o.Mode != mode {
			continue
		}
		qualifying = append(qualifying, o)
	}

	if len(qualifying) == 0 {
		return nil, domain.ErrNoQualifyingData
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		return qualifying[i].Timestamp < qualifying[j].Timestamp
	})

	anchorTotal := rank.ToTotal(anchor)
	sumDeltas := 0
	for _, o := range qualifying {
		sumDeltas += o.LPDelta
	}
	startTotal := anchorTotal - sumDeltas

	points := make([]domain.TimelinePoint, 0, len(qualifying)+1)
	points = append(points, domain.TimelinePoint{
		GameIndex: 0,
		TotalLP:   startTotal,
		Rank:      rank.FromTotal(startTotal),
	})

	running := startTotal
	for i, o := range qualifying {
		running += o.LPDelta
		points = append(points, domain.TimelinePoint{
			GameIndex: i + 1,
			TotalLP:   running,
			Rank:      rank.FromTotal(running),
			MatchID:   o.MatchID,
			Placement: o.TeamPlacement,
			PartnerID: o.PartnerID,
			Timestamp: o.Timestamp,
		})
	}

	return points, nil
}
