// Package rank linearizes (tier, division, points) rank triples into a
// single monotonic "total LP" integer and back.
package rank

import "lp-tracker/internal/domain"

// Tier bases are 400 apart below Master (4 divisions x 100 LP). The apex
// tiers have a single division and their points keep growing past 99, so
// their bases only need to stay monotonic, not evenly spaced.
var tierBases = [...]int{
	domain.TierIron:        0,
	domain.TierBronze:      400,
	domain.TierSilver:      800,
	domain.TierGold:        1200,
	domain.TierPlatinum:    1600,
	domain.TierEmerald:     2000,
	domain.TierDiamond:     2400,
	domain.TierMaster:      2800,
	domain.TierGrandmaster: 3000,
	domain.TierChallenger:  3200,
}

var divisionOffsets = [...]int{
	domain.DivisionIV:  0,
	domain.DivisionIII: 100,
	domain.DivisionII:  200,
	domain.DivisionI:   300,
}

// maxDivisionPoints is the LP cap inside a non-apex division.
const maxDivisionPoints = 99

// ToTotal maps a rank triple to its total LP. Every syntactically valid
// RankPoint maps to a unique integer; apex divisions contribute no offset.
func ToTotal(r domain.RankPoint) int {
	total := tierBases[r.Tier] + r.Points
	if !r.Tier.IsApex() {
		total += divisionOffsets[r.Division]
	}
	return total
}

// FromTotal is the inverse lookup: the highest tier/division whose
// base+offset does not exceed total, with the remainder as points.
// Below-floor totals clamp to IRON IV 0; non-apex residuals clamp at 99
// so a total landing inside a division never spills past promotion.
func FromTotal(total int) domain.RankPoint {
	if total < 0 {
		return domain.RankPoint{Tier: domain.TierIron, Division: domain.DivisionIV, Points: 0}
	}

	for tier := domain.TierChallenger; tier >= domain.TierIron; tier-- {
		base := tierBases[tier]
		if tier.IsApex() {
			if total >= base {
				return domain.RankPoint{Tier: tier, Division: domain.DivisionI, Points: total - base}
			}
			continue
		}
		for div := domain.DivisionI; div >= domain.DivisionIV; div-- {
			floor := base + divisionOffsets[div]
			if total >= floor {
				points := total - floor
				if points > maxDivisionPoints {
					points = maxDivisionPoints
				}
				return domain.RankPoint{Tier: tier, Division: div, Points: points}
			}
		}
	}

	return domain.RankPoint{Tier: domain.TierIron, Division: domain.DivisionIV, Points: 0}
}
