package domain

import (
	"fmt"
	"strings"
)

// Tier is the coarse rank classification, ordered lowest to highest.
type Tier int

const (
	TierIron Tier = iota
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
	TierEmerald
	TierDiamond
	TierMaster
	TierGrandmaster
	TierChallenger
)

var tierNames = [...]string{
	"IRON", "BRONZE", "SILVER", "GOLD", "PLATINUM",
	"EMERALD", "DIAMOND", "MASTER", "GRANDMASTER", "CHALLENGER",
}

func (t Tier) String() string {
	if t < TierIron || t > TierChallenger {
		return "UNKNOWN"
	}
	return tierNames[t]
}

// IsApex reports whether the tier has a single division and unbounded LP.
func (t Tier) IsApex() bool {
	return t >= TierMaster
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	parsed, ok := ParseTier(strings.Trim(string(data), `"`))
	if !ok {
		return fmt.Errorf("unknown tier %s", data)
	}
	*t = parsed
	return nil
}

// ParseTier maps an upstream tier string to a Tier.
func ParseTier(s string) (Tier, bool) {
	for i, name := range tierNames {
		if name == s {
			return Tier(i), true
		}
	}
	return TierIron, false
}

// Division is the fine rank classification within a tier. IV is the lowest.
type Division int

const (
	DivisionIV Division = iota
	DivisionIII
	DivisionII
	DivisionI
)

var divisionNames = [...]string{"IV", "III", "II", "I"}

func (d Division) String() string {
	if d < DivisionIV || d > DivisionI {
		return "?"
	}
	return divisionNames[d]
}

func (d Division) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Division) UnmarshalJSON(data []byte) error {
	parsed, ok := ParseDivision(strings.Trim(string(data), `"`))
	if !ok {
		return fmt.Errorf("unknown division %s", data)
	}
	*d = parsed
	return nil
}

// ParseDivision maps an upstream division string ("I".."IV") to a Division.
func ParseDivision(s string) (Division, bool) {
	for i, name := range divisionNames {
		if name == s {
			return Division(i), true
		}
	}
	return DivisionIV, false
}

// RankPoint is an immutable (tier, division, points) rank triple. Apex
// tiers carry exactly one division (I).
type RankPoint struct {
	Tier     Tier     `json:"tier"`
	Division Division `json:"division"`
	Points   int      `json:"points"`
}

func (r RankPoint) String() string {
	if r.Tier.IsApex() {
		return r.Tier.String()
	}
	return r.Tier.String() + " " + r.Division.String()
}

// Player is a resolved identity from the upstream account endpoint.
type Player struct {
	PUUID   string `json:"puuid"`
	Name    string `json:"name"`
	Tag     string `json:"tag"`
	IconRef string `json:"icon_ref,omitempty"`
	Level   int    `json:"level,omitempty"`
}

// MatchOutcome is one processed match from the requesting player's
// perspective. Immutable once built.
type MatchOutcome struct {
	MatchID       string
	Timestamp     int64 // epoch millis
	Mode          string
	RawPlacement  int
	TeamPlacement int
	LPDelta       int
	PartnerID     string
}

// TimelinePoint is one point of the reconstructed LP progression.
// GameIndex 0 is the synthetic starting point and carries no placement.
type TimelinePoint struct {
	GameIndex int       `json:"game_index"`
	TotalLP   int       `json:"total_lp"`
	Rank      RankPoint `json:"rank"`
	MatchID   string    `json:"match_id,omitempty"`  // empty on the synthetic start
	Placement int       `json:"placement,omitempty"` // team placement, 0 on the synthetic start
	PartnerID string    `json:"partner_id,omitempty"`
	Timestamp int64     `json:"timestamp,omitempty"` // 0 on the synthetic start
}

// PartnerAggregate tallies co-occurrence with one duo partner across the
// reconstructed timeline.
type PartnerAggregate struct {
	PartnerID   string `json:"partner_id"`
	DisplayName string `json:"display_name,omitempty"`
	IconRef     string `json:"icon_ref,omitempty"`
	GameCount   int    `json:"game_count"`
}

// MatchDetail is the per-match view a session navigates over.
type MatchDetail struct {
	MatchID       string `json:"match_id"`
	Timestamp     int64  `json:"timestamp"`
	Mode          string `json:"mode"`
	RawPlacement  int    `json:"raw_placement"`
	TeamPlacement int    `json:"team_placement"`
	LPDelta       int    `json:"lp_delta"`
	PartnerID     string `json:"partner_id,omitempty"`
	PartnerName   string `json:"partner_name,omitempty"`
}

// Session associates an opaque key with a fixed match list and a cursor.
// Details are complete before the session is handed out; navigation never
// refetches.
type Session struct {
	Key      string
	PUUID    string
	MatchIDs []string
	Details  map[string]MatchDetail
	Cursor   int
}
