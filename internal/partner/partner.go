// Package partner pairs match participants into team units and tallies
// duo co-occurrence across a reconstructed timeline.
package partner

// Partition maps a raw placement to a team unit. The pairing rule is
// mode-specific and injected, never hardcoded in the correlation logic.
type Partition func(rawPlacement int) int

// PairedPlacements is the partition for the four-team paired mode: raw
// placements 1..8 group pairwise into team units 1..4.
func PairedPlacements(raw int) int {
	return (raw + 1) / 2
}

// Participant is the slice of a match record the correlator needs.
type Participant struct {
	ID           string
	RawPlacement int
}

// Find identifies the one other participant sharing the player's team
// unit. ok is false when the player is absent or plays without a partner.
func Find(participants []Participant, playerID string, partition Partition) (partnerID string, teamUnit int, rawPlacement int, ok bool) {
	var player *Participant
	for i := range participants {
		if participants[i].ID == playerID {
			player = &participants[i]
			break
		}
	}
	if player == nil {
		return "", 0, 0, false
	}

	teamUnit = partition(player.RawPlacement)
	for i := range participants {
		p := &participants[i]
		if p.ID == playerID {
			continue
		}
		if partition(p.RawPlacement) == teamUnit {
			return p.ID, teamUnit, player.RawPlacement, true
		}
	}
	return "", teamUnit, player.RawPlacement, false
}
