// Package render assembles the structured record handed to the rendering
// sink. Pixel rasterization is an external collaborator; the default
// renderer encodes the frame verbatim.
package render

import (
	"lp-tracker/internal/domain"

	"github.com/goccy/go-json"
)

// Frame is the plain structured record produced for the render sink.
type Frame struct {
	Player   domain.Player             `json:"player"`
	Timeline []domain.TimelinePoint    `json:"timeline"`
	Partners []domain.PartnerAggregate `json:"partners"`
	Summary  Summary                   `json:"summary"`
}

// Summary carries the headline statistics next to the graph.
type Summary struct {
	Games            int     `json:"games"`
	NetLP            int     `json:"net_lp"`
	StartRank        string  `json:"start_rank"`
	CurrentRank      string  `json:"current_rank"`
	PeakTotalLP      int     `json:"peak_total_lp"`
	AveragePlacement float64 `json:"average_placement"`
	FirstPlaces      int     `json:"first_places"`
}

// Renderer turns a frame into a binary artifact.
type Renderer interface {
	Render(Frame) ([]byte, error)
}

// JSONRenderer is the built-in sink: the frame as JSON bytes. An image
// renderer satisfying Renderer can be swapped in at wiring time.
type JSONRenderer struct{}

func NewJSONRenderer() Renderer { return JSONRenderer{} }

func (JSONRenderer) Render(f Frame) ([]byte, error) {
	return json.Marshal(f)
}

// BuildSummary derives the headline statistics from a reconstructed
// timeline. The synthetic start point contributes to rank bounds but not
// to placement statistics.
func BuildSummary(points []domain.TimelinePoint) Summary {
	if len(points) == 0 {
		return Summary{}
	}

	s := Summary{
		StartRank:   points[0].Rank.String(),
		CurrentRank: points[len(points)-1].Rank.String(),
		PeakTotalLP: points[0].TotalLP,
		NetLP:       points[len(points)-1].TotalLP - points[0].TotalLP,
	}

	placementSum := 0
	for _, p := range points {
		if p.TotalLP > s.PeakTotalLP {
			s.PeakTotalLP = p.TotalLP
		}
		if p.GameIndex == 0 {
			continue
		}
		s.Games++
		placementSum += p.Placement
		if p.Placement == 1 {
			s.FirstPlaces++
		}
	}
	if s.Games > 0 {
		s.AveragePlacement = float64(placementSum) / float64(s.Games)
	}
	return s
}
