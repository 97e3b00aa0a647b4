package render

import (
	"testing"

	"lp-tracker/internal/domain"
	"lp-tracker/internal/rank"

	"github.com/goccy/go-json"
)

func tp(index, total, placement int) domain.TimelinePoint {
	return domain.TimelinePoint{
		GameIndex: index,
		TotalLP:   total,
		Rank:      rank.FromTotal(total),
		Placement: placement,
	}
}

func TestBuildSummary(t *testing.T) {
	points := []domain.TimelinePoint{
		tp(0, 1435, 0),
		tp(1, 1475, 1),
		tp(2, 1460, 3),
		tp(3, 1500, 1),
	}

	s := BuildSummary(points)
	if s.Games != 3 {
		t.Errorf("Games = %d, want 3", s.Games)
	}
	if s.NetLP != 65 {
		t.Errorf("NetLP = %d, want 65", s.NetLP)
	}
	if s.PeakTotalLP != 1500 {
		t.Errorf("PeakTotalLP = %d, want 1500", s.PeakTotalLP)
	}
	if s.FirstPlaces != 2 {
		t.Errorf("FirstPlaces = %d, want 2", s.FirstPlaces)
	}
	if s.AveragePlacement < 1.66 || s.AveragePlacement > 1.67 {
		t.Errorf("AveragePlacement = %f, want 5/3", s.AveragePlacement)
	}
	if s.StartRank != "SILVER I" {
		t.Errorf("StartRank = %q, want SILVER I", s.StartRank)
	}
}

func TestBuildSummary_Empty(t *testing.T) {
	if s := BuildSummary(nil); s != (Summary{}) {
		t.Errorf("empty timeline should yield zero summary, got %+v", s)
	}
}

func TestJSONRenderer(t *testing.T) {
	frame := Frame{
		Player:   domain.Player{PUUID: "p", Name: "n", Tag: "t"},
		Timeline: []domain.TimelinePoint{tp(0, 1435, 0), tp(1, 1450, 2)},
	}
	frame.Summary = BuildSummary(frame.Timeline)

	artifact, err := NewJSONRenderer().Render(frame)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var decoded Frame
	if err := json.Unmarshal(artifact, &decoded); err != nil {
		t.Fatalf("artifact is not valid JSON: %v", err)
	}
	if len(decoded.Timeline) != 2 || decoded.Player.PUUID != "p" {
		t.Errorf("artifact lost data: %+v", decoded)
	}
}
