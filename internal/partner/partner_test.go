package partner

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"lp-tracker/internal/cache"
	"lp-tracker/internal/domain"
	"lp-tracker/internal/riot"

	"github.com/rs/zerolog"
)

func TestPairedPlacements(t *testing.T) {
	wants := map[int]int{1: 1, 2: 1, 3: 2, 4: 2, 5: 3, 6: 3, 7: 4, 8: 4}
	for raw, want := range wants {
		if got := PairedPlacements(raw); got != want {
			t.Errorf("PairedPlacements(%d) = %d, want %d", raw, got, want)
		}
	}
}

func TestFind(t *testing.T) {
	participants := []Participant{
		{ID: "a", RawPlacement: 1},
		{ID: "b", RawPlacement: 2},
		{ID: "c", RawPlacement: 3},
		{ID: "d", RawPlacement: 4},
	}

	partnerID, teamUnit, raw, ok := Find(participants, "a", PairedPlacements)
	if !ok || partnerID != "b" || teamUnit != 1 || raw != 1 {
		t.Errorf("Find(a) = (%s, %d, %d, %v), want (b, 1, 1, true)", partnerID, teamUnit, raw, ok)
	}

	partnerID, teamUnit, _, ok = Find(participants, "d", PairedPlacements)
	if !ok || partnerID != "c" || teamUnit != 2 {
		t.Errorf("Find(d) = (%s, %d, _, %v), want (c, 2, true)", partnerID, teamUnit, ok)
	}

	if _, _, _, ok := Find(participants, "nobody", PairedPlacements); ok {
		t.Error("Find should miss for an absent player")
	}

	// A solo player under an exact-equality partition has no partner.
	exact := func(raw int) int { return raw }
	if partnerID, _, _, ok := Find(participants, "a", exact); ok {
		t.Errorf("exact partition should yield no partner, got %s", partnerID)
	}
}

// fakeAPI counts upstream identity fetches.
type fakeAPI struct {
	mu       sync.Mutex
	calls    map[string]int
	failIDs  map[string]bool
	slowDown time.Duration
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: make(map[string]int), failIDs: make(map[string]bool)}
}

func (f *fakeAPI) AccountByPUUID(_ context.Context, puuid string) (*riot.Account, error) {
	f.mu.Lock()
	f.calls[puuid]++
	fail := f.failIDs[puuid]
	f.mu.Unlock()

	if f.slowDown > 0 {
		time.Sleep(f.slowDown)
	}
	if fail {
		return nil, errors.New("upstream 500")
	}
	return &riot.Account{PUUID: puuid, GameName: "player-" + puuid, TagLine: "TAG"}, nil
}

func (f *fakeAPI) Summoner(_ context.Context, _ string) (*riot.Summoner, error) {
	return &riot.Summoner{ProfileIconID: 77, SummonerLevel: 120}, nil
}

func (f *fakeAPI) callCount(puuid string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[puuid]
}

func newResolver(api AccountAPI) *Resolver {
	tier := cache.NewTier[domain.Player]("identity", time.Minute)
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	return NewResolver(api, tier, logger)
}

func point(index int, partnerID string) domain.TimelinePoint {
	return domain.TimelinePoint{GameIndex: index, PartnerID: partnerID}
}

func TestAggregate_CountsAndSingleFetch(t *testing.T) {
	api := newFakeAPI()
	r := newResolver(api)

	points := []domain.TimelinePoint{
		point(0, ""), // synthetic start never counts
		point(1, "x"),
		point(2, "y"),
		point(3, "x"),
	}

	aggs := r.Aggregate(context.Background(), points)
	if len(aggs) != 2 {
		t.Fatalf("expected 2 aggregates, got %d", len(aggs))
	}

	if aggs[0].PartnerID != "x" || aggs[0].GameCount != 2 {
		t.Errorf("first aggregate = %+v, want x with 2 games", aggs[0])
	}
	if aggs[1].PartnerID != "y" || aggs[1].GameCount != 1 {
		t.Errorf("second aggregate = %+v, want y with 1 game", aggs[1])
	}
	if aggs[0].DisplayName != "player-x#TAG" {
		t.Errorf("display name = %q", aggs[0].DisplayName)
	}

	if api.callCount("x") != 1 {
		t.Errorf("identity for x fetched %d times, want 1", api.callCount("x"))
	}
}

func TestAggregate_FailedIdentityDegrades(t *testing.T) {
	api := newFakeAPI()
	api.failIDs["x"] = true
	r := newResolver(api)

	aggs := r.Aggregate(context.Background(), []domain.TimelinePoint{point(1, "x")})
	if len(aggs) != 1 {
		t.Fatalf("expected 1 aggregate, got %d", len(aggs))
	}
	if aggs[0].PartnerID != "x" || aggs[0].DisplayName != "" || aggs[0].GameCount != 1 {
		t.Errorf("failed identity should aggregate by id only: %+v", aggs[0])
	}
}

func TestResolve_ConcurrentDeduplicated(t *testing.T) {
	api := newFakeAPI()
	api.slowDown = 20 * time.Millisecond
	r := newResolver(api)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Resolve(context.Background(), "shared"); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d concurrent resolves failed", failures.Load())
	}
	if got := api.callCount("shared"); got != 1 {
		t.Errorf("concurrent resolves issued %d upstream calls, want 1", got)
	}
}
