package cache

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestTier(ttl time.Duration) (*Tier[string], *fakeClock) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	tier := NewTier[string]("test", ttl)
	tier.now = clock.Now
	return tier, clock
}

func TestTier_GetPut(t *testing.T) {
	tier, _ := newTestTier(time.Minute)

	if _, ok := tier.Get("k"); ok {
		t.Fatal("expected miss on empty tier")
	}

	tier.Put("k", "v1")
	got, ok := tier.Get("k")
	if !ok || got != "v1" {
		t.Fatalf("Get = (%q, %v), want (v1, true)", got, ok)
	}

	tier.Put("k", "v2")
	got, _ = tier.Get("k")
	if got != "v2" {
		t.Fatalf("Put did not overwrite: got %q", got)
	}
}

func TestTier_TTLBoundary(t *testing.T) {
	ttl := 5 * time.Minute
	tier, clock := newTestTier(ttl)
	tier.Put("k", "v")

	clock.Advance(ttl - time.Millisecond)
	if _, ok := tier.Get("k"); !ok {
		t.Error("entry at TTL-1ms should be returned")
	}

	clock.Advance(2 * time.Millisecond)
	if _, ok := tier.Get("k"); ok {
		t.Error("entry at TTL+1ms should be treated as absent")
	}

	// Lazy expiry: the entry is still physically present before a sweep.
	if tier.Len() != 1 {
		t.Errorf("expired entry was removed without a sweep, len=%d", tier.Len())
	}
	if _, status := tier.Lookup("k"); status != Expired {
		t.Errorf("Lookup status = %v, want Expired", status)
	}
}

func TestTier_PutResetsClock(t *testing.T) {
	ttl := time.Minute
	tier, clock := newTestTier(ttl)

	tier.Put("k", "v")
	clock.Advance(50 * time.Second)
	tier.Put("k", "v")
	clock.Advance(50 * time.Second)

	if _, ok := tier.Get("k"); !ok {
		t.Error("re-put entry expired on the original clock")
	}
}

func TestTier_Sweep(t *testing.T) {
	ttl := time.Minute
	tier, clock := newTestTier(ttl)

	tier.Put("stale", "v")
	clock.Advance(30 * time.Second)
	tier.Put("fresh", "v")
	clock.Advance(31 * time.Second)

	removed := tier.Sweep(clock.Now())
	if removed != 1 {
		t.Fatalf("Sweep removed %d entries, want 1", removed)
	}
	if tier.Len() != 1 {
		t.Fatalf("len after sweep = %d, want 1", tier.Len())
	}
	if _, status := tier.Lookup("stale"); status != Miss {
		t.Error("swept entry should be a hard miss, not expired")
	}
	if _, ok := tier.Get("fresh"); !ok {
		t.Error("sweep removed a live entry")
	}
}

func TestTier_ConcurrentAccess(t *testing.T) {
	tier := NewTier[int]("concurrent", time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				tier.Put("shared", n*1000+j)
				tier.Get("shared")
				tier.Sweep(time.Now())
			}
		}(i)
	}
	wg.Wait()

	if _, ok := tier.Get("shared"); !ok {
		t.Error("entry lost under concurrent access")
	}
}

func TestSweeper_SweepsAllTiers(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)

	a, clockA := newTestTier(time.Millisecond)
	b := NewTier[int]("b", time.Millisecond)
	a.Put("k", "v")
	b.Put("k", 1)
	clockA.Advance(time.Second)

	sweeper := NewSweeper(5*time.Millisecond, logger, a, b)
	sweeper.Start()
	defer sweeper.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.Len() == 0 && b.Len() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("sweeper did not evict: a=%d b=%d", a.Len(), b.Len())
}
