package cache

import (
	"time"

	"github.com/rs/zerolog"
)

// Sweepable is implemented by every Tier regardless of value type.
type Sweepable interface {
	Name() string
	Sweep(now time.Time) int
}

// Sweeper owns the periodic eviction pass over all registered tiers. It
// is started and stopped explicitly by the process lifecycle; there is no
// ambient timer.
type Sweeper struct {
	interval time.Duration
	tiers    []Sweepable
	logger   zerolog.Logger
	done     chan struct{}
	stopped  chan struct{}
}

func NewSweeper(interval time.Duration, logger zerolog.Logger, tiers ...Sweepable) *Sweeper {
	return &Sweeper{
		interval: interval,
		tiers:    tiers,
		logger:   logger,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

// Start launches the sweep loop. The interval is fixed and independent of
// read/write traffic.
func (s *Sweeper) Start() {
	go func() {
		defer close(s.stopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info().Dur("interval", s.interval).Int("tiers", len(s.tiers)).Msg("cache sweeper started")

		for {
			select {
			case now := <-ticker.C:
				s.sweepAll(now)
			case <-s.done:
				return
			}
		}
	}()
}

// Stop terminates the loop and waits for it to exit.
func (s *Sweeper) Stop() {
	close(s.done)
	<-s.stopped
	s.logger.Info().Msg("cache sweeper stopped")
}

func (s *Sweeper) sweepAll(now time.Time) {
	for _, tier := range s.tiers {
		if removed := tier.Sweep(now); removed > 0 {
			s.logger.Debug().
				Str("tier", tier.Name()).
				Int("removed", removed).
				Msg("swept expired cache entries")
		}
	}
}
