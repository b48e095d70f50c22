package enrichment

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"gamelib/internal/config"
)

// Pacing controls the delay inserted before each metadata fetch.
type Pacing struct {
	MinDelay    time.Duration
	MaxDelay    time.Duration
	BreakChance float64
	BreakMin    time.Duration
	BreakMax    time.Duration
	Cooldown    time.Duration
}

// PacingFromConfig converts the [enrichment] config section.
func PacingFromConfig(cfg config.Enrichment) Pacing {
	return Pacing{
		MinDelay:    time.Duration(cfg.MinDelayMS) * time.Millisecond,
		MaxDelay:    time.Duration(cfg.MaxDelayMS) * time.Millisecond,
		BreakChance: cfg.BreakChance,
		BreakMin:    time.Duration(cfg.BreakMinMS) * time.Millisecond,
		BreakMax:    time.Duration(cfg.BreakMaxMS) * time.Millisecond,
		Cooldown:    cfg.Cooldown(),
	}
}

// SleepFunc blocks for d or until ctx ends.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// lockedSource serializes access to a rand.Source. Concurrent runs for
// different stores share the pipeline's generator, and *rand.Rand is not safe
// for concurrent use.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func newSharedRand(rng *rand.Rand) *rand.Rand {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}
	return rand.New(&lockedSource{src: rng})
}

type pacer struct {
	pacing Pacing
	rng    *rand.Rand
}

func newPacer(pacing Pacing, rng *rand.Rand) *pacer {
	if rng == nil {
		rng = newSharedRand(nil)
	}
	return &pacer{pacing: pacing, rng: rng}
}

// next picks the delay before the next fetch: usually a short jitter, with
// BreakChance odds of a longer break.
func (p *pacer) next() time.Duration {
	if p.pacing.BreakChance > 0 && p.rng.Float64() < p.pacing.BreakChance {
		return p.between(p.pacing.BreakMin, p.pacing.BreakMax)
	}
	return p.between(p.pacing.MinDelay, p.pacing.MaxDelay)
}

func (p *pacer) between(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.rng.Int64N(int64(hi-lo)+1))
}
