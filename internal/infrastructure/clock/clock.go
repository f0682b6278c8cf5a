// Package clock provides the time, randomness and delay collaborators.
package clock

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// System reads the wall clock in UTC.
type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Fixed always returns T. Useful in tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

// Rand is a concurrency-safe uniform source. A zero seed draws from the
// runtime's global generator.
type Rand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewRand(seed uint64) *Rand {
	if seed == 0 {
		return &Rand{}
	}
	return &Rand{rnd: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (r *Rand) Float64() float64 {
	if r.rnd == nil {
		return rand.Float64()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Float64()
}

// TimerSleeper waits on a per-call timer, so only the calling goroutine is suspended.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
