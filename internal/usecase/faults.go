package usecase

import (
	"context"
	"time"

	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/internal/interfaces"
)

// FaultInjector turns a session's behavior into concrete effects.
type FaultInjector struct {
	effects map[domain.Behavior]domain.ProfileEffects
	rnd     interfaces.RandomSource
	sleeper interfaces.Sleeper
}

func NewFaultInjector(effects map[domain.Behavior]domain.ProfileEffects, rnd interfaces.RandomSource, sleeper interfaces.Sleeper) *FaultInjector {
	return &FaultInjector{effects: effects, rnd: rnd, sleeper: sleeper}
}

func (f *FaultInjector) Effects(b domain.Behavior) domain.ProfileEffects {
	return f.effects[b]
}

// Delay blocks the caller for the behavior's latency, or until ctx is done.
func (f *FaultInjector) Delay(ctx context.Context, b domain.Behavior) error {
	d := f.effects[b].Latency
	if d <= 0 {
		return nil
	}
	return f.sleeper.Sleep(ctx, d)
}

// ShouldFail samples the behavior's failure rate.
func (f *FaultInjector) ShouldFail(b domain.Behavior) bool {
	rate := f.effects[b].FailureRate
	if rate <= 0 {
		return false
	}
	return f.rnd.Float64() < rate
}

func (f *FaultInjector) CatalogPatch(b domain.Behavior) []byte {
	return f.effects[b].CatalogPatch
}

// Override replaces the effects of one behavior. Used by configuration
// overrides at startup; not safe once requests are being served.
func (f *FaultInjector) Override(b domain.Behavior, latency *time.Duration, failureRate *float64) {
	e := f.effects[b]
	if latency != nil {
		e.Latency = *latency
	}
	if failureRate != nil {
		e.FailureRate = *failureRate
	}
	f.effects[b] = e
}
