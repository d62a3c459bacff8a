// Package metrics keeps process counters for the relay in a go-metrics
// registry and reports them periodically through the logger.
package metrics

import (
	"context"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/rs/zerolog"
)

// Counter and gauge names registered outside the core.
const (
	SessionsActive   = "sessions.active"
	SessionsTotal    = "sessions.total"
	SessionsRejected = "sessions.rejected"
	FramesInvalid    = "frames.invalid"
	FramesLimited    = "frames.rate_limited"
	PersistFailed    = "persist.failed"
	PersistWritten   = "persist.written"
	HubSubscribers   = "hub.subscribers"
	HistorySize      = "history.size"
)

// Registry wraps a go-metrics registry. A nil *Registry discards updates.
type Registry struct {
	reg gometrics.Registry
}

// New creates an isolated registry.
func New() *Registry {
	return &Registry{reg: gometrics.NewRegistry()}
}

// Incr adds delta to the named counter.
func (r *Registry) Incr(name string, delta int64) {
	if r == nil {
		return
	}
	gometrics.GetOrRegisterCounter(name, r.reg).Inc(delta)
}

// Decr subtracts delta from the named counter.
func (r *Registry) Decr(name string, delta int64) {
	if r == nil {
		return
	}
	gometrics.GetOrRegisterCounter(name, r.reg).Dec(delta)
}

// Count returns the current value of a counter, zero if unknown.
func (r *Registry) Count(name string) int64 {
	if r == nil {
		return 0
	}
	c, ok := r.reg.Get(name).(gometrics.Counter)
	if !ok {
		return 0
	}
	return c.Count()
}

// Gauge registers a gauge evaluated on every read.
func (r *Registry) Gauge(name string, fn func() int64) {
	if r == nil {
		return
	}
	r.reg.GetOrRegister(name, gometrics.NewFunctionalGauge(fn))
}

// Snapshot returns all metrics in the go-metrics JSON shape.
func (r *Registry) Snapshot() map[string]map[string]interface{} {
	if r == nil {
		return map[string]map[string]interface{}{}
	}
	return r.reg.GetAll()
}

// Report logs a snapshot every interval until ctx is done, then once more.
func (r *Registry) Report(ctx context.Context, interval time.Duration, logger *zerolog.Logger) {
	if r == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info().Interface("metrics", r.Snapshot()).Msg("metrics")
		case <-ctx.Done():
			logger.Info().Interface("metrics", r.Snapshot()).Msg("final metrics")
			return
		}
	}
}
