// Package health serves Kubernetes style /livez and /readyz probes.
//
// Every check runs on its own ticker. A check flips to unhealthy after
// FailureThreshold consecutive failures and back after SuccessThreshold
// consecutive successes, so a single slow ping does not take the pod out of
// rotation.
package health

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// CheckFunc reports the health of one dependency.
type CheckFunc func(ctx context.Context) error

// Option configures Health.
type Option func(*Health)

// WithLogger logs check state transitions to lg.
func WithLogger(lg *zap.Logger) Option {
	return func(h *Health) { h.lg = lg }
}

// WithThresholds overrides the default 3 failures / 1 success thresholds.
func WithThresholds(failure, success int) Option {
	return func(h *Health) {
		h.failureThreshold = max(failure, 1)
		h.successThreshold = max(success, 1)
	}
}

// check is a registered CheckFunc. run is only called from the check's own
// goroutine, so the streak counters need no locking.
type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc

	failureThreshold int
	successThreshold int
	fails, oks       int

	healthy atomic.Bool
	lastErr atomic.Pointer[error]
}

func (c *check) isHealthy() bool {
	return c.healthy.Load()
}

func (c *check) lastError() error {
	if p := c.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

// run executes the check once. It returns true when the health state flipped.
func (c *check) run(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.fn(ctx)
	c.lastErr.Store(&err)

	was := c.healthy.Load()
	if err != nil {
		c.oks = 0
		c.fails++
		if c.fails >= c.failureThreshold {
			c.healthy.Store(false)
		}
	} else {
		c.fails = 0
		c.oks++
		if c.oks >= c.successThreshold {
			c.healthy.Store(true)
		}
	}
	return was != c.healthy.Load()
}

// Health aggregates liveness and readiness checks.
type Health struct {
	lg               *zap.Logger
	failureThreshold int
	successThreshold int

	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []*check
	readiness []*check
	cancel    context.CancelFunc
}

// New returns a Health that is not ready until SetReady(true).
func New(opts ...Option) *Health {
	h := &Health{
		lg:               zap.NewNop(),
		failureThreshold: 3,
		successThreshold: 1,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *Health) newCheck(name string, timeout time.Duration, fn CheckFunc) *check {
	c := &check{
		name:             name,
		timeout:          timeout,
		fn:               fn,
		failureThreshold: h.failureThreshold,
		successThreshold: h.successThreshold,
	}
	c.healthy.Store(true)
	return c
}

// AddLivenessCheck registers a check that restarts the process when failing.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, h.newCheck(name, timeout, fn))
}

// AddReadinessCheck registers a check that stops traffic when failing.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, h.newCheck(name, timeout, fn))
}

// Start runs every registered check now and then every interval until Stop
// or ctx cancellation. Register checks before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	checks := slices.Concat(h.liveness, h.readiness)
	h.mu.Unlock()

	for _, c := range checks {
		go h.loop(ctx, c, interval)
	}
}

func (h *Health) loop(ctx context.Context, c *check, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if c.run(ctx) {
			if c.isHealthy() {
				h.lg.Info("Check recovered", zap.String("check", c.name))
			} else {
				h.lg.Warn("Check failing", zap.String("check", c.name), zap.Error(c.lastError()))
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Stop halts the check goroutines. It may be called more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady toggles the manual readiness gate. The server sets it after
// startup and clears it at the start of a graceful shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness check passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.readiness {
		if !c.isHealthy() {
			return false
		}
	}
	return true
}

// LiveEndpoint serves /livez.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := slices.Clone(h.liveness)
	h.mu.RUnlock()

	writeReport(w, checks, "")
}

// ReadyEndpoint serves /readyz.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	checks := slices.Clone(h.readiness)
	h.mu.RUnlock()

	gate := ""
	if !h.ready.Load() {
		gate = "service is not ready"
	}
	writeReport(w, checks, gate)
}

// writeReport responds 200 {"status":"ok","checks":{...}} when everything
// passes and 503 with "unhealthy" otherwise. Each check maps to "ok" or its
// last error. A non-empty gate is reported as the "_readiness" check.
func writeReport(w http.ResponseWriter, checks []*check, gate string) {
	healthy := gate == ""
	for _, c := range checks {
		healthy = healthy && c.isHealthy()
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("status")
	if healthy {
		e.Str("ok")
	} else {
		e.Str("unhealthy")
	}
	e.FieldStart("checks")
	e.ObjStart()
	if gate != "" {
		e.FieldStart("_readiness")
		e.Str(gate)
	}
	for _, c := range checks {
		e.FieldStart(c.name)
		switch err := c.lastError(); {
		case c.isHealthy():
			e.Str("ok")
		case err != nil:
			e.Str(err.Error())
		default:
			e.Str("check is unhealthy")
		}
	}
	e.ObjEnd()
	e.ObjEnd()

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
