// Package health provides Kubernetes-style liveness and readiness probes.
// Checks run in a single background goroutine at a fixed interval; a check
// must fail consecutively failureThreshold times before it is reported
// unhealthy, which keeps probes from flapping on one-off errors.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc is a health check function. It returns nil when the checked
// component is healthy.
type CheckFunc func(ctx context.Context) error

const (
	failureThreshold = 3
	successThreshold = 1
)

type kind int

const (
	liveness kind = iota
	readiness
)

// check couples a CheckFunc with its threshold state. All fields are
// guarded by Health.mu.
type check struct {
	name    string
	kind    kind
	timeout time.Duration
	fn      CheckFunc

	healthy          bool
	lastErr          error
	consecutiveFails int
	consecutiveOK    int
}

func (c *check) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.fn(checkCtx)
	cancel()

	c.lastErr = err
	if err != nil {
		c.consecutiveOK = 0
		if c.consecutiveFails++; c.consecutiveFails >= failureThreshold {
			c.healthy = false
		}
		return
	}
	c.consecutiveFails = 0
	if c.consecutiveOK++; c.consecutiveOK >= successThreshold {
		c.healthy = true
	}
}

// Health manages liveness and readiness checks for a service.
type Health struct {
	mu     sync.Mutex
	checks []*check
	ready  bool
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Health instance. The service starts not-ready; call
// SetReady(true) once initialization finishes.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check. Liveness answers "is the
// process alive" — goroutine counts, deadlock detection, and the like.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.addCheck(name, liveness, timeout, fn)
}

// AddReadinessCheck registers a readiness check. Readiness answers "can the
// service do work" — database reachability, dependency health.
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.addCheck(name, readiness, timeout, fn)
}

func (h *Health) addCheck(name string, k kind, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, &check{
		name:    name,
		kind:    k,
		timeout: timeout,
		fn:      fn,
		healthy: true, // assume healthy until proven otherwise
	})
}

// SetReady flips the overall readiness gate. Readiness checks only matter
// while the gate is open.
func (h *Health) SetReady(ready bool) {
	h.mu.Lock()
	h.ready = ready
	h.mu.Unlock()
}

// Start launches the background check loop with the given interval. All
// checks also run once immediately.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	h.done = make(chan struct{})
	done := h.done
	h.mu.Unlock()

	go func() {
		defer close(done)
		h.runAll(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.runAll(ctx)
			}
		}
	}()
}

// Stop cancels the check loop and waits for it to exit.
func (h *Health) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (h *Health) runAll(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.checks {
		c.run(ctx)
	}
}

// status snapshots the current state of one probe kind.
func (h *Health) status(k kind) (healthy bool, details map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	healthy = true
	details = make(map[string]string)
	for _, c := range h.checks {
		if c.kind != k {
			continue
		}
		if c.healthy {
			details[c.name] = "ok"
			continue
		}
		healthy = false
		if c.lastErr != nil {
			details[c.name] = c.lastErr.Error()
		} else {
			details[c.name] = "unhealthy"
		}
	}
	if k == readiness && !h.ready {
		healthy = false
		details["ready"] = "not ready"
	}
	return healthy, details
}

// LiveEndpoint is an http.HandlerFunc serving the liveness probe.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	healthy, details := h.status(liveness)
	writeStatus(w, healthy, details)
}

// ReadyEndpoint is an http.HandlerFunc serving the readiness probe.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	healthy, details := h.status(readiness)
	writeStatus(w, healthy, details)
}

func writeStatus(w http.ResponseWriter, healthy bool, details map[string]string) {
	status := "up"
	code := http.StatusOK
	if !healthy {
		status = "down"
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": details,
	})
}
