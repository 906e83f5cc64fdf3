package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
)

// HealthChecker exposes liveness and readiness probes.
type HealthChecker interface {
	Liveness(ctx context.Context) error
	Readiness(ctx context.Context) error
}

// DependencyChecker reports the status of every dependency by name, "OK" when healthy.
type DependencyChecker interface {
	Check(ctx context.Context) map[string]string
}

// ErrShuttingDown is reported by Readiness once draining has begun.
var ErrShuttingDown = errors.New("service is shutting down")

// Probes implements HealthChecker on top of a dependency checker.
type Probes struct {
	log      *slog.Logger
	deps     DependencyChecker
	draining atomic.Bool
}

// NewProbes creates a new Probes instance. A nil checker makes Readiness
// depend only on the draining flag.
func NewProbes(log *slog.Logger, deps DependencyChecker) *Probes {
	if log == nil {
		log = slog.Default()
	}
	return &Probes{log: log, deps: deps}
}

// Liveness reports success while the process is able to serve requests.
func (p *Probes) Liveness(ctx context.Context) error {
	p.log.Debug("liveness probe called")
	return nil
}

// Readiness fails while draining or when any dependency is unhealthy.
func (p *Probes) Readiness(ctx context.Context) error {
	if p.draining.Load() {
		return ErrShuttingDown
	}
	if p.deps == nil {
		return nil
	}

	var failed []string
	for name, status := range p.deps.Check(ctx) {
		if status != "OK" {
			failed = append(failed, fmt.Sprintf("%s: %s", name, status))
		}
	}
	if len(failed) == 0 {
		return nil
	}

	sort.Strings(failed)
	p.log.Debug("readiness probe failed", slog.Any("failed", failed))
	return errors.New(strings.Join(failed, "; "))
}

// Drain marks the service as not ready so load balancers stop routing to it.
func (p *Probes) Drain() {
	p.draining.Store(true)
}
