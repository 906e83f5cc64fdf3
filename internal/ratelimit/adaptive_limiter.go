package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	backendRedis    = "redis"
	backendFallback = "fallback"
)

var (
	checksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "calc_ratelimit_checks_total",
		Help: "Rate limit checks by backend and outcome.",
	}, []string{"backend", "result"})

	primaryErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "calc_ratelimit_primary_errors_total",
		Help: "Checks the primary backend could not answer.",
	})

	degraded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "calc_ratelimit_degraded",
		Help: "1 while the last check was served by the in-memory fallback.",
	})
)

func init() {
	prometheus.MustRegister(checksTotal, primaryErrorsTotal, degraded)
}

// AdaptiveLimiter serves checks from the shared Redis limiter and switches to
// the in-process fallback while Redis is failing. Fallback counters are per
// replica, so the fallback budget is half of the configured limit.
type AdaptiveLimiter struct {
	primary  Limiter
	fallback Limiter
	log      *slog.Logger
}

var _ Limiter = (*AdaptiveLimiter)(nil)

// NewAdaptiveLimiter combines a primary and a fallback limiter. The fallback may be nil.
func NewAdaptiveLimiter(primary, fallback Limiter, log *slog.Logger) *AdaptiveLimiter {
	if log == nil {
		log = slog.Default()
	}

	return &AdaptiveLimiter{primary: primary, fallback: fallback, log: log}
}

// Check reports ErrLimitExceeded together with the result when the key is over budget.
func (a *AdaptiveLimiter) Check(ctx context.Context, key string, limit int, window time.Duration) (*Result, error) {
	result, err := a.primary.Check(ctx, key, limit, window)
	if err == nil || result != nil {
		degraded.Set(0)
		return verdict(backendRedis, result)
	}

	primaryErrorsTotal.Inc()
	if a.fallback == nil {
		return nil, err
	}

	degraded.Set(1)
	a.log.Warn("rate limiter degraded to in-memory fallback", "key", key, "error", err)

	result, err = a.fallback.Check(ctx, key, fallbackLimit(limit), window)
	if result == nil {
		return nil, err
	}
	return verdict(backendFallback, result)
}

func fallbackLimit(limit int) int {
	if half := limit / 2; half > 0 {
		return half
	}
	return 1
}

func verdict(backend string, result *Result) (*Result, error) {
	if result.Allowed {
		checksTotal.WithLabelValues(backend, "allowed").Inc()
		return result, nil
	}

	checksTotal.WithLabelValues(backend, "rejected").Inc()
	return result, ErrLimitExceeded
}
