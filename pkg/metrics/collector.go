// Package metrics exposes the Prometheus collectors of the calculator bot.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	apperrors "github.com/Proton-105/calc-bot/internal/errors"
	"github.com/Proton-105/calc-bot/internal/state"
)

const (
	namespace              = "calc"
	defaultCollectInterval = 10 * time.Second
	unknownLabel           = "unknown"
)

var (
	botCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bot_commands_total",
		Help:      "Telegram updates handled, by command and status.",
	}, []string{"command", "status"})

	commandDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "command_duration_seconds",
		Help:      "Time spent handling an update, by command.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"command"})

	stateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "state_transitions_total",
		Help:      "Calculator mode changes.",
	}, []string{"from", "to"})

	calculationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calculations_total",
		Help:      "Evaluated operations, by operation and outcome.",
	}, []string{"operation", "outcome"})

	domainErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "domain_errors_total",
		Help:      "Calculation errors shown on the display, by kind.",
	}, []string{"kind"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Application errors, by code and severity.",
	}, []string{"type", "severity"})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Stored calculator sessions.",
	})

	sessionsByState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_by_state",
		Help:      "Stored calculator sessions, by mode.",
	}, []string{"state"})
)

func init() {
	state.RegisterTransitionRecorder(RecordStateTransition)
}

// label replaces an empty label value.
func label(v string) string {
	if v == "" {
		return unknownLabel
	}
	return v
}

// RecordCommand counts a handled update and observes its duration.
func RecordCommand(command, status string, duration time.Duration) {
	command = label(command)
	botCommandsTotal.WithLabelValues(command, label(status)).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordStateTransition counts a calculator mode change.
func RecordStateTransition(from, to string) {
	stateTransitionsTotal.WithLabelValues(label(from), label(to)).Inc()
}

// RecordCalculation counts an operation and whether it succeeded.
func RecordCalculation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	calculationsTotal.WithLabelValues(label(operation), outcome).Inc()
}

// RecordDomainError counts a calculation error by kind.
func RecordDomainError(kind string) {
	domainErrorsTotal.WithLabelValues(label(kind)).Inc()
}

// RecordError counts an application error.
func RecordError(errType, severity string) {
	errorsTotal.WithLabelValues(label(errType), label(severity)).Inc()
}

// ErrorRecorder adapts RecordError to the error handler hook.
func ErrorRecorder() apperrors.Recorder {
	return func(code string, severity apperrors.Severity) {
		RecordError(code, string(severity))
	}
}

// SetActiveSessions updates the gauge for stored sessions.
func SetActiveSessions(count int) {
	activeSessions.Set(float64(count))
}

// SetSessionsByState updates the gauge for the given state.
func SetSessionsByState(state string, count int) {
	sessionsByState.WithLabelValues(label(state)).Set(float64(count))
}

// SessionLister is the part of the state machine the collector needs.
type SessionLister interface {
	ListSessions(ctx context.Context) ([]*state.Session, error)
}

// SessionCollector periodically gathers session counts and emits gauge metrics.
type SessionCollector struct {
	sessions SessionLister
	interval time.Duration
}

// NewSessionCollector builds a metrics collector bound to the provided lister.
func NewSessionCollector(sessions SessionLister, interval time.Duration) *SessionCollector {
	if interval <= 0 {
		interval = defaultCollectInterval
	}

	return &SessionCollector{sessions: sessions, interval: interval}
}

// Run polls the sessions every interval, updating gauges until ctx is cancelled.
func (c *SessionCollector) Run(ctx context.Context) {
	if c == nil || c.sessions == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		_ = c.Collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Collect refreshes the session gauges once.
func (c *SessionCollector) Collect(ctx context.Context) error {
	sessions, err := c.sessions.ListSessions(ctx)
	if err != nil {
		return err
	}

	SetActiveSessions(len(sessions))

	counts := make(map[string]int, len(state.States))
	for _, tracked := range state.States {
		counts[string(tracked)] = 0
	}
	for _, session := range sessions {
		mode := unknownLabel
		if session != nil {
			mode = string(session.CurrentState())
		}
		counts[mode]++
	}

	sessionsByState.Reset()
	for mode, count := range counts {
		SetSessionsByState(mode, count)
	}

	return nil
}
