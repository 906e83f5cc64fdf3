// Package handlers processes the maintenance tasks.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Proton-105/calc-bot/internal/jobs"
)

// Sweeper removes stale entries and reports how many were removed.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// SweepHandler runs a Sweeper for a maintenance task.
type SweepHandler struct {
	name    string
	sweeper Sweeper
	timeout time.Duration
	log     *slog.Logger
}

// NewSweepHandler returns a handler running sweeper under a timeout.
func NewSweepHandler(name string, sweeper Sweeper, timeout time.Duration, log *slog.Logger) *SweepHandler {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}

	return &SweepHandler{name: name, sweeper: sweeper, timeout: timeout, log: log}
}

func (h *SweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.SweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			h.log.ErrorContext(ctx, "sweep: failed to decode payload", slog.String("task_type", t.Type()), slog.String("error", err.Error()))
			return fmt.Errorf("decode %s payload: %v: %w", t.Type(), err, asynq.SkipRetry)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	removed, err := h.sweeper.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("%s sweep: %w", h.name, err)
	}

	h.log.InfoContext(ctx, "sweep finished",
		slog.String("task_type", t.Type()),
		slog.String("sweeper", h.name),
		slog.Int("removed", removed),
		slog.Duration("duration", time.Since(start)),
	)

	return nil
}
