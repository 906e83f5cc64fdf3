// Package lifecycle coordinates probes and graceful shutdown of the bot process.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Hook is a named step of the shutdown sequence.
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Shutdown stops the registered components concurrently once the process is
// asked to exit.
type Shutdown struct {
	mu    sync.Mutex
	hooks []Hook
	log   *slog.Logger
}

// NewShutdown constructs a Shutdown with no hooks.
func NewShutdown(log *slog.Logger) *Shutdown {
	if log == nil {
		log = slog.Default()
	}

	return &Shutdown{log: log}
}

// Register adds fn under name. A nil fn is ignored.
func (s *Shutdown) Register(name string, fn func(context.Context) error) {
	if fn == nil {
		return
	}

	s.mu.Lock()
	s.hooks = append(s.hooks, Hook{Name: name, Fn: fn})
	s.mu.Unlock()
}

// Execute runs every hook in its own goroutine and waits for all of them.
// Failures are joined in registration order.
func (s *Shutdown) Execute(ctx context.Context) error {
	s.mu.Lock()
	hooks := make([]Hook, len(s.hooks))
	copy(hooks, s.hooks)
	s.mu.Unlock()

	started := time.Now()
	s.log.Info("stopping components", slog.Int("hooks", len(hooks)))

	results := make([]error, len(hooks))
	var wg sync.WaitGroup
	wg.Add(len(hooks))
	for i := range hooks {
		go func(i int) {
			defer wg.Done()
			results[i] = s.run(ctx, hooks[i])
		}(i)
	}
	wg.Wait()

	s.log.Info("components stopped", slog.Duration("elapsed", time.Since(started)))

	return errors.Join(results...)
}

func (s *Shutdown) run(ctx context.Context, hook Hook) error {
	log := s.log.With(slog.String("hook", hook.Name))

	started := time.Now()
	if err := hook.Fn(ctx); err != nil {
		log.Error("shutdown hook failed", slog.Any("error", err))
		return fmt.Errorf("%s: %w", hook.Name, err)
	}
	log.Info("shutdown hook done", slog.Duration("elapsed", time.Since(started)))

	return nil
}
