package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

// Schedule runs a task type every Interval. A non-positive interval disables it.
type Schedule struct {
	TaskType string
	Interval time.Duration
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	schedules      []Schedule
	log            *slog.Logger
}

func NewScheduler(redisOpt asynq.RedisConnOpt, schedules []Schedule, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		schedules:      schedules,
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	for _, schedule := range s.schedules {
		spec, ok := CronSpec(schedule.Interval)
		if !ok {
			s.log.Info("scheduler: task disabled", slog.String("task_type", schedule.TaskType))
			continue
		}

		task, err := NewSweepTask(schedule.TaskType, time.Now())
		if err != nil {
			return err
		}

		if _, err := s.asynqScheduler.Register(spec, task); err != nil {
			return fmt.Errorf("register %s: %w", schedule.TaskType, err)
		}

		s.log.InfoContext(context.Background(), "scheduler: registered task",
			slog.String("task_type", schedule.TaskType),
			slog.String("spec", spec),
		)
	}

	return nil
}

// CronSpec returns the asynq "@every" spec for interval.
func CronSpec(interval time.Duration) (string, bool) {
	if interval <= 0 {
		return "", false
	}
	if interval < time.Second {
		interval = time.Second
	}
	return "@every " + interval.Truncate(time.Second).String(), true
}

func (s *scheduler) Run() {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	go func() {
		if err := s.asynqScheduler.Run(); err != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")

	s.asynqScheduler.Shutdown()
}
