package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// Maintenance task types.
const (
	TaskTypeSessionSweep     = "session:sweep"
	TaskTypeRateLimitSweep   = "ratelimit:sweep"
	TaskTypeIdempotencySweep = "idempotency:sweep"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// DefaultQueues weights the worker queues.
var DefaultQueues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// SweepTaskTypes lists every maintenance task.
var SweepTaskTypes = []string{TaskTypeSessionSweep, TaskTypeRateLimitSweep, TaskTypeIdempotencySweep}

// SweepPayload carries the scheduling time of a sweep.
type SweepPayload struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// NewSweepTask builds a maintenance task of the given type. Sweeps are cheap
// to repeat, so a failed run is retried once and then left to the next tick.
func NewSweepTask(taskType string, scheduledAt time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(SweepPayload{ScheduledAt: scheduledAt.UTC()})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(taskType, payload, asynq.Queue(QueueLow), asynq.MaxRetry(1)), nil
}

var timeNow = time.Now
