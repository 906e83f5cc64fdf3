package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Worker processes maintenance tasks pulled from the asynq queues.
type Worker interface {
	RegisterHandler(taskType string, handler asynq.Handler)
	Run() error
	Shutdown()
}

type worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *slog.Logger
}

var _ Worker = (*worker)(nil)

// NewWorker builds a Worker consuming queues with the given concurrency.
// Missing values fall back to DefaultQueues and a single goroutine.
func NewWorker(redisOpt asynq.RedisConnOpt, queues map[string]int, concurrency int, log *slog.Logger) Worker {
	if log == nil {
		log = slog.Default()
	}
	if len(queues) == 0 {
		queues = DefaultQueues
	}

	w := &worker{mux: asynq.NewServeMux(), log: log.With(slog.String("component", "jobs_worker"))}
	w.server = asynq.NewServer(redisOpt, asynq.Config{
		Queues:       queues,
		Concurrency:  max(concurrency, 1),
		ErrorHandler: asynq.ErrorHandlerFunc(w.taskFailed),
	})

	return w
}

func (w *worker) taskFailed(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	w.log.ErrorContext(ctx, "task failed",
		slog.String("task_type", task.Type()),
		slog.Int("retried", retried),
		slog.Any("error", err),
	)
}

// RegisterHandler routes taskType to handler.
func (w *worker) RegisterHandler(taskType string, handler asynq.Handler) {
	w.mux.Handle(taskType, handler)
}

// Run blocks processing tasks until Shutdown.
func (w *worker) Run() error {
	w.log.Info("processing tasks")
	return w.server.Run(w.mux)
}

// Shutdown waits for in-flight tasks and stops the server.
func (w *worker) Shutdown() {
	w.log.Info("stopping")
	w.server.Shutdown()
}
