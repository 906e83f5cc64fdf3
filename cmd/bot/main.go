package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	goredis "github.com/redis/go-redis/v9"

	"github.com/Proton-105/calc-bot/internal/bot"
	"github.com/Proton-105/calc-bot/internal/calculator"
	"github.com/Proton-105/calc-bot/internal/database"
	apperrors "github.com/Proton-105/calc-bot/internal/errors"
	"github.com/Proton-105/calc-bot/internal/health"
	"github.com/Proton-105/calc-bot/internal/i18n"
	"github.com/Proton-105/calc-bot/internal/idempotency"
	"github.com/Proton-105/calc-bot/internal/jobs"
	jobhandlers "github.com/Proton-105/calc-bot/internal/jobs/handlers"
	"github.com/Proton-105/calc-bot/internal/lifecycle"
	"github.com/Proton-105/calc-bot/internal/middleware"
	"github.com/Proton-105/calc-bot/internal/ratelimit"
	"github.com/Proton-105/calc-bot/internal/repository"
	"github.com/Proton-105/calc-bot/internal/state"
	"github.com/Proton-105/calc-bot/internal/user"
	"github.com/Proton-105/calc-bot/internal/usercache"
	"github.com/Proton-105/calc-bot/pkg/config"
	"github.com/Proton-105/calc-bot/pkg/graceful"
	"github.com/Proton-105/calc-bot/pkg/logger"
	"github.com/Proton-105/calc-bot/pkg/metrics"
	"github.com/Proton-105/calc-bot/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "calc-bot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, v, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Sentry.Enabled {
		environment := cfg.Sentry.Environment
		if environment == "" {
			environment = cfg.AppEnv
		}
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      environment,
			TracesSampleRate: cfg.Sentry.TracesSampleRate,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	log := logger.New(*cfg)
	slog.SetDefault(log)
	log.Info("starting calculator bot", "env", cfg.AppEnv, "mode", cfg.Bot.Mode, "http_port", cfg.Server.Port)

	config.Watch(v, log, func(level string) {
		if err := logger.SetLevel(level); err != nil {
			log.Warn("ignoring log level from reloaded config", "level", level, "error", err)
		}
	})

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			log.Error("error closing database", "error", cerr)
		}
	}()

	if err := database.NewMigrator(db, log).ApplyDir(ctx, cfg.Database.MigrationsDir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	log.Info("database migrations applied")

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := redisClient.Close(); cerr != nil {
			log.Error("error closing redis", "error", cerr)
		}
	}()
	rdb := redisClient.Raw()

	translations, err := i18n.Load()
	if err != nil {
		return fmt.Errorf("load translations: %w", err)
	}
	translator := translations.Translator(i18n.DefaultLang)

	storage := state.NewRedisStorage(rdb, cfg.Session.TTL, log)
	fsm := state.NewStateMachine(storage, log, rdb,
		state.WithLockTTL(cfg.Session.LockTimeout),
		state.WithCalculatorOptions(calculator.WithTimeLayout(cfg.Session.TimeLayout)),
	)

	var idempotencyManager idempotency.Manager
	if cfg.Idempotency.Enabled {
		idempotencyManager = idempotency.NewManager(idempotency.NewRedisStore(rdb, log), log)
	}

	memoryLimiter := ratelimit.NewMemoryLimiter(log)
	limiter := ratelimit.NewAdaptiveLimiter(ratelimit.NewRedisLimiter(rdb, log), memoryLimiter, log)
	rateLimitMw := middleware.NewRateLimitMiddleware(limiter, ratelimit.NewRules(cfg.RateLimit), translator, log)

	errHandler := apperrors.NewHandler(log, cfg.Sentry.Enabled, apperrors.WithRecorder(metrics.ErrorRecorder()))

	userService := user.NewService(repository.NewUserRepository(db, log), usercache.NewCache(rdb), log)

	calcBot, err := bot.New(*cfg, log, fsm, idempotencyManager, rateLimitMw, userService, translator, errHandler)
	if err != nil {
		return err
	}

	checker := health.NewChecker(log, 0)
	checker.AddCheck("postgres", health.NewDBChecker(db))
	checker.AddCheck("redis", health.NewRedisChecker(rdb))
	checker.AddCheck("telegram", health.NewTelegramChecker(calcBot.Telebot()))
	probes := lifecycle.NewProbes(log, checker)

	httpServer := graceful.NewServer(log, &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      logger.Middleware(middleware.New(log)(graceful.Routes(probes))),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, cfg.Server.ShutdownTimeout)

	serveCtx, cancelServe := context.WithCancel(context.Background())
	defer cancelServe()

	httpDone := make(chan error, 1)
	go func() { httpDone <- httpServer.ListenAndServe(serveCtx) }()

	go metrics.NewSessionCollector(fsm, 0).Run(serveCtx)

	shutdown := lifecycle.NewShutdown(log)
	shutdown.Register("telegram", func(context.Context) error {
		calcBot.Stop()
		return nil
	})
	shutdown.Register("http", func(ctx context.Context) error {
		cancelServe()
		select {
		case err := <-httpDone:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	if cfg.Jobs.Enabled {
		if err := startJobs(ctx, cfg, rdb, storage, memoryLimiter, shutdown, log); err != nil {
			return err
		}
	}

	go calcBot.Start()
	log.Info("calculator bot started")

	<-ctx.Done()
	log.Info("shutdown signal received")
	probes.Drain()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := shutdown.Execute(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("shutdown completed with errors", "error", err)
	}
	log.Info("calculator bot stopped")

	return nil
}

// startJobs runs the asynq worker and scheduler driving the maintenance sweeps.
func startJobs(
	ctx context.Context,
	cfg *config.Config,
	rdb *goredis.Client,
	storage state.Storage,
	memoryLimiter *ratelimit.MemoryLimiter,
	shutdown *lifecycle.Shutdown,
	log *slog.Logger,
) error {
	redisOpt := cfg.Redis.AsynqOpt()

	worker := jobs.NewWorker(redisOpt, jobs.DefaultQueues, cfg.Jobs.Concurrency, log)
	worker.RegisterHandler(jobs.TaskTypeSessionSweep, jobhandlers.NewSweepHandler(
		"sessions", state.NewCleaner(storage, log, cfg.Session.TTL, 0), 0, log))
	worker.RegisterHandler(jobs.TaskTypeRateLimitSweep, jobhandlers.NewSweepHandler(
		"rate limits", ratelimit.NewCleaner(rdb, memoryLimiter, log, 0), 0, log))
	worker.RegisterHandler(jobs.TaskTypeIdempotencySweep, jobhandlers.NewSweepHandler(
		"idempotency", idempotency.NewCleaner(rdb, log, 0, cfg.Idempotency.TTL), 0, log))

	scheduler := jobs.NewScheduler(redisOpt, []jobs.Schedule{
		{TaskType: jobs.TaskTypeSessionSweep, Interval: cfg.Session.SweepInterval},
		{TaskType: jobs.TaskTypeRateLimitSweep, Interval: cfg.Jobs.RateLimitSweep},
		{TaskType: jobs.TaskTypeIdempotencySweep, Interval: cfg.Jobs.IdempotencySweep},
	}, log)
	if err := scheduler.RegisterTasks(); err != nil {
		return fmt.Errorf("register scheduled jobs: %w", err)
	}

	go func() {
		if err := worker.Run(); err != nil {
			log.Error("jobs worker stopped", "error", err)
		}
	}()
	scheduler.Run()

	manager := jobs.NewManager(redisOpt, log)
	if err := jobs.EnqueueSweeps(ctx, manager); err != nil {
		log.Warn("initial sweep enqueue failed", "error", err)
	}

	shutdown.Register("jobs", func(context.Context) error {
		scheduler.Shutdown()
		worker.Shutdown()
		return manager.Close()
	})

	return nil
}
