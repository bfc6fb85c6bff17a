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

	"github.com/hibiken/asynq"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"portfolio/internal/config"
	"portfolio/internal/database"
	"portfolio/internal/logging"
	"portfolio/internal/metrics"
	"portfolio/internal/notify"
	"portfolio/internal/pdf"
	"portfolio/internal/storage"
	"portfolio/internal/tasks"
	"portfolio/internal/worker"
)

func main() {
	cfg := config.MustLoad()

	logger := logging.New(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		fatal(logger, "init database", err)
	}
	logger.Info("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		fatal(logger, "init storage client", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		fatal(logger, "ping redis", err)
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Addr()}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
		Logger:      newAsynqLogger(logger),
	})

	notifier := notify.NewRedisPublisher(redisClient)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeResumeRender, worker.NewResumeRenderHandler(db, storageClient, pdf.NewRenderer(cfg.Renderer), notifier, logger))
	mux.Handle(tasks.TypeStorageCleanup, worker.NewStorageCleanupHandler(storageClient, notifier, logger))
	mux.Handle(tasks.TypeStorageSweep, worker.NewStorageSweepHandler(db, storageClient, logger))

	var scheduler *asynq.Scheduler
	if cfg.Worker.SweepCron != "" {
		scheduler = asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: newAsynqLogger(logger)})
		entryID, err := scheduler.Register(cfg.Worker.SweepCron, tasks.NewStorageSweepTask())
		if err != nil {
			fatal(logger, "register storage sweep", err)
		}
		logger.Info("storage sweep scheduled", slog.String("cron", cfg.Worker.SweepCron), slog.String("entry_id", entryID))
		if err := scheduler.Start(); err != nil {
			fatal(logger, "start scheduler", err)
		}
		defer scheduler.Shutdown()
	}

	metricsSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Worker.MetricsPort),
		Handler:           promhttp.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", slog.Any("error", err))
		}
	}()

	if err := server.Start(mux); err != nil {
		fatal(logger, "start worker server", err)
	}
	logger.Info("worker service started",
		slog.String("redis_addr", cfg.Redis.Addr()),
		slog.Int("concurrency", cfg.Worker.Concurrency),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down worker")
	server.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown failed", slog.Any("error", err))
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(1)
}
