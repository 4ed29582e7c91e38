package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/hibiken/asynq"

	"github.com/vidmill/videos-ms-go/internal/broadcast"
	"github.com/vidmill/videos-ms-go/internal/cache"
	"github.com/vidmill/videos-ms-go/internal/config"
	"github.com/vidmill/videos-ms-go/internal/db"
	workerHandler "github.com/vidmill/videos-ms-go/internal/handler/worker"
	"github.com/vidmill/videos-ms-go/internal/logger"
	"github.com/vidmill/videos-ms-go/internal/processing"
	"github.com/vidmill/videos-ms-go/internal/repository/mariadb"
	"github.com/vidmill/videos-ms-go/internal/task"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}
	if cfg.RedisAddr == "" {
		logger.Error(ctx, "⚠️  REDIS_ADDR must be set to run the worker")
		os.Exit(1)
	}

	logger.Init()

	database := initDb(cfg)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	repo := mariadb.NewVideoRepository(database.DB)
	bus := broadcast.NewRedisBroadcaster(cfg.RedisAddr, cfg.RedisPassword)
	ca := cache.NewCache(cfg.RedisAddr, cfg.RedisPassword)
	proc := processing.New(repo, bus, processing.NewStaticProber(), processing.NewRandomClassifier(), ca, processing.Config{
		TickInterval:      cfg.ProcessingTickInterval,
		Step:              cfg.ProcessingStep,
		AnalysisThreshold: cfg.ProcessingAnalysisThreshold,
		MaxRuntime:        cfg.ProcessingMaxRuntime,
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(task.TypeProcessVideo, func(ctx context.Context, t *asynq.Task) error {
		p, err := task.ParseProcessVideoPayload(t)
		if err != nil {
			return err
		}
		return workerHandler.ProcessVideoHandler(ctx, p, proc)
	})

	runWorker(ctx, mux, cfg, proc)
}

func initDb(cfg *config.Settings) *db.Database {
	ctx := context.Background()
	logger.Info(ctx, "initialising database...")

	database, err := db.New(cfg.MariaDBDSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}
	return database
}

func runWorker(ctx context.Context, mux *asynq.ServeMux, cfg *config.Settings, proc *processing.Processor) {
	srv := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}, asynq.Config{Concurrency: 10})

	// Run server in background
	go func() {
		if err := srv.Run(mux); err != nil {
			logger.Errorf(context.Background(), "❌  Worker failed: %v", err)
			os.Exit(1)
		}
	}()
	logger.Info(ctx, "🚀 Worker started")

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// Stop accepting new tasks and let in-flight runs wind down
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv.Shutdown()
	if err := proc.Shutdown(shutdownCtx); err != nil {
		logger.Warnf(ctx, "⚠️  Processing shutdown incomplete: %v", err)
	}

	logger.Info(ctx, "✅  Worker gracefully stopped")
}
