package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/go-sql-driver/mysql"

	"github.com/vidmill/videos-ms-go/internal/broadcast"
	"github.com/vidmill/videos-ms-go/internal/cache"
	"github.com/vidmill/videos-ms-go/internal/config"
	"github.com/vidmill/videos-ms-go/internal/db"
	"github.com/vidmill/videos-ms-go/internal/handler/api"
	"github.com/vidmill/videos-ms-go/internal/logger"
	"github.com/vidmill/videos-ms-go/internal/processing"
	"github.com/vidmill/videos-ms-go/internal/renderer"
	"github.com/vidmill/videos-ms-go/internal/repository/mariadb"
	"github.com/vidmill/videos-ms-go/internal/storage"
	"github.com/vidmill/videos-ms-go/internal/task"
	videoSvc "github.com/vidmill/videos-ms-go/internal/usecase/video"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	database := initDb(ctx, cfg)

	r := initRouter(ctx, cfg.JWTSecret)

	strg := initStorage(ctx, cfg)

	videoRepo := mariadb.NewVideoRepository(database.DB)

	var (
		ca        videoSvc.Cache
		bus       broadcast.Broadcaster
		launcher  videoSvc.Launcher
		canceller videoSvc.Canceller
		proc      *processing.Processor
	)
	procCfg := processing.Config{
		TickInterval:      cfg.ProcessingTickInterval,
		Step:              cfg.ProcessingStep,
		AnalysisThreshold: cfg.ProcessingAnalysisThreshold,
		MaxRuntime:        cfg.ProcessingMaxRuntime,
	}
	if cfg.RedisAddr != "" {
		ca = cache.NewCache(cfg.RedisAddr, cfg.RedisPassword)
		bus = broadcast.NewRedisBroadcaster(cfg.RedisAddr, cfg.RedisPassword)
		launcher = task.NewDispatcher(cfg.RedisAddr, cfg.RedisPassword)
		canceller = processing.NewNoopCanceller()
		logger.Info(ctx, "✅  Redis enabled — caching on, processing runs on the worker")
	} else {
		ca = cache.NewNoop()
		bus = broadcast.NewMemoryBroadcaster()
		proc = processing.New(videoRepo, bus, processing.NewStaticProber(), processing.NewRandomClassifier(), ca, procCfg)
		launcher = proc
		canceller = proc
		logger.Warn(ctx, "⚠️  Redis not configured — caching is disabled, processing runs in-process")
	}

	uploaderSvc := videoSvc.NewUploader(videoRepo, strg, launcher)
	r.Post("/videos", api.UploadVideoHandler(uploaderSvc))

	listerSvc := videoSvc.NewLister(videoRepo)
	r.Get("/videos", api.ListVideosHandler(listerSvc))

	getterSvc := videoSvc.NewGetter(videoRepo)
	rendererSvc := renderer.NewHTTPRenderer(ca)
	r.With(api.WithVideoID()).
		Get("/videos/{id}", api.GetVideoHandler(rendererSvc, getterSvc))

	streamerSvc := videoSvc.NewStreamer(videoRepo, strg)
	r.With(api.WithVideoID()).
		Get("/videos/{id}/stream", api.StreamVideoHandler(streamerSvc))

	r.With(api.WithVideoID()).
		Get("/videos/{id}/events", api.VideoEventsHandler(bus, getterSvc))
	r.Get("/events/processing", api.ProcessingEventsHandler(bus))

	deleterSvc := videoSvc.NewDeleter(videoRepo, strg, ca, canceller)
	r.With(api.WithVideoID()).
		Delete("/videos/{id}", api.DeleteVideoHandler(deleterSvc))

	listenRouter(ctx, r, cfg, database, proc)
}

func initDb(ctx context.Context, cfg *config.Settings) *db.Database {
	logger.Info(ctx, "initialising database...")

	database, err := db.New(cfg.MariaDBDSN, cfg.MaxOpenConns, cfg.MaxIdleConns, cfg.ConnMaxLifetime)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}

	return database
}

func initRouter(ctx context.Context, jwtSecret string) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(api.WithJWTAuth(jwtSecret))

	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	return r
}

func initStorage(ctx context.Context, cfg *config.Settings) videoSvc.Storage {
	if cfg.StorageBackend == "local" {
		strg, err := storage.NewFSStorage(cfg.LocalStorageRoot)
		if err != nil {
			logger.Errorf(ctx, "❌  Failed to initialize local storage at %q: %v", cfg.LocalStorageRoot, err)
			os.Exit(1)
		}
		logger.Warnf(ctx, "⚠️  Using legacy local storage at %q", cfg.LocalStorageRoot)
		return strg
	}

	strg, err := storage.NewMinioStorage(
		cfg.MinioEndpoint,
		cfg.MinioAccessKey,
		cfg.MinioSecretKey,
		cfg.MinioUseSSL,
		cfg.MinioBucket,
	)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to initialize MinIO client: %v", err)
		os.Exit(1)
	}

	return strg
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings, database *db.Database, proc *processing.Processor) {
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.ServerPort), Handler: r}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "❌  Server shutdown failed: %v", err)
		os.Exit(1)
	}
	if proc != nil {
		if err := proc.Shutdown(shutdownCtx); err != nil {
			logger.Warnf(ctx, "⚠️  Processing shutdown incomplete: %v", err)
		}
	}
	logger.Info(ctx, "✅  Server gracefully stopped")

	if err := database.Close(); err != nil {
		logger.Errorf(ctx, "DB close error: %v", err)
		os.Exit(1)
	}
}
