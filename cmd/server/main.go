package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/config"
	"github.com/ujianku/tryout-backend/internal/database"
	"github.com/ujianku/tryout-backend/internal/handler"
	"github.com/ujianku/tryout-backend/internal/logger"
	"github.com/ujianku/tryout-backend/internal/repository"
	"github.com/ujianku/tryout-backend/internal/router"
	"github.com/ujianku/tryout-backend/internal/service"
	"github.com/ujianku/tryout-backend/internal/validator"
	"github.com/ujianku/tryout-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Tryout Attempt Engine")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Repositories ───────────────────────────────────────
	attemptRepo := repository.NewAttemptRepository(pool)
	answerRepo := repository.NewAnswerRepository(pool)
	packageRepo := repository.NewPackageRepository(pool, rdb, log)
	leaderboardRepo := repository.NewLeaderboardRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	tokenService := service.NewTokenService(cfg)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo, rdb, cfg.LeaderboardCacheTTL, log)
	attemptService := service.NewAttemptService(
		attemptRepo,
		answerRepo,
		packageRepo,
		leaderboardService,
		service.AllowAllEntitlement{},
		rdb,
		service.SystemClock{},
		log,
	)
	autosaveService := service.NewAutosaveService(attemptService, answerRepo, packageRepo, service.SystemClock{}, log)
	violationService := service.NewViolationService(attemptService, attemptRepo, packageRepo, service.SystemClock{}, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Attempt: handler.NewAttemptHandler(attemptService, autosaveService, violationService),
		Tryout:  handler.NewTryoutHandler(leaderboardService, packageRepo, cfg.LeaderboardTopN),
		WS:      handler.NewWSHandler(attemptService, autosaveService, violationService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())

	sweepWorker := worker.NewSweepWorker(attemptService, cfg.SweepInterval, cfg.SweepBatchSize, log)
	notifyWorker := worker.NewNotifyWorker(rdb, service.NewLogNotifier(log), log)

	go sweepWorker.Start(workerCtx)
	go notifyWorker.Start(workerCtx)

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(tokenService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop background workers and wait for in-flight work to settle.
	workerCancel()
	time.Sleep(2 * time.Second) // Allow workers to drain.

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
