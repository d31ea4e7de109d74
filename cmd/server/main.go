package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/schoolhub-backend/internal/cache"
	"github.com/stemsi/schoolhub-backend/internal/config"
	"github.com/stemsi/schoolhub-backend/internal/database"
	"github.com/stemsi/schoolhub-backend/internal/handler"
	"github.com/stemsi/schoolhub-backend/internal/logger"
	"github.com/stemsi/schoolhub-backend/internal/repository"
	"github.com/stemsi/schoolhub-backend/internal/router"
	"github.com/stemsi/schoolhub-backend/internal/service"
	"github.com/stemsi/schoolhub-backend/internal/validator"
	"github.com/stemsi/schoolhub-backend/internal/worker"
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
		Msg("Starting SchoolHub Backend")

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

	store := cache.NewStore(rdb)
	bus := cache.NewBus(rdb)

	// ─── Initialize Repositories ───────────────────────────────────────
	userRepo := repository.NewUserRepository(pool)
	eventRepo := repository.NewAcademicEventRepository(pool)
	classRepo := repository.NewClassRepository(pool)
	attendanceRepo := repository.NewAttendanceRepository(pool)
	examRepo := repository.NewExamRepository(pool)
	shoutOutRepo := repository.NewShoutOutRepository(pool)
	messageRepo := repository.NewFamilyMessageRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb, userRepo, log)
	scheduleService := service.NewScheduleService(eventRepo, store, cfg.CacheTTL, log)
	userService := service.NewUserService(userRepo, store, authService, authService, cfg.CacheTTL, log)
	examService := service.NewExamService(examRepo, log)
	attendanceService := service.NewAttendanceService(classRepo, attendanceRepo, log)
	shoutOutService := service.NewShoutOutService(shoutOutRepo, log)
	messagingService := service.NewFamilyMessagingService(messageRepo, userRepo, bus, service.MessagingOptions{
		Window:       cfg.MessageWindow,
		PageLimit:    cfg.MessagePageLimit,
		PollInterval: cfg.MessagePollInterval,
	}, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Schedule:   handler.NewScheduleHandler(scheduleService),
		User:       handler.NewUserHandler(userService, cfg.MaxUploadBytes),
		Exam:       handler.NewExamHandler(examService),
		Attendance: handler.NewAttendanceHandler(attendanceService),
		ShoutOut:   handler.NewShoutOutHandler(shoutOutService),
		Messaging:  handler.NewFamilyMessagingHandler(messagingService),
		WS:         handler.NewWSHandler(messagingService, bus, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	cleanupWorker := worker.NewMessageCleanupWorker(messageRepo, cfg.MessageRetention, log)
	go func() {
		defer close(workerDone)
		cleanupWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(authService, handlers, cfg, rdb, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
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

	// 2. Stop background workers.
	workerCancel()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("Cleanup worker did not stop in time")
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
