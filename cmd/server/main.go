package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-online/internal/admitcard"
	"github.com/stemsi/exstem-online/internal/bootstrap"
	"github.com/stemsi/exstem-online/internal/config"
	"github.com/stemsi/exstem-online/internal/database"
	"github.com/stemsi/exstem-online/internal/handler"
	"github.com/stemsi/exstem-online/internal/logger"
	"github.com/stemsi/exstem-online/internal/middleware"
	"github.com/stemsi/exstem-online/internal/notify"
	"github.com/stemsi/exstem-online/internal/router"
	"github.com/stemsi/exstem-online/internal/service"
	"github.com/stemsi/exstem-online/internal/validator"
	"github.com/stemsi/exstem-online/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("db_driver", cfg.DBDriver).
		Msg("Starting ExStem Online")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Open Store ────────────────────────────────────────────────────
	store, err := bootstrap.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer store.Close()

	// ─── Notifications ─────────────────────────────────────────────────
	deliverer := notify.NewDeliverer(notify.NewSMTPSender(cfg.Mail, log), store, log)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workerDone := make(chan struct{})

	var (
		dispatcher notify.Dispatcher
		inline     *notify.Inline
	)
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer rdb.Close()

		dispatcher = notify.NewRedisQueue(rdb)
		notificationWorker := worker.NewNotificationWorker(rdb, deliverer, log)
		go func() {
			defer close(workerDone)
			notificationWorker.Start(workerCtx)
		}()
	} else {
		log.Info().Msg("REDIS_URL not set, delivering notifications inline")
		inline = notify.NewInline(deliverer, log)
		dispatcher = inline
		close(workerDone)
	}

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg)
	userService := service.NewUserService(store, authService, log)
	examService := service.NewExamService(store, store, admitcard.NewRenderer(cfg.AdmitCardFont), log)
	questionService := service.NewQuestionService(store, log)
	submissionService := service.NewSubmissionService(store, store, dispatcher, log)
	resultService := service.NewResultService(store, store, log)
	dashboardService := service.NewDashboardService(store, store, examService, resultService)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:          handler.NewAuthHandler(userService, log),
		Exam:          handler.NewExamHandler(examService, questionService, log),
		StudentPortal: handler.NewStudentPortalHandler(submissionService, log),
		Result:        handler.NewResultHandler(resultService, log),
		Dashboard:     handler.NewDashboardHandler(dashboardService, log),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	// Rate limiter for auth routes (30 requests per minute per IP).
	r := router.SetupRouter(router.Deps{
		Auth:        authService,
		Users:       store,
		AuthLimiter: middleware.NewRateLimiter(ctx, 30, time.Minute),
	}, handlers, cfg)

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

	// 2. Stop the notification worker and let pending deliveries finish.
	workerCancel()
	<-workerDone
	if inline != nil {
		inline.Wait()
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
