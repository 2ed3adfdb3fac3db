package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/aiframe/capture-server-go/internal/config"
	"github.com/aiframe/capture-server-go/internal/handler"
	"github.com/aiframe/capture-server-go/internal/jobs"
	"github.com/aiframe/capture-server-go/internal/middleware"
	"github.com/aiframe/capture-server-go/internal/registry"
	"github.com/aiframe/capture-server-go/internal/repository"
	"github.com/aiframe/capture-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if os.Getenv("APP_ENV") != "production" {
		godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	store, err := repository.NewFileStore(cfg.SessionsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open sessions directory")
	}
	log.Info().Str("sessionsDir", cfg.SessionsDir).Msg("sessions directory ready")

	var sessionRegistry registry.Registry
	if cfg.RedisURL != "" {
		redisRegistry, err := registry.NewRedisRegistry(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisRegistry.Close()
		sessionRegistry = redisRegistry
		log.Info().Msg("using redis session registry")
	} else {
		sessionRegistry = registry.NewMemoryRegistry()
		log.Info().Msg("using in-memory session registry")
	}

	if len(cfg.ForwardAPIs) > 0 {
		log.Info().Strs("targets", cfg.ForwardAPIs).Msg("forwarding enabled")
	}

	captureRepo := repository.NewCaptureRepository(store)
	forwardService := service.NewForwardService(cfg.ForwardAPIs)
	captureService := service.NewCaptureService(captureRepo, sessionRegistry, forwardService)

	captureHandler := handler.NewCaptureHandler(captureService)
	arObjectHandler := handler.NewARObjectHandler(captureService)
	statusHandler := handler.NewStatusHandler(captureService, cfg)

	corsMiddleware := middleware.NewCORSMiddleware("")
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(cfg.MaxUploadBytes())

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(corsMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/", captureHandler.Root)
	r.Get("/status", statusHandler.Status)
	captureHandler.Register(r)
	arObjectHandler.Register(r)

	cleanupJob := jobs.NewCleanupJob(captureRepo, cfg.Retention(), config.CleanupJobInterval)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:         cfg.Addr(config.DefaultCapturePort),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting capture server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
