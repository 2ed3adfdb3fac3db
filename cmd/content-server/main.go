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
	"github.com/aiframe/capture-server-go/internal/middleware"
	"github.com/aiframe/capture-server-go/internal/model"
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

	store, err := repository.NewFileStore(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open data directory")
	}
	log.Info().Str("dataDir", cfg.DataDir).Msg("data directory ready")

	sessionRepo := repository.NewSessionRepository(store)
	objectRepo := repository.NewObjectRepository(store, sessionRepo)
	mediaRepo := repository.NewMediaRepository(store)

	sessionService := service.NewSessionService(sessionRepo)
	objectService := service.NewObjectService(objectRepo)
	mediaService := service.NewMediaService(mediaRepo)

	sessionHandler := handler.NewSessionHandler(sessionService, cfg.DataDir)
	objectHandler := handler.NewObjectHandler(objectService)
	mediaHandler := handler.NewMediaHandler(mediaService)

	corsMiddleware := middleware.NewCORSMiddleware("X-Session-ID")
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(cfg.MaxUploadBytes())

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(corsMiddleware.Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/", sessionHandler.Root)
	r.Get("/api/health", sessionHandler.Health)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", sessionHandler.Create)
		r.Get("/", sessionHandler.List)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", sessionHandler.Get)
			r.Delete("/", sessionHandler.Delete)
			r.Mount("/objects", objectHandler.Routes())
			r.Mount("/images", mediaHandler.Routes(model.MediaImage))
			r.Mount("/videos", mediaHandler.Routes(model.MediaVideo))
			r.Mount("/audio", mediaHandler.Routes(model.MediaAudio))
		})
	})

	server := &http.Server{
		Addr:         cfg.Addr(config.DefaultContentPort),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("starting content server")
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
