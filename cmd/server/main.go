package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ealicense/license-server-go/internal/config"
	"github.com/ealicense/license-server-go/internal/database"
	"github.com/ealicense/license-server-go/internal/handler"
	"github.com/ealicense/license-server-go/internal/metrics"
	"github.com/ealicense/license-server-go/internal/middleware"
	"github.com/ealicense/license-server-go/internal/redis"
	"github.com/ealicense/license-server-go/internal/repository"
	"github.com/ealicense/license-server-go/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.ConnectWithRetry(context.Background(), cfg.DatabaseURL, cfg.DBConnectAttempts)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	if cfg.AutoMigrate {
		if err := db.Migrate(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
		log.Info().Msg("database schema ready")
	}

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	licenseRepo := repository.NewLicenseRepository(db.DB)

	m := metrics.New()
	m.RegisterStatsCollector(licenseRepo)

	registrationService := service.NewRegistrationService(licenseRepo, m)
	adminService := service.NewAdminService(licenseRepo, m)

	checkinLimiter := middleware.NewRedisRateLimiter(redisClient.Client, config.CheckinRateLimitWindow)
	checkinRateLimit := middleware.NewCheckinRateLimitMiddleware(checkinLimiter, cfg.CheckinRateLimit())
	adminAuth := middleware.NewAdminAuthMiddleware(cfg.AdminPasswordHash)
	bodyLimitMiddleware := middleware.NewBodyLimitMiddleware(0)
	securityHeadersMiddleware := middleware.NewSecurityHeadersMiddleware(isProduction)

	licenseHandler := handler.NewLicenseHandler(registrationService, checkinRateLimit.Handler)
	adminHandler := handler.NewAdminHandler(adminService, adminAuth.Handler)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(middleware.TrustedRealIP(cfg.TrustedProxyHops))
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(config.ServerRequestTimeout))
	r.Use(middleware.NewCORS().Handler)
	r.Use(bodyLimitMiddleware.Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		}

		ctx, cancel := context.WithTimeout(r.Context(), config.DBPingTimeout)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			log.Warn().Err(err).Msg("health check: database unreachable")
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	})

	r.Handle("/metrics", m.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(securityHeadersMiddleware.Handler)
		r.Mount("/admin", adminHandler.Routes())
		r.Mount("/", licenseHandler.Routes())
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
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
