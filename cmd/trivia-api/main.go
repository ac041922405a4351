package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/trivia-api-service/internal/config"
	"github.com/trivia-api-service/internal/handler"
	"github.com/trivia-api-service/internal/metrics"
	"github.com/trivia-api-service/internal/middleware"
	"github.com/trivia-api-service/internal/service"
	"github.com/trivia-api-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal().Str("level", cfg.LogLevel).Msg("invalid LOG_LEVEL")
	}
	zerolog.SetGlobalLevel(level)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create database pool")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to reach database")
	}

	st := store.NewPostgres(pool)

	apiKeys := service.NewAPIKeyService(st, st)
	users := service.NewUserService(st, []byte(cfg.JWTSecret), cfg.TokenTTL)
	trivia := service.NewTriviaService(st)

	// Throttles repeated credential failures per client IP.
	authLimiter := middleware.NewAuthAttemptLimiter(10, time.Minute, 5*time.Minute)

	router := chi.NewRouter()
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecurityHeaders)
	router.Use(middleware.CountRequests)
	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSOrigins,
			AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.APIKeyHeader},
			MaxAge:         300,
		}))
	}

	// Public
	router.Method(http.MethodGet, "/health", handler.NewHealthHandler(st, st))
	router.Method(http.MethodGet, "/metrics", metrics.Handler())
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireJSON)
		r.Method(http.MethodPost, "/auth/register", handler.NewRegisterHandler(users))
		r.Method(http.MethodPost, "/auth/login", handler.NewLoginHandler(users))
	})

	// Account management, bearer-token authenticated
	router.Group(func(r chi.Router) {
		r.Use(middleware.UserAuth(st, []byte(cfg.JWTSecret), authLimiter))
		r.Method(http.MethodGet, "/me", handler.NewProfileHandler())
		r.Method(http.MethodGet, "/keys", handler.NewListAPIKeysHandler(apiKeys))
		r.Method(http.MethodGet, "/keys/{id}", handler.NewGetAPIKeyHandler(apiKeys))
		r.Method(http.MethodDelete, "/keys/{id}", handler.NewDeleteAPIKeyHandler(apiKeys))
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireJSON)
			r.Method(http.MethodPost, "/keys", handler.NewCreateAPIKeyHandler(apiKeys))
			r.Method(http.MethodPatch, "/keys/{id}/status", handler.NewUpdateAPIKeyStatusHandler(apiKeys))
			r.Method(http.MethodPatch, "/keys/{id}/rate-limit", handler.NewUpdateRateLimitHandler(apiKeys))
		})
	})

	// Trivia serving, API-key authenticated and rate limited
	router.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(st, authLimiter))
		r.Use(middleware.RateLimitGuard(st))
		r.Method(http.MethodGet, "/trivia/random", handler.NewRandomTriviaHandler(trivia))
		r.Method(http.MethodGet, "/trivia/search", handler.NewSearchTriviaHandler(trivia))
		r.Method(http.MethodGet, "/trivia/categories", handler.NewListCategoriesHandler(trivia))
		r.Method(http.MethodGet, "/trivia/category/{category}", handler.NewTriviaByCategoryHandler(trivia))
		r.Method(http.MethodGet, "/trivia/{id}", handler.NewGetTriviaHandler(trivia))
		r.Method(http.MethodGet, "/usage", handler.NewUsageHandler(st))
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Port).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}
