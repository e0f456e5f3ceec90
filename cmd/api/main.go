package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/cinetrack/watchlist/internal/handlers"
	"github.com/cinetrack/watchlist/internal/mailer"
	"github.com/cinetrack/watchlist/internal/repository"
	"github.com/cinetrack/watchlist/internal/service"
	"github.com/cinetrack/watchlist/pkg/auth"
	"github.com/cinetrack/watchlist/pkg/config"
	"github.com/cinetrack/watchlist/pkg/database"
	"github.com/cinetrack/watchlist/pkg/events"
	"github.com/cinetrack/watchlist/pkg/hash"
	"github.com/cinetrack/watchlist/pkg/ids"
	"github.com/cinetrack/watchlist/pkg/logger"
	mw "github.com/cinetrack/watchlist/pkg/middleware"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx := context.Background()

	if err := database.RunMigrations(cfg.Database.URL); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	userRepo := repository.NewUserRepository(pool)
	movieRepo := repository.NewMovieRepository(pool)

	hasher := hash.NewArgon2Hasher()
	tokens := auth.NewTokenService(cfg.Auth)
	idGen := ids.NewUUIDGenerator()
	mail := newMailer(cfg)

	authService := service.NewAuthService(userRepo, hasher, tokens, mail, idGen, eventBus, cfg)
	movieService := service.NewMovieService(movieRepo, userRepo, idGen, eventBus)

	h := handlers.New(authService, movieService)
	guard := handlers.NewGuard(tokens)
	limiter := mw.NewRateLimiter(rdb, 10, time.Minute)

	registry := prometheus.NewRegistry()
	collector := mw.NewCollector(registry)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Recovery)
	r.Use(mw.CORS)
	r.Use(mw.Health)
	r.Use(collector.Middleware)

	r.Handle("/metrics", mw.MetricsHandler(registry))
	r.Mount("/", h.Routes(guard, limiter))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error", "error", err)
		}
	}()

	logger.Info("Starting watchlist API", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func newMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		return mailer.NewDevMailer(cfg.Auth.VerifyBaseURL)
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom, cfg.Auth.VerifyBaseURL)
	default:
		return mailer.NewSMTPMailer(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPass,
			cfg.Email.SMTPUseTLS,
			cfg.Auth.VerifyBaseURL,
		)
	}
}
