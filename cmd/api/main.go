package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gsanchezm/OmniPizza/internal/config"
	"github.com/gsanchezm/OmniPizza/internal/domain"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/clock"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/jsonlogic"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/memstore"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/metrics"
	"github.com/gsanchezm/OmniPizza/internal/infrastructure/token"
	fixtures "github.com/gsanchezm/OmniPizza/internal/infrastructure/yaml"
	"github.com/gsanchezm/OmniPizza/internal/interfaces/httpapi"
	"github.com/gsanchezm/OmniPizza/internal/usecase"
)

func main() {
	cfg := config.Load()

	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("Starting OmniPizza API",
		"environment", cfg.Environment,
		"port", cfg.Port,
	)
	if cfg.UsesDefaultSecret() {
		if cfg.IsProduction() {
			slog.Error("SECRET_KEY must be set in production")
			os.Exit(1)
		}
		slog.Warn("SECRET_KEY not set, using the development secret")
	}

	ctx := context.Background()
	fx, err := fixtures.NewLoader(cfg.FixturesPath).Load(ctx)
	if err != nil {
		slog.Error("Failed to load fixtures", "path", cfg.FixturesPath, "error", err)
		os.Exit(1)
	}

	tokens, err := token.NewJWTIssuer(cfg.SecretKey, cfg.TokenTTL)
	if err != nil {
		slog.Error("Failed to create token issuer", "error", err)
		os.Exit(1)
	}

	rnd := clock.NewRand(cfg.RandomSeed)
	sleeper := clock.TimerSleeper{}
	svc, err := usecase.New(fx, usecase.Deps{
		Store:   memstore.NewOrderStore(),
		Clock:   clock.System{},
		Random:  rnd,
		Sleeper: sleeper,
		Tokens:  tokens,
		Guards:  jsonlogic.NewGuardExecutor(),
		Patcher: infrastructure.NewMergePatcher(),
		Logger:  logger,
	})
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}
	if cfg.SlowProfileDelay != nil {
		svc.Faults.Override(domain.BehaviorSlow, cfg.SlowProfileDelay, nil)
	}
	if cfg.FlakyFailureRate != nil {
		svc.Faults.Override(domain.BehaviorFlaky, nil, cfg.FlakyFailureRate)
	}
	slog.Info("Fixtures loaded",
		"countries", len(fx.Countries),
		"pizzas", len(fx.Catalog),
		"users", len(fx.Users),
		"slow_delay", svc.Faults.Effects(domain.BehaviorSlow).Latency.String(),
		"flaky_rate", svc.Faults.Effects(domain.BehaviorFlaky).FailureRate,
	)

	srv := httpapi.New(svc, httpapi.Options{
		Logger:         logger,
		Metrics:        metrics.NewServerMetrics("api"),
		Environment:    cfg.Environment,
		CORSOrigins:    cfg.CORSOrigins,
		LoginRateLimit: cfg.LoginRateLimit,
		Clock:          clock.System{},
		Random:         rnd,
		Sleeper:        sleeper,
	})

	go func() {
		addr := ":" + cfg.Port
		slog.Info("Server starting", "address", addr)
		if err := srv.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	slog.Info("Server exited")
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "WARN", "WARNING":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}
