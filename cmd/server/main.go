package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/yusufkecer/fit-tracker-backend/internal/auth"
	"github.com/yusufkecer/fit-tracker-backend/internal/config"
	"github.com/yusufkecer/fit-tracker-backend/internal/db"
	"github.com/yusufkecer/fit-tracker-backend/internal/logging"
	"github.com/yusufkecer/fit-tracker-backend/internal/metricschema"
	"github.com/yusufkecer/fit-tracker-backend/internal/repository"
	"github.com/yusufkecer/fit-tracker-backend/internal/repository/memory"
	"github.com/yusufkecer/fit-tracker-backend/internal/server"
	"github.com/yusufkecer/fit-tracker-backend/internal/service"
)

type repositories struct {
	users   service.UserRepository
	weights service.WeightRepository
	metrics service.MetricRepository
	close   func() error
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found; relying on existing environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := openStorage(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("storage initialization failed", zap.Error(err))
	}
	defer repos.close()

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    cfg.JWTTTL,
	})
	if err != nil {
		logger.Fatal("token service initialization failed", zap.Error(err))
	}
	hasher := auth.NewPasswordHasher(cfg.BcryptCost)
	registry := metricschema.Default()

	srv := server.New(cfg, server.Services{
		Auth:     service.NewAuthService(repos.users, hasher, tokens, logger),
		Profiles: service.NewProfileService(repos.users, logger),
		Weights:  service.NewWeightService(repos.weights, logger),
		Metrics:  service.NewMetricService(repos.metrics, registry, logger),
	}, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}

func openStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repositories, error) {
	if cfg.StorageDriver == config.DriverMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.New()
		return &repositories{
			users:   store.Users(),
			weights: store.Weights(),
			metrics: store.Metrics(),
			close:   func() error { return nil },
		}, nil
	}

	database, err := db.Connect(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, database.DB, logger); err != nil {
		database.Close()
		return nil, err
	}
	return &repositories{
		users:   repository.NewUserRepository(database),
		weights: repository.NewWeightRepository(database),
		metrics: repository.NewMetricRepository(database),
		close:   database.Close,
	}, nil
}
