package main

import (
	"log"
	"net/http"
	"time"

	"github.com/waritk/go-hero-catalog/pkg/adapters/handler"
	"github.com/waritk/go-hero-catalog/pkg/adapters/repository/sqlite"
	"github.com/waritk/go-hero-catalog/pkg/adapters/storage"
	"github.com/waritk/go-hero-catalog/pkg/config"
	"github.com/waritk/go-hero-catalog/pkg/core/services"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	images, err := storage.NewLocalStore(cfg.UploadsDir)
	if err != nil {
		logger.Fatal("failed to prepare uploads dir", zap.Error(err))
	}

	heroService := services.NewHeroService(repo.Heroes(), images, logger)
	buildService := services.NewBuildService(repo, repo.Heroes(), images, logger)
	authService := services.NewAuthService(repo.Users(), cfg.JWTSecret)
	seeder := services.NewSeederService(repo.Heroes(), images, nil, cfg.SeedAPIBase, logger)

	mux := handler.NewRouter(cfg, logger, heroService, buildService, authService, seeder, images)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := server.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
