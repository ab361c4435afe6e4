package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillfolio-api/internal/app"
	"github.com/noah-isme/skillfolio-api/internal/config"
	"github.com/noah-isme/skillfolio-api/internal/middleware"
	"github.com/noah-isme/skillfolio-api/internal/observability"
	"github.com/noah-isme/skillfolio-api/internal/router"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.RegisterMetrics()

	container, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise services")
	}
	defer container.Close()

	server := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(server, middleware.Config{Logger: &logger})
	router.Register(server, cfg, container.RouterDependencies())

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Str("algorithm", cfg.Credential.Algorithm).Str("storage", cfg.Storage.Driver).Msg("starting server")
		if err := server.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(server, logger)
}

func waitForShutdown(server *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
