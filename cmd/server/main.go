package main

import (
	"context"
	"log"
	"net"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"scribbly/internal/config"
	"scribbly/internal/logging"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load server configuration
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := logging.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	app, err := SetupServer(cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Server.EnableMetrics {
		ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, cfg.Server.MetricsPort))
		if err != nil {
			logger.Fatal("failed to listen for metrics", zap.Error(err))
		}
		go func() {
			if err := app.ServeMetrics(ctx, ln); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	ln, err := net.Listen("tcp", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port))
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}
	if err := app.Serve(ctx, ln); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
