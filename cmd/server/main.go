package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/backoffice/infra/initializer"
	"github.com/amirasaad/backoffice/pkg/app"
	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/webapi"
	log "github.com/charmbracelet/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	// Initialize all dependencies
	deps, cleanup, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer cleanup()
	logger := deps.Logger

	fiberApp := webapi.SetupApp(app.New(deps, cfg))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", cfg.Server.Scheme,
	)
	return fiberApp.Listen(addr)
}
