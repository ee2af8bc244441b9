package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phishguard/phishguard/internal/adapters/mailgw"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/dashboard"
	"github.com/phishguard/phishguard/internal/di"
	"go.uber.org/zap"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	logger *zap.Logger,
	server *dashboard.Server,
	gateway *mailgw.Gateway,
	cache core.ResultCache,
	history core.HistoryStore,
) error {
	defer logger.Sync()

	if err := server.Start(); err != nil {
		logger.Fatal("Failed to start HTTP server", zap.Error(err))
	}

	if gateway != nil {
		if err := gateway.Start(); err != nil {
			logger.Fatal("Failed to start mail gateway", zap.Error(err))
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if gateway != nil {
		if err := gateway.Stop(); err != nil {
			logger.Error("Failed to stop mail gateway", zap.Error(err))
		}
	}

	if err := server.Stop(); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}

	// Stop components with background work or open handles
	if stopper, ok := cache.(interface{ Stop() }); ok {
		stopper.Stop()
	}
	if stopper, ok := history.(interface{ Stop() }); ok {
		stopper.Stop()
	}

	logger.Info("Shutdown complete")
	return nil
}
