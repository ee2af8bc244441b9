package di

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/phishguard/phishguard/internal/adapters/cache"
	"github.com/phishguard/phishguard/internal/adapters/mailgw"
	"github.com/phishguard/phishguard/internal/adapters/tabstore"
	"github.com/phishguard/phishguard/internal/agent"
	"github.com/phishguard/phishguard/internal/bus"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"github.com/phishguard/phishguard/internal/dashboard"
	"github.com/phishguard/phishguard/internal/factory"
	"github.com/phishguard/phishguard/internal/logging"
	"github.com/phishguard/phishguard/internal/overlay"
	"github.com/phishguard/phishguard/internal/popup"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewDetectorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return nil, err
	}

	// Register detection API client
	if err := container.Provide(func(f *factory.DetectorFactory) (core.DetectorClient, error) {
		return f.CreateDetectorClient()
	}); err != nil {
		return nil, err
	}

	// Register history store
	if err := container.Provide(func(f *factory.HistoryFactory) (core.HistoryStore, error) {
		return f.CreateHistoryStore()
	}); err != nil {
		return nil, err
	}

	// Register result cache
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (core.ResultCache, error) {
		ttl, err := cfg.GetDuration("cache.ttl")
		if err != nil {
			return nil, fmt.Errorf("invalid cache ttl: %w", err)
		}
		cleanupFreq, err := cfg.GetDuration("cache.cleanup_frequency")
		if err != nil {
			return nil, fmt.Errorf("invalid cache cleanup frequency: %w", err)
		}
		return cache.NewMemoryCache(logger, ttl, cfg.GetInt("cache.capacity"), cleanupFreq), nil
	}); err != nil {
		return nil, err
	}

	// Register tab store
	if err := container.Provide(func() core.TabStore {
		return tabstore.NewMemory()
	}); err != nil {
		return nil, err
	}

	// Register warning bus and notifier
	if err := container.Provide(bus.New); err != nil {
		return nil, err
	}
	if err := container.Provide(func(b *bus.Bus) core.Notifier {
		return b
	}); err != nil {
		return nil, err
	}

	// Register excluded schemes
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) []string {
		schemes := cfg.GetStringSlice("guard.excluded_schemes")
		logger.Info("Loaded excluded schemes", zap.Strings("schemes", schemes))
		return schemes
	}); err != nil {
		return nil, err
	}

	// Register guard service
	if err := container.Provide(core.NewGuardService); err != nil {
		return nil, err
	}

	// Register popup service
	if err := container.Provide(func(
		guard *core.GuardService,
		tabs core.TabStore,
		cfg *config.Config,
		logger *zap.Logger,
	) (*popup.Service, error) {
		waitTimeout, err := cfg.GetDuration("popup.wait_timeout")
		if err != nil {
			return nil, fmt.Errorf("invalid popup wait timeout: %w", err)
		}
		pollInterval, err := cfg.GetDuration("popup.poll_interval")
		if err != nil {
			return nil, fmt.Errorf("invalid popup poll interval: %w", err)
		}
		return popup.NewService(guard, tabs, waitTimeout, pollInterval, logger), nil
	}); err != nil {
		return nil, err
	}

	// Register overlay registry
	if err := container.Provide(overlay.NewRegistry); err != nil {
		return nil, err
	}

	// Register HTTP handlers and server
	if err := container.Provide(agent.NewHandlers); err != nil {
		return nil, err
	}
	if err := container.Provide(dashboard.NewHandlers); err != nil {
		return nil, err
	}
	if err := container.Provide(func(
		cfg *config.Config,
		dashboardHandlers *dashboard.Handlers,
		agentHandlers *agent.Handlers,
		logger *zap.Logger,
	) *dashboard.Server {
		return dashboard.NewServer(
			cfg.GetString("server.listen_address"),
			cfg.GetFloat64("server.rate_limit.rps"),
			cfg.GetInt("server.rate_limit.burst"),
			dashboardHandlers,
			agentHandlers,
			logger,
		)
	}); err != nil {
		return nil, err
	}

	// Register optional mail gateway (nil when disabled)
	if err := container.Provide(func(
		cfg *config.Config,
		detector core.DetectorClient,
		history core.HistoryStore,
		logger *zap.Logger,
	) *mailgw.Gateway {
		if !cfg.GetBool("mailgw.enabled") {
			return nil
		}
		return mailgw.NewGateway(detector, history, logger, mailgw.Options{
			ListenAddr:    cfg.GetString("mailgw.listen_address"),
			RelayAddr:     cfg.GetString("mailgw.relay_address"),
			RelayPort:     cfg.GetInt("mailgw.relay_port"),
			RelayEnabled:  cfg.GetBool("mailgw.relay_enabled"),
			BlockPhishing: cfg.GetBool("mailgw.block_phishing"),
			MaxBodySize:   cfg.GetInt("mailgw.max_body_size"),
			StatusHeader:  cfg.GetString("mailgw.headers.status"),
			ScoreHeader:   cfg.GetString("mailgw.headers.score"),
			ReasonHeader:  cfg.GetString("mailgw.headers.reason"),
		})
	}); err != nil {
		return nil, err
	}

	return container, nil
}
