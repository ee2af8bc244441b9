package factory

import (
	"fmt"

	"github.com/phishguard/phishguard/internal/adapters/detector"
	"github.com/phishguard/phishguard/internal/config"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// DetectorFactory creates detection API clients
type DetectorFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewDetectorFactory creates a new detector factory
func NewDetectorFactory(cfg *config.Config, logger *zap.Logger) *DetectorFactory {
	return &DetectorFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateDetectorClient creates a client for the configured detection API
func (f *DetectorFactory) CreateDetectorClient() (core.DetectorClient, error) {
	baseURL := f.cfg.GetString("detector.base_url")
	if baseURL == "" {
		return nil, fmt.Errorf("detector.base_url is required")
	}

	timeout, err := f.cfg.GetDuration("detector.timeout")
	if err != nil {
		return nil, fmt.Errorf("invalid detector timeout: %w", err)
	}

	return detector.NewClient(baseURL, timeout, f.logger), nil
}
