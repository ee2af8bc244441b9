package popup

import (
	"context"
	"errors"
	"time"

	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when no analysis result could be produced
// within the popup's wait window.
var ErrUnavailable = errors.New("analysis unavailable")

// Service backs the toolbar popup: it returns the tab's last analysis
// result, triggering a fresh analysis and waiting a bounded time when none
// is stored yet.
type Service struct {
	guard        *core.GuardService
	tabs         core.TabStore
	waitTimeout  time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewService creates a popup service. waitTimeout bounds how long a
// triggered analysis is waited on before it is declared unavailable.
func NewService(guard *core.GuardService, tabs core.TabStore, waitTimeout, pollInterval time.Duration, logger *zap.Logger) *Service {
	return &Service{
		guard:        guard,
		tabs:         tabs,
		waitTimeout:  waitTimeout,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// CurrentResult returns the stored result for the tab. On a miss it starts
// an analysis of the tab's URL and polls the store until the wait window
// closes.
func (s *Service) CurrentResult(ctx context.Context, tabID core.TabID, url string) (*core.AnalysisResult, error) {
	if result, ok := s.tabs.Get(tabID); ok {
		return result, nil
	}

	s.logger.Debug("No stored result, triggering analysis",
		zap.Int("tab_id", int(tabID)),
		zap.String("url", url))

	go s.guard.AnalyzeNavigation(context.WithoutCancel(ctx), tabID, url)

	deadline := time.NewTimer(s.waitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if result, ok := s.tabs.Get(tabID); ok {
				return result, nil
			}
		case <-deadline.C:
			return nil, ErrUnavailable
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}
