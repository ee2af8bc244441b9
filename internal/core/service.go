package core

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// GuardService runs the navigation analysis pipeline: cache lookup, detection
// API call, per-tab result bookkeeping, and warning delivery. API failures
// degrade silently; detection is best-effort and must never block browsing.
type GuardService struct {
	detector        DetectorClient
	cache           ResultCache
	tabs            TabStore
	notifier        Notifier
	logger          *zap.Logger
	excludedSchemes []string

	mu          sync.Mutex
	generations map[TabID]uint64
}

// NewGuardService creates a new guard service.
func NewGuardService(
	detector DetectorClient,
	cache ResultCache,
	tabs TabStore,
	notifier Notifier,
	logger *zap.Logger,
	excludedSchemes []string,
) *GuardService {
	return &GuardService{
		detector:        detector,
		cache:           cache,
		tabs:            tabs,
		notifier:        notifier,
		logger:          logger,
		excludedSchemes: excludedSchemes,
		generations:     make(map[TabID]uint64),
	}
}

// ShouldAnalyze reports whether a URL is eligible for analysis. Internal
// browser pages, extension pages and local files never reach the cache or
// the API.
func (s *GuardService) ShouldAnalyze(url string) bool {
	for _, scheme := range s.excludedSchemes {
		if strings.HasPrefix(url, scheme) {
			return false
		}
	}
	return true
}

// AnalyzeNavigation runs the pipeline for a navigation in the given tab.
// Results are delivered via side effect: the per-tab store is updated and,
// for an adverse classification, a warning is published for the tab. Any
// detector failure terminates the pipeline silently.
func (s *GuardService) AnalyzeNavigation(ctx context.Context, tabID TabID, url string) {
	if !s.ShouldAnalyze(url) {
		s.logger.Debug("Skipping excluded URL", zap.String("url", url))
		return
	}

	gen := s.nextGeneration(tabID)

	if result, ok := s.cache.Lookup(url); ok {
		s.logger.Debug("Using cached result",
			zap.String("url", url),
			zap.Int("tab_id", int(tabID)))
		s.deliver(tabID, gen, result)
		return
	}

	result, err := s.detector.AnalyzeURL(ctx, url)
	if err != nil {
		// Detection API unavailable or returned garbage. Skip the analysis
		// without touching the cache or the tab store.
		s.logger.Debug("Detection API unavailable, skipping analysis",
			zap.String("url", url),
			zap.Error(err))
		return
	}

	// The cache is URL-keyed, so a late response is still valid for its URL
	// even when the tab has moved on.
	s.cache.Insert(url, result)

	s.deliver(tabID, gen, result)
}

// deliver applies tab-scoped side effects for a completed analysis. A stale
// generation means a newer navigation started for the tab while this one was
// in flight; its result must not overwrite the newer tab state.
func (s *GuardService) deliver(tabID TabID, gen uint64, result *AnalysisResult) {
	if !s.isCurrent(tabID, gen) {
		s.logger.Debug("Discarding stale analysis result",
			zap.Int("tab_id", int(tabID)),
			zap.Uint64("generation", gen))
		return
	}

	s.tabs.Set(tabID, result)

	if result.IsAdverse() {
		s.logger.Info("Adverse classification, publishing warning",
			zap.Int("tab_id", int(tabID)),
			zap.Float64("score", result.Score))
		s.notifier.Publish(tabID, result)
	}
}

// CloseTab drops the tab's stored result and generation counter.
func (s *GuardService) CloseTab(tabID TabID) {
	s.tabs.Delete(tabID)

	s.mu.Lock()
	delete(s.generations, tabID)
	s.mu.Unlock()
}

func (s *GuardService) nextGeneration(tabID TabID) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations[tabID]++
	return s.generations[tabID]
}

func (s *GuardService) isCurrent(tabID TabID, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.generations[tabID] == gen
}
