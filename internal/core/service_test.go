package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubDetector struct {
	mu      sync.Mutex
	calls   int
	analyze func(url string) (*AnalysisResult, error)
}

func (d *stubDetector) AnalyzeURL(ctx context.Context, url string) (*AnalysisResult, error) {
	d.mu.Lock()
	d.calls++
	d.mu.Unlock()
	return d.analyze(url)
}

func (d *stubDetector) AnalyzeEmail(ctx context.Context, content string) (*AnalysisResult, error) {
	return nil, errors.New("not implemented")
}

func (d *stubDetector) Chat(ctx context.Context, message string, history []ChatMessage, pageContext string) (string, error) {
	return "", errors.New("not implemented")
}

func (d *stubDetector) Ping(ctx context.Context) error { return nil }

func (d *stubDetector) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string]*AnalysisResult
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]*AnalysisResult)}
}

func (c *stubCache) Lookup(url string) (*AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[url]
	return r, ok
}

func (c *stubCache) Insert(url string, result *AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = result
}

func (c *stubCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

type stubTabStore struct {
	mu      sync.Mutex
	results map[TabID]*AnalysisResult
}

func newStubTabStore() *stubTabStore {
	return &stubTabStore{results: make(map[TabID]*AnalysisResult)}
}

func (s *stubTabStore) Get(tabID TabID) (*AnalysisResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.results[tabID]
	return r, ok
}

func (s *stubTabStore) Set(tabID TabID, result *AnalysisResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[tabID] = result
}

func (s *stubTabStore) Delete(tabID TabID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.results, tabID)
}

type stubNotifier struct {
	mu        sync.Mutex
	published []*AnalysisResult
}

func (n *stubNotifier) Publish(tabID TabID, result *AnalysisResult) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, result)
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.published)
}

var defaultExcluded = []string{"chrome://", "chrome-extension://", "file://", "about:"}

func newTestService(analyze func(url string) (*AnalysisResult, error)) (*GuardService, *stubDetector, *stubCache, *stubTabStore, *stubNotifier) {
	detector := &stubDetector{analyze: analyze}
	cache := newStubCache()
	tabs := newStubTabStore()
	notifier := &stubNotifier{}
	svc := NewGuardService(detector, cache, tabs, notifier, zap.NewNop(), defaultExcluded)
	return svc, detector, cache, tabs, notifier
}

func TestGuardService_ShouldAnalyze(t *testing.T) {
	svc, _, _, _, _ := newTestService(nil)

	tests := []struct {
		url      string
		eligible bool
	}{
		{"http://example.com", true},
		{"https://bank.example.com/login", true},
		{"chrome://settings", false},
		{"chrome-extension://abcdef/popup.html", false},
		{"file:///home/user/doc.html", false},
		{"about:blank", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.eligible, svc.ShouldAnalyze(tt.url))
		})
	}
}

func TestGuardService_ExcludedURLNeverReachesPipeline(t *testing.T) {
	svc, detector, cache, tabs, _ := newTestService(func(url string) (*AnalysisResult, error) {
		return &AnalysisResult{Classification: ClassificationSafe}, nil
	})

	svc.AnalyzeNavigation(context.Background(), 1, "chrome://settings")

	assert.Equal(t, 0, detector.callCount())
	assert.Equal(t, 0, cache.Len())
	_, ok := tabs.Get(1)
	assert.False(t, ok)
}

func TestGuardService_SuccessPopulatesCacheAndTabStore(t *testing.T) {
	svc, detector, cache, tabs, notifier := newTestService(func(url string) (*AnalysisResult, error) {
		return &AnalysisResult{Classification: ClassificationSafe, Score: 3.2, Message: "ok"}, nil
	})

	svc.AnalyzeNavigation(context.Background(), 7, "http://example.com")

	assert.Equal(t, 1, detector.callCount())

	cached, ok := cache.Lookup("http://example.com")
	require.True(t, ok)
	assert.Equal(t, ClassificationSafe, cached.Classification)

	stored, ok := tabs.Get(7)
	require.True(t, ok)
	assert.Equal(t, cached, stored)

	assert.Equal(t, 0, notifier.count(), "safe result must not trigger a warning")
}

func TestGuardService_CacheHitSkipsAPI(t *testing.T) {
	svc, detector, cache, tabs, _ := newTestService(func(url string) (*AnalysisResult, error) {
		return &AnalysisResult{Classification: ClassificationSafe}, nil
	})

	cache.Insert("http://example.com", &AnalysisResult{Classification: ClassificationSuspicious, Message: "cached"})

	svc.AnalyzeNavigation(context.Background(), 3, "http://example.com")

	assert.Equal(t, 0, detector.callCount(), "valid cache entry must suppress the API call")

	stored, ok := tabs.Get(3)
	require.True(t, ok)
	assert.Equal(t, "cached", stored.Message)
}

func TestGuardService_PhishingPublishesWarning(t *testing.T) {
	svc, _, _, _, notifier := newTestService(func(url string) (*AnalysisResult, error) {
		return &AnalysisResult{Classification: ClassificationPhishing, Score: 92.3, Message: "bad"}, nil
	})

	svc.AnalyzeNavigation(context.Background(), 2, "http://evil.example.com")

	require.Equal(t, 1, notifier.count())
	assert.Equal(t, ClassificationPhishing, notifier.published[0].Classification)
}

func TestGuardService_DetectorFailureDegradesSilently(t *testing.T) {
	svc, detector, cache, tabs, notifier := newTestService(func(url string) (*AnalysisResult, error) {
		return nil, errors.New("connection refused")
	})

	svc.AnalyzeNavigation(context.Background(), 4, "http://example.com")

	assert.Equal(t, 1, detector.callCount())
	assert.Equal(t, 0, cache.Len(), "failed analysis must not populate the cache")
	_, ok := tabs.Get(4)
	assert.False(t, ok, "failed analysis must not touch the tab store")
	assert.Equal(t, 0, notifier.count())
}

func TestGuardService_StaleResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	svc, _, cache, tabs, notifier := newTestService(func(url string) (*AnalysisResult, error) {
		if url == "http://slow.example.com" {
			<-release
			return &AnalysisResult{Classification: ClassificationPhishing, Message: "slow"}, nil
		}
		return &AnalysisResult{Classification: ClassificationSafe, Message: "fast"}, nil
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		svc.AnalyzeNavigation(context.Background(), 1, "http://slow.example.com")
	}()

	// A later navigation in the same tab completes first.
	time.Sleep(10 * time.Millisecond)
	svc.AnalyzeNavigation(context.Background(), 1, "http://fast.example.com")

	close(release)
	wg.Wait()

	stored, ok := tabs.Get(1)
	require.True(t, ok)
	assert.Equal(t, "fast", stored.Message, "stale response must not overwrite the newer tab result")
	assert.Equal(t, 0, notifier.count(), "stale phishing result must not trigger a warning")

	// The slow result is still valid for its own URL.
	cached, ok := cache.Lookup("http://slow.example.com")
	require.True(t, ok)
	assert.Equal(t, "slow", cached.Message)
}

func TestGuardService_CloseTabDropsState(t *testing.T) {
	svc, _, _, tabs, _ := newTestService(func(url string) (*AnalysisResult, error) {
		return &AnalysisResult{Classification: ClassificationSafe}, nil
	})

	svc.AnalyzeNavigation(context.Background(), 9, "http://example.com")
	_, ok := tabs.Get(9)
	require.True(t, ok)

	svc.CloseTab(9)
	_, ok = tabs.Get(9)
	assert.False(t, ok)
}
