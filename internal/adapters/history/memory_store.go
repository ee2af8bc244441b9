package history

import (
	"context"
	"sync"

	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// MemoryStore is an in-memory implementation of the core.HistoryStore
// interface, used when durability is not required. Items are held most
// recent first and capped at the configured limit.
type MemoryStore struct {
	mu     sync.RWMutex
	items  []*core.HistoryItem
	theme  string
	limit  int
	logger *zap.Logger
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore(logger *zap.Logger, limit int) *MemoryStore {
	return &MemoryStore{
		limit:  limit,
		theme:  core.ThemeDark,
		logger: logger,
	}
}

// Record prepends an item and truncates to the limit.
func (s *MemoryStore) Record(ctx context.Context, item *core.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = append([]*core.HistoryItem{item}, s.items...)
	if len(s.items) > s.limit {
		s.items = s.items[:s.limit]
	}

	return nil
}

// List returns items passing the filter, most recent first.
func (s *MemoryStore) List(ctx context.Context, filter core.HistoryFilter) ([]*core.HistoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	filtered := make([]*core.HistoryItem, 0, len(s.items))
	for _, item := range s.items {
		if filter.Matches(item) {
			filtered = append(filtered, item)
		}
	}

	return filtered, nil
}

// Clear discards all items.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	return nil
}

// Theme returns the stored theme preference.
func (s *MemoryStore) Theme(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.theme, nil
}

// SetTheme stores the theme preference.
func (s *MemoryStore) SetTheme(ctx context.Context, theme string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.theme = theme
	return nil
}
