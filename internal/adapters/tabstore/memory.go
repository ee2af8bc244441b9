package tabstore

import (
	"sync"

	"github.com/phishguard/phishguard/internal/core"
)

// Memory holds the last analysis result per tab, implementing the
// core.TabStore interface. Entries are replaced on overwrite and removed
// when the tab closes; there is no expiry.
type Memory struct {
	mu      sync.RWMutex
	results map[core.TabID]*core.AnalysisResult
}

// NewMemory creates an empty tab store.
func NewMemory() *Memory {
	return &Memory{
		results: make(map[core.TabID]*core.AnalysisResult),
	}
}

// Get returns the last stored result for a tab.
func (m *Memory) Get(tabID core.TabID) (*core.AnalysisResult, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result, ok := m.results[tabID]
	return result, ok
}

// Set stores a result for a tab, replacing any prior entry.
func (m *Memory) Set(tabID core.TabID, result *core.AnalysisResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.results[tabID] = result
}

// Delete removes a tab's entry.
func (m *Memory) Delete(tabID core.TabID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.results, tabID)
}
