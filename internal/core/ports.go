package core

import (
	"context"
)

// DetectorClient defines the interface for the external detection API.
type DetectorClient interface {
	// AnalyzeURL submits a URL for phishing analysis.
	AnalyzeURL(ctx context.Context, url string) (*AnalysisResult, error)

	// AnalyzeEmail submits email content for phishing analysis.
	AnalyzeEmail(ctx context.Context, content string) (*AnalysisResult, error)

	// Chat forwards an assistant message with rolling history and page context.
	Chat(ctx context.Context, message string, history []ChatMessage, pageContext string) (string, error)

	// Ping probes the API root; any 2xx response means available.
	Ping(ctx context.Context) error
}

// ResultCache defines the interface for the URL result cache.
type ResultCache interface {
	// Lookup returns the cached result for an exact URL string, if present
	// and not expired.
	Lookup(url string) (*AnalysisResult, bool)

	// Insert stores a result under the URL, overwriting any prior entry and
	// refreshing its timestamp.
	Insert(url string, result *AnalysisResult)

	// Len returns the number of stored entries, expired ones included.
	Len() int
}

// TabStore defines the interface for the per-tab last analysis result.
type TabStore interface {
	// Get returns the last stored result for a tab.
	Get(tabID TabID) (*AnalysisResult, bool)

	// Set stores a result for a tab, replacing any prior entry.
	Set(tabID TabID, result *AnalysisResult)

	// Delete removes a tab's entry, typically when the tab closes.
	Delete(tabID TabID)
}

// HistoryStore defines the interface for the dashboard's persisted analysis
// history and preferences.
type HistoryStore interface {
	// Record prepends an item and truncates to the configured limit.
	Record(ctx context.Context, item *HistoryItem) error

	// List returns items passing the filter, most recent first.
	List(ctx context.Context, filter HistoryFilter) ([]*HistoryItem, error)

	// Clear discards all items and the persisted copy.
	Clear(ctx context.Context) error

	// Theme returns the stored theme preference, defaulting to dark.
	Theme(ctx context.Context) (string, error)

	// SetTheme stores the theme preference.
	SetTheme(ctx context.Context, theme string) error
}

// Notifier delivers adverse results to the rendering context of a tab.
// Delivery is best-effort: a missing or slow listener drops the event.
type Notifier interface {
	Publish(tabID TabID, result *AnalysisResult)
}
