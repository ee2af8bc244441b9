package core

import (
	"strings"
	"time"
)

// Classification is the risk tag assigned by the detection API.
type Classification string

const (
	ClassificationSafe       Classification = "safe"
	ClassificationSuspicious Classification = "suspicious"
	ClassificationPhishing   Classification = "phishing"
)

// AnalysisResult is the payload returned by the detection API for a URL or
// email analysis. The classification semantics are owned by the API; this
// layer only branches on the tag.
type AnalysisResult struct {
	Classification Classification `json:"classification"`
	Score          float64        `json:"score"`
	Message        string         `json:"message"`
	Features       map[string]any `json:"features,omitempty"`

	// Set client-side, not part of the wire payload.
	AnalyzedAt time.Time `json:"-"`
	RequestID  string    `json:"-"`
}

// IsAdverse reports whether the result should trigger a warning overlay.
func (r *AnalysisResult) IsAdverse() bool {
	return strings.EqualFold(string(r.Classification), string(ClassificationPhishing))
}

// AnalysisType distinguishes URL analyses from email analyses.
type AnalysisType string

const (
	AnalysisTypeURL   AnalysisType = "url"
	AnalysisTypeEmail AnalysisType = "email"
)

// HistoryItem is one entry in the dashboard's analysis history.
type HistoryItem struct {
	ID        int64           `json:"id"`
	Type      AnalysisType    `json:"type"`
	Input     string          `json:"input"`
	Result    *AnalysisResult `json:"result"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewHistoryItem creates a history item for a completed analysis. The ID is
// the creation time in milliseconds, a monotonic proxy for ordering.
func NewHistoryItem(analysisType AnalysisType, input string, result *AnalysisResult, now time.Time) *HistoryItem {
	return &HistoryItem{
		ID:        now.UnixMilli(),
		Type:      analysisType,
		Input:     input,
		Result:    result,
		Timestamp: now,
	}
}

// HistoryFilter selects a subset of history items for display.
type HistoryFilter string

const (
	FilterAll        HistoryFilter = "all"
	FilterURL        HistoryFilter = "url"
	FilterEmail      HistoryFilter = "email"
	FilterSafe       HistoryFilter = "safe"
	FilterSuspicious HistoryFilter = "suspicious"
	FilterPhishing   HistoryFilter = "phishing"
)

// ParseHistoryFilter validates a filter value. An empty string means "all".
func ParseHistoryFilter(s string) (HistoryFilter, bool) {
	switch HistoryFilter(strings.ToLower(s)) {
	case "":
		return FilterAll, true
	case FilterAll, FilterURL, FilterEmail, FilterSafe, FilterSuspicious, FilterPhishing:
		return HistoryFilter(strings.ToLower(s)), true
	default:
		return "", false
	}
}

// Matches reports whether an item passes the filter. Type filters compare on
// the analysis type; classification filters compare case-insensitively.
func (f HistoryFilter) Matches(item *HistoryItem) bool {
	switch f {
	case FilterAll, "":
		return true
	case FilterURL, FilterEmail:
		return item.Type == AnalysisType(f)
	default:
		return item.Result != nil &&
			strings.EqualFold(string(item.Result.Classification), string(f))
	}
}

// ChatMessage is one turn in the dashboard assistant conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TabID identifies the page/tab an analysis or warning pertains to.
type TabID int

// Theme values for the dashboard preference flag.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// ValidTheme reports whether s is an accepted theme value.
func ValidTheme(s string) bool {
	return s == ThemeDark || s == ThemeLight
}
