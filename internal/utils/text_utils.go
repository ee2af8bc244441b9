package utils

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// TruncateForDisplay shortens s to at most max bytes, appending an ellipsis.
// Truncation is presentation-only; callers must never write the result back
// to stored items. The cut is adjusted so the output stays valid UTF-8.
func TruncateForDisplay(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}

	truncated := s[:max]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	return truncated + "..."
}

// SanitizeUTF8 drops invalid UTF-8 sequences from s.
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}

	result := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			if _, size := utf8.DecodeRuneInString(s[i:]); size == 1 {
				continue
			}
		}
		result = append(result, r)
	}

	return string(result)
}

// Feature is one formatted feature entry for display.
type Feature struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// FormatFeatures returns up to max feature entries formatted for display,
// sorted by name for a deterministic order.
func FormatFeatures(features map[string]any, max int) []Feature {
	if len(features) == 0 {
		return nil
	}

	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > max {
		names = names[:max]
	}

	formatted := make([]Feature, 0, len(names))
	for _, name := range names {
		formatted = append(formatted, Feature{
			Name:  FormatFeatureName(name),
			Value: FormatFeatureValue(features[name]),
		})
	}

	return formatted
}

// FormatFeatureName turns a snake_case feature key into a title-cased label.
func FormatFeatureName(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FormatFeatureValue renders a feature value for display: booleans as
// Yes/No, whole numbers without a fraction, other numbers to two decimals.
func FormatFeatureValue(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case float64:
		if v == math.Trunc(v) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	case int:
		return fmt.Sprintf("%d", v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// TimeAgo renders how long ago t was relative to now, matching the history
// view's coarse buckets.
func TimeAgo(t, now time.Time) string {
	seconds := int(now.Sub(t).Seconds())

	switch {
	case seconds < 60:
		return "Just now"
	case seconds < 3600:
		return fmt.Sprintf("%d minutes ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%d hours ago", seconds/3600)
	case seconds < 604800:
		return fmt.Sprintf("%d days ago", seconds/86400)
	default:
		return t.Format("1/2/2006")
	}
}
