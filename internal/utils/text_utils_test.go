package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateForDisplay(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short unchanged", "http://a.com", 100, "http://a.com"},
		{"exactly at limit", "abcde", 5, "abcde"},
		{"over limit", "abcdef", 5, "abcde..."},
		{"zero limit means no truncation", "abcdef", 0, "abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateForDisplay(tt.in, tt.max))
		})
	}
}

func TestTruncateForDisplay_KeepsValidUTF8(t *testing.T) {
	// Cut point lands inside a multi-byte rune.
	in := "héllo wörld"
	out := TruncateForDisplay(in, 2)

	assert.True(t, strings.HasSuffix(out, "..."))
	assert.True(t, len(out) <= 2+3)
	for _, r := range out {
		assert.NotEqual(t, '�', r)
	}
}

func TestFormatFeatureName(t *testing.T) {
	assert.Equal(t, "Has Ip Address", FormatFeatureName("has_ip_address"))
	assert.Equal(t, "Url Length", FormatFeatureName("url_length"))
	assert.Equal(t, "Domain", FormatFeatureName("domain"))
}

func TestFormatFeatureValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"true", true, "Yes"},
		{"false", false, "No"},
		{"whole float", 57.0, "57"},
		{"fractional float", 0.8234, "0.82"},
		{"int", 3, "3"},
		{"string", "example.com", "example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFeatureValue(tt.value))
		})
	}
}

func TestFormatFeatures_CapsAndSorts(t *testing.T) {
	features := map[string]any{
		"j_feat": 1.0, "i_feat": 2.0, "h_feat": 3.0, "g_feat": 4.0,
		"f_feat": 5.0, "e_feat": 6.0, "d_feat": 7.0, "c_feat": 8.0,
		"b_feat": 9.0, "a_feat": true,
	}

	formatted := FormatFeatures(features, 8)
	require.Len(t, formatted, 8, "only the first 8 entries are shown")
	assert.Equal(t, "A Feat", formatted[0].Name)
	assert.Equal(t, "Yes", formatted[0].Value)
	assert.Equal(t, "H Feat", formatted[7].Name)

	assert.Nil(t, FormatFeatures(nil, 8))
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now.Add(-30 * time.Second), "Just now"},
		{"minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"hours", now.Add(-3 * time.Hour), "3 hours ago"},
		{"days", now.Add(-48 * time.Hour), "2 days ago"},
		{"older than a week", now.Add(-10 * 24 * time.Hour), "6/5/2024"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TimeAgo(tt.t, now))
		})
	}
}
