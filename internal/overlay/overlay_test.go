package overlay

import (
	"testing"

	"github.com/phishguard/phishguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func warning(msg string) *core.AnalysisResult {
	return &core.AnalysisResult{Classification: core.ClassificationPhishing, Message: msg}
}

func TestController_ShowReplacesExistingWarning(t *testing.T) {
	c := NewController(1, zap.NewNop())
	c.Navigate("http://evil.example.com")

	c.Show(warning("first"))
	c.Show(warning("second"))

	active, ok := c.Active()
	require.True(t, ok)
	assert.Equal(t, "second", active.Message, "warnings replace, never stack")
}

func TestController_ProceedDismissesOnly(t *testing.T) {
	c := NewController(1, zap.NewNop())
	c.Navigate("http://safe.example.com")
	c.Navigate("http://evil.example.com")
	c.Show(warning("danger"))

	c.Proceed()

	_, ok := c.Active()
	assert.False(t, ok)
	assert.Equal(t, "http://evil.example.com", c.CurrentURL(), "proceed must not navigate")
}

func TestController_GoBackNavigatesToPreviousEntry(t *testing.T) {
	c := NewController(1, zap.NewNop())
	c.Navigate("http://start.example.com")
	c.Navigate("http://evil.example.com")
	c.Show(warning("danger"))

	url, ok := c.GoBack()
	require.True(t, ok)
	assert.Equal(t, "http://start.example.com", url)

	_, active := c.Active()
	assert.False(t, active)
}

func TestController_GoBackWithoutHistory(t *testing.T) {
	c := NewController(1, zap.NewNop())
	c.Navigate("http://only.example.com")
	c.Show(warning("danger"))

	_, ok := c.GoBack()
	assert.False(t, ok)

	_, active := c.Active()
	assert.False(t, active, "the warning is dismissed even with no history")
}

func TestController_NavigationClearsWarning(t *testing.T) {
	c := NewController(1, zap.NewNop())
	c.Navigate("http://evil.example.com")
	c.Show(warning("danger"))

	c.Navigate("http://next.example.com")

	_, ok := c.Active()
	assert.False(t, ok, "a warning belongs to the page it was shown on")
}
