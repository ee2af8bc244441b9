package overlay

import (
	"sync"

	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// Controller models the warning overlay of a single page context. At most
// one warning is active at a time: showing a new one replaces the current
// one rather than stacking. The overlay offers exactly two actions, go back
// and proceed, with no other side effects.
type Controller struct {
	mu      sync.Mutex
	logger  *zap.Logger
	tabID   core.TabID
	history []string
	current string
	warning *core.AnalysisResult
}

// NewController creates a controller for a tab's page context.
func NewController(tabID core.TabID, logger *zap.Logger) *Controller {
	return &Controller{
		tabID:  tabID,
		logger: logger,
	}
}

// Navigate records a navigation. The previous URL is pushed onto the page's
// history stack and any active warning is discarded with the old page.
func (c *Controller) Navigate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != "" {
		c.history = append(c.history, c.current)
	}
	c.current = url
	c.warning = nil
}

// Show presents a warning for the current page, replacing any existing one.
func (c *Controller) Show(result *core.AnalysisResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.warning != nil {
		c.logger.Debug("Replacing existing warning overlay",
			zap.Int("tab_id", int(c.tabID)))
	}
	c.warning = result
}

// Active returns the currently displayed warning, if any.
func (c *Controller) Active() (*core.AnalysisResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.warning == nil {
		return nil, false
	}
	return c.warning, true
}

// GoBack dismisses the warning and navigates to the previous history entry.
// It reports the URL navigated to, or false when there is no history.
func (c *Controller) GoBack() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.warning = nil

	if len(c.history) == 0 {
		return "", false
	}

	c.current = c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
	return c.current, true
}

// Proceed dismisses the warning with no further effect.
func (c *Controller) Proceed() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.warning = nil
}

// CurrentURL returns the page's current URL.
func (c *Controller) CurrentURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.current
}
