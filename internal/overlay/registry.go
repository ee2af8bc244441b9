package overlay

import (
	"sync"

	"github.com/phishguard/phishguard/internal/bus"
	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// Registry tracks one overlay controller per open tab and wires each to the
// warning bus. Controllers are created lazily on first use and torn down
// when the tab closes.
type Registry struct {
	mu      sync.Mutex
	bus     *bus.Bus
	logger  *zap.Logger
	pages   map[core.TabID]*Controller
	cancels map[core.TabID]func()
}

// NewRegistry creates a registry backed by the given bus.
func NewRegistry(b *bus.Bus, logger *zap.Logger) *Registry {
	return &Registry{
		bus:     b,
		logger:  logger,
		pages:   make(map[core.TabID]*Controller),
		cancels: make(map[core.TabID]func()),
	}
}

// Get returns the controller for a tab, creating and subscribing it if
// needed.
func (r *Registry) Get(tabID core.TabID) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.pages[tabID]; ok {
		return c
	}

	c := NewController(tabID, r.logger)
	events, cancel := r.bus.Subscribe(tabID)
	r.pages[tabID] = c
	r.cancels[tabID] = cancel

	go func() {
		for result := range events {
			c.Show(result)
		}
	}()

	return c
}

// Lookup returns the controller for a tab without creating one.
func (r *Registry) Lookup(tabID core.TabID) (*Controller, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.pages[tabID]
	return c, ok
}

// Close tears down a tab's controller and its bus subscription.
func (r *Registry) Close(tabID core.TabID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cancel, ok := r.cancels[tabID]; ok {
		cancel()
		delete(r.cancels, tabID)
	}
	delete(r.pages, tabID)
}
