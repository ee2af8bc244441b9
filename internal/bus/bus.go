package bus

import (
	"sync"

	"github.com/phishguard/phishguard/internal/core"
	"go.uber.org/zap"
)

// subscriberBuffer bounds how many undelivered warnings a listener may have
// pending before further ones are dropped.
const subscriberBuffer = 4

// Bus is a typed per-tab publish/subscribe channel, the in-process
// replacement for host-runtime tab messaging. It implements the
// core.Notifier interface.
//
// Delivery is best-effort: publishing to a tab with no subscriber drops the
// event with a log line, and a subscriber whose buffer is full is skipped
// rather than blocked on.
type Bus struct {
	mu     sync.RWMutex
	subs   map[core.TabID]map[int]chan *core.AnalysisResult
	nextID int
	logger *zap.Logger
}

// New creates a new bus.
func New(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[core.TabID]map[int]chan *core.AnalysisResult),
		logger: logger,
	}
}

// Subscribe registers a listener for a tab's warnings. The returned cancel
// function removes the subscription and closes the channel.
func (b *Bus) Subscribe(tabID core.TabID) (<-chan *core.AnalysisResult, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *core.AnalysisResult, subscriberBuffer)
	if b.subs[tabID] == nil {
		b.subs[tabID] = make(map[int]chan *core.AnalysisResult)
	}
	id := b.nextID
	b.nextID++
	b.subs[tabID][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if chans, ok := b.subs[tabID]; ok {
			if sub, ok := chans[id]; ok {
				delete(chans, id)
				close(sub)
			}
			if len(chans) == 0 {
				delete(b.subs, tabID)
			}
		}
	}

	return ch, cancel
}

// Publish delivers a result to the tab's listeners, best-effort.
func (b *Bus) Publish(tabID core.TabID, result *core.AnalysisResult) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	chans, ok := b.subs[tabID]
	if !ok || len(chans) == 0 {
		b.logger.Debug("No listener for tab, dropping warning",
			zap.Int("tab_id", int(tabID)))
		return
	}

	for _, ch := range chans {
		select {
		case ch <- result:
		default:
			b.logger.Debug("Listener buffer full, dropping warning",
				zap.Int("tab_id", int(tabID)))
		}
	}
}
