package bus

import (
	"testing"
	"time"

	"github.com/phishguard/phishguard/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func phishing(msg string) *core.AnalysisResult {
	return &core.AnalysisResult{Classification: core.ClassificationPhishing, Message: msg}
}

func TestBus_PublishDelivers(t *testing.T) {
	b := New(zap.NewNop())

	events, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(1, phishing("warning"))

	select {
	case result := <-events:
		assert.Equal(t, "warning", result.Message)
	case <-time.After(time.Second):
		t.Fatal("expected delivery")
	}
}

func TestBus_PublishWithoutSubscriberIsDropped(t *testing.T) {
	b := New(zap.NewNop())

	// Must not panic or block.
	b.Publish(42, phishing("nobody home"))
}

func TestBus_PublishIsScopedToTab(t *testing.T) {
	b := New(zap.NewNop())

	events, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(2, phishing("other tab"))

	select {
	case <-events:
		t.Fatal("warning for another tab must not be delivered")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBus_SlowListenerDoesNotBlockPublisher(t *testing.T) {
	b := New(zap.NewNop())

	_, cancel := b.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Well past the subscriber buffer; the excess is dropped.
		for i := 0; i < subscriberBuffer*3; i++ {
			b.Publish(1, phishing("burst"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher must never block on a slow listener")
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	b := New(zap.NewNop())

	events, cancel := b.Subscribe(1)
	cancel()

	_, open := <-events
	require.False(t, open)

	// Publishing after cancel is a no-op.
	b.Publish(1, phishing("late"))
}
