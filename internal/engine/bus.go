package engine

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/luhit123/neolink123-sub008/internal/model"
)

// EventType classifies a lifecycle event on the bus
type EventType string

const (
	EventAlertCreated      EventType = "created"
	EventAlertAcknowledged EventType = "acknowledged"
	EventAlertDismissed    EventType = "dismissed"
)

// Event is delivered to every subscriber with the full alert payload
type Event struct {
	Type  EventType    `json:"type"`
	Alert *model.Alert `json:"alert"`
}

type subscriber struct {
	fn     func(Event)
	active atomic.Bool
}

// Bus is a synchronous publish/subscribe fan-out for alert lifecycle
// events. Callbacks run in registration order on the publishing
// goroutine; subscribers do their own filtering (for example by patient).
type Bus struct {
	logger *zap.Logger
	mu     sync.Mutex
	subs   []*subscriber
}

// NewBus creates a new subscription bus
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger.Named("bus")}
}

// Subscribe registers a callback and returns the function that removes
// it. After the returned function is called no further events reach the
// callback, including publishes already in flight; a callback mid-
// execution at that moment is not interrupted.
func (b *Bus) Subscribe(fn func(Event)) func() {
	s := &subscriber{fn: fn}
	s.active.Store(true)

	b.mu.Lock()
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	return func() {
		s.active.Store(false)
		b.mu.Lock()
		for i, cur := range b.subs {
			if cur == s {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				break
			}
		}
		b.mu.Unlock()
	}
}

// Publish delivers the event to a snapshot of the current subscriber
// list. A subscriber that unsubscribes while the publish is in progress
// is skipped; a panicking subscriber is isolated so the remaining ones
// still receive the event.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	snapshot := make([]*subscriber, len(b.subs))
	copy(snapshot, b.subs)
	b.mu.Unlock()

	for _, s := range snapshot {
		if !s.active.Load() {
			continue
		}
		b.deliver(s, evt)
	}
}

func (b *Bus) deliver(s *subscriber, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Subscriber panicked during publish",
				zap.String("event", string(evt.Type)),
				zap.String("alert_id", evt.Alert.ID),
				zap.Any("panic", r))
		}
	}()
	s.fn(evt)
}
