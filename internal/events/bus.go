// Package events provides the in-process signal bus that drives the
// research workflow. Delivery is at-least-once and unordered: handlers
// must be idempotent and must tolerate redelivery.
package events

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/bobmcallan/finsight/internal/common"
)

// Event is one published signal. TraceID scopes the event to a query
// instance; Payload is topic-specific.
type Event struct {
	Topic   string
	TraceID string
	Payload any
}

// Handler processes one delivered event. Errors are logged, not retried —
// workflow handlers signal progress by publishing completion events, never
// by failing silently.
type Handler func(ctx context.Context, ev Event) error

// Bus is the publish/subscribe contract used by the workflow handlers.
type Bus interface {
	// Publish delivers the event to every subscriber of its topic
	Publish(ctx context.Context, ev Event)

	// Subscribe registers a handler for a topic. Must be called before
	// the first Publish for that topic.
	Subscribe(topic string, h Handler)
}

// InProcBus is an in-memory Bus. Each delivery runs in its own goroutine
// with panic recovery, so subscribers of the same topic proceed
// independently and in no guaranteed order.
type InProcBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *common.Logger
	wg       sync.WaitGroup

	// synchronous delivers events inline instead of on goroutines.
	// Used by tests that need deterministic interleavings.
	synchronous bool
}

// NewBus creates a new in-process event bus.
func NewBus(logger *common.Logger) *InProcBus {
	return &InProcBus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

// NewSynchronousBus creates a bus that delivers events inline on the
// publisher's goroutine. Handlers still see at-least-once semantics when a
// publisher republishes.
func NewSynchronousBus(logger *common.Logger) *InProcBus {
	b := NewBus(logger)
	b.synchronous = true
	return b
}

// Subscribe registers a handler for a topic.
func (b *InProcBus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers the event to all subscribers of its topic.
func (b *InProcBus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	subs := b.handlers[ev.Topic]
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.logger.Debug().Str("topic", ev.Topic).Str("trace_id", ev.TraceID).Msg("No subscribers for topic")
		return
	}

	for _, h := range subs {
		if b.synchronous {
			b.deliver(ctx, h, ev)
			continue
		}
		b.wg.Add(1)
		go func(h Handler) {
			defer b.wg.Done()
			b.deliver(ctx, h, ev)
		}(h)
	}
}

// deliver invokes one handler with panic recovery.
func (b *InProcBus) deliver(ctx context.Context, h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error().
				Str("topic", ev.Topic).
				Str("trace_id", ev.TraceID).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in event handler")
		}
	}()

	if err := h(ctx, ev); err != nil {
		b.logger.Warn().
			Str("topic", ev.Topic).
			Str("trace_id", ev.TraceID).
			Err(err).
			Msg("Event handler returned error")
	}
}

// Wait blocks until all in-flight deliveries have completed.
// Intended for tests and graceful shutdown.
func (b *InProcBus) Wait() {
	b.wg.Wait()
}
