package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/finsight/internal/common"
)

func TestPublishDeliversToAllSubscribers(t *testing.T) {
	bus := NewBus(common.NewSilentLogger())

	var mu sync.Mutex
	var got []string

	bus.Subscribe("topic.a", func(ctx context.Context, ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, "first:"+ev.TraceID)
		return nil
	})
	bus.Subscribe("topic.a", func(ctx context.Context, ev Event) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, "second:"+ev.TraceID)
		return nil
	})

	bus.Publish(context.Background(), Event{Topic: "topic.a", TraceID: "t1"})
	bus.Wait()

	require.Len(t, got, 2)
	assert.Contains(t, got, "first:t1")
	assert.Contains(t, got, "second:t1")
}

func TestPublishOnlyMatchingTopic(t *testing.T) {
	bus := NewSynchronousBus(common.NewSilentLogger())

	var calls int
	bus.Subscribe("topic.a", func(ctx context.Context, ev Event) error {
		calls++
		return nil
	})

	bus.Publish(context.Background(), Event{Topic: "topic.b", TraceID: "t1"})
	assert.Zero(t, calls)

	bus.Publish(context.Background(), Event{Topic: "topic.a", TraceID: "t1"})
	assert.Equal(t, 1, calls)
}

func TestHandlerPanicDoesNotAbortSiblings(t *testing.T) {
	bus := NewSynchronousBus(common.NewSilentLogger())

	var survived bool
	bus.Subscribe("topic.a", func(ctx context.Context, ev Event) error {
		panic("boom")
	})
	bus.Subscribe("topic.a", func(ctx context.Context, ev Event) error {
		survived = true
		return nil
	})

	bus.Publish(context.Background(), Event{Topic: "topic.a", TraceID: "t1"})
	assert.True(t, survived)
}

func TestHandlerErrorIsNotFatal(t *testing.T) {
	bus := NewSynchronousBus(common.NewSilentLogger())

	bus.Subscribe("topic.a", func(ctx context.Context, ev Event) error {
		return errors.New("handler failure")
	})

	// Must not panic or propagate.
	bus.Publish(context.Background(), Event{Topic: "topic.a", TraceID: "t1"})
}

func TestPublishWithNoSubscribersIsNoOp(t *testing.T) {
	bus := NewBus(common.NewSilentLogger())
	bus.Publish(context.Background(), Event{Topic: "nobody.listens", TraceID: "t1"})
	bus.Wait()
}

func TestPayloadPassedThrough(t *testing.T) {
	bus := NewSynchronousBus(common.NewSilentLogger())

	type payload struct{ Value int }

	var got any
	bus.Subscribe("topic.a", func(ctx context.Context, ev Event) error {
		got = ev.Payload
		return nil
	})

	bus.Publish(context.Background(), Event{Topic: "topic.a", TraceID: "t1", Payload: payload{Value: 42}})

	p, ok := got.(payload)
	require.True(t, ok)
	assert.Equal(t, 42, p.Value)
}
