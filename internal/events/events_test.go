package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestBus(t *testing.T, cfg *EventBusConfig) EventBus {
	t.Helper()
	bus := NewInMemoryEventBus(cfg, zaptest.NewLogger(t))
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = bus.Stop(ctx)
	})
	return bus
}

func TestPublish_RunsMatchingHandlers(t *testing.T) {
	bus := newTestBus(t, nil)

	var got []int64
	require.NoError(t, bus.Subscribe(ReviewCreated, NewTypedEventHandler("collect",
		func(_ context.Context, e *ReviewCreatedEvent) error {
			got = append(got, e.ReviewID)
			return nil
		})))
	require.NoError(t, bus.Subscribe(ReviewLiked, NewEventHandlerFunc("never", func(context.Context, Event) error {
		t.Fatal("liked handler must not run")
		return nil
	})))

	require.NoError(t, bus.Publish(context.Background(), NewReviewCreatedEvent(7, 1)))
	assert.Equal(t, []int64{7}, got)

	stats := bus.Stats()
	assert.Equal(t, int64(1), stats.EventsPublished)
	assert.Equal(t, int64(1), stats.EventsProcessed)
	assert.Equal(t, 2, stats.HandlersCount)
}

func TestPublish_JoinsHandlerErrors(t *testing.T) {
	bus := newTestBus(t, nil)
	boom := errors.New("boom")

	require.NoError(t, bus.Subscribe(BadgeAwarded, NewEventHandlerFunc("fails", func(context.Context, Event) error {
		return boom
	})))
	require.NoError(t, bus.Subscribe(BadgeAwarded, NewEventHandlerFunc("panics", func(context.Context, Event) error {
		panic("bad handler")
	})))

	err := bus.Publish(context.Background(), NewBadgeAwardedEvent(1, "foodie", time.Now()))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "handler panicked")
	assert.Equal(t, int64(1), bus.Stats().EventsFailed)
}

func TestPublish_TypeMismatch(t *testing.T) {
	bus := newTestBus(t, nil)
	require.NoError(t, bus.Subscribe(ReviewLiked, NewTypedEventHandler("typed",
		func(context.Context, *ReviewCreatedEvent) error { return nil })))

	liked := NewReviewLikedEvent(3, nil)
	err := bus.Publish(context.Background(), liked)
	assert.ErrorContains(t, err, "event type mismatch")
}

func TestPublishAsync_DeliversOnWorkers(t *testing.T) {
	bus := newTestBus(t, &EventBusConfig{BufferSize: 10, WorkerCount: 2, HandlerTimeout: time.Second})

	var wg sync.WaitGroup
	var mu sync.Mutex
	var seen []int64
	require.NoError(t, bus.Subscribe(EventCompleted, NewTypedEventHandler("participants",
		func(_ context.Context, e *EventCompletedEvent) error {
			defer wg.Done()
			mu.Lock()
			seen = append(seen, e.EventID)
			mu.Unlock()
			return nil
		})))

	wg.Add(3)
	for id := int64(1); id <= 3; id++ {
		require.NoError(t, bus.PublishAsync(context.Background(), NewEventCompletedEvent(id, 1, nil)))
	}
	wg.Wait()

	assert.ElementsMatch(t, []int64{1, 2, 3}, seen)
}

func TestPublishAsync_QueueFull(t *testing.T) {
	// Not started, so nothing drains the queue.
	bus := NewInMemoryEventBus(&EventBusConfig{BufferSize: 1}, zaptest.NewLogger(t))

	require.NoError(t, bus.PublishAsync(context.Background(), NewReviewLikedEvent(1, nil)))
	err := bus.PublishAsync(context.Background(), NewReviewLikedEvent(2, nil))
	assert.ErrorContains(t, err, "queue is full")
}

func TestHandlerTimeout(t *testing.T) {
	bus := newTestBus(t, &EventBusConfig{BufferSize: 1, WorkerCount: 1, HandlerTimeout: 10 * time.Millisecond})
	require.NoError(t, bus.Subscribe(ReviewLiked, NewEventHandlerFunc("slow", func(ctx context.Context, _ Event) error {
		<-ctx.Done()
		return ctx.Err()
	})))

	err := bus.Publish(context.Background(), NewReviewLikedEvent(1, nil))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHealth_AfterStop(t *testing.T) {
	bus := NewInMemoryEventBus(nil, zaptest.NewLogger(t))
	require.NoError(t, bus.Start(context.Background()))
	assert.NoError(t, bus.Health())

	require.NoError(t, bus.Stop(context.Background()))
	assert.Error(t, bus.Health())
}

func TestStop_DrainsQueuedEvents(t *testing.T) {
	bus := NewInMemoryEventBus(&EventBusConfig{BufferSize: 10, WorkerCount: 1, HandlerTimeout: time.Second}, zaptest.NewLogger(t))

	var handled atomic.Int64
	require.NoError(t, bus.Subscribe(ReviewCreated, NewEventHandlerFunc("slow", func(context.Context, Event) error {
		time.Sleep(20 * time.Millisecond)
		handled.Add(1)
		return nil
	})))
	require.NoError(t, bus.Start(context.Background()))

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, bus.PublishAsync(context.Background(), NewReviewCreatedEvent(i, 1)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bus.Stop(ctx))

	assert.Equal(t, int64(5), handled.Load())
	stats := bus.Stats()
	assert.Equal(t, int64(5), stats.EventsProcessed)
	assert.Zero(t, stats.QueueDepth)

	err := bus.PublishAsync(context.Background(), NewReviewCreatedEvent(6, 1))
	assert.ErrorContains(t, err, "stopped")
	assert.Equal(t, int64(5), bus.Stats().EventsPublished)
}

func TestEventCompleted_Participants(t *testing.T) {
	e := NewEventCompletedEvent(9, 1, []int64{2, 1, 3, 2})
	assert.Equal(t, []int64{1, 2, 3}, e.Participants())
	assert.Equal(t, EventCompleted, e.GetEventType())
	require.NotNil(t, e.GetUserID())
	assert.Equal(t, int64(1), *e.GetUserID())
}

func TestGenerateEventID(t *testing.T) {
	a, b := GenerateEventID(), GenerateEventID()
	assert.True(t, strings.HasPrefix(a, "evt_"))
	assert.Len(t, a, len("evt_")+32)
	assert.NotEqual(t, a, b)
}
