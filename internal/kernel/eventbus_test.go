package kernel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"neo-alexandria/internal/domain/shared"
)

func TestEventBus_EmitDeliversToAllSubscribersInOrder(t *testing.T) {
	bus := NewEventBus(shared.NewFixedClock(time.Now()), zap.NewNop(), nil)
	var order []string

	bus.Subscribe(shared.EventResourceCreated, "first", func(_ context.Context, _ shared.Event) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe(shared.EventResourceCreated, "second", func(_ context.Context, _ shared.Event) error {
		order = append(order, "second")
		return nil
	})

	bus.Emit(context.Background(), shared.Event{Type: shared.EventResourceCreated})
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, 2, bus.SubscriberCount(shared.EventResourceCreated))
}

func TestEventBus_HandlerErrorDoesNotBlockSubsequentHandlers(t *testing.T) {
	bus := NewEventBus(shared.NewFixedClock(time.Now()), zap.NewNop(), nil)
	var secondRan bool

	bus.Subscribe(shared.EventResourceCreated, "failing", func(_ context.Context, _ shared.Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(shared.EventResourceCreated, "ok", func(_ context.Context, _ shared.Event) error {
		secondRan = true
		return nil
	})

	bus.Emit(context.Background(), shared.Event{Type: shared.EventResourceCreated})
	assert.True(t, secondRan)
}

func TestEventBus_HandlerPanicIsContained(t *testing.T) {
	bus := NewEventBus(shared.NewFixedClock(time.Now()), zap.NewNop(), nil)
	var secondRan bool

	bus.Subscribe(shared.EventResourceCreated, "panics", func(_ context.Context, _ shared.Event) error {
		panic("unexpected")
	})
	bus.Subscribe(shared.EventResourceCreated, "ok", func(_ context.Context, _ shared.Event) error {
		secondRan = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Emit(context.Background(), shared.Event{Type: shared.EventResourceCreated})
	})
	assert.True(t, secondRan)
}

func TestEventBus_RecentEventsBoundedAndOrdered(t *testing.T) {
	bus := NewEventBus(shared.NewFixedClock(time.Now()), zap.NewNop(), nil)
	for i := 0; i < 5; i++ {
		bus.Emit(context.Background(), shared.Event{Type: shared.EventResourceCreated, Payload: map[string]any{"i": i}})
	}

	recent := bus.RecentEvents(2)
	require.Len(t, recent, 2)
	assert.Equal(t, 3, recent[0].Payload["i"])
	assert.Equal(t, 4, recent[1].Payload["i"])

	all := bus.RecentEvents(0)
	assert.Len(t, all, 5)
}
