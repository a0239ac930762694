package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipshapehq/shipshape/pkg/channels/gochannel"
	"github.com/shipshapehq/shipshape/pkg/eventbus"
	"github.com/shipshapehq/shipshape/pkg/events"
	"github.com/shipshapehq/shipshape/pkg/models"
)

func testBus(t *testing.T) eventbus.EventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	return eventbus.NewWatermillEventBus(pub, sub)
}

func TestWatermillEventBus_PublishSubscribeRoundTrip(t *testing.T) {
	bus := testBus(t)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.ValidationCompleted, 1)
	require.NoError(t, bus.Handle(events.ValidationCompletedEvent, func(_ context.Context, event any) error {
		completed, ok := event.(*events.ValidationCompleted)
		require.True(t, ok)
		received <- completed

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	sent := events.ValidationCompleted{
		BaseEvent: events.BaseEvent{
			ID:        bus.GenerateID(),
			Type:      events.ValidationCompletedEvent,
			Timestamp: time.Now().UTC(),
			EntityID:  "ship-1",
		},
		DataType: "shipment",
		Result:   &models.ValidationResult{Valid: true, Score: 100, EntityID: "ship-1"},
	}
	require.NoError(t, bus.Publish(ctx, "ship-1", sent))

	select {
	case got := <-received:
		assert.Equal(t, "ship-1", got.EntityID)
		assert.Equal(t, "shipment", got.DataType)
		require.NotNil(t, got.Result)
		assert.Equal(t, 100, got.Result.Score)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledTypesAreSkipped(t *testing.T) {
	bus := testBus(t)
	t.Cleanup(func() { _ = bus.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan *events.WorkflowCompleted, 1)
	require.NoError(t, bus.Handle(events.WorkflowCompletedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.WorkflowCompleted)

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	// No handler registered for this type; it must be acked and dropped.
	require.NoError(t, bus.Publish(ctx, "ship-1", events.ValidationCompleted{
		BaseEvent: events.BaseEvent{Type: events.ValidationCompletedEvent},
		DataType:  "shipment",
	}))

	require.NoError(t, bus.Publish(ctx, "ship-1", events.WorkflowCompleted{
		BaseEvent:  events.BaseEvent{Type: events.WorkflowCompletedEvent, EntityID: "ship-1"},
		WorkflowID: "fix-container",
	}))

	select {
	case got := <-received:
		assert.Equal(t, "fix-container", got.WorkflowID)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := testBus(t)
	t.Cleanup(func() { _ = bus.Close() })

	assert.NotEmpty(t, bus.GenerateID())
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
