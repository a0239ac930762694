package sources

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipshapehq/shipshape/pkg/models"
)

func TestStaticFeed_DeliversInOrder(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	feed := NewStaticFeed(logger, []Item{
		{DataType: "shipment", EntityID: "s-1", Record: models.Record{"weight": 10.0}},
		{DataType: "shipment", EntityID: "s-2", Record: models.Record{"weight": 20.0}},
	})

	var seen []string

	err := feed.Start(context.Background(), func(_ context.Context, dataType, entityID string, _ models.Record) error {
		assert.Equal(t, "shipment", dataType)
		seen = append(seen, entityID)

		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1", "s-2"}, seen)
	assert.NoError(t, feed.Stop(context.Background()))
}

func TestStaticFeed_StopsOnHandlerError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	feed := NewStaticFeed(logger, []Item{
		{EntityID: "s-1"},
		{EntityID: "s-2"},
	})

	calls := 0

	err := feed.Start(context.Background(), func(_ context.Context, _, _ string, _ models.Record) error {
		calls++

		return errors.New("downstream unavailable")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestStaticFeed_HonorsCancellation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	feed := NewStaticFeed(logger, []Item{{EntityID: "s-1"}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := feed.Start(ctx, func(_ context.Context, _, _ string, _ models.Record) error {
		t.Fatal("handler must not run after cancellation")

		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
