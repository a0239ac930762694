package sources

import (
	"context"
	"log/slog"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// Item is one queued record for a static feed.
type Item struct {
	DataType string
	EntityID string
	Record   models.Record
}

// StaticFeed delivers a fixed set of records synchronously on Start. Useful
// for tests, replays and batch backfills from files.
type StaticFeed struct {
	logger *slog.Logger
	items  []Item
}

func NewStaticFeed(logger *slog.Logger, items []Item) *StaticFeed {
	return &StaticFeed{
		logger: logger.With("module", "static_feed"),
		items:  items,
	}
}

func (f *StaticFeed) Start(ctx context.Context, handler RecordHandler) error {
	for _, item := range f.items {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := handler(ctx, item.DataType, item.EntityID, item.Record); err != nil {
			f.logger.Error("Record handler failed", "entity_id", item.EntityID, "error", err)

			return err
		}
	}

	f.logger.Info("Static feed drained", "records", len(f.items))

	return nil
}

func (f *StaticFeed) Stop(_ context.Context) error {
	return nil
}
