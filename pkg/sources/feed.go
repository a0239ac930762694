// Package sources defines the inbound record feeds the engine consumes:
// named, typed streams of entity records to validate and correct. The engine
// is agnostic to whether records came from a broker, an API poll or manual
// entry.
package sources

import (
	"context"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// RecordHandler processes one inbound record. Returning an error leaves the
// record unacknowledged so the feed may redeliver it.
type RecordHandler func(ctx context.Context, dataType, entityID string, record models.Record) error

// Feed is a running source of records.
type Feed interface {
	Start(ctx context.Context, handler RecordHandler) error
	Stop(ctx context.Context) error
}
