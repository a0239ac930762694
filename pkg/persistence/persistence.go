// Package persistence provides the record storage abstraction the engine
// validates and corrects against. Concrete transport is a collaborator
// concern; the engine only needs Get and Put.
package persistence

import (
	"context"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// RecordStore supplies and accepts the entities being validated and
// corrected. Implementations make no schema assumptions beyond the field
// rules the engine was configured with.
type RecordStore interface {
	Get(ctx context.Context, entityID string) (models.Record, error)
	Put(ctx context.Context, entityID string, record models.Record) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
