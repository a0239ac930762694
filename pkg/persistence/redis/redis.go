// Package redis provides a Redis-backed record store for replicated
// deployments.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/persistence"
)

const keyPrefix = "shipshape:record:"

// Store implements persistence.RecordStore on a Redis instance or cluster.
type Store struct {
	client goredis.UniversalClient
}

func NewStore(url string) (*Store, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Store{client: goredis.NewClient(opts)}, nil
}

// NewStoreWithClient wraps an existing client, used by tests.
func NewStoreWithClient(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) Get(ctx context.Context, entityID string) (models.Record, error) {
	data, err := s.client.Get(ctx, keyPrefix+entityID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, &persistence.StoreError{Op: "Get", EntityID: entityID, Err: persistence.ErrRecordNotFound}
		}

		return nil, &persistence.StoreError{Op: "Get", EntityID: entityID, Err: err}
	}

	var record models.Record

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, &persistence.StoreError{Op: "Get", EntityID: entityID, Err: fmt.Errorf("corrupt record payload: %w", err)}
	}

	return record, nil
}

func (s *Store) Put(ctx context.Context, entityID string, record models.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return &persistence.StoreError{Op: "Put", EntityID: entityID, Err: err}
	}

	err = s.client.Set(ctx, keyPrefix+entityID, data, 0).Err()
	if err != nil {
		return &persistence.StoreError{Op: "Put", EntityID: entityID, Err: err}
	}

	return nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.client.Ping(ctx).Err()
	if err != nil {
		return &persistence.StoreError{Op: "HealthCheck", Err: persistence.ErrStoreUnavailable}
	}

	return nil
}

func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}
