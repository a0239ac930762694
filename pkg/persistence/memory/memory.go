// Package memory provides an in-memory record store for tests.
package memory

import (
	"context"
	"sync"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/persistence"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]models.Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]models.Record)}
}

func (s *Store) Get(_ context.Context, entityID string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[entityID]
	if !ok {
		return nil, &persistence.StoreError{Op: "Get", EntityID: entityID, Err: persistence.ErrRecordNotFound}
	}

	return record.Clone(), nil
}

func (s *Store) Put(_ context.Context, entityID string, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[entityID] = record.Clone()

	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}
