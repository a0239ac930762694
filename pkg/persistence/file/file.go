// Package file provides a file-based record store for development and tests.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/persistence"
)

// Store implements persistence.RecordStore on top of one JSON file per
// entity under a root directory.
type Store struct {
	root string
	mu   sync.RWMutex
}

func NewStore(root string) *Store {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Store{root: cleanRoot}
}

func (s *Store) Get(ctx context.Context, entityID string) (models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(entityID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &persistence.StoreError{Op: "Get", EntityID: entityID, Err: persistence.ErrRecordNotFound}
		}

		return nil, &persistence.StoreError{Op: "Get", EntityID: entityID, Err: err}
	}

	var record models.Record

	err = json.Unmarshal(data, &record)
	if err != nil {
		return nil, &persistence.StoreError{Op: "Get", EntityID: entityID, Err: fmt.Errorf("corrupt record file: %w", err)}
	}

	return record, nil
}

func (s *Store) Put(ctx context.Context, entityID string, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.MkdirAll(s.root, 0o755)
	if err != nil {
		return &persistence.StoreError{Op: "Put", EntityID: entityID, Err: err}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return &persistence.StoreError{Op: "Put", EntityID: entityID, Err: err}
	}

	err = os.WriteFile(s.path(entityID), data, 0o644)
	if err != nil {
		return &persistence.StoreError{Op: "Put", EntityID: entityID, Err: err}
	}

	return nil
}

func (s *Store) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(s.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (s *Store) Close(_ context.Context) error {
	return nil
}

func (s *Store) path(entityID string) string {
	// Entity ids come from external feeds; keep them from escaping the root.
	safe := strings.ReplaceAll(entityID, string(os.PathSeparator), "_")

	return filepath.Join(s.root, safe+".json")
}
