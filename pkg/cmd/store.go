package cmd

import (
	"fmt"
	"strings"

	"github.com/shipshapehq/shipshape/pkg/persistence"
	"github.com/shipshapehq/shipshape/pkg/persistence/file"
	"github.com/shipshapehq/shipshape/pkg/persistence/memory"
	"github.com/shipshapehq/shipshape/pkg/persistence/redis"
)

// NewRecordStore creates a record store from a database URL. The scheme
// selects the backend: redis URLs get Redis, file URLs (or bare paths) get
// the file store, and an empty or memory URL keeps records in-process.
func NewRecordStore(databaseURL string) persistence.RecordStore {
	switch parseStoreProvider(databaseURL) {
	case "memory":
		return memory.NewStore()
	case "redis":
		store, err := redis.NewStore(databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create Redis record store: %w", err))
		}

		return store
	default:
		return file.NewStore(strings.TrimPrefix(databaseURL, "file://"))
	}
}

func parseStoreProvider(databaseURL string) string {
	if databaseURL == "" || databaseURL == "memory://" {
		return "memory"
	}

	if strings.HasPrefix(databaseURL, "redis://") || strings.HasPrefix(databaseURL, "rediss://") {
		return "redis"
	}

	return "file"
}
