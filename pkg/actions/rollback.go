package actions

import (
	"context"
	"log/slog"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/registry"
)

// RestoreOriginalName is the registered name of the built-in rollback
// handler.
const RestoreOriginalName = "restore_original"

// NewRestoreOriginal returns a rollback handler that discards every merged
// correction by restoring the execution's working record to the original
// snapshot taken at execution start.
func NewRestoreOriginal(logger *slog.Logger) registry.RollbackHandler {
	logger = logger.With("module", "rollback")

	return func(_ context.Context, execution *models.Execution) error {
		execution.Record = execution.Original.Clone()

		logger.Info("Restored record to pre-execution state",
			"execution_id", execution.ID,
			"discarded_corrections", len(execution.Corrections))

		return nil
	}
}
