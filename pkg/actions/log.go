package actions

import (
	"context"
	"log/slog"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/registry"
)

// Log writes a message at a configured level. Useful as a tracer step in a
// workflow under development. Step config: "message", optional "level".
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger.With("module", "log_action")}
}

func (a *Log) ID() string { return "log" }

func (a *Log) Execute(_ context.Context, record models.Record, config map[string]any) (registry.ActionResult, error) {
	message, _ := config["message"].(string)
	level, _ := config["level"].(string)

	logger := a.logger.With("record_fields", len(record))

	switch level {
	case "debug":
		logger.Debug(message)
	case "warn", "warning":
		logger.Warn(message)
	case "error":
		logger.Error(message)
	default:
		logger.Info(message)
	}

	return registry.ActionResult{Success: true, Confidence: 100}, nil
}
