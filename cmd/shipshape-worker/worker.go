// Package main provides the ShipShape worker: it consumes record feeds, runs
// quality workflows, dispatches event-triggered workflows from the bus and
// reaps expired approvals.
package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shipshapehq/shipshape/pkg/cmd"
	"github.com/shipshapehq/shipshape/pkg/eventbus"
	"github.com/shipshapehq/shipshape/pkg/events"
	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/sources"
	"github.com/shipshapehq/shipshape/pkg/workflow"
)

type Worker struct {
	id       string
	logger   *slog.Logger
	engine   *cmd.Engine
	eventBus eventbus.EventBus
	feed     sources.Feed
	reaper   *workflow.Reaper
}

func NewWorker(id string, logger *slog.Logger, engine *cmd.Engine, eventBus eventbus.EventBus, feed sources.Feed) *Worker {
	return &Worker{
		id:       id,
		logger:   logger,
		engine:   engine,
		eventBus: eventBus,
		feed:     feed,
		reaper:   workflow.NewReaper(logger, engine.Orchestrator, ""),
	}
}

// Start runs until the context is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	if err := w.eventBus.Handle(events.AnomalyDetectedEvent, w.handleAnomalyDetected); err != nil {
		return fmt.Errorf("registering anomaly handler: %w", err)
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		return fmt.Errorf("subscribing to event bus: %w", err)
	}

	if err := w.reaper.Start(ctx); err != nil {
		return err
	}
	defer w.reaper.Stop()

	if w.feed != nil {
		if err := w.feed.Start(ctx, w.handleRecord); err != nil {
			return fmt.Errorf("starting record feed: %w", err)
		}

		defer func() {
			if err := w.feed.Stop(context.Background()); err != nil {
				w.logger.Error("Failed to stop record feed", "error", err)
			}
		}()
	}

	w.logger.InfoContext(ctx, "Worker started")

	<-ctx.Done()

	w.logger.Info("Worker shutting down")

	return nil
}

// handleRecord runs one feed record through the full quality pipeline.
func (w *Worker) handleRecord(ctx context.Context, dataType, entityID string, record models.Record) error {
	report, err := w.engine.Service.Process(ctx, dataType, entityID, record)
	if err != nil {
		w.logger.ErrorContext(ctx, "Processing feed record failed",
			"data_type", dataType, "entity_id", entityID, "error", err)

		return err
	}

	logger := w.logger.With("data_type", dataType, "entity_id", entityID, "score", report.Initial.Score)

	switch {
	case report.Final != nil:
		logger.InfoContext(ctx, "Record processed", "final_score", report.Final.Score, "executions", len(report.Executions))
	case len(report.Executions) > 0:
		logger.InfoContext(ctx, "Record suspended for approval", "executions", len(report.Executions))
	default:
		logger.DebugContext(ctx, "Record processed, no workflow matched")
	}

	return nil
}

// handleAnomalyDetected dispatches workflows triggered by the anomaly event
// published on the bus.
func (w *Worker) handleAnomalyDetected(ctx context.Context, event any) error {
	detected, ok := event.(*events.AnomalyDetected)
	if !ok {
		return fmt.Errorf("unexpected event payload %T", event)
	}

	executions, err := w.engine.Service.ProcessEvent(ctx,
		string(events.AnomalyDetectedEvent), detected.DataType, detected.EntityID, detected.Record)
	if err != nil {
		return err
	}

	if len(executions) > 0 {
		w.logger.InfoContext(ctx, "Anomaly workflows dispatched",
			"entity_id", detected.EntityID, "executions", len(executions))
	}

	return nil
}
