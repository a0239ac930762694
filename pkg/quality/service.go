// Package quality is the facade over the whole engine: one entry point that
// validates a record, detects anomalies, dispatches matching correction
// workflows and reports the outcome.
package quality

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shipshapehq/shipshape/pkg/anomaly"
	"github.com/shipshapehq/shipshape/pkg/eventbus"
	"github.com/shipshapehq/shipshape/pkg/events"
	"github.com/shipshapehq/shipshape/pkg/metrics"
	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/persistence"
	"github.com/shipshapehq/shipshape/pkg/reconcile"
	"github.com/shipshapehq/shipshape/pkg/registry"
	"github.com/shipshapehq/shipshape/pkg/rules"
	"github.com/shipshapehq/shipshape/pkg/validation"
	"github.com/shipshapehq/shipshape/pkg/workflow"
)

// Config carries the facade's collaborators. Validator, Registry and
// Orchestrator are required; the rest are optional.
type Config struct {
	Logger       *slog.Logger
	Validator    *validation.Validator
	Anomalies    *anomaly.Registry
	Rules        *rules.Engine
	Profiles     *rules.ProfileManager
	Reconciler   *reconcile.Engine
	Registry     *registry.Registry
	Orchestrator *workflow.Orchestrator
	Store        persistence.RecordStore
	Publisher    eventbus.EventPublisher

	// Stats is the in-memory collector snapshots are read from. Sink
	// receives score observations and may fan out to exporters; it
	// defaults to Stats.
	Stats *metrics.Memory
	Sink  metrics.Sink
}

// Service orchestrates the validate, correct, re-validate pipeline.
type Service struct {
	logger       *slog.Logger
	validator    *validation.Validator
	anomalies    *anomaly.Registry
	rules        *rules.Engine
	profiles     *rules.ProfileManager
	reconciler   *reconcile.Engine
	registry     *registry.Registry
	orchestrator *workflow.Orchestrator
	matcher      *workflow.Matcher
	store        persistence.RecordStore
	publisher    eventbus.EventPublisher
	stats        *metrics.Memory
	sink         metrics.Sink
}

// Report is the outcome of one full pipeline run.
type Report struct {
	Initial    *models.ValidationResult `json:"initial"`
	Final      *models.ValidationResult `json:"final,omitempty"`
	Executions []*models.Execution      `json:"executions,omitempty"`
	Record     models.Record            `json:"record"`
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Validator == nil || cfg.Registry == nil || cfg.Orchestrator == nil {
		return nil, fmt.Errorf("quality service needs a validator, a registry and an orchestrator")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Stats == nil {
		cfg.Stats = metrics.NewMemory()
	}

	if cfg.Sink == nil {
		cfg.Sink = cfg.Stats
	}

	return &Service{
		logger:       cfg.Logger.With("module", "quality_service"),
		validator:    cfg.Validator,
		anomalies:    cfg.Anomalies,
		rules:        cfg.Rules,
		profiles:     cfg.Profiles,
		reconciler:   cfg.Reconciler,
		registry:     cfg.Registry,
		orchestrator: cfg.Orchestrator,
		matcher:      workflow.NewMatcher(cfg.Logger),
		store:        cfg.Store,
		publisher:    cfg.Publisher,
		stats:        cfg.Stats,
		sink:         cfg.Sink,
	}, nil
}

// Check validates the record and runs anomaly detection, without triggering
// workflows. The result carries any detected anomalies.
func (s *Service) Check(ctx context.Context, dataType, entityID string, record models.Record) *models.ValidationResult {
	result := s.validator.Validate(dataType, record)
	result.EntityID = entityID

	if s.anomalies != nil {
		result.Anomalies = s.anomalies.EvaluateRecord(record)
	}

	s.sink.QualityScore(dataType, result.Score)

	s.publish(ctx, entityID, events.ValidationCompleted{
		BaseEvent: s.baseEvent(events.ValidationCompletedEvent, entityID),
		DataType:  dataType,
		Result:    result,
	})

	if len(result.Anomalies) > 0 {
		s.publish(ctx, entityID, events.AnomalyDetected{
			BaseEvent: s.baseEvent(events.AnomalyDetectedEvent, entityID),
			DataType:  dataType,
			Anomalies: result.Anomalies,
			Record:    record,
		})
	}

	return result
}

// Process runs the full pipeline: validate, dispatch matching workflows,
// re-validate the corrected record. Matching workflows are deduplicated by
// id; executions that suspend on approval are reported as-is and the final
// validation is skipped until they resolve.
func (s *Service) Process(ctx context.Context, dataType, entityID string, record models.Record) (*Report, error) {
	initial := s.Check(ctx, dataType, entityID, record)

	report := &Report{Initial: initial, Record: record}

	if initial.Valid && len(initial.Anomalies) == 0 {
		return report, nil
	}

	matched := s.matcher.Match(s.registry.Workflows(), initial)
	if len(matched) == 0 {
		s.logger.Debug("No workflow matched", "data_type", dataType, "entity_id", entityID)

		return report, nil
	}

	working := record.Clone()
	suspended := false

	for _, wf := range matched {
		execution, err := s.orchestrator.Execute(ctx, wf.ID, working, triggerEvent(dataType, entityID, initial))
		if err != nil {
			return nil, fmt.Errorf("executing workflow %s: %w", wf.ID, err)
		}

		report.Executions = append(report.Executions, execution)

		switch execution.Status {
		case models.ExecutionStatusCompleted:
			working = execution.Record.Clone()
		case models.ExecutionStatusPendingApproval:
			suspended = true
		}
	}

	report.Record = working

	if suspended {
		return report, nil
	}

	report.Final = s.validator.Validate(dataType, working)
	report.Final.EntityID = entityID
	s.sink.QualityScore(dataType, report.Final.Score)

	if s.store != nil && entityID != "" && report.Final.Score > initial.Score {
		if err := s.store.Put(ctx, entityID, working); err != nil {
			s.logger.Error("Persisting corrected record failed", "entity_id", entityID, "error", err)
		}
	}

	return report, nil
}

// ProcessEvent dispatches workflows whose trigger names the given event.
// Unlike Process there is no validation gate; the event itself is the
// trigger.
func (s *Service) ProcessEvent(ctx context.Context, eventName, dataType, entityID string, record models.Record) ([]*models.Execution, error) {
	matched := s.matcher.MatchEvent(s.registry.Workflows(), eventName)
	if len(matched) == 0 {
		return nil, nil
	}

	trigger := map[string]any{
		"type":      string(models.TriggerTypeEvent),
		"event":     eventName,
		"data_type": dataType,
		"entity_id": entityID,
	}

	executions := make([]*models.Execution, 0, len(matched))

	for _, wf := range matched {
		execution, err := s.orchestrator.Execute(ctx, wf.ID, record, trigger)
		if err != nil {
			return executions, fmt.Errorf("executing workflow %s: %w", wf.ID, err)
		}

		executions = append(executions, execution)
	}

	return executions, nil
}

// ProcessEntity loads the record from the store and runs Process.
func (s *Service) ProcessEntity(ctx context.Context, dataType, entityID string) (*Report, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no record store configured")
	}

	record, err := s.store.Get(ctx, entityID)
	if err != nil {
		return nil, fmt.Errorf("loading entity %s: %w", entityID, err)
	}

	return s.Process(ctx, dataType, entityID, record)
}

// Reconcile resolves disagreeing sources for one data type and publishes the
// outcome.
func (s *Service) Reconcile(ctx context.Context, dataType string, sources []models.Source) (*models.ReconciliationResult, error) {
	if s.reconciler == nil {
		return nil, fmt.Errorf("no reconciliation engine configured")
	}

	result, err := s.reconciler.Reconcile(dataType, sources)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, dataType, events.ReconciliationCompleted{
		BaseEvent: s.baseEvent(events.ReconciliationCompletedEvent, ""),
		DataType:  dataType,
		Result:    result,
	})

	return result, nil
}

// ProcessApproval forwards a reviewer decision to the orchestrator.
func (s *Service) ProcessApproval(ctx context.Context, approvalID string, decision models.ApprovalDecision, reviewerID string) (*models.Execution, error) {
	return s.orchestrator.ProcessApproval(ctx, approvalID, decision, reviewerID)
}

// Approvals lists pending approvals, oldest first.
func (s *Service) Approvals() []*models.Approval {
	return s.orchestrator.Approvals()
}

// Execution returns one workflow execution by id, in-flight or retired.
func (s *Service) Execution(id string) (*models.Execution, error) {
	return s.orchestrator.Execution(id)
}

// Health reports readiness of the backing store. With no store configured the
// engine is purely in-memory and always healthy.
func (s *Service) Health(ctx context.Context) error {
	if s.store == nil {
		return nil
	}

	return s.store.HealthCheck(ctx)
}

func triggerEvent(dataType, entityID string, result *models.ValidationResult) map[string]any {
	return map[string]any{
		"data_type": dataType,
		"entity_id": entityID,
		"score":     result.Score,
		"errors":    len(result.Errors),
		"anomalies": len(result.Anomalies),
	}
}

func (s *Service) baseEvent(eventType events.EventType, entityID string) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		EntityID:  entityID,
	}
}

func (s *Service) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.publisher == nil {
		return
	}

	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.logger.Error("Publishing event failed", "event_type", event.GetType(), "error", err)
	}
}
