// Package workflow runs declarative correction workflows: sequential steps
// dispatched to named action handlers, approval gating on low-confidence
// results, best-effort rollback, and an approval reaper.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"dario.cat/mergo"
	"github.com/google/uuid"

	"github.com/shipshapehq/shipshape/pkg/eventbus"
	"github.com/shipshapehq/shipshape/pkg/events"
	"github.com/shipshapehq/shipshape/pkg/metrics"
	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/registry"
)

// Orchestrator executes workflows. Executions for different records run
// fully in parallel; steps within one execution are strictly sequential
// because later steps depend on corrections from earlier ones.
type Orchestrator struct {
	logger    *slog.Logger
	registry  *registry.Registry
	publisher eventbus.EventPublisher
	sink      metrics.Sink
	queue     *ApprovalQueue
	history   *History

	mu       sync.RWMutex
	inflight map[string]*models.Execution
}

type OrchestratorOption func(*Orchestrator)

func WithMetrics(sink metrics.Sink) OrchestratorOption {
	return func(o *Orchestrator) { o.sink = sink }
}

func WithHistorySize(capacity int) OrchestratorOption {
	return func(o *Orchestrator) { o.history = NewHistory(capacity) }
}

func NewOrchestrator(logger *slog.Logger, reg *registry.Registry, publisher eventbus.EventPublisher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		logger:    logger.With("module", "workflow_orchestrator"),
		registry:  reg,
		publisher: publisher,
		sink:      metrics.Nop{},
		queue:     NewApprovalQueue(),
		history:   NewHistory(defaultHistorySize),
		inflight:  make(map[string]*models.Execution),
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// Approvals exposes the pending approval queue.
func (o *Orchestrator) Approvals() []*models.Approval {
	return o.queue.Pending()
}

// History exposes finished executions, newest first.
func (o *Orchestrator) History(n int) []*models.Execution {
	return o.history.Recent(n)
}

// Execution looks up an execution by id, in-flight first.
func (o *Orchestrator) Execution(id string) (*models.Execution, error) {
	o.mu.RLock()
	execution, ok := o.inflight[id]
	o.mu.RUnlock()

	if ok {
		return execution, nil
	}

	if execution, ok := o.history.Find(id); ok {
		return execution, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
}

// Execute runs the workflow against a deep-cloned copy of the record. The
// caller's record is never mutated. An unknown workflow id is a
// configuration error; step failures are expressed on the returned
// execution, not as an error.
func (o *Orchestrator) Execute(ctx context.Context, workflowID string, record models.Record, triggerEvent map[string]any) (*models.Execution, error) {
	workflow, err := o.registry.Workflow(workflowID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	execution := &models.Execution{
		ID:           uuid.New().String(),
		WorkflowID:   workflow.ID,
		TriggerEvent: triggerEvent,
		Record:       record.Clone(),
		Original:     record.Clone(),
		Status:       models.ExecutionStatusQueued,
		CreatedAt:    now,
	}

	o.mu.Lock()
	o.inflight[execution.ID] = execution
	o.mu.Unlock()

	logger := o.logger.With("workflow_id", workflow.ID, "execution_id", execution.ID)
	logger.Info("Starting workflow execution", "steps", len(workflow.Steps))

	o.publish(ctx, execution.ID, events.WorkflowStarted{
		BaseEvent:    o.baseEvent(events.WorkflowStartedEvent),
		ExecutionID:  execution.ID,
		WorkflowID:   workflow.ID,
		WorkflowName: workflow.Name,
		TriggerEvent: triggerEvent,
	})

	started := time.Now().UTC()
	execution.StartedAt = &started
	execution.Status = models.ExecutionStatusRunning

	o.runSteps(ctx, logger, workflow, execution)

	return execution, nil
}

// ProcessApproval resolves a pending approval. Exactly one concurrent call
// per approval id wins; the rest get ErrApprovalNotFound. On approval the
// gating step's corrections are applied and the execution resumes from the
// next step. On rejection the execution fails without rollback.
func (o *Orchestrator) ProcessApproval(ctx context.Context, approvalID string, decision models.ApprovalDecision, reviewerID string) (*models.Execution, error) {
	approval, ok := o.queue.Take(approvalID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrApprovalNotFound, approvalID)
	}

	o.sink.PendingApprovals(o.queue.Len())

	execution, err := o.Execution(approval.ExecutionID)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With("workflow_id", execution.WorkflowID, "execution_id", execution.ID, "approval_id", approvalID)

	if approval.Expired(time.Now().UTC()) {
		o.failExpired(ctx, logger, approval, execution)

		return execution, ErrApprovalExpired
	}

	o.publish(ctx, execution.ID, events.ApprovalProcessed{
		BaseEvent:   o.baseEvent(events.ApprovalProcessedEvent),
		ApprovalID:  approvalID,
		ExecutionID: execution.ID,
		Decision:    decision,
		ReviewerID:  reviewerID,
	})

	if decision == models.DecisionRejected {
		logger.Info("Approval rejected, failing execution", "reviewer_id", reviewerID)
		o.finishFailed(ctx, execution, fmt.Sprintf("approval %s rejected by %s", approvalID, reviewerID))

		return execution, nil
	}

	logger.Info("Approval granted, resuming execution", "reviewer_id", reviewerID)

	if err := o.applyCorrections(execution, approval.Corrections); err != nil {
		o.finishFailed(ctx, execution, fmt.Sprintf("applying approved corrections: %v", err))

		return execution, nil
	}

	workflow, err := o.registry.Workflow(execution.WorkflowID)
	if err != nil {
		return nil, err
	}

	execution.Status = models.ExecutionStatusRunning
	o.runSteps(ctx, logger, workflow, execution)

	return execution, nil
}

// ExpireApprovals fails every execution whose approval passed its TTL. The
// reaper calls this on a fixed schedule.
func (o *Orchestrator) ExpireApprovals(ctx context.Context, now time.Time) int {
	expired := o.queue.TakeExpired(now)
	if len(expired) == 0 {
		return 0
	}

	o.sink.PendingApprovals(o.queue.Len())

	for _, approval := range expired {
		execution, err := o.Execution(approval.ExecutionID)
		if err != nil {
			o.logger.Warn("Expired approval has no execution", "approval_id", approval.ID, "error", err)

			continue
		}

		logger := o.logger.With("execution_id", execution.ID, "approval_id", approval.ID)
		o.failExpired(ctx, logger, approval, execution)
	}

	return len(expired)
}

func (o *Orchestrator) runSteps(ctx context.Context, logger *slog.Logger, workflow *models.Workflow, execution *models.Execution) {
	for execution.NextStep < len(workflow.Steps) {
		step := workflow.Steps[execution.NextStep]
		stepLogger := logger.With("step_id", step.ID, "action", step.Action)

		result, err := o.runStepWithRetry(ctx, stepLogger, execution, step)

		stepResult := models.StepResult{
			StepID:      step.ID,
			Action:      step.Action,
			Success:     err == nil && result.Success,
			Confidence:  result.Confidence,
			Corrections: result.Corrections,
			StartedAt:   result.startedAt,
			FinishedAt:  time.Now().UTC(),
		}

		if err != nil {
			stepResult.Error = err.Error()
			execution.StepResults = append(execution.StepResults, stepResult)

			stepLogger.Error("Step failed", "error", err)
			o.rollback(ctx, stepLogger, workflow, execution)
			o.finishFailed(ctx, execution, fmt.Sprintf("step %s: %v", step.ID, err))

			return
		}

		execution.StepResults = append(execution.StepResults, stepResult)

		if !result.Success {
			stepLogger.Warn("Step reported failure", "reason", stepResult.Error)
			o.finishFailed(ctx, execution, fmt.Sprintf("step %s did not produce a confident result", step.ID))

			return
		}

		execution.NextStep++

		if o.needsApproval(step, result) {
			o.suspend(ctx, stepLogger, execution, step, result)

			return
		}

		if err := o.applyCorrections(execution, result.Corrections); err != nil {
			stepLogger.Error("Merging corrections failed", "error", err)
			o.rollback(ctx, stepLogger, workflow, execution)
			o.finishFailed(ctx, execution, fmt.Sprintf("step %s: merging corrections: %v", step.ID, err))

			return
		}

		stepLogger.Info("Step completed", "confidence", result.Confidence, "corrections", len(result.Corrections))
	}

	o.finishCompleted(ctx, execution)
}

type stepOutcome struct {
	registry.ActionResult

	startedAt time.Time
}

// retryBaseDelay is the wait before the first retry; it doubles per attempt.
const retryBaseDelay = 100 * time.Millisecond

// runStepWithRetry re-runs a failing step up to the step's max_retries.
// Panics and context errors are terminal on the first occurrence; only
// ordinary handler errors count as transient.
func (o *Orchestrator) runStepWithRetry(ctx context.Context, logger *slog.Logger, execution *models.Execution, step models.WorkflowStep) (stepOutcome, error) {
	outcome, err := o.runStep(ctx, execution, step)

	delay := retryBaseDelay
	for attempt := 1; attempt <= step.MaxRetries && retryable(ctx, err); attempt++ {
		logger.Warn("Step failed, retrying",
			"attempt", attempt,
			"max_retries", step.MaxRetries,
			"error", err)

		select {
		case <-ctx.Done():
			return outcome, err
		case <-time.After(delay):
		}

		delay *= 2
		outcome, err = o.runStep(ctx, execution, step)
	}

	return outcome, err
}

func retryable(ctx context.Context, err error) bool {
	if err == nil || ctx.Err() != nil {
		return false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	return !errors.Is(err, errActionPanic)
}

// runStep dispatches to the step's action handler with panic recovery and an
// optional per-step timeout. A panic surfaces as a step error so one bad
// handler cannot take the orchestrator down.
func (o *Orchestrator) runStep(ctx context.Context, execution *models.Execution, step models.WorkflowStep) (outcome stepOutcome, err error) {
	outcome.startedAt = time.Now().UTC()

	handler, err := o.registry.Action(step.Action)
	if err != nil {
		return outcome, err
	}

	if step.TimeoutSeconds > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, time.Duration(step.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("action %s %w: %v", step.Action, errActionPanic, r)
		}
	}()

	result, err := handler.Execute(ctx, execution.Record, step.Config)
	if err != nil {
		return outcome, err
	}

	if ctx.Err() != nil {
		return outcome, fmt.Errorf("action %s: %w", step.Action, ctx.Err())
	}

	outcome.ActionResult = result

	return outcome, nil
}

func (o *Orchestrator) needsApproval(step models.WorkflowStep, outcome stepOutcome) bool {
	if !step.RequiresApproval {
		return false
	}

	threshold := step.ApprovalThreshold
	if threshold == 0 {
		threshold = models.DefaultApprovalThreshold
	}

	return outcome.Confidence < threshold
}

// suspend parks the execution in pending_approval. NextStep already points
// past the gating step; the approval carries the step's corrections so they
// can be applied when a reviewer approves.
func (o *Orchestrator) suspend(ctx context.Context, logger *slog.Logger, execution *models.Execution, step models.WorkflowStep, outcome stepOutcome) {
	now := time.Now().UTC()
	approval := &models.Approval{
		ID:          uuid.New().String(),
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		StepID:      step.ID,
		Corrections: outcome.Corrections,
		Confidence:  outcome.Confidence,
		CreatedAt:   now,
		ExpiresAt:   now.Add(models.ApprovalTTL),
	}

	if err := o.queue.Add(approval); err != nil {
		logger.Error("Queueing approval failed", "error", err)
		o.finishFailed(ctx, execution, fmt.Sprintf("queueing approval for step %s: %v", step.ID, err))

		return
	}

	execution.Status = models.ExecutionStatusPendingApproval
	o.sink.PendingApprovals(o.queue.Len())

	logger.Info("Execution suspended pending approval",
		"approval_id", approval.ID,
		"confidence", outcome.Confidence,
		"expires_at", approval.ExpiresAt)

	o.publish(ctx, execution.ID, events.ApprovalRequired{
		BaseEvent:   o.baseEvent(events.ApprovalRequiredEvent),
		ApprovalID:  approval.ID,
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		StepID:      step.ID,
		Corrections: outcome.Corrections,
		Confidence:  outcome.Confidence,
		ExpiresAt:   approval.ExpiresAt,
	})
}

// rollback invokes the workflow's compensating handler at most once. Best
// effort: a rollback error is logged and the execution still fails.
func (o *Orchestrator) rollback(ctx context.Context, logger *slog.Logger, workflow *models.Workflow, execution *models.Execution) {
	if !workflow.Rollback.Enabled || execution.RolledBack {
		return
	}

	handler, err := o.registry.Rollback(workflow.Rollback.Handler)
	if err != nil {
		logger.Error("Rollback handler lookup failed", "error", err)

		return
	}

	execution.RolledBack = true

	if err := handler(ctx, execution); err != nil {
		logger.Error("Rollback failed", "handler", workflow.Rollback.Handler, "error", err)

		return
	}

	logger.Info("Rollback completed", "handler", workflow.Rollback.Handler)
}

// applyCorrections merges step corrections into the working record so
// subsequent steps see corrected data. Dotted field paths become nested
// patches.
func (o *Orchestrator) applyCorrections(execution *models.Execution, corrections []models.Correction) error {
	for _, correction := range corrections {
		patch := patchFor(correction.Field, correction.Corrected)

		working := map[string]any(execution.Record)
		if err := mergo.Merge(&working, patch, mergo.WithOverride); err != nil {
			return fmt.Errorf("field %s: %w", correction.Field, err)
		}

		execution.Record = models.Record(working)
		execution.Corrections = append(execution.Corrections, correction)
	}

	return nil
}

func patchFor(field string, value any) map[string]any {
	parts := strings.Split(field, ".")
	patch := map[string]any{parts[len(parts)-1]: value}

	for i := len(parts) - 2; i >= 0; i-- {
		patch = map[string]any{parts[i]: patch}
	}

	return patch
}

func (o *Orchestrator) finishCompleted(ctx context.Context, execution *models.Execution) {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusCompleted
	execution.FinishedAt = &now

	o.retire(execution)
	o.sink.WorkflowFinished(execution.WorkflowID, string(execution.Status))

	o.logger.Info("Workflow execution completed",
		"workflow_id", execution.WorkflowID,
		"execution_id", execution.ID,
		"corrections", len(execution.Corrections))

	o.publish(ctx, execution.ID, events.WorkflowCompleted{
		BaseEvent:   o.baseEvent(events.WorkflowCompletedEvent),
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		Corrections: execution.Corrections,
		Duration:    o.duration(execution, now),
	})
}

func (o *Orchestrator) finishFailed(ctx context.Context, execution *models.Execution, reason string) {
	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusFailed
	execution.Error = reason
	execution.FinishedAt = &now

	o.retire(execution)
	o.sink.WorkflowFinished(execution.WorkflowID, string(execution.Status))

	o.publish(ctx, execution.ID, events.WorkflowFailed{
		BaseEvent:   o.baseEvent(events.WorkflowFailedEvent),
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		Error:       reason,
		RolledBack:  execution.RolledBack,
		Duration:    o.duration(execution, now),
	})
}

func (o *Orchestrator) failExpired(ctx context.Context, logger *slog.Logger, approval *models.Approval, execution *models.Execution) {
	logger.Warn("Approval expired, failing execution", "expired_at", approval.ExpiresAt)

	o.publish(ctx, execution.ID, events.ApprovalExpired{
		BaseEvent:   o.baseEvent(events.ApprovalExpiredEvent),
		ApprovalID:  approval.ID,
		ExecutionID: execution.ID,
		ExpiredAt:   approval.ExpiresAt,
	})

	o.finishFailed(ctx, execution, fmt.Sprintf("approval %s expired at %s", approval.ID, approval.ExpiresAt.Format(time.RFC3339)))
}

func (o *Orchestrator) retire(execution *models.Execution) {
	o.mu.Lock()
	delete(o.inflight, execution.ID)
	o.mu.Unlock()

	o.history.Add(execution)
}

func (o *Orchestrator) duration(execution *models.Execution, now time.Time) time.Duration {
	if execution.StartedAt == nil {
		return 0
	}

	return now.Sub(*execution.StartedAt)
}

func (o *Orchestrator) baseEvent(eventType events.EventType) events.BaseEvent {
	return events.BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

func (o *Orchestrator) publish(ctx context.Context, key string, event eventbus.Event) {
	if o.publisher == nil {
		return
	}

	if err := o.publisher.Publish(ctx, key, event); err != nil {
		o.logger.Error("Publishing event failed", "event_type", event.GetType(), "error", err)
	}
}
