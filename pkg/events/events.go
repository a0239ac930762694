// Package events defines event types and structures emitted to downstream
// collaborators: audit logging, alerting, UI updates.
package events

import (
	"time"

	"github.com/shipshapehq/shipshape/pkg/models"
)

type EventType string

// Topic carries all quality-control events.
const Topic = "shipshape.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ValidationCompletedEvent     EventType = "validation.completed"
	AnomalyDetectedEvent         EventType = "anomaly.detected"
	WorkflowStartedEvent         EventType = "workflow.started"
	WorkflowCompletedEvent       EventType = "workflow.completed"
	WorkflowFailedEvent          EventType = "workflow.failed"
	ApprovalRequiredEvent        EventType = "approval.required"
	ApprovalProcessedEvent       EventType = "approval.processed"
	ApprovalExpiredEvent         EventType = "approval.expired"
	ReconciliationCompletedEvent EventType = "reconciliation.completed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	EntityID  string         `json:"entity_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type ValidationCompleted struct {
	BaseEvent

	DataType string                   `json:"data_type"`
	Result   *models.ValidationResult `json:"result"`
}

func (e ValidationCompleted) GetType() EventType {
	return ValidationCompletedEvent
}

type AnomalyDetected struct {
	BaseEvent

	DataType  string           `json:"data_type"`
	Anomalies []models.Anomaly `json:"anomalies"`
	Record    models.Record    `json:"record,omitempty"`
}

func (e AnomalyDetected) GetType() EventType {
	return AnomalyDetectedEvent
}

type WorkflowStarted struct {
	BaseEvent

	ExecutionID  string         `json:"execution_id"`
	WorkflowID   string         `json:"workflow_id"`
	WorkflowName string         `json:"workflow_name"`
	TriggerEvent map[string]any `json:"trigger_event,omitempty"`
}

func (e WorkflowStarted) GetType() EventType {
	return WorkflowStartedEvent
}

type WorkflowCompleted struct {
	BaseEvent

	ExecutionID string              `json:"execution_id"`
	WorkflowID  string              `json:"workflow_id"`
	Corrections []models.Correction `json:"corrections,omitempty"`
	Duration    time.Duration       `json:"duration"`
}

func (e WorkflowCompleted) GetType() EventType {
	return WorkflowCompletedEvent
}

type WorkflowFailed struct {
	BaseEvent

	ExecutionID string        `json:"execution_id"`
	WorkflowID  string        `json:"workflow_id"`
	Error       string        `json:"error"`
	RolledBack  bool          `json:"rolled_back"`
	Duration    time.Duration `json:"duration"`
}

func (e WorkflowFailed) GetType() EventType {
	return WorkflowFailedEvent
}

type ApprovalRequired struct {
	BaseEvent

	ApprovalID  string              `json:"approval_id"`
	ExecutionID string              `json:"execution_id"`
	WorkflowID  string              `json:"workflow_id"`
	StepID      string              `json:"step_id"`
	Corrections []models.Correction `json:"corrections,omitempty"`
	Confidence  int                 `json:"confidence"`
	ExpiresAt   time.Time           `json:"expires_at"`
}

func (e ApprovalRequired) GetType() EventType {
	return ApprovalRequiredEvent
}

type ApprovalProcessed struct {
	BaseEvent

	ApprovalID  string                  `json:"approval_id"`
	ExecutionID string                  `json:"execution_id"`
	Decision    models.ApprovalDecision `json:"decision"`
	ReviewerID  string                  `json:"reviewer_id"`
}

func (e ApprovalProcessed) GetType() EventType {
	return ApprovalProcessedEvent
}

type ApprovalExpired struct {
	BaseEvent

	ApprovalID  string    `json:"approval_id"`
	ExecutionID string    `json:"execution_id"`
	ExpiredAt   time.Time `json:"expired_at"`
}

func (e ApprovalExpired) GetType() EventType {
	return ApprovalExpiredEvent
}

type ReconciliationCompleted struct {
	BaseEvent

	DataType string                       `json:"data_type"`
	Result   *models.ReconciliationResult `json:"result"`
}

func (e ReconciliationCompleted) GetType() EventType {
	return ReconciliationCompletedEvent
}
