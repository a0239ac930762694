package models

import "time"

// ExecutionStatus is the lifecycle state of one workflow run. Transitions are
// monotonic: a completed or failed execution never returns to running.
type ExecutionStatus string

const (
	ExecutionStatusQueued          ExecutionStatus = "queued"
	ExecutionStatusRunning         ExecutionStatus = "running"
	ExecutionStatusPendingApproval ExecutionStatus = "pending_approval"
	ExecutionStatusCompleted       ExecutionStatus = "completed"
	ExecutionStatusFailed          ExecutionStatus = "failed"
)

// IsTerminal reports whether no further transitions are allowed.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

// StepResult is the recorded outcome of one executed step.
type StepResult struct {
	StepID      string       `json:"step_id"`
	Action      string       `json:"action"`
	Success     bool         `json:"success"`
	Confidence  int          `json:"confidence"`
	Corrections []Correction `json:"corrections,omitempty"`
	Error       string       `json:"error,omitempty"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
}

// Execution is one workflow run. It owns a deep-cloned working copy of the
// record; corrections from completed steps are merged into the copy so later
// steps see corrected data. Owned exclusively by the orchestrator for its
// lifetime.
type Execution struct {
	ID           string          `json:"id"`
	WorkflowID   string          `json:"workflow_id"`
	TriggerEvent map[string]any  `json:"trigger_event,omitempty"`
	Record       Record          `json:"record"`
	Original     Record          `json:"original"`
	StepResults  []StepResult    `json:"step_results"`
	Corrections  []Correction    `json:"corrections"`
	Status       ExecutionStatus `json:"status"`
	NextStep     int             `json:"next_step"`
	Error        string          `json:"error,omitempty"`
	RolledBack   bool            `json:"rolled_back,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

// ApprovalDecision is a reviewer's verdict on a pending approval.
type ApprovalDecision string

const (
	DecisionApproved ApprovalDecision = "approved"
	DecisionRejected ApprovalDecision = "rejected"
)

// ApprovalTTL is how long an approval may stay pending before the reaper
// fails its execution.
const ApprovalTTL = 24 * time.Hour

// Approval is a suspended step awaiting a reviewer. It lives in the approval
// queue until resolved; resolution is exclusive, an approval is resolved
// exactly once and never re-inserted.
type Approval struct {
	ID          string       `json:"id"`
	ExecutionID string       `json:"execution_id"`
	WorkflowID  string       `json:"workflow_id"`
	StepID      string       `json:"step_id"`
	Corrections []Correction `json:"corrections,omitempty"`
	Confidence  int          `json:"confidence"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Expired reports whether the approval passed its TTL at the given time.
func (a *Approval) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}
