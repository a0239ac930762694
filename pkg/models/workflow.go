package models

// TriggerType is how a workflow trigger matches a validation outcome.
type TriggerType string

const (
	TriggerTypeValidationError TriggerType = "validation_error"
	TriggerTypeAnomaly         TriggerType = "anomaly_detected"
	TriggerTypeEvent           TriggerType = "event"
)

// WorkflowTrigger declares one condition under which a workflow is selected.
// A validation_error trigger matches on the failed field and optionally the
// error code; an event trigger matches on a named event type.
type WorkflowTrigger struct {
	Type      TriggerType `json:"type"                 yaml:"type"                 validate:"required,oneof=validation_error anomaly_detected event"`
	Field     string      `json:"field,omitempty"      yaml:"field,omitempty"`
	ErrorCode string      `json:"error_code,omitempty" yaml:"error_code,omitempty"`
	Event     string      `json:"event,omitempty"      yaml:"event,omitempty"`
}

// DefaultApprovalThreshold gates steps whose definition did not set an
// explicit threshold.
const DefaultApprovalThreshold = 90

// WorkflowStep is one sequential step of a workflow. Action resolves to a
// named handler at registration time; unknown action names fail registration,
// not execution.
type WorkflowStep struct {
	ID                string         `json:"id"                 yaml:"id"     validate:"required"`
	Name              string         `json:"name"               yaml:"name"`
	Action            string         `json:"action"             yaml:"action" validate:"required"`
	RequiresApproval  bool           `json:"requires_approval"  yaml:"requires_approval"`
	ApprovalThreshold int            `json:"approval_threshold" yaml:"approval_threshold" validate:"min=0,max=100"`
	TimeoutSeconds    int            `json:"timeout_seconds"    yaml:"timeout_seconds"`
	MaxRetries        int            `json:"max_retries"        yaml:"max_retries" validate:"min=0"`
	Config            map[string]any `json:"config,omitempty"   yaml:"config,omitempty"`
}

// RollbackConfig enables a compensating handler when an unexpected error
// escapes step execution. Rollback is best effort, not atomic.
type RollbackConfig struct {
	Enabled bool   `json:"enabled"           yaml:"enabled"`
	Handler string `json:"handler,omitempty" yaml:"handler,omitempty"`
}

// Workflow is a declarative correction scenario: trigger predicates plus an
// ordered list of steps. Registered once, invoked many times; definitions are
// read-only after registration.
type Workflow struct {
	ID          string            `json:"id"          yaml:"id"       validate:"required"`
	Name        string            `json:"name"        yaml:"name"     validate:"required,min=3"`
	Description string            `json:"description" yaml:"description"`
	Triggers    []WorkflowTrigger `json:"triggers"    yaml:"triggers" validate:"required,min=1,dive"`
	Steps       []WorkflowStep    `json:"steps"       yaml:"steps"    validate:"required,min=1,dive"`
	Rollback    RollbackConfig    `json:"rollback"    yaml:"rollback"`
}
