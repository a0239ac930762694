package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipshapehq/shipshape/pkg/models"
)

func triggeredWorkflow(id string, triggers ...models.WorkflowTrigger) *models.Workflow {
	return &models.Workflow{
		ID:       id,
		Name:     "Workflow " + id,
		Triggers: triggers,
		Steps:    []models.WorkflowStep{{ID: "step-1", Action: "noop"}},
	}
}

func TestMatcher_MatchesByErrorField(t *testing.T) {
	m := NewMatcher(testLogger())

	workflows := []*models.Workflow{
		triggeredWorkflow("container", models.WorkflowTrigger{Type: models.TriggerTypeValidationError, Field: "container_number"}),
		triggeredWorkflow("port", models.WorkflowTrigger{Type: models.TriggerTypeValidationError, Field: "port_code"}),
	}

	result := &models.ValidationResult{
		Errors: []models.ValidationIssue{
			{Field: "container_number", Rule: "pattern", Message: "bad check digit"},
		},
	}

	matched := m.Match(workflows, result)
	require.Len(t, matched, 1)
	assert.Equal(t, "container", matched[0].ID)
}

func TestMatcher_ErrorCodeNarrowsMatch(t *testing.T) {
	m := NewMatcher(testLogger())

	workflows := []*models.Workflow{
		triggeredWorkflow("checksum-only", models.WorkflowTrigger{
			Type:      models.TriggerTypeValidationError,
			Field:     "container_number",
			ErrorCode: "invalid_check_digit",
		}),
	}

	miss := m.Match(workflows, &models.ValidationResult{
		Errors: []models.ValidationIssue{{Field: "container_number", Code: "pattern_mismatch"}},
	})
	assert.Empty(t, miss)

	hit := m.Match(workflows, &models.ValidationResult{
		Errors: []models.ValidationIssue{{Field: "container_number", Code: "invalid_check_digit"}},
	})
	assert.Len(t, hit, 1)
}

func TestMatcher_AnomalyTrigger(t *testing.T) {
	m := NewMatcher(testLogger())

	workflows := []*models.Workflow{
		triggeredWorkflow("anomaly", models.WorkflowTrigger{Type: models.TriggerTypeAnomaly}),
	}

	assert.Empty(t, m.Match(workflows, &models.ValidationResult{}))

	matched := m.Match(workflows, &models.ValidationResult{
		Anomalies: []models.Anomaly{{Field: "weight", Severity: 7}},
	})
	assert.Len(t, matched, 1)
}

func TestMatcher_DeduplicatesByWorkflowID(t *testing.T) {
	m := NewMatcher(testLogger())

	// Two triggers on the same workflow both match; the workflow is queued once.
	workflows := []*models.Workflow{
		triggeredWorkflow("multi",
			models.WorkflowTrigger{Type: models.TriggerTypeValidationError, Field: "container_number"},
			models.WorkflowTrigger{Type: models.TriggerTypeValidationError, Field: "port_code"},
		),
	}

	result := &models.ValidationResult{
		Errors: []models.ValidationIssue{
			{Field: "container_number"},
			{Field: "port_code"},
		},
	}

	matched := m.Match(workflows, result)
	assert.Len(t, matched, 1)
}

func TestMatcher_MatchEvent(t *testing.T) {
	m := NewMatcher(testLogger())

	workflows := []*models.Workflow{
		triggeredWorkflow("on-anomaly", models.WorkflowTrigger{Type: models.TriggerTypeEvent, Event: "anomaly.detected"}),
		triggeredWorkflow("on-validation", models.WorkflowTrigger{Type: models.TriggerTypeEvent, Event: "validation.completed"}),
	}

	matched := m.MatchEvent(workflows, "anomaly.detected")
	require.Len(t, matched, 1)
	assert.Equal(t, "on-anomaly", matched[0].ID)

	assert.Empty(t, m.MatchEvent(workflows, "workflow.completed"))
}
