package registry

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipshapehq/shipshape/pkg/models"
)

type stubAction struct {
	id string
}

func (s *stubAction) ID() string { return s.id }

func (s *stubAction) Execute(_ context.Context, _ models.Record, _ map[string]any) (ActionResult, error) {
	return ActionResult{Success: true, Confidence: 100}, nil
}

func testRegistry(t *testing.T) *Registry {
	t.Helper()

	return NewRegistry(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func validWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:   "fix-container",
		Name: "Fix container number",
		Triggers: []models.WorkflowTrigger{
			{Type: models.TriggerTypeValidationError, Field: "container_number"},
		},
		Steps: []models.WorkflowStep{
			{ID: "correct", Action: "correct_field"},
		},
	}
}

func TestRegistry_RegisterWorkflow(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.RegisterAction(&stubAction{id: "correct_field"}))

	require.NoError(t, r.RegisterWorkflow(validWorkflow()))

	workflow, err := r.Workflow("fix-container")
	require.NoError(t, err)
	assert.Equal(t, "Fix container number", workflow.Name)
}

func TestRegistry_RegisterWorkflow_UnknownActionFailsEagerly(t *testing.T) {
	r := testRegistry(t)

	err := r.RegisterWorkflow(validWorkflow())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestRegistry_RegisterWorkflow_UnknownRollbackHandler(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.RegisterAction(&stubAction{id: "correct_field"}))

	workflow := validWorkflow()
	workflow.Rollback = models.RollbackConfig{Enabled: true, Handler: "missing"}

	err := r.RegisterWorkflow(workflow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rollback handler")
}

func TestRegistry_RegisterWorkflow_InvalidDefinition(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.RegisterAction(&stubAction{id: "correct_field"}))

	workflow := validWorkflow()
	workflow.Triggers = nil

	assert.Error(t, r.RegisterWorkflow(workflow))

	workflow = validWorkflow()
	workflow.Steps[0].ID = ""

	assert.Error(t, r.RegisterWorkflow(workflow))
}

func TestRegistry_RegisterWorkflow_DuplicateStepID(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.RegisterAction(&stubAction{id: "correct_field"}))

	workflow := validWorkflow()
	workflow.Steps = append(workflow.Steps, models.WorkflowStep{ID: "correct", Action: "correct_field"})

	err := r.RegisterWorkflow(workflow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate step id")
}

func TestRegistry_DuplicateRegistrations(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.RegisterAction(&stubAction{id: "correct_field"}))
	assert.Error(t, r.RegisterAction(&stubAction{id: "correct_field"}))

	require.NoError(t, r.RegisterWorkflow(validWorkflow()))
	assert.Error(t, r.RegisterWorkflow(validWorkflow()))
}

func TestRegistry_UnknownLookups(t *testing.T) {
	r := testRegistry(t)

	_, err := r.Action("nope")
	assert.Error(t, err)

	_, err = r.Workflow("nope")
	assert.Error(t, err)

	_, err = r.Rollback("nope")
	assert.Error(t, err)
}

func TestRegistry_WorkflowsPreservesOrder(t *testing.T) {
	r := testRegistry(t)
	require.NoError(t, r.RegisterAction(&stubAction{id: "correct_field"}))

	first := validWorkflow()
	second := validWorkflow()
	second.ID = "fix-port"
	second.Name = "Fix port code"

	require.NoError(t, r.RegisterWorkflow(first))
	require.NoError(t, r.RegisterWorkflow(second))

	workflows := r.Workflows()
	require.Len(t, workflows, 2)
	assert.Equal(t, "fix-container", workflows[0].ID)
	assert.Equal(t, "fix-port", workflows[1].ID)
}
