// Package registry holds the named action handlers and workflow definitions
// the orchestrator dispatches to. Everything is registered at startup and
// validated eagerly: an unknown action name fails workflow registration, not
// a live execution.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// ActionResult is what a step handler returns. Corrections are merged into
// the execution's working record by the orchestrator, never by the handler.
type ActionResult struct {
	Success     bool
	Confidence  int
	Corrections []models.Correction
	Output      map[string]any
}

// ActionHandler executes one workflow step against the execution's working
// record. The record is the orchestrator's copy; handlers must treat it as
// read-only and express changes as corrections.
type ActionHandler interface {
	ID() string
	Execute(ctx context.Context, record models.Record, config map[string]any) (ActionResult, error)
}

// RollbackHandler compensates a failed execution. Best effort: errors are
// logged by the orchestrator, not retried.
type RollbackHandler func(ctx context.Context, execution *models.Execution) error

// Registry maps action names to handlers and workflow ids to definitions.
type Registry struct {
	logger *slog.Logger

	mu        sync.RWMutex
	actions   map[string]ActionHandler
	rollbacks map[string]RollbackHandler
	workflows map[string]*models.Workflow
	ordered   []*models.Workflow

	validate *validator.Validate
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		actions:   make(map[string]ActionHandler),
		rollbacks: make(map[string]RollbackHandler),
		workflows: make(map[string]*models.Workflow),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (r *Registry) RegisterAction(handler ActionHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := handler.ID()
	if id == "" {
		return fmt.Errorf("action handler has an empty id")
	}

	if _, exists := r.actions[id]; exists {
		return fmt.Errorf("action %q is already registered", id)
	}

	r.actions[id] = handler
	r.logger.Debug("Registered action handler", "action", id)

	return nil
}

func (r *Registry) RegisterRollback(name string, handler RollbackHandler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rollbacks[name]; exists {
		return fmt.Errorf("rollback handler %q is already registered", name)
	}

	r.rollbacks[name] = handler

	return nil
}

// RegisterWorkflow validates the definition and resolves every step action
// and the rollback handler. Registration order is preserved for matching.
func (r *Registry) RegisterWorkflow(workflow *models.Workflow) error {
	if err := r.validate.Struct(workflow); err != nil {
		return fmt.Errorf("workflow %q definition is invalid: %w", workflow.ID, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.workflows[workflow.ID]; exists {
		return fmt.Errorf("workflow %q is already registered", workflow.ID)
	}

	seen := make(map[string]bool, len(workflow.Steps))

	for _, step := range workflow.Steps {
		if seen[step.ID] {
			return fmt.Errorf("workflow %q has duplicate step id %q", workflow.ID, step.ID)
		}

		seen[step.ID] = true

		if _, ok := r.actions[step.Action]; !ok {
			return fmt.Errorf("workflow %q step %q references unknown action %q", workflow.ID, step.ID, step.Action)
		}
	}

	if workflow.Rollback.Enabled {
		if _, ok := r.rollbacks[workflow.Rollback.Handler]; !ok {
			return fmt.Errorf("workflow %q references unknown rollback handler %q", workflow.ID, workflow.Rollback.Handler)
		}
	}

	r.workflows[workflow.ID] = workflow
	r.ordered = append(r.ordered, workflow)
	r.logger.Info("Registered workflow", "workflow_id", workflow.ID, "steps", len(workflow.Steps))

	return nil
}

// Action resolves a handler by name.
func (r *Registry) Action(name string) (ActionHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.actions[name]
	if !ok {
		return nil, fmt.Errorf("action %q is not registered", name)
	}

	return handler, nil
}

// Rollback resolves a rollback handler by name.
func (r *Registry) Rollback(name string) (RollbackHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.rollbacks[name]
	if !ok {
		return nil, fmt.Errorf("rollback handler %q is not registered", name)
	}

	return handler, nil
}

// Workflow resolves a workflow by id.
func (r *Registry) Workflow(id string) (*models.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflow, ok := r.workflows[id]
	if !ok {
		return nil, fmt.Errorf("workflow %q is not registered", id)
	}

	return workflow, nil
}

// Workflows returns every registered workflow in registration order.
func (r *Registry) Workflows() []*models.Workflow {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Workflow, len(r.ordered))
	copy(out, r.ordered)

	return out
}
