package actions

import (
	"fmt"
	"log/slog"

	"github.com/shipshapehq/shipshape/pkg/correction"
	"github.com/shipshapehq/shipshape/pkg/reconcile"
	"github.com/shipshapehq/shipshape/pkg/registry"
	"github.com/shipshapehq/shipshape/pkg/validation"
)

// RegisterBuiltins wires every built-in handler and the default rollback
// handler into the registry. Called once at startup before workflows are
// registered.
func RegisterBuiltins(
	reg *registry.Registry,
	logger *slog.Logger,
	strategies *correction.Registry,
	validator *validation.Validator,
	reconciler *reconcile.Engine,
) error {
	handlers := []registry.ActionHandler{
		NewCorrectField(strategies),
		NewRevalidate(validator),
		NewReconcileSources(reconciler),
		NewLog(logger),
	}

	for _, handler := range handlers {
		if err := reg.RegisterAction(handler); err != nil {
			return fmt.Errorf("registering built-in actions: %w", err)
		}
	}

	if err := reg.RegisterRollback(RestoreOriginalName, NewRestoreOriginal(logger)); err != nil {
		return fmt.Errorf("registering built-in rollback: %w", err)
	}

	return nil
}
