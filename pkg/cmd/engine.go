// Package cmd provides common initialization functions for command-line
// applications.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/shipshapehq/shipshape/pkg/actions"
	"github.com/shipshapehq/shipshape/pkg/anomaly"
	"github.com/shipshapehq/shipshape/pkg/config"
	"github.com/shipshapehq/shipshape/pkg/correction"
	"github.com/shipshapehq/shipshape/pkg/eventbus"
	"github.com/shipshapehq/shipshape/pkg/metrics"
	"github.com/shipshapehq/shipshape/pkg/persistence"
	"github.com/shipshapehq/shipshape/pkg/quality"
	"github.com/shipshapehq/shipshape/pkg/reconcile"
	"github.com/shipshapehq/shipshape/pkg/registry"
	"github.com/shipshapehq/shipshape/pkg/rules"
	"github.com/shipshapehq/shipshape/pkg/validation"
	"github.com/shipshapehq/shipshape/pkg/workflow"
)

// EngineConfig names the external collaborators and definition files an
// engine is assembled from.
type EngineConfig struct {
	// DefinitionsPath points at the YAML definitions file. Empty means no
	// declarative definitions are loaded.
	DefinitionsPath string

	// WorkflowsDir holds additional JSON workflow definitions, one per
	// file, validated against the workflow schema.
	WorkflowsDir string

	Store     persistence.RecordStore
	Publisher eventbus.EventPublisher

	// ExtraSink receives a copy of every metric observation, typically a
	// Prometheus exporter. The in-memory stats collector is always wired.
	ExtraSink metrics.Sink
}

// Engine bundles the assembled quality service with the pieces callers need
// direct access to: the orchestrator for the approval reaper, the registry
// and rules engine for code-level registration, and the stats collector.
type Engine struct {
	Service      *quality.Service
	Orchestrator *workflow.Orchestrator
	Registry     *registry.Registry
	Validator    *validation.Validator
	Detectors    *anomaly.Registry
	Rules        *rules.Engine
	Profiles     *rules.ProfileManager
	Reconciler   *reconcile.Engine
	Strategies   *correction.Registry
	Stats        *metrics.Memory
}

// NewEngine assembles a quality engine: validator, anomaly detectors, rules,
// reconciler, correction strategies, built-in actions and the workflow
// orchestrator, then applies the declarative definitions.
func NewEngine(logger *slog.Logger, cfg EngineConfig) (*Engine, error) {
	stats := metrics.NewMemory()

	var sink metrics.Sink = stats
	if cfg.ExtraSink != nil {
		sink = metrics.Fanout{stats, cfg.ExtraSink}
	}

	validator := validation.NewValidator(logger)
	detectors := anomaly.NewRegistry(logger)
	rulesEngine := rules.NewEngine(logger, sink)
	profiles := rules.NewProfileManager(logger, rulesEngine)
	reconciler := reconcile.NewEngine(logger, sink)
	strategies := correction.NewDefaultRegistry()

	reg := registry.NewRegistry(logger)
	if err := actions.RegisterBuiltins(reg, logger, strategies, validator, reconciler); err != nil {
		return nil, fmt.Errorf("registering built-in actions: %w", err)
	}

	if cfg.DefinitionsPath != "" {
		defs, err := config.Load(cfg.DefinitionsPath)
		if err != nil {
			return nil, err
		}

		err = defs.Apply(config.Targets{
			Validator:  validator,
			Detectors:  detectors,
			Reconciler: reconciler,
			Profiles:   profiles,
			Registry:   reg,
		})
		if err != nil {
			return nil, fmt.Errorf("applying definitions: %w", err)
		}
	}

	if cfg.WorkflowsDir != "" {
		if err := loadWorkflows(reg, cfg.WorkflowsDir); err != nil {
			return nil, err
		}
	}

	orchestrator := workflow.NewOrchestrator(logger, reg, cfg.Publisher, workflow.WithMetrics(sink))

	service, err := quality.NewService(quality.Config{
		Logger:       logger,
		Validator:    validator,
		Anomalies:    detectors,
		Rules:        rulesEngine,
		Profiles:     profiles,
		Reconciler:   reconciler,
		Registry:     reg,
		Orchestrator: orchestrator,
		Store:        cfg.Store,
		Publisher:    cfg.Publisher,
		Stats:        stats,
		Sink:         sink,
	})
	if err != nil {
		return nil, err
	}

	return &Engine{
		Service:      service,
		Orchestrator: orchestrator,
		Registry:     reg,
		Validator:    validator,
		Detectors:    detectors,
		Rules:        rulesEngine,
		Profiles:     profiles,
		Reconciler:   reconciler,
		Strategies:   strategies,
		Stats:        stats,
	}, nil
}

func loadWorkflows(reg *registry.Registry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading workflows directory %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		wf, err := config.LoadWorkflowJSON(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}

		if err := reg.RegisterWorkflow(wf); err != nil {
			return fmt.Errorf("registering workflow from %s: %w", entry.Name(), err)
		}
	}

	return nil
}
