// Package config loads declarative engine definitions: field rules, anomaly
// detectors, reconciliation rules, compliance profiles and workflows from
// YAML files, plus JSON workflow definitions validated against a schema.
package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/shipshapehq/shipshape/pkg/anomaly"
	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/reconcile"
	"github.com/shipshapehq/shipshape/pkg/registry"
	"github.com/shipshapehq/shipshape/pkg/validation"
)

// DetectorDefinition is the YAML shape of one anomaly detector. Custom
// detectors are code, not configuration, and cannot be declared here.
type DetectorDefinition struct {
	Name       string   `yaml:"name"`
	Field      string   `yaml:"field"`
	Method     string   `yaml:"method"`
	WindowSize int      `yaml:"window_size"`
	ZThreshold float64  `yaml:"z_threshold"`
	IQRFactor  float64  `yaml:"iqr_factor"`
	Min        *float64 `yaml:"min"`
	Max        *float64 `yaml:"max"`
}

// Definitions is the root of a definitions YAML file.
type Definitions struct {
	DataTypes      []*models.DataTypeRules      `yaml:"data_types"`
	Detectors      []DetectorDefinition         `yaml:"detectors"`
	Reconciliation []*models.ReconciliationRule `yaml:"reconciliation"`
	Profiles       []*models.ComplianceProfile  `yaml:"profiles"`
	Workflows      []*models.Workflow           `yaml:"workflows"`
}

// Load reads one definitions file.
func Load(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading definitions file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes definitions from YAML bytes.
func Parse(data []byte) (*Definitions, error) {
	var defs Definitions

	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, fmt.Errorf("parsing definitions: %w", err)
	}

	return &defs, nil
}

// Targets are the registries definitions are applied to. Nil targets skip
// their section.
type Targets struct {
	Validator  *validation.Validator
	Detectors  *anomaly.Registry
	Reconciler *reconcile.Engine
	Profiles   ProfileRegistrar
	Registry   *registry.Registry
}

// ProfileRegistrar accepts compliance profile definitions.
type ProfileRegistrar interface {
	Register(profile *models.ComplianceProfile) error
}

// Apply registers every definition with its target. Registration is
// fail-fast: the first invalid definition aborts with an error naming it.
func (d *Definitions) Apply(targets Targets) error {
	if targets.Validator != nil {
		for _, dt := range d.DataTypes {
			if err := targets.Validator.RegisterDataType(dt); err != nil {
				return err
			}
		}
	}

	if targets.Detectors != nil {
		for _, def := range d.Detectors {
			cfg, err := def.toConfig()
			if err != nil {
				return err
			}

			if err := targets.Detectors.Register(cfg); err != nil {
				return err
			}
		}
	}

	if targets.Reconciler != nil {
		for _, rule := range d.Reconciliation {
			if err := targets.Reconciler.Register(rule); err != nil {
				return err
			}
		}
	}

	if targets.Profiles != nil {
		for _, profile := range d.Profiles {
			if err := targets.Profiles.Register(profile); err != nil {
				return err
			}
		}
	}

	if targets.Registry != nil {
		for _, wf := range d.Workflows {
			if err := targets.Registry.RegisterWorkflow(wf); err != nil {
				return err
			}
		}
	}

	return nil
}

func (d DetectorDefinition) toConfig() (anomaly.Config, error) {
	method := models.AnomalyMethod(d.Method)

	switch method {
	case models.AnomalyMethodZScore, models.AnomalyMethodIQR, models.AnomalyMethodThreshold:
	case models.AnomalyMethodCustom:
		return anomaly.Config{}, fmt.Errorf("detector %q: custom detectors are registered in code, not configuration", d.Name)
	default:
		return anomaly.Config{}, fmt.Errorf("detector %q: unknown method %q", d.Name, d.Method)
	}

	return anomaly.Config{
		Name:       d.Name,
		Field:      d.Field,
		Method:     method,
		WindowSize: d.WindowSize,
		ZThreshold: d.ZThreshold,
		IQRFactor:  d.IQRFactor,
		Min:        d.Min,
		Max:        d.Max,
	}, nil
}
