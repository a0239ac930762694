// Package correction implements the deterministic correction strategies
// invoked by workflow steps. Every strategy is a pure function of its value
// and context: no shared state, safe to call concurrently from any number of
// executions.
package correction

import (
	"fmt"
	"sync"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// Context carries the record the value came from plus strategy parameters
// from the workflow step configuration.
type Context struct {
	Record models.Record
	Params map[string]any
}

// StringParam reads a string parameter, empty when absent.
func (c Context) StringParam(name string) string {
	s, _ := c.Params[name].(string)

	return s
}

// Func is a correction strategy. It must not mutate the context record.
type Func func(value any, ctx Context) models.CorrectionResult

// Registry maps strategy names to functions. Built at startup; lookups are
// read-only afterwards.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Func)}
}

// NewDefaultRegistry returns a registry with every built-in strategy.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()

	r.MustRegister("container_check_digit", ContainerCheckDigit)
	r.MustRegister("port_code", PortCode)
	r.MustRegister("date_sequence", DateSequence)
	r.MustRegister("hs_code_format", HSCodeFormat)
	r.MustRegister("weight_unit", WeightUnit)

	return r
}

func (r *Registry) Register(name string, fn Func) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.strategies[name]; exists {
		return fmt.Errorf("correction strategy %q is already registered", name)
	}

	r.strategies[name] = fn

	return nil
}

func (r *Registry) MustRegister(name string, fn Func) {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
}

// Get resolves a strategy by name.
func (r *Registry) Get(name string) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.strategies[name]

	return fn, ok
}

// Correct runs a named strategy. An unknown name is a configuration error.
func (r *Registry) Correct(name string, value any, ctx Context) (models.CorrectionResult, error) {
	fn, ok := r.Get(name)
	if !ok {
		return models.CorrectionResult{}, fmt.Errorf("correction strategy %q is not registered", name)
	}

	return fn(value, ctx), nil
}

func failure(value any, method, reason string) models.CorrectionResult {
	return models.CorrectionResult{
		Success:  false,
		Original: value,
		Method:   method,
		Reason:   reason,
	}
}
