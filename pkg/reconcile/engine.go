// Package reconcile implements multi-source conflict resolution: given N
// labeled views of the same entity, it produces one authoritative value, a
// confidence score and the conflicts that remain.
package reconcile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shipshapehq/shipshape/pkg/metrics"
	"github.com/shipshapehq/shipshape/pkg/models"
)

// fallbackConfidence applies when no resolution rule matched and the engine
// fell back to the priority-ordered source list.
const fallbackConfidence = 60

// Engine resolves sources using the reconciliation rule registered per data
// type. Rules are immutable after registration; Reconcile is safe for
// concurrent use.
type Engine struct {
	logger   *slog.Logger
	sink     metrics.Sink
	validate *validator.Validate

	mu    sync.RWMutex
	rules map[string]*models.ReconciliationRule
}

func NewEngine(logger *slog.Logger, sink metrics.Sink) *Engine {
	if sink == nil {
		sink = metrics.Nop{}
	}

	return &Engine{
		logger:   logger.With("module", "reconciliation_engine"),
		sink:     sink,
		validate: validator.New(),
		rules:    make(map[string]*models.ReconciliationRule),
	}
}

// Register adds the reconciliation rule for one data type.
func (e *Engine) Register(rule *models.ReconciliationRule) error {
	err := e.validate.Struct(rule)
	if err != nil {
		return fmt.Errorf("invalid reconciliation rule for %q: %w", rule.DataType, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rules[rule.DataType]; exists {
		return fmt.Errorf("reconciliation rule for %q is already registered", rule.DataType)
	}

	e.rules[rule.DataType] = rule
	e.logger.Info("Registered reconciliation rule", "data_type", rule.DataType, "strategies", len(rule.Rules))

	return nil
}

// Reconcile resolves the sources for one data type. Resolution order, first
// match wins: unanimity, then each configured strategy in registration
// order, then priority fallback at reduced confidence. Strategies with
// insufficient data are skipped, never an error.
func (e *Engine) Reconcile(dataType string, sources []models.Source) (*models.ReconciliationResult, error) {
	e.mu.RLock()
	rule, ok := e.rules[dataType]
	e.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no reconciliation rule registered for data type %q", dataType)
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("reconciliation for %q needs at least one source", dataType)
	}

	result := &models.ReconciliationResult{
		DataType:     dataType,
		Sources:      sourceNames(sources),
		ReconciledAt: time.Now().UTC(),
	}

	if resolved, winner := unanimous(sources); resolved != nil {
		result.Resolved = resolved
		result.Confidence = 100
		result.Method = "unanimity"
		result.WinnerSource = winner

		return result, nil
	}

	resolved := false
	synthesized := ""

	for _, resolution := range rule.Rules {
		outcome := e.applyStrategy(resolution, sources)
		if outcome == nil {
			continue
		}

		result.Resolved = outcome.resolved
		result.Confidence = resolution.Confidence
		result.Method = string(resolution.Strategy)
		result.WinnerSource = outcome.winner
		synthesized = outcome.synthesized
		resolved = true

		break
	}

	if !resolved {
		winner := e.priorityFallback(rule, sources)
		if winner == nil {
			return nil, fmt.Errorf("no source matches the priority list for data type %q", dataType)
		}

		result.Resolved = winner.Data
		result.Confidence = fallbackConfidence
		result.Method = "source_priority"
		result.WinnerSource = winner.Name
	}

	if result.Confidence < 100 {
		result.Conflicts = dissentingConflicts(result.Resolved, result.WinnerSource, sources, synthesized)
		e.sink.ReconciliationConflicts(dataType, len(result.Conflicts))
	}

	return result, nil
}

type strategyOutcome struct {
	resolved map[string]any
	winner   string

	// synthesized names a field whose resolved value was computed rather
	// than taken from a source, so no source is expected to match it.
	synthesized string
}

// applyStrategy returns nil when the strategy does not resolve, including
// when its preconditions are not met (insufficient data is a skip, not an
// error).
func (e *Engine) applyStrategy(resolution models.ResolutionRule, sources []models.Source) *strategyOutcome {
	switch resolution.Strategy {
	case models.StrategyMajorityVote:
		return majorityVote(resolution, sources)
	case models.StrategyRecency:
		return mostRecent(resolution, sources, time.Now().UTC())
	case models.StrategyGeometricThreshold:
		return geometricCentroid(resolution, sources)
	case models.StrategySourcePreference:
		return preferredSource(resolution, sources)
	default:
		e.logger.Warn("Skipping unknown resolution strategy", "strategy", resolution.Strategy)

		return nil
	}
}

func (e *Engine) priorityFallback(rule *models.ReconciliationRule, sources []models.Source) *models.Source {
	for _, name := range rule.SourcePriority {
		for i := range sources {
			if sources[i].Name == name {
				return &sources[i]
			}
		}
	}

	return nil
}

// unanimous reports the shared value when every source serializes
// identically.
func unanimous(sources []models.Source) (map[string]any, string) {
	first := canonical(sources[0].Data)

	for _, source := range sources[1:] {
		if canonical(source.Data) != first {
			return nil, ""
		}
	}

	return sources[0].Data, sources[0].Name
}

// dissentingConflicts records, per field, each source whose value differs
// from the resolved one, for audit or manual review. A synthesized field is
// skipped: its resolved value is computed, so every source would dissent.
func dissentingConflicts(resolved map[string]any, winner string, sources []models.Source, synthesized string) []models.Conflict {
	var conflicts []models.Conflict

	for _, source := range sources {
		if source.Name == winner {
			continue
		}

		for field, resolvedValue := range resolved {
			if field == synthesized {
				continue
			}
			value, present := source.Data[field]
			if !present {
				continue
			}

			if canonicalValue(value) != canonicalValue(resolvedValue) {
				conflicts = append(conflicts, models.Conflict{
					Field:   field,
					SourceA: winner,
					SourceB: source.Name,
					ValueA:  resolvedValue,
					ValueB:  value,
				})
			}
		}
	}

	return conflicts
}

func sourceNames(sources []models.Source) []string {
	names := make([]string, len(sources))
	for i, source := range sources {
		names[i] = source.Name
	}

	return names
}

// canonical serializes a data map deterministically for equality checks.
// json.Marshal sorts map keys, which is exactly the property needed.
func canonical(data map[string]any) string {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Sprintf("%#v", data)
	}

	return string(payload)
}

func canonicalValue(value any) string {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%#v", value)
	}

	return string(payload)
}
