// Package rules implements the business rule engine: named, prioritized
// condition sets evaluated against records, grouped into compliance profiles.
package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/shipshapehq/shipshape/pkg/metrics"
	"github.com/shipshapehq/shipshape/pkg/models"
)

// Compliance scoring: start at 100, deduct per violation severity, floor 0.
const (
	penaltyCritical = 20
	penaltyError    = 10
	penaltyWarning  = 5
)

// Predicate checks one condition against a record. True means the condition
// holds (no violation).
type Predicate func(record models.Record) bool

// Corrector proposes a correction for a failed condition. The engine attaches
// the proposal to the violation but never applies it; application is the
// orchestrator's job.
type Corrector func(record models.Record) *models.Correction

// SubRule is one condition of a business rule. Sub-rules run in registration
// order within their rule.
type SubRule struct {
	ID         string
	Condition  Predicate
	Message    string
	Severity   models.Severity
	Field      string
	Suggestion string
	Metadata   map[string]any
	Corrector  Corrector
}

// BusinessRule is a named, prioritized group of sub-rules. Definitions are
// read-only after registration; execution statistics flow into the injected
// metrics sink, never into the rule itself.
type BusinessRule struct {
	ID       string
	Name     string
	Category string
	Priority int
	SubRules []SubRule
}

// Engine evaluates business rules. Safe for concurrent evaluation: rule
// definitions are only read after registration.
type Engine struct {
	logger *slog.Logger
	sink   metrics.Sink

	mu    sync.RWMutex
	rules map[string]*BusinessRule
}

func NewEngine(logger *slog.Logger, sink metrics.Sink) *Engine {
	if sink == nil {
		sink = metrics.Nop{}
	}

	return &Engine{
		logger: logger.With("module", "rule_engine"),
		sink:   sink,
		rules:  make(map[string]*BusinessRule),
	}
}

// Register adds a business rule. Structural mistakes fail here, at startup.
func (e *Engine) Register(rule *BusinessRule) error {
	if rule.ID == "" {
		return fmt.Errorf("business rule id is required")
	}

	if len(rule.SubRules) == 0 {
		return fmt.Errorf("business rule %q has no sub-rules", rule.ID)
	}

	for i, sub := range rule.SubRules {
		if sub.Condition == nil {
			return fmt.Errorf("business rule %q: sub-rule %d has no condition", rule.ID, i)
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.rules[rule.ID]; exists {
		return fmt.Errorf("business rule %q is already registered", rule.ID)
	}

	e.rules[rule.ID] = rule
	e.logger.Info("Registered business rule", "rule_id", rule.ID, "category", rule.Category, "sub_rules", len(rule.SubRules))

	return nil
}

// Rule returns a registered rule by id.
func (e *Engine) Rule(id string) (*BusinessRule, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	rule, ok := e.rules[id]

	return rule, ok
}

// Evaluate runs every sub-rule of one business rule against the record.
// A panicking predicate is converted into an error-severity violation rather
// than propagating; the engine favors partial, explainable results.
func (e *Engine) Evaluate(rule *BusinessRule, record models.Record) *models.RuleResult {
	result := &models.RuleResult{
		RuleID:     rule.ID,
		Passed:     true,
		Violations: []models.RuleViolation{},
	}

	for _, sub := range rule.SubRules {
		violation := e.evaluateSubRule(rule, sub, record)
		if violation != nil {
			result.Passed = false
			result.Violations = append(result.Violations, *violation)
		}
	}

	e.sink.RuleEvaluated(rule.ID, result.Passed)

	return result
}

func (e *Engine) evaluateSubRule(rule *BusinessRule, sub SubRule, record models.Record) (violation *models.RuleViolation) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Sub-rule predicate panicked",
				"rule_id", rule.ID,
				"sub_rule_id", sub.ID,
				"panic", r)

			violation = &models.RuleViolation{
				RuleID:    rule.ID,
				SubRuleID: sub.ID,
				Message:   fmt.Sprintf("condition failed to evaluate: %v", r),
				Severity:  models.SeverityError,
				Field:     sub.Field,
			}
		}
	}()

	if sub.Condition(record) {
		return nil
	}

	violation = &models.RuleViolation{
		RuleID:     rule.ID,
		SubRuleID:  sub.ID,
		Message:    sub.Message,
		Severity:   sub.Severity,
		Field:      sub.Field,
		Suggestion: sub.Suggestion,
		Metadata:   sub.Metadata,
	}

	if sub.Corrector != nil {
		violation.ProposedCorrection = e.runCorrector(rule, sub, record)
	}

	return violation
}

func (e *Engine) runCorrector(rule *BusinessRule, sub SubRule, record models.Record) (correction *models.Correction) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("Sub-rule corrector panicked",
				"rule_id", rule.ID,
				"sub_rule_id", sub.ID,
				"panic", r)

			correction = nil
		}
	}()

	return sub.Corrector(record)
}

// EvaluateMany evaluates the named rules in priority order (highest first,
// registration order among equals) and aggregates one compliance score.
// Unknown rule ids are configuration errors and surface immediately.
func (e *Engine) EvaluateMany(ruleIDs []string, record models.Record) (*models.ComplianceResult, error) {
	rules := make([]*BusinessRule, 0, len(ruleIDs))

	e.mu.RLock()

	for _, id := range ruleIDs {
		rule, ok := e.rules[id]
		if !ok {
			e.mu.RUnlock()

			return nil, fmt.Errorf("business rule %q is not registered", id)
		}

		rules = append(rules, rule)
	}

	e.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})

	result := &models.ComplianceResult{
		Score:       100,
		Passed:      true,
		RuleResults: make([]models.RuleResult, 0, len(rules)),
		Violations:  []models.RuleViolation{},
		EvaluatedAt: time.Now().UTC(),
	}

	for _, rule := range rules {
		ruleResult := e.Evaluate(rule, record)
		result.RuleResults = append(result.RuleResults, *ruleResult)

		for _, violation := range ruleResult.Violations {
			result.Passed = false
			result.Violations = append(result.Violations, violation)

			switch violation.Severity {
			case models.SeverityCritical:
				result.Score -= penaltyCritical
			case models.SeverityError:
				result.Score -= penaltyError
			case models.SeverityWarning:
				result.Score -= penaltyWarning
			}
		}
	}

	if result.Score < 0 {
		result.Score = 0
	}

	return result, nil
}
