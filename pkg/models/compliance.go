package models

import "time"

// ComplianceProfile names a group of business rules representing one
// regulatory or standards framework, with the aggregate score the framework
// requires.
type ComplianceProfile struct {
	Name          string   `json:"name"           yaml:"name"           validate:"required"`
	Description   string   `json:"description"    yaml:"description"`
	RuleIDs       []string `json:"rule_ids"       yaml:"rule_ids"       validate:"required,min=1"`
	RequiredScore int      `json:"required_score" yaml:"required_score" validate:"min=0,max=100"`
}

// RuleViolation is one failed sub-rule of a business rule.
type RuleViolation struct {
	RuleID     string         `json:"rule_id"`
	SubRuleID  string         `json:"sub_rule_id"`
	Message    string         `json:"message"`
	Severity   Severity       `json:"severity"`
	Field      string         `json:"field,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	// Proposed correction from the sub-rule's corrector. Never applied by
	// the rule engine; application is the orchestrator's job.
	ProposedCorrection *Correction `json:"proposed_correction,omitempty"`
}

// RuleResult is the outcome of evaluating one business rule.
type RuleResult struct {
	RuleID     string          `json:"rule_id"`
	Passed     bool            `json:"passed"`
	Violations []RuleViolation `json:"violations"`
}

// ComplianceResult aggregates a set of rule evaluations into one score.
// The score starts at 100 and loses 20 per critical, 10 per error and 5 per
// warning violation, floored at 0.
type ComplianceResult struct {
	Score       int             `json:"score"`
	Passed      bool            `json:"passed"`
	RuleResults []RuleResult    `json:"rule_results"`
	Violations  []RuleViolation `json:"violations"`
	EvaluatedAt time.Time       `json:"evaluated_at"`
}

// ComplianceTrend classifies the recent direction of a profile's checks.
type ComplianceTrend string

const (
	TrendImproving ComplianceTrend = "improving"
	TrendDeclining ComplianceTrend = "declining"
	TrendStable    ComplianceTrend = "stable"
)

// ComplianceCheck is one historical profile evaluation kept for trend
// analysis.
type ComplianceCheck struct {
	Profile   string    `json:"profile"`
	Score     int       `json:"score"`
	Passed    bool      `json:"passed"`
	CheckedAt time.Time `json:"checked_at"`
}
