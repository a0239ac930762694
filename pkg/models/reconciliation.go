package models

import "time"

// Source is one labeled, timestamped view of an entity used during
// reconciliation. The engine is agnostic to where it came from (carrier API,
// EDI message, OCR extraction, manual entry).
type Source struct {
	Name       string         `json:"name"       validate:"required"`
	Timestamp  time.Time      `json:"timestamp"`
	Data       map[string]any `json:"data"       validate:"required"`
	Confidence int            `json:"confidence" validate:"min=0,max=100"`
}

// ResolutionStrategy names one reconciliation strategy.
type ResolutionStrategy string

const (
	StrategyMajorityVote       ResolutionStrategy = "majority_vote"
	StrategyRecency            ResolutionStrategy = "recency"
	StrategyGeometricThreshold ResolutionStrategy = "geometric_threshold"
	StrategySourcePreference   ResolutionStrategy = "source_preference"
)

// ResolutionRule configures one strategy attempt within a reconciliation
// rule. Strategies are tried in registration order; the first that resolves
// wins.
type ResolutionRule struct {
	Strategy        ResolutionStrategy `json:"strategy"         yaml:"strategy"         validate:"required,oneof=majority_vote recency geometric_threshold source_preference"`
	Confidence      int                `json:"confidence"       yaml:"confidence"       validate:"min=0,max=100"`
	Field           string             `json:"field,omitempty"  yaml:"field,omitempty"`
	StalenessWindow time.Duration      `json:"staleness_window,omitempty" yaml:"staleness_window,omitempty"`
	MaxDistanceKM   float64            `json:"max_distance_km,omitempty"  yaml:"max_distance_km,omitempty"`
	PreferredSource string             `json:"preferred_source,omitempty" yaml:"preferred_source,omitempty"`
}

// ReconciliationRule configures how sources for one data type are resolved.
type ReconciliationRule struct {
	DataType       string           `json:"data_type"       yaml:"data_type"       validate:"required"`
	SourcePriority []string         `json:"source_priority" yaml:"source_priority" validate:"required,min=1"`
	Rules          []ResolutionRule `json:"rules"           yaml:"rules"           validate:"dive"`
}

// Conflict records one disagreeing source pair for audit or manual review.
type Conflict struct {
	Field   string `json:"field"`
	SourceA string `json:"source_a"`
	SourceB string `json:"source_b"`
	ValueA  any    `json:"value_a"`
	ValueB  any    `json:"value_b"`
}

// ReconciliationResult is the single authoritative view produced from N
// sources.
type ReconciliationResult struct {
	DataType     string         `json:"data_type"`
	Resolved     map[string]any `json:"resolved"`
	Confidence   int            `json:"confidence"`
	Method       string         `json:"method"`
	WinnerSource string         `json:"winner_source,omitempty"`
	Conflicts    []Conflict     `json:"conflicts,omitempty"`
	Sources      []string       `json:"sources"`
	ReconciledAt time.Time      `json:"reconciled_at"`
}
