package models

import "time"

// Severity classifies a validation or rule violation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityError    Severity = "error"
	SeverityWarning  Severity = "warning"
)

// ValidationIssue is one failed constraint on one field. Field, Rule and
// Message are always set.
type ValidationIssue struct {
	Field      string         `json:"field"`
	Rule       string         `json:"rule"`
	Message    string         `json:"message"`
	Severity   Severity       `json:"severity"`
	Value      any            `json:"value,omitempty"`
	Code       string         `json:"code,omitempty"`
	Suggestion string         `json:"suggestion,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ValidationResult is the outcome of validating one record against the field
// rules of its data type. Results are returned as data, never thrown, and the
// engine does not persist them itself.
type ValidationResult struct {
	DataType    string            `json:"data_type"`
	EntityID    string            `json:"entity_id,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Valid       bool              `json:"valid"`
	Score       int               `json:"score"`
	Errors      []ValidationIssue `json:"errors"`
	Warnings    []ValidationIssue `json:"warnings"`
	Suggestions []string          `json:"suggestions,omitempty"`
	Anomalies   []Anomaly         `json:"anomalies,omitempty"`
}

// HasIssues reports whether the result carries any errors or warnings.
func (v *ValidationResult) HasIssues() bool {
	return len(v.Errors) > 0 || len(v.Warnings) > 0
}
