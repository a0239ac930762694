package models

// Correction is a proposed or applied replacement value for one field.
type Correction struct {
	Field       string `json:"field"`
	Original    any    `json:"original"`
	Corrected   any    `json:"corrected"`
	Confidence  int    `json:"confidence"`
	Method      string `json:"method"`
	Reason      string `json:"reason,omitempty"`
	NeedsReview bool   `json:"needs_review,omitempty"`
}

// CorrectionResult is what a correction strategy returns. Strategies are pure
// functions: on failure Success is false and Reason says why, nothing is
// thrown.
type CorrectionResult struct {
	Success      bool   `json:"success"`
	Original     any    `json:"original"`
	Corrected    any    `json:"corrected,omitempty"`
	Confidence   int    `json:"confidence"`
	Method       string `json:"method"`
	Reason       string `json:"reason,omitempty"`
	Alternatives []any  `json:"alternatives,omitempty"`
	NeedsReview  bool   `json:"needs_review,omitempty"`
}
