package models

import "time"

// AnomalyMethod is the detection method a detector runs.
type AnomalyMethod string

const (
	AnomalyMethodZScore    AnomalyMethod = "zscore"
	AnomalyMethodIQR       AnomalyMethod = "iqr"
	AnomalyMethodThreshold AnomalyMethod = "threshold"
	AnomalyMethodCustom    AnomalyMethod = "custom"
)

// Anomaly is a flagged outlier produced by a detector. Severity is 1-10.
type Anomaly struct {
	Detector   string         `json:"detector"`
	Field      string         `json:"field"`
	Method     AnomalyMethod  `json:"method"`
	Value      any            `json:"value"`
	Severity   int            `json:"severity"`
	Message    string         `json:"message"`
	DetectedAt time.Time      `json:"detected_at"`
	Details    map[string]any `json:"details,omitempty"`
}
