package quality

import (
	"time"

	"github.com/shipshapehq/shipshape/pkg/metrics"
)

// DataTypeScore summarizes quality scores observed for one data type.
type DataTypeScore struct {
	Average float64 `json:"average"`
	Last    int     `json:"last"`
	Count   int64   `json:"count"`
}

// RuleRate is the failure rate of one business rule.
type RuleRate struct {
	Executions  int64   `json:"executions"`
	Failures    int64   `json:"failures"`
	FailureRate float64 `json:"failure_rate"`
}

// WorkflowRate is the success rate of one workflow.
type WorkflowRate struct {
	Executions  int64   `json:"executions"`
	Completed   int64   `json:"completed"`
	Failed      int64   `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// Snapshot is the structured metrics export consumed by dashboards. Field
// names are stable.
type Snapshot struct {
	GeneratedAt             time.Time                `json:"generated_at"`
	QualityScores           map[string]DataTypeScore `json:"quality_scores"`
	RuleFailureRates        map[string]RuleRate      `json:"rule_failure_rates"`
	WorkflowSuccessRates    map[string]WorkflowRate  `json:"workflow_success_rates"`
	PendingApprovals        int                      `json:"pending_approvals"`
	ReconciliationConflicts map[string]int64         `json:"reconciliation_conflicts"`
}

// Snapshot assembles the current health/metrics view: quality score per data
// type, rule failure rates, workflow success rates, pending approvals and
// reconciliation conflict counts.
func (s *Service) Snapshot() *Snapshot {
	snapshot := &Snapshot{
		GeneratedAt:             time.Now().UTC(),
		QualityScores:           make(map[string]DataTypeScore),
		RuleFailureRates:        make(map[string]RuleRate),
		WorkflowSuccessRates:    make(map[string]WorkflowRate),
		PendingApprovals:        len(s.orchestrator.Approvals()),
		ReconciliationConflicts: s.stats.ConflictCounts(),
	}

	for dataType, stats := range s.stats.ScoreStats() {
		snapshot.QualityScores[dataType] = DataTypeScore{
			Average: stats.Average(),
			Last:    stats.Last,
			Count:   stats.Count,
		}
	}

	for ruleID, stats := range s.stats.RuleStats() {
		rate := RuleRate{Executions: stats.Executions, Failures: stats.Failures}
		if stats.Executions > 0 {
			rate.FailureRate = float64(stats.Failures) / float64(stats.Executions)
		}

		snapshot.RuleFailureRates[ruleID] = rate
	}

	for workflowID, stats := range s.stats.WorkflowStats() {
		rate := WorkflowRate{
			Executions: stats.Executions,
			Completed:  stats.Completed,
			Failed:     stats.Failed,
		}
		if stats.Executions > 0 {
			rate.SuccessRate = float64(stats.Completed) / float64(stats.Executions)
		}

		snapshot.WorkflowSuccessRates[workflowID] = rate
	}

	return snapshot
}

// Stats exposes the underlying memory sink for wiring into engines that
// report into it.
func (s *Service) Stats() *metrics.Memory {
	return s.stats
}
