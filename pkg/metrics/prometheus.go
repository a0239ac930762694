package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus is a Sink backed by prometheus collectors, for deployments that
// scrape instead of polling the facade snapshot.
type Prometheus struct {
	ruleEvaluations *prometheus.CounterVec
	ruleFailures    *prometheus.CounterVec
	workflowRuns    *prometheus.CounterVec
	qualityScore    *prometheus.GaugeVec
	conflicts       *prometheus.CounterVec
	pending         prometheus.Gauge
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		ruleEvaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipshape",
			Name:      "rule_evaluations_total",
			Help:      "Business rule evaluations by rule id.",
		}, []string{"rule_id"}),
		ruleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipshape",
			Name:      "rule_failures_total",
			Help:      "Business rule evaluations that produced violations.",
		}, []string{"rule_id"}),
		workflowRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipshape",
			Name:      "workflow_runs_total",
			Help:      "Finished workflow executions by terminal status.",
		}, []string{"workflow_id", "status"}),
		qualityScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "shipshape",
			Name:      "quality_score",
			Help:      "Most recent validation score by data type.",
		}, []string{"data_type"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shipshape",
			Name:      "reconciliation_conflicts_total",
			Help:      "Source conflicts recorded during reconciliation.",
		}, []string{"data_type"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shipshape",
			Name:      "pending_approvals",
			Help:      "Approvals currently waiting for a reviewer.",
		}),
	}

	reg.MustRegister(p.ruleEvaluations, p.ruleFailures, p.workflowRuns, p.qualityScore, p.conflicts, p.pending)

	return p
}

func (p *Prometheus) RuleEvaluated(ruleID string, passed bool) {
	p.ruleEvaluations.WithLabelValues(ruleID).Inc()

	if !passed {
		p.ruleFailures.WithLabelValues(ruleID).Inc()
	}
}

func (p *Prometheus) WorkflowFinished(workflowID string, status string) {
	p.workflowRuns.WithLabelValues(workflowID, status).Inc()
}

func (p *Prometheus) QualityScore(dataType string, score int) {
	p.qualityScore.WithLabelValues(dataType).Set(float64(score))
}

func (p *Prometheus) ReconciliationConflicts(dataType string, count int) {
	p.conflicts.WithLabelValues(dataType).Add(float64(count))
}

func (p *Prometheus) PendingApprovals(count int) {
	p.pending.Set(float64(count))
}
