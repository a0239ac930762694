// Package metrics defines the sink that receives rule, workflow and
// reconciliation statistics. Rule and workflow definitions stay immutable;
// all execution counters flow through an injected Sink instead of fields on
// the definitions themselves.
package metrics

// Sink receives engine statistics. Implementations must be safe for
// concurrent use; evaluations from many goroutines report into one sink.
type Sink interface {
	RuleEvaluated(ruleID string, passed bool)
	WorkflowFinished(workflowID string, status string)
	QualityScore(dataType string, score int)
	ReconciliationConflicts(dataType string, count int)
	PendingApprovals(count int)
}

// Fanout forwards every observation to all wrapped sinks.
type Fanout []Sink

func (f Fanout) RuleEvaluated(ruleID string, passed bool) {
	for _, s := range f {
		s.RuleEvaluated(ruleID, passed)
	}
}

func (f Fanout) WorkflowFinished(workflowID string, status string) {
	for _, s := range f {
		s.WorkflowFinished(workflowID, status)
	}
}

func (f Fanout) QualityScore(dataType string, score int) {
	for _, s := range f {
		s.QualityScore(dataType, score)
	}
}

func (f Fanout) ReconciliationConflicts(dataType string, count int) {
	for _, s := range f {
		s.ReconciliationConflicts(dataType, count)
	}
}

func (f Fanout) PendingApprovals(count int) {
	for _, s := range f {
		s.PendingApprovals(count)
	}
}

// Nop discards everything. Useful for tests that do not inspect metrics.
type Nop struct{}

func (Nop) RuleEvaluated(string, bool)          {}
func (Nop) WorkflowFinished(string, string)     {}
func (Nop) QualityScore(string, int)            {}
func (Nop) ReconciliationConflicts(string, int) {}
func (Nop) PendingApprovals(int)                {}
