package metrics

import "sync"

// RuleStats is the aggregate for one business rule.
type RuleStats struct {
	Executions int64 `json:"executions"`
	Failures   int64 `json:"failures"`
}

// WorkflowStats is the aggregate for one workflow.
type WorkflowStats struct {
	Executions int64 `json:"executions"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}

// ScoreStats tracks the running quality score per data type.
type ScoreStats struct {
	Count int64 `json:"count"`
	Sum   int64 `json:"sum"`
	Last  int   `json:"last"`
}

// Average returns the mean score, or 0 with no observations.
func (s ScoreStats) Average() float64 {
	if s.Count == 0 {
		return 0
	}

	return float64(s.Sum) / float64(s.Count)
}

// Memory is an in-process Sink that the quality facade reads back for its
// health snapshot. Lost updates under concurrent increments are prevented by
// a single mutex; contention here is negligible next to rule evaluation.
type Memory struct {
	mu        sync.RWMutex
	rules     map[string]*RuleStats
	workflows map[string]*WorkflowStats
	scores    map[string]*ScoreStats
	conflicts map[string]int64
	pending   int
}

func NewMemory() *Memory {
	return &Memory{
		rules:     make(map[string]*RuleStats),
		workflows: make(map[string]*WorkflowStats),
		scores:    make(map[string]*ScoreStats),
		conflicts: make(map[string]int64),
	}
}

func (m *Memory) RuleEvaluated(ruleID string, passed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.rules[ruleID]
	if !ok {
		stats = &RuleStats{}
		m.rules[ruleID] = stats
	}

	stats.Executions++
	if !passed {
		stats.Failures++
	}
}

func (m *Memory) WorkflowFinished(workflowID string, status string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.workflows[workflowID]
	if !ok {
		stats = &WorkflowStats{}
		m.workflows[workflowID] = stats
	}

	stats.Executions++

	switch status {
	case "completed":
		stats.Completed++
	case "failed":
		stats.Failed++
	}
}

func (m *Memory) QualityScore(dataType string, score int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats, ok := m.scores[dataType]
	if !ok {
		stats = &ScoreStats{}
		m.scores[dataType] = stats
	}

	stats.Count++
	stats.Sum += int64(score)
	stats.Last = score
}

func (m *Memory) ReconciliationConflicts(dataType string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conflicts[dataType] += int64(count)
}

func (m *Memory) PendingApprovals(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pending = count
}

// RuleStats returns a copy of the per-rule aggregates.
func (m *Memory) RuleStats() map[string]RuleStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]RuleStats, len(m.rules))
	for id, stats := range m.rules {
		out[id] = *stats
	}

	return out
}

// WorkflowStats returns a copy of the per-workflow aggregates.
func (m *Memory) WorkflowStats() map[string]WorkflowStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]WorkflowStats, len(m.workflows))
	for id, stats := range m.workflows {
		out[id] = *stats
	}

	return out
}

// ScoreStats returns a copy of the per-data-type score aggregates.
func (m *Memory) ScoreStats() map[string]ScoreStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]ScoreStats, len(m.scores))
	for dt, stats := range m.scores {
		out[dt] = *stats
	}

	return out
}

// ConflictCounts returns reconciliation conflict totals per data type.
func (m *Memory) ConflictCounts() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]int64, len(m.conflicts))
	for dt, n := range m.conflicts {
		out[dt] = n
	}

	return out
}

// Pending returns the last reported pending-approval count.
func (m *Memory) Pending() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.pending
}
