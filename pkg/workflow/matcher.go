package workflow

import (
	"log/slog"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// Matcher selects workflows whose triggers structurally match a validation
// outcome. Results are deduplicated by workflow id so one failure never
// queues the same workflow twice.
type Matcher struct {
	logger *slog.Logger
}

func NewMatcher(logger *slog.Logger) *Matcher {
	return &Matcher{logger: logger.With("module", "trigger_matcher")}
}

// Match returns every workflow with at least one trigger matching the
// validation result, in registration order.
func (m *Matcher) Match(workflows []*models.Workflow, result *models.ValidationResult) []*models.Workflow {
	var matched []*models.Workflow

	seen := make(map[string]bool)

	for _, workflow := range workflows {
		if seen[workflow.ID] {
			continue
		}

		for _, trigger := range workflow.Triggers {
			if m.matches(trigger, result) {
				matched = append(matched, workflow)
				seen[workflow.ID] = true

				m.logger.Debug("Trigger matched",
					"workflow_id", workflow.ID,
					"trigger_type", trigger.Type,
					"field", trigger.Field)

				break
			}
		}
	}

	m.logger.Debug("Trigger matching completed",
		"data_type", result.DataType,
		"errors", len(result.Errors),
		"matches", len(matched))

	return matched
}

// MatchEvent returns workflows with an event trigger for the named event
// type.
func (m *Matcher) MatchEvent(workflows []*models.Workflow, eventType string) []*models.Workflow {
	var matched []*models.Workflow

	seen := make(map[string]bool)

	for _, workflow := range workflows {
		if seen[workflow.ID] {
			continue
		}

		for _, trigger := range workflow.Triggers {
			if trigger.Type == models.TriggerTypeEvent && trigger.Event == eventType {
				matched = append(matched, workflow)
				seen[workflow.ID] = true

				break
			}
		}
	}

	return matched
}

func (m *Matcher) matches(trigger models.WorkflowTrigger, result *models.ValidationResult) bool {
	switch trigger.Type {
	case models.TriggerTypeValidationError:
		for _, issue := range result.Errors {
			if issue.Field != trigger.Field {
				continue
			}

			if trigger.ErrorCode == "" || trigger.ErrorCode == issue.Code {
				return true
			}
		}

		return false
	case models.TriggerTypeAnomaly:
		return len(result.Anomalies) > 0
	case models.TriggerTypeEvent:
		return false
	default:
		m.logger.Warn("Unknown trigger type", "type", trigger.Type)

		return false
	}
}
