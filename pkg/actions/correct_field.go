// Package actions provides the built-in step handlers workflows dispatch to:
// field correction, re-validation, source reconciliation and logging.
package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/shipshapehq/shipshape/pkg/correction"
	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/registry"
)

// CorrectField runs a named correction strategy against one record field.
// Step config: "field" (dotted path), "strategy", optional "params".
type CorrectField struct {
	strategies *correction.Registry
}

func NewCorrectField(strategies *correction.Registry) *CorrectField {
	return &CorrectField{strategies: strategies}
}

func (a *CorrectField) ID() string { return "correct_field" }

func (a *CorrectField) Execute(_ context.Context, record models.Record, config map[string]any) (registry.ActionResult, error) {
	field, _ := config["field"].(string)
	if field == "" {
		return registry.ActionResult{}, fmt.Errorf("correct_field requires a %q config entry", "field")
	}

	strategy, _ := config["strategy"].(string)
	if strategy == "" {
		return registry.ActionResult{}, fmt.Errorf("correct_field requires a %q config entry", "strategy")
	}

	params, _ := config["params"].(map[string]any)

	value, found := lookupField(record, field)
	if !found {
		return registry.ActionResult{
			Success: false,
			Output:  map[string]any{"reason": fmt.Sprintf("field %s is absent", field)},
		}, nil
	}

	result, err := a.strategies.Correct(strategy, value, correction.Context{Record: record, Params: params})
	if err != nil {
		return registry.ActionResult{}, err
	}

	if !result.Success {
		return registry.ActionResult{
			Success: false,
			Output:  map[string]any{"reason": result.Reason},
		}, nil
	}

	return registry.ActionResult{
		Success:    true,
		Confidence: result.Confidence,
		Corrections: []models.Correction{{
			Field:       field,
			Original:    result.Original,
			Corrected:   result.Corrected,
			Confidence:  result.Confidence,
			Method:      result.Method,
			Reason:      result.Reason,
			NeedsReview: result.NeedsReview,
		}},
		Output: map[string]any{"alternatives": result.Alternatives},
	}, nil
}

// lookupField walks a dotted path through nested maps.
func lookupField(record models.Record, field string) (any, bool) {
	var current any = map[string]any(record)

	for _, part := range strings.Split(field, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}
