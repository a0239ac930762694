package actions

import (
	"context"
	"fmt"
	"time"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/reconcile"
	"github.com/shipshapehq/shipshape/pkg/registry"
)

const defaultSourcesField = "sources"

// ReconcileSources resolves disagreeing source reports carried on the record
// into one authoritative value set. Step config: "data_type", optional
// "sources_field" naming the record field holding the source list.
type ReconcileSources struct {
	engine *reconcile.Engine
}

func NewReconcileSources(engine *reconcile.Engine) *ReconcileSources {
	return &ReconcileSources{engine: engine}
}

func (a *ReconcileSources) ID() string { return "reconcile_sources" }

func (a *ReconcileSources) Execute(_ context.Context, record models.Record, config map[string]any) (registry.ActionResult, error) {
	dataType, _ := config["data_type"].(string)
	if dataType == "" {
		return registry.ActionResult{}, fmt.Errorf("reconcile_sources requires a %q config entry", "data_type")
	}

	sourcesField, _ := config["sources_field"].(string)
	if sourcesField == "" {
		sourcesField = defaultSourcesField
	}

	raw, found := lookupField(record, sourcesField)
	if !found {
		return registry.ActionResult{
			Success: false,
			Output:  map[string]any{"reason": fmt.Sprintf("record has no %s field", sourcesField)},
		}, nil
	}

	sources, err := parseSources(raw)
	if err != nil {
		return registry.ActionResult{
			Success: false,
			Output:  map[string]any{"reason": err.Error()},
		}, nil
	}

	result, err := a.engine.Reconcile(dataType, sources)
	if err != nil {
		return registry.ActionResult{}, err
	}

	corrections := make([]models.Correction, 0, len(result.Resolved))

	for field, value := range result.Resolved {
		original, _ := lookupField(record, field)
		corrections = append(corrections, models.Correction{
			Field:      field,
			Original:   original,
			Corrected:  value,
			Confidence: result.Confidence,
			Method:     result.Method,
		})
	}

	return registry.ActionResult{
		Success:     true,
		Confidence:  result.Confidence,
		Corrections: corrections,
		Output: map[string]any{
			"winner_source": result.WinnerSource,
			"conflicts":     len(result.Conflicts),
		},
	}, nil
}

func parseSources(raw any) ([]models.Source, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("sources field must be a list, got %T", raw)
	}

	sources := make([]models.Source, 0, len(list))

	for i, item := range list {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("source %d must be an object, got %T", i, item)
		}

		source := models.Source{}

		source.Name, _ = obj["name"].(string)
		if source.Name == "" {
			return nil, fmt.Errorf("source %d has no name", i)
		}

		source.Data, ok = obj["data"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("source %q has no data object", source.Name)
		}

		switch ts := obj["timestamp"].(type) {
		case time.Time:
			source.Timestamp = ts
		case string:
			parsed, err := time.Parse(time.RFC3339, ts)
			if err != nil {
				return nil, fmt.Errorf("source %q has an unparseable timestamp: %w", source.Name, err)
			}

			source.Timestamp = parsed
		}

		if confidence, ok := obj["confidence"].(float64); ok {
			source.Confidence = int(confidence)
		} else if confidence, ok := obj["confidence"].(int); ok {
			source.Confidence = confidence
		}

		sources = append(sources, source)
	}

	return sources, nil
}
