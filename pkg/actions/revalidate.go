package actions

import (
	"context"
	"fmt"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/registry"
	"github.com/shipshapehq/shipshape/pkg/validation"
)

// Revalidate re-runs schema validation against the execution's working
// record. Placing it after correction steps makes the workflow prove its
// corrections actually fixed the record. Step config: "data_type".
type Revalidate struct {
	validator *validation.Validator
}

func NewRevalidate(validator *validation.Validator) *Revalidate {
	return &Revalidate{validator: validator}
}

func (a *Revalidate) ID() string { return "revalidate" }

func (a *Revalidate) Execute(_ context.Context, record models.Record, config map[string]any) (registry.ActionResult, error) {
	dataType, _ := config["data_type"].(string)
	if dataType == "" {
		return registry.ActionResult{}, fmt.Errorf("revalidate requires a %q config entry", "data_type")
	}

	result := a.validator.Validate(dataType, record)

	return registry.ActionResult{
		Success:    result.Valid,
		Confidence: result.Score,
		Output: map[string]any{
			"score":    result.Score,
			"errors":   len(result.Errors),
			"warnings": len(result.Warnings),
		},
	}, nil
}
