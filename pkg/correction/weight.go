package correction

import (
	"fmt"
	"strings"

	"github.com/shipshapehq/shipshape/pkg/models"
)

const weightMethod = "unit_conversion"

// weightRange is the expected gross cargo weight in kilograms for one
// container and cargo type combination.
type weightRange struct {
	min float64
	max float64
}

// expectedWeights is keyed by "<container_type>/<cargo_type>".
var expectedWeights = map[string]weightRange{
	"20GP/general":     {min: 2000, max: 21000},
	"20GP/electronics": {min: 3000, max: 15000},
	"20GP/machinery":   {min: 5000, max: 21000},
	"40GP/general":     {min: 3000, max: 26000},
	"40GP/electronics": {min: 5000, max: 20000},
	"40GP/machinery":   {min: 8000, max: 26000},
	"40HC/general":     {min: 3000, max: 26000},
	"40HC/electronics": {min: 5000, max: 20000},
	"45HC/general":     {min: 4000, max: 27000},
}

// containerMaxPayload is the physical payload limit in kilograms.
var containerMaxPayload = map[string]float64{
	"20GP": 28200,
	"40GP": 26700,
	"40HC": 26460,
	"45HC": 27700,
}

// WeightUnit corrects weights recorded in the wrong unit, most commonly tons
// entered where kilograms were expected. Detection is an order-of-magnitude
// check against the expected range for the container and cargo type; weights
// above the container's physical maximum are capped and flagged for review.
func WeightUnit(value any, ctx Context) models.CorrectionResult {
	weight, ok := toNumber(value)
	if !ok {
		return failure(value, weightMethod, "weight must be numeric")
	}

	if weight <= 0 {
		return failure(value, weightMethod, fmt.Sprintf("weight %v is not positive", value))
	}

	containerType := strings.ToUpper(contextString(ctx, "container_type"))
	cargoType := strings.ToLower(contextString(ctx, "cargo_type"))

	expected, known := expectedWeights[containerType+"/"+cargoType]
	if !known {
		return failure(value, weightMethod, fmt.Sprintf("no expected weight range for container %q cargo %q", containerType, cargoType))
	}

	if weight >= expected.min && weight <= expected.max {
		return models.CorrectionResult{
			Success:    true,
			Original:   value,
			Corrected:  weight,
			Confidence: 100,
			Method:     weightMethod,
		}
	}

	// Three orders of magnitude below range is the ton/kg signature.
	if weight < expected.min && weight*1000 >= expected.min && weight*1000 <= expected.max {
		return models.CorrectionResult{
			Success:    true,
			Original:   value,
			Corrected:  weight * 1000,
			Confidence: 85,
			Method:     weightMethod,
			Reason:     "weight appears to be tons recorded as kilograms",
		}
	}

	if max, ok := containerMaxPayload[containerType]; ok && weight > max {
		return models.CorrectionResult{
			Success:     true,
			Original:    value,
			Corrected:   max,
			Confidence:  50,
			Method:      weightMethod,
			Reason:      fmt.Sprintf("weight exceeds the %s physical maximum of %.0f kg", containerType, max),
			NeedsReview: true,
		}
	}

	return failure(value, weightMethod, fmt.Sprintf("weight %.2f is outside the expected range [%.0f, %.0f] with no recognizable unit confusion", weight, expected.min, expected.max))
}

func contextString(ctx Context, name string) string {
	if s := ctx.StringParam(name); s != "" {
		return s
	}

	s, _ := ctx.Record[name].(string)

	return s
}

func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
