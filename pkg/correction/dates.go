package correction

import (
	"fmt"
	"sort"
	"time"

	"github.com/shipshapehq/shipshape/pkg/models"
)

const dateSequenceMethod = "date_sequence_repair"

// defaultEventOrder is the expected ordering of shipment milestone events.
// Workflow steps can override it via the "event_order" parameter.
var defaultEventOrder = []string{
	"booking_confirmed",
	"gate_in",
	"loaded",
	"departed",
	"arrived",
	"discharged",
	"gate_out",
	"delivered",
}

// DateSequence repairs a map of milestone event dates that violate the
// expected event ordering. Known dates are reassigned to events in
// chronological order; missing dates between known neighbors are
// interpolated as the midpoint.
func DateSequence(value any, ctx Context) models.CorrectionResult {
	dates, ok := value.(map[string]any)
	if !ok {
		return failure(value, dateSequenceMethod, "date sequence input must be a map of event name to date")
	}

	order := eventOrder(ctx)

	parsed := make(map[string]time.Time, len(dates))

	for event, raw := range dates {
		t, ok := parseDate(raw)
		if !ok {
			return failure(value, dateSequenceMethod, fmt.Sprintf("event %q has an unparseable date %v", event, raw))
		}

		parsed[event] = t
	}

	// Collect the events we have dates for, in expected order, and the
	// dates themselves in chronological order. Reassigning sorted dates to
	// ordered events is the topological repair.
	var knownEvents []string

	for _, event := range order {
		if _, present := parsed[event]; present {
			knownEvents = append(knownEvents, event)
		}
	}

	if len(knownEvents) < 2 {
		return failure(value, dateSequenceMethod, "need at least two known milestone dates to repair a sequence")
	}

	chronological := make([]time.Time, 0, len(knownEvents))
	for _, event := range knownEvents {
		chronological = append(chronological, parsed[event])
	}

	alreadyOrdered := sort.SliceIsSorted(chronological, func(i, j int) bool {
		return chronological[i].Before(chronological[j])
	})

	sort.Slice(chronological, func(i, j int) bool {
		return chronological[i].Before(chronological[j])
	})

	repaired := make(map[string]any, len(order))
	for i, event := range knownEvents {
		repaired[event] = chronological[i].Format(time.RFC3339)
	}

	interpolated := interpolateMissing(order, knownEvents, chronological, repaired)

	if alreadyOrdered && interpolated == 0 {
		return models.CorrectionResult{
			Success:    true,
			Original:   value,
			Corrected:  repaired,
			Confidence: 100,
			Method:     dateSequenceMethod,
		}
	}

	confidence := 80
	if interpolated > 0 {
		// Interpolated midpoints are estimates, not observations.
		confidence = 70
	}

	return models.CorrectionResult{
		Success:     true,
		Original:    value,
		Corrected:   repaired,
		Confidence:  confidence,
		Method:      dateSequenceMethod,
		NeedsReview: interpolated > 0,
	}
}

// interpolateMissing fills events between known neighbors with the midpoint
// of the neighboring dates and returns how many were added.
func interpolateMissing(order, knownEvents []string, chronological []time.Time, repaired map[string]any) int {
	position := make(map[string]int, len(order))
	for i, event := range order {
		position[event] = i
	}

	count := 0

	for i := 0; i < len(knownEvents)-1; i++ {
		lo := position[knownEvents[i]]
		hi := position[knownEvents[i+1]]

		if hi-lo <= 1 {
			continue
		}

		midpoint := chronological[i].Add(chronological[i+1].Sub(chronological[i]) / 2)

		for _, event := range order[lo+1 : hi] {
			repaired[event] = midpoint.Format(time.RFC3339)
			count++
		}
	}

	return count
}

func eventOrder(ctx Context) []string {
	raw, ok := ctx.Params["event_order"].([]any)
	if !ok {
		return defaultEventOrder
	}

	order := make([]string, 0, len(raw))

	for _, item := range raw {
		if s, ok := item.(string); ok {
			order = append(order, s)
		}
	}

	if len(order) == 0 {
		return defaultEventOrder
	}

	return order
}

var acceptedDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range acceptedDateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}
	}

	return time.Time{}, false
}
