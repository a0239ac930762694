// Package models defines the core domain models for shipment data quality control.
package models

// Record is a single shipment/logistics entity as ingested from a source.
// The engine makes no schema assumptions beyond the field rules registered
// for the record's data type.
type Record map[string]any

// Clone returns a deep copy of the record. Workflow executions operate on a
// clone so sequential corrections never touch the caller's original.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}

	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}

	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = cloneValue(inner)
		}

		return out
	case Record:
		return map[string]any(val.Clone())
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = cloneValue(inner)
		}

		return out
	default:
		return val
	}
}
