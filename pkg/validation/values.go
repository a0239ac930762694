package validation

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// lookupField resolves a possibly dotted field path inside a record or nested
// object.
func lookupField(container any, field string) (any, bool) {
	obj, ok := asObject(container)
	if !ok {
		return nil, false
	}

	parts := strings.Split(field, ".")
	current := obj

	for i, part := range parts {
		value, present := current[part]
		if !present {
			return nil, false
		}

		if i == len(parts)-1 {
			return value, true
		}

		current, ok = asObject(value)
		if !ok {
			return nil, false
		}
	}

	return nil, false
}

func asObject(value any) (map[string]any, bool) {
	switch v := value.(type) {
	case map[string]any:
		return v, true
	case models.Record:
		return v, true
	default:
		return nil, false
	}
}

func asString(value any) (string, bool) {
	s, ok := value.(string)

	return s, ok
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()

		return f, err == nil
	default:
		return 0, false
	}
}

// dateLayouts are accepted string encodings for date fields, most specific
// first.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func asTime(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, true
			}
		}

		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func matchesType(value any, fieldType models.FieldType) bool {
	switch fieldType {
	case models.FieldTypeString:
		_, ok := asString(value)

		return ok
	case models.FieldTypeNumber:
		_, ok := asNumber(value)

		return ok
	case models.FieldTypeBoolean:
		_, ok := value.(bool)

		return ok
	case models.FieldTypeDate:
		_, ok := asTime(value)

		return ok
	case models.FieldTypeObject:
		_, ok := asObject(value)

		return ok
	case models.FieldTypeArray:
		_, ok := value.([]any)

		return ok
	default:
		return false
	}
}
