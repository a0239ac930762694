package correction

import (
	"fmt"
	"strings"

	"github.com/shipshapehq/shipshape/pkg/models"
)

const hsCodeMethod = "hs_code_normalization"

// hsValidLengths are the accepted HS code digit counts: 6 (international
// subheading), 8 and 10 (national tariff lines).
var hsValidLengths = []int{10, 8, 6}

// HSCodeFormat normalizes a Harmonized System code: strips every non-digit
// and truncates to the nearest valid length.
func HSCodeFormat(value any, _ Context) models.CorrectionResult {
	raw, ok := stringify(value)
	if !ok {
		return failure(value, hsCodeMethod, "HS code must be a string or number")
	}

	var digits strings.Builder

	for _, ch := range raw {
		if ch >= '0' && ch <= '9' {
			digits.WriteRune(ch)
		}
	}

	cleaned := digits.String()
	if len(cleaned) < 6 {
		return failure(value, hsCodeMethod, fmt.Sprintf("HS code %q has fewer than six digits", raw))
	}

	corrected := cleaned
	for _, length := range hsValidLengths {
		if len(cleaned) >= length {
			corrected = cleaned[:length]

			break
		}
	}

	confidence := 95
	if corrected != raw {
		confidence = 90
	}

	return models.CorrectionResult{
		Success:    true,
		Original:   value,
		Corrected:  corrected,
		Confidence: confidence,
		Method:     hsCodeMethod,
	}
}

func stringify(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case float64:
		return fmt.Sprintf("%.0f", v), true
	case int:
		return fmt.Sprintf("%d", v), true
	default:
		return "", false
	}
}
