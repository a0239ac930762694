package correction

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shipshapehq/shipshape/pkg/models"
)

const checkDigitMethod = "check_digit_recalculation"

var containerPattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{7}$`)
var containerPrefixPattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{6}$`)

// letterValues is the ISO 6346 alphabet-to-value table. The mapping is
// non-linear: values that are multiples of 11 are skipped.
var letterValues = map[rune]int{
	'A': 10, 'B': 12, 'C': 13, 'D': 14, 'E': 15, 'F': 16, 'G': 17, 'H': 18,
	'I': 19, 'J': 20, 'K': 21, 'L': 23, 'M': 24, 'N': 25, 'O': 26, 'P': 27,
	'Q': 28, 'R': 29, 'S': 30, 'T': 31, 'U': 32, 'V': 34, 'W': 35, 'X': 36,
	'Y': 37, 'Z': 38,
}

// CheckDigit computes the ISO 6346 check digit for a ten character
// owner/serial prefix (four letters, six digits): each character value is
// weighted by 2^position, summed, reduced mod 11 then mod 10.
func CheckDigit(prefix string) (int, error) {
	if !containerPrefixPattern.MatchString(prefix) {
		return 0, fmt.Errorf("container prefix %q must be four letters followed by six digits", prefix)
	}

	sum := 0
	weight := 1

	for _, ch := range prefix {
		var value int

		if ch >= '0' && ch <= '9' {
			value = int(ch - '0')
		} else {
			value = letterValues[ch]
		}

		sum += value * weight
		weight *= 2
	}

	return (sum % 11) % 10, nil
}

// ContainerCheckDigit corrects a container number whose check digit does not
// match its prefix. Correcting an already valid number returns the same
// number, so the strategy is idempotent.
func ContainerCheckDigit(value any, _ Context) models.CorrectionResult {
	raw, ok := value.(string)
	if !ok {
		return failure(value, checkDigitMethod, "container number must be a string")
	}

	normalized := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", ""))
	if !containerPattern.MatchString(normalized) {
		return failure(value, checkDigitMethod, fmt.Sprintf("container number %q does not have the AAAA9999999 shape", raw))
	}

	prefix := normalized[:10]

	digit, err := CheckDigit(prefix)
	if err != nil {
		return failure(value, checkDigitMethod, err.Error())
	}

	corrected := fmt.Sprintf("%s%d", prefix, digit)

	return models.CorrectionResult{
		Success:    true,
		Original:   raw,
		Corrected:  corrected,
		Confidence: 100,
		Method:     checkDigitMethod,
	}
}
