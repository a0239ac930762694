package correction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHSCodeFormat_StripsSeparators(t *testing.T) {
	result := HSCodeFormat("8471.30-0100", Context{})

	require.True(t, result.Success)
	assert.Equal(t, "8471300100", result.Corrected)
	assert.Equal(t, 90, result.Confidence)
	assert.Equal(t, "hs_code_normalization", result.Method)
}

func TestHSCodeFormat_TruncatesToNearestValidLength(t *testing.T) {
	// Seven digits truncate to the six-digit subheading.
	result := HSCodeFormat("8471301", Context{})

	require.True(t, result.Success)
	assert.Equal(t, "847130", result.Corrected)

	// Nine digits truncate to the eight-digit tariff line.
	result = HSCodeFormat("847130010", Context{})
	require.True(t, result.Success)
	assert.Equal(t, "84713001", result.Corrected)
}

func TestHSCodeFormat_CleanCodeKeepsHighConfidence(t *testing.T) {
	result := HSCodeFormat("847130", Context{})

	require.True(t, result.Success)
	assert.Equal(t, "847130", result.Corrected)
	assert.Equal(t, 95, result.Confidence)
}

func TestHSCodeFormat_AcceptsNumericInput(t *testing.T) {
	result := HSCodeFormat(847130, Context{})

	require.True(t, result.Success)
	assert.Equal(t, "847130", result.Corrected)
}

func TestHSCodeFormat_TooFewDigits(t *testing.T) {
	assert.False(t, HSCodeFormat("8471", Context{}).Success)
	assert.False(t, HSCodeFormat(nil, Context{}).Success)
}
