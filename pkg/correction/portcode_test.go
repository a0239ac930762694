package correction

import (
	"testing"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortCode_ExactMatch(t *testing.T) {
	result := PortCode("cnsha", Context{})

	require.True(t, result.Success)
	assert.Equal(t, "CNSHA", result.Corrected)
	assert.Equal(t, 100, result.Confidence)
	assert.Equal(t, "port_code_lookup", result.Method)
}

func TestPortCode_Abbreviation(t *testing.T) {
	result := PortCode("SHA", Context{})

	require.True(t, result.Success)
	assert.Equal(t, "CNSHA", result.Corrected)
	assert.Equal(t, 90, result.Confidence)
}

func TestPortCode_CountryAssistedConstruction(t *testing.T) {
	// TAO is not in the abbreviation table, but CN + TAO is a known code.
	result := PortCode("TAO", Context{Params: map[string]any{"country": "CN"}})

	require.True(t, result.Success)
	assert.Equal(t, "CNTAO", result.Corrected)
	assert.Equal(t, 88, result.Confidence)
}

func TestPortCode_CountryFromRecord(t *testing.T) {
	result := PortCode("TAO", Context{Record: models.Record{"country": "cn"}})

	require.True(t, result.Success)
	assert.Equal(t, "CNTAO", result.Corrected)
}

func TestPortCode_FuzzyMatch(t *testing.T) {
	// One transposition away from CNSHA.
	result := PortCode("CNSAH", Context{})

	require.True(t, result.Success)
	assert.Equal(t, "CNSHA", result.Corrected)
	assert.GreaterOrEqual(t, result.Confidence, 85)
}

func TestPortCode_FuzzyByPortName(t *testing.T) {
	result := PortCode("SHANGHAI", Context{})

	require.True(t, result.Success)
	assert.Equal(t, "CNSHA", result.Corrected)
}

func TestPortCode_NoConfidentMatch(t *testing.T) {
	result := PortCode("ZZZZZ", Context{})

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Reason)
}

func TestPortCode_RejectsNonString(t *testing.T) {
	assert.False(t, PortCode(42, Context{}).Success)
	assert.False(t, PortCode("  ", Context{}).Success)
}
