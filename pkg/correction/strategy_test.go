package correction

import (
	"testing"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_HasBuiltins(t *testing.T) {
	registry := NewDefaultRegistry()

	for _, name := range []string{"container_check_digit", "port_code", "date_sequence", "hs_code_format", "weight_unit"} {
		_, ok := registry.Get(name)
		assert.True(t, ok, "missing builtin %q", name)
	}
}

func TestRegistry_RejectsDuplicateNames(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register("noop", func(value any, _ Context) models.CorrectionResult {
		return models.CorrectionResult{Success: true, Original: value, Corrected: value}
	}))

	err := registry.Register("noop", func(value any, _ Context) models.CorrectionResult {
		return models.CorrectionResult{}
	})
	assert.Error(t, err)
}

func TestRegistry_CorrectUnknownStrategy(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Correct("missing", "value", Context{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_CorrectDispatches(t *testing.T) {
	registry := NewDefaultRegistry()

	result, err := registry.Correct("container_check_digit", "MSCU1234560", Context{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "MSCU1234566", result.Corrected)
}
