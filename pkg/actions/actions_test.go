package actions

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipshapehq/shipshape/pkg/correction"
	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/shipshapehq/shipshape/pkg/reconcile"
	"github.com/shipshapehq/shipshape/pkg/registry"
	"github.com/shipshapehq/shipshape/pkg/validation"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestCorrectField_FixesContainerNumber(t *testing.T) {
	action := NewCorrectField(correction.NewDefaultRegistry())

	record := models.Record{"container_number": "MSCU1234560"}

	result, err := action.Execute(context.Background(), record, map[string]any{
		"field":    "container_number",
		"strategy": "container_check_digit",
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 100, result.Confidence)
	require.Len(t, result.Corrections, 1)
	assert.Equal(t, "MSCU1234566", result.Corrections[0].Corrected)
	assert.Equal(t, "MSCU1234560", record["container_number"], "handlers must not mutate the record")
}

func TestCorrectField_NestedPath(t *testing.T) {
	action := NewCorrectField(correction.NewDefaultRegistry())

	record := models.Record{"route": map[string]any{"origin": map[string]any{"port": "SHA"}}}

	result, err := action.Execute(context.Background(), record, map[string]any{
		"field":    "route.origin.port",
		"strategy": "port_code",
		"params":   map[string]any{"country": "CN"},
	})
	require.NoError(t, err)

	assert.True(t, result.Success)
	require.Len(t, result.Corrections, 1)
	assert.Equal(t, "CNSHA", result.Corrections[0].Corrected)
	assert.GreaterOrEqual(t, result.Confidence, 85)
}

func TestCorrectField_MissingFieldFailsSoftly(t *testing.T) {
	action := NewCorrectField(correction.NewDefaultRegistry())

	result, err := action.Execute(context.Background(), models.Record{}, map[string]any{
		"field":    "container_number",
		"strategy": "container_check_digit",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestCorrectField_ConfigurationErrors(t *testing.T) {
	action := NewCorrectField(correction.NewDefaultRegistry())

	_, err := action.Execute(context.Background(), models.Record{}, map[string]any{"strategy": "port_code"})
	assert.Error(t, err)

	_, err = action.Execute(context.Background(), models.Record{}, map[string]any{"field": "port"})
	assert.Error(t, err)

	_, err = action.Execute(context.Background(), models.Record{"port": "SHA"}, map[string]any{
		"field":    "port",
		"strategy": "unknown_strategy",
	})
	assert.Error(t, err)
}

func TestRevalidate(t *testing.T) {
	validator := validation.NewValidator(testLogger())
	require.NoError(t, validator.RegisterDataType(&models.DataTypeRules{
		DataType: "shipment",
		Fields: []*models.FieldRule{
			{Field: "container_number", Required: true, Type: models.FieldTypeString},
		},
	}))

	action := NewRevalidate(validator)

	result, err := action.Execute(context.Background(), models.Record{"container_number": "MSCU1234566"}, map[string]any{
		"data_type": "shipment",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 100, result.Confidence)

	result, err = action.Execute(context.Background(), models.Record{}, map[string]any{"data_type": "shipment"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Zero(t, result.Confidence)

	_, err = action.Execute(context.Background(), models.Record{}, map[string]any{})
	assert.Error(t, err)
}

func TestReconcileSources(t *testing.T) {
	engine := reconcile.NewEngine(testLogger(), nil)
	require.NoError(t, engine.Register(&models.ReconciliationRule{
		DataType:       "container_status",
		SourcePriority: []string{"carrier_api", "terminal_edi", "ocr"},
		Rules: []models.ResolutionRule{
			{Strategy: models.StrategyMajorityVote, Confidence: 90},
		},
	}))

	action := NewReconcileSources(engine)

	now := time.Now().UTC().Format(time.RFC3339)
	record := models.Record{
		"status": "UNKNOWN",
		"sources": []any{
			map[string]any{"name": "carrier_api", "timestamp": now, "data": map[string]any{"status": "LOADED"}},
			map[string]any{"name": "terminal_edi", "timestamp": now, "data": map[string]any{"status": "LOADED"}},
			map[string]any{"name": "ocr", "timestamp": now, "data": map[string]any{"status": "DISCHARGED"}},
		},
	}

	result, err := action.Execute(context.Background(), record, map[string]any{"data_type": "container_status"})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 90, result.Confidence)
	require.Len(t, result.Corrections, 1)
	assert.Equal(t, "status", result.Corrections[0].Field)
	assert.Equal(t, "LOADED", result.Corrections[0].Corrected)
	assert.Equal(t, "UNKNOWN", result.Corrections[0].Original)
	assert.Equal(t, 1, result.Output["conflicts"])
}

func TestReconcileSources_MalformedSources(t *testing.T) {
	engine := reconcile.NewEngine(testLogger(), nil)
	action := NewReconcileSources(engine)

	result, err := action.Execute(context.Background(), models.Record{"sources": "nope"}, map[string]any{
		"data_type": "container_status",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)

	result, err = action.Execute(context.Background(), models.Record{}, map[string]any{"data_type": "container_status"})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestRestoreOriginalRollback(t *testing.T) {
	handler := NewRestoreOriginal(testLogger())

	execution := &models.Execution{
		ID:       "exec-1",
		Record:   models.Record{"weight": 18000.0},
		Original: models.Record{"weight": 18.0},
		Corrections: []models.Correction{
			{Field: "weight", Original: 18.0, Corrected: 18000.0},
		},
	}

	require.NoError(t, handler(context.Background(), execution))
	assert.Equal(t, 18.0, execution.Record["weight"])
}

func TestRegisterBuiltins(t *testing.T) {
	reg := registry.NewRegistry(testLogger())

	err := RegisterBuiltins(reg, testLogger(),
		correction.NewDefaultRegistry(),
		validation.NewValidator(testLogger()),
		reconcile.NewEngine(testLogger(), nil))
	require.NoError(t, err)

	for _, name := range []string{"correct_field", "revalidate", "reconcile_sources", "log"} {
		_, err := reg.Action(name)
		assert.NoError(t, err, "missing builtin %q", name)
	}

	_, err = reg.Rollback(RestoreOriginalName)
	assert.NoError(t, err)
}
