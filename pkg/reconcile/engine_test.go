package reconcile

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func newEngineWithRule(t *testing.T, rule *models.ReconciliationRule) *Engine {
	t.Helper()

	e := NewEngine(testLogger(), nil)
	require.NoError(t, e.Register(rule))

	return e
}

func statusRule() *models.ReconciliationRule {
	return &models.ReconciliationRule{
		DataType:       "container_status",
		SourcePriority: []string{"carrier_api", "edi", "manual"},
		Rules: []models.ResolutionRule{
			{Strategy: models.StrategyMajorityVote, Field: "status", Confidence: 90},
			{Strategy: models.StrategyRecency, StalenessWindow: 48 * time.Hour, Confidence: 75},
		},
	}
}

func TestReconcile_UnanimityWinsWithConfidence100(t *testing.T) {
	e := newEngineWithRule(t, statusRule())

	sources := []models.Source{
		{Name: "carrier_api", Data: map[string]any{"status": "LOADED"}},
		{Name: "edi", Data: map[string]any{"status": "LOADED"}},
		{Name: "manual", Data: map[string]any{"status": "LOADED"}},
	}

	result, err := e.Reconcile("container_status", sources)
	require.NoError(t, err)

	assert.Equal(t, 100, result.Confidence)
	assert.Equal(t, "unanimity", result.Method)
	assert.Equal(t, "LOADED", result.Resolved["status"])
	assert.Empty(t, result.Conflicts)
}

func TestReconcile_MajorityVote(t *testing.T) {
	e := newEngineWithRule(t, statusRule())

	sources := []models.Source{
		{Name: "carrier_api", Data: map[string]any{"status": "LOADED"}},
		{Name: "manual", Data: map[string]any{"status": "LOADED"}},
		{Name: "edi", Data: map[string]any{"status": "DISCHARGED"}},
	}

	result, err := e.Reconcile("container_status", sources)
	require.NoError(t, err)

	assert.Equal(t, "LOADED", result.Resolved["status"])
	assert.Equal(t, 90, result.Confidence)
	assert.Equal(t, string(models.StrategyMajorityVote), result.Method)

	// One conflict, recorded against the dissenting source.
	require.Len(t, result.Conflicts, 1)
	assert.Equal(t, "edi", result.Conflicts[0].SourceB)
	assert.Equal(t, "DISCHARGED", result.Conflicts[0].ValueB)
	assert.Equal(t, "status", result.Conflicts[0].Field)
}

func TestReconcile_MajorityVoteNeedsStrictMajority(t *testing.T) {
	e := newEngineWithRule(t, &models.ReconciliationRule{
		DataType:       "container_status",
		SourcePriority: []string{"carrier_api", "edi"},
		Rules: []models.ResolutionRule{
			{Strategy: models.StrategyMajorityVote, Field: "status", Confidence: 90},
		},
	})

	// Two sources disagreeing: no majority, falls through to priority.
	sources := []models.Source{
		{Name: "edi", Data: map[string]any{"status": "DISCHARGED"}},
		{Name: "carrier_api", Data: map[string]any{"status": "LOADED"}},
	}

	result, err := e.Reconcile("container_status", sources)
	require.NoError(t, err)

	assert.Equal(t, "source_priority", result.Method)
	assert.Equal(t, "carrier_api", result.WinnerSource)
	assert.Equal(t, 60, result.Confidence)
	assert.Len(t, result.Conflicts, 1)
}

func TestReconcile_RecencyRespectsStalenessWindow(t *testing.T) {
	e := newEngineWithRule(t, &models.ReconciliationRule{
		DataType:       "vessel_eta",
		SourcePriority: []string{"carrier_api", "edi"},
		Rules: []models.ResolutionRule{
			{Strategy: models.StrategyRecency, StalenessWindow: 24 * time.Hour, Confidence: 80},
		},
	})

	now := time.Now().UTC()

	fresh := []models.Source{
		{Name: "edi", Timestamp: now.Add(-30 * time.Hour), Data: map[string]any{"eta": "2026-09-10"}},
		{Name: "carrier_api", Timestamp: now.Add(-2 * time.Hour), Data: map[string]any{"eta": "2026-09-12"}},
	}

	result, err := e.Reconcile("vessel_eta", fresh)
	require.NoError(t, err)
	assert.Equal(t, string(models.StrategyRecency), result.Method)
	assert.Equal(t, "carrier_api", result.WinnerSource)
	assert.Equal(t, "2026-09-12", result.Resolved["eta"])

	stale := []models.Source{
		{Name: "edi", Timestamp: now.Add(-80 * time.Hour), Data: map[string]any{"eta": "2026-09-10"}},
		{Name: "carrier_api", Timestamp: now.Add(-60 * time.Hour), Data: map[string]any{"eta": "2026-09-12"}},
	}

	// Everything stale: recency skips, priority fallback takes over.
	result, err = e.Reconcile("vessel_eta", stale)
	require.NoError(t, err)
	assert.Equal(t, "source_priority", result.Method)
	assert.Equal(t, 60, result.Confidence)
}

func TestReconcile_GeometricThreshold(t *testing.T) {
	e := newEngineWithRule(t, &models.ReconciliationRule{
		DataType:       "vessel_position",
		SourcePriority: []string{"gps", "ais"},
		Rules: []models.ResolutionRule{
			{Strategy: models.StrategyGeometricThreshold, Field: "position", MaxDistanceKM: 50, Confidence: 85},
		},
	})

	near := []models.Source{
		{Name: "gps", Data: map[string]any{"position": map[string]any{"lat": 31.23, "lon": 121.47}}},
		{Name: "ais", Data: map[string]any{"position": map[string]any{"lat": 31.30, "lon": 121.50}}},
	}

	result, err := e.Reconcile("vessel_position", near)
	require.NoError(t, err)
	assert.Equal(t, string(models.StrategyGeometricThreshold), result.Method)
	assert.Equal(t, 85, result.Confidence)

	centroid := result.Resolved["position"].(map[string]any)
	assert.InDelta(t, 31.265, centroid["lat"].(float64), 0.001)
	assert.InDelta(t, 121.485, centroid["lon"].(float64), 0.001)

	// The centroid is computed, not picked from a source; agreeing
	// positions must not be reported as conflicts.
	assert.Empty(t, result.Conflicts)

	far := []models.Source{
		{Name: "gps", Data: map[string]any{"position": map[string]any{"lat": 31.23, "lon": 121.47}}},
		{Name: "ais", Data: map[string]any{"position": map[string]any{"lat": 1.26, "lon": 103.82}}},
	}

	result, err = e.Reconcile("vessel_position", far)
	require.NoError(t, err)
	assert.Equal(t, "source_priority", result.Method, "positions beyond the radius must not resolve geometrically")
}

func TestReconcile_GeometricThresholdSkipsWithoutCoordinates(t *testing.T) {
	e := newEngineWithRule(t, &models.ReconciliationRule{
		DataType:       "vessel_position",
		SourcePriority: []string{"gps", "manual"},
		Rules: []models.ResolutionRule{
			{Strategy: models.StrategyGeometricThreshold, Field: "position", MaxDistanceKM: 50, Confidence: 85},
		},
	})

	// No coordinate fields at all: the strategy must be skipped, not fail.
	sources := []models.Source{
		{Name: "gps", Data: map[string]any{"note": "no fix"}},
		{Name: "manual", Data: map[string]any{"note": "docked"}},
	}

	result, err := e.Reconcile("vessel_position", sources)
	require.NoError(t, err)
	assert.Equal(t, "source_priority", result.Method)
}

func TestReconcile_SourcePreference(t *testing.T) {
	e := newEngineWithRule(t, &models.ReconciliationRule{
		DataType:       "vessel_position",
		SourcePriority: []string{"ais", "manual"},
		Rules: []models.ResolutionRule{
			{Strategy: models.StrategySourcePreference, PreferredSource: "gps", Confidence: 95},
		},
	})

	sources := []models.Source{
		{Name: "manual", Data: map[string]any{"port": "CNSHA"}},
		{Name: "gps", Data: map[string]any{"port": "CNNGB"}},
	}

	result, err := e.Reconcile("vessel_position", sources)
	require.NoError(t, err)
	assert.Equal(t, "gps", result.WinnerSource)
	assert.Equal(t, 95, result.Confidence)
	assert.Equal(t, "CNNGB", result.Resolved["port"])
}

func TestReconcile_UnknownDataTypeIsConfigurationError(t *testing.T) {
	e := NewEngine(testLogger(), nil)

	_, err := e.Reconcile("ghost", []models.Source{{Name: "a", Data: map[string]any{}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reconciliation rule")
}

func TestReconcile_NoSources(t *testing.T) {
	e := newEngineWithRule(t, statusRule())

	_, err := e.Reconcile("container_status", nil)
	require.Error(t, err)
}
