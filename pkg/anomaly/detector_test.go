package anomaly

import (
	"log/slog"
	"math"
	"os"
	"sync"
	"testing"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func floatPtr(f float64) *float64 { return &f }

func TestDetector_ZScore_SilentBelowMinSamples(t *testing.T) {
	d, err := NewDetector(Config{Name: "transit_days", Field: "transit_days", Method: models.AnomalyMethodZScore})
	require.NoError(t, err)

	// 29 ordinary samples, then an extreme value while still under the
	// minimum population: must be silently accepted.
	for i := 0; i < MinSamples-1; i++ {
		assert.Nil(t, d.Evaluate(20.0+float64(i%3), nil))
	}

	assert.Nil(t, d.Evaluate(100000.0, nil))
}

func TestDetector_ZScore_FlagsOutlier(t *testing.T) {
	d, err := NewDetector(Config{Name: "transit_days", Field: "transit_days", Method: models.AnomalyMethodZScore})
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		d.Evaluate(20.0+float64(i%5), nil)
	}

	anomaly := d.Evaluate(500.0, nil)
	require.NotNil(t, anomaly)
	assert.Equal(t, models.AnomalyMethodZScore, anomaly.Method)
	assert.Equal(t, "transit_days", anomaly.Field)
	assert.Equal(t, 6, anomaly.Severity)
	assert.NotEmpty(t, anomaly.Message)
}

func TestDetector_ZScore_SeverityCappedAtTen(t *testing.T) {
	d, err := NewDetector(Config{Name: "transit_days", Field: "transit_days", Method: models.AnomalyMethodZScore})
	require.NoError(t, err)

	// The outlier is part of the window when statistics are computed, so its
	// own z-score is bounded by roughly sqrt(n); a large population is needed
	// to push past the cap.
	for i := 0; i < 200; i++ {
		d.Evaluate(10.0+float64(i%2), nil)
	}

	anomaly := d.Evaluate(10000.0, nil)
	require.NotNil(t, anomaly)
	assert.Equal(t, 10, anomaly.Severity, "severity is capped at 10")
}

func TestDetector_ZScore_SeverityIsFlooredZ(t *testing.T) {
	d, err := NewDetector(Config{Name: "speed", Field: "speed", Method: models.AnomalyMethodZScore})
	require.NoError(t, err)

	// Alternating samples give a non-degenerate stddev.
	for i := 0; i < 60; i++ {
		d.Evaluate(10.0+float64(i%2), nil)
	}

	anomaly := d.Evaluate(13.0, nil)
	if anomaly != nil {
		z := anomaly.Details["z_score"].(float64)
		assert.Equal(t, int(math.Floor(math.Abs(z))), anomaly.Severity)
	}
}

func TestDetector_IQR_FlagsOutlier(t *testing.T) {
	d, err := NewDetector(Config{Name: "weight", Field: "weight_kg", Method: models.AnomalyMethodIQR})
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		d.Evaluate(10000.0+float64(i*100), nil)
	}

	anomaly := d.Evaluate(95000.0, nil)
	require.NotNil(t, anomaly)
	assert.Equal(t, models.AnomalyMethodIQR, anomaly.Method)
	assert.Equal(t, 6, anomaly.Severity)
}

func TestDetector_Threshold_NoWarmupNeeded(t *testing.T) {
	d, err := NewDetector(Config{
		Name:   "weight_bounds",
		Field:  "weight_kg",
		Method: models.AnomalyMethodThreshold,
		Min:    floatPtr(0),
		Max:    floatPtr(45000),
	})
	require.NoError(t, err)

	// First-ever evaluation: threshold detectors need no sample population.
	anomaly := d.Evaluate(50000.0, nil)
	require.NotNil(t, anomaly)
	assert.Equal(t, 7, anomaly.Severity)

	assert.Nil(t, d.Evaluate(18000.0, nil))
}

func TestDetector_WindowNeverExceedsCapacity(t *testing.T) {
	d, err := NewDetector(Config{
		Name:       "capped",
		Field:      "v",
		Method:     models.AnomalyMethodZScore,
		WindowSize: 50,
	})
	require.NoError(t, err)

	for i := 0; i < 500; i++ {
		d.Evaluate(float64(i), nil)
	}

	assert.Equal(t, 50, d.SampleCount())
}

func TestDetector_ConcurrentEvaluation(t *testing.T) {
	d, err := NewDetector(Config{
		Name:       "concurrent",
		Field:      "v",
		Method:     models.AnomalyMethodZScore,
		WindowSize: 100,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup

	for w := 0; w < 8; w++ {
		wg.Add(1)

		go func(seed int) {
			defer wg.Done()

			for i := 0; i < 200; i++ {
				d.Evaluate(float64(seed+i), nil)
			}
		}(w)
	}

	wg.Wait()
	assert.Equal(t, 100, d.SampleCount())
}

func TestDetector_CustomReceivesRecordContext(t *testing.T) {
	impossibleSpeed := func(value any, record models.Record) *models.Anomaly {
		speed, _ := value.(float64)
		if speed <= 900 {
			return nil
		}

		return &models.Anomaly{
			Severity: 9,
			Message:  "reported movement implies impossible speed between location reports",
			Details:  map[string]any{"vessel": record["vessel"]},
		}
	}

	d, err := NewDetector(Config{
		Name:   "impossible_speed",
		Field:  "speed_kmh",
		Method: models.AnomalyMethodCustom,
		Custom: impossibleSpeed,
	})
	require.NoError(t, err)

	record := models.Record{"vessel": "MSC OSCAR", "speed_kmh": 1200.0}

	anomaly := d.Evaluate(1200.0, record)
	require.NotNil(t, anomaly)
	assert.Equal(t, models.AnomalyMethodCustom, anomaly.Method)
	assert.Equal(t, "MSC OSCAR", anomaly.Details["vessel"])

	assert.Nil(t, d.Evaluate(30.0, record))
}

func TestRegistry_UnknownDetectorIsConfigurationError(t *testing.T) {
	r := NewRegistry(testLogger())

	_, err := r.Evaluate("missing", 1.0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_EvaluateRecord(t *testing.T) {
	r := NewRegistry(testLogger())

	require.NoError(t, r.Register(Config{
		Name:   "weight_bounds",
		Field:  "weight_kg",
		Method: models.AnomalyMethodThreshold,
		Max:    floatPtr(45000),
	}))

	anomalies := r.EvaluateRecord(models.Record{"weight_kg": 60000.0})
	require.Len(t, anomalies, 1)
	assert.Equal(t, "weight_bounds", anomalies[0].Detector)

	assert.Empty(t, r.EvaluateRecord(models.Record{"weight_kg": 20000.0}))
}

func TestRegistry_DuplicateRegistrationFails(t *testing.T) {
	r := NewRegistry(testLogger())

	cfg := Config{Name: "dup", Field: "v", Method: models.AnomalyMethodThreshold, Max: floatPtr(1)}
	require.NoError(t, r.Register(cfg))
	assert.Error(t, r.Register(cfg))
}
