// Package anomaly implements rolling-statistics outlier detection for
// monitored record fields.
//
// Detectors keep a bounded window of recent values and recompute descriptive
// statistics (mean, standard deviation, quartiles) on each evaluation. This
// is deliberately NOT supervised learning or any trained model: the detector
// self-calibrates purely through rolling descriptive statistics over the
// values it has seen.
package anomaly

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// MinSamples is the number of observations a statistical method needs before
// it activates. Below this the detector silently accepts every value.
const MinSamples = 30

const defaultWindowSize = 200
const defaultZThreshold = 3.0
const defaultIQRFactor = 1.5
const maxSeverity = 10

// CustomDetector receives the value plus full record context and returns a
// structured anomaly or nil.
type CustomDetector func(value any, record models.Record) *models.Anomaly

// Config declares one detector. Threshold detectors use Min/Max; statistical
// detectors use ZThreshold or IQRFactor.
type Config struct {
	Name       string
	Field      string
	Method     models.AnomalyMethod
	WindowSize int
	ZThreshold float64
	IQRFactor  float64
	Min        *float64
	Max        *float64
	Custom     CustomDetector
}

// Detector holds the bounded rolling window for one monitored field. The
// window is mutated only by the detector itself; append and evict happen
// atomically under the detector's lock.
type Detector struct {
	cfg Config

	mu     sync.Mutex
	window []float64
}

// NewDetector validates the config and builds a detector. Configuration
// mistakes surface here, at startup.
func NewDetector(cfg Config) (*Detector, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("detector name is required")
	}

	switch cfg.Method {
	case models.AnomalyMethodZScore:
		if cfg.ZThreshold == 0 {
			cfg.ZThreshold = defaultZThreshold
		}
	case models.AnomalyMethodIQR:
		if cfg.IQRFactor == 0 {
			cfg.IQRFactor = defaultIQRFactor
		}
	case models.AnomalyMethodThreshold:
		if cfg.Min == nil && cfg.Max == nil {
			return nil, fmt.Errorf("detector %q: threshold method needs min or max", cfg.Name)
		}
	case models.AnomalyMethodCustom:
		if cfg.Custom == nil {
			return nil, fmt.Errorf("detector %q: custom method needs a detector function", cfg.Name)
		}
	default:
		return nil, fmt.Errorf("detector %q: unknown method %q", cfg.Name, cfg.Method)
	}

	if cfg.WindowSize <= 0 {
		cfg.WindowSize = defaultWindowSize
	}

	return &Detector{
		cfg:    cfg,
		window: make([]float64, 0, cfg.WindowSize),
	}, nil
}

// Evaluate checks one value. Usable numeric values are appended to the window
// before statistics are computed, so repeated evaluation is stable and the
// detector calibrates over time.
func (d *Detector) Evaluate(value any, record models.Record) *models.Anomaly {
	if d.cfg.Method == models.AnomalyMethodCustom {
		anomaly := d.cfg.Custom(value, record)
		if anomaly != nil {
			d.decorate(anomaly, value)
		}

		return anomaly
	}

	num, ok := toFloat(value)
	if !ok {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.append(num)

	switch d.cfg.Method {
	case models.AnomalyMethodZScore:
		return d.evaluateZScore(num)
	case models.AnomalyMethodIQR:
		return d.evaluateIQR(num)
	case models.AnomalyMethodThreshold:
		return d.evaluateThreshold(num)
	default:
		return nil
	}
}

// SampleCount returns the current window population.
func (d *Detector) SampleCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.window)
}

// append adds a value with FIFO eviction at capacity.
func (d *Detector) append(num float64) {
	if len(d.window) >= d.cfg.WindowSize {
		d.window = d.window[1:]
	}

	d.window = append(d.window, num)
}

func (d *Detector) evaluateZScore(num float64) *models.Anomaly {
	if len(d.window) < MinSamples {
		return nil
	}

	mean, stddev := meanStddev(d.window)
	if stddev == 0 {
		return nil
	}

	z := (num - mean) / stddev
	if math.Abs(z) <= d.cfg.ZThreshold {
		return nil
	}

	severity := int(math.Floor(math.Abs(z)))
	if severity > maxSeverity {
		severity = maxSeverity
	}

	anomaly := &models.Anomaly{
		Method:   models.AnomalyMethodZScore,
		Severity: severity,
		Message:  fmt.Sprintf("value %.2f deviates %.2f standard deviations from the mean %.2f", num, z, mean),
		Details: map[string]any{
			"z_score": z,
			"mean":    mean,
			"stddev":  stddev,
			"samples": len(d.window),
		},
	}
	d.decorate(anomaly, num)

	return anomaly
}

func (d *Detector) evaluateIQR(num float64) *models.Anomaly {
	if len(d.window) < MinSamples {
		return nil
	}

	q1, q3 := quartiles(d.window)
	iqr := q3 - q1
	lower := q1 - d.cfg.IQRFactor*iqr
	upper := q3 + d.cfg.IQRFactor*iqr

	if num >= lower && num <= upper {
		return nil
	}

	anomaly := &models.Anomaly{
		Method:   models.AnomalyMethodIQR,
		Severity: 6,
		Message:  fmt.Sprintf("value %.2f is outside the interquartile fence [%.2f, %.2f]", num, lower, upper),
		Details: map[string]any{
			"q1":      q1,
			"q3":      q3,
			"iqr":     iqr,
			"samples": len(d.window),
		},
	}
	d.decorate(anomaly, num)

	return anomaly
}

func (d *Detector) evaluateThreshold(num float64) *models.Anomaly {
	var message string

	switch {
	case d.cfg.Min != nil && num < *d.cfg.Min:
		message = fmt.Sprintf("value %.2f is below the hard minimum %.2f", num, *d.cfg.Min)
	case d.cfg.Max != nil && num > *d.cfg.Max:
		message = fmt.Sprintf("value %.2f is above the hard maximum %.2f", num, *d.cfg.Max)
	default:
		return nil
	}

	anomaly := &models.Anomaly{
		Method:   models.AnomalyMethodThreshold,
		Severity: 7,
		Message:  message,
	}
	d.decorate(anomaly, num)

	return anomaly
}

func (d *Detector) decorate(anomaly *models.Anomaly, value any) {
	anomaly.Detector = d.cfg.Name
	anomaly.Field = d.cfg.Field
	anomaly.Value = value
	anomaly.DetectedAt = time.Now().UTC()

	if anomaly.Method == "" {
		anomaly.Method = d.cfg.Method
	}
}

// Registry holds the named detectors monitored for a deployment.
type Registry struct {
	logger    *slog.Logger
	mu        sync.RWMutex
	detectors map[string]*Detector
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "anomaly_detector"),
		detectors: make(map[string]*Detector),
	}
}

func (r *Registry) Register(cfg Config) error {
	detector, err := NewDetector(cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.detectors[cfg.Name]; exists {
		return fmt.Errorf("detector %q is already registered", cfg.Name)
	}

	r.detectors[cfg.Name] = detector
	r.logger.Info("Registered anomaly detector", "detector", cfg.Name, "method", cfg.Method)

	return nil
}

// Evaluate runs one named detector. An unknown detector name is a
// configuration error.
func (r *Registry) Evaluate(name string, value any, record models.Record) (*models.Anomaly, error) {
	r.mu.RLock()
	detector, ok := r.detectors[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("detector %q is not registered", name)
	}

	return detector.Evaluate(value, record), nil
}

// EvaluateRecord runs every detector whose field is present in the record.
func (r *Registry) EvaluateRecord(record models.Record) []models.Anomaly {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var anomalies []models.Anomaly

	for _, detector := range r.detectors {
		value, present := record[detector.cfg.Field]
		if !present && detector.cfg.Method != models.AnomalyMethodCustom {
			continue
		}

		if anomaly := detector.Evaluate(value, record); anomaly != nil {
			anomalies = append(anomalies, *anomaly)
		}
	}

	return anomalies
}

func meanStddev(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}

	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}

	return mean, math.Sqrt(sq / float64(len(values)))
}

func quartiles(values []float64) (float64, float64) {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return percentile(sorted, 0.25), percentile(sorted, 0.75)
}

// percentile interpolates linearly between closest ranks; input must be
// sorted.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	rank := p * float64(len(sorted)-1)
	low := int(math.Floor(rank))
	high := int(math.Ceil(rank))

	if low == high {
		return sorted[low]
	}

	frac := rank - float64(low)

	return sorted[low]*(1-frac) + sorted[high]*frac
}

func toFloat(value any) (float64, bool) {
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
	default:
		return 0, false
	}
}
