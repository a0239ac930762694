package rules

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shipshapehq/shipshape/pkg/models"
)

// historyLimit bounds the per-profile compliance history kept for trend
// analysis.
const historyLimit = 50

// trendWindow is the sample size of each half of the pass-rate comparison.
const trendWindow = 5

// ProfileResult is one compliance profile evaluation.
type ProfileResult struct {
	Profile       string                   `json:"profile"`
	RequiredScore int                      `json:"required_score"`
	Compliant     bool                     `json:"compliant"`
	Result        *models.ComplianceResult `json:"result"`
	Trend         models.ComplianceTrend   `json:"trend"`
}

// ProfileManager evaluates compliance profiles against the rule engine and
// keeps a bounded history of past checks per profile.
type ProfileManager struct {
	logger   *slog.Logger
	engine   *Engine
	validate *validator.Validate

	mu       sync.RWMutex
	profiles map[string]*models.ComplianceProfile
	history  map[string][]models.ComplianceCheck
}

func NewProfileManager(logger *slog.Logger, engine *Engine) *ProfileManager {
	return &ProfileManager{
		logger:   logger.With("module", "compliance_profiles"),
		engine:   engine,
		validate: validator.New(),
		profiles: make(map[string]*models.ComplianceProfile),
		history:  make(map[string][]models.ComplianceCheck),
	}
}

// Register adds a profile. Every referenced rule must already be registered
// with the engine; a dangling reference is a configuration error surfaced
// now, not at evaluation time.
func (pm *ProfileManager) Register(profile *models.ComplianceProfile) error {
	err := pm.validate.Struct(profile)
	if err != nil {
		return fmt.Errorf("invalid compliance profile %q: %w", profile.Name, err)
	}

	for _, ruleID := range profile.RuleIDs {
		if _, ok := pm.engine.Rule(ruleID); !ok {
			return fmt.Errorf("compliance profile %q references unknown rule %q", profile.Name, ruleID)
		}
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	if _, exists := pm.profiles[profile.Name]; exists {
		return fmt.Errorf("compliance profile %q is already registered", profile.Name)
	}

	pm.profiles[profile.Name] = profile
	pm.logger.Info("Registered compliance profile", "profile", profile.Name, "rules", len(profile.RuleIDs))

	return nil
}

// Evaluate re-runs the engine restricted to the profile's rule set and
// compares the resulting score against the profile's required score.
func (pm *ProfileManager) Evaluate(name string, record models.Record) (*ProfileResult, error) {
	pm.mu.RLock()
	profile, ok := pm.profiles[name]
	pm.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("compliance profile %q is not registered", name)
	}

	result, err := pm.engine.EvaluateMany(profile.RuleIDs, record)
	if err != nil {
		return nil, fmt.Errorf("profile %q: %w", name, err)
	}

	compliant := result.Score >= profile.RequiredScore

	pm.appendHistory(models.ComplianceCheck{
		Profile:   name,
		Score:     result.Score,
		Passed:    compliant,
		CheckedAt: time.Now().UTC(),
	})

	return &ProfileResult{
		Profile:       name,
		RequiredScore: profile.RequiredScore,
		Compliant:     compliant,
		Result:        result,
		Trend:         pm.Trend(name),
	}, nil
}

func (pm *ProfileManager) appendHistory(check models.ComplianceCheck) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	history := append(pm.history[check.Profile], check)
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	pm.history[check.Profile] = history
}

// History returns a copy of the recorded checks for one profile.
func (pm *ProfileManager) History(name string) []models.ComplianceCheck {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	history := pm.history[name]
	out := make([]models.ComplianceCheck, len(history))
	copy(out, history)

	return out
}

// Trend compares the pass rate of the last five checks against the five
// before them. With fewer than ten checks the trend is stable.
func (pm *ProfileManager) Trend(name string) models.ComplianceTrend {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	history := pm.history[name]
	if len(history) < 2*trendWindow {
		return models.TrendStable
	}

	recent := history[len(history)-trendWindow:]
	previous := history[len(history)-2*trendWindow : len(history)-trendWindow]

	recentRate := passRate(recent)
	previousRate := passRate(previous)

	switch {
	case recentRate > previousRate:
		return models.TrendImproving
	case recentRate < previousRate:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func passRate(checks []models.ComplianceCheck) float64 {
	if len(checks) == 0 {
		return 0
	}

	var passed int

	for _, check := range checks {
		if check.Passed {
			passed++
		}
	}

	return float64(passed) / float64(len(checks))
}
