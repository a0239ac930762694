// Package validation implements the schema validator: typed field rules per
// data type, per-field scoring and structured, never-thrown failures.
package validation

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shipshapehq/shipshape/pkg/models"
)

// Scoring penalties per failed constraint. A missing required field loses the
// whole field score; the record score is the minimum across fields.
const (
	penaltyType      = 30
	penaltyPattern   = 20
	penaltyEnum      = 20
	penaltyMinMax    = 15
	penaltyDate      = 15
	penaltyMinLength = 10
	penaltyMaxLength = 5
)

// CustomValidator checks one field value against the whole record and returns
// an issue, or nil when the value is acceptable.
type CustomValidator func(value any, record models.Record) *models.ValidationIssue

type compiledRule struct {
	rule    *models.FieldRule
	pattern *regexp.Regexp
	nested  []compiledRule
}

// Validator validates records against the field rules registered per data
// type. Rules are immutable after registration; Validate is safe for
// concurrent use.
type Validator struct {
	logger     *slog.Logger
	validate   *validator.Validate
	dataTypes  map[string][]compiledRule
	validators map[string]CustomValidator
}

func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{
		logger:     logger.With("module", "schema_validator"),
		validate:   validator.New(),
		dataTypes:  make(map[string][]compiledRule),
		validators: make(map[string]CustomValidator),
	}
}

// RegisterCustomValidator registers a named validator referenced from field
// rules. Must be called before RegisterDataType resolves the reference.
func (v *Validator) RegisterCustomValidator(name string, fn CustomValidator) {
	v.validators[name] = fn
}

// RegisterDataType compiles and registers the field rules for one data type.
// Bad patterns and unknown validator references fail here, at startup, not
// during validation.
func (v *Validator) RegisterDataType(rules *models.DataTypeRules) error {
	err := v.validate.Struct(rules)
	if err != nil {
		return fmt.Errorf("invalid field rules for %q: %w", rules.DataType, err)
	}

	compiled, err := v.compileRules(rules.Fields)
	if err != nil {
		return fmt.Errorf("data type %q: %w", rules.DataType, err)
	}

	v.dataTypes[rules.DataType] = compiled
	v.logger.Info("Registered data type", "data_type", rules.DataType, "fields", len(rules.Fields))

	return nil
}

func (v *Validator) compileRules(rules []*models.FieldRule) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))

	for _, rule := range rules {
		cr := compiledRule{rule: rule}

		if rule.Pattern != "" {
			pattern, err := regexp.Compile(rule.Pattern)
			if err != nil {
				return nil, fmt.Errorf("field %q: invalid pattern: %w", rule.Field, err)
			}

			cr.pattern = pattern
		}

		if rule.Validator != "" {
			if _, ok := v.validators[rule.Validator]; !ok {
				return nil, fmt.Errorf("field %q: unknown custom validator %q", rule.Field, rule.Validator)
			}
		}

		if len(rule.Properties) > 0 {
			nested, err := v.compileRules(rule.Properties)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", rule.Field, err)
			}

			cr.nested = nested
		}

		compiled = append(compiled, cr)
	}

	return compiled, nil
}

// RegisteredDataTypes returns the data types known to the validator.
func (v *Validator) RegisteredDataTypes() []string {
	types := make([]string, 0, len(v.dataTypes))
	for dt := range v.dataTypes {
		types = append(types, dt)
	}

	return types
}

// Validate checks the record against the field rules of dataType. An
// unregistered data type fails closed: valid=false with a single top-level
// error rather than an engine error.
func (v *Validator) Validate(dataType string, record models.Record) *models.ValidationResult {
	result := &models.ValidationResult{
		DataType:  dataType,
		Timestamp: time.Now().UTC(),
		Score:     100,
		Errors:    []models.ValidationIssue{},
		Warnings:  []models.ValidationIssue{},
	}

	rules, ok := v.dataTypes[dataType]
	if !ok {
		result.Valid = false
		result.Score = 0
		result.Errors = append(result.Errors, models.ValidationIssue{
			Field:    "",
			Rule:     "data_type",
			Code:     "unknown_data_type",
			Message:  fmt.Sprintf("no field rules registered for data type %q", dataType),
			Severity: models.SeverityError,
		})

		return result
	}

	minScore := 100
	for _, cr := range rules {
		fieldScore := v.checkField(cr, cr.rule.Field, record, record, result)
		if fieldScore < minScore {
			minScore = fieldScore
		}
	}

	if minScore < 0 {
		minScore = 0
	}

	result.Score = minScore
	result.Valid = len(result.Errors) == 0

	return result
}

// checkField validates one field and returns its score (0-100). A missing
// required field zeroes the field and short-circuits further checks on it.
func (v *Validator) checkField(cr compiledRule, path string, container any, record models.Record, result *models.ValidationResult) int {
	rule := cr.rule
	value, present := lookupField(container, rule.Field)

	if !present || value == nil {
		if rule.Required {
			result.Errors = append(result.Errors, models.ValidationIssue{
				Field:    path,
				Rule:     "required",
				Code:     "missing_required_field",
				Message:  fmt.Sprintf("required field %q is missing", path),
				Severity: models.SeverityError,
			})

			return 0
		}

		return 100
	}

	score := 100

	if rule.Type != "" && !matchesType(value, rule.Type) {
		score -= penaltyType
		result.Errors = append(result.Errors, models.ValidationIssue{
			Field:    path,
			Rule:     "type",
			Code:     "type_mismatch",
			Message:  fmt.Sprintf("field %q expected type %s", path, rule.Type),
			Severity: models.SeverityError,
			Value:    value,
		})
	}

	if str, ok := asString(value); ok {
		score -= v.checkStringConstraints(cr, path, str, result)
	}

	if num, ok := asNumber(value); ok {
		score -= v.checkNumericConstraints(rule, path, num, result)
	}

	if rule.Type == models.FieldTypeDate {
		score -= v.checkDateConstraints(rule, path, value, result)
	}

	if rule.Validator != "" {
		if issue := v.validators[rule.Validator](value, record); issue != nil {
			if issue.Field == "" {
				issue.Field = path
			}

			if issue.Severity == models.SeverityWarning {
				result.Warnings = append(result.Warnings, *issue)
				score -= penaltyMaxLength
			} else {
				result.Errors = append(result.Errors, *issue)
				score -= penaltyPattern
			}
		}
	}

	if len(cr.nested) > 0 {
		if obj, ok := asObject(value); ok {
			for _, nested := range cr.nested {
				nestedScore := v.checkField(nested, path+"."+nested.rule.Field, obj, record, result)
				if nestedScore < score {
					score = nestedScore
				}
			}
		}
	}

	if score < 0 {
		score = 0
	}

	return score
}

func (v *Validator) checkStringConstraints(cr compiledRule, path, str string, result *models.ValidationResult) int {
	rule := cr.rule
	penalty := 0

	if cr.pattern != nil && !cr.pattern.MatchString(str) {
		penalty += penaltyPattern
		result.Errors = append(result.Errors, models.ValidationIssue{
			Field:    path,
			Rule:     "pattern",
			Code:     "pattern_mismatch",
			Message:  fmt.Sprintf("field %q does not match pattern %s", path, rule.Pattern),
			Severity: models.SeverityError,
			Value:    str,
		})
	}

	if len(rule.Enum) > 0 && !containsString(rule.Enum, str) {
		penalty += penaltyEnum
		result.Errors = append(result.Errors, models.ValidationIssue{
			Field:    path,
			Rule:     "enum",
			Code:     "enum_mismatch",
			Message:  fmt.Sprintf("field %q must be one of [%s]", path, strings.Join(rule.Enum, ", ")),
			Severity: models.SeverityError,
			Value:    str,
		})
	}

	if rule.MinLength != nil && len(str) < *rule.MinLength {
		penalty += penaltyMinLength
		result.Errors = append(result.Errors, models.ValidationIssue{
			Field:    path,
			Rule:     "min_length",
			Code:     "too_short",
			Message:  fmt.Sprintf("field %q must be at least %d characters", path, *rule.MinLength),
			Severity: models.SeverityError,
			Value:    str,
		})
	}

	// Exceeding max length is recoverable by truncation, so it only warns.
	if rule.MaxLength != nil && len(str) > *rule.MaxLength {
		penalty += penaltyMaxLength
		result.Warnings = append(result.Warnings, models.ValidationIssue{
			Field:    path,
			Rule:     "max_length",
			Code:     "too_long",
			Message:  fmt.Sprintf("field %q exceeds %d characters", path, *rule.MaxLength),
			Severity: models.SeverityWarning,
			Value:    str,
		})
	}

	return penalty
}

func (v *Validator) checkNumericConstraints(rule *models.FieldRule, path string, num float64, result *models.ValidationResult) int {
	penalty := 0

	if rule.Min != nil && num < *rule.Min {
		penalty += penaltyMinMax
		result.Errors = append(result.Errors, models.ValidationIssue{
			Field:    path,
			Rule:     "min",
			Code:     "below_minimum",
			Message:  fmt.Sprintf("field %q must be >= %v", path, *rule.Min),
			Severity: models.SeverityError,
			Value:    num,
		})
	}

	if rule.Max != nil && num > *rule.Max {
		penalty += penaltyMinMax
		result.Errors = append(result.Errors, models.ValidationIssue{
			Field:    path,
			Rule:     "max",
			Code:     "above_maximum",
			Message:  fmt.Sprintf("field %q must be <= %v", path, *rule.Max),
			Severity: models.SeverityError,
			Value:    num,
		})
	}

	return penalty
}

func (v *Validator) checkDateConstraints(rule *models.FieldRule, path string, value any, result *models.ValidationResult) int {
	parsed, ok := asTime(value)
	if !ok {
		// The type check already flagged non-date values.
		return 0
	}

	penalty := 0
	now := time.Now().UTC()

	if rule.NotFuture && parsed.After(now) {
		penalty += penaltyDate
		result.Errors = append(result.Errors, models.ValidationIssue{
			Field:    path,
			Rule:     "not_future",
			Code:     "date_in_future",
			Message:  fmt.Sprintf("field %q must not be in the future", path),
			Severity: models.SeverityError,
			Value:    value,
		})
	}

	if rule.MaxAgeDays != nil {
		oldest := now.AddDate(0, 0, -*rule.MaxAgeDays)
		if parsed.Before(oldest) {
			penalty += penaltyDate
			result.Errors = append(result.Errors, models.ValidationIssue{
				Field:    path,
				Rule:     "max_age",
				Code:     "date_too_old",
				Message:  fmt.Sprintf("field %q is older than %d days", path, *rule.MaxAgeDays),
				Severity: models.SeverityError,
				Value:    value,
			})
		}
	}

	return penalty
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}

	return false
}
