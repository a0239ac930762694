package validation

import (
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shipshapehq/shipshape/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T) *Validator {
	t.Helper()

	return NewValidator(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func shipmentRules() *models.DataTypeRules {
	return &models.DataTypeRules{
		DataType: "shipment",
		Fields: []*models.FieldRule{
			{
				Field:    "container_number",
				Required: true,
				Type:     models.FieldTypeString,
				Pattern:  `^[A-Z]{4}[0-9]{7}$`,
			},
			{
				Field:    "status",
				Required: true,
				Type:     models.FieldTypeString,
				Enum:     []string{"BOOKED", "LOADED", "DISCHARGED", "DELIVERED"},
			},
			{
				Field: "weight_kg",
				Type:  models.FieldTypeNumber,
				Min:   floatPtr(0),
				Max:   floatPtr(45000),
			},
			{
				Field:     "departure_date",
				Type:      models.FieldTypeDate,
				NotFuture: true,
			},
			{
				Field: "route",
				Type:  models.FieldTypeObject,
				Properties: []*models.FieldRule{
					{Field: "origin", Required: true, Type: models.FieldTypeString, MinLength: intPtr(5), MaxLength: intPtr(5)},
					{Field: "destination", Required: true, Type: models.FieldTypeString, MinLength: intPtr(5), MaxLength: intPtr(5)},
				},
			},
		},
	}
}

func validShipment() models.Record {
	return models.Record{
		"container_number": "MSCU1234565",
		"status":           "LOADED",
		"weight_kg":        18000.0,
		"departure_date":   time.Now().UTC().Add(-48 * time.Hour).Format(time.RFC3339),
		"route": map[string]any{
			"origin":      "CNSHA",
			"destination": "NLRTM",
		},
	}
}

func TestValidator_ValidRecordScores100(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.RegisterDataType(shipmentRules()))

	result := v.Validate("shipment", validShipment())

	assert.True(t, result.Valid)
	assert.Equal(t, 100, result.Score)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidator_UnknownDataTypeFailsClosed(t *testing.T) {
	v := newTestValidator(t)

	result := v.Validate("unknown", models.Record{"anything": 1})

	assert.False(t, result.Valid)
	assert.Equal(t, 0, result.Score)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "unknown_data_type", result.Errors[0].Code)
}

func TestValidator_MissingRequiredFieldZeroesScore(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.RegisterDataType(shipmentRules()))

	record := validShipment()
	delete(record, "container_number")

	result := v.Validate("shipment", record)

	assert.False(t, result.Valid)
	assert.Equal(t, 0, result.Score)

	var found bool

	for _, issue := range result.Errors {
		if issue.Field == "container_number" {
			found = true

			assert.Equal(t, "required", issue.Rule)
			assert.NotEmpty(t, issue.Message)
		}
	}

	assert.True(t, found, "expected an issue for container_number")
}

func TestValidator_PatternMismatchPenalty(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.RegisterDataType(shipmentRules()))

	record := validShipment()
	record["container_number"] = "mscu-123"

	result := v.Validate("shipment", record)

	assert.False(t, result.Valid)
	assert.Equal(t, 80, result.Score)
}

func TestValidator_EnumMismatchPenalty(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.RegisterDataType(shipmentRules()))

	record := validShipment()
	record["status"] = "FLOATING"

	result := v.Validate("shipment", record)

	assert.False(t, result.Valid)
	assert.Equal(t, 80, result.Score)
}

func TestValidator_TypeMismatchPenalty(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.RegisterDataType(shipmentRules()))

	record := validShipment()
	record["weight_kg"] = "heavy"

	result := v.Validate("shipment", record)

	assert.False(t, result.Valid)
	assert.Equal(t, 70, result.Score)
}

func TestValidator_RangeViolationPenalty(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.RegisterDataType(shipmentRules()))

	record := validShipment()
	record["weight_kg"] = 99999.0

	result := v.Validate("shipment", record)

	assert.False(t, result.Valid)
	assert.Equal(t, 85, result.Score)
}

func TestValidator_MaxLengthOnlyWarns(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.RegisterDataType(shipmentRules()))

	record := validShipment()
	record["route"].(map[string]any)["origin"] = "CNSHANGHAI"

	result := v.Validate("shipment", record)

	assert.True(t, result.Valid, "max length alone must not invalidate")
	assert.Equal(t, 95, result.Score)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "route.origin", result.Warnings[0].Field)
}

func TestValidator_FutureDateRejected(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.RegisterDataType(shipmentRules()))

	record := validShipment()
	record["departure_date"] = time.Now().UTC().Add(72 * time.Hour).Format(time.RFC3339)

	result := v.Validate("shipment", record)

	assert.False(t, result.Valid)
	assert.Equal(t, 85, result.Score)
}

func TestValidator_NestedRequiredField(t *testing.T) {
	v := newTestValidator(t)
	require.NoError(t, v.RegisterDataType(shipmentRules()))

	record := validShipment()
	delete(record["route"].(map[string]any), "destination")

	result := v.Validate("shipment", record)

	assert.False(t, result.Valid)
	assert.Equal(t, 0, result.Score)
}

func TestValidator_CustomValidatorReference(t *testing.T) {
	v := newTestValidator(t)

	v.RegisterCustomValidator("container_check_digit", func(value any, _ models.Record) *models.ValidationIssue {
		s, _ := value.(string)
		if s == "MSCU1234565" {
			return nil
		}

		return &models.ValidationIssue{
			Rule:     "check_digit",
			Code:     "invalid_check_digit",
			Message:  fmt.Sprintf("container number %q has an invalid check digit", s),
			Severity: models.SeverityError,
		}
	})

	rules := &models.DataTypeRules{
		DataType: "container",
		Fields: []*models.FieldRule{
			{Field: "container_number", Required: true, Type: models.FieldTypeString, Validator: "container_check_digit"},
		},
	}
	require.NoError(t, v.RegisterDataType(rules))

	good := v.Validate("container", models.Record{"container_number": "MSCU1234565"})
	assert.True(t, good.Valid)

	bad := v.Validate("container", models.Record{"container_number": "MSCU1234560"})
	assert.False(t, bad.Valid)
	require.Len(t, bad.Errors, 1)
	assert.Equal(t, "invalid_check_digit", bad.Errors[0].Code)
	assert.Equal(t, "container_number", bad.Errors[0].Field)
}

func TestValidator_UnknownCustomValidatorFailsRegistration(t *testing.T) {
	v := newTestValidator(t)

	rules := &models.DataTypeRules{
		DataType: "container",
		Fields: []*models.FieldRule{
			{Field: "container_number", Validator: "nope"},
		},
	}

	err := v.RegisterDataType(rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown custom validator")
}

func TestValidator_InvalidPatternFailsRegistration(t *testing.T) {
	v := newTestValidator(t)

	rules := &models.DataTypeRules{
		DataType: "container",
		Fields: []*models.FieldRule{
			{Field: "container_number", Pattern: "["},
		},
	}

	err := v.RegisterDataType(rules)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid pattern")
}
