package models

// FieldType is the expected primitive type of a validated field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeDate    FieldType = "date"
	FieldTypeObject  FieldType = "object"
	FieldTypeArray   FieldType = "array"
)

// FieldRule declares the constraints for one field of a data type. Rules are
// immutable after registration; the validator only reads them.
type FieldRule struct {
	Field      string       `json:"field"       yaml:"field"       validate:"required"`
	Required   bool         `json:"required"    yaml:"required"`
	Type       FieldType    `json:"type"        yaml:"type"        validate:"omitempty,oneof=string number boolean date object array"`
	Pattern    string       `json:"pattern,omitempty"     yaml:"pattern,omitempty"`
	Enum       []string     `json:"enum,omitempty"        yaml:"enum,omitempty"`
	Min        *float64     `json:"min,omitempty"         yaml:"min,omitempty"`
	Max        *float64     `json:"max,omitempty"         yaml:"max,omitempty"`
	MinLength  *int         `json:"min_length,omitempty"  yaml:"min_length,omitempty"`
	MaxLength  *int         `json:"max_length,omitempty"  yaml:"max_length,omitempty"`
	NotFuture  bool         `json:"not_future,omitempty"  yaml:"not_future,omitempty"`
	MaxAgeDays *int         `json:"max_age_days,omitempty" yaml:"max_age_days,omitempty"`
	Properties []*FieldRule `json:"properties,omitempty"  yaml:"properties,omitempty"`
	Validator  string       `json:"validator,omitempty"   yaml:"validator,omitempty"` // named custom validator
}

// DataTypeRules groups the field rules registered for one entity data type.
type DataTypeRules struct {
	DataType string       `json:"data_type" yaml:"data_type" validate:"required"`
	Fields   []*FieldRule `json:"fields"    yaml:"fields"    validate:"required,min=1,dive"`
}
