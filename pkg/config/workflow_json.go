package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// workflowSchema is the JSON schema workflow definition files are validated
// against before decoding. Schema violations surface as one error naming
// every failed constraint.
const workflowSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["id", "name", "triggers", "steps"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string", "minLength": 3},
    "description": {"type": "string"},
    "triggers": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type"],
        "properties": {
          "type": {"enum": ["validation_error", "anomaly_detected", "event"]},
          "field": {"type": "string"},
          "error_code": {"type": "string"},
          "event": {"type": "string"}
        }
      }
    },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "action"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "name": {"type": "string"},
          "action": {"type": "string", "minLength": 1},
          "requires_approval": {"type": "boolean"},
          "approval_threshold": {"type": "integer", "minimum": 0, "maximum": 100},
          "timeout_seconds": {"type": "integer", "minimum": 0},
          "max_retries": {"type": "integer", "minimum": 0},
          "config": {"type": "object"}
        }
      }
    },
    "rollback": {
      "type": "object",
      "properties": {
        "enabled": {"type": "boolean"},
        "handler": {"type": "string"}
      }
    }
  }
}`

// ParseWorkflowJSON validates the document against the workflow schema and
// decodes it.
func ParseWorkflowJSON(data []byte) (*models.Workflow, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(workflowSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validating workflow definition: %w", err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return nil, fmt.Errorf("workflow definition is invalid: %s", strings.Join(details, "; "))
	}

	var workflow models.Workflow
	if err := json.Unmarshal(data, &workflow); err != nil {
		return nil, fmt.Errorf("decoding workflow definition: %w", err)
	}

	return &workflow, nil
}

// LoadWorkflowJSON reads and parses one workflow definition file.
func LoadWorkflowJSON(path string) (*models.Workflow, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workflow file %s: %w", path, err)
	}

	workflow, err := ParseWorkflowJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return workflow, nil
}
