package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordClone_DeepCopy(t *testing.T) {
	original := Record{
		"container_number": "MSCU1234565",
		"route": map[string]any{
			"origin":      "CNSHA",
			"destination": "NLRTM",
		},
		"events": []any{
			map[string]any{"type": "gate_in", "location": "CNSHA"},
		},
	}

	clone := original.Clone()
	require.Equal(t, map[string]any(original), map[string]any(clone))

	clone["container_number"] = "TEMU7654321"
	clone["route"].(map[string]any)["origin"] = "SGSIN"
	clone["events"].([]any)[0].(map[string]any)["type"] = "gate_out"

	assert.Equal(t, "MSCU1234565", original["container_number"])
	assert.Equal(t, "CNSHA", original["route"].(map[string]any)["origin"])
	assert.Equal(t, "gate_in", original["events"].([]any)[0].(map[string]any)["type"])
}

func TestRecordClone_Nil(t *testing.T) {
	var r Record

	assert.Nil(t, r.Clone())
}

func TestExecutionStatus_IsTerminal(t *testing.T) {
	assert.True(t, ExecutionStatusCompleted.IsTerminal())
	assert.True(t, ExecutionStatusFailed.IsTerminal())
	assert.False(t, ExecutionStatusRunning.IsTerminal())
	assert.False(t, ExecutionStatusPendingApproval.IsTerminal())
	assert.False(t, ExecutionStatusQueued.IsTerminal())
}

func TestApproval_Expired(t *testing.T) {
	now := time.Now()
	approval := &Approval{
		ID:        "appr-1",
		CreatedAt: now,
		ExpiresAt: now.Add(ApprovalTTL),
	}

	assert.False(t, approval.Expired(now))
	assert.False(t, approval.Expired(now.Add(23*time.Hour)))
	assert.True(t, approval.Expired(now.Add(25*time.Hour)))
}
