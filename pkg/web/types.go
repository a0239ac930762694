// Package web provides HTTP request and response types for the quality API.
package web

import "github.com/shipshapehq/shipshape/pkg/models"

// CheckRequest represents the request body for validating a record without
// running any correction workflows.
type CheckRequest struct {
	DataType string        `json:"data_type" validate:"required"`
	EntityID string        `json:"entity_id" validate:"required"`
	Record   models.Record `json:"record"    validate:"required"`
}

// ProcessRequest represents the request body for running a record through the
// full quality pipeline: validation, anomaly detection, matched correction
// workflows, and final revalidation.
type ProcessRequest struct {
	DataType string        `json:"data_type" validate:"required"`
	EntityID string        `json:"entity_id" validate:"required"`
	Record   models.Record `json:"record"    validate:"required"`
}

// ReconcileRequest represents the request body for reconciling conflicting
// source views of one entity.
type ReconcileRequest struct {
	DataType string          `json:"data_type" validate:"required"`
	Sources  []models.Source `json:"sources"   validate:"required,min=2,dive"`
}

// ResolveApprovalRequest represents the request body for deciding a pending
// approval.
type ResolveApprovalRequest struct {
	Decision   models.ApprovalDecision `json:"decision"    validate:"required,oneof=approved rejected"`
	ReviewerID string                  `json:"reviewer_id" validate:"required"`
}

// ProcessResponse is the outcome of a full pipeline run.
type ProcessResponse struct {
	Initial    *models.ValidationResult `json:"initial"`
	Final      *models.ValidationResult `json:"final,omitempty"`
	Executions []*models.Execution      `json:"executions,omitempty"`
	Record     models.Record            `json:"record"`
}

// ApprovalsResponse lists pending approvals, oldest first.
type ApprovalsResponse struct {
	Approvals []*models.Approval `json:"approvals"`
	Count     int                `json:"count"`
}
