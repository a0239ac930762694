package web

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/shipshapehq/shipshape/pkg/persistence"
	"github.com/shipshapehq/shipshape/pkg/quality"
)

// APIHandlers exposes the quality service over HTTP.
type APIHandlers struct {
	service   *quality.Service
	validator *validator.Validate
}

func NewAPIHandlers(service *quality.Service, validator *validator.Validate) *APIHandlers {
	return &APIHandlers{
		service:   service,
		validator: validator,
	}
}

// CheckRecord validates a record and reports its quality score without
// running any correction workflows.
func (h *APIHandlers) CheckRecord(c fiber.Ctx) error {
	var req CheckRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result := h.service.Check(c.Context(), req.DataType, req.EntityID, req.Record)

	return c.JSON(result)
}

// ProcessRecord runs a record through the full quality pipeline and returns
// the corrected record with before and after validation results.
func (h *APIHandlers) ProcessRecord(c fiber.Ctx) error {
	var req ProcessRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	report, err := h.service.Process(c.Context(), req.DataType, req.EntityID, req.Record)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(reportResponse(report))
}

// ProcessEntity loads a stored record by id and runs it through the full
// quality pipeline.
func (h *APIHandlers) ProcessEntity(c fiber.Ctx) error {
	entityID := c.Params("id")
	if entityID == "" {
		return badRequest(c, "Entity ID is required")
	}

	dataType := c.Query("data_type")
	if dataType == "" {
		return badRequest(c, "data_type query parameter is required")
	}

	report, err := h.service.ProcessEntity(c.Context(), dataType, entityID)
	if err != nil {
		if errors.Is(err, persistence.ErrRecordNotFound) {
			return notFound(c, "entity not found")
		}

		return handleServiceError(c, err)
	}

	return c.JSON(reportResponse(report))
}

// ReconcileSources resolves conflicting source views of one entity.
func (h *APIHandlers) ReconcileSources(c fiber.Ctx) error {
	var req ReconcileRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	result, err := h.service.Reconcile(c.Context(), req.DataType, req.Sources)
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(result)
}

// ListApprovals returns pending approvals, oldest first.
func (h *APIHandlers) ListApprovals(c fiber.Ctx) error {
	approvals := h.service.Approvals()

	return c.JSON(ApprovalsResponse{Approvals: approvals, Count: len(approvals)})
}

// ResolveApproval records a reviewer decision on a pending approval. An
// approved execution resumes from the step after the gate; a rejected one is
// failed without rollback.
func (h *APIHandlers) ResolveApproval(c fiber.Ctx) error {
	approvalID := c.Params("id")
	if approvalID == "" {
		return badRequest(c, "Approval ID is required")
	}

	var req ResolveApprovalRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.service.ProcessApproval(c.Context(), approvalID, req.Decision, req.ReviewerID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

// GetExecution returns one workflow execution, in-flight or retired.
func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.service.Execution(id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

// GetStats returns a point-in-time snapshot of quality metrics.
func (h *APIHandlers) GetStats(c fiber.Ctx) error {
	return c.JSON(h.service.Snapshot())
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	if err := h.service.Health(c.Context()); err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"status": "unhealthy",
			"error":  err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": "healthy"})
}

func reportResponse(report *quality.Report) ProcessResponse {
	return ProcessResponse{
		Initial:    report.Initial,
		Final:      report.Final,
		Executions: report.Executions,
		Record:     report.Record,
	}
}

// Register mounts all quality API routes on the app.
func Register(app *fiber.App, h *APIHandlers) {
	app.Post("/check", h.CheckRecord)
	app.Post("/process", h.ProcessRecord)
	app.Post("/entities/:id/process", h.ProcessEntity)
	app.Post("/reconcile", h.ReconcileSources)

	a := app.Group("/approvals")
	a.Get("/", h.ListApprovals)
	a.Post("/:id", h.ResolveApproval)

	app.Get("/executions/:id", h.GetExecution)
	app.Get("/stats", h.GetStats)
	app.Get("/health", h.HealthCheck)
}
