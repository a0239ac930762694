package web

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/shipshapehq/shipshape/pkg/workflow"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func gone(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(410).
		WithInstance(c.Path()).
		WithType("expired").
		WithDetail(detail)

	return c.Status(fiber.StatusGone).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps orchestrator errors onto HTTP problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, workflow.ErrApprovalNotFound):
		return notFound(c, "approval not found or already resolved")
	case errors.Is(err, workflow.ErrExecutionNotFound):
		return notFound(c, "execution not found")
	case errors.Is(err, workflow.ErrApprovalExpired):
		return gone(c, "approval has expired; execution was failed")
	default:
		return internalError(c, err)
	}
}
