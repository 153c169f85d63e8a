package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/nullstream/graphd/pkg/engine"
	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/persistence"
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

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleRepositoryError maps a persistence error to its RFC7807 response.
func handleRepositoryError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsGraphNotFound(err):
		return notFound(c, "graph not found")
	case persistence.IsRunNotFound(err):
		return notFound(c, "run not found")
	case persistence.IsGraphNameTaken(err):
		return conflict(c, "graph name already exists")
	default:
		return internalError(c, err)
	}
}

// handleBuildError maps a graph build/validation failure to its response,
// referencing the offending tool name when the failure is an unknown tool.
func handleBuildError(c fiber.Ctx, err error) error {
	switch {
	case graph.IsToolNotFound(err):
		return badRequest(c, err.Error())
	case graph.IsGraphValidationError(err):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}

// handleRunError maps an engine-raised run failure to its response.
func handleRunError(c fiber.Ctx, err error) error {
	switch {
	case engine.IsMaxIterationsExceeded(err),
		engine.IsTimeout(err),
		engine.IsCancelled(err),
		engine.IsNodeExecutionError(err):
		return badRequest(c, err.Error())
	default:
		return internalError(c, err)
	}
}
