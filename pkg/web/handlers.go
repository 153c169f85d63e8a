package web

import (
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/nullstream/graphd/pkg/coordinator"
	"github.com/nullstream/graphd/pkg/eventbus"
	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/models"
	"github.com/nullstream/graphd/pkg/persistence"
)

// APIHandlers implements every route of the HTTP surface (§6).
type APIHandlers struct {
	repo        persistence.Repository
	coordinator *coordinator.Coordinator
	broker      *eventbus.Broker
	tools       *graph.ToolRegistry
	predicates  *graph.PredicateRegistry
	validator   *validator.Validate
}

// NewAPIHandlers wires together the dependencies every handler needs.
func NewAPIHandlers(
	repo persistence.Repository,
	coord *coordinator.Coordinator,
	broker *eventbus.Broker,
	tools *graph.ToolRegistry,
	predicates *graph.PredicateRegistry,
) *APIHandlers {
	return &APIHandlers{
		repo:        repo,
		coordinator: coord,
		broker:      broker,
		tools:       tools,
		predicates:  predicates,
		validator:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreateGraph handles POST /graph/create.
func (h *APIHandlers) CreateGraph(c fiber.Ctx) error {
	var req CreateGraphRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	g, err := graph.Build(req.Name, req.Description, req.Nodes, req.Edges, req.EntryPoint, h.tools, h.predicates)
	if err != nil {
		return handleBuildError(c, err)
	}

	if err := g.Validate(); err != nil {
		return handleBuildError(c, err)
	}

	def := &models.GraphDefinition{
		Name:        req.Name,
		Description: req.Description,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
		EntryPoint:  req.EntryPoint,
		Version:     1,
		IsActive:    true,
	}

	id, err := h.repo.CreateGraph(c.Context(), def)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	def.ID = id

	return c.Status(fiber.StatusCreated).JSON(def)
}

// StartRun handles POST /graph/run.
func (h *APIHandlers) StartRun(c fiber.Ctx) error {
	var req StartRunRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "invalid JSON body")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	run, err := h.coordinator.StartRun(c.Context(), req.GraphName, req.InitialState)
	if err != nil {
		if persistence.IsGraphNotFound(err) {
			return notFound(c, "graph not found: "+req.GraphName)
		}

		if graph.IsToolNotFound(err) || graph.IsGraphValidationError(err) {
			return handleBuildError(c, err)
		}

		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(StartRunResponse{
		RunID:        run.RunID,
		GraphID:      run.GraphID,
		Status:       run.Status,
		StartedAt:    run.StartedAt,
		InitialState: run.InitialState,
	})
}

// RunState handles GET /graph/state/{run_id}.
func (h *APIHandlers) RunState(c fiber.Ctx) error {
	runID := c.Params("run_id")
	if runID == "" {
		return badRequest(c, "run_id is required")
	}

	run, logs, err := h.repo.RunByRunID(c.Context(), runID)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(RunStateResponse{Run: run, Log: logs})
}

// GetGraphByID handles GET /graph/{id}.
func (h *APIHandlers) GetGraphByID(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id is required")
	}

	def, err := h.repo.GraphByID(c.Context(), id)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(def)
}

// GetGraphByName handles GET /graph/name/{name}.
func (h *APIHandlers) GetGraphByName(c fiber.Ctx) error {
	name := c.Params("name")
	if name == "" {
		return badRequest(c, "name is required")
	}

	def, err := h.repo.GraphByName(c.Context(), name)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(def)
}

// DeleteGraph handles DELETE /graph/{id}.
func (h *APIHandlers) DeleteGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id is required")
	}

	if err := h.repo.SoftDeleteGraph(c.Context(), id); err != nil {
		return handleRepositoryError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// StatsSummary handles GET /graph/stats/summary.
func (h *APIHandlers) StatsSummary(c fiber.Ctx) error {
	graphs, err := h.repo.ListGraphs(c.Context(), 0, 0, false)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	runs, err := h.repo.ListRuns(c.Context(), persistence.RunFilter{})
	if err != nil {
		return handleRepositoryError(c, err)
	}

	summary := StatsSummaryResponse{TotalGraphs: len(graphs), TotalRuns: len(runs)}

	var iterationSum, durationSum float64

	for _, def := range graphs {
		if def.IsActive {
			summary.ActiveGraphs++
		}
	}

	for _, run := range runs {
		switch run.Status {
		case models.RunStatusCompleted:
			summary.CompletedRuns++
		case models.RunStatusFailed, models.RunStatusCancelled:
			summary.FailedRuns++
		}

		if run.TotalIterations != nil {
			iterationSum += float64(*run.TotalIterations)
		}

		if run.TotalExecutionTimeMs != nil {
			durationSum += float64(*run.TotalExecutionTimeMs)
		}
	}

	if len(runs) > 0 {
		summary.AverageIterations = iterationSum / float64(len(runs))
		summary.AverageDurationMs = durationSum / float64(len(runs))
	}

	return c.JSON(summary)
}

// ListRuns handles GET /graph/runs/list.
func (h *APIHandlers) ListRuns(c fiber.Ctx) error {
	filter, err := h.parseRunFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	runs, err := h.repo.ListRuns(c.Context(), filter)
	if err != nil {
		return handleRepositoryError(c, err)
	}

	return c.JSON(fiber.Map{"runs": runs})
}

func (h *APIHandlers) parseRunFilter(c fiber.Ctx) (persistence.RunFilter, error) {
	filter := persistence.RunFilter{
		GraphID: c.Query("graph_id"),
		Status:  models.RunStatus(c.Query("status")),
	}

	if skipStr := c.Query("skip"); skipStr != "" {
		skip, err := strconv.Atoi(skipStr)
		if err != nil {
			return filter, err
		}

		filter.Skip = skip
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return filter, err
		}

		filter.Limit = limit
	}

	return filter, nil
}

// HealthCheck handles GET /health.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	database := "healthy"
	status := "healthy"
	httpStatus := fiber.StatusOK

	if err := h.repo.HealthCheck(c.Context()); err != nil {
		database = "unhealthy"
		status = "unhealthy"
		httpStatus = fiber.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(HealthResponse{
		Status:    status,
		Database:  database,
		Timestamp: time.Now().UTC(),
	})
}
