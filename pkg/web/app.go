package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/nullstream/graphd/pkg/coordinator"
	"github.com/nullstream/graphd/pkg/eventbus"
	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/persistence"
)

// NewApp builds the fiber application exposing the routes of §6: graph
// CRUD, run lifecycle, and the per-run WebSocket event stream.
func NewApp(
	repo persistence.Repository,
	coord *coordinator.Coordinator,
	broker *eventbus.Broker,
	tools *graph.ToolRegistry,
	predicates *graph.PredicateRegistry,
	corsOrigins []string,
) *fiber.App {
	handlers := NewAPIHandlers(repo, coord, broker, tools, predicates)

	app := fiber.New()
	app.Use(cors.New(cors.Config{AllowOrigins: corsOrigins}))
	app.Use(logger.New(logger.Config{DisableColors: true}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("graphd")
	})

	g := app.Group("/graph")
	g.Post("/create", handlers.CreateGraph)
	g.Post("/run", handlers.StartRun)
	g.Get("/state/:run_id", handlers.RunState)
	g.Get("/stats/summary", handlers.StatsSummary)
	g.Get("/runs/list", handlers.ListRuns)
	g.Get("/name/:name", handlers.GetGraphByName)
	g.Get("/:id", handlers.GetGraphByID)
	g.Delete("/:id", handlers.DeleteGraph)

	app.Get("/ws/run/:run_id", handlers.RunEvents())

	app.Get("/health", handlers.HealthCheck)

	return app
}
