package main

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v3"
	cli "github.com/urfave/cli/v3"

	"github.com/nullstream/graphd/pkg/config"
	"github.com/nullstream/graphd/pkg/coordinator"
	"github.com/nullstream/graphd/pkg/eventbus"
	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/persistence"
	"github.com/nullstream/graphd/pkg/persistence/memory"
	"github.com/nullstream/graphd/pkg/persistence/postgres"
	"github.com/nullstream/graphd/pkg/tools"
	"github.com/nullstream/graphd/pkg/web"
)

// API wires together the repository, coordinator, and HTTP app, and owns
// their teardown.
type API struct {
	repo persistence.Repository
	app  *fiber.App
}

// NewAPI loads configuration, connects the chosen repository, registers the
// built-in tool and predicate sets, and constructs the fiber application.
func NewAPI(ctx context.Context, command *cli.Command) (*API, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if command.IsSet("port") {
		cfg.Port = command.Int("port")
	}

	if command.IsSet("database-url") {
		cfg.DatabaseURL = command.String("database-url")
	}

	return newAPI(ctx, cfg, command.Bool("in-memory"))
}

// newAPI builds an API from an already-resolved config, independent of the
// CLI flag layer so it can be exercised directly in tests.
func newAPI(ctx context.Context, cfg config.Config, inMemory bool) (*API, error) {
	var repo persistence.Repository

	if inMemory {
		repo = memory.New()
	} else {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}

		pgRepo, err := postgres.New(ctx, nil, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		repo = pgRepo
	}

	toolRegistry := graph.NewToolRegistry()
	if err := tools.RegisterAll(toolRegistry); err != nil {
		return nil, fmt.Errorf("failed to register built-in tools: %w", err)
	}

	predicateRegistry := graph.NewPredicateRegistry()
	broker := eventbus.NewBroker(nil)

	coord := coordinator.New(repo, broker, toolRegistry, predicateRegistry, coordinator.Options{
		MaxConcurrentRuns: cfg.MaxConcurrentRuns,
		MaxIterations:     cfg.DefaultMaxIterations,
		RunTimeout:        cfg.DefaultRunTimeout(),
	})

	app := web.NewApp(repo, coord, broker, toolRegistry, predicateRegistry, cfg.CORSOrigins)

	return &API{repo: repo, app: app}, nil
}

// Start binds the HTTP server to port and blocks serving requests.
func (a *API) Start(port int) error {
	return a.app.Listen(fmt.Sprintf(":%d", port))
}

// Close releases the repository's resources.
func (a *API) Close(ctx context.Context) error {
	return a.repo.Close(ctx)
}
