// Command graphd runs the graph execution server: the HTTP/WebSocket
// surface of §6 over a PostgreSQL-backed repository, the coordinator, and
// the built-in tool/predicate registries.
package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/nullstream/graphd/pkg/log"
)

func main() {
	logger := log.WithModule("graphd")

	cmd := &cli.Command{
		Name:                  "graphd",
		Usage:                 "Run the graph orchestration server",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the HTTP server on",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "PostgreSQL connection URL for persistence",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "config",
				Usage:   "Path to a YAML config file, layered under environment variables",
				Value:   "",
				Sources: cli.EnvVars("CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.BoolFlag{
				Name:  "in-memory",
				Usage: "Use the in-memory repository instead of PostgreSQL (demos and local runs)",
				Value: false,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.Info("Initializing graphd")

			api, err := NewAPI(ctx, command)
			if err != nil {
				return err
			}

			defer func() {
				if err := api.Close(ctx); err != nil {
					logger.Error("failed to close persistence", "error", err)
				}
			}()

			if err := api.Start(command.Int("port")); err != nil {
				logger.Error("graphd server exited with an error", "error", err)

				return err
			}

			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
