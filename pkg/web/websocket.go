package web

import (
	"context"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/nullstream/graphd/pkg/eventbus"
	"github.com/nullstream/graphd/pkg/models"
)

// RunEvents upgrades GET /ws/run/{run_id} and streams the run's event
// history per §4.7: a run already in a terminal state gets one synthesized
// terminal event and the stream closes; a run still in flight is bridged
// to a live broker subscription for the connection's lifetime.
func (h *APIHandlers) RunEvents() fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		runID := c.Params("run_id")
		logger := logrus.WithFields(logrus.Fields{"module": "web", "run_id": runID})

		run, _, err := h.repo.RunByRunID(context.Background(), runID)
		if err != nil {
			_ = c.WriteJSON(eventbus.NewErrorEvent(runID, "run not found", ""))
			_ = c.Close()

			return
		}

		if run.IsTerminal() {
			_ = c.WriteJSON(terminalEventFor(run))
			_ = c.Close()

			return
		}

		sub, err := h.broker.Subscribe(context.Background(), runID)
		if err != nil {
			_ = c.WriteJSON(eventbus.NewErrorEvent(runID, "failed to subscribe to run events", ""))
			_ = c.Close()

			return
		}
		defer sub.Unsubscribe()

		incoming := make(chan []byte)

		go func() {
			defer close(incoming)

			for {
				_, msg, err := c.ReadMessage()
				if err != nil {
					return
				}

				incoming <- msg
			}
		}()

		for {
			select {
			case msg, ok := <-incoming:
				if !ok {
					return
				}

				if string(msg) == "ping" {
					if err := c.WriteJSON(eventbus.NewPong(runID)); err != nil {
						return
					}
				}

			case event, ok := <-sub.Events:
				if !ok {
					return
				}

				if err := c.WriteJSON(event); err != nil {
					logger.WithError(err).Warn("failed to write websocket event")

					return
				}

			case <-time.After(30 * time.Second):
				if err := c.WriteJSON(eventbus.NewPong(runID)); err != nil {
					return
				}
			}
		}
	})
}

// terminalEventFor reconstructs the single terminal event a late-joining
// subscriber receives for a run that has already finished.
func terminalEventFor(run *models.Run) eventbus.WorkflowCompleted {
	var totalDurationMs int64
	if run.TotalExecutionTimeMs != nil {
		totalDurationMs = *run.TotalExecutionTimeMs
	}

	var totalIterations int
	if run.TotalIterations != nil {
		totalIterations = *run.TotalIterations
	}

	finalState := run.FinalState
	if finalState == nil {
		finalState = run.CurrentState
	}

	return eventbus.NewWorkflowCompleted(run.RunID, string(run.Status), finalState, totalDurationMs, totalIterations, run.ErrorMessage)
}
