package engine

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/state"
)

// Hooks lets a caller (the run coordinator) observe node-level lifecycle
// events as they happen, without the engine depending on the broker or
// persistence packages. Every hook is optional.
type Hooks struct {
	NodeStarted   func(node string, iteration int)
	NodeCompleted func(node string, iteration int, duration time.Duration)
	NodeFailed    func(node string, iteration int, err error)
	Completed     func(final state.WorkflowState, duration time.Duration, iterations int)
}

func (h Hooks) nodeStarted(node string, iteration int) {
	if h.NodeStarted != nil {
		h.NodeStarted(node, iteration)
	}
}

func (h Hooks) nodeCompleted(node string, iteration int, duration time.Duration) {
	if h.NodeCompleted != nil {
		h.NodeCompleted(node, iteration, duration)
	}
}

func (h Hooks) nodeFailed(node string, iteration int, err error) {
	if h.NodeFailed != nil {
		h.NodeFailed(node, iteration, err)
	}
}

func (h Hooks) completed(final state.WorkflowState, duration time.Duration, iterations int) {
	if h.Completed != nil {
		h.Completed(final, duration, iterations)
	}
}

// Options configures a single Execute call. Zero-value MaxIterations is
// meaningful (it fails the run before the entry node ever runs); callers
// that want the default budget must set it explicitly.
type Options struct {
	MaxIterations int
	Timeout       time.Duration
	Logger        *logrus.Entry
	Hooks         Hooks
}

// Execute drives g from its entry point, following the algorithm in the
// engine design: a sequential loop that checks the iteration budget,
// cancellation, and timeout at the head of every pass, executes the
// current node, advances via the graph's edges, and terminates either
// when EdgeManager reports no next node or when one of the budget checks
// fails.
//
// g is assumed already validated; Execute does not call g.Validate.
func Execute(ctx context.Context, g *graph.Graph, initial state.WorkflowState, opts Options) (state.WorkflowState, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.WithField("module", "engine")
	}

	current := g.EntryPoint
	iterations := 0
	s := initial
	start := time.Now()

	for current != "" {
		if iterations >= opts.MaxIterations {
			err := &MaxIterationsExceededError{MaxIterations: opts.MaxIterations}
			logger.WithFields(logrus.Fields{
				"run_id":     s.RunID,
				"iterations": iterations,
			}).Error("max iterations exceeded")

			return s, err
		}

		if ctx.Err() != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				logger.WithField("run_id", s.RunID).Warn("run timed out")

				return s, &TimeoutError{Elapsed: time.Since(start).String()}
			}

			logger.WithField("run_id", s.RunID).Warn("run cancelled")

			return s, &CancelledError{}
		}

		if opts.Timeout > 0 && time.Since(start) > opts.Timeout {
			elapsed := time.Since(start)
			logger.WithField("run_id", s.RunID).Warn("run timed out")

			return s, &TimeoutError{Elapsed: elapsed.String()}
		}

		node, ok := g.Nodes[current]
		if !ok {
			return s, &NodeExecutionError{Node: current, Iteration: iterations, Err: errUnknownNode(current)}
		}

		entry := logger.WithFields(logrus.Fields{
			"run_id":    s.RunID,
			"node":      current,
			"iteration": iterations,
		})
		entry.Info("starting node")
		opts.Hooks.nodeStarted(current, iterations)

		result := node.Run(s)

		if result.Failed {
			entry.WithError(result.Err).Error("node failed")
			opts.Hooks.nodeFailed(current, iterations, result.Err)

			return result.State.WithIteration(iterations + 1), &NodeExecutionError{Node: current, Iteration: iterations, Err: result.Err}
		}

		s = result.State.WithIteration(iterations + 1)
		entry.WithField("duration", result.ExecutionTime).Info("node completed")
		opts.Hooks.nodeCompleted(current, iterations, result.ExecutionTime)

		next, err := g.Edges.Next(current, s)
		if err != nil {
			entry.WithError(err).Error("edge condition failed")

			return s, err
		}

		current = next
		iterations++
	}

	duration := time.Since(start)
	logger.WithFields(logrus.Fields{
		"run_id":     s.RunID,
		"iterations": iterations,
		"duration":   duration,
	}).Info("run completed")
	opts.Hooks.completed(s, duration, iterations)

	return s, nil
}
