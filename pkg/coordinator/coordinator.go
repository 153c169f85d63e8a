// Package coordinator implements the Run Coordinator (§4.6): it resolves a
// graph, allocates a run, hands the run_id back to the caller immediately,
// and drives the engine in the background, tapping its hooks to publish
// events and persist execution history.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nullstream/graphd/pkg/engine"
	"github.com/nullstream/graphd/pkg/eventbus"
	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/models"
	"github.com/nullstream/graphd/pkg/persistence"
	"github.com/nullstream/graphd/pkg/state"
)

// Options tunes how the coordinator runs every graph it starts.
type Options struct {
	MaxConcurrentRuns int
	MaxIterations     int
	RunTimeout        time.Duration
}

// Coordinator mediates between external callers, the engine, the
// repository, and the event broker.
type Coordinator struct {
	repo       persistence.Repository
	broker     *eventbus.Broker
	tools      *graph.ToolRegistry
	predicates *graph.PredicateRegistry
	opts       Options
	logger     *logrus.Entry

	sem chan struct{}
}

// New builds a Coordinator. opts.MaxConcurrentRuns <= 0 is treated as 1.
func New(repo persistence.Repository, broker *eventbus.Broker, tools *graph.ToolRegistry, predicates *graph.PredicateRegistry, opts Options) *Coordinator {
	if opts.MaxConcurrentRuns <= 0 {
		opts.MaxConcurrentRuns = 1
	}

	return &Coordinator{
		repo:       repo,
		broker:     broker,
		tools:      tools,
		predicates: predicates,
		opts:       opts,
		logger:     logrus.WithField("module", "coordinator"),
		sem:        make(chan struct{}, opts.MaxConcurrentRuns),
	}
}

// StartRun resolves graphName, persists a pending Run row, and schedules
// the execution in the background. It returns as soon as the row exists,
// before the semaphore is acquired or the engine runs a single node.
func (c *Coordinator) StartRun(ctx context.Context, graphName string, initialData map[string]any) (*models.Run, error) {
	def, err := c.repo.GraphByName(ctx, graphName)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve graph %q: %w", graphName, err)
	}

	g, err := graph.Build(def.Name, def.Description, def.Nodes, def.Edges, def.EntryPoint, c.tools, c.predicates)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph %q: %w", graphName, err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("graph %q failed validation: %w", graphName, err)
	}

	run, err := c.repo.CreateRun(ctx, def.ID, initialData)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	go c.execute(context.WithoutCancel(ctx), g, run)

	return run, nil
}

// execute acquires the concurrency semaphore, then drives the engine to
// completion, persisting every lifecycle transition and publishing events
// along the way. It runs detached from the request that started it.
func (c *Coordinator) execute(ctx context.Context, g *graph.Graph, run *models.Run) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-c.sem }()

	logger := c.logger.WithFields(logrus.Fields{"run_id": run.RunID, "graph": g.Name})

	startedAt := time.Now().UTC()
	if err := c.repo.UpdateRunStatus(ctx, run.RunID, models.RunStatusRunning, &startedAt, nil, nil); err != nil {
		logger.WithError(err).Error("failed to mark run as running")
	}

	initial := state.New(g.Name, run.RunID, run.InitialState, nil)

	totalNodes := g.Stats().NodeCount

	hooks := engine.Hooks{
		NodeStarted: func(node string, iteration int) {
			c.recordNodeStart(ctx, run.RunID, node, iteration, totalNodes)
		},
		NodeCompleted: func(node string, iteration int, duration time.Duration) {
			c.recordNodeOutcome(ctx, run.RunID, node, iteration, duration, models.NodeStatusCompleted, nil)
		},
		NodeFailed: func(node string, iteration int, err error) {
			c.recordNodeOutcome(ctx, run.RunID, node, iteration, 0, models.NodeStatusFailed, err)
		},
	}

	runCtx := ctx
	cancel := func() {}

	if c.opts.RunTimeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.opts.RunTimeout)
	}
	defer cancel()

	final, err := engine.Execute(runCtx, g, initial, engine.Options{
		MaxIterations: c.opts.MaxIterations,
		Timeout:       c.opts.RunTimeout,
		Logger:        logger,
		Hooks:         hooks,
	})

	c.finish(ctx, run.RunID, final, err)
}

// recordNodeStart appends the "started" ExecutionLog row the engine's
// NodeStarted hook fires before running node, then publishes the
// StatusUpdate/ProgressUpdate pair for it. totalNodes is the graph's node
// count, used to derive progress_percentage.
func (c *Coordinator) recordNodeStart(ctx context.Context, runID, node string, iteration, totalNodes int) {
	entry := &models.ExecutionLog{
		RunID:     runID,
		NodeName:  node,
		Status:    models.NodeStatusStarted,
		Iteration: iteration,
		Timestamp: time.Now().UTC(),
	}

	if err := c.repo.AppendExecutionLog(ctx, entry); err != nil {
		c.logger.WithError(err).WithField("run_id", runID).Error("failed to append execution log")
	}

	_ = c.broker.Publish(ctx, runID, eventbus.NewStatusUpdate(runID, string(models.RunStatusRunning), node))

	var progress float64
	if totalNodes > 0 {
		progress = float64(iteration) / float64(totalNodes) * 100
	}

	_ = c.broker.Publish(ctx, runID, eventbus.NewProgressUpdate(runID, node, iteration, totalNodes, progress))
}

func (c *Coordinator) recordNodeOutcome(ctx context.Context, runID, node string, iteration int, duration time.Duration, status models.NodeStatus, nodeErr error) {
	durationMs := duration.Milliseconds()

	var errMsg *string
	if nodeErr != nil {
		msg := nodeErr.Error()
		errMsg = &msg
	}

	entry := &models.ExecutionLog{
		RunID:           runID,
		NodeName:        node,
		Status:          status,
		Iteration:       iteration,
		ExecutionTimeMs: &durationMs,
		Timestamp:       time.Now().UTC(),
		ErrorMessage:    errMsg,
	}

	if err := c.repo.AppendExecutionLog(ctx, entry); err != nil {
		c.logger.WithError(err).WithField("run_id", runID).Error("failed to append execution log")
	}

	_ = c.broker.Publish(ctx, runID, eventbus.NewNodeCompleted(runID, node, durationMs, iteration, string(status)))
	_ = c.broker.Publish(ctx, runID, eventbus.NewLogEntry(runID, node, string(status), errMsg))
}

// finish persists the terminal state of a run and publishes/closes the
// event stream, mapping engine errors onto the failed/cancelled statuses of
// §4.6 step 8.
func (c *Coordinator) finish(ctx context.Context, runID string, final state.WorkflowState, runErr error) {
	logger := c.logger.WithField("run_id", runID)

	finalMap, mapErr := final.ToMap()
	if mapErr != nil {
		logger.WithError(mapErr).Error("failed to serialize final state")
		finalMap = map[string]any{}
	}

	completedAt := time.Now().UTC()

	var totalDurationMs int64
	if started := final.Timestamp; !started.IsZero() {
		totalDurationMs = completedAt.Sub(started).Milliseconds()
	}

	status := models.RunStatusCompleted

	var errMsg *string

	switch {
	case runErr == nil:
	case engine.IsCancelled(runErr):
		status = models.RunStatusCancelled
		msg := "cancelled"
		errMsg = &msg
	case engine.IsTimeout(runErr):
		status = models.RunStatusFailed
		msg := "timeout"
		errMsg = &msg
	default:
		status = models.RunStatusFailed
		msg := runErr.Error()
		errMsg = &msg
	}

	if err := c.repo.UpdateRunFinalState(ctx, runID, finalMap, final.Iteration, totalDurationMs); err != nil {
		logger.WithError(err).Error("failed to persist final state")
	}

	if err := c.repo.UpdateRunCurrentState(ctx, runID, finalMap); err != nil {
		logger.WithError(err).Error("failed to persist current state")
	}

	if err := c.repo.UpdateRunStatus(ctx, runID, status, nil, &completedAt, errMsg); err != nil {
		logger.WithError(err).Error("failed to persist terminal status")
	}

	_ = c.broker.Publish(ctx, runID, eventbus.NewWorkflowCompleted(runID, string(status), finalMap, totalDurationMs, final.Iteration, errMsg))
	c.broker.Close(runID)

	if runErr != nil {
		logger.WithError(runErr).Warn("run finished with error")
	} else {
		logger.Info("run completed")
	}
}
