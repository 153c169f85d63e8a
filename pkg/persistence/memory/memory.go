// Package memory implements persistence.Repository without a backing
// store, for tests and single-process demos. It mirrors the full-snapshot,
// mutex-guarded shape the teacher's file-backed persistence used, holding
// everything in maps instead of round-tripping to disk.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nullstream/graphd/pkg/models"
	"github.com/nullstream/graphd/pkg/persistence"
)

// Repository is an in-memory persistence.Repository. All methods are safe
// for concurrent use.
type Repository struct {
	mu sync.RWMutex

	graphsByID   map[string]*models.GraphDefinition
	graphsByName map[string]string // name -> id, active graphs only

	runsByRunID map[string]*models.Run
	logsByRunID map[string][]*models.ExecutionLog
}

// New returns an empty Repository.
func New() *Repository {
	return &Repository{
		graphsByID:   make(map[string]*models.GraphDefinition),
		graphsByName: make(map[string]string),
		runsByRunID:  make(map[string]*models.Run),
		logsByRunID:  make(map[string][]*models.ExecutionLog),
	}
}

func (r *Repository) CreateGraph(_ context.Context, def *models.GraphDefinition) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existingID, taken := r.graphsByName[def.Name]; taken {
		return "", persistence.NewGraphError("CreateGraph", existingID, persistence.ErrGraphNameTaken)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return "", persistence.NewGraphError("CreateGraph", "", err)
	}

	now := time.Now().UTC()

	stored := *def
	stored.ID = id.String()
	stored.Version = 1
	stored.IsActive = true
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.graphsByID[stored.ID] = &stored
	r.graphsByName[stored.Name] = stored.ID

	return stored.ID, nil
}

func (r *Repository) GraphByID(_ context.Context, id string) (*models.GraphDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.graphsByID[id]
	if !ok {
		return nil, persistence.NewGraphError("GraphByID", id, persistence.ErrGraphNotFound)
	}

	copied := *def

	return &copied, nil
}

func (r *Repository) GraphByName(_ context.Context, name string) (*models.GraphDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.graphsByName[name]
	if !ok {
		return nil, persistence.NewGraphError("GraphByName", name, persistence.ErrGraphNotFound)
	}

	copied := *r.graphsByID[id]

	return &copied, nil
}

func (r *Repository) ListGraphs(_ context.Context, skip, limit int, activeOnly bool) ([]*models.GraphDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.GraphDefinition, 0, len(r.graphsByID))

	for _, def := range r.graphsByID {
		if activeOnly && !def.IsActive {
			continue
		}

		copied := *def
		all = append(all, &copied)
	}

	sortGraphsByCreatedAtDesc(all)

	return paginate(all, skip, limit), nil
}

func (r *Repository) SoftDeleteGraph(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, ok := r.graphsByID[id]
	if !ok {
		return persistence.NewGraphError("SoftDeleteGraph", id, persistence.ErrGraphNotFound)
	}

	def.IsActive = false
	def.UpdatedAt = time.Now().UTC()
	delete(r.graphsByName, def.Name)

	return nil
}

func (r *Repository) CreateRun(_ context.Context, graphID string, initialState map[string]any) (*models.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.graphsByID[graphID]; !ok {
		return nil, persistence.NewGraphError("CreateRun", graphID, persistence.ErrGraphNotFound)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, persistence.NewRunError("CreateRun", "", err)
	}

	run := &models.Run{
		ID:           id.String(),
		RunID:        id.String(),
		GraphID:      graphID,
		Status:       models.RunStatusPending,
		InitialState: initialState,
		CreatedAt:    time.Now().UTC(),
	}

	r.runsByRunID[run.RunID] = run
	r.logsByRunID[run.RunID] = nil

	copied := *run

	return &copied, nil
}

func (r *Repository) RunByRunID(_ context.Context, runID string) (*models.Run, []*models.ExecutionLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runsByRunID[runID]
	if !ok {
		return nil, nil, persistence.NewRunError("RunByRunID", runID, persistence.ErrRunNotFound)
	}

	copied := *run
	logs := append([]*models.ExecutionLog(nil), r.logsByRunID[runID]...)

	return &copied, logs, nil
}

func (r *Repository) ListRuns(_ context.Context, filter persistence.RunFilter) ([]*models.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.Run, 0, len(r.runsByRunID))

	for _, run := range r.runsByRunID {
		if filter.GraphID != "" && run.GraphID != filter.GraphID {
			continue
		}

		if filter.Status != "" && run.Status != filter.Status {
			continue
		}

		copied := *run
		all = append(all, &copied)
	}

	sortRunsByCreatedAtDesc(all)

	return paginate(all, filter.Skip, filter.Limit), nil
}

func (r *Repository) UpdateRunStatus(_ context.Context, runID string, status models.RunStatus, startedAt, completedAt *time.Time, errorMessage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runsByRunID[runID]
	if !ok {
		return persistence.NewRunError("UpdateRunStatus", runID, persistence.ErrRunNotFound)
	}

	run.Status = status

	if startedAt != nil {
		run.StartedAt = startedAt
	}

	if completedAt != nil {
		run.CompletedAt = completedAt
	}

	if errorMessage != nil {
		run.ErrorMessage = errorMessage
	}

	return nil
}

func (r *Repository) UpdateRunFinalState(_ context.Context, runID string, finalState map[string]any, totalIterations int, totalExecutionTimeMs int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runsByRunID[runID]
	if !ok {
		return persistence.NewRunError("UpdateRunFinalState", runID, persistence.ErrRunNotFound)
	}

	run.FinalState = finalState
	run.TotalIterations = &totalIterations
	run.TotalExecutionTimeMs = &totalExecutionTimeMs

	return nil
}

func (r *Repository) UpdateRunCurrentState(_ context.Context, runID string, currentState map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runsByRunID[runID]
	if !ok {
		return persistence.NewRunError("UpdateRunCurrentState", runID, persistence.ErrRunNotFound)
	}

	run.CurrentState = currentState

	return nil
}

func (r *Repository) AppendExecutionLog(_ context.Context, entry *models.ExecutionLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runsByRunID[entry.RunID]; !ok {
		return persistence.NewRunError("AppendExecutionLog", entry.RunID, persistence.ErrRunNotFound)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return persistence.NewRunError("AppendExecutionLog", entry.RunID, err)
	}

	stored := *entry
	stored.ID = id.String()

	r.logsByRunID[entry.RunID] = append(r.logsByRunID[entry.RunID], &stored)

	return nil
}

func (r *Repository) ListExecutionLogByRun(_ context.Context, runID string) ([]*models.ExecutionLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.runsByRunID[runID]; !ok {
		return nil, persistence.NewRunError("ListExecutionLogByRun", runID, persistence.ErrRunNotFound)
	}

	return append([]*models.ExecutionLog(nil), r.logsByRunID[runID]...), nil
}

func (r *Repository) HealthCheck(context.Context) error { return nil }

func (r *Repository) Close(context.Context) error { return nil }

func sortGraphsByCreatedAtDesc(defs []*models.GraphDefinition) {
	for i := 1; i < len(defs); i++ {
		for j := i; j > 0 && defs[j].CreatedAt.After(defs[j-1].CreatedAt); j-- {
			defs[j], defs[j-1] = defs[j-1], defs[j]
		}
	}
}

func sortRunsByCreatedAtDesc(runs []*models.Run) {
	for i := 1; i < len(runs); i++ {
		for j := i; j > 0 && runs[j].CreatedAt.After(runs[j-1].CreatedAt); j-- {
			runs[j], runs[j-1] = runs[j-1], runs[j]
		}
	}
}

func paginate[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}

	if skip >= len(items) {
		return []T{}
	}

	items = items[skip:]

	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}

	return items
}
