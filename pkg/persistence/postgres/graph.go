package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/nullstream/graphd/pkg/graph"
	"github.com/nullstream/graphd/pkg/models"
	"github.com/nullstream/graphd/pkg/persistence"
)

type graphDefinitionJSON struct {
	Nodes []graph.NodeSpec `json:"nodes"`
	Edges []graph.EdgeSpec `json:"edges"`
}

func (r *Repository) CreateGraph(ctx context.Context, def *models.GraphDefinition) (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", persistence.NewGraphError("CreateGraph", "", err)
	}

	definition, err := json.Marshal(graphDefinitionJSON{Nodes: def.Nodes, Edges: def.Edges})
	if err != nil {
		return "", persistence.NewGraphError("CreateGraph", "", fmt.Errorf("failed to marshal definition: %w", err))
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO graphs (id, name, description, definition, entry_point, version, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 1, true, $6, $6)
	`

	_, err = r.db.ExecContext(ctx, query, id.String(), def.Name, def.Description, definition, def.EntryPoint, now)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return "", persistence.NewGraphError("CreateGraph", "", persistence.ErrGraphNameTaken)
		}

		return "", persistence.NewGraphError("CreateGraph", "", fmt.Errorf("failed to insert graph: %w", err))
	}

	return id.String(), nil
}

func (r *Repository) GraphByID(ctx context.Context, id string) (*models.GraphDefinition, error) {
	return r.scanGraph(ctx, "WHERE id = $1", id)
}

func (r *Repository) GraphByName(ctx context.Context, name string) (*models.GraphDefinition, error) {
	return r.scanGraph(ctx, "WHERE name = $1 AND is_active", name)
}

func (r *Repository) scanGraph(ctx context.Context, where string, arg string) (*models.GraphDefinition, error) {
	query := `
		SELECT id, name, description, definition, entry_point, version, is_active, created_at, updated_at
		FROM graphs
	` + where

	row := r.db.QueryRowContext(ctx, query, arg)

	def, definition, err := scanGraphRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewGraphError("GraphByID", arg, persistence.ErrGraphNotFound)
		}

		return nil, persistence.NewGraphError("GraphByID", arg, err)
	}

	var payload graphDefinitionJSON
	if err := json.Unmarshal(definition, &payload); err != nil {
		return nil, persistence.NewGraphError("GraphByID", arg, fmt.Errorf("failed to unmarshal definition: %w", err))
	}

	def.Nodes = payload.Nodes
	def.Edges = payload.Edges

	return def, nil
}

func scanGraphRow(row *sql.Row) (*models.GraphDefinition, []byte, error) {
	var def models.GraphDefinition

	var definition []byte

	err := row.Scan(&def.ID, &def.Name, &def.Description, &definition, &def.EntryPoint, &def.Version, &def.IsActive, &def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}

	return &def, definition, nil
}

func (r *Repository) ListGraphs(ctx context.Context, skip, limit int, activeOnly bool) ([]*models.GraphDefinition, error) {
	query := `
		SELECT id, name, description, definition, entry_point, version, is_active, created_at, updated_at
		FROM graphs
	`

	if activeOnly {
		query += " WHERE is_active "
	}

	query += " ORDER BY created_at DESC OFFSET $1"

	args := []any{skip}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewGraphError("ListGraphs", "", fmt.Errorf("failed to query graphs: %w", err))
	}
	defer rows.Close()

	defs := make([]*models.GraphDefinition, 0)

	for rows.Next() {
		var def models.GraphDefinition

		var definition []byte

		err := rows.Scan(&def.ID, &def.Name, &def.Description, &definition, &def.EntryPoint, &def.Version, &def.IsActive, &def.CreatedAt, &def.UpdatedAt)
		if err != nil {
			return nil, persistence.NewGraphError("ListGraphs", "", fmt.Errorf("failed to scan graph: %w", err))
		}

		var payload graphDefinitionJSON
		if err := json.Unmarshal(definition, &payload); err != nil {
			return nil, persistence.NewGraphError("ListGraphs", def.ID, fmt.Errorf("failed to unmarshal definition: %w", err))
		}

		def.Nodes = payload.Nodes
		def.Edges = payload.Edges
		defs = append(defs, &def)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewGraphError("ListGraphs", "", fmt.Errorf("error iterating graphs: %w", err))
	}

	return defs, nil
}

func (r *Repository) SoftDeleteGraph(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE graphs SET is_active = false, updated_at = $2 WHERE id = $1", id, time.Now().UTC())
	if err != nil {
		return persistence.NewGraphError("SoftDeleteGraph", id, fmt.Errorf("failed to soft delete graph: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return persistence.NewGraphError("SoftDeleteGraph", id, err)
	}

	if affected == 0 {
		return persistence.NewGraphError("SoftDeleteGraph", id, persistence.ErrGraphNotFound)
	}

	return nil
}
