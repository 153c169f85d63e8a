package models

import (
	"time"

	"github.com/nullstream/graphd/pkg/graph"
)

// GraphDefinition is the persisted, serialized form of a graph: the wire
// shape from §6's POST /graph/create body plus row metadata. It is
// rehydrated into an executable *graph.Graph via graph.Build.
type GraphDefinition struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"           validate:"required,min=1"`
	Description string           `json:"description"`
	Nodes       []graph.NodeSpec `json:"nodes"          validate:"required,min=1,dive"`
	Edges       []graph.EdgeSpec `json:"edges"          validate:"dive"`
	EntryPoint  string           `json:"entry_point"    validate:"required"`
	Version     int              `json:"version"`
	IsActive    bool             `json:"is_active"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}
