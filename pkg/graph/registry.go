package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/nullstream/graphd/pkg/state"
)

// Tool is a user-supplied function from state to state. It is invoked by a
// Node during execution.
type Tool func(s state.WorkflowState) (state.WorkflowState, error)

// Predicate decides whether an edge should be followed, given the current
// state.
type Predicate func(s state.WorkflowState) (bool, error)

// ToolMetadata describes a registered tool.
type ToolMetadata struct {
	Description string
	Async       bool
}

// ToolAlreadyRegisteredError is returned when a tool name is registered
// twice with a different callable.
type ToolAlreadyRegisteredError struct {
	Name string
}

func (e *ToolAlreadyRegisteredError) Error() string {
	return fmt.Sprintf("tool already registered: %s", e.Name)
}

// ToolNotFoundError is returned by Lookup when a name has no registration.
type ToolNotFoundError struct {
	Name string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool not found: %s", e.Name)
}

// IsToolNotFound reports whether err is a ToolNotFoundError.
func IsToolNotFound(err error) bool {
	return errors.As(err, new(*ToolNotFoundError))
}

// IsToolAlreadyRegistered reports whether err is a ToolAlreadyRegisteredError.
func IsToolAlreadyRegistered(err error) bool {
	return errors.As(err, new(*ToolAlreadyRegisteredError))
}

type toolEntry struct {
	tool     Tool
	metadata ToolMetadata
}

// ToolRegistry maps a tool name to its callable and metadata. It is the
// only mechanism by which a serialized graph, which stores tool names,
// rehydrates into an executable Graph. Registration happens at startup;
// lookups happen concurrently during graph builds, so registration is
// registration takes the write lock of an RWMutex while lookups share its
// read lock.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]toolEntry
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]toolEntry)}
}

// Register adds name → tool to the registry. Each name can be registered
// once: a second registration under the same name fails with
// ToolAlreadyRegisteredError, whether or not the tool is the same one.
func (r *ToolRegistry) Register(name string, tool Tool, metadata ToolMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[name]; exists {
		return &ToolAlreadyRegisteredError{Name: name}
	}

	r.tools[name] = toolEntry{tool: tool, metadata: metadata}

	return nil
}

// Lookup resolves name to its tool. It fails with ToolNotFoundError if
// name has no registration.
func (r *ToolRegistry) Lookup(name string) (Tool, ToolMetadata, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, exists := r.tools[name]
	if !exists {
		return nil, ToolMetadata{}, &ToolNotFoundError{Name: name}
	}

	return entry.tool, entry.metadata, nil
}

// Names returns every registered tool name.
func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}

	return names
}

// PredicateRegistry is the companion registry resolving named edge
// conditions to Predicate callables at graph-build time.
type PredicateRegistry struct {
	mu         sync.RWMutex
	predicates map[string]Predicate
}

// NewPredicateRegistry returns a registry seeded with the built-in
// predicates always, has_no_errors and has_errors. The parameterized
// has_data_key, data_equals, data_greater_than and data_less_than are not
// registered here; Resolve parses them from the condition string.
func NewPredicateRegistry() *PredicateRegistry {
	r := &PredicateRegistry{predicates: make(map[string]Predicate)}

	for name, predicate := range builtinPredicates() {
		// Built-ins never collide with themselves; ignore the error.
		_ = r.Register(name, predicate)
	}

	return r
}

// Register adds name → predicate to the registry.
func (r *PredicateRegistry) Register(name string, predicate Predicate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.predicates[name]; exists {
		return &ToolAlreadyRegisteredError{Name: name}
	}

	r.predicates[name] = predicate

	return nil
}

// Lookup resolves name to its predicate.
func (r *PredicateRegistry) Lookup(name string) (Predicate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	predicate, exists := r.predicates[name]
	if !exists {
		return nil, &ToolNotFoundError{Name: name}
	}

	return predicate, nil
}
