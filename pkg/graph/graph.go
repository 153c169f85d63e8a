// Package graph implements the graph model and validator: nodes, edges,
// the tool/predicate registries that rehydrate a serialized graph into
// something executable, and the structural invariants that prove a graph
// is safe to run.
package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// GraphValidationError names the first structural offense found by
// Validate. Graphs are otherwise never partially validated.
type GraphValidationError struct {
	Reason string
}

func (e *GraphValidationError) Error() string {
	return "graph validation failed: " + e.Reason
}

// IsGraphValidationError reports whether err is a *GraphValidationError.
func IsGraphValidationError(err error) bool {
	return errors.As(err, new(*GraphValidationError))
}

// NodeSpec is the wire-format binding of a node name to a registered tool
// name, as it appears inside a serialized graph definition (§6).
type NodeSpec struct {
	Name string `json:"name"`
	Tool string `json:"tool"`
}

// EdgeSpec is the wire-format binding of an edge, carrying a named
// predicate instead of a callable so that graph definitions can travel
// through persistence (§9).
type EdgeSpec struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Condition string `json:"condition"`
}

// Graph is a node+edge collection with an entry point. It enforces the
// structural invariants in §4.4 via Validate and is built fresh for every
// run from a persisted definition.
type Graph struct {
	Name        string
	Description string
	Nodes       map[string]Node
	Edges       *EdgeManager
	EntryPoint  string
}

// New returns an empty, unvalidated graph shell. Use Build to construct a
// fully wired Graph from a serialized definition, or AddNode/AddEdge for
// programmatic construction (e.g. in tests).
func New(name, description string) *Graph {
	return &Graph{
		Name:        name,
		Description: description,
		Nodes:       make(map[string]Node),
		Edges:       NewEdgeManager(),
	}
}

// AddNode registers a node under name. Names are unique within a graph.
func (g *Graph) AddNode(name string, node Node) error {
	if _, exists := g.Nodes[name]; exists {
		return fmt.Errorf("node %q already exists in graph %q", name, g.Name)
	}

	g.Nodes[name] = node

	return nil
}

// AddEdge adds a directed transition from from to to, gated by predicate
// (nil for unconditional). Edges are not required to reference existing
// nodes at add-time; Validate checks that.
func (g *Graph) AddEdge(from, to, condition string, predicate Predicate) {
	g.Edges.Add(Edge{From: from, To: to, Condition: condition, Predicate: predicate})
}

// SetEntryPoint designates the node where execution begins.
func (g *Graph) SetEntryPoint(name string) {
	g.EntryPoint = name
}

// Build resolves a serialized graph definition into an executable Graph,
// rehydrating tool names through tools and predicate names through
// predicates (§4.1, §9). It does not call Validate; callers invoke that
// separately so a build failure (unknown tool) and a structural failure
// are reported distinctly, matching the HTTP surface in §6 (unknown tool
// -> 400 referencing the tool, validation error -> 400 from Validate).
func Build(
	name, description string,
	nodes []NodeSpec,
	edges []EdgeSpec,
	entryPoint string,
	tools *ToolRegistry,
	predicates *PredicateRegistry,
) (*Graph, error) {
	g := New(name, description)
	g.SetEntryPoint(entryPoint)

	for _, spec := range nodes {
		tool, metadata, err := tools.Lookup(spec.Tool)
		if err != nil {
			return nil, err
		}

		node := Node{
			Name:     spec.Name,
			ToolName: spec.Tool,
			Tool:     tool,
			Metadata: NodeMetadata{Description: metadata.Description},
		}

		if err := g.AddNode(spec.Name, node); err != nil {
			return nil, err
		}
	}

	for _, spec := range edges {
		predicate, hasCondition, err := predicates.Resolve(spec.Condition)
		if err != nil {
			return nil, err
		}

		if !hasCondition {
			predicate = nil
		}

		g.AddEdge(spec.From, spec.To, spec.Condition, predicate)
	}

	return g, nil
}

// Validate enforces the structural invariants of §4.4, in order, failing
// with the first offense found:
//
//  1. entry_point is set and names a known node.
//  2. every edge endpoint names a known node.
//  3. no node has an unconditional self-loop.
//  4. every node is reachable from entry_point.
func (g *Graph) Validate() error {
	if g.EntryPoint == "" {
		return &GraphValidationError{Reason: "entry point not set"}
	}

	if _, ok := g.Nodes[g.EntryPoint]; !ok {
		return &GraphValidationError{Reason: fmt.Sprintf("entry point %q is not a known node", g.EntryPoint)}
	}

	for _, edge := range g.Edges.All() {
		if _, ok := g.Nodes[edge.From]; !ok {
			return &GraphValidationError{Reason: fmt.Sprintf("edge references unknown source node %q", edge.From)}
		}

		if _, ok := g.Nodes[edge.To]; !ok {
			return &GraphValidationError{Reason: fmt.Sprintf("edge references unknown destination node %q", edge.To)}
		}

		if edge.Predicate == nil && edge.From == edge.To {
			return &GraphValidationError{Reason: fmt.Sprintf("node %q has an unconditional self-loop", edge.From)}
		}
	}

	reachable := g.reachableFromEntry()
	for name := range g.Nodes {
		if !reachable[name] {
			return &GraphValidationError{Reason: fmt.Sprintf("node %q is not reachable from entry point %q", name, g.EntryPoint)}
		}
	}

	return nil
}

func (g *Graph) reachableFromEntry() map[string]bool {
	reachable := make(map[string]bool)

	if g.EntryPoint == "" {
		return reachable
	}

	stack := []string{g.EntryPoint}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if reachable[current] {
			continue
		}

		reachable[current] = true

		for _, edge := range g.Edges.Outgoing(current) {
			if !reachable[edge.To] {
				stack = append(stack, edge.To)
			}
		}
	}

	return reachable
}

// FindCycles is an advisory API for visualization/UX only (§4.4); it is
// never consulted by Validate, since cycles are allowed.
func (g *Graph) FindCycles() [][]string {
	var cycles [][]string

	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		onStack[node] = true
		path = append(path, node)

		for _, edge := range g.Edges.Outgoing(node) {
			next := edge.To

			if !visited[next] {
				dfs(next, append([]string{}, path...))
			} else if onStack[next] {
				start := indexOf(path, next)
				cycle := append(append([]string{}, path[start:]...), next)
				cycles = append(cycles, cycle)
			}
		}

		onStack[node] = false
	}

	names := g.sortedNodeNames()
	for _, name := range names {
		if !visited[name] {
			dfs(name, nil)
		}
	}

	return cycles
}

func indexOf(path []string, name string) int {
	for i, n := range path {
		if n == name {
			return i
		}
	}

	return 0
}

// EndNodes returns the names of every node with no outgoing edges.
func (g *Graph) EndNodes() []string {
	var ends []string

	for _, name := range g.sortedNodeNames() {
		if !g.Edges.HasOutgoing(name) {
			ends = append(ends, name)
		}
	}

	return ends
}

// Stats summarizes a graph's shape; the coordinator uses its NodeCount to
// size progress updates.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	EntryPoint string
	EndNodes   []string
	HasCycles  bool
	CycleCount int
}

func (g *Graph) Stats() Stats {
	cycles := g.FindCycles()

	return Stats{
		NodeCount:  len(g.Nodes),
		EdgeCount:  len(g.Edges.All()),
		EntryPoint: g.EntryPoint,
		EndNodes:   g.EndNodes(),
		HasCycles:  len(cycles) > 0,
		CycleCount: len(cycles),
	}
}

// VisualizeText renders a simple, human-readable summary of the graph's
// structure, useful for debugging and the visualization Non-goal's closest
// in-core analogue.
func (g *Graph) VisualizeText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Graph: %s\n", g.Name)
	fmt.Fprintf(&b, "Entry point: %s\n", g.EntryPoint)
	fmt.Fprintf(&b, "Nodes: %d\n\n", len(g.Nodes))

	for _, name := range g.sortedNodeNames() {
		marker := " "
		if name == g.EntryPoint {
			marker = "*"
		}

		fmt.Fprintf(&b, "  %s %s (%s)\n", marker, name, g.Nodes[name].ToolName)
	}

	b.WriteString("\nEdges:\n")

	for _, edge := range g.Edges.All() {
		if edge.Condition != "" {
			fmt.Fprintf(&b, "  %s -> %s [%s]\n", edge.From, edge.To, edge.Condition)
		} else {
			fmt.Fprintf(&b, "  %s -> %s\n", edge.From, edge.To)
		}
	}

	return b.String()
}

func (g *Graph) sortedNodeNames() []string {
	names := make([]string, 0, len(g.Nodes))
	for name := range g.Nodes {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
