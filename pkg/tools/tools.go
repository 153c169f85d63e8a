// Package tools provides the built-in example tool set: log, transform,
// http_request, conditional_gate, loop_guard, and schedule_gate. Every tool
// reads its parameters from a state's Config map rather than from
// node-specific configuration, since a graph.NodeSpec only binds a node
// name to a tool name (§9): the same registered tool can back many nodes,
// each driven by whatever Config a run was started with.
package tools

import "github.com/nullstream/graphd/pkg/graph"

// RegisterAll registers every built-in tool into registry. It fails fast on
// the first registration conflict, which happens if a caller has already
// registered one of these names.
func RegisterAll(registry *graph.ToolRegistry) error {
	tools := []struct {
		name     string
		tool     graph.Tool
		metadata graph.ToolMetadata
	}{
		{"log", Log, graph.ToolMetadata{Description: "logs a rendered message at a configured level"}},
		{"transform", Transform, graph.ToolMetadata{Description: "renders a template expression into data"}},
		{"http_request", HTTPRequest, graph.ToolMetadata{Description: "performs an HTTP request and records the response", Async: true}},
		{"conditional_gate", ConditionalGate, graph.ToolMetadata{Description: "evaluates a boolean expression into data for a downstream predicate"}},
		{"loop_guard", LoopGuard, graph.ToolMetadata{Description: "increments a named counter, for use with a data_less_than edge predicate"}},
		{"schedule_gate", ScheduleGate, graph.ToolMetadata{Description: "reports whether the current time falls inside a cron schedule's next window"}},
	}

	for _, t := range tools {
		if err := registry.Register(t.name, t.tool, t.metadata); err != nil {
			return err
		}
	}

	return nil
}
