package tools

import "github.com/nullstream/graphd/pkg/state"

// LoopGuard increments a named counter in Data every time it runs.
// Config["loop_guard_key"] names the counter (default "loop_count"); pair
// it with a data_less_than edge predicate on the same key to bound an
// in-graph loop independently of the engine's global max-iterations guard
// (§9).
func LoopGuard(s state.WorkflowState) (state.WorkflowState, error) {
	key, ok := s.Config["loop_guard_key"].(string)
	if !ok || key == "" {
		key = "loop_count"
	}

	current, _ := s.GetData(key)

	count, _ := current.(float64)

	return s.WithData(key, count+1), nil
}
