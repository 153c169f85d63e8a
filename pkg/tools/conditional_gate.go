package tools

import (
	"fmt"
	"strconv"

	"github.com/nullstream/graphd/pkg/state"
	"github.com/nullstream/graphd/pkg/template"
)

// ConditionalGate renders Config["condition_expression"] and records its
// truthiness into Data["condition_result"], for a downstream edge to branch
// on via the data_equals predicate (e.g. "data_equals:condition_result:true").
func ConditionalGate(s state.WorkflowState) (state.WorkflowState, error) {
	expression, ok := s.Config["condition_expression"].(string)
	if !ok {
		return s, fmt.Errorf("conditional_gate: missing required config key \"condition_expression\"")
	}

	value, err := template.RenderWithState(expression, s)
	if err != nil {
		return s, fmt.Errorf("conditional_gate: %w", err)
	}

	return s.WithData("condition_result", isTruthy(value)), nil
}

func isTruthy(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}

		return v != ""
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	case nil:
		return false
	default:
		return false
	}
}
