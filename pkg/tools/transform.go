package tools

import (
	"fmt"

	"github.com/nullstream/graphd/pkg/state"
	"github.com/nullstream/graphd/pkg/template"
)

// Transform renders Config["transform_expression"] and writes the result
// into Data under Config["transform_output_key"] (default "result").
func Transform(s state.WorkflowState) (state.WorkflowState, error) {
	expression, ok := s.Config["transform_expression"].(string)
	if !ok {
		return s, fmt.Errorf("transform: missing required config key \"transform_expression\"")
	}

	result, err := template.RenderWithState(expression, s)
	if err != nil {
		return s, fmt.Errorf("transform: %w", err)
	}

	outputKey, ok := s.Config["transform_output_key"].(string)
	if !ok || outputKey == "" {
		outputKey = "result"
	}

	return s.WithData(outputKey, result), nil
}
