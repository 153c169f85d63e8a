package tools

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nullstream/graphd/pkg/state"
	"github.com/nullstream/graphd/pkg/template"
)

// Log renders Config["log_message"] and writes it through logrus at the
// level named by Config["log_level"] (default "info"). It never fails the
// run: a rendering error is logged and recorded as a warning instead.
func Log(s state.WorkflowState) (state.WorkflowState, error) {
	message, ok := s.Config["log_message"].(string)
	if !ok {
		return s, nil
	}

	rendered, err := template.RenderWithState(message, s)

	entry := logrus.WithFields(logrus.Fields{"run_id": s.RunID, "workflow_id": s.WorkflowID})

	if err != nil {
		entry.WithError(err).Warn("log: failed to render message")

		return s.AddWarning(fmt.Sprintf("log: failed to render message: %v", err)), nil
	}

	level, _ := s.Config["log_level"].(string)

	switch level {
	case "debug":
		entry.Debug(rendered)
	case "warn":
		entry.Warn(rendered)
	case "error":
		entry.Error(rendered)
	default:
		entry.Info(rendered)
	}

	return s.WithData("last_logged_message", rendered), nil
}
