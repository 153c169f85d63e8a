package tools

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nullstream/graphd/pkg/state"
)

// ScheduleGate reports whether now falls inside the next minute-resolution
// window of Config["schedule_cron"], writing the boolean to
// Data["in_schedule_window"] for a downstream edge to branch on.
func ScheduleGate(s state.WorkflowState) (state.WorkflowState, error) {
	expr, ok := s.Config["schedule_cron"].(string)
	if !ok || expr == "" {
		return s, fmt.Errorf("schedule_gate: missing required config key \"schedule_cron\"")
	}

	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return s, fmt.Errorf("schedule_gate: invalid cron expression %q: %w", expr, err)
	}

	now := time.Now().UTC()
	windowStart := now.Truncate(time.Minute)
	next := schedule.Next(windowStart.Add(-time.Second))

	return s.WithData("in_schedule_window", next.Equal(windowStart)), nil
}
