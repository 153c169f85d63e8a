// Package template renders Go templates against a run's state, used by the
// example tool set to turn a static config expression into a runtime value.
package template

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/nullstream/graphd/pkg/state"
)

// Render parses templateStr as a Go template and executes it against data,
// then tries to coerce the rendered text back into JSON, a number, or a
// boolean before falling back to a plain string.
func Render(templateStr string, data any) (any, error) {
	tmpl, err := template.New("tool").Funcs(template.FuncMap{
		"now": func() string { return time.Now().UTC().Format(time.RFC3339) },
		"rand": func(max int) int {
			if max <= 0 {
				return 0
			}

			num := make([]byte, 1)
			if _, err := rand.Read(num); err != nil {
				return 0
			}

			return int(num[0]) % max
		},
	}).Parse(templateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", templateStr, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template %q: %w", templateStr, err)
	}

	result := strings.TrimSpace(buf.String())

	if (strings.HasPrefix(result, "{") && strings.HasSuffix(result, "}")) ||
		(strings.HasPrefix(result, "[") && strings.HasSuffix(result, "]")) {
		var jsonResult any
		if err := json.Unmarshal([]byte(result), &jsonResult); err == nil {
			return jsonResult, nil
		}
	}

	if num, err := strconv.ParseFloat(result, 64); err == nil {
		return num, nil
	}

	if b, err := strconv.ParseBool(result); err == nil {
		return b, nil
	}

	return result, nil
}

// RenderWithState renders templateStr with a run's Data/Config/identifiers
// exposed as top-level template fields (.data, .config, .run_id,
// .workflow_id, .iteration).
func RenderWithState(templateStr string, s state.WorkflowState) (any, error) {
	return Render(templateStr, map[string]any{
		"data":        s.Data,
		"config":      s.Config,
		"run_id":      s.RunID,
		"workflow_id": s.WorkflowID,
		"iteration":   s.Iteration,
	})
}
