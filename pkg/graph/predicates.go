package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nullstream/graphd/pkg/state"
)

// builtinPredicates returns the zero-argument predicates seeded into every
// new PredicateRegistry.
func builtinPredicates() map[string]Predicate {
	return map[string]Predicate{
		"always": func(state.WorkflowState) (bool, error) {
			return true, nil
		},
		"has_no_errors": func(s state.WorkflowState) (bool, error) {
			return !s.HasErrors(), nil
		},
		"has_errors": func(s state.WorkflowState) (bool, error) {
			return s.HasErrors(), nil
		},
	}
}

// Resolve turns a wire-format condition string into a callable Predicate.
// An empty condition means unconditional and is reported via ok=false so
// callers can treat the edge as unconditional. A condition first tries an
// exact match against a registered predicate name (covering "always",
// "has_no_errors", "has_errors", and any custom predicate registered via
// Register); failing that, it is parsed as "kind:arg1:arg2" for the
// parameterized built-ins has_data_key, data_equals, data_greater_than,
// and data_less_than.
func (r *PredicateRegistry) Resolve(condition string) (Predicate, bool, error) {
	if condition == "" {
		return nil, false, nil
	}

	if predicate, err := r.Lookup(condition); err == nil {
		return predicate, true, nil
	}

	parts := strings.SplitN(condition, ":", 3)

	kind := parts[0]

	switch kind {
	case "has_data_key":
		if len(parts) < 2 {
			return nil, false, fmt.Errorf("condition %q: has_data_key requires a key argument", condition)
		}

		key := parts[1]

		return func(s state.WorkflowState) (bool, error) {
			_, ok := s.GetData(key)

			return ok, nil
		}, true, nil

	case "data_equals":
		if len(parts) < 3 {
			return nil, false, fmt.Errorf("condition %q: data_equals requires key and value arguments", condition)
		}

		key, want := parts[1], parts[2]

		return func(s state.WorkflowState) (bool, error) {
			got, ok := s.GetData(key)
			if !ok {
				return false, nil
			}

			return fmt.Sprintf("%v", got) == want, nil
		}, true, nil

	case "data_greater_than":
		predicate, err := numericComparison(condition, parts, func(got, threshold float64) bool { return got > threshold })

		return predicate, true, err

	case "data_less_than":
		predicate, err := numericComparison(condition, parts, func(got, threshold float64) bool { return got < threshold })

		return predicate, true, err

	default:
		return nil, false, fmt.Errorf("condition %q: unknown predicate", condition)
	}
}

func numericComparison(condition string, parts []string, cmp func(got, threshold float64) bool) (Predicate, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("condition %q: comparison requires key and threshold arguments", condition)
	}

	key := parts[1]

	threshold, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return nil, fmt.Errorf("condition %q: threshold %q is not numeric: %w", condition, parts[2], err)
	}

	return func(s state.WorkflowState) (bool, error) {
		raw, ok := s.GetData(key)
		if !ok {
			return false, nil
		}

		got, ok := toFloat(raw)
		if !ok {
			return false, nil
		}

		return cmp(got, threshold), nil
	}, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
