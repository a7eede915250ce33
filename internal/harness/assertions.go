package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Kind)
			if event.Param != "" {
				fmt.Fprintf(&buf, " %s", event.Param)
			}
			if event.Error != "" {
				fmt.Fprintf(&buf, " rejected: %s", event.Error)
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains an applied event of the
// given kind and param whose values include the expected ones.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Kind != assertion.Kind || event.Error != "" {
			continue
		}
		if assertion.Param != "" && event.Param != assertion.Param {
			continue
		}
		if matchSubset(event.Values, assertion.Values) {
			return nil
		}
	}

	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("%s %s with values %v", assertion.Kind, assertion.Param, assertion.Values),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if event kinds first appear in the specified order.
// Kinds don't need to be consecutive (intervening events are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if positions[event.Kind] == 0 {
			positions[event.Kind] = i + 1 // 1-indexed for readability
		}
	}

	for _, kind := range assertion.Kinds {
		if positions[kind] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all kinds present: %v", assertion.Kinds),
				Actual:   fmt.Sprintf("missing kind: %s", kind),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Kinds); i++ {
		prev := assertion.Kinds[i-1]
		curr := assertion.Kinds[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("kinds in order: %v", assertion.Kinds),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}

	return nil
}

// assertTraceCount checks if the kind appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Kind != assertion.Kind {
			continue
		}
		if assertion.Rejected != nil && *assertion.Rejected != (event.Error != "") {
			continue
		}
		count++
	}

	if count != assertion.Count {
		what := assertion.Kind
		if assertion.Rejected != nil {
			if *assertion.Rejected {
				what = "rejected " + what
			} else {
				what = "applied " + what
			}
		}
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, what),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the final selection of a param.
func assertFinalState(view *engine.View, assertion Assertion) error {
	sel := view.Params[assertion.Param]
	if assertion.Empty {
		if !sel.Empty() {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("param %s to be empty", assertion.Param),
				Actual:   describeSelection(sel),
			}
		}
		return nil
	}

	if len(sel.Tuples) == 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("param %s to select %v", assertion.Param, assertion.Expect),
			Actual:   describeSelection(sel),
		}
	}
	if !matchSubset(map[string]any(sel.Tuples[0]), assertion.Expect) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("param %s to select %v", assertion.Param, assertion.Expect),
			Actual:   describeSelection(sel),
		}
	}
	return nil
}

func describeSelection(sel engine.Selection) string {
	switch {
	case len(sel.Tuples) > 0:
		return fmt.Sprintf("tuples %v", sel.Tuples)
	case len(sel.Interval) > 0:
		return fmt.Sprintf("interval %v", sel.Interval)
	}
	return "empty selection"
}

// checkView validates one layer of view against expect.
func checkView(kind string, view *engine.View, expect ViewExpect) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: kind, Expected: expected, Actual: actual}
	}

	layer, ok := view.Layer(expect.Layer)
	if !ok {
		return fail(fmt.Sprintf("layer %s", expect.Layer), "layer not found")
	}

	var idx []int
	for i, row := range layer.Rows {
		if matchSubset(map[string]any(row), expect.Where) {
			idx = append(idx, i)
		}
	}
	where := formatWhere(expect.Where)

	if expect.Rows != nil && len(idx) != *expect.Rows {
		return fail(
			fmt.Sprintf("%d rows in %s where %s", *expect.Rows, expect.Layer, where),
			fmt.Sprintf("%d rows", len(idx)))
	}

	if len(expect.Fields) > 0 || len(expect.Channels) > 0 {
		if len(idx) == 0 {
			return fail(fmt.Sprintf("rows in %s where %s", expect.Layer, where), "no rows matched")
		}
	}

	for _, i := range idx {
		row := layer.Rows[i]
		if !matchSubset(map[string]any(row), expect.Fields) {
			return fail(
				fmt.Sprintf("%s row %d fields %v", expect.Layer, i, expect.Fields),
				fmt.Sprintf("%v", row))
		}
		if i < len(layer.Marks) && !matchSubset(layer.Marks[i], expect.Channels) {
			return fail(
				fmt.Sprintf("%s mark %d channels %v", expect.Layer, i, expect.Channels),
				fmt.Sprintf("%v", layer.Marks[i]))
		}
	}

	for _, field := range sortedKeys(expect.Columns) {
		want := expect.Columns[field]
		got := make([]any, len(idx))
		for j, i := range idx {
			got[j] = layer.Rows[i][field]
		}
		if !valuesEqual(got, want) {
			return fail(
				fmt.Sprintf("%s column %s = %v", expect.Layer, field, want),
				fmt.Sprintf("%v", got))
		}
	}

	if expect.XDomain != nil && !valuesEqual(layer.XDomain, expect.XDomain) {
		return fail(
			fmt.Sprintf("%s x domain %v", expect.Layer, expect.XDomain),
			fmt.Sprintf("%v", layer.XDomain))
	}

	return nil
}

// formatWhere creates a human-readable description of row conditions.
func formatWhere(where map[string]any) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// matchSubset checks if actual contains all expected keys with equal values.
// Extra keys in actual are ignored.
func matchSubset(actual, expected map[string]any) bool {
	for key, expectedVal := range expected {
		actualVal, exists := actual[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values after normalizing numbers to float64,
// so YAML integers match evaluated floats.
func valuesEqual(actual, expected any) bool {
	return reflect.DeepEqual(normalize(actual), normalize(expected))
}

func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	case chartir.Row:
		return normalize(map[string]any(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalize(e)
		}
		return out
	}
	return v
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalView, AssertFinalState:
			final := result.Final()
			switch {
			case final == nil:
				err = fmt.Errorf("assertions[%d]: %s requires a view", i, assertion.Type)
			case assertion.Type == AssertFinalView:
				err = checkView(AssertFinalView, final, assertion.ViewExpect)
			default:
				err = assertFinalState(final, assertion)
			}
		default:
			err = fmt.Errorf("assertions[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
