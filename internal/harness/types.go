package harness

import (
	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/engine"
)

// TraceEvent is one applied input event as recorded in a scenario trace.
type TraceEvent struct {
	Seq    int64          `json:"seq"`
	Kind   string         `json:"kind"`
	Param  string         `json:"param,omitempty"`
	Values map[string]any `json:"values,omitempty"`
	X      any            `json:"x,omitempty"`
	Domain []any          `json:"domain,omitempty"`

	// Error is the rejection message; empty when the event was applied.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step expectation and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains every event in application order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Views holds the initial view followed by the view after each step.
	Views []*engine.View `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Final returns the last view, or nil before anything ran.
func (r *Result) Final() *engine.View {
	if len(r.Views) == 0 {
		return nil
	}
	return r.Views[len(r.Views)-1]
}

// traceFromSteps converts engine steps to trace events.
func traceFromSteps(steps []engine.Step) []TraceEvent {
	trace := make([]TraceEvent, len(steps))
	for i, s := range steps {
		trace[i] = TraceEvent{
			Seq:    s.Seq,
			Kind:   string(s.Event.Kind),
			Param:  s.Event.Param,
			Values: rowMap(s.Event.Values),
			X:      s.Event.X,
			Domain: s.Event.Domain,
			Error:  s.Err,
		}
	}
	return trace
}

func rowMap(r chartir.Row) map[string]any {
	if r == nil {
		return nil
	}
	return map[string]any(r)
}
