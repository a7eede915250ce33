package engine

import (
	"context"
	"errors"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

// Result is the outcome of replaying an event script.
type Result struct {
	// Views[0] is the initial view and Views[i] the view after step i.
	// A rejected step repeats the previous view.
	Views []*View `json:"views" yaml:"views"`
	Trace []Step  `json:"trace" yaml:"trace"`
}

// Final returns the last view, or nil when nothing was replayed.
func (r *Result) Final() *View {
	if len(r.Views) == 0 {
		return nil
	}
	return r.Views[len(r.Views)-1]
}

// Replay applies events to a fresh session over c and records the view
// after each one. Replaying the same chart, data and events always yields
// the same result.
//
// Rejected events do not stop the replay; their errors are joined into the
// returned error alongside the complete result. Evaluation failures stop it.
func Replay(ctx context.Context, c *chartir.Chart, data map[string][]chartir.Row, events []Event, opts ...SessionOption) (*Result, error) {
	for name, rows := range data {
		opts = append(opts, WithData(name, rows))
	}
	s, err := NewSession(c, opts...)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	res := &Result{}
	initial, err := s.View()
	if err != nil {
		return nil, err
	}
	res.Views = append(res.Views, initial)

	var rejected []error
	for _, ev := range events {
		if err := s.Enqueue(ev); err != nil {
			return nil, err
		}
		if err := s.Drain(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			rejected = append(rejected, err)
		}
		v, err := s.View()
		if err != nil {
			return nil, err
		}
		res.Views = append(res.Views, v)
	}
	res.Trace = s.Trace()
	return res, errors.Join(rejected...)
}
