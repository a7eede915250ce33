package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/logger"
	"github.com/jiaxingx0718/ledstory/internal/metrics"
)

// SeqSource stamps applied events with logical time.
// Implemented by Clock (production) and testutil.DeterministicClock (tests).
type SeqSource interface {
	Next() int64
	Current() int64
}

// Step records one processed event.
type Step struct {
	Seq   int64  `json:"seq" yaml:"seq"`
	Event Event  `json:"event" yaml:"event"`
	Err   string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Session is the single-writer event loop of one interactive chart.
//
// Events are applied in FIFO order. Each applied event replaces the state
// with a new immutable State; a failed event leaves the state unchanged.
//
// Thread-safety model:
//   - Enqueue(), View(), State(), Trace(): safe from any goroutine
//   - Drain(), Apply(): must not run concurrently with each other
type Session struct {
	chart *chartir.Chart
	idx   *chartIndex
	clock SeqSource
	queue *eventQueue
	quota *QuotaEnforcer
	log   *logger.Logger
	mtr   *metrics.Manager

	mu    sync.RWMutex
	data  map[string][]chartir.Row
	state *State
	trace []Step
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithClock replaces the session's logical clock.
func WithClock(c SeqSource) SessionOption {
	return func(s *Session) { s.clock = c }
}

// WithMaxEvents sets the event budget of the session.
//
// Default: DefaultMaxEvents. Use WithMaxEvents(3) when testing the budget.
func WithMaxEvents(n int) SessionOption {
	return func(s *Session) { s.quota = NewQuotaEnforcer(n) }
}

// WithLogger sets the session logger.
func WithLogger(l *logger.Logger) SessionOption {
	return func(s *Session) { s.log = l }
}

// WithMetrics counts applied events on m.
func WithMetrics(m *metrics.Manager) SessionOption {
	return func(s *Session) { s.mtr = m }
}

// WithData binds rows to a dataset before the first event.
func WithData(name string, rows []chartir.Row) SessionOption {
	return func(s *Session) { s.data[name] = rows }
}

// NewSession validates c and returns a session in the chart's initial state.
func NewSession(c *chartir.Chart, opts ...SessionOption) (*Session, error) {
	if errs := chartir.Validate(c); len(errs) > 0 {
		return nil, &RuntimeError{Code: ErrCodeInvalidChart, Message: errs[0].Error()}
	}
	s := &Session{
		chart: c,
		idx:   indexChart(c),
		clock: NewClock(),
		queue: newEventQueue(),
		quota: NewQuotaEnforcer(DefaultMaxEvents),
		log:   logger.Nop(),
		data:  make(map[string][]chartir.Row),
		state: InitialState(c),
	}
	for _, opt := range opts {
		opt(s)
	}
	for name := range s.data {
		if _, ok := c.Datasets[name]; !ok {
			return nil, &RuntimeError{Code: ErrCodeMissingData, Message: fmt.Sprintf("dataset %q is not declared", name)}
		}
	}
	return s, nil
}

// Bind attaches rows to a declared dataset, replacing any inline rows.
func (s *Session) Bind(name string, rows []chartir.Row) error {
	if _, ok := s.chart.Datasets[name]; !ok {
		return &RuntimeError{Code: ErrCodeMissingData, Message: fmt.Sprintf("dataset %q is not declared", name)}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[name] = rows
	return nil
}

// Enqueue submits an event. Returns ErrSessionClosed after Close.
func (s *Session) Enqueue(ev Event) error {
	if !s.queue.Enqueue(ev) {
		return ErrSessionClosed
	}
	return nil
}

// Drain processes every queued event and returns. The returned error joins
// the errors of rejected events.
func (s *Session) Drain(ctx context.Context) error {
	var errs []error
	for {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		ev, ok := s.queue.TryDequeue()
		if !ok {
			return errors.Join(errs...)
		}
		if err := s.process(ev); err != nil {
			errs = append(errs, err)
		}
	}
}

// Apply enqueues ev, drains the queue and returns the resulting view.
func (s *Session) Apply(ctx context.Context, ev Event) (*View, error) {
	if err := s.Enqueue(ev); err != nil {
		return nil, err
	}
	if err := s.Drain(ctx); err != nil {
		return nil, err
	}
	return s.View()
}

// process applies one event. Called only from Drain.
func (s *Session) process(ev Event) error {
	seq := s.clock.Next()

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.quota.Check()
	var next *State
	if err == nil {
		next, err = apply(s.idx, s.data, s.state, ev)
	}

	step := Step{Seq: seq, Event: ev}
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) && re.Seq == 0 {
			re.Seq = seq
		}
		step.Err = err.Error()
		s.trace = append(s.trace, step)
		return err
	}

	s.state = next
	s.trace = append(s.trace, step)
	s.mtr.EventApplied(string(ev.Kind))
	s.log.Debug().Int64("seq", seq).Str("event", ev.String()).Msg("event applied")
	return nil
}

// View evaluates the chart under the current state.
func (s *Session) View() (*View, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, err := Evaluate(s.chart, s.data, s.state)
	if err != nil {
		return nil, err
	}
	v.Seq = s.clock.Current()
	return v, nil
}

// State returns the current state.
func (s *Session) State() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Trace returns a copy of the processed steps in order.
func (s *Session) Trace() []Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Step, len(s.trace))
	copy(out, s.trace)
	return out
}

// Chart returns the session's chart.
func (s *Session) Chart() *chartir.Chart {
	return s.chart
}

// Close stops accepting events. Events already queued can still be drained.
func (s *Session) Close() {
	s.queue.Close()
}
