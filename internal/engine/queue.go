package engine

import (
	"fmt"
	"strings"
	"sync"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

// EventKind distinguishes input events.
type EventKind string

const (
	// EventSet selects explicit values for a point param (slider, dropdown).
	EventSet EventKind = "set"
	// EventPointer moves the pointer to an x position; nearest params snap to it.
	EventPointer EventKind = "pointer"
	// EventZoom sets the domain of an interval param bound to scales.
	EventZoom EventKind = "zoom"
	// EventClear empties a param's selection.
	EventClear EventKind = "clear"
)

// Event is one user input applied to a chart.
type Event struct {
	Kind EventKind `json:"kind" yaml:"kind"`

	// Param names the target param. Pointer events may leave it empty to
	// target the chart's only pointer-driven param.
	Param string `json:"param,omitempty" yaml:"param,omitempty"`

	// Values is the selected tuple of a Set event, keyed by field.
	Values chartir.Row `json:"values,omitempty" yaml:"values,omitempty"`

	// X is the pointer position in data units (a number or a date string).
	X any `json:"x,omitempty" yaml:"x,omitempty"`

	// Domain is the [lo, hi] range of a Zoom event.
	Domain []any `json:"domain,omitempty" yaml:"domain,omitempty"`
}

// Set builds a Set event.
func Set(param string, values chartir.Row) Event {
	return Event{Kind: EventSet, Param: param, Values: values}
}

// Pointer builds a Pointer event for the chart's pointer-driven param.
func Pointer(x any) Event {
	return Event{Kind: EventPointer, X: x}
}

// Zoom builds a Zoom event.
func Zoom(param string, lo, hi any) Event {
	return Event{Kind: EventZoom, Param: param, Domain: []any{lo, hi}}
}

// Clear builds a Clear event.
func Clear(param string) Event {
	return Event{Kind: EventClear, Param: param}
}

// String renders the event for logs and traces.
func (e Event) String() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Param != "" {
		b.WriteString(" " + e.Param)
	}
	switch e.Kind {
	case EventSet:
		fmt.Fprintf(&b, " %v", map[string]any(e.Values))
	case EventPointer:
		fmt.Fprintf(&b, " x=%v", e.X)
	case EventZoom:
		fmt.Fprintf(&b, " %v", e.Domain)
	}
	return b.String()
}

// eventQueue is a thread-safe FIFO queue for events.
//
// Events may be enqueued from any goroutine while the session drains.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{events: make([]Event, 0, 16)}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)
	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	q.events[0] = Event{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Close signals that no more events will be enqueued.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}
