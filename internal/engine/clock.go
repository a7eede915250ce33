package engine

import "sync/atomic"

// Clock numbers the events a session applies. The first applied event gets
// seq 1, so a view taken before any event reports seq 0. Rejected events
// consume a seq too, which keeps trace positions stable across replays.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock at 0.
func NewClock() *Clock {
	return &Clock{}
}

// ResumeClock returns a clock that continues numbering after the last step
// of trace.
func ResumeClock(trace []Step) *Clock {
	c := &Clock{}
	if n := len(trace); n > 0 {
		c.seq.Store(trace[n-1].Seq)
	}
	return c
}

// Next advances the clock and returns the new seq.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last seq handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
