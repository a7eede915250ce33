// Package testutil holds fixtures shared by package tests: a logical clock
// and spreadsheet builders.
package testutil

import "sync"

// DeterministicClock is a stand-in for engine.Clock.
// Sessions stamped by a fresh clock number their steps 1, 2, 3... on every
// run, so interaction traces stay byte-identical across runs.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock returns a clock whose first Next is 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next advances the clock and returns the new value.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last value handed out, 0 before the first Next.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}
