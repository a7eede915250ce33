// Package engine evaluates interactive charts without a browser.
//
// A chart's interactive behavior is a pure function of three inputs: the
// chart IR, the bound datasets, and the current parameter state. Evaluate
// computes the rendered rows and encoded channel values of every layer from
// those inputs. Nothing is cached between evaluations.
//
// ARCHITECTURE:
//
// Single-Writer Event Loop:
// A Session owns one chart and its parameter state. Input events (slider
// moves, dropdown choices, pointer positions, zooms) are enqueued to a FIFO
// queue and applied one at a time by the session loop. Each applied event is
// stamped from a logical clock and recorded in the session trace.
//
// Event Processing Flow:
// 1. Events enqueued to FIFO queue (Set, Pointer, Zoom, Clear)
// 2. Session.Drain() dequeues events one at a time
// 3. The event is resolved against the chart (param lookup, nearest snap)
// 4. A new State replaces the old one; the old State is never mutated
// 5. The resulting View is recomputed from scratch
//
// Expression semantics follow the browser runtime: === compares without
// type coercion, == and != coerce between numbers and strings, and an empty
// selection matches every row unless the param is declared empty-none.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every applied event gets a monotonic seq from Clock.Next().
// Wall-clock time never affects ordering or results.
//
// Deterministic Evaluation:
// Layers are evaluated in declaration order, transforms in list order, and
// rows keep dataset order unless a channel declares a sort.
package engine
