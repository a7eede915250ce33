// Package harness runs interaction scenarios against composed charts.
//
// A scenario names a chart, supplies its input tables, and lists input
// events with expectations on the views they produce. The harness composes
// the chart, replays the events through an engine session, and checks the
// outcome.
//
// # Scenario Format
//
//	name: usa_led_1960
//	description: "1962 LED milestone is highlighted in the 1960s"
//	chart: history_map
//	fixtures:
//	  events:
//	    - {year: 1962, code: "840", type: led, people: "Nick Holonyak"}
//	flow:
//	  - set: {param: Year, values: {year: 1960}}
//	    expect:
//	      views:
//	        - layer: countries
//	          where: {id: "840"}
//	          fields: {highlight: true}
//	  - set: {param: Year, values: {year: 1965}}
//	    expect: {error: INVALID_VALUE}
//	assertions:
//	  - type: trace_count
//	    kind: set
//	    count: 2
//	  - type: final_state
//	    param: Year
//	    expect: {year: 1960}
//
// Steps are one of set, pointer, zoom or clear. A step without an expect
// clause must be applied; a step expecting an error must be rejected with
// that code.
//
// # Assertion Types
//
//   - trace_contains: an applied event of a kind (and param, values) appears
//   - trace_order: event kinds first appear in the given order
//   - trace_count: a kind appears exactly N times, optionally only rejected or applied ones
//   - final_view: the last view's layer satisfies row and channel checks
//   - final_state: the last selection of a param
//
// # Deterministic Testing
//
// Every run uses a fresh session stamped by testutil.DeterministicClock, so
// the same scenario always yields a byte-identical snapshot for golden
// comparison.
package harness
