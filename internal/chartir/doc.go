// Package chartir provides the chart specification intermediate
// representation (IR) for ledstory's interactive charts.
//
// Chart IR is the abstraction boundary between the composer, which decides
// what a chart shows, and the two consumers of a chart:
//
//	[compose] → [chart IR] → [vegalite compiler] → embeddable document
//	                       → [engine evaluator]  → computed views
//
// Both consumers interpret the same IR, so the interaction contract that is
// serialized for the browser is the same one the Go tests exercise.
//
// MODEL:
//
// A Chart is a set of named datasets plus one or more layers drawn over a
// shared coordinate system. Each layer names its dataset, a mark, an
// encoding, the selection params it declares, and an ordered transform
// pipeline.
//
// A Param is a named, externally bound interactive value: a point selection
// bound to a slider or dropdown, a point selection updated on pointer
// movement, or an interval bound to the x scale for pan and zoom.
//
// SEALED INTERFACES:
//
// Transform, Expr and Binding are sealed with marker methods. Only types in
// this package implement them, so the compiler and evaluator can switch over
// them exhaustively:
//
//	switch t := transform.(type) {
//	case Filter:
//	case Lookup:
//	case Calculate:
//	}
//
// INVARIANTS (checked by Validate):
//   - Param names are unique across all layers of a chart
//   - Filters, conditions and expressions reference only declared params
//   - Lookups and layers reference datasets present in the chart
package chartir
