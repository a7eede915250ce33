// Package compose builds the story's interactive charts as chart IR.
//
// Each builder takes in-memory tables and returns a validated
// *chartir.Chart. Builders never touch the filesystem or the network; the
// world map is referenced by URL and fetched by the browser.
//
// Charts:
//   - HistoryMap: countries highlighted by a decade slider
//   - EventPointMap: milestones plotted at their coordinates
//   - EnergyBars: bulb types compared on a selectable metric
//   - MarketSeries: monthly closing prices with region filter and hover readout
package compose
