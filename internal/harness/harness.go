package harness

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jiaxingx0718/ledstory/internal/compose"
	"github.com/jiaxingx0718/ledstory/internal/dataset"
	"github.com/jiaxingx0718/ledstory/internal/engine"
	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/logger"
	"github.com/jiaxingx0718/ledstory/internal/testutil"
)

// Input file names looked up under a scenario's data_dir.
const (
	HistoryFile = "history.xlsx"
	EnergyFile  = "energy.xlsx"
)

// Run executes a test scenario and returns the result.
//
// Each scenario builds its chart from scratch and replays its flow through a
// fresh session with a deterministic clock, so identical scenarios produce
// identical traces.
//
// Execution flow:
// 1. Load fixture tables (data_dir, then inline fixtures)
// 2. Compose the chart
// 3. Replay the flow, recording the view after every step
// 4. Check step expectations and assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	in, err := scenario.Inputs()
	if err != nil {
		return nil, fmt.Errorf("failed to load inputs: %w", err)
	}

	opts := compose.DefaultOptions()
	if len(scenario.Options.Regions) > 0 {
		opts.Regions = scenario.Options.Regions
	}
	if scenario.Options.DefaultMetric != "" {
		opts.DefaultMetric = scenario.Options.DefaultMetric
	}

	chart, err := compose.Build(scenario.Chart, in, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to compose %s: %w", scenario.Chart, err)
	}

	replay, replayErr := engine.Replay(ctx, chart, compose.EvalData(chart, in.Events), scenario.Events(),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithLogger(logger.Nop()),
	)
	if replay == nil {
		return nil, fmt.Errorf("failed to replay flow: %w", replayErr)
	}

	result := NewResult()
	result.Views = replay.Views
	result.Trace = traceFromSteps(replay.Trace)

	for i, step := range scenario.Flow {
		if i >= len(result.Trace) {
			result.AddError(fmt.Sprintf("flow[%d]: step was not applied", i))
			continue
		}
		checkStep(i, step, result.Trace[i], result.Views[i+1], result)
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// checkStep validates one step's outcome against its expect clause.
func checkStep(i int, step FlowStep, event TraceEvent, view *engine.View, result *Result) {
	want := ""
	if step.Expect != nil {
		want = step.Expect.Error
	}

	switch {
	case want == "" && event.Error != "":
		result.AddError(fmt.Sprintf("flow[%d]: unexpected rejection: %s", i, event.Error))
		return
	case want != "" && event.Error == "":
		result.AddError(fmt.Sprintf("flow[%d]: expected %s, event was applied", i, want))
		return
	case want != "" && !strings.HasPrefix(event.Error, want):
		result.AddError(fmt.Sprintf("flow[%d]: expected %s, got %s", i, want, event.Error))
		return
	}

	if step.Expect == nil {
		return
	}
	for j, ve := range step.Expect.Views {
		if err := checkView(fmt.Sprintf("flow[%d].views[%d]", i, j), view, ve); err != nil {
			result.AddError(err.Error())
		}
	}
}

// Inputs assembles the chart input tables: spreadsheets from DataDir first,
// then inline fixtures appended in order.
func (s *Scenario) Inputs() (compose.Inputs, error) {
	var in compose.Inputs

	if dir := s.dataDir(); dir != "" {
		events, err := dataset.LoadEvents(filepath.Join(dir, HistoryFile))
		if err != nil {
			return in, err
		}
		energy, err := dataset.LoadEnergy(filepath.Join(dir, EnergyFile))
		if err != nil {
			return in, err
		}
		in.Events = events
		in.Energy = energy
	}

	for i, f := range s.Fixtures.Events {
		lt, err := ir.ParseLightType(f.Type)
		if err != nil {
			return in, fmt.Errorf("fixtures.events[%d]: %w", i, err)
		}
		in.Events = append(in.Events, ir.Event{
			Year:        f.Year,
			Code:        f.Code,
			Type:        lt,
			Lon:         f.Lon,
			Lat:         f.Lat,
			People:      f.People,
			Achievement: f.Achievement,
			Decade:      ir.DecadeOf(f.Year),
		})
	}

	for i, f := range s.Fixtures.Energy {
		lt, err := ir.ParseLightType(f.BulbType)
		if err != nil {
			return in, fmt.Errorf("fixtures.energy[%d]: %w", i, err)
		}
		in.Energy = append(in.Energy, ir.EnergyRecord{BulbType: lt, Metric: f.Metric, Value: f.Value})
	}

	for _, f := range s.Fixtures.Monthly {
		in.Monthly = append(in.Monthly, ir.MonthlyPrice{
			YearMonth: f.YearMonth,
			Ticker:    f.Ticker,
			Company:   f.Company,
			Region:    f.Region,
			Open:      f.Open,
			High:      f.High,
			Low:       f.Low,
			Close:     f.Close,
			Volume:    f.Volume,
			Days:      1,
		})
	}

	return in, nil
}
