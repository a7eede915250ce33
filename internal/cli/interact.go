package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/compose"
	"github.com/jiaxingx0718/ledstory/internal/engine"
	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/logger"
)

// InteractOptions holds flags for the interact command.
type InteractOptions struct {
	*RootOptions
	Story    string
	DataDir  string
	Snapshot string
	Sets     []string
	Clears   []string
	Zooms    []string
	Pointer  string
	Limit    int
}

// InteractResult is the outcome of an interact run.
type InteractResult struct {
	Trace []engine.Step `json:"trace"`
	View  *engine.View  `json:"view"`
	limit int
}

func (r InteractResult) String() string {
	var b strings.Builder
	for _, st := range r.Trace {
		fmt.Fprintf(&b, "[%d] %s %s", st.Seq, st.Event.Kind, st.Event.Param)
		if st.Err != "" {
			fmt.Fprintf(&b, " rejected: %s", st.Err)
		}
		b.WriteString("\n")
	}
	if r.View == nil {
		return strings.TrimSuffix(b.String(), "\n")
	}
	for _, name := range sortedParams(r.View.Params) {
		sel := r.View.Params[name]
		switch {
		case len(sel.Tuples) > 0:
			fmt.Fprintf(&b, "%s = %v\n", name, sel.Tuples)
		case len(sel.Interval) > 0:
			fmt.Fprintf(&b, "%s = %v\n", name, sel.Interval)
		default:
			fmt.Fprintf(&b, "%s = (empty)\n", name)
		}
	}
	for _, l := range r.View.Layers {
		fmt.Fprintf(&b, "layer %s (%s): %d row(s)", l.Name, l.Mark, len(l.Rows))
		if len(l.XDomain) > 0 {
			fmt.Fprintf(&b, " x=%v", l.XDomain)
		}
		b.WriteString("\n")
		for i, m := range l.Marks {
			if i >= r.limit {
				fmt.Fprintf(&b, "  ... %d more\n", len(l.Marks)-i)
				break
			}
			line, _ := ir.MarshalCanonical(m)
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewInteractCommand creates the interact command.
func NewInteractCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InteractOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "interact <chart>",
		Short: "Apply input events to a chart and print the view",
		Long: `Compose a chart from the configured inputs, apply input events through the
reactive engine one at a time, and print the resulting view: every param's
selection and, per layer, the surviving rows with their resolved channels.

Events are applied in flag order by kind: sets, clears, zooms, then the
pointer. A rejected event leaves the state unchanged and is reported in the
trace; the command then exits 1.

Examples:
  ledstory interact history_map --set 'Year={"year":1960}'
  ledstory interact energy_bars --set 'Attribute={"metric":"Power (W)"}'
  ledstory interact market_series --set 'Region={"continent":"Asia"}' --pointer 2020-02-12
  ledstory interact market_series --zoom 'pan=2015-01-01,2020-12-31' --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteract(opts, args[0], cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Story, "story", "", "CUE story file (default: built-in story)")
	cmd.Flags().StringVar(&opts.DataDir, "data", "", "directory holding history.xlsx and energy.xlsx")
	cmd.Flags().StringVar(&opts.Snapshot, "snapshot", "", "market snapshot database")
	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "select values: Param=<json object>")
	cmd.Flags().StringArrayVar(&opts.Clears, "clear", nil, "empty a param's selection")
	cmd.Flags().StringArrayVar(&opts.Zooms, "zoom", nil, "set an interval: Param=lo,hi")
	cmd.Flags().StringVar(&opts.Pointer, "pointer", "", "move the pointer to an x position")
	cmd.Flags().IntVar(&opts.Limit, "limit", 10, "marks printed per layer in text output")

	return cmd
}

func runInteract(opts *InteractOptions, chart string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if !ir.IsKnownChart(chart) {
		return formatter.Fail("interact", withCode(ErrCodeBadInput,
			fmt.Errorf("unknown chart %q (known: %s)", chart, strings.Join(ir.KnownCharts, ", "))))
	}
	events, err := opts.events()
	if err != nil {
		return formatter.Fail("parse events", withCode(ErrCodeBadInput, err))
	}

	cfg, err := opts.Config()
	if err != nil {
		return formatter.Fail("load config", err)
	}
	if opts.Story != "" {
		cfg.Story = opts.Story
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.Snapshot != "" {
		cfg.Snapshot = opts.Snapshot
	}

	runID := newRunID()
	formatter.RunID = runID
	ctx := runContext(cmd.Context(), cfg, cmd, runID)

	story, err := loadStory(cfg)
	if err != nil {
		return formatter.Fail("load story", err)
	}
	// Only the requested chart's inputs are loaded.
	story.Sections = []ir.Section{{ID: "interact", Heading: chart, Charts: []ir.ChartEmbed{{Name: chart, Height: 1}}}}
	p := &pipeline{cfg: cfg, story: story, log: logger.C(ctx)}

	var in compose.Inputs
	if err := p.tables(&in); err != nil {
		return formatter.Fail("load inputs", err)
	}
	if chart == ir.ChartMarketSeries {
		if in.Monthly, err = storedMonthly(ctx, p); err != nil {
			return formatter.Fail("read snapshot", withCode(ErrCodeMarketFailed, err))
		}
	}

	c, err := compose.Build(chart, in, p.composeOptions())
	if err != nil {
		return formatter.Fail("compose "+chart, err)
	}

	res, err := engine.Replay(ctx, c, compose.EvalData(c, in.Events), events, engine.WithLogger(p.log))
	if res == nil {
		return formatter.Fail("replay", err)
	}

	result := InteractResult{Trace: res.Trace, View: res.Final(), limit: opts.Limit}
	if outErr := formatter.Success(result); outErr != nil {
		return outErr
	}

	for _, st := range res.Trace {
		if st.Err != "" {
			return NewExitError(ExitFailure, fmt.Sprintf("%s event rejected: %s", st.Event.Kind, st.Err))
		}
	}
	if err != nil {
		return WrapExitError(ExitFailure, "replay", err)
	}
	return nil
}

// events converts the event flags to engine events, in application order.
func (o *InteractOptions) events() ([]engine.Event, error) {
	var events []engine.Event
	for _, s := range o.Sets {
		param, raw, ok := strings.Cut(s, "=")
		if !ok || param == "" {
			return nil, fmt.Errorf("--set %q: want Param=<json object>", s)
		}
		var values chartir.Row
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil, fmt.Errorf("--set %s: %w", param, err)
		}
		events = append(events, engine.Set(param, values))
	}
	for _, param := range o.Clears {
		events = append(events, engine.Clear(param))
	}
	for _, z := range o.Zooms {
		param, raw, ok := strings.Cut(z, "=")
		lo, hi, ok2 := strings.Cut(raw, ",")
		if !ok || !ok2 || param == "" {
			return nil, fmt.Errorf("--zoom %q: want Param=lo,hi", z)
		}
		events = append(events, engine.Zoom(param, scalar(lo), scalar(hi)))
	}
	if o.Pointer != "" {
		events = append(events, engine.Pointer(scalar(o.Pointer)))
	}
	return events, nil
}

// scalar reads a flag value as a number when it parses as one.
func scalar(s string) any {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func sortedParams(m map[string]engine.Selection) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
