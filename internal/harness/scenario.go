package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/engine"
	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// Scenario defines an interaction test: a chart built from fixture data,
// a flow of input events, and expectations on the resulting views.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Chart is the composer chart name, e.g. "history_map".
	Chart string `yaml:"chart"`

	// DataDir, when set, loads history.xlsx and energy.xlsx from this
	// directory. Relative paths resolve against the scenario file.
	DataDir string `yaml:"data_dir,omitempty"`

	// Fixtures are inline tables. They extend whatever DataDir loaded.
	Fixtures Fixtures `yaml:"fixtures,omitempty"`

	// Options tune chart composition.
	Options ComposeOptions `yaml:"options,omitempty"`

	// Flow contains the input events, applied in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and view.
	// Supported types: trace_contains, trace_order, trace_count, final_view, final_state
	Assertions []Assertion `yaml:"assertions,omitempty"`

	baseDir string
}

// Fixtures are inline input tables.
type Fixtures struct {
	Events  []EventFixture   `yaml:"events,omitempty"`
	Energy  []EnergyFixture  `yaml:"energy,omitempty"`
	Monthly []MonthlyFixture `yaml:"monthly,omitempty"`
}

// EventFixture is one history event. Decade is derived from Year.
type EventFixture struct {
	Year        int     `yaml:"year"`
	Code        string  `yaml:"code"`
	Type        string  `yaml:"type"`
	Lon         float64 `yaml:"lon"`
	Lat         float64 `yaml:"lat"`
	People      string  `yaml:"people"`
	Achievement string  `yaml:"achievement"`
}

// EnergyFixture is one long-form energy row.
type EnergyFixture struct {
	BulbType string  `yaml:"bulb_type"`
	Metric   string  `yaml:"metric"`
	Value    float64 `yaml:"value"`
}

// MonthlyFixture is one monthly price row.
type MonthlyFixture struct {
	YearMonth string  `yaml:"year_month"`
	Ticker    string  `yaml:"ticker"`
	Company   string  `yaml:"company"`
	Region    string  `yaml:"region"`
	Open      float64 `yaml:"open"`
	High      float64 `yaml:"high"`
	Low       float64 `yaml:"low"`
	Close     float64 `yaml:"close"`
	Volume    float64 `yaml:"volume"`
}

// ComposeOptions are the scenario-level chart options.
type ComposeOptions struct {
	Regions       []string `yaml:"regions,omitempty"`
	DefaultMetric string   `yaml:"default_metric,omitempty"`
}

// FlowStep is one input event with an optional expectation.
// Exactly one of Set, Pointer, Zoom or Clear must be given.
type FlowStep struct {
	Set     *SetStep  `yaml:"set,omitempty"`
	Pointer any       `yaml:"pointer,omitempty"`
	Zoom    *ZoomStep `yaml:"zoom,omitempty"`
	Clear   string    `yaml:"clear,omitempty"`

	// Expect validates the outcome of this step.
	// If nil, the step must be applied without error.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// SetStep selects explicit values for a point param.
type SetStep struct {
	Param  string         `yaml:"param"`
	Values map[string]any `yaml:"values"`
}

// ZoomStep sets an interval param to [lo, hi].
type ZoomStep struct {
	Param  string `yaml:"param"`
	Domain []any  `yaml:"domain"`
}

// ExpectClause specifies the expected outcome of one step.
type ExpectClause struct {
	// Error is the expected rejection code (e.g. "INVALID_VALUE").
	// Empty means the step must be applied.
	Error string `yaml:"error,omitempty"`

	// Views are checked against the view after this step.
	Views []ViewExpect `yaml:"views,omitempty"`
}

// ViewExpect checks one evaluated layer.
type ViewExpect struct {
	// Layer names the layer to inspect.
	Layer string `yaml:"layer"`

	// Where restricts the check to rows whose fields match exactly.
	Where map[string]any `yaml:"where,omitempty"`

	// Rows is the expected number of matching rows.
	Rows *int `yaml:"rows,omitempty"`

	// Fields must hold on every matching row (subset match).
	Fields map[string]any `yaml:"fields,omitempty"`

	// Channels must hold on every matching mark (subset match).
	Channels map[string]any `yaml:"channels,omitempty"`

	// Columns compare whole fields across the matching rows, in order.
	Columns map[string][]any `yaml:"columns,omitempty"`

	// XDomain is the expected visible x range.
	XDomain []any `yaml:"x_domain,omitempty"`
}

// Assertion validates the final trace or view.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event of Kind (and Param, Values) appears in the trace
	// - "trace_order": event kinds appear in order
	// - "trace_count": Kind appears exactly Count times
	// - "final_view": the last view satisfies the embedded ViewExpect
	// - "final_state": the final selection of Param
	Type string `yaml:"type"`

	Kind   string         `yaml:"kind,omitempty"`
	Param  string         `yaml:"param,omitempty"`
	Values map[string]any `yaml:"values,omitempty"`
	Kinds  []string       `yaml:"kinds,omitempty"`

	// Count is used by trace_count. Rejected, when set, restricts the
	// count to rejected (true) or applied (false) events.
	Count    int   `yaml:"count,omitempty"`
	Rejected *bool `yaml:"rejected,omitempty"`

	// Expect is a subset of the first selected tuple (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Empty asserts the param has no selection (final_state).
	Empty bool `yaml:"empty,omitempty"`

	ViewExpect `yaml:",inline"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalView     = "final_view"
	AssertFinalState    = "final_state"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.baseDir = filepath.Dir(path)
	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative data directories resolve
// against the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if ext := filepath.Ext(e.Name()); ext == ".yaml" || ext == ".yml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		sc, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !ir.IsKnownChart(s.Chart) {
		return fmt.Errorf("chart %q is not one of %s", s.Chart, strings.Join(ir.KnownCharts, ", "))
	}
	if len(s.Flow) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("flow or assertions are required")
	}

	for i, step := range s.Flow {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("flow[%d]: %w", i, err)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(step FlowStep) error {
	n := 0
	if step.Set != nil {
		n++
		if step.Set.Param == "" {
			return fmt.Errorf("set: param is required")
		}
		if len(step.Set.Values) == 0 {
			return fmt.Errorf("set: values are required")
		}
	}
	if step.Pointer != nil {
		n++
	}
	if step.Zoom != nil {
		n++
		if step.Zoom.Param == "" {
			return fmt.Errorf("zoom: param is required")
		}
		if len(step.Zoom.Domain) != 2 {
			return fmt.Errorf("zoom: domain must have two bounds")
		}
	}
	if step.Clear != "" {
		n++
	}
	if n != 1 {
		return fmt.Errorf("exactly one of set, pointer, zoom or clear is required")
	}
	if step.Expect != nil {
		for j, v := range step.Expect.Views {
			if v.Layer == "" {
				return fmt.Errorf("expect.views[%d]: layer is required", j)
			}
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Kinds) == 0 {
			return fmt.Errorf("assertions[%d]: kinds list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Kind == "" {
			return fmt.Errorf("assertions[%d]: kind is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalView:
		if a.Layer == "" {
			return fmt.Errorf("assertions[%d]: layer is required for final_view", index)
		}
	case AssertFinalState:
		if a.Param == "" {
			return fmt.Errorf("assertions[%d]: param is required for final_state", index)
		}
		if len(a.Expect) == 0 && !a.Empty {
			return fmt.Errorf("assertions[%d]: expect or empty is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

// Events converts the flow to engine events.
func (s *Scenario) Events() []engine.Event {
	events := make([]engine.Event, len(s.Flow))
	for i, step := range s.Flow {
		switch {
		case step.Set != nil:
			events[i] = engine.Set(step.Set.Param, chartir.Row(step.Set.Values))
		case step.Pointer != nil:
			events[i] = engine.Pointer(step.Pointer)
		case step.Zoom != nil:
			events[i] = engine.Zoom(step.Zoom.Param, step.Zoom.Domain[0], step.Zoom.Domain[1])
		default:
			events[i] = engine.Event{Kind: engine.EventClear, Param: step.Clear}
		}
	}
	return events
}

// dataDir resolves DataDir against the scenario file location.
func (s *Scenario) dataDir() string {
	if s.DataDir == "" || filepath.IsAbs(s.DataDir) || s.baseDir == "" {
		return s.DataDir
	}
	return filepath.Join(s.baseDir, s.DataDir)
}
