package chartir

// Row is one record of a chart dataset, keyed by column name.
type Row map[string]any

// Chart is a composed, possibly layered, interactive chart.
type Chart struct {
	Name   string
	Title  string
	Width  int
	Height int

	// Datasets holds every table the chart reads, keyed by name.
	// Layers and lookups refer to datasets by these names.
	Datasets map[string]*Dataset

	// Layers are drawn in order over a shared coordinate system.
	// A chart with one layer compiles to a single-view spec.
	Layers []Layer

	// ViewStrokeWidth, when set, configures the outer view border width.
	ViewStrokeWidth *float64
}

// Dataset is either an inline table or an external URL.
type Dataset struct {
	Rows []Row

	// URL and Format describe data fetched by the browser at render time
	// (the world TopoJSON). Rows may still be bound for evaluation.
	URL    string
	Format *DataFormat
}

// IsExternal reports whether the dataset is fetched at render time.
func (d *Dataset) IsExternal() bool {
	return d.URL != ""
}

// DataFormat describes how the browser parses an external dataset.
type DataFormat struct {
	Type    string // "topojson"
	Feature string // "countries"
}

// MarkType enumerates the mark kinds the composer uses.
type MarkType string

const (
	MarkGeoshape MarkType = "geoshape"
	MarkCircle   MarkType = "circle"
	MarkBar      MarkType = "bar"
	MarkLine     MarkType = "line"
	MarkRule     MarkType = "rule"
	MarkPoint    MarkType = "point"
	MarkText     MarkType = "text"
)

// ValidMarks lists accepted mark types.
var ValidMarks = map[MarkType]bool{
	MarkGeoshape: true,
	MarkCircle:   true,
	MarkBar:      true,
	MarkLine:     true,
	MarkRule:     true,
	MarkPoint:    true,
	MarkText:     true,
}

// Mark is a mark type plus its static properties. Zero values are omitted
// from the compiled spec; pointer fields distinguish an explicit zero.
type Mark struct {
	Type     MarkType
	Color    string
	Fill     string
	Stroke   string
	Align    string
	Size     *float64
	Opacity  *float64
	FontSize *float64
	DX       *float64
	DY       *float64
}

// FieldType is the Vega-Lite measurement type of an encoded field.
type FieldType string

const (
	Nominal      FieldType = "nominal"
	Quantitative FieldType = "quantitative"
	Temporal     FieldType = "temporal"
)

// Layer is one mark-and-encoding specification over a dataset.
type Layer struct {
	// Name identifies the layer in diagnostics and evaluated views.
	Name string

	// Data is the key of the dataset in Chart.Datasets.
	Data string

	Mark       Mark
	Encoding   Encoding
	Params     []Param
	Transforms []Transform
	Projection *Projection
}

// Projection configures a geographic projection.
type Projection struct {
	Type string
}

// Encoding maps visual channels to fields, constants or conditions.
type Encoding struct {
	X         *Channel
	Y         *Channel
	Color     *Channel
	Opacity   *Channel
	Text      *Channel
	Longitude *Channel
	Latitude  *Channel
	Tooltip   []Channel
}

// Channels returns the set channels keyed by channel name, in a fixed order.
func (e Encoding) Channels() []NamedChannel {
	var out []NamedChannel
	add := func(name string, c *Channel) {
		if c != nil {
			out = append(out, NamedChannel{Name: name, Channel: c})
		}
	}
	add("x", e.X)
	add("y", e.Y)
	add("color", e.Color)
	add("opacity", e.Opacity)
	add("text", e.Text)
	add("longitude", e.Longitude)
	add("latitude", e.Latitude)
	return out
}

// NamedChannel pairs a channel definition with its channel name.
type NamedChannel struct {
	Name    string
	Channel *Channel
}

// Channel is a field definition, a constant value, or a condition with a
// fallback. Exactly one of Field and Value is normally set; a conditional
// channel sets Condition and uses Field or Value as the fallback.
type Channel struct {
	Field string
	Type  FieldType

	// Value is a constant encoding (alt.value in the grammar).
	Value any

	// Title overrides the axis or legend title. NoTitle suppresses it.
	Title   string
	NoTitle bool

	Format string
	Scale  *Scale
	Axis   *Axis

	// Sort fixes the domain order of a nominal channel.
	Sort []string

	Condition *Condition
}

// Scale fixes a channel's domain and range.
type Scale struct {
	Domain []any
	Range  []string
}

// Axis configures tick labels.
type Axis struct {
	LabelAngle *float64
	Format     string
	TickCount  string
}

// Condition selects a channel definition when a test holds.
// Exactly one of Test and Param is set.
type Condition struct {
	Test  Expr
	Param string

	// Then is the definition used when the condition holds.
	Then Channel
}

// SelectKind is the selection type of a param.
type SelectKind string

const (
	SelectPoint    SelectKind = "point"
	SelectInterval SelectKind = "interval"
)

// Param is a named interactive selection.
type Param struct {
	Name      string
	Select    SelectKind
	Fields    []string
	Encodings []string

	// On names the input event that updates the selection, e.g. "pointermove".
	On string

	// Nearest snaps the selection to the closest datum.
	Nearest bool

	// EmptyNone makes every reference to this param treat an empty selection
	// as matching nothing instead of everything.
	EmptyNone bool

	Bind Binding

	// Value is the initial selection for point params, one entry per field.
	Value Row
}

// Binding attaches a param to an input control.
type Binding interface {
	bindingNode()
}

// RangeBinding is a slider.
type RangeBinding struct {
	Min   float64
	Max   float64
	Step  float64
	Label string
}

func (RangeBinding) bindingNode() {}

// SelectBinding is a dropdown.
type SelectBinding struct {
	Options []string
	Label   string
}

func (SelectBinding) bindingNode() {}

// ScalesBinding binds an interval selection to the chart's scales (pan and zoom).
type ScalesBinding struct{}

func (ScalesBinding) bindingNode() {}

// Transform is a declarative data operation applied before rendering.
//
// Transform types:
//   - Filter: keep rows matching a param selection or a predicate
//   - Lookup: enrich rows from another dataset by key (first match wins)
//   - Calculate: add a derived field from an expression
type Transform interface {
	transformNode()
}

// Filter keeps rows selected by Param, or rows for which Predicate is truthy.
// Exactly one of Param and Predicate is set.
type Filter struct {
	Param     string
	Predicate Expr
}

func (Filter) transformNode() {}

// Lookup joins each row's Key field against From.Key and copies Fields.
type Lookup struct {
	Key  string
	From LookupData
}

func (Lookup) transformNode() {}

// LookupData names the secondary dataset of a Lookup.
type LookupData struct {
	Data   string
	Key    string
	Fields []string
}

// Calculate stores the value of Expr in field As.
type Calculate struct {
	As   string
	Expr Expr
}

func (Calculate) transformNode() {}

// Expr is a typed expression. It compiles to a Vega expression string and
// is evaluated directly by the engine.
//
// Expr types:
//   - FieldRef: datum.<field>
//   - ParamRef: <param>.<field>
//   - Literal: a constant
//   - Compare: strict or loose equality and inequality
type Expr interface {
	exprNode()
}

// FieldRef reads a field of the current datum.
type FieldRef struct {
	Field string
}

func (FieldRef) exprNode() {}

// ParamRef reads a field of a param's current selection.
type ParamRef struct {
	Param string
	Field string
}

func (ParamRef) exprNode() {}

// Literal is a constant string, number or boolean.
type Literal struct {
	Value any
}

func (Literal) exprNode() {}

// CompareOp enumerates comparison operators.
type CompareOp string

const (
	OpStrictEq CompareOp = "==="
	OpLooseNeq CompareOp = "!="
	OpLooseEq  CompareOp = "=="
)

// Compare compares two expressions.
type Compare struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

func (Compare) exprNode() {}

// Float returns a pointer to v, for optional numeric mark properties.
func Float(v float64) *float64 {
	return &v
}

// DeclaredParams returns every param declared by any layer, keyed by name.
// When a name is declared twice the first declaration wins; Validate
// reports the duplicate.
func (c *Chart) DeclaredParams() map[string]*Param {
	out := make(map[string]*Param)
	for i := range c.Layers {
		for j := range c.Layers[i].Params {
			p := &c.Layers[i].Params[j]
			if _, ok := out[p.Name]; !ok {
				out[p.Name] = p
			}
		}
	}
	return out
}

// ParamOrder returns declared param names in declaration order.
func (c *Chart) ParamOrder() []string {
	var names []string
	seen := make(map[string]bool)
	for _, l := range c.Layers {
		for _, p := range l.Params {
			if !seen[p.Name] {
				seen[p.Name] = true
				names = append(names, p.Name)
			}
		}
	}
	return names
}

// Layer returns the layer named name.
func (c *Chart) Layer(name string) (*Layer, bool) {
	for i := range c.Layers {
		if c.Layers[i].Name == name {
			return &c.Layers[i], true
		}
	}
	return nil, false
}

// ParamRefs returns the names of all params referenced by expressions in e.
func ParamRefs(e Expr) []string {
	switch x := e.(type) {
	case ParamRef:
		return []string{x.Param}
	case Compare:
		return append(ParamRefs(x.Left), ParamRefs(x.Right)...)
	}
	return nil
}
