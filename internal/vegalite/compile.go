// Package vegalite compiles chart IR to Vega-Lite v5 JSON specifications.
package vegalite

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
	"github.com/jiaxingx0718/ledstory/internal/ir"
)

// Spec is a compiled Vega-Lite specification.
type Spec map[string]any

// MarshalIndent renders the spec as indented JSON without HTML escaping, so
// the text can be embedded verbatim in a document.
func (s Spec) MarshalIndent() ([]byte, error) {
	var sb strings.Builder
	enc := json.NewEncoder(&sb)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]any(s)); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// Compiler converts chart IR to Vega-Lite.
//
// Inline datasets are emitted once under the top-level "datasets" key and
// referenced by name; external datasets are emitted as url data on the
// layers that read them. Expressions are generated from typed IR, never
// written by hand.
type Compiler struct {
	chart  *chartir.Chart
	params map[string]*chartir.Param
}

// Compile validates c and converts it to a Vega-Lite spec.
// Invalid charts are rejected with the first validation error.
func Compile(c *chartir.Chart) (Spec, error) {
	if c == nil {
		return nil, fmt.Errorf("cannot compile nil chart")
	}
	if errs := chartir.Validate(c); len(errs) > 0 {
		return nil, fmt.Errorf("compile %s: %w", c.Name, errs[0])
	}
	comp := &Compiler{chart: c, params: c.DeclaredParams()}
	return comp.compile()
}

func (c *Compiler) compile() (Spec, error) {
	ch := c.chart
	spec := Spec{
		"$schema": ir.VegaLiteSchema,
	}
	if ch.Title != "" {
		spec["title"] = ch.Title
	}
	if ch.Width > 0 {
		spec["width"] = ch.Width
	}
	if ch.Height > 0 {
		spec["height"] = ch.Height
	}

	datasets := c.compileDatasets()
	if len(datasets) > 0 {
		spec["datasets"] = datasets
	}

	if len(ch.Layers) == 1 {
		unit, err := c.compileLayer(&ch.Layers[0])
		if err != nil {
			return nil, err
		}
		for k, v := range unit {
			spec[k] = v
		}
	} else {
		layers := make([]any, 0, len(ch.Layers))
		for i := range ch.Layers {
			unit, err := c.compileLayer(&ch.Layers[i])
			if err != nil {
				return nil, err
			}
			layers = append(layers, unit)
		}
		spec["layer"] = layers
	}

	if ch.ViewStrokeWidth != nil {
		spec["config"] = map[string]any{
			"view": map[string]any{"strokeWidth": *ch.ViewStrokeWidth},
		}
	}
	return spec, nil
}

// compileDatasets emits inline tables in name order.
func (c *Compiler) compileDatasets() map[string]any {
	names := make([]string, 0, len(c.chart.Datasets))
	for name, d := range c.chart.Datasets {
		if !d.IsExternal() {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	out := make(map[string]any, len(names))
	for _, name := range names {
		rows := c.chart.Datasets[name].Rows
		values := make([]any, len(rows))
		for i, r := range rows {
			values[i] = map[string]any(r)
		}
		out[name] = values
	}
	return out
}

func (c *Compiler) compileData(name string) map[string]any {
	d := c.chart.Datasets[name]
	if !d.IsExternal() {
		return map[string]any{"name": name}
	}
	data := map[string]any{"url": d.URL}
	if d.Format != nil {
		format := map[string]any{"type": d.Format.Type}
		if d.Format.Feature != "" {
			format["feature"] = d.Format.Feature
		}
		data["format"] = format
	}
	return data
}

func (c *Compiler) compileLayer(l *chartir.Layer) (map[string]any, error) {
	unit := map[string]any{
		"data": c.compileData(l.Data),
		"mark": compileMark(l.Mark),
	}

	enc, err := c.compileEncoding(l.Encoding)
	if err != nil {
		return nil, fmt.Errorf("layer %s: %w", l.Name, err)
	}
	if len(enc) > 0 {
		unit["encoding"] = enc
	}

	if len(l.Params) > 0 {
		params := make([]any, len(l.Params))
		for i := range l.Params {
			params[i] = compileParam(&l.Params[i])
		}
		unit["params"] = params
	}

	if len(l.Transforms) > 0 {
		transforms := make([]any, 0, len(l.Transforms))
		for i, t := range l.Transforms {
			ct, err := c.compileTransform(t)
			if err != nil {
				return nil, fmt.Errorf("layer %s transform[%d]: %w", l.Name, i, err)
			}
			transforms = append(transforms, ct)
		}
		unit["transform"] = transforms
	}

	if l.Projection != nil {
		unit["projection"] = map[string]any{"type": l.Projection.Type}
	}
	return unit, nil
}

func compileMark(m chartir.Mark) map[string]any {
	out := map[string]any{"type": string(m.Type)}
	setStr := func(k, v string) {
		if v != "" {
			out[k] = v
		}
	}
	setNum := func(k string, v *float64) {
		if v != nil {
			out[k] = *v
		}
	}
	setStr("color", m.Color)
	setStr("fill", m.Fill)
	setStr("stroke", m.Stroke)
	setStr("align", m.Align)
	setNum("size", m.Size)
	setNum("opacity", m.Opacity)
	setNum("fontSize", m.FontSize)
	setNum("dx", m.DX)
	setNum("dy", m.DY)
	return out
}

func (c *Compiler) compileEncoding(e chartir.Encoding) (map[string]any, error) {
	out := make(map[string]any)
	for _, nc := range e.Channels() {
		def, err := c.compileChannel(nc.Channel)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", nc.Name, err)
		}
		out[nc.Name] = def
	}
	if len(e.Tooltip) > 0 {
		tips := make([]any, len(e.Tooltip))
		for i := range e.Tooltip {
			def, err := c.compileChannel(&e.Tooltip[i])
			if err != nil {
				return nil, fmt.Errorf("tooltip[%d]: %w", i, err)
			}
			tips[i] = def
		}
		out["tooltip"] = tips
	}
	return out, nil
}

// compileChannel emits a field or value definition, wrapping it in a
// condition when one is set.
func (c *Compiler) compileChannel(ch *chartir.Channel) (map[string]any, error) {
	def := compileFieldDef(ch)
	if ch.Condition == nil {
		return def, nil
	}

	cond := compileFieldDef(&ch.Condition.Then)
	switch {
	case ch.Condition.Param != "":
		cond["param"] = ch.Condition.Param
		if p := c.params[ch.Condition.Param]; p != nil && p.EmptyNone {
			cond["empty"] = false
		}
	case ch.Condition.Test != nil:
		test, err := CompileExpr(ch.Condition.Test)
		if err != nil {
			return nil, err
		}
		cond["test"] = test
	}
	def["condition"] = cond
	return def, nil
}

func compileFieldDef(ch *chartir.Channel) map[string]any {
	def := make(map[string]any)
	if ch.Field != "" {
		def["field"] = ch.Field
		if ch.Type != "" {
			def["type"] = string(ch.Type)
		}
	} else if ch.Value != nil {
		def["value"] = ch.Value
	}
	if ch.NoTitle {
		def["title"] = nil
	} else if ch.Title != "" {
		def["title"] = ch.Title
	}
	if ch.Format != "" {
		def["format"] = ch.Format
	}
	if len(ch.Sort) > 0 {
		def["sort"] = ch.Sort
	}
	if ch.Scale != nil {
		scale := make(map[string]any)
		if len(ch.Scale.Domain) > 0 {
			scale["domain"] = ch.Scale.Domain
		}
		if len(ch.Scale.Range) > 0 {
			scale["range"] = ch.Scale.Range
		}
		def["scale"] = scale
	}
	if ch.Axis != nil {
		axis := make(map[string]any)
		if ch.Axis.LabelAngle != nil {
			axis["labelAngle"] = *ch.Axis.LabelAngle
		}
		if ch.Axis.Format != "" {
			axis["format"] = ch.Axis.Format
		}
		if ch.Axis.TickCount != "" {
			axis["tickCount"] = ch.Axis.TickCount
		}
		def["axis"] = axis
	}
	return def
}

func compileParam(p *chartir.Param) map[string]any {
	sel := map[string]any{"type": string(p.Select)}
	if len(p.Fields) > 0 {
		sel["fields"] = p.Fields
	}
	if len(p.Encodings) > 0 {
		sel["encodings"] = p.Encodings
	}
	if p.On != "" {
		sel["on"] = p.On
	}
	if p.Nearest {
		sel["nearest"] = true
	}

	out := map[string]any{
		"name":   p.Name,
		"select": sel,
	}
	switch b := p.Bind.(type) {
	case chartir.RangeBinding:
		bind := map[string]any{"input": "range", "min": b.Min, "max": b.Max, "step": b.Step}
		if b.Label != "" {
			bind["name"] = b.Label
		}
		out["bind"] = bind
	case chartir.SelectBinding:
		bind := map[string]any{"input": "select", "options": b.Options}
		if b.Label != "" {
			bind["name"] = b.Label
		}
		out["bind"] = bind
	case chartir.ScalesBinding:
		out["bind"] = "scales"
	}
	if len(p.Value) > 0 {
		out["value"] = []any{map[string]any(p.Value)}
	}
	return out
}

func (c *Compiler) compileTransform(t chartir.Transform) (map[string]any, error) {
	switch tr := t.(type) {
	case chartir.Filter:
		if tr.Param != "" {
			pred := map[string]any{"param": tr.Param}
			if p := c.params[tr.Param]; p != nil && p.EmptyNone {
				pred["empty"] = false
			}
			return map[string]any{"filter": pred}, nil
		}
		expr, err := CompileExpr(tr.Predicate)
		if err != nil {
			return nil, err
		}
		return map[string]any{"filter": expr}, nil
	case chartir.Lookup:
		return map[string]any{
			"lookup": tr.Key,
			"from": map[string]any{
				"data":   c.compileData(tr.From.Data),
				"key":    tr.From.Key,
				"fields": tr.From.Fields,
			},
		}, nil
	case chartir.Calculate:
		expr, err := CompileExpr(tr.Expr)
		if err != nil {
			return nil, err
		}
		return map[string]any{"calculate": expr, "as": tr.As}, nil
	default:
		return nil, fmt.Errorf("unsupported transform type: %T", t)
	}
}

var identRE = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// CompileExpr renders a typed expression as a Vega expression string.
func CompileExpr(e chartir.Expr) (string, error) {
	switch x := e.(type) {
	case chartir.FieldRef:
		return accessor("datum", x.Field), nil
	case chartir.ParamRef:
		return accessor(x.Param, x.Field), nil
	case chartir.Literal:
		return compileLiteral(x.Value)
	case chartir.Compare:
		left, err := CompileExpr(x.Left)
		if err != nil {
			return "", err
		}
		right, err := CompileExpr(x.Right)
		if err != nil {
			return "", err
		}
		return left + " " + string(x.Op) + " " + right, nil
	case nil:
		return "", fmt.Errorf("cannot compile nil expression")
	default:
		return "", fmt.Errorf("unsupported expression type: %T", e)
	}
}

func accessor(base, field string) string {
	if identRE.MatchString(field) {
		return base + "." + field
	}
	return base + "[" + quoteJS(field) + "]"
}

func compileLiteral(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return quoteJS(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(val), nil
	default:
		return "", fmt.Errorf("unsupported literal type: %T", v)
	}
}

// quoteJS quotes s as a single-quoted JavaScript string literal.
func quoteJS(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}
