package engine

import (
	"fmt"
	"sort"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

// View is the evaluated rendering of a chart under one state.
type View struct {
	Chart  string               `json:"chart" yaml:"chart"`
	Seq    int64                `json:"seq" yaml:"seq"`
	Params map[string]Selection `json:"params" yaml:"params"`
	Layers []LayerView          `json:"layers" yaml:"layers"`
}

// LayerView is one evaluated layer: the rows that survive its transforms,
// in render order, and the encoded channel values of each.
type LayerView struct {
	Name string           `json:"name" yaml:"name"`
	Mark chartir.MarkType `json:"mark" yaml:"mark"`
	Rows []chartir.Row    `json:"rows" yaml:"rows"`

	// Marks parallels Rows. Each entry maps a channel name to the value
	// the channel resolves to for that row, after conditions and formats.
	Marks []map[string]any `json:"marks" yaml:"marks"`

	// XDomain is the visible x range: the zoomed interval when one is set,
	// otherwise the x scale's fixed domain.
	XDomain []any `json:"x_domain,omitempty" yaml:"x_domain,omitempty"`
}

// Layer returns the evaluated layer named name.
func (v *View) Layer(name string) (*LayerView, bool) {
	for i := range v.Layers {
		if v.Layers[i].Name == name {
			return &v.Layers[i], true
		}
	}
	return nil, false
}

// Column returns field of every row.
func (l *LayerView) Column(field string) []any {
	out := make([]any, len(l.Rows))
	for i, r := range l.Rows {
		out[i] = r[field]
	}
	return out
}

// Channel returns the resolved value of channel for every mark.
func (l *LayerView) Channel(channel string) []any {
	out := make([]any, len(l.Marks))
	for i, m := range l.Marks {
		out[i] = m[channel]
	}
	return out
}

// Evaluate renders chart c under state st. It is pure: c, data and st are
// not modified. data binds rows to datasets by name and overrides inline
// rows; external datasets must be bound.
func Evaluate(c *chartir.Chart, data map[string][]chartir.Row, st *State) (*View, error) {
	if st == nil {
		st = InitialState(c)
	}
	ev := &evaluator{idx: indexChart(c), data: data, st: st}

	view := &View{Chart: c.Name, Params: st.Snapshot()}
	for i := range c.Layers {
		lv, err := ev.layer(&c.Layers[i])
		if err != nil {
			return nil, err
		}
		view.Layers = append(view.Layers, *lv)
	}
	return view, nil
}

type evaluator struct {
	idx  *chartIndex
	data map[string][]chartir.Row
	st   *State
}

func (ev *evaluator) rows(name string) ([]chartir.Row, error) {
	if rows, ok := ev.data[name]; ok {
		return rows, nil
	}
	ds, ok := ev.idx.chart.Datasets[name]
	if !ok {
		return nil, &RuntimeError{Code: ErrCodeMissingData, Message: fmt.Sprintf("dataset %q is not declared", name)}
	}
	if ds.IsExternal() {
		return nil, &RuntimeError{Code: ErrCodeMissingData, Message: fmt.Sprintf("dataset %q is external and has no bound rows", name)}
	}
	return ds.Rows, nil
}

func (ev *evaluator) layer(l *chartir.Layer) (*LayerView, error) {
	src, err := ev.rows(l.Data)
	if err != nil {
		return nil, err
	}
	rows := make([]chartir.Row, len(src))
	for i, r := range src {
		rows[i] = copyRow(r)
	}

	for _, t := range l.Transforms {
		rows, err = ev.transform(t, rows)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.Name, err)
		}
	}

	sortRows(rows, l.Encoding)

	lv := &LayerView{Name: l.Name, Mark: l.Mark.Type, Rows: rows, Marks: make([]map[string]any, 0, len(rows))}
	for _, r := range rows {
		m, err := ev.encode(l.Encoding, r)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", l.Name, err)
		}
		lv.Marks = append(lv.Marks, m)
	}
	lv.XDomain = ev.xDomain(l)
	return lv, nil
}

func (ev *evaluator) transform(t chartir.Transform, rows []chartir.Row) ([]chartir.Row, error) {
	switch x := t.(type) {
	case chartir.Filter:
		out := rows[:0:0]
		for _, r := range rows {
			keep, err := ev.filterKeeps(x, r)
			if err != nil {
				return nil, err
			}
			if keep {
				out = append(out, r)
			}
		}
		return out, nil

	case chartir.Lookup:
		from, err := ev.rows(x.From.Data)
		if err != nil {
			return nil, err
		}
		index := make(map[string]chartir.Row, len(from))
		for _, fr := range from {
			k := keyString(fr[x.From.Key])
			if _, seen := index[k]; !seen {
				index[k] = fr
			}
		}
		for _, r := range rows {
			match := index[keyString(r[x.Key])]
			for _, f := range x.From.Fields {
				if match == nil {
					r[f] = nil
				} else {
					r[f] = match[f]
				}
			}
		}
		return rows, nil

	case chartir.Calculate:
		for _, r := range rows {
			v, err := evalExpr(x.Expr, r, ev.st)
			if err != nil {
				return nil, err
			}
			if v == any(undefined) {
				v = nil
			}
			r[x.As] = v
		}
		return rows, nil
	}
	return nil, fmt.Errorf("unsupported transform type: %T", t)
}

func (ev *evaluator) filterKeeps(f chartir.Filter, r chartir.Row) (bool, error) {
	if f.Param != "" {
		return ev.selected(f.Param, r), nil
	}
	v, err := evalExpr(f.Predicate, r, ev.st)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// selected reports whether row r falls inside param's selection. An empty
// selection selects every row unless the param is declared EmptyNone.
func (ev *evaluator) selected(param string, r chartir.Row) bool {
	p := ev.idx.params[param]
	sel := ev.st.sel[param]
	if sel.Empty() {
		return p == nil || !p.EmptyNone
	}
	fields := ev.idx.fields[param]
	types := ev.idx.types[param]

	if len(sel.Interval) > 0 {
		for i, f := range fields {
			rng, ok := sel.Interval[f]
			if !ok || len(rng) != 2 {
				continue
			}
			v, ok := position(r[f], types[i])
			lo, okLo := position(rng[0], types[i])
			hi, okHi := position(rng[1], types[i])
			if !ok || !okLo || !okHi || v < lo || v > hi {
				return false
			}
		}
		return true
	}

	for _, tuple := range sel.Tuples {
		match := true
		for i, f := range fields {
			if !sameValue(r[f], tuple[f], types[i]) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// sameValue compares a row value with a selected value. Temporal values
// compare by instant, everything else by loose equality.
func sameValue(a, b any, typ chartir.FieldType) bool {
	if typ == chartir.Temporal {
		pa, okA := position(a, typ)
		pb, okB := position(b, typ)
		if okA && okB {
			return pa == pb
		}
	}
	return looseEqual(a, b)
}

func (ev *evaluator) encode(enc chartir.Encoding, r chartir.Row) (map[string]any, error) {
	m := make(map[string]any)
	for _, nc := range enc.Channels() {
		v, err := ev.channel(nc.Channel, r)
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", nc.Name, err)
		}
		m[nc.Name] = v
	}
	if len(enc.Tooltip) > 0 {
		tips := make([]any, len(enc.Tooltip))
		for i := range enc.Tooltip {
			v, err := ev.channel(&enc.Tooltip[i], r)
			if err != nil {
				return nil, fmt.Errorf("tooltip: %w", err)
			}
			tips[i] = v
		}
		m["tooltip"] = tips
	}
	return m, nil
}

func (ev *evaluator) channel(ch *chartir.Channel, r chartir.Row) (any, error) {
	if c := ch.Condition; c != nil {
		hold := false
		if c.Param != "" {
			hold = ev.selected(c.Param, r)
		} else {
			v, err := evalExpr(c.Test, r, ev.st)
			if err != nil {
				return nil, err
			}
			hold = truthy(v)
		}
		if hold {
			return resolve(&c.Then, r), nil
		}
	}
	return resolve(ch, r), nil
}

func resolve(ch *chartir.Channel, r chartir.Row) any {
	if ch.Field != "" {
		return formatValue(r[ch.Field], ch.Type, ch.Format)
	}
	return ch.Value
}

// xDomain returns the visible x range of layer l.
func (ev *evaluator) xDomain(l *chartir.Layer) []any {
	x := l.Encoding.X
	if x == nil || x.Field == "" {
		return nil
	}
	for _, name := range ev.idx.chart.ParamOrder() {
		p := ev.idx.params[name]
		if p.Select != chartir.SelectInterval {
			continue
		}
		if _, scales := p.Bind.(chartir.ScalesBinding); !scales {
			continue
		}
		if rng, ok := ev.st.sel[name].Interval[x.Field]; ok {
			return rng
		}
	}
	if x.Scale != nil && len(x.Scale.Domain) > 0 {
		return x.Scale.Domain
	}
	return nil
}

// sortRows orders rows by the fixed sort of the x channel, then of the
// other channels. Rows whose value is not listed keep their order after
// the listed ones.
func sortRows(rows []chartir.Row, enc chartir.Encoding) {
	var keys []*chartir.Channel
	for _, nc := range enc.Channels() {
		if len(nc.Channel.Sort) > 0 && nc.Channel.Field != "" {
			keys = append(keys, nc.Channel)
		}
	}
	if len(keys) == 0 {
		return
	}
	rank := func(ch *chartir.Channel, r chartir.Row) int {
		k := keyString(r[ch.Field])
		for i, s := range ch.Sort {
			if s == k {
				return i
			}
		}
		return len(ch.Sort)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ch := range keys {
			ri, rj := rank(ch, rows[i]), rank(ch, rows[j])
			if ri != rj {
				return ri < rj
			}
		}
		return false
	})
}
