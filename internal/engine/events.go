package engine

import (
	"math"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

// apply returns the state that follows st after ev. On error st is the
// state to keep.
func apply(idx *chartIndex, data map[string][]chartir.Row, st *State, ev Event) (*State, error) {
	switch ev.Kind {
	case EventSet:
		return applySet(idx, st, ev)
	case EventPointer:
		return applyPointer(idx, data, st, ev)
	case EventZoom:
		return applyZoom(idx, st, ev)
	case EventClear:
		if _, ok := idx.params[ev.Param]; !ok {
			return nil, unknownParam(ev.Param)
		}
		return st.with(ev.Param, Selection{}), nil
	}
	return nil, invalidEvent(ev.Param, "unknown event kind %q", ev.Kind)
}

func applySet(idx *chartIndex, st *State, ev Event) (*State, error) {
	p, ok := idx.params[ev.Param]
	if !ok {
		return nil, unknownParam(ev.Param)
	}
	if p.Select != chartir.SelectPoint {
		return nil, invalidEvent(p.Name, "set applies to point params, not %s", p.Select)
	}
	fields := idx.fields[p.Name]
	for f := range ev.Values {
		if !contains(fields, f) {
			return nil, invalidValue(p.Name, "field %q is not selected by this param", f)
		}
	}

	tuple := make(chartir.Row, len(ev.Values))
	for _, f := range fields {
		v, ok := ev.Values[f]
		if !ok {
			return nil, invalidValue(p.Name, "missing value for field %q", f)
		}
		cv, err := bound(p, v)
		if err != nil {
			return nil, err
		}
		tuple[f] = cv
	}
	return st.with(p.Name, Selection{Tuples: []chartir.Row{tuple}}), nil
}

// bound checks v against the param's input control and returns the value
// the control would report.
func bound(p *chartir.Param, v any) (any, error) {
	switch b := p.Bind.(type) {
	case chartir.RangeBinding:
		f := toNumber(v)
		if math.IsNaN(f) || v == nil {
			return nil, invalidValue(p.Name, "%v is not a number", v)
		}
		if f < b.Min || f > b.Max {
			return nil, invalidValue(p.Name, "%v is outside [%v, %v]", v, b.Min, b.Max)
		}
		if b.Step > 0 {
			steps := (f - b.Min) / b.Step
			if math.Abs(steps-math.Round(steps)) > 1e-9 {
				return nil, invalidValue(p.Name, "%v is not on the %v step grid from %v", v, b.Step, b.Min)
			}
		}
		return f, nil
	case chartir.SelectBinding:
		k := keyString(v)
		for _, opt := range b.Options {
			if opt == k {
				return opt, nil
			}
		}
		return nil, invalidValue(p.Name, "%q is not one of the options", k)
	}
	return v, nil
}

func applyPointer(idx *chartIndex, data map[string][]chartir.Row, st *State, ev Event) (*State, error) {
	p, err := idx.pointerParam(ev.Param)
	if err != nil {
		return nil, err
	}
	if p.Select != chartir.SelectPoint {
		return nil, invalidEvent(p.Name, "pointer applies to point params, not %s", p.Select)
	}
	fields := idx.fields[p.Name]
	if len(fields) == 0 {
		return nil, invalidEvent(p.Name, "param selects no field")
	}
	field, typ := fields[0], idx.types[p.Name][0]
	x, ok := position(ev.X, typ)
	if !ok {
		return nil, invalidValue(p.Name, "pointer position %v is not a %s value", ev.X, typ)
	}

	e := &evaluator{idx: idx, data: data, st: st}
	lv, err := e.layer(idx.owner[p.Name])
	if err != nil {
		return nil, err
	}

	best, bestDist := -1, math.Inf(1)
	for i, r := range lv.Rows {
		pos, ok := position(r[field], typ)
		if !ok {
			continue
		}
		d := math.Abs(pos - x)
		if !p.Nearest && d != 0 {
			continue
		}
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return st.with(p.Name, Selection{}), nil
	}
	tuple := make(chartir.Row, len(fields))
	for _, f := range fields {
		tuple[f] = lv.Rows[best][f]
	}
	return st.with(p.Name, Selection{Tuples: []chartir.Row{tuple}}), nil
}

func applyZoom(idx *chartIndex, st *State, ev Event) (*State, error) {
	p, ok := idx.params[ev.Param]
	if !ok {
		return nil, unknownParam(ev.Param)
	}
	if p.Select != chartir.SelectInterval {
		return nil, invalidEvent(p.Name, "zoom applies to interval params, not %s", p.Select)
	}
	if len(ev.Domain) != 2 {
		return nil, invalidValue(p.Name, "domain needs two bounds, got %d", len(ev.Domain))
	}
	fields := idx.fields[p.Name]
	if len(fields) == 0 {
		return nil, invalidEvent(p.Name, "param selects no field")
	}
	field, typ := fields[0], idx.types[p.Name][0]
	lo, okLo := position(ev.Domain[0], typ)
	hi, okHi := position(ev.Domain[1], typ)
	if !okLo || !okHi {
		return nil, invalidValue(p.Name, "domain %v is not a %s range", ev.Domain, typ)
	}
	if lo > hi {
		return nil, invalidValue(p.Name, "domain %v is reversed", ev.Domain)
	}
	rng := []any{ev.Domain[0], ev.Domain[1]}
	return st.with(p.Name, Selection{Interval: map[string][]any{field: rng}}), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
