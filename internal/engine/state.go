package engine

import (
	"sort"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

// Selection is the current value of one param.
//
// Point params hold zero or more selected tuples keyed by field. Interval
// params hold a [lo, hi] range per field. An empty selection has neither.
type Selection struct {
	Tuples   []chartir.Row    `json:"tuples,omitempty" yaml:"tuples,omitempty"`
	Interval map[string][]any `json:"interval,omitempty" yaml:"interval,omitempty"`
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return len(s.Tuples) == 0 && len(s.Interval) == 0
}

// State is the parameter state of a chart. A State is never mutated after
// construction; applying an event yields a new State.
type State struct {
	sel map[string]Selection
}

// InitialState returns the state a chart starts in: point params with a
// declared value select it, everything else is empty.
func InitialState(c *chartir.Chart) *State {
	st := &State{sel: make(map[string]Selection)}
	for name, p := range c.DeclaredParams() {
		var s Selection
		if len(p.Value) > 0 {
			s.Tuples = []chartir.Row{copyRow(p.Value)}
		}
		st.sel[name] = s
	}
	return st
}

// Selection returns the selection of param name.
func (s *State) Selection(name string) (Selection, bool) {
	sel, ok := s.sel[name]
	return sel, ok
}

// Names returns the param names in sorted order.
func (s *State) Names() []string {
	names := make([]string, 0, len(s.sel))
	for n := range s.sel {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a copy of every selection keyed by param name.
func (s *State) Snapshot() map[string]Selection {
	out := make(map[string]Selection, len(s.sel))
	for k, v := range s.sel {
		out[k] = v
	}
	return out
}

// with returns a copy of s with param name set to sel.
func (s *State) with(name string, sel Selection) *State {
	next := &State{sel: make(map[string]Selection, len(s.sel))}
	for k, v := range s.sel {
		next.sel[k] = v
	}
	next.sel[name] = sel
	return next
}

// paramField reads field of the first selected tuple, as Param.field does
// in an expression. Empty selections read as undefined.
func (s *State) paramField(param, field string) any {
	sel := s.sel[param]
	if len(sel.Tuples) == 0 {
		return undefined
	}
	v, ok := sel.Tuples[0][field]
	if !ok {
		return undefined
	}
	return v
}

func copyRow(r chartir.Row) chartir.Row {
	out := make(chartir.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// chartIndex resolves params against the layers that declare them.
type chartIndex struct {
	chart  *chartir.Chart
	params map[string]*chartir.Param
	owner  map[string]*chartir.Layer

	// fields and types are the data fields a param selects on, with the
	// measurement type of each. Encoding-based params resolve through the
	// owner layer's channels.
	fields map[string][]string
	types  map[string][]chartir.FieldType
}

func indexChart(c *chartir.Chart) *chartIndex {
	idx := &chartIndex{
		chart:  c,
		params: make(map[string]*chartir.Param),
		owner:  make(map[string]*chartir.Layer),
		fields: make(map[string][]string),
		types:  make(map[string][]chartir.FieldType),
	}
	for i := range c.Layers {
		l := &c.Layers[i]
		for j := range l.Params {
			p := &l.Params[j]
			if _, dup := idx.params[p.Name]; dup {
				continue
			}
			idx.params[p.Name] = p
			idx.owner[p.Name] = l
			idx.resolveFields(p, l)
		}
	}
	return idx
}

func (idx *chartIndex) resolveFields(p *chartir.Param, l *chartir.Layer) {
	channels := make(map[string]*chartir.Channel)
	for _, nc := range l.Encoding.Channels() {
		channels[nc.Name] = nc.Channel
	}

	if len(p.Fields) > 0 {
		for _, f := range p.Fields {
			typ := chartir.Nominal
			for _, ch := range channels {
				if ch.Field == f && ch.Type != "" {
					typ = ch.Type
					break
				}
			}
			idx.fields[p.Name] = append(idx.fields[p.Name], f)
			idx.types[p.Name] = append(idx.types[p.Name], typ)
		}
		return
	}
	for _, enc := range p.Encodings {
		ch := channels[enc]
		if ch == nil || ch.Field == "" {
			continue
		}
		idx.fields[p.Name] = append(idx.fields[p.Name], ch.Field)
		idx.types[p.Name] = append(idx.types[p.Name], ch.Type)
	}
}

// pointerParam returns the param driven by pointer movement. When name is
// empty the chart must declare exactly one.
func (idx *chartIndex) pointerParam(name string) (*chartir.Param, error) {
	if name != "" {
		p, ok := idx.params[name]
		if !ok {
			return nil, unknownParam(name)
		}
		return p, nil
	}
	var found *chartir.Param
	for _, n := range idx.chart.ParamOrder() {
		p := idx.params[n]
		if p.On == "" {
			continue
		}
		if found != nil {
			return nil, invalidEvent("", "chart has several pointer params; name one")
		}
		found = p
	}
	if found == nil {
		return nil, invalidEvent("", "chart has no pointer param")
	}
	return found, nil
}
