package chartir

import (
	"fmt"
	"slices"
)

// Chart validation error codes (E300-E399).
const (
	ErrChartUnnamed       = "E300" // chart name is required
	ErrDuplicateParam     = "E301" // param declared more than once
	ErrUndeclaredParam    = "E302" // reference to an undeclared param
	ErrUnknownDataset     = "E303" // layer or lookup names a missing dataset
	ErrNoLayers           = "E304" // chart has no layers
	ErrInvalidBinding     = "E305" // control binding is malformed
	ErrInvalidMark        = "E306" // unknown mark type
	ErrInvalidTransform   = "E307" // transform is malformed
	ErrInvalidParamFields = "E308" // param fields/encodings are malformed
)

// ValidationError describes one broken chart invariant.
type ValidationError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a chart against the IR invariants.
// Returns all errors found (does not fail-fast).
//
// Validate is a pure function with no side effects.
func Validate(c *Chart) []ValidationError {
	v := &validator{chart: c}
	v.validate()
	return v.errs
}

// validator accumulates errors during traversal.
type validator struct {
	chart    *Chart
	declared map[string]*Param
	errs     []ValidationError
}

func (v *validator) add(code, field, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Code: code, Field: field, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) validate() {
	c := v.chart
	if c.Name == "" {
		v.add(ErrChartUnnamed, "name", "chart name is required")
	}
	if len(c.Layers) == 0 {
		v.add(ErrNoLayers, "layers", "at least one layer is required")
		return
	}

	// Params first, so references can be resolved in any layer order.
	v.declared = make(map[string]*Param)
	for i := range c.Layers {
		for j := range c.Layers[i].Params {
			p := &c.Layers[i].Params[j]
			field := fmt.Sprintf("layers[%d].params[%d]", i, j)
			if _, dup := v.declared[p.Name]; dup {
				v.add(ErrDuplicateParam, field, "param %q is declared more than once", p.Name)
				continue
			}
			v.declared[p.Name] = p
			v.validateParam(field, p)
		}
	}

	for i := range c.Layers {
		v.validateLayer(i, &c.Layers[i])
	}
}

func (v *validator) validateParam(field string, p *Param) {
	if p.Name == "" {
		v.add(ErrInvalidParamFields, field, "param name is required")
	}
	switch p.Select {
	case SelectPoint:
		if len(p.Fields) == 0 && len(p.Encodings) == 0 {
			v.add(ErrInvalidParamFields, field, "point param %q needs fields or encodings", p.Name)
		}
		for k := range p.Value {
			if len(p.Fields) > 0 && !slices.Contains(p.Fields, k) {
				v.add(ErrInvalidParamFields, field, "initial value of %q sets unknown field %q", p.Name, k)
			}
		}
	case SelectInterval:
		if len(p.Encodings) == 0 {
			v.add(ErrInvalidParamFields, field, "interval param %q needs encodings", p.Name)
		}
	default:
		v.add(ErrInvalidParamFields, field, "param %q has unknown select kind %q", p.Name, p.Select)
	}

	switch b := p.Bind.(type) {
	case nil:
	case RangeBinding:
		if b.Step <= 0 {
			v.add(ErrInvalidBinding, field+".bind", "range step must be positive")
		}
		if b.Min > b.Max {
			v.add(ErrInvalidBinding, field+".bind", "range min %v exceeds max %v", b.Min, b.Max)
		}
	case SelectBinding:
		if len(b.Options) == 0 {
			v.add(ErrInvalidBinding, field+".bind", "select binding needs at least one option")
		}
		for _, val := range p.Value {
			s, ok := val.(string)
			if ok && !slices.Contains(b.Options, s) {
				v.add(ErrInvalidBinding, field+".bind", "default %q is not one of the options", s)
			}
		}
	case ScalesBinding:
		if p.Select != SelectInterval {
			v.add(ErrInvalidBinding, field+".bind", "scales binding requires an interval param")
		}
	default:
		v.add(ErrInvalidBinding, field+".bind", "unknown binding %T", b)
	}
}

func (v *validator) validateLayer(i int, l *Layer) {
	field := fmt.Sprintf("layers[%d]", i)
	if _, ok := v.chart.Datasets[l.Data]; !ok {
		v.add(ErrUnknownDataset, field+".data", "dataset %q is not defined", l.Data)
	}
	if !ValidMarks[l.Mark.Type] {
		v.add(ErrInvalidMark, field+".mark", "unknown mark type %q", l.Mark.Type)
	}

	for j, t := range l.Transforms {
		v.validateTransform(fmt.Sprintf("%s.transforms[%d]", field, j), t)
	}

	for _, nc := range l.Encoding.Channels() {
		v.validateChannel(fmt.Sprintf("%s.encoding.%s", field, nc.Name), nc.Channel)
	}
	for j := range l.Encoding.Tooltip {
		v.validateChannel(fmt.Sprintf("%s.encoding.tooltip[%d]", field, j), &l.Encoding.Tooltip[j])
	}
}

func (v *validator) validateTransform(field string, t Transform) {
	switch tr := t.(type) {
	case Filter:
		switch {
		case tr.Param != "" && tr.Predicate != nil:
			v.add(ErrInvalidTransform, field, "filter sets both param and predicate")
		case tr.Param != "":
			v.requireParam(field, tr.Param)
		case tr.Predicate != nil:
			v.validateExpr(field, tr.Predicate)
		default:
			v.add(ErrInvalidTransform, field, "filter needs a param or a predicate")
		}
	case Lookup:
		if tr.Key == "" || tr.From.Key == "" {
			v.add(ErrInvalidTransform, field, "lookup keys are required")
		}
		if _, ok := v.chart.Datasets[tr.From.Data]; !ok {
			v.add(ErrUnknownDataset, field, "lookup dataset %q is not defined", tr.From.Data)
		}
		if len(tr.From.Fields) == 0 {
			v.add(ErrInvalidTransform, field, "lookup must carry at least one field")
		}
	case Calculate:
		if tr.As == "" {
			v.add(ErrInvalidTransform, field, "calculate needs an output field")
		}
		v.validateExpr(field, tr.Expr)
	default:
		v.add(ErrInvalidTransform, field, "unknown transform %T", t)
	}
}

func (v *validator) validateChannel(field string, c *Channel) {
	if c.Condition == nil {
		return
	}
	cond := c.Condition
	switch {
	case cond.Param != "" && cond.Test != nil:
		v.add(ErrInvalidTransform, field, "condition sets both param and test")
	case cond.Param != "":
		v.requireParam(field, cond.Param)
	case cond.Test != nil:
		v.validateExpr(field, cond.Test)
	default:
		v.add(ErrInvalidTransform, field, "condition needs a param or a test")
	}
}

func (v *validator) validateExpr(field string, e Expr) {
	if e == nil {
		v.add(ErrInvalidTransform, field, "expression is required")
		return
	}
	for _, name := range ParamRefs(e) {
		v.requireParam(field, name)
	}
}

func (v *validator) requireParam(field, name string) {
	if _, ok := v.declared[name]; !ok {
		v.add(ErrUndeclaredParam, field, "param %q is referenced but never declared", name)
	}
}
