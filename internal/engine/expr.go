package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

// undefinedType marks a value that is absent rather than null: a field the
// row does not have, or a field of an empty selection.
type undefinedType struct{}

var undefined = undefinedType{}

// evalExpr evaluates e against one row and the current state.
// Missing fields and empty selections evaluate to undefined; a field that
// is present with a nil value is null.
func evalExpr(e chartir.Expr, row chartir.Row, st *State) (any, error) {
	switch x := e.(type) {
	case chartir.FieldRef:
		v, ok := row[x.Field]
		if !ok {
			return undefined, nil
		}
		return v, nil
	case chartir.ParamRef:
		return st.paramField(x.Param, x.Field), nil
	case chartir.Literal:
		return x.Value, nil
	case chartir.Compare:
		l, err := evalExpr(x.Left, row, st)
		if err != nil {
			return nil, err
		}
		r, err := evalExpr(x.Right, row, st)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case chartir.OpStrictEq:
			return strictEqual(l, r), nil
		case chartir.OpLooseEq:
			return looseEqual(l, r), nil
		case chartir.OpLooseNeq:
			return !looseEqual(l, r), nil
		default:
			return nil, fmt.Errorf("unsupported comparison %q", x.Op)
		}
	case nil:
		return nil, fmt.Errorf("nil expression")
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

// number converts Go numeric kinds to float64.
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// jsType classifies a value the way typeof does, with time.Time as a number.
func jsType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case undefinedType:
		return "undefined"
	case string:
		return "string"
	case bool:
		return "boolean"
	case time.Time:
		return "number"
	}
	if _, ok := number(v); ok {
		return "number"
	}
	return "object"
}

// toNumber converts a value the way unary + does. Unparseable strings
// become NaN.
func toNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case undefinedType:
		return math.NaN()
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	case time.Time:
		return float64(x.UnixMilli())
	}
	if f, ok := number(v); ok {
		return f
	}
	return math.NaN()
}

// strictEqual implements ===.
func strictEqual(a, b any) bool {
	ta, tb := jsType(a), jsType(b)
	if ta != tb {
		return false
	}
	switch ta {
	case "undefined", "null":
		return true
	case "number":
		return toNumber(a) == toNumber(b)
	case "string":
		return a.(string) == b.(string)
	case "boolean":
		return a.(bool) == b.(bool)
	}
	return false
}

// looseEqual implements ==: null and undefined only equal each other,
// otherwise numbers, numeric strings and booleans compare as numbers.
func looseEqual(a, b any) bool {
	ta, tb := jsType(a), jsType(b)
	if ta == tb {
		return strictEqual(a, b)
	}
	if absent(ta) || absent(tb) {
		return absent(ta) && absent(tb)
	}
	if ta == "object" || tb == "object" {
		return false
	}
	return toNumber(a) == toNumber(b)
}

func absent(typ string) bool {
	return typ == "undefined" || typ == "null"
}

// truthy implements JavaScript truthiness.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil, undefinedType:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case time.Time:
		return true
	}
	if f, ok := number(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// keyString renders a lookup key. Keys match by their string form, so the
// number 840 and the text "840" join.
func keyString(v any) string {
	switch x := v.(type) {
	case nil, undefinedType:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	}
	if f, ok := number(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// dateLayouts are the date forms accepted for temporal fields.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// parseTime reads a temporal value. Strings without a zone are UTC;
// numbers are epoch milliseconds.
func parseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return t.UTC(), true
			}
		}
		return time.Time{}, false
	}
	if f, ok := number(v); ok {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Time{}, false
}

// position maps a value to a number along an axis of the given type.
func position(v any, typ chartir.FieldType) (float64, bool) {
	if v == nil || v == any(undefined) {
		return 0, false
	}
	if typ == chartir.Temporal {
		t, ok := parseTime(v)
		if !ok {
			return 0, false
		}
		return float64(t.UnixMilli()), true
	}
	f := toNumber(v)
	return f, !math.IsNaN(f)
}
