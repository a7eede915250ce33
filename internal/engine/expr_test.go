package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

func TestStrictEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"int and float", 1960, 1960.0, true},
		{"string and number", "1960", 1960.0, false},
		{"both nil", nil, nil, true},
		{"null and undefined", nil, undefined, false},
		{"both undefined", undefined, undefined, true},
		{"nil and number", nil, 0.0, false},
		{"strings", "led", "led", true},
		{"NaN", math.NaN(), math.NaN(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, strictEqual(tt.a, tt.b))
		})
	}
}

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"numeric string and number", "840", 840, true},
		{"leading zeros", "010", 10, true},
		{"different strings", "abc", "010", false},
		{"nil and empty string", nil, "", false},
		{"bool and number", true, 1.0, true},
		{"nil and nil", nil, nil, true},
		{"null and undefined", nil, undefined, true},
		{"undefined and zero", undefined, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, looseEqual(tt.a, tt.b))
		})
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(""))
	assert.False(t, truthy(0))
	assert.False(t, truthy(math.NaN()))
	assert.False(t, truthy(false))
	assert.False(t, truthy(undefined))
	assert.True(t, truthy("0"))
	assert.True(t, truthy(-1.5))
	assert.True(t, truthy(true))
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "840", keyString(840))
	assert.Equal(t, "840", keyString(840.0))
	assert.Equal(t, "840", keyString("840"))
	assert.Equal(t, "", keyString(nil))
	assert.Equal(t, "2.5", keyString(2.5))
}

func TestEvalExpr(t *testing.T) {
	st := &State{sel: map[string]Selection{
		"Year":  {Tuples: []chartir.Row{{"year": 1960.0}}},
		"Empty": {},
	}}
	row := chartir.Row{"decade": 1960, "id": "010"}

	tests := []struct {
		name string
		expr chartir.Expr
		want any
	}{
		{"field", chartir.FieldRef{Field: "decade"}, 1960},
		{"missing field", chartir.FieldRef{Field: "nope"}, undefined},
		{"param field", chartir.ParamRef{Param: "Year", Field: "year"}, 1960.0},
		{"empty param", chartir.ParamRef{Param: "Empty", Field: "year"}, undefined},
		{"literal", chartir.Literal{Value: "x"}, "x"},
		{
			"strict compare to param",
			chartir.Compare{Op: chartir.OpStrictEq, Left: chartir.FieldRef{Field: "decade"}, Right: chartir.ParamRef{Param: "Year", Field: "year"}},
			true,
		},
		{
			"loose inequality",
			chartir.Compare{Op: chartir.OpLooseNeq, Left: chartir.FieldRef{Field: "id"}, Right: chartir.Literal{Value: "010"}},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalExpr(tt.expr, row, st)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalExpr_Errors(t *testing.T) {
	st := &State{sel: map[string]Selection{}}

	_, err := evalExpr(nil, chartir.Row{}, st)
	assert.Error(t, err)

	_, err = evalExpr(chartir.Compare{Op: "<", Left: chartir.Literal{Value: 1}, Right: chartir.Literal{Value: 2}}, chartir.Row{}, st)
	assert.Error(t, err)
}

func TestPosition(t *testing.T) {
	feb, ok := position("2020-02", chartir.Temporal)
	require.True(t, ok)
	mar, ok := position("2020-03-01", chartir.Temporal)
	require.True(t, ok)
	assert.Less(t, feb, mar)

	_, ok = position("not a date", chartir.Temporal)
	assert.False(t, ok)

	v, ok := position("12.5", chartir.Quantitative)
	require.True(t, ok)
	assert.Equal(t, 12.5, v)
}
