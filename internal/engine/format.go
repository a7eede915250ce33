package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jiaxingx0718/ledstory/internal/chartir"
)

// formatValue renders v with a channel format the way the browser would
// label it. Numeric formats support ".Nf" and "d"; temporal formats
// support the strftime-style directives used by the charts.
func formatValue(v any, typ chartir.FieldType, format string) any {
	if format == "" || v == nil {
		return v
	}
	if typ == chartir.Temporal {
		t, ok := parseTime(v)
		if !ok {
			return v
		}
		return formatTime(t, format)
	}
	f, ok := number(v)
	if !ok {
		return v
	}
	switch {
	case strings.HasPrefix(format, ".") && strings.HasSuffix(format, "f"):
		digits, err := strconv.Atoi(format[1 : len(format)-1])
		if err != nil {
			return v
		}
		return strconv.FormatFloat(f, 'f', digits, 64)
	case format == "d":
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return fmt.Sprint(v)
}

var timeDirectives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'b': "Jan",
	'B': "January",
	'H': "15",
	'M': "04",
	'S': "05",
}

// formatTime expands %-directives in UTC. Unknown directives are kept.
func formatTime(t time.Time, format string) string {
	var b strings.Builder
	t = t.UTC()
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 == len(format) {
			b.WriteByte(c)
			continue
		}
		i++
		if layout, ok := timeDirectives[format[i]]; ok {
			b.WriteString(t.Format(layout))
		} else if format[i] == '%' {
			b.WriteByte('%')
		} else {
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
