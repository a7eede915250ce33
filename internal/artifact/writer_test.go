package artifact

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaxingx0718/ledstory/internal/ir"
	"github.com/jiaxingx0718/ledstory/internal/metrics"
	"github.com/jiaxingx0718/ledstory/internal/vegalite"
)

func testSpec() vegalite.Spec {
	return vegalite.Spec{
		"$schema": ir.VegaLiteSchema,
		"mark":    "bar",
		"title":   "Tom & Jerry </script>",
		"data":    map[string]any{"values": []any{map[string]any{"a": 1}}},
	}
}

func fixedNow() time.Time {
	return time.Date(2024, time.May, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
}

func TestWriteChart_WritesSpecAndDocument(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, NewFixedGenerator("run-1").Generate())

	entry, err := w.WriteChart("energy_bars", testSpec())
	require.NoError(t, err)

	assert.Equal(t, "charts/energy_bars.html", entry.Document)
	assert.Equal(t, "charts/energy_bars.vl.json", entry.Spec)
	assert.Equal(t, ir.MustArtifactID(testSpec()), entry.ID)

	specJSON, err := os.ReadFile(filepath.Join(dir, "charts", "energy_bars.vl.json"))
	require.NoError(t, err)
	assert.Contains(t, string(specJSON), `"title": "Tom & Jerry </script>"`, "spec file is not HTML-escaped")

	doc, err := os.ReadFile(filepath.Join(dir, "charts", "energy_bars.html"))
	require.NoError(t, err)
	assert.Equal(t, entry.Bytes, len(doc))
	html := string(doc)
	for _, lib := range []string{"vega@5", "vega-lite@5", "vega-embed@6"} {
		assert.Contains(t, html, "https://cdn.jsdelivr.net/npm/"+lib)
	}
	assert.Contains(t, html, `"mark":"bar"`)
	assert.Contains(t, html, `Tom & Jerry \u003c/script>`)
	assert.Equal(t, 1, strings.Count(html, "</script>\n</body>"))
}

func TestRenderDocument_EscapesMarkupInSpec(t *testing.T) {
	spec := vegalite.Spec{
		"mark":        "text",
		"title":       "<!-- <script>",
		"description": "a < b </script><b>",
	}
	doc, err := RenderDocument("escaping", spec)
	require.NoError(t, err)
	html := string(doc)

	start := strings.Index(html, "var spec = ")
	require.Greater(t, start, 0)
	end := strings.Index(html[start:], ";\n")
	require.Greater(t, end, 0)
	inline := html[start : start+end]

	assert.NotContains(t, inline, "<", "no raw '<' inside the inline spec")
	assert.Contains(t, inline, `"title":"\u003c!-- \u003cscript>"`)
	assert.Contains(t, inline, `"description":"a \u003c b \u003c/script>\u003cb>"`)
	assert.Equal(t, 4, strings.Count(html, "<script"), "three CDN scripts and the inline one")
}

func TestWriteChart_SameSpecSameID(t *testing.T) {
	a, err := NewWriter(t.TempDir(), "a").WriteChart("x", testSpec())
	require.NoError(t, err)
	b, err := NewWriter(t.TempDir(), "b").WriteChart("x", testSpec())
	require.NoError(t, err)

	assert.Equal(t, a.ID, b.ID)
}

func TestWriteChart_RejectsPathNames(t *testing.T) {
	w := NewWriter(t.TempDir(), "run")
	_, err := w.WriteChart("../escape", testSpec())
	assert.Error(t, err)
	_, err = w.WriteChart("", testSpec())
	assert.Error(t, err)
}

func TestWriteManifest_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	m := metrics.NewManager()
	w := NewWriter(dir, "run-7", WithNow(fixedNow), WithMetrics(m))

	_, err := w.WriteChart("energy_bars", testSpec())
	require.NoError(t, err)
	_, err = w.WriteChart("history_map", testSpec())
	require.NoError(t, err)
	_, err = w.WriteChart("energy_bars", testSpec())
	require.NoError(t, err)
	w.SetPage("index.html")
	w.SetStory("story-hash")

	path, err := w.WriteManifest()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ManifestFile), path)

	got, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, "run-7", got.RunID)
	assert.Equal(t, ir.ToolVersion, got.ToolVersion)
	assert.Equal(t, ir.IRVersion, got.IRVersion)
	assert.Equal(t, "2024-05-01T10:00:00Z", got.GeneratedAt)
	assert.Equal(t, "index.html", got.Page)
	assert.Equal(t, "story-hash", got.Story)
	require.Len(t, got.Charts, 2, "rewriting a chart replaces its entry")
	assert.Equal(t, "energy_bars", got.Charts[0].Name)

	entry, ok := got.Lookup("history_map")
	require.True(t, ok)
	assert.Equal(t, "charts/history_map.html", entry.Document)

	assert.Equal(t, w.Manifest(), *got)
}

func TestReadManifest_Missing(t *testing.T) {
	_, err := ReadManifest(t.TempDir())
	assert.Error(t, err)
}
