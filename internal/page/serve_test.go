package page

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jiaxingx0718/ledstory/internal/metrics"
)

func TestRouter_ServesSite(t *testing.T) {
	f := newFixture(t)
	_, err := Assemble(f.story, Options{OutDir: f.out, AssetDir: f.assets})
	require.NoError(t, err)

	m := metrics.NewManager()
	m.ChartBuilt("energy_bars")
	srv := httptest.NewServer(NewRouter(f.out, ServeOptions{Metrics: m}))
	defer srv.Close()

	get := func(path string) (int, string) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	code, body := get("/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "<h1>The Evolution of LED</h1>")

	code, body = get("/charts/energy_bars.html")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "vega-embed@6")

	code, body = get("/assets/icons.png")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "png", body)

	code, _ = get("/manifest.json")
	assert.Equal(t, http.StatusNotFound, code, "manifest is only present after a full build")

	code, body = get("/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "ledstory_compose_charts_built_total")

	code, _ = get("/healthz")
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_CORS(t *testing.T) {
	srv := httptest.NewServer(NewRouter(t.TempDir(), ServeOptions{AllowedOrigins: []string{"https://example.test"}}))
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.test")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "https://example.test", resp.Header.Get("Access-Control-Allow-Origin"))
}
