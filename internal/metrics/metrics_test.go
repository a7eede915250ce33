package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_Counters(t *testing.T) {
	m := NewManager()

	m.TickerFetched(200 * time.Millisecond)
	m.TickerFetched(300 * time.Millisecond)
	m.TickerSkipped(10 * time.Millisecond)
	m.ObservationsStored(42)
	m.ChartBuilt("energy_bars")
	m.ArtifactWritten("document")
	m.ArtifactWritten("document")
	m.EventApplied("set")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.tickersFetched))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.tickersSkipped))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.observations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chartsBuilt.WithLabelValues("energy_bars")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.artifactsWritten.WithLabelValues("document")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsApplied.WithLabelValues("set")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.fetchDuration))
}

func TestManager_CustomRegistryAndNamespace(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewManager(WithRegistry(reg), WithNamespace("test"))
	m.PageAssembled(1024)

	assert.Same(t, reg, m.Registry())
	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "test_page_bytes")
}

func TestManager_NilIsNoop(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.TickerFetched(time.Second)
		m.ChartBuilt("x")
		m.PageAssembled(1)
	})
	assert.NoError(t, m.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")))
	assert.Nil(t, m.Registry())
}

func TestManager_WriteTextfile(t *testing.T) {
	m := NewManager()
	m.ChartBuilt("history_map")

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `ledstory_compose_charts_built_total{chart="history_map"} 1`)
}

func TestManager_Handler(t *testing.T) {
	m := NewManager()
	m.ObservationsStored(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ledstory_market_observations_total 3")
}

func TestManager_HistogramBuckets(t *testing.T) {
	m := NewManager(WithHistogramBuckets([]float64{0.5}))
	m.TickerFetched(200 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `ledstory_market_fetch_duration_seconds_bucket{le="0.5"} 1`)
	assert.NotContains(t, string(b), `le="0.005"`)
}
