package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/tonnetz/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Records(t *testing.T) {
	c := metrics.New()

	c.LatticeBuilt(2 * time.Millisecond)
	c.Selected(true)
	c.Selected(false)
	c.Selected(true)
	c.Imported(metrics.ResultOK)
	c.Imported(metrics.ResultUnsupported)
	c.PlayerFailed()

	n, err := testutil.GatherAndCount(c.Registry(),
		"tonnetz_lattice_builds_total",
		"tonnetz_selections_total",
		"tonnetz_midi_imports_total",
		"tonnetz_player_errors_total",
		"tonnetz_lattice_build_seconds",
	)
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(body), `tonnetz_selections_total{activated="true"} 2`)
	assert.Contains(t, string(body), `tonnetz_midi_imports_total{result="unsupported"} 1`)
	assert.Contains(t, string(body), "tonnetz_player_errors_total 1")
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *metrics.Collector
	assert.NotPanics(t, func() {
		c.LatticeBuilt(time.Millisecond)
		c.Selected(true)
		c.Imported(metrics.ResultInvalid)
		c.PlayerFailed()
	})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
