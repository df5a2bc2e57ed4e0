package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discflight/discimg/internal/metrics"
)

func TestHandlerHealthz(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(metrics.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}

func TestHandlerExposesPipelineCounters(t *testing.T) {
	t.Parallel()

	metrics.RecordsSelected.Add(5)
	metrics.Failures.WithLabelValues("fetch").Inc()

	srv := httptest.NewServer(metrics.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "discimg_records_selected_total")
	assert.Contains(t, string(body), `discimg_failures_total{stage="fetch"}`)
}
