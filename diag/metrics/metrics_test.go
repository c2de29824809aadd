package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessedItems(t *testing.T) {
	rep := NewReporter(nil, log.NewNullLogger()).(*reporter)

	rep.AddProcessedItems(2, "export", OutcomeOk)
	rep.AddProcessedItems(3, "export", OutcomeOk)
	rep.AddProcessedItems(1, "export", OutcomeFailed)

	assert.Equal(t, 2, testutil.CollectAndCount(rep.processedItems))
	assert.Equal(t, float64(5), testutil.ToFloat64(rep.processedItems.WithLabelValues("export", OutcomeOk)))
	assert.Equal(t, float64(1), testutil.ToFloat64(rep.processedItems.WithLabelValues("export", OutcomeFailed)))
}

func TestIntercept(t *testing.T) {
	rep := NewReporter(nil, log.NewNullLogger()).(*reporter)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := http.Client{Transport: Intercept(rep, http.DefaultTransport)}
	resp, err := client.Get(srv.URL + "/v1/organizations/org1")
	require.NoError(t, err)
	_ = resp.Body.Close()
	resp, err = client.Get(srv.URL + "/missing")
	require.NoError(t, err)
	_ = resp.Body.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	assert.Equal(t, 2, testutil.CollectAndCount(rep.clientResponseTime))

	mSrv := httptest.NewServer(promhttp.HandlerFor(rep.Gatherer(), promhttp.HandlerOpts{}))
	defer mSrv.Close()
	resp, err = http.Get(mSrv.URL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Contains(t, string(body), `edgeadmin_http_client_request_duration_seconds_count{host="`+host+`",method="GET",status="200"} 1`)
	assert.Contains(t, string(body), `edgeadmin_http_client_request_duration_seconds_count{host="`+host+`",method="GET",status="404"} 1`)
}

func TestFinish_Disabled(t *testing.T) {
	rep := NewReporter(&config.MetricsConfig{}, log.NewNullLogger())
	assert.NoError(t, rep.Finish(t.Context()))
}

func TestFinish_Textfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "edgeadmin.prom")
	rep := NewReporter(&config.MetricsConfig{Textfile: path}, log.NewNullLogger())
	rep.AddProcessedItems(4, "baas-load", OutcomeOk)

	require.NoError(t, rep.Finish(t.Context()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `edgeadmin_items_processed_total{command="baas-load",outcome="ok"} 4`)
}

func TestFinish_Pushgateway(t *testing.T) {
	var pushedPath atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushedPath.Store(r.Method + " " + r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rep := NewReporter(&config.MetricsConfig{Pushgateway: srv.URL, Job: "nightly"}, log.NewNullLogger())
	rep.AddProcessedItems(1, "export", OutcomeOk)

	require.NoError(t, rep.Finish(t.Context()))
	assert.Equal(t, "PUT /metrics/job/nightly", pushedPath.Load())
}

func TestFinish_PushgatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rep := NewReporter(&config.MetricsConfig{Pushgateway: srv.URL, Job: "nightly"}, log.NewNullLogger())
	assert.ErrorContains(t, rep.Finish(t.Context()), "metrics: failed to push to")
}
