package status

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReporter() *reporter {
	return newReporter(func() time.Time { return time.Date(2016, time.June, 7, 19, 50, 19, 0, time.UTC) })
}

func TestReporter_Initializing(t *testing.T) {
	rep := newTestReporter()
	srv := httptest.NewServer(rep.HttpHandler())
	defer srv.Close()

	stat := readStatus(t, srv.URL)
	assert.Equal(t, Initializing, stat.Status)
	assert.Equal(t, "Tue, 07 Jun 2016 19:50:19 UTC", stat.Started)
	assert.Empty(t, stat.Targets)
}

func TestReporter_Healthy(t *testing.T) {
	rep := newTestReporter()
	rep.SetCommand("find-api-key")
	rep.ReportOk(Management, "GET 200 OK")

	stat := rep.GetStatus()
	assert.Equal(t, Healthy, stat.Status)
	assert.Equal(t, "find-api-key", stat.Command)
	require.Contains(t, stat.Targets, Management)
	assert.Equal(t, Healthy, stat.Targets[Management].Status)
	assert.Equal(t, []string{"Tue, 07 Jun 2016 19:50:19 UTC: [ok] GET 200 OK"}, stat.Targets[Management].Records)
}

func TestReporter_DownThenRecovered(t *testing.T) {
	rep := newTestReporter()
	rep.ReportError(Portal, "POST failed")
	assert.Equal(t, Down, rep.GetStatus().Targets[Portal].Status)
	assert.Equal(t, Down, rep.GetStatus().Status)

	rep.ReportOk(Portal, "POST 200 OK")
	assert.Equal(t, Healthy, rep.GetStatus().Targets[Portal].Status)
	assert.Equal(t, Healthy, rep.GetStatus().Status)
}

func TestReporter_Degraded_Calc(t *testing.T) {
	rep := newTestReporter()
	rep.ReportOk(Management, "GET 200 OK")
	rep.ReportOk(BaaS, "GET 200 OK")

	rep.ReportError(Management, "unexpected response received: 503 Service Unavailable")
	assert.Equal(t, Healthy, rep.GetStatus().Targets[Management].Status)

	rep.ReportError(Management, "unexpected response received: 503 Service Unavailable")
	stat := rep.GetStatus()
	assert.Equal(t, Degraded, stat.Targets[Management].Status)
	assert.Equal(t, Healthy, stat.Targets[BaaS].Status)
	assert.Equal(t, Degraded, stat.Status)

	rep.ReportOk(Management, "GET 200 OK")
	assert.Equal(t, Healthy, rep.GetStatus().Targets[Management].Status)
	assert.Equal(t, Healthy, rep.GetStatus().Status)
}

func TestReporter_MaxRecords(t *testing.T) {
	rep := newTestReporter()
	for i := 0; i < maxRecordCount+3; i++ {
		rep.ReportOk(BaaS, "GET 200 OK")
	}
	assert.Len(t, rep.GetStatus().Targets[BaaS].Records, maxRecordCount)
	assert.Len(t, rep.records[BaaS], maxRecordCount)
}

func TestReporter_Snapshot(t *testing.T) {
	rep := newTestReporter()
	rep.ReportOk(Management, "GET 200 OK")
	snapshot := rep.GetStatus()

	rep.ReportError(Management, "GET failed")
	rep.ReportError(Management, "GET failed")
	assert.Equal(t, Healthy, snapshot.Targets[Management].Status)
	assert.Len(t, snapshot.Targets[Management].Records, 1)
}

func readStatus(t *testing.T, url string) Status {
	resp, err := http.Get(url)
	require.NoError(t, err)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	var stat Status
	require.NoError(t, json.Unmarshal(body, &stat))
	return stat
}
