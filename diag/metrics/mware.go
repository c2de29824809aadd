package metrics

import (
	"net/http"
	"strconv"
	"time"
)

type clientInterceptor struct {
	http.RoundTripper
	metricsReporter Reporter
}

// Intercept measures every request sent through transport.
func Intercept(metricsReporter Reporter, transport http.RoundTripper) http.RoundTripper {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &clientInterceptor{metricsReporter: metricsReporter, RoundTripper: transport}
}

func (i *clientInterceptor) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := i.RoundTripper.RoundTrip(r)
	duration := time.Since(start)
	stat := "error"
	if err == nil {
		stat = strconv.Itoa(resp.StatusCode)
	}
	i.metricsReporter.(*reporter).clientResponseTime.WithLabelValues(r.URL.Host, r.Method, stat).Observe(duration.Seconds())
	return resp, err
}
