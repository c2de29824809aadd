package status

import (
	"fmt"
	"net/http"
)

type clientInterceptor struct {
	http.RoundTripper

	reporter Reporter
	target   string
}

// Intercept records the outcome of every request sent to target. Client errors
// other than authentication failures are answers, not outages.
func Intercept(target string, reporter Reporter, transport http.RoundTripper) http.RoundTripper {
	return &clientInterceptor{reporter: reporter, RoundTripper: transport, target: target}
}

func (i *clientInterceptor) RoundTrip(r *http.Request) (*http.Response, error) {
	resp, err := i.RoundTripper.RoundTrip(r)
	if err != nil {
		i.reporter.ReportError(i.target, fmt.Sprintf("%s %s failed", r.Method, r.URL.Path))
		return resp, err
	}
	switch {
	case resp.StatusCode >= http.StatusInternalServerError,
		resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden:
		i.reporter.ReportError(i.target, fmt.Sprintf("unexpected response received: %s", resp.Status))
	default:
		i.reporter.ReportOk(i.target, fmt.Sprintf("%s %s", r.Method, resp.Status))
	}
	return resp, err
}
