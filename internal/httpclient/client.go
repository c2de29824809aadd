package httpclient

import (
	"net/http"
	"net/url"
	"time"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/diag/metrics"
	"github.com/edgeadmin/edgeadmin/diag/status"
	"github.com/edgeadmin/edgeadmin/diag/telemetry"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/motemen/go-loghttp"
)

// Options collects the dependencies shared by the management, portal and BaaS clients.
type Options struct {
	Proxy     *config.HttpProxyConfig
	Timeout   time.Duration
	Verbose   bool
	Metrics   metrics.Reporter
	Telemetry telemetry.Reporter
	Status    status.Reporter
	Log       log.Logger
}

// New builds an HTTP client on top of Transport.
func New(opts Options, attributes ...telemetry.KV) *http.Client {
	return &http.Client{
		Transport: Transport(opts, attributes...),
		Timeout:   opts.Timeout,
	}
}

// Transport stacks, from the innermost: proxy, request logging, target status, metrics, tracing.
// The status of the remote system is reported under the value of the "target" attribute.
func Transport(opts Options, attributes ...telemetry.KV) http.RoundTripper {
	logger := opts.Log
	if logger == nil {
		logger = log.NewNullLogger()
	}
	logger = logger.WithPrefix("http")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != nil && opts.Proxy.Url != "" {
		proxyUrl, err := url.Parse(opts.Proxy.Url)
		if err != nil {
			logger.Errorf("failed to parse proxy url: %s", opts.Proxy.Url)
		} else {
			transport.Proxy = http.ProxyURL(proxyUrl)
			logger.Reportf("using HTTP proxy: %s", opts.Proxy.Url)
		}
	}

	var rt http.RoundTripper = transport
	if opts.Verbose {
		rt = &loghttp.Transport{
			Transport: rt,
			LogRequest: func(req *http.Request) {
				logger.Debugf("--> %s %s", req.Method, req.URL)
			},
			LogResponse: func(resp *http.Response) {
				logger.Debugf("<-- %d %s", resp.StatusCode, resp.Request.URL)
			},
		}
	}
	if opts.Status != nil {
		if target := targetOf(attributes); target != "" {
			rt = status.Intercept(target, opts.Status, rt)
		}
	}
	if opts.Metrics != nil {
		rt = metrics.Intercept(opts.Metrics, rt)
	}
	if opts.Telemetry != nil {
		rt = opts.Telemetry.InstrumentHttpClient(rt, attributes...)
	}
	return rt
}

func targetOf(attributes []telemetry.KV) string {
	for _, kv := range attributes {
		if kv.Key == "target" {
			return string(kv.Value)
		}
	}
	return ""
}
