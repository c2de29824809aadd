package metrics

import (
	"context"
	"fmt"

	"github.com/edgeadmin/edgeadmin/config"
	"github.com/edgeadmin/edgeadmin/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	OutcomeOk      = "ok"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

type Reporter interface {
	AddProcessedItems(count int, command string, outcome string)

	Gatherer() prometheus.Gatherer
	// Finish hands the collected metrics to the configured pushgateway and/or textfile.
	Finish(ctx context.Context) error
}

type reporter struct {
	conf               *config.MetricsConfig
	registry           *prometheus.Registry
	clientResponseTime *prometheus.HistogramVec
	processedItems     *prometheus.CounterVec
	log                log.Logger
}

func NewReporter(conf *config.MetricsConfig, log log.Logger) Reporter {
	reg := prometheus.NewRegistry()

	clientRespTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "edgeadmin",
		Name:      "http_client_request_duration_seconds",
		Help:      "Histogram of management, portal and BaaS API response time in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"host", "method", "status"})

	processedItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "edgeadmin",
		Name:      "items_processed_total",
		Help:      "Total number of items (bundles, users, entities, policies) handled by a command.",
	}, []string{"command", "outcome"})

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		clientRespTime,
		processedItems,
	)

	return &reporter{
		conf:               conf,
		registry:           reg,
		clientResponseTime: clientRespTime,
		processedItems:     processedItems,
		log:                log.WithPrefix("metrics"),
	}
}

func (r *reporter) AddProcessedItems(count int, command string, outcome string) {
	r.processedItems.WithLabelValues(command, outcome).Add(float64(count))
}

func (r *reporter) Gatherer() prometheus.Gatherer {
	return r.registry
}

func (r *reporter) Finish(ctx context.Context) error {
	if r.conf == nil || !r.conf.IsEnabled() {
		return nil
	}
	if r.conf.Textfile != "" {
		if err := prometheus.WriteToTextfile(r.conf.Textfile, r.registry); err != nil {
			return fmt.Errorf("metrics: failed to write textfile %s: %s", r.conf.Textfile, err)
		}
		r.log.Debugf("metrics written to %s", r.conf.Textfile)
	}
	if r.conf.Pushgateway != "" {
		err := push.New(r.conf.Pushgateway, r.conf.Job).Gatherer(r.registry).PushContext(ctx)
		if err != nil {
			return fmt.Errorf("metrics: failed to push to %s: %s", r.conf.Pushgateway, err)
		}
		r.log.Debugf("metrics pushed to %s as job %s", r.conf.Pushgateway, r.conf.Job)
	}
	return nil
}
