// Package monitor exposes Prometheus metrics for executions and API traffic.
package monitor

import (
	"strconv"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/apiprobe/apiprobe/engine"
)

const namespace = "apiprobe"

var (
	executionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "executions_total",
		Help:      "Executed user requests by mode, outcome and status class.",
	}, []string{"mode", "outcome", "status_class"})

	executionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "execution_duration_seconds",
		Help:      "Wall time of executed user requests.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"mode"})

	executionResponseBytes = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "execution_response_bytes",
		Help:      "Size of upstream response bodies.",
		Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
	}, []string{"mode"})

	apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Requests served by the API.",
	}, []string{"method", "route", "status"})

	apiRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Latency of requests served by the API.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	appInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Build information, value is the start time in unix seconds.",
	}, []string{"version", "go_version"})
)

// InitPrometheusMonitoring registers every collector with reg. Registering twice is not an error.
func InitPrometheusMonitoring(reg prometheus.Registerer, version, goVersion string, startTime time.Time) error {
	for _, c := range []prometheus.Collector{
		executionsTotal, executionDuration, executionResponseBytes,
		apiRequestsTotal, apiRequestDuration, appInfo,
	} {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return errors.Wrap(err, "register prometheus collector")
		}
	}

	appInfo.WithLabelValues(version, goVersion).Set(float64(startTime.Unix()))
	return nil
}

// RecordExecution accounts one finished execution.
func RecordExecution(res *engine.ExecutionResult) {
	if res == nil {
		return
	}
	mode := res.Mode.String()
	outcome := "success"
	if res.Error != nil {
		outcome = res.Error.ErrorType
	}

	executionsTotal.WithLabelValues(mode, outcome, statusClass(res.StatusCode)).Inc()
	executionDuration.WithLabelValues(mode).Observe(res.ExecutionTimeMs / 1000)
	if res.SizeBytes > 0 {
		executionResponseBytes.WithLabelValues(mode).Observe(float64(res.SizeBytes))
	}
}

// RecordAPIRequest accounts one request served by the router. route is the matched pattern, not the raw path.
func RecordAPIRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	apiRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func statusClass(code int) string {
	if code < 100 || code > 599 {
		return "other"
	}
	return strconv.Itoa(code/100) + "xx"
}
