// Package metrics exposes Prometheus metrics for price runs.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"SpotSentinel/internal/model"
)

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal      *prometheus.CounterVec
	FetchDuration  *prometheus.HistogramVec
	SamplesKept    *prometheus.GaugeVec
	SamplesDropped *prometheus.CounterVec
	LastMean       *prometheus.GaugeVec
	LastMin        *prometheus.GaugeVec
	LastMax        *prometheus.GaugeVec
	LastSuccess    *prometheus.GaugeVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates Metrics on a private registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "spot_sentinel"
	}
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by region and result",
		}, []string{"region", "result"}),
		FetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Help:      "Price API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"region"}),
		SamplesKept: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "samples_kept",
			Help:      "Samples on the requested local day in the last run",
		}, []string{"region"}),
		SamplesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_dropped_total",
			Help:      "Samples dropped because their timestamp could not be converted",
		}, []string{"region"}),
		LastMean: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price_mean",
			Help:      "Mean price of the last reported day",
		}, []string{"region", "unit"}),
		LastMin: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price_min",
			Help:      "Lowest price of the last reported day",
		}, []string{"region", "unit"}),
		LastMax: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price_max",
			Help:      "Highest price of the last reported day",
		}, []string{"region", "unit"}),
		LastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}, []string{"region"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP API requests by method, route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP API latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		m.RunsTotal, m.FetchDuration, m.SamplesKept, m.SamplesDropped,
		m.LastMean, m.LastMin, m.LastMax, m.LastSuccess,
		m.HTTPRequests, m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFetch records the latency of one price request.
func (m *Metrics) ObserveFetch(region string, d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.WithLabelValues(region).Observe(d.Seconds())
}

// ObserveReport records a successful run.
func (m *Metrics) ObserveReport(r *model.DayReport) {
	if m == nil || r == nil {
		return
	}
	m.RunsTotal.WithLabelValues(r.Region, "ok").Inc()
	m.SamplesKept.WithLabelValues(r.Region).Set(float64(r.Summary.Count))
	m.SamplesDropped.WithLabelValues(r.Region).Add(float64(r.Dropped))
	m.LastSuccess.WithLabelValues(r.Region).Set(float64(r.GeneratedAt.Unix()))
	if !r.Summary.Empty() {
		m.LastMean.WithLabelValues(r.Region, r.Series.Unit).Set(r.Summary.Mean)
		m.LastMin.WithLabelValues(r.Region, r.Series.Unit).Set(r.Summary.Min)
		m.LastMax.WithLabelValues(r.Region, r.Series.Unit).Set(r.Summary.Max)
	}
}

// ObserveFailure records a failed run, labelled by error kind.
func (m *Metrics) ObserveFailure(region string, err error) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(region, ErrorKind(err)).Inc()
}

// RecordHTTPRequest records one served API request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ErrorKind classifies a pipeline error for labels and logs.
func ErrorKind(err error) string {
	var te *model.TransportError
	var de *model.DecodeError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &te):
		return "transport_error"
	case errors.As(err, &de):
		return "decode_error"
	default:
		return "error"
	}
}
