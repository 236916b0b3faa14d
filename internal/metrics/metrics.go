package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds all Prometheus metrics for togglr-admin
type Metrics struct {
	// Dashboard gauges
	FeaturesTotal     prometheus.Gauge
	FeaturesActive    prometheus.Gauge
	FeaturesInactive  prometheus.Gauge
	EnvironmentsTotal prometheus.Gauge
	NamespacesTotal   prometheus.Gauge
	UsersTotal        prometheus.Gauge
	DashboardUp       prometheus.Gauge
	ScrapeDuration    prometheus.Gauge
	LastScrape        prometheus.Gauge

	// Outgoing API client metrics
	ClientRequestsTotal          *prometheus.CounterVec
	ClientRequestDurationSeconds *prometheus.HistogramVec
	ClientErrorsTotal            *prometheus.CounterVec

	// Exporter HTTP metrics
	HTTPRequestsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		FeaturesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "togglr_features_total",
			Help: "Number of features known to the backend",
		}),
		FeaturesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "togglr_features_active",
			Help: "Number of enabled features",
		}),
		FeaturesInactive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "togglr_features_inactive",
			Help: "Number of disabled features",
		}),
		EnvironmentsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "togglr_environments_total",
			Help: "Number of environments",
		}),
		NamespacesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "togglr_namespaces_total",
			Help: "Number of namespaces",
		}),
		UsersTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "togglr_users_total",
			Help: "Number of users",
		}),
		DashboardUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "togglr_dashboard_up",
			Help: "Whether the last dashboard poll succeeded (1) or failed (0)",
		}),
		ScrapeDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "togglr_dashboard_scrape_duration_seconds",
			Help: "Duration of the last dashboard poll",
		}),
		LastScrape: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "togglr_dashboard_last_scrape_timestamp_seconds",
			Help: "Unix time of the last successful dashboard poll",
		}),

		ClientRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "togglr_client_requests_total",
				Help: "Total number of requests sent to the Togglr API",
			},
			[]string{"method", "path", "status"},
		),
		ClientRequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "togglr_client_request_duration_seconds",
				Help:    "Togglr API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		ClientErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "togglr_client_errors_total",
				Help: "Total number of failed Togglr API requests by type",
			},
			[]string{"type"},
		),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "togglr_exporter_http_requests_total",
				Help: "Total number of HTTP requests served by the exporter",
			},
			[]string{"method", "path", "status"},
		),

		registry: reg,
	}

	reg.MustRegister(
		m.FeaturesTotal,
		m.FeaturesActive,
		m.FeaturesInactive,
		m.EnvironmentsTotal,
		m.NamespacesTotal,
		m.UsersTotal,
		m.DashboardUp,
		m.ScrapeDuration,
		m.LastScrape,
		m.ClientRequestsTotal,
		m.ClientRequestDurationSeconds,
		m.ClientErrorsTotal,
		m.HTTPRequestsTotal,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
