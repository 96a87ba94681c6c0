// Package metrics provides Prometheus metrics collection for the landing
// prediction dashboard. It defines the prediction, artifact, data-fetch and
// HTTP metrics exposed via the Prometheus metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dashboard.
type Metrics struct {
	// Prediction metrics
	PredictionsTotal       *prometheus.CounterVec // Successful predictions by class
	PredictionFailures     *prometheus.CounterVec // Failed predictions by reason
	PredictionLatency      prometheus.Histogram   // End-to-end prediction latency
	PredictionScores       prometheus.Histogram   // Distribution of success probabilities
	UnrecognizedCategories *prometheus.CounterVec // Categorical values outside the trained schema
	ArtifactLoadErrors     prometheus.Counter     // Failed model/scaler loads
	ModelAge               prometheus.Gauge       // Age of the model file when loaded

	// Data acquisition metrics
	FetchesTotal    prometheus.Counter   // Launch API fetch attempts
	FetchFailures   prometheus.Counter   // Failed launch API fetches
	FetchDuration   prometheus.Histogram // Launch API round trip
	LaunchesFetched prometheus.Gauge     // Records in the last successful fetch

	// Dashboard metrics
	HTTPRequests     *prometheus.CounterVec // Requests by route and status code
	WSClients        prometheus.Gauge       // Connected websocket clients
	DashboardQueries prometheus.Counter     // Filter evaluations over the dataset

	// System metrics
	ErrorsTotal prometheus.Counter // Total number of errors encountered
}

// New creates and registers all Prometheus metrics using the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates metrics with a custom registry (useful for testing).
func NewWithRegistry(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of landing predictions by predicted class",
		}, []string{"class"}),
		PredictionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed predictions by reason",
		}, []string{"reason"}),
		PredictionLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_latency_seconds",
			Help:    "Prediction latency in seconds (end-to-end)",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		}),
		PredictionScores: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_scores",
			Help:    "Distribution of predicted landing success probabilities",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		UnrecognizedCategories: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "unrecognized_categories_total",
			Help: "Categorical values with no indicator column in the trained schema",
		}, []string{"field"}),
		ArtifactLoadErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "artifact_load_errors_total",
			Help: "Total number of failed model or scaler loads",
		}),
		ModelAge: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_age_seconds",
			Help: "Age of the loaded model file in seconds at load time",
		}),
		FetchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "launch_fetches_total",
			Help: "Total number of launch API fetch attempts",
		}),
		FetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "launch_fetch_failures_total",
			Help: "Total number of failed launch API fetches",
		}),
		FetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "launch_fetch_duration_seconds",
			Help:    "Duration of launch API fetches in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		LaunchesFetched: factory.NewGauge(prometheus.GaugeOpts{
			Name: "launches_fetched",
			Help: "Number of launch records in the last successful fetch",
		}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of dashboard HTTP requests",
		}, []string{"route", "code"}),
		WSClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ws_clients",
			Help: "Number of connected dashboard websocket clients",
		}),
		DashboardQueries: factory.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_queries_total",
			Help: "Total number of dashboard filter evaluations",
		}),
		ErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors encountered",
		}),
	}
}
