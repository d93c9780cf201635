package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wqflow"

// Metrics holds the Prometheus counters, histograms, and gauges for the sizing service.
type Metrics struct {
	SizingRequests *prometheus.CounterVec // labels: mode=reference-scaled, outcome={success,invalid,no_wet_data,error}
	SizingDuration prometheus.Histogram
	ResultCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Reference series metrics.
	ReferenceLoaded    prometheus.Gauge
	ReferenceSamples   prometheus.Gauge
	SimulationDuration prometheus.Histogram
	RainfallStorms     prometheus.Counter

	// Result publishing metrics.
	ResultsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		SizingRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sizing_requests_total",
			Help:      "Q_wq sizing requests by mode and outcome.",
		}, []string{"mode", "outcome"}),
		SizingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sizing_duration_seconds",
			Help:      "Duration of scaling plus capture-curve analysis for one request.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		ResultCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_total",
			Help:      "Sizing result cache lookups by result.",
		}, []string{"result"}),
		ReferenceLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_loaded",
			Help:      "1 when the reference flow series is loaded, 0 otherwise.",
		}),
		ReferenceSamples: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reference_samples",
			Help:      "Number of samples in the loaded reference flow series.",
		}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Wall time of external continuous-simulation runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		RainfallStorms: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rainfall_storms_total",
			Help:      "Synthetic storms placed while generating rainfall artifacts.",
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "results_published_total",
			Help:      "Sizing results written to the results topic.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed attempts to publish sizing results.",
		}),
	}

	prometheus.MustRegister(
		m.SizingRequests,
		m.SizingDuration,
		m.ResultCache,
		m.ReferenceLoaded,
		m.ReferenceSamples,
		m.SimulationDuration,
		m.RainfallStorms,
		m.ResultsPublished,
		m.PublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		SizingRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "sizing_requests_total"}, []string{"mode", "outcome"}),
		SizingDuration:     prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "sizing_duration_seconds"}),
		ResultCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "result_cache_total"}, []string{"result"}),
		ReferenceLoaded:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "reference_loaded"}),
		ReferenceSamples:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "reference_samples"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "simulation_duration_seconds"}),
		RainfallStorms:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "rainfall_storms_total"}),
		ResultsPublished:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "results_published_total"}),
		PublishErrors:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "publish_errors_total"}),
	}
}
