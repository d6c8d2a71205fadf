package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dataset server.
type Metrics struct {
	DatasetsLoaded  prometheus.Gauge
	DatasetOpens    *prometheus.CounterVec // labels: outcome={success,error}
	DatasetCache    *prometheus.CounterVec // labels: result={hit,miss}
	CatalogRefresh  prometheus.Counter
	CatalogReady    prometheus.Gauge
	NormalizeErrors prometheus.Counter

	// Rendering metrics.
	RenderRequests *prometheus.CounterVec   // labels: kind={raster,mesh,nodes,timeseries}, outcome={success,error}
	RenderCache    *prometheus.CounterVec   // labels: result={hit,miss}
	RenderDuration *prometheus.HistogramVec // labels: kind

	// Basemap tile proxy metrics.
	TileRequests *prometheus.CounterVec // labels: outcome={success,error}
	TileCache    *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all server metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		DatasetsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "thalassa",
			Name:      "datasets_loaded",
			Help:      "Number of datasets currently in the catalog.",
		}),
		DatasetOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thalassa",
			Name:      "dataset_opens_total",
			Help:      "Dataset open attempts by outcome.",
		}, []string{"outcome"}),
		DatasetCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thalassa",
			Name:      "dataset_cache_total",
			Help:      "Dataset cache lookups by result.",
		}, []string{"result"}),
		CatalogRefresh: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thalassa",
			Name:      "catalog_refresh_total",
			Help:      "Total catalog rescans of the data directory.",
		}),
		CatalogReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "thalassa",
			Name:      "catalog_ready",
			Help:      "1 when the initial catalog scan has completed.",
		}),
		NormalizeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "thalassa",
			Name:      "normalize_errors_total",
			Help:      "Total files that failed schema normalization.",
		}),
		RenderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thalassa",
			Name:      "render_requests_total",
			Help:      "Render requests by kind and outcome.",
		}, []string{"kind", "outcome"}),
		RenderCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thalassa",
			Name:      "render_cache_total",
			Help:      "Render cache lookups by result.",
		}, []string{"result"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "thalassa",
			Name:      "render_duration_seconds",
			Help:      "Time spent producing an image.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"kind"}),
		TileRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thalassa",
			Name:      "tile_requests_total",
			Help:      "Upstream basemap tile requests by outcome.",
		}, []string{"outcome"}),
		TileCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "thalassa",
			Name:      "tile_cache_total",
			Help:      "Basemap tile cache lookups by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.DatasetsLoaded,
		m.DatasetOpens,
		m.DatasetCache,
		m.CatalogRefresh,
		m.CatalogReady,
		m.NormalizeErrors,
		m.RenderRequests,
		m.RenderCache,
		m.RenderDuration,
		m.TileRequests,
		m.TileCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics without touching the default registry
// to avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		DatasetsLoaded:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "thalassa", Name: "datasets_loaded"}),
		DatasetOpens:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "thalassa", Name: "dataset_opens_total"}, []string{"outcome"}),
		DatasetCache:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "thalassa", Name: "dataset_cache_total"}, []string{"result"}),
		CatalogRefresh:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "thalassa", Name: "catalog_refresh_total"}),
		CatalogReady:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "thalassa", Name: "catalog_ready"}),
		NormalizeErrors: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "thalassa", Name: "normalize_errors_total"}),
		RenderRequests:  prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "thalassa", Name: "render_requests_total"}, []string{"kind", "outcome"}),
		RenderCache:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "thalassa", Name: "render_cache_total"}, []string{"result"}),
		RenderDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "thalassa", Name: "render_duration_seconds"}, []string{"kind"}),
		TileRequests:    prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "thalassa", Name: "tile_requests_total"}, []string{"outcome"}),
		TileCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "thalassa", Name: "tile_cache_total"}, []string{"result"}),
	}
}
