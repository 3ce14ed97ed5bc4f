package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons used as label values on pipeline_observations_dropped_total.
const (
	DropReasonBBox      = "bbox"
	DropReasonQuality   = "quality"
	DropReasonLand      = "land"
	DropReasonIntegrity = "integrity"
)

// PipelineCollector bundles Prometheus metrics for the ingest/aggregate
// pipeline and provides a ready-to-serve /metrics handler.
type PipelineCollector struct {
	gatherer prometheus.Gatherer

	FilesRead         prometheus.Counter
	FileErrors        prometheus.Counter
	ObservationsKept  prometheus.Counter
	ObservationsDrops *prometheus.CounterVec

	IngestDuration    prometheus.Histogram
	AggregateDuration *prometheus.HistogramVec

	GridCellsPopulated prometheus.Gauge
}

// NewPipelineCollector registers pipeline Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewPipelineCollector(reg prometheus.Registerer) (*PipelineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	filesRead, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_files_read_total",
		Help: "Total number of source files successfully ingested.",
	}), "pipeline_files_read_total")
	if err != nil {
		return nil, err
	}
	fileErrors, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_file_errors_total",
		Help: "Total number of source files that failed ingestion.",
	}), "pipeline_file_errors_total")
	if err != nil {
		return nil, err
	}
	kept, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pipeline_observations_kept_total",
		Help: "Total number of observation rows that survived screening.",
	}), "pipeline_observations_kept_total")
	if err != nil {
		return nil, err
	}

	drops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pipeline_observations_dropped_total",
		Help: "Total number of observation rows dropped, labeled by reason.",
	}, []string{"reason"})
	drops, err = registerCounterVec(reg, drops, "pipeline_observations_dropped_total")
	if err != nil {
		return nil, err
	}

	ingestDur, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipeline_ingest_duration_seconds",
		Help:    "Wall-clock time spent ingesting one source file.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}), "pipeline_ingest_duration_seconds")
	if err != nil {
		return nil, err
	}

	aggDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pipeline_aggregate_duration_seconds",
		Help:    "Wall-clock time spent aggregating a run, labeled by method.",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"method"})
	aggDur, err = registerHistogramVec(reg, aggDur, "pipeline_aggregate_duration_seconds")
	if err != nil {
		return nil, err
	}

	cells, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pipeline_grid_cells_populated",
		Help: "Number of grid cells with data after the most recent aggregation.",
	}), "pipeline_grid_cells_populated")
	if err != nil {
		return nil, err
	}

	return &PipelineCollector{
		gatherer:           gatherer,
		FilesRead:          filesRead,
		FileErrors:         fileErrors,
		ObservationsKept:   kept,
		ObservationsDrops:  drops,
		IngestDuration:     ingestDur,
		AggregateDuration:  aggDur,
		GridCellsPopulated: cells,
	}, nil
}

// ObserveIngest records one completed file ingestion.
func (c *PipelineCollector) ObserveIngest(kept int, dropped map[string]int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.FilesRead.Inc()
	c.ObservationsKept.Add(float64(kept))
	for reason, n := range dropped {
		c.ObservationsDrops.WithLabelValues(reason).Add(float64(n))
	}
	c.IngestDuration.Observe(elapsed.Seconds())
}

// ObserveAggregate records one completed aggregation pass.
func (c *PipelineCollector) ObserveAggregate(method string, populatedCells int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.AggregateDuration.WithLabelValues(method).Observe(elapsed.Seconds())
	c.GridCellsPopulated.Set(float64(populatedCells))
}

// IncFileError records one failed file ingestion.
func (c *PipelineCollector) IncFileError() {
	if c == nil {
		return
	}
	c.FileErrors.Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *PipelineCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
