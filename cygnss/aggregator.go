package cygnss

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/ctessum/sparse"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/earthsignals/cygnss-gridder/grids"
	"github.com/earthsignals/cygnss-gridder/internal/logging"
	"github.com/earthsignals/cygnss-gridder/internal/observability"
	"github.com/earthsignals/cygnss-gridder/model"
)

const tracerName = "github.com/earthsignals/cygnss-gridder/cygnss"

// Aggregator orchestrates a whole run: enumerate the granules of a date
// range, ingest them on a worker pool, concatenate the rows, and reduce
// them onto a grid.
type Aggregator struct {
	reader         *Reader
	log            logging.Logger
	metrics        *observability.PipelineCollector
	workers        int
	skipFileErrors bool
}

// AggregatorOption configures optional Aggregator behavior.
type AggregatorOption func(*Aggregator)

// WithWorkers bounds the ingestion worker pool. Defaults to GOMAXPROCS.
func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithSkipFileErrors makes per-file ingestion failures non-fatal for the
// run; failed files are logged and skipped. The default aborts the run on
// the first file error.
func WithSkipFileErrors() AggregatorOption {
	return func(a *Aggregator) { a.skipFileErrors = true }
}

// WithAggregatorLogger sets the run logger. Defaults to a no-op logger.
func WithAggregatorLogger(log logging.Logger) AggregatorOption {
	return func(a *Aggregator) { a.log = log }
}

// WithAggregatorMetrics wires run metrics into a collector.
func WithAggregatorMetrics(c *observability.PipelineCollector) AggregatorOption {
	return func(a *Aggregator) { a.metrics = c }
}

// NewAggregator builds an Aggregator over the given reader.
func NewAggregator(reader *Reader, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		reader:  reader,
		log:     logging.Noop(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate grids the named variable over an inclusive date range. Every
// run gets a fresh run id carried through logs and trace spans. A run with
// zero contributing rows returns an all-NaN grid, not an error.
func (a *Aggregator) Aggregate(ctx context.Context, variable string, grid grids.GridDefinition, start, end time.Time, method model.AggregationMethod) (*sparse.DenseArray, error) {
	runID := uuid.NewString()
	ctx, log := logging.WithRunLogger(ctx, a.log, runID)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "swath.aggregate", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("grid", grid.Name),
		attribute.String("variable", variable),
		attribute.String("method", method.String()),
	))
	defer span.End()

	files, err := a.reader.FilesForRange(start, end)
	if err != nil {
		return nil, err
	}
	log.Info(ctx, "starting aggregation run",
		logging.String("variable", variable),
		logging.String("grid", grid.Name),
		logging.String("method", method.String()),
		logging.Int("files", len(files)),
	)

	rows, err := a.ingestAll(ctx, log, files)
	if err != nil {
		return nil, err
	}

	aggStart := time.Now()
	ctx, aggSpan := otel.Tracer(tracerName).Start(ctx, "swath.reduce", trace.WithAttributes(
		attribute.Int("rows", len(rows)),
	))
	out, err := Aggregate(rows, grid, variable, method)
	aggSpan.End()
	if err != nil {
		return nil, err
	}

	populated := 0
	for _, v := range out.Elements {
		if !math.IsNaN(v) {
			populated++
		}
	}
	if a.metrics != nil {
		a.metrics.ObserveAggregate(method.String(), populated, time.Since(aggStart))
	}
	log.Info(ctx, "aggregation run complete",
		logging.Int("rows", len(rows)),
		logging.Int("populated_cells", populated),
	)
	return out, nil
}

// ingestAll reads all files on a bounded worker pool. Ingestion of distinct
// files shares no mutable state, so row order across files is irrelevant to
// the aggregation result.
func (a *Aggregator) ingestAll(ctx context.Context, log logging.Logger, files []string) ([]*model.Observation, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	paths := make(chan string)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		rows     []*model.Observation
		firstErr error
	)

	workers := a.workers
	if workers > len(files) {
		workers = len(files)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range paths {
				fileCtx, span := otel.Tracer(tracerName).Start(ctx, "swath.ingest",
					trace.WithAttributes(attribute.String("path", path)))
				fileRows, err := a.reader.ReadFile(fileCtx, path)
				span.End()
				if err != nil {
					if a.skipFileErrors {
						log.Warn(ctx, "skipping unreadable file",
							logging.String("path", path),
							logging.Any("error", err),
						)
						continue
					}
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					cancel()
					return
				}
				mu.Lock()
				rows = append(rows, fileRows...)
				mu.Unlock()
			}
		}()
	}

feed:
	for _, path := range files {
		select {
		case paths <- path:
		case <-ctx.Done():
			break feed
		}
	}
	close(paths)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}
