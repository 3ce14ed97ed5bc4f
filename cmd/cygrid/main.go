package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ctessum/geom"

	"github.com/earthsignals/cygnss-gridder/cygnss"
	"github.com/earthsignals/cygnss-gridder/grids"
	"github.com/earthsignals/cygnss-gridder/internal/logging"
	"github.com/earthsignals/cygnss-gridder/internal/observability"
	"github.com/earthsignals/cygnss-gridder/model"
)

const dateLayout = "2006-01-02"

func main() {
	variable := flag.String("variable", "ddm_snr", "observable to aggregate")
	gridName := flag.String("grid", grids.EASE2G36km, "target grid (see -list-grids)")
	listGrids := flag.Bool("list-grids", false, "list supported grids and exit")
	methodName := flag.String("method", "drop-in-bucket", "aggregation method: drop-in-bucket or inverse-distance")
	startDate := flag.String("start", "", "start date, YYYY-MM-DD")
	endDate := flag.String("end", "", "end date (inclusive), YYYY-MM-DD; defaults to start")
	bboxSpec := flag.String("bbox", "", "bounding box xmin,ymin,xmax,ymax (default: full coverage band)")
	nearLand := flag.Bool("near-land", false, "keep only observations over or near land")
	dataDir := flag.String("data-dir", os.Getenv("CYGNSS_DATA_PATH"), "parent directory of the data tree (default $CYGNSS_DATA_PATH)")
	configPath := flag.String("config", "", "product config YAML (default: built-in)")
	outPath := flag.String("out", "", "write the aggregated grid to this GeoTIFF path")
	skipFileErrors := flag.Bool("skip-file-errors", false, "skip unreadable granules instead of aborting")
	workers := flag.Int("workers", 0, "ingestion worker count (default GOMAXPROCS)")
	metricsListen := flag.String("metrics-listen", "", "serve Prometheus metrics on this address while running")
	flag.Parse()

	if *listGrids {
		for _, name := range grids.Names() {
			fmt.Println(name)
		}
		return
	}

	log := logging.NewFromEnv()
	ctx := context.Background()

	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.Any("error", err))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdown, log)

	if err := run(ctx, log, options{
		variable:       *variable,
		gridName:       *gridName,
		methodName:     *methodName,
		startDate:      *startDate,
		endDate:        *endDate,
		bboxSpec:       *bboxSpec,
		nearLand:       *nearLand,
		dataDir:        *dataDir,
		configPath:     *configPath,
		outPath:        *outPath,
		skipFileErrors: *skipFileErrors,
		workers:        *workers,
		metricsListen:  *metricsListen,
	}); err != nil {
		log.Error(ctx, "run failed", logging.Any("error", err))
		os.Exit(1)
	}
}

type options struct {
	variable       string
	gridName       string
	methodName     string
	startDate      string
	endDate        string
	bboxSpec       string
	nearLand       bool
	dataDir        string
	configPath     string
	outPath        string
	skipFileErrors bool
	workers        int
	metricsListen  string
}

func run(ctx context.Context, log logging.Logger, opts options) error {
	if opts.dataDir == "" {
		return fmt.Errorf("no data directory: pass -data-dir or set CYGNSS_DATA_PATH")
	}
	if opts.startDate == "" {
		return fmt.Errorf("-start is required")
	}
	start, err := time.Parse(dateLayout, opts.startDate)
	if err != nil {
		return fmt.Errorf("parsing -start: %w", err)
	}
	end := start
	if opts.endDate != "" {
		if end, err = time.Parse(dateLayout, opts.endDate); err != nil {
			return fmt.Errorf("parsing -end: %w", err)
		}
	}
	if end.Before(start) {
		return fmt.Errorf("-end %s precedes -start %s", opts.endDate, opts.startDate)
	}

	method, err := model.ParseAggregationMethod(opts.methodName)
	if err != nil {
		return err
	}
	grid, err := grids.ByName(opts.gridName)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}

	readerOpts := []cygnss.ReaderOption{cygnss.WithLogger(log)}
	if opts.bboxSpec != "" {
		bbox, err := parseBBox(opts.bboxSpec)
		if err != nil {
			return err
		}
		readerOpts = append(readerOpts, cygnss.WithBBox(bbox))
	}
	if opts.nearLand {
		readerOpts = append(readerOpts, cygnss.WithNearLand())
	}

	var collector *observability.PipelineCollector
	if opts.metricsListen != "" {
		if collector, err = observability.NewPipelineCollector(nil); err != nil {
			return err
		}
		readerOpts = append(readerOpts, cygnss.WithMetrics(collector))
		go serveMetrics(ctx, log, opts.metricsListen, collector)
	}

	reader, err := cygnss.NewReader(cfg, opts.dataDir, model.ProductL1, readerOpts...)
	if err != nil {
		return err
	}

	aggOpts := []cygnss.AggregatorOption{cygnss.WithAggregatorLogger(log)}
	if opts.skipFileErrors {
		aggOpts = append(aggOpts, cygnss.WithSkipFileErrors())
	}
	if opts.workers > 0 {
		aggOpts = append(aggOpts, cygnss.WithWorkers(opts.workers))
	}
	if collector != nil {
		aggOpts = append(aggOpts, cygnss.WithAggregatorMetrics(collector))
	}

	out, err := cygnss.NewAggregator(reader, aggOpts...).
		Aggregate(ctx, opts.variable, grid, start, end, method)
	if err != nil {
		return err
	}

	populated := 0
	min, max := math.Inf(1), math.Inf(-1)
	for _, v := range out.Elements {
		if math.IsNaN(v) {
			continue
		}
		populated++
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	log.Info(ctx, "aggregation finished",
		logging.String("grid", grid.Name),
		logging.Int("populated_cells", populated),
		logging.Float64("min", min),
		logging.Float64("max", max),
	)

	if opts.outPath != "" {
		if err := grid.WriteGeoTIFF(out, opts.outPath, grids.DefaultNoData); err != nil {
			return fmt.Errorf("writing %s: %w", opts.outPath, err)
		}
		log.Info(ctx, "raster written", logging.String("path", opts.outPath))
	}
	return nil
}

func loadConfig(path string) (*cygnss.Config, error) {
	if path == "" {
		return cygnss.DefaultConfig()
	}
	return cygnss.LoadConfig(path)
}

func parseBBox(spec string) (geom.Bounds, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return geom.Bounds{}, fmt.Errorf("bbox %q: want xmin,ymin,xmax,ymax", spec)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Bounds{}, fmt.Errorf("bbox %q: %w", spec, err)
		}
		vals[i] = v
	}
	if vals[0] >= vals[2] || vals[1] >= vals[3] {
		return geom.Bounds{}, fmt.Errorf("bbox %q: min must be less than max", spec)
	}
	return geom.Bounds{
		Min: geom.Point{X: vals[0], Y: vals[1]},
		Max: geom.Point{X: vals[2], Y: vals[3]},
	}, nil
}

func serveMetrics(ctx context.Context, log logging.Logger, addr string, collector *observability.PipelineCollector) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	log.Info(ctx, "serving metrics", logging.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn(ctx, "metrics server stopped", logging.Any("error", err))
	}
}
