package cygnss

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/fhs/go-netcdf/netcdf"

	"github.com/earthsignals/cygnss-gridder/internal/logging"
	"github.com/earthsignals/cygnss-gridder/internal/observability"
	"github.com/earthsignals/cygnss-gridder/model"
)

// Reader ingests CYGNSS swath files into observation rows: flatten, filter
// to a bounding box, derive footprint geometry and bearings, decode quality
// flags, screen. One Reader may be shared across goroutines; it holds no
// per-file state.
type Reader struct {
	cfg      ProductConfig
	level    model.ProductLevel
	version  string
	dataDir  string
	bbox     geom.Bounds
	nearLand bool
	log      logging.Logger
	metrics  *observability.PipelineCollector
}

// ReaderOption configures optional Reader behavior.
type ReaderOption func(*Reader)

// WithBBox constrains ingestion to a geographic bounding box. The default
// is the full CYGNSS coverage band.
func WithBBox(b geom.Bounds) ReaderOption {
	return func(r *Reader) { r.bbox = b }
}

// WithNearLand keeps only observations flagged over or near land.
func WithNearLand() ReaderOption {
	return func(r *Reader) { r.nearLand = true }
}

// WithVersion overrides the product version sub-directory.
func WithVersion(version string) ReaderOption {
	return func(r *Reader) { r.version = version }
}

// WithLogger sets the reader's logger. Defaults to a no-op logger.
func WithLogger(log logging.Logger) ReaderOption {
	return func(r *Reader) { r.log = log }
}

// WithMetrics wires ingest counters and durations into a collector.
func WithMetrics(c *observability.PipelineCollector) ReaderOption {
	return func(r *Reader) { r.metrics = c }
}

// NewReader builds a Reader for files under
// dataDir/LEVEL/VERSION/YYYY/MM/DD/*.nc.
func NewReader(cfg *Config, dataDir string, level model.ProductLevel, opts ...ReaderOption) (*Reader, error) {
	product, err := cfg.Product(level)
	if err != nil {
		return nil, err
	}
	r := &Reader{
		cfg:     product,
		level:   level,
		version: product.ProductVersion,
		dataDir: dataDir,
		bbox:    DefaultBBox,
		log:     logging.Noop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// ReadFile ingests one swath file. A zero-row result after filtering is not
// an error. A variable missing from the file is a ConfigurationError; an
// unreadable or malformed file is an IngestionError. Both are fatal for this
// file only.
func (r *Reader) ReadFile(ctx context.Context, path string) ([]*model.Observation, error) {
	start := time.Now()
	rows, dropped, err := r.readFile(ctx, path)
	if err != nil {
		if r.metrics != nil {
			r.metrics.IncFileError()
		}
		return nil, err
	}
	if r.metrics != nil {
		r.metrics.ObserveIngest(len(rows), dropped, time.Since(start))
	}
	r.log.Debug(ctx, "file ingested",
		logging.String("path", filepath.Base(path)),
		logging.Int("rows", len(rows)),
		logging.Int("dropped_bbox", dropped[observability.DropReasonBBox]),
		logging.Int("dropped_quality", dropped[observability.DropReasonQuality]),
	)
	return rows, nil
}

func (r *Reader) readFile(ctx context.Context, path string) ([]*model.Observation, map[string]int, error) {
	ds, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, nil, &IngestionError{Path: path, Err: err}
	}
	defer ds.Close()

	spacecraft, err := r.readFloats(ds, path, "spacecraft_num")
	if err != nil {
		return nil, nil, err
	}
	if len(spacecraft) != 1 {
		return nil, nil, &IngestionError{Path: path, Err: fmt.Errorf("spacecraft_num has %d values, want 1", len(spacecraft))}
	}
	spacecraftNum := int(spacecraft[0])

	sampleIDs, err := r.readFloats(ds, path, "sample")
	if err != nil {
		return nil, nil, err
	}
	ddmIDs, err := r.readFloats(ds, path, "ddm")
	if err != nil {
		return nil, nil, err
	}
	nSamples, nDDM := len(sampleIDs), len(ddmIDs)
	if nSamples == 0 || nDDM == 0 {
		return nil, map[string]int{}, nil
	}

	// Per-DDM arrays are stored sample-major on disk. Flatten them
	// channel-major instead so sequential sample order survives inside each
	// channel block; bearing estimation depends on that order.
	perDDM := make(map[string][]float64, len(r.cfg.PerDDMVariables))
	for _, name := range r.cfg.PerDDMVariables {
		raw, err := r.readFloats(ds, path, name)
		if err != nil {
			return nil, nil, err
		}
		if len(raw) != nSamples*nDDM {
			return nil, nil, &IngestionError{Path: path, Err: fmt.Errorf("variable %q has %d values, want %d", name, len(raw), nSamples*nDDM)}
		}
		perDDM[name] = flattenChannelMajor(raw, nSamples, nDDM)
	}

	perSample := make(map[string][]float64, len(r.cfg.PerSampleVariables))
	for _, name := range r.cfg.PerSampleVariables {
		raw, err := r.readFloats(ds, path, name)
		if err != nil {
			return nil, nil, err
		}
		if len(raw) != nSamples {
			return nil, nil, &IngestionError{Path: path, Err: fmt.Errorf("variable %q has %d values, want %d", name, len(raw), nSamples)}
		}
		perSample[name] = raw
	}

	quality1, err := r.readInts(ds, path, "quality_flags")
	if err != nil {
		return nil, nil, err
	}
	quality2, err := r.readInts(ds, path, "quality_flags_2")
	if err != nil {
		return nil, nil, err
	}
	if len(quality1) != nSamples*nDDM || len(quality2) != nSamples*nDDM {
		return nil, nil, &IngestionError{Path: path, Err: fmt.Errorf("quality flag lengths %d/%d, want %d", len(quality1), len(quality2), nSamples*nDDM)}
	}

	spLon, spLat := perDDM["sp_lon"], perDDM["sp_lat"]
	incAngle, rxRange, txRange := perDDM["sp_inc_angle"], perDDM["rx_to_sp_range"], perDDM["tx_to_sp_range"]
	trackIDs := perDDM["track_id"]
	screen := r.cfg.ScreenFlags()

	dropped := map[string]int{}
	rows := make([]*model.Observation, 0, nSamples*nDDM)
	for d := 0; d < nDDM; d++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		for s := 0; s < nSamples; s++ {
			j := d*nSamples + s
			lon, lat := spLon[j], spLat[j]
			if !inBounds(r.bbox, lon, lat) {
				dropped[observability.DropReasonBBox]++
				continue
			}

			values := make(map[string]float64, len(perDDM)+len(perSample))
			for name, arr := range perDDM {
				values[name] = arr[j]
			}
			for name, arr := range perSample {
				values[name] = arr[s]
			}

			flags := decodeFlags(quality1[s*nDDM+d], r.cfg.QualityFlags)
			for name, set := range decodeFlags(quality2[s*nDDM+d], r.cfg.QualityFlags2) {
				flags[name] = set
			}

			rows = append(rows, &model.Observation{
				SpacecraftNum:     spacecraftNum,
				SampleID:          int(sampleIDs[s]),
				DDMChannel:        int(ddmIDs[d]),
				TrackID:           int(trackIDs[j]) + spacecraftNum*1000,
				Lon:               lon,
				Lat:               lat,
				IncidenceAngleDeg: incAngle[j],
				RxToSpRangeM:      rxRange[j],
				TxToSpRangeM:      txRange[j],
				Values:            values,
				Flags:             flags,
				PoorQuality:       anyFlagSet(flags, screen),
			})
		}
	}

	rows, badGeometry := deriveFootprints(rows)
	dropped[observability.DropReasonIntegrity] += badGeometry
	if badGeometry > 0 {
		r.log.Debug(ctx, "rows dropped with degenerate footprint geometry",
			logging.String("path", filepath.Base(path)),
			logging.Int("rows", badGeometry),
		)
	}
	estimateBearings(rows)

	kept := rows[:0]
	for _, row := range rows {
		if row.PoorQuality {
			dropped[observability.DropReasonQuality]++
			continue
		}
		if r.nearLand && !(row.Flag("sp_over_land") || row.Flag("sp_very_near_land") || row.Flag("sp_near_land")) {
			dropped[observability.DropReasonLand]++
			continue
		}
		kept = append(kept, row)
	}
	return kept, dropped, nil
}

// flattenChannelMajor reorders a sample-major (sample x ddm) array into
// channel blocks, each holding that channel's samples in sequence.
func flattenChannelMajor(raw []float64, nSamples, nDDM int) []float64 {
	out := make([]float64, len(raw))
	for s := 0; s < nSamples; s++ {
		for d := 0; d < nDDM; d++ {
			out[d*nSamples+s] = raw[s*nDDM+d]
		}
	}
	return out
}

// deriveFootprints computes footprint ellipse sizes for every row and drops
// rows whose RF geometry is degenerate, returning the drop count.
func deriveFootprints(rows []*model.Observation) ([]*model.Observation, int) {
	kept := rows[:0]
	badGeometry := 0
	for _, row := range rows {
		along := AlongTrackSizeM(row.IncidenceAngleDeg, row.RxToSpRangeM, row.TxToSpRangeM)
		cross := CrossTrackSizeM(row.RxToSpRangeM, row.TxToSpRangeM)
		if math.IsNaN(along) || math.IsInf(along, 0) || math.IsNaN(cross) || math.IsInf(cross, 0) {
			badGeometry++
			continue
		}
		row.AlongTrackM = along
		row.CrossTrackM = cross
		row.SemiMajorDeg = (along + DistanceTravelledKm*1000) / 2 / (EarthRadiusKm * 1000) * 180 / math.Pi
		row.SemiMinorDeg = cross / 2 / (EarthRadiusKm * 1000) * 180 / math.Pi
		kept = append(kept, row)
	}
	return kept, badGeometry
}

func (r *Reader) readFloats(ds netcdf.Dataset, path, name string) ([]float64, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("variable %q not found in %s", name, filepath.Base(path))}
	}
	n, err := v.Len()
	if err != nil {
		return nil, &IngestionError{Path: path, Err: fmt.Errorf("sizing %q: %w", name, err)}
	}
	data := make([]float64, n)
	if err := v.ReadFloat64s(data); err != nil {
		return nil, &IngestionError{Path: path, Err: fmt.Errorf("reading %q: %w", name, err)}
	}
	if strings.Contains(name, "_lon") {
		rescaleLongitude(data)
	}
	return data, nil
}

func (r *Reader) readInts(ds netcdf.Dataset, path, name string) ([]int64, error) {
	v, err := ds.Var(name)
	if err != nil {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("variable %q not found in %s", name, filepath.Base(path))}
	}
	n, err := v.Len()
	if err != nil {
		return nil, &IngestionError{Path: path, Err: fmt.Errorf("sizing %q: %w", name, err)}
	}
	data := make([]int64, n)
	if err := v.ReadInt64s(data); err != nil {
		return nil, &IngestionError{Path: path, Err: fmt.Errorf("reading %q: %w", name, err)}
	}
	return data, nil
}

// rescaleLongitude maps longitudes from [0, 360) to [-180, 180) in place.
func rescaleLongitude(lon []float64) {
	for i, v := range lon {
		if v > 180 {
			lon[i] = v - 360
		}
	}
}
