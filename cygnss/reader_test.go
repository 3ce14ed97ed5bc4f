package cygnss

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/fhs/go-netcdf/netcdf"

	"github.com/earthsignals/cygnss-gridder/model"
)

const testConfigYAML = `
L1:
  product_version: vtest
  per_sample_variables: [sc_alt]
  per_ddm_variables: [sp_lat, sp_lon, sp_inc_angle, rx_to_sp_range, tx_to_sp_range, track_id, ddm_snr]
  quality_flags:
    - {name: poor_overall_quality, screen: true}
    - {name: sp_over_land, screen: false}
    - {name: sp_very_near_land, screen: false}
    - {name: sp_near_land, screen: false}
  quality_flags_2:
    - {name: fatal_nst_outage, screen: true}
    - {name: low_zenith_ant_gain, screen: false}
`

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := ParseConfig([]byte(testConfigYAML))
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	return cfg
}

// swathFixture describes a synthetic granule. Per-DDM arrays are laid out
// sample-major, the way real files store them.
type swathFixture struct {
	spacecraft float64
	samples    []float64
	ddms       []float64
	perSample  map[string][]float64
	perDDM     map[string][]float64
	q1, q2     []int64
}

// defaultFixture is a 3-sample, 2-channel granule of clean tropical data.
func defaultFixture() *swathFixture {
	return &swathFixture{
		spacecraft: 3,
		samples:    []float64{0, 1, 2},
		ddms:       []float64{0, 1},
		perSample: map[string][]float64{
			"sc_alt": {520000, 521000, 522000},
		},
		perDDM: map[string][]float64{
			"sp_lat":         {1.0, 1.0, 1.1, 1.1, 1.2, 1.2},
			"sp_lon":         {10, 10.5, 10.01, 10.51, 10.02, 10.52},
			"sp_inc_angle":   {30, 30, 30, 30, 30, 30},
			"rx_to_sp_range": {6e5, 6e5, 6e5, 6e5, 6e5, 6e5},
			"tx_to_sp_range": {2e7, 2e7, 2e7, 2e7, 2e7, 2e7},
			"track_id":       {5, 6, 5, 6, 5, 6},
			"ddm_snr":        {1, 10, 2, 20, 3, 30},
		},
		q1: []int64{0, 0, 0, 0, 0, 0},
		q2: []int64{0, 0, 0, 0, 0, 0},
	}
}

func writeFixture(t *testing.T, path string, fx *swathFixture) {
	t.Helper()
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		t.Fatalf("creating fixture %s: %v", path, err)
	}
	defer ds.Close()

	sampleDim, err := ds.AddDim("sample", uint64(len(fx.samples)))
	if err != nil {
		t.Fatalf("adding sample dim: %v", err)
	}
	ddmDim, err := ds.AddDim("ddm", uint64(len(fx.ddms)))
	if err != nil {
		t.Fatalf("adding ddm dim: %v", err)
	}

	writeDoubles := func(name string, dims []netcdf.Dim, data []float64) {
		v, err := ds.AddVar(name, netcdf.DOUBLE, dims)
		if err != nil {
			t.Fatalf("adding %s: %v", name, err)
		}
		if err := v.WriteFloat64s(data); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
	writeInts := func(name string, dims []netcdf.Dim, data []int64) {
		v, err := ds.AddVar(name, netcdf.INT64, dims)
		if err != nil {
			t.Fatalf("adding %s: %v", name, err)
		}
		if err := v.WriteInt64s(data); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	writeDoubles("spacecraft_num", nil, []float64{fx.spacecraft})
	writeDoubles("sample", []netcdf.Dim{sampleDim}, fx.samples)
	writeDoubles("ddm", []netcdf.Dim{ddmDim}, fx.ddms)
	for name, data := range fx.perSample {
		writeDoubles(name, []netcdf.Dim{sampleDim}, data)
	}
	for name, data := range fx.perDDM {
		writeDoubles(name, []netcdf.Dim{sampleDim, ddmDim}, data)
	}
	writeInts("quality_flags", []netcdf.Dim{sampleDim, ddmDim}, fx.q1)
	writeInts("quality_flags_2", []netcdf.Dim{sampleDim, ddmDim}, fx.q2)
}

func newTestReader(t *testing.T, opts ...ReaderOption) *Reader {
	t.Helper()
	r, err := NewReader(testConfig(t), t.TempDir(), model.ProductL1, opts...)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	return r
}

func readFixture(t *testing.T, fx *swathFixture, opts ...ReaderOption) []*model.Observation {
	t.Helper()
	path := filepath.Join(t.TempDir(), "granule.nc")
	writeFixture(t, path, fx)
	rows, err := newTestReader(t, opts...).ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return rows
}

func TestReadFileFlattensChannelMajor(t *testing.T) {
	rows := readFixture(t, defaultFixture())
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}

	// Channel blocks first, sequential samples within each block.
	wantSNR := []float64{1, 2, 3, 10, 20, 30}
	wantChannel := []int{0, 0, 0, 1, 1, 1}
	wantSample := []int{0, 1, 2, 0, 1, 2}
	for i, row := range rows {
		if snr, _ := row.Value("ddm_snr"); snr != wantSNR[i] {
			t.Errorf("row %d: ddm_snr = %v, want %v", i, snr, wantSNR[i])
		}
		if row.DDMChannel != wantChannel[i] {
			t.Errorf("row %d: channel = %d, want %d", i, row.DDMChannel, wantChannel[i])
		}
		if row.SampleID != wantSample[i] {
			t.Errorf("row %d: sample = %d, want %d", i, row.SampleID, wantSample[i])
		}
	}
}

func TestReadFileBroadcastsPerSampleVariables(t *testing.T) {
	rows := readFixture(t, defaultFixture())
	wantAlt := []float64{520000, 521000, 522000, 520000, 521000, 522000}
	for i, row := range rows {
		if alt, ok := row.Value("sc_alt"); !ok || alt != wantAlt[i] {
			t.Errorf("row %d: sc_alt = %v, want %v", i, alt, wantAlt[i])
		}
	}
}

func TestReadFileOffsetsTrackIDBySpacecraft(t *testing.T) {
	rows := readFixture(t, defaultFixture())
	if got := rows[0].TrackID; got != 3005 {
		t.Errorf("track id = %d, want 3005", got)
	}
	if got := rows[3].TrackID; got != 3006 {
		t.Errorf("track id = %d, want 3006", got)
	}
	if rows[0].SpacecraftNum != 3 {
		t.Errorf("spacecraft = %d, want 3", rows[0].SpacecraftNum)
	}
}

func TestReadFileRescalesLongitude(t *testing.T) {
	fx := defaultFixture()
	for i := range fx.perDDM["sp_lon"] {
		fx.perDDM["sp_lon"][i] = 350 // east of the antimeridian, stored 0..360
	}
	rows := readFixture(t, fx)
	for i, row := range rows {
		if row.Lon != -10 {
			t.Errorf("row %d: lon = %v, want -10", i, row.Lon)
		}
	}
}

func TestReadFileDropsRowsOutsideBBox(t *testing.T) {
	fx := defaultFixture()
	fx.perDDM["sp_lat"][0] = 60 // sample 0, channel 0 leaves the coverage band
	rows := readFixture(t, fx)
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5 after bbox filter", len(rows))
	}
	for _, row := range rows {
		if row.Lat == 60 {
			t.Error("out-of-box row survived filtering")
		}
	}
}

func TestReadFileZeroRowsIsNotAnError(t *testing.T) {
	fx := defaultFixture()
	for i := range fx.perDDM["sp_lat"] {
		fx.perDDM["sp_lat"][i] = 60
	}
	rows := readFixture(t, fx)
	if len(rows) != 0 {
		t.Fatalf("got %d rows, want 0", len(rows))
	}
}

func TestReadFileScreensPoorQuality(t *testing.T) {
	fx := defaultFixture()
	fx.q1[0] = 0b0001 // poor_overall_quality on sample 0, channel 0
	fx.q2[2] = 0b0001 // fatal_nst_outage on sample 1, channel 0
	rows := readFixture(t, fx)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4 after screening", len(rows))
	}
	for _, row := range rows {
		if row.PoorQuality {
			t.Error("screened row survived")
		}
	}
}

func TestReadFileNonScreenFlagIsRecordedNotDropped(t *testing.T) {
	fx := defaultFixture()
	fx.q2[0] = 0b0010 // low_zenith_ant_gain, informational only
	rows := readFixture(t, fx)
	if len(rows) != 6 {
		t.Fatalf("got %d rows, want 6", len(rows))
	}
	if !rows[0].Flag("low_zenith_ant_gain") {
		t.Error("informational flag was not decoded")
	}
}

func TestReadFileNearLandRetention(t *testing.T) {
	fx := defaultFixture()
	fx.q1[0] = 0b0010 // sp_over_land on sample 0, channel 0
	fx.q1[3] = 0b1000 // sp_near_land on sample 1, channel 1
	rows := readFixture(t, fx, WithNearLand())
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 in near-land mode", len(rows))
	}
	for _, row := range rows {
		if !(row.Flag("sp_over_land") || row.Flag("sp_very_near_land") || row.Flag("sp_near_land")) {
			t.Error("open-ocean row survived near-land mode")
		}
	}
}

func TestReadFileDerivesFootprintGeometry(t *testing.T) {
	rows := readFixture(t, defaultFixture())
	for i, row := range rows {
		if row.AlongTrackM <= 0 || row.CrossTrackM <= 0 {
			t.Fatalf("row %d: footprint sizes %v x %v", i, row.AlongTrackM, row.CrossTrackM)
		}
		if row.SemiMajorDeg <= row.SemiMinorDeg {
			t.Errorf("row %d: semimajor %v <= semiminor %v", i, row.SemiMajorDeg, row.SemiMinorDeg)
		}
		if math.IsNaN(row.BearingDeg) {
			t.Errorf("row %d: bearing undefined on a 3-point track", i)
		}
	}
}

func TestReadFileMissingVariable(t *testing.T) {
	fx := defaultFixture()
	delete(fx.perDDM, "ddm_snr")
	path := filepath.Join(t.TempDir(), "granule.nc")
	writeFixture(t, path, fx)

	_, err := newTestReader(t).ReadFile(context.Background(), path)
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("err = %v, want ConfigurationError", err)
	}
}

func TestReadFileUnreadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.nc")
	if err := os.WriteFile(path, []byte("not a netcdf file"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := newTestReader(t).ReadFile(context.Background(), path)
	var ingErr *IngestionError
	if !errors.As(err, &ingErr) {
		t.Fatalf("err = %v, want IngestionError", err)
	}
}
