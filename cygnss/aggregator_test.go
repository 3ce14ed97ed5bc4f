package cygnss

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/earthsignals/cygnss-gridder/grids"
	"github.com/earthsignals/cygnss-gridder/model"
)

// seedDataDir writes fixtures into the LEVEL/VERSION/YYYY/MM/DD layout and
// returns the data root.
func seedDataDir(t *testing.T, day time.Time, granules map[string]*swathFixture) string {
	t.Helper()
	root := t.TempDir()
	dayDir := filepath.Join(root, "L1", "vtest",
		day.Format("2006"), day.Format("01"), day.Format("02"))
	if err := os.MkdirAll(dayDir, 0o755); err != nil {
		t.Fatal(err)
	}
	for name, fx := range granules {
		writeFixture(t, filepath.Join(dayDir, name), fx)
	}
	return root
}

func TestAggregatorGridsADateRange(t *testing.T) {
	day := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	fx2 := defaultFixture()
	fx2.spacecraft = 4
	root := seedDataDir(t, day, map[string]*swathFixture{
		"cyg03.20240801.nc": defaultFixture(),
		"cyg04.20240801.nc": fx2,
	})

	reader, err := NewReader(testConfig(t), root, model.ProductL1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	agg := NewAggregator(reader, WithWorkers(2))

	grid, err := grids.ByName(grids.EASE2G36km)
	if err != nil {
		t.Fatal(err)
	}
	out, err := agg.Aggregate(context.Background(), "ddm_snr", grid, day, day, model.DropInBucket)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	populated := 0
	for _, v := range out.Elements {
		if !math.IsNaN(v) {
			populated++
		}
	}
	if populated == 0 {
		t.Fatal("no populated cells from two fixture granules")
	}
}

func TestAggregatorAbortsOnFileErrorByDefault(t *testing.T) {
	day := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	root := seedDataDir(t, day, map[string]*swathFixture{
		"cyg03.20240801.nc": defaultFixture(),
	})
	dayDir := filepath.Join(root, "L1", "vtest", "2024", "08", "01")
	if err := os.WriteFile(filepath.Join(dayDir, "cyg99.broken.nc"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(testConfig(t), root, model.ProductL1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	agg := NewAggregator(reader, WithWorkers(1))

	grid, _ := grids.ByName(grids.EASE2G36km)
	if _, err := agg.Aggregate(context.Background(), "ddm_snr", grid, day, day, model.DropInBucket); err == nil {
		t.Fatal("expected run to abort on unreadable granule")
	}
}

func TestAggregatorSkipsFileErrorsWhenConfigured(t *testing.T) {
	day := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	root := seedDataDir(t, day, map[string]*swathFixture{
		"cyg03.20240801.nc": defaultFixture(),
	})
	dayDir := filepath.Join(root, "L1", "vtest", "2024", "08", "01")
	if err := os.WriteFile(filepath.Join(dayDir, "cyg99.broken.nc"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(testConfig(t), root, model.ProductL1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	agg := NewAggregator(reader, WithWorkers(1), WithSkipFileErrors())

	grid, _ := grids.ByName(grids.EASE2G36km)
	out, err := agg.Aggregate(context.Background(), "ddm_snr", grid, day, day, model.DropInBucket)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	populated := 0
	for _, v := range out.Elements {
		if !math.IsNaN(v) {
			populated++
		}
	}
	if populated == 0 {
		t.Fatal("healthy granule contributed no cells")
	}
}

func TestAggregatorEmptyRangeYieldsAllNoData(t *testing.T) {
	reader, err := NewReader(testConfig(t), t.TempDir(), model.ProductL1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	agg := NewAggregator(reader)

	grid, _ := grids.ByName(grids.EASE2G36km)
	day := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	out, err := agg.Aggregate(context.Background(), "ddm_snr", grid, day, day, model.DropInBucket)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	for _, v := range out.Elements {
		if !math.IsNaN(v) {
			t.Fatal("empty run produced data cells")
		}
	}
}

func TestReaderFilesForRange(t *testing.T) {
	day1 := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 8, 2, 0, 0, 0, 0, time.UTC)
	root := seedDataDir(t, day1, map[string]*swathFixture{
		"cyg03.20240801.nc": defaultFixture(),
		"cyg04.20240801.nc": defaultFixture(),
	})
	day2Dir := filepath.Join(root, "L1", "vtest", "2024", "08", "02")
	if err := os.MkdirAll(day2Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeFixture(t, filepath.Join(day2Dir, "cyg03.20240802.nc"), defaultFixture())

	reader, err := NewReader(testConfig(t), root, model.ProductL1)
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}

	files, err := reader.FilesForRange(day1, day2)
	if err != nil {
		t.Fatalf("FilesForRange: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files, want 3", len(files))
	}

	// Days with no granules contribute nothing, silently.
	day3 := time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC)
	files, err = reader.FilesForRange(day3, day3)
	if err != nil {
		t.Fatalf("FilesForRange empty day: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("got %d files for an empty day, want 0", len(files))
	}
}
