package cygnss

import (
	"math"
	"testing"
)

func TestDbPowerConversionsRoundTrip(t *testing.T) {
	for _, db := range []float64{-30, -3, 0, 3, 10, 25} {
		if got := Power2Db(Db2Power(db)); math.Abs(got-db) > 1e-9 {
			t.Errorf("Power2Db(Db2Power(%v)) = %v", db, got)
		}
	}
	if got := Amplitude2Db(10); math.Abs(got-20) > 1e-9 {
		t.Errorf("Amplitude2Db(10) = %v, want 20", got)
	}
}

func TestFootprintSizesAtNadir(t *testing.T) {
	// At zero incidence the glistening zone is circular: along-track and
	// cross-track extents coincide.
	const rRx, rTx = 2.0e6, 2.0e6
	cross := CrossTrackSizeM(rRx, rTx)
	along := AlongTrackSizeM(0, rRx, rTx)
	if math.Abs(along-cross) > 1e-6 {
		t.Errorf("along = %v, cross = %v, want equal at nadir", along, cross)
	}

	want := 2 * math.Sqrt(rRx*rTx*WavelengthM/(rRx+rTx))
	if math.Abs(cross-want) > 1e-6 {
		t.Errorf("cross = %v, want %v", cross, want)
	}
}

func TestFootprintElongatesWithIncidence(t *testing.T) {
	// theta = 90 - 60 = 30 degrees, so the along-track extent doubles.
	const rRx, rTx = 2.0e6, 2.0e6
	cross := CrossTrackSizeM(rRx, rTx)
	along := AlongTrackSizeM(60, rRx, rTx)
	if math.Abs(along-2*cross) > 1e-6 {
		t.Errorf("along at 60 deg = %v, want %v", along, 2*cross)
	}
}

func TestApplySNRCorrection(t *testing.T) {
	got := ApplySNRCorrection(10, 6.0e5, 2.0e7, 20, 5, 3)
	// 10 - 20 - 5 - 3 - 20log10(0.19) + 20log10(2.06e7) + 20log10(4pi)
	const want = 164.686469
	if math.Abs(got-want) > 1e-3 {
		t.Errorf("ApplySNRCorrection = %v, want %v", got, want)
	}
}

func TestDefaultBBoxCoversCygnssBand(t *testing.T) {
	cases := []struct {
		lon, lat float64
		in       bool
	}{
		{0, 0, true},
		{-180, -38, true},
		{180, 38, true},
		{0, 38.01, false},
		{0, -45, false},
	}
	for _, tc := range cases {
		if got := inBounds(DefaultBBox, tc.lon, tc.lat); got != tc.in {
			t.Errorf("inBounds(%v, %v) = %v, want %v", tc.lon, tc.lat, got, tc.in)
		}
	}
}
