// Package cygnss ingests CYGNSS Level 1 swath files and aggregates their
// per-DDM observables onto equal-area grids. The pipeline runs one direction:
// raw file, observation rows, concatenated rows, gridded array. Nothing here
// keeps state between runs.
package cygnss

import (
	"math"

	"github.com/ctessum/geom"
)

// Radar geometry constants for the CYGNSS mission.
const (
	// WavelengthM is the GPS L1 carrier wavelength.
	WavelengthM = 0.19

	// EarthRadiusKm is the mean Earth radius used for footprint sizing and
	// great-circle distances.
	EarthRadiusKm = 6371

	// DistanceTravelledKm is the along-track surface smear accumulated over
	// one 1 Hz integration period due to spacecraft motion.
	DistanceTravelledKm = 6

	// IDWDistanceThresholdKm bounds which grid cells an observation may
	// contribute to under inverse-distance weighting.
	IDWDistanceThresholdKm = 8
)

// DefaultBBox covers the full CYGNSS latitude band.
var DefaultBBox = geom.Bounds{
	Min: geom.Point{X: -180, Y: -38},
	Max: geom.Point{X: 180, Y: 38},
}

// inBounds reports whether a lon/lat point lies inside b, edges inclusive.
func inBounds(b geom.Bounds, lon, lat float64) bool {
	return lon >= b.Min.X && lon <= b.Max.X && lat >= b.Min.Y && lat <= b.Max.Y
}

// Db2Power converts a decibel value to linear power.
func Db2Power(x float64) float64 { return math.Pow(10.0, x/10.0) }

// Power2Db converts linear power to decibels.
func Power2Db(x float64) float64 { return 10.0 * math.Log10(x) }

// Amplitude2Db converts a linear amplitude to decibels.
func Amplitude2Db(x float64) float64 { return 20.0 * math.Log10(x) }

// AlongTrackSizeM returns the along-track extent, in meters, of the first
// Fresnel zone of a bistatic reflection with the given incidence angle and
// receiver/transmitter path ranges in meters.
func AlongTrackSizeM(incidenceAngleDeg, rRx, rTx float64) float64 {
	theta := (90.0 - incidenceAngleDeg) * math.Pi / 180.0
	return 2.0 / math.Sin(theta) * math.Sqrt(rRx*rTx*WavelengthM/(rRx+rTx))
}

// CrossTrackSizeM returns the cross-track extent, in meters, of the first
// Fresnel zone for the given path ranges in meters.
func CrossTrackSizeM(rRx, rTx float64) float64 {
	return 2.0 * math.Sqrt(rRx*rTx*WavelengthM/(rRx+rTx))
}

// ApplySNRCorrection removes the transmitter power, antenna gains, and
// range-spreading terms of the coherent bistatic radar equation from a raw
// ddm_snr observable (Rodriguez et al. 2019). Ranges are in meters; all
// other inputs in dB.
func ApplySNRCorrection(ddmSNR, rangeRx, rangeTx, powerTx, gainRx, gainTx float64) float64 {
	return ddmSNR - powerTx - gainRx - gainTx -
		Amplitude2Db(WavelengthM) +
		Amplitude2Db(rangeTx+rangeRx) +
		Amplitude2Db(4.0*math.Pi)
}
