package model

// Observation is one specular-point measurement for one of the four DDM
// channels recorded per sample. Rows are produced in bulk per source file,
// screened, and concatenated across files before aggregation; nothing holds
// on to them afterwards.
type Observation struct {
	SpacecraftNum int
	SampleID      int
	DDMChannel    int

	// TrackID is the per-file track identifier, offset by spacecraft number
	// so that tracks remain unique when files are concatenated.
	TrackID int

	// Specular point location, longitude normalized to [-180, 180).
	Lon float64
	Lat float64

	// RF geometry used for footprint derivation.
	IncidenceAngleDeg float64
	RxToSpRangeM      float64
	TxToSpRangeM      float64

	// Derived footprint ellipse.
	AlongTrackM  float64
	CrossTrackM  float64
	SemiMajorDeg float64
	SemiMinorDeg float64
	// BearingDeg is the estimated direction of travel at the specular point.
	// NaN when the orbit segment was too short to estimate.
	BearingDeg float64

	// Values holds the physical observables read from the source file,
	// keyed by variable name (e.g. "ddm_snr").
	Values map[string]float64

	// Flags holds the decoded per-bit quality flags by name.
	Flags map[string]bool
	// PoorQuality is true when any flag configured for screening is set.
	PoorQuality bool
}

// Value returns the named observable, with ok reporting whether it was read
// from the source file.
func (o *Observation) Value(name string) (float64, bool) {
	v, ok := o.Values[name]
	return v, ok
}

// Flag returns the named quality flag; unset or unknown flags are false.
func (o *Observation) Flag(name string) bool {
	return o.Flags[name]
}
