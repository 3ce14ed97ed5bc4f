// Package grids maps between geographic coordinates and cell addresses of the
// NSIDC EASE / EASE-Grid 2.0 equal-area grid family.
//
// Every supported grid is described by a fixed parameter tuple (projection
// family, ellipsoid, origin, resolution, dimensions) from the NSIDC grid
// definitions; the transform math is shared across variants and parameterized
// by those fields. EASE-Grid 2.0 grids project on the WGS84 ellipsoid,
// original EASE grids on the 6371228 m authalic sphere (eccentricity zero
// degenerates the ellipsoidal formulas to the spherical ones).
package grids

import (
	"fmt"
	"math"
)

// Family is the projection family of a grid: global cylindrical equal-area or
// a polar Lambert azimuthal equal-area hemisphere.
type Family int

const (
	FamilyGlobal Family = iota
	FamilyNorth
	FamilySouth
)

func (f Family) String() string {
	switch f {
	case FamilyGlobal:
		return "global"
	case FamilyNorth:
		return "north"
	case FamilySouth:
		return "south"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// standard parallel of the global cylindrical equal-area projections, degrees
const standardParallelDeg = 30.0

// GridDefinition carries the fixed parameters of one named grid and the
// coordinate-transform primitives built from them. Values are immutable once
// constructed and safe to share across goroutines.
type GridDefinition struct {
	Name   string
	EPSG   int
	Family Family

	// Ellipsoid: semi-major axis in metres and squared first eccentricity.
	SemiMajorM float64
	Ecc2       float64

	// XMin and YMax are the projected coordinates of the outer edge of the
	// top-left cell; Res is the cell size in projection units.
	XMin float64
	YMax float64
	Res  float64

	NRows int
	NCols int

	// Units is the projection unit ("m" for every EASE grid).
	Units string
}

// OutOfRangeError reports a coordinate that maps outside a grid's coverage.
type OutOfRangeError struct {
	Grid   string
	Reason string
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("grid %s: %s", e.Grid, e.Reason)
}

// LonLatToCell projects geographic coordinates (degrees) to the grid's native
// projected coordinates and returns the containing cell address. Callers are
// expected to constrain inputs to the grid's coverage; coordinates that land
// beyond the last row or column return an OutOfRangeError.
func (g *GridDefinition) LonLatToCell(lon, lat float64) (col, row int, err error) {
	x, y := g.forward(lon, lat)
	col = int(math.Abs(x-g.XMin) / g.Res)
	row = int(math.Abs(y-g.YMax) / g.Res)
	if col >= g.NCols {
		return 0, 0, &OutOfRangeError{
			Grid:   g.Name,
			Reason: fmt.Sprintf("col %d for lon=%.4f lat=%.4f exceeds %d columns", col, lon, lat, g.NCols),
		}
	}
	if row >= g.NRows {
		return 0, 0, &OutOfRangeError{
			Grid:   g.Name,
			Reason: fmt.Sprintf("row %d for lon=%.4f lat=%.4f exceeds %d rows", row, lon, lat, g.NRows),
		}
	}
	return col, row, nil
}

// CellToLonLat returns the geographic coordinates (degrees) of the center of
// the addressed cell. Cells whose centers invert to a latitude outside the
// grid family's hemisphere return an OutOfRangeError.
func (g *GridDefinition) CellToLonLat(col, row int) (lon, lat float64, err error) {
	x := g.XMin + float64(col)*g.Res + g.Res/2
	y := g.YMax - float64(row)*g.Res - g.Res/2
	lon, lat = g.inverse(x, y)

	if lon < -180 || lon > 180 {
		return 0, 0, &OutOfRangeError{
			Grid:   g.Name,
			Reason: fmt.Sprintf("cell (%d,%d) inverts to longitude %.4f", col, row, lon),
		}
	}
	var latMin, latMax float64
	switch g.Family {
	case FamilyNorth:
		latMin, latMax = 0, 90
	case FamilySouth:
		latMin, latMax = -90, 0
	default:
		latMin, latMax = -90, 90
	}
	if lat < latMin || lat > latMax {
		return 0, 0, &OutOfRangeError{
			Grid: g.Name,
			Reason: fmt.Sprintf("cell (%d,%d) inverts to latitude %.4f outside [%g,%g]",
				col, row, lat, latMin, latMax),
		}
	}
	return lon, lat, nil
}

// Metric reports whether the grid's projection unit is metres. The
// inverse-distance aggregation strategy requires a metric grid.
func (g *GridDefinition) Metric() bool { return g.Units == "m" }

// forward projects geographic coordinates onto the grid's projection plane.
func (g *GridDefinition) forward(lon, lat float64) (x, y float64) {
	lam := lon * math.Pi / 180
	phi := lat * math.Pi / 180
	q := g.authalicQ(math.Sin(phi))

	switch g.Family {
	case FamilyGlobal:
		k0 := g.cylindricalScale()
		x = g.SemiMajorM * k0 * lam
		y = g.SemiMajorM * q / (2 * k0)
	case FamilyNorth:
		rho := g.SemiMajorM * math.Sqrt(math.Max(g.authalicQPole()-q, 0))
		x = rho * math.Sin(lam)
		y = -rho * math.Cos(lam)
	case FamilySouth:
		rho := g.SemiMajorM * math.Sqrt(math.Max(g.authalicQPole()+q, 0))
		x = rho * math.Sin(lam)
		y = rho * math.Cos(lam)
	}
	return x, y
}

// inverse maps projected coordinates back to geographic coordinates.
func (g *GridDefinition) inverse(x, y float64) (lon, lat float64) {
	qp := g.authalicQPole()

	var lam, q float64
	switch g.Family {
	case FamilyGlobal:
		k0 := g.cylindricalScale()
		lam = x / (g.SemiMajorM * k0)
		q = 2 * y * k0 / g.SemiMajorM
	case FamilyNorth:
		rho := math.Hypot(x, y)
		if rho == 0 {
			return 0, 90
		}
		lam = math.Atan2(x, -y)
		q = qp - (rho/g.SemiMajorM)*(rho/g.SemiMajorM)
	case FamilySouth:
		rho := math.Hypot(x, y)
		if rho == 0 {
			return 0, -90
		}
		lam = math.Atan2(x, y)
		q = (rho/g.SemiMajorM)*(rho/g.SemiMajorM) - qp
	}

	sinBeta := q / qp
	if sinBeta > 1 {
		sinBeta = 1
	} else if sinBeta < -1 {
		sinBeta = -1
	}
	phi := g.authalicToGeodetic(math.Asin(sinBeta))
	return lam * 180 / math.Pi, phi * 180 / math.Pi
}

// cylindricalScale is the scale factor at the standard parallel.
func (g *GridDefinition) cylindricalScale() float64 {
	phi1 := standardParallelDeg * math.Pi / 180
	s := math.Sin(phi1)
	return math.Cos(phi1) / math.Sqrt(1-g.Ecc2*s*s)
}

// authalicQ computes Snyder's q for a given sine of geodetic latitude. For a
// sphere (Ecc2 == 0) this degenerates to 2*sin(phi).
func (g *GridDefinition) authalicQ(sinPhi float64) float64 {
	e2 := g.Ecc2
	if e2 == 0 {
		return 2 * sinPhi
	}
	e := math.Sqrt(e2)
	es := e * sinPhi
	return (1 - e2) * (sinPhi/(1-e2*sinPhi*sinPhi) - (1/(2*e))*math.Log((1-es)/(1+es)))
}

func (g *GridDefinition) authalicQPole() float64 { return g.authalicQ(1) }

// authalicToGeodetic converts an authalic latitude (radians) to geodetic
// latitude via the standard series expansion; identity on a sphere.
func (g *GridDefinition) authalicToGeodetic(beta float64) float64 {
	e2 := g.Ecc2
	if e2 == 0 {
		return beta
	}
	e4 := e2 * e2
	e6 := e4 * e2
	return beta +
		(e2/3+31*e4/180+517*e6/5040)*math.Sin(2*beta) +
		(23*e4/360+251*e6/3780)*math.Sin(4*beta) +
		(761*e6/45360)*math.Sin(6*beta)
}
