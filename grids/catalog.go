package grids

import (
	"fmt"
	"sort"
)

// Ellipsoid constants. EASE-Grid 2.0 is defined on WGS84; the original
// EASE grids use the 6371228 m authalic sphere.
const (
	wgs84SemiMajorM = 6378137.0
	wgs84Ecc2       = 0.00669437999014

	easeSphereRadiusM = 6371228.0
)

// Supported grid names. The parameter tuples below reproduce the NSIDC grid
// definitions; they must not be altered, or rasters stop lining up with
// every other consumer of these grids.
const (
	EASE2G1km    = "EASE2_G1km"
	EASE2G3km    = "EASE2_G3km"
	EASE2N3km    = "EASE2_N3km"
	EASE2S3km    = "EASE2_S3km"
	EASE2G3125km = "EASE2_G3125km"
	EASE2N3125km = "EASE2_N3125km"
	EASE2S3125km = "EASE2_S3125km"
	EASE2G625km  = "EASE2_G625km"
	EASE2N625km  = "EASE2_N625km"
	EASE2S625km  = "EASE2_S625km"
	EASE2G9km    = "EASE2_G9km"
	EASE2N9km    = "EASE2_N9km"
	EASE2S9km    = "EASE2_S9km"
	EASE2G125km  = "EASE2_G125km"
	EASE2N125km  = "EASE2_N125km"
	EASE2S125km  = "EASE2_S125km"
	EASEG125km   = "EASE_G125km"
	EASEN125km   = "EASE_N125km"
	EASES125km   = "EASE_S125km"
	EASE2G25km   = "EASE2_G25km"
	EASE2N25km   = "EASE2_N25km"
	EASE2S25km   = "EASE2_S25km"
	EASEG25km    = "EASE_G25km"
	EASEN25km    = "EASE_N25km"
	EASES25km    = "EASE_S25km"
	EASE2G36km   = "EASE2_G36km"
	EASE2N36km   = "EASE2_N36km"
	EASE2S36km   = "EASE2_S36km"
)

func ease2(name string, epsg int, family Family, xMin, yMax, res float64, nCols, nRows int) GridDefinition {
	return GridDefinition{
		Name:       name,
		EPSG:       epsg,
		Family:     family,
		SemiMajorM: wgs84SemiMajorM,
		Ecc2:       wgs84Ecc2,
		XMin:       xMin,
		YMax:       yMax,
		Res:        res,
		NCols:      nCols,
		NRows:      nRows,
		Units:      "m",
	}
}

func ease1(name string, epsg int, family Family, xMin, yMax, res float64, nCols, nRows int) GridDefinition {
	return GridDefinition{
		Name:       name,
		EPSG:       epsg,
		Family:     family,
		SemiMajorM: easeSphereRadiusM,
		Ecc2:       0,
		XMin:       xMin,
		YMax:       yMax,
		Res:        res,
		NCols:      nCols,
		NRows:      nRows,
		Units:      "m",
	}
}

var catalog = map[string]GridDefinition{
	EASE2G1km:    ease2(EASE2G1km, 6933, FamilyGlobal, -17367530.45, 7314540.83, 1000.90, 34704, 14616),
	EASE2G3km:    ease2(EASE2G3km, 6933, FamilyGlobal, -17367530.45, 7314540.83, 3002.69, 11568, 4872),
	EASE2N3km:    ease2(EASE2N3km, 6931, FamilyNorth, -9000000.0, 9000000.0, 3000.00, 6000, 6000),
	EASE2S3km:    ease2(EASE2S3km, 6932, FamilySouth, -9000000.0, 9000000.0, 3000.00, 6000, 6000),
	EASE2G3125km: ease2(EASE2G3125km, 6933, FamilyGlobal, -17367530.45, 7307375.92, 3128.16, 11104, 4672),
	EASE2N3125km: ease2(EASE2N3125km, 6931, FamilyNorth, -9000000.0, 9000000.0, 3125.00, 5760, 5760),
	EASE2S3125km: ease2(EASE2S3125km, 6932, FamilySouth, -9000000.0, 9000000.0, 3125.00, 5760, 5760),
	EASE2G625km:  ease2(EASE2G625km, 6933, FamilyGlobal, -17367530.45, 7307375.92, 6256.32, 5552, 2336),
	EASE2N625km:  ease2(EASE2N625km, 6931, FamilyNorth, -9000000.0, 9000000.0, 6250.00, 2880, 2880),
	EASE2S625km:  ease2(EASE2S625km, 6932, FamilySouth, -9000000.0, 9000000.0, 6250.00, 2880, 2880),
	EASE2G9km:    ease2(EASE2G9km, 6933, FamilyGlobal, -17367530.45, 7314540.83, 9008.05, 3856, 1624),
	EASE2N9km:    ease2(EASE2N9km, 6931, FamilyNorth, -9000000.0, 9000000.0, 9000.00, 2000, 2000),
	EASE2S9km:    ease2(EASE2S9km, 6932, FamilySouth, -9000000.0, 9000000.0, 9000.00, 2000, 2000),
	EASE2G125km:  ease2(EASE2G125km, 6933, FamilyGlobal, -17367530.45, 7307375.92, 12512.63, 2776, 1168),
	EASE2N125km:  ease2(EASE2N125km, 6931, FamilyNorth, -9000000.0, 9000000.0, 12500.00, 1440, 1440),
	EASE2S125km:  ease2(EASE2S125km, 6932, FamilySouth, -9000000.0, 9000000.0, 12500.00, 1440, 1440),
	EASEG125km:   ease1(EASEG125km, 3410, FamilyGlobal, -17327927.35, 7338516.48, 12533.76, 2766, 1171),
	EASEN125km:   ease1(EASEN125km, 3408, FamilyNorth, -9030574.08, 9030574.08, 12533.76, 1441, 1441),
	EASES125km:   ease1(EASES125km, 3409, FamilySouth, -9030574.08, 9030574.08, 12533.76, 1441, 1441),
	EASE2G25km:   ease2(EASE2G25km, 6933, FamilyGlobal, -17367530.45, 7307375.92, 25025.26, 1388, 584),
	EASE2N25km:   ease2(EASE2N25km, 6931, FamilyNorth, -9000000.0, 9000000.0, 25000.00, 720, 720),
	EASE2S25km:   ease2(EASE2S25km, 6932, FamilySouth, -9000000.0, 9000000.0, 25000.00, 720, 720),
	EASEG25km:    ease1(EASEG25km, 3410, FamilyGlobal, -17334193.54, 7338516.48, 25067.53, 1383, 586),
	EASEN25km:    ease1(EASEN25km, 3408, FamilyNorth, -9036842.76, 9036842.76, 25067.53, 721, 721),
	EASES25km:    ease1(EASES25km, 3409, FamilySouth, -9036842.76, 9036842.76, 25067.53, 721, 721),
	EASE2G36km:   ease2(EASE2G36km, 6933, FamilyGlobal, -17367530.45, 7314540.83, 36032.22, 964, 406),
	EASE2N36km:   ease2(EASE2N36km, 6931, FamilyNorth, -9000000.0, 9000000.0, 36000.00, 500, 500),
	EASE2S36km:   ease2(EASE2S36km, 6932, FamilySouth, -9000000.0, 9000000.0, 36000.00, 500, 500),
}

// ByName returns the named grid definition.
func ByName(name string) (GridDefinition, error) {
	g, ok := catalog[name]
	if !ok {
		return GridDefinition{}, fmt.Errorf("unsupported grid %q (known grids: %d)", name, len(catalog))
	}
	return g, nil
}

// Names lists every supported grid name in sorted order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
