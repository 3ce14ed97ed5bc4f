package cygnss

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"

	"github.com/earthsignals/cygnss-gridder/grids"
	"github.com/earthsignals/cygnss-gridder/model"
)

// Accumulator carries the per-cell weighted sums of one aggregation pass.
// Accumulators over disjoint row subsets merge by elementwise addition
// before the final division, so partial results from parallel ingestion
// reduce to the same grid as a single pass.
type Accumulator struct {
	Grid   grids.GridDefinition
	Sum    *sparse.DenseArray
	Weight *sparse.DenseArray
}

// NewAccumulator returns a zeroed accumulator shaped for the grid.
func NewAccumulator(grid grids.GridDefinition) *Accumulator {
	return &Accumulator{
		Grid:   grid,
		Sum:    sparse.ZerosDense(grid.NRows, grid.NCols),
		Weight: sparse.ZerosDense(grid.NRows, grid.NCols),
	}
}

func (a *Accumulator) add(row, col int, value, weight float64) {
	a.Sum.Elements[row*a.Grid.NCols+col] += value * weight
	a.Weight.Elements[row*a.Grid.NCols+col] += weight
}

// Merge folds another accumulator over the same grid into this one.
func (a *Accumulator) Merge(other *Accumulator) error {
	if other.Grid.Name != a.Grid.Name {
		return &ConfigurationError{Reason: fmt.Sprintf("cannot merge accumulators for grids %s and %s", a.Grid.Name, other.Grid.Name)}
	}
	floats.Add(a.Sum.Elements, other.Sum.Elements)
	floats.Add(a.Weight.Elements, other.Weight.Elements)
	return nil
}

// Finalize divides sums by weights, yielding the aggregated grid. Cells
// that accumulated no weight come out NaN, never zero.
func (a *Accumulator) Finalize() *sparse.DenseArray {
	out := sparse.ZerosDense(a.Grid.NRows, a.Grid.NCols)
	for i, w := range a.Weight.Elements {
		if w == 0 {
			out.Elements[i] = math.NaN()
		} else {
			out.Elements[i] = a.Sum.Elements[i] / w
		}
	}
	return out
}

// Aggregate reduces observation rows to one value per grid cell of the
// named variable, under the selected weighting method. Zero rows yield an
// all-NaN grid.
func Aggregate(rows []*model.Observation, grid grids.GridDefinition, variable string, method model.AggregationMethod) (*sparse.DenseArray, error) {
	acc, err := Accumulate(rows, grid, variable, method)
	if err != nil {
		return nil, err
	}
	return acc.Finalize(), nil
}

// Accumulate runs the weighting method over rows without the final
// division, so callers may merge partial accumulators first.
func Accumulate(rows []*model.Observation, grid grids.GridDefinition, variable string, method model.AggregationMethod) (*Accumulator, error) {
	acc := NewAccumulator(grid)
	switch method {
	case model.DropInBucket:
		if err := dropInBucket(acc, rows, variable); err != nil {
			return nil, err
		}
	case model.InverseDistance:
		if err := inverseDistance(acc, rows, variable); err != nil {
			return nil, err
		}
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown aggregation method %q", method)}
	}
	return acc, nil
}

// dropInBucket assigns each observation wholly to its containing cell; the
// cell value is the arithmetic mean of its observations.
func dropInBucket(acc *Accumulator, rows []*model.Observation, variable string) error {
	for _, obs := range rows {
		value, ok := obs.Value(variable)
		if !ok {
			return &ConfigurationError{Reason: fmt.Sprintf("variable %q was not ingested", variable)}
		}
		col, row, err := acc.Grid.LonLatToCell(obs.Lon, obs.Lat)
		if err != nil {
			return err
		}
		acc.add(row, col, value, 1)
	}
	return nil
}

// idwMinDistanceM floors the distance used for inverse-square weights so an
// observation sitting exactly on a cell center cannot produce an infinite
// weight.
const idwMinDistanceM = 1.0

// inverseDistance spreads each observation across nearby cell centers with
// 1/d² weights, admitting only centers within the distance threshold.
func inverseDistance(acc *Accumulator, rows []*model.Observation, variable string) error {
	if !acc.Grid.Metric() {
		return &ConfigurationError{Reason: fmt.Sprintf("inverse-distance weighting needs a metric grid, %s has units %q", acc.Grid.Name, acc.Grid.Units)}
	}
	thresholdM := float64(IDWDistanceThresholdKm * 1000)

	for _, obs := range rows {
		value, ok := obs.Value(variable)
		if !ok {
			return &ConfigurationError{Reason: fmt.Sprintf("variable %q was not ingested", variable)}
		}
		col, row, err := acc.Grid.LonLatToCell(obs.Lon, obs.Lat)
		if err != nil {
			return err
		}
		for _, cell := range nearbyCells(acc.Grid, row, col) {
			lon, lat, err := acc.Grid.CellToLonLat(cell.col, cell.row)
			if err != nil {
				continue
			}
			d := haversineM(obs.Lat, obs.Lon, lat, lon)
			if d >= thresholdM {
				continue
			}
			if d < idwMinDistanceM {
				d = idwMinDistanceM
			}
			acc.add(cell.row, cell.col, value, 1/(d*d))
		}
	}
	return nil
}

type gridCell struct {
	row, col int
}

// nearbyCells returns the candidate cells around (row, col) reachable by
// stepping up to N cells along each axis, where N covers the admission
// threshold at the grid's resolution. Columns wrap around at both grid
// edges; rows clamp at the poles. Each cell appears once.
func nearbyCells(grid grids.GridDefinition, row, col int) []gridCell {
	steps := int(math.Ceil(grid.Res / (IDWDistanceThresholdKm * 1000)))

	rowCands := []int{row}
	colCands := []int{col}
	for n := 1; n <= steps; n++ {
		if row+n < grid.NRows {
			rowCands = append(rowCands, row+n)
		}
		if row-n >= 0 {
			rowCands = append(rowCands, row-n)
		}
		colCands = append(colCands, ((col+n)%grid.NCols+grid.NCols)%grid.NCols)
		colCands = append(colCands, ((col-n)%grid.NCols+grid.NCols)%grid.NCols)
	}

	seen := make(map[gridCell]bool, len(rowCands)*len(colCands))
	cells := make([]gridCell, 0, len(rowCands)*len(colCands))
	for _, r := range rowCands {
		for _, c := range colCands {
			cell := gridCell{row: r, col: c}
			if seen[cell] {
				continue
			}
			seen[cell] = true
			cells = append(cells, cell)
		}
	}
	return cells
}

// haversineM returns the great-circle distance between two lon/lat points
// in meters, on a sphere of Earth's mean radius.
func haversineM(lat1, lon1, lat2, lon2 float64) float64 {
	const deg2rad = math.Pi / 180.0
	lat1 *= deg2rad
	lon1 *= deg2rad
	lat2 *= deg2rad
	lon2 *= deg2rad
	dLat := lat2 - lat1
	dLon := lon2 - lon1
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a)) * EarthRadiusKm * 1000
}
