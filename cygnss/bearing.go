package cygnss

import (
	"math"

	"github.com/earthsignals/cygnss-gridder/model"
)

// greatCircleBearing returns the initial bearing, in degrees, of the great
// circle from point 1 to point 2. The result is in (-180, 180].
func greatCircleBearing(lat1, lon1, lat2, lon2 float64) float64 {
	const deg2rad = math.Pi / 180.0
	lat1 *= deg2rad
	lon1 *= deg2rad
	lat2 *= deg2rad
	lon2 *= deg2rad
	x := math.Cos(lat2) * math.Sin(lon2-lon1)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(lon2-lon1)
	return math.Atan2(x, y) / deg2rad
}

// orbitSegments splits a latitude sequence into segments of consistent
// travel direction. The returned slice assigns a segment index to each
// sample; the index increments wherever the sign of the latitude derivative
// flips, with the turning point assigned to the new segment.
func orbitSegments(lat []float64) []int {
	ids := make([]int, len(lat))
	if len(lat) < 2 {
		return ids
	}
	seg := 0
	prevAscending := lat[0] < lat[1]
	for s := 0; s < len(lat)-1; s++ {
		ascending := lat[s] < lat[s+1]
		if ascending != prevAscending {
			seg++
			prevAscending = ascending
		}
		ids[s] = seg
	}
	ids[len(lat)-1] = seg
	return ids
}

// estimateBearings fills in BearingDeg for every observation, estimating the
// direction of travel at each specular point from its neighbors along the
// same track. Tracks are split into ascending/descending orbit segments
// first so that a turn near the latitude extremes does not smear bearings
// across the turning point.
//
// Interior points use the bearing from the previous to the following point;
// segment ends fall back to their single adjacent neighbor. Observations in
// segments too short to orient get NaN.
func estimateBearings(obs []*model.Observation) {
	byTrack := make(map[int][]int)
	var trackOrder []int
	for i, o := range obs {
		if _, seen := byTrack[o.TrackID]; !seen {
			trackOrder = append(trackOrder, o.TrackID)
		}
		byTrack[o.TrackID] = append(byTrack[o.TrackID], i)
	}

	for _, track := range trackOrder {
		idx := byTrack[track]
		if len(idx) < 2 {
			for _, i := range idx {
				obs[i].BearingDeg = math.NaN()
			}
			continue
		}

		lats := make([]float64, len(idx))
		for k, i := range idx {
			lats[k] = obs[i].Lat
		}
		segIDs := orbitSegments(lats)

		maxSeg := segIDs[len(segIDs)-1]
		for seg := 0; seg <= maxSeg; seg++ {
			var segIdx []int
			for k, id := range segIDs {
				if id == seg {
					segIdx = append(segIdx, idx[k])
				}
			}
			estimateSegmentBearings(obs, segIdx)
		}
	}
}

func estimateSegmentBearings(obs []*model.Observation, idx []int) {
	n := len(idx)
	if n < 2 {
		for _, i := range idx {
			obs[i].BearingDeg = math.NaN()
		}
		return
	}

	first, second := obs[idx[0]], obs[idx[1]]
	obs[idx[0]].BearingDeg = greatCircleBearing(first.Lat, first.Lon, second.Lat, second.Lon)

	last, prev := obs[idx[n-1]], obs[idx[n-2]]
	obs[idx[n-1]].BearingDeg = greatCircleBearing(prev.Lat, prev.Lon, last.Lat, last.Lon)

	for k := 1; k < n-1; k++ {
		before, after := obs[idx[k-1]], obs[idx[k+1]]
		obs[idx[k]].BearingDeg = greatCircleBearing(before.Lat, before.Lon, after.Lat, after.Lon)
	}
}
