package orders

import "math"

// round5 matches the 5-decimal rounding the map widget applies to
// click coordinates before reporting them back.
func round5(f float64) float64 {
	return math.Round(f*1e5) / 1e5
}

// Nearest returns the row closest to the clicked coordinate by L1
// (Manhattan) distance on 5-decimal-rounded coordinates. Ties go to
// the earliest row in table order; rows without coordinates are never
// candidates. Returns nil when no row is mappable.
func Nearest(rows []Row, lat, lng float64) *Row {
	latC := round5(lat)
	lngC := round5(lng)

	var best *Row
	bestDist := math.Inf(1)
	for i := range rows {
		r := &rows[i]
		if !r.Mappable() {
			continue
		}
		dist := math.Abs(round5(*r.Lat)-latC) + math.Abs(round5(*r.Lng)-lngC)
		if dist < bestDist {
			best = r
			bestDist = dist
		}
	}
	return best
}
