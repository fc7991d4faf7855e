package stats

import "math"

// PointsPerDay relates an estimate to the business days it took. It is nil
// when either side is missing or no days elapsed.
func PointsPerDay(points *float64, days *int) *float64 {
	if points == nil || days == nil || *days == 0 {
		return nil
	}
	r := math.Round((*points/float64(*days))*100) / 100
	return &r
}
