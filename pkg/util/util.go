package util

import "math"

func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// RoundToMeter rounds a distance in meters to the nearest whole meter,
// matching the rounding used in user-facing distance messages.
func RoundToMeter(meters float64) int64 {
	return int64(math.Round(meters))
}
