package utils

import "math"

// RoundFloat rounds val to the given number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// NearlyEqual reports whether two amounts agree within the given tolerance.
func NearlyEqual(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}
