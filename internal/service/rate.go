package service

import "math"

// Rate derives a percentage from counts, rounded half-away-from-zero to two
// decimal places. A zero total yields 0.0 rather than dividing by zero.
func Rate(present, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return math.Round(float64(present)/float64(total)*10000) / 100
}
