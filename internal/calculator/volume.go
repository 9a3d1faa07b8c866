package calculator

import "gonum.org/v1/gonum/stat"

// VolumeMovingAverage is the arithmetic mean of the retained volumes, 0 when empty.
func VolumeMovingAverage(volumes []float64) float64 {
	if len(volumes) == 0 {
		return 0
	}
	return stat.Mean(volumes, nil)
}
