package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Distance is the 3-D Euclidean distance between two positions.
func Distance(a, b r3.Vector) float64 {
	return a.Sub(b).Norm()
}

// Bearing is the planar direction, in radians, of the vector pointing from one position to another.
func Bearing(from, to r3.Vector) float64 {
	return math.Atan2(to.Y-from.Y, to.X-from.X)
}
