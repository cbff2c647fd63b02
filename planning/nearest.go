// Package planning implements the per-cycle path queries: the nearest waypoint to a pose, the
// lookahead window that starts there, and distances along the path.
package planning

import (
	"math"

	"go.viam.com/trajectory/path"
	"go.viam.com/trajectory/spatialmath"
)

// Locate returns the index of the waypoint closest to the pose position by 3-D Euclidean
// distance. The lowest index wins a tie. The pose heading is not consulted, so the result can lie
// behind the vehicle; see LocateAhead.
func Locate(p *path.Path, pose spatialmath.Pose) (int, error) {
	n := p.Len()
	if n == 0 {
		return 0, path.ErrEmptyPath
	}
	best := 0
	bestDist := math.Inf(1)
	for i := 0; i < n; i++ {
		// strict less-than keeps the earliest index on ties
		if d := spatialmath.Distance(pose.Point, p.At(i).Position); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}

// LocateAhead is an optional heading-aware variant of Locate. It starts from the nearest index
// and, when that waypoint lies behind the vehicle (its bearing from the vehicle is more than 90
// degrees off the pose heading), steps to the following waypoint. A waypoint coinciding with the
// vehicle position is never considered behind.
func LocateAhead(p *path.Path, pose spatialmath.Pose) (int, error) {
	idx, err := Locate(p, pose)
	if err != nil {
		return 0, err
	}
	nearest := p.At(idx).Position
	if spatialmath.Distance(pose.Point, nearest) == 0 {
		return idx, nil
	}
	if spatialmath.AngleBetween(spatialmath.Bearing(pose.Point, nearest), pose.Heading) > math.Pi/2 {
		return p.Index(idx + 1), nil
	}
	return idx, nil
}

// A Locator finds the start index of a lookahead window.
type Locator func(p *path.Path, pose spatialmath.Pose) (int, error)

// LocatorFor returns LocateAhead when headingAware is set, Locate otherwise.
func LocatorFor(headingAware bool) Locator {
	if headingAware {
		return LocateAhead
	}
	return Locate
}
