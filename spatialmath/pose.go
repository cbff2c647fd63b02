// Package spatialmath defines the planar pose used by the trajectory updater and the conversions
// from the quaternion orientations reported by pose sources.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is a position plus a heading (yaw) in radians, normalized to (-π, π].
type Pose struct {
	Point   r3.Vector
	Heading float64
}

// NewPose returns a Pose with its heading normalized.
func NewPose(point r3.Vector, heading float64) Pose {
	return Pose{Point: point, Heading: NormalizeAngle(heading)}
}

// NewPoseFromQuaternion builds a Pose from a position and an orientation quaternion given as
// (x, y, z, w). Only the yaw of the orientation is kept.
func NewPoseFromQuaternion(point r3.Vector, qx, qy, qz, qw float64) Pose {
	q := quat.Number{Real: qw, Imag: qx, Jmag: qy, Kmag: qz}
	return Pose{Point: point, Heading: QuatToYaw(q)}
}

// IsFinite reports whether every coordinate and the heading are finite numbers.
func (p Pose) IsFinite() bool {
	return isFinite(p.Point.X) && isFinite(p.Point.Y) && isFinite(p.Point.Z) && isFinite(p.Heading)
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.3f, %.3f, %.3f) heading %.3f", p.Point.X, p.Point.Y, p.Point.Z, p.Heading)
}

// NormalizeAngle maps an angle in radians into (-π, π]. Non-finite input is returned unchanged.
func NormalizeAngle(theta float64) float64 {
	if !isFinite(theta) {
		return theta
	}
	theta = math.Mod(theta, 2*math.Pi)
	if theta <= -math.Pi {
		theta += 2 * math.Pi
	} else if theta > math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}

// AngleBetween returns the absolute difference between two headings, in [0, π].
func AngleBetween(a, b float64) float64 {
	return math.Abs(NormalizeAngle(a - b))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
