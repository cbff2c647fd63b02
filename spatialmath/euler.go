package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// EulerAngles are roll, pitch and yaw in radians.
type EulerAngles struct {
	Roll  float64
	Pitch float64
	Yaw   float64
}

// QuatToEuler converts a rotation quaternion to euler angles. The quaternion is normalized first
// so sensor rounding does not push the pitch term outside asin's domain.
// See the following wikipedia page for the formulas used here:
// https://en.wikipedia.org/wiki/Conversion_between_quaternions_and_Euler_angles#Quaternion_to_Euler_angles_conversion
func QuatToEuler(q quat.Number) EulerAngles {
	if norm := quat.Abs(q); norm != 0 && !math.IsNaN(norm) && !math.IsInf(norm, 0) {
		q = quat.Scale(1/norm, q)
	}
	w := q.Real
	x := q.Imag
	y := q.Jmag
	z := q.Kmag

	sinPitch := math.Max(-1, math.Min(1, 2*(w*y-x*z)))
	return EulerAngles{
		Roll:  math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		Pitch: math.Asin(sinPitch),
		Yaw:   NormalizeAngle(math.Atan2(2*(w*z+y*x), 1-2*(y*y+z*z))),
	}
}

// QuatToYaw returns only the yaw of a rotation quaternion, in (-π, π].
func QuatToYaw(q quat.Number) float64 {
	return QuatToEuler(q).Yaw
}

// YawToQuat returns the quaternion of a pure rotation about +Z by yaw radians.
func YawToQuat(yaw float64) quat.Number {
	return quat.Number{Real: math.Cos(yaw / 2), Kmag: math.Sin(yaw / 2)}
}
