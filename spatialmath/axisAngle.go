package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/motionframes/utils"
)

// See here for a thorough explanation: https://en.wikipedia.org/wiki/Axis%E2%80%93angle_representation
// An orientation can be expressed by an axis, a line from the origin to a point (rx, ry, rz) on the
// unit sphere, and a rotation theta around that axis. These four numbers can be used as-is (R4), or
// theta can be folded into the axis to give a vector whose length is theta (R3).

// R4AA represents an R4 axis angle. Frame tables print orientations this way because, unlike Euler
// triples, it has no singular configuration.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates the identity rotation about +Z.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// ToR3 converts an R4 angle axis to R3.
func (r4 R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX * r4.Theta, Y: r4.RY * r4.Theta, Z: r4.RZ * r4.Theta}
}

// ToQuat converts an R4 axis angle to a unit quaternion.
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/angleToQuaternion/index.htm
func (r4 R4AA) ToQuat() quat.Number {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	sinA := math.Sin(r4.Theta/2) / norm
	return quat.Number{Real: math.Cos(r4.Theta / 2), Imag: r4.RX * sinA, Jmag: r4.RY * sinA, Kmag: r4.RZ * sinA}
}

// EulerAngles returns the rotation as Euler angles in radians.
func (r4 R4AA) EulerAngles() EulerAngles {
	return QuatToEulerAngles(r4.ToQuat())
}

// String renders the axis angle with theta in degrees.
func (r4 R4AA) String() string {
	return fmt.Sprintf("%.2f° about (%.3f, %.3f, %.3f)", utils.RadToDeg(r4.Theta), r4.RX, r4.RY, r4.RZ)
}

// R3ToR4 converts an R3 angle axis to R4.
func R3ToR4(aa r3.Vector) R4AA {
	theta := aa.Norm()
	if theta == 0 {
		return *NewR4AA()
	}
	return R4AA{theta, aa.X / theta, aa.Y / theta, aa.Z / theta}
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen library does. The
// returned angle is always in [0, pi].
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR4AA(q quat.Number) R4AA {
	if q.Real < 0 {
		q = Flip(q)
	}
	denom := Norm(q)
	angle := 2 * math.Atan2(denom, q.Real)
	if denom < 1e-6 {
		return R4AA{angle, 0, 0, 1}
	}
	return R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}
