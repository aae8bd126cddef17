package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/motionframes/utils"
)

// EulerAngles are three angles used to represent the rotation of an object in 3D Euclidean space.
// The rotation is applied intrinsically in Z-Y-X order: yaw about Z, then pitch about the new Y,
// then roll about the newest X. The same struct carries Euler angle rates and accelerations.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{Roll: 0, Pitch: 0, Yaw: 0}
}

// EulerAnglesFromVector reads roll, pitch and yaw from the X, Y and Z members of v.
func EulerAnglesFromVector(v r3.Vector) EulerAngles {
	return EulerAngles{Roll: v.X, Pitch: v.Y, Yaw: v.Z}
}

// Vector returns the angles as roll, pitch, yaw in X, Y, Z.
func (ea EulerAngles) Vector() r3.Vector {
	return r3.Vector{X: ea.Roll, Y: ea.Pitch, Z: ea.Yaw}
}

// IsZero reports whether all three angles are exactly zero.
func (ea EulerAngles) IsZero() bool {
	return ea.Roll == 0 && ea.Pitch == 0 && ea.Yaw == 0
}

// Add returns the element-wise sum.
func (ea EulerAngles) Add(o EulerAngles) EulerAngles {
	return EulerAngles{ea.Roll + o.Roll, ea.Pitch + o.Pitch, ea.Yaw + o.Yaw}
}

// Sub returns the element-wise difference.
func (ea EulerAngles) Sub(o EulerAngles) EulerAngles {
	return EulerAngles{ea.Roll - o.Roll, ea.Pitch - o.Pitch, ea.Yaw - o.Yaw}
}

// Mul scales every angle by m.
func (ea EulerAngles) Mul(m float64) EulerAngles {
	return EulerAngles{ea.Roll * m, ea.Pitch * m, ea.Yaw * m}
}

// Convert converts the angles from units `from` to units `to`.
func (ea EulerAngles) Convert(from, to AngleUnits) EulerAngles {
	return EulerAngles{from.Convert(ea.Roll, to), from.Convert(ea.Pitch, to), from.Convert(ea.Yaw, to)}
}

// Component returns the member addressed by axis. It panics on UnknownEulerAxis.
func (ea EulerAngles) Component(axis EulerAxis) float64 {
	switch axis {
	case Roll:
		return ea.Roll
	case Pitch:
		return ea.Pitch
	case Yaw:
		return ea.Yaw
	case UnknownEulerAxis:
	}
	panic(utils.NewUnknownEnumPanic("euler axis", axis))
}

// SetComponent sets the member addressed by axis. It panics on UnknownEulerAxis.
func (ea *EulerAngles) SetComponent(axis EulerAxis, v float64) {
	switch axis {
	case Roll:
		ea.Roll = v
	case Pitch:
		ea.Pitch = v
	case Yaw:
		ea.Yaw = v
	case UnknownEulerAxis:
		panic(utils.NewUnknownEnumPanic("euler axis", axis))
	}
}

// Quaternion returns the unit quaternion for angles given in radians.
// See: https://en.wikipedia.org/wiki/Conversion_between_quaternions_and_Euler_angles
func (ea EulerAngles) Quaternion() quat.Number {
	sr, cr := math.Sincos(ea.Roll / 2)
	sp, cp := math.Sincos(ea.Pitch / 2)
	sy, cy := math.Sincos(ea.Yaw / 2)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// QuatToEulerAngles converts a rotation unit quaternion to euler angles in radians.
// Euler angles are terrible, don't use them for anything but input and output.
func QuatToEulerAngles(q quat.Number) EulerAngles {
	w := q.Real
	x := q.Imag
	y := q.Jmag
	z := q.Kmag

	// clamp so that floating point error near gimbal lock does not produce NaN
	sinPitch := math.Max(-1, math.Min(1, 2*(w*y-x*z)))

	return EulerAngles{
		Roll:  math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		Pitch: math.Asin(sinPitch),
		Yaw:   math.Atan2(2*(w*z+y*x), 1-2*(y*y+z*z)),
	}
}

// EulerAnglesAlmostEqual compares two orientations given in radians through their quaternions, so
// that equivalent triples such as a yaw of pi and -pi compare equal.
func EulerAnglesAlmostEqual(a, b EulerAngles, tol float64) bool {
	return QuaternionAlmostEqual(a.Quaternion(), b.Quaternion(), tol)
}
