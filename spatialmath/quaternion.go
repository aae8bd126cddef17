package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/motionframes/utils"
)

// QuaternionAlmostEqual is an equality test for two quaternions representing rotations. q and -q
// describe the same rotation and are considered equal.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	same := utils.Float64AlmostEqual(a.Real, b.Real, tol) &&
		utils.Float64AlmostEqual(a.Imag, b.Imag, tol) &&
		utils.Float64AlmostEqual(a.Jmag, b.Jmag, tol) &&
		utils.Float64AlmostEqual(a.Kmag, b.Kmag, tol)
	if same {
		return true
	}
	f := Flip(b)
	return utils.Float64AlmostEqual(a.Real, f.Real, tol) &&
		utils.Float64AlmostEqual(a.Imag, f.Imag, tol) &&
		utils.Float64AlmostEqual(a.Jmag, f.Jmag, tol) &&
		utils.Float64AlmostEqual(a.Kmag, f.Kmag, tol)
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// Norm returns the norm of the quaternion, i.e. the sqrt of the squares of the imaginary parts.
func Norm(q quat.Number) float64 {
	return math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
}

// Normalize returns q scaled to unit length. The zero quaternion maps to the identity.
func Normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/n, q)
}

// RotateVector rotates v by q, i.e. computes q*v*conj(q). When q is the orientation of a child
// frame relative to its parent, this maps a vector from child axes into parent axes.
func RotateVector(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vector{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// RotateVectorInverse rotates v by the conjugate of q, mapping parent axes into child axes.
func RotateVectorInverse(q quat.Number, v r3.Vector) r3.Vector {
	return RotateVector(quat.Conj(q), v)
}

// VectorComponent returns the member of v addressed by axis. It panics on UnknownCartesianAxis.
func VectorComponent(v r3.Vector, axis CartesianAxis) float64 {
	switch axis {
	case X:
		return v.X
	case Y:
		return v.Y
	case Z:
		return v.Z
	case UnknownCartesianAxis:
	}
	panic(utils.NewUnknownEnumPanic("cartesian axis", axis))
}

// SphericalComponent returns the member of a spherical triple stored as (horizontal, vertical,
// radial) in (X, Y, Z). It panics on UnknownSphericalAxis.
func SphericalComponent(v r3.Vector, axis SphericalAxis) float64 {
	switch axis {
	case Horizontal:
		return v.X
	case Vertical:
		return v.Y
	case Radial:
		return v.Z
	case UnknownSphericalAxis:
	}
	panic(utils.NewUnknownEnumPanic("spherical axis", axis))
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) <= epsilon && math.Abs(a.Y-b.Y) <= epsilon && math.Abs(a.Z-b.Z) <= epsilon
}
