package referenceframe

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/motionframes/kinematicstate"
	"go.viam.com/motionframes/spatialmath"
	"go.viam.com/motionframes/utils"
)

// DefaultState is the name of the perturbation state every frame carries.
const DefaultState = "default"

// UpdateMode selects whether the time given to Update is absolute or an increment.
type UpdateMode int

const (
	// UnknownUpdateMode is the zero value and is never valid.
	UnknownUpdateMode UpdateMode = iota
	// UpdateAbsolute advances the state to the given time.
	UpdateAbsolute
	// UpdateDelta advances the state by the given amount of time.
	UpdateDelta
)

// FrameState is the motion of a frame's origin relative to its parent, expressed in the parent's
// axes, for one perturbation state. Orientation, RotationalRate and RotationalAcceleration are Euler
// triples of the frame's axes relative to the parent's axes.
type FrameState struct {
	owner FrameID
	name  string

	Time  float64
	Units spatialmath.AngleUnits

	Origin       r3.Vector
	Velocity     r3.Vector
	Acceleration r3.Vector

	Orientation            spatialmath.EulerAngles
	RotationalRate         spatialmath.EulerAngles
	RotationalAcceleration spatialmath.EulerAngles
}

// NewFrameState returns a zero frame state at time t with angles in radians.
func NewFrameState(t float64) *FrameState {
	return &FrameState{name: DefaultState, Time: t, Units: spatialmath.Radians}
}

// Name returns the perturbation state name.
func (fs *FrameState) Name() string {
	return fs.name
}

// Owner returns the handle of the frame this state belongs to. The zero handle means the state is
// not attached to a frame.
func (fs *FrameState) Owner() FrameID {
	return fs.owner
}

// Clone returns a copy of the state that is not attached to any frame.
func (fs *FrameState) Clone() *FrameState {
	c := *fs
	c.owner = FrameID{}
	return &c
}

// InUnits returns a copy with its Euler triples expressed in units u.
func (fs FrameState) InUnits(u spatialmath.AngleUnits) FrameState {
	if fs.Units == u {
		return fs
	}
	fs.Orientation = fs.Orientation.Convert(fs.Units, u)
	fs.RotationalRate = fs.RotationalRate.Convert(fs.Units, u)
	fs.RotationalAcceleration = fs.RotationalAcceleration.Convert(fs.Units, u)
	fs.Units = u
	return fs
}

// Update projects the state under constant linear and angular acceleration.
func (fs *FrameState) Update(t float64, mode UpdateMode) {
	dt := fs.deltaTo(t, mode)
	if dt == 0 {
		return
	}
	fs.Time += dt
	fs.Origin, fs.Velocity = kinematicstate.ProjectVector(fs.Origin, fs.Velocity, fs.Acceleration, dt)
	orientation, rate := kinematicstate.ProjectVector(
		fs.Orientation.Vector(), fs.RotationalRate.Vector(), fs.RotationalAcceleration.Vector(), dt)
	fs.Orientation = spatialmath.EulerAnglesFromVector(orientation)
	fs.RotationalRate = spatialmath.EulerAnglesFromVector(rate)
}

func (fs *FrameState) deltaTo(t float64, mode UpdateMode) float64 {
	switch mode {
	case UpdateAbsolute:
		return t - fs.Time
	case UpdateDelta:
		return t
	case UnknownUpdateMode:
	}
	panic(utils.NewUnknownEnumPanic("update mode", mode))
}

// IsRotating reports whether the frame has a nonzero rotational rate or acceleration.
func (fs *FrameState) IsRotating() bool {
	return !fs.RotationalRate.IsZero() || !fs.RotationalAcceleration.IsZero()
}

// IsNonInertial reports whether the frame is accelerating or rotating.
func (fs *FrameState) IsNonInertial() bool {
	return fs.Acceleration != (r3.Vector{}) || fs.IsRotating()
}

// SpatiallyEqual reports whether two states describe the same motion within tol. Time tags and
// identities are not compared.
func (fs *FrameState) SpatiallyEqual(other *FrameState, tol float64) bool {
	if other == nil {
		return false
	}
	a, b := fs.InUnits(spatialmath.Radians), other.InUnits(spatialmath.Radians)
	for _, pair := range [][2]r3.Vector{
		{a.Origin, b.Origin},
		{a.Velocity, b.Velocity},
		{a.Acceleration, b.Acceleration},
		{a.Orientation.Vector(), b.Orientation.Vector()},
		{a.RotationalRate.Vector(), b.RotationalRate.Vector()},
		{a.RotationalAcceleration.Vector(), b.RotationalAcceleration.Vector()},
	} {
		if !scalar.EqualWithinAbs(pair[0].X, pair[1].X, tol) ||
			!scalar.EqualWithinAbs(pair[0].Y, pair[1].Y, tol) ||
			!scalar.EqualWithinAbs(pair[0].Z, pair[1].Z, tol) {
			return false
		}
	}
	return true
}

// motion is the rotational part of a frame state resolved into the parent's axes, in radians.
type motion struct {
	q     quat.Number
	omega r3.Vector
	alpha r3.Vector
}

func (fs *FrameState) motion() motion {
	rad := fs.InUnits(spatialmath.Radians)
	m := motion{q: quat.Number{Real: 1}}
	if !rad.Orientation.IsZero() {
		m.q = rad.Orientation.Quaternion()
	}
	if !rad.RotationalRate.IsZero() {
		m.omega = spatialmath.RotateVector(m.q, spatialmath.EulerRatesToAngularVelocity(rad.Orientation, rad.RotationalRate))
	}
	if !rad.RotationalRate.IsZero() || !rad.RotationalAcceleration.IsZero() {
		m.alpha = spatialmath.RotateVector(m.q, spatialmath.EulerAccelerationsToAngularAcceleration(
			rad.Orientation, rad.RotationalRate, rad.RotationalAcceleration))
	}
	return m
}

func (m motion) rotated() bool {
	return m.q != quat.Number{Real: 1}
}

func (m motion) rotate(v r3.Vector) r3.Vector {
	if !m.rotated() {
		return v
	}
	return spatialmath.RotateVector(m.q, v)
}

func (m motion) unrotate(v r3.Vector) r3.Vector {
	if !m.rotated() {
		return v
	}
	return spatialmath.RotateVectorInverse(m.q, v)
}

func (m motion) still() bool {
	return !m.rotated() && m.omega == (r3.Vector{}) && m.alpha == (r3.Vector{})
}

// ToParent re-expresses a Cartesian state given in this frame in the frame's parent. The rigid-body
// corrections for the frame's rotation (tangential, centrifugal, Coriolis and Euler terms) are added
// and the body orientation is composed with the frame's orientation.
func (fs *FrameState) ToParent(s kinematicstate.State) kinematicstate.State {
	mustBeCartesian(s)
	units := s.Units
	s = s.InUnits(spatialmath.Radians)
	m := fs.motion()

	d := m.rotate(s.Position)
	vRel := m.rotate(s.Velocity)
	aRel := m.rotate(s.Acceleration)

	out := s
	out.Position = fs.Origin.Add(d)
	out.Velocity = fs.Velocity.Add(vRel)
	out.Acceleration = fs.Acceleration.Add(aRel)
	if m.omega != (r3.Vector{}) {
		tangential := m.omega.Cross(d)
		out.Velocity = out.Velocity.Add(tangential)
		out.Acceleration = out.Acceleration.
			Add(m.omega.Cross(tangential)).
			Add(m.omega.Cross(vRel).Mul(2))
	}
	if m.alpha != (r3.Vector{}) {
		out.Acceleration = out.Acceleration.Add(m.alpha.Cross(d))
	}

	if !m.still() {
		bodyQ := s.Orientation.Quaternion()
		q := quat.Mul(m.q, bodyQ)
		omegaRel := spatialmath.RotateVector(bodyQ, spatialmath.EulerRatesToAngularVelocity(s.Orientation, s.OrientationRate))
		alphaRel := spatialmath.RotateVector(bodyQ, spatialmath.EulerAccelerationsToAngularAcceleration(
			s.Orientation, s.OrientationRate, s.OrientationAcceleration))

		omegaRelParent := m.rotate(omegaRel)
		omega := m.omega.Add(omegaRelParent)
		alpha := m.alpha.Add(m.rotate(alphaRel)).Add(m.omega.Cross(omegaRelParent))
		out.Orientation, out.OrientationRate, out.OrientationAcceleration = eulerFromMotion(q, omega, alpha)
	}
	return out.InUnits(units)
}

// ToChild re-expresses a Cartesian state given in the frame's parent in this frame. It is the exact
// inverse of ToParent.
func (fs *FrameState) ToChild(s kinematicstate.State) kinematicstate.State {
	mustBeCartesian(s)
	units := s.Units
	s = s.InUnits(spatialmath.Radians)
	m := fs.motion()

	d := s.Position.Sub(fs.Origin)
	vRel := s.Velocity.Sub(fs.Velocity)
	aRel := s.Acceleration.Sub(fs.Acceleration)
	if m.omega != (r3.Vector{}) {
		tangential := m.omega.Cross(d)
		vRel = vRel.Sub(tangential)
		aRel = aRel.
			Sub(m.omega.Cross(tangential)).
			Sub(m.omega.Cross(vRel).Mul(2))
	}
	if m.alpha != (r3.Vector{}) {
		aRel = aRel.Sub(m.alpha.Cross(d))
	}

	out := s
	out.Position = m.unrotate(d)
	out.Velocity = m.unrotate(vRel)
	out.Acceleration = m.unrotate(aRel)

	if !m.still() {
		bodyQ := s.Orientation.Quaternion()
		q := quat.Mul(quat.Conj(m.q), bodyQ)
		omega := spatialmath.RotateVector(bodyQ, spatialmath.EulerRatesToAngularVelocity(s.Orientation, s.OrientationRate))
		alpha := spatialmath.RotateVector(bodyQ, spatialmath.EulerAccelerationsToAngularAcceleration(
			s.Orientation, s.OrientationRate, s.OrientationAcceleration))

		omegaRel := omega.Sub(m.omega)
		alphaRel := alpha.Sub(m.alpha).Sub(m.omega.Cross(omegaRel))
		out.Orientation, out.OrientationRate, out.OrientationAcceleration = eulerFromMotion(q, m.unrotate(omegaRel), m.unrotate(alphaRel))
	}
	return out.InUnits(units)
}

// eulerFromMotion converts an orientation and an angular velocity and acceleration, both in the
// reference axes, into Euler angles, rates and accelerations.
func eulerFromMotion(q quat.Number, omega, alpha r3.Vector) (spatialmath.EulerAngles, spatialmath.EulerAngles, spatialmath.EulerAngles) {
	angles := spatialmath.QuatToEulerAngles(q)
	if omega == (r3.Vector{}) && alpha == (r3.Vector{}) {
		return angles, spatialmath.EulerAngles{}, spatialmath.EulerAngles{}
	}
	rates := spatialmath.CalcEulerRates(angles, spatialmath.RotateVectorInverse(q, omega))
	accels := spatialmath.CalcEulerAccelerations(angles, rates, spatialmath.RotateVectorInverse(q, alpha))
	return angles, rates, accels
}

func mustBeCartesian(s kinematicstate.State) {
	if s.System != kinematicstate.Cartesian {
		panic("frame hops require a cartesian state, got " + s.System.String())
	}
}
