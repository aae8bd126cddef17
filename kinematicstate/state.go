// Package kinematicstate defines the time-tagged kinematic bundle of a point object and its
// conversion between Cartesian and spherical coordinates.
package kinematicstate

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/motionframes/spatialmath"
	"go.viam.com/motionframes/utils"
)

// CoordinateSystem identifies which description of position the vectors of a State hold.
type CoordinateSystem int

const (
	// UnknownCoordinateSystem is the zero value and never valid on a constructed state.
	UnknownCoordinateSystem CoordinateSystem = iota
	// Cartesian states hold x, y, z in X, Y, Z.
	Cartesian
	// Spherical states hold horizontal angle, vertical angle and range in X, Y, Z.
	Spherical
)

func (c CoordinateSystem) String() string {
	switch c {
	case Cartesian:
		return "cartesian"
	case Spherical:
		return "spherical"
	case UnknownCoordinateSystem:
	}
	return "unknown"
}

// ParseCoordinateSystem converts the output of CoordinateSystem.String back into its value.
func ParseCoordinateSystem(s string) (CoordinateSystem, error) {
	switch s {
	case "cartesian":
		return Cartesian, nil
	case "spherical":
		return Spherical, nil
	}
	return UnknownCoordinateSystem, errors.Errorf("unknown coordinate system %q", s)
}

// Derivative selects position, velocity or acceleration in the component accessors.
type Derivative int

// The derivatives of position.
const (
	UnknownDerivative Derivative = iota
	Position
	Velocity
	Acceleration
)

func (d Derivative) String() string {
	switch d {
	case Position:
		return "position"
	case Velocity:
		return "velocity"
	case Acceleration:
		return "acceleration"
	case UnknownDerivative:
	}
	return "unknown"
}

// State is a time-tagged kinematic bundle. Spherical states keep their horizontal and vertical
// angles (and their rates) in Units, the same as the Euler triples.
type State struct {
	Time   float64
	System CoordinateSystem
	Units  spatialmath.AngleUnits

	Position     r3.Vector
	Velocity     r3.Vector
	Acceleration r3.Vector

	Orientation             spatialmath.EulerAngles
	OrientationRate         spatialmath.EulerAngles
	OrientationAcceleration spatialmath.EulerAngles
}

// NewCartesian returns a zero Cartesian state at time t with angles in radians.
func NewCartesian(t float64) State {
	return State{Time: t, System: Cartesian, Units: spatialmath.Radians}
}

// NewSpherical returns a zero spherical state at time t with angles in radians.
func NewSpherical(t float64) State {
	return State{Time: t, System: Spherical, Units: spatialmath.Radians}
}

// Project returns the state advanced to time t under constant linear and angular acceleration.
func (s State) Project(t float64) State {
	return s.ProjectDelta(t - s.Time)
}

// ProjectDelta returns the state advanced by dt under constant linear and angular acceleration.
// Spherical states are projected in their own coordinates.
func (s State) ProjectDelta(dt float64) State {
	if dt == 0 {
		return s
	}
	s.Time += dt
	s.Position, s.Velocity = ProjectVector(s.Position, s.Velocity, s.Acceleration, dt)
	orientation, rate := ProjectVector(s.Orientation.Vector(), s.OrientationRate.Vector(), s.OrientationAcceleration.Vector(), dt)
	s.Orientation = spatialmath.EulerAnglesFromVector(orientation)
	s.OrientationRate = spatialmath.EulerAnglesFromVector(rate)
	return s
}

// ProjectVector applies the constant-acceleration model: x + v dt + a dt^2 / 2 and v + a dt.
func ProjectVector(x, v, a r3.Vector, dt float64) (r3.Vector, r3.Vector) {
	return x.Add(v.Mul(dt)).Add(a.Mul(0.5 * dt * dt)), v.Add(a.Mul(dt))
}

// InUnits returns the state with its angular members expressed in units u.
func (s State) InUnits(u spatialmath.AngleUnits) State {
	if s.Units == u {
		return s
	}
	from := s.Units
	s.Orientation = s.Orientation.Convert(from, u)
	s.OrientationRate = s.OrientationRate.Convert(from, u)
	s.OrientationAcceleration = s.OrientationAcceleration.Convert(from, u)
	if s.System == Spherical {
		convert := func(v r3.Vector) r3.Vector {
			return r3.Vector{X: from.Convert(v.X, u), Y: from.Convert(v.Y, u), Z: v.Z}
		}
		s.Position = convert(s.Position)
		s.Velocity = convert(s.Velocity)
		s.Acceleration = convert(s.Acceleration)
	}
	s.Units = u
	return s
}

func (s *State) vector(d Derivative) *r3.Vector {
	switch d {
	case Position:
		return &s.Position
	case Velocity:
		return &s.Velocity
	case Acceleration:
		return &s.Acceleration
	case UnknownDerivative:
	}
	panic(utils.NewUnknownEnumPanic("derivative", d))
}

func (s *State) euler(d Derivative) *spatialmath.EulerAngles {
	switch d {
	case Position:
		return &s.Orientation
	case Velocity:
		return &s.OrientationRate
	case Acceleration:
		return &s.OrientationAcceleration
	case UnknownDerivative:
	}
	panic(utils.NewUnknownEnumPanic("derivative", d))
}

func (s State) mustBe(system CoordinateSystem) {
	if s.System != system {
		panic(errors.Errorf("%s accessor used on a %s state", system, s.System))
	}
}

// CartesianComponent returns one scalar of a Cartesian state. It panics on unknown enums or on a
// spherical state.
func (s State) CartesianComponent(d Derivative, axis spatialmath.CartesianAxis) float64 {
	s.mustBe(Cartesian)
	return spatialmath.VectorComponent(*s.vector(d), axis)
}

// SetCartesianComponent sets one scalar of a Cartesian state.
func (s *State) SetCartesianComponent(d Derivative, axis spatialmath.CartesianAxis, v float64) {
	s.mustBe(Cartesian)
	vec := s.vector(d)
	switch axis {
	case spatialmath.X:
		vec.X = v
	case spatialmath.Y:
		vec.Y = v
	case spatialmath.Z:
		vec.Z = v
	case spatialmath.UnknownCartesianAxis:
		panic(utils.NewUnknownEnumPanic("cartesian axis", axis))
	}
}

// SphericalComponent returns one scalar of a spherical state. It panics on unknown enums or on a
// Cartesian state.
func (s State) SphericalComponent(d Derivative, axis spatialmath.SphericalAxis) float64 {
	s.mustBe(Spherical)
	return spatialmath.SphericalComponent(*s.vector(d), axis)
}

// SetSphericalComponent sets one scalar of a spherical state.
func (s *State) SetSphericalComponent(d Derivative, axis spatialmath.SphericalAxis, v float64) {
	s.mustBe(Spherical)
	vec := s.vector(d)
	switch axis {
	case spatialmath.Horizontal:
		vec.X = v
	case spatialmath.Vertical:
		vec.Y = v
	case spatialmath.Radial:
		vec.Z = v
	case spatialmath.UnknownSphericalAxis:
		panic(utils.NewUnknownEnumPanic("spherical axis", axis))
	}
}

// EulerComponent returns one scalar of the orientation, its rate or its acceleration.
func (s State) EulerComponent(d Derivative, axis spatialmath.EulerAxis) float64 {
	return s.euler(d).Component(axis)
}

// SetEulerComponent sets one scalar of the orientation, its rate or its acceleration.
func (s *State) SetEulerComponent(d Derivative, axis spatialmath.EulerAxis, v float64) {
	s.euler(d).SetComponent(axis, v)
}

// AlmostEqual reports whether a and b describe the same state within tol. Orientations are
// compared as rotations so equivalent Euler triples match.
func AlmostEqual(a, b State, tol float64) bool {
	if a.System != b.System {
		return false
	}
	b = b.InUnits(a.Units)
	if math.Abs(a.Time-b.Time) > tol {
		return false
	}
	if !spatialmath.R3VectorAlmostEqual(a.Position, b.Position, tol) ||
		!spatialmath.R3VectorAlmostEqual(a.Velocity, b.Velocity, tol) ||
		!spatialmath.R3VectorAlmostEqual(a.Acceleration, b.Acceleration, tol) {
		return false
	}
	ar, br := a.InUnits(spatialmath.Radians), b.InUnits(spatialmath.Radians)
	return spatialmath.EulerAnglesAlmostEqual(ar.Orientation, br.Orientation, tol) &&
		spatialmath.R3VectorAlmostEqual(a.OrientationRate.Vector(), b.OrientationRate.Vector(), tol) &&
		spatialmath.R3VectorAlmostEqual(a.OrientationAcceleration.Vector(), b.OrientationAcceleration.Vector(), tol)
}
