package kinematicstate

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/motionframes/spatialmath"
)

// CalcSphericalState converts a Cartesian state into the canonical spherical convention: azimuth
// measured from +X toward +Y, zenith measured from +Z, and range. Rates and accelerations are the
// analytic derivatives of those closed forms. At the origin every spherical member is zero; on the Z
// axis the azimuth and zenith rates and accelerations are zero. The state's angle units are kept.
func CalcSphericalState(c State) State {
	c.mustBe(Cartesian)
	out := c
	out.System = Spherical

	p, v, a := c.Position, c.Velocity, c.Acceleration
	r := p.Norm()
	if r == 0 {
		out.Position, out.Velocity, out.Acceleration = r3.Vector{}, r3.Vector{}, r3.Vector{}
		return out
	}

	rangeRate := p.Dot(v) / r
	rangeAccel := (v.Dot(v) + p.Dot(a) - rangeRate*rangeRate) / r

	azimuth := math.Atan2(p.Y, p.X)
	zenith := math.Acos(math.Max(-1, math.Min(1, p.Z/r)))

	var azimuthRate, azimuthAccel, zenithRate, zenithAccel float64
	rho2 := p.X*p.X + p.Y*p.Y
	if rho2 > 0 {
		rho := math.Sqrt(rho2)
		planarDot := p.X*v.X + p.Y*v.Y
		azimuthRate = (p.X*v.Y - p.Y*v.X) / rho2
		azimuthAccel = (p.X*a.Y-p.Y*a.X)/rho2 - 2*azimuthRate*planarDot/rho2

		rhoRate := planarDot / rho
		rhoAccel := (v.X*v.X + v.Y*v.Y + p.X*a.X + p.Y*a.Y - rhoRate*rhoRate) / rho
		r2 := r * r
		zenithRate = (p.Z*rhoRate - rho*v.Z) / r2
		zenithAccel = (p.Z*rhoAccel-rho*a.Z)/r2 - 2*zenithRate*rangeRate/r
	}

	out.Position = anglesFromRadians(r3.Vector{X: azimuth, Y: zenith, Z: r}, c.Units)
	out.Velocity = anglesFromRadians(r3.Vector{X: azimuthRate, Y: zenithRate, Z: rangeRate}, c.Units)
	out.Acceleration = anglesFromRadians(r3.Vector{X: azimuthAccel, Y: zenithAccel, Z: rangeAccel}, c.Units)
	return out
}

// CalcCartesianState is the inverse of CalcSphericalState: it converts a state in the canonical
// spherical convention back into Cartesian coordinates.
func CalcCartesianState(s State) State {
	s.mustBe(Spherical)
	pos := anglesToRadians(s.Position, s.Units)
	vel := anglesToRadians(s.Velocity, s.Units)
	acc := anglesToRadians(s.Acceleration, s.Units)

	phi, theta, r := pos.X, pos.Y, pos.Z
	phiRate, thetaRate, rRate := vel.X, vel.Y, vel.Z
	phiAccel, thetaAccel, rAccel := acc.X, acc.Y, acc.Z

	sinTheta, cosTheta := math.Sincos(theta)
	sinPhi, cosPhi := math.Sincos(phi)
	eR := r3.Vector{X: sinTheta * cosPhi, Y: sinTheta * sinPhi, Z: cosTheta}
	eTheta := r3.Vector{X: cosTheta * cosPhi, Y: cosTheta * sinPhi, Z: -sinTheta}
	ePhi := r3.Vector{X: -sinPhi, Y: cosPhi}

	out := s
	out.System = Cartesian
	out.Position = eR.Mul(r)
	out.Velocity = eR.Mul(rRate).
		Add(eTheta.Mul(r * thetaRate)).
		Add(ePhi.Mul(r * sinTheta * phiRate))
	out.Acceleration = eR.Mul(rAccel - r*thetaRate*thetaRate - r*sinTheta*sinTheta*phiRate*phiRate).
		Add(eTheta.Mul(r*thetaAccel + 2*rRate*thetaRate - r*sinTheta*cosTheta*phiRate*phiRate)).
		Add(ePhi.Mul(r*sinTheta*phiAccel + 2*rRate*sinTheta*phiRate + 2*r*cosTheta*thetaRate*phiRate))
	return out
}

// anglesFromRadians converts the horizontal and vertical members of a spherical triple.
func anglesFromRadians(v r3.Vector, u spatialmath.AngleUnits) r3.Vector {
	return r3.Vector{X: u.FromRadians(v.X), Y: u.FromRadians(v.Y), Z: v.Z}
}

func anglesToRadians(v r3.Vector, u spatialmath.AngleUnits) r3.Vector {
	return r3.Vector{X: u.ToRadians(v.X), Y: u.ToRadians(v.Y), Z: v.Z}
}

// ToSpherical converts the state to spherical coordinates in the given convention. Spherical
// states are returned unchanged.
func (s State) ToSpherical(conv SphericalConvention) State {
	if s.System == Spherical {
		return s
	}
	units := s.Units
	canonical := CalcSphericalState(s).InUnits(spatialmath.Radians)
	return conv.FromAzimuthZenith(canonical).InUnits(units)
}

// ToCartesian converts the state, whose horizontal and vertical angles follow the given
// convention, to Cartesian coordinates. Cartesian states are returned unchanged.
func (s State) ToCartesian(conv SphericalConvention) State {
	if s.System == Cartesian {
		return s
	}
	units := s.Units
	canonical := conv.ToAzimuthZenith(s.InUnits(spatialmath.Radians))
	return CalcCartesianState(canonical).InUnits(units)
}

// ConvertTo converts the state to the requested coordinate system.
func (s State) ConvertTo(system CoordinateSystem, conv SphericalConvention) State {
	switch system {
	case Cartesian:
		return s.ToCartesian(conv)
	case Spherical:
		return s.ToSpherical(conv)
	case UnknownCoordinateSystem:
	}
	panic(unknownSystemPanic(system))
}
