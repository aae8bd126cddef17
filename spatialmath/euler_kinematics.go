package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Below this |cos(pitch)| the yaw and roll rates cannot be separated (gimbal lock). The yaw rate is
// reported as zero and the whole spin about the body x axis is attributed to roll.
const gimbalLockEpsilon = 1e-12

// EulerRatesToAngularVelocity returns the angular velocity, in body axes, of an object at Euler
// angles e changing at Euler rates. All inputs are in radians.
func EulerRatesToAngularVelocity(e, rates EulerAngles) r3.Vector {
	sr, cr := math.Sincos(e.Roll)
	sp, cp := math.Sincos(e.Pitch)
	return r3.Vector{
		X: rates.Roll - rates.Yaw*sp,
		Y: rates.Pitch*cr + rates.Yaw*cp*sr,
		Z: -rates.Pitch*sr + rates.Yaw*cp*cr,
	}
}

// CalcEulerRates is the inverse of EulerRatesToAngularVelocity: given Euler angles and a body-axis
// angular velocity it returns the Euler angle rates.
func CalcEulerRates(e EulerAngles, w r3.Vector) EulerAngles {
	sr, cr := math.Sincos(e.Roll)
	sp, cp := math.Sincos(e.Pitch)

	pitchRate := w.Y*cr - w.Z*sr
	if math.Abs(cp) < gimbalLockEpsilon {
		return EulerAngles{Roll: w.X, Pitch: pitchRate, Yaw: 0}
	}
	yawRate := (w.Y*sr + w.Z*cr) / cp
	return EulerAngles{
		Roll:  w.X + yawRate*sp,
		Pitch: pitchRate,
		Yaw:   yawRate,
	}
}

// eulerRateProducts is the part of the body angular acceleration that comes from the Euler
// rates alone (the time derivative of the Euler-rate matrix applied to the rates).
func eulerRateProducts(e, rates EulerAngles) r3.Vector {
	sr, cr := math.Sincos(e.Roll)
	sp, cp := math.Sincos(e.Pitch)
	rr, pr, yr := rates.Roll, rates.Pitch, rates.Yaw
	return r3.Vector{
		X: -yr * pr * cp,
		Y: -pr*rr*sr - yr*pr*sp*sr + yr*rr*cp*cr,
		Z: -pr*rr*cr - yr*pr*sp*cr - yr*rr*cp*sr,
	}
}

// EulerAccelerationsToAngularAcceleration returns the body-axis angular acceleration of an
// object at Euler angles e with the given Euler rates and Euler accelerations.
func EulerAccelerationsToAngularAcceleration(e, rates, accelerations EulerAngles) r3.Vector {
	return EulerRatesToAngularVelocity(e, accelerations).Add(eulerRateProducts(e, rates))
}

// CalcEulerAccelerations is the inverse of EulerAccelerationsToAngularAcceleration: given Euler
// angles, Euler rates and a body-axis angular acceleration it returns the Euler accelerations.
func CalcEulerAccelerations(e, rates EulerAngles, alpha r3.Vector) EulerAngles {
	return CalcEulerRates(e, alpha.Sub(eulerRateProducts(e, rates)))
}
