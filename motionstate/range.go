package motionstate

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/motionframes/kinematicstate"
	"go.viam.com/motionframes/polyroot"
)

// rootTolerance is how far from the real axis a polynomial root may be and still count as real.
const rootTolerance = 1e-9

// relative is the motion of another point relative to this one, in this motion state's frame.
type relative struct {
	p, v, a r3.Vector
}

// at returns the relative position and velocity dt after the reference time.
func (r relative) at(dt float64) (r3.Vector, r3.Vector) {
	return kinematicstate.ProjectVector(r.p, r.v, r.a, dt)
}

func (r relative) rangeAt(dt float64) float64 {
	p, _ := r.at(dt)
	return p.Norm()
}

// relativeTo returns the motion of other relative to ms at time t, expressed in ms's frame.
func (ms *MotionState) relativeTo(t float64, other *MotionState) (relative, error) {
	frame, err := ms.Frame()
	if err != nil {
		return relative{}, err
	}
	theirs, err := other.transformed(frame, true, t)
	if err != nil {
		return relative{}, err
	}
	mine := ms.state.ToCartesian(ms.conv).Project(t)
	theirs = theirs.ToCartesian(other.conv)
	return relative{
		p: theirs.Position.Sub(mine.Position),
		v: theirs.Velocity.Sub(mine.Velocity),
		a: theirs.Acceleration.Sub(mine.Acceleration),
	}, nil
}

// CalcRange returns the distance to other at time t.
func (ms *MotionState) CalcRange(t float64, other *MotionState) (float64, error) {
	rel, err := ms.relativeTo(t, other)
	if err != nil {
		return 0, err
	}
	return rel.p.Norm(), nil
}

// CalcRangeRate returns the rate of change of the distance to other at time t. It is zero when the
// two points coincide.
func (ms *MotionState) CalcRangeRate(t float64, other *MotionState) (float64, error) {
	rel, err := ms.relativeTo(t, other)
	if err != nil {
		return 0, err
	}
	r := rel.p.Norm()
	if r == 0 {
		return 0, nil
	}
	return rel.p.Dot(rel.v) / r, nil
}

// CalcRangeAcceleration returns the second derivative of the distance to other at time t. It is
// zero when the two points coincide.
func (ms *MotionState) CalcRangeAcceleration(t float64, other *MotionState) (float64, error) {
	rel, err := ms.relativeTo(t, other)
	if err != nil {
		return 0, err
	}
	r := rel.p.Norm()
	if r == 0 {
		return 0, nil
	}
	pv := rel.p.Dot(rel.v)
	return (rel.v.Dot(rel.v)+rel.p.Dot(rel.a))/r - pv*pv/(r*r*r), nil
}

// CalcMinimumApproachTime returns the time nearest to t at which the distance to other reaches a
// local minimum, assuming both keep their current accelerations. When the distance never changes t
// is returned.
func (ms *MotionState) CalcMinimumApproachTime(t float64, other *MotionState) (float64, error) {
	rel, err := ms.relativeTo(t, other)
	if err != nil {
		return 0, err
	}
	return t + minimumApproach(rel), nil
}

// CalcMinimumApproachRange returns the distance to other at the minimum approach time, or +Inf if
// there is none.
func (ms *MotionState) CalcMinimumApproachRange(t float64, other *MotionState) (float64, error) {
	rel, err := ms.relativeTo(t, other)
	if err != nil {
		return 0, err
	}
	dt := minimumApproach(rel)
	if math.IsInf(dt, 0) {
		return math.Inf(1), nil
	}
	return rel.rangeAt(dt), nil
}

// CalcApproachTime returns the time nearest to t at which the distance to other equals r, or +Inf if
// it never does.
func (ms *MotionState) CalcApproachTime(t float64, other *MotionState, r float64) (float64, error) {
	rel, err := ms.relativeTo(t, other)
	if err != nil {
		return 0, err
	}
	return t + approach(rel, r), nil
}

// minimumApproach returns the offset of the nearest local minimum of the squared range
// |p + v dt + a dt^2/2|^2. Its derivative divided by two is the cubic solved here.
func minimumApproach(rel relative) float64 {
	coeffs := []float64{
		0.5 * rel.a.Dot(rel.a),
		1.5 * rel.v.Dot(rel.a),
		rel.p.Dot(rel.a) + rel.v.Dot(rel.v),
		rel.p.Dot(rel.v),
	}
	isMinimum := func(dt float64) bool {
		p, v := rel.at(dt)
		return v.Dot(v)+p.Dot(rel.a) >= -rootTolerance
	}
	return nearestRoot(coeffs, rel, isMinimum)
}

// approach returns the offset of the nearest time the squared range equals r^2, a quartic in dt.
func approach(rel relative, r float64) float64 {
	coeffs := []float64{
		0.25 * rel.a.Dot(rel.a),
		rel.v.Dot(rel.a),
		rel.v.Dot(rel.v) + rel.p.Dot(rel.a),
		2 * rel.p.Dot(rel.v),
		rel.p.Dot(rel.p) - r*r,
	}
	return nearestRoot(coeffs, rel, func(float64) bool { return true })
}

// nearestRoot returns the accepted real root of smallest magnitude, breaking ties by the smaller
// resulting range. An identically zero polynomial holds everywhere and yields 0; no accepted root
// yields +Inf.
func nearestRoot(coeffs []float64, rel relative, accept func(float64) bool) float64 {
	kind, roots := polyroot.Solve(coeffs...)
	if kind == polyroot.Infinite {
		return 0
	}
	best := math.Inf(1)
	bestRange := math.Inf(1)
	for _, dt := range polyroot.RealRoots(roots, rootTolerance) {
		if !accept(dt) {
			continue
		}
		r := rel.rangeAt(dt)
		switch {
		case math.Abs(dt) < math.Abs(best):
		case math.Abs(dt) == math.Abs(best) && r < bestRange:
		default:
			continue
		}
		best, bestRange = dt, r
	}
	return best
}
