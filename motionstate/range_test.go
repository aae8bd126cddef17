package motionstate

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/motionframes/logging"
	"go.viam.com/motionframes/referenceframe"
)

func pointAt(t *testing.T, frame *referenceframe.Frame, p, v, a r3.Vector) *MotionState {
	t.Helper()
	ms, err := NewCartesian(frame, 0, DefaultConfig(), nil)
	test.That(t, err, test.ShouldBeNil)
	ms.SetPosition(p)
	ms.SetVelocity(v)
	ms.SetAcceleration(a)
	return ms
}

func TestRange(t *testing.T) {
	tree := referenceframe.NewTree("range", logging.NewTestLogger(t))
	world := tree.World()
	me := pointAt(t, world, r3.Vector{}, r3.Vector{}, r3.Vector{})
	other := pointAt(t, world, r3.Vector{X: 3, Y: 4}, r3.Vector{X: 1}, r3.Vector{})

	r, err := me.CalcRange(0, other)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldAlmostEqual, 5.)

	rate, err := me.CalcRangeRate(0, other)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rate, test.ShouldAlmostEqual, 0.6)

	accel, err := me.CalcRangeAcceleration(0, other)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, accel, test.ShouldAlmostEqual, 0.2-9./125)

	// both points are projected to the requested time
	r, err = me.CalcRange(2, other)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldAlmostEqual, math.Sqrt(25+16))

	// coincident points have no range rate
	rate, err = me.CalcRangeRate(0, me)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, rate, test.ShouldEqual, 0.)
	accel, err = me.CalcRangeAcceleration(0, me)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, accel, test.ShouldEqual, 0.)
}

func TestRangeAcrossFrames(t *testing.T) {
	tree := referenceframe.NewTree("range", logging.NewTestLogger(t))
	offset, err := tree.World().CreateChild("offset", nil)
	test.That(t, err, test.ShouldBeNil)
	offset.SetOrigin(referenceframe.DefaultState, r3.Vector{X: 10})

	me := pointAt(t, tree.World(), r3.Vector{}, r3.Vector{}, r3.Vector{})
	other := pointAt(t, offset, r3.Vector{Y: 5}, r3.Vector{}, r3.Vector{})
	r, err := me.CalcRange(0, other)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, r, test.ShouldAlmostEqual, math.Sqrt(125))

	// other is only read, never moved
	f, err := other.Frame()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f, test.ShouldEqual, offset)

	lonely, err := tree.NewFrame("lonely")
	test.That(t, err, test.ShouldBeNil)
	stranded := pointAt(t, lonely, r3.Vector{}, r3.Vector{}, r3.Vector{})
	_, err = me.CalcRange(0, stranded)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = me.CalcApproachTime(0, stranded, 1)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestMinimumApproach(t *testing.T) {
	tree := referenceframe.NewTree("approach", logging.NewTestLogger(t))
	world := tree.World()
	me := pointAt(t, world, r3.Vector{}, r3.Vector{}, r3.Vector{})

	t.Run("constant velocity", func(t *testing.T) {
		other := pointAt(t, world, r3.Vector{X: 10, Y: 3}, r3.Vector{X: -1}, r3.Vector{})
		when, err := me.CalcMinimumApproachTime(1, other)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, when, test.ShouldAlmostEqual, 10.)
		r, err := me.CalcMinimumApproachRange(1, other)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, r, test.ShouldAlmostEqual, 3.)
	})

	t.Run("accelerating skips the local maximum", func(t *testing.T) {
		// range^2 = (dt^2 - 5)^2 + 1 peaks at dt = 0 and bottoms out at dt = ±sqrt(5)
		other := pointAt(t, world, r3.Vector{X: -5, Y: 1}, r3.Vector{}, r3.Vector{X: 2})
		when, err := me.CalcMinimumApproachTime(0, other)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, math.Abs(when), test.ShouldAlmostEqual, math.Sqrt(5), 1e-9)
		r, err := me.CalcMinimumApproachRange(0, other)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, r, test.ShouldAlmostEqual, 1., 1e-9)
	})

	t.Run("relative rest", func(t *testing.T) {
		other := pointAt(t, world, r3.Vector{Z: 2}, r3.Vector{}, r3.Vector{})
		when, err := me.CalcMinimumApproachTime(4, other)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, when, test.ShouldEqual, 4.)
		r, err := me.CalcMinimumApproachRange(4, other)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, r, test.ShouldAlmostEqual, 2.)
	})
}

func TestApproachTime(t *testing.T) {
	tree := referenceframe.NewTree("approach", logging.NewTestLogger(t))
	world := tree.World()
	me := pointAt(t, world, r3.Vector{}, r3.Vector{}, r3.Vector{})

	t.Run("closing", func(t *testing.T) {
		other := pointAt(t, world, r3.Vector{X: 10}, r3.Vector{X: -1}, r3.Vector{})
		when, err := me.CalcApproachTime(0, other, 5)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, when, test.ShouldAlmostEqual, 5.)
	})

	t.Run("nearest crossing wins", func(t *testing.T) {
		// the range was 10 at dt = -5 and will be again at dt = 15
		other := pointAt(t, world, r3.Vector{X: -5}, r3.Vector{X: 1}, r3.Vector{})
		when, err := me.CalcApproachTime(0, other, 10)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, when, test.ShouldAlmostEqual, -5.)
	})

	t.Run("accelerating", func(t *testing.T) {
		other := pointAt(t, world, r3.Vector{X: 8}, r3.Vector{}, r3.Vector{X: -2})
		when, err := me.CalcApproachTime(0, other, 4)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, math.Abs(when), test.ShouldAlmostEqual, 2., 1e-9)
	})

	t.Run("never close enough", func(t *testing.T) {
		other := pointAt(t, world, r3.Vector{Y: 10}, r3.Vector{X: 1}, r3.Vector{})
		for _, r := range []float64{0, 5, 9.99} {
			when, err := me.CalcApproachTime(0, other, r)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, math.IsInf(when, 1), test.ShouldBeTrue)
		}
	})

	t.Run("always at range", func(t *testing.T) {
		other := pointAt(t, world, r3.Vector{Y: 10}, r3.Vector{}, r3.Vector{})
		when, err := me.CalcApproachTime(3, other, 10)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, when, test.ShouldEqual, 3.)

		when, err = me.CalcApproachTime(3, other, 1)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, math.IsInf(when, 1), test.ShouldBeTrue)
	})
}

func TestNearestRootTieBreak(t *testing.T) {
	// dt² - 4 has roots at ±2; the one leaving the smaller range wins
	coeffs := []float64{1, 0, -4}
	all := func(float64) bool { return true }

	closerBefore := relative{p: r3.Vector{X: 1}, v: r3.Vector{X: 1}}
	test.That(t, closerBefore.rangeAt(-2), test.ShouldAlmostEqual, 1.)
	test.That(t, closerBefore.rangeAt(2), test.ShouldAlmostEqual, 3.)
	test.That(t, nearestRoot(coeffs, closerBefore, all), test.ShouldEqual, -2.)

	closerAfter := relative{p: r3.Vector{X: -1}, v: r3.Vector{X: 1}}
	test.That(t, nearestRoot(coeffs, closerAfter, all), test.ShouldEqual, 2.)

	future := func(dt float64) bool { return dt >= 0 }
	test.That(t, nearestRoot(coeffs, closerBefore, future), test.ShouldEqual, 2.)
	test.That(t, math.IsInf(nearestRoot(coeffs, closerBefore, func(float64) bool { return false }), 1), test.ShouldBeTrue)

	// a smaller magnitude beats a smaller range
	test.That(t, nearestRoot([]float64{1, -1, -2}, closerBefore, all), test.ShouldEqual, -1.)
}
