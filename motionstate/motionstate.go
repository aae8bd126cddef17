// Package motionstate tracks the kinematic state of a point anchored to a reference frame and
// transforms it between frames and coordinate systems.
package motionstate

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/motionframes/kinematicstate"
	"go.viam.com/motionframes/logging"
	"go.viam.com/motionframes/referenceframe"
	"go.viam.com/motionframes/spatialmath"
)

// MotionState is the kinematic state of a point expressed in exactly one frame and one perturbation
// state. It is registered as an observer of its frame, so destroying or merging the frame moves the
// motion state rather than stranding it. The frame does not keep it alive: a motion state dropped
// without Close is collected and forgotten by its frame. A MotionState is not safe for concurrent use.
type MotionState struct {
	tree         *referenceframe.Tree
	frame        referenceframe.FrameID
	perturbation string
	state        kinematicstate.State
	cfg          Config
	conv         kinematicstate.SphericalConvention
	logger       logging.Logger
	cache        map[string]*cacheEntry
	closed       bool

	// ref is how frames see the motion state; it does not keep the motion state alive.
	ref referenceframe.ObserverRef
}

// New anchors state to frame. The state's coordinate system decides the variant of the motion
// state for its whole life.
func New(frame *referenceframe.Frame, state kinematicstate.State, cfg Config, logger logging.Logger) (*MotionState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, referenceframe.NewFrameMissingError("motion state")
	}
	if !frame.IsValid() {
		return nil, referenceframe.NewStaleFrameError(frame.ID())
	}
	if state.System == kinematicstate.UnknownCoordinateSystem {
		return nil, errors.New("motion state requires a cartesian or spherical state")
	}
	if state.Units == spatialmath.UnknownUnits {
		return nil, errors.New("motion state requires known angle units")
	}
	conv, err := kinematicstate.LookupConvention(cfg.Convention)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = frame.Tree().Logger()
	}
	ms := &MotionState{
		tree:         frame.Tree(),
		frame:        frame.ID(),
		perturbation: cfg.Perturbation,
		state:        state,
		cfg:          cfg,
		conv:         conv,
		logger:       logger,
		cache:        map[string]*cacheEntry{},
	}
	ms.ref = referenceframe.WeakObserver(ms)
	frame.AddObserver(ms.ref)
	return ms, nil
}

// NewCartesian returns a Cartesian motion state at rest at the origin of frame at time t.
func NewCartesian(frame *referenceframe.Frame, t float64, cfg Config, logger logging.Logger) (*MotionState, error) {
	return New(frame, kinematicstate.NewCartesian(t).InUnits(cfg.units()), cfg, logger)
}

// NewSpherical returns a spherical motion state at the origin of frame at time t.
func NewSpherical(frame *referenceframe.Frame, t float64, cfg Config, logger logging.Logger) (*MotionState, error) {
	return New(frame, kinematicstate.NewSpherical(t).InUnits(cfg.units()), cfg, logger)
}

// Frame resolves the frame the motion state is expressed in.
func (ms *MotionState) Frame() (*referenceframe.Frame, error) {
	if ms.closed {
		return nil, NewClosedError()
	}
	return ms.tree.Frame(ms.frame)
}

// SetFrame re-anchors the motion state to frame without changing its numeric state.
func (ms *MotionState) SetFrame(frame *referenceframe.Frame) error {
	if ms.closed {
		return NewClosedError()
	}
	if frame == nil {
		return referenceframe.NewFrameMissingError("motion state")
	}
	if !frame.IsValid() {
		return referenceframe.NewStaleFrameError(frame.ID())
	}
	ms.anchor(frame)
	return nil
}

// anchor moves the observer registration to frame.
func (ms *MotionState) anchor(frame *referenceframe.Frame) {
	if old, err := ms.tree.Frame(ms.frame); err == nil && old != frame {
		old.RemoveObserver(ms)
	}
	ms.tree = frame.Tree()
	ms.frame = frame.ID()
	frame.AddObserver(ms.ref)
}

// FrameReassigned implements referenceframe.Observer. The state is carried from the vanishing frame
// into its heir so the point does not move. If no path connects the two, the state is kept as is.
func (ms *MotionState) FrameReassigned(from, to *referenceframe.Frame) {
	state, err := ms.carry(from, to, false, 0)
	if err != nil {
		logging.LogMsg(ms.logger, logging.WARN, "motion state re-anchored without transformation", "MotionState.FrameReassigned",
			"frame", from.Name(), "target", to.Name(), "perturbation", ms.perturbation, "error", err)
	} else {
		ms.state = state
	}
	ms.tree = to.Tree()
	ms.frame = to.ID()
}

// Close unregisters the motion state from its frame. Later frame operations fail.
func (ms *MotionState) Close() {
	if ms.closed {
		return
	}
	if f, err := ms.tree.Frame(ms.frame); err == nil {
		f.RemoveObserver(ms)
	}
	ms.cache = map[string]*cacheEntry{}
	ms.closed = true
}

// Clone returns an independent copy anchored to the same frame. The cache is not copied.
func (ms *MotionState) Clone() (*MotionState, error) {
	f, err := ms.Frame()
	if err != nil {
		return nil, err
	}
	c := ms.detachedClone(ms.state)
	c.anchor(f)
	return c, nil
}

func (ms *MotionState) detachedClone(state kinematicstate.State) *MotionState {
	c := &MotionState{
		tree:         ms.tree,
		perturbation: ms.perturbation,
		state:        state,
		cfg:          ms.cfg,
		conv:         ms.conv,
		logger:       ms.logger,
		cache:        map[string]*cacheEntry{},
	}
	c.ref = referenceframe.WeakObserver(c)
	return c
}

// Config returns the configuration the motion state was created with.
func (ms *MotionState) Config() Config {
	return ms.cfg
}

// Convention returns the spherical convention used by coordinate conversions.
func (ms *MotionState) Convention() kinematicstate.SphericalConvention {
	return ms.conv
}

// SetConvention switches the spherical convention. A spherical state is re-expressed in the new
// convention.
func (ms *MotionState) SetConvention(name string) error {
	conv, err := kinematicstate.LookupConvention(name)
	if err != nil {
		return err
	}
	if ms.state.System == kinematicstate.Spherical {
		ms.state = ms.state.ToCartesian(ms.conv).ToSpherical(conv)
	}
	ms.conv = conv
	ms.cfg.Convention = name
	return nil
}

// Perturbation returns the name of the frame states the motion state is transformed with.
func (ms *MotionState) Perturbation() string {
	return ms.perturbation
}

// SetPerturbation selects the frame states transformations use.
func (ms *MotionState) SetPerturbation(name string) {
	ms.perturbation = name
}

// State returns a copy of the kinematic state.
func (ms *MotionState) State() kinematicstate.State {
	return ms.state
}

// SetState replaces the kinematic state. The coordinate system must match the motion state's.
func (ms *MotionState) SetState(s kinematicstate.State) error {
	if s.System != ms.state.System {
		return NewCoordinateMismatchError(ms.state.System, s.System)
	}
	if s.Units == spatialmath.UnknownUnits {
		return errors.New("motion state requires known angle units")
	}
	ms.state = s
	return nil
}

// System returns whether the motion state is Cartesian or spherical.
func (ms *MotionState) System() kinematicstate.CoordinateSystem {
	return ms.state.System
}

// Time returns the time tag of the state.
func (ms *MotionState) Time() float64 {
	return ms.state.Time
}

// SetTime sets the time tag without moving the state.
func (ms *MotionState) SetTime(t float64) {
	ms.state.Time = t
}

// Units returns the angle units of the state.
func (ms *MotionState) Units() spatialmath.AngleUnits {
	return ms.state.Units
}

// SetUnits converts the state's angles to u.
func (ms *MotionState) SetUnits(u spatialmath.AngleUnits) {
	ms.state = ms.state.InUnits(u)
}

// Position returns the position vector: x, y, z or horizontal, vertical, range.
func (ms *MotionState) Position() r3.Vector { return ms.state.Position }

// SetPosition sets the position vector.
func (ms *MotionState) SetPosition(v r3.Vector) { ms.state.Position = v }

// Velocity returns the velocity vector.
func (ms *MotionState) Velocity() r3.Vector { return ms.state.Velocity }

// SetVelocity sets the velocity vector.
func (ms *MotionState) SetVelocity(v r3.Vector) { ms.state.Velocity = v }

// Acceleration returns the acceleration vector.
func (ms *MotionState) Acceleration() r3.Vector { return ms.state.Acceleration }

// SetAcceleration sets the acceleration vector.
func (ms *MotionState) SetAcceleration(v r3.Vector) { ms.state.Acceleration = v }

// Orientation returns the Euler orientation in the state's units.
func (ms *MotionState) Orientation() spatialmath.EulerAngles { return ms.state.Orientation }

// SetOrientation sets the Euler orientation in the state's units.
func (ms *MotionState) SetOrientation(e spatialmath.EulerAngles) { ms.state.Orientation = e }

// OrientationRate returns the Euler rates in the state's units.
func (ms *MotionState) OrientationRate() spatialmath.EulerAngles { return ms.state.OrientationRate }

// SetOrientationRate sets the Euler rates in the state's units.
func (ms *MotionState) SetOrientationRate(e spatialmath.EulerAngles) { ms.state.OrientationRate = e }

// OrientationAcceleration returns the Euler accelerations in the state's units.
func (ms *MotionState) OrientationAcceleration() spatialmath.EulerAngles {
	return ms.state.OrientationAcceleration
}

// SetOrientationAcceleration sets the Euler accelerations in the state's units.
func (ms *MotionState) SetOrientationAcceleration(e spatialmath.EulerAngles) {
	ms.state.OrientationAcceleration = e
}

// CartesianComponent returns one axis of a Cartesian derivative. It panics on a spherical state.
func (ms *MotionState) CartesianComponent(d kinematicstate.Derivative, axis spatialmath.CartesianAxis) float64 {
	return ms.state.CartesianComponent(d, axis)
}

// SetCartesianComponent sets one axis of a Cartesian derivative. It panics on a spherical state.
func (ms *MotionState) SetCartesianComponent(d kinematicstate.Derivative, axis spatialmath.CartesianAxis, v float64) {
	ms.state.SetCartesianComponent(d, axis, v)
}

// SphericalComponent returns one axis of a spherical derivative. It panics on a Cartesian state.
func (ms *MotionState) SphericalComponent(d kinematicstate.Derivative, axis spatialmath.SphericalAxis) float64 {
	return ms.state.SphericalComponent(d, axis)
}

// SetSphericalComponent sets one axis of a spherical derivative. It panics on a Cartesian state.
func (ms *MotionState) SetSphericalComponent(d kinematicstate.Derivative, axis spatialmath.SphericalAxis, v float64) {
	ms.state.SetSphericalComponent(d, axis, v)
}

// EulerComponent returns one axis of the orientation or its derivatives.
func (ms *MotionState) EulerComponent(d kinematicstate.Derivative, axis spatialmath.EulerAxis) float64 {
	return ms.state.EulerComponent(d, axis)
}

// SetEulerComponent sets one axis of the orientation or its derivatives.
func (ms *MotionState) SetEulerComponent(d kinematicstate.Derivative, axis spatialmath.EulerAxis, v float64) {
	ms.state.SetEulerComponent(d, axis, v)
}

// Project advances the state to time t in its own frame.
func (ms *MotionState) Project(t float64) {
	ms.state = ms.state.Project(t)
}

// ToSpherical converts the state to spherical coordinates in the configured convention.
func (ms *MotionState) ToSpherical() {
	ms.state = ms.state.ToSpherical(ms.conv)
}

// ToCartesian converts the state to Cartesian coordinates.
func (ms *MotionState) ToCartesian() {
	ms.state = ms.state.ToCartesian(ms.conv)
}

// ConvertTo converts the state to the given coordinate system. It panics on an unknown system.
func (ms *MotionState) ConvertTo(system kinematicstate.CoordinateSystem) {
	ms.state = ms.state.ConvertTo(system, ms.conv)
}

// ConvertClone returns a copy of the motion state converted to the given coordinate system.
func (ms *MotionState) ConvertClone(system kinematicstate.CoordinateSystem) (*MotionState, error) {
	c, err := ms.Clone()
	if err != nil {
		return nil, err
	}
	c.ConvertTo(system)
	return c, nil
}

// SphericalClone returns a spherical copy of the motion state.
func (ms *MotionState) SphericalClone() (*MotionState, error) {
	return ms.ConvertClone(kinematicstate.Spherical)
}

// CartesianClone returns a Cartesian copy of the motion state.
func (ms *MotionState) CartesianClone() (*MotionState, error) {
	return ms.ConvertClone(kinematicstate.Cartesian)
}

func (ms *MotionState) String() string {
	name := "<detached>"
	if f, err := ms.Frame(); err == nil {
		name = f.Name()
	}
	return ms.state.System.String() + " motion state in " + name
}
