package motionstate

import (
	"math"

	"go.viam.com/motionframes/kinematicstate"
	"go.viam.com/motionframes/logging"
	"go.viam.com/motionframes/referenceframe"
	"go.viam.com/motionframes/spatialmath"
)

// cacheTolerance bounds how far a frame state may drift before a cached transformation is recomputed.
const cacheTolerance = 1e-8

// hop is one frame crossed by a transformation together with the frame state it was crossed with.
type hop struct {
	frame  *referenceframe.Frame
	name   string
	parent *referenceframe.Frame
	up     bool
	state  referenceframe.FrameState
}

// cacheEntry remembers one transformation. It is reused only while the input state, both endpoints
// and every frame state along the path are unchanged.
type cacheEntry struct {
	input    kinematicstate.State
	source   *referenceframe.Frame
	target   *referenceframe.Frame
	temporal bool
	at       float64
	path     []hop
	result   kinematicstate.State
}

// TransformToFrame re-expresses the motion state in target and anchors it there. When temporal is
// set, every frame on the path is first projected to the state's time.
func (ms *MotionState) TransformToFrame(target *referenceframe.Frame, temporal bool) error {
	return ms.transformInPlace(target, temporal, ms.state.Time)
}

// TransformToFrameAt projects the motion state and every frame on the path to time t, then
// re-expresses it in target and anchors it there.
func (ms *MotionState) TransformToFrameAt(target *referenceframe.Frame, t float64) error {
	return ms.transformInPlace(target, true, t)
}

// TransformClone returns a copy of the motion state expressed in target. The receiver is unchanged.
func (ms *MotionState) TransformClone(target *referenceframe.Frame, temporal bool) (*MotionState, error) {
	return ms.transformClone(target, temporal, ms.state.Time)
}

// TransformCloneAt returns a copy of the motion state projected to time t and expressed in target.
// The receiver is unchanged.
func (ms *MotionState) TransformCloneAt(target *referenceframe.Frame, t float64) (*MotionState, error) {
	return ms.transformClone(target, true, t)
}

func (ms *MotionState) transformInPlace(target *referenceframe.Frame, temporal bool, at float64) error {
	state, err := ms.transformed(target, temporal, at)
	if err != nil {
		return err
	}
	ms.state = state
	ms.anchor(target)
	return nil
}

func (ms *MotionState) transformClone(target *referenceframe.Frame, temporal bool, at float64) (*MotionState, error) {
	state, err := ms.transformed(target, temporal, at)
	if err != nil {
		return nil, err
	}
	c := ms.detachedClone(state)
	c.anchor(target)
	return c, nil
}

// transformed returns the state re-expressed in target, from the cache when possible.
func (ms *MotionState) transformed(target *referenceframe.Frame, temporal bool, at float64) (kinematicstate.State, error) {
	source, err := ms.Frame()
	if err == nil && target == nil {
		err = referenceframe.NewFrameMissingError("target")
	}
	if err == nil && !target.IsValid() {
		err = referenceframe.NewStaleFrameError(target.ID())
	}
	if err != nil {
		return ms.fail(err, target)
	}

	if ms.cfg.CacheTransforms {
		if entry, ok := ms.cache[target.Name()]; ok && ms.cacheValid(entry, source, target, temporal, at) {
			cacheHits.Inc()
			return entry.result, nil
		}
		cacheMisses.Inc()
	}

	path, err := ms.path(source, target, temporal, at)
	if err != nil {
		return ms.fail(err, target)
	}
	result := ms.apply(path, temporal, at)
	if ms.cfg.CacheTransforms {
		ms.cache[target.Name()] = &cacheEntry{
			input:    ms.state,
			source:   source,
			target:   target,
			temporal: temporal,
			at:       at,
			path:     path,
			result:   result,
		}
	}
	return result, nil
}

func (ms *MotionState) fail(err error, target *referenceframe.Frame) (kinematicstate.State, error) {
	transformFailures.Inc()
	targetName := "<nil>"
	if target != nil {
		targetName = target.String()
	}
	sourceName := "<detached>"
	if f, ferr := ms.tree.Frame(ms.frame); ferr == nil {
		sourceName = f.Name()
	}
	logging.LogMsg(ms.logger, logging.WARN, "motion state transformation failed", "MotionState.TransformToFrame",
		"tree", ms.tree.ID().String(), "frame", sourceName, "target", targetName, "perturbation", ms.perturbation, "error", err)
	return kinematicstate.State{}, err
}

// carry re-expresses the current state, given in from, in to without consulting the cache.
func (ms *MotionState) carry(from, to *referenceframe.Frame, temporal bool, at float64) (kinematicstate.State, error) {
	path, err := ms.path(from, to, temporal, at)
	if err != nil {
		return kinematicstate.State{}, err
	}
	return ms.apply(path, temporal, at), nil
}

// path lists the frames crossed going from source up to the pivot and down to target, with the frame
// state each is crossed with.
func (ms *MotionState) path(source, target *referenceframe.Frame, temporal bool, at float64) ([]hop, error) {
	up, down, err := source.PathTo(target)
	if err != nil {
		return nil, err
	}
	path := make([]hop, 0, len(up)+len(down))
	for _, f := range up {
		path = append(path, ms.hopThrough(f, true, temporal, at))
	}
	for _, f := range down {
		path = append(path, ms.hopThrough(f, false, temporal, at))
	}
	return path, nil
}

func (ms *MotionState) hopThrough(f *referenceframe.Frame, up, temporal bool, at float64) hop {
	return hop{frame: f, name: f.Name(), parent: f.Parent(), up: up, state: ms.frameState(f, temporal, at)}
}

// frameState returns the frame state a hop through f uses, projected to at in temporal mode.
func (ms *MotionState) frameState(f *referenceframe.Frame, temporal bool, at float64) referenceframe.FrameState {
	if temporal {
		return f.StateAt(ms.perturbation, at)
	}
	return *f.StateOrDefault(ms.perturbation)
}

// apply walks a Cartesian radian copy of the state along path and converts the result back to the
// motion state's coordinate system and units.
func (ms *MotionState) apply(path []hop, temporal bool, at float64) kinematicstate.State {
	units := ms.state.Units
	w := ms.state.ToCartesian(ms.conv).InUnits(spatialmath.Radians)
	if temporal {
		w = w.Project(at)
	}
	for i := range path {
		if path[i].up {
			w = path[i].state.ToParent(w)
		} else {
			w = path[i].state.ToChild(w)
		}
	}
	w = w.InUnits(units)
	if ms.state.System == kinematicstate.Spherical {
		w = w.ToSpherical(ms.conv)
	}
	return w
}

// cacheValid reports whether entry still describes the transformation requested.
func (ms *MotionState) cacheValid(entry *cacheEntry, source, target *referenceframe.Frame, temporal bool, at float64) bool {
	if entry.source != source || entry.target != target || entry.temporal != temporal {
		return false
	}
	if temporal && math.Abs(entry.at-at) > cacheTolerance {
		return false
	}
	if entry.input.System != ms.state.System || entry.input.Units != ms.state.Units ||
		!kinematicstate.AlmostEqual(entry.input, ms.state, cacheTolerance) {
		return false
	}
	for i := range entry.path {
		h := &entry.path[i]
		if !h.frame.IsValid() || h.frame.Name() != h.name || h.frame.Parent() != h.parent {
			return false
		}
		current := ms.frameState(h.frame, temporal, at)
		if !current.SpatiallyEqual(&h.state, cacheTolerance) {
			return false
		}
	}
	return true
}

// ClearCache drops every cached transformation.
func (ms *MotionState) ClearCache() {
	ms.cache = map[string]*cacheEntry{}
}

// CacheLen returns the number of cached transformations.
func (ms *MotionState) CacheLen() int {
	return len(ms.cache)
}
