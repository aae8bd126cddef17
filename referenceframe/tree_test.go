package referenceframe

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/motionframes/logging"
	"go.viam.com/motionframes/spatialmath"
)

type recordingObserver struct {
	moves [][2]string
	frame *Frame
}

func (o *recordingObserver) FrameReassigned(from, to *Frame) {
	o.moves = append(o.moves, [2]string{from.Name(), to.Name()})
	o.frame = to
}

func attach(t *testing.T, obs *recordingObserver, f *Frame) {
	t.Helper()
	f.AddObserver(WeakObserver(obs))
	obs.frame = f
}

// buildTree returns world -> a -> b -> c and world -> d.
func buildTree(t *testing.T) (*Tree, map[string]*Frame) {
	t.Helper()
	tree := NewTree("test", logging.NewTestLogger(t))
	frames := map[string]*Frame{World: tree.World()}
	for _, link := range [][2]string{{"a", World}, {"b", "a"}, {"c", "b"}, {"d", World}} {
		f, err := frames[link[1]].CreateChild(link[0], nil)
		test.That(t, err, test.ShouldBeNil)
		frames[link[0]] = f
	}
	return tree, frames
}

// checkInvariants asserts that every live frame is linked consistently and acyclic.
func checkInvariants(t *testing.T, tree *Tree) {
	t.Helper()
	for _, f := range tree.Frames() {
		test.That(t, f.IsAncestor(f), test.ShouldBeFalse)
		if p := f.Parent(); p != nil {
			test.That(t, p.IsValid(), test.ShouldBeTrue)
			test.That(t, p.FindChild(f.Name()), test.ShouldEqual, f)
			count := 0
			for _, other := range tree.Frames() {
				for _, c := range other.Children() {
					if c == f {
						count++
					}
				}
			}
			test.That(t, count, test.ShouldEqual, 1)
		}
		names := map[string]bool{}
		for _, c := range f.Children() {
			test.That(t, names[c.Name()], test.ShouldBeFalse)
			names[c.Name()] = true
			test.That(t, c.Parent(), test.ShouldEqual, f)
		}
	}
}

func TestTreeConstruction(t *testing.T) {
	tree, frames := buildTree(t)
	test.That(t, tree.Len(), test.ShouldEqual, 5)
	test.That(t, tree.World().IsWorld(), test.ShouldBeTrue)
	test.That(t, tree.FrameNames(), test.ShouldResemble, []string{World, "a", "b", "c", "d"})
	test.That(t, tree.FindFrame("c"), test.ShouldEqual, frames["c"])
	test.That(t, tree.FindFrame("nope"), test.ShouldBeNil)
	test.That(t, frames["a"].FindChild("c"), test.ShouldBeNil)
	test.That(t, frames["a"].FindFrame("c"), test.ShouldEqual, frames["c"])

	again, err := frames["a"].CreateChild("b", NewFrameState(5))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldEqual, frames["b"])
	test.That(t, frames["b"].State(DefaultState).Time, test.ShouldEqual, 0.)

	test.That(t, frames["a"].IsAncestor(frames["c"]), test.ShouldBeTrue)
	test.That(t, frames["c"].IsAncestor(frames["a"]), test.ShouldBeFalse)
	test.That(t, frames["c"].IsDescendant(frames["a"]), test.ShouldBeTrue)
	test.That(t, frames["c"].IsFamily(frames["d"]), test.ShouldBeTrue)
	test.That(t, frames["c"].Root(), test.ShouldEqual, tree.World())
	checkInvariants(t, tree)
}

func TestAddChildValidation(t *testing.T) {
	tree, frames := buildTree(t)

	err := frames["c"].AddChild(frames["a"])
	test.That(t, err, test.ShouldBeError, NewCycleError("a", "c"))
	test.That(t, frames["a"].AddChild(frames["a"]), test.ShouldNotBeNil)
	test.That(t, frames["a"].AddChild(tree.World()), test.ShouldEqual, ErrWorldImmutable)
	test.That(t, frames["a"].AddChild(nil), test.ShouldNotBeNil)

	dup, err := tree.NewFrame("b")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frames["a"].AddChild(dup), test.ShouldBeError, NewDuplicateFrameError("b", "a"))

	other := NewTree("other", logging.NewTestLogger(t))
	test.That(t, frames["a"].AddChild(other.World()), test.ShouldNotBeNil)

	_, err = tree.NewFrame("")
	test.That(t, err, test.ShouldNotBeNil)

	// re-adding an existing child is a no-op
	test.That(t, frames["a"].AddChild(frames["b"]), test.ShouldBeNil)
	test.That(t, frames["a"].NumChildren(), test.ShouldEqual, 1)

	test.That(t, frames["d"].SetName("a"), test.ShouldNotBeNil)
	test.That(t, frames["d"].SetName("e"), test.ShouldBeNil)
	test.That(t, tree.World().SetName("x"), test.ShouldEqual, ErrWorldImmutable)

	test.That(t, dup.SetParent(frames["d"]), test.ShouldBeNil)
	checkInvariants(t, tree)
}

func TestReparenting(t *testing.T) {
	tree, frames := buildTree(t)

	test.That(t, frames["b"].SetParent(frames["d"]), test.ShouldBeNil)
	test.That(t, frames["b"].Parent(), test.ShouldEqual, frames["d"])
	test.That(t, frames["a"].NumChildren(), test.ShouldEqual, 0)
	test.That(t, frames["c"].Root(), test.ShouldEqual, tree.World())
	checkInvariants(t, tree)

	test.That(t, frames["d"].RemoveChild(frames["b"]), test.ShouldBeNil)
	test.That(t, frames["b"].Parent(), test.ShouldBeNil)
	test.That(t, frames["d"].RemoveChild(frames["b"]), test.ShouldNotBeNil)
	test.That(t, frames["c"].IsFamily(frames["d"]), test.ShouldBeFalse)
	test.That(t, tree.Leaked(), test.ShouldResemble, []*Frame{frames["b"]})

	test.That(t, frames["b"].SetParent(nil), test.ShouldBeNil)
	test.That(t, frames["b"].SetParent(frames["a"]), test.ShouldBeNil)
	test.That(t, tree.Leaked(), test.ShouldBeEmpty)
	checkInvariants(t, tree)
}

func TestCommonAncestor(t *testing.T) {
	_, frames := buildTree(t)

	a, ok := frames["c"].DetermineCommonAncestor(frames["a"])
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, a, test.ShouldEqual, frames["a"])

	a, err := frames["c"].FindCommonAncestorFrame(frames["d"])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, a.Name(), test.ShouldEqual, World)

	up, down, err := frames["c"].PathTo(frames["d"])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, up, test.ShouldResemble, []*Frame{frames["c"], frames["b"], frames["a"]})
	test.That(t, down, test.ShouldResemble, []*Frame{frames["d"]})

	up, down, err = frames["a"].PathTo(frames["c"])
	test.That(t, err, test.ShouldBeNil)
	test.That(t, up, test.ShouldBeEmpty)
	test.That(t, down, test.ShouldResemble, []*Frame{frames["b"], frames["c"]})
}

func TestLeastCommonRootAcrossTrees(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	tree, frames := buildTree(t)
	clone := tree.Clone()
	test.That(t, clone.ID(), test.ShouldNotResemble, tree.ID())
	test.That(t, clone.FrameNames(), test.ShouldResemble, tree.FrameNames())

	_, err := frames["c"].FindCommonAncestorFrame(clone.FindFrame("d"))
	test.That(t, err, test.ShouldNotBeNil)

	mine, theirs, err := frames["c"].FindLeastCommonRootFrame(clone.FindFrame("b"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mine, test.ShouldEqual, frames["b"])
	test.That(t, theirs, test.ShouldEqual, clone.FindFrame("b"))

	mine, theirs, err = frames["c"].FindLeastCommonRootFrame(clone.FindFrame("d"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mine, test.ShouldEqual, tree.World())
	test.That(t, theirs, test.ShouldEqual, clone.World())

	stranger := NewTree("stranger", logger)
	lonely, err := stranger.NewFrame("lonely")
	test.That(t, err, test.ShouldBeNil)
	_, _, err = lonely.FindLeastCommonRootFrame(frames["c"])
	test.That(t, err, test.ShouldBeError, NewNoCommonAncestorError("lonely", "c"))
	test.That(t, logs.FilterMessage(err.Error()).Len(), test.ShouldEqual, 1)
}

func TestPerturbationStates(t *testing.T) {
	_, frames := buildTree(t)
	a := frames["a"]
	test.That(t, a.HasState(DefaultState), test.ShouldBeFalse)
	test.That(t, a.StateOrDefault("predicted").Origin, test.ShouldResemble, r3.Vector{})
	test.That(t, a.HasState("predicted"), test.ShouldBeFalse)
	test.That(t, a.HasState(DefaultState), test.ShouldBeFalse)
	def := a.State(DefaultState)
	test.That(t, a.StateOrDefault("predicted"), test.ShouldEqual, def)

	a.SetOrigin(DefaultState, r3.Vector{X: 1})
	predicted := a.State("predicted")
	test.That(t, predicted.Origin, test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, predicted.Name(), test.ShouldEqual, "predicted")
	test.That(t, predicted.Owner(), test.ShouldResemble, a.ID())

	a.SetOrigin("predicted", r3.Vector{X: 2})
	test.That(t, a.Origin(DefaultState), test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, a.StateNames(), test.ShouldResemble, []string{DefaultState, "predicted"})

	a.SetVelocity("predicted", r3.Vector{Y: 1})
	a.SetAcceleration("predicted", r3.Vector{Z: 1})
	a.SetOrientation("predicted", spatialmath.EulerAngles{Yaw: 1})
	a.SetRotationalRate("predicted", spatialmath.EulerAngles{Roll: 1})
	a.SetRotationalAcceleration("predicted", spatialmath.EulerAngles{Pitch: 1})
	test.That(t, a.Velocity("predicted"), test.ShouldResemble, r3.Vector{Y: 1})
	test.That(t, a.Acceleration("predicted"), test.ShouldResemble, r3.Vector{Z: 1})
	test.That(t, a.Orientation("predicted").Yaw, test.ShouldEqual, 1.)
	test.That(t, a.RotationalRate("predicted").Roll, test.ShouldEqual, 1.)
	test.That(t, a.RotationalAcceleration("predicted").Pitch, test.ShouldEqual, 1.)
	test.That(t, a.IsRotating(), test.ShouldBeTrue)

	test.That(t, a.DeleteState(DefaultState), test.ShouldNotBeNil)
	test.That(t, a.DeleteState("predicted"), test.ShouldBeNil)
	test.That(t, a.IsRotating(), test.ShouldBeFalse)
}

func TestStateKindInheritance(t *testing.T) {
	_, frames := buildTree(t)
	test.That(t, frames["c"].StateKind(), test.ShouldEqual, Kinematic)

	frames["a"].DeclareStateKind(Static)
	test.That(t, frames["c"].StateKind(), test.ShouldEqual, Static)
	test.That(t, frames["c"].DeclaredStateKind(), test.ShouldEqual, UndeclaredStateKind)
	frames["b"].DeclareStateKind(Kinematic)
	test.That(t, frames["c"].StateKind(), test.ShouldEqual, Kinematic)

	frames["a"].SetVelocity(DefaultState, r3.Vector{X: 1})
	frames["a"].Update(DefaultState, 2, UpdateAbsolute)
	test.That(t, frames["a"].Origin(DefaultState), test.ShouldResemble, r3.Vector{})
	test.That(t, frames["a"].State(DefaultState).Time, test.ShouldEqual, 2.)

	frames["c"].SetVelocity(DefaultState, r3.Vector{X: 1})
	frames["c"].Update(DefaultState, 2, UpdateDelta)
	test.That(t, frames["c"].Origin(DefaultState), test.ShouldResemble, r3.Vector{X: 2})

	projected := frames["c"].StateAt(DefaultState, 5)
	test.That(t, projected.Origin, test.ShouldResemble, r3.Vector{X: 5})
	test.That(t, frames["c"].Origin(DefaultState), test.ShouldResemble, r3.Vector{X: 2})

	for _, k := range []StateKind{UndeclaredStateKind, Kinematic, Static} {
		parsed, err := ParseStateKind(k.String())
		test.That(t, err, test.ShouldBeNil)
		test.That(t, parsed, test.ShouldEqual, k)
	}
	_, err := ParseStateKind("wobbly")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestDestroyFrame(t *testing.T) {
	tree, frames := buildTree(t)
	obs := &recordingObserver{}
	attach(t, obs, frames["b"])
	stale := frames["b"].ID()

	test.That(t, tree.DestroyFrame(frames["b"]), test.ShouldBeNil)
	test.That(t, frames["b"].IsValid(), test.ShouldBeFalse)
	test.That(t, frames["c"].Parent(), test.ShouldEqual, frames["a"])
	test.That(t, obs.moves, test.ShouldResemble, [][2]string{{"b", "a"}})
	test.That(t, frames["a"].HasObserver(obs), test.ShouldBeTrue)
	test.That(t, obs.frame.IsValid(), test.ShouldBeTrue)

	_, err := tree.Frame(stale)
	test.That(t, err, test.ShouldBeError, NewStaleFrameError(stale))
	test.That(t, tree.DestroyFrame(frames["b"]), test.ShouldNotBeNil)
	test.That(t, tree.DestroyFrame(tree.World()), test.ShouldEqual, ErrWorldImmutable)

	// slots are reused with a new generation
	e, err := tree.NewFrame("e")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, e.ID(), test.ShouldNotResemble, stale)
	_, err = tree.Frame(stale)
	test.That(t, err, test.ShouldNotBeNil)

	// parentless frames hand their observers to the world
	obs2 := &recordingObserver{}
	attach(t, obs2, e)
	test.That(t, tree.DestroyFrame(e), test.ShouldBeNil)
	test.That(t, obs2.moves, test.ShouldResemble, [][2]string{{"e", World}})
	checkInvariants(t, tree)
}

func TestDestroyFrameNameCollision(t *testing.T) {
	tree, frames := buildTree(t)
	_, err := frames["a"].CreateChild("d", nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tree.DestroyFrame(frames["a"]), test.ShouldBeError, NewDuplicateFrameError("d", World))
	test.That(t, frames["a"].IsValid(), test.ShouldBeTrue)
	checkInvariants(t, tree)
}

func TestDestroyBranch(t *testing.T) {
	tree, frames := buildTree(t)
	obsB, obsC := &recordingObserver{}, &recordingObserver{}
	attach(t, obsB, frames["b"])
	attach(t, obsC, frames["c"])

	test.That(t, tree.DestroyBranch(frames["a"]), test.ShouldBeNil)
	test.That(t, tree.Len(), test.ShouldEqual, 2)
	test.That(t, frames["c"].IsValid(), test.ShouldBeFalse)
	test.That(t, obsB.moves, test.ShouldResemble, [][2]string{{"b", World}})
	test.That(t, obsC.moves, test.ShouldResemble, [][2]string{{"c", World}})
	test.That(t, len(tree.World().Observers()), test.ShouldEqual, 2)
	test.That(t, tree.FrameNames(), test.ShouldResemble, []string{World, "d"})
	checkInvariants(t, tree)
}

func TestCollectedObserversAreDropped(t *testing.T) {
	tree, frames := buildTree(t)
	kept := &recordingObserver{}
	attach(t, kept, frames["a"])
	for i := 0; i < 100; i++ {
		frames["a"].AddObserver(WeakObserver(&recordingObserver{}))
	}
	runtime.GC()
	test.That(t, frames["a"].Observers(), test.ShouldHaveLength, 1)
	test.That(t, frames["a"].HasObserver(kept), test.ShouldBeTrue)

	// references to the same observer are one entry
	frames["a"].AddObserver(WeakObserver(kept))
	test.That(t, frames["a"].Observers(), test.ShouldHaveLength, 1)

	test.That(t, tree.DestroyFrame(frames["a"]), test.ShouldBeNil)
	test.That(t, kept.moves, test.ShouldResemble, [][2]string{{"a", World}})
	test.That(t, tree.World().Observers(), test.ShouldHaveLength, 1)
	runtime.KeepAlive(kept)
}

func TestMixedMutationInvariants(t *testing.T) {
	tree, frames := buildTree(t)
	observers := map[string]*recordingObserver{}
	for _, name := range []string{"a", "b", "c", "d"} {
		observers[name] = &recordingObserver{}
		attach(t, observers[name], frames[name])
	}

	test.That(t, frames["d"].AddChild(frames["a"]), test.ShouldBeNil)
	test.That(t, frames["c"].SetParent(frames["d"]), test.ShouldBeNil)
	test.That(t, frames["b"].AddChild(frames["d"]), test.ShouldNotBeNil)
	test.That(t, tree.DestroyFrame(frames["d"]), test.ShouldBeNil)
	test.That(t, frames["b"].SetParent(nil), test.ShouldBeNil)
	test.That(t, tree.DestroyBranch(frames["b"]), test.ShouldBeNil)
	checkInvariants(t, tree)

	for _, obs := range observers {
		test.That(t, obs.frame.IsValid(), test.ShouldBeTrue)
		test.That(t, obs.frame.HasObserver(obs), test.ShouldBeTrue)
	}
}

func TestCreateMergedFrame(t *testing.T) {
	tree, frames := buildTree(t)
	frames["a"].SetOrigin(DefaultState, r3.Vector{X: 1})
	frames["b"].SetOrigin(DefaultState, r3.Vector{Y: 2})
	frames["b"].SetOrientation(DefaultState, spatialmath.EulerAngles{Yaw: 90})
	frames["b"].State(DefaultState).Units = spatialmath.Degrees
	frames["c"].SetOrigin(DefaultState, r3.Vector{X: 3})
	frames["c"].SetVelocity("predicted", r3.Vector{Z: 1})
	leaf, err := frames["c"].CreateChild("leaf", nil)
	test.That(t, err, test.ShouldBeNil)
	obs := &recordingObserver{}
	attach(t, obs, frames["c"])

	merged, err := tree.CreateMergedFrame(tree.World(), frames["c"], "abc", true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, merged.Parent(), test.ShouldEqual, tree.World())
	test.That(t, leaf.Parent(), test.ShouldEqual, merged)
	test.That(t, obs.moves, test.ShouldResemble, [][2]string{{"c", "abc"}})

	fs := merged.State(DefaultState)
	test.That(t, spatialmath.R3VectorAlmostEqual(fs.Origin, r3.Vector{X: 1, Y: 5}, tol), test.ShouldBeTrue)
	test.That(t, fs.Orientation.Yaw, test.ShouldAlmostEqual, 1.5707963267948966)
	test.That(t, merged.StateNames(), test.ShouldResemble, []string{DefaultState, "predicted"})
	test.That(t, spatialmath.R3VectorAlmostEqual(merged.Velocity("predicted"), r3.Vector{Z: 1}, tol), test.ShouldBeTrue)

	// the whole chain was left empty and pruned
	test.That(t, frames["a"].IsValid(), test.ShouldBeFalse)
	test.That(t, frames["b"].IsValid(), test.ShouldBeFalse)
	test.That(t, frames["c"].IsValid(), test.ShouldBeFalse)
	test.That(t, tree.FrameNames(), test.ShouldResemble, []string{World, "d", "abc", "leaf"})
	checkInvariants(t, tree)
}

func TestCreateMergedFrameFailures(t *testing.T) {
	tree, frames := buildTree(t)
	_, err := tree.CreateMergedFrame(frames["c"], frames["a"], "x", false)
	test.That(t, err, test.ShouldNotBeNil)
	_, err = tree.CreateMergedFrame(tree.World(), frames["c"], "d", false)
	test.That(t, err, test.ShouldBeError, NewDuplicateFrameError("d", World))

	frames["b"].SetRotationalRate(DefaultState, spatialmath.EulerAngles{Yaw: 1})
	_, err = tree.CreateMergedFrame(tree.World(), frames["c"], "abc", false)
	test.That(t, err, test.ShouldBeError, NewRotatingFrameError("b"))

	// without pruning the chain survives
	merged, err := tree.CreateMergedFrame(frames["b"], frames["c"], "cc", false)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frames["c"].IsValid(), test.ShouldBeTrue)
	test.That(t, merged.Parent(), test.ShouldEqual, frames["b"])
	checkInvariants(t, tree)
}

func TestCloneIndependence(t *testing.T) {
	tree, frames := buildTree(t)
	frames["b"].SetOrigin(DefaultState, r3.Vector{X: 1})
	frames["b"].DeclareStateKind(Static)
	obs := &recordingObserver{}
	attach(t, obs, frames["b"])

	clone := tree.Clone()
	cb := clone.FindFrame("b")
	test.That(t, cb.Origin(DefaultState), test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, cb.DeclaredStateKind(), test.ShouldEqual, Static)
	test.That(t, cb.Observers(), test.ShouldBeEmpty)
	test.That(t, cb.State(DefaultState).Owner(), test.ShouldResemble, cb.ID())

	cb.SetOrigin(DefaultState, r3.Vector{X: 9})
	test.That(t, frames["b"].Origin(DefaultState), test.ShouldResemble, r3.Vector{X: 1})

	branch := frames["a"].CloneBranch(tree)
	test.That(t, branch.Parent(), test.ShouldBeNil)
	test.That(t, branch.FindFrame("c"), test.ShouldNotBeNil)
	test.That(t, branch.FindFrame("c"), test.ShouldNotEqual, frames["c"])

	single := frames["a"].CloneFrame(tree)
	test.That(t, single.NumChildren(), test.ShouldEqual, 0)
}

func TestClose(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	tree := NewTree("closing", logger)
	_, err := tree.World().CreateChild("attached", nil)
	test.That(t, err, test.ShouldBeNil)
	lost, err := tree.NewFrame("lost")
	test.That(t, err, test.ShouldBeNil)
	id := lost.ID()

	err = tree.Close()
	test.That(t, err, test.ShouldBeError, `frame "lost" was never attached to the tree`)
	test.That(t, logs.FilterMessage("frame was never attached to the tree").Len(), test.ShouldEqual, 1)
	_, err = tree.Frame(id)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, tree.Close(), test.ShouldBeNil)
	_, err = tree.NewFrame("late")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestTreeString(t *testing.T) {
	tree, frames := buildTree(t)
	frames["a"].SetOrigin(DefaultState, r3.Vector{X: 1.5})
	var before bytes.Buffer
	test.That(t, tree.WriteXML(&before), test.ShouldBeNil)

	out := tree.String()
	for _, name := range []string{World, "a", "b", "c", "d", "X:1.500", "kinematic", tree.ID().String()} {
		test.That(t, out, test.ShouldContainSubstring, name)
	}

	// printing reads states without creating them
	test.That(t, frames["b"].HasState(DefaultState), test.ShouldBeFalse)
	var after bytes.Buffer
	test.That(t, tree.WriteXML(&after), test.ShouldBeNil)
	test.That(t, after.String(), test.ShouldEqual, before.String())
}
