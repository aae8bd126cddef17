package referenceframe

import (
	"slices"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/motionframes/logging"
	"go.viam.com/motionframes/spatialmath"
)

// StateKind declares how a frame's states evolve in time. Frames that do not declare a kind inherit
// it from their nearest declaring ancestor; Kinematic is the default at the root.
type StateKind int

const (
	// UndeclaredStateKind means the frame inherits its kind.
	UndeclaredStateKind StateKind = iota
	// Kinematic frame states move under their rates and accelerations.
	Kinematic
	// Static frame states only advance their time tag.
	Static
)

func (k StateKind) String() string {
	switch k {
	case Kinematic:
		return "kinematic"
	case Static:
		return "static"
	case UndeclaredStateKind:
	}
	return ""
}

// ParseStateKind converts the output of StateKind.String back into its value.
func ParseStateKind(s string) (StateKind, error) {
	switch s {
	case "kinematic":
		return Kinematic, nil
	case "static":
		return Static, nil
	case "":
		return UndeclaredStateKind, nil
	}
	return UndeclaredStateKind, errors.Errorf("unknown frame state kind %q", s)
}

// Frame is a node of a Tree. It owns one FrameState per perturbation state name and is owned by
// its tree.
type Frame struct {
	tree      *Tree
	id        FrameID
	name      string
	parent    FrameID
	children  []FrameID
	states    map[string]*FrameState
	kind      StateKind
	observers []ObserverRef
	destroyed bool
}

// Name returns the name of the frame.
func (f *Frame) Name() string {
	return f.name
}

// ID returns the handle of the frame within its tree.
func (f *Frame) ID() FrameID {
	return f.id
}

// Tree returns the tree that owns the frame.
func (f *Frame) Tree() *Tree {
	return f.tree
}

// IsValid reports whether the frame is still alive in its tree.
func (f *Frame) IsValid() bool {
	return f != nil && !f.destroyed
}

// IsWorld reports whether f is the world frame of its tree.
func (f *Frame) IsWorld() bool {
	return f.id == f.tree.world
}

func (f *Frame) logger() logging.Logger {
	return f.tree.logger
}

// SetName renames the frame, failing if a sibling already has the name.
func (f *Frame) SetName(name string) error {
	if f.IsWorld() {
		return ErrWorldImmutable
	}
	if name == "" {
		return errors.New("frame name cannot be empty")
	}
	if p := f.Parent(); p != nil {
		if sibling := p.FindChild(name); sibling != nil && sibling != f {
			return NewDuplicateFrameError(name, p.name)
		}
	}
	f.name = name
	return nil
}

// Parent returns the parent frame, or nil for a root.
func (f *Frame) Parent() *Frame {
	if f.parent.IsZero() {
		return nil
	}
	return f.tree.get(f.parent)
}

// Children returns the child frames in insertion order.
func (f *Frame) Children() []*Frame {
	return lo.FilterMap(f.children, func(id FrameID, _ int) (*Frame, bool) {
		c := f.tree.get(id)
		return c, c != nil
	})
}

// NumChildren returns the number of child frames.
func (f *Frame) NumChildren() int {
	return len(f.children)
}

// Root returns the top of the branch containing f.
func (f *Frame) Root() *Frame {
	root := f
	for p := root.Parent(); p != nil; p = root.Parent() {
		root = p
	}
	return root
}

// AddChild attaches child to f, detaching it from its previous parent first.
func (f *Frame) AddChild(child *Frame) error {
	if child == nil {
		return NewFrameMissingError("child")
	}
	if !f.IsValid() || !child.IsValid() {
		return errors.New("cannot attach a destroyed frame")
	}
	if f.tree != child.tree {
		return NewDifferentTreeError(f.name, child.name)
	}
	if child.IsWorld() {
		return ErrWorldImmutable
	}
	if child.parent == f.id {
		return nil
	}
	if child == f || child.IsAncestor(f) {
		return NewCycleError(child.name, f.name)
	}
	if f.FindChild(child.name) != nil {
		return NewDuplicateFrameError(child.name, f.name)
	}
	if old := child.Parent(); old != nil {
		old.detach(child)
	}
	f.attach(child)
	return nil
}

func (f *Frame) attach(child *Frame) {
	child.parent = f.id
	f.children = append(f.children, child.id)
}

func (f *Frame) detach(child *Frame) {
	f.children = lo.Without(f.children, child.id)
	child.parent = FrameID{}
}

// RemoveChild detaches child from f, leaving it parentless.
func (f *Frame) RemoveChild(child *Frame) error {
	if child == nil {
		return NewFrameMissingError("child")
	}
	if child.parent != f.id || child.tree != f.tree {
		return errors.Errorf("frame %q is not a child of %q", child.name, f.name)
	}
	f.detach(child)
	return nil
}

// SetParent moves f under parent. A nil parent detaches f.
func (f *Frame) SetParent(parent *Frame) error {
	if parent == nil {
		if p := f.Parent(); p != nil {
			p.detach(f)
		}
		return nil
	}
	return parent.AddChild(f)
}

// CreateChild returns the child with the given name, creating it if needed. A non-nil state is
// copied into the default perturbation state of a newly created child only.
func (f *Frame) CreateChild(name string, state *FrameState) (*Frame, error) {
	if existing := f.FindChild(name); existing != nil {
		return existing, nil
	}
	child, err := f.tree.NewFrame(name)
	if err != nil {
		return nil, err
	}
	if state != nil {
		child.SetState(DefaultState, state)
	}
	f.attach(child)
	return child, nil
}

// FindChild returns the direct child with the given name, or nil.
func (f *Frame) FindChild(name string) *Frame {
	c, _ := lo.Find(f.Children(), func(c *Frame) bool { return c.name == name })
	return c
}

// FindFrame searches the branch rooted at f, depth first, for a frame by name.
func (f *Frame) FindFrame(name string) *Frame {
	c, _ := lo.Find(f.Branch(), func(c *Frame) bool { return c.name == name })
	return c
}

// Branch returns f and all its descendants in depth-first pre-order.
func (f *Frame) Branch() []*Frame {
	var out []*Frame
	stack := []*Frame{f}
	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]
		out = append(out, cur)
		children := cur.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return out
}

// Ancestors returns f followed by its parent, grandparent and so on up to the root.
func (f *Frame) Ancestors() []*Frame {
	out := []*Frame{f}
	for p := f.Parent(); p != nil; p = p.Parent() {
		out = append(out, p)
	}
	return out
}

// IsAncestor reports whether f is a strict ancestor of other.
func (f *Frame) IsAncestor(other *Frame) bool {
	if other == nil || other.tree != f.tree {
		return false
	}
	for p := other.Parent(); p != nil; p = p.Parent() {
		if p == f {
			return true
		}
	}
	return false
}

// IsDescendant reports whether f is a strict descendant of other.
func (f *Frame) IsDescendant(other *Frame) bool {
	return other != nil && other.IsAncestor(f)
}

// IsFamily reports whether f and other share a root.
func (f *Frame) IsFamily(other *Frame) bool {
	return other != nil && f.tree == other.tree && f.Root() == other.Root()
}

// State returns the named perturbation state, creating it on first access. The default state starts
// at zero; any other state starts as a copy of the default.
func (f *Frame) State(name string) *FrameState {
	if fs, ok := f.states[name]; ok {
		return fs
	}
	var fs *FrameState
	if name == DefaultState {
		fs = NewFrameState(0)
	} else {
		fs = f.State(DefaultState).Clone()
	}
	fs.owner = f.id
	fs.name = name
	f.states[name] = fs
	return fs
}

// StateOrDefault returns the named state if it exists and the default state otherwise. It never
// creates a state: a frame without a default state yields a detached zero state.
func (f *Frame) StateOrDefault(name string) *FrameState {
	if fs, ok := f.states[name]; ok {
		return fs
	}
	if fs, ok := f.states[DefaultState]; ok {
		return fs
	}
	fs := NewFrameState(0)
	fs.owner = f.id
	fs.name = DefaultState
	return fs
}

// HasState reports whether the named state has been created.
func (f *Frame) HasState(name string) bool {
	_, ok := f.states[name]
	return ok
}

// StateNames returns the names of the created states, sorted.
func (f *Frame) StateNames() []string {
	names := lo.Keys(f.states)
	slices.Sort(names)
	return names
}

// SetState copies state into the named perturbation state.
func (f *Frame) SetState(name string, state *FrameState) {
	fs := state.Clone()
	fs.owner = f.id
	fs.name = name
	f.states[name] = fs
}

// DeleteState removes a named state. The default state cannot be removed.
func (f *Frame) DeleteState(name string) error {
	if name == DefaultState {
		return errors.New("the default frame state cannot be deleted")
	}
	delete(f.states, name)
	return nil
}

func (f *Frame) copyStatesFrom(src *Frame) {
	for name, fs := range src.states {
		f.SetState(name, fs)
	}
}

// DeclareStateKind sets the kind this frame and its undeclared descendants use.
func (f *Frame) DeclareStateKind(kind StateKind) {
	f.kind = kind
}

// DeclaredStateKind returns the kind declared on this frame, if any.
func (f *Frame) DeclaredStateKind() StateKind {
	return f.kind
}

// StateKind returns the kind declared by f or its nearest declaring ancestor.
func (f *Frame) StateKind() StateKind {
	for _, a := range f.Ancestors() {
		if a.kind != UndeclaredStateKind {
			return a.kind
		}
	}
	return Kinematic
}

// Update advances the named state to time t. Static frames only advance their time tag.
func (f *Frame) Update(name string, t float64, mode UpdateMode) {
	fs := f.State(name)
	if f.StateKind() == Static {
		fs.Time += fs.deltaTo(t, mode)
		return
	}
	fs.Update(t, mode)
}

// StateAt returns a copy of the named state, or the default, projected to time t the way Update
// would. The frame is not modified.
func (f *Frame) StateAt(name string, t float64) FrameState {
	fs := *f.StateOrDefault(name)
	if f.StateKind() == Static {
		fs.Time = t
		return fs
	}
	fs.Update(t, UpdateAbsolute)
	return fs
}

// IsRotating reports whether any state of the frame is rotating.
func (f *Frame) IsRotating() bool {
	return lo.SomeBy(lo.Values(f.states), func(fs *FrameState) bool { return fs.IsRotating() })
}

// Origin returns the origin of the named state.
func (f *Frame) Origin(name string) r3.Vector { return f.State(name).Origin }

// SetOrigin sets the origin of the named state.
func (f *Frame) SetOrigin(name string, v r3.Vector) { f.State(name).Origin = v }

// Velocity returns the velocity of the named state.
func (f *Frame) Velocity(name string) r3.Vector { return f.State(name).Velocity }

// SetVelocity sets the velocity of the named state.
func (f *Frame) SetVelocity(name string, v r3.Vector) { f.State(name).Velocity = v }

// Acceleration returns the acceleration of the named state.
func (f *Frame) Acceleration(name string) r3.Vector { return f.State(name).Acceleration }

// SetAcceleration sets the acceleration of the named state.
func (f *Frame) SetAcceleration(name string, v r3.Vector) { f.State(name).Acceleration = v }

// Orientation returns the orientation of the named state in the state's units.
func (f *Frame) Orientation(name string) spatialmath.EulerAngles { return f.State(name).Orientation }

// SetOrientation sets the orientation of the named state in the state's units.
func (f *Frame) SetOrientation(name string, e spatialmath.EulerAngles) {
	f.State(name).Orientation = e
}

// RotationalRate returns the Euler rates of the named state.
func (f *Frame) RotationalRate(name string) spatialmath.EulerAngles {
	return f.State(name).RotationalRate
}

// SetRotationalRate sets the Euler rates of the named state.
func (f *Frame) SetRotationalRate(name string, e spatialmath.EulerAngles) {
	f.State(name).RotationalRate = e
}

// RotationalAcceleration returns the Euler accelerations of the named state.
func (f *Frame) RotationalAcceleration(name string) spatialmath.EulerAngles {
	return f.State(name).RotationalAcceleration
}

// SetRotationalAcceleration sets the Euler accelerations of the named state.
func (f *Frame) SetRotationalAcceleration(name string, e spatialmath.EulerAngles) {
	f.State(name).RotationalAcceleration = e
}

func (f *Frame) String() string {
	if !f.IsValid() {
		return "<destroyed frame>"
	}
	return f.name
}
