package referenceframe

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"go.viam.com/motionframes/logging"
)

// World is the string "world", but made into an exported constant.
const World = "world"

// FrameID is a generation-checked handle to a frame slot of a Tree. The zero FrameID refers to no frame.
type FrameID struct {
	index      int
	generation uint64
}

// IsZero reports whether the handle refers to no frame.
func (id FrameID) IsZero() bool {
	return id.generation == 0
}

func (id FrameID) String() string {
	return fmt.Sprintf("%d@%d", id.index, id.generation)
}

type slot struct {
	frame      *Frame
	generation uint64
}

// Tree owns every frame created in it. Frames reference their parent and children by FrameID, so a
// destroyed frame can never be reached through a stale link. A Tree is not safe for concurrent use.
type Tree struct {
	id     uuid.UUID
	name   string
	slots  []slot
	free   []int
	world  FrameID
	logger logging.Logger
	closed bool
}

// NewTree returns a tree containing only the world frame.
func NewTree(name string, logger logging.Logger) *Tree {
	if logger == nil {
		logger = logging.Global()
	}
	t := &Tree{id: uuid.New(), name: name, logger: logger}
	t.world = t.alloc(World).id
	return t
}

// ID returns the unique identity of the tree.
func (t *Tree) ID() uuid.UUID {
	return t.id
}

// Name returns the name the tree was created with.
func (t *Tree) Name() string {
	return t.name
}

// Logger returns the logger frames of this tree warn through.
func (t *Tree) Logger() logging.Logger {
	return t.logger
}

// World returns the root frame of the tree.
func (t *Tree) World() *Frame {
	return t.slots[t.world.index].frame
}

// NewFrame creates a parentless frame. It must be attached with AddChild or SetParent; frames left
// parentless are reported by Close.
func (t *Tree) NewFrame(name string) (*Frame, error) {
	if t.closed {
		return nil, errors.New("tree is closed")
	}
	if name == "" {
		return nil, errors.New("frame name cannot be empty")
	}
	return t.alloc(name), nil
}

func (t *Tree) alloc(name string) *Frame {
	var idx int
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = len(t.slots)
		t.slots = append(t.slots, slot{})
	}
	t.slots[idx].generation++
	f := &Frame{
		tree:   t,
		id:     FrameID{index: idx, generation: t.slots[idx].generation},
		name:   name,
		states: map[string]*FrameState{},
	}
	t.slots[idx].frame = f
	return f
}

func (t *Tree) release(f *Frame) {
	s := &t.slots[f.id.index]
	s.frame = nil
	s.generation++
	t.free = append(t.free, f.id.index)
	f.destroyed = true
	f.children = nil
	f.observers = nil
	f.states = nil
}

// Frame resolves a handle, failing if the frame it referred to has been destroyed.
func (t *Tree) Frame(id FrameID) (*Frame, error) {
	if id.IsZero() || id.index < 0 || id.index >= len(t.slots) {
		return nil, NewStaleFrameError(id)
	}
	s := t.slots[id.index]
	if s.frame == nil || s.generation != id.generation {
		return nil, NewStaleFrameError(id)
	}
	return s.frame, nil
}

func (t *Tree) get(id FrameID) *Frame {
	f, err := t.Frame(id)
	if err != nil {
		return nil
	}
	return f
}

// Frames returns every live frame, attached or not, in slot order.
func (t *Tree) Frames() []*Frame {
	var frames []*Frame
	for _, s := range t.slots {
		if s.frame != nil {
			frames = append(frames, s.frame)
		}
	}
	return frames
}

// Len returns the number of live frames, including the world.
func (t *Tree) Len() int {
	return len(t.slots) - len(t.free)
}

// FindFrame searches the world branch for a frame by name.
func (t *Tree) FindFrame(name string) *Frame {
	return t.World().FindFrame(name)
}

// FrameNames returns the names of the frames under the world, depth first.
func (t *Tree) FrameNames() []string {
	return lo.Map(t.World().Branch(), func(f *Frame, _ int) string { return f.name })
}

// Leaked returns the parentless frames other than the world.
func (t *Tree) Leaked() []*Frame {
	return lo.Filter(t.Frames(), func(f *Frame, _ int) bool {
		return f.id != t.world && f.parent.IsZero()
	})
}

// Close reports every parentless frame other than the world as leaked, then invalidates all frames.
// Handles into a closed tree no longer resolve.
func (t *Tree) Close() error {
	if t.closed {
		return nil
	}
	var err error
	for _, f := range t.Leaked() {
		logging.LogMsg(t.logger, logging.WARN, "frame was never attached to the tree", "Tree.Close", "frame", f.name)
		err = multierr.Combine(err, errors.Errorf("frame %q was never attached to the tree", f.name))
	}
	for _, f := range t.Frames() {
		t.release(f)
	}
	t.closed = true
	return err
}

// Clone returns an independent copy of the world branch in a new tree. Frame states are copied;
// observers are not.
func (t *Tree) Clone() *Tree {
	out := NewTree(t.name, t.logger)
	world := out.World()
	src := t.World()
	world.kind = src.kind
	world.copyStatesFrom(src)
	for _, child := range src.Children() {
		world.attach(child.CloneBranch(out))
	}
	return out
}
