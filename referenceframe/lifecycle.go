package referenceframe

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/motionframes/kinematicstate"
	"go.viam.com/motionframes/logging"
)

// CloneFrame copies f, its states and declared kind, into a new parentless frame of tree into.
// Children and observers are not copied.
func (f *Frame) CloneFrame(into *Tree) *Frame {
	c := into.alloc(f.name)
	c.kind = f.kind
	c.copyStatesFrom(f)
	return c
}

// CloneBranch copies f and all its descendants into a new parentless branch of tree into.
// Observers are not copied.
func (f *Frame) CloneBranch(into *Tree) *Frame {
	root := f.CloneFrame(into)
	type pair struct{ src, dst *Frame }
	stack := []pair{{f, root}}
	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]
		for _, child := range cur.src.Children() {
			c := child.CloneFrame(into)
			cur.dst.attach(c)
			stack = append(stack, pair{child, c})
		}
	}
	return root
}

// DestroyFrame removes f from its tree. Its observers move to its parent, or to the world when f is
// parentless, and its children move to its parent. The world cannot be destroyed, and the call fails
// without changes if a child's name collides with a sibling of f.
func (t *Tree) DestroyFrame(f *Frame) error {
	if err := t.checkOwned(f); err != nil {
		return err
	}
	parent := f.Parent()
	if parent != nil {
		for _, child := range f.Children() {
			if sibling := parent.FindChild(child.name); sibling != nil && sibling != f {
				return NewDuplicateFrameError(child.name, parent.name)
			}
		}
	}
	heir := parent
	if heir == nil {
		heir = t.World()
	}
	f.reassignObservers(heir)
	for _, child := range f.Children() {
		f.detach(child)
		if parent != nil {
			parent.attach(child)
		}
	}
	if parent != nil {
		parent.detach(f)
	}
	t.release(f)
	return nil
}

// DestroyBranch removes f and every descendant. Observers anywhere in the branch move to f's parent,
// or to the world when f is parentless.
func (t *Tree) DestroyBranch(f *Frame) error {
	if err := t.checkOwned(f); err != nil {
		return err
	}
	heir := f.Parent()
	if heir == nil {
		heir = t.World()
	}
	// walk with an explicit stack so deep branches do not grow the goroutine stack
	var doomed []*Frame
	stack := []*Frame{f}
	for len(stack) > 0 {
		n := len(stack) - 1
		cur := stack[n]
		stack = stack[:n]
		doomed = append(doomed, cur)
		stack = append(stack, cur.Children()...)
	}
	for _, d := range doomed {
		d.reassignObservers(heir)
	}
	if p := f.Parent(); p != nil {
		p.detach(f)
	}
	for _, d := range doomed {
		t.release(d)
	}
	return nil
}

func (t *Tree) checkOwned(f *Frame) error {
	if f == nil {
		return NewFrameMissingError("target")
	}
	if !f.IsValid() {
		return NewStaleFrameError(f.id)
	}
	if f.tree != t {
		return errors.Errorf("frame %q does not belong to tree %q", f.name, t.name)
	}
	if f.IsWorld() {
		return ErrWorldImmutable
	}
	return nil
}

// CreateMergedFrame collapses the chain of frames from start (exclusive) down to end (inclusive) into
// a single new child of start named name. Every perturbation state present along the chain is
// composed into the merged frame. The children and observers of end move to the merged frame. The
// merge fails if any frame of the chain is rotating. When prune is set, chain frames left without
// children or observers are destroyed, walking up from end.
func (t *Tree) CreateMergedFrame(start, end *Frame, name string, prune bool) (*Frame, error) {
	if start == nil || end == nil {
		return nil, NewFrameMissingError("merge endpoint")
	}
	if !start.IsAncestor(end) {
		return nil, errors.Errorf("frame %q is not an ancestor of %q", start.name, end.name)
	}
	if existing := start.FindChild(name); existing != nil {
		return nil, NewDuplicateFrameError(name, start.name)
	}
	var chain []*Frame
	for cur := end; cur != start; cur = cur.Parent() {
		if cur.IsRotating() {
			err := NewRotatingFrameError(cur.name)
			logging.LogMsg(t.logger, logging.WARN, err.Error(), "Tree.CreateMergedFrame", "frame", cur.name)
			return nil, err
		}
		chain = append(chain, cur)
	}

	merged, err := t.NewFrame(name)
	if err != nil {
		return nil, err
	}
	merged.kind = end.StateKind()
	names := lo.Uniq(lo.FlatMap(chain, func(f *Frame, _ int) []string { return f.StateNames() }))
	if len(names) == 0 {
		names = []string{DefaultState}
	}
	for _, stateName := range names {
		merged.SetState(stateName, composeChain(chain, stateName))
	}
	start.attach(merged)

	for _, child := range end.Children() {
		end.detach(child)
		merged.attach(child)
	}
	end.reassignObservers(merged)

	if prune {
		for _, f := range chain {
			if f.NumChildren() > 0 || len(f.Observers()) > 0 {
				break
			}
			if err := t.DestroyFrame(f); err != nil {
				return merged, err
			}
		}
	}
	return merged, nil
}

// composeChain returns the motion of the first frame of chain relative to the parent of the last
// one. The chain is ordered child first and must not rotate.
func composeChain(chain []*Frame, stateName string) *FrameState {
	s := kinematicstate.NewCartesian(0)
	for _, f := range chain {
		fs := f.StateOrDefault(stateName)
		s = fs.ToParent(s)
		s.Time = max(s.Time, fs.Time)
	}
	out := NewFrameState(s.Time)
	out.Origin = s.Position
	out.Velocity = s.Velocity
	out.Acceleration = s.Acceleration
	out.Orientation = s.Orientation
	return out
}
