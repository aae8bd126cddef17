package referenceframe

import (
	"slices"

	"go.viam.com/motionframes/logging"
)

// DetermineCommonAncestor returns the nearest frame that is f or an ancestor of f and also other or
// an ancestor of other. Frames of different trees or branches have none.
func (f *Frame) DetermineCommonAncestor(other *Frame) (*Frame, bool) {
	if other == nil || f.tree != other.tree {
		return nil, false
	}
	theirs := map[FrameID]bool{}
	for _, a := range other.Ancestors() {
		theirs[a.id] = true
	}
	for _, a := range f.Ancestors() {
		if theirs[a.id] {
			return a, true
		}
	}
	return nil, false
}

// FindCommonAncestorFrame is DetermineCommonAncestor reporting a missing ancestor as an error and a
// warning.
func (f *Frame) FindCommonAncestorFrame(other *Frame) (*Frame, error) {
	if other == nil {
		err := NewFrameMissingError("other")
		logging.LogMsg(f.logger(), logging.WARN, err.Error(), "Frame.FindCommonAncestorFrame", "frame", f.name)
		return nil, err
	}
	a, ok := f.DetermineCommonAncestor(other)
	if !ok {
		err := NewNoCommonAncestorError(f.name, other.name)
		logging.LogMsg(f.logger(), logging.WARN, err.Error(), "Frame.FindCommonAncestorFrame",
			"frame", f.name, "target", other.name)
		return nil, err
	}
	return a, nil
}

// FindLeastCommonRootFrame returns the pivot for moving from f to other: the common ancestor when
// they share one, returned as both mine and theirs. Otherwise the frames are assumed to belong to
// congruent hierarchies and the nearest ancestor of f whose name also names an ancestor of other is
// returned, as mine, together with that ancestor of other, as theirs. Name matching cannot tell apart
// duplicate names; the first match walking up from f wins.
func (f *Frame) FindLeastCommonRootFrame(other *Frame) (mine, theirs *Frame, err error) {
	if other == nil {
		err := NewFrameMissingError("other")
		logging.LogMsg(f.logger(), logging.WARN, err.Error(), "Frame.FindLeastCommonRootFrame", "frame", f.name)
		return nil, nil, err
	}
	if a, ok := f.DetermineCommonAncestor(other); ok {
		return a, a, nil
	}
	byName := map[string]*Frame{}
	for _, a := range other.Ancestors() {
		if _, seen := byName[a.name]; !seen {
			byName[a.name] = a
		}
	}
	for _, a := range f.Ancestors() {
		if match, ok := byName[a.name]; ok {
			return a, match, nil
		}
	}
	err = NewNoCommonAncestorError(f.name, other.name)
	logging.LogMsg(f.logger(), logging.WARN, err.Error(), "Frame.FindLeastCommonRootFrame",
		"frame", f.name, "target", other.name)
	return nil, nil, err
}

// PathTo returns the frames to walk up from f, excluding the pivot, and the frames to walk down
// to other, excluding the pivot and ordered from the pivot's child to other.
func (f *Frame) PathTo(other *Frame) (up, down []*Frame, err error) {
	mine, theirs, err := f.FindLeastCommonRootFrame(other)
	if err != nil {
		return nil, nil, err
	}
	for cur := f; cur != mine; cur = cur.Parent() {
		up = append(up, cur)
	}
	for cur := other; cur != theirs; cur = cur.Parent() {
		down = append(down, cur)
	}
	slices.Reverse(down)
	return up, down, nil
}
