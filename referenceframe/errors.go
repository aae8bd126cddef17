package referenceframe

import (
	"github.com/pkg/errors"
)

// ErrWorldImmutable is returned when an operation would destroy, re-parent or rename the world frame.
var ErrWorldImmutable = errors.New("the world frame cannot be destroyed, re-parented or renamed")

// NewFrameMissingError returns an error indicating that a required frame was nil.
func NewFrameMissingError(role string) error {
	return errors.Errorf("%s frame is nil", role)
}

// NewFrameNotFoundError returns an error indicating that no frame with the given name was found.
func NewFrameNotFoundError(name string) error {
	return errors.Errorf("frame with name %q not found", name)
}

// NewStaleFrameError returns an error indicating that a frame handle outlived its frame.
func NewStaleFrameError(id FrameID) error {
	return errors.Errorf("frame handle %v refers to a destroyed frame", id)
}

// NewNoCommonAncestorError returns an error indicating that two frames share no ancestor, not even by name.
func NewNoCommonAncestorError(a, b string) error {
	return errors.Errorf("frames %q and %q have no common ancestor", a, b)
}

// NewCycleError returns an error indicating that attaching child to parent would create a cycle.
func NewCycleError(child, parent string) error {
	return errors.Errorf("cannot attach %q to %q: %q is an ancestor of %q", child, parent, child, parent)
}

// NewDuplicateFrameError returns an error indicating that parent already has a child with the given name.
func NewDuplicateFrameError(name, parent string) error {
	return errors.Errorf("frame %q already has a child named %q", parent, name)
}

// NewDifferentTreeError returns an error indicating that two frames live in different trees.
func NewDifferentTreeError(a, b string) error {
	return errors.Errorf("frames %q and %q belong to different trees", a, b)
}

// NewRotatingFrameError returns an error indicating that a rotating frame blocks a merge.
func NewRotatingFrameError(name string) error {
	return errors.Errorf("cannot merge through rotating frame %q", name)
}
