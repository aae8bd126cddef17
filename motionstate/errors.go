package motionstate

import (
	"github.com/pkg/errors"

	"go.viam.com/motionframes/kinematicstate"
)

// NewCoordinateMismatchError is returned when a state of one coordinate system is given to a motion
// state of the other.
func NewCoordinateMismatchError(want, got kinematicstate.CoordinateSystem) error {
	return errors.Errorf("expected a %s motion state, got %s", want, got)
}

// NewClosedError is returned by operations on a motion state after Close.
func NewClosedError() error {
	return errors.New("motion state is closed")
}
