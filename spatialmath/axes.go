package spatialmath

import (
	"strings"

	"github.com/pkg/errors"
)

// CartesianAxis addresses one scalar of a Cartesian 3-vector.
type CartesianAxis int

// The Cartesian axes.
const (
	UnknownCartesianAxis CartesianAxis = iota
	X
	Y
	Z
)

func (a CartesianAxis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	case UnknownCartesianAxis:
	}
	return "unknown"
}

// ParseCartesianAxis parses "x", "y" or "z".
func ParseCartesianAxis(s string) (CartesianAxis, error) {
	switch strings.ToLower(s) {
	case "x":
		return X, nil
	case "y":
		return Y, nil
	case "z":
		return Z, nil
	}
	return UnknownCartesianAxis, errors.Errorf("unknown cartesian axis %q", s)
}

// EulerAxis addresses one scalar of an Euler angle triple.
type EulerAxis int

// The Euler axes.
const (
	UnknownEulerAxis EulerAxis = iota
	Roll
	Pitch
	Yaw
)

func (a EulerAxis) String() string {
	switch a {
	case Roll:
		return "roll"
	case Pitch:
		return "pitch"
	case Yaw:
		return "yaw"
	case UnknownEulerAxis:
	}
	return "unknown"
}

// ParseEulerAxis parses "roll", "pitch" or "yaw".
func ParseEulerAxis(s string) (EulerAxis, error) {
	switch strings.ToLower(s) {
	case "roll":
		return Roll, nil
	case "pitch":
		return Pitch, nil
	case "yaw":
		return Yaw, nil
	}
	return UnknownEulerAxis, errors.Errorf("unknown euler axis %q", s)
}

// SphericalAxis addresses one scalar of a spherical 3-vector. Horizontal is the azimuthal
// angle, Vertical is the zenith (or elevation, depending on the convention) and Radial is range.
type SphericalAxis int

// The spherical axes.
const (
	UnknownSphericalAxis SphericalAxis = iota
	Horizontal
	Vertical
	Radial
)

func (a SphericalAxis) String() string {
	switch a {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	case Radial:
		return "radial"
	case UnknownSphericalAxis:
	}
	return "unknown"
}

// ParseSphericalAxis parses "horizontal", "vertical" or "radial".
func ParseSphericalAxis(s string) (SphericalAxis, error) {
	switch strings.ToLower(s) {
	case "horizontal":
		return Horizontal, nil
	case "vertical":
		return Vertical, nil
	case "radial":
		return Radial, nil
	}
	return UnknownSphericalAxis, errors.Errorf("unknown spherical axis %q", s)
}
