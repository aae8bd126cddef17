package spatialmath

import (
	"strings"

	"github.com/pkg/errors"

	"go.viam.com/motionframes/utils"
)

// AngleUnits is the convention in which the angular members of a state are expressed.
type AngleUnits int

const (
	// UnknownUnits is the zero value and never valid on a constructed state.
	UnknownUnits AngleUnits = iota
	// Degrees marks angles, angular rates and angular accelerations in degrees.
	Degrees
	// Radians marks angles, angular rates and angular accelerations in radians.
	Radians
)

func (u AngleUnits) String() string {
	switch u {
	case Degrees:
		return "degrees"
	case Radians:
		return "radians"
	case UnknownUnits:
	}
	return "unknown"
}

// ParseAngleUnits converts the output of AngleUnits.String back into its value.
func ParseAngleUnits(s string) (AngleUnits, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "degrees", "deg":
		return Degrees, nil
	case "radians", "rad":
		return Radians, nil
	}
	return UnknownUnits, errors.Errorf("unknown angle units %q", s)
}

// ToRadians converts a single value in units u to radians. It panics on UnknownUnits.
func (u AngleUnits) ToRadians(v float64) float64 {
	switch u {
	case Degrees:
		return utils.DegToRad(v)
	case Radians:
		return v
	case UnknownUnits:
	}
	panic(utils.NewUnknownEnumPanic("angle units", u))
}

// FromRadians converts a single value in radians to units u. It panics on UnknownUnits.
func (u AngleUnits) FromRadians(v float64) float64 {
	switch u {
	case Degrees:
		return utils.RadToDeg(v)
	case Radians:
		return v
	case UnknownUnits:
	}
	panic(utils.NewUnknownEnumPanic("angle units", u))
}

// Convert converts v from units u to units to.
func (u AngleUnits) Convert(v float64, to AngleUnits) float64 {
	if u == to {
		return v
	}
	return to.FromRadians(u.ToRadians(v))
}
