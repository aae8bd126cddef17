package kinematicstate

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/motionframes/utils"
)

// SphericalConvention maps between the canonical azimuth/zenith description and an application's
// horizontal/vertical convention. Both functions receive and return spherical states in radians.
type SphericalConvention struct {
	Name              string
	ToAzimuthZenith   func(State) State
	FromAzimuthZenith func(State) State
}

// Names of the built-in conventions.
const (
	AzimuthZenith     = "azimuth_zenith"
	AzimuthElevation  = "azimuth_elevation"
	AzimuthDepression = "azimuth_depression"
)

var conventions = map[string]SphericalConvention{}

func init() {
	identity := func(s State) State { return s }
	for _, c := range []SphericalConvention{
		{AzimuthZenith, identity, identity},
		{AzimuthElevation, zenithElevation, zenithElevation},
		{AzimuthDepression, depressionToZenith, zenithToDepression},
	} {
		if err := RegisterConvention(c); err != nil {
			panic(err)
		}
	}
}

// RegisterConvention makes a convention available to LookupConvention. It is intended to be called
// from init functions.
func RegisterConvention(c SphericalConvention) error {
	if c.Name == "" {
		return errors.New("spherical convention must have a name")
	}
	if c.ToAzimuthZenith == nil || c.FromAzimuthZenith == nil {
		return errors.Errorf("spherical convention %q is missing a conversion function", c.Name)
	}
	if _, ok := conventions[c.Name]; ok {
		return errors.Errorf("spherical convention %q already registered", c.Name)
	}
	conventions[c.Name] = c
	return nil
}

// LookupConvention returns the registered convention with the given name.
func LookupConvention(name string) (SphericalConvention, error) {
	c, ok := conventions[name]
	if !ok {
		return SphericalConvention{}, errors.Errorf("unknown spherical convention %q", name)
	}
	return c, nil
}

// DefaultConvention returns the canonical azimuth/zenith convention.
func DefaultConvention() SphericalConvention {
	return conventions[AzimuthZenith]
}

// ConventionNames returns the names of all registered conventions, sorted.
func ConventionNames() []string {
	names := lo.Keys(conventions)
	slices.Sort(names)
	return names
}

// zenithElevation swaps zenith and elevation; the mapping is its own inverse.
func zenithElevation(s State) State {
	s.Position.Y = math.Pi/2 - s.Position.Y
	s.Velocity.Y = -s.Velocity.Y
	s.Acceleration.Y = -s.Acceleration.Y
	return s
}

func zenithToDepression(s State) State {
	s.Position.Y -= math.Pi / 2
	return s
}

func depressionToZenith(s State) State {
	s.Position.Y += math.Pi / 2
	return s
}

func unknownSystemPanic(system CoordinateSystem) string {
	return utils.NewUnknownEnumPanic("coordinate system", system)
}
