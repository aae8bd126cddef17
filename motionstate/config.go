package motionstate

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"go.viam.com/motionframes/kinematicstate"
	"go.viam.com/motionframes/referenceframe"
	"go.viam.com/motionframes/spatialmath"
)

// Config holds the settings a MotionState is constructed with. Every MotionState carries its own
// copy; there are no process-wide defaults to mutate.
type Config struct {
	// Units are the angle units new states are created in.
	Units string `json:"units"`
	// Convention names the registered spherical convention used by coordinate conversions.
	Convention string `json:"convention"`
	// CacheTransforms enables the per-state transformation cache.
	CacheTransforms bool `json:"cache_transforms"`
	// Perturbation is the frame state name transformations read.
	Perturbation string `json:"perturbation"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		Units:           spatialmath.Radians.String(),
		Convention:      kinematicstate.AzimuthZenith,
		CacheTransforms: true,
		Perturbation:    referenceframe.DefaultState,
	}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate() error {
	if _, err := spatialmath.ParseAngleUnits(cfg.Units); err != nil {
		return errors.Wrap(err, "invalid motion state config")
	}
	if _, err := kinematicstate.LookupConvention(cfg.Convention); err != nil {
		return errors.Wrap(err, "invalid motion state config")
	}
	if cfg.Perturbation == "" {
		return errors.New("invalid motion state config: perturbation state name cannot be empty")
	}
	return nil
}

// NewConfigFromAttributes decodes an attribute map over the defaults and validates the result.
func NewConfigFromAttributes(attributes map[string]interface{}) (Config, error) {
	conf := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &conf})
	if err != nil {
		return Config{}, err
	}
	if err := decoder.Decode(attributes); err != nil {
		return Config{}, err
	}
	if err := conf.Validate(); err != nil {
		return Config{}, err
	}
	return conf, nil
}

// units returns the parsed angle units. The config must have been validated.
func (cfg *Config) units() spatialmath.AngleUnits {
	u, err := spatialmath.ParseAngleUnits(cfg.Units)
	if err != nil {
		return spatialmath.Radians
	}
	return u
}
