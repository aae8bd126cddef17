package motionstate

import (
	"encoding/xml"
	"io"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"go.viam.com/motionframes/kinematicstate"
	"go.viam.com/motionframes/logging"
	"go.viam.com/motionframes/referenceframe"
	"go.viam.com/motionframes/spatialmath"
)

// MotionStateXML is a struct which details the XML used for a motion state. Vectors use the same
// space delimited form as frame states.
type MotionStateXML struct {
	XMLName                 xml.Name `xml:"motionState"`
	System                  string   `xml:"type,attr"`
	Frame                   string   `xml:"frame,attr"`
	Perturbation            string   `xml:"perturbation,attr"`
	Units                   string   `xml:"units,attr"`
	Convention              string   `xml:"convention,attr"`
	Time                    string   `xml:"time,attr"`
	Position                string   `xml:"position,attr"`
	Velocity                string   `xml:"velocity,attr"`
	Acceleration            string   `xml:"acceleration,attr"`
	Orientation             string   `xml:"orientation,attr"`
	OrientationRate         string   `xml:"orientationRate,attr"`
	OrientationAcceleration string   `xml:"orientationAcceleration,attr"`
}

// NewMotionStateXML describes ms.
func NewMotionStateXML(ms *MotionState) (MotionStateXML, error) {
	f, err := ms.Frame()
	if err != nil {
		return MotionStateXML{}, err
	}
	s := ms.state
	return MotionStateXML{
		System:                  s.System.String(),
		Frame:                   f.Name(),
		Perturbation:            ms.perturbation,
		Units:                   s.Units.String(),
		Convention:              ms.conv.Name,
		Time:                    referenceframe.FormatFloat(s.Time),
		Position:                referenceframe.FormatVector(s.Position),
		Velocity:                referenceframe.FormatVector(s.Velocity),
		Acceleration:            referenceframe.FormatVector(s.Acceleration),
		Orientation:             referenceframe.FormatVector(s.Orientation.Vector()),
		OrientationRate:         referenceframe.FormatVector(s.OrientationRate.Vector()),
		OrientationAcceleration: referenceframe.FormatVector(s.OrientationAcceleration.Vector()),
	}, nil
}

// state parses the kinematic part of the description.
func (x *MotionStateXML) state() (kinematicstate.State, error) {
	system, err := kinematicstate.ParseCoordinateSystem(x.System)
	if err != nil {
		return kinematicstate.State{}, err
	}
	units, err := spatialmath.ParseAngleUnits(x.Units)
	if err != nil {
		return kinematicstate.State{}, err
	}
	t, err := cast.ToFloat64E(x.Time)
	if err != nil {
		return kinematicstate.State{}, errors.Wrap(err, "motion state time")
	}
	s := kinematicstate.State{Time: t, System: system, Units: units}
	var orientation, rate, accel r3.Vector
	for _, field := range []struct {
		name string
		attr string
		dst  *r3.Vector
	}{
		{"position", x.Position, &s.Position},
		{"velocity", x.Velocity, &s.Velocity},
		{"acceleration", x.Acceleration, &s.Acceleration},
		{"orientation", x.Orientation, &orientation},
		{"orientationRate", x.OrientationRate, &rate},
		{"orientationAcceleration", x.OrientationAcceleration, &accel},
	} {
		v, err := referenceframe.ParseVector(field.attr)
		if err != nil {
			return kinematicstate.State{}, errors.Wrapf(err, "motion state %s", field.name)
		}
		*field.dst = v
	}
	s.Orientation = spatialmath.EulerAnglesFromVector(orientation)
	s.OrientationRate = spatialmath.EulerAnglesFromVector(rate)
	s.OrientationAcceleration = spatialmath.EulerAnglesFromVector(accel)
	return s, nil
}

// config returns cfg with the settings the description carries.
func (x *MotionStateXML) config(cfg Config) Config {
	if x.Units != "" {
		cfg.Units = x.Units
	}
	if x.Convention != "" {
		cfg.Convention = x.Convention
	}
	if x.Perturbation != "" {
		cfg.Perturbation = x.Perturbation
	}
	return cfg
}

// WriteXML writes the motion state as indented XML.
func (ms *MotionState) WriteXML(w io.Writer) error {
	x, err := NewMotionStateXML(ms)
	if err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(x); err != nil {
		return errors.Wrap(err, "failed to encode motion state")
	}
	return enc.Flush()
}

// ReadMotionStateXML builds a motion state from XML written by WriteXML, anchoring it to the frame
// of tree with the recorded name. Settings the document does not carry come from cfg.
func ReadMotionStateXML(r io.Reader, tree *referenceframe.Tree, cfg Config, logger logging.Logger) (*MotionState, error) {
	x, err := decodeMotionStateXML(r)
	if err != nil {
		return nil, err
	}
	s, err := x.state()
	if err != nil {
		return nil, err
	}
	frame := tree.FindFrame(x.Frame)
	if frame == nil {
		return nil, referenceframe.NewFrameNotFoundError(x.Frame)
	}
	return New(frame, s, x.config(cfg), logger)
}

// ReadXML replaces the state of ms with the one described by r, re-anchoring ms to the named frame
// of its tree. The description must be of the same coordinate system as ms; on any failure ms is
// left unchanged.
func (ms *MotionState) ReadXML(r io.Reader) error {
	x, err := decodeMotionStateXML(r)
	if err != nil {
		return err
	}
	s, err := x.state()
	if err != nil {
		return err
	}
	if s.System != ms.state.System {
		err := NewCoordinateMismatchError(ms.state.System, s.System)
		logging.LogMsg(ms.logger, logging.WARN, err.Error(), "MotionState.ReadXML", "frame", x.Frame)
		return err
	}
	frame := ms.tree.FindFrame(x.Frame)
	if frame == nil {
		return referenceframe.NewFrameNotFoundError(x.Frame)
	}
	conv := ms.conv
	if x.Convention != "" {
		if conv, err = kinematicstate.LookupConvention(x.Convention); err != nil {
			return err
		}
	}
	if err := ms.SetFrame(frame); err != nil {
		return err
	}
	ms.cfg = x.config(ms.cfg)
	ms.conv = conv
	ms.perturbation = ms.cfg.Perturbation
	ms.state = s
	return nil
}

func decodeMotionStateXML(r io.Reader) (*MotionStateXML, error) {
	var x MotionStateXML
	if err := xml.NewDecoder(r).Decode(&x); err != nil {
		return nil, errors.Wrap(err, "failed to decode motion state")
	}
	return &x, nil
}
