package referenceframe

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"go.uber.org/multierr"

	"go.viam.com/motionframes/logging"
	"go.viam.com/motionframes/spatialmath"
)

// TreeXML is the XML document describing a whole tree, rooted at its world frame.
type TreeXML struct {
	XMLName xml.Name `xml:"tree"`
	Name    string   `xml:"name,attr"`
	World   FrameXML `xml:"frame"`
}

// FrameXML is a struct which details the XML used for a frame and, recursively, its children.
type FrameXML struct {
	XMLName  xml.Name        `xml:"frame"`
	Name     string          `xml:"name,attr"`
	Parent   string          `xml:"parent,attr,omitempty"`
	Kind     string          `xml:"kind,attr,omitempty"`
	States   []FrameStateXML `xml:"state"`
	Children []FrameXML      `xml:"frame"`
}

// FrameStateXML is a struct which details the XML used for one perturbation state of a frame.
// Vectors are space delimited "x y z" and Euler triples "roll pitch yaw" in Units.
type FrameStateXML struct {
	XMLName                xml.Name `xml:"state"`
	Name                   string   `xml:"name,attr"`
	Time                   string   `xml:"time,attr"`
	Units                  string   `xml:"units,attr"`
	Origin                 string   `xml:"origin,attr"`
	Velocity               string   `xml:"velocity,attr"`
	Acceleration           string   `xml:"acceleration,attr"`
	Orientation            string   `xml:"orientation,attr"`
	RotationalRate         string   `xml:"rotationalRate,attr"`
	RotationalAcceleration string   `xml:"rotationalAcceleration,attr"`
}

// NewFrameStateXML describes fs.
func NewFrameStateXML(fs *FrameState) FrameStateXML {
	return FrameStateXML{
		Name:                   fs.name,
		Time:                   FormatFloat(fs.Time),
		Units:                  fs.Units.String(),
		Origin:                 FormatVector(fs.Origin),
		Velocity:               FormatVector(fs.Velocity),
		Acceleration:           FormatVector(fs.Acceleration),
		Orientation:            FormatVector(fs.Orientation.Vector()),
		RotationalRate:         FormatVector(fs.RotationalRate.Vector()),
		RotationalAcceleration: FormatVector(fs.RotationalAcceleration.Vector()),
	}
}

// Parse converts the XML description back into a frame state.
func (x *FrameStateXML) Parse() (*FrameState, error) {
	units, err := spatialmath.ParseAngleUnits(x.Units)
	if err != nil {
		return nil, err
	}
	t, err := cast.ToFloat64E(x.Time)
	if err != nil {
		return nil, errors.Wrapf(err, "state %q time", x.Name)
	}
	fs := NewFrameState(t)
	fs.name = x.Name
	fs.Units = units
	var orientation, rate, accel r3.Vector
	for _, field := range []struct {
		attr string
		dst  *r3.Vector
	}{
		{x.Origin, &fs.Origin},
		{x.Velocity, &fs.Velocity},
		{x.Acceleration, &fs.Acceleration},
		{x.Orientation, &orientation},
		{x.RotationalRate, &rate},
		{x.RotationalAcceleration, &accel},
	} {
		v, err := ParseVector(field.attr)
		if err != nil {
			return nil, errors.Wrapf(err, "state %q", x.Name)
		}
		*field.dst = v
	}
	fs.Orientation = spatialmath.EulerAnglesFromVector(orientation)
	fs.RotationalRate = spatialmath.EulerAnglesFromVector(rate)
	fs.RotationalAcceleration = spatialmath.EulerAnglesFromVector(accel)
	return fs, nil
}

// NewFrameXML describes f and its branch.
func NewFrameXML(f *Frame) FrameXML {
	x := FrameXML{Name: f.name, Kind: f.kind.String()}
	if p := f.Parent(); p != nil {
		x.Parent = p.name
	}
	for _, name := range f.StateNames() {
		x.States = append(x.States, NewFrameStateXML(f.states[name]))
	}
	for _, c := range f.Children() {
		x.Children = append(x.Children, NewFrameXML(c))
	}
	return x
}

// ReadInto creates (or reuses) the described frame as a child of parent and fills in its states and
// children. Errors in one child do not stop its siblings from being read; all are returned together.
func (x *FrameXML) ReadInto(parent *Frame) (*Frame, error) {
	if parent == nil {
		return nil, NewFrameMissingError("parent")
	}
	if x.Parent != "" && x.Parent != parent.name {
		return nil, errors.Errorf("frame %q names parent %q but is nested under %q", x.Name, x.Parent, parent.name)
	}
	f, err := parent.CreateChild(x.Name, nil)
	if err != nil {
		return nil, err
	}
	if err := x.fill(f); err != nil {
		return f, err
	}
	return f, nil
}

func (x *FrameXML) fill(f *Frame) error {
	kind, err := ParseStateKind(x.Kind)
	if err != nil {
		return errors.Wrapf(err, "frame %q", x.Name)
	}
	f.kind = kind
	for i := range x.States {
		fs, err := x.States[i].Parse()
		if err != nil {
			return errors.Wrapf(err, "frame %q", x.Name)
		}
		f.SetState(fs.name, fs)
	}
	for i := range x.Children {
		_, childErr := x.Children[i].ReadInto(f)
		err = multierr.Combine(err, childErr)
	}
	return err
}

// WriteXML writes the world branch of the tree as indented XML.
func (t *Tree) WriteXML(w io.Writer) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(TreeXML{Name: t.name, World: NewFrameXML(t.World())}); err != nil {
		return errors.Wrap(err, "failed to encode frame tree")
	}
	return enc.Flush()
}

// ReadTreeXML builds a new tree from XML written by WriteXML. The tree is returned alongside any
// error so partially readable documents can still be inspected.
func ReadTreeXML(r io.Reader, logger logging.Logger) (*Tree, error) {
	var doc TreeXML
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "failed to decode frame tree")
	}
	if doc.World.Name != World {
		return nil, errors.Errorf("tree root must be %q, got %q", World, doc.World.Name)
	}
	t := NewTree(doc.Name, logger)
	err := doc.World.fill(t.World())
	if err != nil {
		logging.LogMsg(t.logger, logging.WARN, "frame tree read with errors", "ReadTreeXML", "error", err)
	}
	return t, err
}

// FormatFloat formats v so that parsing it gives v back exactly.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// FormatVector formats v as a space delimited "x y z" attribute.
func FormatVector(v r3.Vector) string {
	return strings.Join([]string{FormatFloat(v.X), FormatFloat(v.Y), FormatFloat(v.Z)}, " ")
}

// ParseVector parses a space delimited "x y z" attribute. An empty attribute is the zero vector.
func ParseVector(s string) (r3.Vector, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return r3.Vector{}, nil
	}
	if len(fields) != 3 {
		return r3.Vector{}, errors.Errorf("expected 3 space delimited values, got %q", s)
	}
	vals := make([]float64, 3)
	for i, field := range fields {
		v, err := cast.ToFloat64E(field)
		if err != nil {
			return r3.Vector{}, err
		}
		vals[i] = v
	}
	return r3.Vector{X: vals[0], Y: vals[1], Z: vals[2]}, nil
}
