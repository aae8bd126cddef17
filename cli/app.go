// Package cli contains the motionframes command line tool for inspecting frame trees and
// transforming motion states between their frames.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/motionframes/kinematicstate"
	"go.viam.com/motionframes/logging"
	"go.viam.com/motionframes/motionstate"
	"go.viam.com/motionframes/referenceframe"
	"go.viam.com/motionframes/spatialmath"
)

const (
	// Flags.
	generalFlagDebug      = "debug"
	generalFlagLogLevel   = "log-level"
	generalFlagUnits      = "units"
	generalFlagConvention = "convention"

	framesFlag    = "frames"
	stateFlag     = "state"
	otherFlag     = "other"
	toFlag        = "to"
	timeFlag      = "time"
	temporalFlag  = "temporal"
	sphericalFlag = "spherical"
	xmlFlag       = "xml"
	rangeFlag     = "range"
)

var framesFileFlag = &cli.StringFlag{
	Name:     framesFlag,
	Aliases:  []string{"f"},
	Required: true,
	Usage:    "frame tree XML `FILE`",
}

// NewApp returns the motionframes app writing its output to out and its logs and errors to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app := &cli.App{
		Name:            "motionframes",
		Usage:           "inspect frame trees and move motion states between their frames",
		HideHelpCommand: true,
		Writer:          out,
		ErrWriter:       errOut,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    generalFlagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
			&cli.StringFlag{
				Name:  generalFlagLogLevel,
				Value: "info",
				Usage: "minimum `LEVEL` of log lines (debug, info, warn or error)",
			},
			&cli.StringFlag{
				Name:  generalFlagUnits,
				Usage: "angle `UNITS` motion states are read and printed in (radians or degrees)",
			},
			&cli.StringFlag{
				Name:  generalFlagConvention,
				Usage: "spherical convention of motion states",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "tree",
				Usage:  "print the frames of a frame tree",
				Flags:  []cli.Flag{framesFileFlag},
				Action: TreeAction,
			},
			{
				Name:   "conventions",
				Usage:  "list the registered spherical conventions",
				Action: ConventionsAction,
			},
			{
				Name:  "transform",
				Usage: "express a motion state in another frame of its tree",
				Flags: []cli.Flag{
					framesFileFlag,
					&cli.StringFlag{
						Name:     stateFlag,
						Aliases:  []string{"s"},
						Required: true,
						Usage:    "motion state XML `FILE`",
					},
					&cli.StringFlag{
						Name:     toFlag,
						Required: true,
						Usage:    "`NAME` of the target frame",
					},
					&cli.Float64Flag{
						Name:  timeFlag,
						Usage: "project the state to time `T` and transform at that time",
					},
					&cli.BoolFlag{
						Name:  temporalFlag,
						Usage: "account for frame motion since the frames' epochs",
					},
					&cli.BoolFlag{
						Name:  sphericalFlag,
						Usage: "print the result in spherical coordinates",
					},
					&cli.BoolFlag{
						Name:  xmlFlag,
						Usage: "print the result as motion state XML",
					},
				},
				Action: TransformAction,
			},
			{
				Name:  "approach",
				Usage: "compute range and approach figures between two motion states",
				Flags: []cli.Flag{
					framesFileFlag,
					&cli.StringFlag{
						Name:     stateFlag,
						Aliases:  []string{"s"},
						Required: true,
						Usage:    "motion state XML `FILE` the figures are measured from",
					},
					&cli.StringFlag{
						Name:     otherFlag,
						Required: true,
						Usage:    "motion state XML `FILE` of the other point",
					},
					&cli.Float64Flag{
						Name:  timeFlag,
						Usage: "reference time `T`, defaults to the time of the first state",
					},
					&cli.Float64Flag{
						Name:  rangeFlag,
						Usage: "also compute when the distance equals `R`",
					},
				},
				Action: ApproachAction,
			},
		},
	}
	return app
}

// TreeAction prints the frame table of a tree.
func TreeAction(c *cli.Context) error {
	tree, err := loadTree(c)
	if err != nil {
		return err
	}
	defer tree.Close() //nolint:errcheck
	printf(c.App.Writer, "%s", tree.String())
	return nil
}

// ConventionsAction lists the spherical conventions motion states can use.
func ConventionsAction(c *cli.Context) error {
	def := kinematicstate.DefaultConvention().Name
	for _, name := range kinematicstate.ConventionNames() {
		if name == def {
			printf(c.App.Writer, "%s (default)", name)
			continue
		}
		printf(c.App.Writer, "%s", name)
	}
	return nil
}

// TransformAction reads a motion state and prints it expressed in the requested frame.
func TransformAction(c *cli.Context) error {
	tree, err := loadTree(c)
	if err != nil {
		return err
	}
	defer tree.Close() //nolint:errcheck

	ms, err := loadState(c, tree, c.String(stateFlag))
	if err != nil {
		return err
	}
	defer ms.Close()

	target := tree.FindFrame(c.String(toFlag))
	if target == nil {
		return referenceframe.NewFrameNotFoundError(c.String(toFlag))
	}
	if c.IsSet(timeFlag) {
		err = ms.TransformToFrameAt(target, c.Float64(timeFlag))
	} else {
		err = ms.TransformToFrame(target, c.Bool(temporalFlag))
	}
	if err != nil {
		return err
	}
	if c.Bool(sphericalFlag) {
		ms.ToSpherical()
	}

	if c.Bool(xmlFlag) {
		if err := ms.WriteXML(c.App.Writer); err != nil {
			return err
		}
		printf(c.App.Writer, "")
		return nil
	}
	printf(c.App.Writer, "%s", stateTable(ms))
	return nil
}

// ApproachAction prints the range figures of one motion state relative to another.
func ApproachAction(c *cli.Context) error {
	tree, err := loadTree(c)
	if err != nil {
		return err
	}
	defer tree.Close() //nolint:errcheck

	me, err := loadState(c, tree, c.String(stateFlag))
	if err != nil {
		return err
	}
	defer me.Close()
	other, err := loadState(c, tree, c.String(otherFlag))
	if err != nil {
		return err
	}
	defer other.Close()

	t := me.Time()
	if c.IsSet(timeFlag) {
		t = c.Float64(timeFlag)
	}

	figures := []struct {
		name string
		calc func(float64, *motionstate.MotionState) (float64, error)
	}{
		{"Range", me.CalcRange},
		{"Range rate", me.CalcRangeRate},
		{"Range acceleration", me.CalcRangeAcceleration},
		{"Minimum approach time", me.CalcMinimumApproachTime},
		{"Minimum approach range", me.CalcMinimumApproachRange},
	}
	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"Figure", "Value"})
	tw.AppendRow(table.Row{"Time", referenceframe.FormatFloat(t)})
	for _, fig := range figures {
		v, err := fig.calc(t, other)
		if err != nil {
			return errors.Wrapf(err, "failed to compute %s", fig.name)
		}
		tw.AppendRow(table.Row{fig.name, referenceframe.FormatFloat(v)})
	}
	if c.IsSet(rangeFlag) {
		r := c.Float64(rangeFlag)
		v, err := me.CalcApproachTime(t, other, r)
		if err != nil {
			return errors.Wrap(err, "failed to compute approach time")
		}
		tw.AppendRow(table.Row{fmt.Sprintf("Approach time (%s)", referenceframe.FormatFloat(r)), referenceframe.FormatFloat(v)})
	}
	printf(c.App.Writer, "%s", tw.Render())
	return nil
}

func stateTable(ms *motionstate.MotionState) string {
	s := ms.State()
	frame := "<detached>"
	if f, err := ms.Frame(); err == nil {
		frame = f.Name()
	}
	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("%s state in %s at %s (%s)", s.System, frame, referenceframe.FormatFloat(s.Time), s.Units))
	tw.AppendHeader(table.Row{"Derivative", "Vector", "Orientation"})
	tw.AppendRows([]table.Row{
		{kinematicstate.Position, referenceframe.FormatVector(s.Position), referenceframe.FormatVector(s.Orientation.Vector())},
		{kinematicstate.Velocity, referenceframe.FormatVector(s.Velocity), referenceframe.FormatVector(s.OrientationRate.Vector())},
		{
			kinematicstate.Acceleration, referenceframe.FormatVector(s.Acceleration),
			referenceframe.FormatVector(s.OrientationAcceleration.Vector()),
		},
	})
	return tw.Render()
}

func newLogger(c *cli.Context) (logging.Logger, error) {
	logger := logging.NewBlankLogger("motionframes")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if c.Bool(generalFlagDebug) {
		return logger, nil
	}
	level, err := logging.LevelFromString(c.String(generalFlagLogLevel))
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)
	return logger, nil
}

// config builds the motion state config from the global flags.
func config(c *cli.Context) (motionstate.Config, error) {
	attrs := map[string]interface{}{}
	if c.IsSet(generalFlagUnits) {
		attrs["units"] = c.String(generalFlagUnits)
	}
	if c.IsSet(generalFlagConvention) {
		attrs["convention"] = c.String(generalFlagConvention)
	}
	return motionstate.NewConfigFromAttributes(attrs)
}

func loadTree(c *cli.Context) (*referenceframe.Tree, error) {
	path := c.String(framesFlag)
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open frame tree %q", path)
	}
	defer f.Close() //nolint:errcheck

	logger, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	tree, err := referenceframe.ReadTreeXML(f, logger)
	if err != nil {
		if tree != nil {
			tree.Close() //nolint:errcheck,gosec
		}
		return nil, errors.Wrapf(err, "could not read frame tree %q", path)
	}
	return tree, nil
}

func loadState(c *cli.Context, tree *referenceframe.Tree, path string) (*motionstate.MotionState, error) {
	cfg, err := config(c)
	if err != nil {
		return nil, err
	}
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not open motion state %q", path)
	}
	defer f.Close() //nolint:errcheck

	ms, err := motionstate.ReadMotionStateXML(f, tree, cfg, tree.Logger().Sublogger("motionstate"))
	if err != nil {
		return nil, errors.Wrapf(err, "could not read motion state %q", path)
	}
	// units written in the document are overridden by the flag
	if c.IsSet(generalFlagUnits) {
		u, err := spatialmath.ParseAngleUnits(c.String(generalFlagUnits))
		if err != nil {
			ms.Close()
			return nil, err
		}
		ms.SetUnits(u)
	}
	return ms, nil
}

// printf prints a message with a trailing newline.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}
