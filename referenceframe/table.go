package referenceframe

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/motionframes/spatialmath"
)

// String prints out a table of each frame under the world, with columns of name, parent, kind,
// perturbation states, origin, velocity and the default state's orientation as an axis angle. The
// title carries the tree's name and id. Frames without states print as zero.
func (t *Tree) String() string {
	tw := table.NewWriter()
	tw.SetTitle(fmt.Sprintf("%s (%s)", t.name, t.id))
	tw.AppendHeader(table.Row{"#", "Name", "Parent", "Kind", "States", "Origin", "Velocity", "Orientation"})
	for i, f := range t.World().Branch() {
		parent := ""
		if p := f.Parent(); p != nil {
			parent = p.name
		}
		fs := f.StateOrDefault(DefaultState).InUnits(spatialmath.Radians)
		tw.AppendRow(table.Row{
			i,
			f.name,
			parent,
			f.StateKind().String(),
			strings.Join(f.StateNames(), ","),
			fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", fs.Origin.X, fs.Origin.Y, fs.Origin.Z),
			fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", fs.Velocity.X, fs.Velocity.Y, fs.Velocity.Z),
			spatialmath.QuatToR4AA(fs.Orientation.Quaternion()).String(),
		})
	}
	return tw.Render()
}
