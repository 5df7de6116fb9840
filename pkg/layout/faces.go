package layout

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/taigrr/monolith/pkg/math3d"
)

// Wiring thresholds of the installed layout file. Rows [0, FrontRunLength)
// run along a front face, rows [FrontRunLength, SideRunEnd) along a side
// face. These come from the physical wiring and must be re-measured whenever
// the strips are re-soldered.
const (
	FrontRunLength = 1173
	SideRunEnd     = 1310

	// MonolithReplicas is how many times the layout run repeats around the
	// perimeter.
	MonolithReplicas = 2
)

// Face names one physical side of the structure.
type Face string

const (
	FaceNorth Face = "north"
	FaceWest  Face = "west"
	FaceSouth Face = "south"
	FaceEast  Face = "east"
)

// TransformKind selects one of the named face transforms.
type TransformKind string

const (
	TransformFront TransformKind = "front"
	TransformBack  TransformKind = "back"
	TransformLeft  TransformKind = "left"
	TransformRight TransformKind = "right"
)

// FaceTransform is an affine map from a render-space point (x, y, 1) to a
// world-space point (X, Y, Z), stored column-major.
type FaceTransform mgl64.Mat3

// Apply folds a render-space point onto its face.
func (t FaceTransform) Apply(p math3d.Vec2) math3d.Vec3 {
	v := mgl64.Mat3(t).Mul3x1(mgl64.Vec3{p.X, p.Y, 1})
	return math3d.V3(v[0], v[1], v[2])
}

// faceTransform builds X = ax*x + bx, Y = y + H/2, Z = az*x + bz.
func faceTransform(g Geometry, ax, bx, az, bz float64) FaceTransform {
	return FaceTransform{
		ax, 0, az,
		0, 1, 0,
		bx, g.Height / 2, bz,
	}
}

// Transform returns the named face transform for geometry g.
func (k TransformKind) Transform(g Geometry) (FaceTransform, error) {
	halfW, d := g.Width/2, g.Depth
	switch k {
	case TransformFront:
		return faceTransform(g, 1, halfW+d, 0, d/2), nil
	case TransformBack:
		return faceTransform(g, -1, -(halfW + d), 0, -d/2), nil
	case TransformLeft:
		return faceTransform(g, 0, -halfW, 1, 0), nil
	case TransformRight:
		return faceTransform(g, 0, halfW, -1, -d/2), nil
	}
	return FaceTransform{}, fmt.Errorf("unknown face transform %q", k)
}

// FaceSpec assigns one contiguous LED range to a face.
type FaceSpec struct {
	Face      Face          `yaml:"face"`
	Range     Range         `yaml:",inline"`
	Transform TransformKind `yaml:"transform"`
}

// FaceTable is the explicit index range → face mapping.
type FaceTable []FaceSpec

// MonolithFaces returns the face table of the installation: the first
// replica covers the north front and west side, the second the south front
// and east side.
func MonolithFaces() FaceTable {
	return FaceTable{
		{Face: FaceNorth, Range: Range{0, FrontRunLength}, Transform: TransformFront},
		{Face: FaceWest, Range: Range{FrontRunLength, SideRunEnd}, Transform: TransformRight},
		{Face: FaceSouth, Range: Range{SideRunEnd, SideRunEnd + FrontRunLength}, Transform: TransformBack},
		{Face: FaceEast, Range: Range{SideRunEnd + FrontRunLength, 2 * SideRunEnd}, Transform: TransformLeft},
	}
}

// Validate checks that the table tiles [0, n) and that every transform is
// known.
func (t FaceTable) Validate(n int) error {
	ranges := make([]Range, len(t))
	for i, f := range t {
		if _, err := f.Transform.Transform(Geometry{}); err != nil {
			return fmt.Errorf("face %q: %w", f.Face, err)
		}
		ranges[i] = f.Range
	}
	if err := ValidateCoverage(ranges, n); err != nil {
		return fmt.Errorf("face table: %w", err)
	}
	return nil
}

// sorted returns a copy ordered by range start.
func (t FaceTable) sorted() FaceTable {
	s := make(FaceTable, len(t))
	copy(s, t)
	sort.Slice(s, func(i, j int) bool { return s[i].Range.Start < s[j].Range.Start })
	return s
}

// Lookup returns the face spec containing index i. The table must be sorted
// and validated.
func (t FaceTable) Lookup(i int) (FaceSpec, bool) {
	k := sort.Search(len(t), func(k int) bool { return t[k].Range.End > i })
	if k == len(t) || !t[k].Range.Contains(i) {
		return FaceSpec{}, false
	}
	return t[k], true
}

// Boundaries returns every interior face boundary index in ascending order.
func (t FaceTable) Boundaries() []int {
	s := t.sorted()
	if len(s) < 2 {
		return nil
	}
	out := make([]int, 0, len(s)-1)
	for _, f := range s[1:] {
		out = append(out, f.Range.Start)
	}
	return out
}
