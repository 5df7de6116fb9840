// Package visibility decides which LEDs fall inside a viewer's visibility
// cone.
//
// The cone approximates the perspective projection of a circular aperture
// placed at a fixed reference point: its apex sits at the viewer, its axis
// runs through the reference and its radius there equals the aperture.
// Animation tuning is calibrated against this shape; it is not an exact
// projection.
package visibility

import (
	"math"

	"github.com/taigrr/monolith/pkg/math3d"
)

// DefaultReference is the centre of the aperture on the installation, in
// world millimetres.
var DefaultReference = math3d.V3(-20, 1920, 0)

// Cone is a right circular cone in its own frame: the axis is local Y, the
// apex at +HalfHeight and the base disc of radius Radius at -HalfHeight.
// Transform places the local frame in world space.
type Cone struct {
	HalfHeight float64
	Radius     float64
	Transform  math3d.Mat4

	inverse math3d.Mat4
}

// Apex returns the world position of the cone's tip.
func (c *Cone) Apex() math3d.Vec3 {
	return c.Transform.MulVec3(math3d.V3(0, c.HalfHeight, 0))
}

// Axis returns the unit world direction from the apex toward the base.
func (c *Cone) Axis() math3d.Vec3 {
	return c.Transform.MulVec3Dir(math3d.V3(0, -1, 0))
}

// RadiusAt returns the cone radius at local height y, or a negative value
// outside the cone's extent.
func (c *Cone) RadiusAt(y float64) float64 {
	if math.Abs(y) > c.HalfHeight {
		return -1
	}
	return c.Radius * (c.HalfHeight - y) / (2 * c.HalfHeight)
}

// Contains reports whether the world point p lies inside or on the cone.
func (c *Cone) Contains(p math3d.Vec3) bool {
	local := c.inverse.MulVec3(p)
	r := c.RadiusAt(local.Y)
	if r < 0 {
		return false
	}
	return math.Hypot(local.X, local.Z) <= r
}

// Detector tests LED points against the visibility cone of a viewer. It holds
// no mutable state and is safe for concurrent use.
type Detector struct {
	Reference math3d.Vec3
}

// NewDetector returns a detector aimed at reference.
func NewDetector(reference math3d.Vec3) Detector {
	return Detector{Reference: reference}
}

// Cone builds the visibility cone of a viewer. The cone's apex is the viewer,
// its length twice the viewer-reference distance d and its base radius twice
// the aperture, so the radius at the reference is exactly aperture. ok is
// false for degenerate input: a viewer on the reference, non-finite
// coordinates or a non-positive aperture.
func (d Detector) Cone(viewer math3d.Vec3, aperture float64) (cone Cone, ok bool) {
	if !viewer.IsFinite() || !d.Reference.IsFinite() {
		return Cone{}, false
	}
	if !(aperture > 0) || math.IsInf(aperture, 0) {
		return Cone{}, false
	}
	dist := viewer.Distance(d.Reference)
	if dist == 0 || math.IsInf(dist, 0) {
		return Cone{}, false
	}

	// Local +Z faces the reference; the quarter turn about X brings local +Y
	// (the apex side) onto -Z, back toward the viewer.
	iso := math3d.FaceToward(viewer, d.Reference, math3d.Up())
	iso.SetTranslation(d.Reference)
	iso = iso.Mul(math3d.RotateX(-math.Pi / 2))

	return Cone{
		HalfHeight: dist,
		Radius:     2 * aperture,
		Transform:  iso,
		inverse:    iso.RigidInverse(),
	}, true
}

// IsVisible reports whether point lies inside the visibility cone of viewer.
// Degenerate input yields false.
func (d Detector) IsVisible(viewer, point math3d.Vec3, aperture float64) bool {
	if !point.IsFinite() {
		return false
	}
	cone, ok := d.Cone(viewer, aperture)
	if !ok {
		return false
	}
	return cone.Contains(point)
}

// Visible appends to dst the indices of points inside the visibility cone of
// viewer and returns the extended slice. The cone is built once for the
// whole batch.
func (d Detector) Visible(dst []int, viewer math3d.Vec3, aperture float64, points []math3d.Vec3) []int {
	cone, ok := d.Cone(viewer, aperture)
	if !ok {
		return dst
	}
	for i, p := range points {
		if p.IsFinite() && cone.Contains(p) {
			dst = append(dst, i)
		}
	}
	return dst
}
