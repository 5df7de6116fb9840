package tracking

import "github.com/taigrr/monolith/pkg/math3d"

// Calibration maps tracker pixels onto the floor plane in world millimetres.
// Camera Y runs along world X, camera X against world Z; the viewer is
// assumed to stand with eyes at EyeHeight.
type Calibration struct {
	MmPerPxX  float64 `yaml:"mm_per_px_x"`
	MmPerPxY  float64 `yaml:"mm_per_px_y"`
	OffsetX   float64 `yaml:"offset_x"`
	OffsetZ   float64 `yaml:"offset_z"`
	EyeHeight float64 `yaml:"eye_height"`
}

// DefaultCalibration returns the calibration measured on the installation.
func DefaultCalibration() Calibration {
	return Calibration{
		MmPerPxX:  2340.0 / 90.0,
		MmPerPxY:  6220.0 / 265.0,
		OffsetX:   -3000,
		OffsetZ:   5400,
		EyeHeight: 1880,
	}
}

// ToWorld converts a camera-space estimate into a world-space viewer.
func (c Calibration) ToWorld(p math3d.Vec2) math3d.Vec3 {
	return math3d.V3(
		p.Y*c.MmPerPxX+c.OffsetX,
		c.EyeHeight,
		-p.X*c.MmPerPxY+c.OffsetZ,
	)
}
