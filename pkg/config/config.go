// Package config loads the sender configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/taigrr/monolith/pkg/fanout"
	"github.com/taigrr/monolith/pkg/layout"
	"github.com/taigrr/monolith/pkg/math3d"
	"github.com/taigrr/monolith/pkg/tracking"
	"github.com/taigrr/monolith/pkg/visibility"
)

// DefaultAperture is the cone radius at the reference distance, in world
// millimetres.
const DefaultAperture = 200.0

// Config is the complete sender configuration.
type Config struct {
	Layout   string           `yaml:"layout"` // path of the layout rows file
	Geometry layout.Geometry  `yaml:"geometry"`
	Replicas int              `yaml:"replicas"`
	Faces    layout.FaceTable `yaml:"faces"`

	Address string                `yaml:"address"` // OSC address of frame messages
	MTU     int                   `yaml:"mtu"`
	Targets []fanout.ClientTarget `yaml:"targets"`

	Reference   math3d.Vec3          `yaml:"reference"`
	Aperture    float64              `yaml:"aperture"`
	Calibration tracking.Calibration `yaml:"calibration"`

	FPS           int `yaml:"fps"`
	ReadbackSlots int `yaml:"readback_slots"` // concurrent frame callbacks
}

// Default returns the configuration of the installed sculpture.
func Default() *Config {
	return &Config{
		Layout:        "layout.csv",
		Geometry:      layout.MonolithGeometry(),
		Replicas:      layout.MonolithReplicas,
		Faces:         layout.MonolithFaces(),
		Address:       fanout.DefaultAddress,
		MTU:           fanout.DefaultMTU,
		Targets:       fanout.MonolithTargets(),
		Reference:     visibility.DefaultReference,
		Aperture:      DefaultAperture,
		Calibration:   tracking.DefaultCalibration(),
		FPS:           60,
		ReadbackSlots: 2,
	}
}

// Load reads a YAML file over the defaults. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Lists
// given in data replace the default lists.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate fills zero values with defaults and rejects values the sender
// cannot run with. Face and target coverage is checked once the LED count
// is known, see LEDCount.
func (c *Config) Validate() error {
	def := Default()
	if c.Layout == "" {
		return errors.New("layout path is required")
	}
	if c.Replicas == 0 {
		c.Replicas = def.Replicas
	}
	if c.Address == "" {
		c.Address = def.Address
	}
	if c.MTU == 0 {
		c.MTU = def.MTU
	}
	if c.FPS == 0 {
		c.FPS = def.FPS
	}
	if c.ReadbackSlots == 0 {
		c.ReadbackSlots = def.ReadbackSlots
	}

	g := c.Geometry
	for name, v := range map[string]float64{
		"width":         g.Width,
		"depth":         g.Depth,
		"height":        g.Height,
		"texture_scale": g.TextureScale,
	} {
		if !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("geometry %s must be positive, got %v", name, v)
		}
	}
	switch {
	case c.Replicas < 0:
		return fmt.Errorf("replicas must be positive, got %d", c.Replicas)
	case len(c.Faces) == 0:
		return errors.New("no faces configured")
	case len(c.Targets) == 0:
		return errors.New("no client targets configured")
	case !(c.Aperture > 0) || math.IsInf(c.Aperture, 0):
		return fmt.Errorf("aperture must be positive, got %v", c.Aperture)
	case !c.Reference.IsFinite():
		return fmt.Errorf("reference %v is not finite", c.Reference)
	case c.FPS < 0:
		return fmt.Errorf("fps must be positive, got %d", c.FPS)
	case c.ReadbackSlots < 0:
		return fmt.Errorf("readback_slots must be positive, got %d", c.ReadbackSlots)
	}
	if err := fanout.ValidateMTU(c.Address, c.Targets, c.MTU); err != nil {
		return err
	}
	return nil
}

// Mapper returns the coordinate mapper described by the configuration.
func (c *Config) Mapper() *layout.Mapper {
	return &layout.Mapper{
		Geometry: c.Geometry,
		Faces:    c.Faces,
		Replicas: c.Replicas,
	}
}

// LEDCount checks that faces and client targets both tile an n-LED frame.
func (c *Config) LEDCount(n int) error {
	if err := c.Faces.Validate(n); err != nil {
		return err
	}
	return fanout.ValidateTargets(c.Targets, n)
}
