// Package monolith runs the sender frame: track the viewer, light the LEDs
// inside each view cone, read the frame back, sample it and fan it out.
package monolith

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/taigrr/monolith/pkg/config"
	"github.com/taigrr/monolith/pkg/layout"
	"github.com/taigrr/monolith/pkg/math3d"
	"github.com/taigrr/monolith/pkg/render"
	"github.com/taigrr/monolith/pkg/tracking"
	"github.com/taigrr/monolith/pkg/visibility"
)

// ConeColors are the glow colors of the swarm, one per cone.
var ConeColors = []render.Color{render.ColorCyan, render.ColorYellow, render.ColorMagenta}

// Engine owns everything the render loop touches. It is not safe for
// concurrent use; only the render goroutine calls it.
type Engine struct {
	LEDs  []layout.LedRecord
	Debug bool // draw face boundaries and the frame outline

	detector    visibility.Detector
	aperture    float64
	calibration tracking.Calibration
	swarm       *tracking.Swarm
	scene       *render.Scene
	fb          *render.Framebuffer
	points      []math3d.Vec3
	boundaries  []int
	visible     []int
	lit         int
}

// NewEngine checks that leds match the configuration and the frame, then
// prepares the scene.
func NewEngine(cfg *config.Config, leds []layout.LedRecord, rng *rand.Rand) (*Engine, error) {
	if err := cfg.LEDCount(len(leds)); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	w, h := cfg.Geometry.ImageSize()
	if err := layout.CheckBounds(leds, w, h); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}

	return &Engine{
		LEDs:        leds,
		detector:    visibility.NewDetector(cfg.Reference),
		aperture:    cfg.Aperture,
		calibration: cfg.Calibration,
		swarm:       tracking.NewSwarm(cfg.FPS, rng, tracking.DefaultStart()),
		scene:       render.NewScene(leds, cfg.Geometry.TextureScale),
		fb:          render.NewFramebuffer(w, h),
		points:      layout.WorldPoints(leds),
		boundaries:  cfg.Faces.Boundaries(),
		visible:     make([]int, 0, len(leds)),
	}, nil
}

// Update reads the newest viewer estimate without blocking and moves the
// swarm by dt.
func (e *Engine) Update(dt time.Duration, slot *tracking.ViewerSlot) {
	est, ok := slot.Load()
	fresh := slot.TakeFresh()

	var viewer math3d.Vec3
	if ok {
		viewer = e.calibration.ToWorld(est)
	}
	e.swarm.Update(dt, viewer, ok, fresh)
}

// Draw renders the current frame and returns it. The framebuffer is reused
// by the next Draw.
func (e *Engine) Draw() *render.Framebuffer {
	e.scene.Begin(e.fb)
	e.lit = 0
	for i, apex := range e.swarm.Positions {
		e.visible = e.detector.Visible(e.visible[:0], apex, e.aperture, e.points)
		e.lit += len(e.visible)
		e.scene.Glow(e.fb, e.visible, ConeColors[i%len(ConeColors)])
	}
	if e.Debug {
		e.scene.DebugOverlay(e.fb, e.boundaries)
	}
	return e.fb
}

// Lit returns how many LED hits the last Draw produced, counting an LED
// once per cone that sees it.
func (e *Engine) Lit() int {
	return e.lit
}

// Swarm exposes the cone swarm for inspection.
func (e *Engine) Swarm() *tracking.Swarm {
	return e.swarm
}
