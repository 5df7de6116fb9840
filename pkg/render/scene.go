package render

import (
	"math"

	"github.com/taigrr/monolith/pkg/layout"
)

// Marker sizes in render-space millimetres; they shrink with the texture
// scale like everything else drawn on the surface.
const (
	glowDiameter   = 10.0
	markerDiameter = 15.0
	outlineStroke  = 4.0
)

// Scene draws LED-anchored shapes into an image-space framebuffer.
type Scene struct {
	LEDs       []layout.LedRecord
	Scale      float64 // texture scale of the frame
	Background Color
}

// NewScene returns a scene over leds for frames sampled at scale.
func NewScene(leds []layout.LedRecord, scale float64) *Scene {
	return &Scene{LEDs: leds, Scale: scale, Background: ColorBlack}
}

// Begin clears fb for a new frame.
func (s *Scene) Begin(fb *Framebuffer) {
	fb.Clear(s.Background)
}

// Glow adds c around every LED in indices. Overlapping glows sum.
func (s *Scene) Glow(fb *Framebuffer, indices []int, c Color) {
	r := glowDiameter * s.Scale / 2
	for _, i := range indices {
		if i < 0 || i >= len(s.LEDs) {
			continue
		}
		p := s.LEDs[i].Image
		fb.FillDisc(p.X, p.Y, r, c, BlendAdd)
	}
}

// Fill paints every LED with c.
func (s *Scene) Fill(fb *Framebuffer, c Color) {
	r := glowDiameter * s.Scale / 2
	for _, led := range s.LEDs {
		fb.FillDisc(led.Image.X, led.Image.Y, r, c, BlendReplace)
	}
}

// DebugOverlay marks the two LEDs before every boundary red and the two
// from the boundary on green, and outlines the frame.
func (s *Scene) DebugOverlay(fb *Framebuffer, boundaries []int) {
	r := markerDiameter * s.Scale / 2
	mark := func(i int, c Color) {
		if i < 0 || i >= len(s.LEDs) {
			return
		}
		p := s.LEDs[i].Image
		fb.FillDisc(p.X, p.Y, r, c, BlendReplace)
	}
	for _, b := range boundaries {
		mark(b-2, ColorRed)
		mark(b-1, ColorRed)
		mark(b, ColorGreen)
		mark(b+1, ColorGreen)
	}

	stroke := max(int(math.Round(outlineStroke*s.Scale)), 1)
	fb.DrawRectOutline(0, 0, fb.Width, fb.Height, stroke, ColorHotPink)
}
