// Package layout maps every LED of the monolith between design, render,
// image and world coordinates.
//
// Layout space is the design tool's convention: origin top-left, Y down.
// Render space is centred on the unfolded perimeter with Y up. Image space is
// the sampled frame: origin top-left, Y down, scaled by TextureScale. World
// space is the physical structure in millimetres, Y up.
package layout

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/taigrr/monolith/pkg/math3d"
)

// Installation dimensions in millimetres.
const (
	MonolithWidth  = 1460.0
	MonolithDepth  = 335.0
	MonolithHeight = 3350.0

	// DefaultTextureScale shrinks the render surface to the sampled frame.
	DefaultTextureScale = 0.5
)

// Geometry describes the unfolded render surface.
type Geometry struct {
	Width        float64 `yaml:"width"`
	Depth        float64 `yaml:"depth"`
	Height       float64 `yaml:"height"`
	TextureScale float64 `yaml:"texture_scale"`
}

// MonolithGeometry returns the dimensions of the installed sculpture.
func MonolithGeometry() Geometry {
	return Geometry{
		Width:        MonolithWidth,
		Depth:        MonolithDepth,
		Height:       MonolithHeight,
		TextureScale: DefaultTextureScale,
	}
}

// WidthNet is the length of the unfolded perimeter.
func (g Geometry) WidthNet() float64 {
	return (g.Width + g.Depth) * 2
}

// ReplicaOffset is the render-space X shift between two replicas of the
// layout run (one front face plus one side face).
func (g Geometry) ReplicaOffset() float64 {
	return g.Width + g.Depth
}

// ImageSize returns the pixel dimensions of the sampled frame.
func (g Geometry) ImageSize() (width, height int) {
	return int(g.WidthNet() * g.TextureScale), int(g.Height * g.TextureScale)
}

// LayoutToRenderMatrix flips Y and moves the centre of the perimeter to the
// origin.
func (g Geometry) LayoutToRenderMatrix() mgl64.Mat3 {
	return mgl64.Translate2D(-g.WidthNet()/2, g.Height/2).Mul3(mgl64.Scale2D(1, -1))
}

// RenderToImageMatrix flips Y back, moves the origin to the top-left corner
// and applies the texture scale.
func (g Geometry) RenderToImageMatrix() mgl64.Mat3 {
	return mgl64.Scale2D(g.TextureScale, g.TextureScale).
		Mul3(mgl64.Translate2D(g.WidthNet()/2, g.Height/2)).
		Mul3(mgl64.Scale2D(1, -1))
}

// LayoutToRender converts a design-tool point into render space.
func (g Geometry) LayoutToRender(p math3d.Vec2) math3d.Vec2 {
	return apply2D(g.LayoutToRenderMatrix(), p)
}

// RenderToImage converts a render-space point into frame pixel coordinates.
func (g Geometry) RenderToImage(p math3d.Vec2) math3d.Vec2 {
	return apply2D(g.RenderToImageMatrix(), p)
}

func apply2D(m mgl64.Mat3, p math3d.Vec2) math3d.Vec2 {
	v := m.Mul3x1(mgl64.Vec3{p.X, p.Y, 1})
	return math3d.V2(v[0], v[1])
}
