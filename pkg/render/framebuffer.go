// Package render draws the procedural LED scene into an image-space
// framebuffer and samples it back into per-LED colors.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// Framebuffer is the render target the scene is drawn into. It is sized in
// image space, so a LED's rounded image coordinate addresses its pixel
// directly.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []Color // Row-major pixel data
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]Color, width*height),
	}
}

// Bounds returns the pixel rectangle of the framebuffer.
func (fb *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, fb.Width, fb.Height)
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c Color) {
	for i := range fb.Pixels {
		fb.Pixels[i] = c
	}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c Color) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// AddPixel adds c onto the pixel at (x, y), saturating every channel.
func (fb *Framebuffer) AddPixel(x, y int, c Color) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	i := y*fb.Width + x
	fb.Pixels[i] = Add(fb.Pixels[i], c)
}

// RGBAAt returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) RGBAAt(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// BlendMode selects how a shape is composited.
type BlendMode int

const (
	BlendReplace BlendMode = iota // Overwrite the destination
	BlendAdd                      // Saturating additive glow
)

// FillDisc draws a filled disc of the given radius centred on (cx, cy).
func (fb *Framebuffer) FillDisc(cx, cy, radius float64, c Color, mode BlendMode) {
	if radius <= 0 {
		return
	}
	r2 := radius * radius
	x0, x1 := int(cx-radius), int(cx+radius)+1
	y0, y1 := int(cy-radius), int(cy+radius)+1

	for y := max(y0, 0); y <= min(y1, fb.Height-1); y++ {
		dy := float64(y) + 0.5 - cy
		for x := max(x0, 0); x <= min(x1, fb.Width-1); x++ {
			dx := float64(x) + 0.5 - cx
			if dx*dx+dy*dy > r2 {
				continue
			}
			if mode == BlendAdd {
				fb.AddPixel(x, y, c)
			} else {
				fb.Pixels[y*fb.Width+x] = c
			}
		}
	}
}

// DrawRectOutline draws a rectangle outline of the given stroke width,
// inset from the rectangle edges.
func (fb *Framebuffer) DrawRectOutline(x, y, w, h, stroke int, c Color) {
	for i := range stroke {
		// Top and bottom
		for px := x; px < x+w; px++ {
			fb.SetPixel(px, y+i, c)
			fb.SetPixel(px, y+h-1-i, c)
		}
		// Left and right
		for py := y; py < y+h; py++ {
			fb.SetPixel(x+i, py, c)
			fb.SetPixel(x+w-1-i, py, c)
		}
	}
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(fb.Bounds())
	fb.CopyTo(img)
	return img
}

// CopyTo copies the framebuffer into dst, which must have the same bounds.
func (fb *Framebuffer) CopyTo(dst *image.RGBA) {
	for y := 0; y < fb.Height; y++ {
		row := fb.Pixels[y*fb.Width : (y+1)*fb.Width]
		off := dst.PixOffset(0, y)
		for x, c := range row {
			p := dst.Pix[off+x*4 : off+x*4+4 : off+x*4+4]
			p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
		}
	}
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, fb.ToImage()); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
