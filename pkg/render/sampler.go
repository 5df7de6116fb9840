package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/taigrr/monolith/pkg/layout"
)

// PixelSource is a readable frame. *image.RGBA and *Framebuffer satisfy it.
type PixelSource interface {
	Bounds() image.Rectangle
	RGBAAt(x, y int) color.RGBA
}

// Sample reads one color per LED, in the order of leds, from the pixel at
// each LED's rounded image coordinate. Alpha is passed through. An LED
// outside the frame is an error naming the LED.
func Sample(src PixelSource, leds []layout.LedRecord) ([]Color, error) {
	return SampleInto(make([]Color, 0, len(leds)), src, leds)
}

// SampleInto is Sample appending to dst.
func SampleInto(dst []Color, src PixelSource, leds []layout.LedRecord) ([]Color, error) {
	b := src.Bounds()
	for _, led := range leds {
		x, y := led.Pixel()
		x, y = x+b.Min.X, y+b.Min.Y
		if !(image.Point{x, y}).In(b) {
			return dst, fmt.Errorf("sample LED %d at (%d, %d) in %v: %w", led.Index, x, y, b, layout.ErrOutOfBounds)
		}
		dst = append(dst, src.RGBAAt(x, y))
	}
	return dst, nil
}

// SampleRange samples only the LEDs whose index lies in r. leds must be in
// index order starting at 0.
func SampleRange(src PixelSource, leds []layout.LedRecord, r layout.Range) ([]Color, error) {
	if r.Start < 0 || r.End > len(leds) || r.Len() < 0 {
		return nil, fmt.Errorf("sample range %s of %d LEDs: %w", r, len(leds), layout.ErrOutOfBounds)
	}
	return Sample(src, leds[r.Start:r.End])
}
