// Package stream receives LED frames over OSC/UDP and hands them to a strip
// sink.
package stream

import (
	"fmt"
	"image/color"
	"math"
)

// Gamma is a per-channel lookup table compensating the LEDs' perceptual
// non-linearity. Alpha is never touched.
type Gamma [256]uint8

// NewGamma builds the table out = 255 * (in/255)^g. A gamma of 1 is the
// identity.
func NewGamma(g float64) (*Gamma, error) {
	if !(g > 0) || math.IsInf(g, 0) {
		return nil, fmt.Errorf("gamma %v must be a positive number", g)
	}
	var t Gamma
	for i := range t {
		t[i] = uint8(math.Round(255 * math.Pow(float64(i)/255, g)))
	}
	return &t, nil
}

// Apply writes the corrected colors of src into dst, which may alias src.
// dst must be at least as long as src.
func (t *Gamma) Apply(dst, src []color.RGBA) {
	for i, c := range src {
		dst[i] = color.RGBA{t[c.R], t[c.G], t[c.B], c.A}
	}
}

// Identity reports whether the table changes nothing.
func (t *Gamma) Identity() bool {
	for i, v := range t {
		if int(v) != i {
			return false
		}
	}
	return true
}
