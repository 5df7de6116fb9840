package stream

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"slices"

	uv "github.com/charmbracelet/ultraviolet"

	"github.com/taigrr/monolith/pkg/render"
)

// Sink renders one ordered color sequence on a strip. Write must not keep
// colors after it returns. Only one goroutine writes to a sink.
type Sink interface {
	Write(colors []color.RGBA) error
	Close() error
}

// Strip driver channel defaults.
const (
	DefaultPin = 18
	DefaultDMA = 10
)

var supportedPins = []int{10, 12, 13, 18, 19, 21}

// DeviceSink writes frames as GRB byte triplets to the character device of
// a WS281x strip driver. One frame is one write.
type DeviceSink struct {
	Path string
	Pin  int
	DMA  int

	f   *os.File
	buf []byte
}

// OpenDevice validates the driver channel and opens the device for writing.
func OpenDevice(path string, pin, dma int) (*DeviceSink, error) {
	if !slices.Contains(supportedPins, pin) {
		return nil, fmt.Errorf("open strip device: pin %d not one of %v", pin, supportedPins)
	}
	if dma < 0 || dma > 14 {
		return nil, fmt.Errorf("open strip device: dma channel %d outside [0, 14]", dma)
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("open strip device: %w", err)
	}
	return &DeviceSink{Path: path, Pin: pin, DMA: dma, f: f}, nil
}

func (d *DeviceSink) Write(colors []color.RGBA) error {
	d.buf = d.buf[:0]
	for _, c := range colors {
		d.buf = append(d.buf, c.G, c.R, c.B)
	}
	if _, err := d.f.Write(d.buf); err != nil {
		return fmt.Errorf("write strip device: %w", err)
	}
	return nil
}

func (d *DeviceSink) Close() error {
	return d.f.Close()
}

// SwatchSink shows every frame as colored blocks in the terminal.
type SwatchSink struct {
	Screen uv.Screen
	Area   func() uv.Rectangle // read on every write so resizes apply
	Flush  func() error        // pushes drawn cells to the terminal
}

func (s *SwatchSink) Write(colors []color.RGBA) error {
	render.DrawSwatch(s.Screen, s.Area(), colors)
	if s.Flush == nil {
		return nil
	}
	if err := s.Flush(); err != nil {
		return fmt.Errorf("flush swatch: %w", err)
	}
	return nil
}

func (s *SwatchSink) Close() error { return nil }

// MultiSink writes every frame to each sink in turn. A failing sink does
// not stop the others.
type MultiSink []Sink

func (m MultiSink) Write(colors []color.RGBA) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(colors); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiSink) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DiscardSink drops every frame.
type DiscardSink struct{}

func (DiscardSink) Write([]color.RGBA) error { return nil }
func (DiscardSink) Close() error             { return nil }
