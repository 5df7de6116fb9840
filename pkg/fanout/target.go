// Package fanout splits one frame of LED colors across the strip
// controllers and streams each slice as a single OSC datagram.
package fanout

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/taigrr/monolith/pkg/layout"
	"github.com/taigrr/monolith/pkg/osc"
)

// DefaultAddress is the OSC address every frame is sent to.
const DefaultAddress = "/"

// MaxDatagram is the largest UDP payload over IPv4.
const MaxDatagram = 65507

// DefaultMTU is the datagram budget of the strip controllers.
const DefaultMTU = 10000

// ErrMTU reports a target whose encoded frame cannot fit in one datagram.
var ErrMTU = errors.New("frame exceeds MTU")

// ClientTarget is one strip controller and the LED range it drives.
type ClientTarget struct {
	Address string       `yaml:"address"`
	Range   layout.Range `yaml:",inline"`
}

func (t ClientTarget) String() string {
	return fmt.Sprintf("%s%s", t.Address, t.Range)
}

// MonolithTargets returns the four controllers of the installation.
func MonolithTargets() []ClientTarget {
	return []ClientTarget{
		{Address: "192.168.1.186:34254", Range: layout.Range{Start: 0, End: 626}},
		{Address: "192.168.1.186:34255", Range: layout.Range{Start: 626, End: 1310}},
		{Address: "192.168.1.219:34254", Range: layout.Range{Start: 1310, End: 1936}},
		{Address: "192.168.1.219:34255", Range: layout.Range{Start: 1936, End: 2620}},
	}
}

// ValidateTargets checks that the target ranges tile [0, n) exactly and that
// every target has an address.
func ValidateTargets(targets []ClientTarget, n int) error {
	ranges := make([]layout.Range, len(targets))
	for i, t := range targets {
		if t.Address == "" {
			return fmt.Errorf("client %d %s: missing address", i, t.Range)
		}
		ranges[i] = t.Range
	}
	if err := layout.ValidateCoverage(ranges, n); err != nil {
		return fmt.Errorf("client targets: %w", err)
	}
	return nil
}

// ValidateMTU proves that the frame message of every target fits in mtu
// bytes. The check is analytic: it uses the exact encoded size and never
// encodes a frame.
func ValidateMTU(addr string, targets []ClientTarget, mtu int) error {
	if mtu <= 0 || mtu > MaxDatagram {
		return fmt.Errorf("%w: mtu %d outside (0, %d]", ErrMTU, mtu, MaxDatagram)
	}
	for _, t := range targets {
		if size := osc.ColorMessageSize(addr, t.Range.Len()); size > mtu {
			return fmt.Errorf("%w: client %s needs %d bytes, mtu %d", ErrMTU, t, size, mtu)
		}
	}
	return nil
}

// Partition slices frame per target. The slices share frame's memory.
func Partition(frame []color.RGBA, targets []ClientTarget) [][]color.RGBA {
	out := make([][]color.RGBA, len(targets))
	for i, t := range targets {
		out[i] = frame[t.Range.Start:t.Range.End]
	}
	return out
}

// FrameSize is the LED count covered by targets: the largest range end.
func FrameSize(targets []ClientTarget) int {
	n := 0
	for _, t := range targets {
		n = max(n, t.Range.End)
	}
	return n
}
