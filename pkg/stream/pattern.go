package stream

import (
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"time"
)

// Test pattern shape and speed.
const (
	patternWhite = 84
	patternBlack = 72

	// TestLEDs is the strip length driven by the test pattern.
	TestLEDs = 700

	// TestDelay is the time between two one-LED rotations.
	TestDelay = 5 * time.Millisecond
)

// TestPattern returns n LEDs of repeating 84 white then 72 black. n must
// not be negative.
func TestPattern(n int) []color.RGBA {
	white := color.RGBA{255, 255, 255, 255}
	black := color.RGBA{0, 0, 0, 255}

	p := make([]color.RGBA, n)
	for i := range p {
		if i%(patternWhite+patternBlack) < patternWhite {
			p[i] = white
		} else {
			p[i] = black
		}
	}
	return p
}

// rotateRight moves every color one LED along the strip.
func rotateRight(p []color.RGBA) {
	if len(p) < 2 {
		return
	}
	last := p[len(p)-1]
	copy(p[1:], p[:len(p)-1])
	p[0] = last
}

// RunTest plays the rotating test pattern on sink until ctx is cancelled.
// The network is not used.
func RunTest(ctx context.Context, sink Sink, n int, delay time.Duration) error {
	if n <= 0 {
		return fmt.Errorf("run test pattern: %d LEDs", n)
	}
	if delay <= 0 {
		return fmt.Errorf("run test pattern: delay %v must be positive", delay)
	}
	pattern := TestPattern(n)
	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	slog.Info("stream: playing test pattern", "leds", n, "delay", delay)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := sink.Write(pattern); err != nil {
			slog.Warn("stream: sink write failed", "error", err)
		}
		rotateRight(pattern)
	}
}
