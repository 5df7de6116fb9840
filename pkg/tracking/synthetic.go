package tracking

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/taigrr/monolith/pkg/math3d"
)

// Synthetic is a stand-in tracker that publishes a wandering camera-space
// estimate and now and then loses the target. It drives the installation
// when no camera tracker is attached.
type Synthetic struct {
	Slot *ViewerSlot

	Width, Height float64       // camera frame in pixels
	Interval      time.Duration // time between estimates
	Step          float64       // largest per-estimate move in pixels
	LossChance    float64       // probability of losing a tracked target
	AcquireChance float64       // probability of acquiring while lost

	rng     *rand.Rand
	pos     math3d.Vec2
	tracked bool
}

// NewSynthetic returns a synthetic tracker writing into slot at the camera
// frame rate of the installation.
func NewSynthetic(slot *ViewerSlot, rng *rand.Rand) *Synthetic {
	return &Synthetic{
		Slot:          slot,
		Width:         265,
		Height:        90,
		Interval:      time.Second / 30,
		Step:          3,
		LossChance:    0.005,
		AcquireChance: 0.02,
		rng:           rng,
	}
}

// Run publishes estimates until ctx is cancelled.
func (s *Synthetic) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick produces one estimate.
func (s *Synthetic) Tick() {
	if !s.tracked {
		if s.rng.Float64() >= s.AcquireChance {
			return
		}
		s.pos = math3d.V2(s.rng.Float64()*s.Width, s.rng.Float64()*s.Height)
		s.tracked = true
		s.Slot.Store(s.pos)
		s.Slot.MarkFresh()
		slog.Debug("tracker: target acquired", "x", s.pos.X, "y", s.pos.Y)
		return
	}

	if s.rng.Float64() < s.LossChance {
		s.tracked = false
		s.Slot.Clear()
		slog.Debug("tracker: target lost")
		return
	}

	step := math3d.V2((s.rng.Float64()*2-1)*s.Step, (s.rng.Float64()*2-1)*s.Step)
	s.pos = s.pos.Add(step)
	s.pos.X = min(max(s.pos.X, 0), s.Width)
	s.pos.Y = min(max(s.pos.Y, 0), s.Height)
	s.Slot.Store(s.pos)
}
