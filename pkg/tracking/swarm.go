package tracking

import (
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/harmonica"

	"github.com/taigrr/monolith/pkg/math3d"
)

// Swarm motion constants, in world millimetres.
const (
	// ChaseDuration is how long the cones chase after a fresh acquisition.
	ChaseDuration = 3 * time.Second

	// WanderRadius is the sphere the cones drift on while not chasing.
	WanderRadius = 3000.0

	// Jitter bounds the random offset applied to every cone each frame.
	Jitter = 200.0

	wanderStep = 10.0
)

// DefaultStart returns the starting positions of the three cones.
func DefaultStart() []math3d.Vec3 {
	return []math3d.Vec3{
		math3d.V3(3000, 2000, 0),
		math3d.V3(3000, 2000, 3000),
		math3d.V3(3000, 2000, 0),
	}
}

// Swarm moves cone apexes around the viewer. Each cone chases the viewer on
// a critically damped spring for ChaseDuration after a fresh acquisition and
// otherwise wanders on a sphere of WanderRadius. Every cone jitters each
// frame.
type Swarm struct {
	Positions []math3d.Vec3

	velocity  []math3d.Vec3
	spring    harmonica.Spring
	chaseLeft time.Duration
	rng       *rand.Rand
}

// NewSwarm creates a swarm stepped at fps with cones at start. The swarm
// begins in the chasing state.
func NewSwarm(fps int, rng *rand.Rand, start []math3d.Vec3) *Swarm {
	pos := make([]math3d.Vec3, len(start))
	copy(pos, start)
	return &Swarm{
		Positions: pos,
		velocity:  make([]math3d.Vec3, len(start)),
		// Frequency 6.0 = brisk, damping 1.0 = critically damped (no overshoot)
		spring:    harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		chaseLeft: ChaseDuration,
		rng:       rng,
	}
}

// Chasing reports whether the cones are currently chasing the viewer.
func (s *Swarm) Chasing() bool {
	return s.chaseLeft > 0
}

// Update advances the swarm by one frame of length dt. viewer is only used
// when ok; fresh restarts the chase.
func (s *Swarm) Update(dt time.Duration, viewer math3d.Vec3, ok, fresh bool) {
	if fresh {
		s.chaseLeft = ChaseDuration
	}
	chase := ok && s.Chasing()

	for i := range s.Positions {
		offset := s.jitter()
		if chase {
			s.Positions[i], s.velocity[i] = s.follow(s.Positions[i], s.velocity[i], viewer)
		} else {
			s.Positions[i] = s.wander(s.Positions[i], offset)
			s.velocity[i] = math3d.Zero3()
		}
		s.Positions[i] = s.Positions[i].Add(offset)
	}

	if chase {
		s.chaseLeft = max(s.chaseLeft-dt, 0)
	}
}

func (s *Swarm) follow(pos, vel, target math3d.Vec3) (math3d.Vec3, math3d.Vec3) {
	pos.X, vel.X = s.spring.Update(pos.X, vel.X, target.X)
	pos.Y, vel.Y = s.spring.Update(pos.Y, vel.Y, target.Y)
	pos.Z, vel.Z = s.spring.Update(pos.Z, vel.Z, target.Z)
	return pos, vel
}

func (s *Swarm) wander(pos, offset math3d.Vec3) math3d.Vec3 {
	pos = pos.Add(offset.Scale(wanderStep))
	if pos.LenSq() == 0 {
		return pos
	}
	return pos.Normalize().Scale(WanderRadius)
}

func (s *Swarm) jitter() math3d.Vec3 {
	r := func() float64 { return (s.rng.Float64()*2 - 1) * Jitter }
	return math3d.V3(r(), r(), r())
}
