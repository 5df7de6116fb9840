// Package tracking carries the viewer estimate from the tracker to the
// render loop and moves the visibility cones around it.
package tracking

import (
	"sync/atomic"

	"github.com/taigrr/monolith/pkg/math3d"
)

// Slot is a single-producer single-consumer latest-value cell. The
// producer never blocks; the consumer always sees the most recent value and
// no history is kept.
type Slot[T any] struct {
	v          atomic.Pointer[T]
	unread     atomic.Bool
	fresh      atomic.Bool
	overwrites atomic.Uint64
}

// Store publishes v, replacing any previous value.
func (s *Slot[T]) Store(v T) {
	s.swap(&v)
}

// Clear publishes "no value".
func (s *Slot[T]) Clear() {
	s.swap(nil)
}

func (s *Slot[T]) swap(p *T) {
	s.v.Store(p)
	if s.unread.Swap(true) {
		s.overwrites.Add(1)
	}
}

// Load returns the latest value, or ok == false when none is held.
func (s *Slot[T]) Load() (v T, ok bool) {
	s.unread.Store(false)
	p := s.v.Load()
	if p == nil {
		return v, false
	}
	return *p, true
}

// MarkFresh flags that the producer acquired a new target.
func (s *Slot[T]) MarkFresh() {
	s.fresh.Store(true)
}

// TakeFresh reports whether a new target was acquired since the last call.
func (s *Slot[T]) TakeFresh() bool {
	return s.fresh.Swap(false)
}

// Overwrites counts values replaced before the consumer read them.
func (s *Slot[T]) Overwrites() uint64 {
	return s.overwrites.Load()
}

// ViewerSlot holds the tracker's latest camera-space estimate.
type ViewerSlot = Slot[math3d.Vec2]
