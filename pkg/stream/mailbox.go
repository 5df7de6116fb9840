package stream

import (
	"image/color"
	"sync"
)

// mailbox is a single-slot frame buffer between the socket reader and the
// apply loop. Publishing over an unconsumed frame replaces it and counts a
// drop; Take blocks until a frame is available or the mailbox is closed.
type mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	frame  []color.RGBA // nil = consumed
	closed bool
	drops  uint64
}

func newMailbox() *mailbox {
	m := &mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

func (m *mailbox) Publish(frame []color.RGBA) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	if m.frame != nil {
		m.drops++
	}
	m.frame = frame
	m.cond.Signal()
}

func (m *mailbox) Take() ([]color.RGBA, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.frame == nil && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return nil, false
	}
	frame := m.frame
	m.frame = nil
	return frame, true
}

func (m *mailbox) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.cond.Broadcast()
}

func (m *mailbox) Drops() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drops
}
