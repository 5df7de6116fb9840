package monolith

import (
	"image"
	"image/color"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/monolith/pkg/layout"
	"github.com/taigrr/monolith/pkg/render"
)

// FrameSender delivers one sampled frame. *fanout.Sender implements it.
type FrameSender interface {
	Send(frame []color.RGBA) error
}

// ReadbackStats counts readback outcomes.
type ReadbackStats struct {
	Submitted uint64 // frames handed to a callback
	Dropped   uint64 // frames skipped because every slot was busy
	Sent      uint64
	Failed    uint64 // sample or send failures
}

type readbackBuf struct {
	img    *image.RGBA
	colors []render.Color
}

// Readback copies rendered frames and samples and sends them off the render
// goroutine. At most slots callbacks run at once; a frame submitted while
// all of them are busy is dropped, never queued.
type Readback struct {
	leds []layout.LedRecord
	send FrameSender
	log  *slog.Logger
	g    errgroup.Group
	bufs sync.Pool

	submitted atomic.Uint64
	dropped   atomic.Uint64
	sent      atomic.Uint64
	failed    atomic.Uint64
}

// NewReadback returns a readback for frames of the given bounds.
func NewReadback(bounds image.Rectangle, leds []layout.LedRecord, send FrameSender, slots int, log *slog.Logger) *Readback {
	if log == nil {
		log = slog.Default()
	}
	r := &Readback{leds: leds, send: send, log: log}
	r.g.SetLimit(max(slots, 1))
	r.bufs.New = func() any {
		return &readbackBuf{
			img:    image.NewRGBA(bounds),
			colors: make([]render.Color, 0, len(leds)),
		}
	}
	return r
}

// Submit copies fb and schedules the sample-and-send callback. It reports
// whether the frame was accepted.
func (r *Readback) Submit(fb *render.Framebuffer) bool {
	buf := r.bufs.Get().(*readbackBuf)
	fb.CopyTo(buf.img)

	if !r.g.TryGo(func() error {
		defer r.bufs.Put(buf)
		r.complete(buf)
		return nil
	}) {
		r.bufs.Put(buf)
		r.dropped.Add(1)
		return false
	}
	r.submitted.Add(1)
	return true
}

func (r *Readback) complete(buf *readbackBuf) {
	colors, err := render.SampleInto(buf.colors[:0], buf.img, r.leds)
	buf.colors = colors
	if err != nil {
		r.failed.Add(1)
		r.log.Warn("readback: sample failed", "error", err)
		return
	}
	if err := r.send.Send(colors); err != nil {
		r.failed.Add(1)
		r.log.Warn("readback: send failed", "error", err)
		return
	}
	r.sent.Add(1)
}

// Wait blocks until every running callback has finished.
func (r *Readback) Wait() {
	_ = r.g.Wait()
}

// Stats returns the readback counters.
func (r *Readback) Stats() ReadbackStats {
	return ReadbackStats{
		Submitted: r.submitted.Load(),
		Dropped:   r.dropped.Load(),
		Sent:      r.sent.Load(),
		Failed:    r.failed.Load(),
	}
}
