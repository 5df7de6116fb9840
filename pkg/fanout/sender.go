package fanout

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"sync"

	"github.com/taigrr/monolith/pkg/osc"
)

// Config describes the fanout of one frame.
type Config struct {
	Address string // OSC address of every frame message
	MTU     int
	Targets []ClientTarget
	Logger  *slog.Logger
}

// Sender streams frames to every client. Sends are fire-and-forget: a
// failed datagram is logged and counted, never retried. Send may be called
// from several goroutines at once.
type Sender struct {
	addr    string
	n       int
	clients []*Client
	log     *slog.Logger
	bufs    sync.Pool
}

// NewSender validates the targets against an n-LED frame and the MTU, then
// dials every client.
func NewSender(ctx context.Context, cfg Config, n int) (*Sender, error) {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}
	if cfg.MTU == 0 {
		cfg.MTU = DefaultMTU
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if err := ValidateTargets(cfg.Targets, n); err != nil {
		return nil, err
	}
	if err := ValidateMTU(cfg.Address, cfg.Targets, cfg.MTU); err != nil {
		return nil, err
	}

	s := &Sender{addr: cfg.Address, n: n, log: cfg.Logger}
	largest := 0
	for _, t := range cfg.Targets {
		c, err := Dial(ctx, t)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.clients = append(s.clients, c)
		largest = max(largest, osc.ColorMessageSize(s.addr, t.Range.Len()))
	}
	s.bufs.New = func() any {
		b := make([]byte, 0, largest)
		return &b
	}

	s.log.Info("fanout: clients ready", "clients", len(s.clients), "leds", n, "mtu", cfg.MTU)
	return s, nil
}

// Send slices frame per client and writes one datagram to each. All clients
// receive colors from the same frame. It fails only when frame does not
// cover every LED.
func (s *Sender) Send(frame []color.RGBA) error {
	if len(frame) != s.n {
		return fmt.Errorf("send frame: got %d colors, want %d", len(frame), s.n)
	}

	bp := s.bufs.Get().(*[]byte)
	defer s.bufs.Put(bp)

	for _, c := range s.clients {
		r := c.Target.Range
		*bp = osc.AppendColorMessage((*bp)[:0], s.addr, frame[r.Start:r.End])
		if err := c.Write(*bp); err != nil {
			s.log.Warn("fanout: send failed", "client", c.Target.Address, "range", r.String(), "error", err)
		}
	}
	return nil
}

// Stats returns the counters of every client in target order.
func (s *Sender) Stats() []ClientStats {
	out := make([]ClientStats, len(s.clients))
	for i, c := range s.clients {
		out[i] = c.Stats()
	}
	return out
}

// Close closes every client socket.
func (s *Sender) Close() error {
	var errs []error
	for _, c := range s.clients {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
