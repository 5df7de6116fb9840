package stream

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"net"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/taigrr/monolith/pkg/osc"
)

// DefaultPort is the UDP port a strip controller listens on.
const DefaultPort = 12345

// DefaultMTU is the largest datagram the receiver accepts.
const DefaultMTU = 10000

// maxDatagram is the largest UDP payload over IPv4.
const maxDatagram = 65507

// Config configures a Receiver.
type Config struct {
	Port   int
	MTU    int
	Gamma  float64 // 0 or 1 disables correction
	Logger *slog.Logger
}

// Stats counts receiver activity.
type Stats struct {
	Packets   uint64 // datagrams read
	Rejected  uint64 // datagrams that did not decode
	Truncated uint64 // datagrams applied up to an unknown argument type
	Applied   uint64 // frames written to the sink
	Dropped   uint64 // frames replaced before they were applied
	Failed    uint64 // sink writes that failed
}

// Receiver reads color frames from a UDP socket and applies the newest one
// to a sink. Frames arriving faster than the sink can take them are dropped.
type Receiver struct {
	conn  *net.UDPConn
	mtu   int
	gamma *Gamma
	log   *slog.Logger
	box   *mailbox

	packets   atomic.Uint64
	rejected  atomic.Uint64
	truncated atomic.Uint64
	applied   atomic.Uint64
	failed    atomic.Uint64
}

// Listen binds the receiving socket on all interfaces.
func Listen(cfg Config) (*Receiver, error) {
	if cfg.MTU == 0 {
		cfg.MTU = DefaultMTU
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("listen: port %d out of range", cfg.Port)
	}
	if cfg.MTU < 0 || cfg.MTU > maxDatagram {
		return nil, fmt.Errorf("listen: mtu %d outside (0, %d]", cfg.MTU, maxDatagram)
	}

	var gamma *Gamma
	if cfg.Gamma != 0 && cfg.Gamma != 1 {
		g, err := NewGamma(cfg.Gamma)
		if err != nil {
			return nil, fmt.Errorf("listen: %w", err)
		}
		gamma = g
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: cfg.Port})
	if err != nil {
		return nil, fmt.Errorf("listen udp :%d: %w", cfg.Port, err)
	}
	return &Receiver{
		conn:  conn,
		mtu:   cfg.MTU,
		gamma: gamma,
		log:   cfg.Logger,
		box:   newMailbox(),
	}, nil
}

// LocalAddr returns the bound socket address.
func (r *Receiver) LocalAddr() *net.UDPAddr {
	return r.conn.LocalAddr().(*net.UDPAddr)
}

// Run receives and applies frames until ctx is cancelled. The socket is
// closed when Run returns.
func (r *Receiver) Run(ctx context.Context, sink Sink) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-ctx.Done()
		r.box.Close()
		return r.conn.Close()
	})
	g.Go(func() error {
		return r.read(ctx)
	})
	g.Go(func() error {
		r.apply(sink)
		return nil
	})

	r.log.Info("stream: receiving", "addr", r.LocalAddr().String(), "mtu", r.mtu)
	err := g.Wait()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

func (r *Receiver) read(ctx context.Context) error {
	// One spare byte detects datagrams larger than the MTU.
	buf := make([]byte, r.mtu+1)
	for {
		n, err := r.conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read datagram: %w", err)
		}
		r.packets.Add(1)

		if n > r.mtu {
			r.rejected.Add(1)
			r.log.Warn("stream: datagram exceeds mtu", "mtu", r.mtu)
			continue
		}
		colors, err := osc.DecodeColors(nil, buf[:n])
		switch {
		case errors.Is(err, osc.ErrUnknownTag) && len(colors) > 0:
			r.truncated.Add(1)
			r.log.Warn("stream: packet truncated at unknown argument", "leds", len(colors), "error", err)
		case err != nil:
			r.rejected.Add(1)
			r.log.Warn("stream: dropping packet", "bytes", n, "error", err)
			continue
		}
		if len(colors) == 0 {
			continue
		}
		r.box.Publish(colors)
	}
}

func (r *Receiver) apply(sink Sink) {
	for {
		frame, ok := r.box.Take()
		if !ok {
			return
		}
		r.applyFrame(sink, frame)
	}
}

func (r *Receiver) applyFrame(sink Sink, frame []color.RGBA) {
	if r.gamma != nil {
		r.gamma.Apply(frame, frame)
	}
	if err := sink.Write(frame); err != nil {
		r.failed.Add(1)
		r.log.Warn("stream: sink write failed", "leds", len(frame), "error", err)
		return
	}
	r.applied.Add(1)
}

// Stats returns the receiver counters.
func (r *Receiver) Stats() Stats {
	return Stats{
		Packets:   r.packets.Load(),
		Rejected:  r.rejected.Load(),
		Truncated: r.truncated.Load(),
		Applied:   r.applied.Load(),
		Dropped:   r.box.Drops(),
		Failed:    r.failed.Load(),
	}
}
