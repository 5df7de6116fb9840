// monolith-strip - LED strip controller
// Receives OSC color frames over UDP and shows them on a WS281x strip, or
// plays a rotating test pattern without the network.
//
// Usage:
//
//	monolith-strip test   [port] [pin] [dma]
//	monolith-strip stream [port] [pin] [dma]
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/monolith/pkg/render"
	"github.com/taigrr/monolith/pkg/stream"
)

type options struct {
	mtu     int
	gamma   float64
	device  string
	preview bool
	leds    int
	debug   bool

	port, pin, dma int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := fang.Execute(ctx, rootCmd())
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "monolith-strip",
		Short:        "Show monolith frames on an LED strip",
		SilenceUsage: true,
	}
	root.PersistentFlags().IntVar(&opts.mtu, "mtu", stream.DefaultMTU, "Largest accepted datagram in bytes")
	root.PersistentFlags().Float64Var(&opts.gamma, "gamma", 1, "Gamma correction applied before display (1 disables)")
	root.PersistentFlags().StringVar(&opts.device, "device", "", "Strip driver character device")
	root.PersistentFlags().BoolVar(&opts.preview, "preview", false, "Show frames as swatches in the terminal")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log at debug level")

	test := &cobra.Command{
		Use:   "test [port] [pin] [dma]",
		Short: "Play a rotating white and black pattern",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.parseArgs(args); err != nil {
				return err
			}
			return opts.runTest(cmd.Context())
		},
	}
	test.Flags().IntVar(&opts.leds, "leds", stream.TestLEDs, "Number of LEDs in the pattern")

	streamCmd := &cobra.Command{
		Use:   "stream [port] [pin] [dma]",
		Short: "Receive frames over OSC/UDP",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.parseArgs(args); err != nil {
				return err
			}
			return opts.runStream(cmd.Context())
		},
	}

	root.AddCommand(test, streamCmd)
	return root
}

// parseArgs reads the optional positional port, pin and dma channel.
func (o *options) parseArgs(args []string) error {
	o.port, o.pin, o.dma = stream.DefaultPort, stream.DefaultPin, stream.DefaultDMA
	dst := []*int{&o.port, &o.pin, &o.dma}
	names := []string{"port", "pin", "dma"}
	for i, arg := range args {
		v, err := strconv.Atoi(arg)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", names[i], arg, err)
		}
		*dst[i] = v
	}
	return nil
}

func (o *options) setupLogger() {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}
	var w io.Writer = os.Stderr
	if o.preview {
		w = io.Discard
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

// openSink builds the strip device sink plus the optional preview. Without
// either, frames are discarded.
func (o *options) openSink(quit func()) (stream.Sink, error) {
	var sinks stream.MultiSink
	if o.device != "" {
		dev, err := stream.OpenDevice(o.device, o.pin, o.dma)
		if err != nil {
			return nil, err
		}
		slog.Info("strip: device open", "path", o.device, "pin", o.pin, "dma", o.dma)
		sinks = append(sinks, dev)
	}
	if o.preview {
		term, err := render.OpenTerminal(quit)
		if err != nil {
			sinks.Close()
			return nil, fmt.Errorf("open terminal: %w", err)
		}
		sinks = append(sinks, &previewSink{
			SwatchSink: stream.SwatchSink{Screen: term.Screen(), Area: term.Area, Flush: term.Flush},
			term:       term,
		})
	}
	if len(sinks) == 0 {
		slog.Warn("strip: no device or preview, frames are discarded")
		return stream.DiscardSink{}, nil
	}
	return sinks, nil
}

// previewSink restores the terminal on close.
type previewSink struct {
	stream.SwatchSink
	term *render.Terminal
}

func (p *previewSink) Close() error {
	return p.term.Close()
}

func (o *options) runTest(ctx context.Context) error {
	if o.leds <= 0 {
		return fmt.Errorf("invalid --leds %d: must be positive", o.leds)
	}
	o.setupLogger()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink, err := o.openSink(cancel)
	if err != nil {
		return err
	}
	defer sink.Close()

	return stream.RunTest(ctx, sink, o.leds, stream.TestDelay)
}

func (o *options) runStream(ctx context.Context) error {
	if o.mtu <= 0 {
		return fmt.Errorf("invalid --mtu %d: must be positive", o.mtu)
	}
	o.setupLogger()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink, err := o.openSink(cancel)
	if err != nil {
		return err
	}
	defer sink.Close()

	r, err := stream.Listen(stream.Config{Port: o.port, MTU: o.mtu, Gamma: o.gamma})
	if err != nil {
		return err
	}

	if err := r.Run(ctx, sink); err != nil {
		return err
	}
	st := r.Stats()
	slog.Info("strip: stopped",
		"packets", st.Packets,
		"rejected", st.Rejected,
		"applied", st.Applied,
		"dropped", st.Dropped,
		"failed", st.Failed)
	return nil
}
