package main

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/taigrr/monolith/pkg/fanout"
	"github.com/taigrr/monolith/pkg/monolith"
	"github.com/taigrr/monolith/pkg/render"
	"github.com/taigrr/monolith/pkg/tracking"
)

const statsInterval = 10 * time.Second

type runOptions struct {
	*options
	preview   bool
	overlay   bool
	synthetic bool
}

func runCmd(opts *options) *cobra.Command {
	ro := &runOptions{options: opts}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Render, sample and send frames until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ro.run(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&ro.preview, "preview", false, "Show the rendered frame in the terminal")
	cmd.Flags().BoolVar(&ro.overlay, "overlay", false, "Draw face boundaries and the frame outline")
	cmd.Flags().BoolVar(&ro.synthetic, "synthetic", true, "Feed the viewer slot from the synthetic tracker")
	return cmd
}

func (ro *runOptions) run(ctx context.Context) error {
	log, closeLog, err := ro.logger(ro.preview)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, leds, err := ro.load()
	if err != nil {
		return err
	}
	log.Info("monolith: layout loaded", "path", cfg.Layout, "leds", len(leds))

	seed := uint64(time.Now().UnixNano())
	engine, err := monolith.NewEngine(cfg, leds, rand.New(rand.NewPCG(seed, 1)))
	if err != nil {
		return err
	}
	engine.Debug = ro.overlay

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sender, err := fanout.NewSender(ctx, fanout.Config{
		Address: cfg.Address,
		MTU:     cfg.MTU,
		Targets: cfg.Targets,
		Logger:  log,
	}, len(leds))
	if err != nil {
		return err
	}
	defer sender.Close()

	w, h := cfg.Geometry.ImageSize()
	readback := monolith.NewReadback(image.Rect(0, 0, w, h), leds, sender, cfg.ReadbackSlots, log)
	defer readback.Wait()

	slot := &tracking.ViewerSlot{}
	if ro.synthetic {
		tracker := tracking.NewSynthetic(slot, rand.New(rand.NewPCG(seed, 2)))
		go tracker.Run(ctx)
	}

	var term *render.Terminal
	if ro.preview {
		if term, err = render.OpenTerminal(cancel); err != nil {
			return fmt.Errorf("open terminal: %w", err)
		}
		defer term.Close()
	}

	return loop(ctx, log, cfg.FPS, engine, readback, slot, term)
}

func loop(ctx context.Context, log *slog.Logger, fps int, engine *monolith.Engine, readback *monolith.Readback, slot *tracking.ViewerSlot, term *render.Terminal) error {
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	stats := time.NewTicker(statsInterval)
	defer stats.Stop()

	var (
		preview render.Preview
		frames  uint64
		img     *image.RGBA
	)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			log.Info("monolith: stopping", "frames", frames)
			return nil
		case <-stats.C:
			st := readback.Stats()
			log.Info("monolith: stats",
				"frames", frames,
				"sent", st.Sent,
				"dropped", st.Dropped,
				"failed", st.Failed,
				"viewer_overwrites", slot.Overwrites(),
				"chasing", engine.Swarm().Chasing())
		case now := <-ticker.C:
			// Clamp so a stall does not fling the springs.
			dt := min(now.Sub(last), 100*time.Millisecond)
			last = now

			engine.Update(dt, slot)
			fb := engine.Draw()
			readback.Submit(fb)
			frames++

			if term == nil {
				continue
			}
			if img == nil {
				img = image.NewRGBA(fb.Bounds())
			}
			fb.CopyTo(img)
			preview.Draw(term.Screen(), term.Area(), img)
			if err := term.Flush(); err != nil {
				return fmt.Errorf("flush: %w", err)
			}
		}
	}
}
