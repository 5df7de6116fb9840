package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/taigrr/monolith/pkg/config"
	"github.com/taigrr/monolith/pkg/fanout"
	"github.com/taigrr/monolith/pkg/layout"
	"github.com/taigrr/monolith/pkg/render"
)

type stillOptions struct {
	*options
	once bool
}

func stillCmd(opts *options) *cobra.Command {
	so := &stillOptions{options: opts}
	cmd := &cobra.Command{
		Use:   "still <image>",
		Short: "Send a PNG or JPEG image as a static frame",
		Long: "Scales the image to the sampled frame size, samples every LED and sends the\n" +
			"result at the configured frame rate until interrupted.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return so.run(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolVar(&so.once, "once", false, "Send a single frame and exit")
	return cmd
}

func (so *stillOptions) run(ctx context.Context, path string) error {
	log, closeLog, err := so.logger(false)
	if err != nil {
		return err
	}
	defer closeLog()

	cfg, leds, err := so.load()
	if err != nil {
		return err
	}

	w, h := cfg.Geometry.ImageSize()
	img, err := render.LoadFrame(path, w, h)
	if err != nil {
		return err
	}
	frame, err := render.Sample(img, leds)
	if err != nil {
		return err
	}

	return hold(ctx, log, cfg, leds, frame, so.once, path)
}

// hold sends frame and, unless once is set, resends it at the configured
// frame rate until ctx is cancelled.
func hold(ctx context.Context, log *slog.Logger, cfg *config.Config, leds []layout.LedRecord, frame []render.Color, once bool, what string) error {
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

	if err := sender.Send(frame); err != nil {
		return fmt.Errorf("send %s: %w", what, err)
	}
	if once {
		return nil
	}

	log.Info("monolith: holding frame", "frame", what, "fps", cfg.FPS)
	ticker := time.NewTicker(time.Second / time.Duration(cfg.FPS))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := sender.Send(frame); err != nil {
				return fmt.Errorf("send %s: %w", what, err)
			}
		}
	}
}
