package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taigrr/monolith/pkg/render"
)

type solidOptions struct {
	*options
	once bool
}

func solidCmd(opts *options) *cobra.Command {
	so := &solidOptions{options: opts}
	cmd := &cobra.Command{
		Use:   "solid <r,g,b>",
		Short: "Light every LED with one color",
		Long: "Draws every LED in one color through the same scene and sampler as a\n" +
			"rendered frame, which checks wiring and client ranges end to end.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := parseColor(args[0])
			if err != nil {
				return err
			}
			return so.run(cmd.Context(), c)
		},
	}
	cmd.Flags().BoolVar(&so.once, "once", false, "Send a single frame and exit")
	return cmd
}

// parseColor reads "R,G,B" with each channel in [0, 255].
func parseColor(s string) (render.Color, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return render.Color{}, fmt.Errorf("invalid color %q: want R,G,B", s)
	}
	var ch [3]uint8
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 255 {
			return render.Color{}, fmt.Errorf("invalid color %q: channel %q not in [0, 255]", s, p)
		}
		ch[i] = uint8(v)
	}
	return render.RGB(ch[0], ch[1], ch[2]), nil
}

func (so *solidOptions) run(ctx context.Context, c render.Color) error {
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
	fb := render.NewFramebuffer(w, h)
	scene := render.NewScene(leds, cfg.Geometry.TextureScale)
	scene.Begin(fb)
	scene.Fill(fb, c)

	frame, err := render.Sample(fb, leds)
	if err != nil {
		return err
	}
	return hold(ctx, log, cfg, leds, frame, so.once, fmt.Sprintf("solid %d,%d,%d", c.R, c.G, c.B))
}
