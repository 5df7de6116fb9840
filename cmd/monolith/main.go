// monolith - LED sculpture sender
// Lights the LEDs a tracked viewer can see through the aperture and streams
// the sampled colors to the strip controllers over OSC/UDP.
//
// Commands:
//
//	run     - Render, sample and send frames until interrupted
//	still   - Send an image file as a static frame
//	solid   - Light every LED with one color
//	export  - Write the world-space LED cloud as glTF
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/taigrr/monolith/pkg/config"
	"github.com/taigrr/monolith/pkg/layout"
)

type options struct {
	configPath string
	layoutPath string
	debug      bool
	logFile    string
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
		Use:          "monolith",
		Short:        "Drive the monolith LED sculpture from a tracked viewer",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file (defaults to the installation)")
	root.PersistentFlags().StringVar(&opts.layoutPath, "layout", "", "Layout rows file, overrides the configuration")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Log at debug level")
	root.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Write logs to a file instead of stderr")

	root.AddCommand(runCmd(opts), stillCmd(opts), solidCmd(opts), exportCmd(opts))
	return root
}

// load reads the configuration and maps the layout.
func (o *options) load() (*config.Config, []layout.LedRecord, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, nil, err
		}
	}
	if o.layoutPath != "" {
		cfg.Layout = o.layoutPath
	}

	leds, err := cfg.Mapper().LoadFile(cfg.Layout)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.LEDCount(len(leds)); err != nil {
		return nil, nil, fmt.Errorf("layout %s: %w", cfg.Layout, err)
	}
	return cfg, leds, nil
}

// logger builds the process logger. quiet discards output when no log file
// is set, for runs that own the terminal.
func (o *options) logger(quiet bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if o.debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	closer := func() {}
	switch {
	case o.logFile != "":
		f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, func() { f.Close() }
	case quiet:
		w = io.Discard
	}

	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})).
		With("run_id", uuid.NewString())
	slog.SetDefault(log)
	return log, closer, nil
}
