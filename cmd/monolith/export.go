package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taigrr/monolith/pkg/layout"
)

func exportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export <out.glb>",
		Short: "Write the world-space LED cloud as binary glTF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, leds, err := opts.load()
			if err != nil {
				return err
			}
			if err := layout.ExportGLTF(args[0], leds); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d LEDs to %s\n", len(leds), args[0])
			return nil
		},
	}
}
