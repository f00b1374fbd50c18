package main

import (
	"context"
	"fmt"

	"github.com/moffa90/go-fplug/fplug"
	"github.com/spf13/cobra"
)

func getCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Read a sensor",
	}

	reading := func(use, short string, read func(ctx context.Context, ctrl *fplug.Controller) (string, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withController(cmd.Context(), func(ctx context.Context, ctrl *fplug.Controller) error {
					out, err := read(ctx, ctrl)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), out)
					return nil
				})
			},
		}
	}

	cmd.AddCommand(
		reading("temperature", "Read the temperature in degrees Celsius", func(ctx context.Context, ctrl *fplug.Controller) (string, error) {
			v, err := ctrl.Temperature(ctx)
			return fmt.Sprintf("%.1f C", v), err
		}),
		reading("humidity", "Read the relative humidity", func(ctx context.Context, ctrl *fplug.Controller) (string, error) {
			v, err := ctrl.Humidity(ctx)
			return fmt.Sprintf("%d %%", v), err
		}),
		reading("illuminance", "Read the illuminance in lux", func(ctx context.Context, ctrl *fplug.Controller) (string, error) {
			v, err := ctrl.Illuminance(ctx)
			return fmt.Sprintf("%d lx", v), err
		}),
		reading("watt", "Read the instantaneous power", func(ctx context.Context, ctrl *fplug.Controller) (string, error) {
			v, err := ctrl.RealtimeWatt(ctx)
			return fmt.Sprintf("%.1f W", v), err
		}),
	)

	return cmd
}
