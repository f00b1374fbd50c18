package main

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-fplug/fplug"
	"github.com/spf13/cobra"
)

func ledCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:       "led on|off",
		Short:     "Switch the plug LED",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(cmd.Context(), func(ctx context.Context, ctrl *fplug.Controller) error {
				if args[0] == "on" {
					return ctrl.LEDOn(ctx)
				}
				return ctrl.LEDOff(ctx)
			})
		},
	}
}

func setDateCmd(a *app) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "set-date",
		Short: "Set the plug clock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseAt(at, time.Now())
			if err != nil {
				return err
			}
			return a.withController(cmd.Context(), func(ctx context.Context, ctrl *fplug.Controller) error {
				if err := ctrl.SetDate(ctx, t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "clock set to %s\n", t.Format("2006-01-02 15:04"))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Date-time to set (default now)")

	return cmd
}

func initCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialise the plug and set its clock to now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(cmd.Context(), func(ctx context.Context, ctrl *fplug.Controller) error {
				return ctrl.InitPlug(ctx)
			})
		},
	}
}

func cancelPairingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-pairing",
		Short: "Cancel the plug's Bluetooth pairing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(cmd.Context(), func(ctx context.Context, ctrl *fplug.Controller) error {
				return ctrl.CancelPairing(ctx)
			})
		},
	}
}
