package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/moffa90/go-fplug/fplug"
	"github.com/moffa90/go-fplug/protocol"
	"github.com/spf13/cobra"
)

// timeLayouts are accepted by --at, in local time unless a zone is given.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseAt(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: use YYYY-MM-DDTHH:MM", s)
}

func historyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Read 24 hours of history",
	}

	var at string
	power := &cobra.Command{
		Use:   "power",
		Short: "Hourly power for the last 24 hours",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withController(cmd.Context(), func(ctx context.Context, ctrl *fplug.Controller) error {
				samples, err := ctrl.WattHour(ctx)
				if err != nil {
					return err
				}
				return printPower(cmd.OutOrStdout(), samples)
			})
		},
	}

	pastPower := &cobra.Command{
		Use:   "past-power",
		Short: "Hourly power for the 24 hours ending at --at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseAt(at, time.Now())
			if err != nil {
				return err
			}
			return a.withController(cmd.Context(), func(ctx context.Context, ctrl *fplug.Controller) error {
				samples, err := ctrl.PastWattHour(ctx, t)
				if err != nil {
					return err
				}
				return printPower(cmd.OutOrStdout(), samples)
			})
		},
	}
	pastPower.Flags().StringVar(&at, "at", "", "End of the period (default now)")

	environment := &cobra.Command{
		Use:   "environment",
		Short: "Hourly temperature, humidity and illuminance for the 24 hours ending at --at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseAt(at, time.Now())
			if err != nil {
				return err
			}
			return a.withController(cmd.Context(), func(ctx context.Context, ctrl *fplug.Controller) error {
				values, err := ctrl.PastValues(ctx, t)
				if err != nil {
					return err
				}
				return printEnvironment(cmd.OutOrStdout(), values)
			})
		},
	}
	environment.Flags().StringVar(&at, "at", "", "End of the period (default now)")

	cmd.AddCommand(power, pastPower, environment)
	return cmd
}

func printPower(out io.Writer, samples []protocol.HourlyPower) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOURS AGO\tWH\tRELIABILITY")
	for _, s := range samples {
		fmt.Fprintf(w, "%d\t%d\t%s\n", s.HoursAgo, s.Watt, s.Reliability)
	}
	return w.Flush()
}

func printEnvironment(out io.Writer, values []protocol.HourlyEnvironment) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOURS AGO\tTEMP (C)\tHUMIDITY (%)\tILLUMINANCE (LX)")
	for _, v := range values {
		fmt.Fprintf(w, "%d\t%.1f\t%d\t%d\n", v.HoursAgo, v.Temperature, v.Humidity, v.Illuminance)
	}
	return w.Flush()
}
