package main

import (
	"context"
	"fmt"
	"time"

	"github.com/moffa90/go-fplug/fplug"
	"github.com/moffa90/go-fplug/fplugtest"
	"github.com/moffa90/go-fplug/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	simulate   bool

	// flag values; applied over the file only when set on the command line
	address     string
	transport   string
	baudRate    int
	dialTimeout time.Duration
	timeout     time.Duration
	logLevel    string
	logFormat   string

	cfg    *Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "fplugctl",
		Short: "Query and control F-PLUG smart plugs",
		Long: `fplugctl talks to an F-PLUG over its Bluetooth serial port (or a TCP
bridge) to read sensors and power history, switch the LED and set the clock.

Examples:
  fplugctl --address /dev/rfcomm0 get temperature
  fplugctl --config fplug.yaml history environment --at 2026-10-14T18:00
  fplugctl --simulate exporter`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "fplug.yaml", "Configuration file")
	flags.BoolVar(&a.simulate, "simulate", false, "Use the built-in simulated plug")
	flags.StringVarP(&a.address, "address", "a", "", "Device path (serial) or host:port (tcp)")
	flags.StringVar(&a.transport, "transport", "", "Transport: serial or tcp")
	flags.IntVar(&a.baudRate, "baud-rate", 0, "Serial baud rate")
	flags.DurationVar(&a.dialTimeout, "dial-timeout", 0, "Connection timeout")
	flags.DurationVar(&a.timeout, "timeout", 0, "Response timeout per request")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: json or console")

	cmd.AddCommand(
		getCmd(a),
		historyCmd(a),
		ledCmd(a),
		setDateCmd(a),
		initCmd(a),
		cancelPairingCmd(a),
		exporterCmd(a),
		portsCmd(),
		versionCmd(),
	)

	return cmd
}

// init loads the configuration, applies flags and builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	a.applyFlags(cmd, cfg)

	if err := cfg.Validate(a.simulate); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = newLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	return nil
}

func (a *app) applyFlags(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("address") {
		cfg.Device.Address = a.address
	}
	if flags.Changed("transport") {
		cfg.Device.Transport = a.transport
	}
	if flags.Changed("baud-rate") {
		cfg.Device.BaudRate = a.baudRate
	}
	if flags.Changed("dial-timeout") {
		cfg.Device.DialTimeout = a.dialTimeout
	}
	if flags.Changed("timeout") {
		cfg.Request.Timeout = a.timeout
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
}

// newController builds a controller for the configured device, or for a
// fresh simulated plug.
func (a *app) newController(reg prometheus.Registerer) *fplug.Controller {
	address := a.cfg.Device.Address
	var connector fplug.Connector

	switch {
	case a.simulate:
		if address == "" {
			address = "simulator"
		}
		connector = fplugtest.NewDevice().Connector()
	case a.cfg.Device.Transport == transportTCP:
		connector = transport.NewTCPConnector(a.cfg.Device.DialTimeout)
	default:
		connector = &transport.SerialConnector{BaudRate: a.cfg.Device.BaudRate}
	}

	opts := []fplug.Option{
		fplug.WithLogger(fplug.NewZapLogger(a.logger)),
		fplug.WithResponseTimeout(a.cfg.Request.Timeout),
		fplug.WithConnectTimeout(a.cfg.Device.DialTimeout),
	}
	if reg != nil {
		opts = append(opts, fplug.WithMetrics(reg))
	}
	return fplug.New(address, connector, opts...)
}

// withController connects, runs fn and disconnects.
func (a *app) withController(ctx context.Context, fn func(ctx context.Context, ctrl *fplug.Controller) error) error {
	ctrl := a.newController(nil)

	connectCtx, cancel := context.WithTimeout(ctx, a.cfg.Device.DialTimeout)
	defer cancel()
	if err := ctrl.ConnectContext(connectCtx); err != nil {
		return fmt.Errorf("connect %s: %w", ctrl.Address(), err)
	}
	defer ctrl.Disconnect()

	return fn(ctx, ctrl)
}
