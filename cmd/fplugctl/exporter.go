package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/moffa90/go-fplug/fplug"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// readings holds the gauges the exporter refreshes on every poll.
type readings struct {
	temperature prometheus.Gauge
	humidity    prometheus.Gauge
	illuminance prometheus.Gauge
	power       prometheus.Gauge
	lastPoll    prometheus.Gauge
	pollErrors  prometheus.Counter
}

func newReadings(reg prometheus.Registerer, address string) *readings {
	labels := prometheus.Labels{"device": address}
	r := &readings{
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fplug", Name: "temperature_celsius",
			Help: "Last temperature read from the plug.", ConstLabels: labels,
		}),
		humidity: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fplug", Name: "humidity_percent",
			Help: "Last relative humidity read from the plug.", ConstLabels: labels,
		}),
		illuminance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fplug", Name: "illuminance_lux",
			Help: "Last illuminance read from the plug.", ConstLabels: labels,
		}),
		power: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fplug", Name: "power_watts",
			Help: "Last instantaneous power read from the plug.", ConstLabels: labels,
		}),
		lastPoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "fplug", Name: "last_poll_timestamp_seconds",
			Help: "Unix time of the last complete poll.", ConstLabels: labels,
		}),
		pollErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fplug", Name: "poll_errors_total",
			Help: "Readings that failed during polling.", ConstLabels: labels,
		}),
	}

	reg.MustRegister(r.temperature, r.humidity, r.illuminance, r.power, r.lastPoll, r.pollErrors)
	return r
}

// poller reads every sensor of one controller into the gauges.
type poller struct {
	ctrl     *fplug.Controller
	readings *readings
	logger   *zap.Logger
}

// poll reads each sensor in turn. Failed readings keep their previous value.
func (p *poller) poll(ctx context.Context) {
	if p.ctrl.State() == fplug.StateDisconnected {
		p.logger.Info("reconnecting", zap.String("address", p.ctrl.Address()))
		p.ctrl.Connect(nil)
		return
	}
	if p.ctrl.State() != fplug.StateConnected {
		return
	}

	ok := true
	set := func(name string, g prometheus.Gauge, read func(context.Context) (float64, error)) {
		v, err := read(ctx)
		if err != nil {
			ok = false
			p.readings.pollErrors.Inc()
			p.logger.Warn("reading failed", zap.String("reading", name), zap.Error(err))
			return
		}
		g.Set(v)
	}

	set("temperature", p.readings.temperature, p.ctrl.Temperature)
	set("humidity", p.readings.humidity, func(ctx context.Context) (float64, error) {
		v, err := p.ctrl.Humidity(ctx)
		return float64(v), err
	})
	set("illuminance", p.readings.illuminance, func(ctx context.Context) (float64, error) {
		v, err := p.ctrl.Illuminance(ctx)
		return float64(v), err
	})
	set("power", p.readings.power, p.ctrl.RealtimeWatt)

	if ok {
		p.readings.lastPoll.SetToCurrentTime()
	}
}

// run polls every interval until ctx is done.
func (p *poller) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func exporterCmd(a *app) *cobra.Command {
	var listen string
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "exporter",
		Short: "Serve plug readings as Prometheus metrics",
		Long: `Poll the plug periodically and serve its readings, together with the
controller's request metrics, on /metrics.

Examples:
  fplugctl --address /dev/rfcomm0 exporter --listen :9478
  fplugctl --simulate exporter --interval 5s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("listen") {
				a.cfg.Exporter.Listen = listen
			}
			if cmd.Flags().Changed("interval") {
				a.cfg.Exporter.Interval = interval
			}
			if a.cfg.Exporter.Interval <= 0 {
				return errors.New("exporter.interval must be positive")
			}
			return a.runExporter(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (default from config, :9478)")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Polling interval (default from config, 30s)")

	return cmd
}

func (a *app) runExporter(ctx context.Context) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ctrl := a.newController(reg)
	defer ctrl.Disconnect()

	p := &poller{
		ctrl:     ctrl,
		readings: newReadings(reg, ctrl.Address()),
		logger:   a.logger,
	}

	connectCtx, cancel := context.WithTimeout(ctx, a.cfg.Device.DialTimeout)
	err := ctrl.ConnectContext(connectCtx)
	cancel()
	if err != nil {
		// the poller keeps retrying
		a.logger.Warn("initial connection failed", zap.String("address", ctrl.Address()), zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              a.cfg.Exporter.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go p.run(ctx, a.cfg.Exporter.Interval)

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("serving metrics", zap.String("listen", srv.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.logger.Info("exporter stopped")
	return nil
}
