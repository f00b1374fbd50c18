package fplug

import (
	"time"

	"github.com/moffa90/go-fplug/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the controller configuration.
type Config struct {
	// Logger is used for logging operations (optional)
	Logger Logger

	// ResponseTimeout is how long a request may stay in flight
	ResponseTimeout time.Duration

	// ConnectTimeout bounds a connection attempt; zero means no limit
	ConnectTimeout time.Duration

	// QueueCapacity is the maximum number of queued plus in-flight requests
	QueueCapacity int

	// ReadBufferSize is the size of each read from the stream
	ReadBufferSize int

	// Registerer receives the controller metrics (optional)
	Registerer prometheus.Registerer

	// Clock supplies the date-time for init and watt-hour requests
	Clock func() time.Time
}

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		ResponseTimeout: 5 * time.Second,
		ConnectTimeout:  30 * time.Second,
		QueueCapacity:   4,
		ReadBufferSize:  protocol.DefaultReadBufferSize,
		Clock:           time.Now,
	}
}

// Option is a functional option for configuring the Controller.
type Option func(*Config)

// WithLogger sets a logger for the controller operations.
//
// Example:
//
//	ctrl := fplug.New(addr, connector, fplug.WithLogger(fplug.NewZapLogger(zapLogger)))
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithResponseTimeout sets how long the controller waits for each response.
// Default is 5 seconds.
//
// Example:
//
//	ctrl := fplug.New(addr, connector, fplug.WithResponseTimeout(2*time.Second))
func WithResponseTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout > 0 {
			c.ResponseTimeout = timeout
		}
	}
}

// WithConnectTimeout bounds each connection attempt. Zero disables the limit.
func WithConnectTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		if timeout >= 0 {
			c.ConnectTimeout = timeout
		}
	}
}

// WithQueueCapacity sets the maximum number of outstanding requests.
// Default is 4.
//
// Example:
//
//	ctrl := fplug.New(addr, connector, fplug.WithQueueCapacity(8))
func WithQueueCapacity(capacity int) Option {
	return func(c *Config) {
		if capacity > 0 {
			c.QueueCapacity = capacity
		}
	}
}

// WithReadBufferSize sets the size of each stream read. Default is 16 bytes,
// the size of a device packet.
func WithReadBufferSize(size int) Option {
	return func(c *Config) {
		if size > 0 {
			c.ReadBufferSize = size
		}
	}
}

// WithMetrics registers the controller metrics with reg. When reg refuses
// them, for example because another collector already uses the names, the
// error is logged and the controller runs without metrics.
//
// Example:
//
//	reg := prometheus.NewRegistry()
//	ctrl := fplug.New(addr, connector, fplug.WithMetrics(reg))
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registerer = reg
	}
}

// WithClock replaces time.Now as the source of the date-time sent with
// init and watt-hour requests.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}
