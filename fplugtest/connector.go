package fplugtest

import (
	"context"
	"io"
	"net"
	"sync"
)

// Connector opens in-memory connections to a Device. Each Open creates a
// net.Pipe and serves the device end in a new goroutine. It satisfies
// fplug.Connector.
type Connector struct {
	device *Device

	mu      sync.Mutex
	openErr error
	conns   []net.Conn
	opened  int
}

// Connector returns a Connector for d.
func (d *Device) Connector() *Connector {
	return &Connector{device: d}
}

// Open connects to the device. The address is ignored.
func (c *Connector) Open(ctx context.Context, address string) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openErr != nil {
		return nil, c.openErr
	}

	client, server := net.Pipe()
	c.conns = append(c.conns, server)
	c.opened++

	go func() {
		_ = c.device.Serve(server)
		_ = server.Close()
	}()

	return client, nil
}

// SetOpenError makes later Open calls fail with err. Nil restores them.
func (c *Connector) SetOpenError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.openErr = err
}

// Drop closes the device end of every connection, as if the link was lost.
func (c *Connector) Drop() {
	c.mu.Lock()
	conns := c.conns
	c.conns = nil
	c.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// Opened returns how many connections have been opened.
func (c *Connector) Opened() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}
