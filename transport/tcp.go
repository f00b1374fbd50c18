package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"
)

// TCPConnector dials a host:port that bridges to the plug, such as a
// serial-to-TCP gateway or the fplugctl simulator.
type TCPConnector struct {
	// Timeout bounds the dial in addition to the context deadline; zero means none
	Timeout time.Duration
}

// NewTCPConnector returns a TCPConnector with the given dial timeout.
//
// Example:
//
//	ctrl := fplug.New("192.168.1.20:4000", transport.NewTCPConnector(5*time.Second))
func NewTCPConnector(timeout time.Duration) *TCPConnector {
	return &TCPConnector{Timeout: timeout}
}

// Open dials address over TCP.
func (t *TCPConnector) Open(ctx context.Context, address string) (io.ReadWriteCloser, error) {
	d := net.Dialer{Timeout: t.Timeout}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", address, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		// requests are a few bytes each and must not wait for more
		_ = tcp.SetNoDelay(true)
	}
	return conn, nil
}
