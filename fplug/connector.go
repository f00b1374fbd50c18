package fplug

import (
	"context"
	"io"
)

// Connector opens the byte stream to a device. The transport package provides
// serial and TCP implementations; tests can hand back any io.ReadWriteCloser.
//
// Open should honour ctx cancellation. Close on the returned stream must
// unblock a pending Read.
type Connector interface {
	Open(ctx context.Context, address string) (io.ReadWriteCloser, error)
}

// ConnectorFunc adapts a function to a Connector.
type ConnectorFunc func(ctx context.Context, address string) (io.ReadWriteCloser, error)

func (f ConnectorFunc) Open(ctx context.Context, address string) (io.ReadWriteCloser, error) {
	return f(ctx, address)
}
