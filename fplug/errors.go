package fplug

import (
	"errors"
	"fmt"

	"github.com/moffa90/go-fplug/protocol"
)

var (
	// ErrNotConnected is delivered to requests that reach the head of the
	// queue, or are in flight, while the controller is not connected.
	ErrNotConnected = errors.New("fplug: not connected")

	// ErrQueueFull is returned synchronously by Request when the queue and
	// the in-flight slot already hold QueueCapacity requests.
	ErrQueueFull = errors.New("too many requests, please wait")

	// ErrTimeout is delivered when the device does not answer within the
	// response timeout.
	ErrTimeout = errors.New("fplug: response timeout")
)

// IOError wraps a failure of the underlying stream.
type IOError struct {
	// Op is the stream operation that failed: "connect", "write" or "read"
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("fplug: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// UnexpectedResponseError is returned by the synchronous helpers when the
// response attributed to a request is of a different type than the request
// asks for. Responses are matched to requests by arrival order, so a late
// frame from an earlier request can land here.
type UnexpectedResponseError struct {
	Kind protocol.Kind
	Type protocol.ResponseType
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("fplug: %s request answered with %s response", e.Kind, e.Type)
}

// IsTimeout returns true if the error reports a response timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// outcome classifies a request result for metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNotConnected):
		return "not_connected"
	case protocol.IsProtocolError(err):
		return "device_error"
	}

	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return "io_error"
	}
	return "error"
}
