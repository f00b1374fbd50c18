package fplug

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/moffa90/go-fplug/protocol"
)

func TestIOError(t *testing.T) {
	err := &IOError{Op: "write", Err: io.ErrClosedPipe}

	errMsg := err.Error()

	if !strings.Contains(errMsg, "write") {
		t.Errorf("error message should contain the operation, got: %s", errMsg)
	}

	if !strings.Contains(errMsg, io.ErrClosedPipe.Error()) {
		t.Errorf("error message should contain the cause, got: %s", errMsg)
	}

	if !errors.Is(err, io.ErrClosedPipe) {
		t.Error("IOError should unwrap to its cause")
	}
}

func TestUnexpectedResponseError(t *testing.T) {
	err := &UnexpectedResponseError{
		Kind: protocol.KindTemperature,
		Type: protocol.ResponseHumidity,
	}

	errMsg := err.Error()

	if !strings.Contains(errMsg, protocol.KindTemperature.String()) {
		t.Errorf("error message should contain the request kind, got: %s", errMsg)
	}

	if !strings.Contains(errMsg, protocol.ResponseHumidity.String()) {
		t.Errorf("error message should contain the response type, got: %s", errMsg)
	}
}

func TestQueueFullMessage(t *testing.T) {
	if ErrQueueFull.Error() != "too many requests, please wait" {
		t.Errorf("unexpected message: %s", ErrQueueFull)
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "success", err: nil, want: "success"},
		{name: "timeout", err: fmt.Errorf("%w: no answer", ErrTimeout), want: "timeout"},
		{name: "not connected", err: ErrNotConnected, want: "not_connected"},
		{
			name: "connection lost",
			err:  fmt.Errorf("%w: %w", ErrNotConnected, &IOError{Op: "read", Err: io.EOF}),
			want: "not_connected",
		},
		{name: "device", err: &protocol.ProtocolError{Operation: "get humidity"}, want: "device_error"},
		{name: "io", err: &IOError{Op: "write", Err: io.ErrClosedPipe}, want: "io_error"},
		{name: "other", err: &protocol.UnexpectedStatusError{Operation: "set led", StatusCode: 0x05}, want: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outcome(tt.err); got != tt.want {
				t.Errorf("outcome() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestErrorTypes(t *testing.T) {
	// Test that all error types implement error interface
	var _ error = &IOError{}
	var _ error = &UnexpectedResponseError{}
}
