package protocol

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrMalformedCommand is returned by the builders when a request argument is
// missing or invalid.
var ErrMalformedCommand = errors.New("malformed command")

// ProtocolError reports that the device itself failed an operation.
// The message is the operation followed by "failed", e.g. "get humidity failed".
type ProtocolError struct {
	// Operation is the operation the device failed
	Operation string

	// StatusCode is the service code or status byte that reported the failure
	StatusCode byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s failed", e.Operation)
}

// IsProtocolError returns true if the error is a ProtocolError.
func IsProtocolError(err error) bool {
	var pe *ProtocolError
	return errors.As(err, &pe)
}

// UnexpectedStatusError reports a recognised response whose status byte is
// neither the success nor the failure value.
type UnexpectedStatusError struct {
	// Operation is the operation the response belongs to
	Operation string

	// StatusCode is the unexpected byte
	StatusCode byte
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("unknown response parameter 0x%02X for %s", e.StatusCode, e.Operation)
}

// UnknownFrameError reports bytes that match no known frame. The decoder
// drops them; they are never attributed to a request.
type UnknownFrameError struct {
	Frame []byte
}

func (e *UnknownFrameError) Error() string {
	return fmt.Sprintf("unknown frame: % x", e.Frame)
}

// Hex returns the frame as a hex string.
func (e *UnknownFrameError) Hex() string {
	return hex.EncodeToString(e.Frame)
}

// IsUnknownFrame returns true if the error is an UnknownFrameError.
func IsUnknownFrame(err error) bool {
	var ue *UnknownFrameError
	return errors.As(err, &ue)
}

// operation names used in device failure messages
const (
	opInitPlug      = "init plug"
	opCancelPairing = "cancel pairing"
	opTemperature   = "get temperature"
	opHumidity      = "get humidity"
	opIlluminance   = "get illuminance"
	opRealtimeWatt  = "get realtime watt"
	opWattHour      = "get watt hour"
	opPastValues    = "get past values"
	opSetDate       = "set date"
	opLED           = "set led"
)
