package transport

import (
	"context"
	"fmt"
	"io"

	"go.bug.st/serial"
)

// DefaultBaudRate suits the RFCOMM serial device the plug is bound to; the
// Bluetooth link ignores the rate but the tty layer still needs one.
const DefaultBaudRate = 115200

// SerialConnector opens a serial device, typically an RFCOMM tty bound to
// the plug's Bluetooth address (for example /dev/rfcomm0).
type SerialConnector struct {
	// BaudRate for the port; zero means DefaultBaudRate
	BaudRate int

	// open is replaced in tests
	open func(name string, mode *serial.Mode) (serial.Port, error)
}

// NewSerialConnector returns a SerialConnector using DefaultBaudRate.
//
// Example:
//
//	ctrl := fplug.New("/dev/rfcomm0", transport.NewSerialConnector())
func NewSerialConnector() *SerialConnector {
	return &SerialConnector{BaudRate: DefaultBaudRate}
}

// Open opens the serial device at address with 8N1 framing.
func (s *SerialConnector) Open(ctx context.Context, address string) (io.ReadWriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	baud := s.BaudRate
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	open := s.open
	if open == nil {
		open = serial.Open
	}
	port, err := open(address, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", address, err)
	}
	return port, nil
}

// Ports lists the serial devices present on the system.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
