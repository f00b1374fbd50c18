package fplugtest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/moffa90/go-fplug/protocol"
)

// errShortFrame means more bytes are needed to parse a request.
var errShortFrame = errors.New("short request frame")

// Request is a request frame as received by the simulated device.
type Request struct {
	Kind  protocol.Kind
	TID   uint16
	At    time.Time
	Frame []byte
}

// manualFrameSize is [10][82][TID(2)][CODE] plus the packed date-time.
const manualFrameSize = 5 + dateTimeSize

// dateTimeSize is [HH][MM][YEAR(2)][MO][DD].
const dateTimeSize = 6

// ParseRequest parses the request frame at the start of data and returns it
// with the number of bytes it used. It returns errShortFrame when data holds
// only part of a frame.
func ParseRequest(data []byte) (Request, int, error) {
	if len(data) == 0 {
		return Request{}, 0, errShortFrame
	}

	switch data[0] {
	case protocol.EHD1:
		if len(data) < 2 {
			return Request{}, 0, errShortFrame
		}
		switch data[protocol.OffsetEHD2] {
		case protocol.EHDSpecified:
			return parseEchonetRequest(data)
		case protocol.EHDManual:
			return parseManualRequest(data)
		}

	case protocol.OpLED:
		if len(data) < 4 {
			return Request{}, 0, errShortFrame
		}
		kind := protocol.KindLEDOff
		if data[3] == protocol.LEDOn {
			kind = protocol.KindLEDOn
		}
		return Request{Kind: kind, TID: tidAt(data, 1), Frame: clone(data[:4])}, 4, nil

	case protocol.OpCancelPairing:
		if len(data) < 3 {
			return Request{}, 0, errShortFrame
		}
		return Request{Kind: protocol.KindCancelPairing, TID: tidAt(data, 1), Frame: clone(data[:3])}, 3, nil

	case protocol.OpSetDate:
		n := 3 + dateTimeSize
		if len(data) < n {
			return Request{}, 0, errShortFrame
		}
		return Request{Kind: protocol.KindSetDate, TID: tidAt(data, 1), At: dateTime(data[3:n]), Frame: clone(data[:n])}, n, nil
	}

	return Request{}, 0, fmt.Errorf("unknown request frame: % x", data)
}

func parseEchonetRequest(data []byte) (Request, int, error) {
	if len(data) < protocol.EchonetMinFrameSize {
		return Request{}, 0, errShortFrame
	}

	// property list: [EPC][PDC][EDT...] repeated OPC times
	props := map[byte][]byte{}
	off := protocol.OffsetFirstProperty
	for i := 0; i < int(data[protocol.OffsetOPC]); i++ {
		if len(data) < off+2 || len(data) < off+2+int(data[off+1]) {
			return Request{}, 0, errShortFrame
		}
		props[data[off]] = data[off+2 : off+2+int(data[off+1])]
		off += 2 + int(data[off+1])
	}

	req := Request{TID: tidAt(data, 2), Frame: clone(data[:off])}

	// the destination class sits three bytes after the source class
	class := data[protocol.OffsetClass+3]
	switch {
	case class == protocol.ClassPlug && data[protocol.OffsetESV] == protocol.ESVSetC:
		req.Kind = protocol.KindInit
		t, d := props[protocol.EPCCurrentTime], props[protocol.EPCCurrentDate]
		if len(t) == 2 && len(d) == 4 {
			req.At = dateTime(append(append([]byte{}, t...), d...))
		}
	case class == protocol.ClassPlug:
		req.Kind = protocol.KindRealtimeWatt
	case class == protocol.ClassTemperature:
		req.Kind = protocol.KindTemperature
	case class == protocol.ClassHumidity:
		req.Kind = protocol.KindHumidity
	case class == protocol.ClassIlluminance:
		req.Kind = protocol.KindIlluminance
	default:
		return Request{}, off, fmt.Errorf("unknown echonet request class 0x%02X", class)
	}
	return req, off, nil
}

func parseManualRequest(data []byte) (Request, int, error) {
	if len(data) < manualFrameSize {
		return Request{}, 0, errShortFrame
	}

	req := Request{TID: tidAt(data, 2), At: dateTime(data[5:manualFrameSize]), Frame: clone(data[:manualFrameSize])}
	switch data[4] {
	case protocol.ManualWattHour:
		req.Kind = protocol.KindWattHour
	case protocol.ManualPastWattHour:
		req.Kind = protocol.KindPastWattHour
	case protocol.ManualPastValues:
		req.Kind = protocol.KindPastValues
	default:
		return Request{}, manualFrameSize, fmt.Errorf("unknown manual request code 0x%02X", data[4])
	}
	return req, manualFrameSize, nil
}

// tidAt reads the little-endian transaction id at off.
func tidAt(data []byte, off int) uint16 {
	return binary.LittleEndian.Uint16(data[off : off+2])
}

func dateTime(b []byte) time.Time {
	year := int(binary.LittleEndian.Uint16(b[2:4]))
	return time.Date(year, time.Month(b[4]), int(b[5]), int(b[0]), int(b[1]), 0, 0, time.UTC)
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
