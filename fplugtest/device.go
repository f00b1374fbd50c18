package fplugtest

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/moffa90/go-fplug/protocol"
)

// Readings are the values the simulated device reports.
type Readings struct {
	Temperature float64
	Humidity    int
	Illuminance int
	Watt        float64

	// HourlyPower and HourlyEnvironment are oldest first; missing entries
	// are sent as zero
	HourlyPower       []protocol.HourlyPower
	HourlyEnvironment []protocol.HourlyEnvironment
}

// DefaultReadings returns a plausible set of readings for a plug in a room.
func DefaultReadings() Readings {
	r := Readings{
		Temperature: 21.5,
		Humidity:    45,
		Illuminance: 320,
		Watt:        12.3,
	}
	for i := 0; i < protocol.SamplesPerHistory; i++ {
		r.HourlyPower = append(r.HourlyPower, protocol.HourlyPower{
			HoursAgo:    protocol.SamplesPerHistory - i,
			Watt:        10 + i,
			Reliability: protocol.Reliable,
		})
		r.HourlyEnvironment = append(r.HourlyEnvironment, protocol.HourlyEnvironment{
			HoursAgo:    protocol.SamplesPerHistory - i,
			Temperature: 18 + float64(i)/4,
			Humidity:    40 + i/2,
			Illuminance: 50 * i,
		})
	}
	return r
}

// Device simulates an F-PLUG. Serve answers the requests read from a stream
// the way the plug does: ECHONET-Lite responses for sensor reads and init,
// multi-packet responses for the histories and two-byte acks for the
// proprietary commands.
//
// Device is safe for concurrent use; its settings may change while serving.
type Device struct {
	mu        sync.Mutex
	readings  Readings
	failing   map[protocol.Kind]bool
	silent    map[protocol.Kind]bool
	chunkSize int
	latency   time.Duration
	led       bool
	paired    bool
	clock     time.Time
	requests  []Request
}

// NewDevice returns a paired device with DefaultReadings that writes its
// responses in 16-byte packets.
func NewDevice() *Device {
	return &Device{
		readings:  DefaultReadings(),
		failing:   make(map[protocol.Kind]bool),
		silent:    make(map[protocol.Kind]bool),
		chunkSize: protocol.HeaderPacketSize,
		paired:    true,
	}
}

// SetReadings replaces the reported values.
func (d *Device) SetReadings(r Readings) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readings = r
}

// Fail makes the device report failure for requests of kind.
func (d *Device) Fail(kind protocol.Kind, fail bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failing[kind] = fail
}

// Silence makes the device ignore requests of kind.
func (d *Device) Silence(kind protocol.Kind, silent bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.silent[kind] = silent
}

// SetChunkSize sets the size of each response write. Zero or less writes
// every response in one piece.
func (d *Device) SetChunkSize(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.chunkSize = n
}

// SetLatency delays every response.
func (d *Device) SetLatency(latency time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.latency = latency
}

// LED reports whether the LED is on.
func (d *Device) LED() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.led
}

// Paired reports whether pairing is still active.
func (d *Device) Paired() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paired
}

// Clock returns the date-time last set by an init or set-date request.
func (d *Device) Clock() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.clock
}

// Requests returns every request received so far, in order.
func (d *Device) Requests() []Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Request(nil), d.requests...)
}

// Serve answers requests read from rw until a read or write fails. A closed
// stream ends Serve with a nil error. Unparseable bytes are dropped.
func (d *Device) Serve(rw io.ReadWriter) error {
	buf := make([]byte, 64)
	var pending []byte

	for {
		n, err := rw.Read(buf)
		pending = append(pending, buf[:n]...)

		for len(pending) > 0 {
			req, used, perr := ParseRequest(pending)
			if errors.Is(perr, errShortFrame) {
				break
			}
			if perr != nil {
				if used == 0 {
					pending = nil
					break
				}
				pending = pending[used:]
				continue
			}
			pending = pending[used:]

			if werr := d.handle(rw, req); werr != nil {
				return closedOK(werr)
			}
		}

		if err != nil {
			return closedOK(err)
		}
	}
}

func closedOK(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}

func (d *Device) handle(w io.Writer, req Request) error {
	d.mu.Lock()
	d.requests = append(d.requests, req)
	if d.silent[req.Kind] {
		d.mu.Unlock()
		return nil
	}
	resp := d.respondLocked(req)
	latency, chunk := d.latency, d.chunkSize
	d.mu.Unlock()

	if latency > 0 {
		time.Sleep(latency)
	}
	return writeChunks(w, resp, chunk)
}

// respondLocked applies the side effects of req and builds its answer.
func (d *Device) respondLocked(req Request) []byte {
	fail := d.failing[req.Kind]
	r := d.readings

	getESV := byte(protocol.ESVGetRes)
	status := byte(protocol.StatusOK)
	ack := byte(protocol.AckOK)
	if fail {
		getESV = protocol.ESVGetSNA
		status = protocol.StatusFailed
		ack = protocol.AckFailed
	}

	switch req.Kind {
	case protocol.KindInit:
		if fail {
			return InitResponse(req.TID, protocol.ESVSetCSNA)
		}
		d.clock = req.At
		return InitResponse(req.TID, protocol.ESVSetRes)

	case protocol.KindTemperature:
		return EchonetResponse(req.TID, protocol.ClassTemperature, getESV, protocol.EPCMeasuredValue, tenthsBytes(r.Temperature)...)
	case protocol.KindHumidity:
		return EchonetResponse(req.TID, protocol.ClassHumidity, getESV, protocol.EPCMeasuredValue, byte(r.Humidity))
	case protocol.KindIlluminance:
		return EchonetResponse(req.TID, protocol.ClassIlluminance, getESV, protocol.EPCMeasuredValue,
			byte(r.Illuminance), byte(r.Illuminance>>8))
	case protocol.KindRealtimeWatt:
		return EchonetResponse(req.TID, protocol.ClassPlug, getESV, protocol.EPCInstantWatt, tenthsBytes(r.Watt)...)

	case protocol.KindWattHour:
		return ManualResponse(req.TID, protocol.TargetWattHour, status, EncodeHourlyPower(r.HourlyPower))
	case protocol.KindPastWattHour:
		return ManualResponse(req.TID, protocol.TargetPastWattHour, status, EncodeHourlyPower(r.HourlyPower))
	case protocol.KindPastValues:
		return ManualResponse(req.TID, protocol.TargetPastValues, status, EncodeHourlyEnvironment(r.HourlyEnvironment))

	case protocol.KindSetDate:
		if !fail {
			d.clock = req.At
		}
		return AckResponse(protocol.OpSetDate, ack)
	case protocol.KindCancelPairing:
		if !fail {
			d.paired = false
		}
		return AckResponse(protocol.OpCancelPairing, ack)
	case protocol.KindLEDOn, protocol.KindLEDOff:
		if fail {
			// neither state value: the controller reports an unexpected status
			return AckResponse(protocol.OpLED, 0xFF)
		}
		d.led = req.Kind == protocol.KindLEDOn
		state := byte(protocol.LEDOff)
		if d.led {
			state = protocol.LEDOn
		}
		return AckResponse(protocol.OpLED, state)
	}
	return nil
}

func writeChunks(w io.Writer, data []byte, chunk int) error {
	if chunk <= 0 {
		chunk = len(data)
	}
	for len(data) > 0 {
		n := min(chunk, len(data))
		if _, err := w.Write(data[:n]); err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}
