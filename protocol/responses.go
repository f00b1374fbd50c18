package protocol

import (
	"encoding/binary"
	"fmt"
)

// MaxEchonetFrameSize bounds the length of an ECHONET-Lite frame. Device
// frames are far shorter; anything claiming more is treated as garbage.
const MaxEchonetFrameSize = 128

// Result is one outcome produced by the Decoder: either a parsed response or
// an error. Errors of type *UnknownFrameError describe dropped bytes and do not
// belong to any request.
type Result struct {
	Response *Response
	Err      error
}

// Decoder turns the raw chunks read from the device into Results.
//
// Chunks are transport-sized, not frame-sized: a frame may span several
// chunks and a chunk may hold a frame plus trailing bytes. Incomplete frames
// are kept until the next Feed. Feed never blocks.
//
// A Decoder is not safe for concurrent use.
type Decoder struct {
	pending []byte
	acc     *accumulator
}

// NewDecoder returns an empty Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Reset discards any partial frame and accumulation state.
func (d *Decoder) Reset() {
	d.pending = nil
	d.acc = nil
}

// Accumulating reports whether a multi-packet response is being reassembled.
func (d *Decoder) Accumulating() bool {
	return d.acc != nil
}

// Buffered returns the number of bytes held for an incomplete frame.
func (d *Decoder) Buffered() int {
	n := len(d.pending)
	if d.acc != nil {
		n += d.acc.offset
	}
	return n
}

// Feed consumes one chunk and returns the outcomes it completed, in order.
func (d *Decoder) Feed(chunk []byte) []Result {
	var results []Result

	data := chunk
	if len(d.pending) > 0 {
		data = append(d.pending, chunk...)
		d.pending = nil
	}

	for len(data) > 0 {
		if d.acc != nil {
			data = data[d.acc.fill(data):]
			if d.acc.full() {
				results = append(results, d.acc.finish())
				d.acc = nil
			}
			continue
		}

		res, consumed, complete := d.next(data)
		if !complete {
			d.pending = append([]byte(nil), data...)
			break
		}
		data = data[consumed:]
		if res != nil {
			results = append(results, *res)
		}
	}

	return results
}

// next classifies the frame at the start of data. It returns the outcome (nil
// when the frame only starts an accumulation), the bytes consumed, and whether
// the frame was complete.
func (d *Decoder) next(data []byte) (*Result, int, bool) {
	switch data[0] {
	case EHD1:
		if len(data) < 2 {
			return nil, 0, false
		}
		switch data[OffsetEHD2] {
		case EHDSpecified:
			n, complete, valid := echonetFrameLen(data)
			if !valid {
				return unknownFrame(data), len(data), true
			}
			if !complete {
				return nil, 0, false
			}
			return parseEchonet(data[:n]), n, true
		case EHDManual:
			if len(data) < HeaderPacketSize {
				return nil, 0, false
			}
			acc, ok := newAccumulator(data[:HeaderPacketSize])
			if !ok {
				return unknownFrame(data), len(data), true
			}
			d.acc = acc
			return nil, HeaderPacketSize, true
		default:
			return unknownFrame(data), len(data), true
		}

	case RespCancelPairing, RespSetDate, RespLED:
		if len(data) < AckFrameSize {
			return nil, 0, false
		}
		res := parseAck(data[:AckFrameSize])
		return &res, AckFrameSize, true

	default:
		// The device pads the init response with zeros; those land here.
		return unknownFrame(data), len(data), true
	}
}

func unknownFrame(data []byte) *Result {
	return &Result{Err: &UnknownFrameError{Frame: append([]byte(nil), data...)}}
}

// echonetFrameLen walks the OPC/EPC/PDC list to find the frame length.
func echonetFrameLen(data []byte) (n int, complete bool, valid bool) {
	if len(data) < EchonetMinFrameSize {
		return 0, false, true
	}

	off := OffsetFirstProperty
	for i := 0; i < int(data[OffsetOPC]); i++ {
		if off > MaxEchonetFrameSize {
			return 0, false, false
		}
		if len(data) < off+2 {
			return 0, false, true
		}
		off += 2 + int(data[off+1])
	}
	if off > MaxEchonetFrameSize {
		return 0, false, false
	}
	if len(data) < off {
		return 0, false, true
	}
	return off, true, true
}

// parseEchonet dispatches a complete ECHONET-Lite frame on class and service code.
func parseEchonet(frame []byte) *Result {
	esv := frame[OffsetESV]

	switch frame[OffsetClass] {
	case ClassPlug:
		switch esv {
		case ESVSetRes:
			return &Result{Response: &Response{Type: ResponseAck}}
		case ESVSetCSNA:
			return &Result{Err: &ProtocolError{Operation: opInitPlug, StatusCode: esv}}
		case ESVGetRes, ESVGetSNA:
			return readValue(frame, opRealtimeWatt, 2, func(edt []byte) *Response {
				return &Response{Type: ResponseRealtimeWatt, Watt: tenths(edt)}
			})
		default:
			return unknownFrame(frame)
		}

	case ClassTemperature:
		return readValue(frame, opTemperature, 2, func(edt []byte) *Response {
			return &Response{Type: ResponseTemperature, Temperature: tenths(edt)}
		})

	case ClassHumidity:
		return readValue(frame, opHumidity, 1, func(edt []byte) *Response {
			return &Response{Type: ResponseHumidity, Humidity: int(edt[0])}
		})

	case ClassIlluminance:
		return readValue(frame, opIlluminance, 2, func(edt []byte) *Response {
			return &Response{Type: ResponseIlluminance, Illuminance: int(binary.LittleEndian.Uint16(edt))}
		})

	default:
		return unknownFrame(frame)
	}
}

// readValue handles a Get response: Get_Res carries size bytes of value at
// OffsetEDT, Get_SNA is a device failure, anything else is unexpected.
func readValue(frame []byte, op string, size int, parse func(edt []byte) *Response) *Result {
	esv := frame[OffsetESV]

	switch esv {
	case ESVGetRes:
		if len(frame) < OffsetEDT+size {
			return unknownFrame(frame)
		}
		return &Result{Response: parse(frame[OffsetEDT : OffsetEDT+size])}
	case ESVGetSNA:
		return &Result{Err: &ProtocolError{Operation: op, StatusCode: esv}}
	default:
		return &Result{Err: &UnexpectedStatusError{Operation: op, StatusCode: esv}}
	}
}

// tenths decodes a signed little-endian value in 0.1 units.
func tenths(b []byte) float64 {
	return float64(int16(binary.LittleEndian.Uint16(b))) / 10
}

// parseAck handles the proprietary two-byte acknowledgements.
func parseAck(frame []byte) Result {
	status := frame[OffsetAckType]
	ack := Result{Response: &Response{Type: ResponseAck}}

	var op string
	switch frame[0] {
	case RespLED:
		// The LED ack reports the new state; both values are success.
		if status == AckOK || status == AckFailed {
			return ack
		}
		return Result{Err: &UnexpectedStatusError{Operation: opLED, StatusCode: status}}
	case RespCancelPairing:
		op = opCancelPairing
	default:
		op = opSetDate
	}

	switch status {
	case AckOK:
		return ack
	case AckFailed:
		return Result{Err: &ProtocolError{Operation: op, StatusCode: status}}
	default:
		return Result{Err: &UnexpectedStatusError{Operation: op, StatusCode: status}}
	}
}

// accumulator reassembles a manual response spread over several packets.
type accumulator struct {
	target byte
	status byte
	buf    []byte
	offset int
}

// newAccumulator starts an accumulation from the 16-byte header packet. The
// payload bytes of the header packet fill the first HeaderPayloadOffset bytes
// of the buffer.
func newAccumulator(header []byte) (*accumulator, bool) {
	var size int
	switch header[OffsetTarget] {
	case TargetWattHour, TargetPastWattHour:
		size = HourlyPowerPayloadSize
	case TargetPastValues:
		size = HourlyEnvironmentPayloadSize
	default:
		return nil, false
	}

	acc := &accumulator{
		target: header[OffsetTarget],
		status: header[OffsetStatus],
		buf:    make([]byte, size),
	}
	copy(acc.buf, header[ManualHeaderSize:HeaderPacketSize])
	acc.offset = HeaderPayloadOffset

	return acc, true
}

// fill appends raw bytes at the current offset and returns how many it took.
func (a *accumulator) fill(data []byte) int {
	n := copy(a.buf[a.offset:], data)
	a.offset += n
	return n
}

func (a *accumulator) full() bool {
	return a.offset >= len(a.buf)
}

// finish parses the buffer. A failed status still consumes the whole payload.
func (a *accumulator) finish() Result {
	switch a.target {
	case TargetPastValues:
		values, err := ParseHourlyEnvironment(a.buf)
		if err != nil {
			return Result{Err: err}
		}
		if a.status != StatusOK {
			return Result{Err: &ProtocolError{Operation: opPastValues, StatusCode: a.status}}
		}
		return Result{Response: &Response{Type: ResponseHourlyEnvironment, HourlyEnvironment: values}}
	default:
		samples, err := ParseHourlyPower(a.buf)
		if err != nil {
			return Result{Err: err}
		}
		if a.status != StatusOK {
			return Result{Err: &ProtocolError{Operation: opWattHour, StatusCode: a.status}}
		}
		return Result{Response: &Response{Type: ResponseHourlyPower, HourlyPower: samples}}
	}
}

// ParseHourlyPower parses the accumulated hourly power payload.
//
// Data format (HourlyPowerPayloadSize bytes), 24 records oldest first:
//
//	[WATT_L][WATT_H][RELIABILITY]
//
// Records are labelled 24 down to 1 hours ago in encounter order.
func ParseHourlyPower(data []byte) ([]HourlyPower, error) {
	if len(data) != HourlyPowerPayloadSize {
		return nil, fmt.Errorf("invalid data length for hourly power: got %d bytes, expected %d", len(data), HourlyPowerPayloadSize)
	}

	samples := make([]HourlyPower, 0, SamplesPerHistory)
	for i := 0; i < SamplesPerHistory; i++ {
		rec := data[i*HourlyPowerRecordSize : (i+1)*HourlyPowerRecordSize]

		sample := HourlyPower{
			HoursAgo: SamplesPerHistory - i,
			Watt:     int(binary.LittleEndian.Uint16(rec[0:2])),
		}
		switch rec[2] {
		case ReliabilityFlagReliable:
			sample.Reliability = Reliable
		case ReliabilityFlagUnreliable:
			sample.Reliability = Unreliable
		}

		samples = append(samples, sample)
	}

	return samples, nil
}

// ParseHourlyEnvironment parses the accumulated hourly environment payload.
//
// Data format (HourlyEnvironmentPayloadSize bytes), 24 records oldest first:
//
//	[TEMP_L][TEMP_H][HUMIDITY][ILLUM_L][ILLUM_H]
//
// Temperature is signed, in 0.1 degree units.
func ParseHourlyEnvironment(data []byte) ([]HourlyEnvironment, error) {
	if len(data) != HourlyEnvironmentPayloadSize {
		return nil, fmt.Errorf("invalid data length for hourly environment: got %d bytes, expected %d", len(data), HourlyEnvironmentPayloadSize)
	}

	values := make([]HourlyEnvironment, 0, SamplesPerHistory)
	for i := 0; i < SamplesPerHistory; i++ {
		rec := data[i*HourlyEnvironmentRecordSize : (i+1)*HourlyEnvironmentRecordSize]

		values = append(values, HourlyEnvironment{
			HoursAgo:    SamplesPerHistory - i,
			Temperature: tenths(rec[0:2]),
			Humidity:    int(rec[2]),
			Illuminance: int(binary.LittleEndian.Uint16(rec[3:5])),
		})
	}

	return values, nil
}
