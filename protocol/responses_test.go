package protocol

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// Helper function to build an ECHONET-Lite single-property response
func buildEchonetResponse(class, esv byte, edt ...byte) []byte {
	frame := []byte{
		EHD1, EHDSpecified, 0x00, 0x00,
		ClassGroupSensor, class, 0x00, // SEOJ: device object
		ClassGroupManagement, ClassNodeProfile, 0x00, // DEOJ: controller
		esv, 0x01, EPCMeasuredValue, byte(len(edt)),
	}
	return append(frame, edt...)
}

// Helper function to build a manual response: 6-byte header plus payload
func buildManualResponse(target, status byte, payload []byte) []byte {
	frame := []byte{EHD1, EHDManual, 0x00, 0x00, target, status}
	return append(frame, payload...)
}

func hourlyPowerPayload() []byte {
	payload := make([]byte, 0, HourlyPowerPayloadSize)
	for i := 0; i < SamplesPerHistory; i++ {
		watt := uint16(i*100 + 7)
		payload = append(payload, byte(watt), byte(watt>>8), byte(i%2))
	}
	return payload
}

func hourlyEnvironmentPayload() []byte {
	payload := make([]byte, 0, HourlyEnvironmentPayloadSize)
	for i := 0; i < SamplesPerHistory; i++ {
		temp := uint16(int16(i*10 - 55))
		illum := uint16(i * 300)
		payload = append(payload, byte(temp), byte(temp>>8), byte(40+i), byte(illum), byte(illum>>8))
	}
	return payload
}

// feedChunks feeds data in pieces of size n and collects every result.
func feedChunks(d *Decoder, data []byte, n int) []Result {
	var results []Result
	for len(data) > 0 {
		k := n
		if k > len(data) {
			k = len(data)
		}
		results = append(results, d.Feed(data[:k])...)
		data = data[k:]
	}
	return results
}

func singleResult(t *testing.T, results []Result) Result {
	t.Helper()
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(results), results)
	}
	return results[0]
}

func TestDecodeTemperature(t *testing.T) {
	d := NewDecoder()
	res := singleResult(t, d.Feed(buildEchonetResponse(ClassTemperature, ESVGetRes, 0xC8, 0x00)))

	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Response.Type != ResponseTemperature {
		t.Errorf("Type = %v, want %v", res.Response.Type, ResponseTemperature)
	}
	if res.Response.Temperature != 20.0 {
		t.Errorf("Temperature = %v, want 20.0", res.Response.Temperature)
	}
}

func TestDecodeSensorReadings(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  Response
	}{
		{
			name:  "negative temperature",
			frame: buildEchonetResponse(ClassTemperature, ESVGetRes, 0xC9, 0xFF),
			want:  Response{Type: ResponseTemperature, Temperature: -5.5},
		},
		{
			name:  "humidity",
			frame: buildEchonetResponse(ClassHumidity, ESVGetRes, 0x37),
			want:  Response{Type: ResponseHumidity, Humidity: 55},
		},
		{
			name:  "illuminance",
			frame: buildEchonetResponse(ClassIlluminance, ESVGetRes, 0x2C, 0x01),
			want:  Response{Type: ResponseIlluminance, Illuminance: 300},
		},
		{
			name:  "realtime watt",
			frame: buildEchonetResponse(ClassPlug, ESVGetRes, 0xE7, 0x03),
			want:  Response{Type: ResponseRealtimeWatt, Watt: 99.9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := singleResult(t, NewDecoder().Feed(tt.frame))
			if res.Err != nil {
				t.Fatalf("unexpected error: %v", res.Err)
			}
			if !reflect.DeepEqual(*res.Response, tt.want) {
				t.Errorf("response = %+v, want %+v", *res.Response, tt.want)
			}
		})
	}
}

func TestDecodeDeviceFailures(t *testing.T) {
	tests := []struct {
		name    string
		frame   []byte
		wantMsg string
	}{
		{
			name:    "humidity failure without payload",
			frame:   buildEchonetResponse(ClassHumidity, ESVGetSNA),
			wantMsg: "get humidity failed",
		},
		{
			name:    "humidity failure with payload",
			frame:   buildEchonetResponse(ClassHumidity, ESVGetSNA, 0x37),
			wantMsg: "get humidity failed",
		},
		{
			name:    "temperature failure",
			frame:   buildEchonetResponse(ClassTemperature, ESVGetSNA),
			wantMsg: "get temperature failed",
		},
		{
			name:    "illuminance failure",
			frame:   buildEchonetResponse(ClassIlluminance, ESVGetSNA),
			wantMsg: "get illuminance failed",
		},
		{
			name:    "realtime watt failure",
			frame:   buildEchonetResponse(ClassPlug, ESVGetSNA),
			wantMsg: "get realtime watt failed",
		},
		{
			name:    "init failure",
			frame:   buildEchonetResponse(ClassPlug, ESVSetCSNA),
			wantMsg: "init plug failed",
		},
		{
			name:    "cancel pairing failure",
			frame:   []byte{RespCancelPairing, AckFailed},
			wantMsg: "cancel pairing failed",
		},
		{
			name:    "set date failure",
			frame:   []byte{RespSetDate, AckFailed},
			wantMsg: "set date failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := singleResult(t, NewDecoder().Feed(tt.frame))

			var pe *ProtocolError
			if !errors.As(res.Err, &pe) {
				t.Fatalf("error = %v, want *ProtocolError", res.Err)
			}
			if pe.Error() != tt.wantMsg {
				t.Errorf("error = %q, want %q", pe.Error(), tt.wantMsg)
			}
		})
	}
}

func TestDecodeUnexpectedStatus(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{name: "temperature", frame: buildEchonetResponse(ClassTemperature, 0x5E)},
		{name: "pairing", frame: []byte{RespCancelPairing, 0x07}},
		{name: "set date", frame: []byte{RespSetDate, 0x02}},
		{name: "led", frame: []byte{RespLED, 0x02}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := singleResult(t, NewDecoder().Feed(tt.frame))

			var ue *UnexpectedStatusError
			if !errors.As(res.Err, &ue) {
				t.Fatalf("error = %v, want *UnexpectedStatusError", res.Err)
			}
			if !strings.Contains(ue.Error(), "unknown response parameter") {
				t.Errorf("error = %q", ue.Error())
			}
		})
	}
}

func TestDecodeAcks(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{name: "init", frame: buildEchonetResponse(ClassPlug, ESVSetRes)},
		{name: "cancel pairing", frame: []byte{RespCancelPairing, AckOK}},
		{name: "set date", frame: []byte{RespSetDate, AckOK}},
		{name: "led off", frame: []byte{RespLED, 0x00}},
		{name: "led on", frame: []byte{RespLED, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := singleResult(t, NewDecoder().Feed(tt.frame))
			if res.Err != nil {
				t.Fatalf("unexpected error: %v", res.Err)
			}
			if res.Response.Type != ResponseAck {
				t.Errorf("Type = %v, want ack", res.Response.Type)
			}
		})
	}
}

func TestDecodeInitAckWithZeroPadding(t *testing.T) {
	ack := []byte{
		EHD1, EHDSpecified, 0x01, 0x00,
		ClassGroupSensor, ClassPlug, 0x00,
		ClassGroupManagement, ClassNodeProfile, 0x00,
		ESVSetRes, 0x02, EPCCurrentTime, 0x00, EPCCurrentDate, 0x00,
	}
	d := NewDecoder()

	results := d.Feed(append(ack, 0, 0, 0, 0, 0, 0))
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Err != nil || results[0].Response.Type != ResponseAck {
		t.Errorf("first result = %+v, want ack", results[0])
	}
	if !IsUnknownFrame(results[1].Err) {
		t.Errorf("second result = %v, want unknown frame", results[1].Err)
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", d.Buffered())
	}
}

func TestDecodePartialFrameWaits(t *testing.T) {
	frame := buildEchonetResponse(ClassIlluminance, ESVGetRes, 0x10, 0x27)
	d := NewDecoder()

	if results := d.Feed(frame[:8]); len(results) != 0 {
		t.Fatalf("partial frame produced %d results", len(results))
	}
	if results := d.Feed(frame[8:15]); len(results) != 0 {
		t.Fatalf("partial frame produced %d results", len(results))
	}
	res := singleResult(t, d.Feed(frame[15:]))
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Response.Illuminance != 10000 {
		t.Errorf("Illuminance = %d, want 10000", res.Response.Illuminance)
	}
}

func TestDecodeHourlyPowerChunkIndependence(t *testing.T) {
	frame := buildManualResponse(TargetWattHour, StatusOK, hourlyPowerPayload())

	var want []HourlyPower
	for _, size := range []int{len(frame), 16, 40, 3, 1} {
		d := NewDecoder()
		res := singleResult(t, feedChunks(d, frame, size))
		if res.Err != nil {
			t.Fatalf("chunk size %d: unexpected error: %v", size, res.Err)
		}
		got := res.Response.HourlyPower
		if len(got) != SamplesPerHistory {
			t.Fatalf("chunk size %d: got %d samples", size, len(got))
		}
		if want == nil {
			want = got
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("chunk size %d: samples differ", size)
		}
	}

	// header packet, then the remaining 62 payload bytes in one and in 24 reads
	for _, rest := range [][]int{{62}, {31, 31}, repeat(24, 2, 14)} {
		d := NewDecoder()
		if results := d.Feed(frame[:HeaderPacketSize]); len(results) != 0 {
			t.Fatalf("header packet produced %d results", len(results))
		}
		if !d.Accumulating() {
			t.Fatal("decoder should be accumulating after the header packet")
		}
		var results []Result
		off := HeaderPacketSize
		for _, n := range rest {
			results = append(results, d.Feed(frame[off:off+n])...)
			off += n
		}
		res := singleResult(t, results)
		if !reflect.DeepEqual(res.Response.HourlyPower, want) {
			t.Errorf("split %v: samples differ", rest)
		}
	}

	if want[0].HoursAgo != 24 || want[23].HoursAgo != 1 {
		t.Errorf("HoursAgo = %d..%d, want 24..1", want[0].HoursAgo, want[23].HoursAgo)
	}
	if want[0].Watt != 7 || want[1].Watt != 107 || want[23].Watt != 2307 {
		t.Errorf("Watt = %d, %d, %d", want[0].Watt, want[1].Watt, want[23].Watt)
	}
	if want[0].Reliability != Reliable || want[1].Reliability != Unreliable {
		t.Errorf("Reliability = %v, %v", want[0].Reliability, want[1].Reliability)
	}
}

// repeat returns count copies of n followed by tail.
func repeat(count, n, tail int) []int {
	out := make([]int, 0, count+1)
	for i := 0; i < count; i++ {
		out = append(out, n)
	}
	return append(out, tail)
}

func TestDecodeHourlyPowerFailureConsumesPayload(t *testing.T) {
	frame := buildManualResponse(TargetPastWattHour, StatusFailed, hourlyPowerPayload())
	next := buildEchonetResponse(ClassTemperature, ESVGetRes, 0xC8, 0x00)

	d := NewDecoder()
	results := feedChunks(d, append(frame, next...), HeaderPacketSize)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	var pe *ProtocolError
	if !errors.As(results[0].Err, &pe) || pe.Error() != "get watt hour failed" {
		t.Errorf("first result = %v, want get watt hour failed", results[0].Err)
	}
	if results[1].Err != nil || results[1].Response.Temperature != 20.0 {
		t.Errorf("second result = %+v, want temperature 20.0", results[1])
	}
	if d.Accumulating() {
		t.Error("decoder still accumulating")
	}
}

func TestDecodeHourlyEnvironment(t *testing.T) {
	frame := buildManualResponse(TargetPastValues, StatusOK, hourlyEnvironmentPayload())

	res := singleResult(t, feedChunks(NewDecoder(), frame, HeaderPacketSize))
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if res.Response.Type != ResponseHourlyEnvironment {
		t.Fatalf("Type = %v", res.Response.Type)
	}

	values := res.Response.HourlyEnvironment
	if len(values) != SamplesPerHistory {
		t.Fatalf("got %d values", len(values))
	}

	first := HourlyEnvironment{HoursAgo: 24, Temperature: -5.5, Humidity: 40, Illuminance: 0}
	if values[0] != first {
		t.Errorf("values[0] = %+v, want %+v", values[0], first)
	}
	last := HourlyEnvironment{HoursAgo: 1, Temperature: 17.5, Humidity: 63, Illuminance: 6900}
	if values[23] != last {
		t.Errorf("values[23] = %+v, want %+v", values[23], last)
	}
}

func TestDecodeHourlyEnvironmentFailure(t *testing.T) {
	frame := buildManualResponse(TargetPastValues, StatusFailed, hourlyEnvironmentPayload())

	res := singleResult(t, NewDecoder().Feed(frame))
	if res.Err == nil || res.Err.Error() != "get past values failed" {
		t.Errorf("error = %v, want get past values failed", res.Err)
	}
}

func TestDecodeUnknownFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{name: "unknown leading byte", frame: []byte{0x42, 0x00, 0x01}},
		{name: "unknown ehd2", frame: []byte{EHD1, 0x83, 0x00, 0x00}},
		{name: "unknown class", frame: buildEchonetResponse(0x99, ESVGetRes, 0x01, 0x02)},
		{name: "plug with unknown service", frame: buildEchonetResponse(ClassPlug, 0x60)},
		{name: "manual with unknown target", frame: buildManualResponse(0x9F, StatusOK, make([]byte, 10))},
		{name: "truncated value", frame: buildEchonetResponse(ClassTemperature, ESVGetRes, 0x01)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder()
			res := singleResult(t, d.Feed(tt.frame))
			if !IsUnknownFrame(res.Err) {
				t.Errorf("error = %v, want unknown frame", res.Err)
			}
			if d.Buffered() != 0 || d.Accumulating() {
				t.Errorf("decoder kept state after unknown frame")
			}
		})
	}
}

func TestDecodeOversizedEchonetFrame(t *testing.T) {
	frame := buildEchonetResponse(ClassTemperature, ESVGetRes)
	frame[OffsetOPC] = 0xFF
	frame[OffsetFirstProperty+1] = 0xFF

	res := singleResult(t, NewDecoder().Feed(frame))
	if !IsUnknownFrame(res.Err) {
		t.Errorf("error = %v, want unknown frame", res.Err)
	}
}

func TestDecoderReset(t *testing.T) {
	frame := buildManualResponse(TargetWattHour, StatusOK, hourlyPowerPayload())
	d := NewDecoder()

	d.Feed(frame[:30])
	if !d.Accumulating() {
		t.Fatal("decoder should be accumulating")
	}

	d.Reset()
	if d.Accumulating() || d.Buffered() != 0 {
		t.Fatal("Reset() kept state")
	}

	res := singleResult(t, d.Feed(buildEchonetResponse(ClassHumidity, ESVGetRes, 0x30)))
	if res.Err != nil || res.Response.Humidity != 48 {
		t.Errorf("result after reset = %+v", res)
	}
}

func TestParseHourlyPower(t *testing.T) {
	payload := hourlyPowerPayload()
	payload[2] = 0x05 // neither reliable nor unreliable

	samples, err := ParseHourlyPower(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if samples[0].Reliability != ReliabilityUnknown {
		t.Errorf("Reliability = %v, want unknown", samples[0].Reliability)
	}

	if _, err := ParseHourlyPower(payload[:71]); err == nil {
		t.Error("expected error for short payload")
	}
	if _, err := ParseHourlyEnvironment(make([]byte, 72)); err == nil {
		t.Error("expected error for short payload")
	}
}

// respondTo answers a request frame the way the device does, using success
// codes and zero values.
func respondTo(t *testing.T, req []byte) []byte {
	t.Helper()
	switch {
	case req[0] == EHD1 && req[1] == EHDSpecified:
		class := req[8]
		if req[10] == ESVSetC {
			return buildEchonetResponse(class, ESVSetRes)
		}
		size := 2
		if class == ClassHumidity {
			size = 1
		}
		return buildEchonetResponse(class, ESVGetRes, make([]byte, size)...)
	case req[0] == EHD1 && req[1] == EHDManual:
		target := req[4] | 0x80
		size := HourlyPowerPayloadSize
		if target == TargetPastValues {
			size = HourlyEnvironmentPayloadSize
		}
		return buildManualResponse(target, StatusOK, make([]byte, size))
	default:
		return []byte{req[0] | 0x80, AckOK}
	}
}

func TestDispatchTableRoundTrip(t *testing.T) {
	want := map[Kind]ResponseType{
		KindInit:          ResponseAck,
		KindCancelPairing: ResponseAck,
		KindWattHour:      ResponseHourlyPower,
		KindTemperature:   ResponseTemperature,
		KindHumidity:      ResponseHumidity,
		KindIlluminance:   ResponseIlluminance,
		KindRealtimeWatt:  ResponseRealtimeWatt,
		KindPastWattHour:  ResponseHourlyPower,
		KindPastValues:    ResponseHourlyEnvironment,
		KindSetDate:       ResponseAck,
		KindLEDOn:         ResponseAck,
		KindLEDOff:        ResponseAck,
	}

	var tids TransactionCounter
	for _, kind := range Kinds {
		t.Run(kind.String(), func(t *testing.T) {
			req, err := BuildCmd(kind, tids.Next(), testDate)
			if err != nil {
				t.Fatalf("BuildCmd() error = %v", err)
			}

			res := singleResult(t, feedChunks(NewDecoder(), respondTo(t, req), DefaultReadBufferSize))
			if res.Err != nil {
				t.Fatalf("unexpected error: %v", res.Err)
			}
			if res.Response.Type != want[kind] {
				t.Errorf("Type = %v, want %v", res.Response.Type, want[kind])
			}
		})
	}
}
