package fplugtest

import (
	"encoding/binary"

	"github.com/moffa90/go-fplug/protocol"
)

// EchonetResponse builds an ECHONET-Lite response from the sensor object
// class with one property.
func EchonetResponse(tid uint16, class, esv, epc byte, edt ...byte) []byte {
	frame := []byte{protocol.EHD1, protocol.EHDSpecified}
	frame = binary.LittleEndian.AppendUint16(frame, tid)
	frame = append(frame,
		protocol.ClassGroupSensor, class, 0x01,
		protocol.ClassGroupManagement, protocol.ClassNodeProfile, 0x00,
		esv, 0x01, epc, byte(len(edt)),
	)
	return append(frame, edt...)
}

// InitResponse builds the answer to an init request. The device echoes both
// properties with no data.
func InitResponse(tid uint16, esv byte) []byte {
	frame := []byte{protocol.EHD1, protocol.EHDSpecified}
	frame = binary.LittleEndian.AppendUint16(frame, tid)
	return append(frame,
		protocol.ClassGroupSensor, protocol.ClassPlug, 0x01,
		protocol.ClassGroupManagement, protocol.ClassNodeProfile, 0x00,
		esv, 0x02,
		protocol.EPCCurrentTime, 0x00,
		protocol.EPCCurrentDate, 0x00,
	)
}

// ManualResponse builds a history response: the six header bytes followed by
// the whole payload. Written in 16-byte pieces it forms the header packet and
// the continuation packets.
func ManualResponse(tid uint16, target, status byte, payload []byte) []byte {
	frame := []byte{protocol.EHD1, protocol.EHDManual}
	frame = binary.LittleEndian.AppendUint16(frame, tid)
	frame = append(frame, target, status)
	return append(frame, payload...)
}

// AckResponse builds the two-byte answer to a proprietary request.
func AckResponse(op, status byte) []byte {
	return []byte{op | 0x80, status}
}

// EncodeHourlyPower packs samples, oldest first, into the history payload.
// Missing samples are zero.
func EncodeHourlyPower(samples []protocol.HourlyPower) []byte {
	payload := make([]byte, protocol.HourlyPowerPayloadSize)
	for i, s := range samples {
		if i >= protocol.SamplesPerHistory {
			break
		}
		rec := payload[i*protocol.HourlyPowerRecordSize:]
		binary.LittleEndian.PutUint16(rec, uint16(s.Watt))
		if s.Reliability == protocol.Unreliable {
			rec[2] = protocol.ReliabilityFlagUnreliable
		}
	}
	return payload
}

// EncodeHourlyEnvironment packs values, oldest first, into the history
// payload. Missing values are zero.
func EncodeHourlyEnvironment(values []protocol.HourlyEnvironment) []byte {
	payload := make([]byte, protocol.HourlyEnvironmentPayloadSize)
	for i, v := range values {
		if i >= protocol.SamplesPerHistory {
			break
		}
		rec := payload[i*protocol.HourlyEnvironmentRecordSize:]
		binary.LittleEndian.PutUint16(rec, uint16(tenths(v.Temperature)))
		rec[2] = byte(v.Humidity)
		binary.LittleEndian.PutUint16(rec[3:], uint16(v.Illuminance))
	}
	return payload
}

// tenths converts a reading to the signed 0.1-unit wire value.
func tenths(v float64) int16 {
	if v < 0 {
		return int16(v*10 - 0.5)
	}
	return int16(v*10 + 0.5)
}

func tenthsBytes(v float64) []byte {
	return binary.LittleEndian.AppendUint16(nil, uint16(tenths(v)))
}
