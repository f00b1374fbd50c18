package protocol

import (
	"encoding/binary"
	"fmt"
	"time"
)

// TransactionCounter produces the transaction ids embedded in outbound frames.
// The id is incremented before every frame and wraps at 16 bits. Responses
// are not correlated by id; the device only needs it to be present.
//
// TransactionCounter is not safe for concurrent use.
type TransactionCounter struct {
	last uint16
}

// Next increments the counter and returns the new id.
func (c *TransactionCounter) Next() uint16 {
	c.last++
	return c.last
}

// Last returns the most recently issued id.
func (c *TransactionCounter) Last() uint16 {
	return c.last
}

// BuildCmd encodes the frame for kind. at is the date-time carried by the
// frame: required for KindPastWattHour, KindPastValues and KindSetDate, and
// the current device time for KindInit and KindWattHour. Other kinds ignore it.
func BuildCmd(kind Kind, tid uint16, at time.Time) ([]byte, error) {
	switch kind {
	case KindInit:
		return BuildInitCmd(tid, at)
	case KindCancelPairing:
		return BuildCancelPairingCmd(tid)
	case KindWattHour:
		return BuildWattHourCmd(tid, at)
	case KindTemperature:
		return BuildTemperatureCmd(tid)
	case KindHumidity:
		return BuildHumidityCmd(tid)
	case KindIlluminance:
		return BuildIlluminanceCmd(tid)
	case KindRealtimeWatt:
		return BuildRealtimeWattCmd(tid)
	case KindPastWattHour:
		return BuildPastWattHourCmd(tid, at)
	case KindPastValues:
		return BuildPastValuesCmd(tid, at)
	case KindSetDate:
		return BuildSetDateCmd(tid, at)
	case KindLEDOn:
		return BuildLEDCmd(tid, true)
	case KindLEDOff:
		return BuildLEDCmd(tid, false)
	default:
		return nil, fmt.Errorf("%w: unknown request kind %d", ErrMalformedCommand, int(kind))
	}
}

// ValidateRequest checks the arguments of a request without encoding it.
func ValidateRequest(kind Kind, at time.Time) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: unknown request kind %d", ErrMalformedCommand, int(kind))
	}
	if kind.RequiresDate() && at.IsZero() {
		return fmt.Errorf("%w: %s requires a date-time", ErrMalformedCommand, kind)
	}
	return nil
}

// BuildInitCmd constructs the plug initialisation frame. It writes the
// current time and date to the plug object in one SetC.
//
// Frame structure:
//
//	[10][81][TID_L][TID_H][0E F0 00][00 22 00][61][02]
//	[97][02][HOUR][MINUTE][98][04][YEAR_L][YEAR_H][MONTH][DAY]
func BuildInitCmd(tid uint16, now time.Time) ([]byte, error) {
	if now.IsZero() {
		return nil, fmt.Errorf("%w: init requires the current time", ErrMalformedCommand)
	}

	frame := echonetHeader(tid, ClassPlug, ESVSetC, 2)

	frame = append(frame, EPCCurrentTime, 2)
	frame = append(frame, byte(now.Hour()), byte(now.Minute()))

	frame = append(frame, EPCCurrentDate, 4)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(now.Year()))
	frame = append(frame, byte(now.Month()), byte(now.Day()))

	return frame, nil
}

// BuildTemperatureCmd constructs a temperature read.
//
// Frame structure:
//
//	[10][81][TID_L][TID_H][0E F0 00][00 11 00][62][01][E0][00]
func BuildTemperatureCmd(tid uint16) ([]byte, error) {
	return echonetGet(tid, ClassTemperature, EPCMeasuredValue), nil
}

// BuildHumidityCmd constructs a humidity read.
//
// Frame structure:
//
//	[10][81][TID_L][TID_H][0E F0 00][00 12 00][62][01][E0][00]
func BuildHumidityCmd(tid uint16) ([]byte, error) {
	return echonetGet(tid, ClassHumidity, EPCMeasuredValue), nil
}

// BuildIlluminanceCmd constructs an illuminance read.
//
// Frame structure:
//
//	[10][81][TID_L][TID_H][0E F0 00][00 0D 00][62][01][E0][00]
func BuildIlluminanceCmd(tid uint16) ([]byte, error) {
	return echonetGet(tid, ClassIlluminance, EPCMeasuredValue), nil
}

// BuildRealtimeWattCmd constructs an instantaneous power read on the plug object.
//
// Frame structure:
//
//	[10][81][TID_L][TID_H][0E F0 00][00 22 00][62][01][E2][00]
func BuildRealtimeWattCmd(tid uint16) ([]byte, error) {
	return echonetGet(tid, ClassPlug, EPCInstantWatt), nil
}

// BuildWattHourCmd constructs the hourly power history request for the 24
// hours ending at now.
//
// Frame structure:
//
//	[10][82][TID_L][TID_H][11][HOUR][MINUTE][YEAR_L][YEAR_H][MONTH][DAY]
func BuildWattHourCmd(tid uint16, now time.Time) ([]byte, error) {
	if now.IsZero() {
		return nil, fmt.Errorf("%w: %s requires the current time", ErrMalformedCommand, KindWattHour)
	}
	return manualFrame(tid, ManualWattHour, now), nil
}

// BuildPastWattHourCmd constructs the hourly power history request for the 24
// hours ending at at.
//
// Frame structure:
//
//	[10][82][TID_L][TID_H][16][HOUR][MINUTE][YEAR_L][YEAR_H][MONTH][DAY]
func BuildPastWattHourCmd(tid uint16, at time.Time) ([]byte, error) {
	if at.IsZero() {
		return nil, fmt.Errorf("%w: %s requires a date-time", ErrMalformedCommand, KindPastWattHour)
	}
	return manualFrame(tid, ManualPastWattHour, at), nil
}

// BuildPastValuesCmd constructs the hourly environment history request for
// the 24 hours ending at at.
//
// Frame structure:
//
//	[10][82][TID_L][TID_H][17][HOUR][MINUTE][YEAR_L][YEAR_H][MONTH][DAY]
func BuildPastValuesCmd(tid uint16, at time.Time) ([]byte, error) {
	if at.IsZero() {
		return nil, fmt.Errorf("%w: %s requires a date-time", ErrMalformedCommand, KindPastValues)
	}
	return manualFrame(tid, ManualPastValues, at), nil
}

// BuildSetDateCmd constructs the frame that sets the device clock.
//
// Frame structure:
//
//	[07][TID_L][TID_H][HOUR][MINUTE][YEAR_L][YEAR_H][MONTH][DAY]
func BuildSetDateCmd(tid uint16, at time.Time) ([]byte, error) {
	if at.IsZero() {
		return nil, fmt.Errorf("%w: %s requires a date-time", ErrMalformedCommand, KindSetDate)
	}

	frame := make([]byte, 0, 9)
	frame = append(frame, OpSetDate)
	frame = binary.LittleEndian.AppendUint16(frame, tid)
	frame = appendDateTime(frame, at)

	return frame, nil
}

// BuildCancelPairingCmd constructs the frame that drops the pairing.
//
// Frame structure:
//
//	[06][TID_L][TID_H]
func BuildCancelPairingCmd(tid uint16) ([]byte, error) {
	frame := make([]byte, 0, 3)
	frame = append(frame, OpCancelPairing)
	frame = binary.LittleEndian.AppendUint16(frame, tid)
	return frame, nil
}

// BuildLEDCmd constructs the frame that switches the LED.
//
// Frame structure:
//
//	[05][TID_L][TID_H][STATE]
func BuildLEDCmd(tid uint16, on bool) ([]byte, error) {
	state := byte(LEDOff)
	if on {
		state = LEDOn
	}

	frame := make([]byte, 0, 4)
	frame = append(frame, OpLED)
	frame = binary.LittleEndian.AppendUint16(frame, tid)
	frame = append(frame, state)

	return frame, nil
}

// echonetHeader writes EHD, TID, SEOJ, DEOJ, ESV and OPC.
func echonetHeader(tid uint16, class byte, esv byte, opc byte) []byte {
	frame := make([]byte, 0, 22)
	frame = append(frame, EHD1, EHDSpecified)
	frame = binary.LittleEndian.AppendUint16(frame, tid)

	// SEOJ: controller
	frame = append(frame, ClassGroupManagement, ClassNodeProfile, 0x00)

	// DEOJ: device object
	frame = append(frame, ClassGroupSensor, class, 0x00)

	frame = append(frame, esv, opc)
	return frame
}

func echonetGet(tid uint16, class byte, epc byte) []byte {
	frame := echonetHeader(tid, class, ESVGet, 1)
	return append(frame, epc, 0x00)
}

func manualFrame(tid uint16, code byte, at time.Time) []byte {
	frame := make([]byte, 0, 11)
	frame = append(frame, EHD1, EHDManual)
	frame = binary.LittleEndian.AppendUint16(frame, tid)
	frame = append(frame, code)
	return appendDateTime(frame, at)
}

// appendDateTime packs hour, minute, year (LE), month, day.
func appendDateTime(frame []byte, at time.Time) []byte {
	frame = append(frame, byte(at.Hour()), byte(at.Minute()))
	frame = binary.LittleEndian.AppendUint16(frame, uint16(at.Year()))
	return append(frame, byte(at.Month()), byte(at.Day()))
}
