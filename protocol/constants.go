package protocol

// Frame families. The first byte of every frame selects the family.
const (
	// EHD1 is the first header byte of ECHONET-Lite and manual frames (0x10)
	EHD1 = 0x10

	// EHDSpecified marks an ECHONET-Lite frame in the specified message format (0x81)
	EHDSpecified = 0x81

	// EHDManual marks an F-PLUG manual (vendor) frame (0x82)
	EHDManual = 0x82
)

// Single-byte opcodes of the proprietary frames. Responses echo the opcode
// with the high bit set.
const (
	// OpLED switches the front LED
	OpLED = 0x05

	// OpCancelPairing cancels the Bluetooth pairing on the device side
	OpCancelPairing = 0x06

	// OpSetDate sets the device clock
	OpSetDate = 0x07

	// RespLED is the LED acknowledgement (0x85)
	RespLED = OpLED | 0x80

	// RespCancelPairing is the cancel-pairing acknowledgement (0x86)
	RespCancelPairing = OpCancelPairing | 0x80

	// RespSetDate is the set-date acknowledgement (0x87)
	RespSetDate = OpSetDate | 0x80
)

// Manual frame request codes. The response target byte is the request code
// with the high bit set.
const (
	// ManualWattHour requests the 24 hourly power samples ending now
	ManualWattHour = 0x11

	// ManualPastWattHour requests the 24 hourly power samples ending at a given time
	ManualPastWattHour = 0x16

	// ManualPastValues requests the 24 hourly environment samples ending at a given time
	ManualPastValues = 0x17

	// TargetWattHour is the response target byte for ManualWattHour (0x91)
	TargetWattHour = ManualWattHour | 0x80

	// TargetPastWattHour is the response target byte for ManualPastWattHour (0x96)
	TargetPastWattHour = ManualPastWattHour | 0x80

	// TargetPastValues is the response target byte for ManualPastValues (0x97)
	TargetPastValues = ManualPastValues | 0x80
)

// ECHONET-Lite object class groups and classes used by the device.
const (
	// ClassGroupManagement is the class group of the controller (source) object
	ClassGroupManagement = 0x0E

	// ClassNodeProfile is the class of the controller (source) object
	ClassNodeProfile = 0xF0

	// ClassGroupSensor is the class group of every device-side object
	ClassGroupSensor = 0x00

	// ClassPlug addresses the plug itself; the wattmeter lives on the same object
	ClassPlug = 0x22

	// ClassTemperature addresses the temperature sensor
	ClassTemperature = 0x11

	// ClassHumidity addresses the humidity sensor
	ClassHumidity = 0x12

	// ClassIlluminance addresses the illuminance sensor
	ClassIlluminance = 0x0D
)

// ECHONET-Lite service codes (ESV).
const (
	// ESVSetC is a property write requiring a response
	ESVSetC = 0x61

	// ESVGet is a property read
	ESVGet = 0x62

	// ESVSetRes acknowledges a successful SetC
	ESVSetRes = 0x71

	// ESVGetRes carries the value of a successful Get
	ESVGetRes = 0x72

	// ESVSetCSNA reports a SetC the device could not serve
	ESVSetCSNA = 0x51

	// ESVGetSNA reports a Get the device could not serve
	ESVGetSNA = 0x52
)

// ECHONET-Lite property codes (EPC).
const (
	// EPCMeasuredValue is the measured value of a sensor object
	EPCMeasuredValue = 0xE0

	// EPCInstantWatt is the instantaneous power of the plug object (0.1 W units)
	EPCInstantWatt = 0xE2

	// EPCCurrentTime sets the device time of day (hour, minute)
	EPCCurrentTime = 0x97

	// EPCCurrentDate sets the device date (year LE, month, day)
	EPCCurrentDate = 0x98
)

// Byte offsets inside an ECHONET-Lite frame.
const (
	// OffsetEHD2 locates the frame format byte
	OffsetEHD2 = 1

	// OffsetClass locates the class code of the source object in a response
	OffsetClass = 5

	// OffsetESV locates the service code
	OffsetESV = 10

	// OffsetOPC locates the property count
	OffsetOPC = 11

	// OffsetFirstProperty locates the first EPC
	OffsetFirstProperty = 12

	// OffsetEDT locates the first property value in a single-property response
	OffsetEDT = 14

	// EchonetMinFrameSize covers EHD through OPC
	EchonetMinFrameSize = 12
)

// Manual frame layout.
const (
	// OffsetTarget locates the response target byte of a manual frame
	OffsetTarget = 4

	// OffsetStatus locates the success/failure byte of a manual frame
	OffsetStatus = 5

	// ManualHeaderSize is the physical header of a manual response:
	// EHD1(1) + EHD2(1) + TID(2) + TARGET(1) + STATUS(1)
	ManualHeaderSize = 6

	// HeaderPacketSize is the size of the device packet that carries the
	// manual header. The payload bytes it carries land at the start of the
	// accumulation buffer and the following packets continue at
	// HeaderPayloadOffset.
	HeaderPacketSize = 16

	// HeaderPayloadOffset is the fill offset of the accumulation buffer once
	// the header packet has been consumed.
	HeaderPayloadOffset = HeaderPacketSize - ManualHeaderSize

	// StatusOK marks a successful manual response
	StatusOK = 0x00

	// StatusFailed marks a failed manual response
	StatusFailed = 0x01
)

// Proprietary acknowledgement layout.
const (
	// OffsetAckType locates the result byte of a proprietary acknowledgement
	OffsetAckType = 1

	// AckFrameSize is the size of a proprietary acknowledgement
	AckFrameSize = 2

	// AckOK marks a successful acknowledgement
	AckOK = 0x00

	// AckFailed marks a failed acknowledgement (LED reports its state here instead)
	AckFailed = 0x01
)

// Multi-packet payload sizes.
const (
	// SamplesPerHistory is the number of hourly samples in a history response
	SamplesPerHistory = 24

	// HourlyPowerRecordSize is the size of one hourly power sample
	HourlyPowerRecordSize = 3

	// HourlyEnvironmentRecordSize is the size of one hourly environment sample
	HourlyEnvironmentRecordSize = 5

	// HourlyPowerPayloadSize is the accumulated size of an hourly power response (72 bytes)
	HourlyPowerPayloadSize = SamplesPerHistory * HourlyPowerRecordSize

	// HourlyEnvironmentPayloadSize is the accumulated size of an hourly environment response (120 bytes)
	HourlyEnvironmentPayloadSize = SamplesPerHistory * HourlyEnvironmentRecordSize
)

// Reliability flags of an hourly power sample.
const (
	ReliabilityFlagReliable   = 0x00
	ReliabilityFlagUnreliable = 0x01
)

// LED payload values.
const (
	LEDOff = 0x00
	LEDOn  = 0x01
)

// DefaultReadBufferSize is the read size used by the receive loop. It matches
// the device packet size.
const DefaultReadBufferSize = HeaderPacketSize
