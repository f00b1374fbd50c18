package protocol

import "fmt"

// Kind identifies a request the device understands.
type Kind int

// Request kinds.
const (
	KindInit Kind = iota + 1
	KindCancelPairing
	KindWattHour
	KindTemperature
	KindHumidity
	KindIlluminance
	KindRealtimeWatt
	KindPastWattHour
	KindPastValues
	KindSetDate
	KindLEDOn
	KindLEDOff
)

// Kinds lists every request kind in declaration order.
var Kinds = []Kind{
	KindInit,
	KindCancelPairing,
	KindWattHour,
	KindTemperature,
	KindHumidity,
	KindIlluminance,
	KindRealtimeWatt,
	KindPastWattHour,
	KindPastValues,
	KindSetDate,
	KindLEDOn,
	KindLEDOff,
}

var kindNames = map[Kind]string{
	KindInit:          "init",
	KindCancelPairing: "cancel_pairing",
	KindWattHour:      "watt_hour",
	KindTemperature:   "temperature",
	KindHumidity:      "humidity",
	KindIlluminance:   "illuminance",
	KindRealtimeWatt:  "realtime_watt",
	KindPastWattHour:  "past_watt",
	KindPastValues:    "past_values",
	KindSetDate:       "set_date",
	KindLEDOn:         "led_on",
	KindLEDOff:        "led_off",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Valid reports whether k is a known request kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// RequiresDate reports whether the kind carries a caller-supplied date-time.
func (k Kind) RequiresDate() bool {
	switch k {
	case KindPastWattHour, KindPastValues, KindSetDate:
		return true
	}
	return false
}

// ResponseType says which field of a Response is populated.
type ResponseType int

// Response types.
const (
	// ResponseAck is an acknowledgement without a value (init, pairing, date, LED)
	ResponseAck ResponseType = iota + 1
	ResponseTemperature
	ResponseHumidity
	ResponseIlluminance
	ResponseRealtimeWatt
	ResponseHourlyPower
	ResponseHourlyEnvironment
)

func (t ResponseType) String() string {
	switch t {
	case ResponseAck:
		return "ack"
	case ResponseTemperature:
		return "temperature"
	case ResponseHumidity:
		return "humidity"
	case ResponseIlluminance:
		return "illuminance"
	case ResponseRealtimeWatt:
		return "realtime_watt"
	case ResponseHourlyPower:
		return "hourly_power"
	case ResponseHourlyEnvironment:
		return "hourly_environment"
	default:
		return fmt.Sprintf("response(%d)", int(t))
	}
}

// Response is a parsed device response. Only the field selected by Type is
// meaningful.
type Response struct {
	// Type selects the populated field
	Type ResponseType

	// Address is the device address of the connection that produced the response
	Address string

	// Temperature in degrees Celsius, 0.1 resolution
	Temperature float64

	// Humidity in percent
	Humidity int

	// Illuminance in lux
	Illuminance int

	// Watt is the instantaneous power, 0.1 W resolution
	Watt float64

	// HourlyPower holds 24 samples, oldest (24 hours ago) first
	HourlyPower []HourlyPower

	// HourlyEnvironment holds 24 samples, oldest (24 hours ago) first
	HourlyEnvironment []HourlyEnvironment
}

// Reliability is the device's confidence in an hourly power sample.
type Reliability int

// Reliability values. ReliabilityUnknown is used when the device sends a flag
// other than reliable/unreliable.
const (
	ReliabilityUnknown Reliability = iota
	Reliable
	Unreliable
)

func (r Reliability) String() string {
	switch r {
	case Reliable:
		return "reliable"
	case Unreliable:
		return "unreliable"
	default:
		return "unknown"
	}
}

// HourlyPower is one sample of the power history.
type HourlyPower struct {
	// HoursAgo is 1-24
	HoursAgo int

	// Watt is the integrated power of the hour (0-65535)
	Watt int

	// Reliability is the device's reliability flag for the sample
	Reliability Reliability
}

// HourlyEnvironment is one sample of the environment history.
type HourlyEnvironment struct {
	// HoursAgo is 1-24
	HoursAgo int

	// Temperature in degrees Celsius, 0.1 resolution
	Temperature float64

	// Humidity in percent
	Humidity int

	// Illuminance in lux (0-65535)
	Illuminance int
}
