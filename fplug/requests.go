package fplug

import (
	"context"
	"time"

	"github.com/moffa90/go-fplug/protocol"
)

// RequestInitPlug initialises the plug and sets its clock to the controller clock.
func (c *Controller) RequestInitPlug(callback ResponseCallback) error {
	return c.Request(protocol.KindInit, time.Time{}, callback)
}

// RequestCancelPairing cancels the plug's pairing.
func (c *Controller) RequestCancelPairing(callback ResponseCallback) error {
	return c.Request(protocol.KindCancelPairing, time.Time{}, callback)
}

// RequestWattHour reads the power history of the last 24 hours.
func (c *Controller) RequestWattHour(callback ResponseCallback) error {
	return c.Request(protocol.KindWattHour, time.Time{}, callback)
}

// RequestTemperature reads the temperature in degrees Celsius.
func (c *Controller) RequestTemperature(callback ResponseCallback) error {
	return c.Request(protocol.KindTemperature, time.Time{}, callback)
}

// RequestHumidity reads the relative humidity in percent.
func (c *Controller) RequestHumidity(callback ResponseCallback) error {
	return c.Request(protocol.KindHumidity, time.Time{}, callback)
}

// RequestIlluminance reads the illuminance in lux.
func (c *Controller) RequestIlluminance(callback ResponseCallback) error {
	return c.Request(protocol.KindIlluminance, time.Time{}, callback)
}

// RequestRealtimeWatt reads the instantaneous power in watts.
func (c *Controller) RequestRealtimeWatt(callback ResponseCallback) error {
	return c.Request(protocol.KindRealtimeWatt, time.Time{}, callback)
}

// RequestPastWattHour reads the 24 hours of power history ending at at.
func (c *Controller) RequestPastWattHour(at time.Time, callback ResponseCallback) error {
	return c.Request(protocol.KindPastWattHour, at, callback)
}

// RequestPastValues reads the 24 hours of environment history ending at at.
func (c *Controller) RequestPastValues(at time.Time, callback ResponseCallback) error {
	return c.Request(protocol.KindPastValues, at, callback)
}

// RequestSetDate sets the plug clock to at.
func (c *Controller) RequestSetDate(at time.Time, callback ResponseCallback) error {
	return c.Request(protocol.KindSetDate, at, callback)
}

// RequestLEDOn turns the plug LED on.
func (c *Controller) RequestLEDOn(callback ResponseCallback) error {
	return c.Request(protocol.KindLEDOn, time.Time{}, callback)
}

// RequestLEDOff turns the plug LED off.
func (c *Controller) RequestLEDOff(callback ResponseCallback) error {
	return c.Request(protocol.KindLEDOff, time.Time{}, callback)
}

// Do queues a request and waits for its outcome or for ctx to end. A request
// abandoned through ctx stays queued and is still sent.
//
// Example:
//
//	resp, err := ctrl.Do(ctx, protocol.KindPastValues, time.Now())
func (c *Controller) Do(ctx context.Context, kind protocol.Kind, at time.Time) (*protocol.Response, error) {
	type result struct {
		resp *protocol.Response
		err  error
	}

	done := make(chan result, 1)
	err := c.Request(kind, at, func(resp *protocol.Response, err error) {
		done <- result{resp, err}
	})
	if err != nil {
		return nil, err
	}

	select {
	case r := <-done:
		return r.resp, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// expect runs Do and checks the response type.
func (c *Controller) expect(ctx context.Context, kind protocol.Kind, at time.Time, want protocol.ResponseType) (*protocol.Response, error) {
	resp, err := c.Do(ctx, kind, at)
	if err != nil {
		return nil, err
	}
	if resp.Type != want {
		return nil, &UnexpectedResponseError{Kind: kind, Type: resp.Type}
	}
	return resp, nil
}

// Temperature reads the temperature in degrees Celsius.
//
// Example:
//
//	temp, err := ctrl.Temperature(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%.1f C\n", temp)
func (c *Controller) Temperature(ctx context.Context) (float64, error) {
	resp, err := c.expect(ctx, protocol.KindTemperature, time.Time{}, protocol.ResponseTemperature)
	if err != nil {
		return 0, err
	}
	return resp.Temperature, nil
}

// Humidity reads the relative humidity in percent.
func (c *Controller) Humidity(ctx context.Context) (int, error) {
	resp, err := c.expect(ctx, protocol.KindHumidity, time.Time{}, protocol.ResponseHumidity)
	if err != nil {
		return 0, err
	}
	return resp.Humidity, nil
}

// Illuminance reads the illuminance in lux.
func (c *Controller) Illuminance(ctx context.Context) (int, error) {
	resp, err := c.expect(ctx, protocol.KindIlluminance, time.Time{}, protocol.ResponseIlluminance)
	if err != nil {
		return 0, err
	}
	return resp.Illuminance, nil
}

// RealtimeWatt reads the instantaneous power in watts.
func (c *Controller) RealtimeWatt(ctx context.Context) (float64, error) {
	resp, err := c.expect(ctx, protocol.KindRealtimeWatt, time.Time{}, protocol.ResponseRealtimeWatt)
	if err != nil {
		return 0, err
	}
	return resp.Watt, nil
}

// WattHour reads the power history of the last 24 hours, oldest first.
func (c *Controller) WattHour(ctx context.Context) ([]protocol.HourlyPower, error) {
	resp, err := c.expect(ctx, protocol.KindWattHour, time.Time{}, protocol.ResponseHourlyPower)
	if err != nil {
		return nil, err
	}
	return resp.HourlyPower, nil
}

// PastWattHour reads the 24 hours of power history ending at at.
func (c *Controller) PastWattHour(ctx context.Context, at time.Time) ([]protocol.HourlyPower, error) {
	resp, err := c.expect(ctx, protocol.KindPastWattHour, at, protocol.ResponseHourlyPower)
	if err != nil {
		return nil, err
	}
	return resp.HourlyPower, nil
}

// PastValues reads the 24 hours of environment history ending at at.
func (c *Controller) PastValues(ctx context.Context, at time.Time) ([]protocol.HourlyEnvironment, error) {
	resp, err := c.expect(ctx, protocol.KindPastValues, at, protocol.ResponseHourlyEnvironment)
	if err != nil {
		return nil, err
	}
	return resp.HourlyEnvironment, nil
}

// InitPlug initialises the plug and sets its clock.
func (c *Controller) InitPlug(ctx context.Context) error {
	_, err := c.expect(ctx, protocol.KindInit, time.Time{}, protocol.ResponseAck)
	return err
}

// CancelPairing cancels the plug's pairing.
func (c *Controller) CancelPairing(ctx context.Context) error {
	_, err := c.expect(ctx, protocol.KindCancelPairing, time.Time{}, protocol.ResponseAck)
	return err
}

// SetDate sets the plug clock to at.
func (c *Controller) SetDate(ctx context.Context, at time.Time) error {
	_, err := c.expect(ctx, protocol.KindSetDate, at, protocol.ResponseAck)
	return err
}

// LEDOn turns the plug LED on.
func (c *Controller) LEDOn(ctx context.Context) error {
	_, err := c.expect(ctx, protocol.KindLEDOn, time.Time{}, protocol.ResponseAck)
	return err
}

// LEDOff turns the plug LED off.
func (c *Controller) LEDOff(ctx context.Context) error {
	_, err := c.expect(ctx, protocol.KindLEDOff, time.Time{}, protocol.ResponseAck)
	return err
}
