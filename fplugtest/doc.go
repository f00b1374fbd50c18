// Package fplugtest provides a simulated F-PLUG for tests, examples and the
// fplugctl --simulate mode.
//
// Example:
//
//	dev := fplugtest.NewDevice()
//	dev.Silence(protocol.KindHumidity, true) // humidity requests time out
//
//	ctrl := fplug.New("sim", dev.Connector())
//	_ = ctrl.ConnectContext(ctx)
//	temp, _ := ctrl.Temperature(ctx) // 21.5
package fplugtest
