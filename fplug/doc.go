// Package fplug provides a high-level API for talking to F-PLUG smart plugs.
//
// # Overview
//
// A Controller owns the connection to one device and serialises requests to
// it:
//   - Opening and closing the stream through a Connector
//   - Queueing up to four requests (configurable)
//   - Keeping exactly one request on the wire at a time
//   - Decoding responses and handing them to the request's callback
//   - Failing requests that get no answer within five seconds
//
// # Basic Usage
//
//	// The transport package provides serial and TCP connectors
//	ctrl := fplug.New("/dev/rfcomm0", transport.NewSerialConnector())
//
//	if err := ctrl.ConnectContext(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.Disconnect()
//
//	temp, err := ctrl.Temperature(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%.1f C\n", temp)
//
// # Asynchronous Requests
//
// The Request* methods return at once and call back later:
//
//	err := ctrl.RequestPastValues(time.Now(), func(resp *protocol.Response, err error) {
//	    if err != nil {
//	        log.Println(err)
//	        return
//	    }
//	    for _, h := range resp.HourlyEnvironment {
//	        fmt.Println(h.HoursAgo, h.Temperature, h.Humidity, h.Illuminance)
//	    }
//	})
//	if errors.Is(err, fplug.ErrQueueFull) {
//	    // back off and retry
//	}
//
// Every accepted request is resolved exactly once: with a response, a device
// failure (*protocol.ProtocolError), ErrTimeout, ErrNotConnected or an
// *IOError.
//
// # Connection Events
//
// Register a ConnectionListener to follow the connection:
//
//	ctrl.AddConnectionListener(&fplug.ListenerFuncs{
//	    Disconnected: func(addr string) { log.Println("lost", addr) },
//	})
//
// A read error on the stream disconnects the controller and notifies the
// listeners.
//
// # Logging and Metrics
//
// Pass a Logger with WithLogger (NewZapLogger adapts zap), and a Prometheus
// registerer with WithMetrics:
//
//	ctrl := fplug.New(addr, connector,
//	    fplug.WithLogger(fplug.NewZapLogger(zapLogger)),
//	    fplug.WithMetrics(prometheus.DefaultRegisterer),
//	)
package fplug
