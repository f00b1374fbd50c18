package fplug

import "github.com/moffa90/go-fplug/protocol"

// ResponseCallback receives the outcome of one request. Exactly one of resp
// and err is non-nil.
//
// Callbacks run on the controller's receiver or timer goroutine and must not
// block; in particular they must not wait for another response from the same
// controller.
//
// Example:
//
//	ctrl.RequestTemperature(func(resp *protocol.Response, err error) {
//	    if err != nil {
//	        log.Println(err)
//	        return
//	    }
//	    fmt.Printf("%.1f C\n", resp.Temperature)
//	})
type ResponseCallback func(resp *protocol.Response, err error)

// ConnectionListener is notified of connection state changes. Register
// pointers (such as *ListenerFuncs) so that RemoveConnectionListener can find
// the listener again.
type ConnectionListener interface {
	// OnConnected is called once the stream to the device is open
	OnConnected(address string)

	// OnDisconnected is called after an open connection is closed, whether by
	// Disconnect or because the stream failed
	OnDisconnected(address string)

	// OnConnectionError is called when a connection attempt fails
	OnConnectionError(address string, err error)
}

// ListenerFuncs adapts plain functions to a ConnectionListener. Nil fields
// are skipped.
//
// Example:
//
//	ctrl.Connect(&fplug.ListenerFuncs{
//	    Connected: func(addr string) { log.Println("connected to", addr) },
//	})
type ListenerFuncs struct {
	Connected       func(address string)
	Disconnected    func(address string)
	ConnectionError func(address string, err error)
}

func (f *ListenerFuncs) OnConnected(address string) {
	if f.Connected != nil {
		f.Connected(address)
	}
}

func (f *ListenerFuncs) OnDisconnected(address string) {
	if f.Disconnected != nil {
		f.Disconnected(address)
	}
}

func (f *ListenerFuncs) OnConnectionError(address string, err error) {
	if f.ConnectionError != nil {
		f.ConnectionError(address, err)
	}
}

// Logger is an optional logging interface that can be provided to the controller.
// This allows integration with any logging framework; NewZapLogger adapts a
// *zap.Logger.
//
// Example with standard log package:
//
//	type StdLogger struct{}
//	func (l *StdLogger) Debug(msg string, kv ...interface{}) { log.Println(msg, kv) }
//	func (l *StdLogger) Info(msg string, kv ...interface{})  { log.Println(msg, kv) }
//	func (l *StdLogger) Error(msg string, kv ...interface{}) { log.Println(msg, kv) }
//
//	ctrl := fplug.New(addr, connector, fplug.WithLogger(&StdLogger{}))
type Logger interface {
	// Debug logs a debug message with optional key-value pairs
	Debug(msg string, keysAndValues ...interface{})

	// Info logs an info message with optional key-value pairs
	Info(msg string, keysAndValues ...interface{})

	// Error logs an error message with optional key-value pairs
	Error(msg string, keysAndValues ...interface{})
}
