package fplug

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"reflect"
	"sync"
	"time"

	"github.com/moffa90/go-fplug/protocol"
)

// State is the connection state of a Controller.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// request is one queued or in-flight request.
type request struct {
	kind     protocol.Kind
	at       time.Time
	callback ResponseCallback
	sent     time.Time
}

// Controller manages one F-PLUG device: its connection, a bounded FIFO of
// requests, and the single request in flight.
//
// At most one request is outstanding on the wire. A response is attributed to
// the in-flight request by arrival order; when none arrives within the
// response timeout the request fails with ErrTimeout and the next one is sent.
//
// Controller is safe for concurrent use.
type Controller struct {
	address   string
	connector Connector
	config    Config
	metrics   *metrics

	// writeMu serialises stream writes, which happen without mu held
	writeMu sync.Mutex

	mu         sync.Mutex
	state      State
	generation uint64
	stream     io.ReadWriteCloser
	receiver   *receiver
	cancelDial context.CancelFunc
	attempt    []ConnectionListener
	listeners  []ConnectionListener
	queue      []*request
	inFlight   *request
	timer      *time.Timer
	tids       protocol.TransactionCounter
}

// New creates a Controller for the device at address. The connector opens the
// stream when Connect is called.
//
// Example:
//
//	ctrl := fplug.New("/dev/rfcomm0", transport.NewSerialConnector(),
//	    fplug.WithResponseTimeout(5*time.Second),
//	)
func New(address string, connector Connector, opts ...Option) *Controller {
	if connector == nil {
		panic("connector cannot be nil")
	}
	if address == "" {
		panic("address cannot be empty")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Controller{
		address:   address,
		connector: connector,
		config:    cfg,
	}

	m, err := newMetrics(cfg.Registerer, address)
	if err != nil {
		c.logError("metrics disabled", "address", address, "error", err)
	}
	c.metrics = m
	c.metrics.setState(StateDisconnected)
	return c
}

// Address returns the device address.
func (c *Controller) Address() string {
	return c.address
}

// State returns the current connection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of queued plus in-flight requests.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

func (c *Controller) pendingLocked() int {
	n := len(c.queue)
	if c.inFlight != nil {
		n++
	}
	return n
}

// AddConnectionListener registers l for every later state change.
func (c *Controller) AddConnectionListener(l ConnectionListener) {
	if l == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// RemoveConnectionListener unregisters l. Listeners are matched with ==, so
// a listener whose type is not comparable cannot be removed and l is ignored.
func (c *Controller) RemoveConnectionListener(l ConnectionListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.listeners[:0]
	for _, existing := range c.listeners {
		if !sameListener(existing, l) {
			kept = append(kept, existing)
		}
	}
	for i := len(kept); i < len(c.listeners); i++ {
		c.listeners[i] = nil
	}
	c.listeners = kept
}

// sameListener compares a and b without panicking on types that are not
// comparable.
func sameListener(a, b ConnectionListener) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || ta == nil || !ta.Comparable() {
		return false
	}
	return a == b
}

// Connect opens the stream in the background. listener, which may be nil, is
// told the outcome of this attempt in addition to the registered listeners.
//
// When already connected, listener.OnConnected is called right away. When an
// attempt is already running, listener joins it.
func (c *Controller) Connect(listener ConnectionListener) {
	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		if listener != nil {
			listener.OnConnected(c.address)
		}
		return
	case StateConnecting:
		if listener != nil {
			c.attempt = append(c.attempt, listener)
		}
		c.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	if c.config.ConnectTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.config.ConnectTimeout)
		parent := cancel
		cancel = func() {
			cancelTimeout()
			parent()
		}
	}

	c.state = StateConnecting
	c.generation++
	gen := c.generation
	c.cancelDial = cancel
	c.attempt = nil
	if listener != nil {
		c.attempt = append(c.attempt, listener)
	}
	c.metrics.setState(StateConnecting)
	c.mu.Unlock()

	c.logInfo("connecting", "address", c.address)
	go c.dial(ctx, cancel, gen)
}

// ConnectContext connects and waits for the outcome.
//
// Example:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	if err := ctrl.ConnectContext(ctx); err != nil {
//	    log.Fatal(err)
//	}
func (c *Controller) ConnectContext(ctx context.Context) error {
	result := make(chan error, 1)
	c.Connect(&ListenerFuncs{
		Connected:       func(string) { result <- nil },
		ConnectionError: func(_ string, err error) { result <- err },
	})

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) dial(ctx context.Context, cancel context.CancelFunc, gen uint64) {
	defer cancel()

	stream, err := c.connector.Open(ctx, c.address)

	c.mu.Lock()
	if c.generation != gen || c.state != StateConnecting {
		// Disconnect ran while the attempt was in progress.
		c.mu.Unlock()
		if stream != nil {
			_ = stream.Close()
		}
		return
	}

	// registered listeners first, then the callers waiting on this attempt
	listeners := append(append([]ConnectionListener(nil), c.listeners...), c.attempt...)
	c.attempt = nil
	c.cancelDial = nil

	if err != nil {
		c.state = StateDisconnected
		c.metrics.setState(StateDisconnected)
		c.mu.Unlock()

		err = &IOError{Op: "connect", Err: err}
		c.logError("connection failed", "address", c.address, "error", err)
		for _, l := range listeners {
			l.OnConnectionError(c.address, err)
		}
		return
	}

	c.stream = stream
	c.state = StateConnected
	c.receiver = newReceiver(c, stream, gen)
	c.receiver.start()
	c.metrics.setState(StateConnected)
	c.mu.Unlock()

	c.logInfo("connected", "address", c.address)
	for _, l := range listeners {
		l.OnConnected(c.address)
	}
	c.dispatch()
}

// Disconnect closes the connection. The in-flight request and every queued
// request fail with ErrNotConnected before Disconnect returns, and no
// response from the closed connection is delivered afterwards. A callback
// that had already started may still be running when Disconnect returns,
// which is what lets a callback call Disconnect. A connection attempt in
// progress is abandoned and reported as a connection error.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	switch c.state {
	case StateDisconnected:
		c.mu.Unlock()
		return

	case StateConnecting:
		cancel := c.cancelDial
		listeners := append(append([]ConnectionListener(nil), c.listeners...), c.attempt...)
		c.attempt = nil
		c.cancelDial = nil
		c.state = StateDisconnected
		c.generation++
		c.metrics.setState(StateDisconnected)
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		c.logInfo("connection attempt cancelled", "address", c.address)
		err := &IOError{Op: "connect", Err: context.Canceled}
		for _, l := range listeners {
			l.OnConnectionError(c.address, err)
		}
		c.dispatch()
		return
	}

	// A receiver whose callback has already started is not joined: that
	// callback may be the caller. It took its request before this point and
	// nothing else from the connection is delivered once the generation moves.
	recv := c.receiver
	join := !recv.delivering
	stream, inFlight, listeners := c.teardownLocked()
	c.mu.Unlock()

	_ = stream.Close()
	if join {
		recv.wait()
	}

	c.logInfo("disconnected", "address", c.address)
	c.finishTeardown(inFlight, ErrNotConnected, listeners)
}

// handleStreamError is called by the receiver when a read fails. An error on
// the current connection disconnects it.
func (c *Controller) handleStreamError(gen uint64, err error) {
	c.mu.Lock()
	if c.generation != gen || c.state != StateConnected {
		c.mu.Unlock()
		return
	}
	stream, inFlight, listeners := c.teardownLocked()
	c.mu.Unlock()

	_ = stream.Close()

	c.logError("connection lost", "address", c.address, "error", err)
	c.finishTeardown(inFlight, fmt.Errorf("%w: %w", ErrNotConnected, &IOError{Op: "read", Err: err}), listeners)
}

// teardownLocked moves the controller to Disconnected and hands back what
// must be closed and resolved once mu is released.
func (c *Controller) teardownLocked() (io.ReadWriteCloser, *request, []ConnectionListener) {
	stream, inFlight := c.stream, c.inFlight

	c.state = StateDisconnected
	c.generation++
	c.stream = nil
	c.receiver = nil
	c.inFlight = nil
	c.stopTimerLocked()
	c.metrics.setState(StateDisconnected)

	listeners := append([]ConnectionListener(nil), c.listeners...)
	return stream, inFlight, listeners
}

func (c *Controller) finishTeardown(inFlight *request, err error, listeners []ConnectionListener) {
	if inFlight != nil {
		c.resolve(inFlight, nil, err)
	}
	for _, l := range listeners {
		l.OnDisconnected(c.address)
	}
	// Requests still queued now fail with ErrNotConnected.
	c.dispatch()
}

// Request queues a request of the given kind. at is required for
// KindPastWattHour, KindPastValues and KindSetDate; for KindInit and
// KindWattHour a zero at means the controller clock at send time.
//
// Request returns ErrQueueFull, or an error wrapping
// protocol.ErrMalformedCommand, without queueing anything. Otherwise callback
// is eventually called exactly once.
func (c *Controller) Request(kind protocol.Kind, at time.Time, callback ResponseCallback) error {
	if err := protocol.ValidateRequest(kind, at); err != nil {
		return err
	}

	c.mu.Lock()
	if c.pendingLocked() >= c.config.QueueCapacity {
		c.mu.Unlock()
		c.metrics.rejected(kind)
		c.logDebug("request rejected", "address", c.address, "kind", kind.String(), "reason", ErrQueueFull)
		return ErrQueueFull
	}
	c.queue = append(c.queue, &request{kind: kind, at: at, callback: callback})
	c.metrics.setQueueDepth(len(c.queue))
	c.mu.Unlock()

	c.dispatch()
	return nil
}

// dispatch sends the head of the queue when nothing is in flight. Requests
// that reach the head while not connected, or that cannot be encoded or
// written, are resolved with an error and the next one is tried.
func (c *Controller) dispatch() {
	for {
		c.mu.Lock()
		if c.inFlight != nil || len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}

		req := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]
		c.metrics.setQueueDepth(len(c.queue))

		if c.state != StateConnected {
			c.mu.Unlock()
			c.resolve(req, nil, ErrNotConnected)
			continue
		}

		at := req.at
		if at.IsZero() {
			at = c.config.Clock()
		}
		tid := c.tids.Next()
		frame, err := protocol.BuildCmd(req.kind, tid, at)
		if err != nil {
			c.mu.Unlock()
			c.resolve(req, nil, err)
			continue
		}

		req.sent = time.Now()
		c.inFlight = req
		c.timer = time.AfterFunc(c.config.ResponseTimeout, func() { c.handleTimeout(req) })
		stream := c.stream
		c.mu.Unlock()

		c.logDebug("sending request",
			"address", c.address,
			"kind", req.kind.String(),
			"tid", fmt.Sprintf("0x%04X", tid),
			"frame", hex.EncodeToString(frame),
		)

		if err := c.write(stream, frame); err != nil {
			c.mu.Lock()
			if c.inFlight != req {
				// Already resolved by a timeout or disconnect.
				c.mu.Unlock()
				return
			}
			c.inFlight = nil
			c.stopTimerLocked()
			c.mu.Unlock()

			err = &IOError{Op: "write", Err: err}
			c.resolve(req, nil, err)
			c.logError("write failed", "address", c.address, "kind", req.kind.String(), "error", err)
			continue
		}
		return
	}
}

func (c *Controller) write(stream io.Writer, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	for len(frame) > 0 {
		n, err := stream.Write(frame)
		if err != nil {
			return err
		}
		frame = frame[n:]
	}
	return nil
}

// handleResult attributes a result decoded by r to the in-flight request.
func (c *Controller) handleResult(r *receiver, res protocol.Result) {
	c.mu.Lock()
	if c.generation != r.gen {
		c.mu.Unlock()
		return
	}
	req := c.inFlight
	if req == nil {
		c.mu.Unlock()
		c.logDebug("dropping response with no request in flight", "address", c.address, "error", res.Err)
		return
	}
	c.inFlight = nil
	c.stopTimerLocked()
	r.delivering = true
	c.mu.Unlock()

	if res.Response != nil {
		res.Response.Address = c.address
	}
	c.resolve(req, res.Response, res.Err)

	c.mu.Lock()
	r.delivering = false
	c.mu.Unlock()

	c.dispatch()
}

func (c *Controller) handleTimeout(req *request) {
	c.mu.Lock()
	if c.inFlight != req {
		c.mu.Unlock()
		return
	}
	c.inFlight = nil
	c.timer = nil
	if c.receiver != nil {
		// Any partial response belongs to the request that just timed out.
		c.receiver.requestReset()
	}
	c.mu.Unlock()

	err := fmt.Errorf("%w: no answer to %s within %s", ErrTimeout, req.kind, c.config.ResponseTimeout)
	c.resolve(req, nil, err)
	c.logError("request timed out", "address", c.address, "kind", req.kind.String())
	c.dispatch()
}

func (c *Controller) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// resolve records the outcome of req and runs its callback. mu must not be
// held. Nothing that calls out of the package, the logger included, runs
// between taking req off the controller and its callback.
func (c *Controller) resolve(req *request, resp *protocol.Response, err error) {
	var elapsed time.Duration
	if !req.sent.IsZero() {
		elapsed = time.Since(req.sent)
	}
	c.metrics.observe(req.kind, err, elapsed)

	if req.callback != nil {
		req.callback(resp, err)
	}

	if err != nil {
		c.logDebug("request failed", "address", c.address, "kind", req.kind.String(), "error", err)
	} else {
		c.logDebug("request completed", "address", c.address, "kind", req.kind.String(), "type", resp.Type.String())
	}
}
