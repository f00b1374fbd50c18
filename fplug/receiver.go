package fplug

import (
	"encoding/hex"
	"errors"
	"io"
	"sync/atomic"

	"github.com/moffa90/go-fplug/protocol"
)

// receiver reads the stream of one connection and hands decoded results to
// the controller. It exits when a read fails, which includes the stream being
// closed.
type receiver struct {
	ctrl    *Controller
	stream  io.Reader
	gen     uint64
	bufSize int
	decoder *protocol.Decoder

	// reset asks the read loop to drop decoder state before the next chunk
	reset atomic.Bool

	// delivering is set, under the controller's mu, from the moment a result
	// is attributed to a request until its callback has returned
	delivering bool

	done chan struct{}
}

func newReceiver(ctrl *Controller, stream io.Reader, gen uint64) *receiver {
	return &receiver{
		ctrl:    ctrl,
		stream:  stream,
		gen:     gen,
		bufSize: ctrl.config.ReadBufferSize,
		decoder: protocol.NewDecoder(),
		done:    make(chan struct{}),
	}
}

func (r *receiver) start() {
	go r.run()
}

func (r *receiver) run() {
	defer close(r.done)

	buf := make([]byte, r.bufSize)
	for {
		n, err := r.stream.Read(buf)
		if n > 0 {
			r.feed(buf[:n])
		}
		if err != nil {
			r.ctrl.handleStreamError(r.gen, err)
			return
		}
	}
}

func (r *receiver) feed(chunk []byte) {
	if r.reset.Swap(false) {
		r.decoder.Reset()
	}

	r.ctrl.logDebug("received chunk", "address", r.ctrl.address, "data", hex.EncodeToString(chunk))

	for _, res := range r.decoder.Feed(chunk) {
		var unknown *protocol.UnknownFrameError
		if errors.As(res.Err, &unknown) {
			r.ctrl.logInfo("dropping unknown frame", "address", r.ctrl.address, "frame", unknown.Hex())
			r.ctrl.metrics.unknownFrame()
			continue
		}

		r.ctrl.handleResult(r, res)
	}
}

// requestReset makes the next chunk start from a clean decoder.
func (r *receiver) requestReset() {
	r.reset.Store(true)
}

// wait blocks until the read loop has exited.
func (r *receiver) wait() {
	<-r.done
}
