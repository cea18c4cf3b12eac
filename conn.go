// Package stoplight implements the stoplight message-framing protocol over
// nonblocking byte-stream sockets. A connection assembles one JSON-framed
// request out of arbitrarily fragmented reads, answers it, and hangs up.
// All progress is driven by readiness events from an external multiplexer;
// no operation ever blocks waiting for bytes.
package stoplight

import (
	"github.com/pkg/errors"
)

// transport is one nonblocking socket endpoint. Implementations map the
// platform's "no data or space right now" condition onto ErrWouldBlock and
// report peer close as a zero-length read.
type transport interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Conn frames one accepted socket. It owns the inbound decoder and the
// outbound buffer; nothing is shared with other connections. The readiness
// multiplexer drives it through HandleReadable and HandleWritable, both of
// which tolerate spurious wakeups.
type Conn struct {
	fd   int
	sock transport
	addr string

	poller Poller
	opts   options

	dec       *Decoder
	out       []byte
	readBuf   []byte
	responded bool
	closed    bool
}

func newConn(fd int, sock transport, addr string, poller Poller, opts options) *Conn {
	return &Conn{
		fd:      fd,
		sock:    sock,
		addr:    addr,
		poller:  poller,
		opts:    opts,
		dec:     NewDecoder(),
		readBuf: make([]byte, opts.chunkSize),
	}
}

// Addr returns the remote address of the connection.
func (c *Conn) Addr() string {
	return c.addr
}

// HandleReadable pulls whatever bytes the socket has ready and advances the
// decode pipeline. A read that would block is a benign no-op; a zero-length
// read means the peer hung up and returns ErrPeerClosed. Decode failures
// return a ProtocolError. Either way the caller must tear the connection
// down on a non-nil return.
func (c *Conn) HandleReadable() error {
	if c.closed {
		return nil
	}

	if err := c.readInto(); err != nil {
		return err
	}
	if err := c.dec.Advance(); err != nil {
		return err
	}

	if c.dec.Complete() && c.dec.Payload().Kind == ContentOpaque && !c.responded {
		// Done reading this request; only write readiness matters now.
		if err := c.poller.Modify(c.fd, WriteInterest); err != nil {
			return errors.Wrap(err, "narrow poller interest")
		}
	}
	return nil
}

// readInto performs one best-effort read of up to one chunk.
func (c *Conn) readInto() error {
	n, err := c.sock.Read(c.readBuf)
	if errors.Is(err, ErrWouldBlock) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "read")
	}
	if n == 0 {
		return ErrPeerClosed
	}

	c.dec.Feed(c.readBuf[:n])
	c.opts.logger.Debug("read", "addr", c.addr, "bytes", n)
	return nil
}

// HandleWritable synthesizes the response once the request is fully decoded
// and flushes the outbound buffer. Safe to call before the request is
// complete; it simply does nothing.
func (c *Conn) HandleWritable() error {
	if c.closed {
		return nil
	}

	if c.dec.Complete() && !c.responded {
		msg, err := BuildResponse(c.opts.responder, c.dec.Payload())
		if err != nil {
			return err
		}
		c.out = append(c.out, msg...)
		c.responded = true
		c.opts.logger.Debug("response queued", "addr", c.addr, "bytes", len(msg))
	}

	return c.flushFrom()
}

// flushFrom performs one best-effort write of the outbound buffer. The
// protocol is one-shot: draining the buffer right after a successful send
// closes the connection.
func (c *Conn) flushFrom() error {
	if len(c.out) == 0 {
		return nil
	}

	n, err := c.sock.Write(c.out)
	if errors.Is(err, ErrWouldBlock) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "write")
	}

	c.out = c.out[n:]
	if n > 0 && len(c.out) == 0 {
		c.Close()
	}
	return nil
}

// Closed reports whether the connection has been torn down.
func (c *Conn) Closed() bool {
	return c.closed
}

// Close unregisters the socket from the multiplexer and closes it.
// Teardown failures are logged and suppressed, so Close always completes
// from the caller's perspective. Repeated calls are no-ops.
func (c *Conn) Close() {
	if c.closed {
		return
	}
	c.closed = true

	if c.poller != nil {
		if err := c.poller.Unregister(c.fd); err != nil {
			c.opts.logger.Error("poller unregister failed", "addr", c.addr, "error", err)
		}
	}
	if err := c.sock.Close(); err != nil {
		c.opts.logger.Error("socket close failed", "addr", c.addr, "error", err)
	}
	c.opts.logger.Info("connection closed", "addr", c.addr)
}
