package stoplight

import (
	"io"
	"net"

	"github.com/pkg/errors"
)

// Client speaks one request/response exchange with a stoplight controller.
// The protocol is strictly one-shot: after a successful exchange the
// controller hangs up and the client is spent.
type Client struct {
	conn net.Conn
	opts options
}

// Dial connects to a stoplight controller.
func Dial(addr string, opt ...Option) (*Client, error) {
	var opts options
	for _, o := range opt {
		o(&opts)
	}
	checkOptions(&opts)

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "dial")
	}
	return &Client{conn: conn, opts: opts}, nil
}

// Do sends a JSON request and returns the decoded response payload.
func (c *Client) Do(request any) (*Payload, error) {
	content, err := jsonEncode(request, EncodingUTF8)
	if err != nil {
		return nil, err
	}
	return c.roundTrip(content, ContentTypeJSON, EncodingUTF8)
}

// DoRaw sends opaque content with explicit type and encoding tags. The
// controller answers such requests with an empty binary-tagged reply.
func (c *Client) DoRaw(content []byte, contentType, contentEncoding string) (*Payload, error) {
	return c.roundTrip(content, contentType, contentEncoding)
}

func (c *Client) roundTrip(content []byte, contentType, contentEncoding string) (*Payload, error) {
	msg, err := BuildMessage(content, contentType, contentEncoding)
	if err != nil {
		return nil, err
	}
	if _, err = c.conn.Write(msg); err != nil {
		return nil, errors.Wrap(err, "write request")
	}

	dec := NewDecoder()
	buf := make([]byte, c.opts.chunkSize)
	for !dec.Complete() {
		n, err := c.conn.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
			if derr := dec.Advance(); derr != nil {
				return nil, derr
			}
		}
		if err != nil {
			if dec.Complete() {
				break
			}
			if errors.Is(err, io.EOF) {
				return nil, ErrPeerClosed
			}
			return nil, errors.Wrap(err, "read response")
		}
	}
	return dec.Payload(), nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}
