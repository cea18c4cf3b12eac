package stoplight

import "encoding/binary"

// Decoder assembles one logical message out of arbitrarily fragmented
// byte-stream reads. It advances monotonically through three stages as
// bytes arrive: length prefix, header, then payload. Each stage is an
// idempotent no-op until enough bytes are buffered, so Advance is safe to
// call on every readiness event no matter how little arrived.
//
// Bytes consumed by a stage are dropped from the head of the buffer and
// never re-examined. The decoder holds at most one in-flight message;
// anything buffered past a completed payload is left untouched.
type Decoder struct {
	buf       []byte
	headerLen int // -1 until the length prefix has been consumed
	header    *Header
	payload   *Payload
}

// NewDecoder returns a decoder awaiting the start of a message.
func NewDecoder() *Decoder {
	return &Decoder{headerLen: -1}
}

// Feed appends raw bytes from the transport to the inbound buffer.
func (d *Decoder) Feed(p []byte) {
	d.buf = append(d.buf, p...)
}

// Advance runs every stage whose precondition is satisfiable with the
// bytes buffered so far. It returns nil both on progress and when more
// bytes are needed; a non-nil error is a ProtocolError and is fatal for
// the connection.
func (d *Decoder) Advance() error {
	if d.headerLen < 0 {
		d.nextLength()
	}
	if d.headerLen >= 0 && d.header == nil {
		if err := d.nextHeader(); err != nil {
			return err
		}
	}
	if d.header != nil && d.payload == nil {
		if err := d.nextPayload(); err != nil {
			return err
		}
	}
	return nil
}

// nextLength consumes the 2-byte big-endian header length prefix.
func (d *Decoder) nextLength() {
	if len(d.buf) < lengthPrefixSize {
		return
	}
	d.headerLen = int(binary.BigEndian.Uint16(d.buf[:lengthPrefixSize]))
	d.buf = d.buf[lengthPrefixSize:]
}

// nextHeader consumes and validates the JSON header span.
func (d *Decoder) nextHeader() error {
	if len(d.buf) < d.headerLen {
		return nil
	}
	header, err := decodeHeader(d.buf[:d.headerLen])
	if err != nil {
		return err
	}
	d.buf = d.buf[d.headerLen:]
	d.header = header
	return nil
}

// nextPayload consumes the content span once content-length bytes are in.
func (d *Decoder) nextPayload() error {
	n := d.header.ContentLength
	if len(d.buf) < n {
		return nil
	}
	content := d.buf[:n:n]
	d.buf = d.buf[n:]

	if d.header.kind() == ContentJSON {
		value, err := jsonDecode(content, d.header.ContentEncoding)
		if err != nil {
			return err
		}
		d.payload = &Payload{Kind: ContentJSON, Value: value}
		return nil
	}
	d.payload = &Payload{Kind: ContentOpaque, Raw: content}
	return nil
}

// Complete reports whether a full message has been extracted.
func (d *Decoder) Complete() bool {
	return d.payload != nil
}

// Header returns the decoded header, or nil before the header stage is done.
func (d *Decoder) Header() *Header {
	return d.header
}

// Payload returns the extracted payload, or nil before the message completes.
func (d *Decoder) Payload() *Payload {
	return d.payload
}
