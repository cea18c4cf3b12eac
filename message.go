package stoplight

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Wire-level constants for a stoplight frame. A frame is a 2-byte
// big-endian header length, the UTF-8 JSON header, then the content bytes
// announced by the header.
const (
	// lengthPrefixSize is the fixed size of the header length prefix.
	lengthPrefixSize = 2

	// ContentTypeJSON tags structured request/response content.
	ContentTypeJSON = "text/json"

	// EncodingUTF8 is the default text encoding for JSON content.
	EncodingUTF8 = "utf-8"
	// EncodingBinary tags content that carries no text encoding.
	EncodingBinary = "binary"
)

// Header is the self-describing JSON header carried by every frame.
// All four fields are required on the wire.
type Header struct {
	ByteOrder       string `json:"byteorder"`
	ContentType     string `json:"content-type"`
	ContentEncoding string `json:"content-encoding"`
	ContentLength   int    `json:"content-length"`
}

// requiredHeaderFields must all be present in a decoded header.
var requiredHeaderFields = []string{
	"byteorder",
	"content-type",
	"content-encoding",
	"content-length",
}

// ContentKind classifies frame content. It is decided once, when the
// header is decoded; later stages never re-inspect the content-type string.
type ContentKind int

const (
	// ContentJSON is structured content, decoded into a Go value.
	ContentJSON ContentKind = iota
	// ContentOpaque is any other content, passed through as raw bytes.
	ContentOpaque
)

// Payload is the extracted content of one frame.
type Payload struct {
	Kind ContentKind

	// Value holds the decoded JSON value when Kind is ContentJSON.
	Value any
	// Raw holds the untouched content bytes when Kind is ContentOpaque.
	Raw []byte
}

// nativeByteOrder reports the byte order tag of the local system, which is
// advertised in every outgoing header.
func nativeByteOrder() string {
	b := binary.NativeEndian.AppendUint16(nil, 1)
	if b[0] == 1 {
		return "little"
	}
	return "big"
}

// BuildMessage wraps content bytes into a complete wire frame. It is a pure
// function and the exact inverse of the decode pipeline: decoding its output
// yields the same content, type and encoding back.
func BuildMessage(content []byte, contentType, contentEncoding string) ([]byte, error) {
	header := Header{
		ByteOrder:       nativeByteOrder(),
		ContentType:     contentType,
		ContentEncoding: contentEncoding,
		ContentLength:   len(content),
	}

	headerBytes, err := json.Marshal(header)
	if err != nil {
		return nil, errors.Wrap(err, "encode header")
	}
	if len(headerBytes) > math.MaxUint16 {
		return nil, errors.Errorf("header too large: %d bytes", len(headerBytes))
	}

	msg := make([]byte, 0, lengthPrefixSize+len(headerBytes)+len(content))
	msg = binary.BigEndian.AppendUint16(msg, uint16(len(headerBytes)))
	msg = append(msg, headerBytes...)
	msg = append(msg, content...)
	return msg, nil
}

// decodeHeader parses one header span and validates the required fields.
func decodeHeader(b []byte) (*Header, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return nil, &ProtocolError{Reason: "malformed header: " + err.Error()}
	}
	for _, name := range requiredHeaderFields {
		if _, ok := fields[name]; !ok {
			return nil, &ProtocolError{Reason: fmt.Sprintf("missing required header field %q", name)}
		}
	}

	var h Header
	if err := json.Unmarshal(b, &h); err != nil {
		return nil, &ProtocolError{Reason: "malformed header: " + err.Error()}
	}
	if h.ContentLength < 0 {
		return nil, &ProtocolError{Reason: "negative content-length"}
	}
	return &h, nil
}

// kind maps the declared content type onto the closed content kind set.
func (h *Header) kind() ContentKind {
	if h.ContentType == ContentTypeJSON {
		return ContentJSON
	}
	return ContentOpaque
}

// jsonEncode serializes v as JSON in the given text encoding.
func jsonEncode(v any, contentEncoding string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "encode content")
	}
	return transcodeFromUTF8(b, contentEncoding)
}

// jsonDecode parses JSON content declared to be in the given text encoding.
func jsonDecode(b []byte, contentEncoding string) (any, error) {
	text, err := transcodeToUTF8(b, contentEncoding)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(text, &v); err != nil {
		return nil, &ProtocolError{Reason: "malformed JSON content: " + err.Error()}
	}
	return v, nil
}

// charset resolves a declared content-encoding to its IANA charset codec.
func charset(name string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("unsupported content-encoding %q", name)}
	}
	return enc, nil
}

func transcodeToUTF8(b []byte, name string) ([]byte, error) {
	if name == EncodingUTF8 {
		return b, nil
	}
	enc, err := charset(name)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return nil, &ProtocolError{Reason: fmt.Sprintf("decode %s content: %v", name, err)}
	}
	return out, nil
}

func transcodeFromUTF8(b []byte, name string) ([]byte, error) {
	if name == EncodingUTF8 {
		return b, nil
	}
	enc, err := charset(name)
	if err != nil {
		return nil, err
	}
	out, err := enc.NewEncoder().Bytes(b)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s content", name)
	}
	return out, nil
}
