package stoplight

import "github.com/pkg/errors"

// Responder computes the reply value for a decoded JSON request. It is the
// business-logic collaborator; the framer only frames its result.
type Responder interface {
	Respond(request any) (any, error)
}

// ResponderFunc adapts a plain function to the Responder interface.
type ResponderFunc func(request any) (any, error)

// Respond calls f.
func (f ResponderFunc) Respond(request any) (any, error) {
	return f(request)
}

// StatusResponder answers every query with the controller status.
// The status is stubbed to 1 until the LED state query is wired in.
func StatusResponder() Responder {
	return ResponderFunc(func(any) (any, error) {
		return map[string]any{"result": 1}, nil
	})
}

// BuildResponse synthesizes the framed reply for a completed request.
// A JSON request gets the responder's value, serialized as UTF-8 JSON. Any
// other content kind gets an explicitly empty reply tagged "binary": the
// protocol has no generic fallback content, so an empty payload tells the
// peer this content type cannot be answered, without failing the connection.
func BuildResponse(r Responder, p *Payload) ([]byte, error) {
	if p.Kind != ContentJSON {
		return BuildMessage(nil, "", EncodingBinary)
	}

	value, err := r.Respond(p.Value)
	if err != nil {
		return nil, errors.Wrap(err, "respond")
	}
	content, err := jsonEncode(value, EncodingUTF8)
	if err != nil {
		return nil, err
	}
	return BuildMessage(content, ContentTypeJSON, EncodingUTF8)
}
