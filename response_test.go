package stoplight

import (
	"testing"
)

func TestBuildResponse_JSON(t *testing.T) {
	req := &Payload{Kind: ContentJSON, Value: map[string]any{"cmd": "status"}}

	msg, err := BuildResponse(StatusResponder(), req)
	if err != nil {
		t.Fatalf("BuildResponse failed: %v", err)
	}

	h, p := decodeFrame(t, msg)
	if h.ContentType != ContentTypeJSON {
		t.Errorf("content-type = %q, want %q", h.ContentType, ContentTypeJSON)
	}
	if h.ContentEncoding != EncodingUTF8 {
		t.Errorf("content-encoding = %q, want %q", h.ContentEncoding, EncodingUTF8)
	}
	value, ok := p.Value.(map[string]any)
	if !ok || value["result"] != float64(1) {
		t.Errorf("payload = %v, want result 1", p.Value)
	}
}

func TestBuildResponse_Opaque(t *testing.T) {
	req := &Payload{Kind: ContentOpaque, Raw: []byte{0xde, 0xad}}

	msg, err := BuildResponse(StatusResponder(), req)
	if err != nil {
		t.Fatalf("BuildResponse failed: %v", err)
	}

	h, p := decodeFrame(t, msg)
	if h.ContentType != "" {
		t.Errorf("content-type = %q, want empty", h.ContentType)
	}
	if h.ContentEncoding != EncodingBinary {
		t.Errorf("content-encoding = %q, want %q", h.ContentEncoding, EncodingBinary)
	}
	if h.ContentLength != 0 || len(p.Raw) != 0 {
		t.Errorf("expected empty content, got %d bytes", h.ContentLength)
	}
}

func TestBuildResponse_CustomResponder(t *testing.T) {
	echo := ResponderFunc(func(request any) (any, error) {
		return map[string]any{"echo": request}, nil
	})
	req := &Payload{Kind: ContentJSON, Value: map[string]any{"cmd": "ping"}}

	msg, err := BuildResponse(echo, req)
	if err != nil {
		t.Fatalf("BuildResponse failed: %v", err)
	}

	_, p := decodeFrame(t, msg)
	value, ok := p.Value.(map[string]any)
	if !ok {
		t.Fatalf("payload = %v, want object", p.Value)
	}
	inner, ok := value["echo"].(map[string]any)
	if !ok || inner["cmd"] != "ping" {
		t.Errorf("payload = %v, want echoed request", p.Value)
	}
}
