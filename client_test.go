package stoplight

import (
	"errors"
	"net"
	"testing"
)

// serveOnce accepts a single connection and answers it with the given
// responder, mirroring the controller's one-shot behavior.
func serveOnce(t *testing.T, responder Responder) string {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	t.Cleanup(func() { listener.Close() })

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		dec := NewDecoder()
		buf := make([]byte, 1024)
		for !dec.Complete() {
			n, err := conn.Read(buf)
			if n > 0 {
				dec.Feed(buf[:n])
				if dec.Advance() != nil {
					return
				}
			}
			if err != nil {
				return
			}
		}

		resp, err := BuildResponse(responder, dec.Payload())
		if err != nil {
			return
		}
		conn.Write(resp)
	}()

	return listener.Addr().String()
}

func TestClient_Do(t *testing.T) {
	addr := serveOnce(t, StatusResponder())

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	payload, err := client.Do(map[string]any{"cmd": "status"})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}

	if payload.Kind != ContentJSON {
		t.Fatalf("payload kind = %v, want ContentJSON", payload.Kind)
	}
	value, ok := payload.Value.(map[string]any)
	if !ok || value["result"] != float64(1) {
		t.Errorf("payload = %v, want result 1", payload.Value)
	}
}

func TestClient_DoRaw(t *testing.T) {
	addr := serveOnce(t, StatusResponder())

	client, err := Dial(addr)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	payload, err := client.DoRaw([]byte{0x01, 0x02}, "application/octet-stream", EncodingBinary)
	if err != nil {
		t.Fatalf("DoRaw failed: %v", err)
	}

	// Unrecognized content types get an explicitly empty reply.
	if payload.Kind != ContentOpaque {
		t.Fatalf("payload kind = %v, want ContentOpaque", payload.Kind)
	}
	if len(payload.Raw) != 0 {
		t.Errorf("payload has %d bytes, want empty", len(payload.Raw))
	}
}

func TestClient_PeerClosedBeforeResponse(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen failed: %v", err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		// Consume the whole request, then hang up without answering.
		dec := NewDecoder()
		buf := make([]byte, 1024)
		for !dec.Complete() {
			n, err := conn.Read(buf)
			if n > 0 {
				dec.Feed(buf[:n])
				if dec.Advance() != nil {
					break
				}
			}
			if err != nil {
				break
			}
		}
		conn.Close()
	}()

	client, err := Dial(listener.Addr().String())
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer client.Close()

	_, err = client.Do(map[string]any{"cmd": "status"})
	if !errors.Is(err, ErrPeerClosed) {
		t.Errorf("Do = %v, want ErrPeerClosed", err)
	}
}
