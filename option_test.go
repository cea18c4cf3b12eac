package stoplight

import (
	"log/slog"
	"testing"
)

func TestCheckOptions_Defaults(t *testing.T) {
	var opts options
	checkOptions(&opts)

	if opts.responder == nil {
		t.Error("responder should have a default")
	}
	if opts.logger == nil {
		t.Error("logger should have a default")
	}
	if opts.chunkSize != defaultChunkSize {
		t.Errorf("chunkSize = %d, want %d", opts.chunkSize, defaultChunkSize)
	}
}

func TestCheckOptions_DefaultResponder(t *testing.T) {
	var opts options
	checkOptions(&opts)

	value, err := opts.responder.Respond(map[string]any{"cmd": "status"})
	if err != nil {
		t.Fatalf("default responder failed: %v", err)
	}
	result, ok := value.(map[string]any)
	if !ok || result["result"] != 1 {
		t.Errorf("default responder = %v, want result 1", value)
	}
}

func TestOptions_Setters(t *testing.T) {
	responder := ResponderFunc(func(any) (any, error) { return nil, nil })
	logger := slog.Default()

	var opts options
	for _, o := range []Option{
		ResponderOption(responder),
		LoggerOption(logger),
		ChunkSizeOption(512),
	} {
		o(&opts)
	}
	checkOptions(&opts)

	if opts.responder == nil {
		t.Error("responder not set")
	}
	if opts.logger != Logger(logger) {
		t.Error("logger not set")
	}
	if opts.chunkSize != 512 {
		t.Errorf("chunkSize = %d, want 512", opts.chunkSize)
	}
}

func TestChunkSizeOption_NonPositive(t *testing.T) {
	var opts options
	ChunkSizeOption(-1)(&opts)
	checkOptions(&opts)

	if opts.chunkSize != defaultChunkSize {
		t.Errorf("chunkSize = %d, want default %d", opts.chunkSize, defaultChunkSize)
	}
}
