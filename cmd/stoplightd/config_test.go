package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "stoplightd.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()
	if cfg.Addr == "" {
		t.Error("default addr is empty")
	}
	if cfg.Engine != "epoll" {
		t.Errorf("default engine = %q, want epoll", cfg.Engine)
	}
}

func TestLoadConfig_PartialFileKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `addr = "0.0.0.0:9000"`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Addr != "0.0.0.0:9000" {
		t.Errorf("addr = %q, want 0.0.0.0:9000", cfg.Addr)
	}
	if cfg.Engine != "epoll" {
		t.Errorf("engine = %q, want default epoll", cfg.Engine)
	}
	if cfg.ChunkSize != 0 {
		t.Errorf("chunk_size = %d, want unset", cfg.ChunkSize)
	}
}

func TestLoadConfig_AllFields(t *testing.T) {
	path := writeConfig(t, `
addr = "127.0.0.1:7000"
engine = "gnet"
chunk_size = 8192
debug = true
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.Addr != "127.0.0.1:7000" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.Engine != "gnet" {
		t.Errorf("engine = %q, want gnet", cfg.Engine)
	}
	if cfg.ChunkSize != 8192 {
		t.Errorf("chunk_size = %d, want 8192", cfg.ChunkSize)
	}
	if !cfg.Debug {
		t.Error("debug = false, want true")
	}
}

func TestLoadConfig_UnknownEngine(t *testing.T) {
	path := writeConfig(t, `engine = "kqueue"`)

	if _, err := loadConfig(path); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestLoadConfig_InvalidChunkSize(t *testing.T) {
	path := writeConfig(t, `chunk_size = -4`)

	if _, err := loadConfig(path); err == nil {
		t.Error("expected error for negative chunk_size")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Error("expected error for missing file")
	}
}
